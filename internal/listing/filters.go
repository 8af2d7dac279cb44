// Package listing provides the URL-backed filter state and the paginated
// list controller shared by every list page. Filter state round-trips
// through the page query string so that links, reloads and browser history
// all reproduce the same view.
package listing

import (
	"math"
	"net/url"
	"strconv"
)

// Reserved filter keys carried by every paginated list.
const (
	KeyPage = "page"
	KeySize = "size"
)

// Filters maps field names to primitive values (string, int, float64 or
// bool). The default set supplied at construction fixes each key's type;
// values decoded from a query string are coerced to the type of the
// corresponding default.
type Filters map[string]any

// Decode derives a filter set from a query string. Keys absent from the
// defaults are ignored. Malformed numeric values fall back to the default
// for that key only; decoding never fails.
func Decode(defaults Filters, query url.Values) Filters {
	out := make(Filters, len(defaults))
	for key, def := range defaults {
		out[key] = def
		if !query.Has(key) {
			continue
		}
		raw := query.Get(key)
		switch def.(type) {
		case int:
			if n, err := strconv.Atoi(raw); err == nil {
				out[key] = n
			}
		case float64:
			if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) {
				out[key] = f
			}
		case bool:
			if raw == "true" || raw == "false" {
				out[key] = raw == "true"
			}
		default:
			out[key] = raw
		}
	}
	return out
}

// Encode serialises a filter set to query values. No-op values are omitted
// to keep URLs minimal: nil, empty strings, the "all" sentinel and NaN
// never appear in the output.
func Encode(f Filters) url.Values {
	values := url.Values{}
	for key, v := range f {
		if s, ok := encodeValue(v); ok {
			values.Set(key, s)
		}
	}
	return values
}

func encodeValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		if t == "" || t == "all" {
			return "", false
		}
		return t, true
	case int:
		return strconv.Itoa(t), true
	case float64:
		if math.IsNaN(t) {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// Merge returns a copy of f with the partial set applied on top.
func Merge(f Filters, partial Filters) Filters {
	out := make(Filters, len(f)+len(partial))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range partial {
		out[k] = v
	}
	return out
}

// Int reads an integer field, falling back when absent or mistyped.
func (f Filters) Int(key string, fallback int) int {
	if n, ok := f[key].(int); ok {
		return n
	}
	return fallback
}

// String reads a string field, empty when absent.
func (f Filters) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Bool reads a boolean field.
func (f Filters) Bool(key string) bool {
	b, _ := f[key].(bool)
	return b
}
