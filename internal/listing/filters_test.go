package listing

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaultFilters() Filters {
	return Filters{
		KeyPage:   1,
		KeySize:   10,
		"name":    "",
		"status":  "all",
		"active":  false,
		"user_id": 0,
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	query := url.Values{}
	query.Set("page", "3")
	query.Set("name", "alpha")
	query.Set("active", "true")

	f := Decode(defaultFilters(), query)
	assert.Equal(t, 3, f.Int(KeyPage, 0))
	assert.Equal(t, "alpha", f.String("name"))
	assert.True(t, f.Bool("active"))
	// Untouched keys keep their defaults.
	assert.Equal(t, 10, f.Int(KeySize, 0))
	assert.Equal(t, "all", f.String("status"))

	encoded := Encode(f)
	assert.Equal(t, "3", encoded.Get("page"))
	assert.Equal(t, "alpha", encoded.Get("name"))
	assert.Equal(t, "true", encoded.Get("active"))

	again := Decode(defaultFilters(), encoded)
	assert.Equal(t, f, again)
}

func TestDecodeIgnoresUnknownKeys(t *testing.T) {
	query := url.Values{}
	query.Set("injected", "value")

	f := Decode(defaultFilters(), query)
	_, ok := f["injected"]
	assert.False(t, ok)
}

func TestDecodeMalformedNumberFallsBack(t *testing.T) {
	query := url.Values{}
	query.Set("page", "banana")
	query.Set("user_id", "12")

	f := Decode(defaultFilters(), query)
	assert.Equal(t, 1, f.Int(KeyPage, 0))
	assert.Equal(t, 12, f.Int("user_id", 0))
}

func TestEncodeOmitsNoOpValues(t *testing.T) {
	f := Filters{
		"name":   "",
		"status": "all",
		"score":  math.NaN(),
		"gone":   nil,
		"page":   2,
	}

	encoded := Encode(f)
	assert.Equal(t, 1, len(encoded))
	assert.Equal(t, "2", encoded.Get("page"))
}

func TestEncodeKeepsFalseAndZero(t *testing.T) {
	// Zero and false are real selections and must survive the URL.
	f := Filters{"active": false, "user_id": 0}

	encoded := Encode(f)
	assert.Equal(t, "false", encoded.Get("active"))
	assert.Equal(t, "0", encoded.Get("user_id"))
}

func TestMergeDoesNotMutate(t *testing.T) {
	base := Filters{"a": 1}
	merged := Merge(base, Filters{"a": 2, "b": 3})

	assert.Equal(t, 1, base.Int("a", 0))
	assert.Equal(t, 2, merged.Int("a", 0))
	assert.Equal(t, 3, merged.Int("b", 0))
}
