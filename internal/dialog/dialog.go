// Package dialog implements the single-slot modal dialog state shared by
// the feature pages, plus the confirmation flow used in front of
// destructive actions. A page declares its dialogs in a Registry fixed at
// build time; which dialog is open travels in the page URL so modals
// survive reloads and redirects.
package dialog

import "net/url"

// QueryKey is the query-string key carrying the active dialog tag.
const QueryKey = "dialog"

// State is the tagged dialog state: at most one dialog is open at a time,
// and Open holds exactly when a tag is set.
type State struct {
	Type string
	Data any
	Open bool
}

// FromQuery reads the active dialog tag from a query string. At most one
// dialog is open per page; opening another replaces the tag in the URL, so
// two simultaneously open dialogs are structurally impossible. The payload
// is left nil; the owning page loads it once the tag is known.
func FromQuery(query url.Values) State {
	tag := query.Get(QueryKey)
	if tag == "" {
		return State{}
	}
	return State{Type: tag, Open: true}
}

// Config describes one dialog of a page: the chrome the shared partial
// renders plus the template that supplies the interior content.
type Config struct {
	Title       string
	Description string
	Template    string
	Class       string
}

// Registry maps dialog tags to their configuration. It is assembled once
// per page at construction time.
type Registry map[string]Config

// View is a resolved dialog ready for rendering.
type View struct {
	Tag         string
	Title       string
	Description string
	Template    string
	Class       string
	Data        any
	CloseURL    string
}

// Resolve looks up the active dialog in the registry. A closed state or an
// unregistered tag yields no view; an unknown tag is a wiring bug and is
// deliberately not surfaced to the user.
func (r Registry) Resolve(st State, closeURL string) (*View, bool) {
	if !st.Open || st.Type == "" {
		return nil, false
	}
	cfg, ok := r[st.Type]
	if !ok {
		return nil, false
	}
	return &View{
		Tag:         st.Type,
		Title:       cfg.Title,
		Description: cfg.Description,
		Template:    cfg.Template,
		Class:       cfg.Class,
		Data:        st.Data,
		CloseURL:    closeURL,
	}, true
}
