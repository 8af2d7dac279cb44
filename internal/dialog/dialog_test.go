package dialog

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromQuery(t *testing.T) {
	st := FromQuery(url.Values{QueryKey: {"delete"}})
	assert.True(t, st.Open)
	assert.Equal(t, "delete", st.Type)
	assert.Nil(t, st.Data)

	st = FromQuery(url.Values{})
	assert.False(t, st.Open)
}

func TestRegistryResolve(t *testing.T) {
	reg := Registry{
		"create": {Title: "New account", Template: "dialogs/account_form.html"},
		"delete": {Title: "Delete account", Class: "danger"},
	}

	view, ok := reg.Resolve(State{Type: "create", Open: true, Data: 42}, "/accounts")
	require.True(t, ok)
	assert.Equal(t, "New account", view.Title)
	assert.Equal(t, "dialogs/account_form.html", view.Template)
	assert.Equal(t, 42, view.Data)
	assert.Equal(t, "/accounts", view.CloseURL)
}

func TestRegistryResolveClosedOrUnknown(t *testing.T) {
	reg := Registry{"create": {Title: "New"}}

	_, ok := reg.Resolve(State{}, "/")
	assert.False(t, ok)

	// Tags outside the registry never reach the page.
	_, ok = reg.Resolve(State{Type: "smuggled", Open: true}, "/")
	assert.False(t, ok)
}
