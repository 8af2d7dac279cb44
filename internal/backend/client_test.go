package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{BaseURL: srv.URL + "/api"}, StaticToken("test-token"))
	require.NoError(t, err)
	return client, srv
}

func writeEnvelope(w http.ResponseWriter, data any) {
	success := true
	payload, _ := json.Marshal(data)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: &success,
		Code:    200,
		Message: "ok",
		Data:    payload,
	})
}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeEnvelope(w, Profile{ID: 1, Username: "admin"})
	}))

	profile, err := client.CurrentProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "admin", profile.Username)
}

func TestClientSkipsAuthorizationWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeEnvelope(w, nil)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{BaseURL: srv.URL}, StaticToken(""))
	require.NoError(t, err)

	require.NoError(t, client.Logout(context.Background()))
	assert.Empty(t, gotAuth)
}

func TestClientUnwrapsEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/accounts/pageList", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var q AccountQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, 2, q.Page)
		assert.Equal(t, "alpha", q.Name)

		writeEnvelope(w, PageResult[Account]{
			Total: 21,
			Page:  2,
			Size:  10,
			Pages: 3,
			Items: []Account{{ID: 11, Name: "alpha one"}},
		})
	}))

	page, err := client.ListAccounts(context.Background(), AccountQuery{
		PageQuery: PageQuery{Page: 2, Size: 10},
		Name:      "alpha",
	})
	require.NoError(t, err)
	assert.Equal(t, 21, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(11), page.Items[0].ID)

	pg := page.Pagination()
	assert.Equal(t, 3, pg.Pages)
}

func TestClientBusinessFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		success := false
		_ = json.NewEncoder(w).Encode(envelope{
			Success: &success,
			Code:    40001,
			Message: "activation code already used",
		})
	}))

	err := client.InvalidateActivationCode(context.Background(), "CODE-1")
	require.Error(t, err)

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 40001, be.Code)
	assert.Equal(t, "activation code already used", UserMessage(err))
	assert.False(t, IsUnauthorized(err))
}

func TestClientSuccessFlagWinsOverCode(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Envelope with an odd code but an explicit success flag.
		success := true
		payload, _ := json.Marshal(true)
		_ = json.NewEncoder(w).Encode(envelope{Success: &success, Code: 0, Data: payload})
	}))

	require.NoError(t, client.Logout(context.Background()))
}

func TestClientCodeFallbackWithoutSuccessFlag(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(envelope{Code: 500, Message: "boom"})
	}))

	err := client.Logout(context.Background())
	require.Error(t, err)
	assert.Equal(t, "boom", UserMessage(err))
}

func TestClientStatusClassification(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		check   func(error) bool
		message string
	}{
		{"unauthorized", http.StatusUnauthorized, IsUnauthorized, msgSessionExpired},
		{"forbidden", http.StatusForbidden, IsForbidden, msgForbidden},
		{"not found", http.StatusNotFound, IsNotFound, msgNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))

			_, err := client.CurrentProfile(context.Background())
			require.Error(t, err)
			assert.True(t, tc.check(err))
			assert.Equal(t, tc.message, UserMessage(err))
		})
	}
}

func TestClientServerErrorPrefersEnvelopeMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 502, "message": "upstream crawler offline"})
	}))

	_, err := client.CurrentProfile(context.Background())
	require.Error(t, err)
	assert.Equal(t, "upstream crawler offline", UserMessage(err))
}

func TestClientNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client, err := NewClient(Options{BaseURL: srv.URL}, StaticToken(""))
	require.NoError(t, err)

	_, err = client.CurrentProfile(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.Equal(t, msgNetworkError, UserMessage(err))
}

func TestClientExpandsPathParams(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		writeEnvelope(w, []Binding{})
	}))

	_, err := client.ListBindings(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "/api/accounts/42/binddings", gotPath)
}

func TestClientEscapesPathParams(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		writeEnvelope(w, ActivationCode{ID: 1})
	}))

	_, err := client.ActivationCodeDetail(context.Background(), "AB/CD")
	require.NoError(t, err)
	assert.Equal(t, "/api/activation/AB%2FCD", gotPath)
}

func TestClientLoginSpeaksFormFlow(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "admin", r.PostFormValue("username"))
		assert.Equal(t, "s3cret", r.PostFormValue("password"))

		// The token endpoint bypasses the envelope.
		_ = json.NewEncoder(w).Encode(LoginResult{AccessToken: "tok-1", TokenType: "bearer"})
	}))

	result, err := client.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", result.AccessToken)
}

func TestClientLoginRejection(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "bad credentials"})
	}))

	_, err := client.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
}

func TestClientQueryParams(t *testing.T) {
	var gotQuery url.Values
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		writeEnvelope(w, true)
	}))

	require.NoError(t, client.DeleteMonitorConfig(context.Background(), 7))
	assert.Equal(t, "7", gotQuery.Get("id"))
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Options{}, nil)
	require.Error(t, err)
}
