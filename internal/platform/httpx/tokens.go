package httpx

import (
	"context"

	"github.com/pulseboard/pulseboard/internal/backend"
	"github.com/pulseboard/pulseboard/internal/shared"
)

// SessionTokens sources the bearer token from the session travelling in
// the request context. Calls outside a request (or before login) go out
// unauthenticated.
func SessionTokens() backend.TokenSource {
	return backend.TokenSourceFunc(func(ctx context.Context) string {
		if sess := shared.SessionFromContext(ctx); sess != nil {
			return sess.Token()
		}
		return ""
	})
}
