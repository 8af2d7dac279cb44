package httpx

import (
	"log/slog"
	"net/http"

	"github.com/pulseboard/pulseboard/internal/backend"
	"github.com/pulseboard/pulseboard/internal/shared"
)

// LoginPath is where expired sessions are sent.
const LoginPath = "/login"

// ReportError is the one place a failed backend call becomes operator
// feedback after a form POST. It queues exactly one flash for the failure
// and redirects: to the login page when the token expired, back to the
// submitting page otherwise. The session itself survives an expiry so the
// flash is still there after the redirect.
func ReportError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, sess *shared.Session, err error, backTo string) {
	if expire(logger, w, r, sess, err) {
		return
	}
	logger.ErrorContext(r.Context(), "backend call failed", "path", r.URL.Path, "error", err)
	sess.AddFlash(shared.FlashMessage{Kind: "error", Message: backend.UserMessage(err)})
	Redirect(w, r, backTo)
}

// HandleError is the GET-side twin of ReportError. It reports whether the
// response was already written; when it returns false the handler keeps
// rendering with whatever data survived, flash queued.
func HandleError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, sess *shared.Session, err error) bool {
	if expire(logger, w, r, sess, err) {
		return true
	}
	logger.ErrorContext(r.Context(), "backend call failed", "path", r.URL.Path, "error", err)
	sess.AddFlash(shared.FlashMessage{Kind: "error", Message: backend.UserMessage(err)})
	return false
}

func expire(logger *slog.Logger, w http.ResponseWriter, r *http.Request, sess *shared.Session, err error) bool {
	if !backend.IsUnauthorized(err) {
		return false
	}
	logger.InfoContext(r.Context(), "session expired", "path", r.URL.Path)
	sess.ClearToken()
	sess.SetUser("")
	sess.AddFlash(shared.FlashMessage{Kind: "error", Message: backend.UserMessage(err)})
	Redirect(w, r, LoginPath)
	return true
}
