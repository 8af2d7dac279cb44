// Package httpx provides the handler-side plumbing for a server-rendered
// console: redirects, JSON responses for the few machine endpoints, and
// the single place backend failures get turned into operator feedback.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Redirect issues a see-other redirect, the right verb after a form POST.
func Redirect(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// BackURL picks the redirect target after a failed action: the submitted
// return path when it is a safe local path, the fallback otherwise.
func BackURL(r *http.Request, fallback string) string {
	back := r.FormValue("return_to")
	if len(back) > 1 && back[0] == '/' && back[1] != '/' {
		return back
	}
	return fallback
}
