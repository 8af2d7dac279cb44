package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is the normalised failure of a backend call. Status is the HTTP
// status when the transport produced a response, zero otherwise; Code is
// the business code from the envelope when the failure was reported inside
// a 2xx response.
type Error struct {
	Status  int
	Code    int
	Message string
	Network bool
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Network:
		return fmt.Sprintf("backend: network failure: %s", e.Message)
	case e.Status != 0:
		return fmt.Sprintf("backend: http %d: %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("backend: business code %d: %s", e.Code, e.Message)
	}
}

// Unwrap exposes the transport cause, when any.
func (e *Error) Unwrap() error { return e.cause }

// User-facing messages per failure class. The flash shown to the operator
// comes from here for transport failures and from the envelope for
// business failures.
const (
	msgSessionExpired = "Session expired, please sign in again"
	msgForbidden      = "You do not have permission to access this resource"
	msgNotFound       = "The requested resource was not found"
	msgServerError    = "The server encountered an internal error"
	msgNetworkError   = "Network error, please check your connection"
	msgGenericError   = "Request failed"
)

func networkError(cause error) *Error {
	return &Error{Network: true, Message: msgNetworkError, cause: cause}
}

func statusError(status int, body []byte) *Error {
	e := &Error{Status: status}
	serverMessage := envelopeMessage(body)
	switch {
	case status == http.StatusUnauthorized:
		e.Message = msgSessionExpired
	case status == http.StatusForbidden:
		e.Message = msgForbidden
	case status == http.StatusNotFound:
		e.Message = msgNotFound
	case status >= 500:
		e.Message = serverMessage
		if e.Message == "" {
			e.Message = msgServerError
		}
	default:
		e.Message = serverMessage
		if e.Message == "" {
			e.Message = fmt.Sprintf("%s (%d)", msgGenericError, status)
		}
	}
	return e
}

func businessError(code int, message string) *Error {
	if message == "" {
		message = msgGenericError
	}
	return &Error{Code: code, Message: message}
}

func envelopeMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Message
}

// IsUnauthorized reports whether err is a 401 transport failure.
func IsUnauthorized(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusUnauthorized
}

// IsForbidden reports whether err is a 403 transport failure.
func IsForbidden(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusForbidden
}

// IsNotFound reports whether err is a 404 transport failure.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

// IsNetwork reports whether err is a no-response transport failure.
func IsNetwork(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Network
}

// UserMessage extracts the message to surface for a backend failure.
// Non-backend errors fall back to a generic message so internals never
// leak into a flash.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return msgGenericError
}
