package response

import (
	"fmt"
	"net/http"

	"github.com/dmitrymomot/ipc/core/handler"
)

// Error returns a response that propagates err unchanged, deferring the
// actual rendering to the router's error handler.
func Error(err error) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		return err
	}
}

// HTTPError is an error carrying the HTTP status it should be rendered
// with, plus an optional machine-readable code. It serializes cleanly as
// the body of a JSON error response.
type HTTPError struct {
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`

	cause error
}

// NewHTTPError builds an HTTPError. A zero status becomes 500.
func NewHTTPError(status int, message string) HTTPError {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return HTTPError{Status: status, Message: message}
}

// WithCode returns a copy carrying a machine-readable error code.
func (e HTTPError) WithCode(code string) HTTPError {
	e.Code = code
	return e
}

// WithError returns a copy wrapping cause, preserved for errors.Is/As.
func (e HTTPError) WithError(cause error) HTTPError {
	e.cause = cause
	return e
}

func (e HTTPError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// StatusCode reports the HTTP status this error renders with.
func (e HTTPError) StatusCode() int {
	return e.Status
}

// Unwrap exposes the wrapped cause.
func (e HTTPError) Unwrap() error {
	return e.cause
}
