package response

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/ipc/core/handler"
)

// statusCode is an interface that errors can implement to provide a
// custom HTTP status code.
type statusCode interface {
	StatusCode() int
}

// convertToHTTPError normalizes any error into an HTTPError.
func convertToHTTPError(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	status := http.StatusInternalServerError
	if sc, ok := err.(statusCode); ok {
		status = sc.StatusCode()
	}

	return NewHTTPError(status, err.Error()).WithError(err)
}

// ErrorHandler renders errors as plain text. It checks for HTTPError
// first, then the statusCode interface, and defaults to 500.
func ErrorHandler[C handler.Context](ctx C, err error) {
	httpErr := convertToHTTPError(err)
	Render(ctx, StringWithStatus(httpErr.Error(), httpErr.Status))
}

// JSONErrorHandler renders errors as JSON bodies with the same status
// resolution as ErrorHandler.
func JSONErrorHandler[C handler.Context](ctx C, err error) {
	httpErr := convertToHTTPError(err)
	Render(ctx, JSONWithStatus(httpErr, httpErr.Status))
}
