package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/ipc/core/handler"
)

var (
	ErrNoContextFactory = errors.New("no context factory provided")
	ErrNilResponse      = errors.New("nil response")
	ErrInvalidMethod    = errors.New("invalid http method")
	ErrInvalidPattern   = errors.New("invalid route path pattern")

	// Routing errors carry their HTTP status so any error handler -
	// the plain-text default or a JSON one - renders them correctly.
	ErrMethodNotAllowed error = routeError{msg: "method not allowed", status: http.StatusMethodNotAllowed}
	ErrNotFound         error = routeError{msg: "not found", status: http.StatusNotFound}
)

type routeError struct {
	msg    string
	status int
}

func (e routeError) Error() string {
	return e.msg
}

// StatusCode reports the HTTP status this error renders with.
func (e routeError) StatusCode() int {
	return e.status
}

// statusCode is an unexported interface that errors can implement
// to provide a custom HTTP status code.
type statusCode interface {
	StatusCode() int
}

// defaultErrorHandler provides default error handling.
func defaultErrorHandler[C handler.Context](ctx C, err error) {
	w := ctx.ResponseWriter()

	// Prevent double-writing responses which causes HTTP protocol errors
	if ww, ok := w.(*responseWriter); ok && ww.Written() {
		return
	}

	status := http.StatusInternalServerError
	if sc, ok := err.(statusCode); ok {
		status = sc.StatusCode()
	}

	http.Error(w, err.Error(), status)
}

// PanicError lets external error handlers detect and handle panics. When
// a panic is recovered by the router it is wrapped in an error
// implementing this interface, carrying the original panic value and the
// stack trace captured at the panic point.
type PanicError interface {
	error
	Value() any
	Stack() []byte
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func (e *panicError) Value() any {
	return e.value
}

func (e *panicError) Stack() []byte {
	return e.stack
}

// Unwrap allows errors.Is/As to work with wrapped panics.
func (e *panicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}
