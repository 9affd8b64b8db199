package router

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/ipc/core/handler"
)

// Option configures a router at construction time.
type Option[C handler.Context] func(*mux[C])

// WithContextFactory supplies the factory that builds the per-request
// context. Required for any context type other than *Context.
func WithContextFactory[C handler.Context](factory func(http.ResponseWriter, *http.Request, map[string]string) C) Option[C] {
	return func(m *mux[C]) {
		m.newContext = factory
	}
}

// WithErrorHandler replaces the default plain-text error handler.
func WithErrorHandler[C handler.Context](h handler.ErrorHandler[C]) Option[C] {
	return func(m *mux[C]) {
		if h != nil {
			m.errorHandler = h
		}
	}
}

// WithRouterLogger attaches a logger used for panics that occur after the
// response has already been written. The zero value logs nothing.
func WithRouterLogger[C handler.Context](l *slog.Logger) Option[C] {
	return func(m *mux[C]) {
		if l != nil {
			m.logger = l
		}
	}
}
