package handler

import "net/http"

// Response renders an HTTP response: it sets headers, the status code,
// and writes the body. A rendering error is passed to the router's error
// handler.
type Response func(w http.ResponseWriter, r *http.Request) error

// HandlerFunc is a type-safe request handler parameterized over the
// request context implementation.
type HandlerFunc[C Context] func(ctx C) Response

// ErrorHandler turns an error raised during request processing into a
// response.
type ErrorHandler[C Context] func(ctx C, err error)

// Middleware wraps a handler to add cross-cutting behavior.
type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]
