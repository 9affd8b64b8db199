package router

import (
	"net/http"

	"github.com/dmitrymomot/ipc/core/handler"
)

// Router dispatches HTTP requests to type-safe handlers. It supports
// middleware chaining and route introspection.
type Router[C handler.Context] interface {
	http.Handler
	Routes

	Get(pattern string, h handler.HandlerFunc[C])
	Post(pattern string, h handler.HandlerFunc[C])
	Put(pattern string, h handler.HandlerFunc[C])
	Delete(pattern string, h handler.HandlerFunc[C])
	Patch(pattern string, h handler.HandlerFunc[C])
	Head(pattern string, h handler.HandlerFunc[C])
	Options(pattern string, h handler.HandlerFunc[C])

	// Method registers h for pattern under every listed HTTP method.
	Method(pattern string, h handler.HandlerFunc[C], methods ...string)

	// Use appends middleware applied to every route on this router.
	Use(middlewares ...handler.Middleware[C])
}

// Routes provides route introspection for debugging and monitoring.
type Routes interface {
	Routes() []Route
}

// Route describes a single registered route.
type Route struct {
	Method  string
	Pattern string
}

// New creates a router with the given options.
func New[C handler.Context](opts ...Option[C]) Router[C] {
	return newMux[C](opts...)
}
