// Package router implements a small, type-safe HTTP router for the
// module's debug and transport surfaces.
//
// Routes are method + pattern pairs; a "{name}" segment matches one path
// segment and is exposed through the request context's Param method:
//
//	r := router.New[*router.Context]()
//	r.Use(middleware.RequestID[*router.Context]())
//	r.Get("/ipc/healthz", healthz)
//	r.Get("/ipc/connections/{id}", connectionByID)
//
// Handlers return a handler.Response; errors returned by the response
// (or panics raised inside handlers) are routed through the configured
// error handler, which by default maps ErrNotFound/ErrMethodNotAllowed
// and any statusCode-carrying error to the corresponding HTTP status.
//
// The router deliberately keeps a flat route table: the surfaces it
// serves have a handful of routes, and a flat table keeps matching
// obvious and introspection (Routes) trivial.
package router
