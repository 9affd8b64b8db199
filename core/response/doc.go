// Package response provides handler.Response constructors for the debug
// and transport HTTP surfaces: plain text, JSON, bare status codes,
// error propagation, and WebSocket upgrades.
//
// A Response does all its writing when the router invokes it, so
// constructors are cheap to build and compose:
//
//	r.Get("/ipc/healthz", func(ctx *router.Context) handler.Response {
//		return response.JSON(hubStats())
//	})
//
// Errors flow in two directions. response.Error(err) defers rendering to
// the router's error handler; ErrorHandler and JSONErrorHandler are
// ready-made error handlers that normalize anything into an HTTPError
// before rendering. A WebSocket response is the odd one out: once the
// connection is upgraded the HTTP exchange is over, so its errors go to
// the WithWSErrorHandler callback instead.
package response
