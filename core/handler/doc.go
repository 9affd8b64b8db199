// Package handler defines the request-handling contracts shared by
// core/router, core/response, and middleware: the Context interface, the
// Response render function, and the generic HandlerFunc/Middleware/
// ErrorHandler types built on them.
//
// Handlers return a Response instead of writing to the ResponseWriter
// directly, which keeps the decision of what to send separate from the
// act of sending it and lets middleware wrap either side:
//
//	func health(ctx handler.Context) handler.Response {
//		return response.JSON(map[string]string{"status": "ok"})
//	}
//
// The Context type parameter lets an application thread its own context
// type through handlers and middleware without casts; anything
// satisfying the Context interface works.
package handler
