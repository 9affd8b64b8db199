// Package middleware provides HTTP middleware for the module's debug and
// transport surfaces: request IDs for log correlation and structured
// request logging.
//
// Middleware is generic over the handler.Context implementation, so it
// composes with both the default router.Context and application-defined
// contexts:
//
//	r := router.New[*router.Context]()
//	r.Use(
//		middleware.RequestID[*router.Context](),
//		middleware.LoggingWithLogger[*router.Context](log),
//	)
//
// Logging runs on the response side of the chain, after the handler has
// written, so it can report status and duration; RequestID stores its ID
// in the context on the request side so downstream handlers and the
// logging middleware both see it.
package middleware
