package handler

import (
	"context"
	"net/http"
)

// Context is the contract every request context satisfies. router.Context
// is the default implementation; applications with richer per-request
// state provide their own and plug it in via a context factory.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	Param(key string) string
	SetValue(key, val any)
}
