package router

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Context is the default handler.Context implementation: the request's
// own context plus route params and a small per-request value store.
type Context struct {
	w      http.ResponseWriter
	r      *http.Request
	params map[string]string

	mu     sync.RWMutex
	values map[any]any
}

func newContext(w http.ResponseWriter, r *http.Request, params map[string]string) *Context {
	return &Context{w: w, r: r, params: params}
}

// Request returns the underlying HTTP request.
func (c *Context) Request() *http.Request {
	return c.r
}

// ResponseWriter returns the response writer for this request.
func (c *Context) ResponseWriter() http.ResponseWriter {
	return c.w
}

// Param returns the value of the named route parameter, or "" if the
// matched pattern has no such parameter.
func (c *Context) Param(key string) string {
	return c.params[key]
}

// SetValue stores a per-request value retrievable via Value. Middleware
// uses it to hand data (request id, authenticated peer) to handlers.
func (c *Context) SetValue(key, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = make(map[any]any)
	}
	c.values[key] = val
}

// Value looks up key in the per-request store first, then falls back to
// the request's own context chain.
func (c *Context) Value(key any) any {
	c.mu.RLock()
	v, ok := c.values[key]
	c.mu.RUnlock()
	if ok {
		return v
	}
	return c.r.Context().Value(key)
}

// Deadline implements context.Context.
func (c *Context) Deadline() (time.Time, bool) {
	return c.r.Context().Deadline()
}

// Done implements context.Context.
func (c *Context) Done() <-chan struct{} {
	return c.r.Context().Done()
}

// Err implements context.Context.
func (c *Context) Err() error {
	return c.r.Context().Err()
}

var _ context.Context = (*Context)(nil)
