package router

import (
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/dmitrymomot/ipc/core/handler"
)

// mux is the private Router implementation: a flat, segment-matched route
// table. Patterns are "/"-separated; a "{name}" segment matches any
// single path segment and binds it as a route parameter.
type mux[C handler.Context] struct {
	routes       []*route[C]
	middlewares  []handler.Middleware[C]
	errorHandler handler.ErrorHandler[C]
	newContext   func(http.ResponseWriter, *http.Request, map[string]string) C
	logger       *slog.Logger
}

type route[C handler.Context] struct {
	method   string
	pattern  string
	segments []string
	handler  handler.HandlerFunc[C]
}

func newMux[C handler.Context](opts ...Option[C]) *mux[C] {
	m := &mux[C]{
		errorHandler: defaultErrorHandler[C],
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.newContext == nil {
		m.newContext = func(w http.ResponseWriter, r *http.Request, params map[string]string) C {
			// Only the default *Context type works without a factory;
			// custom context types must provide one.
			var zero C
			if _, ok := any(zero).(*Context); ok {
				return any(newContext(w, r, params)).(C)
			}
			panic(ErrNoContextFactory)
		}
	}

	return m
}

func (m *mux[C]) Get(pattern string, h handler.HandlerFunc[C]) {
	m.Method(pattern, h, http.MethodGet)
}

func (m *mux[C]) Post(pattern string, h handler.HandlerFunc[C]) {
	m.Method(pattern, h, http.MethodPost)
}

func (m *mux[C]) Put(pattern string, h handler.HandlerFunc[C]) {
	m.Method(pattern, h, http.MethodPut)
}

func (m *mux[C]) Delete(pattern string, h handler.HandlerFunc[C]) {
	m.Method(pattern, h, http.MethodDelete)
}

func (m *mux[C]) Patch(pattern string, h handler.HandlerFunc[C]) {
	m.Method(pattern, h, http.MethodPatch)
}

func (m *mux[C]) Head(pattern string, h handler.HandlerFunc[C]) {
	m.Method(pattern, h, http.MethodHead)
}

func (m *mux[C]) Options(pattern string, h handler.HandlerFunc[C]) {
	m.Method(pattern, h, http.MethodOptions)
}

func (m *mux[C]) Method(pattern string, h handler.HandlerFunc[C], methods ...string) {
	if !strings.HasPrefix(pattern, "/") {
		panic(ErrInvalidPattern)
	}
	segments := splitPath(pattern)
	seen := make(map[string]struct{})
	for _, seg := range segments {
		if name, ok := paramName(seg); ok {
			if _, dup := seen[name]; dup {
				panic(ErrInvalidPattern)
			}
			seen[name] = struct{}{}
		}
	}

	for _, method := range methods {
		if method == "" {
			panic(ErrInvalidMethod)
		}
		m.routes = append(m.routes, &route[C]{
			method:   strings.ToUpper(method),
			pattern:  pattern,
			segments: segments,
			handler:  h,
		})
	}
}

func (m *mux[C]) Use(middlewares ...handler.Middleware[C]) {
	m.middlewares = append(m.middlewares, middlewares...)
}

// Routes returns every registered route, sorted for stable output.
func (m *mux[C]) Routes() []Route {
	out := make([]Route, 0, len(m.routes))
	for _, rt := range m.routes {
		out = append(out, Route{Method: rt.method, Pattern: rt.pattern})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pattern != out[j].Pattern {
			return out[i].Pattern < out[j].Pattern
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// ServeHTTP implements http.Handler.
func (m *mux[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ww := newResponseWriter(w)

	path := r.URL.Path
	if path == "" {
		path = "/"
	}
	segments := splitPath(path)

	rt, params, pathKnown := m.match(r.Method, segments)

	ctx := m.newContext(ww, r, params)

	defer func() {
		if p := recover(); p != nil {
			panicErr := &panicError{value: p, stack: debug.Stack()}
			if ww.Written() {
				m.logger.Error("panic after response written",
					"value", panicErr.value,
					"stack", string(panicErr.stack),
					"path", r.URL.Path,
					"method", r.Method,
					"status", ww.Status(),
				)
				return
			}
			m.errorHandler(ctx, panicErr)
		}
	}()

	if rt == nil {
		if pathKnown {
			m.errorHandler(ctx, ErrMethodNotAllowed)
		} else {
			m.errorHandler(ctx, ErrNotFound)
		}
		return
	}

	h := rt.handler
	for i := len(m.middlewares) - 1; i >= 0; i-- {
		h = m.middlewares[i](h)
	}

	resp := h(ctx)
	if resp == nil {
		m.errorHandler(ctx, ErrNilResponse)
		return
	}
	if err := resp(ww, r); err != nil {
		m.errorHandler(ctx, err)
	}
}

// match finds the route for (method, path segments). pathKnown reports
// whether some route matched the path under a different method, which
// distinguishes 405 from 404.
func (m *mux[C]) match(method string, segments []string) (rt *route[C], params map[string]string, pathKnown bool) {
	for _, candidate := range m.routes {
		p, ok := matchSegments(candidate.segments, segments)
		if !ok {
			continue
		}
		pathKnown = true
		if candidate.method == method {
			return candidate, p, true
		}
	}
	return nil, nil, pathKnown
}

func matchSegments(pattern, path []string) (map[string]string, bool) {
	if len(pattern) != len(path) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range pattern {
		if name, ok := paramName(seg); ok {
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = path[i]
			continue
		}
		if seg != path[i] {
			return nil, false
		}
	}
	return params, true
}

func paramName(segment string) (string, bool) {
	if len(segment) > 2 && segment[0] == '{' && segment[len(segment)-1] == '}' {
		return segment[1 : len(segment)-1], true
	}
	return "", false
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
