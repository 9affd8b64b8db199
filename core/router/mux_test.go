package router_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ipc/core/handler"
	"github.com/dmitrymomot/ipc/core/response"
	"github.com/dmitrymomot/ipc/core/router"
)

func serve(t *testing.T, r router.Router[*router.Context], method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestMuxBasicRouting(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/ping", func(ctx *router.Context) handler.Response {
		return response.String("pong")
	})

	rec := serve(t, r, http.MethodGet, "/ping")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestMuxRouteParams(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/connections/{id}", func(ctx *router.Context) handler.Response {
		return response.String(ctx.Param("id"))
	})

	rec := serve(t, r, http.MethodGet, "/connections/42")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", rec.Body.String())

	rec = serve(t, r, http.MethodGet, "/connections/42/extra")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMuxNotFoundVsMethodNotAllowed(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/only-get", func(ctx *router.Context) handler.Response {
		return response.Status(http.StatusOK)
	})

	rec := serve(t, r, http.MethodPost, "/only-get")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = serve(t, r, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMuxMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mk := func(name string) handler.Middleware[*router.Context] {
		return func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
			return func(ctx *router.Context) handler.Response {
				order = append(order, name)
				return next(ctx)
			}
		}
	}

	r := router.New[*router.Context]()
	r.Use(mk("first"), mk("second"))
	r.Get("/", func(ctx *router.Context) handler.Response {
		order = append(order, "handler")
		return response.Status(http.StatusOK)
	})

	serve(t, r, http.MethodGet, "/")
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestMuxPanicRecovery(t *testing.T) {
	t.Parallel()

	var caught error
	r := router.New[*router.Context](
		router.WithErrorHandler[*router.Context](func(ctx *router.Context, err error) {
			caught = err
			ctx.ResponseWriter().WriteHeader(http.StatusInternalServerError)
		}),
	)
	r.Get("/boom", func(ctx *router.Context) handler.Response {
		panic("kaboom")
	})

	rec := serve(t, r, http.MethodGet, "/boom")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var panicErr router.PanicError
	require.ErrorAs(t, caught, &panicErr)
	assert.Equal(t, "kaboom", panicErr.Value())
	assert.NotEmpty(t, panicErr.Stack())
}

func TestMuxNilResponse(t *testing.T) {
	t.Parallel()

	var caught error
	r := router.New[*router.Context](
		router.WithErrorHandler[*router.Context](func(ctx *router.Context, err error) {
			caught = err
			ctx.ResponseWriter().WriteHeader(http.StatusInternalServerError)
		}),
	)
	r.Get("/", func(ctx *router.Context) handler.Response {
		return nil
	})

	serve(t, r, http.MethodGet, "/")
	assert.True(t, errors.Is(caught, router.ErrNilResponse))
}

func TestMuxResponseError(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/", func(ctx *router.Context) handler.Response {
		return response.Error(errors.New("render failed"))
	})

	rec := serve(t, r, http.MethodGet, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMuxRoutesIntrospection(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/b", func(ctx *router.Context) handler.Response { return response.Status(http.StatusOK) })
	r.Post("/a", func(ctx *router.Context) handler.Response { return response.Status(http.StatusOK) })

	routes := r.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, router.Route{Method: http.MethodPost, Pattern: "/a"}, routes[0])
	assert.Equal(t, router.Route{Method: http.MethodGet, Pattern: "/b"}, routes[1])
}

func TestMuxInvalidPatternPanics(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	assert.Panics(t, func() {
		r.Get("no-leading-slash", func(ctx *router.Context) handler.Response { return nil })
	})
	assert.Panics(t, func() {
		r.Get("/dup/{id}/{id}", func(ctx *router.Context) handler.Response { return nil })
	})
}
