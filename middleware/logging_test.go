package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ipc/core/handler"
	"github.com/dmitrymomot/ipc/core/response"
	"github.com/dmitrymomot/ipc/core/router"
	"github.com/dmitrymomot/ipc/middleware"
)

func TestLoggingBasicLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	r := router.New[*router.Context]()
	r.Use(middleware.LoggingWithLogger[*router.Context](log))
	r.Get("/ipc/healthz", func(ctx *router.Context) handler.Response {
		return response.String("ok")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ipc/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	out := buf.String()
	assert.Contains(t, out, "http request")
	assert.Contains(t, out, "method=GET")
	assert.Contains(t, out, "path=/ipc/healthz")
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "duration=")
}

func TestLoggingIncludesRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	r := router.New[*router.Context]()
	r.Use(
		middleware.RequestIDWithConfig[*router.Context](middleware.RequestIDConfig{
			Generator: func() string { return "req-123" },
		}),
		middleware.LoggingWithLogger[*router.Context](log),
	)
	r.Get("/", func(ctx *router.Context) handler.Response {
		return response.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, buf.String(), "request_id=req-123")
}

func TestLoggingSlowRequestWarns(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	r := router.New[*router.Context]()
	r.Use(middleware.LoggingWithConfig[*router.Context](middleware.LoggingConfig{
		Logger:               log,
		SlowRequestThreshold: time.Nanosecond,
	}))
	r.Get("/", func(ctx *router.Context) handler.Response {
		time.Sleep(time.Millisecond)
		return response.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "slow_request=true")
}

func TestLoggingSkip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	r := router.New[*router.Context]()
	r.Use(middleware.LoggingWithConfig[*router.Context](middleware.LoggingConfig{
		Logger: log,
		Skip: func(ctx handler.Context) bool {
			return ctx.Request().URL.Path == "/quiet"
		},
	}))
	r.Get("/quiet", func(ctx *router.Context) handler.Response {
		return response.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/quiet", nil))
	assert.Empty(t, buf.String())
}
