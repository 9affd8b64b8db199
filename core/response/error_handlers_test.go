package response_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/ipc/core/response"
)

// testContext is a minimal handler.Context for exercising error handlers
// without a router in the loop.
type testContext struct {
	context.Context
	w http.ResponseWriter
	r *http.Request
}

func newTestContext() (*testContext, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return &testContext{Context: req.Context(), w: rec, r: req}, rec
}

func (c *testContext) Request() *http.Request              { return c.r }
func (c *testContext) ResponseWriter() http.ResponseWriter { return c.w }
func (c *testContext) Param(string) string                 { return "" }
func (c *testContext) SetValue(key, val any)               {}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := response.NewHTTPError(http.StatusBadGateway, "upstream failed").
		WithCode("upstream_failed").
		WithError(cause)

	assert.Equal(t, http.StatusBadGateway, err.StatusCode())
	assert.Equal(t, "upstream_failed", err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "upstream failed")

	zero := response.NewHTTPError(0, "")
	assert.Equal(t, http.StatusInternalServerError, zero.Status)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), zero.Message)
}

func TestJSONErrorHandler(t *testing.T) {
	t.Parallel()

	ctx, rec := newTestContext()

	response.JSONErrorHandler(ctx, response.NewHTTPError(http.StatusNotFound, "no such connection").WithCode("not_found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":404,"code":"not_found","message":"no such connection"}`, rec.Body.String())
}

func TestErrorHandlerPlainError(t *testing.T) {
	t.Parallel()

	ctx, rec := newTestContext()

	response.ErrorHandler(ctx, errors.New("something broke"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "something broke")
}

func TestErrorHandlerStatusCodeInterface(t *testing.T) {
	t.Parallel()

	ctx, rec := newTestContext()

	response.ErrorHandler(ctx, statusErr{})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

type statusErr struct{}

func (statusErr) Error() string   { return "conflict" }
func (statusErr) StatusCode() int { return http.StatusConflict }
