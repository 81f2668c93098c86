package observability

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	assert.NotPanics(t, func() {
		defer RecoverPanic(logger, "worker")
		panic("boom")
	})
	assert.Contains(t, buf.String(), "PANIC recovered")
	assert.Contains(t, buf.String(), `"context":"worker"`)
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	handler := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil map")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/roles", nil)
	req = req.WithContext(WithLogger(context.Background(), logger))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error","message":"Internal server error"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "nil map")
}

func TestMustRecover(t *testing.T) {
	assert.NoError(t, MustRecover(nil))
	assert.EqualError(t, MustRecover("boom"), "panic: boom")
}
