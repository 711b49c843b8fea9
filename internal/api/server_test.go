package api

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	s := NewServer(0, nil, zap.NewNop())

	rec := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestReadyzFollowsBootstrap(t *testing.T) {
	t.Parallel()
	var ready atomic.Bool
	s := NewServer(0, ready.Load, zap.NewNop())

	rec := get(t, s.Handler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready.Store(true)
	rec = get(t, s.Handler(), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	s := NewServer(0, nil, zap.NewNop())

	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}
