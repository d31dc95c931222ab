package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/tripdash/internal/pkg/metrics"
	"github.com/autopeer-io/tripdash/pkg/options"
)

func TestManager_FirstFailureStopsOthers(t *testing.T) {
	boom := errors.New("boom")
	stopped := make(chan struct{})

	m := NewManager(ServerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)
		return nil
	}))
	m.Add(ServerFunc(func(context.Context) error { return boom }))

	err := m.Start(context.Background())
	assert.ErrorIs(t, err, boom)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("running server was not stopped")
	}
}

func TestManager_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(ServerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}))

	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStatus_Endpoints(t *testing.T) {
	s := NewStatus(options.NewHttpOptions("127.0.0.1:0"))

	assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/readyz").Code)

	metrics.StaleResponsesTotal.WithLabelValues("status-test").Inc()
	rec := get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "status-test"))

	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/nope").Code)
}

func TestStatus_ReadyzChecks(t *testing.T) {
	s := NewStatus(options.NewHttpOptions("127.0.0.1:0"))
	healthy := true
	s.AddReadyzCheck("gateway", func(context.Context) error {
		if !healthy {
			return errors.New("unreachable")
		}
		return nil
	})

	assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/readyz").Code)

	healthy = false
	rec := get(t, s.Handler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "gateway: unreachable")
	assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/healthz").Code)
}

func TestStatus_StartAndShutdown(t *testing.T) {
	s := NewStatus(options.NewHttpOptions("127.0.0.1:0"))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()
	require.NoError(t, <-done)
}
