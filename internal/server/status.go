package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopeer-io/tripdash/internal/pkg/metrics"
	"github.com/autopeer-io/tripdash/pkg/log"
	"github.com/autopeer-io/tripdash/pkg/options"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Status serves /healthz, /readyz and /metrics.
type Status struct {
	opts   *options.HttpOptions
	router *mux.Router

	mu     sync.RWMutex
	checks map[string]Check
}

func NewStatus(opts *options.HttpOptions) *Status {
	s := &Status{
		opts:   opts,
		router: mux.NewRouter(),
		checks: map[string]Check{},
	}

	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	s.router.HandleFunc("/readyz", s.ready).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return s
}

// AddReadyzCheck registers a named readiness check.
func (s *Status) AddReadyzCheck(name string, c Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = c
}

func (s *Status) ready(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	checks := make(map[string]Check, len(s.checks))
	for name, c := range s.checks {
		checks[name] = c
	}
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, c := range checks {
		if err := c(ctx); err != nil {
			log.Warn("Readiness check failed", "check", name, "error", err)
			http.Error(w, name+": "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Status) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is done.
func (s *Status) Start(ctx context.Context) error {
	srv := &http.Server{
		Handler:     s.router,
		ReadTimeout: s.opts.Timeout,
	}

	ln, err := net.Listen(s.opts.Network, s.opts.Addr)
	if err != nil {
		return err
	}
	log.Info("Starting status server", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
