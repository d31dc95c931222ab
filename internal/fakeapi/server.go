// Package fakeapi is an in-memory implementation of the telemetry gateway,
// used for local development and end-to-end tests.
package fakeapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/autopeer-io/tripdash/pkg/log"
	"github.com/autopeer-io/tripdash/pkg/options"
)

// Server serves the gateway API under /api.
type Server struct {
	opts   *options.FakeAPIOptions
	state  *state
	engine *gin.Engine
	log    log.Logger
}

// New creates a gateway seeded with fx. A nil fx starts empty.
func New(opts *options.FakeAPIOptions, fx *Fixtures) *Server {
	if opts == nil {
		opts = options.NewFakeAPIOptions()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		opts:   opts,
		state:  newState(fx),
		engine: gin.New(),
		log:    log.WithName("fakeapi"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery(), observe(s.log))

	api := r.Group("/api")
	api.Use(apiKey(s.opts.APIKey), rateLimit(s.opts.QPS, s.opts.Burst))
	{
		api.POST("/auth/login", s.login)
	}

	authed := api.Group("")
	authed.Use(s.requireSession)
	{
		authed.GET("/auth/me", s.me)
		authed.POST("/auth/logout", s.logout)

		authed.GET("/devices", s.listDevices)
		authed.GET("/devices/stats", s.deviceStats)
		authed.PUT("/devices/:id/name", s.renameDevice)

		authed.GET("/devices/:id/notes", s.listNotes)
		authed.POST("/devices/:id/notes", s.createNote)
		authed.PATCH("/devices/:id/notes/:noteId", s.updateNote)
		authed.DELETE("/devices/:id/notes/:noteId", s.deleteNote)

		authed.GET("/devices/:id/photo", s.getPhoto)
		authed.PATCH("/devices/:id/photo", s.uploadPhoto)

		authed.GET("/trips/list", s.listTrips)
		authed.GET("/trips/weekday", s.tripsPerWeekday)
		authed.GET("/trips/time-of-day", s.tripsByTimeOfDay)
		authed.GET("/trips/:id", s.getTrip)
		authed.PATCH("/trips/:id", s.patchTrip)
	}
}

// Handler returns the HTTP handler, for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves on opts.HTTP until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.opts.HTTP.Timeout,
		WriteTimeout: s.opts.HTTP.Timeout,
	}

	ln, err := net.Listen(s.opts.HTTP.Network, s.opts.HTTP.Addr)
	if err != nil {
		return err
	}
	s.log.Info("Starting fake gateway", "addr", ln.Addr().String())

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
