// Package server runs long-lived servers side by side and exposes the
// health and metrics endpoints of the process.
package server

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/tripdash/pkg/log"
)

// Server is anything that serves until its context is done.
type Server interface {
	Start(ctx context.Context) error
}

// ServerFunc adapts a function to Server.
type ServerFunc func(ctx context.Context) error

func (f ServerFunc) Start(ctx context.Context) error { return f(ctx) }

// Manager manages the lifecycle of a set of servers.
type Manager struct {
	servers []Server
}

func NewManager(servers ...Server) *Manager {
	return &Manager{servers: servers}
}

// Add registers another server. It must be called before Start.
func (m *Manager) Add(s Server) {
	m.servers = append(m.servers, s)
}

// Start launches all servers in parallel. The first failure stops the others.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, s := range m.servers {
		s := s
		g.Go(func() error {
			return s.Start(ctx)
		})
	}

	log.Info("All servers starting...", "count", len(m.servers))
	return g.Wait()
}
