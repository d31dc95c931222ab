package dashboard

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/tripdash/internal/daterange"
	"github.com/autopeer-io/tripdash/internal/paging"
	"github.com/autopeer-io/tripdash/pkg/log"
)

// Filter is the filter identity of the dashboard lists.
type Filter struct {
	DeviceID string
	Range    daterange.Range
}

// Subscriber reacts to filter changes.
type Subscriber interface {
	Name() string
	// Reset drops data of the previous filter. It must not block.
	Reset(f Filter)
	// Refresh loads data for the filter passed to the last Reset.
	Refresh(ctx context.Context) error
}

// Bus dispatches filter changes: every subscriber is reset first, then all
// of them refresh concurrently.
type Bus struct {
	mu      sync.Mutex
	subs    []Subscriber
	current Filter
	log     log.Logger
}

func NewBus() *Bus {
	return &Bus{log: log.WithName("bus")}
}

func (b *Bus) Register(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, s)
}

// Current returns the last published filter.
func (b *Bus) Current() Filter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Publish announces f. With no vehicle the subscribers are only reset.
func (b *Bus) Publish(ctx context.Context, f Filter) error {
	b.mu.Lock()
	b.current = f
	subs := append([]Subscriber(nil), b.subs...)
	b.mu.Unlock()

	for _, s := range subs {
		s.Reset(f)
	}
	b.log.Debug("Filter changed", "device", f.DeviceID, "range", f.Range)

	if f.DeviceID == "" {
		return nil
	}
	return b.refresh(ctx, subs)
}

// Refresh reloads every subscriber for the current filter.
func (b *Bus) Refresh(ctx context.Context) error {
	b.mu.Lock()
	subs := append([]Subscriber(nil), b.subs...)
	empty := b.current.DeviceID == ""
	b.mu.Unlock()

	if empty {
		return nil
	}
	return b.refresh(ctx, subs)
}

func (b *Bus) refresh(ctx context.Context, subs []Subscriber) error {
	// a failing list must not cancel the others
	var g errgroup.Group
	for _, s := range subs {
		s := s
		g.Go(func() error {
			if err := s.Refresh(ctx); err != nil {
				b.log.Warn("Refresh failed", "subscriber", s.Name(), "error", err)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// listSubscriber connects a paginated list to the bus.
type listSubscriber[T any] struct {
	name string
	c    *paging.Controller[Filter, T]
}

func (l listSubscriber[T]) Name() string { return l.name }

func (l listSubscriber[T]) Reset(f Filter) {
	if f.DeviceID == "" {
		l.c.Clear()
		return
	}
	l.c.Reset(f)
}

func (l listSubscriber[T]) Refresh(ctx context.Context) error {
	return l.c.Refresh(ctx)
}

// deviceScoped lets mutators edit a list while it still shows their vehicle.
type deviceScoped[T any] struct {
	c *paging.Controller[Filter, T]
}

func (d deviceScoped[T]) Edit(deviceID string, fn func([]T) []T) bool {
	f := d.c.Snapshot().Filter
	if f.DeviceID != deviceID {
		return false
	}
	return d.c.Mutate(f, fn)
}
