// Package paging implements the reset-then-fetch life cycle shared by the
// trips and notes lists.
package paging

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/autopeer-io/tripdash/internal/pkg/metrics"
	"github.com/autopeer-io/tripdash/pkg/log"
)

// ErrNoFilter is returned when a page is requested before any filter was set.
var ErrNoFilter = errors.New("no filter set")

// FetchFunc loads one page for a filter. Pages are zero based.
type FetchFunc[K comparable, T any] func(ctx context.Context, filter K, page, pageSize int) ([]T, error)

// Config describes one list.
type Config[K comparable, T any] struct {
	// Name labels logs and metrics.
	Name     string
	PageSize int
	Fetch    FetchFunc[K, T]
	// SortKey is the timestamp items are ordered by, newest first.
	SortKey func(T) time.Time
}

// State is a consistent copy of the controller state.
type State[K comparable, T any] struct {
	Filter      K
	HasFilter   bool
	Items       []T
	Page        int
	HasMore     bool
	Loading     bool
	LoadingMore bool
	// Err is the last fetch failure, cleared by the next success or reset.
	Err error
}

// Controller holds the items of one paginated list for the current filter.
//
// There is no total count in the gateway contract, so a page shorter than
// PageSize is taken as the last one. Every Reset starts a new generation;
// results of fetches started in an older generation are dropped.
type Controller[K comparable, T any] struct {
	cfg Config[K, T]
	log log.Logger

	mu          sync.Mutex
	gen         uint64
	filter      K
	hasFilter   bool
	items       []T
	page        int
	hasMore     bool
	loading     bool
	loadingMore bool
	err         error
}

// New returns an empty controller; Reset or SetFilter starts it.
func New[K comparable, T any](cfg Config[K, T]) *Controller[K, T] {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	return &Controller[K, T]{
		cfg:     cfg,
		log:     log.WithName("paging").WithValues("list", cfg.Name),
		hasMore: true,
	}
}

// PageSize returns the configured page size.
func (c *Controller[K, T]) PageSize() int {
	return c.cfg.PageSize
}

// Reset switches to filter and clears the list without fetching. The list is
// marked loading until the next LoadPage(0) settles.
func (c *Controller[K, T]) Reset(filter K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.filter, c.hasFilter = filter, true
	c.items = nil
	c.page = 0
	c.hasMore = true
	c.loading = true
	c.loadingMore = false
	c.err = nil
}

// Clear forgets the filter. Fetches still running are discarded.
func (c *Controller[K, T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero K
	c.gen++
	c.filter, c.hasFilter = zero, false
	c.items = nil
	c.page = 0
	c.hasMore = false
	c.loading = false
	c.loadingMore = false
	c.err = nil
}

// SetFilter resets and loads the first page when filter differs from the
// current one. It returns whether a reset happened.
func (c *Controller[K, T]) SetFilter(ctx context.Context, filter K) (bool, error) {
	c.mu.Lock()
	same := c.hasFilter && c.filter == filter
	c.mu.Unlock()
	if same {
		return false, nil
	}

	c.Reset(filter)
	return true, c.LoadPage(ctx, 0)
}

// Refresh reloads the first page of the current filter.
func (c *Controller[K, T]) Refresh(ctx context.Context) error {
	return c.LoadPage(ctx, 0)
}

// LoadPage fetches page for the current filter. Page 0 replaces the items,
// later pages are appended. On failure the items and HasMore are kept.
func (c *Controller[K, T]) LoadPage(ctx context.Context, page int) error {
	c.mu.Lock()
	if !c.hasFilter {
		c.mu.Unlock()
		return ErrNoFilter
	}
	gen, filter := c.gen, c.filter
	c.markLocked(page, true)
	c.mu.Unlock()

	return c.run(ctx, gen, filter, page)
}

// LoadMore fetches the next page. It does nothing while a fetch is running
// or once the list is exhausted.
func (c *Controller[K, T]) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if !c.hasFilter || c.loading || c.loadingMore || !c.hasMore {
		c.mu.Unlock()
		return nil
	}
	gen, filter, page := c.gen, c.filter, c.page+1
	c.markLocked(page, true)
	c.mu.Unlock()

	return c.run(ctx, gen, filter, page)
}

// Snapshot returns a copy of the state.
func (c *Controller[K, T]) Snapshot() State[K, T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State[K, T]{
		Filter:      c.filter,
		HasFilter:   c.hasFilter,
		Items:       append([]T(nil), c.items...),
		Page:        c.page,
		HasMore:     c.hasMore,
		Loading:     c.loading,
		LoadingMore: c.loadingMore,
		Err:         c.err,
	}
}

// Mutate edits the local items if filter is still current, then restores
// the order. It reports whether fn ran.
func (c *Controller[K, T]) Mutate(filter K, fn func(items []T) []T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasFilter || c.filter != filter {
		return false
	}
	c.items = fn(append([]T(nil), c.items...))
	c.sort(c.items)
	return true
}

func (c *Controller[K, T]) markLocked(page int, on bool) {
	if page == 0 {
		c.loading = on
	} else {
		c.loadingMore = on
	}
}

func (c *Controller[K, T]) run(ctx context.Context, gen uint64, filter K, page int) error {
	batch, err := c.cfg.Fetch(ctx, filter, page, c.cfg.PageSize)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		metrics.StaleResponsesTotal.WithLabelValues(c.cfg.Name).Inc()
		c.log.Debug("Discarding stale page", "page", page, "generation", gen, "current", c.gen)
		return nil
	}

	c.markLocked(page, false)

	if err != nil {
		c.err = err
		c.log.Error(err, "Failed to load page", "page", page)
		return err
	}

	c.sort(batch)
	if page == 0 {
		c.items = batch
	} else {
		c.items = append(c.items, batch...)
	}
	c.page = page
	c.hasMore = len(batch) == c.cfg.PageSize
	c.err = nil
	return nil
}

func (c *Controller[K, T]) sort(items []T) {
	if c.cfg.SortKey == nil {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		return c.cfg.SortKey(items[i]).After(c.cfg.SortKey(items[j]))
	})
}
