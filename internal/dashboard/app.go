// Package dashboard wires the gateway client, the session guard, the vehicle
// registry, the paginated lists and the mutators into one application
// context with a defined start and close.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/tripdash/internal/apiclient"
	"github.com/autopeer-io/tripdash/internal/daterange"
	"github.com/autopeer-io/tripdash/internal/mutator"
	"github.com/autopeer-io/tripdash/internal/paging"
	"github.com/autopeer-io/tripdash/internal/pkg/errdefs"
	"github.com/autopeer-io/tripdash/internal/registry"
	"github.com/autopeer-io/tripdash/internal/route"
	"github.com/autopeer-io/tripdash/internal/session"
	"github.com/autopeer-io/tripdash/internal/store"
	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
	"github.com/autopeer-io/tripdash/pkg/log"
	"github.com/autopeer-io/tripdash/pkg/options"
)

const (
	tripsList = "trips"
	notesList = "notes"
)

// Config holds everything needed to build an App.
type Config struct {
	ApiOptions       *options.ApiOptions
	StoreOptions     *options.StoreOptions
	DashboardOptions *options.DashboardOptions

	// Store replaces the one described by StoreOptions when set.
	Store store.Store
	// Clock defaults to the wall clock.
	Clock clock.PassiveClock
	// Confirmer approves note deletion; nil approves everything.
	Confirmer mutator.Confirmer
	// PreviewDir holds photo previews; empty uses the system temp dir.
	PreviewDir string
}

// App is the application context. All state lives here and is released by Close.
type App struct {
	client   *apiclient.Client
	store    store.Store
	guard    *session.Guard
	registry *registry.Registry
	bus      *Bus

	trips *paging.Controller[Filter, v1.Trip]
	notes *paging.Controller[Filter, v1.Note]

	Notes   *mutator.Notes
	Trips   *mutator.Trips
	Devices *mutator.Devices
	Photos  *mutator.Photos

	clock            clock.PassiveClock
	loc              *time.Location
	timeBetweenTrips time.Duration
	log              log.Logger

	mu       sync.Mutex
	location route.Location
	rng      daterange.Range
	closed   bool
}

// NewApp builds the application context. Nothing is fetched until Start.
func (cfg *Config) NewApp() (*App, error) {
	if cfg.ApiOptions == nil {
		cfg.ApiOptions = options.NewApiOptions()
	}
	if cfg.DashboardOptions == nil {
		cfg.DashboardOptions = options.NewDashboardOptions()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}

	loc, err := cfg.DashboardOptions.Location()
	if err != nil {
		return nil, err
	}

	s := cfg.Store
	if s == nil {
		if cfg.StoreOptions == nil {
			cfg.StoreOptions = options.NewStoreOptions()
		}
		if s, err = store.Open(cfg.StoreOptions); err != nil {
			return nil, fmt.Errorf("failed to open local store: %w", err)
		}
	}

	client, err := apiclient.New(cfg.ApiOptions, nil)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	a := &App{
		client:           client,
		store:            s,
		guard:            session.NewGuard(client, cfg.DashboardOptions.SessionCacheTTL),
		registry:         registry.New(client, s),
		bus:              NewBus(),
		clock:            cfg.Clock,
		loc:              loc,
		timeBetweenTrips: cfg.DashboardOptions.TimeBetweenTrips,
		log:              log.WithName("dashboard"),
		location:         route.Root(""),
		rng:              daterange.Default,
	}

	a.trips = paging.New(paging.Config[Filter, v1.Trip]{
		Name:     tripsList,
		PageSize: cfg.DashboardOptions.TripsPageSize,
		Fetch:    a.fetchTrips,
		SortKey:  func(t v1.Trip) time.Time { return t.StartTime },
	})
	a.notes = paging.New(paging.Config[Filter, v1.Note]{
		Name:     notesList,
		PageSize: cfg.DashboardOptions.NotesPageSize,
		Fetch:    a.fetchNotes,
		SortKey:  func(n v1.Note) time.Time { return n.Date },
	})
	a.bus.Register(listSubscriber[v1.Trip]{name: tripsList, c: a.trips})
	a.bus.Register(listSubscriber[v1.Note]{name: notesList, c: a.notes})

	a.Notes = mutator.NewNotes(client, deviceScoped[v1.Note]{c: a.notes}, cfg.Confirmer)
	a.Trips = mutator.NewTrips(client, deviceScoped[v1.Trip]{c: a.trips})
	a.Devices = mutator.NewDevices(client, a.registry)
	a.Photos = mutator.NewPhotos(client, cfg.PreviewDir)

	return a, nil
}

// Start restores the persisted session, checks it and, when authenticated,
// hydrates the vehicle registry and loads the lists for requested.
// A failed hydration is logged and leaves the dashboard without a vehicle.
func (a *App) Start(ctx context.Context, requested route.Location) (session.Decision, error) {
	if err := a.restoreCookies(ctx); err != nil {
		a.log.Warn("Ignoring saved session", "error", err)
	}
	a.loadRange(ctx)

	d := a.guard.Check(ctx, requested)
	if !d.Allowed() {
		return d, nil
	}

	if err := a.registry.Hydrate(ctx); err != nil {
		if errdefs.IsUnauthorized(err) {
			a.guard.Invalidate()
			return a.guard.Check(ctx, requested), nil
		}
		a.log.Warn("Vehicle list unavailable", "error", err)
	}

	a.mu.Lock()
	a.location = requested
	a.mu.Unlock()

	return d, a.publish(ctx, a.registry.Next(requested.Device()))
}

// Close persists the session and releases local resources.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	ctx := context.Background()
	var errs []error
	if err := a.saveCookies(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.store.Set(ctx, store.KeyLocation, a.Location().String()); err != nil {
		errs = append(errs, err)
	}
	if err := a.Photos.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Login authenticates and returns the location to continue with.
func (a *App) Login(ctx context.Context, creds v1.Credentials, redirect *route.Location) (route.Location, error) {
	next, err := a.guard.Login(ctx, creds, redirect)
	if err != nil {
		return route.Location{}, err
	}
	if err := a.saveCookies(ctx); err != nil {
		a.log.Warn("Failed to persist session", "error", err)
	}
	return next, nil
}

// Logout ends the session and forgets the stored cookies.
func (a *App) Logout(ctx context.Context) error {
	err := a.guard.Logout(ctx)
	if derr := a.store.Delete(ctx, store.KeyCookies); derr != nil {
		a.log.Warn("Failed to forget session", "error", derr)
	}
	return err
}

// User returns the authenticated user, or nil.
func (a *App) User() *v1.User {
	return a.guard.User()
}

// SavedLocation returns the location persisted by the last Close, or the root.
func (a *App) SavedLocation(ctx context.Context) route.Location {
	raw, found, err := a.store.Get(ctx, store.KeyLocation)
	if err != nil || !found {
		return route.Root("")
	}
	l, err := route.Parse(raw)
	if err != nil {
		a.log.Warn("Ignoring stored location", "value", raw)
		return route.Root("")
	}
	return l
}

// Location returns the current navigation state.
func (a *App) Location() route.Location {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.location
}

// Filter returns the filter the lists currently show.
func (a *App) Filter() Filter {
	return a.bus.Current()
}

// Range returns the active time range.
func (a *App) Range() daterange.Range {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng
}

// Window resolves the active time range now.
func (a *App) Window() daterange.Window {
	return a.window(a.Range())
}

// Vehicles returns the followed vehicles.
func (a *App) Vehicles() []v1.Device {
	return a.registry.Devices()
}

// AvailableDevices lists every device of the account.
func (a *App) AvailableDevices(ctx context.Context) ([]v1.Device, error) {
	return a.client.ListDevices(ctx)
}

// SelectVehicle makes id the active vehicle. It must be followed.
func (a *App) SelectVehicle(ctx context.Context, id string) error {
	if !a.registry.Contains(id) {
		return errdefs.Invalid("device", fmt.Sprintf("%q is not in the vehicle list", id))
	}
	return a.publish(ctx, id)
}

// AddVehicle follows d. The first vehicle becomes active.
func (a *App) AddVehicle(ctx context.Context, d v1.Device) error {
	if d.DeviceID == "" {
		return errdefs.Invalid("device", "id is required")
	}
	if err := a.registry.Add(ctx, d); err != nil {
		return err
	}
	if a.Filter().DeviceID == "" {
		return a.publish(ctx, d.DeviceID)
	}
	return nil
}

// RemoveVehicle stops following id. Removing the active vehicle selects the
// first remaining one, or none.
func (a *App) RemoveVehicle(ctx context.Context, id string) error {
	removed, err := a.registry.Remove(ctx, id)
	if err != nil || !removed {
		return err
	}
	active := a.Filter().DeviceID
	if active != id {
		return nil
	}
	return a.publish(ctx, a.registry.Next(""))
}

// SetTimeRange switches the time range of both lists and persists it.
func (a *App) SetTimeRange(ctx context.Context, r daterange.Range) error {
	if !r.Valid() {
		return errdefs.Invalid("range", fmt.Sprintf("unknown value %q", r))
	}
	if err := a.store.Set(ctx, store.KeyTimeRange, r.String()); err != nil {
		return fmt.Errorf("failed to persist time range: %w", err)
	}

	a.mu.Lock()
	a.rng = r
	a.mu.Unlock()

	return a.publish(ctx, a.Filter().DeviceID)
}

// Refresh reloads both lists for the current filter.
func (a *App) Refresh(ctx context.Context) error {
	return a.bus.Refresh(ctx)
}

// TripList returns the state of the trips list.
func (a *App) TripList() paging.State[Filter, v1.Trip] {
	return a.trips.Snapshot()
}

// NoteList returns the state of the notes list.
func (a *App) NoteList() paging.State[Filter, v1.Note] {
	return a.notes.Snapshot()
}

func (a *App) LoadMoreTrips(ctx context.Context) error {
	return a.trips.LoadMore(ctx)
}

func (a *App) LoadMoreNotes(ctx context.Context) error {
	return a.notes.LoadMore(ctx)
}

// TripDetail fetches a trip of the active vehicle with its telemetry.
func (a *App) TripDetail(ctx context.Context, tripID string) (*v1.TripDetail, error) {
	deviceID := a.Filter().DeviceID
	if deviceID == "" {
		return nil, errdefs.Invalid("device", "no vehicle selected")
	}
	return a.client.GetTrip(ctx, tripID, deviceID)
}

func (a *App) publish(ctx context.Context, deviceID string) error {
	f := Filter{DeviceID: deviceID, Range: a.Range()}

	a.mu.Lock()
	a.location = a.location.WithDevice(deviceID)
	a.mu.Unlock()

	return a.bus.Publish(ctx, f)
}

func (a *App) loadRange(ctx context.Context) {
	raw, found, err := a.store.Get(ctx, store.KeyTimeRange)
	if err != nil || !found {
		return
	}
	r, err := daterange.Parse(raw)
	if err != nil {
		a.log.Warn("Ignoring stored time range", "value", raw)
		return
	}
	a.mu.Lock()
	a.rng = r
	a.mu.Unlock()
}

func (a *App) window(r daterange.Range) daterange.Window {
	return daterange.Resolve(r, a.clock.Now().In(a.loc))
}

func (a *App) query(f Filter, page, pageSize int) apiclient.Query {
	w := a.window(f.Range)
	return apiclient.Query{
		DeviceID: f.DeviceID,
		Window:   &w,
		Page:     page,
		PageSize: pageSize,
	}
}

func (a *App) fetchTrips(ctx context.Context, f Filter, page, pageSize int) ([]v1.Trip, error) {
	q := a.query(f, page, pageSize)
	q.TimeBetweenTrips = a.timeBetweenTrips
	return a.client.ListTrips(ctx, q)
}

func (a *App) fetchNotes(ctx context.Context, f Filter, page, pageSize int) ([]v1.Note, error) {
	return a.client.ListNotes(ctx, a.query(f, page, pageSize))
}
