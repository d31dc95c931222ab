// Package registry keeps the set of vehicles the user follows and reconciles
// it against the live device list.
package registry

import (
	"context"
	"fmt"
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/autopeer-io/tripdash/internal/store"
	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
	"github.com/autopeer-io/tripdash/pkg/log"
)

// DeviceLister fetches the authoritative device list.
type DeviceLister interface {
	ListDevices(ctx context.Context) ([]v1.Device, error)
}

// Registry is an ordered set of devices keyed by id. Every mutation writes
// the id list to store.KeySelectedVehicles before returning.
type Registry struct {
	mu      sync.RWMutex
	devices []v1.Device

	lister DeviceLister
	store  store.Store
	log    log.Logger
}

// New returns an empty registry; call Hydrate to load the selection.
func New(lister DeviceLister, s store.Store) *Registry {
	return &Registry{
		lister: lister,
		store:  s,
		log:    log.WithName("registry"),
	}
}

// Hydrate reconciles the persisted ids against the live list. With persisted
// ids the registry becomes the live devices among them, in live order, each
// id once.
// Without any, it is seeded with the first live device. A failed fetch leaves
// the registry untouched and is returned.
func (r *Registry) Hydrate(ctx context.Context) error {
	var persisted []string
	if _, err := store.GetJSON(ctx, r.store, store.KeySelectedVehicles, &persisted); err != nil {
		// an unreadable slot is treated as empty
		r.log.Warn("Ignoring unreadable vehicle selection", "error", err)
		persisted = nil
	}

	live, err := r.lister.ListDevices(ctx)
	if err != nil {
		r.log.Error(err, "Failed to hydrate vehicle registry")
		return fmt.Errorf("failed to list devices: %w", err)
	}

	var next []v1.Device
	if len(persisted) > 0 {
		wanted, seen := sets.New(persisted...), sets.New[string]()
		for _, d := range live {
			if wanted.Has(d.DeviceID) && !seen.Has(d.DeviceID) {
				seen.Insert(d.DeviceID)
				next = append(next, d)
			}
		}
	} else if len(live) > 0 {
		next = []v1.Device{live[0]}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.devices = next
	r.log.Debug("Hydrated vehicle registry", "persisted", len(persisted), "live", len(live), "selected", len(next))
	return r.persistLocked(ctx)
}

// Add appends d unless a device with the same id is present.
func (r *Registry) Add(ctx context.Context, d v1.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexLocked(d.DeviceID) >= 0 {
		return nil
	}
	r.devices = append(r.devices, d)
	return r.persistLocked(ctx)
}

// Remove drops the device with id. It reports whether anything was removed.
// Reassigning the active selection is left to the caller, see Next.
func (r *Registry) Remove(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return false, nil
	}
	r.devices = append(r.devices[:i:i], r.devices[i+1:]...)
	return true, r.persistLocked(ctx)
}

// Rename updates the display name of a known device.
func (r *Registry) Rename(ctx context.Context, id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return nil
	}
	r.devices[i].Name = name
	return r.persistLocked(ctx)
}

// Devices returns a copy of the registry contents.
func (r *Registry) Devices() []v1.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]v1.Device(nil), r.devices...)
}

// IDs returns the device ids in registry order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idsLocked()
}

func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexLocked(id) >= 0
}

// Get returns the device with id.
func (r *Registry) Get(id string) (v1.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexLocked(id); i >= 0 {
		return r.devices[i], true
	}
	return v1.Device{}, false
}

// Next returns the active selection to use after active was possibly
// removed: active itself if still present, else the first entry, else "".
func (r *Registry) Next(active string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if active != "" && r.indexLocked(active) >= 0 {
		return active
	}
	if len(r.devices) == 0 {
		return ""
	}
	return r.devices[0].DeviceID
}

func (r *Registry) indexLocked(id string) int {
	for i, d := range r.devices {
		if d.DeviceID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) idsLocked() []string {
	ids := make([]string, 0, len(r.devices))
	for _, d := range r.devices {
		ids = append(ids, d.DeviceID)
	}
	return ids
}

func (r *Registry) persistLocked(ctx context.Context) error {
	if err := store.SetJSON(ctx, r.store, store.KeySelectedVehicles, r.idsLocked()); err != nil {
		return fmt.Errorf("failed to persist vehicle selection: %w", err)
	}
	return nil
}
