package mutator

import (
	"context"
	"strings"

	"github.com/autopeer-io/tripdash/internal/pkg/errdefs"
	"github.com/autopeer-io/tripdash/pkg/log"
)

// Devices renames vehicles.
type Devices struct {
	api   DevicesAPI
	local Renamer
	log   log.Logger
}

func NewDevices(api DevicesAPI, local Renamer) *Devices {
	return &Devices{api: api, local: local, log: log.WithName("devices")}
}

// Rename stores name on the gateway, then in the local vehicle set.
func (d *Devices) Rename(ctx context.Context, deviceID, name string) error {
	name = strings.TrimSpace(name)
	if deviceID == "" {
		return errdefs.Invalid("device", "id is required")
	}
	if name == "" {
		return errdefs.Invalid("name", "must not be empty")
	}

	if err := d.api.RenameDevice(ctx, deviceID, name); err != nil {
		d.log.Error(err, "Failed to rename device", "device", deviceID)
		return err
	}
	if d.local == nil {
		return nil
	}
	return d.local.Rename(ctx, deviceID, name)
}
