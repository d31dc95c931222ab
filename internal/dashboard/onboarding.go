package dashboard

import (
	"context"
	"strings"

	"github.com/autopeer-io/tripdash/internal/pkg/errdefs"
	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
)

// DefaultVehicleName is used when onboarding without a name.
const DefaultVehicleName = "Mein Fahrzeug"

// Onboard names a device, follows it and makes it the active vehicle.
func (a *App) Onboard(ctx context.Context, deviceID, name string) (v1.Device, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return v1.Device{}, errdefs.Invalid("device", "please choose a device")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultVehicleName
	}

	d := v1.Device{DeviceID: deviceID, Name: name}

	if err := a.Devices.Rename(ctx, deviceID, name); err != nil {
		return v1.Device{}, err
	}
	if err := a.registry.Add(ctx, d); err != nil {
		return v1.Device{}, err
	}
	if err := a.publish(ctx, deviceID); err != nil {
		a.log.Warn("Lists not loaded after onboarding", "device", deviceID, "error", err)
	}

	a.log.Info("Vehicle onboarded", "device", deviceID, "name", name)
	return d, nil
}
