package mutator

import (
	"context"
	"strings"

	"k8s.io/utils/ptr"

	"github.com/autopeer-io/tripdash/internal/pkg/errdefs"
	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
	"github.com/autopeer-io/tripdash/pkg/log"
)

// Trips edits trip metadata.
type Trips struct {
	api  TripsAPI
	list ItemList[v1.Trip]
	log  log.Logger
}

// NewTrips edits trips through api and mirrors the results into list.
func NewTrips(api TripsAPI, list ItemList[v1.Trip]) *Trips {
	return &Trips{api: api, list: list, log: log.WithName("trips")}
}

// EditRoute sets the start and end location of a trip. The local copy is
// changed only after the gateway accepted the patch, and only in its
// location fields.
func (t *Trips) EditRoute(ctx context.Context, deviceID, tripID, start, end string) error {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if tripID == "" {
		return errdefs.Invalid("trip", "id is required")
	}
	if start == "" && end == "" {
		return errdefs.Invalid("route", "start or end location is required")
	}

	patch := v1.TripPatch{}
	if start != "" {
		patch.StartLocation = ptr.To(start)
	}
	if end != "" {
		patch.EndLocation = ptr.To(end)
	}

	if err := t.api.UpdateTrip(ctx, tripID, patch); err != nil {
		t.log.Error(err, "Failed to update trip route", "trip", tripID)
		return err
	}

	t.list.Edit(deviceID, func(items []v1.Trip) []v1.Trip {
		for i := range items {
			if items[i].ID != tripID {
				continue
			}
			if patch.StartLocation != nil {
				items[i].StartLocation = *patch.StartLocation
			}
			if patch.EndLocation != nil {
				items[i].EndLocation = *patch.EndLocation
			}
		}
		return items
	})
	return nil
}
