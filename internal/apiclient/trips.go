package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
)

// ListTrips returns one page of trips. The gateway answers with a map keyed by
// trip id; the result is ordered newest first.
func (c *Client) ListTrips(ctx context.Context, q Query) ([]v1.Trip, error) {
	var byID map[string]v1.Trip
	if err := c.Do(ctx, http.MethodGet, withQuery("/trips/list", q), nil, &byID); err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}

	trips := make([]v1.Trip, 0, len(byID))
	for id, t := range byID {
		if t.ID == "" {
			t.ID = id
		}
		trips = append(trips, t)
	}
	sort.SliceStable(trips, func(i, j int) bool { return trips[i].StartTime.After(trips[j].StartTime) })
	return trips, nil
}

// GetTrip returns a trip with its telemetry series.
func (c *Client) GetTrip(ctx context.Context, tripID, deviceID string) (*v1.TripDetail, error) {
	endpoint := withQuery("/trips/"+url.PathEscape(tripID), Query{DeviceID: deviceID})

	var detail v1.TripDetail
	if err := c.Do(ctx, http.MethodGet, endpoint, nil, &detail); err != nil {
		return nil, fmt.Errorf("get trip %s: %w", tripID, err)
	}
	return &detail, nil
}

// UpdateTrip patches the given fields of a trip.
func (c *Client) UpdateTrip(ctx context.Context, tripID string, patch v1.TripPatch) error {
	if err := c.Do(ctx, http.MethodPatch, "/trips/"+url.PathEscape(tripID), patch, nil); err != nil {
		return fmt.Errorf("update trip %s: %w", tripID, err)
	}
	return nil
}

// TripsPerWeekday returns trip counts keyed by upper case English weekday names.
func (c *Client) TripsPerWeekday(ctx context.Context, q Query) (map[string]int, error) {
	q.Page, q.PageSize = 0, 0

	counts := map[string]int{}
	if err := c.Do(ctx, http.MethodGet, withQuery("/trips/weekday", q), nil, &counts); err != nil {
		return nil, fmt.Errorf("trips per weekday: %w", err)
	}
	return counts, nil
}

// TripsByTimeOfDay returns the time-of-day histogram.
func (c *Client) TripsByTimeOfDay(ctx context.Context, q Query) ([]v1.Bucket, error) {
	q.Page, q.PageSize = 0, 0

	var buckets []v1.Bucket
	if err := c.Do(ctx, http.MethodGet, withQuery("/trips/time-of-day", q), nil, &buckets); err != nil {
		return nil, fmt.Errorf("trips by time of day: %w", err)
	}
	return buckets, nil
}
