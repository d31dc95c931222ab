// Package archive exports the trip history of a vehicle to object storage,
// one JSON document per month.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/autopeer-io/tripdash/internal/dashboard"
	"github.com/autopeer-io/tripdash/internal/pkg/errdefs"
	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
	"github.com/autopeer-io/tripdash/pkg/log"
)

// DefaultExpiry is how long download links stay valid.
const DefaultExpiry = 24 * time.Hour

// Month is the document written for one month.
type Month struct {
	DeviceID  string    `json:"deviceId"`
	Month     string    `json:"month"`
	Title     string    `json:"title"`
	TripCount int       `json:"tripCount"`
	TotalKm   float64   `json:"totalKm"`
	Trips     []v1.Trip `json:"trips"`
}

// Object is an uploaded month.
type Object struct {
	Key string
	URL string
}

// ObjectKey is the key of a month of deviceID, "trips/<device>/<yyyy-mm>.json".
func ObjectKey(deviceID string, g dashboard.MonthGroup) string {
	return fmt.Sprintf("trips/%s/%s.json", deviceID, g.Key())
}

type Exporter struct {
	provider Provider
	expiry   time.Duration
	log      log.Logger
}

// NewExporter creates an exporter. A non-positive expiry uses DefaultExpiry.
func NewExporter(p Provider, expiry time.Duration) *Exporter {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Exporter{provider: p, expiry: expiry, log: log.WithName("archive")}
}

// Export uploads every group and returns the objects with their download links,
// in the order of groups. It stops at the first failure.
func (e *Exporter) Export(ctx context.Context, deviceID string, groups []dashboard.MonthGroup) ([]Object, error) {
	if deviceID == "" {
		return nil, errdefs.Invalid("device", "no vehicle selected")
	}
	if err := e.provider.CheckBucket(ctx); err != nil {
		return nil, err
	}

	out := make([]Object, 0, len(groups))
	for _, g := range groups {
		doc := Month{
			DeviceID:  deviceID,
			Month:     g.Key(),
			Title:     g.Title,
			TripCount: len(g.Trips),
			TotalKm:   g.TotalKm,
			Trips:     g.Trips,
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return out, fmt.Errorf("failed to encode %s: %w", doc.Month, err)
		}

		key := ObjectKey(deviceID, g)
		if err := e.provider.PutObject(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
			return out, err
		}
		u, err := e.provider.GeneratePresignedURL(ctx, key, e.expiry)
		if err != nil {
			return out, err
		}

		e.log.Debug("Archived month", "key", key, "trips", doc.TripCount)
		out = append(out, Object{Key: key, URL: u})
	}

	e.log.Info("Trip history archived", "device", deviceID, "months", len(out))
	return out, nil
}
