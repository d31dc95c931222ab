package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/autopeer-io/tripdash/internal/apiclient"
	"github.com/autopeer-io/tripdash/internal/format"
	"github.com/autopeer-io/tripdash/internal/pkg/errdefs"
	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
)

// MonthGroup is one month of the trip log.
type MonthGroup struct {
	Year  int
	Month time.Month
	// Title is the German header, "März 2024".
	Title   string
	Trips   []v1.Trip
	TotalKm float64
	// Expanded is set on the newest month only.
	Expanded bool
}

// Key identifies the group as "2024-03".
func (g MonthGroup) Key() string {
	return time.Date(g.Year, g.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// History fetches every trip of the active vehicle, regardless of the time
// range, and groups them by month, newest first.
func (a *App) History(ctx context.Context) ([]MonthGroup, error) {
	deviceID := a.Filter().DeviceID
	if deviceID == "" {
		return nil, errdefs.Invalid("device", "no vehicle selected")
	}

	trips, err := a.client.ListTrips(ctx, apiclient.Query{DeviceID: deviceID})
	if err != nil {
		a.log.Error(err, "Failed to load history", "device", deviceID)
		return nil, err
	}
	return GroupByMonth(trips, a.loc), nil
}

// GroupByMonth sorts trips newest first and groups them by the calendar month
// of their start in loc.
func GroupByMonth(trips []v1.Trip, loc *time.Location) []MonthGroup {
	if loc == nil {
		loc = time.Local
	}

	sorted := append([]v1.Trip(nil), trips...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartTime.After(sorted[j].StartTime) })

	var groups []MonthGroup
	for _, t := range sorted {
		start := t.StartTime.In(loc)
		y, m := start.Year(), start.Month()

		if n := len(groups); n == 0 || groups[n-1].Year != y || groups[n-1].Month != m {
			groups = append(groups, MonthGroup{Year: y, Month: m, Title: format.Month(y, m)})
		}
		g := &groups[len(groups)-1]
		g.Trips = append(g.Trips, t)
		if t.DistanceKm != nil {
			g.TotalKm += *t.DistanceKm
		}
	}

	if len(groups) > 0 {
		groups[0].Expanded = true
	}
	return groups
}
