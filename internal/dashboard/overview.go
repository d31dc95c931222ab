package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/tripdash/internal/apiclient"
	"github.com/autopeer-io/tripdash/internal/daterange"
	"github.com/autopeer-io/tripdash/internal/format"
	"github.com/autopeer-io/tripdash/internal/pkg/errdefs"
	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
)

// WeekdayCount is one bar of the weekday histogram.
type WeekdayCount struct {
	Key   string
	Label string
	Count int
}

// Overview is the statistics block of the dashboard.
type Overview struct {
	DeviceID  string
	Range     daterange.Range
	Window    daterange.Window
	Stats     v1.Stats
	Weekdays  []WeekdayCount
	TimeOfDay []v1.Bucket
}

// Overview loads stats, the weekday histogram and the time-of-day buckets of
// the active vehicle concurrently. Any failure fails the whole overview.
func (a *App) Overview(ctx context.Context) (*Overview, error) {
	f := a.Filter()
	if f.DeviceID == "" {
		return nil, errdefs.Invalid("device", "no vehicle selected")
	}

	w := a.window(f.Range)
	q := apiclient.Query{DeviceID: f.DeviceID, Window: &w, TimeBetweenTrips: a.timeBetweenTrips}
	out := &Overview{DeviceID: f.DeviceID, Range: f.Range, Window: w}

	var (
		stats    *v1.Stats
		weekdays map[string]int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = a.client.DeviceStats(ctx, q)
		return err
	})
	g.Go(func() (err error) {
		weekdays, err = a.client.TripsPerWeekday(ctx, q)
		return err
	})
	g.Go(func() (err error) {
		out.TimeOfDay, err = a.client.TripsByTimeOfDay(ctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		a.log.Error(err, "Failed to load overview", "device", f.DeviceID)
		return nil, err
	}

	if stats != nil {
		out.Stats = *stats
	}
	out.Weekdays = weekdayHistogram(weekdays)
	return out, nil
}

// weekdayHistogram orders the counts Monday first and fills missing days with zero.
func weekdayHistogram(counts map[string]int) []WeekdayCount {
	out := make([]WeekdayCount, 0, len(format.Weekdays))
	for _, key := range format.Weekdays {
		out = append(out, WeekdayCount{Key: key, Label: format.Weekday(key), Count: counts[key]})
	}
	return out
}
