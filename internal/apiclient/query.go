package apiclient

import (
	"net/url"
	"strconv"
	"time"

	"github.com/autopeer-io/tripdash/internal/daterange"
)

// isoMillis matches JavaScript's Date.toISOString, which the gateway expects.
const isoMillis = "2006-01-02T15:04:05.000Z"

// FormatInstant renders t the way the gateway expects it in query strings.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

// Query holds the common list parameters. Zero values are omitted.
type Query struct {
	DeviceID string
	Window   *daterange.Window

	// Page is only sent together with a positive PageSize.
	Page     int
	PageSize int

	TimeBetweenTrips time.Duration
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.DeviceID != "" {
		v.Set("deviceId", q.DeviceID)
	}
	if q.Window != nil {
		v.Set("since", FormatInstant(q.Window.Since))
		if q.Window.End != nil {
			v.Set("end", FormatInstant(*q.Window.End))
		}
	}
	if q.PageSize > 0 {
		v.Set("page", strconv.Itoa(q.Page))
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.TimeBetweenTrips > 0 {
		v.Set("timeBetweenTripsInSeconds", strconv.Itoa(int(q.TimeBetweenTrips/time.Second)))
	}
	return v
}

// Encode returns the query string without the leading "?".
func (q Query) Encode() string {
	return q.values().Encode()
}

func withQuery(path string, q Query) string {
	if enc := q.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}
