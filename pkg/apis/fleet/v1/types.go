// Package v1 contains the wire types of the telemetry gateway API.
package v1

import (
	"sort"
	"time"
)

// Device is a tracked vehicle's telemetry source.
type Device struct {
	DeviceID string `json:"deviceId" yaml:"deviceId"`
	Name     string `json:"name" yaml:"name"`
}

// Trip is one bounded driving session.
type Trip struct {
	ID            string    `json:"id" yaml:"id"`
	DeviceID      string    `json:"deviceId" yaml:"deviceId"`
	StartTime     time.Time `json:"startTime" yaml:"startTime"`
	EndTime       time.Time `json:"endTime" yaml:"endTime"`
	StartLocation string    `json:"startLocation" yaml:"startLocation"`
	EndLocation   string    `json:"endLocation" yaml:"endLocation"`
	DistanceKm    *float64  `json:"trip_distance_km,omitempty" yaml:"distanceKm,omitempty"`
	Note          string    `json:"note,omitempty" yaml:"note,omitempty"`
}

// Duration is EndTime - StartTime, or zero for open trips.
func (t Trip) Duration() time.Duration {
	if t.EndTime.Before(t.StartTime) {
		return 0
	}
	return t.EndTime.Sub(t.StartTime)
}

// TelemetrySample is one reading of the OBD interface. Missing channels are nil.
type TelemetrySample struct {
	Speed       *float64 `json:"speed,omitempty" yaml:"speed,omitempty"`
	RPM         *float64 `json:"rpm,omitempty" yaml:"rpm,omitempty"`
	EngineLoad  *float64 `json:"engine_load,omitempty" yaml:"engineLoad,omitempty"`
	Throttle    *float64 `json:"throttle,omitempty" yaml:"throttle,omitempty"`
	Temperature *float64 `json:"coolant_temp,omitempty" yaml:"temperature,omitempty"`
}

// TripDetail is a Trip plus its telemetry keyed by epoch seconds.
type TripDetail struct {
	Trip      `json:",inline" yaml:",inline"`
	TimedData map[int64]TelemetrySample `json:"timed_data" yaml:"timedData"`
}

// Point is a sample together with its instant.
type Point struct {
	At time.Time
	TelemetrySample
}

// Series returns the telemetry ordered by time.
func (d *TripDetail) Series() []Point {
	points := make([]Point, 0, len(d.TimedData))
	for sec, s := range d.TimedData {
		points = append(points, Point{At: time.Unix(sec, 0), TelemetrySample: s})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].At.Before(points[j].At) })
	return points
}

// TripPatch is the body of PATCH /trips/{id}. Nil fields are left untouched.
type TripPatch struct {
	StartLocation *string `json:"startLocation,omitempty"`
	EndLocation   *string `json:"endLocation,omitempty"`
	Note          *string `json:"note,omitempty"`
}

// Stats is the aggregate returned by /devices/stats.
type Stats struct {
	TripCount             int     `json:"trip_count"`
	TotalKm               float64 `json:"total_km"`
	TotalDriveTimeMinutes int     `json:"total_drive_time_minutes"`
	AvgSpeed              float64 `json:"avg_speed"`
}

// Bucket is one bar of the time-of-day histogram.
type Bucket struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Note is a free-form maintenance note scoped to one device.
type Note struct {
	ID    string    `json:"id" yaml:"id"`
	Date  time.Time `json:"noteDate" yaml:"noteDate"`
	Text  string    `json:"noteText" yaml:"noteText"`
	Price *float64  `json:"notePrice,omitempty" yaml:"notePrice,omitempty"`
}

// NoteInput is the body used to create or update a note.
type NoteInput struct {
	Date  time.Time `json:"noteDate"`
	Text  string    `json:"noteText"`
	Price *float64  `json:"notePrice,omitempty"`
}

// Credentials is the body of POST /auth/login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// User is returned by /auth/me and /auth/login.
type User struct {
	Username string `json:"username" yaml:"username"`
}
