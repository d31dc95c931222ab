package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*DashboardOptions)(nil)

// DashboardOptions tunes the paginated lists, the session cache window and the
// time zone used to resolve date ranges.
type DashboardOptions struct {
	TripsPageSize int `json:"trips-page-size" mapstructure:"trips-page-size"`
	NotesPageSize int `json:"notes-page-size" mapstructure:"notes-page-size"`

	// SessionCacheTTL is how long a successful /auth/me answer is reused.
	SessionCacheTTL time.Duration `json:"session-cache-ttl" mapstructure:"session-cache-ttl"`

	// TimeBetweenTrips is forwarded as timeBetweenTripsInSeconds when positive.
	TimeBetweenTrips time.Duration `json:"time-between-trips" mapstructure:"time-between-trips"`

	// Timezone is an IANA name; "Local" uses the host zone.
	Timezone string `json:"timezone" mapstructure:"timezone"`
}

func NewDashboardOptions() *DashboardOptions {
	return &DashboardOptions{
		TripsPageSize:   10,
		NotesPageSize:   4,
		SessionCacheTTL: 5 * time.Minute,
		Timezone:        "Local",
	}
}

func (o *DashboardOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.TripsPageSize <= 0 {
		errs = append(errs, fmt.Errorf("dashboard.trips-page-size must be positive"))
	}
	if o.NotesPageSize <= 0 {
		errs = append(errs, fmt.Errorf("dashboard.notes-page-size must be positive"))
	}
	if o.SessionCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("dashboard.session-cache-ttl must not be negative"))
	}
	if _, err := o.Location(); err != nil {
		errs = append(errs, err)
	}

	return errs
}

// Location resolves Timezone.
func (o *DashboardOptions) Location() (*time.Location, error) {
	if o.Timezone == "" || o.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid dashboard.timezone %q: %w", o.Timezone, err)
	}
	return loc, nil
}

func (o *DashboardOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.TripsPageSize, join("dashboard.trips-page-size", prefixes...), o.TripsPageSize, "Number of trips fetched per page.")
	fs.IntVar(&o.NotesPageSize, join("dashboard.notes-page-size", prefixes...), o.NotesPageSize, "Number of notes fetched per page.")
	fs.DurationVar(&o.SessionCacheTTL, join("dashboard.session-cache-ttl", prefixes...), o.SessionCacheTTL, "How long the current user lookup is cached.")
	fs.DurationVar(&o.TimeBetweenTrips, join("dashboard.time-between-trips", prefixes...), o.TimeBetweenTrips, "Minimum pause that separates two trips, 0 leaves it to the server.")
	fs.StringVar(&o.Timezone, join("dashboard.timezone", prefixes...), o.Timezone, "Time zone used to resolve date ranges.")
}
