// Package daterange maps the human time range selectors of the dashboard to
// concrete instants.
package daterange

import (
	"fmt"
	"time"
)

// Range is one of the selectable time ranges.
type Range string

const (
	ThisMonth   Range = "this_month"
	LastMonth   Range = "last_month"
	Last3Months Range = "last_3_months"
	Last6Months Range = "last_6_months"
	ThisYear    Range = "this_year"
	LastYear    Range = "last_year"
)

// Default is used when nothing has been persisted yet.
const Default = ThisMonth

var all = []Range{ThisMonth, LastMonth, Last3Months, Last6Months, ThisYear, LastYear}

var labels = map[Range]string{
	ThisMonth:   "Dieser Monat",
	LastMonth:   "Letzter Monat",
	Last3Months: "Letzte 3 Monate",
	Last6Months: "Letzte 6 Monate",
	ThisYear:    "Dieses Jahr",
	LastYear:    "Letztes Jahr",
}

// All returns every range in display order.
func All() []Range {
	out := make([]Range, len(all))
	copy(out, all)
	return out
}

// Parse validates s.
func Parse(s string) (Range, error) {
	r := Range(s)
	if _, ok := labels[r]; !ok {
		return "", fmt.Errorf("unknown time range %q", s)
	}
	return r, nil
}

func (r Range) Valid() bool {
	_, ok := labels[r]
	return ok
}

// Label is the German display name.
func (r Range) Label() string {
	return labels[r]
}

func (r Range) String() string { return string(r) }

// Window is a resolved range. A nil End means open-ended through now.
type Window struct {
	Since time.Time
	End   *time.Time
}

// Contains reports whether t lies in the window.
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.Since) {
		return false
	}
	return w.End == nil || !t.After(*w.End)
}

// Resolve computes the window of r relative to now, in now's location.
// Unknown ranges resolve like Default.
func Resolve(r Range, now time.Time) Window {
	y, m, loc := now.Year(), now.Month(), now.Location()

	// time.Date normalizes month and day overflow, so day 0 is the last day
	// of the preceding month.
	monthStart := func(back int) time.Time {
		return time.Date(y, m-time.Month(back), 1, 0, 0, 0, 0, loc)
	}

	switch r {
	case LastMonth:
		end := time.Date(y, m, 0, 23, 59, 59, 0, loc)
		return Window{Since: monthStart(1), End: &end}
	case Last3Months:
		return Window{Since: monthStart(3)}
	case Last6Months:
		return Window{Since: monthStart(6)}
	case ThisYear:
		return Window{Since: time.Date(y, time.January, 1, 0, 0, 0, 0, loc)}
	case LastYear:
		end := time.Date(y-1, time.December, 31, 23, 59, 59, 0, loc)
		return Window{Since: time.Date(y-1, time.January, 1, 0, 0, 0, 0, loc), End: &end}
	default:
		return Window{Since: monthStart(0)}
	}
}
