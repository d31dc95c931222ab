package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

func TestResolve(t *testing.T) {
	now := date(2024, time.March, 15, 10, 30, 0)

	tests := []struct {
		name  string
		r     Range
		since time.Time
		end   *time.Time
	}{
		{"this month", ThisMonth, date(2024, time.March, 1, 0, 0, 0), nil},
		{"last month ends on leap day", LastMonth, date(2024, time.February, 1, 0, 0, 0), ptr(date(2024, time.February, 29, 23, 59, 59))},
		{"last 3 months", Last3Months, date(2023, time.December, 1, 0, 0, 0), nil},
		{"last 6 months", Last6Months, date(2023, time.September, 1, 0, 0, 0), nil},
		{"this year", ThisYear, date(2024, time.January, 1, 0, 0, 0), nil},
		{"last year", LastYear, date(2023, time.January, 1, 0, 0, 0), ptr(date(2023, time.December, 31, 23, 59, 59))},
		{"unknown falls back to this month", Range("bogus"), date(2024, time.March, 1, 0, 0, 0), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Resolve(tt.r, now)
			assert.Equal(t, tt.since, w.Since)
			if tt.end == nil {
				assert.Nil(t, w.End)
			} else {
				require.NotNil(t, w.End)
				assert.Equal(t, *tt.end, *w.End)
			}
		})
	}
}

func TestResolve_JanuaryRollsIntoPreviousYear(t *testing.T) {
	now := date(2025, time.January, 3, 8, 0, 0)

	w := Resolve(LastMonth, now)
	assert.Equal(t, date(2024, time.December, 1, 0, 0, 0), w.Since)
	require.NotNil(t, w.End)
	assert.Equal(t, date(2024, time.December, 31, 23, 59, 59), *w.End)

	assert.Equal(t, date(2024, time.October, 1, 0, 0, 0), Resolve(Last3Months, now).Since)
	assert.Equal(t, date(2024, time.July, 1, 0, 0, 0), Resolve(Last6Months, now).Since)
}

func TestResolve_Properties(t *testing.T) {
	nows := []time.Time{
		date(2024, time.January, 1, 0, 0, 0),
		date(2024, time.February, 29, 23, 59, 59),
		date(2023, time.July, 31, 12, 0, 0),
		date(2025, time.December, 31, 23, 59, 59),
		time.Date(2024, time.March, 31, 1, 30, 0, 0, time.FixedZone("CET", 3600)),
	}

	for _, now := range nows {
		for _, r := range All() {
			w := Resolve(r, now)

			// deterministic
			assert.Equal(t, w, Resolve(r, now), "range %s at %s", r, now)

			if w.End != nil {
				assert.False(t, w.End.Before(w.Since), "range %s at %s: since after end", r, now)
			}
			assert.Equal(t, now.Location(), w.Since.Location())
		}

		last := Resolve(LastMonth, now)
		this := Resolve(ThisMonth, now)
		require.NotNil(t, last.End)
		assert.True(t, last.End.Before(this.Since), "last_month overlaps this_month at %s", now)
		assert.False(t, this.Contains(*last.End))
	}
}

func TestParse(t *testing.T) {
	for _, r := range All() {
		got, err := Parse(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)
		assert.NotEmpty(t, got.Label())
	}

	_, err := Parse("next_week")
	assert.Error(t, err)
	assert.False(t, Range("").Valid())
}

func TestWindowContains(t *testing.T) {
	w := Resolve(LastYear, date(2024, time.June, 1, 0, 0, 0))

	assert.True(t, w.Contains(date(2023, time.January, 1, 0, 0, 0)))
	assert.True(t, w.Contains(date(2023, time.December, 31, 23, 59, 59)))
	assert.False(t, w.Contains(date(2024, time.January, 1, 0, 0, 0)))
	assert.False(t, w.Contains(date(2022, time.December, 31, 23, 59, 59)))
}

func ptr(t time.Time) *time.Time { return &t }
