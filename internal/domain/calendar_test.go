package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekStart(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)

	tests := []struct {
		name string
		in   time.Time
		loc  *time.Location
		want time.Time
	}{
		{
			name: "wednesday rolls back to monday",
			in:   time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC),
			loc:  time.UTC,
			want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "monday midnight is its own cutover",
			in:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			loc:  time.UTC,
			want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday belongs to the previous week",
			in:   time.Date(2024, 1, 7, 23, 59, 0, 0, time.UTC),
			loc:  time.UTC,
			want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "location decides the calendar day",
			// Sunday 16:00 UTC is already Monday 01:00 in JST
			in:   time.Date(2024, 1, 7, 16, 0, 0, 0, time.UTC),
			loc:  tokyo,
			want: time.Date(2024, 1, 8, 0, 0, 0, 0, tokyo),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := WeekStart(tc.in, tc.loc)
			assert.True(t, tc.want.Equal(got), "want %v, got %v", tc.want, got)
		})
	}
}

func TestCalendarDate(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)
	ts := time.Date(2024, 3, 10, 20, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-03-10", CalendarDate(ts, time.UTC))
	assert.Equal(t, "2024-03-11", CalendarDate(ts, tokyo))
	assert.Equal(t, "2024-03-10", CalendarDate(ts, nil))
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2024-02-29", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("29/02/2024", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDatesBetween(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t,
		[]string{"2024-01-01", "2024-01-02", "2024-01-03"},
		DatesBetween(start, start.Add(48*time.Hour), time.UTC))

	// end is exclusive
	assert.Equal(t,
		[]string{"2024-01-01"},
		DatesBetween(start, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), time.UTC))

	assert.Nil(t, DatesBetween(start, start, time.UTC))
}
