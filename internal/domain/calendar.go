package domain

import (
	"fmt"
	"time"
)

// DateLayout is the layout of calendar date keys used for partitions and daily stats.
const DateLayout = "2006-01-02"

// CalendarDate returns the calendar date of t in loc, formatted with DateLayout.
func CalendarDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// ParseDate parses a calendar date key and returns midnight of that day in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

// WeekStart returns the weekly cutover instant for t: Monday 00:00 in loc.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	// Go weeks start on Sunday (0); shift so Monday is day 0.
	offset := (int(local.Weekday()) + 6) % 7
	y, m, d := local.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
}

// DatesBetween returns every calendar date key touched by [start, end) in loc.
func DatesBetween(start, end time.Time, loc *time.Location) []string {
	if !end.After(start) {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	first := start.In(loc)
	last := end.Add(-time.Nanosecond).In(loc)

	y, m, d := first.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	lastKey := last.Format(DateLayout)

	var dates []string
	for {
		key := day.Format(DateLayout)
		dates = append(dates, key)
		if key == lastKey {
			return dates
		}
		day = day.AddDate(0, 0, 1)
	}
}
