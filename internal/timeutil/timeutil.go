// Package timeutil holds the UTC calendar arithmetic shared by the booking engine.
//
// Every helper normalizes its inputs to UTC first so callers can pass values
// carrying any location without shifting the calendar day they refer to in UTC.
package timeutil

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidTimestamp is returned when a timestamp string cannot be parsed.
var ErrInvalidTimestamp = errors.New("timeutil: invalid timestamp")

var zoneSuffix = regexp.MustCompile(`([zZ]|[+-]\d{2}:?\d{2})$`)

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
}

// StartOfDay returns 00:00:00.000 UTC of the UTC calendar day containing t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StartOfWeek returns the Monday 00:00 UTC on or before t. Sunday belongs to
// the week that started six days earlier.
func StartOfWeek(t time.Time) time.Time {
	start := StartOfDay(t)
	offset := (int(start.Weekday()) + 6) % 7
	return start.AddDate(0, 0, -offset)
}

// AddDays shifts t by n UTC calendar days keeping the wall clock.
func AddDays(t time.Time, n int) time.Time {
	return t.UTC().AddDate(0, 0, n)
}

// SameCalendarDay reports whether a and b fall on the same UTC date.
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// AtHour returns day's UTC date at hour:00. Hours past 23 roll into the
// following day, so AtHour(day, 24) is the next midnight.
func AtHour(day time.Time, hour int) time.Time {
	return StartOfDay(day).Add(time.Duration(hour) * time.Hour)
}

// IsHourAligned reports whether t sits exactly on an hour boundary.
func IsHourAligned(t time.Time) bool {
	t = t.UTC()
	return t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without a zone
// designator are read as UTC, date-only values as midnight UTC. The result is
// always in UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidTimestamp)
	}

	if len(value) == len(time.DateOnly) {
		ts, err := time.Parse(time.DateOnly, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
		}
		return ts.UTC(), nil
	}

	if !zoneSuffix.MatchString(value) {
		value += "Z"
	}

	for _, layout := range zonedLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
}

// ParseDay parses a YYYY-MM-DD date (or any full timestamp) and returns the
// start of its UTC day.
func ParseDay(value string) (time.Time, error) {
	ts, err := ParseTimestamp(value)
	if err != nil {
		return time.Time{}, err
	}
	return StartOfDay(ts), nil
}

// FormatTimestamp renders t as RFC 3339 in UTC, the boundary wire format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
