package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-booking/internal/scheduler"
	"github.com/example/room-booking/internal/timeutil"
)

// Pattern represents supported recurrence rules.
type Pattern string

const (
	// PatternNone produces the base interval only.
	PatternNone Pattern = "None"
	// PatternDaily repeats the base interval every UTC calendar day.
	PatternDaily Pattern = "Daily"
	// PatternWeekly repeats the base interval every seven UTC calendar days.
	PatternWeekly Pattern = "Weekly"
)

// DefaultMaxOccurrences bounds expansion when no explicit limit is configured.
const DefaultMaxOccurrences = 366

var (
	// ErrInvalidPattern indicates the recurrence pattern is not supported.
	ErrInvalidPattern = errors.New("recurrence: invalid pattern")
	// ErrInvalidDuration indicates the base interval duration is invalid.
	ErrInvalidDuration = errors.New("recurrence: interval duration must be positive")
	// ErrMissingUntil indicates a repeating pattern was given without an end bound.
	ErrMissingUntil = errors.New("recurrence: repeating pattern requires an until bound")
	// ErrUntilBeforeStart indicates the end bound precedes the first occurrence.
	ErrUntilBeforeStart = errors.New("recurrence: until bound precedes the first occurrence")
	// ErrTooManyOccurrences indicates expansion would exceed the configured cap.
	ErrTooManyOccurrences = errors.New("recurrence: too many occurrences")
)

// ParsePattern maps a case-insensitive name onto a Pattern. An empty value is PatternNone.
func ParsePattern(value string) (Pattern, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none":
		return PatternNone, nil
	case "daily":
		return PatternDaily, nil
	case "weekly":
		return PatternWeekly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPattern, value)
	}
}

// Repeats reports whether the pattern produces more than the base interval.
func (p Pattern) Repeats() bool {
	return p == PatternDaily || p == PatternWeekly
}

func (p Pattern) stepDays() (int, error) {
	switch p {
	case PatternDaily:
		return 1, nil
	case PatternWeekly:
		return 7, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPattern, string(p))
	}
}

// Engine expands a base interval into its concrete occurrences.
type Engine struct {
	maxOccurrences int
}

// NewEngine constructs an Engine capped at maxOccurrences. Non-positive values fall back to
// DefaultMaxOccurrences.
func NewEngine(maxOccurrences int) *Engine {
	if maxOccurrences <= 0 {
		maxOccurrences = DefaultMaxOccurrences
	}
	return &Engine{maxOccurrences: maxOccurrences}
}

// MaxOccurrences returns the configured expansion cap.
func (e *Engine) MaxOccurrences() int {
	if e == nil || e.maxOccurrences <= 0 {
		return DefaultMaxOccurrences
	}
	return e.maxOccurrences
}

// Expand produces the chronologically ordered intervals of a request.
//
// The engine enforces the following semantics:
//   - PatternNone yields exactly the base interval and ignores until.
//   - Repeating patterns shift the base by whole UTC days while the shifted start is not
//     after the effective until bound.
//   - An until value at exactly 00:00 UTC is a date and covers that whole day.
//   - Zero occurrences and results above the cap are errors, never truncated.
func (e *Engine) Expand(base scheduler.Interval, pattern Pattern, until *time.Time) ([]scheduler.Interval, error) {
	start := base.Start.UTC()
	end := base.End.UTC()
	if !end.After(start) {
		return nil, ErrInvalidDuration
	}

	if pattern == "" || pattern == PatternNone {
		return []scheduler.Interval{{Start: start, End: end}}, nil
	}

	step, err := pattern.stepDays()
	if err != nil {
		return nil, err
	}
	if until == nil || until.IsZero() {
		return nil, ErrMissingUntil
	}

	bound := EffectiveUntil(*until)
	if bound.Before(start) {
		return nil, ErrUntilBeforeStart
	}

	limit := e.MaxOccurrences()
	duration := end.Sub(start)
	occurrences := make([]scheduler.Interval, 0, 8)
	for i := 0; ; i++ {
		current := timeutil.AddDays(start, i*step)
		if current.After(bound) {
			break
		}
		if len(occurrences) == limit {
			return nil, fmt.Errorf("%w: more than %d", ErrTooManyOccurrences, limit)
		}
		occurrences = append(occurrences, scheduler.Interval{Start: current, End: current.Add(duration)})
	}

	return occurrences, nil
}

// EffectiveUntil returns the inclusive instant an until value bounds. Midnight UTC values are
// treated as dates and extended to the last instant of that day.
func EffectiveUntil(until time.Time) time.Time {
	until = until.UTC()
	if until.Equal(timeutil.StartOfDay(until)) {
		return timeutil.AddDays(until, 1).Add(-time.Nanosecond)
	}
	return until
}
