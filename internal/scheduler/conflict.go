package scheduler

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the interval has a positive duration.
func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Duration returns the length of the interval.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Occurrence is a concrete reservation of a room that candidate intervals are checked against.
type Occurrence struct {
	ID        string
	RequestID string
	RoomID    string
	Start     time.Time
	End       time.Time
}

// Interval returns the occurrence's time range.
func (o Occurrence) Interval() Interval {
	return Interval{Start: o.Start, End: o.End}
}

// Conflict details an overlapping relation that callers can present to users.
type Conflict struct {
	Candidate         Interval
	WithOccurrenceID  string
	WithRequestID     string
	ConflictingPeriod Interval
}

// IntervalsOverlap reports whether [aStart, aEnd) and [bStart, bEnd) share any instant.
// Touching intervals do not overlap.
func IntervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Overlaps reports whether the two intervals overlap.
func (i Interval) Overlaps(other Interval) bool {
	return IntervalsOverlap(i.Start, i.End, other.Start, other.End)
}

// OverlapsAny reports whether candidate overlaps any of the given occurrences.
func OverlapsAny(candidate Interval, existing []Occurrence) bool {
	for _, occ := range existing {
		if IntervalsOverlap(candidate.Start, candidate.End, occ.Start, occ.End) {
			return true
		}
	}
	return false
}

// DetectConflicts returns every (candidate, existing) pair that overlaps, ordered by
// candidate start and then by the existing occurrence's start.
// Callers are responsible for filtering existing occurrences to the same room and to the
// statuses that block under their policy.
func DetectConflicts(existing []Occurrence, candidates []Interval) []Conflict {
	var conflicts []Conflict
	for _, candidate := range candidates {
		for _, occ := range existing {
			if !IntervalsOverlap(candidate.Start, candidate.End, occ.Start, occ.End) {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Candidate:         candidate,
				WithOccurrenceID:  occ.ID,
				WithRequestID:     occ.RequestID,
				ConflictingPeriod: occ.Interval(),
			})
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		if !conflicts[i].Candidate.Start.Equal(conflicts[j].Candidate.Start) {
			return conflicts[i].Candidate.Start.Before(conflicts[j].Candidate.Start)
		}
		return conflicts[i].ConflictingPeriod.Start.Before(conflicts[j].ConflictingPeriod.Start)
	})
	return conflicts
}
