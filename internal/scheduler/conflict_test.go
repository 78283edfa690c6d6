package scheduler

import (
	"testing"
	"time"
)

func at(hour int) time.Time {
	return time.Date(2024, time.March, 4, hour, 0, 0, 0, time.UTC)
}

func TestIntervalsOverlap(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a    Interval
		b    Interval
		want bool
	}{
		{name: "touching intervals do not overlap", a: Interval{at(9), at(10)}, b: Interval{at(10), at(11)}, want: false},
		{name: "partial overlap", a: Interval{at(9), at(11)}, b: Interval{at(10), at(12)}, want: true},
		{name: "containment", a: Interval{at(8), at(12)}, b: Interval{at(9), at(10)}, want: true},
		{name: "identical", a: Interval{at(9), at(10)}, b: Interval{at(9), at(10)}, want: true},
		{name: "disjoint", a: Interval{at(8), at(9)}, b: Interval{at(15), at(16)}, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := IntervalsOverlap(tc.a.Start, tc.a.End, tc.b.Start, tc.b.End)
			if got != tc.want {
				t.Fatalf("IntervalsOverlap(a, b) = %v, want %v", got, tc.want)
			}
			if reverse := IntervalsOverlap(tc.b.Start, tc.b.End, tc.a.Start, tc.a.End); reverse != got {
				t.Fatalf("overlap is not symmetric: a,b=%v b,a=%v", got, reverse)
			}
			if tc.a.Overlaps(tc.b) != got {
				t.Fatalf("Interval.Overlaps disagrees with IntervalsOverlap")
			}
		})
	}
}

func TestDetectConflicts(t *testing.T) {
	t.Parallel()

	existing := []Occurrence{
		{ID: "occ-late", RequestID: "req-2", RoomID: "room-1", Start: at(14), End: at(15)},
		{ID: "occ-early", RequestID: "req-1", RoomID: "room-1", Start: at(9), End: at(11)},
	}

	t.Run("overlap produces conflict with details", func(t *testing.T) {
		t.Parallel()
		conflicts := DetectConflicts(existing, []Interval{{Start: at(10), End: at(12)}})
		if len(conflicts) != 1 {
			t.Fatalf("expected 1 conflict, got %d", len(conflicts))
		}
		got := conflicts[0]
		if got.WithOccurrenceID != "occ-early" || got.WithRequestID != "req-1" {
			t.Fatalf("unexpected conflict target: %+v", got)
		}
		if !got.ConflictingPeriod.Start.Equal(at(9)) || !got.ConflictingPeriod.End.Equal(at(11)) {
			t.Fatalf("unexpected conflicting period: %+v", got.ConflictingPeriod)
		}
	})

	t.Run("conflicts ordered chronologically", func(t *testing.T) {
		t.Parallel()
		conflicts := DetectConflicts(existing, []Interval{{Start: at(8), End: at(16)}})
		if len(conflicts) != 2 {
			t.Fatalf("expected 2 conflicts, got %d", len(conflicts))
		}
		if conflicts[0].WithOccurrenceID != "occ-early" || conflicts[1].WithOccurrenceID != "occ-late" {
			t.Fatalf("unexpected order: %s, %s", conflicts[0].WithOccurrenceID, conflicts[1].WithOccurrenceID)
		}
	})

	t.Run("adjacent intervals yield no conflicts", func(t *testing.T) {
		t.Parallel()
		conflicts := DetectConflicts(existing, []Interval{{Start: at(11), End: at(14)}, {Start: at(15), End: at(16)}})
		if len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %+v", conflicts)
		}
	})

	t.Run("OverlapsAny", func(t *testing.T) {
		t.Parallel()
		if !OverlapsAny(Interval{Start: at(10), End: at(11)}, existing) {
			t.Fatalf("expected overlap with occ-early")
		}
		if OverlapsAny(Interval{Start: at(11), End: at(12)}, existing) {
			t.Fatalf("expected no overlap")
		}
	})
}
