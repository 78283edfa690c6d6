package availability

import (
	"sort"
	"strings"
	"time"

	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/scheduler"
	"github.com/example/room-booking/internal/timeutil"
)

// Selection accumulates the hours a requester picked on a single day.
// The zero value is an empty selection with no day.
type Selection struct {
	day   time.Time
	hours map[int]struct{}
}

// NewSelection starts an empty selection on day.
func NewSelection(day time.Time) *Selection {
	return &Selection{day: timeutil.StartOfDay(day)}
}

// Day returns the selected UTC day.
func (s *Selection) Day() time.Time {
	return s.day
}

// SelectDay switches to day. Moving to a different day clears the selected hours.
func (s *Selection) SelectDay(day time.Time) {
	day = timeutil.StartOfDay(day)
	if s.day.Equal(day) {
		return
	}
	s.day = day
	s.hours = nil
}

// Toggle adds or removes hour using grid as the current view. Booked hours and hours
// outside the grid's window are ignored. A grid for another day switches the selection to
// that day first. It reports whether the selection changed.
func (s *Selection) Toggle(grid Grid, hour int) bool {
	s.SelectDay(grid.Day)
	state, ok := grid.State(hour)
	if !ok || state == SlotBooked {
		return false
	}
	if s.hours == nil {
		s.hours = make(map[int]struct{})
	}
	if _, selected := s.hours[hour]; selected {
		delete(s.hours, hour)
	} else {
		s.hours[hour] = struct{}{}
	}
	return true
}

// Hours returns the selected hours in ascending order.
func (s *Selection) Hours() []int {
	hours := make([]int, 0, len(s.hours))
	for h := range s.hours {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	return hours
}

// Interval converts the selection into a submission interval.
func (s *Selection) Interval() (scheduler.Interval, error) {
	return ToInterval(s.day, s.Hours())
}

// IsContiguous reports whether hours, once sorted, form one unbroken run.
// An empty selection is not contiguous.
func IsContiguous(hours []int) bool {
	if len(hours) == 0 {
		return false
	}
	sorted := append([]int(nil), hours...)
	sort.Ints(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1]+1 {
			return false
		}
	}
	return true
}

// ToInterval returns [day@min:00, day@(max+1):00) for a contiguous selection.
func ToInterval(day time.Time, hours []int) (scheduler.Interval, error) {
	if len(hours) == 0 {
		return scheduler.Interval{}, booking.NewValidationError("hours", "select at least one hour")
	}
	if !IsContiguous(hours) {
		return scheduler.Interval{}, booking.NewValidationError("hours", "selected hours must form a single contiguous block")
	}
	sorted := append([]int(nil), hours...)
	sort.Ints(sorted)
	first, last := sorted[0], sorted[len(sorted)-1]
	if first < 0 || last > 23 {
		return scheduler.Interval{}, booking.NewValidationError("hours", "hours must be between 0 and 23")
	}
	return scheduler.Interval{Start: timeutil.AtHour(day, first), End: timeutil.AtHour(day, last+1)}, nil
}

// CanSubmit reports whether a selection and purpose are ready for submission.
func CanSubmit(hours []int, purpose string) bool {
	return IsContiguous(hours) && strings.TrimSpace(purpose) != ""
}
