// Package availability projects a room's occurrences onto an hourly grid and validates the
// hours a requester picks from it.
package availability

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/scheduler"
	"github.com/example/room-booking/internal/timeutil"
)

// SlotState is the occupancy of one hour.
type SlotState string

const (
	SlotBooked SlotState = "Booked"
	SlotFree   SlotState = "Free"
)

// ErrInvalidWindow indicates operating hours outside 0..24 or an empty range.
var ErrInvalidWindow = errors.New("availability: invalid operating window")

// Window is the operating range [StartHour, EndHour) of a day.
type Window struct {
	StartHour int
	EndHour   int
}

// DefaultWindow is 08:00 to 20:00.
var DefaultWindow = Window{StartHour: 8, EndHour: 20}

// Validate checks the window lies within one day and is non-empty.
func (w Window) Validate() error {
	if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return fmt.Errorf("%w: %02d:00-%02d:00", ErrInvalidWindow, w.StartHour, w.EndHour)
	}
	return nil
}

// Contains reports whether hour is inside the window.
func (w Window) Contains(hour int) bool {
	return hour >= w.StartHour && hour < w.EndHour
}

// Slot is the state of the hour [Hour:00, Hour+1:00).
type Slot struct {
	Hour  int
	State SlotState
}

// Grid is the hourly availability of one room on one UTC day.
type Grid struct {
	RoomID string
	Day    time.Time
	Window Window
	Policy booking.Policy
	Slots  []Slot
}

// State returns the state of hour and false when hour is outside the window.
func (g Grid) State(hour int) (SlotState, bool) {
	if !g.Window.Contains(hour) {
		return "", false
	}
	return g.Slots[hour-g.Window.StartHour].State, true
}

// IsBooked reports whether hour is inside the window and booked.
func (g Grid) IsBooked(hour int) bool {
	state, ok := g.State(hour)
	return ok && state == SlotBooked
}

// FreeHours returns the free hours in ascending order.
func (g Grid) FreeHours() []int {
	hours := make([]int, 0, len(g.Slots))
	for _, slot := range g.Slots {
		if slot.State == SlotFree {
			hours = append(hours, slot.Hour)
		}
	}
	return hours
}

// BuildGrid marks each hour of the window Booked when it overlaps an occurrence of roomID
// that blocks under policy, and Free otherwise. Hours outside the window are not represented.
func BuildGrid(roomID string, day time.Time, window Window, occurrences []booking.Occurrence, policy booking.Policy) (Grid, error) {
	if err := window.Validate(); err != nil {
		return Grid{}, err
	}

	day = timeutil.StartOfDay(day)
	dayEnd := timeutil.AddDays(day, 1)
	blocking := make([]scheduler.Occurrence, 0)
	for _, occ := range booking.BlockingOccurrences(occurrences, roomID, policy, "") {
		if scheduler.IntervalsOverlap(occ.Start, occ.End, day, dayEnd) {
			blocking = append(blocking, occ)
		}
	}

	grid := Grid{
		RoomID: roomID,
		Day:    day,
		Window: window,
		Policy: policy,
		Slots:  make([]Slot, 0, window.EndHour-window.StartHour),
	}
	for h := window.StartHour; h < window.EndHour; h++ {
		candidate := scheduler.Interval{Start: timeutil.AtHour(day, h), End: timeutil.AtHour(day, h+1)}
		state := SlotFree
		if scheduler.OverlapsAny(candidate, blocking) {
			state = SlotBooked
		}
		grid.Slots = append(grid.Slots, Slot{Hour: h, State: state})
	}
	return grid, nil
}

// WeekDays returns the seven UTC days of the Monday-start week containing ref.
func WeekDays(ref time.Time) []time.Time {
	start := timeutil.StartOfWeek(ref)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = timeutil.AddDays(start, i)
	}
	return days
}
