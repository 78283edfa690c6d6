package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/recurrence"
)

var (
	roomCounter    uint64
	requestCounter uint64
)

// referenceTime is a Monday at midnight UTC, so week arithmetic in tests starts clean.
var referenceTime = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

// ReferenceTime returns the baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// At returns the reference Monday shifted by day days and hour hours.
func At(day, hour int) time.Time {
	return referenceTime.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
}

// RoomFixture is a deterministic room.
type RoomFixture struct {
	ID        string
	Code      string
	Name      string
	Building  string
	Capacity  int
	IsActive  bool
	CreatedBy string
	CreatedAt time.Time
}

type RoomOption func(*RoomFixture)

// NewRoomFixture returns an active room with unique id and code.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	fixture := RoomFixture{
		ID:        fmt.Sprintf("room-%03d", idx),
		Code:      fmt.Sprintf("R-%03d", idx),
		Name:      fmt.Sprintf("Room %03d", idx),
		Building:  "Main",
		Capacity:  int(4 + idx%8),
		IsActive:  true,
		CreatedBy: "admin",
		CreatedAt: referenceTime.Add(-time.Duration(idx) * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) { f.ID = id }
}

func WithRoomCode(code string) RoomOption {
	return func(f *RoomFixture) { f.Code = code }
}

func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) { f.Name = name }
}

func WithBuilding(building string) RoomOption {
	return func(f *RoomFixture) { f.Building = building }
}

func WithCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) { f.Capacity = capacity }
}

// Inactive marks the room as taken out of service.
func Inactive() RoomOption {
	return func(f *RoomFixture) { f.IsActive = false }
}

func (f RoomFixture) Booking() booking.Room {
	return booking.Room{
		ID:        f.ID,
		Code:      f.Code,
		Name:      f.Name,
		Building:  f.Building,
		Capacity:  f.Capacity,
		IsActive:  f.IsActive,
		CreatedBy: f.CreatedBy,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
}

func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		Code:      f.Code,
		Name:      f.Name,
		Building:  f.Building,
		Capacity:  f.Capacity,
		IsActive:  f.IsActive,
		CreatedBy: f.CreatedBy,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
}

// RequestFixture is a deterministic booking request. Occurrences are derived from the
// interval and recurrence, one per repetition, all carrying the request status; drafts and
// cancelled requests own none.
type RequestFixture struct {
	ID              string
	RoomID          string
	RequestedBy     booking.Requester
	Purpose         string
	AttendeeCount   int
	Start           time.Time
	End             time.Time
	Recurrence      recurrence.Pattern
	RecurrenceUntil *time.Time
	Status          booking.RequestStatus
	AdminComment    string
	CreatedAt       time.Time
}

type RequestOption func(*RequestFixture)

// NewRequestFixture returns a submitted single occurrence request from 09:00 to 10:00 on
// the reference Monday.
func NewRequestFixture(roomID string, opts ...RequestOption) RequestFixture {
	idx := atomic.AddUint64(&requestCounter, 1)
	fixture := RequestFixture{
		ID:            fmt.Sprintf("req-%03d", idx),
		RoomID:        roomID,
		RequestedBy:   booking.Requester{Name: "Ada Lovelace", ExternalID: "ada"},
		Purpose:       fmt.Sprintf("Meeting %03d", idx),
		AttendeeCount: 4,
		Start:         At(0, 9),
		End:           At(0, 10),
		Recurrence:    recurrence.PatternNone,
		Status:        booking.StatusSubmitted,
		CreatedAt:     referenceTime.Add(-24*time.Hour + time.Duration(idx)*time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithRequestID(id string) RequestOption {
	return func(f *RequestFixture) { f.ID = id }
}

func WithRequester(name, externalID string) RequestOption {
	return func(f *RequestFixture) { f.RequestedBy = booking.Requester{Name: name, ExternalID: externalID} }
}

func WithPurpose(purpose string) RequestOption {
	return func(f *RequestFixture) { f.Purpose = purpose }
}

func WithInterval(start, end time.Time) RequestOption {
	return func(f *RequestFixture) {
		f.Start = start
		f.End = end
	}
}

func WithRecurrence(pattern recurrence.Pattern, until time.Time) RequestOption {
	return func(f *RequestFixture) {
		f.Recurrence = pattern
		u := until
		f.RecurrenceUntil = &u
	}
}

func WithStatus(status booking.RequestStatus) RequestOption {
	return func(f *RequestFixture) { f.Status = status }
}

func WithCreatedAt(t time.Time) RequestOption {
	return func(f *RequestFixture) { f.CreatedAt = t }
}

func (f RequestFixture) intervals() []time.Time {
	if f.Status == booking.StatusDraft || f.Status == booking.StatusCancelled {
		return nil
	}
	step := 0
	switch f.Recurrence {
	case recurrence.PatternDaily:
		step = 1
	case recurrence.PatternWeekly:
		step = 7
	}
	starts := []time.Time{f.Start}
	if step == 0 || f.RecurrenceUntil == nil {
		return starts
	}
	for next := f.Start.AddDate(0, 0, step); !next.After(*f.RecurrenceUntil); next = next.AddDate(0, 0, step) {
		starts = append(starts, next)
	}
	return starts
}

func (f RequestFixture) Booking() booking.Request {
	req := booking.Request{
		ID:            f.ID,
		RoomID:        f.RoomID,
		RequestedBy:   f.RequestedBy,
		Purpose:       f.Purpose,
		AttendeeCount: f.AttendeeCount,
		Start:         f.Start,
		End:           f.End,
		Recurrence:    f.Recurrence,
		Status:        f.Status,
		AdminComment:  f.AdminComment,
		CreatedAt:     f.CreatedAt,
		ModifiedAt:    f.CreatedAt,
	}
	if f.RecurrenceUntil != nil {
		until := *f.RecurrenceUntil
		req.RecurrenceUntil = &until
	}
	duration := f.End.Sub(f.Start)
	for i, start := range f.intervals() {
		req.Occurrences = append(req.Occurrences, booking.Occurrence{
			ID:        fmt.Sprintf("%s-occ-%d", f.ID, i+1),
			RequestID: f.ID,
			RoomID:    f.RoomID,
			Start:     start,
			End:       start.Add(duration),
			Status:    f.Status,
			CreatedAt: f.CreatedAt,
		})
	}
	return req
}

func (f RequestFixture) Persistence() persistence.Request {
	req := f.Booking()
	model := persistence.Request{
		ID:                req.ID,
		RoomID:            req.RoomID,
		RequesterName:     req.RequestedBy.Name,
		RequesterID:       req.RequestedBy.ExternalID,
		Purpose:           req.Purpose,
		AttendeeCount:     req.AttendeeCount,
		StartUTC:          req.Start,
		EndUTC:            req.End,
		RecurrencePattern: string(req.Recurrence),
		RecurrenceUntil:   req.RecurrenceUntil,
		Status:            string(req.Status),
		AdminComment:      req.AdminComment,
		CreatedAt:         req.CreatedAt,
		ModifiedAt:        req.ModifiedAt,
	}
	for _, occ := range req.Occurrences {
		model.Occurrences = append(model.Occurrences, persistence.Occurrence{
			ID:        occ.ID,
			RequestID: occ.RequestID,
			RoomID:    occ.RoomID,
			StartUTC:  occ.Start,
			EndUTC:    occ.End,
			Status:    string(occ.Status),
			CreatedAt: occ.CreatedAt,
		})
	}
	return model
}
