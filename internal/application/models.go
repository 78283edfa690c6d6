package application

import (
	"time"

	"github.com/example/room-booking/internal/availability"
	"github.com/example/room-booking/internal/booking"
)

// Principal represents the authenticated actor invoking a service method.
type Principal struct {
	UserID  string
	Name    string
	IsAdmin bool
}

// Requester returns the principal as a structured requester identity.
func (p Principal) Requester() booking.Requester {
	name := p.Name
	if name == "" {
		name = p.UserID
	}
	return booking.Requester{Name: name, ExternalID: p.UserID}
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Code     string
	Name     string
	Building string
	Capacity int
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// RoomFilter narrows room listings.
type RoomFilter struct {
	ActiveOnly bool
	Building   string
}

// RequestInput captures caller provided booking request fields. RequestedBy is only honoured
// for administrators; other callers always book as themselves.
type RequestInput struct {
	RoomID          string
	RequestedBy     booking.Requester
	Purpose         string
	AttendeeCount   int
	Start           time.Time
	End             time.Time
	Recurrence      string
	RecurrenceUntil *time.Time
}

// SubmitRequestParams wraps the data required to create or submit a request.
type SubmitRequestParams struct {
	Principal Principal
	Input     RequestInput
}

// RequestActionParams identifies a request acted on by a principal.
type RequestActionParams struct {
	Principal Principal
	RequestID string
}

// DecideParams wraps an administrative approve or reject decision.
type DecideParams struct {
	Principal Principal
	RequestID string
	Approve   bool
	Comment   string
}

// ListRequestsParams wraps request listing options.
type ListRequestsParams struct {
	Principal Principal
	Status    string
	RoomID    string
	Search    string
	SortBy    string
	Desc      bool
	Limit     int
}

// RequestFilter narrows queries issued to the request repository.
type RequestFilter struct {
	Status      booking.RequestStatus
	RoomID      string
	RequesterID string
	Search      string
	SortBy      string
	Desc        bool
	Limit       int
}

// Request sort keys accepted by ListRequests.
const (
	SortByCreatedAt  = "createdAt"
	SortByModifiedAt = "modifiedAt"
	SortByStart      = "startUtc"
)

// AvailabilityParams identifies the room and day whose grid is requested. Mode selects the
// blocking policy: "strict" or "pending".
type AvailabilityParams struct {
	RoomID string
	Day    time.Time
	Mode   string
}

// Availability is a room's hourly grid for one day plus the Monday-start week around it.
type Availability struct {
	Grid      availability.Grid
	WeekStart time.Time
	WeekDays  []time.Time
}

// SelectionParams carries a user's chosen hours for one room and day.
type SelectionParams struct {
	RoomID  string
	Day     time.Time
	Hours   []int
	Purpose string
}

// AuditEvent is an append-only record of a change.
type AuditEvent struct {
	ID         string
	EntityType string
	EntityID   string
	EventType  string
	Actor      string
	Details    string
	CreatedAt  time.Time
}

// Audit entity types.
const (
	EntityRoom    = "room"
	EntityRequest = "request"
)

// AuditFilter narrows audit listings.
type AuditFilter struct {
	Search     string
	EntityType string
	EntityID   string
	Desc       bool
	Limit      int
}

// ListEventsParams wraps audit listing options.
type ListEventsParams struct {
	Principal Principal
	Filter    AuditFilter
}

// StatusCount is the number of requests in one status.
type StatusCount struct {
	Status booking.RequestStatus
	Count  int
}

// Summary aggregates catalog and request counts.
type Summary struct {
	TotalRooms    int
	ActiveRooms   int
	RequestCounts []StatusCount
}
