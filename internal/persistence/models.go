package persistence

import "time"

// Room represents a bookable room catalog entry.
type Room struct {
	ID        string
	Code      string
	Name      string
	Building  string
	Capacity  int
	IsActive  bool
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Request represents a booking request row together with its occurrences.
type Request struct {
	ID                string
	RoomID            string
	RequesterName     string
	RequesterID       string
	Purpose           string
	AttendeeCount     int
	StartUTC          time.Time
	EndUTC            time.Time
	RecurrencePattern string
	RecurrenceUntil   *time.Time
	Status            string
	AdminComment      string
	CreatedAt         time.Time
	ModifiedAt        time.Time
	Occurrences       []Occurrence
}

// Occurrence represents one concrete reservation owned by a request.
type Occurrence struct {
	ID        string
	RequestID string
	RoomID    string
	StartUTC  time.Time
	EndUTC    time.Time
	Status    string
	CreatedAt time.Time
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

// StatusCount is the number of requests in one status.
type StatusCount struct {
	Status string
	Count  int
}

// RoomCounts summarizes the room catalog.
type RoomCounts struct {
	Total  int
	Active int
}
