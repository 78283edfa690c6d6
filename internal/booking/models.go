// Package booking holds the room booking data model and the approval state machine that
// drives a request from draft to decision.
//
// Everything here is a pure function of its inputs. Callers hand in the room, the request
// and the room's existing occurrences; the lifecycle hands back a new request value and
// never mutates the one it was given.
package booking

import (
	"regexp"
	"strings"
	"time"

	"github.com/example/room-booking/internal/recurrence"
	"github.com/example/room-booking/internal/scheduler"
)

// RequestStatus is the approval state of a request and its occurrences.
type RequestStatus string

const (
	StatusDraft     RequestStatus = "Draft"
	StatusSubmitted RequestStatus = "Submitted"
	StatusApproved  RequestStatus = "Approved"
	StatusRejected  RequestStatus = "Rejected"
	StatusCancelled RequestStatus = "Cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []RequestStatus{StatusDraft, StatusSubmitted, StatusApproved, StatusRejected, StatusCancelled}

// ParseStatus maps a case-insensitive name onto a RequestStatus.
func ParseStatus(value string) (RequestStatus, bool) {
	for _, status := range Statuses {
		if strings.EqualFold(string(status), strings.TrimSpace(value)) {
			return status, true
		}
	}
	return "", false
}

// RecurrencePattern governs how a request expands into occurrences.
type RecurrencePattern = recurrence.Pattern

// Room is a schedulable space. Only active rooms accept new submissions.
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

// Requester identifies the person a request is made for.
type Requester struct {
	Name       string
	ExternalID string
}

var legacyRequester = regexp.MustCompile(`^(.*)\((.*)\)$`)

// ParseRequester reads the legacy "Name (ID)" encoding. Values without a trailing
// parenthesized id become a name-only requester.
func ParseRequester(value string) Requester {
	value = strings.TrimSpace(value)
	if m := legacyRequester.FindStringSubmatch(value); m != nil {
		return Requester{Name: strings.TrimSpace(m[1]), ExternalID: strings.TrimSpace(m[2])}
	}
	return Requester{Name: value}
}

// String renders the requester in the legacy "Name (ID)" form.
func (r Requester) String() string {
	if r.ExternalID == "" {
		return r.Name
	}
	return r.Name + " (" + r.ExternalID + ")"
}

// IsZero reports whether no identity was provided.
func (r Requester) IsZero() bool {
	return strings.TrimSpace(r.Name) == "" && strings.TrimSpace(r.ExternalID) == ""
}

// Occurrence is one concrete reservation derived from a request.
type Occurrence struct {
	ID        string
	RequestID string
	RoomID    string
	Start     time.Time
	End       time.Time
	Status    RequestStatus
	CreatedAt time.Time
}

// Interval returns the occurrence's time range.
func (o Occurrence) Interval() scheduler.Interval {
	return scheduler.Interval{Start: o.Start, End: o.End}
}

// Request is a room booking request and the occurrences it owns, in chronological order.
type Request struct {
	ID              string
	RoomID          string
	RequestedBy     Requester
	Purpose         string
	AttendeeCount   int
	Start           time.Time
	End             time.Time
	Recurrence      RecurrencePattern
	RecurrenceUntil *time.Time
	Status          RequestStatus
	AdminComment    string
	CreatedAt       time.Time
	ModifiedAt      time.Time
	Occurrences     []Occurrence
}

// Clone returns a deep copy of the request.
func (r Request) Clone() Request {
	out := r
	if r.RecurrenceUntil != nil {
		until := *r.RecurrenceUntil
		out.RecurrenceUntil = &until
	}
	if r.Occurrences != nil {
		out.Occurrences = append([]Occurrence(nil), r.Occurrences...)
	}
	return out
}

// Interval returns the first occurrence's time range.
func (r Request) Interval() scheduler.Interval {
	return scheduler.Interval{Start: r.Start, End: r.End}
}
