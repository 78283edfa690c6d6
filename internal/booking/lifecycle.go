package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-booking/internal/recurrence"
	"github.com/example/room-booking/internal/scheduler"
	"github.com/example/room-booking/internal/timeutil"
)

var transitions = map[RequestStatus][]RequestStatus{
	StatusDraft:     {StatusSubmitted, StatusCancelled},
	StatusSubmitted: {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusRejected, StatusCancelled},
	StatusRejected:  {StatusApproved, StatusCancelled},
}

// CanTransition reports whether the state machine allows moving from one status to another.
// An empty status is the implicit draft of a request that was never stored.
func CanTransition(from, to RequestStatus) bool {
	for _, allowed := range transitions[displayStatus(from)] {
		if allowed == to {
			return true
		}
	}
	return false
}

// DraftInput captures caller provided request fields.
type DraftInput struct {
	RoomID          string
	RequestedBy     Requester
	Purpose         string
	AttendeeCount   int
	Start           time.Time
	End             time.Time
	Recurrence      RecurrencePattern
	RecurrenceUntil *time.Time
}

// Lifecycle drives requests through the approval state machine.
type Lifecycle struct {
	engine      *recurrence.Engine
	idGenerator func() string
	now         func() time.Time
}

// NewLifecycle constructs a Lifecycle. A nil engine uses the default occurrence cap.
func NewLifecycle(engine *recurrence.Engine, idGenerator func() string, now func() time.Time) *Lifecycle {
	if engine == nil {
		engine = recurrence.NewEngine(0)
	}
	if now == nil {
		now = time.Now
	}
	return &Lifecycle{engine: engine, idGenerator: idGenerator, now: now}
}

func (l *Lifecycle) timestamp() time.Time {
	return l.now().UTC()
}

func (l *Lifecycle) nextID() string {
	if l.idGenerator == nil {
		return ""
	}
	return l.idGenerator()
}

// NewDraft creates a request in Draft status. Drafts carry no occurrences.
func (l *Lifecycle) NewDraft(input DraftInput) Request {
	now := l.timestamp()
	req := Request{
		ID:            l.nextID(),
		RoomID:        strings.TrimSpace(input.RoomID),
		RequestedBy:   Requester{Name: strings.TrimSpace(input.RequestedBy.Name), ExternalID: strings.TrimSpace(input.RequestedBy.ExternalID)},
		Purpose:       strings.TrimSpace(input.Purpose),
		AttendeeCount: input.AttendeeCount,
		Start:         input.Start.UTC(),
		End:           input.End.UTC(),
		Recurrence:    input.Recurrence,
		Status:        StatusDraft,
		CreatedAt:     now,
		ModifiedAt:    now,
	}
	if req.Recurrence == "" {
		req.Recurrence = recurrence.PatternNone
	}
	if req.Recurrence.Repeats() && input.RecurrenceUntil != nil {
		until := input.RecurrenceUntil.UTC()
		req.RecurrenceUntil = &until
	}
	return req
}

// Plan validates the request against room and returns the intervals it would occupy.
// No conflict checking is performed.
func (l *Lifecycle) Plan(req Request, room Room) ([]scheduler.Interval, error) {
	if room.ID != req.RoomID {
		return nil, &NotFoundError{Kind: "room", ID: req.RoomID}
	}

	vErr := &ValidationError{}
	if !room.IsActive {
		vErr.Add("room_id", "room is not active")
	}
	if req.RequestedBy.IsZero() {
		vErr.Add("requested_by", "requester is required")
	}
	if strings.TrimSpace(req.Purpose) == "" {
		vErr.Add("purpose", "purpose is required")
	}
	if req.AttendeeCount < 1 {
		vErr.Add("attendee_count", "at least one attendee is required")
	} else if req.AttendeeCount > room.Capacity {
		vErr.Add("attendee_count", fmt.Sprintf("exceeds room capacity of %d", room.Capacity))
	}

	vErr.Merge(validateInterval(req.Start, req.End))
	if vErr.HasErrors() {
		return nil, vErr
	}

	intervals, err := l.engine.Expand(req.Interval(), req.Recurrence, req.RecurrenceUntil)
	if err != nil {
		return nil, recurrenceValidationError(err, l.engine.MaxOccurrences())
	}
	return intervals, nil
}

func validateInterval(start, end time.Time) *ValidationError {
	vErr := &ValidationError{}
	if start.IsZero() {
		vErr.Add("start_utc", "start is required")
	}
	if end.IsZero() {
		vErr.Add("end_utc", "end is required")
	}
	if vErr.HasErrors() {
		return vErr
	}
	if !end.After(start) {
		vErr.Add("end_utc", "end must be after start")
	}
	if !timeutil.IsHourAligned(start) {
		vErr.Add("start_utc", "start must be aligned to a whole hour")
	}
	if !timeutil.IsHourAligned(end) {
		vErr.Add("end_utc", "end must be aligned to a whole hour")
	}
	return vErr
}

func recurrenceValidationError(err error, limit int) *ValidationError {
	vErr := &ValidationError{Cause: err}
	switch {
	case errors.Is(err, recurrence.ErrMissingUntil):
		vErr.Add("recurrence_until_utc", "required when the request repeats")
	case errors.Is(err, recurrence.ErrUntilBeforeStart):
		vErr.Add("recurrence_until_utc", "must not be earlier than the start")
	case errors.Is(err, recurrence.ErrTooManyOccurrences):
		vErr.Add("recurrence_until_utc", fmt.Sprintf("expands to more than %d occurrences", limit))
	case errors.Is(err, recurrence.ErrInvalidPattern):
		vErr.Add("recurrence_pattern", "must be None, Daily or Weekly")
	case errors.Is(err, recurrence.ErrInvalidDuration):
		vErr.Add("end_utc", "end must be after start")
	default:
		vErr.Add("recurrence_pattern", err.Error())
	}
	return vErr
}

// Submit validates a draft against room and the room's existing occurrences and returns the
// submitted request with its materialized occurrences. Existing occurrences that are
// Approved or Submitted block; the request's own occurrences never do.
func (l *Lifecycle) Submit(req Request, room Room, existing []Occurrence) (Request, error) {
	if !CanTransition(req.Status, StatusSubmitted) {
		return Request{}, transitionError(req.Status, StatusSubmitted)
	}

	intervals, err := l.Plan(req, room)
	if err != nil {
		return Request{}, err
	}

	blocking := BlockingOccurrences(existing, room.ID, PolicyPendingAware, req.ID)
	if conflicts := scheduler.DetectConflicts(blocking, intervals); len(conflicts) > 0 {
		return Request{}, &ConflictError{RoomID: room.ID, Conflicts: conflicts}
	}

	now := l.timestamp()
	out := req.Clone()
	if out.ID == "" {
		out.ID = l.nextID()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	if !out.Recurrence.Repeats() {
		out.Recurrence = recurrence.PatternNone
		out.RecurrenceUntil = nil
	}
	out.Start = out.Start.UTC()
	out.End = out.End.UTC()
	out.Status = StatusSubmitted
	out.ModifiedAt = now
	out.Occurrences = make([]Occurrence, 0, len(intervals))
	for _, interval := range intervals {
		out.Occurrences = append(out.Occurrences, Occurrence{
			ID:        l.nextID(),
			RequestID: out.ID,
			RoomID:    room.ID,
			Start:     interval.Start,
			End:       interval.End,
			Status:    StatusSubmitted,
			CreatedAt: now,
		})
	}
	return out, nil
}

// Decide applies an administrative approve or reject decision. Moving into Approved
// re-checks the request's occurrences against other approved occurrences of the room and
// fails with a *ConflictError, leaving the request unchanged, if any overlap.
func (l *Lifecycle) Decide(req Request, approve bool, comment string, existing []Occurrence) (Request, error) {
	target := StatusRejected
	if approve {
		target = StatusApproved
	}
	if !CanTransition(req.Status, target) {
		return Request{}, transitionError(req.Status, target)
	}

	if approve {
		candidates := make([]scheduler.Interval, 0, len(req.Occurrences))
		for _, occ := range req.Occurrences {
			candidates = append(candidates, occ.Interval())
		}
		blocking := BlockingOccurrences(existing, req.RoomID, PolicyStrict, req.ID)
		if conflicts := scheduler.DetectConflicts(blocking, candidates); len(conflicts) > 0 {
			return Request{}, &ConflictError{RoomID: req.RoomID, Conflicts: conflicts}
		}
	}

	out := withStatus(req, target, l.timestamp())
	out.AdminComment = strings.TrimSpace(comment)
	return out, nil
}

// Cancel withdraws a request. Its occurrences are dropped and no longer occupy the room.
func (l *Lifecycle) Cancel(req Request) (Request, error) {
	if !CanTransition(req.Status, StatusCancelled) {
		return Request{}, transitionError(req.Status, StatusCancelled)
	}
	out := req.Clone()
	out.Status = StatusCancelled
	out.ModifiedAt = l.timestamp()
	out.Occurrences = nil
	return out, nil
}

func withStatus(req Request, status RequestStatus, now time.Time) Request {
	out := req.Clone()
	out.Status = status
	out.ModifiedAt = now
	for i := range out.Occurrences {
		out.Occurrences[i].Status = status
	}
	return out
}
