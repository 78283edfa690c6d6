package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/room-booking/internal/scheduler"
)

var (
	// ErrNotFound matches every *NotFoundError through errors.Is.
	ErrNotFound = errors.New("booking: not found")
	// ErrInvalidTransition indicates a status change the state machine does not allow.
	ErrInvalidTransition = errors.New("booking: invalid status transition")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
	Cause       error
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// Unwrap exposes the underlying cause, if any.
func (v *ValidationError) Unwrap() error {
	if v == nil {
		return nil
	}
	return v.Cause
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Add records a field level validation error. The first message for a field wins.
func (v *ValidationError) Add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

// Merge copies entries from another validation error into the receiver.
func (v *ValidationError) Merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.Add(field, msg)
	}
	if v.Cause == nil {
		v.Cause = other.Cause
	}
}

// NewValidationError builds a ValidationError with a single field.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

func transitionError(from, to RequestStatus) *ValidationError {
	return &ValidationError{
		FieldErrors: map[string]string{"status": fmt.Sprintf("cannot move from %s to %s", displayStatus(from), to)},
		Cause:       ErrInvalidTransition,
	}
}

func displayStatus(status RequestStatus) RequestStatus {
	if status == "" {
		return StatusDraft
	}
	return status
}

// ConflictError reports candidate intervals that overlap existing occurrences of the same room.
type ConflictError struct {
	RoomID    string
	Conflicts []scheduler.Conflict
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil || len(c.Conflicts) == 0 {
		return "booking: conflict"
	}
	first := c.Conflicts[0]
	return fmt.Sprintf("booking: %d conflicting occurrence(s); first overlaps request %s from %s to %s",
		len(c.Conflicts), first.WithRequestID,
		first.ConflictingPeriod.Start.UTC().Format("2006-01-02T15:04Z"),
		first.ConflictingPeriod.End.UTC().Format("2006-01-02T15:04Z"))
}

// NotFoundError reports a referenced room or request missing from the snapshot.
type NotFoundError struct {
	Kind string
	ID   string
}

// Error implements the error interface.
func (n *NotFoundError) Error() string {
	return fmt.Sprintf("booking: %s %q not found", n.Kind, n.ID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (n *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
