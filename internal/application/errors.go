package application

import (
	"errors"
	"fmt"

	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/persistence"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute such as a room code is taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrRoomBusy is returned when the per-room lock could not be acquired.
	ErrRoomBusy = errors.New("application: room is busy")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError = booking.ValidationError

func newValidationError(field, message string) *ValidationError {
	return booking.NewValidationError(field, message)
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound), errors.Is(err, booking.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		vErr := newValidationError("room_id", "room does not exist")
		vErr.Cause = err
		return vErr
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := newValidationError("record", "violates a storage constraint")
		vErr.Cause = err
		return vErr
	}
	return err
}
