package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not_found")
	ErrInvalidTransition = errors.New("invalid_status_transition")
	ErrAlreadyReviewed   = errors.New("already_reviewed")
	ErrStorage           = errors.New("storage error")
)

// ConflictError is returned when the requested slot is held by another
// blocking reservation.
type ConflictError struct {
	ReservationID int64
	SameOwner     bool
}

func (e *ConflictError) Error() string {
	if e.SameOwner {
		return fmt.Sprintf("slot already reserved by you (reservation %d)", e.ReservationID)
	}
	return fmt.Sprintf("slot already reserved (reservation %d)", e.ReservationID)
}

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func InvalidTransition(from, to ReservationStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

func StorageError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

func IsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
