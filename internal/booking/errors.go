// Package booking implements the capacity manager: the single
// component allowed to move seats between departures and
// reservations.  Every operation runs as one database transaction so
// that a departure's occupied seat count never diverges from the sum
// of party sizes across its active reservations.
package booking

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the capacity manager.  Handlers map
// these to HTTP statuses; anything else is an internal failure.
var (
	ErrTourNotFound           = errors.New("tour not found")
	ErrDepartureNotFound      = errors.New("departure not found")
	ErrDepartureMismatch      = errors.New("departure does not belong to tour")
	ErrReservationNotFound    = errors.New("reservation not found")
	ErrInvalidPartySize       = errors.New("party size must be a positive integer")
	ErrInvalidStateTransition = errors.New("invalid reservation state transition")
	ErrCapacityExceeded       = errors.New("not enough seats available")
)

// CapacityError reports a failed seat reservation together with the
// number of seats still available, so callers can retry with a smaller
// party.  errors.Is(err, ErrCapacityExceeded) matches it.
type CapacityError struct {
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("not enough seats available: %d left", e.Available)
}

// Is makes CapacityError match ErrCapacityExceeded.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}
