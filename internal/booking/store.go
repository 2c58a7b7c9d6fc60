package booking

import (
	"context"

	"github.com/condortrails/tour-booking-api/internal/model"
)

// Store opens transactional sessions against the persistent store.
// The manager receives a Store instead of a raw DB handle so its
// state machine can be exercised without a live database.
type Store interface {
	Begin(ctx context.Context) (Session, error)
}

// Session is one open transaction.  All reads and writes performed
// through a session commit or roll back together.  Implementations
// must return the package sentinels (ErrTourNotFound,
// ErrDepartureNotFound, ErrReservationNotFound) for missing rows.
type Session interface {
	Commit() error
	Rollback() error

	// TourByID loads a tour from the catalog.
	TourByID(ctx context.Context, id uint64) (*model.Tour, error)
	// UserByID loads a user; used only to build notification content.
	UserByID(ctx context.Context, id uint64) (*model.User, error)

	// DepartureForUpdate loads a departure under a row-level lock.
	// Concurrent reserve/cancel calls on the same departure serialize
	// on this lock.
	DepartureForUpdate(ctx context.Context, id uint64) (*model.Departure, error)
	// ReserveSeats atomically adds n occupied seats; it returns false
	// without mutating when fewer than n seats are free.
	ReserveSeats(ctx context.Context, departureID uint64, n int) (bool, error)
	// ReleaseSeats subtracts n occupied seats, clamping at zero.
	ReleaseSeats(ctx context.Context, departureID uint64, n int) error
	// RefreshDepartureStatus syncs the advisory open/full status with
	// the current occupancy.
	RefreshDepartureStatus(ctx context.Context, departureID uint64) error

	// InsertReservation persists a new reservation row.
	InsertReservation(ctx context.Context, res *model.Reservation) error
	// ReservationForUpdate loads a reservation under a row-level lock.
	ReservationForUpdate(ctx context.Context, id uint64) (*model.Reservation, error)
	// UpdateReservation persists lifecycle fields of a reservation.
	UpdateReservation(ctx context.Context, res *model.Reservation) error
}
