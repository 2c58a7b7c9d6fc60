package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/condortrails/tour-booking-api/internal/booking"
	"github.com/condortrails/tour-booking-api/internal/model"
)

// BookingStore adapts the SQL repositories to the booking manager's
// Store interface.  Each session wraps one *sql.Tx so every booking
// operation commits or rolls back as a unit, and repository sentinels
// are translated to the booking package's error taxonomy at this
// boundary.
type BookingStore struct {
	db           *sql.DB
	tours        *TourRepo
	users        *UserRepo
	departures   *DepartureRepo
	reservations *ReservationRepo
}

// NewBookingStore constructs a BookingStore over the shared DB handle
// and repositories.
func NewBookingStore(db *sql.DB, tours *TourRepo, users *UserRepo, departures *DepartureRepo, reservations *ReservationRepo) *BookingStore {
	return &BookingStore{
		db:           db,
		tours:        tours,
		users:        users,
		departures:   departures,
		reservations: reservations,
	}
}

// Begin opens a transaction and returns a session scoped to it.
func (s *BookingStore) Begin(ctx context.Context) (booking.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &bookingSession{store: s, tx: tx}, nil
}

type bookingSession struct {
	store *BookingStore
	tx    *sql.Tx
}

func (s *bookingSession) Commit() error   { return s.tx.Commit() }
func (s *bookingSession) Rollback() error { return s.tx.Rollback() }

// TourByID reads the tour through the shared pool.  Tours are not
// mutated by booking transactions, so no lock is needed.
func (s *bookingSession) TourByID(ctx context.Context, id uint64) (*model.Tour, error) {
	t, err := s.store.tours.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTourNotFound) {
			return nil, booking.ErrTourNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *bookingSession) UserByID(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.store.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *bookingSession) DepartureForUpdate(ctx context.Context, id uint64) (*model.Departure, error) {
	d, err := s.store.departures.GetForUpdateTx(ctx, s.tx, id)
	if err != nil {
		if errors.Is(err, ErrDepartureNotFound) {
			return nil, booking.ErrDepartureNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *bookingSession) ReserveSeats(ctx context.Context, departureID uint64, n int) (bool, error) {
	return s.store.departures.ReserveSeatsTx(ctx, s.tx, departureID, n)
}

func (s *bookingSession) ReleaseSeats(ctx context.Context, departureID uint64, n int) error {
	return s.store.departures.ReleaseSeatsTx(ctx, s.tx, departureID, n)
}

func (s *bookingSession) RefreshDepartureStatus(ctx context.Context, departureID uint64) error {
	return s.store.departures.RefreshStatusTx(ctx, s.tx, departureID)
}

func (s *bookingSession) InsertReservation(ctx context.Context, res *model.Reservation) error {
	return s.store.reservations.CreateTx(ctx, s.tx, res)
}

func (s *bookingSession) ReservationForUpdate(ctx context.Context, id uint64) (*model.Reservation, error) {
	r, err := s.store.reservations.GetForUpdateTx(ctx, s.tx, id)
	if err != nil {
		if errors.Is(err, ErrReservationNotFound) {
			return nil, booking.ErrReservationNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *bookingSession) UpdateReservation(ctx context.Context, res *model.Reservation) error {
	return s.store.reservations.UpdateTx(ctx, s.tx, res)
}
