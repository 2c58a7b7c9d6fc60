// Package repository contains data access logic for departures.  A
// Departure is one dated run of a tour carrying its own seat
// inventory.  The occupied_seats column is mutated exclusively through
// the ReserveSeatsTx / ReleaseSeatsTx methods below; that discipline is
// what keeps reservation rows and seat counts from drifting apart.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/condortrails/tour-booking-api/internal/model"
)

// ErrDepartureNotFound indicates that a departure was not located in the DB.
var ErrDepartureNotFound = errors.New("departure not found")

// DepartureRepo manages persistence for departures.
type DepartureRepo struct {
	db *sql.DB
}

// NewDepartureRepo constructs a DepartureRepo with the given DB handle.
func NewDepartureRepo(db *sql.DB) *DepartureRepo {
	return &DepartureRepo{db: db}
}

// DB exposes the underlying sql.DB for callers that need to begin
// transactions spanning multiple repositories.
func (r *DepartureRepo) DB() *sql.DB {
	return r.db
}

const departureCols = `id, tour_id, start_date, end_date, total_seats,
	occupied_seats, status, notes, created_at, updated_at`

func scanDeparture(row *sql.Row) (*model.Departure, error) {
	var (
		d      model.Departure
		status string
		notes  sql.NullString
	)
	err := row.Scan(
		&d.ID, &d.TourID, &d.StartDate, &d.EndDate, &d.TotalSeats,
		&d.OccupiedSeats, &status, &notes, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDepartureNotFound
		}
		return nil, err
	}
	d.Status = model.DepartureStatus(status)
	if notes.Valid {
		d.Notes = notes.String
	}
	return &d, nil
}

// Create inserts a new departure.  Status defaults to "open" at the
// DB level; the inserted row is queried back to populate defaults and
// timestamps.
func (r *DepartureRepo) Create(ctx context.Context, d *model.Departure) error {
	const q = `INSERT INTO departures
		(tour_id, start_date, end_date, total_seats, occupied_seats, notes)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		d.TourID, d.StartDate, d.EndDate, d.TotalSeats, d.OccupiedSeats, d.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	got, err := scanDeparture(r.db.QueryRowContext(ctx,
		"SELECT "+departureCols+" FROM departures WHERE id = ?", d.ID))
	if err != nil {
		return err
	}
	*d = *got
	return nil
}

// GetByID retrieves a departure by its ID.  It returns
// ErrDepartureNotFound if there is no matching row.
func (r *DepartureRepo) GetByID(ctx context.Context, id uint64) (*model.Departure, error) {
	return scanDeparture(r.db.QueryRowContext(ctx,
		"SELECT "+departureCols+" FROM departures WHERE id = ?", id))
}

// GetForUpdateTx loads a departure row under a row-level lock inside
// the given transaction.  Concurrent Reserve and Cancel calls against
// the same departure serialize on this lock, which is what makes the
// read-check-then-write seat update safe.
func (r *DepartureRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Departure, error) {
	return scanDeparture(tx.QueryRowContext(ctx,
		"SELECT "+departureCols+" FROM departures WHERE id = ? FOR UPDATE", id))
}

// ListByTour returns all departures of a tour ordered by start date
// ascending.  When no departures exist an empty slice is returned.
func (r *DepartureRepo) ListByTour(ctx context.Context, tourID uint64) ([]model.Departure, error) {
	const q = `SELECT ` + departureCols + `
		FROM departures WHERE tour_id = ? ORDER BY start_date ASC`
	rows, err := r.db.QueryContext(ctx, q, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Departure, 0)
	for rows.Next() {
		var (
			d      model.Departure
			status string
			notes  sql.NullString
		)
		if err := rows.Scan(
			&d.ID, &d.TourID, &d.StartDate, &d.EndDate, &d.TotalSeats,
			&d.OccupiedSeats, &status, &notes, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		d.Status = model.DepartureStatus(status)
		if notes.Valid {
			d.Notes = notes.String
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ReserveSeatsTx atomically adds n seats to occupied_seats inside the
// given transaction.  The conditional WHERE clause refuses the update
// when it would push occupancy past total_seats, so the invariant
// 0 <= occupied <= total cannot be violated even without the caller
// holding the row lock.  It returns false when the seats were not
// available.
func (r *DepartureRepo) ReserveSeatsTx(ctx context.Context, tx *sql.Tx, id uint64, n int) (bool, error) {
	if n <= 0 {
		return false, nil
	}
	const q = `UPDATE departures
		SET occupied_seats = occupied_seats + ?
		WHERE id = ? AND occupied_seats + ? <= total_seats`
	res, err := tx.ExecContext(ctx, q, n, id, n)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// ReleaseSeatsTx subtracts n seats from occupied_seats inside the
// given transaction, clamping at zero so the count can never go
// negative.
func (r *DepartureRepo) ReleaseSeatsTx(ctx context.Context, tx *sql.Tx, id uint64, n int) error {
	if n <= 0 {
		return nil
	}
	const q = `UPDATE departures
		SET occupied_seats = GREATEST(occupied_seats - ?, 0)
		WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, n, id)
	return err
}

// RefreshStatusTx synchronizes the advisory status with occupancy:
// an open departure that filled up becomes "full" and a full one with
// seats freed becomes "open" again.  Closed and cancelled departures
// are left alone.
func (r *DepartureRepo) RefreshStatusTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE departures SET status = CASE
		WHEN status = 'open' AND occupied_seats >= total_seats THEN 'full'
		WHEN status = 'full' AND occupied_seats < total_seats THEN 'open'
		ELSE status END
		WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

// Update overwrites the schedule, capacity and advisory fields of a
// departure.  occupied_seats is deliberately not updatable here; seat
// counts move only through ReserveSeatsTx and ReleaseSeatsTx.  Returns
// ErrConflict when total_seats would drop below the current occupancy.
func (r *DepartureRepo) Update(ctx context.Context, d *model.Departure) error {
	const q = `UPDATE departures SET
		start_date = ?, end_date = ?, total_seats = ?, status = ?, notes = ?
		WHERE id = ? AND total_seats >= (SELECT occ FROM
			(SELECT occupied_seats AS occ FROM departures WHERE id = ?) AS cur)`
	res, err := r.db.ExecContext(ctx, q,
		d.StartDate, d.EndDate, d.TotalSeats, string(d.Status), d.Notes, d.ID, d.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		cur, err := r.GetByID(ctx, d.ID)
		if err != nil {
			return err
		}
		if d.TotalSeats < cur.OccupiedSeats {
			return ErrConflict
		}
		return ErrNoChange
	}
	return nil
}

// Delete removes a departure.  It refuses with ErrConflict while any
// non-cancelled reservation still references it; cancelled history is
// removed by the FK cascade.
func (r *DepartureRepo) Delete(ctx context.Context, id uint64) error {
	var active int
	const check = `SELECT COUNT(*) FROM reservations
		WHERE departure_id = ? AND state IN ('pre_reservation','confirmed')`
	if err := r.db.QueryRowContext(ctx, check, id).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM departures WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDepartureNotFound
	}
	return nil
}
