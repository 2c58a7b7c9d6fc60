// Package repository contains data access logic for the tour catalog.
// This file defines repository methods for tours. A Tour is one
// offering in the catalog; its scheduled runs live in the departures
// table and are managed by DepartureRepo.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/condortrails/tour-booking-api/internal/model"
)

// ErrTourNotFound indicates that a tour was not located in the DB.
var ErrTourNotFound = errors.New("tour not found")

// TourRepo manages persistence for tours.
type TourRepo struct {
	db *sql.DB
}

// NewTourRepo constructs a TourRepo with the given DB handle.
func NewTourRepo(db *sql.DB) *TourRepo {
	return &TourRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *TourRepo) DB() *sql.DB {
	return r.db
}

const tourCols = `id, name, slug, country, duration_days, activity_level,
	price_per_person_cents, currency, short_description, long_description,
	active, created_at, updated_at`

// Create inserts a new tour and assigns the generated ID back to the
// struct.  The caller must provide name, slug, country and
// duration_days.  Currency defaults to USD at the DB level when
// empty; the inserted row is queried back to populate defaults and
// timestamps.
func (r *TourRepo) Create(ctx context.Context, t *model.Tour) error {
	const q = `INSERT INTO tours
		(name, slug, country, duration_days, activity_level,
		 price_per_person_cents, currency, short_description, long_description, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		t.Name, t.Slug, t.Country, t.DurationDays, t.ActivityLevel,
		t.PricePerPersonCents, t.Currency, t.ShortDescription, t.LongDescription, t.Active)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return r.db.QueryRowContext(ctx, "SELECT "+tourCols+" FROM tours WHERE id = ?", t.ID).Scan(
		&t.ID, &t.Name, &t.Slug, &t.Country, &t.DurationDays, &t.ActivityLevel,
		&t.PricePerPersonCents, &t.Currency, &t.ShortDescription, &t.LongDescription,
		&t.Active, &t.CreatedAt, &t.UpdatedAt,
	)
}

// GetByID retrieves a tour by its ID.  It returns ErrTourNotFound if
// there is no matching row.
func (r *TourRepo) GetByID(ctx context.Context, id uint64) (*model.Tour, error) {
	return r.getOne(ctx, "SELECT "+tourCols+" FROM tours WHERE id = ?", id)
}

// GetBySlug retrieves a tour by its unique slug.  It returns
// ErrTourNotFound if there is no matching row.
func (r *TourRepo) GetBySlug(ctx context.Context, slug string) (*model.Tour, error) {
	return r.getOne(ctx, "SELECT "+tourCols+" FROM tours WHERE slug = ?", strings.TrimSpace(slug))
}

func (r *TourRepo) getOne(ctx context.Context, q string, arg interface{}) (*model.Tour, error) {
	var t model.Tour
	err := r.db.QueryRowContext(ctx, q, arg).Scan(
		&t.ID, &t.Name, &t.Slug, &t.Country, &t.DurationDays, &t.ActivityLevel,
		&t.PricePerPersonCents, &t.Currency, &t.ShortDescription, &t.LongDescription,
		&t.Active, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTourNotFound
		}
		return nil, err
	}
	return &t, nil
}

// List returns tours ordered by name.  When activeOnly is true only
// bookable tours are returned; this is what the public catalog uses.
// Admin listings pass false to see everything.
func (r *TourRepo) List(ctx context.Context, activeOnly bool) ([]model.Tour, error) {
	q := "SELECT " + tourCols + " FROM tours"
	if activeOnly {
		q += " WHERE active = TRUE"
	}
	q += " ORDER BY name ASC"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Tour, 0)
	for rows.Next() {
		var t model.Tour
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Slug, &t.Country, &t.DurationDays, &t.ActivityLevel,
			&t.PricePerPersonCents, &t.Currency, &t.ShortDescription, &t.LongDescription,
			&t.Active, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update overwrites the mutable attributes of a tour.  It returns
// ErrTourNotFound when the tour does not exist and ErrNoChange when
// the update matched a row but changed nothing.
func (r *TourRepo) Update(ctx context.Context, t *model.Tour) error {
	const q = `UPDATE tours SET
		name = ?, slug = ?, country = ?, duration_days = ?, activity_level = ?,
		price_per_person_cents = ?, currency = ?, short_description = ?,
		long_description = ?, active = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		t.Name, t.Slug, t.Country, t.DurationDays, t.ActivityLevel,
		t.PricePerPersonCents, t.Currency, t.ShortDescription, t.LongDescription,
		t.Active, t.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish missing row from identical values.
		var exists bool
		if err := r.db.QueryRowContext(ctx, "SELECT TRUE FROM tours WHERE id = ?", t.ID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTourNotFound
			}
			return err
		}
		return ErrNoChange
	}
	return nil
}

// Deactivate soft-deletes a tour by clearing its active flag.  The
// tour and its reservation history remain queryable.  Returns
// ErrTourNotFound when the tour does not exist.
func (r *TourRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE tours SET active = FALSE WHERE id = ? AND active = TRUE", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, "SELECT TRUE FROM tours WHERE id = ?", id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTourNotFound
			}
			return err
		}
		return ErrNoChange
	}
	return nil
}
