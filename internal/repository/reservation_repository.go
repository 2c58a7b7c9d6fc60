package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/condortrails/tour-booking-api/internal/model"
)

// ErrReservationNotFound indicates that a reservation was not located
// in the DB.
var ErrReservationNotFound = errors.New("reservation not found")

// ReservationRepo provides persistence for reservations.  A
// reservation records one customer's booking against a departure.
// State-changing writes happen through the ...Tx methods so the
// booking manager can keep seat counts and reservation rows in one
// transaction.  All timestamp fields are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying sql.DB for callers that need to begin
// transactions spanning multiple repositories.
func (r *ReservationRepo) DB() *sql.DB {
	return r.db
}

const reservationCols = `id, user_id, tour_id, departure_id, party_size,
	state, payment_state, total_amount_cents, currency,
	payment_method, payment_ref, paid_at,
	refund_amount_cents, cancel_reason, cancelled_at,
	customer_comments, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var (
		res                           model.Reservation
		state, payState               string
		method, ref, reason, comments sql.NullString
		paidAt, cancelledAt           sql.NullTime
		refund                        sql.NullInt64
	)
	err := row.Scan(
		&res.ID, &res.UserID, &res.TourID, &res.DepartureID, &res.PartySize,
		&state, &payState, &res.TotalAmountCents, &res.Currency,
		&method, &ref, &paidAt,
		&refund, &reason, &cancelledAt,
		&comments, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	res.State = model.ReservationState(state)
	res.PaymentState = model.PaymentState(payState)
	if method.Valid {
		v := method.String
		res.PaymentMethod = &v
	}
	if ref.Valid {
		v := ref.String
		res.PaymentRef = &v
	}
	if paidAt.Valid {
		v := paidAt.Time
		res.PaidAt = &v
	}
	if refund.Valid {
		v := uint32(refund.Int64)
		res.RefundAmountCents = &v
	}
	if reason.Valid {
		v := reason.String
		res.CancelReason = &v
	}
	if cancelledAt.Valid {
		v := cancelledAt.Time
		res.CancelledAt = &v
	}
	if comments.Valid {
		v := comments.String
		res.CustomerComments = &v
	}
	return &res, nil
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction and populates the generated ID plus DB defaults on the
// provided record.  The caller must commit or roll back the
// transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
		(user_id, tour_id, departure_id, party_size, state, payment_state,
		 total_amount_cents, currency, customer_comments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		res.UserID, res.TourID, res.DepartureID, res.PartySize,
		string(res.State), string(res.PaymentState),
		res.TotalAmountCents, res.Currency, res.CustomerComments)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	got, err := scanReservation(tx.QueryRowContext(ctx,
		"SELECT "+reservationCols+" FROM reservations WHERE id = ?", res.ID))
	if err != nil {
		return err
	}
	*res = *got
	return nil
}

// GetByID loads a reservation by ID outside any transaction.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	return scanReservation(r.db.QueryRowContext(ctx,
		"SELECT "+reservationCols+" FROM reservations WHERE id = ?", id))
}

// GetForUpdateTx loads a reservation row under a row-level lock inside
// the given transaction so that concurrent confirm/cancel calls on the
// same reservation serialize.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	return scanReservation(tx.QueryRowContext(ctx,
		"SELECT "+reservationCols+" FROM reservations WHERE id = ? FOR UPDATE", id))
}

// UpdateTx persists the mutable lifecycle fields of a reservation
// inside the given transaction: states, payment metadata, refund and
// cancellation records, and customer comments.
func (r *ReservationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `UPDATE reservations SET
		state = ?, payment_state = ?,
		payment_method = ?, payment_ref = ?, paid_at = ?,
		refund_amount_cents = ?, cancel_reason = ?, cancelled_at = ?,
		customer_comments = ?
		WHERE id = ?`
	_, err := tx.ExecContext(ctx, q,
		string(res.State), string(res.PaymentState),
		res.PaymentMethod, res.PaymentRef, res.PaidAt,
		res.RefundAmountCents, res.CancelReason, res.CancelledAt,
		res.CustomerComments, res.ID)
	return err
}

// UpdateComments stores the customer's free-text comments on their own
// reservation.  It returns ErrReservationNotFound when the reservation
// does not exist and ErrForbidden when it belongs to another user.
func (r *ReservationRepo) UpdateComments(ctx context.Context, id, userID uint64, comments *string) error {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id FROM reservations WHERE id = ?", id).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReservationNotFound
		}
		return err
	}
	if ownerID != userID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx,
		"UPDATE reservations SET customer_comments = ? WHERE id = ?", comments, id)
	return err
}

// ReservationDetail joins a reservation with its tour and departure
// for display.  Monetary amounts are serialized as decimal values and
// dates as ISO-8601 strings.
type ReservationDetail struct {
	ID           uint64   `json:"id"`
	TourID       uint64   `json:"tour_id"`
	TourName     string   `json:"tour_name"`
	TourSlug     string   `json:"tour_slug"`
	DepartureID  uint64   `json:"departure_id"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	PartySize    int      `json:"party_size"`
	State        string   `json:"state"`
	PaymentState string   `json:"payment_state"`
	TotalAmount  float64  `json:"total_amount"`
	Currency     string   `json:"currency"`
	RefundAmount *float64 `json:"refund_amount,omitempty"`
	CreatedAt    string   `json:"created_at"`
}

// AdminReservationDetail extends ReservationDetail with the fields an
// operator needs: the booking customer and payment/cancellation
// records.
type AdminReservationDetail struct {
	ReservationDetail
	UserID        uint64  `json:"user_id"`
	UserName      string  `json:"user_name"`
	UserEmail     string  `json:"user_email"`
	PaymentMethod *string `json:"payment_method,omitempty"`
	PaymentRef    *string `json:"payment_ref,omitempty"`
	CancelReason  *string `json:"cancel_reason,omitempty"`
}

const detailQuery = `SELECT r.id, r.tour_id, t.name, t.slug,
		r.departure_id, d.start_date, d.end_date,
		r.party_size, r.state, r.payment_state,
		r.total_amount_cents, r.currency, r.refund_amount_cents, r.created_at
	FROM reservations r
	JOIN tours t ON t.id = r.tour_id
	JOIN departures d ON d.id = r.departure_id`

func scanDetail(rows *sql.Rows) (ReservationDetail, error) {
	var (
		det        ReservationDetail
		start, end time.Time
		cents      uint32
		refund     sql.NullInt64
		createdAt  time.Time
	)
	err := rows.Scan(
		&det.ID, &det.TourID, &det.TourName, &det.TourSlug,
		&det.DepartureID, &start, &end,
		&det.PartySize, &det.State, &det.PaymentState,
		&cents, &det.Currency, &refund, &createdAt,
	)
	if err != nil {
		return det, err
	}
	det.StartDate = start.UTC().Format("2006-01-02")
	det.EndDate = end.UTC().Format("2006-01-02")
	det.TotalAmount = float64(cents) / 100
	if refund.Valid {
		v := float64(refund.Int64) / 100
		det.RefundAmount = &v
	}
	det.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return det, nil
}

// ListByUser returns all reservations of a user newest first, with
// tour and departure details resolved.  When no reservations exist an
// empty slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		detailQuery+" WHERE r.user_id = ? ORDER BY r.created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]ReservationDetail, 0)
	for rows.Next() {
		det, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, det)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// AdminFilter narrows admin reservation listings.  Nil fields match
// everything.
type AdminFilter struct {
	State        *model.ReservationState
	PaymentState *model.PaymentState
	TourID       *uint64
}

// ListAdmin returns reservations matching the filter with customer and
// payment details, newest first.
func (r *ReservationRepo) ListAdmin(ctx context.Context, f AdminFilter) ([]AdminReservationDetail, error) {
	q := `SELECT r.id, r.tour_id, t.name, t.slug,
			r.departure_id, d.start_date, d.end_date,
			r.party_size, r.state, r.payment_state,
			r.total_amount_cents, r.currency, r.refund_amount_cents, r.created_at,
			r.user_id, u.name, u.email,
			r.payment_method, r.payment_ref, r.cancel_reason
		FROM reservations r
		JOIN tours t ON t.id = r.tour_id
		JOIN departures d ON d.id = r.departure_id
		JOIN users u ON u.id = r.user_id
		WHERE 1=1`
	args := make([]interface{}, 0, 3)
	if f.State != nil {
		q += " AND r.state = ?"
		args = append(args, string(*f.State))
	}
	if f.PaymentState != nil {
		q += " AND r.payment_state = ?"
		args = append(args, string(*f.PaymentState))
	}
	if f.TourID != nil {
		q += " AND r.tour_id = ?"
		args = append(args, *f.TourID)
	}
	q += " ORDER BY r.created_at DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]AdminReservationDetail, 0)
	for rows.Next() {
		var (
			det                   AdminReservationDetail
			start, end, createdAt time.Time
			cents                 uint32
			refund                sql.NullInt64
			method, ref, reason   sql.NullString
		)
		if err := rows.Scan(
			&det.ID, &det.TourID, &det.TourName, &det.TourSlug,
			&det.DepartureID, &start, &end,
			&det.PartySize, &det.State, &det.PaymentState,
			&cents, &det.Currency, &refund, &createdAt,
			&det.UserID, &det.UserName, &det.UserEmail,
			&method, &ref, &reason,
		); err != nil {
			return nil, err
		}
		det.StartDate = start.UTC().Format("2006-01-02")
		det.EndDate = end.UTC().Format("2006-01-02")
		det.TotalAmount = float64(cents) / 100
		if refund.Valid {
			v := float64(refund.Int64) / 100
			det.RefundAmount = &v
		}
		det.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		if method.Valid {
			v := method.String
			det.PaymentMethod = &v
		}
		if ref.Valid {
			v := ref.String
			det.PaymentRef = &v
		}
		if reason.Valid {
			v := reason.String
			det.CancelReason = &v
		}
		details = append(details, det)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// DashboardSummary aggregates reservation counts per state, pending
// payments and confirmed revenue for the operator dashboard.
type DashboardSummary struct {
	ReservationCounts map[string]int     `json:"reservation_counts"`
	PendingPayments   int                `json:"pending_payments"`
	RevenueByCurrency map[string]float64 `json:"revenue_by_currency"`
}

// Summary computes the dashboard aggregates in three queries.
func (r *ReservationRepo) Summary(ctx context.Context) (*DashboardSummary, error) {
	sum := &DashboardSummary{
		ReservationCounts: make(map[string]int),
		RevenueByCurrency: make(map[string]float64),
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT state, COUNT(*) FROM reservations GROUP BY state")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			state string
			n     int
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		sum.ReservationCounts[state] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE payment_state = 'pending'").
		Scan(&sum.PendingPayments); err != nil {
		return nil, err
	}
	revRows, err := r.db.QueryContext(ctx,
		`SELECT currency, COALESCE(SUM(total_amount_cents), 0)
		 FROM reservations WHERE payment_state = 'paid' GROUP BY currency`)
	if err != nil {
		return nil, err
	}
	defer revRows.Close()
	for revRows.Next() {
		var (
			currency string
			cents    int64
		)
		if err := revRows.Scan(&currency, &cents); err != nil {
			return nil, err
		}
		sum.RevenueByCurrency[currency] = float64(cents) / 100
	}
	return sum, revRows.Err()
}
