package booking

import (
	"context"
	"log"
	"time"

	"github.com/condortrails/tour-booking-api/internal/model"
	"github.com/condortrails/tour-booking-api/internal/queue"
)

// Publisher delivers reservation events to the message broker.  The
// manager treats publishing as best-effort: a failed publish never
// rolls back a committed booking.
type Publisher interface {
	PublishReservationEvent(ctx context.Context, ev queue.ReservationEvent) error
}

// Actor identifies who is performing a cancellation; it selects the
// terminal state the reservation ends in.
type Actor int

const (
	ActorCustomer Actor = iota
	ActorOperator
)

// Result is the outcome of a successful booking operation.  Notified
// reports whether the reservation event reached the broker; callers
// surface it so support staff know when a confirmation email may not
// have gone out.
type Result struct {
	Reservation *model.Reservation
	Notified    bool
}

// Manager is the booking capacity manager.  It owns every transition
// of reservations and every mutation of departure seat counts, and it
// runs each operation inside a single transaction with the departure
// row locked so concurrent bookings serialize.
type Manager struct {
	store      Store
	publisher  Publisher
	pubTimeout time.Duration
	now        func() time.Time
}

// NewManager constructs a Manager.  publisher may be nil, in which
// case events are dropped and Notified is always false.  pubTimeout
// bounds how long a post-commit publish may block the request.
func NewManager(store Store, publisher Publisher, pubTimeout time.Duration) *Manager {
	if pubTimeout <= 0 {
		pubTimeout = 5 * time.Second
	}
	return &Manager{
		store:      store,
		publisher:  publisher,
		pubTimeout: pubTimeout,
		now:        time.Now,
	}
}

// ReserveInput carries the parameters of a new pre-reservation.
type ReserveInput struct {
	UserID      uint64
	TourID      uint64
	DepartureID uint64
	PartySize   int
	Comments    *string
}

// Reserve creates a pre-reservation, atomically claiming PartySize
// seats on the departure.  The departure row is locked for the
// duration of the transaction; if fewer than PartySize seats remain
// the transaction rolls back and a CapacityError reports how many are
// still free.  The total price is computed from the tour's current
// per-person price.
func (m *Manager) Reserve(ctx context.Context, in ReserveInput) (*Result, error) {
	if in.PartySize < 1 {
		return nil, ErrInvalidPartySize
	}

	s, err := m.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := s.Rollback(); rbErr != nil {
				log.Printf("booking: rollback failed: %v", rbErr)
			}
		}
	}()

	tour, err := s.TourByID(ctx, in.TourID)
	if err != nil {
		return nil, err
	}
	if !tour.Active {
		return nil, ErrTourNotFound
	}

	dep, err := s.DepartureForUpdate(ctx, in.DepartureID)
	if err != nil {
		return nil, err
	}
	if dep.TourID != tour.ID {
		return nil, ErrDepartureMismatch
	}

	ok, err := s.ReserveSeats(ctx, dep.ID, in.PartySize)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &CapacityError{Available: dep.AvailableSeats()}
	}
	if err := s.RefreshDepartureStatus(ctx, dep.ID); err != nil {
		return nil, err
	}

	res := &model.Reservation{
		UserID:           in.UserID,
		TourID:           tour.ID,
		DepartureID:      dep.ID,
		PartySize:        in.PartySize,
		State:            model.ReservationPreReservation,
		PaymentState:     model.PaymentPending,
		TotalAmountCents: tour.PricePerPersonCents * uint32(in.PartySize),
		Currency:         tour.Currency,
		CustomerComments: in.Comments,
	}
	if err := s.InsertReservation(ctx, res); err != nil {
		return nil, err
	}

	user, err := s.UserByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.Commit(); err != nil {
		return nil, err
	}
	committed = true

	notified := m.publish(m.event(queue.EventReservationCreated, res, tour, dep, user))
	return &Result{Reservation: res, Notified: notified}, nil
}

// ConfirmInput carries the payment details recorded when an operator
// confirms a pre-reservation.
type ConfirmInput struct {
	ReservationID uint64
	PaymentMethod string
	PaymentRef    string
}

// Confirm moves a pre-reservation to confirmed and records the
// payment.  Seats were already claimed at reserve time, so occupancy
// does not change.  Only the pre_reservation state may be confirmed.
func (m *Manager) Confirm(ctx context.Context, in ConfirmInput) (*Result, error) {
	s, err := m.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := s.Rollback(); rbErr != nil {
				log.Printf("booking: rollback failed: %v", rbErr)
			}
		}
	}()

	res, err := s.ReservationForUpdate(ctx, in.ReservationID)
	if err != nil {
		return nil, err
	}
	if res.State != model.ReservationPreReservation {
		return nil, ErrInvalidStateTransition
	}

	now := m.now().UTC()
	res.State = model.ReservationConfirmed
	res.PaymentState = model.PaymentPaid
	res.PaymentMethod = &in.PaymentMethod
	res.PaymentRef = &in.PaymentRef
	res.PaidAt = &now
	if err := s.UpdateReservation(ctx, res); err != nil {
		return nil, err
	}

	tour, dep, user, err := m.loadContext(ctx, s, res)
	if err != nil {
		return nil, err
	}

	if err := s.Commit(); err != nil {
		return nil, err
	}
	committed = true

	notified := m.publish(m.event(queue.EventReservationConfirmed, res, tour, dep, user))
	return &Result{Reservation: res, Notified: notified}, nil
}

// CancelInput carries the parameters of a cancellation.
type CancelInput struct {
	ReservationID uint64
	Actor         Actor
	Reason        *string
}

// Cancel terminates a reservation and releases its seats back to the
// departure.  Cancelled reservations are terminal: cancelling one
// again returns ErrInvalidStateTransition.  When the reservation was
// already paid, the refund policy applies based on how many whole days
// remain before departure; a cancellation 15 days out or closer keeps
// the payment recorded as paid and writes a zero refund amount.
func (m *Manager) Cancel(ctx context.Context, in CancelInput) (*Result, error) {
	s, err := m.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := s.Rollback(); rbErr != nil {
				log.Printf("booking: rollback failed: %v", rbErr)
			}
		}
	}()

	res, err := s.ReservationForUpdate(ctx, in.ReservationID)
	if err != nil {
		return nil, err
	}
	if res.State.Cancelled() {
		return nil, ErrInvalidStateTransition
	}

	dep, err := s.DepartureForUpdate(ctx, res.DepartureID)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	if res.PaymentState == model.PaymentPaid {
		refund, pstate := refundFor(res.TotalAmountCents, daysUntil(dep.StartDate, now))
		res.PaymentState = pstate
		res.RefundAmountCents = &refund
	}

	switch in.Actor {
	case ActorOperator:
		res.State = model.ReservationCancelledByOperator
	default:
		res.State = model.ReservationCancelledByCustomer
	}
	res.CancelReason = in.Reason
	res.CancelledAt = &now
	if err := s.UpdateReservation(ctx, res); err != nil {
		return nil, err
	}

	if err := s.ReleaseSeats(ctx, dep.ID, res.PartySize); err != nil {
		return nil, err
	}
	if err := s.RefreshDepartureStatus(ctx, dep.ID); err != nil {
		return nil, err
	}

	tour, err := s.TourByID(ctx, res.TourID)
	if err != nil {
		return nil, err
	}
	user, err := s.UserByID(ctx, res.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.Commit(); err != nil {
		return nil, err
	}
	committed = true

	notified := m.publish(m.event(queue.EventReservationCancelled, res, tour, dep, user))
	return &Result{Reservation: res, Notified: notified}, nil
}

// loadContext resolves the tour, departure and user a reservation
// references, for building notification payloads.
func (m *Manager) loadContext(ctx context.Context, s Session, res *model.Reservation) (*model.Tour, *model.Departure, *model.User, error) {
	tour, err := s.TourByID(ctx, res.TourID)
	if err != nil {
		return nil, nil, nil, err
	}
	dep, err := s.DepartureForUpdate(ctx, res.DepartureID)
	if err != nil {
		return nil, nil, nil, err
	}
	user, err := s.UserByID(ctx, res.UserID)
	if err != nil {
		return nil, nil, nil, err
	}
	return tour, dep, user, nil
}

// event assembles the broker payload for a committed transition.
func (m *Manager) event(kind string, res *model.Reservation, tour *model.Tour, dep *model.Departure, user *model.User) queue.ReservationEvent {
	return queue.ReservationEvent{
		Kind:              kind,
		ReservationID:     res.ID,
		TourID:            tour.ID,
		TourName:          tour.Name,
		DepartureID:       dep.ID,
		StartDate:         dep.StartDate.Format("2006-01-02"),
		EndDate:           dep.EndDate.Format("2006-01-02"),
		PartySize:         res.PartySize,
		State:             string(res.State),
		PaymentState:      string(res.PaymentState),
		TotalAmountCents:  res.TotalAmountCents,
		Currency:          res.Currency,
		RefundAmountCents: res.RefundAmountCents,
		CancelReason:      res.CancelReason,
		CustomerName:      user.Name,
		CustomerEmail:     user.Email,
		CustomerPhone:     user.Phone,
		Comments:          res.CustomerComments,
		OccurredAt:        m.now().UTC().Format(time.RFC3339),
	}
}

// publish sends the event after the transaction committed.  It uses a
// fresh context so a cancelled request cannot abort the notification,
// and reports whether delivery to the broker succeeded.
func (m *Manager) publish(ev queue.ReservationEvent) bool {
	if m.publisher == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.pubTimeout)
	defer cancel()
	if err := m.publisher.PublishReservationEvent(ctx, ev); err != nil {
		log.Printf("booking: publish %s for reservation %d failed: %v", ev.Kind, ev.ReservationID, err)
		return false
	}
	return true
}
