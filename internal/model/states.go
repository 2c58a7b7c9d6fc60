// Package model defines the domain entities persisted by the repository
// layer.  This file declares the closed state sets used across the
// booking domain.  Each state is a typed string validated at the
// boundary so that invalid values can never reach the database.  All
// states serialize as lowercase snake strings.
package model

// ReservationState describes the lifecycle of a reservation.  The two
// cancelled states are terminal: no transition ever leaves them.
type ReservationState string

const (
    ReservationPreReservation      ReservationState = "pre_reservation"
    ReservationConfirmed           ReservationState = "confirmed"
    ReservationCancelledByCustomer ReservationState = "cancelled_by_customer"
    ReservationCancelledByOperator ReservationState = "cancelled_by_operator"
)

// Valid reports whether s is one of the known reservation states.
func (s ReservationState) Valid() bool {
    switch s {
    case ReservationPreReservation, ReservationConfirmed,
        ReservationCancelledByCustomer, ReservationCancelledByOperator:
        return true
    }
    return false
}

// Cancelled reports whether s is one of the terminal cancelled states.
func (s ReservationState) Cancelled() bool {
    return s == ReservationCancelledByCustomer || s == ReservationCancelledByOperator
}

// Active reports whether reservations in this state hold seats against
// their departure.  Only non-cancelled reservations count toward
// occupied seats.
func (s ReservationState) Active() bool {
    return s == ReservationPreReservation || s == ReservationConfirmed
}

// PaymentState describes the payment lifecycle of a reservation.
type PaymentState string

const (
    PaymentPending       PaymentState = "pending"
    PaymentPaid          PaymentState = "paid"
    PaymentPartialRefund PaymentState = "partial_refund"
    PaymentFullRefund    PaymentState = "full_refund"
    PaymentNoRefund      PaymentState = "no_refund"
)

// Valid reports whether p is one of the known payment states.
func (p PaymentState) Valid() bool {
    switch p {
    case PaymentPending, PaymentPaid, PaymentPartialRefund,
        PaymentFullRefund, PaymentNoRefund:
        return true
    }
    return false
}

// DepartureStatus is the advisory lifecycle of a departure.  It is
// informational for catalog display; the capacity invariants are
// enforced through occupied_seats, not through this status.
type DepartureStatus string

const (
    DepartureOpen      DepartureStatus = "open"
    DepartureFull      DepartureStatus = "full"
    DepartureClosed    DepartureStatus = "closed"
    DepartureCancelled DepartureStatus = "cancelled"
)

// Valid reports whether d is one of the known departure statuses.
func (d DepartureStatus) Valid() bool {
    switch d {
    case DepartureOpen, DepartureFull, DepartureClosed, DepartureCancelled:
        return true
    }
    return false
}

// CommentStatus is the moderation state of a tour comment.
type CommentStatus string

const (
    CommentPending  CommentStatus = "pending"
    CommentApproved CommentStatus = "approved"
    CommentRejected CommentStatus = "rejected"
)

// Valid reports whether c is one of the known comment statuses.
func (c CommentStatus) Valid() bool {
    switch c {
    case CommentPending, CommentApproved, CommentRejected:
        return true
    }
    return false
}

// Roles stored in users.role and carried in the JWT "role" claim.
const (
    RoleCustomer = "customer"
    RoleAdmin    = "admin"
)
