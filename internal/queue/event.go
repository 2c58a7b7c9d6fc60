// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into customer emails.
package queue

// Event kinds published to the reservation events queue.
const (
	EventReservationCreated   = "reservation.created"
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
)

// ReservationEvent is published after a reservation transition commits.
// It carries enough information for downstream consumers to notify the
// customer and the operator without querying the primary database.
type ReservationEvent struct {
	Kind              string  `json:"kind"`
	ReservationID     uint64  `json:"reservation_id"`
	TourID            uint64  `json:"tour_id"`
	TourName          string  `json:"tour_name"`
	DepartureID       uint64  `json:"departure_id"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	PartySize         int     `json:"party_size"`
	State             string  `json:"state"`
	PaymentState      string  `json:"payment_state"`
	TotalAmountCents  uint32  `json:"total_amount_cents"`
	Currency          string  `json:"currency"`
	RefundAmountCents *uint32 `json:"refund_amount_cents,omitempty"`
	CancelReason      *string `json:"cancel_reason,omitempty"`
	CustomerName      string  `json:"customer_name"`
	CustomerEmail     string  `json:"customer_email"`
	CustomerPhone     *string `json:"customer_phone,omitempty"`
	Comments          *string `json:"comments,omitempty"`
	OccurredAt        string  `json:"occurred_at"`
}
