package model

import "time"

// Reservation records one customer's booking against a departure.
// TourID is denormalized for convenient listing and must always agree
// with the departure's tour.  PartySize seats are held on the
// departure while the reservation is in an active state.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – customer who booked.
//  TourID           – tour being booked (matches the departure's tour).
//  DepartureID      – departure the seats are held against.
//  PartySize        – number of travellers, always >= 1.
//  State            – reservation lifecycle state.
//  PaymentState     – payment lifecycle state.
//  TotalAmountCents – computed total price in cents.
//  Currency         – ISO currency code copied from the tour.
//  PaymentMethod    – external payment channel recorded on confirm.
//  PaymentRef       – external payment reference recorded on confirm.
//  PaidAt           – payment date recorded on confirm.
//  RefundAmountCents – refund granted on cancellation, if any.
//  CancelReason     – free-text reason recorded on cancellation.
//  CancelledAt      – cancellation date.
//  CustomerComments – free-text notes left by the customer.
type Reservation struct {
    ID                uint64           // reservations.id
    UserID            uint64           // reservations.user_id
    TourID            uint64           // reservations.tour_id
    DepartureID       uint64           // reservations.departure_id
    PartySize         int              // reservations.party_size
    State             ReservationState // reservations.state
    PaymentState      PaymentState     // reservations.payment_state
    TotalAmountCents  uint32           // reservations.total_amount_cents
    Currency          string           // reservations.currency
    PaymentMethod     *string          // reservations.payment_method (nullable)
    PaymentRef        *string          // reservations.payment_ref (nullable)
    PaidAt            *time.Time       // reservations.paid_at (nullable)
    RefundAmountCents *uint32          // reservations.refund_amount_cents (nullable)
    CancelReason      *string          // reservations.cancel_reason (nullable)
    CancelledAt       *time.Time       // reservations.cancelled_at (nullable)
    CustomerComments  *string          // reservations.customer_comments (nullable)
    CreatedAt         time.Time        // reservations.created_at
    UpdatedAt         time.Time        // reservations.updated_at
}
