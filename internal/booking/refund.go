package booking

import (
	"time"

	"github.com/condortrails/tour-booking-api/internal/model"
)

// Refund policy for cancelling a paid reservation, keyed on whole days
// between the cancellation date and the departure start date:
//
//	more than 30 days   -> full refund
//	16 to 30 days       -> 50% refund
//	15 days or fewer    -> no refund (payment stays recorded as paid,
//	                       a zero refund amount is written)
const (
	fullRefundDays    = 30
	partialRefundDays = 15
)

// refundFor returns the refund amount in cents and the resulting
// payment state for a paid reservation cancelled daysUntilDeparture
// whole days before its departure.
func refundFor(totalCents uint32, daysUntilDeparture int) (uint32, model.PaymentState) {
	switch {
	case daysUntilDeparture > fullRefundDays:
		return totalCents, model.PaymentFullRefund
	case daysUntilDeparture > partialRefundDays:
		return totalCents * 50 / 100, model.PaymentPartialRefund
	default:
		return 0, model.PaymentPaid
	}
}

// daysUntil returns the number of whole days from now to the departure
// start date.  Both instants are truncated to dates in UTC first, so a
// departure starting tomorrow is always 1 day away regardless of the
// time of day the cancellation happens.
func daysUntil(start, now time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(s.Sub(n).Hours() / 24)
}
