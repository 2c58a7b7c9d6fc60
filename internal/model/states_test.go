package model

import "testing"

func TestReservationStateValid(t *testing.T) {
	for _, s := range []ReservationState{
		ReservationPreReservation, ReservationConfirmed,
		ReservationCancelledByCustomer, ReservationCancelledByOperator,
	} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if ReservationState("paid").Valid() {
		t.Error("payment states are not reservation states")
	}
	if ReservationState("").Valid() {
		t.Error("empty state should be invalid")
	}
}

func TestReservationStateCancelled(t *testing.T) {
	if !ReservationCancelledByCustomer.Cancelled() || !ReservationCancelledByOperator.Cancelled() {
		t.Error("cancelled states must report Cancelled")
	}
	if ReservationPreReservation.Cancelled() || ReservationConfirmed.Cancelled() {
		t.Error("active states must not report Cancelled")
	}
}

func TestReservationStateActive(t *testing.T) {
	if !ReservationPreReservation.Active() || !ReservationConfirmed.Active() {
		t.Error("pre_reservation and confirmed hold seats")
	}
	if ReservationCancelledByCustomer.Active() {
		t.Error("cancelled reservations hold no seats")
	}
}

func TestPaymentStateValid(t *testing.T) {
	for _, p := range []PaymentState{
		PaymentPending, PaymentPaid, PaymentPartialRefund, PaymentFullRefund, PaymentNoRefund,
	} {
		if !p.Valid() {
			t.Errorf("%q should be valid", p)
		}
	}
	if PaymentState("refunded").Valid() {
		t.Error("unknown payment state should be invalid")
	}
}

func TestCommentStatusValid(t *testing.T) {
	if !CommentPending.Valid() || !CommentApproved.Valid() || !CommentRejected.Valid() {
		t.Error("known comment statuses should be valid")
	}
	if CommentStatus("spam").Valid() {
		t.Error("unknown comment status should be invalid")
	}
}

func TestDepartureAvailableSeats(t *testing.T) {
	d := Departure{TotalSeats: 10, OccupiedSeats: 4}
	if got := d.AvailableSeats(); got != 6 {
		t.Errorf("available = %d, want 6", got)
	}
	d.OccupiedSeats = 12
	if got := d.AvailableSeats(); got != 0 {
		t.Errorf("available = %d with overbooked row, want 0", got)
	}
}
