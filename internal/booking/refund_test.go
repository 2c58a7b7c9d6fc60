package booking

import (
	"testing"
	"time"

	"github.com/condortrails/tour-booking-api/internal/model"
)

func TestRefundFor(t *testing.T) {
	const total = 100000

	cases := []struct {
		days       int
		wantCents  uint32
		wantState  model.PaymentState
	}{
		{365, total, model.PaymentFullRefund},
		{31, total, model.PaymentFullRefund},
		{30, total / 2, model.PaymentPartialRefund},
		{16, total / 2, model.PaymentPartialRefund},
		{15, 0, model.PaymentPaid},
		{1, 0, model.PaymentPaid},
		{0, 0, model.PaymentPaid},
		{-3, 0, model.PaymentPaid},
	}
	for _, tc := range cases {
		cents, state := refundFor(total, tc.days)
		if cents != tc.wantCents || state != tc.wantState {
			t.Errorf("refundFor(%d, %d) = (%d, %q), want (%d, %q)",
				total, tc.days, cents, state, tc.wantCents, tc.wantState)
		}
	}
}

func TestRefundForOddAmountRoundsDown(t *testing.T) {
	cents, state := refundFor(33333, 20)
	if state != model.PaymentPartialRefund {
		t.Fatalf("state = %q, want partial_refund", state)
	}
	if cents != 16666 {
		t.Errorf("refund = %d, want 16666", cents)
	}
}

func TestDaysUntilIgnoresTimeOfDay(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 50, 0, 0, time.UTC)
	start := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	if got := daysUntil(start, now); got != 30 {
		t.Errorf("daysUntil = %d, want 30", got)
	}
}

func TestDaysUntilPastDeparture(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	start := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	if got := daysUntil(start, now); got != -2 {
		t.Errorf("daysUntil = %d, want -2", got)
	}
}
