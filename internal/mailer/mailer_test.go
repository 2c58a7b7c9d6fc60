package mailer

import (
	"strings"
	"testing"

	"github.com/condortrails/tour-booking-api/internal/queue"
)

func sampleEvent(kind string) queue.ReservationEvent {
	return queue.ReservationEvent{
		Kind:             kind,
		ReservationID:    42,
		TourName:         "Patagonia Trek",
		StartDate:        "2026-11-03",
		EndDate:          "2026-11-10",
		PartySize:        2,
		TotalAmountCents: 500000,
		Currency:         "USD",
		CustomerName:     "Ana",
		CustomerEmail:    "ana@example.com",
	}
}

func TestTemplatesLoaded(t *testing.T) {
	m := New(Config{})
	for _, name := range []string{
		queue.EventReservationCreated,
		queue.EventReservationConfirmed,
		queue.EventReservationCancelled,
		"operator_alert",
	} {
		if _, ok := m.templates[name]; !ok {
			t.Errorf("template %q not loaded", name)
		}
	}
}

func TestRenderCreated(t *testing.T) {
	m := New(Config{})
	body, err := m.Render(queue.EventReservationCreated, sampleEvent(queue.EventReservationCreated))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{"Ana", "Patagonia Trek", "2026-11-03", "5000.00 USD"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestRenderCancelledWithRefund(t *testing.T) {
	m := New(Config{})
	ev := sampleEvent(queue.EventReservationCancelled)
	refund := uint32(250000)
	ev.RefundAmountCents = &refund
	body, err := m.Render(queue.EventReservationCancelled, ev)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(body, "2500.00 USD") {
		t.Errorf("body missing refund amount:\n%s", body)
	}
}

func TestRenderCancelledWithoutRefund(t *testing.T) {
	m := New(Config{})
	body, err := m.Render(queue.EventReservationCancelled, sampleEvent(queue.EventReservationCancelled))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(body, "Refund issued") {
		t.Errorf("unexpected refund line:\n%s", body)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	m := New(Config{})
	if _, err := m.Render("nope", sampleEvent("nope")); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestDisabledMailerDropsSend(t *testing.T) {
	m := New(Config{})
	if m.Enabled() {
		t.Fatal("mailer with empty host should be disabled")
	}
	if err := m.SendReservationEmail(sampleEvent(queue.EventReservationCreated)); err != nil {
		t.Fatalf("disabled send should be a no-op, got %v", err)
	}
}
