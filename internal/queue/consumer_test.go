package queue

import (
	"encoding/json"
	"errors"
	"testing"
)

type fakeNotifier struct {
	customer []ReservationEvent
	operator []ReservationEvent
	fail     bool
}

func (f *fakeNotifier) SendReservationEmail(ev ReservationEvent) error {
	if f.fail {
		return errors.New("smtp down")
	}
	f.customer = append(f.customer, ev)
	return nil
}

func (f *fakeNotifier) SendOperatorAlert(to string, ev ReservationEvent) error {
	f.operator = append(f.operator, ev)
	return nil
}

func encode(t *testing.T, ev ReservationEvent) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestHandleMessageCreatedAlertsOperator(t *testing.T) {
	n := &fakeNotifier{}
	c := NewConsumer("amqp://unused", n, "ops@example.com")

	ev := ReservationEvent{Kind: EventReservationCreated, ReservationID: 7, TourName: "Patagonia Trek"}
	if err := c.handleMessage(encode(t, ev)); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if len(n.customer) != 1 || n.customer[0].ReservationID != 7 {
		t.Errorf("customer emails = %+v, want one for reservation 7", n.customer)
	}
	if len(n.operator) != 1 {
		t.Errorf("operator alerts = %d, want 1", len(n.operator))
	}
}

func TestHandleMessageConfirmedSkipsOperator(t *testing.T) {
	n := &fakeNotifier{}
	c := NewConsumer("amqp://unused", n, "ops@example.com")

	ev := ReservationEvent{Kind: EventReservationConfirmed, ReservationID: 7}
	if err := c.handleMessage(encode(t, ev)); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if len(n.operator) != 0 {
		t.Errorf("operator alerts = %d, want 0", len(n.operator))
	}
}

func TestHandleMessageNoOperatorConfigured(t *testing.T) {
	n := &fakeNotifier{}
	c := NewConsumer("amqp://unused", n, "")

	ev := ReservationEvent{Kind: EventReservationCreated, ReservationID: 7}
	if err := c.handleMessage(encode(t, ev)); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if len(n.operator) != 0 {
		t.Errorf("operator alerts = %d, want 0", len(n.operator))
	}
}

func TestHandleMessageBadPayload(t *testing.T) {
	c := NewConsumer("amqp://unused", &fakeNotifier{}, "")
	if err := c.handleMessage([]byte("{not json")); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestHandleMessageEmailFailure(t *testing.T) {
	c := NewConsumer("amqp://unused", &fakeNotifier{fail: true}, "")
	ev := ReservationEvent{Kind: EventReservationCancelled, ReservationID: 3}
	if err := c.handleMessage(encode(t, ev)); err == nil {
		t.Fatal("expected error when customer email fails")
	}
}
