package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const reservationQueueName = "reservation.events"

// Notifier sends the emails a reservation event calls for.  Satisfied
// by *mailer.Mailer.
type Notifier interface {
	SendReservationEmail(ev ReservationEvent) error
	SendOperatorAlert(to string, ev ReservationEvent) error
}

// Consumer drains the reservation events queue and turns each event
// into notification emails: the customer always gets a lifecycle
// email, and new pre-reservations additionally alert the operator
// inbox so someone verifies the payment.
type Consumer struct {
	url           string
	notifier      Notifier
	operatorEmail string
}

// NewConsumer constructs a Consumer.  operatorEmail may be empty, in
// which case operator alerts are skipped.
func NewConsumer(url string, notifier Notifier, operatorEmail string) *Consumer {
	return &Consumer{url: url, notifier: notifier, operatorEmail: operatorEmail}
}

// Run connects to RabbitMQ, declares the reservation events queue
// (durable) and starts consuming.  It runs a reconnect loop with
// exponential backoff and never returns; processing errors are logged
// and the offending message is rejected without requeue so one bad
// payload cannot wedge the queue.  Intended to run in its own
// goroutine for the lifetime of the server.
func (c *Consumer) Run() {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Printf("reservation-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := c.consumeLoop(conn); err != nil {
			log.Printf("reservation-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func (c *Consumer) consumeLoop(conn *amqp.Connection) error {
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("reservation-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(reservationQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(reservationQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.handleMessage(d.Body); err != nil {
			log.Printf("reservation-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func (c *Consumer) handleMessage(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	if err := c.notifier.SendReservationEmail(ev); err != nil {
		return fmt.Errorf("customer email for reservation %d: %w", ev.ReservationID, err)
	}

	if ev.Kind == EventReservationCreated && c.operatorEmail != "" {
		// Operator alert is secondary; log and carry on if it fails
		// so the customer email is not redelivered.
		if err := c.notifier.SendOperatorAlert(c.operatorEmail, ev); err != nil {
			log.Printf("reservation-consumer: operator alert for reservation %d failed: %v", ev.ReservationID, err)
		}
	}

	log.Printf("reservation-consumer: %s | reservation_id=%d | tour=%q | party=%d | state=%s",
		ev.Kind, ev.ReservationID, ev.TourName, ev.PartySize, ev.State)
	return nil
}
