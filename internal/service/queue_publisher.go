// Package service contains the RabbitMQ publisher for reservation
// events.  Errors are logged and returned so callers can treat a
// failed publish as best-effort without interrupting the booking flow.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/condortrails/tour-booking-api/internal/queue"
)

// ReservationQueueName is the durable queue all reservation lifecycle
// events go through.  The consumer in internal/queue declares the same
// queue, so either side can start first.
const ReservationQueueName = "reservation.events"

// EventPublisher publishes reservation events to RabbitMQ.  It dials a
// fresh connection per publish; booking transitions are low-volume and
// the short-lived connection avoids keeping reconnect state in the
// request path.
type EventPublisher struct {
	url string
}

// NewEventPublisher returns a publisher targeting the given AMQP URL.
func NewEventPublisher(url string) *EventPublisher {
	return &EventPublisher{url: url}
}

// PublishReservationEvent publishes the event to the reservation
// events queue.  The function never panics; any error is logged and
// returned so the caller can choose to ignore it.  Messages are marked
// persistent so they survive broker restarts.
func (p *EventPublisher) PublishReservationEvent(ctx context.Context, event q.ReservationEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		ReservationQueueName, // name
		true,                 // durable
		false,                // autoDelete
		false,                // exclusive
		false,                // noWait
		nil,                  // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                   // default exchange
		ReservationQueueName, // routing key = queue name
		false,                // mandatory
		false,                // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
