package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueTicketsIssued is the durable queue consumed by the PDF/email worker.
const QueueTicketsIssued = "tickets.issued"

// Publisher emits delivery events to RabbitMQ. It attempts to be robust
// and never panics; any error is logged and returned so the caller can
// ignore it; issuance must not roll back because email delivery is down.
type Publisher struct {
	url string
}

// NewPublisher returns a publisher for the given AMQP URL. An empty URL
// yields a disabled publisher whose PublishTicketsIssued is a logged no-op.
func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

// PublishTicketsIssued publishes the event to the tickets.issued queue.
// A fresh connection per publish keeps the publisher stateless, matching
// the issuance rate (orders, not scans). Messages are persistent and carry
// a unique message id so the worker can deduplicate redeliveries.
func (p *Publisher) PublishTicketsIssued(ctx context.Context, event TicketsIssuedEvent) error {
	if p.url == "" {
		log.Printf("queue: no broker configured, dropping tickets.issued for order %s", event.OrderID)
		return nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("queue: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("queue: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(
		QueueTicketsIssued,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		log.Printf("queue: queue declare failed: %v", err)
		return err
	}

	if event.MessageID == "" {
		event.MessageID = uuid.NewString()
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("queue: marshal event failed: %v", err)
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = ch.PublishWithContext(pubCtx,
		"",                 // default exchange
		QueueTicketsIssued, // routing key = queue name
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.MessageID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		log.Printf("queue: publish failed: %v", err)
		return err
	}
	return nil
}
