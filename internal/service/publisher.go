package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/movie-booking/internal/queue"
)

// RabbitPublisher sends booking events to a durable RabbitMQ queue.  It
// dials per publish; booking volume is low and this keeps no connection
// state to repair.
type RabbitPublisher struct {
	URL   string
	Queue string
}

// NewRabbitPublisher returns a publisher for url.  An empty queue name
// selects queue.DefaultBookingQueue.
func NewRabbitPublisher(url, queueName string) *RabbitPublisher {
	if queueName == "" {
		queueName = queue.DefaultBookingQueue
	}
	return &RabbitPublisher{URL: url, Queue: queueName}
}

// PublishBookingConfirmed publishes ev as a persistent JSON message.
func (p *RabbitPublisher) PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// NopPublisher drops events.  It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishBookingConfirmed(context.Context, queue.BookingConfirmedEvent) error {
	return nil
}
