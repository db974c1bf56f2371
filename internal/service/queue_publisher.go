package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	q "github.com/kashmau/track-fitness/internal/queue"
)

// EventPublisher delivers auth events.  Failures never fail the request
// that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, ev q.AuthEvent) error
}

// NoopPublisher drops every event.  It is used when EVENTS_ENABLED is false.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, q.AuthEvent) error { return nil }

// AMQPPublisher publishes each event as a persistent JSON message to a
// durable queue through the default exchange.  A connection is dialled per
// publish; auth events are rare enough that pooling is not worth the
// reconnect handling.
type AMQPPublisher struct {
	URL   string
	Queue string
	Log   zerolog.Logger
}

func NewAMQPPublisher(url, queue string, log zerolog.Logger) *AMQPPublisher {
	if queue == "" {
		queue = q.DefaultQueue
	}
	return &AMQPPublisher{URL: url, Queue: queue, Log: log}
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev q.AuthEvent) error {
	conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(3 * time.Second)})
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

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", p.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	})
}
