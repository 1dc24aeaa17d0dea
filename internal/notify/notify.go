// Package notify publishes domain notifications to a RabbitMQ topic exchange.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// KeyRegistrationCreated is the routing key for new registrations.
const KeyRegistrationCreated = "registration.created"

// RegistrationCreated is the body of a registration.created message.
type RegistrationCreated struct {
	RegistrationID string             `json:"registrationId"`
	AttendeeID     string             `json:"attendeeId"`
	AttendeeEmail  string             `json:"attendeeEmail"`
	AttendeeName   string             `json:"attendeeName"`
	Event          model.EventSummary `json:"event"`
	RegisteredAt   time.Time          `json:"registeredAt"`
}

// Publisher sends JSON messages to a topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewPublisher dials url and declares a durable topic exchange.
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish marshals v and sends it with the given routing key.
func (p *Publisher) Publish(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         b,
	})
}

// Close tears down the channel and connection.
func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Discard drops every message. It is used when no broker is configured.
type Discard struct{}

// Publish does nothing.
func (Discard) Publish(context.Context, string, any) error { return nil }
