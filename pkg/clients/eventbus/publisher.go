// Package eventbus publishes board notifications to a RabbitMQ topic exchange
// so other services can follow schedule changes.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/board"
)

const publishTimeout = 5 * time.Second

// Channel is the subset of *amqp.Channel used for publishing
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Event is the JSON body of a published message
type Event struct {
	ID            string    `json:"id"`
	Action        string    `json:"action"`
	Level         string    `json:"level"`
	AppointmentID string    `json:"appointmentId"`
	Message       string    `json:"message"`
	Error         string    `json:"error,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Publisher implements board.Notifier by publishing one message per notification
type Publisher struct {
	channel  Channel
	exchange string
	logger   *zap.Logger
	now      func() time.Time
	closer   func() error
}

var _ board.Notifier = (*Publisher)(nil)

// NewPublisher publishes to exchange over an existing channel
func NewPublisher(channel Channel, exchange string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		channel:  channel,
		exchange: exchange,
		logger:   logger,
		now:      time.Now,
		closer:   func() error { return nil },
	}
}

// Dial connects to the broker at url and declares a durable topic exchange
func Dial(url, exchange string, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	p := NewPublisher(channel, exchange, logger)
	p.closer = func() error {
		channel.Close()
		return conn.Close()
	}
	return p, nil
}

// RoutingKey returns the key a notification is published under,
// e.g. "board.reassign.error"
func RoutingKey(n board.Notification) string {
	action := n.Action
	if action == "" {
		action = "unknown"
	}
	return fmt.Sprintf("board.%s.%s", action, n.Level)
}

// Notify publishes n. Publish failures are logged, never returned to the board.
func (p *Publisher) Notify(n board.Notification) {
	event := Event{
		ID:            uuid.New().String(),
		Action:        n.Action,
		Level:         n.Level.String(),
		AppointmentID: n.AppointmentID,
		Message:       n.Message,
		OccurredAt:    p.now().UTC(),
	}
	if n.Err != nil {
		event.Error = n.Err.Error()
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to encode board event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	key := RoutingKey(n)
	err = p.channel.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
	if err != nil {
		p.logger.Error("Failed to publish board event",
			zap.String("routing_key", key),
			zap.String("appointment_id", n.AppointmentID),
			zap.Error(err))
		return
	}

	p.logger.Debug("Published board event", zap.String("routing_key", key), zap.String("event_id", event.ID))
}

// Close closes the channel and connection opened by Dial
func (p *Publisher) Close() error {
	return p.closer()
}
