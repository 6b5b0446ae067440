// Package events publishes dispatch outcomes to the message broker so
// downstream consumers (audit, analytics) can follow delivery without
// polling the store.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"notification-service/internal/domain"
)

const exchange = "notification.events"

// DispatchEvent describes the terminal-or-retry outcome of one
// dispatch attempt.
type DispatchEvent struct {
	EventID      string              `json:"event_id"`
	RecordID     string              `json:"record_id"`
	UserID       string              `json:"user_id"`
	Type         string              `json:"type"`
	Sent         bool                `json:"sent"`
	Delivered    bool                `json:"delivered"`
	ChannelState domain.ChannelState `json:"channel_state"`
	At           time.Time           `json:"at"`
}

type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher connects to the broker and declares the events
// exchange.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, channel: channel}, nil
}

// PublishDispatched emits a dispatch outcome. Safe on a nil publisher:
// event publishing is optional and never blocks dispatch correctness.
func (p *Publisher) PublishDispatched(ctx context.Context, n *domain.Notification, state domain.ChannelState, sent, delivered bool) error {
	if p == nil {
		return nil
	}
	event := DispatchEvent{
		EventID:      uuid.New().String(),
		RecordID:     n.ID,
		UserID:       n.UserID,
		Type:         n.Type,
		Sent:         sent,
		Delivered:    delivered,
		ChannelState: state,
		At:           time.Now().UTC(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	routingKey := "notification.retry"
	if sent {
		routingKey = "notification.sent"
	}
	return p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID,
		Timestamp:    event.At,
		Body:         body,
	})
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.conn.Close()
}
