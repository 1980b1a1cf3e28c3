// Package events publishes settings lifecycle events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

const SettingsUpdatedKey = "helpcrunch.settings.updated"

type Meta struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	OccurredAt    time.Time `json:"occurred_at"`
	CorrelationID *string   `json:"correlation_id,omitempty"`
}

type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// SettingsUpdated never carries credentials.
type SettingsUpdated struct {
	OptionName       string `json:"option_name"`
	Integrated       bool   `json:"integrated"`
	Organization     string `json:"organization,omitempty"`
	APIDomain        string `json:"api_domain"`
	ShowChatWidget   bool   `json:"show_chat_widget"`
	ValidationErrors int    `json:"validation_errors"`
	UpdatedBy        *int64 `json:"updated_by,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, key string, msg Envelope) error
	Close() error
}

// NewEnvelope stamps data with a fresh id and the current time.
func NewEnvelope(eventType string, data any, correlationID string) Envelope {
	meta := Meta{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
	}
	if correlationID != "" {
		meta.CorrelationID = &correlationID
	}
	return Envelope{Meta: meta, Data: data}
}

type rmqPublisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	exchange string
	log      *slog.Logger
}

// NewAMQP dials url and declares a durable topic exchange.
func NewAMQP(url, exchange string, logger *slog.Logger) (Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &rmqPublisher{conn: conn, exchange: exchange, log: logger}, nil
}

func (p *rmqPublisher) Publish(ctx context.Context, key string, msg Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if msg.Meta.ID == "" {
		msg.Meta.ID = uuid.NewString()
	}
	cid := msg.Meta.ID
	if msg.Meta.CorrelationID != nil {
		cid = *msg.Meta.CorrelationID
	}

	err = ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     msg.Meta.ID,
		CorrelationId: cid,
		Timestamp:     msg.Meta.OccurredAt,
		Type:          msg.Meta.Type,
		Body:          body,
	})
	if err == nil {
		p.log.Info("published", slog.String("key", key), slog.String("exchange", p.exchange))
	}
	return err
}

func (p *rmqPublisher) Close() error {
	return p.conn.Close()
}

// Noop discards events; used when AMQP_URL is not configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, Envelope) error { return nil }
func (Noop) Close() error                                    { return nil }
