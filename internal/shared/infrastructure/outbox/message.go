package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// Message is a domain event waiting in the outbox for delivery.
type Message struct {
	ID               int64
	EventID          uuid.UUID
	AggregateType    string
	AggregateID      uuid.UUID
	EventType        string
	RoutingKey       string
	Payload          json.RawMessage
	Metadata         json.RawMessage
	CreatedAt        time.Time
	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage creates an outbox message from a domain event.
func NewMessage(event domain.DomainEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event.RoutingKey(), err)
	}

	metadata, err := json.Marshal(event.Metadata())
	if err != nil {
		return nil, fmt.Errorf("marshal %s metadata: %w", event.RoutingKey(), err)
	}

	return &Message{
		EventID:       event.EventID(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		EventType:     fmt.Sprintf("%T", event),
		RoutingKey:    event.RoutingKey(),
		Payload:       payload,
		Metadata:      metadata,
		CreatedAt:     event.OccurredAt().UTC(),
	}, nil
}

// NewMessages converts a batch of domain events, failing on the first bad one.
func NewMessages(events []domain.DomainEvent) ([]*Message, error) {
	msgs := make([]*Message, 0, len(events))
	for _, event := range events {
		msg, err := NewMessage(event)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// envelope is the wire shape handed to publishers.
type envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// Envelope wraps the payload with the event identity so consumers can
// dedupe and trace it.
func (m *Message) Envelope() ([]byte, error) {
	return json.Marshal(envelope{
		EventID:       m.EventID,
		AggregateID:   m.AggregateID,
		AggregateType: m.AggregateType,
		RoutingKey:    m.RoutingKey,
		OccurredAt:    m.CreatedAt,
		Payload:       m.Payload,
		Metadata:      m.Metadata,
	})
}

// IsPublished returns true if the message has been published.
func (m *Message) IsPublished() bool {
	return m.PublishedAt != nil
}

// IsDead returns true if the message has been dead-lettered.
func (m *Message) IsDead() bool {
	return m.DeadLetteredAt != nil
}

// CanRetry returns true if another failure still leaves the message retryable.
func (m *Message) CanRetry(maxRetries int) bool {
	return m.RetryCount+1 < maxRetries
}
