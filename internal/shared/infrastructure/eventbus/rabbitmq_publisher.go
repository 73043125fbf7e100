package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQPublisher relays outbox envelopes to the habit events exchange.
// Messages are persistent and typed by their routing key.
type RabbitMQPublisher struct {
	mu      sync.Mutex
	session *amqpSession
	logger  *slog.Logger
	now     func() time.Time
}

// NewRabbitMQPublisher dials the broker and declares the exchanges.
func NewRabbitMQPublisher(url string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	session, err := dialSession(url)
	if err != nil {
		return nil, err
	}
	logger.Info("RabbitMQ publisher connected", "exchange", ExchangeName)
	return &RabbitMQPublisher{session: session, logger: logger, now: time.Now}, nil
}

// Publish sends one envelope.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.session.open() {
		return ErrPublisherUnavailable
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		AppId:        appID,
		Type:         routingKey,
		Timestamp:    p.now(),
		Body:         payload,
	}
	// not mandatory, not immediate: unrouted events are dropped by the broker
	if err := p.session.channel.PublishWithContext(ctx, ExchangeName, routingKey, false, false, msg); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish message", "routing_key", routingKey, "error", err)
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	p.logger.DebugContext(ctx, "message published", "routing_key", routingKey, "size", len(payload))
	return nil
}

// Ping reports whether the broker connection is still open.
func (p *RabbitMQPublisher) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.session.open() {
		return fmt.Errorf("%w: connection closed", ErrPublisherUnavailable)
	}
	return nil
}

// Close closes the channel and connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.session.close()
	p.logger.Info("RabbitMQ publisher closed")
	return err
}
