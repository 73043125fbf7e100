package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// InProcessEventBus delivers envelopes synchronously to registered consumers.
// It stands in for RabbitMQ when the app runs as a single process.
type InProcessEventBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
	mu       sync.Mutex

	// StrictDelivery makes consumer failures fail the publish so the
	// outbox retries the message.
	StrictDelivery bool
}

// NewInProcessEventBus creates a new in-process event bus.
func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{
		registry: NewConsumerRegistry(logger),
		logger:   logger,
	}
}

// RegisterConsumer registers an event consumer.
func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish decodes the envelope and dispatches it to all registered consumers.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event := &ConsumedEvent{}
	if err := json.Unmarshal(payload, event); err != nil {
		b.logger.Error("failed to unmarshal event envelope",
			"routing_key", routingKey,
			"error", err,
		)
		return nil
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}

	return b.PublishConsumedEvent(ctx, event)
}

// PublishConsumedEvent dispatches an already decoded event.
func (b *InProcessEventBus) PublishConsumedEvent(ctx context.Context, event *ConsumedEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	err := b.registry.Dispatch(ctx, event)
	duration := time.Since(start)

	if err != nil {
		b.logger.Error("event dispatch failed",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		if b.StrictDelivery {
			return err
		}
		return nil
	}

	b.logger.Debug("event dispatched",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", duration.Milliseconds(),
	)
	return nil
}

// Registry returns the underlying consumer registry.
func (b *InProcessEventBus) Registry() *ConsumerRegistry {
	return b.registry
}

// Start blocks until ctx is cancelled; delivery happens inside Publish.
func (b *InProcessEventBus) Start(ctx context.Context) error {
	b.logger.Info("in-process event bus started (synchronous mode)")
	<-ctx.Done()
	return ctx.Err()
}

// Close is a no-op for the in-process bus.
func (b *InProcessEventBus) Close() error {
	return nil
}
