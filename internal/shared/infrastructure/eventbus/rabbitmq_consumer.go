package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQConsumer feeds the worker's queue into a ConsumerRegistry.
// A delivery that fails twice, or cannot be decoded, is dead-lettered to
// "<queue>.dead" instead of cycling through the queue.
type RabbitMQConsumer struct {
	session  *amqpSession
	queue    string
	prefetch int
	registry *ConsumerRegistry
	logger   *slog.Logger

	mu        sync.Mutex
	running   bool
	done      chan struct{}
	closeOnce sync.Once
}

// RabbitMQConsumerConfig configures NewRabbitMQConsumer.
type RabbitMQConsumerConfig struct {
	URL       string
	QueueName string
	Prefetch  int
	Logger    *slog.Logger
}

// NewRabbitMQConsumer dials the broker and declares the queue and its
// dead-letter queue. Routing keys are bound as consumers register.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, registry *ConsumerRegistry) (*RabbitMQConsumer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.QueueName == "" {
		cfg.QueueName = DefaultConsumerQueueName
	}

	session, err := dialSession(cfg.URL)
	if err != nil {
		return nil, err
	}
	dead := cfg.QueueName + ".dead"
	for _, step := range []func() error{
		func() error { return session.declareQueue(cfg.QueueName, true) },
		func() error { return session.declareQueue(dead, false) },
		func() error { return session.bind(dead, "", DeadLetterExchange) },
	} {
		if err := step(); err != nil {
			_ = session.close()
			return nil, err
		}
	}

	cfg.Logger.Info("RabbitMQ consumer connected", "queue", cfg.QueueName, "dead_letter_queue", dead)

	return &RabbitMQConsumer{
		session:  session,
		queue:    cfg.QueueName,
		prefetch: max(cfg.Prefetch, 1),
		registry: registry,
		logger:   cfg.Logger,
		done:     make(chan struct{}),
	}, nil
}

// RegisterConsumer adds consumer to the registry and binds its routing keys.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range consumer.EventTypes() {
		if err := c.session.bind(c.queue, key, ExchangeName); err != nil {
			c.logger.Error("failed to bind routing key", "routing_key", key, "error", err)
		}
	}
}

// Start consumes until ctx is done or Close is called.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	if err := c.session.channel.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	// manual ack, broker-assigned consumer tag
	deliveries, err := c.session.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("started consuming events", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed unexpectedly")
			}
			c.apply(d, c.settle(ctx, d.RoutingKey, d.Body, d.Redelivered))
		}
	}
}

// settlement is what happens to a delivery after dispatch.
type settlement int

const (
	settleAck settlement = iota
	settleRequeue
	settleDeadLetter
)

func (s settlement) String() string {
	switch s {
	case settleAck:
		return "ack"
	case settleRequeue:
		return "requeue"
	default:
		return "dead-letter"
	}
}

// settle decodes and dispatches one delivery.
func (c *RabbitMQConsumer) settle(ctx context.Context, routingKey string, body []byte, redelivered bool) settlement {
	var event ConsumedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.logger.ErrorContext(ctx, "undecodable event", "routing_key", routingKey, "error", err)
		return settleDeadLetter
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}

	start := time.Now()
	err := c.registry.Dispatch(ctx, &event)
	elapsed := time.Since(start).Milliseconds()
	if err == nil {
		c.logger.DebugContext(ctx, "event processed",
			"routing_key", event.RoutingKey, "event_id", event.EventID, "duration_ms", elapsed)
		return settleAck
	}

	outcome := settleRequeue
	if redelivered {
		outcome = settleDeadLetter
	}
	c.logger.ErrorContext(ctx, "event dispatch failed",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", elapsed,
		"settlement", outcome.String(),
		"error", err,
	)
	return outcome
}

func (c *RabbitMQConsumer) apply(d amqp.Delivery, s settlement) {
	var err error
	switch s {
	case settleAck:
		err = d.Ack(false)
	case settleRequeue:
		err = d.Nack(false, true)
	default:
		err = d.Nack(false, false)
	}
	if err != nil {
		c.logger.Error("failed to settle delivery", "settlement", s.String(), "error", err)
	}
}

// Close stops Start and closes the connection. It is safe to call twice.
func (c *RabbitMQConsumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		err = c.session.close()
		c.logger.Info("RabbitMQ consumer closed")
	})
	return err
}
