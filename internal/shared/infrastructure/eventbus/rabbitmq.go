package eventbus

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Broker topology shared by the publisher and the worker's consumer.
const (
	// ExchangeName is the topic exchange habit events are routed through.
	ExchangeName = "cadence.habit.events"
	// DeadLetterExchange receives deliveries the worker gave up on.
	DeadLetterExchange = "cadence.habit.events.dlx"
	// DefaultConsumerQueueName is the worker's durable queue.
	DefaultConsumerQueueName = "cadence.worker"

	appID = "cadence"
)

// amqpSession is one connection with one channel on it.
type amqpSession struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// dialSession connects and declares both exchanges. Declaring is idempotent,
// so either side may start first.
func dialSession(url string) (*amqpSession, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	s := &amqpSession{conn: conn, channel: ch}
	if err := s.declareExchange(ExchangeName, amqp.ExchangeTopic); err != nil {
		_ = s.close()
		return nil, err
	}
	if err := s.declareExchange(DeadLetterExchange, amqp.ExchangeFanout); err != nil {
		_ = s.close()
		return nil, err
	}
	return s, nil
}

func (s *amqpSession) declareExchange(name, kind string) error {
	// durable, not auto-deleted, not internal, wait for the broker
	if err := s.channel.ExchangeDeclare(name, kind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", name, err)
	}
	return nil
}

// declareQueue declares a durable queue. Rejected deliveries from a queue
// declared with deadLetter set are routed to DeadLetterExchange.
func (s *amqpSession) declareQueue(name string, deadLetter bool) error {
	var args amqp.Table
	if deadLetter {
		args = amqp.Table{"x-dead-letter-exchange": DeadLetterExchange}
	}
	if _, err := s.channel.QueueDeclare(name, true, false, false, false, args); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	return nil
}

func (s *amqpSession) bind(queue, routingKey, exchange string) error {
	if err := s.channel.QueueBind(queue, routingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind %s to %s: %w", queue, routingKey, err)
	}
	return nil
}

func (s *amqpSession) open() bool {
	return s != nil && s.conn != nil && !s.conn.IsClosed() && s.channel != nil && !s.channel.IsClosed()
}

// close shuts the channel, then the connection, returning the first error.
func (s *amqpSession) close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.channel != nil {
		err = s.channel.Close()
	}
	if s.conn != nil {
		if cerr := s.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
