package mq

import (
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Config struct {
	URL string `mapstructure:"url"`
}

// Broker wraps the AMQP connection. Publishers and consumers are bound to
// a single queue and declare it themselves, so either side of the test
// send queue can start first.
type Broker struct {
	conn   *amqp.Connection
	logger *zap.Logger
}

func Connect(cfg Config, logger *zap.Logger) (*Broker, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", zap.Error(err))
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	logger.Info("Connected to RabbitMQ")

	return &Broker{conn: conn, logger: logger}, nil
}

// channel opens a channel with the queue declared durable on it.
func (b *Broker) channel(queue string) (*amqp.Channel, error) {
	if b.conn == nil || b.conn.IsClosed() {
		return nil, errors.New("rabbitmq connection is closed")
	}

	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	return ch, nil
}

func (b *Broker) Publisher(queue string) (Publisher, error) {
	ch, err := b.channel(queue)
	if err != nil {
		return nil, err
	}

	b.logger.Info("Queue publisher ready", zap.String("queue", queue))

	return &queuePublisher{ch: ch, queue: queue}, nil
}

func (b *Broker) Consumer(queue string) (Consumer, error) {
	ch, err := b.channel(queue)
	if err != nil {
		return nil, err
	}

	b.logger.Info("Queue consumer ready", zap.String("queue", queue))

	return &queueConsumer{ch: ch, queue: queue}, nil
}

func (b *Broker) Close() error {
	if b.conn != nil && !b.conn.IsClosed() {
		return b.conn.Close()
	}

	return nil
}
