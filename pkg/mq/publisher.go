package mq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher pushes a payload onto the queue it was bound to at creation.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

type queuePublisher struct {
	ch    *amqp.Channel
	queue string
}

// Publish sends through the default exchange straight to the bound queue.
func (p *queuePublisher) Publish(ctx context.Context, body []byte) error {
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}

	return p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg)
}

func (p *queuePublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}

	return nil
}
