package mq

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Handle func(ctx context.Context, body []byte) error

// Consumer drains the queue it was bound to at creation, one handler call
// per delivery.
type Consumer interface {
	Consume(ctx context.Context, prefetch int, handler Handle) error
}

type queueConsumer struct {
	ch    *amqp.Channel
	queue string
}

func (c *queueConsumer) Consume(ctx context.Context, prefetch int, handler Handle) error {
	if prefetch <= 0 {
		prefetch = 1
	}

	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return err
	}

	tag := c.queue + ".consumer"
	deliveries, err := c.ch.Consume(c.queue, tag, false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			_ = c.ch.Cancel(tag, false)
			return ctx.Err()

		case d, ok := <-deliveries:
			if !ok {
				return nil
			}

			if err := handler(ctx, d.Body); err != nil {
				// One redelivery per message; a test send that failed
				// twice is dropped rather than looped hot.
				_ = d.Nack(false, shouldRequeue(err) && !d.Redelivered)
				continue
			}

			_ = d.Ack(false)
		}
	}
}

func shouldRequeue(err error) bool {
	var re RequeueableError
	return errors.As(err, &re)
}
