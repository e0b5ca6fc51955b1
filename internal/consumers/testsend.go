package consumers

import (
	"context"
	"encoding/json"

	"github.com/clipline/sms-campaigns/internal/service"
	"github.com/clipline/sms-campaigns/pkg/mq"
	"go.uber.org/zap"
)

type TestSendConsumer interface {
	Consume(ctx context.Context) error
}

type testSendConsumer struct {
	service  service.TestSendService
	consumer mq.Consumer
	logger   *zap.Logger
}

func NewTestSendConsumer(service service.TestSendService, consumer mq.Consumer, logger *zap.Logger) TestSendConsumer {
	return &testSendConsumer{
		service:  service,
		consumer: consumer,
		logger:   logger,
	}
}

func (t *testSendConsumer) Consume(ctx context.Context) error {
	return t.consumer.Consume(ctx, 1, t.handleMessage)
}

func (t *testSendConsumer) handleMessage(ctx context.Context, body []byte) error {
	t.logger.Info("received test send command", zap.ByteString("body", body))

	var cmd service.DeliverTestSendCommand
	if err := json.Unmarshal(body, &cmd); err != nil {
		t.logger.Warn("invalid test send command", zap.Error(err))
		return err
	}

	return t.service.Deliver(ctx, cmd)
}
