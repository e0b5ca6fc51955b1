package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/clipline/sms-campaigns/internal/cache"
	"github.com/clipline/sms-campaigns/internal/constants"
	"github.com/clipline/sms-campaigns/internal/recipients"
	"github.com/clipline/sms-campaigns/pkg/dispatch"
	"github.com/clipline/sms-campaigns/pkg/mq"
	"go.uber.org/zap"
)

const QueueTestSend = "sms.test"

// TestSendService sends the current draft body to a single phone so staff
// can see how it lands on a handset. Each user gets a daily free allotment;
// past that each test send spends one credit. Delivery itself happens on
// the worker side, off the request path.
type TestSendService interface {
	Request(ctx context.Context, cmd TestSendCommand) (TestSendResponse, error)
	Deliver(ctx context.Context, cmd DeliverTestSendCommand) error
}

type testSend struct {
	message    MessageService
	ledger     LedgerService
	allotment  cache.AllotmentCounter
	publisher  mq.Publisher
	dispatcher dispatch.Gateway
	freePerDay int64
	logger     *zap.Logger
	now        func() time.Time
}

func NewTestSendService(message MessageService, ledger LedgerService, allotment cache.AllotmentCounter,
	publisher mq.Publisher, dispatcher dispatch.Gateway, freePerDay int64, logger *zap.Logger) TestSendService {
	return &testSend{
		message:    message,
		ledger:     ledger,
		allotment:  allotment,
		publisher:  publisher,
		dispatcher: dispatcher,
		freePerDay: freePerDay,
		logger:     logger,
		now:        time.Now,
	}
}

func (t *testSend) Request(ctx context.Context, cmd TestSendCommand) (TestSendResponse, error) {
	msg, err := t.message.GetOwned(ctx, cmd.MessageID, cmd.UserID)
	if err != nil {
		return TestSendResponse{}, err
	}

	if !recipients.ValidPhone(cmd.Phone) {
		return TestSendResponse{}, NewServiceError(constants.ErrCodeInvalidPhone, errors.New("invalid phone number"))
	}

	count, err := t.allotment.IncrTestSends(ctx, cmd.UserID, t.now())
	if err != nil {
		t.logger.Error("Failed to bump test send allotment",
			zap.Error(err),
			zap.String("userID", cmd.UserID))
		return TestSendResponse{}, NewServiceError(ErrCodeDatabase, err)
	}

	charged := count > t.freePerDay
	if charged {
		spendCmd := SpendCreditsCommand{
			UserID:    cmd.UserID,
			MessageID: &cmd.MessageID,
			Amount:    1,
			Reason:    "test send",
		}
		if err := t.ledger.Spend(ctx, spendCmd); err != nil {
			// Give the slot back; the counter only counts sends that
			// went out.
			if decrErr := t.allotment.DecrTestSends(ctx, cmd.UserID, t.now()); decrErr != nil {
				t.logger.Warn("Failed to release test send slot after refused spend",
					zap.Error(decrErr),
					zap.String("userID", cmd.UserID))
			}

			return TestSendResponse{}, err
		}
	}

	deliver := DeliverTestSendCommand{
		MessageID: msg.ID,
		UserID:    cmd.UserID,
		Phone:     cmd.Phone,
		Text:      msg.Body,
	}

	body, err := json.Marshal(deliver)
	if err != nil {
		return TestSendResponse{}, NewServiceError(constants.ErrCodeInternalError, err)
	}

	if err := t.publisher.Publish(ctx, body); err != nil {
		// Spends have no reversing ledger operation, so a charged test
		// send that never reached the queue needs an operator.
		if charged {
			t.logger.Error("CRITICAL: test send charged but not queued - manual intervention required",
				zap.Error(err),
				zap.String("userID", cmd.UserID),
				zap.String("messageID", msg.ID))
		} else {
			t.logger.Error("Failed to queue test send",
				zap.Error(err),
				zap.String("messageID", msg.ID))
		}

		return TestSendResponse{}, NewServiceError(constants.ErrCodeInternalError, err)
	}

	remaining := t.freePerDay - count
	if remaining < 0 {
		remaining = 0
	}

	t.logger.Info("Test send queued",
		zap.String("messageID", msg.ID),
		zap.Bool("charged", charged))

	return TestSendResponse{Queued: true, FreeRemains: remaining, Charged: charged}, nil
}

func (t *testSend) Deliver(ctx context.Context, cmd DeliverTestSendCommand) error {
	request := dispatch.TestSendRequest{
		MessageID: cmd.MessageID,
		UserID:    cmd.UserID,
		Phone:     cmd.Phone,
		Text:      cmd.Text,
	}

	if err := t.dispatcher.TestSend(ctx, request); err != nil {
		if errors.Is(err, dispatch.ErrTimeout) || errors.Is(err, dispatch.ErrServerError) {
			return mq.Requeue(err)
		}

		t.logger.Error("Test send rejected by dispatcher",
			zap.Error(err),
			zap.String("messageID", cmd.MessageID))
		return err
	}

	t.logger.Info("Test send delivered",
		zap.String("messageID", cmd.MessageID),
		zap.String("phone", cmd.Phone))

	return nil
}
