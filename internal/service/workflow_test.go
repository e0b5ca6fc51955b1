package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/clipline/sms-campaigns/internal/cache"
	"github.com/clipline/sms-campaigns/internal/constants"
	"github.com/clipline/sms-campaigns/internal/mocks"
	"github.com/clipline/sms-campaigns/internal/model"
	"github.com/clipline/sms-campaigns/internal/schedule"
	"github.com/clipline/sms-campaigns/internal/service"
	"github.com/clipline/sms-campaigns/pkg/dispatch"
	"github.com/clipline/sms-campaigns/pkg/preview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type workflowMocks struct {
	message    *mocks.MessageService
	recipients *mocks.RecipientService
	ledger     *mocks.LedgerService
	dispatcher *mocks.DispatchGateway
}

func newWorkflow() (service.CampaignWorkflowService, workflowMocks) {
	m := workflowMocks{
		message:    &mocks.MessageService{},
		recipients: &mocks.RecipientService{},
		ledger:     &mocks.LedgerService{},
		dispatcher: &mocks.DispatchGateway{},
	}
	svc := service.NewCampaignWorkflowService(m.message, m.recipients, m.ledger, m.dispatcher, zap.NewNop())
	return svc, m
}

func activatableMessage(sendAt time.Time) *model.Message {
	return &model.Message{
		ID:               "msg-1",
		UserID:           "user-1",
		Status:           model.MessageStatusValidated,
		IsValidated:      true,
		ValidationStatus: model.ValidationStatusAccepted,
		Purpose:          model.PurposeCampaign,
		ClientLimit:      100,
		ScheduleKind:     model.ScheduleKindOneTime,
		CronSpec:         schedule.OneTimeCron(sendAt),
		SendAt:           &sendAt,
	}
}

func TestWorkflow_Activate(t *testing.T) {
	cmd := service.ActivateMessageCommand{MessageID: "msg-1", UserID: "user-1"}

	t.Run("reserves resolved count then registers schedule", func(t *testing.T) {
		svc, m := newWorkflow()

		sendAt := time.Now().Add(2 * time.Hour).Truncate(time.Minute)
		msg := activatableMessage(sendAt)

		m.message.On("GetOwned", context.Background(), "msg-1", "user-1").Return(msg, nil)

		m.recipients.On("Resolve", context.Background(),
			service.PreviewQuery{MessageID: "msg-1", UserID: "user-1"}).
			Return(service.ResolveResponse{Count: 80, Eligible: 80}, nil)

		m.ledger.On("Reserve", context.Background(),
			service.ReserveCreditsCommand{UserID: "user-1", MessageID: "msg-1", Amount: 80}).
			Return(nil)

		m.dispatcher.On("RegisterSchedule", context.Background(),
			mock.MatchedBy(func(req dispatch.RegisterScheduleRequest) bool {
				return req.MessageID == "msg-1" &&
					req.Recipients == 80 &&
					!req.Recurring
			})).Return(dispatch.RegisterScheduleResponse{}, nil)

		m.message.On("SaveOverrides", context.Background(),
			mock.MatchedBy(func(saved *model.Message) bool {
				return saved.Status == model.MessageStatusActivated &&
					saved.Enabled &&
					saved.ReservedCredits == 80 &&
					saved.LastActivatedAt != nil
			})).Return(nil)

		resp, err := svc.Activate(context.Background(), cmd)

		assert.NoError(t, err)
		assert.Equal(t, "msg-1", resp.MessageID)
		assert.Equal(t, int64(80), resp.Reserved)

		m.message.AssertExpectations(t)
		m.recipients.AssertExpectations(t)
		m.ledger.AssertExpectations(t)
		m.dispatcher.AssertExpectations(t)
	})

	t.Run("short balance refuses the whole reservation", func(t *testing.T) {
		svc, m := newWorkflow()

		sendAt := time.Now().Add(2 * time.Hour)
		msg := activatableMessage(sendAt)

		m.message.On("GetOwned", context.Background(), "msg-1", "user-1").Return(msg, nil)

		// The balance only covers 50 of the 80 eligible recipients. The
		// reservation must still ask for all 80 so the ledger refuses
		// instead of arming a smaller send.
		m.recipients.On("Resolve", context.Background(), mock.Anything).
			Return(service.ResolveResponse{Count: 50, Eligible: 80}, nil)

		insufficientErr := service.NewServiceError(constants.ErrCodeInsufficientCredits,
			errors.New("insufficient credits"))
		m.ledger.On("Reserve", context.Background(),
			service.ReserveCreditsCommand{UserID: "user-1", MessageID: "msg-1", Amount: 80}).
			Return(insufficientErr)

		_, err := svc.Activate(context.Background(), cmd)

		var serviceErr service.Error
		assert.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeInsufficientCredits, serviceErr.Code)

		m.ledger.AssertExpectations(t)
		m.dispatcher.AssertNotCalled(t, "RegisterSchedule")
		m.message.AssertNotCalled(t, "SaveOverrides")
	})

	t.Run("refunds reservation when dispatcher rejects", func(t *testing.T) {
		svc, m := newWorkflow()

		sendAt := time.Now().Add(2 * time.Hour)
		msg := activatableMessage(sendAt)

		m.message.On("GetOwned", context.Background(), "msg-1", "user-1").Return(msg, nil)
		m.recipients.On("Resolve", context.Background(), mock.Anything).
			Return(service.ResolveResponse{Count: 80, Eligible: 80}, nil)
		m.ledger.On("Reserve", context.Background(), mock.Anything).Return(nil)

		m.dispatcher.On("RegisterSchedule", context.Background(), mock.Anything).
			Return(dispatch.RegisterScheduleResponse{}, dispatch.ErrServerError)

		m.ledger.On("Refund", context.Background(),
			mock.MatchedBy(func(refund service.RefundCreditsCommand) bool {
				return refund.Amount == 80 && refund.MessageID == "msg-1"
			})).Return(int64(80), nil)

		_, err := svc.Activate(context.Background(), cmd)

		var serviceErr service.Error
		assert.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, service.ErrCodeDispatchServiceError, serviceErr.Code)

		m.ledger.AssertNumberOfCalls(t, "Reserve", 1)
		m.ledger.AssertNumberOfCalls(t, "Refund", 1)
		m.message.AssertNotCalled(t, "SaveOverrides")
	})

	t.Run("maps the dispatcher delay ceiling", func(t *testing.T) {
		svc, m := newWorkflow()

		sendAt := time.Now().Add(2 * time.Hour)
		msg := activatableMessage(sendAt)

		m.message.On("GetOwned", context.Background(), "msg-1", "user-1").Return(msg, nil)
		m.recipients.On("Resolve", context.Background(), mock.Anything).
			Return(service.ResolveResponse{Count: 10, Eligible: 10}, nil)
		m.ledger.On("Reserve", context.Background(), mock.Anything).Return(nil)
		m.dispatcher.On("RegisterSchedule", context.Background(), mock.Anything).
			Return(dispatch.RegisterScheduleResponse{}, dispatch.ErrMaxDelayExceeded)
		m.ledger.On("Refund", context.Background(), mock.Anything).Return(int64(10), nil)

		_, err := svc.Activate(context.Background(), cmd)

		var serviceErr service.Error
		assert.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeMaxDelayExceeded, serviceErr.Code)
	})

	t.Run("cancels schedule and refunds when persist fails", func(t *testing.T) {
		svc, m := newWorkflow()

		sendAt := time.Now().Add(2 * time.Hour)
		msg := activatableMessage(sendAt)

		m.message.On("GetOwned", context.Background(), "msg-1", "user-1").Return(msg, nil)
		m.recipients.On("Resolve", context.Background(), mock.Anything).
			Return(service.ResolveResponse{Count: 80, Eligible: 80}, nil)
		m.ledger.On("Reserve", context.Background(), mock.Anything).Return(nil)
		m.dispatcher.On("RegisterSchedule", context.Background(), mock.Anything).
			Return(dispatch.RegisterScheduleResponse{}, nil)

		m.message.On("SaveOverrides", context.Background(), mock.Anything).
			Return(errors.New("db write failed"))

		m.dispatcher.On("CancelSchedule", context.Background(),
			dispatch.CancelScheduleRequest{MessageID: "msg-1", UserID: "user-1"}).Return(nil)
		m.ledger.On("Refund", context.Background(), mock.Anything).Return(int64(80), nil)

		_, err := svc.Activate(context.Background(), cmd)

		assert.Error(t, err)
		m.dispatcher.AssertNumberOfCalls(t, "CancelSchedule", 1)
		m.ledger.AssertNumberOfCalls(t, "Refund", 1)
	})

	t.Run("auto nudge activates without reserving", func(t *testing.T) {
		svc, m := newWorkflow()

		sendAt := time.Now().Add(2 * time.Hour)
		msg := activatableMessage(sendAt)
		msg.Purpose = model.PurposeAutoNudge
		msg.ScheduleKind = model.ScheduleKindMonthly
		msg.CronSpec = schedule.MonthlyCron(15, 18, 0)
		msg.SendAt = nil

		m.message.On("GetOwned", context.Background(), "msg-1", "user-1").Return(msg, nil)
		m.recipients.On("Resolve", context.Background(), mock.Anything).
			Return(service.ResolveResponse{Count: 40, Eligible: 40}, nil)

		m.dispatcher.On("RegisterSchedule", context.Background(),
			mock.MatchedBy(func(req dispatch.RegisterScheduleRequest) bool {
				return req.Recurring
			})).Return(dispatch.RegisterScheduleResponse{}, nil)

		m.message.On("SaveOverrides", context.Background(),
			mock.MatchedBy(func(saved *model.Message) bool {
				return saved.ReservedCredits == 0
			})).Return(nil)

		resp, err := svc.Activate(context.Background(), cmd)

		assert.NoError(t, err)
		assert.Equal(t, int64(0), resp.Reserved)
		m.ledger.AssertNotCalled(t, "Reserve")
	})

	t.Run("refuses unvalidated message", func(t *testing.T) {
		svc, m := newWorkflow()

		sendAt := time.Now().Add(2 * time.Hour)
		msg := activatableMessage(sendAt)
		msg.IsValidated = false
		msg.ValidationStatus = model.ValidationStatusDraft

		m.message.On("GetOwned", context.Background(), "msg-1", "user-1").Return(msg, nil)

		_, err := svc.Activate(context.Background(), cmd)

		var serviceErr service.Error
		assert.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeNotValidated, serviceErr.Code)
		m.recipients.AssertNotCalled(t, "Resolve")
	})

	t.Run("refuses without a schedule", func(t *testing.T) {
		svc, m := newWorkflow()

		sendAt := time.Now().Add(2 * time.Hour)
		msg := activatableMessage(sendAt)
		msg.CronSpec = ""

		m.message.On("GetOwned", context.Background(), "msg-1", "user-1").Return(msg, nil)

		_, err := svc.Activate(context.Background(), cmd)

		var serviceErr service.Error
		assert.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeMissingSchedule, serviceErr.Code)
	})

	t.Run("refuses stale one-time schedule", func(t *testing.T) {
		svc, m := newWorkflow()

		sendAt := time.Now().Add(2 * time.Minute)
		msg := activatableMessage(sendAt)

		m.message.On("GetOwned", context.Background(), "msg-1", "user-1").Return(msg, nil)

		_, err := svc.Activate(context.Background(), cmd)

		var serviceErr service.Error
		assert.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeScheduleTooSoon, serviceErr.Code)
	})

	t.Run("refuses while sending", func(t *testing.T) {
		svc, m := newWorkflow()

		sendAt := time.Now().Add(2 * time.Hour)
		msg := activatableMessage(sendAt)
		msg.Status = model.MessageStatusSending

		m.message.On("GetOwned", context.Background(), "msg-1", "user-1").Return(msg, nil)

		_, err := svc.Activate(context.Background(), cmd)

		var serviceErr service.Error
		assert.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeMessageLocked, serviceErr.Code)
	})

	t.Run("refuses finished one-time message", func(t *testing.T) {
		svc, m := newWorkflow()

		sendAt := time.Now().Add(2 * time.Hour)
		msg := activatableMessage(sendAt)
		msg.Status = model.MessageStatusFinished

		m.message.On("GetOwned", context.Background(), "msg-1", "user-1").Return(msg, nil)

		_, err := svc.Activate(context.Background(), cmd)

		var serviceErr service.Error
		assert.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeMessageFinished, serviceErr.Code)
	})

	t.Run("recurring finished message blocked until period rolls over", func(t *testing.T) {
		svc, m := newWorkflow()

		finishedAt := time.Now().Add(-time.Hour)
		msg := activatableMessage(time.Now().Add(2 * time.Hour))
		msg.Status = model.MessageStatusFinished
		msg.ScheduleKind = model.ScheduleKindMonthly
		msg.CronSpec = schedule.MonthlyCron(15, 18, 0)
		msg.FinishedAt = &finishedAt

		m.message.On("GetOwned", context.Background(), "msg-1", "user-1").Return(msg, nil)

		_, err := svc.Activate(context.Background(), cmd)

		var serviceErr service.Error
		assert.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeMessageFinished, serviceErr.Code)
	})
}

// Wires the real recipient, ledger and workflow services together so the
// reservation sees the genuinely resolved set, not a mocked count.
func TestWorkflow_ActivateAgainstLedger(t *testing.T) {
	t.Run("a balance short of the eligible set refuses activation untouched", func(t *testing.T) {
		messageRepo := &mocks.MessageRepository{}
		accountRepo := &mocks.CreditAccountRepository{}
		txRepo := &mocks.CreditTxRepository{}
		txManager := &mocks.TxManager{}
		gateway := &mocks.PreviewGateway{}
		previews := &mocks.PreviewCache{}
		dispatcher := &mocks.DispatchGateway{}

		message := service.NewMessageService(messageRepo, zap.NewNop())
		ledger := service.NewLedgerService(accountRepo, txRepo, txManager, zap.NewNop())
		recipientSvc := service.NewRecipientService(message, ledger, gateway, previews, zap.NewNop())
		svc := service.NewCampaignWorkflowService(message, recipientSvc, ledger, dispatcher, zap.NewNop())

		sendAt := time.Now().Add(2 * time.Hour).Truncate(time.Minute)
		msg := activatableMessage(sendAt)
		messageRepo.On("GetByID", "msg-1").Return(msg, nil)

		ranked := preview.Result{Stats: preview.Stats{Total: 80}}
		for i := 0; i < 80; i++ {
			ranked.Clients = append(ranked.Clients, preview.Client{
				Phone: fmt.Sprintf("01%08d", i),
				Score: float64(80 - i),
			})
		}
		key := cache.PreviewKey("user-1", "msg-1", "campaign", 100)
		previews.On("GetCandidates", mock.Anything, key).Return(&ranked, nil)

		accountRepo.On("GetByUserID", "user-1").
			Return(&model.CreditAccount{UserID: "user-1", Available: 50}, nil)
		txManager.On("WithTx", mock.Anything,
			mock.AnythingOfType("func(context.Context) error")).Return(nil)
		accountRepo.On("GetForUpdate", mock.Anything, "user-1").
			Return(&model.CreditAccount{UserID: "user-1", Available: 50}, nil)

		_, err := svc.Activate(context.Background(),
			service.ActivateMessageCommand{MessageID: "msg-1", UserID: "user-1"})

		var serviceErr service.Error
		assert.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeInsufficientCredits, serviceErr.Code)

		accountRepo.AssertNotCalled(t, "UpdateBalances", mock.Anything, mock.Anything)
		txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		dispatcher.AssertNotCalled(t, "RegisterSchedule", mock.Anything, mock.Anything)
		messageRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestWorkflow_Deactivate(t *testing.T) {
	cmd := service.DeactivateMessageCommand{MessageID: "msg-1", UserID: "user-1"}

	t.Run("cancels schedule, refunds and resets to draft", func(t *testing.T) {
		svc, m := newWorkflow()

		msg := activatableMessage(time.Now().Add(2 * time.Hour))
		msg.Status = model.MessageStatusActivated
		msg.Enabled = true
		msg.ReservedCredits = 80

		m.message.On("GetOwned", context.Background(), "msg-1", "user-1").Return(msg, nil)

		m.dispatcher.On("CancelSchedule", context.Background(),
			dispatch.CancelScheduleRequest{MessageID: "msg-1", UserID: "user-1"}).Return(nil)

		m.ledger.On("Refund", context.Background(),
			mock.MatchedBy(func(refund service.RefundCreditsCommand) bool {
				return refund.Amount == 80
			})).Return(int64(80), nil)

		m.message.On("SaveOverrides", context.Background(),
			mock.MatchedBy(func(saved *model.Message) bool {
				return saved.Status == model.MessageStatusDraft &&
					!saved.Enabled &&
					!saved.IsValidated &&
					saved.ValidationStatus == model.ValidationStatusDraft &&
					saved.ReservedCredits == 0 &&
					saved.SendAt == nil
			})).Return(nil)

		err := svc.Deactivate(context.Background(), cmd)

		assert.NoError(t, err)
		m.dispatcher.AssertExpectations(t)
		m.ledger.AssertExpectations(t)
		m.message.AssertExpectations(t)
	})

	t.Run("tolerates an already-gone schedule", func(t *testing.T) {
		svc, m := newWorkflow()

		msg := activatableMessage(time.Now().Add(2 * time.Hour))
		msg.Status = model.MessageStatusActivated
		msg.ReservedCredits = 10

		m.message.On("GetOwned", context.Background(), "msg-1", "user-1").Return(msg, nil)
		m.dispatcher.On("CancelSchedule", context.Background(), mock.Anything).
			Return(dispatch.ErrScheduleNotFound)
		m.ledger.On("Refund", context.Background(), mock.Anything).Return(int64(10), nil)
		m.message.On("SaveOverrides", context.Background(), mock.Anything).Return(nil)

		err := svc.Deactivate(context.Background(), cmd)

		assert.NoError(t, err)
	})

	t.Run("locked while sending", func(t *testing.T) {
		svc, m := newWorkflow()

		msg := activatableMessage(time.Now().Add(2 * time.Hour))
		msg.Status = model.MessageStatusSending

		m.message.On("GetOwned", context.Background(), "msg-1", "user-1").Return(msg, nil)

		err := svc.Deactivate(context.Background(), cmd)

		var serviceErr service.Error
		assert.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, constants.ErrCodeMessageLocked, serviceErr.Code)
		m.dispatcher.AssertNotCalled(t, "CancelSchedule")
	})

	t.Run("no-op for a plain draft", func(t *testing.T) {
		svc, m := newWorkflow()

		msg := activatableMessage(time.Now().Add(2 * time.Hour))
		msg.Status = model.MessageStatusDraft

		m.message.On("GetOwned", context.Background(), "msg-1", "user-1").Return(msg, nil)

		err := svc.Deactivate(context.Background(), cmd)

		assert.NoError(t, err)
		m.dispatcher.AssertNotCalled(t, "CancelSchedule")
		m.ledger.AssertNotCalled(t, "Refund")
	})
}

func TestWorkflow_Delete(t *testing.T) {
	cmd := service.DeleteMessageCommand{MessageID: "msg-1", UserID: "user-1"}

	t.Run("deactivates an armed message first", func(t *testing.T) {
		svc, m := newWorkflow()

		msg := activatableMessage(time.Now().Add(2 * time.Hour))
		msg.Status = model.MessageStatusActivated
		msg.ReservedCredits = 5

		m.message.On("GetOwned", context.Background(), "msg-1", "user-1").Return(msg, nil)
		m.dispatcher.On("CancelSchedule", context.Background(), mock.Anything).Return(nil)
		m.ledger.On("Refund", context.Background(), mock.Anything).Return(int64(5), nil)
		m.message.On("SaveOverrides", context.Background(), mock.Anything).Return(nil)
		m.message.On("Delete", context.Background(), cmd).Return(nil)

		err := svc.Delete(context.Background(), cmd)

		assert.NoError(t, err)
		m.ledger.AssertNumberOfCalls(t, "Refund", 1)
		m.message.AssertCalled(t, "Delete", context.Background(), cmd)
	})

	t.Run("deletes a draft directly", func(t *testing.T) {
		svc, m := newWorkflow()

		msg := activatableMessage(time.Now().Add(2 * time.Hour))
		msg.Status = model.MessageStatusDraft

		m.message.On("GetOwned", context.Background(), "msg-1", "user-1").Return(msg, nil)
		m.message.On("Delete", context.Background(), cmd).Return(nil)

		err := svc.Delete(context.Background(), cmd)

		assert.NoError(t, err)
		m.dispatcher.AssertNotCalled(t, "CancelSchedule")
	})
}
