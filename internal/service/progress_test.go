package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clipline/sms-campaigns/internal/mocks"
	"github.com/clipline/sms-campaigns/internal/model"
	"github.com/clipline/sms-campaigns/internal/repository"
	"github.com/clipline/sms-campaigns/internal/schedule"
	"github.com/clipline/sms-campaigns/internal/service"
	"github.com/clipline/sms-campaigns/pkg/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type progressMocks struct {
	repo       *mocks.MessageRepository
	ledger     *mocks.LedgerService
	dispatcher *mocks.DispatchGateway
}

func newProgress() (service.ProgressService, progressMocks) {
	m := progressMocks{
		repo:       &mocks.MessageRepository{},
		ledger:     &mocks.LedgerService{},
		dispatcher: &mocks.DispatchGateway{},
	}
	svc := service.NewProgressService(m.repo, m.ledger, m.dispatcher, zap.NewNop())
	return svc, m
}

func armedMessage(status model.MessageStatus) model.Message {
	return model.Message{
		ID:              "msg-1",
		UserID:          "user-1",
		Status:          status,
		Enabled:         true,
		ScheduleKind:    model.ScheduleKindOneTime,
		ReservedCredits: 80,
	}
}

func TestProgress_PollOnce(t *testing.T) {
	t.Run("active report moves an activated message to sending", func(t *testing.T) {
		svc, m := newProgress()

		m.repo.On("FindArmed", mock.AnythingOfType("int")).
			Return([]model.Message{armedMessage(model.MessageStatusActivated)}, nil)
		m.dispatcher.On("GetProgress", context.Background(), "user-1", []string{"msg-1"}).
			Return([]dispatch.Progress{{ID: "msg-1", IsActive: true}}, nil)
		m.repo.On("UpdateStatusGuarded", context.Background(), "msg-1",
			[]model.MessageStatus{model.MessageStatusActivated},
			map[string]interface{}{"status": model.MessageStatusSending}).Return(nil)

		err := svc.PollOnce(context.Background())

		assert.NoError(t, err)
		m.repo.AssertExpectations(t)
	})

	t.Run("active report on an already sending message is a no-op", func(t *testing.T) {
		svc, m := newProgress()

		m.repo.On("FindArmed", mock.AnythingOfType("int")).
			Return([]model.Message{armedMessage(model.MessageStatusSending)}, nil)
		m.dispatcher.On("GetProgress", context.Background(), "user-1", []string{"msg-1"}).
			Return([]dispatch.Progress{{ID: "msg-1", IsActive: true}}, nil)

		err := svc.PollOnce(context.Background())

		assert.NoError(t, err)
		m.repo.AssertNotCalled(t, "UpdateStatusGuarded",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("finished report settles the reservation", func(t *testing.T) {
		svc, m := newProgress()

		m.repo.On("FindArmed", mock.AnythingOfType("int")).
			Return([]model.Message{armedMessage(model.MessageStatusSending)}, nil)
		m.dispatcher.On("GetProgress", context.Background(), "user-1", []string{"msg-1"}).
			Return([]dispatch.Progress{{ID: "msg-1", IsFinished: true, Success: 75, Fail: 5, Total: 80}}, nil)

		m.repo.On("UpdateStatusGuarded", context.Background(), "msg-1",
			[]model.MessageStatus{model.MessageStatusActivated, model.MessageStatusSending},
			mock.MatchedBy(func(updates map[string]interface{}) bool {
				return updates["status"] == model.MessageStatusFinished &&
					updates["enabled"] == false
			})).Return(nil)

		m.ledger.On("Refund", context.Background(),
			mock.MatchedBy(func(refund service.RefundCreditsCommand) bool {
				return refund.Amount == 80 && refund.Reason == "send settlement release"
			})).Return(int64(80), nil)

		m.ledger.On("Spend", context.Background(),
			mock.MatchedBy(func(spend service.SpendCreditsCommand) bool {
				return spend.Amount == 75 && spend.Reason == "recipient sends"
			})).Return(nil)

		m.repo.On("UpdateStatusGuarded", context.Background(), "msg-1",
			[]model.MessageStatus{model.MessageStatusFinished},
			map[string]interface{}{"reserved_credits": 0}).Return(nil)

		err := svc.PollOnce(context.Background())

		assert.NoError(t, err)
		m.ledger.AssertExpectations(t)
		m.repo.AssertExpectations(t)
	})

	t.Run("all-failure run spends nothing", func(t *testing.T) {
		svc, m := newProgress()

		m.repo.On("FindArmed", mock.AnythingOfType("int")).
			Return([]model.Message{armedMessage(model.MessageStatusSending)}, nil)
		m.dispatcher.On("GetProgress", context.Background(), "user-1", []string{"msg-1"}).
			Return([]dispatch.Progress{{ID: "msg-1", IsFinished: true, Success: 0, Fail: 80, Total: 80}}, nil)

		m.repo.On("UpdateStatusGuarded", context.Background(), "msg-1",
			[]model.MessageStatus{model.MessageStatusActivated, model.MessageStatusSending},
			mock.Anything).Return(nil)
		m.ledger.On("Refund", context.Background(), mock.Anything).Return(int64(80), nil)
		m.repo.On("UpdateStatusGuarded", context.Background(), "msg-1",
			[]model.MessageStatus{model.MessageStatusFinished},
			map[string]interface{}{"reserved_credits": 0}).Return(nil)

		err := svc.PollOnce(context.Background())

		assert.NoError(t, err)
		m.ledger.AssertNotCalled(t, "Spend", mock.Anything, mock.Anything)
	})

	t.Run("spend never exceeds the refunded amount", func(t *testing.T) {
		svc, m := newProgress()

		m.repo.On("FindArmed", mock.AnythingOfType("int")).
			Return([]model.Message{armedMessage(model.MessageStatusSending)}, nil)
		m.dispatcher.On("GetProgress", context.Background(), "user-1", []string{"msg-1"}).
			Return([]dispatch.Progress{{ID: "msg-1", IsFinished: true, Success: 200, Total: 200}}, nil)

		m.repo.On("UpdateStatusGuarded", context.Background(), "msg-1",
			[]model.MessageStatus{model.MessageStatusActivated, model.MessageStatusSending},
			mock.Anything).Return(nil)
		m.ledger.On("Refund", context.Background(), mock.Anything).Return(int64(80), nil)
		m.ledger.On("Spend", context.Background(),
			mock.MatchedBy(func(spend service.SpendCreditsCommand) bool {
				return spend.Amount == 80
			})).Return(nil)
		m.repo.On("UpdateStatusGuarded", context.Background(), "msg-1",
			[]model.MessageStatus{model.MessageStatusFinished},
			mock.Anything).Return(nil)

		err := svc.PollOnce(context.Background())

		assert.NoError(t, err)
		m.ledger.AssertExpectations(t)
	})

	t.Run("finished recurring message stays enabled", func(t *testing.T) {
		svc, m := newProgress()

		msg := armedMessage(model.MessageStatusSending)
		msg.ScheduleKind = model.ScheduleKindMonthly
		msg.CronSpec = schedule.MonthlyCron(15, 18, 0)
		msg.ReservedCredits = 0

		m.repo.On("FindArmed", mock.AnythingOfType("int")).Return([]model.Message{msg}, nil)
		m.dispatcher.On("GetProgress", context.Background(), "user-1", []string{"msg-1"}).
			Return([]dispatch.Progress{{ID: "msg-1", IsFinished: true, Success: 30, Total: 30}}, nil)

		m.repo.On("UpdateStatusGuarded", context.Background(), "msg-1",
			[]model.MessageStatus{model.MessageStatusActivated, model.MessageStatusSending},
			mock.MatchedBy(func(updates map[string]interface{}) bool {
				_, disables := updates["enabled"]
				return updates["status"] == model.MessageStatusFinished && !disables
			})).Return(nil)

		err := svc.PollOnce(context.Background())

		assert.NoError(t, err)
		m.ledger.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
	})

	t.Run("lost update race is tolerated", func(t *testing.T) {
		svc, m := newProgress()

		m.repo.On("FindArmed", mock.AnythingOfType("int")).
			Return([]model.Message{armedMessage(model.MessageStatusActivated)}, nil)
		m.dispatcher.On("GetProgress", context.Background(), "user-1", []string{"msg-1"}).
			Return([]dispatch.Progress{{ID: "msg-1", IsActive: true}}, nil)
		m.repo.On("UpdateStatusGuarded", context.Background(), "msg-1",
			mock.Anything, mock.Anything).Return(repository.ErrNoRowsAffected)

		err := svc.PollOnce(context.Background())

		assert.NoError(t, err)
	})

	t.Run("guarded finish losing the race skips settlement", func(t *testing.T) {
		svc, m := newProgress()

		m.repo.On("FindArmed", mock.AnythingOfType("int")).
			Return([]model.Message{armedMessage(model.MessageStatusSending)}, nil)
		m.dispatcher.On("GetProgress", context.Background(), "user-1", []string{"msg-1"}).
			Return([]dispatch.Progress{{ID: "msg-1", IsFinished: true, Success: 80, Total: 80}}, nil)
		m.repo.On("UpdateStatusGuarded", context.Background(), "msg-1",
			mock.Anything, mock.Anything).Return(repository.ErrNoRowsAffected)

		err := svc.PollOnce(context.Background())

		assert.NoError(t, err)
		m.ledger.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
	})

	t.Run("re-arms a finished recurring message after rollover", func(t *testing.T) {
		svc, m := newProgress()

		finishedAt := time.Now().AddDate(0, -1, 0)
		msg := armedMessage(model.MessageStatusFinished)
		msg.ScheduleKind = model.ScheduleKindMonthly
		msg.CronSpec = schedule.MonthlyCron(15, 18, 0)
		msg.FinishedAt = &finishedAt
		msg.ReservedCredits = 0

		m.repo.On("FindArmed", mock.AnythingOfType("int")).Return([]model.Message{msg}, nil)
		m.dispatcher.On("GetProgress", context.Background(), "user-1", []string{"msg-1"}).
			Return([]dispatch.Progress{{ID: "msg-1", IsFinished: true}}, nil)
		m.repo.On("UpdateStatusGuarded", context.Background(), "msg-1",
			[]model.MessageStatus{model.MessageStatusFinished},
			map[string]interface{}{"status": model.MessageStatusActivated, "finished_at": nil}).
			Return(nil)

		err := svc.PollOnce(context.Background())

		assert.NoError(t, err)
		m.repo.AssertExpectations(t)
	})

	t.Run("finished message in the current period stays locked", func(t *testing.T) {
		svc, m := newProgress()

		finishedAt := time.Now()
		msg := armedMessage(model.MessageStatusFinished)
		msg.ScheduleKind = model.ScheduleKindMonthly
		msg.CronSpec = schedule.MonthlyCron(15, 18, 0)
		msg.FinishedAt = &finishedAt
		msg.ReservedCredits = 0

		m.repo.On("FindArmed", mock.AnythingOfType("int")).Return([]model.Message{msg}, nil)
		m.dispatcher.On("GetProgress", context.Background(), "user-1", []string{"msg-1"}).
			Return([]dispatch.Progress{{ID: "msg-1", IsFinished: true}}, nil)

		err := svc.PollOnce(context.Background())

		assert.NoError(t, err)
		m.repo.AssertNotCalled(t, "UpdateStatusGuarded",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("progress fetch failure skips the user batch", func(t *testing.T) {
		svc, m := newProgress()

		m.repo.On("FindArmed", mock.AnythingOfType("int")).
			Return([]model.Message{armedMessage(model.MessageStatusActivated)}, nil)
		m.dispatcher.On("GetProgress", context.Background(), "user-1", []string{"msg-1"}).
			Return(nil, errors.New("dispatcher down"))

		err := svc.PollOnce(context.Background())

		assert.NoError(t, err)
		m.repo.AssertNotCalled(t, "UpdateStatusGuarded",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("nothing armed does nothing", func(t *testing.T) {
		svc, m := newProgress()

		m.repo.On("FindArmed", mock.AnythingOfType("int")).Return([]model.Message{}, nil)

		err := svc.PollOnce(context.Background())

		assert.NoError(t, err)
		m.dispatcher.AssertNotCalled(t, "GetProgress", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestProgress_GetForUser(t *testing.T) {
	t.Run("maps reports for the user's armed messages", func(t *testing.T) {
		svc, m := newProgress()

		mine := armedMessage(model.MessageStatusSending)
		other := armedMessage(model.MessageStatusSending)
		other.ID = "msg-2"
		other.UserID = "user-2"

		m.repo.On("FindArmed", mock.AnythingOfType("int")).
			Return([]model.Message{mine, other}, nil)
		m.dispatcher.On("GetProgress", context.Background(), "user-1", []string{"msg-1"}).
			Return([]dispatch.Progress{{ID: "msg-1", IsActive: true, Success: 12, Total: 80}}, nil)

		views, err := svc.GetForUser(context.Background(), "user-1")

		assert.NoError(t, err)
		assert.Len(t, views, 1)
		assert.Equal(t, "msg-1", views[0].MessageID)
		assert.Equal(t, string(model.MessageStatusSending), views[0].Status)
		assert.Equal(t, 12, views[0].Success)
	})

	t.Run("no armed messages yields an empty list", func(t *testing.T) {
		svc, m := newProgress()

		m.repo.On("FindArmed", mock.AnythingOfType("int")).Return([]model.Message{}, nil)

		views, err := svc.GetForUser(context.Background(), "user-1")

		assert.NoError(t, err)
		assert.Empty(t, views)
		m.dispatcher.AssertNotCalled(t, "GetProgress", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("dispatcher failure surfaces", func(t *testing.T) {
		svc, m := newProgress()

		m.repo.On("FindArmed", mock.AnythingOfType("int")).
			Return([]model.Message{armedMessage(model.MessageStatusSending)}, nil)
		m.dispatcher.On("GetProgress", context.Background(), "user-1", []string{"msg-1"}).
			Return(nil, errors.New("dispatcher down"))

		_, err := svc.GetForUser(context.Background(), "user-1")

		var serviceErr service.Error
		assert.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, service.ErrCodeDispatchServiceError, serviceErr.Code)
	})
}
