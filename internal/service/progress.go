package service

import (
	"context"
	"time"

	"github.com/clipline/sms-campaigns/internal/model"
	"github.com/clipline/sms-campaigns/internal/repository"
	"github.com/clipline/sms-campaigns/pkg/dispatch"
	"go.uber.org/zap"
)

const pollBatchSize = 200

// ProgressService mirrors dispatcher-reported run state onto messages.
// SENDING and FINISHED are only ever entered from here; the API can
// observe them but never force them. When a one-time run finishes, the
// frozen reservation settles: successes are consumed, the rest refunds.
type ProgressService interface {
	PollOnce(ctx context.Context) error
	GetForUser(ctx context.Context, userID string) ([]ProgressView, error)
}

type progress struct {
	messageRepo repository.MessageRepository
	ledger      LedgerService
	dispatcher  dispatch.Gateway
	logger      *zap.Logger
	now         func() time.Time
}

func NewProgressService(messageRepo repository.MessageRepository, ledger LedgerService,
	dispatcher dispatch.Gateway, logger *zap.Logger) ProgressService {
	return &progress{messageRepo: messageRepo, ledger: ledger, dispatcher: dispatcher,
		logger: logger, now: time.Now}
}

func (p *progress) PollOnce(ctx context.Context) error {
	armed, err := p.messageRepo.FindArmed(pollBatchSize)
	if err != nil {
		p.logger.Error("Failed to find armed messages", zap.Error(err))
		return err
	}

	if len(armed) == 0 {
		return nil
	}

	byUser := make(map[string][]model.Message)
	for _, msg := range armed {
		byUser[msg.UserID] = append(byUser[msg.UserID], msg)
	}

	for userID, messages := range byUser {
		ids := make([]string, 0, len(messages))
		index := make(map[string]*model.Message, len(messages))
		for i := range messages {
			ids = append(ids, messages[i].ID)
			index[messages[i].ID] = &messages[i]
		}

		reports, err := p.dispatcher.GetProgress(ctx, userID, ids)
		if err != nil {
			p.logger.Warn("Progress fetch failed",
				zap.Error(err),
				zap.String("userID", userID))
			continue
		}

		for _, report := range reports {
			msg, ok := index[report.ID]
			if !ok {
				continue
			}
			p.apply(ctx, msg, report)
		}
	}

	return nil
}

func (p *progress) apply(ctx context.Context, msg *model.Message, report dispatch.Progress) {
	now := p.now()

	switch {
	case report.IsActive:
		if msg.Status == model.MessageStatusSending {
			return
		}

		err := p.messageRepo.UpdateStatusGuarded(ctx, msg.ID,
			[]model.MessageStatus{model.MessageStatusActivated},
			map[string]interface{}{"status": model.MessageStatusSending})
		if err != nil && err != repository.ErrNoRowsAffected {
			p.logger.Error("Failed to mark message sending",
				zap.Error(err),
				zap.String("messageID", msg.ID))
			return
		}

		p.logger.Info("Message dispatch started", zap.String("messageID", msg.ID))

	case report.IsFinished:
		if msg.Status == model.MessageStatusFinished {
			p.maybeRollover(ctx, msg, now)
			return
		}

		updates := map[string]interface{}{
			"status":      model.MessageStatusFinished,
			"finished_at": now,
		}
		if !msg.Recurring() {
			updates["enabled"] = false
		}

		err := p.messageRepo.UpdateStatusGuarded(ctx, msg.ID,
			[]model.MessageStatus{model.MessageStatusActivated, model.MessageStatusSending},
			updates)
		if err != nil {
			if err != repository.ErrNoRowsAffected {
				p.logger.Error("Failed to mark message finished",
					zap.Error(err),
					zap.String("messageID", msg.ID))
			}
			return
		}

		p.logger.Info("Message run finished",
			zap.String("messageID", msg.ID),
			zap.Int("success", report.Success),
			zap.Int("fail", report.Fail))

		if msg.ReservedCredits > 0 {
			p.settle(ctx, msg, report)
		}
	}
}

// settle releases the frozen reservation: the whole amount returns to
// available, then the delivered portion is spent. Failures come back to
// the user as spendable credit.
func (p *progress) settle(ctx context.Context, msg *model.Message, report dispatch.Progress) {
	refundCmd := RefundCreditsCommand{
		UserID:    msg.UserID,
		MessageID: msg.ID,
		Amount:    msg.ReservedCredits,
		Reason:    "send settlement release",
	}

	refunded, err := p.ledger.Refund(ctx, refundCmd)
	if err != nil {
		p.logger.Error("CRITICAL: settlement refund failed - manual intervention required",
			zap.Error(err),
			zap.String("messageID", msg.ID))
		return
	}

	consumed := int64(report.Success)
	if consumed > refunded {
		consumed = refunded
	}

	if consumed > 0 {
		spendCmd := SpendCreditsCommand{
			UserID:    msg.UserID,
			MessageID: &msg.ID,
			Amount:    consumed,
			Reason:    "recipient sends",
		}
		if err := p.ledger.Spend(ctx, spendCmd); err != nil {
			p.logger.Error("CRITICAL: settlement spend failed - manual intervention required",
				zap.Error(err),
				zap.String("messageID", msg.ID))
			return
		}
	}

	err = p.messageRepo.UpdateStatusGuarded(ctx, msg.ID,
		[]model.MessageStatus{model.MessageStatusFinished},
		map[string]interface{}{"reserved_credits": 0})
	if err != nil && err != repository.ErrNoRowsAffected {
		p.logger.Error("Failed to clear settled reservation",
			zap.Error(err),
			zap.String("messageID", msg.ID))
	}
}

// maybeRollover re-arms a finished recurring message once its next period
// begins, ending the partial lock without user action.
func (p *progress) maybeRollover(ctx context.Context, msg *model.Message, now time.Time) {
	if !msg.Recurring() || msg.FinishedAt == nil || !msg.Enabled {
		return
	}

	if !periodRolledOver(msg, now) {
		return
	}

	err := p.messageRepo.UpdateStatusGuarded(ctx, msg.ID,
		[]model.MessageStatus{model.MessageStatusFinished},
		map[string]interface{}{"status": model.MessageStatusActivated, "finished_at": nil})
	if err != nil {
		if err != repository.ErrNoRowsAffected {
			p.logger.Error("Failed to re-arm recurring message",
				zap.Error(err),
				zap.String("messageID", msg.ID))
		}
		return
	}

	p.logger.Info("Recurring message re-armed for new period", zap.String("messageID", msg.ID))
}

func (p *progress) GetForUser(ctx context.Context, userID string) ([]ProgressView, error) {
	armed, err := p.messageRepo.FindArmed(pollBatchSize)
	if err != nil {
		return nil, NewServiceError(ErrCodeDatabase, err)
	}

	var ids []string
	byID := make(map[string]model.Message)
	for _, msg := range armed {
		if msg.UserID != userID {
			continue
		}
		ids = append(ids, msg.ID)
		byID[msg.ID] = msg
	}

	if len(ids) == 0 {
		return []ProgressView{}, nil
	}

	reports, err := p.dispatcher.GetProgress(ctx, userID, ids)
	if err != nil {
		p.logger.Error("Failed to fetch campaign progress",
			zap.Error(err),
			zap.String("userID", userID))
		return nil, NewServiceError(ErrCodeDispatchServiceError, err)
	}

	views := make([]ProgressView, 0, len(reports))
	for _, report := range reports {
		msg := byID[report.ID]
		views = append(views, ProgressView{
			MessageID:  report.ID,
			Status:     string(msg.Status),
			IsActive:   report.IsActive,
			IsFinished: report.IsFinished,
			Success:    report.Success,
			Fail:       report.Fail,
			Total:      report.Total,
		})
	}

	return views, nil
}
