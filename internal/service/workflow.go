package service

import (
	"context"
	"errors"
	"time"

	"github.com/clipline/sms-campaigns/internal/constants"
	"github.com/clipline/sms-campaigns/internal/model"
	"github.com/clipline/sms-campaigns/internal/schedule"
	"github.com/clipline/sms-campaigns/pkg/dispatch"
	"go.uber.org/zap"
)

// CampaignWorkflowService orchestrates the lifecycle transitions that touch
// more than one subsystem: credits are reserved before the dispatcher is
// told about a schedule, and a late failure compensates with a refund so a
// user is never left paying for a schedule that does not exist.
type CampaignWorkflowService interface {
	Save(ctx context.Context, cmd SaveMessageCommand) (SaveMessageResponse, error)
	Activate(ctx context.Context, cmd ActivateMessageCommand) (ActivateMessageResponse, error)
	Deactivate(ctx context.Context, cmd DeactivateMessageCommand) error
	Delete(ctx context.Context, cmd DeleteMessageCommand) error
}

type campaignWorkflow struct {
	message    MessageService
	recipients RecipientService
	ledger     LedgerService
	dispatcher dispatch.Gateway
	logger     *zap.Logger
	now        func() time.Time
}

func NewCampaignWorkflowService(message MessageService, recipients RecipientService, ledger LedgerService,
	dispatcher dispatch.Gateway, logger *zap.Logger) CampaignWorkflowService {
	return &campaignWorkflow{message: message, recipients: recipients, ledger: ledger,
		dispatcher: dispatcher, logger: logger, now: time.Now}
}

// Save persists draft edits. Editing an armed message first returns it to
// draft, refunding its reservation.
func (w *campaignWorkflow) Save(ctx context.Context, cmd SaveMessageCommand) (SaveMessageResponse, error) {
	if cmd.MessageID != "" {
		msg, err := w.message.GetOwned(ctx, cmd.MessageID, cmd.UserID)
		if err != nil {
			return SaveMessageResponse{}, err
		}

		if msg.Status == model.MessageStatusActivated {
			if err := w.Deactivate(ctx, DeactivateMessageCommand{MessageID: cmd.MessageID, UserID: cmd.UserID}); err != nil {
				return SaveMessageResponse{}, err
			}
		}
	}

	msg, err := w.message.PersistDraft(ctx, cmd)
	if err != nil {
		return SaveMessageResponse{}, err
	}

	return SaveMessageResponse{MessageID: msg.ID}, nil
}

func (w *campaignWorkflow) Activate(ctx context.Context, cmd ActivateMessageCommand) (ActivateMessageResponse, error) {
	msg, err := w.message.GetOwned(ctx, cmd.MessageID, cmd.UserID)
	if err != nil {
		return ActivateMessageResponse{}, err
	}

	now := w.now()
	if err := ensureActivatable(msg, now); err != nil {
		return ActivateMessageResponse{}, err
	}

	sendAt, err := w.nextSend(msg, now)
	if err != nil {
		return ActivateMessageResponse{}, err
	}

	resolved, err := w.recipients.Resolve(ctx, PreviewQuery{MessageID: msg.ID, UserID: msg.UserID})
	if err != nil {
		return ActivateMessageResponse{}, err
	}

	// The reservation freezes the eligible count at this moment; later
	// recomputes do not move it. Eligible ignores the balance, so Reserve
	// refuses a short balance outright rather than arming a silently
	// smaller send. Auto-nudge reserves nothing, its accounting happens
	// at load time.
	required := int64(resolved.Eligible)
	reserves := msg.Purpose != model.PurposeAutoNudge

	if reserves {
		reserveCmd := ReserveCreditsCommand{UserID: msg.UserID, MessageID: msg.ID, Amount: required}
		if err := w.ledger.Reserve(ctx, reserveCmd); err != nil {
			w.logger.Debug("Activation aborted, reservation failed",
				zap.String("messageID", msg.ID),
				zap.Error(err))
			return ActivateMessageResponse{}, err
		}
	}

	registerReq := dispatch.RegisterScheduleRequest{
		MessageID:  msg.ID,
		UserID:     msg.UserID,
		CronSpec:   msg.CronSpec,
		SendAt:     sendAt.Format(time.RFC3339),
		Recurring:  msg.Recurring(),
		Recipients: resolved.Eligible,
	}

	if _, err := w.dispatcher.RegisterSchedule(ctx, registerReq); err != nil {
		if reserves {
			w.compensate(ctx, msg, required)
		}

		if errors.Is(err, dispatch.ErrMaxDelayExceeded) {
			w.logger.Warn("Dispatcher rejected schedule beyond the delay ceiling",
				zap.String("messageID", msg.ID),
				zap.Time("sendAt", sendAt))
			return ActivateMessageResponse{}, NewServiceError(constants.ErrCodeMaxDelayExceeded, err)
		}

		w.logger.Error("Failed to register schedule with dispatcher",
			zap.Error(err),
			zap.String("messageID", msg.ID))
		return ActivateMessageResponse{}, NewServiceError(ErrCodeDispatchServiceError, err)
	}

	msg.Status = model.MessageStatusActivated
	msg.Enabled = true
	msg.SendAt = &sendAt
	msg.LastActivatedAt = &now
	if reserves {
		msg.ReservedCredits = required
	}

	if err := w.message.SaveOverrides(ctx, msg); err != nil {
		w.logger.Error("Critical: schedule registered but activation not persisted, compensating",
			zap.String("messageID", msg.ID))

		cancelReq := dispatch.CancelScheduleRequest{MessageID: msg.ID, UserID: msg.UserID}
		if cancelErr := w.dispatcher.CancelSchedule(ctx, cancelReq); cancelErr != nil {
			w.logger.Error("CRITICAL: orphaned schedule requires manual intervention",
				zap.String("messageID", msg.ID),
				zap.Error(cancelErr))
		}
		if reserves {
			w.compensate(ctx, msg, required)
		}

		return ActivateMessageResponse{}, err
	}

	w.logger.Info("Message activated",
		zap.String("messageID", msg.ID),
		zap.Int64("reserved", msg.ReservedCredits),
		zap.Time("sendAt", sendAt))

	return ActivateMessageResponse{
		MessageID: msg.ID,
		Reserved:  msg.ReservedCredits,
		SendAt:    sendAt.Format(time.RFC3339),
	}, nil
}

func (w *campaignWorkflow) Deactivate(ctx context.Context, cmd DeactivateMessageCommand) error {
	msg, err := w.message.GetOwned(ctx, cmd.MessageID, cmd.UserID)
	if err != nil {
		return err
	}

	if msg.Status == model.MessageStatusSending {
		return NewServiceError(constants.ErrCodeMessageLocked, ErrMessageLocked)
	}

	if msg.Status != model.MessageStatusActivated {
		w.logger.Debug("Deactivate is a no-op for this state",
			zap.String("messageID", msg.ID),
			zap.String("status", string(msg.Status)))
		return nil
	}

	cancelReq := dispatch.CancelScheduleRequest{MessageID: msg.ID, UserID: msg.UserID}
	if err := w.dispatcher.CancelSchedule(ctx, cancelReq); err != nil && !errors.Is(err, dispatch.ErrScheduleNotFound) {
		w.logger.Error("Failed to cancel schedule with dispatcher",
			zap.Error(err),
			zap.String("messageID", msg.ID))
		return NewServiceError(ErrCodeDispatchServiceError, err)
	}

	if msg.ReservedCredits > 0 {
		refundCmd := RefundCreditsCommand{
			UserID:    msg.UserID,
			MessageID: msg.ID,
			Amount:    msg.ReservedCredits,
			Reason:    "deactivation refund",
		}
		if _, err := w.ledger.Refund(ctx, refundCmd); err != nil {
			w.logger.Error("Failed to refund reservation on deactivate",
				zap.Error(err),
				zap.String("messageID", msg.ID))
			return err
		}
	}

	msg.Status = model.MessageStatusDraft
	msg.Enabled = false
	msg.IsValidated = false
	msg.ValidationStatus = model.ValidationStatusDraft
	msg.ReservedCredits = 0
	msg.SendAt = nil

	if err := w.message.SaveOverrides(ctx, msg); err != nil {
		return err
	}

	w.logger.Info("Message deactivated", zap.String("messageID", msg.ID))
	return nil
}

// Delete releases any live reservation before archiving or removing.
func (w *campaignWorkflow) Delete(ctx context.Context, cmd DeleteMessageCommand) error {
	msg, err := w.message.GetOwned(ctx, cmd.MessageID, cmd.UserID)
	if err != nil {
		return err
	}

	if msg.Status == model.MessageStatusActivated {
		if err := w.Deactivate(ctx, DeactivateMessageCommand{MessageID: cmd.MessageID, UserID: cmd.UserID}); err != nil {
			return err
		}
	}

	return w.message.Delete(ctx, cmd)
}

func (w *campaignWorkflow) nextSend(msg *model.Message, now time.Time) (time.Time, error) {
	spec, err := schedule.ParseCron(msg.CronSpec)
	if err != nil {
		return time.Time{}, NewServiceError(constants.ErrCodeMissingSchedule, err)
	}

	if !spec.Recurring() {
		if msg.SendAt == nil {
			return time.Time{}, NewServiceError(constants.ErrCodeMissingSchedule, errors.New("one-time schedule missing send time"))
		}

		at := *msg.SendAt
		if at.Before(now.Add(schedule.MinLead)) {
			return time.Time{}, NewServiceError(constants.ErrCodeScheduleTooSoon, schedule.ErrTooSoon)
		}
		if at.After(now.Add(schedule.MaxAhead)) {
			return time.Time{}, NewServiceError(constants.ErrCodeScheduleTooFar, schedule.ErrTooFar)
		}

		return at, nil
	}

	clock, err := schedule.ClockFromHour24(spec.Hour, spec.Minute)
	if err != nil {
		return time.Time{}, NewServiceError(constants.ErrCodeMissingSchedule, err)
	}

	at, err := schedule.NextMonthly(schedule.Monthly{
		Day:   spec.Day,
		Clock: clock,
		Start: msg.StartDate,
		End:   msg.EndDate,
	}, now)
	if err != nil {
		return time.Time{}, mapScheduleError(err)
	}

	return at, nil
}

func (w *campaignWorkflow) compensate(ctx context.Context, msg *model.Message, amount int64) {
	refundCmd := RefundCreditsCommand{
		UserID:    msg.UserID,
		MessageID: msg.ID,
		Amount:    amount,
		Reason:    "activation compensation",
	}

	if _, err := w.ledger.Refund(ctx, refundCmd); err != nil {
		w.logger.Error("CRITICAL: reservation held without schedule - manual intervention required",
			zap.String("messageID", msg.ID),
			zap.Error(err))
	}
}
