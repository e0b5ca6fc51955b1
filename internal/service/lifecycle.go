package service

import (
	"errors"
	"time"

	"github.com/clipline/sms-campaigns/internal/constants"
	"github.com/clipline/sms-campaigns/internal/model"
	"github.com/clipline/sms-campaigns/internal/schedule"
)

// Lock semantics: SENDING is a full lock, nothing mutates until the
// dispatcher reports the run over. FINISHED is terminal for one-time
// messages; for recurring ones it is a partial lock, editable as a draft
// but not re-activatable until the next period begins.

func ensureMutable(msg *model.Message) error {
	switch msg.Status {
	case model.MessageStatusSending:
		return NewServiceError(constants.ErrCodeMessageLocked, ErrMessageLocked)

	case model.MessageStatusFinished:
		if !msg.Recurring() {
			return NewServiceError(constants.ErrCodeMessageFinished, errors.New("one-time message already finished"))
		}
		return nil

	default:
		return nil
	}
}

func ensureActivatable(msg *model.Message, now time.Time) error {
	if msg.Status == model.MessageStatusSending {
		return NewServiceError(constants.ErrCodeMessageLocked, ErrMessageLocked)
	}

	if msg.Status == model.MessageStatusFinished {
		if !msg.Recurring() {
			return NewServiceError(constants.ErrCodeMessageFinished, errors.New("one-time message already finished"))
		}
		// Partial lock: blocked until the finished run's period rolls over.
		if msg.FinishedAt != nil && !periodRolledOver(msg, now) {
			return NewServiceError(constants.ErrCodeMessageFinished, errors.New("recurring message locked until next period"))
		}
	}

	if !msg.IsValidated || msg.ValidationStatus != model.ValidationStatusAccepted {
		return NewServiceError(constants.ErrCodeNotValidated, errors.New("content not approved"))
	}

	if msg.CronSpec == "" {
		return NewServiceError(constants.ErrCodeMissingSchedule, errors.New("schedule not set"))
	}

	return nil
}

// periodRolledOver reports whether the next scheduling period has begun
// since a recurring run finished. Periods are calendar months.
func periodRolledOver(msg *model.Message, now time.Time) bool {
	spec, err := schedule.ParseCron(msg.CronSpec)
	if err != nil || !spec.Recurring() {
		return false
	}

	finished := *msg.FinishedAt
	rollover := time.Date(finished.Year(), finished.Month()+1, 1, 0, 0, 0, 0, finished.Location())

	return !now.Before(rollover)
}
