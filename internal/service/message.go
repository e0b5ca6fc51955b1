package service

import (
	"context"
	"errors"
	"time"

	"github.com/clipline/sms-campaigns/internal/constants"
	"github.com/clipline/sms-campaigns/internal/model"
	"github.com/clipline/sms-campaigns/internal/repository"
	"github.com/clipline/sms-campaigns/internal/schedule"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MinBodyLength  = 100
	MaxBodyLength  = 240
	MaxTitleLength = 30
)

type MessageService interface {
	GetOwned(ctx context.Context, messageID, userID string) (*model.Message, error)
	List(ctx context.Context, query GetMessagesQuery) (GetMessagesResponse, error)
	PersistDraft(ctx context.Context, cmd SaveMessageCommand) (*model.Message, error)
	SaveOverrides(ctx context.Context, msg *model.Message) error
	ApplyValidationResult(ctx context.Context, msg *model.Message, approved bool, reason string) error
	Delete(ctx context.Context, cmd DeleteMessageCommand) error
}

type message struct {
	messageRepo repository.MessageRepository
	logger      *zap.Logger
	now         func() time.Time
}

func NewMessageService(messageRepo repository.MessageRepository, logger *zap.Logger) MessageService {
	return &message{messageRepo: messageRepo, logger: logger, now: time.Now}
}

func (m *message) GetOwned(ctx context.Context, messageID, userID string) (*model.Message, error) {
	msg, err := m.messageRepo.GetByID(messageID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return nil, NewServiceError(constants.ErrCodeMessageNotFound, err)
		}

		return nil, NewServiceError(ErrCodeDatabase, err)
	}

	if msg.UserID != userID || msg.ArchivedAt != nil {
		return nil, NewServiceError(constants.ErrCodeMessageNotFound, repository.ErrMessageNotFound)
	}

	return msg, nil
}

func (m *message) List(ctx context.Context, query GetMessagesQuery) (GetMessagesResponse, error) {
	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	messages, err := m.messageRepo.GetByUserID(query.UserID, query.Purpose, limit, query.Offset)
	if err != nil {
		m.logger.Error("Failed to list messages",
			zap.Error(err),
			zap.String("userID", query.UserID))
		return GetMessagesResponse{}, NewServiceError(ErrCodeDatabase, err)
	}

	total, err := m.messageRepo.CountByUserID(query.UserID, query.Purpose)
	if err != nil {
		return GetMessagesResponse{}, NewServiceError(ErrCodeDatabase, err)
	}

	views := make([]MessageView, 0, len(messages))
	for i := range messages {
		views = append(views, toView(&messages[i]))
	}

	return GetMessagesResponse{Messages: views, Total: total}, nil
}

// PersistDraft creates or updates the draft fields of a message. A changed
// body always voids the previous validation result, DENIED included; the
// user gets a fresh chance with the new text.
func (m *message) PersistDraft(ctx context.Context, cmd SaveMessageCommand) (*model.Message, error) {
	if len(cmd.Body) < MinBodyLength {
		return nil, NewServiceError(constants.ErrCodeMessageTooShort, errors.New("body too short"))
	}
	if len(cmd.Body) > MaxBodyLength {
		return nil, NewServiceError(constants.ErrCodeMessageTooLong, errors.New("body too long"))
	}

	title := cmd.Title
	if len(title) > MaxTitleLength {
		title = title[:MaxTitleLength]
	}

	if cmd.MessageID == "" {
		return m.create(ctx, cmd, title)
	}

	msg, err := m.GetOwned(ctx, cmd.MessageID, cmd.UserID)
	if err != nil {
		return nil, err
	}

	if err := ensureMutable(msg); err != nil {
		return nil, err
	}

	if msg.Body != cmd.Body {
		msg.IsValidated = false
		msg.ValidationStatus = model.ValidationStatusDraft
		msg.ValidationReason = nil
		if msg.Status == model.MessageStatusValidated {
			msg.Status = model.MessageStatusDraft
		}
	}

	// Editing a finished recurring message returns it to draft for the
	// next period.
	if msg.Status == model.MessageStatusFinished && msg.Recurring() {
		msg.Status = model.MessageStatusDraft
		msg.Enabled = false
		msg.ValidationStatus = model.ValidationStatusDraft
		msg.IsValidated = false
	}

	purposeChanged := msg.Purpose != cmd.Purpose

	msg.Title = title
	msg.Body = cmd.Body
	msg.Purpose = cmd.Purpose
	msg.ClientLimit = cmd.Limit

	if cmd.Schedule != nil {
		if err := m.applySchedule(msg, cmd.Schedule); err != nil {
			return nil, err
		}
	}

	msg.UpdatedAt = m.now()
	if err := m.messageRepo.Save(ctx, msg); err != nil {
		m.logger.Error("Failed to save message",
			zap.Error(err),
			zap.String("messageID", msg.ID))
		return nil, NewServiceError(ErrCodeDatabase, err)
	}

	if purposeChanged {
		m.logger.Info("Message purpose changed, previous recipient counts are stale",
			zap.String("messageID", msg.ID),
			zap.String("purpose", string(cmd.Purpose)))
	}

	return msg, nil
}

func (m *message) create(ctx context.Context, cmd SaveMessageCommand, title string) (*model.Message, error) {
	now := m.now()
	msg := &model.Message{
		ID:               uuid.NewString(),
		UserID:           cmd.UserID,
		Title:            title,
		Body:             cmd.Body,
		Purpose:          cmd.Purpose,
		Status:           model.MessageStatusDraft,
		ValidationStatus: model.ValidationStatusDraft,
		ClientLimit:      cmd.Limit,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if cmd.Schedule != nil {
		if err := m.applySchedule(msg, cmd.Schedule); err != nil {
			return nil, err
		}
	}

	if err := m.messageRepo.Create(ctx, msg); err != nil {
		m.logger.Error("Failed to create message", zap.Error(err))
		return nil, NewServiceError(ErrCodeDatabase, err)
	}

	m.logger.Info("Message draft created",
		zap.String("messageID", msg.ID),
		zap.String("purpose", string(msg.Purpose)))

	return msg, nil
}

func (m *message) applySchedule(msg *model.Message, in *ScheduleInput) error {
	clock := schedule.ClockTime{Hour: in.Hour, Minute: in.Minute, Meridiem: schedule.Meridiem(in.Meridiem)}

	switch in.Kind {
	case model.ScheduleKindOneTime:
		at, err := schedule.ResolveOneTime(schedule.OneTime{
			Year:  in.Year,
			Month: in.Month,
			Day:   in.Day,
			Clock: clock,
		}, m.now())
		if err != nil {
			return mapScheduleError(err)
		}

		msg.ScheduleKind = model.ScheduleKindOneTime
		msg.SendAt = &at
		msg.CronSpec = schedule.OneTimeCron(at)
		msg.StartDate = nil
		msg.EndDate = nil

	case model.ScheduleKindMonthly:
		hour24, err := clock.Hour24()
		if err != nil {
			return mapScheduleError(err)
		}
		if in.DayOfMonth < 1 || in.DayOfMonth > 31 {
			return mapScheduleError(schedule.ErrInvalidDay)
		}

		msg.ScheduleKind = model.ScheduleKindMonthly
		msg.CronSpec = schedule.MonthlyCron(in.DayOfMonth, hour24, clock.Minute)
		msg.SendAt = nil
		msg.StartDate = in.StartDate
		msg.EndDate = in.EndDate

	default:
		return NewServiceError(constants.ErrCodeMissingSchedule, errors.New("unknown schedule kind"))
	}

	return nil
}

// SaveOverrides persists an already-loaded message after an override or
// limit change without touching the draft-edit rules.
func (m *message) SaveOverrides(ctx context.Context, msg *model.Message) error {
	msg.UpdatedAt = m.now()
	if err := m.messageRepo.Save(ctx, msg); err != nil {
		m.logger.Error("Failed to save recipient overrides",
			zap.Error(err),
			zap.String("messageID", msg.ID))
		return NewServiceError(ErrCodeDatabase, err)
	}

	return nil
}

func (m *message) ApplyValidationResult(ctx context.Context, msg *model.Message, approved bool, reason string) error {
	if approved {
		msg.IsValidated = true
		msg.ValidationStatus = model.ValidationStatusAccepted
		msg.ValidationReason = nil
		if msg.Status == model.MessageStatusDraft {
			msg.Status = model.MessageStatusValidated
		}
	} else {
		msg.IsValidated = false
		msg.ValidationStatus = model.ValidationStatusDenied
		msg.ValidationReason = &reason
		if msg.Status == model.MessageStatusValidated {
			msg.Status = model.MessageStatusDraft
		}
	}

	msg.UpdatedAt = m.now()
	if err := m.messageRepo.Save(ctx, msg); err != nil {
		m.logger.Error("Failed to store validation result",
			zap.Error(err),
			zap.String("messageID", msg.ID))
		return NewServiceError(ErrCodeDatabase, err)
	}

	return nil
}

// Delete archives messages that ever ran and hard-deletes ones that never
// did. The choice is automatic, never user-selectable.
func (m *message) Delete(ctx context.Context, cmd DeleteMessageCommand) error {
	msg, err := m.GetOwned(ctx, cmd.MessageID, cmd.UserID)
	if err != nil {
		return err
	}

	if msg.Status == model.MessageStatusSending {
		return NewServiceError(constants.ErrCodeMessageLocked, ErrMessageLocked)
	}

	everRan := msg.LastActivatedAt != nil || msg.Status == model.MessageStatusFinished

	if everRan {
		if err := m.messageRepo.Archive(ctx, msg.ID, m.now()); err != nil {
			m.logger.Error("Failed to archive message",
				zap.Error(err),
				zap.String("messageID", msg.ID))
			return NewServiceError(ErrCodeDatabase, err)
		}

		m.logger.Info("Message archived", zap.String("messageID", msg.ID))
		return nil
	}

	if err := m.messageRepo.HardDelete(ctx, msg.ID); err != nil {
		m.logger.Error("Failed to delete message",
			zap.Error(err),
			zap.String("messageID", msg.ID))
		return NewServiceError(ErrCodeDatabase, err)
	}

	m.logger.Info("Message deleted", zap.String("messageID", msg.ID))
	return nil
}

func mapScheduleError(err error) error {
	switch {
	case errors.Is(err, schedule.ErrTooSoon):
		return NewServiceError(constants.ErrCodeScheduleTooSoon, err)
	case errors.Is(err, schedule.ErrTooFar):
		return NewServiceError(constants.ErrCodeScheduleTooFar, err)
	case errors.Is(err, schedule.ErrInvalidDay), errors.Is(err, schedule.ErrInvalidClock):
		return NewServiceError(constants.ErrCodeMissingSchedule, err)
	case errors.Is(err, schedule.ErrOutsideWindow):
		return NewServiceError(constants.ErrCodeScheduleTooFar, err)
	default:
		return NewServiceError(constants.ErrCodeMissingSchedule, err)
	}
}

func toView(msg *model.Message) MessageView {
	view := MessageView{
		MessageID:        msg.ID,
		Title:            msg.Title,
		Body:             msg.Body,
		Purpose:          string(msg.Purpose),
		Status:           string(msg.Status),
		ValidationStatus: string(msg.ValidationStatus),
		Enabled:          msg.Enabled,
		ClientLimit:      msg.ClientLimit,
		CronSpec:         msg.CronSpec,
		CreatedAt:        msg.CreatedAt.Format(time.RFC3339),
	}
	if msg.ValidationReason != nil {
		view.ValidationReason = *msg.ValidationReason
	}
	if msg.SendAt != nil {
		view.SendAt = msg.SendAt.Format(time.RFC3339)
	}
	return view
}
