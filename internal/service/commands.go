package service

import (
	"time"

	"github.com/clipline/sms-campaigns/internal/model"
)

type SaveMessageCommand struct {
	MessageID string
	UserID    string
	Title     string
	Body      string
	Purpose   model.MessagePurpose
	Limit     int
	Schedule  *ScheduleInput
}

// ScheduleInput carries the user-edited 12-hour form. Kind decides which
// fields apply.
type ScheduleInput struct {
	Kind       model.ScheduleKind
	Year       int
	Month      time.Month
	Day        int
	DayOfMonth int
	Hour       int
	Minute     int
	Meridiem   string
	StartDate  *time.Time
	EndDate    *time.Time
}

type GetMessagesQuery struct {
	UserID  string
	Purpose model.MessagePurpose
	Limit   int
	Offset  int
}

type ValidateMessageCommand struct {
	MessageID string
	UserID    string
}

type ActivateMessageCommand struct {
	MessageID string
	UserID    string
}

type DeactivateMessageCommand struct {
	MessageID string
	UserID    string
}

type DeleteMessageCommand struct {
	MessageID string
	UserID    string
}

type SelectRecipientsCommand struct {
	MessageID string
	UserID    string
	Entries   []model.SelectedClient
}

type DeselectRecipientsCommand struct {
	MessageID string
	UserID    string
	Phones    []string
}

type AddCustomRecipientCommand struct {
	MessageID string
	UserID    string
	Phone     string
	Name      string
}

type PreviewQuery struct {
	MessageID string
	UserID    string
}

type ReserveCreditsCommand struct {
	UserID    string
	MessageID string
	Amount    int64
}

type RefundCreditsCommand struct {
	UserID    string
	MessageID string
	Amount    int64
	Reason    string
}

type SpendCreditsCommand struct {
	UserID    string
	MessageID *string
	Amount    int64
	Reason    string
}

type TestSendCommand struct {
	MessageID string
	UserID    string
	Phone     string
}

type DeliverTestSendCommand struct {
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
	Phone     string `json:"phone"`
	Text      string `json:"text"`
}
