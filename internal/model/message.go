package model

import "time"

type MessageStatus string

const (
	MessageStatusDraft     MessageStatus = "DRAFT"
	MessageStatusValidated MessageStatus = "VALIDATED"
	MessageStatusActivated MessageStatus = "ACTIVATED"
	MessageStatusSending   MessageStatus = "SENDING"
	MessageStatusFinished  MessageStatus = "FINISHED"
)

type MessagePurpose string

const (
	PurposeCampaign  MessagePurpose = "CAMPAIGN"
	PurposeMass      MessagePurpose = "MASS"
	PurposeAutoNudge MessagePurpose = "AUTO_NUDGE"
)

type ValidationStatus string

const (
	ValidationStatusDraft    ValidationStatus = "DRAFT"
	ValidationStatusAccepted ValidationStatus = "ACCEPTED"
	ValidationStatusDenied   ValidationStatus = "DENIED"
)

type ScheduleKind string

const (
	ScheduleKindOneTime ScheduleKind = "ONE_TIME"
	ScheduleKindMonthly ScheduleKind = "MONTHLY"
)

// SelectedClient is a recipient pinned into a message regardless of ranking.
// Custom entries are one-time numbers with no backing candidate record.
type SelectedClient struct {
	Phone  string `json:"phone"`
	Name   string `json:"name,omitempty"`
	Custom bool   `json:"custom,omitempty"`
}

type Message struct {
	ID               string           `gorm:"primaryKey;column:id;type:varchar(36);<-:create"`
	UserID           string           `gorm:"column:user_id;index"`
	Title            string           `gorm:"column:title;type:varchar(30)"`
	Body             string           `gorm:"column:body;type:text"`
	Purpose          MessagePurpose   `gorm:"column:purpose"`
	Status           MessageStatus    `gorm:"column:status"`
	IsValidated      bool             `gorm:"column:is_validated"`
	ValidationStatus ValidationStatus `gorm:"column:validation_status"`
	ValidationReason *string          `gorm:"column:validation_reason"`
	Enabled          bool             `gorm:"column:enabled"`
	ClientLimit      int              `gorm:"column:client_limit"`
	ReservedCredits  int64            `gorm:"column:reserved_credits"`
	ScheduleKind     ScheduleKind     `gorm:"column:schedule_kind"`
	CronSpec         string           `gorm:"column:cron_spec"`
	SendAt           *time.Time       `gorm:"column:send_at"`
	StartDate        *time.Time       `gorm:"column:start_date"`
	EndDate          *time.Time       `gorm:"column:end_date"`
	SelectedClients  []SelectedClient `gorm:"column:selected_clients;serializer:json"`
	DeselectedPhones []string         `gorm:"column:deselected_clients;serializer:json"`
	LastActivatedAt  *time.Time       `gorm:"column:last_activated_at"`
	FinishedAt       *time.Time       `gorm:"column:finished_at"`
	ArchivedAt       *time.Time       `gorm:"column:archived_at"`
	CreatedAt        time.Time        `gorm:"column:created_at"`
	UpdatedAt        time.Time        `gorm:"column:updated_at"`
}

// Recurring messages unlock again once the next period begins; one-time
// messages never leave FINISHED.
func (m *Message) Recurring() bool {
	return m.ScheduleKind == ScheduleKindMonthly
}
