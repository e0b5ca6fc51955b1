package service

import "github.com/clipline/sms-campaigns/internal/model"

type SaveMessageResponse struct {
	MessageID string `json:"message_id"`
}

type GetMessagesResponse struct {
	Messages []MessageView `json:"messages"`
	Total    int           `json:"total"`
}

type MessageView struct {
	MessageID        string `json:"message_id"`
	Title            string `json:"title"`
	Body             string `json:"body"`
	Purpose          string `json:"purpose"`
	Status           string `json:"status"`
	ValidationStatus string `json:"validation_status"`
	ValidationReason string `json:"validation_reason,omitempty"`
	Enabled          bool   `json:"enabled"`
	ClientLimit      int    `json:"client_limit"`
	CronSpec         string `json:"cron_spec,omitempty"`
	SendAt           string `json:"send_at,omitempty"`
	CreatedAt        string `json:"created_at"`
}

type ValidateMessageResponse struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

type ActivateMessageResponse struct {
	MessageID string `json:"message_id"`
	Reserved  int64  `json:"reserved"`
	SendAt    string `json:"send_at"`
}

type ResolveResponse struct {
	Recipients []model.SelectedClient `json:"recipients"`
	Count      int                    `json:"count"`
	Eligible   int                    `json:"eligible"`
	Limit      int                    `json:"limit"`
	Available  int64                  `json:"available"`
	Stats      PreviewStats           `json:"stats"`
}

type PreviewStats struct {
	Total        int            `json:"total"`
	Breakdown    map[string]int `json:"breakdown"`
	AverageScore float64        `json:"average_score"`
	MaxClient    int            `json:"max_client"`
}

type BalanceResponse struct {
	Available int64 `json:"available"`
	Reserved  int64 `json:"reserved"`
}

type CreditTxView struct {
	Kind         string `json:"kind"`
	Amount       int64  `json:"amount"`
	MessageID    string `json:"message_id,omitempty"`
	OldAvailable int64  `json:"old_available"`
	NewAvailable int64  `json:"new_available"`
	OldReserved  int64  `json:"old_reserved"`
	NewReserved  int64  `json:"new_reserved"`
	Reason       string `json:"reason,omitempty"`
	CreatedAt    string `json:"created_at"`
}

type ProgressView struct {
	MessageID  string `json:"message_id"`
	Status     string `json:"status"`
	IsActive   bool   `json:"is_active"`
	IsFinished bool   `json:"is_finished"`
	Success    int    `json:"success"`
	Fail       int    `json:"fail"`
	Total      int    `json:"total"`
}

type TestSendResponse struct {
	Queued      bool  `json:"queued"`
	FreeRemains int64 `json:"free_remaining"`
	Charged     bool  `json:"charged"`
}
