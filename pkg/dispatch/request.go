package dispatch

type RegisterScheduleRequest struct {
	MessageID  string `json:"message_id"`
	UserID     string `json:"user_id"`
	CronSpec   string `json:"cron_spec"`
	SendAt     string `json:"send_at,omitempty"`
	Recurring  bool   `json:"recurring"`
	Recipients int    `json:"recipients"`
}

type CancelScheduleRequest struct {
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
}

type TestSendRequest struct {
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
	Phone     string `json:"phone"`
	Text      string `json:"text"`
}
