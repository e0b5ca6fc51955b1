package dispatch

type RegisterScheduleResponse struct {
	Code       string `json:"code"`
	Message    string `json:"message,omitempty"`
	ScheduleID string `json:"schedule_id,omitempty"`
}

type Progress struct {
	ID         string `json:"id"`
	IsActive   bool   `json:"is_active"`
	IsFinished bool   `json:"is_finished"`
	Success    int    `json:"success"`
	Fail       int    `json:"fail"`
	Total      int    `json:"total"`
}

type ProgressResponse struct {
	Progress []Progress `json:"progress"`
}
