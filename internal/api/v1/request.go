package v1

type SaveMessageRequest struct {
	MessageID string           `json:"message_id"`
	Title     string           `json:"title" validate:"required,max=30"`
	Body      string           `json:"body" validate:"required"`
	Purpose   string           `json:"purpose" validate:"required,oneof=CAMPAIGN MASS AUTO_NUDGE"`
	Limit     int              `json:"limit" validate:"gte=0"`
	Schedule  *ScheduleRequest `json:"schedule,omitempty"`
}

type ScheduleRequest struct {
	Kind       string `json:"kind" validate:"required,oneof=ONE_TIME MONTHLY"`
	Year       int    `json:"year,omitempty"`
	Month      int    `json:"month,omitempty" validate:"omitempty,gte=1,lte=12"`
	Day        int    `json:"day,omitempty" validate:"omitempty,gte=1,lte=31"`
	DayOfMonth int    `json:"day_of_month,omitempty" validate:"omitempty,gte=1,lte=31"`
	Hour       int    `json:"hour" validate:"gte=1,lte=12"`
	Minute     int    `json:"minute" validate:"gte=0,lte=59"`
	Meridiem   string `json:"meridiem" validate:"required,oneof=AM PM"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
}

type SelectRecipientsRequest struct {
	Clients []ClientEntry `json:"clients" validate:"required,min=1,dive"`
}

type ClientEntry struct {
	Phone string `json:"phone" validate:"required,len=10,numeric"`
	Name  string `json:"name,omitempty"`
}

type DeselectRecipientsRequest struct {
	Phones []string `json:"phones" validate:"required,min=1,dive,len=10,numeric"`
}

type AddCustomRecipientRequest struct {
	Phone string `json:"phone" validate:"required"`
	Name  string `json:"name,omitempty"`
}

type TestSendRequest struct {
	Phone string `json:"phone" validate:"required"`
}
