package dispatch

import "errors"

const (
	StatusOK                  = 200
	StatusNotFound            = 404
	StatusUnprocessableEntity = 422
	StatusConflict            = 409
)

const (
	ErrCodeScheduleNotFound  = "SCHEDULE_NOT_FOUND"
	ErrCodeMaxDelayExceeded  = "MAX_DELAY_EXCEEDED"
	ErrCodeAlreadyDispatched = "ALREADY_DISPATCHED"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeServerError       = "SERVER_ERROR"
)

var (
	ErrScheduleNotFound  = errors.New(ErrCodeScheduleNotFound)
	ErrMaxDelayExceeded  = errors.New(ErrCodeMaxDelayExceeded)
	ErrAlreadyDispatched = errors.New(ErrCodeAlreadyDispatched)
	ErrTimeout           = errors.New(ErrCodeTimeout)
	ErrServerError       = errors.New(ErrCodeServerError)
)

var statusErrorMap = map[int]error{
	StatusNotFound:            ErrScheduleNotFound,
	StatusUnprocessableEntity: ErrMaxDelayExceeded,
	StatusConflict:            ErrAlreadyDispatched,
}

func MapStatusToError(statusCode int) error {
	if err, exists := statusErrorMap[statusCode]; exists {
		return err
	}

	return ErrServerError
}
