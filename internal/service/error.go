package service

import "errors"

const (
	ErrCodeDispatchTimeout      = "DISPATCH_TIMEOUT"
	ErrCodeDispatchServiceError = "DISPATCH_SERVICE_ERROR"
	ErrCodeContentCheckError    = "CONTENT_CHECK_ERROR"
	ErrCodePreviewServiceError  = "PREVIEW_SERVICE_ERROR"
	ErrCodeDatabase             = "DATABASE_ERROR"
)

var (
	ErrMessageNotFound = errors.New("MESSAGE_NOT_FOUND")
	ErrMessageLocked   = errors.New("MESSAGE_LOCKED")
	ErrDatabase        = errors.New("DATABASE_ERROR")
)

type Error struct {
	Code  string
	Cause error
}

func NewServiceError(code string, cause error) error {
	return Error{Code: code, Cause: cause}
}

func (e Error) Error() string {
	return e.Cause.Error()
}

func (e Error) Unwrap() error {
	return e.Cause
}
