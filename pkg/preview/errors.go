package preview

import "errors"

const (
	ErrCodeUserNotFound = "USER_NOT_FOUND"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeServerError  = "SERVER_ERROR"
)

var (
	ErrUserNotFound = errors.New(ErrCodeUserNotFound)
	ErrTimeout      = errors.New(ErrCodeTimeout)
	ErrServerError  = errors.New(ErrCodeServerError)
)

var statusErrorMap = map[int]error{
	404: ErrUserNotFound,
}

func MapStatusToError(statusCode int) error {
	if err, exists := statusErrorMap[statusCode]; exists {
		return err
	}

	return ErrServerError
}
