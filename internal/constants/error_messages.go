package constants

const (
	ErrCodeMessageNotFound     = "MESSAGE_NOT_FOUND"
	ErrCodeMessageTooShort     = "MESSAGE_TOO_SHORT"
	ErrCodeMessageTooLong      = "MESSAGE_TOO_LONG"
	ErrCodeMessageNotSaved     = "MESSAGE_NOT_SAVED"
	ErrCodeMessageLocked       = "MESSAGE_LOCKED"
	ErrCodeMessageFinished     = "MESSAGE_FINISHED"
	ErrCodeNotValidated        = "NOT_VALIDATED"
	ErrCodeMissingSchedule     = "MISSING_SCHEDULE"
	ErrCodeScheduleTooSoon     = "SCHEDULE_TOO_SOON"
	ErrCodeScheduleTooFar      = "SCHEDULE_TOO_FAR"
	ErrCodeMaxDelayExceeded    = "MAX_DELAY_EXCEEDED"
	ErrCodeInsufficientCredits = "INSUFFICIENT_CREDITS"
	ErrCodeIncreaseLimit       = "INCREASE_LIMIT"
	ErrCodeInvalidPhone        = "INVALID_PHONE"
	ErrCodeDuplicateRecipient  = "DUPLICATE_RECIPIENT"
	ErrCodeAccountNotFound     = "ACCOUNT_NOT_FOUND"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeInvalidRequestBody  = "INVALID_REQUEST_BODY"
	ErrCodeMissingUser         = "MISSING_USER"
)

const (
	ErrMsgMessageNotFound     = "message not found"
	ErrMsgMessageTooShort     = "message must be at least 100 characters"
	ErrMsgMessageTooLong      = "message must be at most 240 characters"
	ErrMsgMessageNotSaved     = "save the message as a draft first"
	ErrMsgMessageLocked       = "message is currently sending and cannot be changed"
	ErrMsgMessageFinished     = "finished message cannot be changed"
	ErrMsgNotValidated        = "message content has not been approved"
	ErrMsgMissingSchedule     = "schedule is not set"
	ErrMsgScheduleTooSoon     = "schedule must be at least 5 minutes from now"
	ErrMsgScheduleTooFar      = "schedule must be within 7 days"
	ErrMsgMaxDelayExceeded    = "schedule is over the 7-day limit"
	ErrMsgInsufficientCredits = "insufficient credits"
	ErrMsgIncreaseLimit       = "increase your recipient limit to add more recipients"
	ErrMsgInvalidPhone        = "phone number must be 10 digits"
	ErrMsgDuplicateRecipient  = "recipient is already on the list"
	ErrMsgAccountNotFound     = "credit account not found"
	ErrMsgInternalError       = "Internal server error"
	ErrMsgInvalidRequestBody  = "failed to parse request body"
	ErrMsgMissingUser         = "user identity header is required"
)

var errorMessages = map[string]string{
	ErrCodeMessageNotFound:     ErrMsgMessageNotFound,
	ErrCodeMessageTooShort:     ErrMsgMessageTooShort,
	ErrCodeMessageTooLong:      ErrMsgMessageTooLong,
	ErrCodeMessageNotSaved:     ErrMsgMessageNotSaved,
	ErrCodeMessageLocked:       ErrMsgMessageLocked,
	ErrCodeMessageFinished:     ErrMsgMessageFinished,
	ErrCodeNotValidated:        ErrMsgNotValidated,
	ErrCodeMissingSchedule:     ErrMsgMissingSchedule,
	ErrCodeScheduleTooSoon:     ErrMsgScheduleTooSoon,
	ErrCodeScheduleTooFar:      ErrMsgScheduleTooFar,
	ErrCodeMaxDelayExceeded:    ErrMsgMaxDelayExceeded,
	ErrCodeInsufficientCredits: ErrMsgInsufficientCredits,
	ErrCodeIncreaseLimit:       ErrMsgIncreaseLimit,
	ErrCodeInvalidPhone:        ErrMsgInvalidPhone,
	ErrCodeDuplicateRecipient:  ErrMsgDuplicateRecipient,
	ErrCodeAccountNotFound:     ErrMsgAccountNotFound,
	ErrCodeInternalError:       ErrMsgInternalError,
	ErrCodeInvalidRequestBody:  ErrMsgInvalidRequestBody,
	ErrCodeMissingUser:         ErrMsgMissingUser,
}

func GetErrorMessage(code string) string {
	if msg, exists := errorMessages[code]; exists {
		return msg
	}
	return ErrMsgInternalError
}

func GetHTTPStatus(code string) int {
	switch code {
	case ErrCodeInvalidRequestBody, ErrCodeMessageTooShort, ErrCodeMessageTooLong,
		ErrCodeMissingSchedule, ErrCodeScheduleTooSoon, ErrCodeScheduleTooFar,
		ErrCodeInvalidPhone:
		return 400
	case ErrCodeMissingUser:
		return 401
	case ErrCodeMessageNotFound, ErrCodeAccountNotFound:
		return 404
	case ErrCodeMessageLocked, ErrCodeMessageFinished, ErrCodeInsufficientCredits,
		ErrCodeIncreaseLimit, ErrCodeDuplicateRecipient, ErrCodeNotValidated,
		ErrCodeMessageNotSaved:
		return 409
	case ErrCodeMaxDelayExceeded:
		return 422
	case ErrCodeInternalError:
		return 500
	default:
		return 500
	}
}
