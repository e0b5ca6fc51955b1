package service

import (
	"context"
	"errors"

	"github.com/clipline/sms-campaigns/internal/constants"
	"github.com/clipline/sms-campaigns/pkg/contentcheck"
	"go.uber.org/zap"
)

// ValidationService runs the content gate. The length precondition is
// checked locally and never reaches the network; a denial from the backend
// is a normal outcome, not an error. Approval alone does not arm the
// message, activation stays a separate explicit step.
type ValidationService interface {
	Validate(ctx context.Context, cmd ValidateMessageCommand) (ValidateMessageResponse, error)
}

type validation struct {
	message MessageService
	checker contentcheck.Checker
	logger  *zap.Logger
}

func NewValidationService(message MessageService, checker contentcheck.Checker, logger *zap.Logger) ValidationService {
	return &validation{message: message, checker: checker, logger: logger}
}

func (v *validation) Validate(ctx context.Context, cmd ValidateMessageCommand) (ValidateMessageResponse, error) {
	msg, err := v.message.GetOwned(ctx, cmd.MessageID, cmd.UserID)
	if err != nil {
		return ValidateMessageResponse{}, err
	}

	if err := ensureMutable(msg); err != nil {
		return ValidateMessageResponse{}, err
	}

	if len(msg.Body) < MinBodyLength {
		return ValidateMessageResponse{}, NewServiceError(constants.ErrCodeMessageTooShort, errors.New("body too short"))
	}
	if len(msg.Body) > MaxBodyLength {
		return ValidateMessageResponse{}, NewServiceError(constants.ErrCodeMessageTooLong, errors.New("body too long"))
	}

	result, err := v.checker.Verify(ctx, msg.Body)
	if err != nil {
		v.logger.Error("Content check call failed",
			zap.Error(err),
			zap.String("messageID", msg.ID))
		return ValidateMessageResponse{}, NewServiceError(ErrCodeContentCheckError, err)
	}

	if err := v.message.ApplyValidationResult(ctx, msg, result.Approved, result.Reason); err != nil {
		return ValidateMessageResponse{}, err
	}

	if result.Approved {
		v.logger.Info("Message content approved", zap.String("messageID", msg.ID))
	} else {
		v.logger.Info("Message content denied",
			zap.String("messageID", msg.ID),
			zap.String("reason", result.Reason))
	}

	return ValidateMessageResponse{Approved: result.Approved, Reason: result.Reason}, nil
}
