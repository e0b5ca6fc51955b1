package v1

import (
	"time"

	"github.com/clipline/sms-campaigns/internal/constants"
	"github.com/clipline/sms-campaigns/internal/middleware"
	"github.com/clipline/sms-campaigns/internal/model"
	"github.com/clipline/sms-campaigns/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type Handler struct {
	logger     *zap.Logger
	workflow   service.CampaignWorkflowService
	messages   service.MessageService
	validation service.ValidationService
	recipients service.RecipientService
	ledger     service.LedgerService
	progress   service.ProgressService
	testSend   service.TestSendService
	validate   *validator.Validate
}

func NewHandler(logger *zap.Logger, workflow service.CampaignWorkflowService, messages service.MessageService,
	validation service.ValidationService, recipients service.RecipientService, ledger service.LedgerService,
	progress service.ProgressService, testSend service.TestSendService) *Handler {
	return &Handler{
		logger:     logger,
		workflow:   workflow,
		messages:   messages,
		validation: validation,
		recipients: recipients,
		ledger:     ledger,
		progress:   progress,
		testSend:   testSend,
		validate:   validator.New(),
	}
}

func (h *Handler) Pong(c *fiber.Ctx) error {
	return c.SendString("pong")
}

func (h *Handler) GetMessages(c *fiber.Ctx) error {
	ctx := c.UserContext()

	query := service.GetMessagesQuery{
		UserID:  middleware.UserID(c),
		Purpose: model.MessagePurpose(c.Query("purpose")),
		Limit:   c.QueryInt("limit", 20),
		Offset:  c.QueryInt("offset", 0),
	}

	resp, err := h.messages.List(ctx, query)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

func (h *Handler) SaveMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var request SaveMessageRequest
	if err := h.parseBody(c, &request); err != nil {
		return err
	}

	cmd := service.SaveMessageCommand{
		MessageID: request.MessageID,
		UserID:    middleware.UserID(c),
		Title:     request.Title,
		Body:      request.Body,
		Purpose:   model.MessagePurpose(request.Purpose),
		Limit:     request.Limit,
	}

	if request.Schedule != nil {
		schedule, err := toScheduleInput(request.Schedule)
		if err != nil {
			h.logger.Warn("Invalid schedule dates", zap.Error(err))
			return badRequest(c)
		}
		cmd.Schedule = schedule
	}

	resp, err := h.workflow.Save(ctx, cmd)
	if err != nil {
		h.logger.Error("Failed to save message",
			zap.Error(err),
			zap.String("messageID", request.MessageID))
		return err
	}

	h.logger.Info("Message saved", zap.String("messageID", resp.MessageID))

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *Handler) DeleteMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	cmd := service.DeleteMessageCommand{MessageID: c.Params("id"), UserID: middleware.UserID(c)}
	if err := h.workflow.Delete(ctx, cmd); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) ValidateMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	cmd := service.ValidateMessageCommand{MessageID: c.Params("id"), UserID: middleware.UserID(c)}
	resp, err := h.validation.Validate(ctx, cmd)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

func (h *Handler) ActivateMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	cmd := service.ActivateMessageCommand{MessageID: c.Params("id"), UserID: middleware.UserID(c)}
	resp, err := h.workflow.Activate(ctx, cmd)
	if err != nil {
		h.logger.Error("Failed to activate message",
			zap.Error(err),
			zap.String("messageID", cmd.MessageID))
		return err
	}

	h.logger.Info("Message activated",
		zap.String("messageID", resp.MessageID),
		zap.Int64("reserved", resp.Reserved))

	return c.JSON(resp)
}

func (h *Handler) DeactivateMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	cmd := service.DeactivateMessageCommand{MessageID: c.Params("id"), UserID: middleware.UserID(c)}
	if err := h.workflow.Deactivate(ctx, cmd); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) GetRecipients(c *fiber.Ctx) error {
	ctx := c.UserContext()

	query := service.PreviewQuery{MessageID: c.Params("id"), UserID: middleware.UserID(c)}
	resp, err := h.recipients.Resolve(ctx, query)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

func (h *Handler) SelectRecipients(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var request SelectRecipientsRequest
	if err := h.parseBody(c, &request); err != nil {
		return err
	}

	entries := make([]model.SelectedClient, 0, len(request.Clients))
	for _, client := range request.Clients {
		entries = append(entries, model.SelectedClient{Phone: client.Phone, Name: client.Name})
	}

	cmd := service.SelectRecipientsCommand{
		MessageID: c.Params("id"),
		UserID:    middleware.UserID(c),
		Entries:   entries,
	}

	resp, err := h.recipients.Select(ctx, cmd)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

func (h *Handler) DeselectRecipients(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var request DeselectRecipientsRequest
	if err := h.parseBody(c, &request); err != nil {
		return err
	}

	cmd := service.DeselectRecipientsCommand{
		MessageID: c.Params("id"),
		UserID:    middleware.UserID(c),
		Phones:    request.Phones,
	}

	resp, err := h.recipients.Deselect(ctx, cmd)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

func (h *Handler) AddCustomRecipient(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var request AddCustomRecipientRequest
	if err := h.parseBody(c, &request); err != nil {
		return err
	}

	cmd := service.AddCustomRecipientCommand{
		MessageID: c.Params("id"),
		UserID:    middleware.UserID(c),
		Phone:     request.Phone,
		Name:      request.Name,
	}

	resp, err := h.recipients.AddCustom(ctx, cmd)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

func (h *Handler) ResetRecipients(c *fiber.Ctx) error {
	ctx := c.UserContext()

	cmd := service.DeselectRecipientsCommand{MessageID: c.Params("id"), UserID: middleware.UserID(c)}
	resp, err := h.recipients.Reset(ctx, cmd)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

func (h *Handler) TestSendMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var request TestSendRequest
	if err := h.parseBody(c, &request); err != nil {
		return err
	}

	cmd := service.TestSendCommand{
		MessageID: c.Params("id"),
		UserID:    middleware.UserID(c),
		Phone:     request.Phone,
	}

	resp, err := h.testSend.Request(ctx, cmd)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(resp)
}

func (h *Handler) GetProgress(c *fiber.Ctx) error {
	ctx := c.UserContext()

	views, err := h.progress.GetForUser(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"progress": views})
}

func (h *Handler) GetBalance(c *fiber.Ctx) error {
	ctx := c.UserContext()

	resp, err := h.ledger.Balance(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

func (h *Handler) GetTransactions(c *fiber.Ctx) error {
	ctx := c.UserContext()

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	views, err := h.ledger.Transactions(ctx, middleware.UserID(c), limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"transactions": views})
}

func (h *Handler) parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		h.logger.Warn("Failed to parse body",
			zap.Error(err),
			zap.String("body", string(c.Body())))
		return badRequest(c)
	}

	if err := h.validate.Struct(out); err != nil {
		h.logger.Warn("Request validation failed", zap.Error(err))
		return badRequest(c)
	}

	return nil
}

func badRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"code":    constants.ErrCodeInvalidRequestBody,
		"message": constants.GetErrorMessage(constants.ErrCodeInvalidRequestBody),
	})
}

func toScheduleInput(request *ScheduleRequest) (*service.ScheduleInput, error) {
	input := &service.ScheduleInput{
		Kind:       model.ScheduleKind(request.Kind),
		Year:       request.Year,
		Month:      time.Month(request.Month),
		Day:        request.Day,
		DayOfMonth: request.DayOfMonth,
		Hour:       request.Hour,
		Minute:     request.Minute,
		Meridiem:   request.Meridiem,
	}

	if request.StartDate != "" {
		start, err := time.Parse(dateLayout, request.StartDate)
		if err != nil {
			return nil, err
		}
		input.StartDate = &start
	}

	if request.EndDate != "" {
		end, err := time.Parse(dateLayout, request.EndDate)
		if err != nil {
			return nil, err
		}
		input.EndDate = &end
	}

	return input, nil
}
