package service

import (
	"context"
	"errors"

	"github.com/clipline/sms-campaigns/internal/cache"
	"github.com/clipline/sms-campaigns/internal/constants"
	"github.com/clipline/sms-campaigns/internal/model"
	"github.com/clipline/sms-campaigns/internal/recipients"
	"github.com/clipline/sms-campaigns/pkg/preview"
	"go.uber.org/zap"
)

// RecipientService reconciles the backend-ranked candidate list with the
// user's manual overrides. Candidates are cached per
// (user, message, algorithm, limit); any override or draft change
// invalidates the entry so counts are recomputed from fresh state.
type RecipientService interface {
	Resolve(ctx context.Context, query PreviewQuery) (ResolveResponse, error)
	Select(ctx context.Context, cmd SelectRecipientsCommand) (ResolveResponse, error)
	Deselect(ctx context.Context, cmd DeselectRecipientsCommand) (ResolveResponse, error)
	AddCustom(ctx context.Context, cmd AddCustomRecipientCommand) (ResolveResponse, error)
	Reset(ctx context.Context, cmd DeselectRecipientsCommand) (ResolveResponse, error)
}

type recipientSvc struct {
	message  MessageService
	ledger   LedgerService
	gateway  preview.Gateway
	previews cache.PreviewCache
	logger   *zap.Logger
}

func NewRecipientService(message MessageService, ledger LedgerService, gateway preview.Gateway,
	previews cache.PreviewCache, logger *zap.Logger) RecipientService {
	return &recipientSvc{message: message, ledger: ledger, gateway: gateway, previews: previews, logger: logger}
}

func (r *recipientSvc) Resolve(ctx context.Context, query PreviewQuery) (ResolveResponse, error) {
	msg, err := r.loadSaved(ctx, query.MessageID, query.UserID)
	if err != nil {
		return ResolveResponse{}, err
	}

	return r.resolve(ctx, msg)
}

func (r *recipientSvc) Select(ctx context.Context, cmd SelectRecipientsCommand) (ResolveResponse, error) {
	msg, err := r.loadMutable(ctx, cmd.MessageID, cmd.UserID)
	if err != nil {
		return ResolveResponse{}, err
	}

	ov := recipients.Select(overridesOf(msg), cmd.Entries)

	return r.persist(ctx, msg, ov)
}

func (r *recipientSvc) Deselect(ctx context.Context, cmd DeselectRecipientsCommand) (ResolveResponse, error) {
	msg, err := r.loadMutable(ctx, cmd.MessageID, cmd.UserID)
	if err != nil {
		return ResolveResponse{}, err
	}

	ov := recipients.Deselect(overridesOf(msg), cmd.Phones)

	return r.persist(ctx, msg, ov)
}

// AddCustom attaches a one-time number outside any candidate list. A limit
// of zero auto-raises to one for the very first recipient when at least one
// credit is available; with recipients already selected the user is told to
// raise the limit instead.
func (r *recipientSvc) AddCustom(ctx context.Context, cmd AddCustomRecipientCommand) (ResolveResponse, error) {
	msg, err := r.loadMutable(ctx, cmd.MessageID, cmd.UserID)
	if err != nil {
		return ResolveResponse{}, err
	}

	if !recipients.ValidPhone(cmd.Phone) {
		return ResolveResponse{}, NewServiceError(constants.ErrCodeInvalidPhone, errors.New("invalid phone"))
	}

	candidates, _, err := r.candidates(ctx, msg)
	if err != nil {
		return ResolveResponse{}, err
	}

	ov := overridesOf(msg)
	if recipients.Contains(candidates, ov, cmd.Phone) {
		return ResolveResponse{}, NewServiceError(constants.ErrCodeDuplicateRecipient, errors.New("duplicate recipient"))
	}

	if msg.ClientLimit == 0 && msg.Purpose != model.PurposeAutoNudge {
		if len(ov.Selected) > 0 {
			return ResolveResponse{}, NewServiceError(constants.ErrCodeIncreaseLimit, errors.New("limit is zero"))
		}

		balance, err := r.ledger.Balance(ctx, cmd.UserID)
		if err != nil {
			return ResolveResponse{}, err
		}
		if balance.Available < 1 {
			return ResolveResponse{}, NewServiceError(constants.ErrCodeInsufficientCredits, errors.New("insufficient credits"))
		}

		msg.ClientLimit = 1
		r.logger.Info("Recipient limit auto-raised for first custom recipient",
			zap.String("messageID", msg.ID))
	}

	ov = recipients.Select(ov, []model.SelectedClient{{Phone: cmd.Phone, Name: cmd.Name, Custom: true}})

	return r.persist(ctx, msg, ov)
}

func (r *recipientSvc) Reset(ctx context.Context, cmd DeselectRecipientsCommand) (ResolveResponse, error) {
	msg, err := r.loadMutable(ctx, cmd.MessageID, cmd.UserID)
	if err != nil {
		return ResolveResponse{}, err
	}

	return r.persist(ctx, msg, recipients.Reset())
}

// Override edits need a persisted message to attach to.
func (r *recipientSvc) loadSaved(ctx context.Context, messageID, userID string) (*model.Message, error) {
	if messageID == "" {
		return nil, NewServiceError(constants.ErrCodeMessageNotSaved, errors.New("message not saved"))
	}

	return r.message.GetOwned(ctx, messageID, userID)
}

func (r *recipientSvc) loadMutable(ctx context.Context, messageID, userID string) (*model.Message, error) {
	msg, err := r.loadSaved(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}

	if err := ensureMutable(msg); err != nil {
		return nil, err
	}

	return msg, nil
}

func (r *recipientSvc) persist(ctx context.Context, msg *model.Message, ov recipients.Overrides) (ResolveResponse, error) {
	msg.SelectedClients = ov.Selected
	msg.DeselectedPhones = ov.Deselected

	if err := r.message.SaveOverrides(ctx, msg); err != nil {
		return ResolveResponse{}, err
	}

	key := cache.PreviewKey(msg.UserID, msg.ID, algorithmOf(msg.Purpose), fetchLimit(msg))
	if err := r.previews.Invalidate(ctx, key); err != nil {
		r.logger.Warn("Failed to invalidate preview cache",
			zap.Error(err),
			zap.String("messageID", msg.ID))
	}

	return r.resolve(ctx, msg)
}

func (r *recipientSvc) resolve(ctx context.Context, msg *model.Message) (ResolveResponse, error) {
	candidates, stats, err := r.candidates(ctx, msg)
	if err != nil {
		return ResolveResponse{}, err
	}

	balance, err := r.ledger.Balance(ctx, msg.UserID)
	if err != nil {
		return ResolveResponse{}, err
	}

	limit := msg.ClientLimit
	if msg.Purpose == model.PurposeAutoNudge {
		limit = recipients.NoLimit
	}

	result := recipients.Resolve(candidates, overridesOf(msg), limit, balance.Available)

	return ResolveResponse{
		Recipients: result.Recipients,
		Count:      result.Count,
		Eligible:   result.Eligible,
		Limit:      msg.ClientLimit,
		Available:  balance.Available,
		Stats:      stats,
	}, nil
}

func (r *recipientSvc) candidates(ctx context.Context, msg *model.Message) ([]recipients.Candidate, PreviewStats, error) {
	algorithm := algorithmOf(msg.Purpose)
	fetch := fetchLimit(msg)
	key := cache.PreviewKey(msg.UserID, msg.ID, algorithm, fetch)

	cached, err := r.previews.GetCandidates(ctx, key)
	if err != nil {
		r.logger.Warn("Preview cache read failed", zap.Error(err))
	}

	var result preview.Result
	if cached != nil {
		result = *cached
	} else {
		result, err = r.gateway.GetCandidates(ctx, preview.Query{
			UserID:    msg.UserID,
			MessageID: msg.ID,
			Algorithm: algorithm,
			Limit:     fetch,
		})
		if err != nil {
			r.logger.Error("Failed to fetch ranked candidates",
				zap.Error(err),
				zap.String("messageID", msg.ID))
			return nil, PreviewStats{}, NewServiceError(ErrCodePreviewServiceError, err)
		}

		if err := r.previews.StoreCandidates(ctx, key, result); err != nil {
			r.logger.Warn("Preview cache write failed", zap.Error(err))
		}
	}

	candidates := make([]recipients.Candidate, 0, len(result.Clients))
	for _, c := range result.Clients {
		candidates = append(candidates, recipients.Candidate{
			Phone:        c.Phone,
			Name:         c.Name,
			Score:        c.Score,
			VisitingType: c.VisitingType,
		})
	}

	stats := PreviewStats{
		Total:        result.Stats.Total,
		Breakdown:    result.Stats.Breakdown,
		AverageScore: result.Stats.AverageScore,
		MaxClient:    result.MaxClient,
	}

	return candidates, stats, nil
}

// fetchLimit is how many ranked candidates to ask the backend for.
// Over-fetching by the number of deselected phones keeps replacements on
// hand, so dropping a ranked entry promotes the next survivor instead of
// shrinking the send. Auto-nudge asks for the whole segment.
func fetchLimit(msg *model.Message) int {
	if msg.Purpose == model.PurposeAutoNudge {
		return 0
	}

	return msg.ClientLimit + len(msg.DeselectedPhones)
}

func overridesOf(msg *model.Message) recipients.Overrides {
	return recipients.Overrides{
		Selected:   msg.SelectedClients,
		Deselected: msg.DeselectedPhones,
	}
}

func algorithmOf(purpose model.MessagePurpose) string {
	switch purpose {
	case model.PurposeMass:
		return "mass"
	case model.PurposeAutoNudge:
		return "auto_nudge"
	default:
		return "campaign"
	}
}
