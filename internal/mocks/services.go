package mocks

import (
	"context"

	"github.com/clipline/sms-campaigns/internal/model"
	"github.com/clipline/sms-campaigns/internal/service"
	"github.com/stretchr/testify/mock"
)

type MessageService struct {
	mock.Mock
}

func (m *MessageService) GetOwned(ctx context.Context, messageID, userID string) (*model.Message, error) {
	args := m.Called(ctx, messageID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MessageService) List(ctx context.Context, query service.GetMessagesQuery) (service.GetMessagesResponse, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(service.GetMessagesResponse), args.Error(1)
}

func (m *MessageService) PersistDraft(ctx context.Context, cmd service.SaveMessageCommand) (*model.Message, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MessageService) SaveOverrides(ctx context.Context, msg *model.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageService) ApplyValidationResult(ctx context.Context, msg *model.Message, approved bool, reason string) error {
	args := m.Called(ctx, msg, approved, reason)
	return args.Error(0)
}

func (m *MessageService) Delete(ctx context.Context, cmd service.DeleteMessageCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

type LedgerService struct {
	mock.Mock
}

func (l *LedgerService) Reserve(ctx context.Context, cmd service.ReserveCreditsCommand) error {
	args := l.Called(ctx, cmd)
	return args.Error(0)
}

func (l *LedgerService) Refund(ctx context.Context, cmd service.RefundCreditsCommand) (int64, error) {
	args := l.Called(ctx, cmd)
	return args.Get(0).(int64), args.Error(1)
}

func (l *LedgerService) Spend(ctx context.Context, cmd service.SpendCreditsCommand) error {
	args := l.Called(ctx, cmd)
	return args.Error(0)
}

func (l *LedgerService) Balance(ctx context.Context, userID string) (service.BalanceResponse, error) {
	args := l.Called(ctx, userID)
	return args.Get(0).(service.BalanceResponse), args.Error(1)
}

func (l *LedgerService) Transactions(ctx context.Context, userID string, limit, offset int) ([]service.CreditTxView, error) {
	args := l.Called(ctx, userID, limit, offset)
	return args.Get(0).([]service.CreditTxView), args.Error(1)
}

type RecipientService struct {
	mock.Mock
}

func (r *RecipientService) Resolve(ctx context.Context, query service.PreviewQuery) (service.ResolveResponse, error) {
	args := r.Called(ctx, query)
	return args.Get(0).(service.ResolveResponse), args.Error(1)
}

func (r *RecipientService) Select(ctx context.Context, cmd service.SelectRecipientsCommand) (service.ResolveResponse, error) {
	args := r.Called(ctx, cmd)
	return args.Get(0).(service.ResolveResponse), args.Error(1)
}

func (r *RecipientService) Deselect(ctx context.Context, cmd service.DeselectRecipientsCommand) (service.ResolveResponse, error) {
	args := r.Called(ctx, cmd)
	return args.Get(0).(service.ResolveResponse), args.Error(1)
}

func (r *RecipientService) AddCustom(ctx context.Context, cmd service.AddCustomRecipientCommand) (service.ResolveResponse, error) {
	args := r.Called(ctx, cmd)
	return args.Get(0).(service.ResolveResponse), args.Error(1)
}

func (r *RecipientService) Reset(ctx context.Context, cmd service.DeselectRecipientsCommand) (service.ResolveResponse, error) {
	args := r.Called(ctx, cmd)
	return args.Get(0).(service.ResolveResponse), args.Error(1)
}
