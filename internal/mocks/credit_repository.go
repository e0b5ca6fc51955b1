package mocks

import (
	"context"

	"github.com/clipline/sms-campaigns/internal/model"
	"github.com/stretchr/testify/mock"
)

type CreditAccountRepository struct {
	mock.Mock
}

func (m *CreditAccountRepository) GetByUserID(userID string) (*model.CreditAccount, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CreditAccount), args.Error(1)
}

func (m *CreditAccountRepository) GetForUpdate(ctx context.Context, userID string) (*model.CreditAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CreditAccount), args.Error(1)
}

func (m *CreditAccountRepository) UpdateBalances(ctx context.Context, account *model.CreditAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

type CreditTxRepository struct {
	mock.Mock
}

func (m *CreditTxRepository) Create(ctx context.Context, tx *model.CreditTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *CreditTxRepository) GetByUserID(userID string, limit, offset int) ([]model.CreditTransaction, error) {
	args := m.Called(userID, limit, offset)
	return args.Get(0).([]model.CreditTransaction), args.Error(1)
}
