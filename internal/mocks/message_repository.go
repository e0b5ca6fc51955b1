package mocks

import (
	"context"
	"time"

	"github.com/clipline/sms-campaigns/internal/model"
	"github.com/stretchr/testify/mock"
)

type MessageRepository struct {
	mock.Mock
}

func (m *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MessageRepository) Save(ctx context.Context, message *model.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MessageRepository) UpdateStatusGuarded(ctx context.Context, id string, allowed []model.MessageStatus, updates map[string]interface{}) error {
	args := m.Called(ctx, id, allowed, updates)
	return args.Error(0)
}

func (m *MessageRepository) GetByID(id string) (*model.Message, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MessageRepository) GetByUserID(userID string, purpose model.MessagePurpose, limit, offset int) ([]model.Message, error) {
	args := m.Called(userID, purpose, limit, offset)
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MessageRepository) CountByUserID(userID string, purpose model.MessagePurpose) (int, error) {
	args := m.Called(userID, purpose)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepository) FindArmed(limit int) ([]model.Message, error) {
	args := m.Called(limit)
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MessageRepository) Archive(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MessageRepository) HardDelete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
