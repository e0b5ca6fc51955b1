package mocks

import (
	"context"
	"time"

	"github.com/clipline/sms-campaigns/pkg/preview"
	"github.com/stretchr/testify/mock"
)

type PreviewCache struct {
	mock.Mock
}

func (m *PreviewCache) GetCandidates(ctx context.Context, key string) (*preview.Result, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*preview.Result), args.Error(1)
}

func (m *PreviewCache) StoreCandidates(ctx context.Context, key string, result preview.Result) error {
	args := m.Called(ctx, key, result)
	return args.Error(0)
}

func (m *PreviewCache) Invalidate(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type AllotmentCounter struct {
	mock.Mock
}

func (m *AllotmentCounter) IncrTestSends(ctx context.Context, userID string, day time.Time) (int64, error) {
	args := m.Called(ctx, userID, day)
	return args.Get(0).(int64), args.Error(1)
}

func (m *AllotmentCounter) DecrTestSends(ctx context.Context, userID string, day time.Time) error {
	args := m.Called(ctx, userID, day)
	return args.Error(0)
}

type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(ctx context.Context, body []byte) error {
	args := m.Called(ctx, body)
	return args.Error(0)
}
