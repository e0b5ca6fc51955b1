package mocks

import (
	"context"

	"github.com/clipline/sms-campaigns/pkg/contentcheck"
	"github.com/clipline/sms-campaigns/pkg/dispatch"
	"github.com/clipline/sms-campaigns/pkg/preview"
	"github.com/stretchr/testify/mock"
)

type DispatchGateway struct {
	mock.Mock
}

func (d *DispatchGateway) RegisterSchedule(ctx context.Context, request dispatch.RegisterScheduleRequest) (dispatch.RegisterScheduleResponse, error) {
	args := d.Called(ctx, request)
	return args.Get(0).(dispatch.RegisterScheduleResponse), args.Error(1)
}

func (d *DispatchGateway) CancelSchedule(ctx context.Context, request dispatch.CancelScheduleRequest) error {
	args := d.Called(ctx, request)
	return args.Error(0)
}

func (d *DispatchGateway) TestSend(ctx context.Context, request dispatch.TestSendRequest) error {
	args := d.Called(ctx, request)
	return args.Error(0)
}

func (d *DispatchGateway) GetProgress(ctx context.Context, userID string, messageIDs []string) ([]dispatch.Progress, error) {
	args := d.Called(ctx, userID, messageIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dispatch.Progress), args.Error(1)
}

type ContentChecker struct {
	mock.Mock
}

func (c *ContentChecker) Verify(ctx context.Context, text string) (contentcheck.Result, error) {
	args := c.Called(ctx, text)
	return args.Get(0).(contentcheck.Result), args.Error(1)
}

type PreviewGateway struct {
	mock.Mock
}

func (p *PreviewGateway) GetCandidates(ctx context.Context, query preview.Query) (preview.Result, error) {
	args := p.Called(ctx, query)
	return args.Get(0).(preview.Result), args.Error(1)
}
