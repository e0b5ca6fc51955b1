package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/clipline/sms-campaigns/pkg/httpclient"
)

const (
	SchedulesEndpoint = "/schedules"
	TestSendEndpoint  = "/send"
	ProgressEndpoint  = "/progress"
)

// Gateway talks to the dispatch backend that owns actual SMS delivery.
// The service only registers/cancels schedules and observes progress.
type Gateway interface {
	RegisterSchedule(ctx context.Context, request RegisterScheduleRequest) (RegisterScheduleResponse, error)
	CancelSchedule(ctx context.Context, request CancelScheduleRequest) error
	TestSend(ctx context.Context, request TestSendRequest) error
	GetProgress(ctx context.Context, userID string, messageIDs []string) ([]Progress, error)
}

type gateway struct {
	client httpclient.HTTPClient
	config Config
}

func NewGateway(cfg Config, client httpclient.HTTPClient) Gateway {
	return &gateway{config: cfg, client: client}
}

func (g *gateway) RegisterSchedule(ctx context.Context, request RegisterScheduleRequest) (RegisterScheduleResponse, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return RegisterScheduleResponse{}, fmt.Errorf("encoding error: %w", err)
	}

	resp, err := g.client.Post(ctx, g.config.BaseURL+SchedulesEndpoint, &buf, jsonHeaders(g.config))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return RegisterScheduleResponse{}, ErrTimeout
		}

		return RegisterScheduleResponse{}, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != StatusOK {
		return RegisterScheduleResponse{}, MapStatusToError(resp.StatusCode)
	}

	var response RegisterScheduleResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return RegisterScheduleResponse{}, fmt.Errorf("decoding error: %w", err)
	}

	// Some dispatch deployments report the 7-day ceiling inside a 200
	// envelope instead of a status code.
	if response.Code == ErrCodeMaxDelayExceeded {
		return RegisterScheduleResponse{}, ErrMaxDelayExceeded
	}

	return response, nil
}

func (g *gateway) CancelSchedule(ctx context.Context, request CancelScheduleRequest) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return fmt.Errorf("encoding error: %w", err)
	}

	resp, err := g.client.Delete(ctx, g.config.BaseURL+SchedulesEndpoint, &buf, jsonHeaders(g.config))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}

		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode != StatusOK {
		return MapStatusToError(resp.StatusCode)
	}

	return nil
}

func (g *gateway) TestSend(ctx context.Context, request TestSendRequest) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return fmt.Errorf("encoding error: %w", err)
	}

	endpoint := fmt.Sprintf("%s%s?messageId=%s&action=test",
		g.config.BaseURL, TestSendEndpoint, url.QueryEscape(request.MessageID))

	resp, err := g.client.Post(ctx, endpoint, &buf, jsonHeaders(g.config))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}

		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode != StatusOK {
		return MapStatusToError(resp.StatusCode)
	}

	return nil
}

func (g *gateway) GetProgress(ctx context.Context, userID string, messageIDs []string) ([]Progress, error) {
	endpoint := fmt.Sprintf("%s%s?userId=%s&messageIds=%s",
		g.config.BaseURL, ProgressEndpoint,
		url.QueryEscape(userID), url.QueryEscape(strings.Join(messageIDs, ",")))

	resp, err := g.client.Get(ctx, endpoint, jsonHeaders(g.config))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}

		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != StatusOK {
		return nil, MapStatusToError(resp.StatusCode)
	}

	var response ProgressResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decoding error: %w", err)
	}

	return response.Progress, nil
}

func jsonHeaders(cfg Config) map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}
	return headers
}
