package contentcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/clipline/sms-campaigns/pkg/httpclient"
)

// Checker submits message text to the content-policy backend. Denial is a
// normal outcome carried in the result, not an error.
type Checker interface {
	Verify(ctx context.Context, text string) (Result, error)
}

type Config struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	APIKey  string        `mapstructure:"api_key"`
}

type Result struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

type checker struct {
	cfg    Config
	client httpclient.HTTPClient
}

func NewChecker(cfg Config, client httpclient.HTTPClient) Checker {
	return &checker{cfg: cfg, client: client}
}

func (c *checker) Verify(ctx context.Context, text string) (Result, error) {
	payload, err := json.Marshal(map[string]string{"message": text})
	if err != nil {
		return Result{}, err
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if c.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.cfg.APIKey
	}

	resp, err := c.client.Post(ctx, c.cfg.URL, bytes.NewReader(payload), headers)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Result{}, errors.New(ErrorCodeTimeout)
		}

		return Result{}, errors.New(ErrorCodeNetworkError)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case 400:
			return Result{}, errors.New(ErrorCodeInvalidRequest)
		default:
			return Result{}, errors.New(ErrorCodeServerError)
		}
	}

	var res Result
	if err = json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, errors.New(ErrorCodeServerError)
	}

	return res, nil
}
