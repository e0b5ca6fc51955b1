package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/clipline/sms-campaigns/pkg/httpclient"
)

// Gateway fetches the backend-ranked candidate list for a purpose. Scoring
// and ordering are owned by the backend; clients arrive sorted best first.
type Gateway interface {
	GetCandidates(ctx context.Context, query Query) (Result, error)
}

type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	APIKey  string        `mapstructure:"api_key"`
}

type Query struct {
	UserID    string
	MessageID string
	Algorithm string
	// Limit caps the ranked list; zero asks for the whole segment.
	Limit int
}

type Client struct {
	Phone        string  `json:"phone"`
	Name         string  `json:"name"`
	Score        float64 `json:"score"`
	VisitingType string  `json:"visiting_type"`
	LastVisit    string  `json:"last_visit,omitempty"`
}

type Stats struct {
	Total        int            `json:"total"`
	Breakdown    map[string]int `json:"breakdown"`
	AverageScore float64        `json:"average_score"`
}

type Result struct {
	Clients           []Client `json:"clients"`
	DeselectedClients []Client `json:"deselectedClients"`
	Stats             Stats    `json:"stats"`
	MaxClient         int      `json:"maxClient"`
}

type gateway struct {
	cfg    Config
	client httpclient.HTTPClient
}

func NewGateway(cfg Config, client httpclient.HTTPClient) Gateway {
	return &gateway{cfg: cfg, client: client}
}

func (g *gateway) GetCandidates(ctx context.Context, query Query) (Result, error) {
	endpoint := fmt.Sprintf("%s/recipients?userId=%s&algorithm=%s&messageId=%s",
		g.cfg.BaseURL,
		url.QueryEscape(query.UserID),
		url.QueryEscape(query.Algorithm),
		url.QueryEscape(query.MessageID))
	if query.Limit > 0 {
		endpoint += fmt.Sprintf("&limit=%d", query.Limit)
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if g.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + g.cfg.APIKey
	}

	resp, err := g.client.Get(ctx, endpoint, headers)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, ErrTimeout
		}

		return Result{}, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, MapStatusToError(resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("decoding error: %w", err)
	}

	return result, nil
}
