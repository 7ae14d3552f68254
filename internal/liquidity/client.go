// Package liquidity fetches liquidity-source metadata from an aggregator's
// liquidity-sources endpoint. The feed is best-effort: when it is down the
// order-book generator falls back to a flat spread.
package liquidity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dexquote/internal/domain"
)

// Client is the REST client for the liquidity-sources feed (1inch-style
// /liquidity-sources response shape).
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client against the given API root.
func New(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With(slog.String("component", "liquidity")),
	}
}

// apiProtocol mirrors the feed's JSON. Impact may be reported under either
// key depending on the upstream version.
type apiProtocol struct {
	Title           string  `json:"title"`
	ID              string  `json:"id"`
	EstimatedImpact float64 `json:"estimatedPriceImpact"`
	Impact          float64 `json:"priceImpact"`
}

type apiResponse struct {
	Protocols []apiProtocol `json:"protocols"`
}

// Sources returns the feed's liquidity sources. Any transport or decode
// failure returns an empty list and domain.ErrUnavailable; callers apply the
// flat fallback spread.
func (c *Client) Sources(ctx context.Context) ([]domain.LiquiditySource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/liquidity-sources", nil)
	if err != nil {
		return nil, fmt.Errorf("liquidity: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "liquidity feed unreachable", slog.String("error", err.Error()))
		return nil, fmt.Errorf("liquidity: http request: %w", domain.ErrUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("liquidity: read response: %w", domain.ErrUnavailable)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WarnContext(ctx, "liquidity feed returned non-2xx", slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("liquidity: status %d: %w", resp.StatusCode, domain.ErrUnavailable)
	}

	var payload apiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("liquidity: decode response: %w", domain.ErrUnavailable)
	}

	sources := make([]domain.LiquiditySource, 0, len(payload.Protocols))
	for _, p := range payload.Protocols {
		name := p.Title
		if name == "" {
			name = p.ID
		}
		impact := p.EstimatedImpact
		if impact == 0 {
			impact = p.Impact
		}
		sources = append(sources, domain.LiquiditySource{
			Name:            name,
			EstimatedImpact: impact,
		})
	}
	return sources, nil
}
