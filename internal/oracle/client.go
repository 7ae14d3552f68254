// Package oracle fetches spot USD prices from an external price source. All
// mapped symbols are batched into a single request per refresh, and the last
// successful snapshot is held in memory with no TTL; the caller's polling
// cadence governs freshness.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"dexquote/internal/domain"
)

// Client is the batched spot-price client. Failures never surface as raw
// transport errors; every miss is domain.ErrUnavailable and the caller is
// expected to have a fallback path.
type Client struct {
	baseURL    string
	httpClient *http.Client
	ids        map[string]string // symbol -> external coin id
	logger     *slog.Logger

	group singleflight.Group

	mu       sync.RWMutex
	snapshot map[string]decimal.Decimal // symbol -> USD price
}

// New creates a Client. baseURL is the price-source API root, e.g.
// "https://api.coingecko.com/api/v3". ids maps token symbols to the source's
// coin identifiers; symbols without a mapping are unavailable without a
// network call.
func New(baseURL string, ids map[string]string, logger *slog.Logger) *Client {
	normalized := make(map[string]string, len(ids))
	for sym, id := range ids {
		normalized[strings.ToUpper(sym)] = id
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		ids:    normalized,
		logger: logger.With(slog.String("component", "oracle")),
	}
}

// SpotPriceUSD returns the spot USD price for a symbol from the current
// snapshot, fetching one if none exists yet. Unmapped symbols return
// domain.ErrUnavailable immediately.
func (c *Client) SpotPriceUSD(ctx context.Context, symbol string) (decimal.Decimal, error) {
	sym := strings.ToUpper(symbol)
	if _, mapped := c.ids[sym]; !mapped {
		return decimal.Zero, fmt.Errorf("oracle: no mapping for %s: %w", symbol, domain.ErrUnavailable)
	}

	c.mu.RLock()
	snap := c.snapshot
	c.mu.RUnlock()

	if snap == nil {
		if err := c.Refresh(ctx); err != nil {
			return decimal.Zero, fmt.Errorf("oracle: fetch batch: %w", domain.ErrUnavailable)
		}
		c.mu.RLock()
		snap = c.snapshot
		c.mu.RUnlock()
	}

	price, ok := snap[sym]
	if !ok {
		return decimal.Zero, fmt.Errorf("oracle: %s missing from response: %w", symbol, domain.ErrUnavailable)
	}
	return price, nil
}

// Prices returns the current snapshot prices for the given symbols, fetching
// a snapshot if none exists. Unavailable symbols are omitted from the result.
func (c *Client) Prices(ctx context.Context, symbols []string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(symbols))
	for _, sym := range symbols {
		price, err := c.SpotPriceUSD(ctx, sym)
		if err != nil {
			continue
		}
		out[strings.ToUpper(sym)] = price
	}
	return out
}

// Refresh fetches a fresh snapshot for every mapped symbol in one request.
// Concurrent callers share a single in-flight fetch. On failure the previous
// snapshot, if any, is kept.
func (c *Client) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (any, error) {
		return nil, c.fetch(ctx)
	})
	return err
}

// fetch issues the batched price request and replaces the snapshot on success.
func (c *Client) fetch(ctx context.Context) error {
	if len(c.ids) == 0 {
		return fmt.Errorf("oracle: no mapped symbols: %w", domain.ErrUnavailable)
	}

	idToSymbol := make(map[string]string, len(c.ids))
	idList := make([]string, 0, len(c.ids))
	for sym, id := range c.ids {
		idToSymbol[id] = sym
		idList = append(idList, id)
	}
	sort.Strings(idList)

	params := url.Values{}
	params.Set("ids", strings.Join(idList, ","))
	params.Set("vs_currencies", "usd")

	reqURL := c.baseURL + "/simple/price?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("oracle: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "price fetch failed", slog.String("error", err.Error()))
		return fmt.Errorf("oracle: http request: %w", domain.ErrUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("oracle: read response: %w", domain.ErrUnavailable)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WarnContext(ctx, "price source returned non-2xx",
			slog.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("oracle: status %d: %w", resp.StatusCode, domain.ErrUnavailable)
	}

	// Response shape: {"ethereum":{"usd":1800.12}, ...}
	var payload map[string]map[string]decimal.Decimal
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("oracle: decode response: %w", domain.ErrUnavailable)
	}

	snap := make(map[string]decimal.Decimal, len(payload))
	for id, prices := range payload {
		sym, ok := idToSymbol[id]
		if !ok {
			continue
		}
		usd, ok := prices["usd"]
		if !ok {
			continue
		}
		snap[sym] = usd
	}

	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "price snapshot refreshed", slog.Int("symbols", len(snap)))
	return nil
}
