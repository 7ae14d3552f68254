package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"dexquote/internal/oracle"
	"dexquote/internal/registry"
)

// PriceService serves batched spot prices for the whole token list, writes
// them through to the price cache, and publishes refresh events.
type PriceService struct {
	oracle *oracle.Client
	tokens *registry.Registry
	cache  PriceWriter
	bus    Publisher
	logger *slog.Logger
}

// PriceWriter is the cache surface the price service writes through.
type PriceWriter interface {
	SetPrice(ctx context.Context, symbol string, price decimal.Decimal, ts time.Time) error
}

// Publisher is the bus surface the services publish on.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// NewPriceService creates a PriceService. cache may be nil when no cache
// backend is configured.
func NewPriceService(o *oracle.Client, tokens *registry.Registry, cache PriceWriter, bus Publisher, logger *slog.Logger) *PriceService {
	return &PriceService{
		oracle: o,
		tokens: tokens,
		cache:  cache,
		bus:    bus,
		logger: logger.With(slog.String("component", "price_service")),
	}
}

// Prices returns USD spot prices for every registered token that the oracle
// can price; symbols without a price are omitted.
func (s *PriceService) Prices(ctx context.Context) (map[string]decimal.Decimal, error) {
	symbols := make([]string, 0)
	for _, t := range s.tokens.All() {
		symbols = append(symbols, t.Symbol)
	}
	prices := s.oracle.Prices(ctx, symbols)

	now := time.Now().UTC()
	if s.cache != nil {
		for sym, p := range prices {
			if err := s.cache.SetPrice(ctx, sym, p, now); err != nil {
				s.logger.WarnContext(ctx, "price cache write failed",
					slog.String("symbol", sym),
					slog.String("error", err.Error()),
				)
				break
			}
		}
	}
	return prices, nil
}

// Refresh forces a fresh oracle snapshot, writes it through to the cache,
// and publishes a prices event with the refreshed symbols.
func (s *PriceService) Refresh(ctx context.Context) error {
	if err := s.oracle.Refresh(ctx); err != nil {
		return err
	}
	prices, err := s.Prices(ctx)
	if err != nil {
		return err
	}

	evt, _ := json.Marshal(map[string]any{
		"event":     "prices",
		"prices":    prices,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
	if pubErr := s.bus.Publish(ctx, "prices", evt); pubErr != nil {
		s.logger.WarnContext(ctx, "publish prices event failed", slog.String("error", pubErr.Error()))
	}
	return nil
}

// Run refreshes prices on the supplied interval until ctx is cancelled.
func (s *PriceService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "price refresher started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "price refresher stopped")
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.WarnContext(ctx, "price refresh failed", slog.String("error", err.Error()))
			}
		}
	}
}
