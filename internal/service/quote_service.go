package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"dexquote/internal/domain"
	"dexquote/internal/quote"
	"dexquote/internal/registry"
)

// QuoteService resolves token symbols, runs the quote engine, records quote
// history, and publishes quote events.
type QuoteService struct {
	engine  *quote.Engine
	tokens  *registry.Registry
	history domain.QuoteStore // optional
	bus     domain.SignalBus
	logger  *slog.Logger
}

// NewQuoteService creates a QuoteService. history may be nil when persistence
// is disabled.
func NewQuoteService(
	engine *quote.Engine,
	tokens *registry.Registry,
	history domain.QuoteStore,
	bus domain.SignalBus,
	logger *slog.Logger,
) *QuoteService {
	return &QuoteService{
		engine:  engine,
		tokens:  tokens,
		history: history,
		bus:     bus,
		logger:  logger.With(slog.String("component", "quote_service")),
	}
}

// Quote computes a quote for fromSymbol -> toSymbol.
func (s *QuoteService) Quote(ctx context.Context, fromSymbol, toSymbol, amount string, slippagePct decimal.Decimal) (domain.Quote, error) {
	from, err := s.tokens.BySymbol(fromSymbol)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("quote_service: from token: %w", err)
	}
	to, err := s.tokens.BySymbol(toSymbol)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("quote_service: to token: %w", err)
	}

	q, err := s.engine.Compute(ctx, from, to, amount, slippagePct)
	if err != nil {
		return domain.Quote{}, err
	}

	if s.history != nil {
		if insErr := s.history.Insert(ctx, q); insErr != nil {
			// History is best-effort; the quote is still good.
			s.logger.WarnContext(ctx, "quote history insert failed",
				slog.String("quote_id", q.ID),
				slog.String("error", insErr.Error()),
			)
		}
	}

	evt, _ := json.Marshal(map[string]any{
		"event":      "quote",
		"quote_id":   q.ID,
		"pair":       q.FromToken.Symbol + "/" + q.ToToken.Symbol,
		"amount_in":  q.AmountIn,
		"amount_out": q.AmountOut,
		"rate":       q.Rate,
		"impact_pct": q.ImpactPct,
		"provenance": q.Provenance,
		"timestamp":  q.CreatedAt.Format(time.RFC3339Nano),
	})
	if pubErr := s.bus.Publish(ctx, "quotes", evt); pubErr != nil {
		s.logger.WarnContext(ctx, "publish quote event failed",
			slog.String("quote_id", q.ID),
			slog.String("error", pubErr.Error()),
		)
	}

	return q, nil
}

// History returns the most recent persisted quotes. Returns ErrNotFound when
// persistence is disabled.
func (s *QuoteService) History(ctx context.Context, limit int) ([]domain.Quote, error) {
	if s.history == nil {
		return nil, fmt.Errorf("quote_service: history disabled: %w", domain.ErrNotFound)
	}
	quotes, err := s.history.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("quote_service: list history: %w", err)
	}
	return quotes, nil
}
