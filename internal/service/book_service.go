package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"dexquote/internal/book"
	"dexquote/internal/domain"
	"dexquote/internal/quote"
	"dexquote/internal/registry"
)

// LiquidityFeed supplies liquidity-source metadata; unavailability is
// expected and handled with the flat fallback spread.
type LiquidityFeed interface {
	Sources(ctx context.Context) ([]domain.LiquiditySource, error)
}

// BookConfig tunes the order-book service.
type BookConfig struct {
	// FallbackPrice is the last-resort base price when neither the quote
	// engine nor the oracle can price the pair.
	FallbackPrice decimal.Decimal
	// Seed fixes the jitter source when non-zero; zero seeds from the
	// clock.
	Seed int64
}

// BookService generates synthetic order books, caches the latest snapshot
// per pair, and estimates fill impact against them.
type BookService struct {
	engine *quote.Engine
	oracle quote.PriceSource
	tokens *registry.Registry
	feed   LiquidityFeed // optional
	cache  domain.BookCache
	bus    domain.SignalBus
	cfg    BookConfig
	logger *slog.Logger
}

// NewBookService creates a BookService. feed may be nil when no
// liquidity-sources endpoint is configured.
func NewBookService(
	engine *quote.Engine,
	oracle quote.PriceSource,
	tokens *registry.Registry,
	feed LiquidityFeed,
	cache domain.BookCache,
	bus domain.SignalBus,
	cfg BookConfig,
	logger *slog.Logger,
) *BookService {
	if cfg.FallbackPrice.LessThanOrEqual(decimal.Zero) {
		cfg.FallbackPrice = decimal.NewFromInt(1)
	}
	return &BookService{
		engine: engine,
		oracle: oracle,
		tokens: tokens,
		feed:   feed,
		cache:  cache,
		bus:    bus,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "book_service")),
	}
}

// Snapshot generates a fresh synthetic book for base/quote and caches it.
func (s *BookService) Snapshot(ctx context.Context, baseSymbol, quoteSymbol string) (domain.OrderBookSnapshot, error) {
	base, err := s.tokens.BySymbol(baseSymbol)
	if err != nil {
		return domain.OrderBookSnapshot{}, fmt.Errorf("book_service: base token: %w", err)
	}
	quoteTok, err := s.tokens.BySymbol(quoteSymbol)
	if err != nil {
		return domain.OrderBookSnapshot{}, fmt.Errorf("book_service: quote token: %w", err)
	}
	if base.SameAs(quoteTok) {
		return domain.OrderBookSnapshot{}, fmt.Errorf("book_service: %s/%s: %w", baseSymbol, quoteSymbol, domain.ErrInvalidPair)
	}

	basePrice, priceSource := s.basePrice(ctx, base, quoteTok)

	var sources []domain.LiquiditySource
	if s.feed != nil {
		sources, err = s.feed.Sources(ctx)
		if err != nil && !errors.Is(err, domain.ErrUnavailable) {
			s.logger.WarnContext(ctx, "liquidity feed error",
				slog.String("error", err.Error()),
			)
		}
	}

	seed := s.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	levels := book.Generate(basePrice, sources, rand.New(rand.NewSource(seed)))

	snap := domain.OrderBookSnapshot{
		BaseSymbol:  base.Symbol,
		QuoteSymbol: quoteTok.Symbol,
		BasePrice:   basePrice,
		PriceSource: priceSource,
		Levels:      levels,
		GeneratedAt: time.Now().UTC(),
	}

	if err := s.cache.SetSnapshot(ctx, base.Symbol, quoteTok.Symbol, snap); err != nil {
		s.logger.WarnContext(ctx, "book cache set failed", slog.String("error", err.Error()))
	}

	evt, _ := json.Marshal(map[string]any{
		"event":        "book_snapshot",
		"pair":         snap.BaseSymbol + "/" + snap.QuoteSymbol,
		"base_price":   snap.BasePrice,
		"price_source": snap.PriceSource,
		"levels":       len(snap.Levels),
		"timestamp":    snap.GeneratedAt.Format(time.RFC3339Nano),
	})
	if pubErr := s.bus.Publish(ctx, "books", evt); pubErr != nil {
		s.logger.WarnContext(ctx, "publish book event failed", slog.String("error", pubErr.Error()))
	}

	return snap, nil
}

// basePrice resolves the base reference price through the required chain:
// 1-unit engine quote, then oracle spot ratio, then the configured constant.
func (s *BookService) basePrice(ctx context.Context, base, quoteTok domain.Token) (decimal.Decimal, domain.BasePriceSource) {
	q, err := s.engine.Compute(ctx, base, quoteTok, "1", decimal.Zero)
	if err == nil && q.Rate.GreaterThan(decimal.Zero) {
		if q.Provenance == domain.ProvenanceRouter {
			return q.Rate, domain.BasePriceRouter
		}
		return q.Rate, domain.BasePriceOracle
	}

	baseUSD, errBase := s.oracle.SpotPriceUSD(ctx, base.Symbol)
	quoteUSD, errQuote := s.oracle.SpotPriceUSD(ctx, quoteTok.Symbol)
	if errBase == nil && errQuote == nil && quoteUSD.GreaterThan(decimal.Zero) {
		return baseUSD.Div(quoteUSD), domain.BasePriceOracle
	}

	s.logger.WarnContext(ctx, "using fallback base price",
		slog.String("pair", base.Symbol+"/"+quoteTok.Symbol),
	)
	return s.cfg.FallbackPrice, domain.BasePriceFallback
}

// EstimateImpact estimates the price impact of filling amount on side
// against the pair's latest snapshot, generating one if none is cached.
func (s *BookService) EstimateImpact(ctx context.Context, baseSymbol, quoteSymbol string, amount decimal.Decimal, side domain.Side) (decimal.Decimal, error) {
	snap, err := s.cache.GetSnapshot(ctx, baseSymbol, quoteSymbol)
	if errors.Is(err, domain.ErrNotFound) {
		snap, err = s.Snapshot(ctx, baseSymbol, quoteSymbol)
	}
	if err != nil {
		return decimal.Zero, err
	}
	return book.EstimateImpact(snap.Levels, amount, side), nil
}
