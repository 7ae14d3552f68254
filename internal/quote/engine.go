// Package quote computes swap quotes: the expected output for a token pair
// and input amount, the effective rate, the price impact versus oracle spot
// prices, and the slippage-bounded minimum output. A live router is used when
// available; otherwise the engine degrades to an oracle-price-derived
// estimate flagged as such.
package quote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dexquote/internal/domain"
	"dexquote/internal/units"
)

// defaultImpactPct is reported on the primary path when oracle prices are
// unavailable and impact cannot be measured.
var defaultImpactPct = decimal.RequireFromString("0.5")

var hundred = decimal.NewFromInt(100)

// PriceSource supplies spot USD prices; domain.ErrUnavailable is an expected
// per-symbol outcome, not a failure.
type PriceSource interface {
	SpotPriceUSD(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// TokenSource exposes the registry lookups the engine needs for path
// construction.
type TokenSource interface {
	Native() domain.Token
	WrappedNative() domain.Token
}

// Config tunes the fallback-mode impact heuristic: impact = min(amount *
// CoefficientPct, CapPct). Both values are percentages.
type Config struct {
	CoefficientPct decimal.Decimal
	CapPct         decimal.Decimal
}

// DefaultConfig returns the heuristic parameters used when none are
// configured.
func DefaultConfig() Config {
	return Config{
		CoefficientPct: decimal.RequireFromString("0.01"),
		CapPct:         decimal.NewFromInt(10),
	}
}

// Engine computes quotes. A nil router means every quote takes the fallback
// path.
type Engine struct {
	oracle PriceSource
	router domain.Router
	tokens TokenSource
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates an Engine. router may be nil.
func NewEngine(oracle PriceSource, router domain.Router, tokens TokenSource, cfg Config, logger *slog.Logger) *Engine {
	if cfg.CoefficientPct.IsZero() && cfg.CapPct.IsZero() {
		cfg = DefaultConfig()
	}
	return &Engine{
		oracle: oracle,
		router: router,
		tokens: tokens,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "quote_engine")),
		now:    time.Now,
	}
}

// Compute produces a quote for swapping amountIn of from into to, with the
// given slippage tolerance in percent. Terminal errors: ErrInvalidPair,
// ErrInvalidAmountFormat, ErrNoLiquidityData.
func (e *Engine) Compute(ctx context.Context, from, to domain.Token, amountIn string, slippagePct decimal.Decimal) (domain.Quote, error) {
	if from.SameAs(to) {
		return domain.Quote{}, fmt.Errorf("quote: %s -> %s: %w", from.Symbol, to.Symbol, domain.ErrInvalidPair)
	}

	rawIn, err := units.ToSmallestUnit(amountIn, from.Decimals)
	if err != nil {
		return domain.Quote{}, err
	}
	if rawIn.Sign() <= 0 {
		return domain.Quote{}, fmt.Errorf("quote: amount must be positive: %w", domain.ErrInvalidAmountFormat)
	}
	inDec, err := decimal.NewFromString(units.ToDecimalString(rawIn, from.Decimals))
	if err != nil {
		return domain.Quote{}, fmt.Errorf("quote: normalize amount: %w", domain.ErrInvalidAmountFormat)
	}

	if slippagePct.IsNegative() || slippagePct.GreaterThan(hundred) {
		return domain.Quote{}, fmt.Errorf("quote: slippage %s out of range: %w", slippagePct, domain.ErrInvalidAmountFormat)
	}

	var (
		outDec     decimal.Decimal
		impact     decimal.Decimal
		provenance domain.QuoteProvenance
	)

	routed := false
	if e.router != nil {
		outDec, impact, err = e.routerQuote(ctx, from, to, rawIn, inDec)
		if err == nil {
			routed = true
			provenance = domain.ProvenanceRouter
		} else {
			e.logger.WarnContext(ctx, "router quote failed, falling back to oracle",
				slog.String("pair", from.Symbol+"/"+to.Symbol),
				slog.String("error", err.Error()),
			)
		}
	}
	if !routed {
		outDec, impact, err = e.fallbackQuote(ctx, from, to, inDec)
		if err != nil {
			return domain.Quote{}, err
		}
		provenance = domain.ProvenanceOracleFallback
	}

	rate := outDec.Div(inDec)
	minOut := outDec.Mul(hundred.Sub(slippagePct)).Div(hundred)

	return domain.Quote{
		ID:          uuid.NewString(),
		FromToken:   from,
		ToToken:     to,
		AmountIn:    inDec,
		AmountOut:   outDec,
		Rate:        rate,
		ImpactPct:   impact,
		Provenance:  provenance,
		SlippagePct: slippagePct,
		MinimumOut:  minOut,
		CreatedAt:   e.now().UTC(),
	}, nil
}

// routerQuote asks the router for amounts out along the canonical path and
// measures impact against the oracle-expected output.
func (e *Engine) routerQuote(ctx context.Context, from, to domain.Token, rawIn *big.Int, inDec decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	path, err := e.path(from, to)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	amounts, err := e.router.AmountsOut(ctx, rawIn, path)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("quote: amounts out: %w", err)
	}
	if len(amounts) == 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("quote: empty router response: %w", domain.ErrNoRoute)
	}

	rawOut := amounts[len(amounts)-1]
	if rawOut.Sign() <= 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("quote: zero router output: %w", domain.ErrNoRoute)
	}
	outDec, err := decimal.NewFromString(units.ToDecimalString(rawOut, to.Decimals))
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("quote: convert router output: %w", err)
	}

	return outDec, e.measuredImpact(ctx, from, to, inDec, outDec), nil
}

// path builds the canonical hop list. Native legs are routed through the
// wrapped-native contract; two non-native, non-wrapped tokens route through
// the wrapped-native intermediary.
func (e *Engine) path(from, to domain.Token) ([]string, error) {
	wrapped := e.tokens.WrappedNative()

	fromAddr := from.Address
	if from.IsNative() {
		fromAddr = wrapped.Address
	}
	toAddr := to.Address
	if to.IsNative() {
		toAddr = wrapped.Address
	}

	if fromAddr == toAddr {
		// ETH <-> WETH is a wrap, not a swap; there is no router path.
		return nil, fmt.Errorf("quote: %s/%s collapses to one asset: %w", from.Symbol, to.Symbol, domain.ErrNoRoute)
	}

	// Direct pair when either side is (or wraps to) the native asset.
	if from.IsNative() || to.IsNative() ||
		from.SameAs(wrapped) || to.SameAs(wrapped) {
		return []string{fromAddr, toAddr}, nil
	}

	return []string{fromAddr, wrapped.Address, toAddr}, nil
}

// measuredImpact compares actual router output to the oracle-implied expected
// output. When either oracle price is unavailable the fixed conservative
// default is reported instead of failing the quote.
func (e *Engine) measuredImpact(ctx context.Context, from, to domain.Token, inDec, outDec decimal.Decimal) decimal.Decimal {
	fromUSD, errFrom := e.oracle.SpotPriceUSD(ctx, from.Symbol)
	toUSD, errTo := e.oracle.SpotPriceUSD(ctx, to.Symbol)
	if errFrom != nil || errTo != nil || toUSD.IsZero() {
		return defaultImpactPct
	}

	expected := inDec.Mul(fromUSD).Div(toUSD)
	if expected.IsZero() {
		return defaultImpactPct
	}

	impact := expected.Sub(outDec).Div(expected).Mul(hundred)
	if impact.IsNegative() {
		return decimal.Zero
	}
	return impact
}

// fallbackQuote derives the output purely from oracle spot prices. Both
// prices are required; nothing is fabricated when they are missing. Impact is
// the bounded size heuristic, flagged by the oracle_fallback provenance.
func (e *Engine) fallbackQuote(ctx context.Context, from, to domain.Token, inDec decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	fromUSD, errFrom := e.oracle.SpotPriceUSD(ctx, from.Symbol)
	toUSD, errTo := e.oracle.SpotPriceUSD(ctx, to.Symbol)
	if errFrom != nil || errTo != nil {
		err := errors.Join(errFrom, errTo)
		return decimal.Zero, decimal.Zero, fmt.Errorf("quote: %s/%s: %w: %w", from.Symbol, to.Symbol, domain.ErrNoLiquidityData, err)
	}
	if toUSD.IsZero() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("quote: zero price for %s: %w", to.Symbol, domain.ErrNoLiquidityData)
	}

	outDec := inDec.Mul(fromUSD).Div(toUSD)
	impact := decimal.Min(inDec.Mul(e.cfg.CoefficientPct), e.cfg.CapPct)
	return outDec, impact, nil
}
