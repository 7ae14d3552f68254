package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteProvenance tags where a quote's output amount came from.
type QuoteProvenance string

const (
	// ProvenanceRouter means the output came from a live router call.
	ProvenanceRouter QuoteProvenance = "router"
	// ProvenanceOracleFallback means the output was derived from oracle
	// spot prices and the price impact is a heuristic estimate. The UI is
	// expected to badge these quotes as estimates.
	ProvenanceOracleFallback QuoteProvenance = "oracle_fallback"
)

// Quote is the result of one quote computation. Created fresh per request and
// never mutated.
type Quote struct {
	ID          string          `json:"id"`
	FromToken   Token           `json:"from_token"`
	ToToken     Token           `json:"to_token"`
	AmountIn    decimal.Decimal `json:"amount_in"`
	AmountOut   decimal.Decimal `json:"amount_out"`
	Rate        decimal.Decimal `json:"rate"`
	ImpactPct   decimal.Decimal `json:"impact_pct"`
	Provenance  QuoteProvenance `json:"provenance"`
	SlippagePct decimal.Decimal `json:"slippage_pct"`
	MinimumOut  decimal.Decimal `json:"minimum_out"`
	CreatedAt   time.Time       `json:"created_at"`
}
