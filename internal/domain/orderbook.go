package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side labels one side of the synthetic book.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderBookLevel is one synthetic depth entry. The book is a simulation built
// from top-of-book quotes and liquidity-source metadata, not real market data.
type OrderBookLevel struct {
	Side     Side            `json:"side"`
	Price    decimal.Decimal `json:"price"`
	Size     decimal.Decimal `json:"size"`
	Notional decimal.Decimal `json:"notional"`
	Source   string          `json:"source"`
}

// BasePriceSource tags which tier of the fallback chain produced the book's
// base reference price.
type BasePriceSource string

const (
	BasePriceRouter   BasePriceSource = "router"
	BasePriceOracle   BasePriceSource = "oracle"
	BasePriceFallback BasePriceSource = "fallback"
)

// OrderBookSnapshot is a full generated book for a pair, sorted by price
// descending across both sides.
type OrderBookSnapshot struct {
	BaseSymbol  string           `json:"base_symbol"`
	QuoteSymbol string           `json:"quote_symbol"`
	BasePrice   decimal.Decimal  `json:"base_price"`
	PriceSource BasePriceSource  `json:"price_source"`
	Levels      []OrderBookLevel `json:"levels"`
	GeneratedAt time.Time        `json:"generated_at"`
}
