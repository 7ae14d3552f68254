package domain

import "errors"

var (
	// ErrInvalidAmountFormat indicates a malformed decimal amount string.
	// Always a caller bug; never retried.
	ErrInvalidAmountFormat = errors.New("invalid amount format")

	// ErrInvalidPair indicates a quote request where both sides are the
	// same token.
	ErrInvalidPair = errors.New("invalid token pair")

	// ErrNoLiquidityData indicates that neither the router nor the price
	// oracle could provide data for the pair; there is nothing to quote.
	ErrNoLiquidityData = errors.New("no liquidity data")

	// ErrUnavailable is a non-fatal per-symbol price-fetch failure. Callers
	// are expected to have a fallback path.
	ErrUnavailable = errors.New("price unavailable")

	// ErrNoRoute indicates the router has no path for the pair.
	ErrNoRoute = errors.New("no route for pair")

	ErrNotFound = errors.New("not found")
)
