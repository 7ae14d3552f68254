package domain

import (
	"context"
	"math/big"
)

// Router is the optional aggregator/router capability. Given an input amount
// in smallest units and a hop path of contract addresses, it returns the
// amount received at each hop. Implementations issue network calls and must
// honour ctx cancellation.
type Router interface {
	AmountsOut(ctx context.Context, amountIn *big.Int, path []string) ([]*big.Int, error)
}
