package book

import (
	"sort"

	"github.com/shopspring/decimal"

	"dexquote/internal/domain"
)

// exhaustionPenalty prices any unfilled remainder at the worst touched level
// degraded by a further 10%. A deliberate conservative bias, not a measured
// cost.
var exhaustionPenalty = decimal.RequireFromString("0.1")

var hundred = decimal.NewFromInt(100)

// EstimateImpact walks the opposing side of the book best-price-first,
// consuming level sizes greedily until amount is filled, and returns the
// percentage degradation of the average fill price versus the best available
// price. Returns zero for an empty book or non-positive amount.
func EstimateImpact(levels []domain.OrderBookLevel, amount decimal.Decimal, side domain.Side) decimal.Decimal {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	// A sell fills against buy levels, a buy against sell levels.
	opposing := domain.SideBuy
	if side == domain.SideBuy {
		opposing = domain.SideSell
	}

	var fills []domain.OrderBookLevel
	for _, lvl := range levels {
		if lvl.Side == opposing {
			fills = append(fills, lvl)
		}
	}
	if len(fills) == 0 {
		return decimal.Zero
	}

	// Best price first: highest bid for a sell, lowest ask for a buy.
	sort.SliceStable(fills, func(a, b int) bool {
		if side == domain.SideSell {
			return fills[a].Price.GreaterThan(fills[b].Price)
		}
		return fills[a].Price.LessThan(fills[b].Price)
	})

	bestPrice := fills[0].Price
	remaining := amount
	cost := decimal.Zero

	for _, lvl := range fills {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		qty := decimal.Min(remaining, lvl.Size)
		cost = cost.Add(qty.Mul(lvl.Price))
		remaining = remaining.Sub(qty)
	}

	if remaining.GreaterThan(decimal.Zero) {
		worst := fills[len(fills)-1].Price
		var penalized decimal.Decimal
		if side == domain.SideBuy {
			penalized = worst.Mul(one.Add(exhaustionPenalty))
		} else {
			penalized = worst.Mul(one.Sub(exhaustionPenalty))
		}
		cost = cost.Add(remaining.Mul(penalized))
	}

	avgPrice := cost.Div(amount)

	var impact decimal.Decimal
	if side == domain.SideSell {
		impact = bestPrice.Sub(avgPrice).Div(bestPrice).Mul(hundred)
	} else {
		impact = avgPrice.Sub(bestPrice).Div(bestPrice).Mul(hundred)
	}
	if impact.IsNegative() {
		return decimal.Zero
	}
	return impact
}
