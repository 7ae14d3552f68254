// Package book generates a synthetic two-sided depth ladder around a base
// price and estimates the price impact of hypothetical fills against it. The
// book is a simulation for display and impact estimation: upstream
// aggregators expose only top-of-book quotes and liquidity-source lists, not
// real depth.
package book

import (
	"math/rand"
	"sort"

	"github.com/shopspring/decimal"

	"dexquote/internal/domain"
)

const (
	// levelsPerSide is the fixed depth of each side of the ladder.
	levelsPerSide = 10

	// defaultSourceImpact applies when a liquidity source reports no
	// impact coefficient of its own.
	defaultSourceImpact = 0.005

	// flatSpreadStep is the per-level spread when no liquidity-source data
	// exists for a level.
	flatSpreadStep = 0.001

	// fallbackSourceLabel labels levels generated without source metadata.
	fallbackSourceLabel = "Market"
)

var (
	ten  = decimal.NewFromInt(10)
	one  = decimal.NewFromInt(1)
	half = decimal.RequireFromString("0.5")
)

// Generate builds 10 sell levels above base and 10 buy levels below it,
// shaped by the given liquidity sources where present. Level sizes follow a
// decreasing curve perturbed by +-30% jitter from rng; pass a seeded rng for
// deterministic output. The combined 20 levels are returned sorted by price
// descending.
func Generate(base decimal.Decimal, sources []domain.LiquiditySource, rng *rand.Rand) []domain.OrderBookLevel {
	levels := make([]domain.OrderBookLevel, 0, 2*levelsPerSide)

	for i := 0; i < levelsPerSide; i++ {
		spread, label := spreadForLevel(i, sources)

		sellPrice := base.Mul(one.Add(spread))
		buyPrice := base.Mul(one.Sub(spread))

		sellSize := levelSize(i, rng)
		buySize := levelSize(i, rng)

		levels = append(levels,
			domain.OrderBookLevel{
				Side:     domain.SideSell,
				Price:    sellPrice,
				Size:     sellSize,
				Notional: sellPrice.Mul(sellSize),
				Source:   label,
			},
			domain.OrderBookLevel{
				Side:     domain.SideBuy,
				Price:    buyPrice,
				Size:     buySize,
				Notional: buyPrice.Mul(buySize),
				Source:   label,
			},
		)
	}

	sort.SliceStable(levels, func(a, b int) bool {
		return levels[a].Price.GreaterThan(levels[b].Price)
	})
	return levels
}

// spreadForLevel returns the spread fraction and source label for level i.
// With source data: impact * (i+1)/10. Without: flat 0.001 * (i+1).
func spreadForLevel(i int, sources []domain.LiquiditySource) (decimal.Decimal, string) {
	if i < len(sources) {
		impact := sources[i].EstimatedImpact
		if impact <= 0 {
			impact = defaultSourceImpact
		}
		label := sources[i].Name
		if label == "" {
			label = fallbackSourceLabel
		}
		spread := decimal.NewFromFloat(impact).
			Mul(decimal.NewFromInt(int64(i + 1))).
			Div(ten)
		return spread, label
	}

	spread := decimal.NewFromFloat(flatSpreadStep).Mul(decimal.NewFromInt(int64(i + 1)))
	return spread, fallbackSourceLabel
}

// levelSize returns the base size 10 - i*0.5 perturbed by a jitter factor in
// [0.7, 1.3).
func levelSize(i int, rng *rand.Rand) decimal.Decimal {
	baseSize := ten.Sub(half.Mul(decimal.NewFromInt(int64(i))))
	jitter := decimal.NewFromFloat(0.7 + rng.Float64()*0.6)
	return baseSize.Mul(jitter)
}
