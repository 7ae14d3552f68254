package domain

// LiquiditySource is external metadata about a venue contributing depth for a
// pair. EstimatedImpact is a fractional price-impact coefficient, typically
// 0.001-0.01, used to shape the synthetic spread per depth level. A zero
// value means the feed did not report one and the default coefficient applies.
type LiquiditySource struct {
	Name            string  `json:"name"`
	EstimatedImpact float64 `json:"estimated_impact"`
}
