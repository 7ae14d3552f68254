package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PriceCache provides fast access to the latest spot prices by symbol.
type PriceCache interface {
	SetPrice(ctx context.Context, symbol string, price decimal.Decimal, ts time.Time) error
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error)
	GetPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// BookCache stores the last generated order book snapshot per pair.
type BookCache interface {
	SetSnapshot(ctx context.Context, base, quote string, snap OrderBookSnapshot) error
	GetSnapshot(ctx context.Context, base, quote string) (OrderBookSnapshot, error)
}

// SignalBus provides pub/sub fan-out of service events (price refreshes,
// quotes, book snapshots) to the WebSocket layer.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RateLimiter provides per-client request rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
