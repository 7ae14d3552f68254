package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"dexquote/internal/domain"
)

// BookCache implements domain.BookCache, storing each pair's generated
// snapshot as a JSON blob at "book:{BASE}-{QUOTE}".
type BookCache struct {
	rdb *redis.Client
}

// NewBookCache creates a BookCache backed by the given Client.
func NewBookCache(c *Client) *BookCache {
	return &BookCache{rdb: c.Underlying()}
}

func bookKey(base, quote string) string {
	return "book:" + strings.ToUpper(base) + "-" + strings.ToUpper(quote)
}

// SetSnapshot stores the generated book for a pair.
func (bc *BookCache) SetSnapshot(ctx context.Context, base, quote string, snap domain.OrderBookSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal book %s/%s: %w", base, quote, err)
	}
	if err := bc.rdb.Set(ctx, bookKey(base, quote), data, 0).Err(); err != nil {
		return fmt.Errorf("redis: set book %s/%s: %w", base, quote, err)
	}
	return nil
}

// GetSnapshot returns the last stored book for a pair, or domain.ErrNotFound.
func (bc *BookCache) GetSnapshot(ctx context.Context, base, quote string) (domain.OrderBookSnapshot, error) {
	data, err := bc.rdb.Get(ctx, bookKey(base, quote)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.OrderBookSnapshot{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.OrderBookSnapshot{}, fmt.Errorf("redis: get book %s/%s: %w", base, quote, err)
	}

	var snap domain.OrderBookSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.OrderBookSnapshot{}, fmt.Errorf("redis: decode book %s/%s: %w", base, quote, err)
	}
	return snap, nil
}

var _ domain.BookCache = (*BookCache)(nil)
