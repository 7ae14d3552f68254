// Package memory provides in-process implementations of the domain cache
// interfaces, used when Redis is not configured and in tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"dexquote/internal/domain"
)

// PriceCache is a mutex-guarded map implementing domain.PriceCache.
type PriceCache struct {
	mu     sync.RWMutex
	prices map[string]pricedEntry
}

type pricedEntry struct {
	price decimal.Decimal
	ts    time.Time
}

// NewPriceCache creates an empty PriceCache.
func NewPriceCache() *PriceCache {
	return &PriceCache{prices: make(map[string]pricedEntry)}
}

func (pc *PriceCache) SetPrice(_ context.Context, symbol string, price decimal.Decimal, ts time.Time) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.prices[strings.ToUpper(symbol)] = pricedEntry{price: price, ts: ts}
	return nil
}

func (pc *PriceCache) GetPrice(_ context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	e, ok := pc.prices[strings.ToUpper(symbol)]
	if !ok {
		return decimal.Zero, time.Time{}, domain.ErrNotFound
	}
	return e.price, e.ts, nil
}

func (pc *PriceCache) GetPrices(_ context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(symbols))
	for _, sym := range symbols {
		if e, ok := pc.prices[strings.ToUpper(sym)]; ok {
			out[strings.ToUpper(sym)] = e.price
		}
	}
	return out, nil
}

// BookCache is a mutex-guarded map implementing domain.BookCache.
type BookCache struct {
	mu    sync.RWMutex
	books map[string]domain.OrderBookSnapshot
}

// NewBookCache creates an empty BookCache.
func NewBookCache() *BookCache {
	return &BookCache{books: make(map[string]domain.OrderBookSnapshot)}
}

func pairKey(base, quote string) string {
	return strings.ToUpper(base) + "-" + strings.ToUpper(quote)
}

func (bc *BookCache) SetSnapshot(_ context.Context, base, quote string, snap domain.OrderBookSnapshot) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.books[pairKey(base, quote)] = snap
	return nil
}

func (bc *BookCache) GetSnapshot(_ context.Context, base, quote string) (domain.OrderBookSnapshot, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	snap, ok := bc.books[pairKey(base, quote)]
	if !ok {
		return domain.OrderBookSnapshot{}, domain.ErrNotFound
	}
	return snap, nil
}

// SignalBus is an in-process pub/sub fan-out implementing domain.SignalBus.
// Slow subscribers drop messages rather than blocking publishers.
type SignalBus struct {
	mu   sync.RWMutex
	subs map[string][]chan []byte
}

// NewSignalBus creates an empty SignalBus.
func NewSignalBus() *SignalBus {
	return &SignalBus{subs: make(map[string][]chan []byte)}
}

func (b *SignalBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[channel] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

func (b *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, 64)

	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, c := range b.subs[channel] {
			if c == ch {
				b.subs[channel] = append(b.subs[channel][:i], b.subs[channel][i+1:]...)
				close(ch)
				break
			}
		}
	}()

	return ch, nil
}

var (
	_ domain.PriceCache = (*PriceCache)(nil)
	_ domain.BookCache  = (*BookCache)(nil)
	_ domain.SignalBus  = (*SignalBus)(nil)
)
