package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dexquote/internal/cache/memory"
	"dexquote/internal/domain"
	"dexquote/internal/oracle"
	"dexquote/internal/quote"
	"dexquote/internal/registry"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeOracle struct {
	prices map[string]decimal.Decimal
}

func (f *fakeOracle) SpotPriceUSD(_ context.Context, symbol string) (decimal.Decimal, error) {
	p, ok := f.prices[symbol]
	if !ok {
		return decimal.Zero, domain.ErrUnavailable
	}
	return p, nil
}

type memQuoteStore struct {
	inserted  []domain.Quote
	insertErr error
}

func (m *memQuoteStore) Insert(_ context.Context, q domain.Quote) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, q)
	return nil
}

func (m *memQuoteStore) ListRecent(_ context.Context, limit int) ([]domain.Quote, error) {
	if limit > len(m.inserted) {
		limit = len(m.inserted)
	}
	out := make([]domain.Quote, 0, limit)
	for i := len(m.inserted) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.inserted[i])
	}
	return out, nil
}

func (m *memQuoteStore) ListBefore(_ context.Context, cutoff time.Time, limit int) ([]domain.Quote, error) {
	out := make([]domain.Quote, 0)
	for _, q := range m.inserted {
		if q.CreatedAt.Before(cutoff) && len(out) < limit {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memQuoteStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	kept := m.inserted[:0]
	var n int64
	for _, q := range m.inserted {
		if q.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, q)
	}
	m.inserted = kept
	return n, nil
}

func testEngine(t *testing.T, prices map[string]decimal.Decimal) (*quote.Engine, *registry.Registry) {
	t.Helper()
	reg, err := registry.New(registry.Mainnet(), "ETH", "WETH")
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return quote.NewEngine(&fakeOracle{prices: prices}, nil, reg, quote.DefaultConfig(), discardLogger()), reg
}

func TestQuoteServicePublishesAndRecords(t *testing.T) {
	engine, reg := testEngine(t, map[string]decimal.Decimal{
		"ETH":  d("1800"),
		"USDC": d("1"),
	})
	store := &memQuoteStore{}
	bus := memory.NewSignalBus()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := bus.Subscribe(ctx, "quotes")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	svc := NewQuoteService(engine, reg, store, bus, discardLogger())
	q, err := svc.Quote(ctx, "eth", "usdc", "2", d("0.5"))
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if got := q.AmountOut.String(); got != "3600" {
		t.Errorf("AmountOut = %s, want 3600", got)
	}

	if len(store.inserted) != 1 || store.inserted[0].ID != q.ID {
		t.Fatalf("history = %+v, want one quote with id %s", store.inserted, q.ID)
	}

	select {
	case payload := <-events:
		var evt map[string]any
		if err := json.Unmarshal(payload, &evt); err != nil {
			t.Fatalf("event payload: %v", err)
		}
		if evt["quote_id"] != q.ID {
			t.Errorf("event quote_id = %v, want %s", evt["quote_id"], q.ID)
		}
		if evt["pair"] != "ETH/USDC" {
			t.Errorf("event pair = %v, want ETH/USDC", evt["pair"])
		}
	case <-time.After(time.Second):
		t.Fatal("no quote event published")
	}
}

func TestQuoteServiceUnknownSymbol(t *testing.T) {
	engine, reg := testEngine(t, nil)
	svc := NewQuoteService(engine, reg, nil, memory.NewSignalBus(), discardLogger())

	_, err := svc.Quote(context.Background(), "XYZ", "USDC", "1", decimal.Zero)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Quote(XYZ) error = %v, want ErrNotFound", err)
	}
}

func TestQuoteServiceHistoryInsertFailureIsNotFatal(t *testing.T) {
	engine, reg := testEngine(t, map[string]decimal.Decimal{
		"ETH":  d("1800"),
		"USDC": d("1"),
	})
	store := &memQuoteStore{insertErr: errors.New("pg down")}
	svc := NewQuoteService(engine, reg, store, busDiscard(t), discardLogger())

	if _, err := svc.Quote(context.Background(), "ETH", "USDC", "1", decimal.Zero); err != nil {
		t.Fatalf("Quote: %v, want success despite history failure", err)
	}
}

func TestQuoteServiceHistoryDisabled(t *testing.T) {
	engine, reg := testEngine(t, nil)
	svc := NewQuoteService(engine, reg, nil, memory.NewSignalBus(), discardLogger())

	_, err := svc.History(context.Background(), 10)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("History error = %v, want ErrNotFound", err)
	}
}

func busDiscard(t *testing.T) domain.SignalBus {
	t.Helper()
	return memory.NewSignalBus()
}

func TestBookServiceSnapshotOraclePrice(t *testing.T) {
	prices := map[string]decimal.Decimal{
		"ETH":  d("1800"),
		"USDC": d("1"),
	}
	engine, reg := testEngine(t, prices)
	cache := memory.NewBookCache()
	bus := memory.NewSignalBus()

	svc := NewBookService(engine, &fakeOracle{prices: prices}, reg, nil, cache, bus,
		BookConfig{FallbackPrice: d("1000"), Seed: 42}, discardLogger())

	snap, err := svc.Snapshot(context.Background(), "ETH", "USDC")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Levels) != 20 {
		t.Fatalf("levels = %d, want 20", len(snap.Levels))
	}
	if !snap.BasePrice.Equal(d("1800")) {
		t.Errorf("BasePrice = %s, want 1800", snap.BasePrice)
	}
	if snap.PriceSource != domain.BasePriceOracle {
		t.Errorf("PriceSource = %s, want oracle", snap.PriceSource)
	}

	cached, err := cache.GetSnapshot(context.Background(), "ETH", "USDC")
	if err != nil {
		t.Fatalf("GetSnapshot after Snapshot: %v", err)
	}
	if !cached.GeneratedAt.Equal(snap.GeneratedAt) {
		t.Errorf("cached GeneratedAt = %v, want %v", cached.GeneratedAt, snap.GeneratedAt)
	}
}

func TestBookServiceFallbackPrice(t *testing.T) {
	engine, reg := testEngine(t, nil)
	svc := NewBookService(engine, &fakeOracle{}, reg, nil, memory.NewBookCache(), memory.NewSignalBus(),
		BookConfig{FallbackPrice: d("1234"), Seed: 1}, discardLogger())

	snap, err := svc.Snapshot(context.Background(), "ETH", "USDC")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.PriceSource != domain.BasePriceFallback {
		t.Errorf("PriceSource = %s, want fallback", snap.PriceSource)
	}
	if !snap.BasePrice.Equal(d("1234")) {
		t.Errorf("BasePrice = %s, want 1234", snap.BasePrice)
	}
}

func TestBookServiceSameTokenRejected(t *testing.T) {
	engine, reg := testEngine(t, nil)
	svc := NewBookService(engine, &fakeOracle{}, reg, nil, memory.NewBookCache(), memory.NewSignalBus(),
		BookConfig{FallbackPrice: d("1")}, discardLogger())

	_, err := svc.Snapshot(context.Background(), "ETH", "ETH")
	if !errors.Is(err, domain.ErrInvalidPair) {
		t.Errorf("Snapshot(ETH, ETH) error = %v, want ErrInvalidPair", err)
	}
}

func TestBookServiceEstimateImpactGeneratesWhenMissing(t *testing.T) {
	prices := map[string]decimal.Decimal{
		"ETH":  d("1800"),
		"USDC": d("1"),
	}
	engine, reg := testEngine(t, prices)
	cache := memory.NewBookCache()
	svc := NewBookService(engine, &fakeOracle{prices: prices}, reg, nil, cache, memory.NewSignalBus(),
		BookConfig{FallbackPrice: d("1"), Seed: 7}, discardLogger())

	impact, err := svc.EstimateImpact(context.Background(), "ETH", "USDC", d("5"), domain.SideSell)
	if err != nil {
		t.Fatalf("EstimateImpact: %v", err)
	}
	if impact.LessThan(decimal.Zero) {
		t.Errorf("impact = %s, want >= 0", impact)
	}

	if _, err := cache.GetSnapshot(context.Background(), "ETH", "USDC"); err != nil {
		t.Errorf("snapshot not cached after EstimateImpact: %v", err)
	}
}

func TestPriceServiceRefreshWritesThroughAndPublishes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ethereum":{"usd":1800.5},"usd-coin":{"usd":1.0}}`)
	}))
	defer srv.Close()

	reg, err := registry.New(registry.Mainnet(), "ETH", "WETH")
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	o := oracle.New(srv.URL, reg.OracleIDs(), discardLogger())
	cache := memory.NewPriceCache()
	bus := memory.NewSignalBus()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := bus.Subscribe(ctx, "prices")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	svc := NewPriceService(o, reg, cache, bus, discardLogger())
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	price, _, err := cache.GetPrice(ctx, "ETH")
	if err != nil {
		t.Fatalf("GetPrice(ETH): %v", err)
	}
	if !price.Equal(d("1800.5")) {
		t.Errorf("cached ETH price = %s, want 1800.5", price)
	}

	select {
	case payload := <-events:
		var evt map[string]any
		if err := json.Unmarshal(payload, &evt); err != nil {
			t.Fatalf("event payload: %v", err)
		}
		if evt["event"] != "prices" {
			t.Errorf("event type = %v, want prices", evt["event"])
		}
	case <-time.After(time.Second):
		t.Fatal("no prices event published")
	}
}

func TestPriceServicePricesOmitsUnpriced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ethereum":{"usd":1800}}`)
	}))
	defer srv.Close()

	reg, err := registry.New(registry.Mainnet(), "ETH", "WETH")
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	o := oracle.New(srv.URL, reg.OracleIDs(), discardLogger())
	svc := NewPriceService(o, reg, nil, memory.NewSignalBus(), discardLogger())

	prices, err := svc.Prices(context.Background())
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if _, ok := prices["ETH"]; !ok {
		t.Error("ETH missing from prices")
	}
	if _, ok := prices["USDC"]; ok {
		t.Error("USDC should be omitted when the oracle has no price for it")
	}
}
