package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"dexquote/internal/cache/memory"
	"dexquote/internal/domain"
	"dexquote/internal/oracle"
	"dexquote/internal/quote"
	"dexquote/internal/registry"
	"dexquote/internal/service"
)

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

type fixture struct {
	tokens *TokenHandler
	quotes *QuoteHandler
	books  *BookHandler
}

func newFixture(t *testing.T, prices map[string]decimal.Decimal) fixture {
	t.Helper()
	reg, err := registry.New(registry.Mainnet(), "ETH", "WETH")
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	po := &fakeOracle{prices: prices}
	engine := quote.NewEngine(po, nil, reg, quote.DefaultConfig(), discardLogger())
	bus := memory.NewSignalBus()

	quoteSvc := service.NewQuoteService(engine, reg, nil, bus, discardLogger())
	bookSvc := service.NewBookService(engine, po, reg, nil, memory.NewBookCache(), bus,
		service.BookConfig{FallbackPrice: decimal.NewFromInt(1000), Seed: 42}, discardLogger())

	return fixture{
		tokens: NewTokenHandler(reg),
		quotes: NewQuoteHandler(quoteSvc),
		books:  NewBookHandler(bookSvc),
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
	return body
}

func TestHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler().HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}

func TestListTokens(t *testing.T) {
	f := newFixture(t, nil)
	rec := httptest.NewRecorder()
	f.tokens.ListTokens(rec, httptest.NewRequest(http.MethodGet, "/api/tokens", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	tokens, ok := body["tokens"].([]any)
	if !ok || len(tokens) == 0 {
		t.Fatalf("tokens = %v, want non-empty list", body["tokens"])
	}
}

func TestGetToken(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		symbol     string
		wantStatus int
	}{
		{"ETH", http.StatusOK},
		{"usdc", http.StatusOK},
		{"NOPE", http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/tokens/"+tt.symbol, nil)
		req.SetPathValue("symbol", tt.symbol)
		rec := httptest.NewRecorder()
		f.tokens.GetToken(rec, req)
		if rec.Code != tt.wantStatus {
			t.Errorf("GetToken(%s) status = %d, want %d", tt.symbol, rec.Code, tt.wantStatus)
		}
	}
}

func TestGetQuote(t *testing.T) {
	f := newFixture(t, map[string]decimal.Decimal{
		"ETH":  decimal.NewFromInt(1800),
		"USDC": decimal.NewFromInt(1),
	})

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"ok", "from=ETH&to=USDC&amount=2&slippage=0.5", http.StatusOK},
		{"missing params", "from=ETH", http.StatusBadRequest},
		{"same token", "from=ETH&to=ETH&amount=1", http.StatusBadRequest},
		{"bad amount", "from=ETH&to=USDC&amount=abc", http.StatusBadRequest},
		{"bad slippage", "from=ETH&to=USDC&amount=1&slippage=x", http.StatusBadRequest},
		{"unknown token", "from=NOPE&to=USDC&amount=1", http.StatusNotFound},
		{"no liquidity", "from=ETH&to=WBTC&amount=1", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			f.quotes.GetQuote(rec, httptest.NewRequest(http.MethodGet, "/api/quote?"+tt.query, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestGetQuoteBody(t *testing.T) {
	f := newFixture(t, map[string]decimal.Decimal{
		"ETH":  decimal.NewFromInt(1800),
		"USDC": decimal.NewFromInt(1),
	})

	rec := httptest.NewRecorder()
	f.quotes.GetQuote(rec, httptest.NewRequest(http.MethodGet, "/api/quote?from=ETH&to=USDC&amount=2&slippage=0.5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["amount_out"] != "3600" {
		t.Errorf("amount_out = %v, want 3600", body["amount_out"])
	}
	if body["provenance"] != "oracle_fallback" {
		t.Errorf("provenance = %v, want oracle_fallback", body["provenance"])
	}
	if body["minimum_out"] != "3582" {
		t.Errorf("minimum_out = %v, want 3582", body["minimum_out"])
	}
}

func TestListRecentDisabled(t *testing.T) {
	f := newFixture(t, nil)
	rec := httptest.NewRecorder()
	f.quotes.ListRecent(rec, httptest.NewRequest(http.MethodGet, "/api/quotes/recent", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when history is disabled", rec.Code)
	}
}

func TestGetOrderBook(t *testing.T) {
	f := newFixture(t, map[string]decimal.Decimal{
		"ETH":  decimal.NewFromInt(1800),
		"USDC": decimal.NewFromInt(1),
	})

	rec := httptest.NewRecorder()
	f.books.GetOrderBook(rec, httptest.NewRequest(http.MethodGet, "/api/orderbook?base=ETH&quote=USDC", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	levels, ok := body["levels"].([]any)
	if !ok || len(levels) != 20 {
		t.Errorf("levels = %d entries, want 20", len(levels))
	}

	rec = httptest.NewRecorder()
	f.books.GetOrderBook(rec, httptest.NewRequest(http.MethodGet, "/api/orderbook?base=ETH", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing quote status = %d, want 400", rec.Code)
	}
}

func TestGetImpact(t *testing.T) {
	f := newFixture(t, map[string]decimal.Decimal{
		"ETH":  decimal.NewFromInt(1800),
		"USDC": decimal.NewFromInt(1),
	})

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"sell", "base=ETH&quote=USDC&amount=5&side=sell", http.StatusOK},
		{"buy", "base=ETH&quote=USDC&amount=5&side=buy", http.StatusOK},
		{"bad side", "base=ETH&quote=USDC&amount=5&side=hold", http.StatusBadRequest},
		{"zero amount", "base=ETH&quote=USDC&amount=0&side=sell", http.StatusBadRequest},
		{"missing pair", "amount=5&side=sell", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			f.books.GetImpact(rec, httptest.NewRequest(http.MethodGet, "/api/orderbook/impact?"+tt.query, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestListPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ethereum":{"usd":1800},"usd-coin":{"usd":1}}`)
	}))
	defer srv.Close()

	reg, err := registry.New(registry.Mainnet(), "ETH", "WETH")
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	o := oracle.New(srv.URL, reg.OracleIDs(), discardLogger())
	h := NewPriceHandler(service.NewPriceService(o, reg, nil, memory.NewSignalBus(), discardLogger()))

	rec := httptest.NewRecorder()
	h.ListPrices(rec, httptest.NewRequest(http.MethodGet, "/api/prices?symbols=eth", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	prices, ok := body["prices"].(map[string]any)
	if !ok {
		t.Fatalf("prices missing: %v", body)
	}
	if _, ok := prices["ETH"]; !ok {
		t.Error("ETH missing after symbols filter")
	}
	if _, ok := prices["USDC"]; ok {
		t.Error("USDC present despite symbols filter")
	}
}
