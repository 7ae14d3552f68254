package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dexquote/internal/service"
)

// PriceHandler serves batched USD spot prices.
type PriceHandler struct {
	prices *service.PriceService
}

func NewPriceHandler(prices *service.PriceService) *PriceHandler {
	return &PriceHandler{prices: prices}
}

// ListPrices returns spot prices for all registered tokens, optionally
// filtered by a comma-separated symbols parameter. Symbols the oracle cannot
// price are omitted from the response.
// GET /api/prices?symbols=ETH,USDC
func (h *PriceHandler) ListPrices(w http.ResponseWriter, r *http.Request) {
	all, err := h.prices.Prices(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	prices := all
	if raw := r.URL.Query().Get("symbols"); raw != "" {
		prices = make(map[string]decimal.Decimal)
		for _, sym := range strings.Split(raw, ",") {
			sym = strings.ToUpper(strings.TrimSpace(sym))
			if p, ok := all[sym]; ok {
				prices[sym] = p
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"prices":    prices,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
