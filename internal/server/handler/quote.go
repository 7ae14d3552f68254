package handler

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"dexquote/internal/service"
)

// QuoteHandler serves swap quotes and quote history.
type QuoteHandler struct {
	quotes *service.QuoteService
}

func NewQuoteHandler(quotes *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// GetQuote computes a quote for the requested pair and amount.
// GET /api/quote?from=ETH&to=USDC&amount=2&slippage=0.5
func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := q.Get("from")
	to := q.Get("to")
	amount := q.Get("amount")
	if from == "" || to == "" || amount == "" {
		writeError(w, http.StatusBadRequest, "from, to and amount are required")
		return
	}

	slippage := decimal.Zero
	if raw := q.Get("slippage"); raw != "" {
		var err error
		slippage, err = decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid slippage")
			return
		}
	}

	quote, err := h.quotes.Quote(r.Context(), from, to, amount, slippage)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// ListRecent returns the most recent persisted quotes.
// GET /api/quotes/recent?limit=50
func (h *QuoteHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if n > 500 {
			n = 500
		}
		limit = n
	}

	quotes, err := h.quotes.History(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quotes": quotes})
}
