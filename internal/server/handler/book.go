package handler

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"dexquote/internal/domain"
	"dexquote/internal/service"
)

// BookHandler serves synthetic order books and impact estimates.
type BookHandler struct {
	books *service.BookService
}

func NewBookHandler(books *service.BookService) *BookHandler {
	return &BookHandler{books: books}
}

// GetOrderBook generates and returns a fresh snapshot for the pair.
// GET /api/orderbook?base=ETH&quote=USDC
func (h *BookHandler) GetOrderBook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	base := q.Get("base")
	quoteSym := q.Get("quote")
	if base == "" || quoteSym == "" {
		writeError(w, http.StatusBadRequest, "base and quote are required")
		return
	}

	snap, err := h.books.Snapshot(r.Context(), base, quoteSym)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetImpact estimates the fill impact of an order against the pair's book.
// GET /api/orderbook/impact?base=ETH&quote=USDC&amount=5&side=sell
func (h *BookHandler) GetImpact(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	base := q.Get("base")
	quoteSym := q.Get("quote")
	if base == "" || quoteSym == "" {
		writeError(w, http.StatusBadRequest, "base and quote are required")
		return
	}

	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		writeError(w, http.StatusBadRequest, "amount must be a positive decimal")
		return
	}

	var side domain.Side
	switch strings.ToLower(q.Get("side")) {
	case "buy":
		side = domain.SideBuy
	case "sell":
		side = domain.SideSell
	default:
		writeError(w, http.StatusBadRequest, "side must be buy or sell")
		return
	}

	impact, err := h.books.EstimateImpact(r.Context(), base, quoteSym, amount, side)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"base":       strings.ToUpper(base),
		"quote":      strings.ToUpper(quoteSym),
		"amount":     amount,
		"side":       side,
		"impact_pct": impact,
	})
}
