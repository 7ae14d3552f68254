package handler

import (
	"net/http"

	"dexquote/internal/registry"
)

// TokenHandler serves the token registry.
type TokenHandler struct {
	tokens *registry.Registry
}

func NewTokenHandler(tokens *registry.Registry) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

// ListTokens returns every registered token.
// GET /api/tokens
func (h *TokenHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tokens": h.tokens.All(),
	})
}

// GetToken returns one token by symbol.
// GET /api/tokens/{symbol}
func (h *TokenHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	tok, err := h.tokens.BySymbol(r.PathValue("symbol"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}
