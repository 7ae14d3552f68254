// Package registry holds the static token registry: lookups by symbol and
// address, the native-asset sentinel, and the wrapped-native token used as
// the routing intermediary.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"dexquote/internal/domain"
)

// Registry is an immutable token set built once at startup. All lookups are
// read-only and safe for concurrent use.
type Registry struct {
	bySymbol      map[string]domain.Token
	byAddress     map[string]domain.Token
	nativeSymbol  string
	wrappedSymbol string
}

// Mainnet is the built-in default token set.
func Mainnet() []domain.Token {
	return []domain.Token{
		{Symbol: "ETH", Name: "Ether", Address: domain.NativeAddress, Decimals: 18, CoingeckoID: "ethereum"},
		{Symbol: "WETH", Name: "Wrapped Ether", Address: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", Decimals: 18, CoingeckoID: "weth"},
		{Symbol: "USDC", Name: "USD Coin", Address: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", Decimals: 6, CoingeckoID: "usd-coin"},
		{Symbol: "USDT", Name: "Tether USD", Address: "0xdac17f958d2ee523a2206206994597c13d831ec7", Decimals: 6, CoingeckoID: "tether"},
		{Symbol: "DAI", Name: "Dai Stablecoin", Address: "0x6b175474e89094c44da98b954eedeac495271d0f", Decimals: 18, CoingeckoID: "dai"},
		{Symbol: "WBTC", Name: "Wrapped BTC", Address: "0x2260fac5e5542a773aa44fbcfedf7c193bc2c599", Decimals: 8, CoingeckoID: "wrapped-bitcoin"},
		{Symbol: "LINK", Name: "ChainLink Token", Address: "0x514910771af9ca656af840dff83e8264ecf986ca", Decimals: 18, CoingeckoID: "chainlink"},
		{Symbol: "UNI", Name: "Uniswap", Address: "0x1f9840a85d5af5bf1d1762f925bdaddc4201f984", Decimals: 18, CoingeckoID: "uniswap"},
	}
}

// New builds a Registry from the given tokens. nativeSymbol and wrappedSymbol
// name the chain's native asset and its wrapped counterpart; both must be
// present in the token set.
func New(tokens []domain.Token, nativeSymbol, wrappedSymbol string) (*Registry, error) {
	r := &Registry{
		bySymbol:      make(map[string]domain.Token, len(tokens)),
		byAddress:     make(map[string]domain.Token, len(tokens)),
		nativeSymbol:  strings.ToUpper(nativeSymbol),
		wrappedSymbol: strings.ToUpper(wrappedSymbol),
	}
	for _, t := range tokens {
		sym := strings.ToUpper(t.Symbol)
		if sym == "" || t.Address == "" {
			return nil, fmt.Errorf("registry: token %+v missing symbol or address", t)
		}
		if _, dup := r.bySymbol[sym]; dup {
			return nil, fmt.Errorf("registry: duplicate symbol %s", sym)
		}
		r.bySymbol[sym] = t
		r.byAddress[strings.ToLower(t.Address)] = t
	}
	if _, ok := r.bySymbol[r.nativeSymbol]; !ok {
		return nil, fmt.Errorf("registry: native symbol %s not in token set", nativeSymbol)
	}
	if _, ok := r.bySymbol[r.wrappedSymbol]; !ok {
		return nil, fmt.Errorf("registry: wrapped native symbol %s not in token set", wrappedSymbol)
	}
	return r, nil
}

// BySymbol looks up a token by its symbol, case-insensitively.
func (r *Registry) BySymbol(symbol string) (domain.Token, error) {
	t, ok := r.bySymbol[strings.ToUpper(symbol)]
	if !ok {
		return domain.Token{}, fmt.Errorf("registry: symbol %s: %w", symbol, domain.ErrNotFound)
	}
	return t, nil
}

// ByAddress looks up a token by contract address, case-insensitively.
func (r *Registry) ByAddress(address string) (domain.Token, error) {
	t, ok := r.byAddress[strings.ToLower(address)]
	if !ok {
		return domain.Token{}, fmt.Errorf("registry: address %s: %w", address, domain.ErrNotFound)
	}
	return t, nil
}

// Native returns the chain's native asset.
func (r *Registry) Native() domain.Token {
	return r.bySymbol[r.nativeSymbol]
}

// WrappedNative returns the wrapped counterpart of the native asset, used as
// the intermediary hop when routing between two non-native tokens.
func (r *Registry) WrappedNative() domain.Token {
	return r.bySymbol[r.wrappedSymbol]
}

// All returns every registered token sorted by symbol.
func (r *Registry) All() []domain.Token {
	out := make([]domain.Token, 0, len(r.bySymbol))
	for _, t := range r.bySymbol {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// OracleIDs returns the symbol -> external price-source identifier mapping
// for every token that has one.
func (r *Registry) OracleIDs() map[string]string {
	out := make(map[string]string, len(r.bySymbol))
	for sym, t := range r.bySymbol {
		if t.CoingeckoID != "" {
			out[sym] = t.CoingeckoID
		}
	}
	return out
}
