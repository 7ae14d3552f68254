package domain

import "strings"

// NativeAddress is the sentinel contract address used for a chain's native
// asset (the convention shared by 0x and 1inch).
const NativeAddress = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

// Token describes one asset in the registry. Tokens are immutable value
// objects; they are looked up by symbol or address and passed around by value.
type Token struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Decimals    uint8  `json:"decimals"`
	LogoURI     string `json:"logo_uri,omitempty"`
	CoingeckoID string `json:"coingecko_id,omitempty"`
}

// IsNative reports whether the token is the chain's native asset.
func (t Token) IsNative() bool {
	return strings.EqualFold(t.Address, NativeAddress)
}

// SameAs reports whether two tokens refer to the same asset, comparing
// addresses case-insensitively.
func (t Token) SameAs(other Token) bool {
	return strings.EqualFold(t.Address, other.Address)
}
