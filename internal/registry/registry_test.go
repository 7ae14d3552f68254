package registry

import (
	"errors"
	"testing"

	"dexquote/internal/domain"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(Mainnet(), "ETH", "WETH")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestBySymbol(t *testing.T) {
	r := newTestRegistry(t)

	usdc, err := r.BySymbol("usdc")
	if err != nil {
		t.Fatalf("BySymbol(usdc): %v", err)
	}
	if usdc.Decimals != 6 {
		t.Errorf("USDC decimals = %d, want 6", usdc.Decimals)
	}

	if _, err := r.BySymbol("NOPE"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("BySymbol(NOPE) error = %v, want ErrNotFound", err)
	}
}

func TestByAddress(t *testing.T) {
	r := newTestRegistry(t)

	weth, err := r.ByAddress("0xC02AAA39B223FE8D0A0E5C4F27EAD9083C756CC2")
	if err != nil {
		t.Fatalf("ByAddress: %v", err)
	}
	if weth.Symbol != "WETH" {
		t.Errorf("symbol = %s, want WETH", weth.Symbol)
	}
}

func TestNativeAndWrapped(t *testing.T) {
	r := newTestRegistry(t)

	if !r.Native().IsNative() {
		t.Error("Native() should carry the native sentinel address")
	}
	if r.WrappedNative().Symbol != "WETH" {
		t.Errorf("WrappedNative = %s, want WETH", r.WrappedNative().Symbol)
	}
}

func TestDuplicateSymbolRejected(t *testing.T) {
	tokens := append(Mainnet(), domain.Token{Symbol: "eth", Name: "dup", Address: "0x01", Decimals: 18})
	if _, err := New(tokens, "ETH", "WETH"); err == nil {
		t.Error("expected duplicate symbol error")
	}
}

func TestOracleIDs(t *testing.T) {
	r := newTestRegistry(t)
	ids := r.OracleIDs()
	if ids["ETH"] != "ethereum" {
		t.Errorf("ETH oracle id = %q, want ethereum", ids["ETH"])
	}
}
