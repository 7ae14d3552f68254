package units

import (
	"errors"
	"math/big"
	"testing"

	"dexquote/internal/domain"
)

func TestToSmallestUnit(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		decimals uint8
		want     string
	}{
		{"whole number", "2", 18, "2000000000000000000"},
		{"fractional", "1.5", 6, "1500000"},
		{"sub-unit", "0.000001", 6, "1"},
		{"truncates excess precision", "1.123456789", 6, "1123456"},
		{"no rounding up", "0.9999999", 6, "999999"},
		{"negative", "-3.25", 2, "-325"},
		{"leading dot", ".5", 6, "500000"},
		{"trailing dot", "1.", 6, "1000000"},
		{"zero decimals", "42", 0, "42"},
		{"zero decimals truncates fraction", "42.9", 0, "42"},
		{"zero", "0", 18, "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToSmallestUnit(tc.amount, tc.decimals)
			if err != nil {
				t.Fatalf("ToSmallestUnit(%q, %d): %v", tc.amount, tc.decimals, err)
			}
			if got.String() != tc.want {
				t.Errorf("ToSmallestUnit(%q, %d) = %s, want %s", tc.amount, tc.decimals, got, tc.want)
			}
		})
	}
}

func TestToSmallestUnitInvalid(t *testing.T) {
	bad := []string{"", "-", ".", "1.2.3", "1,5", "abc", "1e18", " 1", "1 ", "--1", "1-"}

	for _, amount := range bad {
		if _, err := ToSmallestUnit(amount, 18); !errors.Is(err, domain.ErrInvalidAmountFormat) {
			t.Errorf("ToSmallestUnit(%q) error = %v, want ErrInvalidAmountFormat", amount, err)
		}
	}
}

func TestToDecimalString(t *testing.T) {
	cases := []struct {
		raw      string
		decimals uint8
		want     string
	}{
		{"2000000000000000000", 18, "2"},
		{"1500000", 6, "1.5"},
		{"1", 6, "0.000001"},
		{"1123456", 6, "1.123456"},
		{"-325", 2, "-3.25"},
		{"42", 0, "42"},
		{"0", 18, "0"},
		{"1000000", 6, "1"},
		{"10100000", 6, "10.1"},
	}

	for _, tc := range cases {
		raw, ok := new(big.Int).SetString(tc.raw, 10)
		if !ok {
			t.Fatalf("bad test input %q", tc.raw)
		}
		if got := ToDecimalString(raw, tc.decimals); got != tc.want {
			t.Errorf("ToDecimalString(%s, %d) = %q, want %q", tc.raw, tc.decimals, got, tc.want)
		}
	}
}

// Round-trip: toDecimal(toSmallestUnit(x, d), d) == normalize(x) for inputs
// with at most d fractional digits.
func TestRoundTrip(t *testing.T) {
	cases := []struct {
		amount   string
		decimals uint8
		want     string
	}{
		{"2", 18, "2"},
		{"0.5", 18, "0.5"},
		{"1.123456", 6, "1.123456"},
		{"-7.25", 8, "-7.25"},
		{"003.140", 4, "3.14"},
		{"0.000001", 6, "0.000001"},
		{"1000", 0, "1000"},
	}

	for _, tc := range cases {
		raw, err := ToSmallestUnit(tc.amount, tc.decimals)
		if err != nil {
			t.Fatalf("ToSmallestUnit(%q): %v", tc.amount, err)
		}
		if got := ToDecimalString(raw, tc.decimals); got != tc.want {
			t.Errorf("round trip %q (d=%d) = %q, want %q", tc.amount, tc.decimals, got, tc.want)
		}
	}
}
