// Package units converts token amounts between human-scale decimal strings
// and the integer smallest-unit representation used on chain. Both directions
// are pure functions and safe for concurrent use.
package units

import (
	"fmt"
	"math/big"
	"strings"

	"dexquote/internal/domain"
)

// ToSmallestUnit parses a decimal string and scales it to the token's
// smallest unit. Fractional digits beyond decimals are truncated, not
// rounded; that loss of precision is deliberate. Returns
// domain.ErrInvalidAmountFormat when the string is empty, contains characters
// outside [0-9.-], or has more than one decimal point.
func ToSmallestUnit(amount string, decimals uint8) (*big.Int, error) {
	if amount == "" {
		return nil, fmt.Errorf("units: empty amount: %w", domain.ErrInvalidAmountFormat)
	}

	negative := false
	if amount[0] == '-' {
		negative = true
		amount = amount[1:]
	}

	if amount == "" || strings.Count(amount, ".") > 1 {
		return nil, fmt.Errorf("units: malformed amount %q: %w", amount, domain.ErrInvalidAmountFormat)
	}
	for _, r := range amount {
		if (r < '0' || r > '9') && r != '.' {
			return nil, fmt.Errorf("units: invalid character %q in amount: %w", r, domain.ErrInvalidAmountFormat)
		}
	}

	intPart, fracPart, _ := strings.Cut(amount, ".")
	if intPart == "" && fracPart == "" {
		return nil, fmt.Errorf("units: malformed amount %q: %w", amount, domain.ErrInvalidAmountFormat)
	}
	if intPart == "" {
		intPart = "0"
	}

	// Pad or truncate the fractional part to exactly decimals digits.
	d := int(decimals)
	if len(fracPart) > d {
		fracPart = fracPart[:d]
	} else if len(fracPart) < d {
		fracPart += strings.Repeat("0", d-len(fracPart))
	}

	raw, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return nil, fmt.Errorf("units: parse amount %q: %w", amount, domain.ErrInvalidAmountFormat)
	}
	if negative {
		raw.Neg(raw)
	}
	return raw, nil
}

// ToDecimalString formats a smallest-unit amount as a minimal decimal string:
// trailing fractional zeros are stripped, and the decimal point is omitted
// when the fraction is zero. Always succeeds for any integer input.
func ToDecimalString(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}

	sign := ""
	digits := raw.String()
	if strings.HasPrefix(digits, "-") {
		sign = "-"
		digits = digits[1:]
	}

	d := int(decimals)
	if len(digits) <= d {
		digits = strings.Repeat("0", d-len(digits)+1) + digits
	}

	intPart := digits[:len(digits)-d]
	fracPart := strings.TrimRight(digits[len(digits)-d:], "0")

	if intPart == "0" && fracPart == "" {
		return "0"
	}
	if fracPart == "" {
		return sign + intPart
	}
	return sign + intPart + "." + fracPart
}
