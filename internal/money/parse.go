// Package money canonicalises textual money and quantity tokens into
// integer minor units (cents) and high-precision decimals.
package money

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-recon/internal/common"
)

// PreciseDigits is how many decimal digits the high-precision path keeps.
const PreciseDigits = 3

var (
	reCurrency  = regexp.MustCompile(`(?i)\b(usd|cad|eur|gbp)\b|[$£€¥]`)
	reTrailCR   = regexp.MustCompile(`(?i)\s*CR\.?$`)
	reNumeric   = regexp.MustCompile(`^(\d+(\.\d+)?|\.\d+)$`)
	reHasDigits = regexp.MustCompile(`\d`)
)

// ParseAmount converts a money string to minor units. Unparsable input
// yields 0; it never panics.
func ParseAmount(text string) int64 {
	v, err := ParseStrict(text)
	if err != nil {
		slog.Debug("money.parse.malformed", "raw", text, "err", err)
		return 0
	}
	return v
}

// ParseStrict is ParseAmount with an error for malformed input.
func ParseStrict(text string) (int64, error) {
	d, err := parseDecimal(text)
	if err != nil {
		return 0, err
	}
	return ToMinor(d), nil
}

// ParsePrecise keeps up to PreciseDigits decimals so that quantity × unit
// price can be computed before rounding. Malformed input yields zero.
func ParsePrecise(text string) decimal.Decimal {
	d, err := parseDecimal(text)
	if err != nil {
		slog.Debug("money.parse.malformed", "raw", text, "err", err)
		return decimal.Zero
	}
	return d.Round(PreciseDigits)
}

func parseDecimal(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	if s == "" || !reHasDigits.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%w: %q", common.ErrMalformedToken, text)
	}

	neg := false
	unwrap := func() {
		if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
			neg = true
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	unwrap()
	if loc := reTrailCR.FindStringIndex(s); loc != nil {
		neg = true
		s = strings.TrimSpace(s[:loc[0]])
	}
	if strings.HasSuffix(s, "-") {
		neg = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "-"))
	}
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}
	s = strings.TrimSpace(reCurrency.ReplaceAllString(s, ""))
	// "$(12.00)" and "$-12.00" only become visible once the symbol is gone
	unwrap()
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimPrefix(s, "-")
	}
	s = strings.TrimPrefix(s, "+")
	s = strings.ReplaceAll(s, ",", "")
	// OCR and PDF renderers split digit groups: "1 748.85"
	s = strings.Join(strings.Fields(s), "")

	if !reNumeric.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%w: %q", common.ErrMalformedToken, text)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", common.ErrMalformedToken, text, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// ToMinor rounds a decimal amount half away from zero to minor units.
func ToMinor(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// FromMinor converts minor units back to a decimal amount.
func FromMinor(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}

// Extend computes quantity × unit price at full precision and rounds once.
func Extend(qty, unit decimal.Decimal) int64 {
	return ToMinor(qty.Mul(unit))
}

// Abs returns |v|.
func Abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Ratio returns |a-b| / |base|, or 1 when base is zero and a != b.
func Ratio(a, b, base int64) float64 {
	diff := Abs(a - b)
	if diff == 0 {
		return 0
	}
	if base == 0 {
		return 1
	}
	return float64(diff) / float64(Abs(base))
}
