package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-recon/internal/common"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
	}{
		{"plain", "12.34", 1234},
		{"dollar", "$12.34", 1234},
		{"dollar with space", "$ 12.34", 1234},
		{"comma grouped", "$1,234,567.89", 123456789},
		{"space grouped", "1 748.85", 174885},
		{"leading minus", "-5.00", -500},
		{"minus after symbol", "$-5.00", -500},
		{"parentheses", "(5.00)", -500},
		{"parentheses around symbol", "$(1,200.00)", -120000},
		{"trailing minus", "5.00-", -500},
		{"trailing CR", "5.00 CR", -500},
		{"trailing cr lowercase", "5.00cr", -500},
		{"iso code", "USD 10.00", 1000},
		{"integer", "42", 4200},
		{"rounds half away from zero", "1.005", 101},
		{"negative rounds away from zero", "-1.005", -101},
		{"three decimals", "84.000", 8400},
		{"empty", "", 0},
		{"words", "TOTAL", 0},
		{"garbage", "12.3.4", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseAmount(tt.input))
		})
	}
}

func TestParseStrict_Malformed(t *testing.T) {
	_, err := ParseStrict("N/A")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMalformedToken))

	v, err := ParseStrict("$3.50")
	require.NoError(t, err)
	assert.Equal(t, int64(350), v)
}

func TestParsePrecise_KeepsThreeDecimals(t *testing.T) {
	assert.True(t, decimal.RequireFromString("1.395").Equal(ParsePrecise("1.395")))
	assert.True(t, decimal.RequireFromString("1.396").Equal(ParsePrecise("1.3955")))
	assert.True(t, ParsePrecise("abc").IsZero())
}

func TestExtend_RoundsOnce(t *testing.T) {
	// 7 × 1.335 = 9.345 rounds once to 9.35; rounding the price first gives 7 × 1.34 = 9.38
	assert.Equal(t, int64(935), Extend(decimal.NewFromInt(7), ParsePrecise("1.335")))
	assert.Equal(t, int64(1000), Extend(decimal.NewFromInt(2), ParsePrecise("5.00")))
}

func TestRoundTrip(t *testing.T) {
	values := []int64{0, 1, 99, 100, 123456, 100000000, -1, -250, -123456789}
	formats := map[string]func(int64) string{
		"dollar": Format,
		"plain":  FormatPlain,
		"paren":  FormatParen,
		"cr":     FormatCR,
	}
	for name, f := range formats {
		for _, v := range values {
			assert.Equal(t, v, ParseAmount(f(v)), "%s(%d) = %q", name, v, f(v))
		}
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$1,234.56", Format(123456))
	assert.Equal(t, "-$0.05", Format(-5))
	assert.Equal(t, "($1,000.00)", FormatParen(-100000))
	assert.Equal(t, "12.00 CR", FormatCR(-1200))
	assert.Equal(t, "-12.30", FormatPlain(-1230))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 0.0, Ratio(100, 100, 0))
	assert.Equal(t, 1.0, Ratio(100, 0, 0))
	assert.InDelta(t, 0.1, Ratio(110, 100, 100), 1e-9)
}
