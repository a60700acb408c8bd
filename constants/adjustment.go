package constants

import (
	"strings"
)

// AdjustmentCategory is the closed set of non-item charges and reductions on an invoice.
type AdjustmentCategory int

const (
	Tax AdjustmentCategory = iota
	Fee
	Shipping
	Discount
	Credit
	Deposit
	Allowance
)

var allAdjustmentCategories = []AdjustmentCategory{
	Tax,
	Fee,
	Shipping,
	Discount,
	Credit,
	Deposit,
	Allowance,
}

// AdjustmentCategories returns the categories in canonical order.
func AdjustmentCategories() []AdjustmentCategory {
	out := make([]AdjustmentCategory, len(allAdjustmentCategories))
	copy(out, allAdjustmentCategories)
	return out
}

func (c AdjustmentCategory) String() string {
	switch c {
	case Tax:
		return "tax"
	case Fee:
		return "fee"
	case Shipping:
		return "shipping"
	case Discount:
		return "discount"
	case Credit:
		return "credit"
	case Deposit:
		return "deposit"
	case Allowance:
		return "allowance"
	}
	return "unknown"
}

// DefaultSign is +1 for charges and -1 for reductions.
func (c AdjustmentCategory) DefaultSign() int64 {
	switch c {
	case Tax, Fee, Shipping:
		return 1
	case Discount, Credit, Deposit, Allowance:
		return -1
	}
	return 1
}

func (c AdjustmentCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *AdjustmentCategory) UnmarshalText(b []byte) error {
	cat, ok := ParseAdjustmentCategory(string(b))
	if !ok {
		return &UnknownValueError{Kind: "adjustment category", Value: string(b)}
	}
	*c = cat
	return nil
}

// ParseAdjustmentCategory maps a label or synonym to a category.
func ParseAdjustmentCategory(input string) (AdjustmentCategory, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return Fee, false
	}

	synonyms := map[string]AdjustmentCategory{
		"gst":       Tax,
		"hst":       Tax,
		"vat":       Tax,
		"surcharge": Fee,
		"freight":   Shipping,
		"delivery":  Shipping,
		"rebate":    Discount,
		"promo":     Discount,
		"refund":    Credit,
		"return":    Credit,
		"bottle":    Deposit,
	}
	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allAdjustmentCategories {
		if normalized == cat.String() {
			return cat, true
		}
	}
	return Fee, false
}
