package entity

import (
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-recon/constants"
)

// LineItem is one billed line. Created by line parsers; only the
// reconciliation engine mutates it afterwards.
type LineItem struct {
	Description       string          `json:"description"`
	SKU               string          `json:"sku,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	LineTotal         int64           `json:"line_total"`
	Weight            decimal.Decimal `json:"weight"`
	MathValidated     bool            `json:"math_validated"`
	CorrectionApplied string          `json:"correction_applied,omitempty"`
	IsCatchWeight     bool            `json:"is_catch_weight"`
	SourceLine        int             `json:"source_line"`
}

// Adjustment is a non-item charge or reduction. Amount is signed.
type Adjustment struct {
	Category    constants.AdjustmentCategory `json:"category"`
	Label       string                       `json:"label"`
	Amount      int64                        `json:"amount"`
	IsSynthetic bool                         `json:"is_synthetic"`
	Evidence    string                       `json:"evidence,omitempty"`
}

// InvoiceTotals are the header-level figures of an invoice.
type InvoiceTotals struct {
	Subtotal       int64  `json:"subtotal"`
	Tax            int64  `json:"tax"`
	Total          int64  `json:"total"`
	AdjustmentsNet int64  `json:"adjustments"`
	SubtotalSource string `json:"subtotal_source"`
	TaxSource      string `json:"tax_source"`
	TotalSource    string `json:"total_source"`
	Salvaged       bool   `json:"salvaged"`
}

// SumLineItems returns the sum of line totals in minor units.
func SumLineItems(items []LineItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.LineTotal
	}
	return sum
}

// SumAdjustments returns the signed sum of adjustments.
func SumAdjustments(adjs []Adjustment) int64 {
	var sum int64
	for _, a := range adjs {
		sum += a.Amount
	}
	return sum
}

// LayoutHints are approximate totals-section boundaries from an external
// layout analyzer, expressed as relative document positions. They bias
// scoring only.
type LayoutHints struct {
	TotalsStart float64 `json:"totals_start"`
	TotalsEnd   float64 `json:"totals_end"`
}

// Contains reports whether pos falls inside the hinted totals region.
// A nil receiver contains nothing.
func (h *LayoutHints) Contains(pos float64) bool {
	if h == nil || h.TotalsEnd <= h.TotalsStart {
		return false
	}
	return pos >= h.TotalsStart && pos <= h.TotalsEnd
}
