package reconcile

import (
	"fmt"

	"github.com/joseph-ayodele/invoice-recon/internal/common"
	"github.com/joseph-ayodele/invoice-recon/internal/entity"
	"github.com/joseph-ayodele/invoice-recon/internal/money"
)

// Finding codes.
const (
	CodeLineItemMismatch   = "LINE_ITEM_MISMATCH"
	CodeSumSubtotal        = "SUM_SUBTOTAL_MISMATCH"
	CodeSumVariance        = "SUM_SUBTOTAL_VARIANCE"
	CodeTotalsEquation     = "TOTALS_EQUATION_MISMATCH"
	CodeTotalMissing       = "TOTAL_MISSING"
	CodePrintedImplausible = "PRINTED_TOTAL_IMPLAUSIBLE"
	CodeNoEvidence         = "NO_RECONCILIATION_EVIDENCE"
	CodeSyntheticLarge     = "LARGE_SYNTHETIC_ADJUSTMENT"
	CodeUnexplainedDelta   = "UNEXPLAINED_DELTA"
	CodeSalvaged           = "SALVAGED"
	CodeSalvageExhausted   = "SALVAGE_EXHAUSTED"
)

// Correction names recorded on repaired line items.
const (
	CorrectionQuantity    = "quantity"
	CorrectionUnitPrice   = "unit_price"
	CorrectionCatchWeight = "catch_weight"
)

func finding(code string, err error, expected, computed int64, format string, args ...any) entity.Finding {
	return entity.Finding{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Expected: expected,
		Computed: computed,
		Err:      err,
	}
}

func mismatch(code string, expected, computed int64, format string, args ...any) entity.Finding {
	return finding(code, common.ErrReconciliationMismatch, expected, computed, format, args...)
}

func pct(r float64) string {
	return fmt.Sprintf("%.1f%%", r*100)
}

func amt(v int64) string {
	return money.Format(v)
}
