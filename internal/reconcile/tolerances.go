// Package reconcile cross-checks line items, adjustments and header totals,
// repairs what it can and explains or flags what it cannot.
package reconcile

import (
	"github.com/joseph-ayodele/invoice-recon/internal/common"
	"github.com/joseph-ayodele/invoice-recon/internal/money"
)

// Tolerances are the named thresholds of every check. They are kept distinct
// on purpose; each check has its own.
type Tolerances common.ReconcileConfig

// DefaultTolerances returns the stock set.
func DefaultTolerances() Tolerances {
	return Tolerances(common.DefaultReconcileConfig())
}

// lineOK reports whether a computed extension matches a printed line total.
func (t Tolerances) lineOK(computed, printed int64) bool {
	return within(computed, printed, t.LineItemAbs, t.LineItemRatio)
}

// balanced reports whether the printed total matches items plus adjustments.
func (t Tolerances) balanced(total, computed int64) bool {
	return within(computed, total, t.BalanceAbs, t.BalanceRatio)
}

// implausible reports whether a printed total is too small to be the real
// one: under the floor, or a tiny fraction of the computed total.
func (t Tolerances) implausible(printed, computed int64) bool {
	if computed <= 0 {
		return false
	}
	return printed < t.PrintedTotalFloor || float64(printed) < t.PrintedTotalMinRatio*float64(computed)
}

func within(a, b, abs int64, ratio float64) bool {
	diff := money.Abs(a - b)
	return diff <= abs || float64(diff) <= ratio*float64(money.Abs(b))
}
