package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-recon/internal/entity"
	"github.com/joseph-ayodele/invoice-recon/internal/money"
)

// computedPriceDigits is the precision of unit prices derived by division.
const computedPriceDigits = 4

var (
	integerSlack = decimal.NewFromFloat(0.01)
	// a derived unit price further than this from the printed one is not a repair
	unitRepairSlack = decimal.NewFromFloat(0.10)
)

// CheckLineItems validates quantity × unit price against every line total
// and repairs mismatches. Items are copied; the input is not modified.
// Unrepairable lines yield a warning each.
func CheckLineItems(items []entity.LineItem, tol Tolerances) ([]entity.LineItem, []entity.Finding) {
	out := make([]entity.LineItem, len(items))
	var warnings []entity.Finding
	for i, it := range items {
		checked, ok := checkLine(it, tol)
		out[i] = checked
		if !ok && it.LineTotal != 0 {
			warnings = append(warnings, mismatch(CodeLineItemMismatch, it.LineTotal, money.Extend(it.Quantity, it.UnitPrice),
				"line %d %q: %s x %s does not match %s", it.SourceLine, it.Description,
				it.Quantity.String(), it.UnitPrice.String(), amt(it.LineTotal)))
		}
	}
	return out, warnings
}

func checkLine(it entity.LineItem, tol Tolerances) (entity.LineItem, bool) {
	it.MathValidated = false
	if it.LineTotal == 0 {
		return it, false
	}
	total := money.FromMinor(it.LineTotal)

	if !it.Quantity.IsZero() && !it.UnitPrice.IsZero() && tol.lineOK(money.Extend(it.Quantity, it.UnitPrice), it.LineTotal) {
		it.MathValidated = true
		return it, true
	}

	// catch-weight first: the measured weight is the billed quantity
	if it.Weight.IsPositive() {
		unit := it.UnitPrice
		if unit.IsZero() || !tol.lineOK(money.Extend(it.Weight, unit), it.LineTotal) {
			unit = total.DivRound(it.Weight, computedPriceDigits)
		}
		if tol.lineOK(money.Extend(it.Weight, unit), it.LineTotal) {
			it.Quantity = it.Weight
			it.UnitPrice = unit
			it.IsCatchWeight = true
			it.MathValidated = true
			it.CorrectionApplied = CorrectionCatchWeight
			return it, true
		}
	}

	type repair struct {
		name     string
		qty      decimal.Decimal
		unit     decimal.Decimal
		residual int64
	}
	var best *repair
	consider := func(r repair) {
		ext := money.Extend(r.qty, r.unit)
		if !tol.lineOK(ext, it.LineTotal) {
			return
		}
		r.residual = money.Abs(ext - it.LineTotal)
		if best == nil || r.residual < best.residual {
			best = &r
		}
	}

	if it.UnitPrice.IsPositive() {
		q := total.Div(it.UnitPrice)
		rounded := q.Round(0)
		if rounded.IsPositive() && q.Sub(rounded).Abs().LessThanOrEqual(integerSlack) {
			consider(repair{name: CorrectionQuantity, qty: rounded, unit: it.UnitPrice})
		}
	}
	if it.Quantity.IsPositive() {
		unit := total.DivRound(it.Quantity, computedPriceDigits)
		if it.UnitPrice.IsZero() || unit.Sub(it.UnitPrice).Abs().LessThanOrEqual(it.UnitPrice.Abs().Mul(unitRepairSlack)) {
			consider(repair{name: CorrectionUnitPrice, qty: it.Quantity, unit: unit})
		}
	}
	if best == nil {
		return it, false
	}
	it.Quantity = best.qty
	it.UnitPrice = best.unit
	it.MathValidated = true
	it.CorrectionApplied = best.name
	return it, true
}
