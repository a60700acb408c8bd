package reconcile

import (
	"log/slog"

	"github.com/joseph-ayodele/invoice-recon/constants"
	"github.com/joseph-ayodele/invoice-recon/internal/adjustments"
	"github.com/joseph-ayodele/invoice-recon/internal/common"
	"github.com/joseph-ayodele/invoice-recon/internal/entity"
	"github.com/joseph-ayodele/invoice-recon/internal/money"
	"github.com/joseph-ayodele/invoice-recon/internal/totals"
)

// SyntheticLabel is the label of the balancing adjustment.
const SyntheticLabel = "UNEXPLAINED DIFFERENCE"

// Input is everything the engine reconciles. Printed holds the header
// figures as extracted; sources are constants.SourceNone when missing.
type Input struct {
	Text        string
	LineItems   []entity.LineItem
	Printed     entity.InvoiceTotals
	Adjustments []entity.Adjustment
}

// Outcome is the reconciled record plus the evidence behind it.
type Outcome struct {
	LineItems     []entity.LineItem
	Totals        entity.InvoiceTotals
	Adjustments   []entity.Adjustment
	Issues        []entity.Finding
	Warnings      []entity.Finding
	State         constants.ReconcileState
	Trail         []constants.ReconcileState
	PrintedTotal  int64
	ComputedTotal int64
	LineItemsSum  int64
	SalvageStep   string
	SalvageFailed bool
	Synthetic     int
}

func (o *Outcome) enter(s constants.ReconcileState) {
	o.State = s
	o.Trail = append(o.Trail, s)
}

// Engine runs the reconciliation state machine:
// Unvalidated -> LineItemChecked -> TotalsChecked -> Valid, or
// -> SalvageAttempted -> SalvageSucceeded | SalvageFailed.
type Engine struct {
	tol    Tolerances
	finder *totals.Finder
	rules  []adjustments.Rule
	logger *slog.Logger
}

type Option func(*Engine)

// WithFinder sets the finder salvage uses to re-extract total candidates.
func WithFinder(f *totals.Finder) Option {
	return func(e *Engine) {
		if f != nil {
			e.finder = f
		}
	}
}

// WithRules sets the adjustment rules salvage re-extracts with.
func WithRules(r []adjustments.Rule) Option {
	return func(e *Engine) {
		if len(r) > 0 {
			e.rules = r
		}
	}
}

func NewEngine(tol Tolerances, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		tol:    tol,
		finder: totals.NewFinder(),
		rules:  adjustments.DefaultRules(),
		logger: logger,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Tolerances returns the thresholds the engine was built with.
func (e *Engine) Tolerances() Tolerances { return e.tol }

// Reconcile never fails; every degraded outcome is expressed through the
// findings, the state and the SalvageFailed flag.
func (e *Engine) Reconcile(in Input) Outcome {
	var out Outcome
	out.enter(constants.StateUnvalidated)

	items, lineWarnings := CheckLineItems(in.LineItems, e.tol)
	out.LineItems = items
	out.Warnings = append(out.Warnings, lineWarnings...)
	out.Adjustments = append([]entity.Adjustment(nil), in.Adjustments...)
	out.enter(constants.StateLineItemChecked)

	sum := entity.SumLineItems(items)
	out.LineItemsSum = sum
	needSalvage := e.checkTotals(in, &out)
	out.enter(constants.StateTotalsChecked)

	adjNet := entity.SumAdjustments(out.Adjustments)
	base := sum
	if len(items) == 0 {
		base = out.Totals.Subtotal
	}
	computed := base + adjNet
	out.ComputedTotal = computed
	out.PrintedTotal = in.Printed.Total
	printedUsable := e.choosePrinted(in.Printed, computed, &out)

	if printedUsable && base != 0 {
		delta := out.Totals.Total - computed
		if !e.tol.balanced(out.Totals.Total, computed) && money.Ratio(out.Totals.Total, computed, out.Totals.Total) >= e.tol.SyntheticMaxRatio {
			out.Issues = append(out.Issues, mismatch(CodeUnexplainedDelta, out.Totals.Total, computed,
				"printed total %s differs from items plus adjustments %s by %s (%s); too large to explain",
				amt(out.Totals.Total), amt(computed), amt(delta), pct(money.Ratio(out.Totals.Total, computed, out.Totals.Total))))
			needSalvage = true
		}
	}
	if base == 0 {
		out.Warnings = append(out.Warnings, finding(CodeNoEvidence, common.ErrExtractionMiss, out.Totals.Total, 0,
			"no line items or subtotal to reconcile the total against"))
	}

	if needSalvage {
		out.enter(constants.StateSalvageAttempted)
		if e.salvage(in.Text, &out) {
			out.enter(constants.StateSalvageSucceeded)
			e.logger.Debug("reconcile.salvage.ok", "step", out.SalvageStep, "total", out.Totals.Total)
			return out
		}
		out.SalvageFailed = true
		out.Issues = append(out.Issues, finding(CodeSalvageExhausted, common.ErrSalvageExhausted, in.Printed.Total, sum,
			"no salvage strategy reconciled; keeping total %s for manual review", amt(out.Totals.Total)))
		out.enter(constants.StateSalvageFailed)
		e.logger.Debug("reconcile.salvage.failed", "total", out.Totals.Total, "items_sum", sum)
	}

	if printedUsable && base != 0 {
		e.explainDelta(computed, &out)
	}
	out.Totals.AdjustmentsNet = entity.SumAdjustments(out.Adjustments)
	if !out.SalvageFailed {
		out.enter(constants.StateValid)
	}
	return out
}

// checkTotals fills out.Totals from the printed figures and records the
// sum-vs-subtotal and totals-equation findings. It reports whether the
// sum variance is large enough to require salvage.
func (e *Engine) checkTotals(in Input, out *Outcome) bool {
	p := in.Printed
	t := entity.InvoiceTotals{
		Subtotal:       p.Subtotal,
		SubtotalSource: sourceOr(p.SubtotalSource, p.Subtotal),
		Tax:            p.Tax,
		TaxSource:      sourceOr(p.TaxSource, p.Tax),
		Total:          p.Total,
		TotalSource:    sourceOr(p.TotalSource, p.Total),
	}
	sum := out.LineItemsSum
	hasItems := len(out.LineItems) > 0
	salvage := false

	if t.SubtotalSource == constants.SourceNone && hasItems {
		t.Subtotal = sum
		t.SubtotalSource = constants.SourceComputed
	} else if hasItems {
		r := money.Ratio(sum, t.Subtotal, t.Subtotal)
		switch {
		case r > e.tol.ExcessiveVarianceRatio:
			out.Issues = append(out.Issues, mismatch(CodeSumVariance, t.Subtotal, sum,
				"line items sum %s is %s away from subtotal %s", amt(sum), pct(r), amt(t.Subtotal)))
			salvage = true
		case r > e.tol.SumRatio:
			out.Warnings = append(out.Warnings, mismatch(CodeSumSubtotal, t.Subtotal, sum,
				"line items sum %s is %s away from subtotal %s", amt(sum), pct(r), amt(t.Subtotal)))
		}
	}

	if t.TaxSource == constants.SourceNone {
		var tax int64
		for _, a := range out.Adjustments {
			if a.Category == constants.Tax {
				tax += a.Amount
			}
		}
		if tax != 0 {
			t.Tax = tax
			t.TaxSource = constants.SourceComputed
		}
	}

	if t.TotalSource != constants.SourceNone && t.Subtotal != 0 && !e.tol.implausible(t.Total, t.Subtotal) {
		withTax := t.Subtotal + t.Tax
		withAdj := t.Subtotal + entity.SumAdjustments(out.Adjustments)
		if money.Ratio(withTax, t.Total, t.Total) > e.tol.TotalsEquationRatio &&
			money.Ratio(withAdj, t.Total, t.Total) > e.tol.TotalsEquationRatio {
			out.Warnings = append(out.Warnings, mismatch(CodeTotalsEquation, t.Total, withTax,
				"subtotal %s + tax %s = %s does not match total %s",
				amt(t.Subtotal), amt(t.Tax), amt(withTax), amt(t.Total)))
		}
	}
	t.AdjustmentsNet = entity.SumAdjustments(out.Adjustments)
	out.Totals = t
	return salvage
}

// choosePrinted applies printed-total priority: the printed total stands
// unless it is missing or implausibly small, in which case the computed
// total substitutes. It reports whether the printed total was kept.
func (e *Engine) choosePrinted(p entity.InvoiceTotals, computed int64, out *Outcome) bool {
	missing := p.TotalSource == constants.SourceNone || p.Total == 0
	switch {
	case missing && computed == 0:
		return false
	case missing:
		out.Totals.Total = computed
		out.Totals.TotalSource = constants.SourceComputed
		out.Warnings = append(out.Warnings, finding(CodeTotalMissing, common.ErrExtractionMiss, 0, computed,
			"no printed total found; using computed %s", amt(computed)))
		return false
	case e.tol.implausible(p.Total, computed):
		out.Totals.Total = computed
		out.Totals.TotalSource = constants.SourceComputed
		out.Warnings = append(out.Warnings, mismatch(CodePrintedImplausible, p.Total, computed,
			"printed total %s is implausibly small against computed %s; using computed",
			amt(p.Total), amt(computed)))
		return false
	}
	return true
}

// explainDelta balances a moderate printed-vs-computed gap with exactly one
// synthetic adjustment. Gaps at or above SyntheticMaxRatio are left alone.
func (e *Engine) explainDelta(computed int64, out *Outcome) {
	total := out.Totals.Total
	if e.tol.balanced(total, computed) {
		return
	}
	r := money.Ratio(total, computed, total)
	if r >= e.tol.SyntheticMaxRatio {
		return
	}
	delta := total - computed
	cat := constants.Fee
	if delta < 0 {
		cat = constants.Credit
	}
	out.Adjustments = append(out.Adjustments, entity.Adjustment{
		Category:    cat,
		Label:       SyntheticLabel,
		Amount:      delta,
		IsSynthetic: true,
		Evidence:    "printed " + amt(total) + " vs computed " + amt(computed),
	})
	out.Synthetic++
	if r >= e.tol.LargeSyntheticRatio {
		out.Warnings = append(out.Warnings, mismatch(CodeSyntheticLarge, total, computed,
			"synthetic adjustment of %s covers %s of the total", amt(delta), pct(r)))
	}
}

func sourceOr(src string, v int64) string {
	if src == "" {
		if v == 0 {
			return constants.SourceNone
		}
		return constants.SourcePrinted
	}
	return src
}
