package reconcile

import (
	"errors"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-recon/constants"
	"github.com/joseph-ayodele/invoice-recon/internal/common"
	"github.com/joseph-ayodele/invoice-recon/internal/entity"
)

func item(desc, qty, unit string, total int64) entity.LineItem {
	return entity.LineItem{
		Description: desc,
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   decimal.RequireFromString(unit),
		LineTotal:   total,
	}
}

func printedTotal(v int64) entity.InvoiceTotals {
	return entity.InvoiceTotals{Total: v, TotalSource: "labelAdjacency"}
}

func synthetics(adjs []entity.Adjustment) []entity.Adjustment {
	var out []entity.Adjustment
	for _, a := range adjs {
		if a.IsSynthetic {
			out = append(out, a)
		}
	}
	return out
}

func codes(fs []entity.Finding) []string {
	var out []string
	for _, f := range fs {
		out = append(out, f.Code)
	}
	return out
}

func newEngine() *Engine {
	return NewEngine(DefaultTolerances(), nil)
}

func TestReconcile_BalancedCreatesNoSynthetic(t *testing.T) {
	tests := []struct {
		name  string
		total int64
	}{
		{"exact", 10800},
		{"within balance tolerance", 10804},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := newEngine().Reconcile(Input{
				LineItems:   []entity.LineItem{item("WIDGET", "2", "50.00", 10000)},
				Printed:     printedTotal(tt.total),
				Adjustments: []entity.Adjustment{{Category: constants.Tax, Label: "SALES TAX", Amount: 800}},
			})
			assert.Empty(t, synthetics(out.Adjustments))
			assert.Empty(t, out.Issues)
			assert.Equal(t, constants.StateValid, out.State)
			assert.Equal(t, []constants.ReconcileState{
				constants.StateUnvalidated,
				constants.StateLineItemChecked,
				constants.StateTotalsChecked,
				constants.StateValid,
			}, out.Trail)
			assert.Equal(t, tt.total, out.Totals.Total)
			assert.Equal(t, int64(800), out.Totals.Tax)
			assert.Equal(t, int64(10000), out.Totals.Subtotal)
			assert.Equal(t, constants.SourceComputed, out.Totals.SubtotalSource)
		})
	}
}

func TestReconcile_DeltaExplanation(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		category  constants.AdjustmentCategory
		wantLarge bool
	}{
		{"small positive delta", 10500, constants.Fee, false},
		{"large positive delta", 11500, constants.Fee, true},
		{"large negative delta", 9000, constants.Credit, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := newEngine().Reconcile(Input{
				LineItems: []entity.LineItem{item("WIDGET", "1", "100.00", 10000)},
				Printed:   printedTotal(tt.total),
			})
			syn := synthetics(out.Adjustments)
			require.Len(t, syn, 1)
			assert.Equal(t, tt.total-10000, syn[0].Amount)
			assert.Equal(t, tt.category, syn[0].Category)
			assert.Equal(t, SyntheticLabel, syn[0].Label)
			assert.Equal(t, 1, out.Synthetic)
			assert.Equal(t, tt.total, out.Totals.Total)
			assert.Equal(t, tt.total-10000, out.Totals.AdjustmentsNet)
			assert.Equal(t, tt.wantLarge, slices.Contains(codes(out.Warnings), CodeSyntheticLarge))
			assert.Empty(t, out.Issues)
			assert.Equal(t, constants.StateValid, out.State)
		})
	}
}

func TestReconcile_LargeDeltaIsAnIssueNotASynthetic(t *testing.T) {
	out := newEngine().Reconcile(Input{
		LineItems: []entity.LineItem{item("WIDGET", "1", "100.00", 10000)},
		Printed:   printedTotal(15000),
	})
	assert.Empty(t, synthetics(out.Adjustments))
	assert.Contains(t, codes(out.Issues), CodeUnexplainedDelta)
	assert.Contains(t, codes(out.Issues), CodeSalvageExhausted)
	assert.True(t, out.SalvageFailed)
	assert.Equal(t, constants.StateSalvageFailed, out.State)
	assert.Equal(t, int64(15000), out.Totals.Total, "original total retained")

	var exhausted bool
	for _, f := range out.Issues {
		if errors.Is(f.Err, common.ErrSalvageExhausted) {
			exhausted = true
		}
	}
	assert.True(t, exhausted)
}

func TestReconcile_ScenarioD_ImplausiblePrintedTotal(t *testing.T) {
	out := newEngine().Reconcile(Input{
		LineItems: []entity.LineItem{item("WIDGET", "1", "842.50", 84250)},
		Printed:   printedTotal(100),
	})
	assert.Equal(t, int64(84250), out.Totals.Total)
	assert.Equal(t, constants.SourceComputed, out.Totals.TotalSource)
	assert.Equal(t, int64(100), out.PrintedTotal)
	assert.Contains(t, codes(out.Warnings), CodePrintedImplausible)
	assert.NotContains(t, codes(out.Warnings), CodeTotalsEquation)
	assert.Empty(t, synthetics(out.Adjustments))
	assert.Equal(t, constants.StateValid, out.State)
}

func TestReconcile_DivergentPrintedTotalStaysAuthoritative(t *testing.T) {
	// 5% of computed is the floor; 60.00 against 1000.00 is merely divergent
	out := newEngine().Reconcile(Input{
		LineItems: []entity.LineItem{item("WIDGET", "1", "1000.00", 100000)},
		Printed:   printedTotal(6000),
	})
	assert.Equal(t, int64(6000), out.Totals.Total)
	assert.Contains(t, codes(out.Issues), CodeUnexplainedDelta)
}

func TestReconcile_MissingTotal(t *testing.T) {
	out := newEngine().Reconcile(Input{
		LineItems:   []entity.LineItem{item("WIDGET", "2", "5.00", 1000)},
		Printed:     entity.InvoiceTotals{TotalSource: constants.SourceNone},
		Adjustments: []entity.Adjustment{{Category: constants.Fee, Label: "FEE", Amount: 150}},
	})
	assert.Equal(t, int64(1150), out.Totals.Total)
	assert.Equal(t, constants.SourceComputed, out.Totals.TotalSource)
	assert.Contains(t, codes(out.Warnings), CodeTotalMissing)

	empty := newEngine().Reconcile(Input{})
	assert.Equal(t, int64(0), empty.Totals.Total)
	assert.Equal(t, constants.SourceNone, empty.Totals.TotalSource)
	assert.Contains(t, codes(empty.Warnings), CodeNoEvidence)
}

func TestReconcile_SumVersusSubtotal(t *testing.T) {
	warn := newEngine().Reconcile(Input{
		LineItems: []entity.LineItem{item("WIDGET", "1", "100.00", 10000)},
		Printed: entity.InvoiceTotals{
			Subtotal: 10500, SubtotalSource: "SUBTOTAL",
			Total: 10000, TotalSource: "labelAdjacency",
		},
	})
	assert.Contains(t, codes(warn.Warnings), CodeSumSubtotal)
	assert.NotContains(t, codes(warn.Issues), CodeSumVariance)

	issue := newEngine().Reconcile(Input{
		LineItems: []entity.LineItem{item("WIDGET", "1", "100.00", 10000)},
		Printed: entity.InvoiceTotals{
			Subtotal: 15000, SubtotalSource: "SUBTOTAL",
			Total: 10000, TotalSource: "labelAdjacency",
		},
	})
	assert.Contains(t, codes(issue.Issues), CodeSumVariance)
	assert.Contains(t, issue.Trail, constants.StateSalvageAttempted)
}

func TestSalvage_TotalMatch(t *testing.T) {
	text := "WIDGET 100.00\nSALES TAX 8.00\nAMOUNT DUE 108.00\nPREVIOUS BALANCE 250.00"
	out := newEngine().Reconcile(Input{
		Text:        text,
		LineItems:   []entity.LineItem{item("WIDGET", "1", "100.00", 10000)},
		Printed:     printedTotal(25000),
		Adjustments: []entity.Adjustment{{Category: constants.Tax, Label: "SALES TAX", Amount: 800}},
	})
	assert.Equal(t, constants.StateSalvageSucceeded, out.State)
	assert.Equal(t, SalvageTotalMatch, out.SalvageStep)
	assert.True(t, out.Totals.Salvaged)
	assert.Equal(t, int64(10800), out.Totals.Total)
	assert.Equal(t, int64(800), out.Totals.Tax)
	assert.Equal(t, constants.SourceSalvage, out.Totals.TotalSource)
	assert.False(t, out.SalvageFailed)
	assert.Contains(t, codes(out.Warnings), CodeSalvaged)
}

func TestSalvage_SubtotalTotalPair(t *testing.T) {
	text := "WIDGET 100.00\nSUBTOTAL 104.00\nCREDIT 90.00\nAMOUNT DUE 14.00"
	out := newEngine().Reconcile(Input{
		Text:      text,
		LineItems: []entity.LineItem{item("WIDGET", "1", "100.00", 10000)},
		Printed: entity.InvoiceTotals{
			Subtotal: 10400, SubtotalSource: "SUBTOTAL",
			Total: 6000, TotalSource: "labelAdjacency",
		},
		Adjustments: []entity.Adjustment{{Category: constants.Credit, Label: "CREDIT", Amount: -9000}},
	})
	require.Equal(t, constants.StateSalvageSucceeded, out.State)
	assert.Equal(t, SalvageSubtotalPair, out.SalvageStep)
	assert.Equal(t, int64(10400), out.Totals.Subtotal)
	assert.Equal(t, int64(1400), out.Totals.Total)
	assert.Equal(t, int64(-9000), out.Totals.AdjustmentsNet)
}

func TestSalvage_ClosestToItems(t *testing.T) {
	text := "FREIGHT 30.00\nINVOICE TOTAL 900.00\nPAY THIS AMOUNT 160.00"
	out := newEngine().Reconcile(Input{
		Text:        text,
		LineItems:   []entity.LineItem{item("WIDGET", "1", "100.00", 10000)},
		Printed:     printedTotal(90000),
		Adjustments: []entity.Adjustment{{Category: constants.Shipping, Label: "FREIGHT", Amount: 3000}},
	})
	require.Equal(t, constants.StateSalvageSucceeded, out.State)
	assert.Equal(t, SalvageClosestToItems, out.SalvageStep)
	assert.Equal(t, int64(16000), out.Totals.Total)
}

func TestSalvage_NeverBalancesAgainstItemAmounts(t *testing.T) {
	text := "ACME FOODS\nINVOICE 1234\n2 CS WIDGET 12345 50.00 100.00\nINVOICE TOTAL 150.00"
	e := newEngine()
	out := e.Reconcile(Input{
		Text:      text,
		LineItems: []entity.LineItem{item("WIDGET", "2", "50.00", 10000)},
		Printed:   printedTotal(15000),
	})
	assert.Equal(t, constants.StateSalvageFailed, out.State)
	assert.True(t, out.SalvageFailed)
	assert.False(t, out.Totals.Salvaged)
	assert.Equal(t, int64(15000), out.Totals.Total, "printed total retained")
	assert.Contains(t, codes(out.Issues), CodeSalvageExhausted)

	cands := e.totalCandidates(text)
	require.NotEmpty(t, cands)
	for _, c := range cands {
		assert.NotEqual(t, int64(10000), c.value, "line extension offered by %s", c.label)
	}
}

func TestTotalCandidates_LabelBackedOnly(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []int64
	}{
		{"label on same line", "WIDGET 4.00 4.00\nINVOICE TOTAL 9.00", []int64{900}},
		{"label above standalone value", "WIDGET 4.00 4.00\nTOTAL\n9.00", []int64{900}},
		{"unlabelled amounts", "WIDGET 4.00 4.00\nTHANK YOU\n9.00", nil},
		{"group totals dropped", "DEPT TOTAL 40.00\nAMOUNT DUE 12.00", []int64{1200}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int64
			for _, c := range newEngine().totalCandidates(tt.text) {
				got = append(got, c.value)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	items := []entity.LineItem{item("WIDGET", "3", "5.00", 1000)}
	adjs := []entity.Adjustment{{Category: constants.Fee, Amount: 100}}
	newEngine().Reconcile(Input{LineItems: items, Adjustments: adjs, Printed: printedTotal(1300)})
	assert.True(t, items[0].Quantity.Equal(decimal.NewFromInt(3)))
	assert.False(t, items[0].MathValidated)
	assert.Len(t, adjs, 1)
}
