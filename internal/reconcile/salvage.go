package reconcile

import (
	"sort"

	"github.com/joseph-ayodele/invoice-recon/constants"
	"github.com/joseph-ayodele/invoice-recon/internal/adjustments"
	"github.com/joseph-ayodele/invoice-recon/internal/candidates"
	"github.com/joseph-ayodele/invoice-recon/internal/entity"
	"github.com/joseph-ayodele/invoice-recon/internal/lineparse"
	"github.com/joseph-ayodele/invoice-recon/internal/money"
	"github.com/joseph-ayodele/invoice-recon/internal/totals"
)

// Salvage step names.
const (
	SalvageTotalMatch     = "total_match"
	SalvageSubtotalPair   = "subtotal_total_pair"
	SalvageClosestToItems = "closest_to_items"
)

type salvageCandidate struct {
	value int64
	label string
	score int
}

// salvage re-extracts total candidates and adjustments from text and runs
// the ordered searches. On success out.Totals and out.Adjustments are
// replaced wholesale.
func (e *Engine) salvage(text string, out *Outcome) bool {
	sum := out.LineItemsSum
	adjs := adjustments.Extract(text, e.rules).Adjustments
	if len(adjs) == 0 {
		adjs = printedOnly(out.Adjustments)
	}
	adjSum := entity.SumAdjustments(adjs)
	cands := e.totalCandidates(text)
	match := e.tol.SalvageMatchRatio

	// 1. a total explained by items plus adjustments
	if c, ok := closest(cands, sum+adjSum, match); ok {
		e.applySalvage(out, SalvageTotalMatch, sum, constants.SourceComputed, c, adjs)
		return true
	}

	// 2. a subtotal matching the items and a total matching that subtotal
	opts := candidates.DefaultOptions()
	for _, s := range candidates.Ranked(candidates.Extract(text, candidates.SubtotalTable, opts)) {
		if s.IsGroupTotal || money.Ratio(s.Value, sum, sum) > match {
			continue
		}
		if c, ok := closest(cands, s.Value+adjSum, match); ok {
			e.applySalvage(out, SalvageSubtotalPair, s.Value, constants.SourceSalvage, c, adjs)
			return true
		}
	}

	// 3. the original total is far off: take anything nearer to the items
	orig := out.Totals.Total
	if sum > 0 && money.Ratio(orig, sum, sum) > e.tol.SalvageDivergenceRatio {
		var best *salvageCandidate
		for i := range cands {
			c := &cands[i]
			d := money.Abs(c.value - sum)
			if d >= money.Abs(orig-sum) {
				continue
			}
			if best == nil || d < money.Abs(best.value-sum) {
				best = c
			}
		}
		if best != nil {
			e.applySalvage(out, SalvageClosestToItems, sum, constants.SourceComputed, *best, adjs)
			return true
		}
	}
	return false
}

// labelBacked lists the finder strategies whose proposals sit next to a
// total label. Value-only strategies would offer line extensions and let
// salvage balance an invoice against its own items.
var labelBacked = map[string]bool{
	totals.StrategyLabelAdjacency:   true,
	totals.StrategyBottomScan:       true,
	totals.StrategyKeywordProximity: true,
	totals.StrategyLastPageFocus:    true,
}

// standaloneLabelled is the standaloneFooter score given when a total
// keyword sits above the value.
const standaloneLabelled = 80

// totalCandidates merges the label table and the finder's label-backed,
// non-group proposals, one entry per value with its best score. Values on
// lines that parse as line items are never offered.
func (e *Engine) totalCandidates(text string) []salvageCandidate {
	itemLines := map[int]bool{}
	for _, l := range lineparse.Parse(text).Lines {
		if l.Kind == constants.LineItem {
			itemLines[l.Index] = true
		}
	}

	byValue := map[int64]int{}
	var out []salvageCandidate
	add := func(v int64, label string, score int) {
		if i, ok := byValue[v]; ok {
			if score > out[i].score {
				out[i].score = score
				out[i].label = label
			}
			return
		}
		byValue[v] = len(out)
		out = append(out, salvageCandidate{value: v, label: label, score: score})
	}
	for _, c := range candidates.Extract(text, candidates.TotalTable, candidates.DefaultOptions()) {
		if !c.IsGroupTotal && !itemLines[c.Line] {
			add(c.Value, c.Label, c.Score)
		}
	}
	for _, p := range e.finder.Proposals(text, totals.Input{}) {
		if p.IsGroup || itemLines[p.Line] {
			continue
		}
		if labelBacked[p.Strategy] || (p.Strategy == totals.StrategyStandaloneFooter && p.Score >= standaloneLabelled) {
			add(p.Value, p.Strategy, p.Score)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].score != out[b].score {
			return out[a].score > out[b].score
		}
		return out[a].value > out[b].value
	})
	return out
}

// closest returns the candidate nearest to target within ratio, ties going
// to the better-scored one.
func closest(cands []salvageCandidate, target int64, ratio float64) (salvageCandidate, bool) {
	var best salvageCandidate
	bestR := -1.0
	for _, c := range cands {
		r := money.Ratio(c.value, target, target)
		if r > ratio {
			continue
		}
		if bestR < 0 || r < bestR {
			best, bestR = c, r
		}
	}
	return best, bestR >= 0
}

func (e *Engine) applySalvage(out *Outcome, step string, subtotal int64, subSrc string, c salvageCandidate, adjs []entity.Adjustment) {
	var tax int64
	for _, a := range adjs {
		if a.Category == constants.Tax {
			tax += a.Amount
		}
	}
	taxSrc := constants.SourceNone
	if tax != 0 {
		taxSrc = constants.SourceSalvage
	}
	prev := out.Totals.Total
	out.Totals = entity.InvoiceTotals{
		Subtotal:       subtotal,
		SubtotalSource: subSrc,
		Tax:            tax,
		TaxSource:      taxSrc,
		Total:          c.value,
		TotalSource:    constants.SourceSalvage,
		AdjustmentsNet: entity.SumAdjustments(adjs),
		Salvaged:       true,
	}
	out.Adjustments = adjs
	out.SalvageStep = step
	out.Warnings = append(out.Warnings, mismatch(CodeSalvaged, prev, c.value,
		"total replaced by salvage (%s, %s): %s -> %s", step, c.label, amt(prev), amt(c.value)))
}

func printedOnly(adjs []entity.Adjustment) []entity.Adjustment {
	var out []entity.Adjustment
	for _, a := range adjs {
		if !a.IsSynthetic {
			out = append(out, a)
		}
	}
	return out
}
