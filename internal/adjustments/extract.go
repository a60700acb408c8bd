// Package adjustments extracts taxes, fees, shipping, discounts, credits,
// deposits and allowances from invoice text with canonical signs.
package adjustments

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/invoice-recon/constants"
	"github.com/joseph-ayodele/invoice-recon/internal/candidates"
	"github.com/joseph-ayodele/invoice-recon/internal/entity"
	"github.com/joseph-ayodele/invoice-recon/internal/money"
	"github.com/joseph-ayodele/invoice-recon/internal/textnorm"
)

// Summary aggregates extracted adjustments for reconciliation.
type Summary struct {
	Net        int64                                  `json:"net"`
	ByCategory map[constants.AdjustmentCategory]int64 `json:"by_category"`
	Count      int                                    `json:"count"`
}

// Of returns the signed subtotal of one category.
func (s Summary) Of(c constants.AdjustmentCategory) int64 {
	return s.ByCategory[c]
}

// Result is the extractor output.
type Result struct {
	Adjustments []entity.Adjustment `json:"adjustments"`
	Summary     Summary             `json:"summary"`
}

var (
	reNegWord    = regexp.MustCompile(`\b(LESS|MINUS|CR)\b`)
	reDashBefore = regexp.MustCompile(`-\s*\$?\s*$`)
	reItemLead   = regexp.MustCompile(`^\s*\d+(\.\d+)?\s+[A-Z]`)
	reWordAfter  = regexp.MustCompile(`^\s*[A-Z]`)
	genericTotal = candidates.TotalTable.Patterns[len(candidates.TotalTable.Patterns)-1]
	amountBounds = func() candidates.Options {
		o := candidates.DefaultOptions()
		o.AllowNegative = true
		return o
	}()
)

// Extract scans text line by line. Rules are tried in order and the first
// rule with a matching label and an amount claims the line. Subtotal and
// grand-total lines are never adjustments.
func Extract(text string, rules []Rule) Result {
	lines := textnorm.Lines(text)
	upper := candidates.UpperLines(lines)
	seen := map[string]bool{}
	var out []entity.Adjustment

	for i, up := range upper {
		if strings.TrimSpace(up) == "" || totalsLine(up) {
			continue
		}
		if reItemLead.MatchString(up) && len(money.Scan(up)) >= 2 {
			continue
		}
		adj, ok := matchLine(upper, i, rules)
		if !ok {
			continue
		}
		adj.Evidence = lines[i]
		key := fmt.Sprintf("%d|%d|%s", adj.Category, money.Abs(adj.Amount), adj.Label)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, adj)
	}
	return Result{Adjustments: out, Summary: Summarize(out)}
}

func matchLine(upper []string, i int, rules []Rule) (entity.Adjustment, bool) {
	up := upper[i]
	for _, r := range rules {
		for _, p := range r.Patterns {
			loc := p.Re.FindStringIndex(up)
			if loc == nil || p.Excluded(up, loc) {
				continue
			}
			tok, sameLine, ok := amountFor(upper, i, loc)
			if !ok || tok.Value == 0 || !amountBounds.InBounds(tok.Value) {
				continue
			}
			negative := tok.Value < 0 || reNegWord.MatchString(up)
			if sameLine && reDashBefore.MatchString(up[:tok.Offset]) {
				negative = true
			}
			amount := money.Abs(tok.Value)
			if negative {
				amount = -amount
			} else {
				amount *= r.Category.DefaultSign()
			}
			return entity.Adjustment{
				Category: r.Category,
				Label:    p.Label,
				Amount:   amount,
			}, true
		}
	}
	return entity.Adjustment{}, false
}

// amountFor prefers the last amount after the label on the same line
// ("SALES TAX 8% ON 100.00 8.00"), then falls back to the shared lookup.
func amountFor(upper []string, i int, loc []int) (money.Token, bool, bool) {
	if after := money.Scan(upper[i][loc[1]:]); len(after) > 0 {
		t := after[len(after)-1]
		t.Offset += loc[1]
		return t, true, true
	}
	t, penalty, ok := candidates.AmountNear(upper, i, loc[0], loc[1])
	if !ok {
		return t, false, false
	}
	// penalty 10 means the amount came from the following line
	return t, penalty != 10, true
}

// totalsLine reports whether up is a subtotal or grand-total line. A bare
// TOTAL followed by a word ("TOTAL FREIGHT") is not.
func totalsLine(up string) bool {
	for _, p := range candidates.SubtotalTable.Patterns {
		if p.Re.MatchString(up) {
			return true
		}
	}
	for _, p := range candidates.TotalTable.Patterns {
		for _, loc := range p.Re.FindAllStringIndex(up, -1) {
			if p.Excluded(up, loc) {
				continue
			}
			if p.Label == genericTotal.Label && reWordAfter.MatchString(up[loc[1]:]) {
				continue
			}
			return true
		}
	}
	return false
}

// Summarize aggregates adjustments into net and per-category totals.
func Summarize(adjs []entity.Adjustment) Summary {
	s := Summary{ByCategory: map[constants.AdjustmentCategory]int64{}}
	for _, a := range adjs {
		s.Net += a.Amount
		s.ByCategory[a.Category] += a.Amount
		s.Count++
	}
	return s
}
