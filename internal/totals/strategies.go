package totals

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/invoice-recon/internal/candidates"
	"github.com/joseph-ayodele/invoice-recon/internal/entity"
	"github.com/joseph-ayodele/invoice-recon/internal/money"
)

// Strategy names, also reported in votes.
const (
	StrategyLabelAdjacency     = "labelAdjacency"
	StrategyBottomScan         = "bottomScan"
	StrategyStandaloneFooter   = "standaloneFooter"
	StrategyKeywordProximity   = "keywordProximity"
	StrategyLargestValue       = "largestValue"
	StrategyLastPageFocus      = "lastPageFocus"
	StrategyPatternBattery     = "patternBattery"
	StrategySubtotalTax        = "subtotalTaxArithmetic"
	StrategyEndOfDocument      = "endOfDocumentPosition"
	StrategyLineItemCrossCheck = "lineItemSumCrossValidation"
)

// Proposal is one (value, score) vote from one strategy.
type Proposal struct {
	Value    int64
	Score    int
	Strategy string
	Line     int
	IsGroup  bool
}

// Strategy proposes total values for a document. Propose must be pure.
type Strategy struct {
	Name    string
	Propose func(d *Document) []Proposal
}

// DefaultStrategies returns the full strategy set in evaluation order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: StrategyLabelAdjacency, Propose: labelAdjacency},
		{Name: StrategyBottomScan, Propose: bottomScan},
		{Name: StrategyStandaloneFooter, Propose: standaloneFooter},
		{Name: StrategyKeywordProximity, Propose: keywordProximity},
		{Name: StrategyLargestValue, Propose: largestValue},
		{Name: StrategyLastPageFocus, Propose: lastPageFocus},
		{Name: StrategyPatternBattery, Propose: patternBattery},
		{Name: StrategySubtotalTax, Propose: subtotalTaxArithmetic},
		{Name: StrategyEndOfDocument, Propose: endOfDocument},
		{Name: StrategyLineItemCrossCheck, Propose: lineItemCrossCheck},
	}
}

var (
	reAdjacentGap  = regexp.MustCompile(`^[\s:=.\-$]*$`)
	reTotalKeyword = regexp.MustCompile(`\b(TOTAL|DUE|BALANCE|PAY|PAYABLE)\b`)
	reProximityKey = regexp.MustCompile(`\b(TOTAL|AMOUNT|DUE|BALANCE|PAY|PAYABLE)\b`)
	rePageOf       = regexp.MustCompile(`\bPAGE\s+(\d+)\s*(?:OF|/)\s*(\d+)\b`)
	reLastPage     = regexp.MustCompile(`\bLAST\s+PAGE\b`)
)

// keywordOK reports whether the keyword match at loc on line i is a plain,
// unqualified grand-total style keyword.
func keywordOK(d *Document, i int, loc []int) bool {
	up := d.Upper[i]
	sub, group := candidates.Qualifiers(up, loc[0])
	if sub || group {
		return false
	}
	if up[loc[0]:loc[1]] == "TOTAL" && candidates.CountLabel(up[loc[1]:]) {
		return false
	}
	return true
}

// nextValueLine returns the sole token of the first non-blank line after i
// when that line is only a value, looking at most two lines ahead.
func nextValueLine(d *Document, i int) (money.Token, int, bool) {
	for j := i + 1; j < len(d.Lines) && j <= i+2; j++ {
		if d.Blank(j) {
			continue
		}
		if t, ok := d.standalone(j); ok {
			return t, j, true
		}
		break
	}
	return money.Token{}, 0, false
}

// labelAdjacency takes the value printed right next to a total label, on the
// same line or alone on the following line.
func labelAdjacency(d *Document) []Proposal {
	var out []Proposal
	for i, up := range d.Upper {
		for _, p := range candidates.TotalTable.Patterns {
			for _, loc := range p.Re.FindAllStringIndex(up, -1) {
				sub, group := candidates.Qualifiers(up, loc[0])
				if sub || group || p.Excluded(up, loc) {
					continue
				}
				if after := d.tokensAfter(i, loc[1]); len(after) > 0 {
					t := after[0]
					if reAdjacentGap.MatchString(up[loc[1]:t.Offset]) && d.Bounds.InBounds(t.Value) {
						out = append(out, Proposal{Value: t.Value, Score: p.Priority, Line: i})
					}
					continue
				}
				if t, j, ok := nextValueLine(d, i); ok && d.Bounds.InBounds(t.Value) {
					out = append(out, Proposal{Value: t.Value, Score: p.Priority - 5, Line: j})
				}
			}
		}
	}
	return out
}

// bottomScan walks the footer upwards and takes the last value of the first
// few total-keyword lines it meets.
func bottomScan(d *Document) []Proposal {
	var out []Proposal
	stop := d.FooterStart(0.25, 6)
	rank := 0
	for i := len(d.Lines) - 1; i >= stop && len(out) < 3; i-- {
		if d.Blank(i) {
			continue
		}
		rank++
		loc := reTotalKeyword.FindStringIndex(d.Upper[i])
		if loc == nil || !keywordOK(d, i, loc) {
			continue
		}
		after := d.tokensAfter(i, loc[1])
		if len(after) == 0 {
			continue
		}
		t := after[len(after)-1]
		if ok, _ := d.Eligible(i, t); !ok {
			continue
		}
		out = append(out, Proposal{Value: t.Value, Score: max(50, 84-4*rank), Line: i})
	}
	return out
}

// standaloneFooter catches whitespace-padded corner blocks where the amount
// sits alone on its line, usually under a label.
func standaloneFooter(d *Document) []Proposal {
	var out []Proposal
	for i := d.FooterStart(0.3, 8); i < len(d.Lines); i++ {
		t, ok := d.standalone(i)
		if !ok || !d.Bounds.InBounds(t.Value) {
			continue
		}
		score, skip := 60, false
		for j, seen := i-1, 0; j >= 0 && seen < 2; j-- {
			if d.Blank(j) {
				continue
			}
			seen++
			if len(d.Tokens[j]) > 0 {
				break
			}
			up := d.Upper[j]
			if sub, group := candidates.ValueQualified(up, len(up)); sub || group {
				skip = true
				break
			}
			if loc := reTotalKeyword.FindStringIndex(up); loc != nil && keywordOK(d, j, loc) {
				score = 80
				break
			}
		}
		if skip {
			continue
		}
		out = append(out, Proposal{Value: t.Value, Score: score, Line: i})
	}
	return out
}

// keywordProximity proposes the value nearest to each total-ish keyword
// within a small line window; distance costs score.
func keywordProximity(d *Document) []Proposal {
	var out []Proposal
	for i, up := range d.Upper {
		for _, loc := range reProximityKey.FindAllStringIndex(up, -1) {
			if !keywordOK(d, i, loc) {
				continue
			}
			if p, ok := nearestValue(d, i, loc[1]); ok {
				out = append(out, p)
			}
		}
	}
	return out
}

func nearestValue(d *Document, i, from int) (Proposal, bool) {
	if after := d.tokensAfter(i, from); len(after) > 0 {
		if ok, group := d.Eligible(i, after[0]); ok && !group {
			return Proposal{Value: after[0].Value, Score: 72, Line: i}, true
		}
	}
	for dist, j := 1, i+1; j < len(d.Lines) && dist <= 2; dist, j = dist+1, j+1 {
		for _, t := range d.Tokens[j] {
			if ok, group := d.Eligible(j, t); ok && !group {
				return Proposal{Value: t.Value, Score: 72 - 8*dist, Line: j}, true
			}
		}
	}
	if i > 0 {
		toks := d.Tokens[i-1]
		for k := len(toks) - 1; k >= 0; k-- {
			if ok, group := d.Eligible(i-1, toks[k]); ok && !group {
				return Proposal{Value: toks[k].Value, Score: 60, Line: i - 1}, true
			}
		}
	}
	return Proposal{}, false
}

// largestValue assumes the grand total is the largest eligible amount.
func largestValue(d *Document) []Proposal {
	best := Proposal{Value: -1}
	for i, toks := range d.Tokens {
		for _, t := range toks {
			ok, group := d.Eligible(i, t)
			if !ok || group {
				continue
			}
			if t.Value > best.Value || (t.Value == best.Value && i > best.Line) {
				best = Proposal{Value: t.Value, Score: 55, Line: i}
			}
		}
	}
	if best.Value < 0 {
		return nil
	}
	return []Proposal{best}
}

// lastPageFocus restricts a label search to the final page of multi-page
// text. It abstains when the document carries no page markers.
func lastPageFocus(d *Document) []Proposal {
	start, ok := lastPageStart(d)
	if !ok {
		return nil
	}
	region := strings.Join(d.Lines[start:], "\n")
	bounds := d.Bounds
	bounds.Hints = nil
	var out []Proposal
	for _, c := range candidates.Ranked(candidates.Extract(region, candidates.TotalTable, bounds)) {
		if c.IsGroupTotal {
			continue
		}
		out = append(out, Proposal{Value: c.Value, Score: min(c.Score, 90), Line: start + c.Line})
		if len(out) == 2 {
			break
		}
	}
	return out
}

func lastPageStart(d *Document) (int, bool) {
	var markers []int
	final := -1
	for i, up := range d.Upper {
		if reLastPage.MatchString(up) {
			markers = append(markers, i)
			final = i
			continue
		}
		if m := rePageOf.FindStringSubmatch(up); m != nil {
			markers = append(markers, i)
			n, _ := strconv.Atoi(m[1])
			total, _ := strconv.Atoi(m[2])
			if n == total {
				final = i
			}
		}
	}
	if len(markers) == 0 {
		return 0, false
	}
	if final < 0 {
		final = markers[len(markers)-1]
	}
	// a marker near the bottom is a page footer: the page began after the previous marker
	if final >= len(d.Lines)-3 {
		prev := -1
		for _, m := range markers {
			if m < final {
				prev = m
			}
		}
		return prev + 1, true
	}
	return final, true
}

// patternBattery is the exhaustive label table. It is the only strategy
// that keeps group-qualified matches, flagged, as a last resort.
func patternBattery(d *Document) []Proposal {
	bounds := d.Bounds
	bounds.Hints = nil
	cands := candidates.Extract(d.Text, candidates.TotalTable, bounds)
	out := make([]Proposal, 0, len(cands))
	for _, c := range cands {
		out = append(out, proposalFromCandidate(c, StrategyPatternBattery))
	}
	return out
}

// subtotalTaxArithmetic proposes printed values below the subtotal that
// equal subtotal + tax (+ fees) to the cent.
func subtotalTaxArithmetic(d *Document) []Proposal {
	bounds := d.Bounds
	bounds.Hints = nil
	sub, ok := candidates.Best(candidates.Extract(d.Text, candidates.SubtotalTable, bounds))
	if !ok {
		return nil
	}
	var tax int64
	if t, ok := candidates.Best(candidates.Extract(d.Text, candidates.TaxTable, bounds)); ok {
		tax = t.Value
	}
	var fees int64
	feeLines := map[int]bool{}
	for _, f := range candidates.Extract(d.Text, candidates.FeeTable, bounds) {
		if !feeLines[f.Line] {
			feeLines[f.Line] = true
			fees += f.Value
		}
	}

	type target struct {
		value int64
		score int
	}
	var targets []target
	if tax > 0 {
		targets = append(targets, target{sub.Value + tax, 88})
	}
	if fees > 0 {
		targets = append(targets, target{sub.Value + tax + fees, 85})
	}

	var out []Proposal
	for _, tg := range targets {
		for i := sub.Line + 1; i < len(d.Lines); i++ {
			for _, t := range d.Tokens[i] {
				if money.Abs(t.Value-tg.value) > 1 {
					continue
				}
				if ok, group := d.Eligible(i, t); ok && !group {
					out = append(out, Proposal{Value: t.Value, Score: tg.score, Line: i})
				}
			}
		}
	}
	return out
}

// endOfDocument favours the last amounts printed; earlier ones decay.
func endOfDocument(d *Document) []Proposal {
	var out []Proposal
	stop := d.FooterStart(0.2, 5)
	for i := len(d.Lines) - 1; i >= stop && len(out) < 3; i-- {
		toks := d.Tokens[i]
		for k := len(toks) - 1; k >= 0 && len(out) < 3; k-- {
			ok, group := d.Eligible(i, toks[k])
			if !ok || group {
				continue
			}
			score := int(35+30*d.Position(i)) - 10*len(out)
			out = append(out, Proposal{Value: toks[k].Value, Score: score, Line: i})
		}
	}
	return out
}

// lineItemCrossCheck votes for lower-half values that are explained by the
// line-item sum plus a modest uplift for tax and charges.
func lineItemCrossCheck(d *Document) []Proposal {
	sum := d.LineItemsSum
	if sum <= 0 {
		return nil
	}
	var out []Proposal
	for i, toks := range d.Tokens {
		if d.Position(i) < 0.5 {
			continue
		}
		for _, t := range toks {
			ok, group := d.Eligible(i, t)
			if !ok || group {
				continue
			}
			r := money.Ratio(t.Value, sum, sum)
			switch {
			case t.Value >= sum && r < 0.20:
				out = append(out, Proposal{Value: t.Value, Score: 75 - int(r*50), Line: i})
			case t.Value < sum && r <= 0.02:
				out = append(out, Proposal{Value: t.Value, Score: 60, Line: i})
			}
		}
	}
	return out
}

func proposalFromCandidate(c entity.Candidate, strategy string) Proposal {
	return Proposal{Value: c.Value, Score: c.Score, Strategy: strategy, Line: c.Line, IsGroup: c.IsGroupTotal}
}
