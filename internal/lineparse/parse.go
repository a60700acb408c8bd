package lineparse

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-recon/constants"
	"github.com/joseph-ayodele/invoice-recon/internal/entity"
	"github.com/joseph-ayodele/invoice-recon/internal/money"
	"github.com/joseph-ayodele/invoice-recon/internal/numclass"
	"github.com/joseph-ayodele/invoice-recon/internal/textnorm"
)

// RuleCatchWeight names continuation lines that carried a measured weight.
const RuleCatchWeight = "catchWeight"

// Line records which rule claimed a line.
type Line struct {
	Index int                `json:"index"`
	Rule  string             `json:"rule"`
	Kind  constants.LineKind `json:"kind"`
}

// Result is the output of one parse.
type Result struct {
	Items []entity.LineItem
	Lines []Line
}

// Parse runs the default table with the default classifier policy.
func Parse(text string) Result {
	return DefaultTable.Parse(text, numclass.DefaultPolicy)
}

// Parse walks normalized text line by line. Item lines need at least two
// prices: the last is the extension and the one before it the unit price.
// A catch-weight continuation line attaches its weight to the item above.
func (t Table) Parse(text string, policy numclass.Policy) Result {
	var res Result
	for i, raw := range textnorm.Lines(text) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if reContinuation.MatchString(line) && len(res.Items) > 0 {
			last := &res.Items[len(res.Items)-1]
			if w, ok := weightOf(line, policy); ok && last.Weight.IsZero() {
				last.Weight = w
				res.Lines = append(res.Lines, Line{Index: i, Rule: RuleCatchWeight, Kind: constants.LineItem})
				continue
			}
		}

		rule, ok := t.Match(line)
		if !ok || rule.Skip {
			continue
		}
		if rule.Kind != constants.LineItem {
			res.Lines = append(res.Lines, Line{Index: i, Rule: rule.Name, Kind: rule.Kind})
			continue
		}
		it, ok := buildItem(line, policy)
		if !ok {
			continue
		}
		it.SourceLine = i
		res.Items = append(res.Items, it)
		res.Lines = append(res.Lines, Line{Index: i, Rule: rule.Name, Kind: rule.Kind})
	}
	return res
}

func buildItem(line string, policy numclass.Policy) (entity.LineItem, bool) {
	results := policy.ClassifyLine(line)
	var prices []numclass.Result
	for _, r := range results {
		if r.Type == constants.NumberPrice {
			prices = append(prices, r)
		}
	}
	if len(prices) < 2 {
		return entity.LineItem{}, false
	}
	total := prices[len(prices)-1]
	unit := prices[len(prices)-2]

	it := entity.LineItem{
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: money.ParsePrecise(unit.Token),
		LineTotal: money.ParseAmount(total.Token),
	}
	used := map[int]bool{unit.Index: true, total.Index: true}
	qtyIdx := -1
	for _, r := range results {
		if r.Index >= unit.Index {
			break
		}
		switch r.Type {
		case constants.NumberQuantity:
			if qtyIdx < 0 {
				qtyIdx = r.Index
				it.Quantity = r.Value
			}
		case constants.NumberSKU:
			if it.SKU == "" {
				it.SKU = r.Token
			}
		case constants.NumberWeight:
			if it.Weight.IsZero() {
				it.Weight = r.Value
			}
		}
		used[r.Index] = true
	}

	var desc []string
	for i, tok := range strings.Fields(line) {
		if used[i] || numclass.IsNumeric(tok) || tok == "@" {
			continue
		}
		if i == qtyIdx+1 && qtyIdx >= 0 && reCountUnit.MatchString(tok) {
			continue
		}
		desc = append(desc, tok)
	}
	it.Description = strings.Join(desc, " ")
	return it, it.LineTotal != 0
}

func weightOf(line string, policy numclass.Policy) (decimal.Decimal, bool) {
	for _, r := range policy.ClassifyLine(line) {
		if r.Type == constants.NumberWeight && r.Value.IsPositive() {
			return r.Value, true
		}
	}
	return decimal.Zero, false
}
