// Package lineparse turns plain invoice text into line items using one
// declarative rule table and a single matching engine.
package lineparse

import (
	"regexp"

	"github.com/joseph-ayodele/invoice-recon/constants"
)

// Rule tags a line. When several rules match, the highest priority wins;
// equal priorities keep table order.
type Rule struct {
	Name     string
	Pattern  *regexp.Regexp
	Priority int
	Kind     constants.LineKind
	// Skip marks lines that are never items (totals, headers, page markers).
	Skip bool
}

// Table is an immutable rule set.
type Table []Rule

// DefaultTable covers the layouts seen on distributor invoices: a leading
// quantity and pack unit, a description, an optional code, and a unit price
// followed by the extension.
var DefaultTable = Table{
	{Name: "totals", Pattern: regexp.MustCompile(`(?i)\b(SUB[\s\-]*TOTAL|TOTAL|BALANCE|AMOUNT\s+DUE|PAY\s+THIS)\b`), Priority: 100, Skip: true},
	{Name: "tax", Pattern: regexp.MustCompile(`(?i)\b(SALES\s+TAX|TAX|GST|HST|PST|VAT)\b`), Priority: 90, Skip: true},
	{Name: "page", Pattern: regexp.MustCompile(`(?i)\bPAGE\s+\d+(\s+OF\s+\d+)?\b`), Priority: 90, Skip: true},
	{Name: "credit", Pattern: regexp.MustCompile(`(?i)\b(CREDIT|RETURN(ED)?|REFUND|ALLOWANCE|DISCOUNT)\b`), Priority: 50, Kind: constants.LineCredit},
	{Name: "fee", Pattern: regexp.MustCompile(`(?i)\b(FEE|SURCHARGE|FREIGHT|DELIVERY|SHIPPING|DEPOSIT)\b`), Priority: 40, Kind: constants.LineFee},
	// A leading quantity with a unit price and an extension is an item even
	// when the description reads like a charge ("2 CS SHIPPING BOXES").
	{Name: "qtyUnitItem", Pattern: regexp.MustCompile(`(?i)^\d{1,3}\s+(CS|CA|EA|BX|PK|CT|DZ|BG|PC|LB|LBS)\b.*\d\.\d{2,3}\s+\$?\d[\d,]*\.\d{2}\s*$`), Priority: 70, Kind: constants.LineItem},
	{Name: "qtyItem", Pattern: regexp.MustCompile(`^\d{1,3}\s+\S.*\d\.\d{2,3}\s+\$?\d[\d,]*\.\d{2}\s*$`), Priority: 60, Kind: constants.LineItem},
	{Name: "pricedItem", Pattern: regexp.MustCompile(`^[A-Za-z].*\d\.\d{2,3}\s+\$?\d[\d,]*\.\d{2}\s*$`), Priority: 10, Kind: constants.LineItem},
}

var (
	reContinuation = regexp.MustCompile(`(?i)^\d+\.\d{1,3}\s*(T/WT=?|LBS?\b|KGS?\b)`)
	reCountUnit    = regexp.MustCompile(`(?i)^(CS|CA|EA|BX|PK|CT|DZ|BG|PC|PCS|LB|LBS)\.?$`)
)

// Match returns the winning rule for a line.
func (t Table) Match(line string) (Rule, bool) {
	var best Rule
	found := false
	for _, r := range t {
		if !r.Pattern.MatchString(line) {
			continue
		}
		if !found || r.Priority > best.Priority {
			best, found = r, true
		}
	}
	return best, found
}
