package candidates

import (
	"regexp"

	"github.com/joseph-ayodele/invoice-recon/internal/entity"
)

// Pattern is one (pattern, label, priority) entry. Re matches the label on an
// upper-cased line; the amount is looked up around the match by the engine.
type Pattern struct {
	Re       *regexp.Regexp
	Label    string
	Priority int
	// ExcludeAfter rejects the match when the text right after the label matches.
	ExcludeAfter *regexp.Regexp
	// ExcludeBefore rejects the match when the window right before the label matches.
	ExcludeBefore *regexp.Regexp
}

// Excluded reports whether a match at loc on upper is vetoed by the
// pattern's before/after exclusions.
func (p Pattern) Excluded(upper string, loc []int) bool {
	if p.ExcludeAfter != nil && p.ExcludeAfter.MatchString(upper[loc[1]:]) {
		return true
	}
	return p.ExcludeBefore != nil && p.ExcludeBefore.MatchString(upper[:loc[0]])
}

// CountLabel reports whether the text following a bare TOTAL names a count
// or a non-grand figure ("TOTAL CASES", "TOTAL TAX", "TOTAL BEFORE TAX").
func CountLabel(after string) bool {
	return reCountTotal.MatchString(after)
}

// Table is an immutable pattern table for one candidate kind.
type Table struct {
	Kind     entity.CandidateKind
	Patterns []Pattern
	// DropSubtotal discards matches qualified by a preceding SUB ("SUB TOTAL").
	DropSubtotal bool
	// PositionWeight adds up to this many points for matches late in the document.
	PositionWeight int
}

var (
	reCountTotal = regexp.MustCompile(`^\s*(TAX|TAXES|ITEMS?|QTY|QUANTITY|CASES?|WEIGHT|WT|PIECES|PCS|UNITS|SAVINGS|DISCOUNTS?|LINES?|PAGES?|CUBE|BEFORE)\b`)
	reTaxNoise   = regexp.MustCompile(`^\s*(ID|EXEMPT|NO\.?|#|REG|REGISTRATION|NUMBER)\b`)
	reTaxBase    = regexp.MustCompile(`(BEFORE|EXCL\.?|EXCLUDING|PRE|WITHOUT|NON)[\s\-]*$`)
)

// TotalTable finds grand-total labels.
var TotalTable = Table{
	Kind:           entity.KindTotal,
	DropSubtotal:   true,
	PositionWeight: 10,
	Patterns: []Pattern{
		{Re: regexp.MustCompile(`\bINVOICE\s+TOTAL\b`), Label: "INVOICE TOTAL", Priority: 95},
		{Re: regexp.MustCompile(`\bGRAND\s+TOTAL\b`), Label: "GRAND TOTAL", Priority: 95},
		{Re: regexp.MustCompile(`\bTOTAL\s+AMOUNT\s+DUE\b`), Label: "TOTAL AMOUNT DUE", Priority: 95},
		{Re: regexp.MustCompile(`\bTOTAL\s+INVOICE\b`), Label: "TOTAL INVOICE", Priority: 90},
		{Re: regexp.MustCompile(`\bAMOUNT\s+DUE\b`), Label: "AMOUNT DUE", Priority: 90},
		{Re: regexp.MustCompile(`\bBALANCE\s+DUE\b`), Label: "BALANCE DUE", Priority: 90},
		{Re: regexp.MustCompile(`\bTOTAL\s+DUE\b`), Label: "TOTAL DUE", Priority: 90},
		{Re: regexp.MustCompile(`\bINVOICE\s+AMOUNT\b`), Label: "INVOICE AMOUNT", Priority: 85},
		{Re: regexp.MustCompile(`\bPLEASE\s+PAY\b`), Label: "PLEASE PAY", Priority: 85},
		{Re: regexp.MustCompile(`\bNET\s+AMOUNT\b`), Label: "NET AMOUNT", Priority: 75},
		{Re: regexp.MustCompile(`\bTOTAL\b`), Label: "TOTAL", Priority: 70, ExcludeAfter: reCountTotal},
	},
}

// SubtotalTable finds pre-tax subtotal labels.
var SubtotalTable = Table{
	Kind:           entity.KindSubtotal,
	PositionWeight: 5,
	Patterns: []Pattern{
		{Re: regexp.MustCompile(`\bSUB[\s\-]?TOTAL\b`), Label: "SUBTOTAL", Priority: 90},
		{Re: regexp.MustCompile(`\bTOTAL\s+BEFORE\s+TAX\b`), Label: "TOTAL BEFORE TAX", Priority: 85},
		{Re: regexp.MustCompile(`\bMERCHANDISE\s+TOTAL\b`), Label: "MERCHANDISE TOTAL", Priority: 80},
		{Re: regexp.MustCompile(`\bPRODUCT\s+TOTAL\b`), Label: "PRODUCT TOTAL", Priority: 75},
		{Re: regexp.MustCompile(`\bITEMS?\s+TOTAL\b`), Label: "ITEM TOTAL", Priority: 75},
		{Re: regexp.MustCompile(`\bNET\s+SALES\b`), Label: "NET SALES", Priority: 70},
	},
}

// TaxTable finds tax labels.
var TaxTable = Table{
	Kind: entity.KindTax,
	Patterns: []Pattern{
		{Re: regexp.MustCompile(`\bSALES\s+TAX\b`), Label: "SALES TAX", Priority: 90},
		{Re: regexp.MustCompile(`\b(GST|HST|PST|QST|VAT)\b`), Label: "VAT/GST", Priority: 85, ExcludeAfter: reTaxNoise},
		{Re: regexp.MustCompile(`\bTAX\b`), Label: "TAX", Priority: 75, ExcludeAfter: reTaxNoise, ExcludeBefore: reTaxBase},
	},
}

// FeeTable finds surcharge and fee labels.
var FeeTable = Table{
	Kind: entity.KindFee,
	Patterns: []Pattern{
		{Re: regexp.MustCompile(`\bFUEL\s+SURCHARGE\b`), Label: "FUEL SURCHARGE", Priority: 85},
		{Re: regexp.MustCompile(`\bDELIVERY\s+(FEE|CHARGE)\b`), Label: "DELIVERY FEE", Priority: 85},
		{Re: regexp.MustCompile(`\bSERVICE\s+(FEE|CHARGE)\b`), Label: "SERVICE FEE", Priority: 80},
		{Re: regexp.MustCompile(`\b(SHIPPING|FREIGHT)\b`), Label: "SHIPPING", Priority: 75},
		{Re: regexp.MustCompile(`\bSURCHARGE\b`), Label: "SURCHARGE", Priority: 75},
		{Re: regexp.MustCompile(`\bHANDLING\b`), Label: "HANDLING", Priority: 70},
		{Re: regexp.MustCompile(`\bFEE\b`), Label: "FEE", Priority: 65},
	},
}
