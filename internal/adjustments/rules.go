package adjustments

import (
	"regexp"

	"github.com/joseph-ayodele/invoice-recon/constants"
	"github.com/joseph-ayodele/invoice-recon/internal/candidates"
)

// Rule binds a category to its ordered label patterns.
type Rule struct {
	Category constants.AdjustmentCategory
	Patterns []candidates.Pattern
}

var (
	reCreditNoise  = regexp.MustCompile(`^\s*(CARD|LIMIT|TERMS|APPROVAL|CHECK)\b`)
	reDepositNoise = regexp.MustCompile(`^\s*(SLIP|ACCOUNT|NO\.?|#)\b`)
	reFeeNoise     = regexp.MustCompile(`^\s*(SCHEDULE|WAIVED)\b`)
)

var defaultRules = []Rule{
	{
		Category: constants.Tax,
		Patterns: candidates.TaxTable.Patterns,
	},
	{
		Category: constants.Fee,
		Patterns: []candidates.Pattern{
			{Re: regexp.MustCompile(`\bFUEL\s+SURCHARGE\b`), Label: "FUEL SURCHARGE", Priority: 85},
			{Re: regexp.MustCompile(`\b(BOTTLE|CONTAINER|KEG|PALLET)\s+DEPOSIT\b`), Label: "CONTAINER DEPOSIT", Priority: 85},
			{Re: regexp.MustCompile(`\bSERVICE\s+(FEE|CHARGE)\b`), Label: "SERVICE FEE", Priority: 80},
			{Re: regexp.MustCompile(`\bENVIRONMENTAL\s+(FEE|CHARGE|LEVY)\b`), Label: "ENVIRONMENTAL FEE", Priority: 80},
			{Re: regexp.MustCompile(`\bRESTOCKING\b`), Label: "RESTOCKING FEE", Priority: 75},
			{Re: regexp.MustCompile(`\bSURCHARGE\b`), Label: "SURCHARGE", Priority: 75},
			{Re: regexp.MustCompile(`\bHANDLING\b`), Label: "HANDLING", Priority: 70},
			{Re: regexp.MustCompile(`\bLATE\s+(FEE|CHARGE)\b`), Label: "LATE FEE", Priority: 70},
			{Re: regexp.MustCompile(`\bFEES?\b`), Label: "FEE", Priority: 65, ExcludeAfter: reFeeNoise},
		},
	},
	{
		Category: constants.Shipping,
		Patterns: []candidates.Pattern{
			{Re: regexp.MustCompile(`\bSHIPPING\b`), Label: "SHIPPING", Priority: 85},
			{Re: regexp.MustCompile(`\bFREIGHT\b`), Label: "FREIGHT", Priority: 85},
			{Re: regexp.MustCompile(`\bDELIVERY\b`), Label: "DELIVERY", Priority: 80},
			{Re: regexp.MustCompile(`\bPOSTAGE\b`), Label: "POSTAGE", Priority: 75},
			{Re: regexp.MustCompile(`\bS\s?&\s?H\b`), Label: "S&H", Priority: 75},
		},
	},
	{
		Category: constants.Discount,
		Patterns: []candidates.Pattern{
			{Re: regexp.MustCompile(`\bDISCOUNTS?\b`), Label: "DISCOUNT", Priority: 85},
			{Re: regexp.MustCompile(`\bDISC\b`), Label: "DISCOUNT", Priority: 75},
			{Re: regexp.MustCompile(`\b(PROMO|PROMOTION)\b`), Label: "PROMO", Priority: 75},
			{Re: regexp.MustCompile(`\bCOUPON\b`), Label: "COUPON", Priority: 75},
			{Re: regexp.MustCompile(`\bMARKDOWN\b`), Label: "MARKDOWN", Priority: 70},
			{Re: regexp.MustCompile(`\bREBATE\b`), Label: "REBATE", Priority: 70},
		},
	},
	{
		Category: constants.Credit,
		Patterns: []candidates.Pattern{
			{Re: regexp.MustCompile(`\bCREDIT\s+MEMO\b`), Label: "CREDIT MEMO", Priority: 90},
			{Re: regexp.MustCompile(`\bCREDIT\b`), Label: "CREDIT", Priority: 80, ExcludeAfter: reCreditNoise},
			{Re: regexp.MustCompile(`\bRETURNS?\b`), Label: "RETURN", Priority: 75},
			{Re: regexp.MustCompile(`\bREFUND\b`), Label: "REFUND", Priority: 75},
		},
	},
	{
		Category: constants.Deposit,
		Patterns: []candidates.Pattern{
			{Re: regexp.MustCompile(`\bPAYMENTS?\s+RECEIVED\b`), Label: "PAYMENT RECEIVED", Priority: 90},
			{Re: regexp.MustCompile(`\bAMOUNT\s+PAID\b`), Label: "AMOUNT PAID", Priority: 85},
			{Re: regexp.MustCompile(`\bPRE-?PA(ID|YMENT)\b`), Label: "PREPAID", Priority: 85},
			{Re: regexp.MustCompile(`\bDEPOSIT\b`), Label: "DEPOSIT", Priority: 80, ExcludeAfter: reDepositNoise},
		},
	},
	{
		Category: constants.Allowance,
		Patterns: []candidates.Pattern{
			{Re: regexp.MustCompile(`\bALLOWANCE\b`), Label: "ALLOWANCE", Priority: 85},
			{Re: regexp.MustCompile(`\bBILL\s*BACK\b`), Label: "BILLBACK", Priority: 80},
		},
	},
}

// DefaultRules returns the stock rule table in claiming order. The returned
// slice is a copy; the patterns it points at are shared and immutable.
func DefaultRules() []Rule {
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}
