// Package numclass assigns a semantic type to numeric tokens on invoice lines.
//
// The same lexical token ("84", "12345", "5.00") means different things
// depending on the words around it and where it sits on the line, so every
// classification carries a confidence and the reasons behind it; downstream
// stages are free to revise it.
package numclass

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-recon/constants"
)

// Policy is the fixed weight table used by the classifier.
type Policy struct {
	WeightBase        int
	WeightTareBoost   int
	WeightMaxPosition float64

	PriceBase         int
	PricePerUnitBoost int
	PriceLateBoost    int
	PriceLatePosition float64

	SKUBase       int
	SKULongBoost  int
	SKULongDigits int
	SKUMidBoost   int

	QtyBase            int
	QtyLeadingBoost    int
	QtyLeadingPosition float64
	QtyUnitBoost       int
	QtyMax             int64

	PackSizeBase int

	UnknownConfidence int
}

// DefaultPolicy is the stock weight table.
var DefaultPolicy = Policy{
	WeightBase:        70,
	WeightTareBoost:   15,
	WeightMaxPosition: 0.5,

	PriceBase:         70,
	PricePerUnitBoost: 10,
	PriceLateBoost:    10,
	PriceLatePosition: 0.6,

	SKUBase:       65,
	SKULongBoost:  10,
	SKULongDigits: 7,
	SKUMidBoost:   10,

	QtyBase:            60,
	QtyLeadingBoost:    15,
	QtyLeadingPosition: 0.25,
	QtyUnitBoost:       10,
	QtyMax:             999,

	PackSizeBase: 65,

	UnknownConfidence: 30,
}

// Window is the text immediately around a token.
type Window struct {
	Before string
	After  string
}

// Result is the classification of one token.
type Result struct {
	Token      string               `json:"token"`
	Value      decimal.Decimal      `json:"value"`
	Type       constants.NumberType `json:"type"`
	Confidence int                  `json:"confidence"`
	Reasons    []string             `json:"reasons"`
	Index      int                  `json:"index"`
	Position   float64              `json:"position"`
}

var (
	reDecimal     = regexp.MustCompile(`^\$?\d{1,3}(?:,\d{3})*\.(\d+)$|^\$?\d+\.(\d+)$`)
	reInteger     = regexp.MustCompile(`^\d+$`)
	reAttachedPak = regexp.MustCompile(`(?i)^(\d+)(OZ|LB|LBS|GAL|ML|L|KG|G|CT|QT|PT)$`)
	reNumericTok  = regexp.MustCompile(`(?i)^[$(-]?\d[\d,]*(?:\.\d+)?\)?(?:OZ|LB|LBS|GAL|ML|L|KG|G|CT|QT|PT)?$`)

	reWeightCtx  = regexp.MustCompile(`(?i)(\bLBS?\b|\bKGS?\b|\bWT\b|T/WT|\bNET\b|#)`)
	reTareCtx    = regexp.MustCompile(`(?i)T/WT`)
	rePerUnitCtx = regexp.MustCompile(`(?i)(/\s?(LB|EA|CS|KG|OZ|BX|PK)\b|\bPER\b|\bEACH\b)`)
	reMeasure    = regexp.MustCompile(`(?i)^(OZ|LB|LBS|GAL|ML|L|LTR|KG|G|GR|QT|PT|FL)\.?$`)
	reCountUnit  = regexp.MustCompile(`(?i)^(CS|CA|EA|BX|PK|CT|DZ|BG|PC|PCS|UNIT|UNITS|CASE|CASES)\.?$`)
)

// Classify assigns a type to token using the default policy.
func Classify(token string, w Window, position float64) Result {
	return DefaultPolicy.Classify(token, w, position)
}

// Classify assigns a type to token given its surrounding window and relative
// position on the line (0 = first token, 1 = last).
//
// Priority: weight, price, sku, quantity, packSize, unknown.
func (p Policy) Classify(token string, w Window, position float64) Result {
	tok := strings.TrimSpace(token)
	core := strings.Trim(tok, "()-")
	res := Result{Token: tok, Position: position, Type: constants.NumberUnknown}
	ctx := w.Before + " " + w.After
	nextWord := firstWord(w.After)

	if m := reDecimal.FindStringSubmatch(core); m != nil {
		res.Value = parseValue(tok)
		digits := len(m[1]) + len(m[2])

		if reWeightCtx.MatchString(ctx) && position <= p.WeightMaxPosition {
			res.Type = constants.NumberWeight
			res.Confidence = p.WeightBase
			res.Reasons = append(res.Reasons, "decimal with weight unit nearby", "early on line")
			if reTareCtx.MatchString(ctx) {
				res.Confidence += p.WeightTareBoost
				res.Reasons = append(res.Reasons, "total-weight marker")
			}
			return clamp(res)
		}
		if digits == 2 || digits == 3 {
			res.Type = constants.NumberPrice
			res.Confidence = p.PriceBase
			res.Reasons = append(res.Reasons, "monetary decimal format")
			if rePerUnitCtx.MatchString(ctx) {
				res.Confidence += p.PricePerUnitBoost
				res.Reasons = append(res.Reasons, "per-unit pricing context")
			}
			if position >= p.PriceLatePosition {
				res.Confidence += p.PriceLateBoost
				res.Reasons = append(res.Reasons, "late on line")
			}
			return clamp(res)
		}
		res.Confidence = p.UnknownConfidence
		res.Reasons = append(res.Reasons, "decimal with unusual precision")
		return res
	}

	if m := reAttachedPak.FindStringSubmatch(core); m != nil {
		res.Value = parseValue(m[1])
		res.Type = constants.NumberPackSize
		res.Confidence = p.PackSizeBase
		res.Reasons = append(res.Reasons, "integer fused with measure unit")
		return res
	}

	if reInteger.MatchString(core) {
		res.Value = parseValue(tok)
		n := len(core)

		if n >= 5 && n <= 12 {
			res.Type = constants.NumberSKU
			res.Confidence = p.SKUBase
			res.Reasons = append(res.Reasons, "5-12 digit integer")
			if n >= p.SKULongDigits {
				res.Confidence += p.SKULongBoost
				res.Reasons = append(res.Reasons, "long code")
			}
			if position >= 0.2 && position <= 0.8 {
				res.Confidence += p.SKUMidBoost
				res.Reasons = append(res.Reasons, "mid-line")
			}
			return clamp(res)
		}

		v := res.Value.IntPart()
		if v >= 1 && v <= p.QtyMax {
			leading := position <= p.QtyLeadingPosition
			if reMeasure.MatchString(nextWord) && !leading {
				res.Type = constants.NumberPackSize
				res.Confidence = p.PackSizeBase
				res.Reasons = append(res.Reasons, "integer followed by measure unit")
				return res
			}
			res.Type = constants.NumberQuantity
			res.Confidence = p.QtyBase
			res.Reasons = append(res.Reasons, "small integer")
			if leading {
				res.Confidence += p.QtyLeadingBoost
				res.Reasons = append(res.Reasons, "leading position")
			}
			if reCountUnit.MatchString(nextWord) || reCountUnit.MatchString(lastWord(w.Before)) {
				res.Confidence += p.QtyUnitBoost
				res.Reasons = append(res.Reasons, "unit word adjacent")
			}
			return clamp(res)
		}
		if reMeasure.MatchString(nextWord) {
			res.Type = constants.NumberPackSize
			res.Confidence = p.PackSizeBase
			res.Reasons = append(res.Reasons, "integer followed by measure unit")
			return res
		}
	}

	res.Confidence = p.UnknownConfidence
	res.Reasons = append(res.Reasons, "no rule matched")
	return res
}

// IsNumeric reports whether a whitespace-delimited token is a number the
// classifier understands.
func IsNumeric(token string) bool {
	return reNumericTok.MatchString(strings.TrimSpace(token))
}

// ClassifyLine classifies every numeric token of a line, using a ±2 token window.
func ClassifyLine(line string) []Result {
	return DefaultPolicy.ClassifyLine(line)
}

func (p Policy) ClassifyLine(line string) []Result {
	toks := strings.Fields(line)
	var out []Result
	for i, tok := range toks {
		if !IsNumeric(tok) {
			continue
		}
		w := Window{
			Before: strings.Join(toks[max(0, i-2):i], " "),
			After:  strings.Join(toks[i+1:min(len(toks), i+3)], " "),
		}
		pos := 1.0
		if len(toks) > 1 {
			pos = float64(i) / float64(len(toks)-1)
		}
		r := p.Classify(tok, w, pos)
		r.Index = i
		out = append(out, r)
	}
	return out
}

func parseValue(tok string) decimal.Decimal {
	neg := strings.HasPrefix(tok, "(") || strings.HasPrefix(tok, "-") || strings.HasSuffix(tok, "-")
	s := strings.NewReplacer("$", "", ",", "", "(", "", ")", "", "-", "").Replace(tok)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if neg {
		d = d.Neg()
	}
	return d
}

func clamp(r Result) Result {
	if r.Confidence > 100 {
		r.Confidence = 100
	}
	return r
}

func firstWord(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

func lastWord(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return ""
	}
	return f[len(f)-1]
}
