// Package totals elects the grand total of an invoice by running many
// independent detection strategies and merging their proposals by value.
package totals

import (
	"strings"

	"github.com/joseph-ayodele/invoice-recon/internal/candidates"
	"github.com/joseph-ayodele/invoice-recon/internal/money"
	"github.com/joseph-ayodele/invoice-recon/internal/textnorm"
)

// Document is the per-call, read-only view shared by all strategies.
type Document struct {
	Text         string
	Lines        []string
	Upper        []string
	Tokens       [][]money.Token
	LineItemsSum int64
	Bounds       candidates.Options
}

// NewDocument splits text once and scans every line for money tokens.
func NewDocument(text string, lineItemsSum int64, bounds candidates.Options) *Document {
	lines := textnorm.Lines(text)
	upper := candidates.UpperLines(lines)
	tokens := make([][]money.Token, len(upper))
	for i, u := range upper {
		tokens[i] = money.Scan(u)
	}
	return &Document{
		Text:         text,
		Lines:        lines,
		Upper:        upper,
		Tokens:       tokens,
		LineItemsSum: lineItemsSum,
		Bounds:       bounds,
	}
}

// Position is the relative position of line i.
func (d *Document) Position(i int) float64 {
	return textnorm.Position(i, len(d.Lines))
}

// FooterStart returns the first line index of the trailing frac of the
// document, covering at least minLines lines.
func (d *Document) FooterStart(frac float64, minLines int) int {
	n := len(d.Lines)
	size := max(int(float64(n)*frac+0.5), minLines)
	return max(0, n-size)
}

// Eligible reports whether a token may be proposed as a total and whether
// it is group-qualified. Subtotal-qualified and out-of-bounds tokens are not.
func (d *Document) Eligible(i int, t money.Token) (ok, group bool) {
	if !d.Bounds.InBounds(t.Value) {
		return false, false
	}
	sub, group := candidates.ValueQualified(d.Upper[i], t.Offset)
	if sub {
		return false, group
	}
	return true, group
}

// Blank reports whether line i carries no text.
func (d *Document) Blank(i int) bool {
	return strings.TrimSpace(d.Lines[i]) == ""
}

// tokensAfter returns the tokens of line i starting at or after offset.
func (d *Document) tokensAfter(i, offset int) []money.Token {
	var out []money.Token
	for _, t := range d.Tokens[i] {
		if t.Offset >= offset {
			out = append(out, t)
		}
	}
	return out
}

// standalone reports whether line i holds exactly one money token and
// nothing else but currency noise.
func (d *Document) standalone(i int) (money.Token, bool) {
	if len(d.Tokens[i]) != 1 {
		return money.Token{}, false
	}
	t := d.Tokens[i][0]
	rest := strings.Replace(d.Upper[i], t.Raw, "", 1)
	rest = strings.Trim(rest, " $:*USDCA")
	return t, rest == ""
}
