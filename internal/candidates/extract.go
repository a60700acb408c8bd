// Package candidates turns pattern tables into scored, typed candidates.
// Extract is a pure function of (text, table, options); the tables are
// immutable package values.
package candidates

import (
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/invoice-recon/internal/entity"
	"github.com/joseph-ayodele/invoice-recon/internal/money"
	"github.com/joseph-ayodele/invoice-recon/internal/textnorm"
)

// QualifierWindow is how many characters before a label are inspected for
// SUB/GROUP-style qualifiers. Looking at the whole line would reject
// "GROUP 4 ... INVOICE TOTAL" for an unrelated earlier word.
const QualifierWindow = 24

var (
	reGroupMarker = regexp.MustCompile(`\b(GROUP|CATEGORY|SECTION|DEPT|DEPARTMENT|CLASS)\b`)
	reSubMarker   = regexp.MustCompile(`\bSUB[\s\-]*$`)
	reSubLabel    = regexp.MustCompile(`\bSUB[\s\-]*TOTAL\b`)
	reTotalWord   = regexp.MustCompile(`\b(SUB[\s\-]*)?TOTAL\b`)
)

// Options bound the plausible values of a candidate.
type Options struct {
	MinValue      int64
	MaxValue      int64
	AllowNegative bool
	Hints         *entity.LayoutHints
	HintBoost     int
}

// DefaultOptions accept 0.01 to 10,000,000.00.
func DefaultOptions() Options {
	return Options{MinValue: 1, MaxValue: 1_000_000_000, HintBoost: 5}
}

// Qualifiers inspects the window immediately before idx on an upper-cased
// line and reports whether the label there is SUB- or GROUP-qualified.
func Qualifiers(upper string, idx int) (sub, group bool) {
	start := max(0, idx-QualifierWindow)
	window := upper[start:idx]
	return reSubMarker.MatchString(window), reGroupMarker.MatchString(window)
}

// ValueQualified reports whether a bare value at idx sits right after a
// subtotal or group/section label ("SUBTOTAL 100.00", "DEPT TOTAL 40.00").
// Strategies that scan values instead of labels use this as their exclusion.
// The window is anchored at the last TOTAL word before the value, so a long
// label such as "GROUP 4 FROZEN FOODS TOTAL" is judged like its label match.
func ValueQualified(upper string, idx int) (sub, group bool) {
	anchor := idx
	if locs := reTotalWord.FindAllStringIndex(upper[:idx], -1); len(locs) > 0 {
		anchor = locs[len(locs)-1][0]
	}
	start := max(0, anchor-QualifierWindow)
	window := upper[start:idx]
	return reSubLabel.MatchString(window) || reSubMarker.MatchString(window), reGroupMarker.MatchString(window)
}

// InBounds reports whether v is a plausible candidate value.
func (o Options) InBounds(v int64) bool {
	if v < 0 {
		if !o.AllowNegative {
			return false
		}
		v = -v
	}
	return v >= o.MinValue && v <= o.MaxValue
}

// Extract runs every pattern of t over text and returns deduplicated
// candidates ordered by (line, column). It never fails; no match yields nil.
func Extract(text string, t Table, opts Options) []entity.Candidate {
	lines := textnorm.Lines(text)
	upperLines := UpperLines(lines)
	type keyed struct {
		c   entity.Candidate
		col int
	}
	var found []keyed
	seen := map[string]int{}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		upper := upperLines[i]
		pos := textnorm.Position(i, len(lines))

		for _, p := range t.Patterns {
			for _, loc := range p.Re.FindAllStringIndex(upper, -1) {
				sub, group := Qualifiers(upper, loc[0])
				if t.DropSubtotal && sub {
					continue
				}
				if p.Excluded(upper, loc) {
					continue
				}

				tok, penalty, ok := AmountNear(upperLines, i, loc[0], loc[1])
				if !ok || !opts.InBounds(tok.Value) {
					continue
				}

				score := p.Priority - penalty + int(float64(t.PositionWeight)*pos)
				if opts.Hints.Contains(pos) {
					score += opts.HintBoost
				}
				c := entity.Candidate{
					Kind:         t.Kind,
					Label:        p.Label,
					Value:        tok.Value,
					Score:        score,
					IsGroupTotal: group,
					Position:     pos,
					Line:         i,
					Evidence:     line,
				}

				key := p.Label + "|" + money.FormatPlain(tok.Value)
				if idx, dup := seen[key]; dup {
					if found[idx].c.Score < c.Score {
						found[idx] = keyed{c: c, col: loc[0]}
					}
					continue
				}
				seen[key] = len(found)
				found = append(found, keyed{c: c, col: loc[0]})
			}
		}
	}

	sort.SliceStable(found, func(a, b int) bool {
		if found[a].c.Line != found[b].c.Line {
			return found[a].c.Line < found[b].c.Line
		}
		return found[a].col < found[b].col
	})
	out := make([]entity.Candidate, 0, len(found))
	for _, k := range found {
		out = append(out, k.c)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// UpperLines upper-cases every line. Match offsets are always taken on these.
func UpperLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.ToUpper(l)
	}
	return out
}

// AmountNear finds the amount belonging to a label spanning [start,end) on
// lines[i]: first token after the label, else the first token of the next
// non-blank line when that line is (nearly) only a value, else the last token
// before the label. penalty is subtracted from the pattern priority.
func AmountNear(lines []string, i, start, end int) (money.Token, int, bool) {
	line := lines[i]
	if toks := money.Scan(line[end:]); len(toks) > 0 {
		return toks[0], 0, true
	}
	for j := i + 1; j < len(lines) && j <= i+2; j++ {
		next := strings.TrimSpace(lines[j])
		if next == "" {
			continue
		}
		toks := money.Scan(next)
		if len(toks) > 0 && len(strings.Fields(next)) <= 3 {
			return toks[0], 10, true
		}
		break
	}
	if toks := money.Scan(line[:start]); len(toks) > 0 {
		return toks[len(toks)-1], 15, true
	}
	return money.Token{}, 0, false
}

// Best returns the highest-scoring non-group candidate, falling back to a
// group candidate only when nothing else exists. Ties prefer later lines.
func Best(cands []entity.Candidate) (entity.Candidate, bool) {
	if len(cands) == 0 {
		return entity.Candidate{}, false
	}
	ranked := Ranked(cands)
	for _, c := range ranked {
		if !c.IsGroupTotal {
			return c, true
		}
	}
	return ranked[0], true
}

// Ranked returns a copy of cands sorted by score desc, then line desc, then value desc.
func Ranked(cands []entity.Candidate) []entity.Candidate {
	out := make([]entity.Candidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		if out[a].Line != out[b].Line {
			return out[a].Line > out[b].Line
		}
		return out[a].Value > out[b].Value
	})
	return out
}
