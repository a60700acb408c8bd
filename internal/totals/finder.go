package totals

import (
	"sort"

	"github.com/joseph-ayodele/invoice-recon/constants"
	"github.com/joseph-ayodele/invoice-recon/internal/candidates"
	"github.com/joseph-ayodele/invoice-recon/internal/entity"
)

// Finder runs a fixed strategy set and elects a total by consensus.
// A Finder is immutable after construction and safe for concurrent use.
type Finder struct {
	strategies []Strategy
	bounds     candidates.Options
	hintBias   int
}

type Option func(*Finder)

func WithStrategies(s ...Strategy) Option {
	return func(f *Finder) {
		if len(s) > 0 {
			f.strategies = append([]Strategy(nil), s...)
		}
	}
}

func WithBounds(o candidates.Options) Option {
	return func(f *Finder) {
		o.Hints = nil
		f.bounds = o
	}
}

func WithHintBias(n int) Option {
	return func(f *Finder) {
		if n >= 0 {
			f.hintBias = n
		}
	}
}

func NewFinder(opts ...Option) *Finder {
	f := &Finder{
		strategies: DefaultStrategies(),
		bounds:     candidates.DefaultOptions(),
		hintBias:   5,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Input carries optional evidence from outside the text.
type Input struct {
	LineItemsSum int64
	Hints        *entity.LayoutHints
}

// Election is the outcome of one Find call.
type Election struct {
	Value      int64
	Confidence int
	IsGroup    bool
	// Source is the strongest strategy behind the winner, or constants.SourceNone.
	Source string
	Line   int
	Votes  []entity.TotalVote
}

// Found reports whether any strategy proposed a value.
func (e Election) Found() bool { return e.Source != constants.SourceNone }

// Proposals runs every strategy and returns their proposals in strategy
// order, with layout-hint bias applied.
func (f *Finder) Proposals(text string, in Input) []Proposal {
	doc := NewDocument(text, in.LineItemsSum, f.bounds)
	var out []Proposal
	for _, s := range f.strategies {
		for _, p := range s.Propose(doc) {
			p.Strategy = s.Name
			if in.Hints.Contains(doc.Position(p.Line)) {
				p.Score += f.hintBias
			}
			out = append(out, p)
		}
	}
	return out
}

// Find elects the invoice total. With no proposal at all the value is 0 and
// Source is constants.SourceNone.
func (f *Finder) Find(text string, in Input) Election {
	return Elect(f.Proposals(text, in))
}

type voteGroup struct {
	vote      entity.TotalVote
	perStrat  map[string]int
	bestStrat string
	firstLine int
	nonGroup  bool
}

// Elect merges proposals by exact value and ranks the groups by
// (non-group first, maxScore, totalScore, strategy count, value desc,
// first line asc). Each strategy counts once per value, with its best score.
// A value is non-group only if some proposal calls it plain on a line where
// no proposal flagged it as a group total.
func Elect(proposals []Proposal) Election {
	if len(proposals) == 0 {
		return Election{Source: constants.SourceNone}
	}

	// a value flagged as a group total keeps the flag on that line even when
	// a value-only strategy missed the qualifier
	groupAt := map[int64]map[int]bool{}
	for _, p := range proposals {
		if p.IsGroup {
			if groupAt[p.Value] == nil {
				groupAt[p.Value] = map[int]bool{}
			}
			groupAt[p.Value][p.Line] = true
		}
	}

	byValue := map[int64]*voteGroup{}
	var order []int64
	for _, p := range proposals {
		g, ok := byValue[p.Value]
		if !ok {
			g = &voteGroup{
				vote:      entity.TotalVote{Value: p.Value, IsGroup: true},
				perStrat:  map[string]int{},
				firstLine: p.Line,
			}
			byValue[p.Value] = g
			order = append(order, p.Value)
		}
		if !p.IsGroup && !groupAt[p.Value][p.Line] {
			g.nonGroup = true
			g.vote.IsGroup = false
		}
		if p.Line < g.firstLine {
			g.firstLine = p.Line
		}
		prev, seen := g.perStrat[p.Strategy]
		if !seen {
			g.vote.Strategies = append(g.vote.Strategies, p.Strategy)
		}
		if !seen || p.Score > prev {
			g.perStrat[p.Strategy] = p.Score
		}
	}

	groups := make([]*voteGroup, 0, len(order))
	for _, v := range order {
		g := byValue[v]
		g.vote.MaxScore = 0
		for _, name := range g.vote.Strategies {
			s := g.perStrat[name]
			g.vote.TotalScore += s
			if g.bestStrat == "" || s > g.vote.MaxScore {
				g.vote.MaxScore = s
				g.bestStrat = name
			}
		}
		groups = append(groups, g)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		ga, gb := groups[a], groups[b]
		if ga.nonGroup != gb.nonGroup {
			return ga.nonGroup
		}
		if ga.vote.MaxScore != gb.vote.MaxScore {
			return ga.vote.MaxScore > gb.vote.MaxScore
		}
		if ga.vote.TotalScore != gb.vote.TotalScore {
			return ga.vote.TotalScore > gb.vote.TotalScore
		}
		if len(ga.vote.Strategies) != len(gb.vote.Strategies) {
			return len(ga.vote.Strategies) > len(gb.vote.Strategies)
		}
		if ga.vote.Value != gb.vote.Value {
			return ga.vote.Value > gb.vote.Value
		}
		return ga.firstLine < gb.firstLine
	})

	votes := make([]entity.TotalVote, len(groups))
	for i, g := range groups {
		votes[i] = g.vote
	}
	win := groups[0]
	conf := confidence(win.vote.MaxScore, len(win.vote.Strategies))
	if !win.nonGroup {
		conf /= 2
	}
	return Election{
		Value:      win.vote.Value,
		Confidence: conf,
		IsGroup:    !win.nonGroup,
		Source:     win.bestStrat,
		Line:       win.firstLine,
		Votes:      votes,
	}
}

// confidence is min(100, maxScore) plus an agreement bonus, capped at 100.
func confidence(maxScore, strategies int) int {
	c := min(100, max(0, maxScore))
	switch {
	case strategies >= 3:
		c += 15
	case strategies >= 2:
		c += 10
	}
	return min(100, c)
}
