package pipeline

import (
	"log/slog"

	"github.com/joseph-ayodele/invoice-recon/constants"
	"github.com/joseph-ayodele/invoice-recon/internal/adjustments"
	"github.com/joseph-ayodele/invoice-recon/internal/candidates"
	"github.com/joseph-ayodele/invoice-recon/internal/entity"
	"github.com/joseph-ayodele/invoice-recon/internal/lineparse"
	"github.com/joseph-ayodele/invoice-recon/internal/numclass"
	"github.com/joseph-ayodele/invoice-recon/internal/textnorm"
	"github.com/joseph-ayodele/invoice-recon/internal/totals"
)

// Line item sources recorded in the debug block.
const (
	LineSourceCaller = "caller"
	LineSourceParsed = "parsed"
	LineSourceNone   = "none"
)

// Evidence is everything read off the text before reconciliation.
type Evidence struct {
	Text        string
	LineItems   []entity.LineItem
	LineSource  string
	Printed     entity.InvoiceTotals
	Election    totals.Election
	Adjustments []entity.Adjustment
	Candidates  []entity.Candidate
}

// EvidenceStage normalizes text and runs every extractor over it.
type EvidenceStage struct {
	Logger     *slog.Logger
	Finder     *totals.Finder
	Rules      []adjustments.Rule
	Bounds     candidates.Options
	Lines      lineparse.Table
	Classifier numclass.Policy
}

func NewEvidenceStage(logger *slog.Logger, finder *totals.Finder, rules []adjustments.Rule) *EvidenceStage {
	if logger == nil {
		logger = slog.Default()
	}
	if finder == nil {
		finder = totals.NewFinder()
	}
	if len(rules) == 0 {
		rules = adjustments.DefaultRules()
	}
	return &EvidenceStage{
		Logger:     logger,
		Finder:     finder,
		Rules:      rules,
		Bounds:     candidates.DefaultOptions(),
		Lines:      lineparse.DefaultTable,
		Classifier: numclass.DefaultPolicy,
	}
}

// Run gathers evidence. Caller-supplied line items win over parsed ones.
func (s *EvidenceStage) Run(in Input) Evidence {
	text := textnorm.Normalize(in.Text)
	ev := Evidence{Text: text, LineSource: LineSourceNone}

	switch {
	case len(in.LineItems) > 0:
		ev.LineItems = append([]entity.LineItem(nil), in.LineItems...)
		ev.LineSource = LineSourceCaller
	default:
		if parsed := s.Lines.Parse(text, s.Classifier); len(parsed.Items) > 0 {
			ev.LineItems = parsed.Items
			ev.LineSource = LineSourceParsed
		}
	}
	sum := entity.SumLineItems(ev.LineItems)

	opts := s.Bounds
	opts.Hints = in.LayoutHints
	subs := candidates.Extract(text, candidates.SubtotalTable, opts)
	taxes := candidates.Extract(text, candidates.TaxTable, opts)
	ev.Candidates = append(append(ev.Candidates, subs...), taxes...)

	ev.Printed = entity.InvoiceTotals{
		SubtotalSource: constants.SourceNone,
		TaxSource:      constants.SourceNone,
		TotalSource:    constants.SourceNone,
	}
	if c, ok := candidates.Best(subs); ok {
		ev.Printed.Subtotal, ev.Printed.SubtotalSource = c.Value, c.Label
	}
	if c, ok := candidates.Best(taxes); ok {
		ev.Printed.Tax, ev.Printed.TaxSource = c.Value, c.Label
	}

	ev.Election = s.Finder.Find(text, totals.Input{LineItemsSum: sum, Hints: in.LayoutHints})
	if ev.Election.Found() {
		ev.Printed.Total, ev.Printed.TotalSource = ev.Election.Value, ev.Election.Source
	}

	ev.Adjustments = adjustments.Extract(text, s.Rules).Adjustments

	s.Logger.Debug("pipeline.evidence.ok",
		"line_items", len(ev.LineItems),
		"line_source", ev.LineSource,
		"total", ev.Printed.Total,
		"total_source", ev.Printed.TotalSource,
		"total_confidence", ev.Election.Confidence,
		"adjustments", len(ev.Adjustments),
	)
	return ev
}
