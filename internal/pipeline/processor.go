// Package pipeline turns invoice text into a reconciled, scored record.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-recon/internal/adjustments"
	"github.com/joseph-ayodele/invoice-recon/internal/common"
	"github.com/joseph-ayodele/invoice-recon/internal/entity"
	"github.com/joseph-ayodele/invoice-recon/internal/reconcile"
	"github.com/joseph-ayodele/invoice-recon/internal/schema"
	"github.com/joseph-ayodele/invoice-recon/internal/scoring"
	"github.com/joseph-ayodele/invoice-recon/internal/totals"
)

// Input is one document. LineItems come from an external vendor parser when
// one recognised the layout; otherwise they are parsed from Text.
type Input struct {
	DocumentID  uuid.UUID
	Text        string
	LineItems   []entity.LineItem
	LayoutHints *entity.LayoutHints
}

// Processor coordinates evidence gathering then reconciliation.
type Processor struct {
	logger    *slog.Logger
	evidence  *EvidenceStage
	reconcile *ReconcileStage
}

func NewProcessor(logger *slog.Logger, evidence *EvidenceStage, recon *ReconcileStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, evidence: evidence, reconcile: recon}
}

// NewFromConfig wires both stages from configuration.
func NewFromConfig(logger *slog.Logger, cfg *common.Config) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, common.NewAppError("SCHEMA_ERROR", "compile result schema", err)
	}
	finder := totals.NewFinder()
	rules := adjustments.DefaultRules()
	engine := reconcile.NewEngine(reconcile.Tolerances(cfg.Reconcile), logger,
		reconcile.WithFinder(finder),
		reconcile.WithRules(rules),
	)
	return NewProcessor(logger,
		NewEvidenceStage(logger, finder, rules),
		NewReconcileStage(logger, engine, scoring.PolicyFromConfig(cfg), validator),
	), nil
}

// Process runs both stages for one document. A nil DocumentID gets a fresh one.
func (p *Processor) Process(ctx context.Context, in Input) (entity.Result, error) {
	if err := ctx.Err(); err != nil {
		return entity.Result{}, err
	}
	id := in.DocumentID
	if id == uuid.Nil {
		id = uuid.New()
	}

	ev := p.evidence.Run(in)
	res, err := p.reconcile.Run(id, ev)
	if err != nil {
		p.logger.Error("pipeline.process.failed", "document_id", id, "err", err)
		return res, err
	}
	p.logger.Info("pipeline.process.ok",
		"document_id", id,
		"state", res.Debug.State,
		"total", res.Totals.Total,
		"score", res.Confidence.Score,
		"needs_review", res.Confidence.NeedsReview,
	)
	return res, nil
}
