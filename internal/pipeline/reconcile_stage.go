package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-recon/internal/common"
	"github.com/joseph-ayodele/invoice-recon/internal/entity"
	"github.com/joseph-ayodele/invoice-recon/internal/reconcile"
	"github.com/joseph-ayodele/invoice-recon/internal/schema"
	"github.com/joseph-ayodele/invoice-recon/internal/scoring"
)

// ReconcileStage reconciles evidence, scores it and checks the record
// against the output schema.
type ReconcileStage struct {
	Logger    *slog.Logger
	Engine    *reconcile.Engine
	Policy    scoring.Policy
	Validator *schema.Validator
}

func NewReconcileStage(logger *slog.Logger, engine *reconcile.Engine, policy scoring.Policy, validator *schema.Validator) *ReconcileStage {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = reconcile.NewEngine(reconcile.DefaultTolerances(), logger)
	}
	return &ReconcileStage{Logger: logger, Engine: engine, Policy: policy, Validator: validator}
}

// Run builds the result record. The only error is a schema violation; the
// record is still returned so callers can inspect it.
func (s *ReconcileStage) Run(id uuid.UUID, ev Evidence) (entity.Result, error) {
	out := s.Engine.Reconcile(reconcile.Input{
		Text:        ev.Text,
		LineItems:   ev.LineItems,
		Printed:     ev.Printed,
		Adjustments: ev.Adjustments,
	})

	conf := s.Policy.Score(scoring.Input{
		Issues:           out.Issues,
		Warnings:         out.Warnings,
		LineItems:        out.LineItems,
		Adjustments:      out.Adjustments,
		TotalFound:       ev.Election.Found(),
		Salvaged:         out.Totals.Salvaged,
		SalvageFailed:    out.SalvageFailed,
		FinderConfidence: ev.Election.Confidence,
	})

	res := entity.Result{
		DocumentID:  id,
		LineItems:   nonNil(out.LineItems),
		Totals:      out.Totals,
		Adjustments: nonNil(out.Adjustments),
		Confidence:  conf,
		Debug: entity.Debug{
			State:           out.State,
			StateTrail:      out.Trail,
			TotalConfidence: ev.Election.Confidence,
			TotalVotes:      ev.Election.Votes,
			PrintedTotal:    out.PrintedTotal,
			ComputedTotal:   out.ComputedTotal,
			LineItemsSum:    out.LineItemsSum,
			LineItemSource:  ev.LineSource,
			SalvageStep:     out.SalvageStep,
			Candidates:      ev.Candidates,
		},
	}

	if s.Validator != nil {
		if err := s.Validator.ValidateValue(res); err != nil {
			s.Logger.Error("pipeline.schema.failed", "document_id", id, "err", err)
			return res, common.NewAppError("SCHEMA_ERROR", "result record failed schema validation",
				fmt.Errorf("%w: %w", common.ErrValidation, err))
		}
	}
	return res, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
