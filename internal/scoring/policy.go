// Package scoring turns reconciliation evidence into a 0-100 confidence.
package scoring

import (
	"math"

	"github.com/joseph-ayodele/invoice-recon/internal/common"
	"github.com/joseph-ayodele/invoice-recon/internal/entity"
)

// Policy is the fixed weight table of the scorer. Penalties are points
// subtracted from 100.
type Policy struct {
	IssuePenalty           int
	WarningPenalty         int
	UnvalidatedLinePenalty int
	UnvalidatedLineCap     int
	SyntheticPenalty       int
	MissingTotalPenalty    int
	SalvagePenalty         int
	// FinderWeight is the share of the total finder's confidence in the blend.
	FinderWeight    float64
	ReviewThreshold int
}

// DefaultPolicy returns the stock weights.
func DefaultPolicy() Policy {
	return Policy{
		IssuePenalty:           25,
		WarningPenalty:         5,
		UnvalidatedLinePenalty: 2,
		UnvalidatedLineCap:     20,
		SyntheticPenalty:       5,
		MissingTotalPenalty:    15,
		SalvagePenalty:         15,
		FinderWeight:           0.4,
		ReviewThreshold:        60,
	}
}

// PolicyFromConfig applies the configured salvage penalty and review threshold.
func PolicyFromConfig(cfg *common.Config) Policy {
	p := DefaultPolicy()
	p.SalvagePenalty = cfg.Reconcile.SalvagePenalty
	if cfg.Scoring.ReviewThreshold > 0 {
		p.ReviewThreshold = cfg.Scoring.ReviewThreshold
	}
	return p
}

// Input is the evidence a score is computed from.
type Input struct {
	Issues           []entity.Finding
	Warnings         []entity.Finding
	LineItems        []entity.LineItem
	Adjustments      []entity.Adjustment
	TotalFound       bool
	Salvaged         bool
	SalvageFailed    bool
	FinderConfidence int
}

// Score applies the weight table, blends with the finder confidence and
// decides whether the record needs manual review.
func (p Policy) Score(in Input) entity.Confidence {
	score := 100
	score -= p.IssuePenalty * len(in.Issues)
	score -= p.WarningPenalty * len(in.Warnings)

	unvalidated := 0
	for _, it := range in.LineItems {
		if !it.MathValidated {
			unvalidated++
		}
	}
	score -= min(p.UnvalidatedLineCap, p.UnvalidatedLinePenalty*unvalidated)

	for _, a := range in.Adjustments {
		if a.IsSynthetic {
			score -= p.SyntheticPenalty
		}
	}
	if !in.TotalFound {
		score -= p.MissingTotalPenalty
	}
	if in.Salvaged {
		score -= p.SalvagePenalty
	}
	score = clamp(score)

	finder := clamp(in.FinderConfidence)
	blended := clamp(int(math.Round((1-p.FinderWeight)*float64(score) + p.FinderWeight*float64(finder))))

	return entity.Confidence{
		Score:       blended,
		Issues:      nonNil(in.Issues),
		Warnings:    nonNil(in.Warnings),
		NeedsReview: blended < p.ReviewThreshold || in.SalvageFailed,
	}
}

func clamp(v int) int {
	return max(0, min(100, v))
}

func nonNil(fs []entity.Finding) []entity.Finding {
	if fs == nil {
		return []entity.Finding{}
	}
	return fs
}
