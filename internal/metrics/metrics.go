// Package metrics exposes prometheus instruments for document processing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeValid         = "valid"
	OutcomeSalvaged      = "salvaged"
	OutcomeSalvageFailed = "salvage_failed"
	OutcomeError         = "error"
)

// Metrics provides observability for batch processing.
type Metrics struct {
	// Documents by reconciliation outcome
	Documents *prometheus.CounterVec

	// Documents flagged for manual review
	NeedsReview prometheus.Counter

	// Synthetic balancing adjustments created
	Synthetic prometheus.Counter

	ConfidenceScore prometheus.Histogram
	ProcessLatency  prometheus.Histogram
}

// New registers the instruments on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Documents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "invoice_recon_documents_total",
			Help: "Documents processed by reconciliation outcome",
		}, []string{"outcome"}),

		NeedsReview: f.NewCounter(prometheus.CounterOpts{
			Name: "invoice_recon_needs_review_total",
			Help: "Documents flagged for manual review",
		}),

		Synthetic: f.NewCounter(prometheus.CounterOpts{
			Name: "invoice_recon_synthetic_adjustments_total",
			Help: "Synthetic adjustments created to balance a document",
		}),

		ConfidenceScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "invoice_recon_confidence_score",
			Help:    "Distribution of record confidence scores",
			Buckets: []float64{20, 40, 60, 70, 80, 90, 100},
		}),

		ProcessLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "invoice_recon_process_duration_seconds",
			Help:    "Duration of processing one document",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}),
	}
}

// ObserveDocument records one processed document.
func (m *Metrics) ObserveDocument(outcome string, score int, needsReview bool, synthetic int, d time.Duration) {
	if m == nil {
		return
	}
	m.Documents.WithLabelValues(outcome).Inc()
	if outcome != OutcomeError {
		m.ConfidenceScore.Observe(float64(score))
	}
	if needsReview {
		m.NeedsReview.Inc()
	}
	if synthetic > 0 {
		m.Synthetic.Add(float64(synthetic))
	}
	m.ProcessLatency.Observe(d.Seconds())
}
