package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/invoice-recon/internal/common"
	"github.com/joseph-ayodele/invoice-recon/internal/entity"
)

func TestScore(t *testing.T) {
	validated := entity.LineItem{MathValidated: true}
	unvalidated := entity.LineItem{}
	finding := entity.Finding{Code: "X"}

	tests := []struct {
		name   string
		in     Input
		score  int
		review bool
	}{
		{
			name:  "clean record",
			in:    Input{LineItems: []entity.LineItem{validated}, TotalFound: true, FinderConfidence: 100},
			score: 100,
		},
		{
			name: "one issue one warning",
			in: Input{
				Issues: []entity.Finding{finding}, Warnings: []entity.Finding{finding},
				TotalFound: true, FinderConfidence: 100,
			},
			// 100-25-5 = 70; 0.6*70 + 0.4*100 = 82
			score: 82,
		},
		{
			name: "unvalidated lines are capped",
			in: Input{
				LineItems:  []entity.LineItem{unvalidated, unvalidated, unvalidated, unvalidated, unvalidated, unvalidated, unvalidated, unvalidated, unvalidated, unvalidated, unvalidated, unvalidated},
				TotalFound: true, FinderConfidence: 100,
			},
			// 100-20 = 80; 48 + 40 = 88
			score: 88,
		},
		{
			name: "synthetic and missing total",
			in: Input{
				Adjustments: []entity.Adjustment{{IsSynthetic: true}, {IsSynthetic: false}},
			},
			// 100-5-15 = 80; 48 + 0 = 48
			score: 48, review: true,
		},
		{
			name:  "salvaged",
			in:    Input{Salvaged: true, TotalFound: true, FinderConfidence: 50},
			score: 71, // 85*0.6 + 50*0.4
		},
		{
			name:  "salvage failure always needs review",
			in:    Input{SalvageFailed: true, TotalFound: true, FinderConfidence: 100},
			score: 100, review: true,
		},
		{
			name: "floor at zero",
			in: Input{
				Issues:     []entity.Finding{finding, finding, finding, finding, finding},
				TotalFound: true,
			},
			score: 0, review: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultPolicy().Score(tt.in)
			assert.Equal(t, tt.score, got.Score)
			assert.Equal(t, tt.review, got.NeedsReview)
			assert.NotNil(t, got.Issues)
			assert.NotNil(t, got.Warnings)
		})
	}
}

func TestPolicyFromConfig(t *testing.T) {
	cfg := &common.Config{
		Reconcile: common.DefaultReconcileConfig(),
		Scoring:   common.ScoringConfig{ReviewThreshold: 75},
	}
	cfg.Reconcile.SalvagePenalty = 30
	p := PolicyFromConfig(cfg)
	assert.Equal(t, 30, p.SalvagePenalty)
	assert.Equal(t, 75, p.ReviewThreshold)

	got := p.Score(Input{TotalFound: true, FinderConfidence: 80})
	assert.Equal(t, 92, got.Score)
	assert.False(t, got.NeedsReview)
}
