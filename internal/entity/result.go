package entity

import (
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-recon/constants"
)

// Finding is an issue (hard) or warning (soft) raised while reconciling.
type Finding struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Expected int64  `json:"expected,omitempty"`
	Computed int64  `json:"computed,omitempty"`
	Err      error  `json:"-"`
}

// Confidence is the aggregated 0-100 trust score for a record.
type Confidence struct {
	Score       int       `json:"score"`
	Issues      []Finding `json:"issues"`
	Warnings    []Finding `json:"warnings"`
	NeedsReview bool      `json:"needs_review"`
}

// TotalVote is one value group from the total finder election.
type TotalVote struct {
	Value      int64    `json:"value"`
	MaxScore   int      `json:"max_score"`
	TotalScore int      `json:"total_score"`
	Strategies []string `json:"strategies"`
	IsGroup    bool     `json:"is_group"`
}

// Debug carries the intermediate evidence behind a record.
type Debug struct {
	State           constants.ReconcileState   `json:"state"`
	StateTrail      []constants.ReconcileState `json:"state_trail"`
	TotalConfidence int                        `json:"total_confidence"`
	TotalVotes      []TotalVote                `json:"total_votes"`
	PrintedTotal    int64                      `json:"printed_total"`
	ComputedTotal   int64                      `json:"computed_total"`
	LineItemsSum    int64                      `json:"line_items_sum"`
	LineItemSource  string                     `json:"line_item_source"`
	SalvageStep     string                     `json:"salvage_step,omitempty"`
	Candidates      []Candidate                `json:"candidates,omitempty"`
}

// Result is the structured record produced for one document.
type Result struct {
	DocumentID  uuid.UUID     `json:"document_id"`
	LineItems   []LineItem    `json:"line_items"`
	Totals      InvoiceTotals `json:"totals"`
	Adjustments []Adjustment  `json:"adjustments"`
	Confidence  Confidence    `json:"confidence"`
	Debug       Debug         `json:"debug"`
}
