package entity

// CandidateKind names the field a candidate was extracted for.
type CandidateKind string

const (
	KindTotal    CandidateKind = "total"
	KindSubtotal CandidateKind = "subtotal"
	KindTax      CandidateKind = "tax"
	KindFee      CandidateKind = "fee"
)

// Candidate is a scored, provisional extraction. Produced once; later
// stages only filter and rank.
type Candidate struct {
	Kind         CandidateKind `json:"kind"`
	Label        string        `json:"label"`
	Value        int64         `json:"value"`
	Score        int           `json:"score"`
	IsGroupTotal bool          `json:"is_group_total"`
	Position     float64       `json:"position"`
	Line         int           `json:"line"`
	Evidence     string        `json:"evidence"`
}
