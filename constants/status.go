package constants

import "fmt"

// ReconcileState is the reconciliation lifecycle stage recorded on every result.
type ReconcileState string

// Stable values (these exact strings appear in output records).
const (
	StateUnvalidated      ReconcileState = "UNVALIDATED"
	StateLineItemChecked  ReconcileState = "LINE_ITEM_CHECKED"
	StateTotalsChecked    ReconcileState = "TOTALS_CHECKED"
	StateValid            ReconcileState = "VALID"
	StateSalvageAttempted ReconcileState = "SALVAGE_ATTEMPTED"
	StateSalvageSucceeded ReconcileState = "SALVAGE_SUCCEEDED"
	StateSalvageFailed    ReconcileState = "SALVAGE_FAILED"
)

// SourceNone marks a field for which no candidate was found.
const SourceNone = "NONE"

// SourceComputed marks a total substituted from line items and adjustments.
const SourceComputed = "COMPUTED"

// SourcePrinted marks a figure read from the document without a named origin.
const SourcePrinted = "PRINTED"

// SourceSalvage marks figures replaced by the salvage pass.
const SourceSalvage = "SALVAGE"

// UnknownValueError is returned when text cannot be mapped onto a closed enum.
type UnknownValueError struct {
	Kind  string
	Value string
}

func (e *UnknownValueError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Value)
}
