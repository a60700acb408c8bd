package schema

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-recon/constants"
	"github.com/joseph-ayodele/invoice-recon/internal/entity"
)

func validResult() entity.Result {
	return entity.Result{
		DocumentID: uuid.New(),
		LineItems: []entity.LineItem{{
			Description:   "WIDGET",
			Quantity:      decimal.NewFromInt(2),
			UnitPrice:     decimal.RequireFromString("5.00"),
			LineTotal:     1000,
			MathValidated: true,
		}},
		Totals: entity.InvoiceTotals{
			Subtotal: 1000, Total: 1080, Tax: 80,
			SubtotalSource: constants.SourceComputed, TaxSource: "SALES TAX", TotalSource: "labelAdjacency",
		},
		Adjustments: []entity.Adjustment{{Category: constants.Tax, Label: "SALES TAX", Amount: 80}},
		Confidence:  entity.Confidence{Score: 95, Issues: []entity.Finding{}, Warnings: []entity.Finding{}},
		Debug: entity.Debug{
			State:      constants.StateValid,
			StateTrail: []constants.ReconcileState{constants.StateUnvalidated, constants.StateValid},
		},
	}
}

func TestValidator_AcceptsResult(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)
	assert.NoError(t, v.ValidateValue(validResult()))
}

func TestValidator_Rejects(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(r *entity.Result)
	}{
		{"score out of range", func(r *entity.Result) { r.Confidence.Score = 140 }},
		{"nil findings", func(r *entity.Result) { r.Confidence.Issues = nil }},
		{"empty total source", func(r *entity.Result) { r.Totals.TotalSource = "" }},
		{"unknown state", func(r *entity.Result) { r.Debug.State = "DONE" }},
		{"nil adjustments", func(r *entity.Result) { r.Adjustments = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validResult()
			tt.mutate(&r)
			assert.Error(t, v.ValidateValue(r))
		})
	}
}

func TestValidator_MalformedJSON(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)
	assert.Error(t, v.Validate([]byte("{")))
}

func TestValidator_NumbersKeepExactForm(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	withTotal := func(n json.Number) []byte {
		t.Helper()
		raw, err := json.Marshal(validResult())
		require.NoError(t, err)
		var doc map[string]any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		require.NoError(t, dec.Decode(&doc))
		doc["totals"].(map[string]any)["total"] = n
		out, err := json.Marshal(doc)
		require.NoError(t, err)
		return out
	}

	tests := []struct {
		name    string
		total   json.Number
		wantErr bool
	}{
		{"minor units", "1080", false},
		{"beyond float precision", "12345678901234567", false},
		{"fractional minor units", "10.5", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(withTotal(tt.total))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
