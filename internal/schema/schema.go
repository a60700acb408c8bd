// Package schema holds the JSON schema of the result record and validates
// records against it before they leave the pipeline.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/invoice-recon/constants"
)

// BuildResultJSONSchema returns the result record schema as a generic map.
func BuildResultJSONSchema() map[string]any {
	var categories []string
	for _, c := range constants.AdjustmentCategories() {
		categories = append(categories, c.String())
	}
	states := []string{
		string(constants.StateUnvalidated),
		string(constants.StateLineItemChecked),
		string(constants.StateTotalsChecked),
		string(constants.StateValid),
		string(constants.StateSalvageAttempted),
		string(constants.StateSalvageSucceeded),
		string(constants.StateSalvageFailed),
	}

	lineItem := object(map[string]any{
		"description":        map[string]any{"type": "string"},
		"sku":                map[string]any{"type": "string"},
		"quantity":           decimalProp(),
		"unit_price":         decimalProp(),
		"line_total":         minorProp(),
		"weight":             decimalProp(),
		"math_validated":     map[string]any{"type": "boolean"},
		"correction_applied": map[string]any{"type": "string", "enum": []string{"quantity", "unit_price", "catch_weight"}},
		"is_catch_weight":    map[string]any{"type": "boolean"},
		"source_line":        map[string]any{"type": "integer"},
	}, "description", "quantity", "unit_price", "line_total", "math_validated")

	adjustment := object(map[string]any{
		"category":     map[string]any{"type": "string", "enum": categories},
		"label":        map[string]any{"type": "string"},
		"amount":       minorProp(),
		"is_synthetic": map[string]any{"type": "boolean"},
		"evidence":     map[string]any{"type": "string"},
	}, "category", "label", "amount", "is_synthetic")

	totals := object(map[string]any{
		"subtotal":        minorProp(),
		"tax":             minorProp(),
		"total":           minorProp(),
		"adjustments":     minorProp(),
		"subtotal_source": sourceProp(),
		"tax_source":      sourceProp(),
		"total_source":    sourceProp(),
		"salvaged":        map[string]any{"type": "boolean"},
	}, "subtotal", "tax", "total", "adjustments", "subtotal_source", "tax_source", "total_source")

	finding := object(map[string]any{
		"code":     map[string]any{"type": "string", "minLength": 1},
		"message":  map[string]any{"type": "string"},
		"expected": minorProp(),
		"computed": minorProp(),
	}, "code", "message")

	confidence := object(map[string]any{
		"score":        map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
		"issues":       map[string]any{"type": "array", "items": finding},
		"warnings":     map[string]any{"type": "array", "items": finding},
		"needs_review": map[string]any{"type": "boolean"},
	}, "score", "issues", "warnings", "needs_review")

	debug := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"state":       map[string]any{"type": "string", "enum": states},
			"state_trail": map[string]any{"type": "array", "items": map[string]any{"type": "string", "enum": states}},
		},
		"required": []string{"state", "state_trail"},
	}

	return object(map[string]any{
		"document_id": map[string]any{"type": "string", "pattern": `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`},
		"line_items":  map[string]any{"type": "array", "items": lineItem},
		"totals":      totals,
		"adjustments": map[string]any{"type": "array", "items": adjustment},
		"confidence":  confidence,
		"debug":       debug,
	}, "document_id", "line_items", "totals", "adjustments", "confidence", "debug")
}

func object(props map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^-?\d+(\.\d+)?$`,
	}
}

func minorProp() map[string]any {
	return map[string]any{"type": "integer"}
}

func sourceProp() map[string]any {
	return map[string]any{"type": "string", "minLength": 1}
}

// Validator is a compiled result schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the result schema.
func NewValidator() (*Validator, error) {
	s, err := compile(BuildResultJSONSchema())
	if err != nil {
		return nil, err
	}
	return &Validator{schema: s}, nil
}

// Validate checks a marshalled record.
func (v *Validator) Validate(data []byte) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// ValidateValue marshals v and validates it.
func (v *Validator) ValidateValue(value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return v.Validate(b)
}

func compile(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("result.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := compiler.Compile("result.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return s, nil
}
