package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/atvirokodosprendimai/saveclarify/internal/core/domain"
)

// ShipmentDocumentSchema constrains the wire shape of a shipment document.
// Field lengths and numeric ranges are left to the entity validator and the
// store so that those failures surface with a field code.
const ShipmentDocumentSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "id":                 {"type": "string"},
    "shipped_reference":  {"type": "string"},
    "expected_reference": {"type": "string"},
    "cubic_measurement":  {"type": ["number", "null"]},
    "carton_count":       {"type": ["integer", "null"]}
  }
}`

// PayloadValidator checks raw shipment documents before they become entities.
type PayloadValidator struct {
	schema *santhosh.Schema
}

func NewPayloadValidator(schemaJSON string) (*PayloadValidator, error) {
	compiled, err := compileSchema(json.RawMessage(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile payload schema: %w", err)
	}
	return &PayloadValidator{schema: compiled}, nil
}

// Validate returns *domain.ErrSchemaViolation when data does not conform.
func (v *PayloadValidator) Validate(data json.RawMessage) error {
	return runValidation(v.schema, data)
}

// compileSchema builds a *santhosh.Schema from raw JSON.
func compileSchema(schemaJSON json.RawMessage) (*santhosh.Schema, error) {
	compiler := santhosh.NewCompiler()
	compiler.Draft = santhosh.Draft7
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

func runValidation(sch *santhosh.Schema, data json.RawMessage) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return &domain.ErrSchemaViolation{Errors: []string{"invalid json"}}
	}
	if err := sch.Validate(v); err != nil {
		var ve *santhosh.ValidationError
		if errors.As(err, &ve) {
			return &domain.ErrSchemaViolation{Errors: collectValidationErrors(ve)}
		}
		return &domain.ErrSchemaViolation{Errors: []string{err.Error()}}
	}
	return nil
}

func collectValidationErrors(ve *santhosh.ValidationError) []string {
	var msgs []string
	for _, cause := range ve.Causes {
		msgs = append(msgs, collectValidationErrors(cause)...)
	}
	if len(ve.Causes) == 0 {
		msgs = append(msgs, ve.Error())
	}
	return msgs
}
