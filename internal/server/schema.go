package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/moizuddin-works/Document-OCR/constants"
)

// BuildDocumentJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map constraining caller-supplied document payloads. Dates stay
// verbatim strings; only their rough shape is checked.
func BuildDocumentJSONSchema() map[string]any {
	dateProp := map[string]any{
		"type":    "string",
		"pattern": `^(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})?$`,
	}
	fieldProps := map[string]any{
		"doc_type": map[string]any{
			"type": "string",
			"enum": append([]string{""}, constants.DocTypes...),
		},
		"doc_number":    map[string]any{"type": "string"},
		"full_name":     map[string]any{"type": "string"},
		"date_of_birth": dateProp,
		"issue_date":    dateProp,
		"expiry_date":   dateProp,
	}
	props := map[string]any{
		"raw_text": map[string]any{"type": "string", "minLength": 1},
		"fields": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties":           fieldProps,
		},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"raw_text"},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
