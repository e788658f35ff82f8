package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaMap returns the JSON schema for documents conforming to t: every
// field is required, leaves are strings and no other keys are allowed.
func (t Template) SchemaMap() map[string]any {
	properties := make(map[string]any, len(t))
	required := make([]string, 0, len(t))

	for _, field := range t {
		required = append(required, field.Name)
		if len(field.Subfields) == 0 {
			properties[field.Name] = map[string]any{"type": "string"}
			continue
		}

		subProperties := make(map[string]any, len(field.Subfields))
		for _, sub := range field.Subfields {
			subProperties[sub] = map[string]any{"type": "string"}
		}
		properties[field.Name] = map[string]any{
			"type":                 "object",
			"properties":           subProperties,
			"required":             append([]string(nil), field.Subfields...),
			"additionalProperties": false,
		}
	}

	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// Compile compiles the template's JSON schema.
func (t Template) Compile() (*jsonschema.Schema, error) {
	b, err := json.Marshal(t.SchemaMap())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("claim-form.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("claim-form.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateAgainstSchema checks a document against a compiled schema. The
// document is round-tripped through JSON so typed maps validate like decoded ones.
func ValidateAgainstSchema(schema *jsonschema.Schema, doc any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return nil
}
