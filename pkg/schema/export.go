package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// wireWizard mirrors the wizard document shape with plain containers and
// jsonschema tags. It exists only for schema generation and semantic
// validation; runtime code uses the order-preserving types in schema.go.
type wireWizard struct {
	Version     any                     `json:"version,omitempty"`
	Title       string                  `json:"title,omitempty"`
	Description string                  `json:"description,omitempty"`
	Plan        map[string]wireStep     `json:"plan"`
	Execute     map[string][]wireAction `json:"execute,omitempty"`
}

type wireStep struct {
	Values   map[string]map[string]any `json:"values,omitempty"`
	NextStep any                       `json:"next_step,omitempty"`
}

type wireAction struct {
	Type      string         `json:"type"`
	Condition *wireCondition `json:"condition,omitempty"`
	OutputVar string         `json:"output_var,omitempty"`
	Query     string         `json:"query,omitempty"`
}

type wireCondition struct {
	Variable string `json:"variable"`
	Equals   any    `json:"equals,omitempty"`
}

// GenerateJSONSchema produces a JSON Schema Draft 2020-12 document from
// the wire types using invopop/jsonschema. Additional properties stay
// open because value and action definitions carry type-specific fields.
func GenerateJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false
	r.AllowAdditionalProperties = true

	s := r.Reflect(&wireWizard{})
	s.ID = "https://github.com/ormasoftchile/wizard/schemas/wizard-v1.json"
	s.Title = "Interactive Setup Wizard v1"
	s.Description = "Schema for wizard YAML documents (Draft 2020-12)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}
