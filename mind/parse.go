package mind

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var reflectionSchema = jsonschema.MustCompileString("reflection.json", `{
	"type": "object",
	"required": ["message", "wants_to_move"],
	"properties": {
		"message": {"type": "string", "minLength": 1},
		"wants_to_move": {"type": "boolean"}
	}
}`)

var movementSchema = jsonschema.MustCompileString("movement.json", `{
	"type": "object",
	"required": ["x", "y"],
	"properties": {
		"x": {"type": "number"},
		"y": {"type": "number"},
		"reason": {"type": "string"}
	}
}`)

// extractJSON isolates the first JSON object inside a model response,
// tolerating markdown fences and surrounding prose.
func extractJSON(s string) (string, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```"); i >= 0 {
		s = strings.TrimPrefix(s[i+3:], "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return s[start : end+1], nil
}

// decodeValidated extracts, schema-validates and unmarshals a model response
// into out.
func decodeValidated(raw string, schema *jsonschema.Schema, out any) error {
	doc, err := extractJSON(raw)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return json.Unmarshal([]byte(doc), out)
}
