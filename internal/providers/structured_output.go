package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jackzampolin/courseforge/internal/jsonutil"
)

// adaptedResponseFormat returns the response_format to send to OpenRouter for
// model. Local validation always uses the canonical schema.
func adaptedResponseFormat(model string, rf *ResponseFormat) *openRouterResponseFormat {
	if rf == nil {
		return nil
	}
	// OpenRouter may route anthropic/* models to backends that reject
	// response_format entirely. The prompts already demand bare JSON and the
	// result is parsed locally.
	if isAnthropicModel(model) {
		return nil
	}
	return &openRouterResponseFormat{
		Type:       rf.Type,
		JSONSchema: rf.JSONSchema,
	}
}

func isAnthropicModel(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "anthropic/")
}

// parseStructuredJSON recovers a JSON value from model output, tolerating
// code fences and surrounding prose.
func parseStructuredJSON(content string) (json.RawMessage, error) {
	parsed, err := jsonutil.Extract(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse structured JSON: %w", err)
	}
	return parsed, nil
}

// validateStructuredJSON validates parsed JSON against the canonical schema.
// An empty schema accepts anything.
func validateStructuredJSON(schemaRaw, parsed json.RawMessage) error {
	if len(schemaRaw) == 0 || len(parsed) == 0 {
		return nil
	}

	coreSchema, err := extractValidationSchema(schemaRaw)
	if err != nil {
		return err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(coreSchema)); err != nil {
		return fmt.Errorf("failed to load structured schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("failed to compile structured schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(parsed, &doc); err != nil {
		return fmt.Errorf("failed to decode structured JSON for validation: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("structured output does not match schema: %w", err)
	}
	return nil
}

// extractValidationSchema unwraps {"name","strict","schema":{...}} and
// {"json_schema":{"schema":{...}}} wrappers.
func extractValidationSchema(schemaRaw json.RawMessage) (json.RawMessage, error) {
	var root map[string]any
	if err := json.Unmarshal(schemaRaw, &root); err != nil {
		return nil, fmt.Errorf("invalid structured schema JSON: %w", err)
	}

	if inner, ok := root["schema"]; ok {
		return json.Marshal(inner)
	}
	if wrapped, ok := root["json_schema"].(map[string]any); ok {
		if inner, ok := wrapped["schema"]; ok {
			return json.Marshal(inner)
		}
	}
	return schemaRaw, nil
}
