package course

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidStructure is wrapped by every structural validation failure.
var ErrInvalidStructure = errors.New("invalid course structure")

// Structure describes the cardinality rules a strictly validated document
// must follow.
type Structure struct {
	MinSections          int `json:"min_sections" yaml:"min_sections"`
	MaxSections          int `json:"max_sections" yaml:"max_sections"`
	ParagraphsPerSection int `json:"paragraphs_per_section" yaml:"paragraphs_per_section"`
}

// DefaultStructure returns 6-9 sections of exactly 3 paragraphs.
func DefaultStructure() Structure {
	return Structure{
		MinSections:          6,
		MaxSections:          9,
		ParagraphsPerSection: 3,
	}
}

// Schema returns the JSON Schema for documents with this structure.
func (s Structure) Schema() map[string]any {
	choiceWithKey := func(key string) map[string]any {
		return map[string]any{
			"contains": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"key": map[string]any{"const": key},
				},
				"required": []string{"key"},
			},
		}
	}

	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"course_title": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"sections": map[string]any{
				"type":     "array",
				"minItems": s.MinSections,
				"maxItems": s.MaxSections,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"heading": map[string]any{"type": "string", "minLength": 1},
						"paragraphs": map[string]any{
							"type":     "array",
							"minItems": s.ParagraphsPerSection,
							"maxItems": s.ParagraphsPerSection,
							"items":    map[string]any{"type": "string"},
						},
					},
					"required": []string{"heading", "paragraphs"},
				},
			},
			"choices": map[string]any{
				"type":     "array",
				"minItems": 2,
				"maxItems": 2,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"key":  map[string]any{"enum": []string{"1", "2"}},
						"text": map[string]any{"type": "string", "minLength": 1},
					},
					"required": []string{"key", "text"},
				},
				"allOf": []any{choiceWithKey("1"), choiceWithKey("2")},
			},
		},
		"required": []string{"course_title", "sections", "choices"},
	}
}

// StructureError lists the structural violations found in a document.
type StructureError struct {
	Violations []string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidStructure, strings.Join(e.Violations, "; "))
}

func (e *StructureError) Unwrap() error {
	return ErrInvalidStructure
}

// StructureValidator checks documents against a compiled Structure schema.
type StructureValidator struct {
	schema *jsonschema.Schema
}

// NewStructureValidator compiles the schema for s.
func NewStructureValidator(s Structure) (*StructureValidator, error) {
	raw, err := json.Marshal(s.Schema())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize course schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("course.schema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to load course schema: %w", err)
	}
	schema, err := compiler.Compile("course.schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile course schema: %w", err)
	}
	return &StructureValidator{schema: schema}, nil
}

// Validate returns nil if doc conforms, or a *StructureError.
func (v *StructureValidator) Validate(doc *Document) error {
	if doc == nil {
		return &StructureError{Violations: []string{"document is missing"}}
	}

	raw, err := doc.JSON()
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("failed to decode document for validation: %w", err)
	}

	if err := v.schema.Validate(instance); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &StructureError{Violations: violations(ve)}
		}
		return &StructureError{Violations: []string{err.Error()}}
	}
	return nil
}

// violations flattens the leaf causes of a validation error into
// "location: message" strings.
func violations(ve *jsonschema.ValidationError) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			msg := fmt.Sprintf("%s: %s", loc, e.Message)
			if !seen[msg] {
				seen[msg] = true
				out = append(out, msg)
			}
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	sort.Strings(out)
	return out
}
