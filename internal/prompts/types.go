// Package prompts provides prompt management with embedded defaults and
// config-level overrides.
//
// Embedded .tmpl files in the stage subpackages are the source of truth for
// defaults. Each subpackage registers its prompts with a Resolver; overrides
// loaded from config replace the text of a key without touching the embedded
// default.
//
// Resolution order for a key:
//  1. Override (from config, if set)
//  2. Embedded default
package prompts

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   `json:"key"`                   // Hierarchical key: course.expand.system
	Text        string   `json:"text"`                  // The prompt text (Go template)
	Description string   `json:"description,omitempty"` // Human-readable description
	Variables   []string `json:"variables,omitempty"`   // Extracted template variables
	Hash        string   `json:"hash"`                  // SHA256 hash of the text for change detection
}

// ResolvedPrompt is the result of resolving a prompt key.
type ResolvedPrompt struct {
	Key         string   `json:"key"`
	Text        string   `json:"text"`
	Description string   `json:"description,omitempty"`
	Variables   []string `json:"variables,omitempty"`
	Hash        string   `json:"hash"`
	IsOverride  bool     `json:"is_override"` // true if the text came from config
}
