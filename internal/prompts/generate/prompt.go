package generate

import (
	_ "embed"

	"github.com/jackzampolin/courseforge/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

// SystemPrompt returns the raw course generation system prompt.
func SystemPrompt() string {
	return systemPrompt
}

// PromptKey is the hierarchical key for this prompt.
const PromptKey = "course.generate.system"

// RegisterPrompts registers the generation prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey,
		Text:        systemPrompt,
		Description: "Course generator - produces a fresh course document as strict JSON with length and structure constraints",
	})
}
