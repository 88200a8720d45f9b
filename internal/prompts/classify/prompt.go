package classify

import (
	_ "embed"

	"github.com/jackzampolin/courseforge/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

// SystemPrompt returns the raw domain classifier system prompt.
func SystemPrompt() string {
	return systemPrompt
}

// PromptKey is the hierarchical key for this prompt.
const PromptKey = "course.classify.system"

// RegisterPrompts registers the classifier prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey,
		Text:        systemPrompt,
		Description: "Topic classifier - replies with a single boolean JSON field saying whether the prompt is in the course domain",
	})
}
