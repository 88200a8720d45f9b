package expand

import (
	_ "embed"

	"github.com/jackzampolin/courseforge/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPrompt string

// Prompt keys.
const (
	SystemPromptKey = "course.expand.system"
	UserPromptKey   = "course.expand.user"
)

// SystemPrompt returns the raw repair system prompt.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt returns the raw repair user prompt.
func UserPrompt() string {
	return userPrompt
}

// RegisterPrompts registers the repair prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Course repair system prompt - revises an existing course toward a target word count",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPrompt,
		Description: "Course repair user message - general or targeted at short paragraphs, followed by the current JSON",
	})
}
