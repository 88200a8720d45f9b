package generation

import (
	"log/slog"

	"github.com/jackzampolin/courseforge/internal/prompts"
	"github.com/jackzampolin/courseforge/internal/prompts/classify"
	"github.com/jackzampolin/courseforge/internal/prompts/expand"
	"github.com/jackzampolin/courseforge/internal/prompts/generate"
)

// NewPromptResolver returns a resolver with every course prompt registered.
func NewPromptResolver(logger *slog.Logger) *prompts.Resolver {
	r := prompts.NewResolver(logger)
	classify.RegisterPrompts(r)
	generate.RegisterPrompts(r)
	expand.RegisterPrompts(r)
	return r
}
