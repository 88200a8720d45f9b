// Package generation is the boundary to the generative model: the three
// request shapes the course pipeline needs, the settings that parameterise
// them, and the fail-closed topic classifier built on top.
package generation

import (
	"context"
	"errors"

	"github.com/jackzampolin/courseforge/internal/course"
)

// ErrNoProvider is returned when the configured LLM provider is not registered.
var ErrNoProvider = errors.New("no LLM provider available")

// Client issues model requests and returns the raw response text. The text is
// usually, but not always, a JSON document; callers parse it.
type Client interface {
	// Classify asks whether text belongs to the configured domain.
	Classify(ctx context.Context, text string) (string, error)

	// GenerateFresh produces a new course document for topic.
	GenerateFresh(ctx context.Context, topic string) (string, error)

	// Expand revises an existing document toward the length constraints.
	Expand(ctx context.Context, req ExpandRequest) (string, error)
}

// ExpandRequest describes one repair call.
type ExpandRequest struct {
	// DocumentJSON is the current document, serialized.
	DocumentJSON string

	// TargetWords is the aggregate length to aim for.
	TargetWords int

	// Focus lists the paragraphs to expand. Empty means a general
	// proportional expansion.
	Focus []course.ParagraphPosition

	// Issues are structural violations to fix alongside the length repair.
	Issues []string
}

// Targeted reports whether the request names specific paragraphs.
func (r ExpandRequest) Targeted() bool {
	return len(r.Focus) > 0
}
