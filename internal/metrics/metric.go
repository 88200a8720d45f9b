// Package metrics tracks token usage and latency of model calls in memory.
package metrics

import "time"

// Metric represents a single recorded model call.
// Metrics are append-only; the recorder keeps a bounded window of them.
type Metric struct {
	ID string `json:"id"`

	// Attribution (for filtering/aggregation)
	RequestID  string `json:"request_id,omitempty"`
	Call       string `json:"call"`                  // "classify", "generate" or "expand"
	PromptKey  string `json:"prompt_key,omitempty"`  // System prompt used
	PromptHash string `json:"prompt_hash,omitempty"` // Exact prompt version

	// Provider info
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// Tokens
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`

	// Timing
	QueueSeconds     float64 `json:"queue_seconds,omitempty"`
	ExecutionSeconds float64 `json:"execution_seconds,omitempty"`
	TotalSeconds     float64 `json:"total_seconds,omitempty"`
	Attempts         int     `json:"attempts,omitempty"`

	// Status
	Success   bool   `json:"success"`
	ErrorType string `json:"error_type,omitempty"`

	// Metadata
	CreatedAt time.Time `json:"created_at"`
}
