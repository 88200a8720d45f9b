// Package providers wraps chat-completion backends behind a single LLMClient
// interface, with a config-driven registry, rate limiting and structured JSON
// recovery.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// LLMClient is the interface for chat/completion requests.
type LLMClient interface {
	// Chat sends a chat completion request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Name returns the client identifier (e.g., "openai").
	Name() string
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Response format types.
const (
	ResponseFormatJSONObject = "json_object"
	ResponseFormatJSONSchema = "json_schema"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ResponseFormat specifies structured output format.
type ResponseFormat struct {
	Type       string          `json:"type"` // "json_object" or "json_schema"
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

// JSONObject is the plain JSON mode response format.
func JSONObject() *ResponseFormat {
	return &ResponseFormat{Type: ResponseFormatJSONObject}
}

// JSONSchemaFormat wraps schema as a named json_schema response format.
// Results are validated against schema locally whether or not the backend
// enforces it.
func JSONSchemaFormat(name string, schema any, strict bool) (*ResponseFormat, error) {
	raw, err := json.Marshal(map[string]any{
		"name":   name,
		"strict": strict,
		"schema": schema,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s schema: %w", name, err)
	}
	return &ResponseFormat{Type: ResponseFormatJSONSchema, JSONSchema: raw}, nil
}

// ChatRequest is a request to an LLM.
type ChatRequest struct {
	// Required
	Messages []Message `json:"messages"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	// Generation parameters. Temperature is always sent, zero included.
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`

	// Structured output
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	// Request tracking
	RequestID string `json:"-"`
}

// ChatResult is the complete response from an LLM call.
type ChatResult struct {
	// Response content
	Content    string          `json:"content"`
	ParsedJSON json.RawMessage `json:"parsed_json,omitempty"` // Set if ResponseFormat was requested and the content parsed

	// Token counts
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// Timing
	QueueTime     time.Duration `json:"queue_time"`
	ExecutionTime time.Duration `json:"execution_time"`
	TotalTime     time.Duration `json:"total_time"`

	// Provider info
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	// Request tracking
	RequestID string `json:"request_id"`
	Attempts  int    `json:"attempts"`

	// Success/error
	Success      bool   `json:"success"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// fail marks the result as failed and returns err for convenience.
func (r *ChatResult) fail(start time.Time, errType string, err error) (*ChatResult, error) {
	r.Success = false
	r.ErrorType = errType
	r.ErrorMessage = err.Error()
	r.TotalTime = time.Since(start)
	return r, err
}

// applyStructuredOutput parses the content when a response format was
// requested. A parse or schema failure is recorded on the result but is not a
// transport error: callers decide what malformed output means.
func (r *ChatResult) applyStructuredOutput(rf *ResponseFormat) {
	if rf == nil || r.Content == "" {
		return
	}
	parsed, err := parseStructuredJSON(r.Content)
	if err != nil {
		r.ErrorType = "json_parse"
		r.ErrorMessage = err.Error()
		return
	}
	if err := validateStructuredJSON(rf.JSONSchema, parsed); err != nil {
		r.ErrorType = "schema_validation"
		r.ErrorMessage = err.Error()
		return
	}
	r.ParsedJSON = parsed
}
