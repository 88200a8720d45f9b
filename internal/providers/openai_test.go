package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const openAICompletion = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1,
	"model": "gpt-4o-mini",
	"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"is_qc\": true}"}}],
	"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
}`

// capturingOpenAIServer answers every chat completion with openAICompletion
// and stores the decoded request body in payload.
func capturingOpenAIServer(t *testing.T, payload *map[string]any, requestID *string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		if requestID != nil {
			*requestID = r.Header.Get("X-Request-ID")
		}

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, payload))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(openAICompletion))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenAIChatSuccess(t *testing.T) {
	var payload map[string]any
	var requestID string
	server := capturingOpenAIServer(t, &payload, &requestID)

	client := NewOpenAIClient(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "You are a strict classifier."},
			{Role: RoleUser, Content: "What is a qubit?"},
		},
		Temperature:    0,
		MaxTokens:      100,
		ResponseFormat: JSONObject(),
		RequestID:      "req-123",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, `{"is_qc": true}`, string(result.ParsedJSON))
	assert.Equal(t, 17, result.TotalTokens)
	assert.Equal(t, "req-123", requestID)

	assert.Equal(t, "gpt-4o-mini", payload["model"], "default model")
	require.Contains(t, payload, "temperature", "temperature 0 must be sent explicitly")
	assert.Equal(t, 0.0, payload["temperature"])
	assert.Equal(t, 100.0, payload["max_completion_tokens"])

	rf, _ := payload["response_format"].(map[string]any)
	assert.Equal(t, "json_object", rf["type"])

	msgs, _ := payload["messages"].([]any)
	require.Len(t, msgs, 2)
	first, _ := msgs[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
}

func TestOpenAIChatJSONSchema(t *testing.T) {
	var payload map[string]any
	server := capturingOpenAIServer(t, &payload, nil)

	client := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})

	rf, err := JSONSchemaFormat("classification", map[string]any{
		"type":       "object",
		"properties": map[string]any{"is_qc": map[string]any{"type": "boolean"}},
		"required":   []string{"is_qc"},
	}, false)
	require.NoError(t, err)

	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages:       []Message{{Role: RoleUser, Content: "What is a qubit?"}},
		ResponseFormat: rf,
	})
	require.NoError(t, err)
	assert.Empty(t, result.ErrorType)
	assert.Equal(t, `{"is_qc": true}`, string(result.ParsedJSON))

	sent, _ := payload["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", sent["type"])
	wire, _ := sent["json_schema"].(map[string]any)
	assert.Equal(t, "classification", wire["name"])
	assert.Equal(t, false, wire["strict"])
	schema, _ := wire["schema"].(map[string]any)
	assert.Equal(t, []any{"is_qc"}, schema["required"])
}

func TestOpenAIChatRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit","type":"rate_limit_error","param":"","code":"rate_limit"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		MaxRetries: -1,
	})

	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	rle, ok := IsRateLimitError(err)
	require.True(t, ok, "expected RateLimitError, got %T: %v", err, err)
	assert.Equal(t, 3*time.Second, rle.RetryAfter)
	assert.Equal(t, "rate_limit", result.ErrorType)
	assert.False(t, client.limiter.Status().Last429Time.IsZero(), "limiter should record the 429")
}

func TestOpenAIChatServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL, MaxRetries: -1})

	result, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.Error(t, err)
	_, ok := IsRateLimitError(err)
	assert.False(t, ok, "400 should not be a rate limit error")
	assert.False(t, result.Success)
	assert.Equal(t, "http_error", result.ErrorType)
}

func TestOpenAIRejectsUnknownRole(t *testing.T) {
	client := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: "http://127.0.0.1:1"})

	_, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: "tool", Content: "x"}}})
	assert.Error(t, err)
}
