package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRouterOK(w http.ResponseWriter, content string) {
	resp := map[string]any{
		"id":    "test-id",
		"model": "openai/gpt-4o-mini",
		"choices": []map[string]any{
			{
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{
			"prompt_tokens":     10,
			"completion_tokens": 8,
			"total_tokens":      18,
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func TestOpenRouterClient_Chat(t *testing.T) {
	t.Run("successful chat", func(t *testing.T) {
		var received openRouterRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			_ = json.NewDecoder(r.Body).Decode(&received)
			openRouterOK(w, `{"is_qc": true}`)
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:  "test-key",
			BaseURL: server.URL,
		})

		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages:       []Message{{Role: RoleSystem, Content: "classify"}, {Role: RoleUser, Content: "qubits"}},
			Temperature:    0,
			MaxTokens:      100,
			ResponseFormat: JSONObject(),
		})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 18, result.TotalTokens)
		assert.Equal(t, `{"is_qc": true}`, string(result.ParsedJSON))
		assert.Equal(t, 1, result.Attempts)

		assert.Equal(t, 100, received.MaxTokens)
		require.NotNil(t, received.ResponseFormat)
		assert.Equal(t, ResponseFormatJSONObject, received.ResponseFormat.Type)
	})

	t.Run("json schema is forwarded and enforced locally", func(t *testing.T) {
		var received map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&received)
			openRouterOK(w, `{"is_qc": "perhaps"}`)
		}))
		defer server.Close()

		rf, err := JSONSchemaFormat("classification", map[string]any{
			"type":       "object",
			"properties": map[string]any{"is_qc": map[string]any{"type": "boolean"}},
			"required":   []string{"is_qc"},
		}, false)
		require.NoError(t, err)

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL})
		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages:       []Message{{Role: RoleUser, Content: "qubits"}},
			ResponseFormat: rf,
		})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "schema_validation", result.ErrorType)
		assert.Nil(t, result.ParsedJSON)

		sent, _ := received["response_format"].(map[string]any)
		assert.Equal(t, "json_schema", sent["type"])
		wire, _ := sent["json_schema"].(map[string]any)
		assert.Equal(t, "classification", wire["name"])
	})

	t.Run("retries server errors with nonce", func(t *testing.T) {
		var calls atomic.Int32
		var lastUser string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req openRouterRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			lastUser = req.Messages[len(req.Messages)-1].Content
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`upstream down`))
				return
			}
			openRouterOK(w, "ok")
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:     "test-key",
			BaseURL:    server.URL,
			MaxRetries: 3,
			RetryDelay: time.Millisecond,
		})

		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: RoleUser, Content: "hello"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, result.Attempts)
		assert.Contains(t, lastUser, "retry_2_id", "expected nonce in retried message")
	})

	t.Run("client error is not retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"bad request"}}`))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:     "test-key",
			BaseURL:    server.URL,
			RetryDelay: time.Millisecond,
		})

		result, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
		require.Error(t, err)
		assert.False(t, result.Success)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("rate limit surfaces RateLimitError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`slow down`))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:     "test-key",
			BaseURL:    server.URL,
			MaxRetries: 2,
			RetryDelay: time.Millisecond,
		})

		result, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
		rle, ok := IsRateLimitError(err)
		require.True(t, ok, "expected RateLimitError, got %T: %v", err, err)
		assert.Equal(t, http.StatusTooManyRequests, rle.StatusCode)
		assert.Equal(t, "rate_limit", result.ErrorType)
	})

	t.Run("empty choices are retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id":"x","model":"m","choices":[]}`))
				return
			}
			openRouterOK(w, "second time lucky")
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:     "test-key",
			BaseURL:    server.URL,
			RetryDelay: time.Millisecond,
		})

		result, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
		require.NoError(t, err)
		assert.Equal(t, "second time lucky", result.Content)
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			openRouterOK(w, "late")
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := client.Chat(ctx, &ChatRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
		assert.Error(t, err)
	})
}

func TestOpenRouterClient_Defaults(t *testing.T) {
	client := NewOpenRouterClient(OpenRouterConfig{APIKey: "k"})

	assert.Equal(t, OpenRouterName, client.Name())
	assert.Equal(t, OpenRouterBaseURL, client.baseURL)
	assert.Equal(t, 3, client.maxRetries)
	assert.Equal(t, time.Second, client.retryDelay)
}

func TestOpenRouterClient_AnthropicSkipsResponseFormat(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		openRouterOK(w, "```json\n{\"is_qc\":false}\n```")
	}))
	defer server.Close()

	client := NewOpenRouterClient(OpenRouterConfig{APIKey: "k", BaseURL: server.URL})
	result, err := client.Chat(context.Background(), &ChatRequest{
		Model:          "anthropic/claude-3.5-sonnet",
		Messages:       []Message{{Role: RoleUser, Content: "x"}},
		ResponseFormat: JSONObject(),
	})
	require.NoError(t, err)
	assert.NotContains(t, received, "response_format", "response_format should be omitted for anthropic models")
	assert.Equal(t, `{"is_qc":false}`, string(result.ParsedJSON))
}
