package providers

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClient(t *testing.T) {
	t.Run("chat", func(t *testing.T) {
		c := NewMockClient()
		c.ResponseText = "hello world"

		result, err := c.Chat(context.Background(), &ChatRequest{
			Model: "test-model",
			Messages: []Message{
				{Role: RoleUser, Content: "test"},
			},
		})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "hello world", result.Content)
		assert.EqualValues(t, 1, c.RequestCount())
	})

	t.Run("scripted responses", func(t *testing.T) {
		c := NewMockClient("first", "second")

		var got []string
		for i := 0; i < 3; i++ {
			result, err := c.Chat(context.Background(), &ChatRequest{})
			require.NoError(t, err)
			got = append(got, result.Content)
		}
		assert.Equal(t, []string{"first", "second", "second"}, got)
	})

	t.Run("records requests", func(t *testing.T) {
		c := NewMockClient()
		_, _ = c.Chat(context.Background(), &ChatRequest{Temperature: 0.25, MaxTokens: 3600})

		reqs := c.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, 0.25, reqs[0].Temperature)
		assert.Equal(t, 3600, reqs[0].MaxTokens)

		c.Reset()
		assert.Zero(t, c.RequestCount())
		assert.Empty(t, c.Requests())
	})

	t.Run("structured output", func(t *testing.T) {
		c := NewMockClient("```json\n{\"is_qc\": true}\n```")

		result, err := c.Chat(context.Background(), &ChatRequest{
			Messages:       []Message{{Role: RoleUser, Content: "test"}},
			ResponseFormat: JSONObject(),
		})
		require.NoError(t, err)
		assert.Equal(t, `{"is_qc": true}`, string(result.ParsedJSON))
	})

	t.Run("malformed structured output is not an error", func(t *testing.T) {
		c := NewMockClient("not json")

		result, err := c.Chat(context.Background(), &ChatRequest{ResponseFormat: JSONObject()})
		require.NoError(t, err)
		assert.Nil(t, result.ParsedJSON)
		assert.Equal(t, "json_parse", result.ErrorType)
		assert.Equal(t, "not json", result.Content)
	})

	t.Run("failure", func(t *testing.T) {
		c := NewMockClient()
		c.ShouldFail = true

		result, err := c.Chat(context.Background(), &ChatRequest{})
		assert.Error(t, err)
		assert.False(t, result.Success)
	})

	t.Run("fail after N", func(t *testing.T) {
		c := NewMockClient()
		c.FailAfter = 2

		for i := 0; i < 2; i++ {
			_, err := c.Chat(context.Background(), &ChatRequest{})
			require.NoError(t, err, "request %d should succeed", i+1)
		}
		_, err := c.Chat(context.Background(), &ChatRequest{})
		assert.Error(t, err, "third request should fail")
	})

	t.Run("respects cancellation", func(t *testing.T) {
		c := NewMockClient()
		c.Latency = 5 * time.Second

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.Chat(ctx, &ChatRequest{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows initial burst", func(t *testing.T) {
		limiter := NewRateLimiter(600)

		start := time.Now()
		for i := 0; i < 5; i++ {
			require.NoError(t, limiter.Wait(context.Background()), "request %d", i)
		}
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("try consume", func(t *testing.T) {
		limiter := NewRateLimiter(1)
		assert.True(t, limiter.TryConsume(), "first TryConsume should succeed")
		assert.False(t, limiter.TryConsume(), "second TryConsume should fail with an empty bucket")
	})

	t.Run("rps constructor", func(t *testing.T) {
		assert.Equal(t, 150, NewRateLimiterRPS(2.5).Status().TokensLimit)
		assert.Equal(t, 15, NewRateLimiterRPS(0.25).Status().TokensLimit)
		assert.Equal(t, defaultRequestsPerMinute, NewRateLimiterRPS(0).Status().TokensLimit)
	})

	t.Run("record 429 drains bucket", func(t *testing.T) {
		limiter := NewRateLimiter(60)

		limiter.Record429(time.Second)

		status := limiter.Status()
		assert.False(t, status.Last429Time.IsZero())
		assert.Zero(t, status.TokensAvailable)
		assert.Positive(t, status.TimeUntilToken)
	})

	t.Run("respects cancellation", func(t *testing.T) {
		limiter := NewRateLimiter(1)
		_ = limiter.Wait(context.Background())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, limiter.Wait(ctx), context.Canceled)
	})

	t.Run("concurrent requests", func(t *testing.T) {
		limiter := NewRateLimiter(6000)

		var wg sync.WaitGroup
		var failures atomic.Int32
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := limiter.Wait(context.Background()); err != nil {
					failures.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Zero(t, failures.Load())
		assert.EqualValues(t, 10, limiter.Status().TotalConsumed)
	})
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"-1", 0},
		{"soon", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseRetryAfter(tt.in), "parseRetryAfter(%q)", tt.in)
	}

	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	assert.Positive(t, parseRetryAfter(future), "HTTP date in the future should give a positive delay")
}

func TestTestConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg := LoadTestConfig()
	require.True(t, cfg.HasAnyLLM())

	regCfg := cfg.ToRegistryConfig()
	require.Len(t, regCfg.LLMProviders, 1)
	assert.Equal(t, "sk-test", regCfg.LLMProviders[OpenAIName].APIKey)
}
