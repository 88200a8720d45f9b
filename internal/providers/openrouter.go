package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

const (
	OpenRouterName    = "openrouter"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenRouterConfig holds configuration for the OpenRouter client.
type OpenRouterConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	// Rate limiting
	RPS        float64       // Requests per second
	MaxRetries int           // Max attempts (default: 3)
	RetryDelay time.Duration // Base delay between retries (default: 1s)
	Logger     *slog.Logger
}

// OpenRouterClient implements LLMClient using the OpenRouter API.
type OpenRouterClient struct {
	apiKey       string
	baseURL      string
	defaultModel string
	client       *http.Client
	limiter      *RateLimiter
	logger       *slog.Logger
	rps          float64
	maxRetries   int
	retryDelay   time.Duration
}

// NewOpenRouterClient creates a new OpenRouter client.
func NewOpenRouterClient(cfg OpenRouterConfig) *OpenRouterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenRouterBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "openai/gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &OpenRouterClient{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		defaultModel: cfg.DefaultModel,
		client:       &http.Client{Timeout: cfg.Timeout},
		limiter:      NewRateLimiterRPS(cfg.RPS),
		logger:       cfg.Logger,
		rps:          cfg.RPS,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
	}
}

// Name returns the client identifier.
func (c *OpenRouterClient) Name() string {
	return OpenRouterName
}

// Chat sends a chat completion request.
func (c *OpenRouterClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	result := &ChatResult{
		RequestID: requestID,
		Provider:  OpenRouterName,
	}

	orReq := &openRouterRequest{
		Model:       model,
		Messages:    make([]openRouterMessage, 0, len(req.Messages)),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	for _, m := range req.Messages {
		orReq.Messages = append(orReq.Messages, openRouterMessage{Role: m.Role, Content: m.Content})
	}
	orReq.ResponseFormat = adaptedResponseFormat(model, req.ResponseFormat)

	if err := c.limiter.Wait(ctx); err != nil {
		return result.fail(start, "context_cancelled", err)
	}
	result.QueueTime = time.Since(start)

	orResp, attempts, err := c.doRequest(ctx, requestID, orReq)
	result.Attempts = attempts
	if err != nil {
		if _, ok := IsRateLimitError(err); ok {
			return result.fail(start, "rate_limit", err)
		}
		return result.fail(start, "http_error", err)
	}

	result.Success = true
	result.Content = orResp.Choices[0].Message.Content
	result.ModelUsed = orResp.Model
	result.PromptTokens = orResp.Usage.PromptTokens
	result.CompletionTokens = orResp.Usage.CompletionTokens
	result.TotalTokens = orResp.Usage.TotalTokens
	result.TotalTime = time.Since(start)
	result.ExecutionTime = result.TotalTime - result.QueueTime

	result.applyStructuredOutput(req.ResponseFormat)
	return result, nil
}

// doRequest posts to /chat/completions, retrying transient failures with
// exponential backoff. Each retry appends a nonce to the last user message so
// upstream caches treat it as a new request.
func (c *OpenRouterClient) doRequest(ctx context.Context, requestID string, orReq *openRouterRequest) (*openRouterResponse, int, error) {
	attempts := 0
	resp, err := retry.DoWithData(
		func() (*openRouterResponse, error) {
			attempts++
			return c.send(ctx, orReq)
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			if rl, ok := IsRateLimitError(err); ok && rl.RetryAfter > 0 {
				return rl.RetryAfter
			}
			return retry.BackOffDelay(n, err, config)
		}),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			if rl, ok := IsRateLimitError(err); ok {
				c.limiter.Record429(rl.RetryAfter)
			}
			c.logger.Warn("openrouter request failed, retrying",
				"request_id", requestID, "attempt", n+1, "error", err)
			injectNonce(orReq, int(n)+1)
		}),
	)
	if err != nil {
		return nil, attempts, err
	}
	return resp, attempts, nil
}

// send performs one HTTP round-trip. Retryable failures are wrapped in
// retryableError or returned as *RateLimitError.
func (c *OpenRouterClient) send(ctx context.Context, orReq *openRouterRequest) (*openRouterResponse, error) {
	bodyBytes, err := json.Marshal(orReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", "https://github.com/jackzampolin/courseforge")
	req.Header.Set("X-Title", "Courseforge")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &retryableError{fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryableError{fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			Message:    fmt.Sprintf("OpenRouter rate limited: %s", string(respBody)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			StatusCode: resp.StatusCode,
		}
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("OpenRouter error (status %d): %s", resp.StatusCode, string(respBody))
		if shouldRetryStatus(resp.StatusCode) {
			return nil, &retryableError{err}
		}
		return nil, err
	}

	var orResp openRouterResponse
	if err := json.Unmarshal(respBody, &orResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if err := checkResponse(&orResp); err != nil {
		return nil, err
	}
	return &orResp, nil
}

// shouldRetryStatus reports whether an HTTP status is transient.
func shouldRetryStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		// Often cache/format issues that a nonce clears.
		return true
	default:
		return statusCode >= 500
	}
}

// checkResponse inspects a 200 OK body for API-level errors and empty choices.
func checkResponse(resp *openRouterResponse) error {
	if resp.Error != nil {
		err := fmt.Errorf("OpenRouter API error: %s", resp.Error.Message)
		switch fmt.Sprintf("%v", resp.Error.Code) {
		case "overloaded", "rate_limit_exceeded", "500", "502", "503":
			return &retryableError{err}
		}
		return err
	}
	if len(resp.Choices) == 0 {
		return &retryableError{fmt.Errorf("%w: no choices (model=%s, id=%s)", ErrEmptyResponse, resp.Model, resp.ID)}
	}
	return nil
}

// injectNonce appends a unique comment to the last user message.
func injectNonce(req *openRouterRequest, attempt int) {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			nonce := uuid.New().String()[:16]
			req.Messages[i].Content += fmt.Sprintf("\n<!-- retry_%d_id: %s -->", attempt, nonce)
			return
		}
	}
}

// OpenRouter API types

type openRouterRequest struct {
	Model          string                    `json:"model"`
	Messages       []openRouterMessage       `json:"messages"`
	Temperature    float64                   `json:"temperature"`
	MaxTokens      int                       `json:"max_tokens,omitempty"`
	ResponseFormat *openRouterResponseFormat `json:"response_format,omitempty"`
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterResponseFormat struct {
	Type       string          `json:"type"`
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

type openRouterResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *openRouterError `json:"error,omitempty"`
}

type openRouterError struct {
	Message string `json:"message"`
	Code    any    `json:"code,omitempty"` // string or int
}

var _ LLMClient = (*OpenRouterClient)(nil)
