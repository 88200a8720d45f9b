package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIName         = "openai"
	openAIDefaultModel = "gpt-4o-mini"
)

// OpenAIConfig holds configuration for the OpenAI chat client.
type OpenAIConfig struct {
	APIKey       string
	DefaultModel string        // "gpt-4o-mini" (default)
	RateLimit    float64       // Requests per second
	MaxRetries   int           // Retry attempts for SDK transport
	Timeout      time.Duration // HTTP timeout
	BaseURL      string        // Optional (tests, compatible gateways)
	HTTPClient   *http.Client  // Optional (tests)
	Logger       *slog.Logger
}

// OpenAIClient implements LLMClient using the official OpenAI SDK.
type OpenAIClient struct {
	apiKey       string
	defaultModel string
	rateLimit    float64
	maxRetries   int
	baseURL      string
	limiter      *RateLimiter
	client       openai.Client
	logger       *slog.Logger
}

// NewOpenAIClient creates a new OpenAI chat client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = openAIDefaultModel
	}
	switch {
	case cfg.MaxRetries == 0:
		cfg.MaxRetries = 2
	case cfg.MaxRetries < 0:
		cfg.MaxRetries = 0
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		apiKey:       cfg.APIKey,
		defaultModel: cfg.DefaultModel,
		rateLimit:    cfg.RateLimit,
		maxRetries:   cfg.MaxRetries,
		baseURL:      cfg.BaseURL,
		limiter:      NewRateLimiterRPS(cfg.RateLimit),
		client:       openai.NewClient(opts...),
		logger:       cfg.Logger,
	}
}

// Name returns the client identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// Chat sends a chat completion request.
func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
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
		Provider:  OpenAIName,
		Attempts:  1,
	}

	params, err := c.buildParams(model, req)
	if err != nil {
		return result.fail(start, "invalid_request", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return result.fail(start, "context_cancelled", err)
	}
	result.QueueTime = time.Since(start)

	completion, err := c.client.Chat.Completions.New(ctx, params, option.WithHeader("X-Request-ID", requestID))
	if err != nil {
		err = mapOpenAIError(err)
		if rl, ok := IsRateLimitError(err); ok {
			c.limiter.Record429(rl.RetryAfter)
			c.logger.Warn("openai rate limited", "request_id", requestID, "retry_after", rl.RetryAfter)
			return result.fail(start, "rate_limit", err)
		}
		return result.fail(start, "http_error", err)
	}

	if len(completion.Choices) == 0 {
		return result.fail(start, "empty_response", ErrEmptyResponse)
	}

	result.Success = true
	result.Content = completion.Choices[0].Message.Content
	result.ModelUsed = completion.Model
	result.PromptTokens = int(completion.Usage.PromptTokens)
	result.CompletionTokens = int(completion.Usage.CompletionTokens)
	result.TotalTokens = int(completion.Usage.TotalTokens)
	result.TotalTime = time.Since(start)
	result.ExecutionTime = result.TotalTime - result.QueueTime

	result.applyStructuredOutput(req.ResponseFormat)
	return result, nil
}

func (c *OpenAIClient) buildParams(model string, req *ChatRequest) (openai.ChatCompletionNewParams, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)),
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		case RoleUser, "":
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		default:
			return params, fmt.Errorf("unsupported message role %q", m.Role)
		}
	}

	if rf := req.ResponseFormat; rf != nil {
		switch rf.Type {
		case ResponseFormatJSONObject:
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
			}
		case ResponseFormatJSONSchema:
			schema, err := openAIJSONSchema(rf.JSONSchema)
			if err != nil {
				return params, err
			}
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schema},
			}
		default:
			return params, fmt.Errorf("unsupported response format %q", rf.Type)
		}
	}

	return params, nil
}

// openAIJSONSchema converts a {"name","strict","schema"} wrapper into SDK params.
func openAIJSONSchema(raw json.RawMessage) (openai.ResponseFormatJSONSchemaJSONSchemaParam, error) {
	var wrapper struct {
		Name   string         `json:"name"`
		Strict bool           `json:"strict"`
		Schema map[string]any `json:"schema"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return openai.ResponseFormatJSONSchemaJSONSchemaParam{}, fmt.Errorf("invalid json_schema response format: %w", err)
	}
	if wrapper.Name == "" {
		wrapper.Name = "response"
	}
	return openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:   wrapper.Name,
		Strict: openai.Bool(wrapper.Strict),
		Schema: wrapper.Schema,
	}, nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			retryAfter := time.Duration(0)
			if apiErr.Response != nil {
				retryAfter = parseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
			}
			return &RateLimitError{
				Message:    fmt.Sprintf("OpenAI rate limited: %s", apiErr.Message),
				RetryAfter: retryAfter,
				StatusCode: apiErr.StatusCode,
			}
		}
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			return fmt.Errorf("OpenAI error (status %d): %s", apiErr.StatusCode, msg)
		}
		return fmt.Errorf("OpenAI error (status %d)", apiErr.StatusCode)
	}
	return err
}

var _ LLMClient = (*OpenAIClient)(nil)
