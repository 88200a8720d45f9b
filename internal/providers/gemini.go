package providers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

const (
	GeminiName         = "gemini"
	geminiDefaultModel = "gemini-1.5-flash"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey       string
	DefaultModel string
	RateLimit    float64 // Requests per second
	Endpoint     string  // Optional (tests)
	Logger       *slog.Logger
}

// GeminiClient implements LLMClient using the Google generative AI SDK. The
// SDK client is created on first use and reused.
type GeminiClient struct {
	apiKey       string
	defaultModel string
	rateLimit    float64
	endpoint     string
	limiter      *RateLimiter
	logger       *slog.Logger

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = geminiDefaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &GeminiClient{
		apiKey:       cfg.APIKey,
		defaultModel: cfg.DefaultModel,
		rateLimit:    cfg.RateLimit,
		endpoint:     cfg.Endpoint,
		limiter:      NewRateLimiterRPS(cfg.RateLimit),
		logger:       cfg.Logger,
	}
}

// Name returns the client identifier.
func (c *GeminiClient) Name() string {
	return GeminiName
}

func (c *GeminiClient) sdk(ctx context.Context) (*genai.Client, error) {
	c.once.Do(func() {
		if c.apiKey == "" {
			c.initErr = fmt.Errorf("gemini: %w", ErrMissingAPIKey)
			return
		}
		opts := []option.ClientOption{option.WithAPIKey(c.apiKey)}
		if c.endpoint != "" {
			opts = append(opts, option.WithEndpoint(c.endpoint))
		}
		// The SDK client outlives the request that created it.
		c.client, c.initErr = genai.NewClient(context.WithoutCancel(ctx), opts...)
	})
	return c.client, c.initErr
}

// Chat sends a chat request. System messages become the system instruction;
// the remaining messages become user parts in order.
func (c *GeminiClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	modelName := strings.TrimSpace(req.Model)
	if modelName == "" {
		modelName = c.defaultModel
	}

	result := &ChatResult{
		RequestID: requestID,
		Provider:  GeminiName,
		ModelUsed: modelName,
		Attempts:  1,
	}

	cl, err := c.sdk(ctx)
	if err != nil {
		return result.fail(start, "client_init", err)
	}

	m := cl.GenerativeModel(modelName)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.ResponseFormat != nil {
		m.GenerationConfig.ResponseMIMEType = "application/json"
	}

	var system []genai.Part
	var parts []genai.Part
	for _, msg := range req.Messages {
		if msg.Role == RoleSystem {
			system = append(system, genai.Text(msg.Content))
			continue
		}
		parts = append(parts, genai.Text(msg.Content))
	}
	if len(system) > 0 {
		m.SystemInstruction = &genai.Content{Parts: system}
	}
	if len(parts) == 0 {
		return result.fail(start, "invalid_request", fmt.Errorf("gemini: no user content"))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return result.fail(start, "context_cancelled", err)
	}
	result.QueueTime = time.Since(start)

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return result.fail(start, "http_error", fmt.Errorf("gemini generate: %w", err))
	}

	text := firstText(resp)
	if text == "" {
		return result.fail(start, "empty_response", fmt.Errorf("gemini: %w", ErrEmptyResponse))
	}

	result.Success = true
	result.Content = text
	if u := resp.UsageMetadata; u != nil {
		result.PromptTokens = int(u.PromptTokenCount)
		result.CompletionTokens = int(u.CandidatesTokenCount)
		result.TotalTokens = int(u.TotalTokenCount)
	}
	result.TotalTime = time.Since(start)
	result.ExecutionTime = result.TotalTime - result.QueueTime

	result.applyStructuredOutput(req.ResponseFormat)
	return result, nil
}

// Close releases the SDK client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }

var _ LLMClient = (*GeminiClient)(nil)
