package generation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jackzampolin/courseforge/internal/course"
	"github.com/jackzampolin/courseforge/internal/metrics"
	"github.com/jackzampolin/courseforge/internal/prompts"
	"github.com/jackzampolin/courseforge/internal/prompts/classify"
	"github.com/jackzampolin/courseforge/internal/prompts/expand"
	"github.com/jackzampolin/courseforge/internal/prompts/generate"
	"github.com/jackzampolin/courseforge/internal/providers"
)

// LLMSource looks up LLM clients by name. *providers.Registry satisfies it.
type LLMSource interface {
	GetLLM(name string) (providers.LLMClient, error)
}

// CallRecorder receives every model call that produced a result, failed
// calls included. *metrics.Recorder satisfies it.
type CallRecorder interface {
	RecordLLMCall(opts metrics.RecordOpts, result *providers.ChatResult)
}

// LLMClientConfig configures an LLMClient.
type LLMClientConfig struct {
	Source   LLMSource
	Provider string
	Prompts  *prompts.Resolver
	Settings Settings
	Recorder CallRecorder // optional
	Logger   *slog.Logger
}

// LLMClient implements Client on top of a chat-completion provider. The
// provider is looked up on every call so registry reloads take effect.
type LLMClient struct {
	source   LLMSource
	provider string
	prompts  *prompts.Resolver
	settings Settings
	recorder CallRecorder
	logger   *slog.Logger

	// courseFormat is sent with generate and expand calls: the course
	// schema in strict mode, plain JSON mode otherwise.
	courseFormat *providers.ResponseFormat
}

// NewLLMClient creates an LLM-backed generation client.
func NewLLMClient(cfg LLMClientConfig) (*LLMClient, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("LLM source is required")
	}
	if cfg.Provider == "" {
		return nil, fmt.Errorf("provider name is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Prompts == nil {
		cfg.Prompts = NewPromptResolver(cfg.Logger)
	}

	courseFormat := providers.JSONObject()
	if cfg.Settings.StrictStructure {
		rf, err := providers.JSONSchemaFormat("course", cfg.Settings.Structure.Schema(), false)
		if err != nil {
			return nil, err
		}
		courseFormat = rf
	}

	return &LLMClient{
		source:       cfg.Source,
		provider:     cfg.Provider,
		prompts:      cfg.Prompts,
		settings:     cfg.Settings,
		recorder:     cfg.Recorder,
		logger:       cfg.Logger,
		courseFormat: courseFormat,
	}, nil
}

// Classify implements Client.
func (c *LLMClient) Classify(ctx context.Context, text string) (string, error) {
	system, err := c.prompts.Render(classify.PromptKey, c.settings.promptData())
	if err != nil {
		return "", err
	}
	return c.chat(ctx, "classify", classify.PromptKey, system, text, c.settings.Classify, providers.JSONObject())
}

// GenerateFresh implements Client.
func (c *LLMClient) GenerateFresh(ctx context.Context, topic string) (string, error) {
	system, err := c.prompts.Render(generate.PromptKey, c.settings.promptData())
	if err != nil {
		return "", err
	}
	return c.chat(ctx, "generate", generate.PromptKey, system, topic, c.settings.Generate, c.courseFormat)
}

// Expand implements Client.
func (c *LLMClient) Expand(ctx context.Context, req ExpandRequest) (string, error) {
	data := c.settings.promptData()
	if req.TargetWords > 0 {
		data.TargetWords = req.TargetWords
	}
	data.DocumentJSON = req.DocumentJSON
	data.Issues = req.Issues
	if req.Targeted() {
		data.Focus = course.FormatPositions(req.Focus)
	}

	system, err := c.prompts.Render(expand.SystemPromptKey, data)
	if err != nil {
		return "", err
	}
	user, err := c.prompts.Render(expand.UserPromptKey, data)
	if err != nil {
		return "", err
	}
	return c.chat(ctx, "expand", expand.SystemPromptKey, system, user, c.settings.Expand, c.courseFormat)
}

func (c *LLMClient) chat(ctx context.Context, call, promptKey, system, user string, params CallSettings, format *providers.ResponseFormat) (string, error) {
	llm, err := c.source.GetLLM(c.provider)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoProvider, c.provider)
	}

	req := &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: system},
			{Role: providers.RoleUser, Content: user},
		},
		Model:          c.settings.Model,
		Temperature:    params.Temperature,
		MaxTokens:      params.MaxTokens,
		ResponseFormat: format,
		RequestID:      uuid.New().String(),
	}

	result, err := llm.Chat(ctx, req)
	c.record(call, promptKey, result)
	if err != nil {
		return "", fmt.Errorf("%s call to %s failed: %w", call, llm.Name(), err)
	}

	c.logger.Debug("model call complete",
		"call", call,
		"provider", result.Provider,
		"model", result.ModelUsed,
		"request_id", result.RequestID,
		"tokens", result.TotalTokens,
		"duration", result.TotalTime,
	)
	if result.ErrorType != "" {
		c.logger.Debug("model output failed structured checks",
			"call", call,
			"error_type", result.ErrorType,
			"error", result.ErrorMessage,
		)
	}
	return result.Content, nil
}

func (c *LLMClient) record(call, promptKey string, result *providers.ChatResult) {
	if c.recorder == nil || result == nil {
		return
	}
	opts := metrics.RecordOpts{Call: call, PromptKey: promptKey}
	if resolved, err := c.prompts.Resolve(promptKey); err == nil {
		opts.PromptHash = resolved.Hash
	}
	c.recorder.RecordLLMCall(opts, result)
}

var _ Client = (*LLMClient)(nil)
