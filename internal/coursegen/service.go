// Package coursegen sequences classification, generation and repair into the
// single request/response operation exposed over HTTP and the CLI.
package coursegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/courseforge/internal/course"
	"github.com/jackzampolin/courseforge/internal/expansion"
	"github.com/jackzampolin/courseforge/internal/generation"
)

// NotValidContent is the content returned for every rejected or failed request.
const NotValidContent = "Not Valid Content"

var (
	// ErrOutOfDomain means the request was blank or classified out of domain.
	ErrOutOfDomain = errors.New("request is out of domain")

	// ErrMalformedGeneration means the fresh generation did not parse.
	ErrMalformedGeneration = errors.New("generated course is malformed")
)

// Response is the wire response of the generate operation.
type Response struct {
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// Rejected reports whether the response carries the sentinel.
func (r Response) Rejected() bool {
	return r.Content == NotValidContent
}

// Outcome is a successful (possibly best-effort) generation.
type Outcome struct {
	Document *course.Document
	Result   *expansion.Result
}

// Config configures a Service.
type Config struct {
	Client   generation.Client
	Settings generation.Settings
	Logger   *slog.Logger
}

// Service runs course generation requests. It is safe for concurrent use.
type Service struct {
	client     generation.Client
	classifier *generation.Classifier
	controller *expansion.Controller
	logger     *slog.Logger
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("generation client is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var structure *course.StructureValidator
	if cfg.Settings.StrictStructure {
		v, err := course.NewStructureValidator(cfg.Settings.Structure)
		if err != nil {
			return nil, fmt.Errorf("failed to build structure validator: %w", err)
		}
		structure = v
	}

	// Settings carry a literal count, so max_retries: 0 means no repair.
	maxRetries := cfg.Settings.MaxRetries
	if maxRetries <= 0 {
		maxRetries = -1
	}

	controller, err := expansion.New(expansion.Config{
		Expander:    cfg.Client,
		Thresholds:  cfg.Settings.Thresholds,
		MaxRetries:  maxRetries,
		TargetWords: cfg.Settings.TargetWords,
		Structure:   structure,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		client:     cfg.Client,
		classifier: generation.NewClassifier(cfg.Client, cfg.Settings.ClassifierKey, cfg.Logger),
		controller: controller,
		logger:     cfg.Logger,
	}, nil
}

// Generate runs the full pipeline and never fails: every rejection or error
// becomes the NotValidContent sentinel, with Error set for unexpected failures.
func (s *Service) Generate(ctx context.Context, text string) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("course generation panicked", "panic", r)
			resp = Response{Content: NotValidContent, Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	outcome, err := s.Run(ctx, text)
	switch {
	case err == nil:
	case errors.Is(err, ErrOutOfDomain), errors.Is(err, ErrMalformedGeneration):
		return Response{Content: NotValidContent}
	default:
		s.logger.Error("course generation failed", "error", err)
		return Response{Content: NotValidContent, Error: err.Error()}
	}

	body, err := outcome.Document.JSON()
	if err != nil {
		return Response{Content: NotValidContent, Error: err.Error()}
	}
	return Response{Content: string(body)}
}

// Run executes the pipeline and reports failures as errors. Out-of-domain
// input returns ErrOutOfDomain, an unparseable fresh generation returns
// ErrMalformedGeneration.
func (s *Service) Run(ctx context.Context, text string) (*Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrOutOfDomain
	}

	inDomain, err := s.classifier.IsInDomain(ctx, text)
	if err != nil {
		return nil, err
	}
	s.logger.Info("classified course request", "in_domain", inDomain)
	if !inDomain {
		return nil, ErrOutOfDomain
	}

	raw, err := s.client.GenerateFresh(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	doc, err := course.Parse(raw)
	if err != nil {
		s.logger.Warn("fresh generation malformed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedGeneration, err)
	}

	result, err := s.controller.Run(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.logger.Info("course generation finished",
		"state", result.State.String(),
		"repairs", result.Repairs,
		"words", result.Words(),
	)
	return &Outcome{Document: result.Document, Result: result}, nil
}

// DeeperPrompt builds the follow-up request for going deeper on a course.
func DeeperPrompt(title string) string {
	return fmt.Sprintf("Go deeper on: %s. Focus on advanced concepts, technical detail, caveats, and state-of-the-art.", title)
}
