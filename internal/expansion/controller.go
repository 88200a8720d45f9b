package expansion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/courseforge/internal/course"
	"github.com/jackzampolin/courseforge/internal/generation"
)

// ErrNoDocument is returned when Run is given no candidate.
var ErrNoDocument = errors.New("no candidate document")

// Expander issues repair calls.
type Expander interface {
	Expand(ctx context.Context, req generation.ExpandRequest) (string, error)
}

// Config configures a Controller.
type Config struct {
	Expander    Expander
	Thresholds course.Thresholds

	// MaxRetries bounds the repair rounds. Zero uses
	// generation.DefaultMaxRetries and a negative value disables repair.
	MaxRetries int

	TargetWords int

	// Structure enables strict structural validation when non-nil.
	Structure *course.StructureValidator

	Logger *slog.Logger
}

// Controller runs the validate/repair loop for one candidate at a time. It
// holds no per-run state and is safe for concurrent use.
type Controller struct {
	expander    Expander
	policy      Policy
	targetWords int
	logger      *slog.Logger
}

// Attempt records one validation pass, or a repair response that did not
// parse (Document nil, Raw set).
type Attempt struct {
	Round    int                        `json:"round"`
	Document *course.Document           `json:"-"`
	Raw      string                     `json:"-"`
	Words    int                        `json:"words"`
	Short    []course.ParagraphPosition `json:"short,omitempty"`
	Issues   []string                   `json:"issues,omitempty"`
	Strategy Strategy                   `json:"strategy"`
}

// Result is the terminal outcome of Run.
type Result struct {
	State    State            `json:"state"`
	Document *course.Document `json:"-"`
	Repairs  int              `json:"repairs"`
	Attempts []Attempt        `json:"attempts"`
}

// Words returns the aggregate word count of the final document.
func (r *Result) Words() int {
	return course.Aggregate(r.Document)
}

// New creates a controller. Zero-valued thresholds, retries and target fall
// back to the defaults.
func New(cfg Config) (*Controller, error) {
	if cfg.Expander == nil {
		return nil, fmt.Errorf("expander is required")
	}
	switch {
	case cfg.MaxRetries == 0:
		cfg.MaxRetries = generation.DefaultMaxRetries
	case cfg.MaxRetries < 0:
		cfg.MaxRetries = 0
	}
	if cfg.Thresholds == (course.Thresholds{}) {
		cfg.Thresholds = course.DefaultThresholds()
	}
	if cfg.TargetWords <= 0 {
		cfg.TargetWords = generation.DefaultTargetWords
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Controller{
		expander: cfg.Expander,
		policy: Policy{
			Thresholds: cfg.Thresholds,
			MaxRetries: cfg.MaxRetries,
			Structure:  cfg.Structure,
		},
		targetWords: cfg.TargetWords,
		logger:      cfg.Logger,
	}, nil
}

// Run drives doc to a terminal state. EXHAUSTED and MALFORMED_STOP are
// returned without error and carry the best document so far. A transport
// error from a repair call ends in FAILED and is returned alongside the
// result.
func (c *Controller) Run(ctx context.Context, doc *course.Document) (*Result, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}

	m, err := step(Machine{State: StateInitial}, Event{Kind: EventGenerated, Document: doc}, c.policy)
	if err != nil {
		return nil, err
	}

	var attempts []Attempt
	for !m.State.Terminal() {
		var ev Event
		switch m.State {
		case StateValidating:
			ev = Event{Kind: EventNone}
		case StateRepairing:
			var raw string
			ev, raw = c.repair(ctx, m)
			if ev.Kind == EventRepairMalformed {
				attempts = append(attempts, Attempt{Round: m.Repairs + 1, Raw: raw})
			}
		}

		prev := m.State
		m, err = step(m, ev, c.policy)
		if err != nil {
			return nil, err
		}

		if prev == StateValidating {
			attempts = append(attempts, Attempt{
				Round:    m.Repairs,
				Document: m.Document,
				Words:    m.Assessment.Words,
				Short:    m.Assessment.Short,
				Issues:   m.Assessment.Issues,
				Strategy: m.Plan.Strategy,
			})
			c.logger.Info("validated course candidate",
				"round", m.Repairs,
				"state", m.State.String(),
				"words", m.Assessment.Words,
				"short_paragraphs", len(m.Assessment.Short),
				"issues", len(m.Assessment.Issues),
				"strategy", m.Plan.Strategy.String(),
			)
		}
	}

	result := &Result{
		State:    m.State,
		Document: m.Document,
		Repairs:  m.Repairs,
		Attempts: attempts,
	}
	if m.State == StateFailed {
		return result, fmt.Errorf("repair call %d failed: %w", m.Repairs, m.Err)
	}
	return result, nil
}

// repair issues the planned Expand call and converts its outcome to an event.
func (c *Controller) repair(ctx context.Context, m Machine) (Event, string) {
	body, err := m.Document.JSON()
	if err != nil {
		return Event{Kind: EventRepairFailed, Err: err}, ""
	}

	req := generation.ExpandRequest{
		DocumentJSON: string(body),
		TargetWords:  c.targetWords,
		Focus:        m.Plan.Focus,
		Issues:       m.Plan.Issues,
	}
	raw, err := c.expander.Expand(ctx, req)
	if err != nil {
		c.logger.Warn("repair call failed", "round", m.Repairs+1, "error", err)
		return Event{Kind: EventRepairFailed, Err: err}, ""
	}

	doc, err := course.Parse(raw)
	if err != nil {
		c.logger.Warn("repair response malformed, keeping previous document",
			"round", m.Repairs+1, "error", err)
		return Event{Kind: EventRepairMalformed, Err: err}, raw
	}
	return Event{Kind: EventRepaired, Document: doc}, ""
}
