// Package expansion drives a candidate course document through validation and
// bounded repair until it reaches a terminal state.
package expansion

import (
	"errors"
	"fmt"

	"github.com/jackzampolin/courseforge/internal/course"
)

// ErrInvalidTransition is returned by step for an event the current state
// does not accept.
var ErrInvalidTransition = errors.New("invalid state transition")

// State is a controller state.
type State int

const (
	StateInitial State = iota
	StateValidating
	StateRepairing
	StateSucceeded
	StateExhausted
	StateMalformedStop
	StateFailed
)

var stateNames = map[State]string{
	StateInitial:       "INITIAL",
	StateValidating:    "VALIDATING",
	StateRepairing:     "REPAIRING",
	StateSucceeded:     "SUCCEEDED",
	StateExhausted:     "EXHAUSTED",
	StateMalformedStop: "MALFORMED_STOP",
	StateFailed:        "FAILED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText renders the state name in JSON and YAML output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transitions leave s.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateExhausted, StateMalformedStop, StateFailed:
		return true
	}
	return false
}

// Strategy is the kind of repair requested.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyTargeted
	StrategyGeneral
)

func (s Strategy) String() string {
	switch s {
	case StrategyTargeted:
		return "targeted"
	case StrategyGeneral:
		return "general"
	default:
		return "none"
	}
}

// MarshalText renders the strategy name in JSON and YAML output.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// EventKind identifies an input to the state machine.
type EventKind int

const (
	// EventNone advances a state that needs no external input (VALIDATING).
	EventNone EventKind = iota
	// EventGenerated delivers the freshly generated candidate.
	EventGenerated
	// EventRepaired delivers a parsed repair response.
	EventRepaired
	// EventRepairMalformed reports a repair response that did not parse.
	EventRepairMalformed
	// EventRepairFailed reports a transport error from the repair call.
	EventRepairFailed
)

// Event is an input to step.
type Event struct {
	Kind     EventKind
	Document *course.Document
	Err      error
}

// Plan is the repair chosen when entering REPAIRING.
type Plan struct {
	Strategy Strategy
	Focus    []course.ParagraphPosition
	Issues   []string
}

// Assessment is the outcome of one validation pass.
type Assessment struct {
	Words  int
	Short  []course.ParagraphPosition
	Issues []string
}

// Sufficient reports whether the document passed every enabled check.
func (a Assessment) Sufficient(minWords int) bool {
	return a.Words >= minWords && len(a.Issues) == 0
}

// Policy holds the fixed parameters of a run.
type Policy struct {
	Thresholds course.Thresholds
	MaxRetries int

	// Structure enables strict structural validation when non-nil.
	Structure *course.StructureValidator
}

// Assess validates doc under the policy.
func (p Policy) Assess(doc *course.Document) Assessment {
	a := Assessment{
		Words: course.Aggregate(doc),
		Short: p.Thresholds.ShortParagraphs(doc),
	}
	if p.Structure != nil {
		if err := p.Structure.Validate(doc); err != nil {
			var se *course.StructureError
			if errors.As(err, &se) {
				a.Issues = se.Violations
			} else {
				a.Issues = []string{err.Error()}
			}
		}
	}
	return a
}

// Machine is the explicit state record advanced by step.
type Machine struct {
	State      State
	Document   *course.Document
	Repairs    int
	Assessment Assessment
	Plan       Plan
	Err        error
}

// step returns the machine after applying ev. It performs no I/O.
func step(m Machine, ev Event, p Policy) (Machine, error) {
	switch m.State {
	case StateInitial:
		if ev.Kind != EventGenerated || ev.Document == nil {
			break
		}
		m.Document = ev.Document
		m.State = StateValidating
		return m, nil

	case StateValidating:
		if ev.Kind != EventNone {
			break
		}
		m.Assessment = p.Assess(m.Document)
		m.Plan = Plan{}
		switch {
		case m.Assessment.Sufficient(p.Thresholds.MinWords):
			m.State = StateSucceeded
		case m.Repairs >= p.MaxRetries:
			m.State = StateExhausted
		default:
			m.Plan = choosePlan(m.Assessment)
			m.State = StateRepairing
		}
		return m, nil

	case StateRepairing:
		switch ev.Kind {
		case EventRepaired:
			if ev.Document == nil {
				break
			}
			m.Repairs++
			m.Document = ev.Document
			m.State = StateValidating
			return m, nil
		case EventRepairMalformed:
			m.Repairs++
			m.State = StateMalformedStop
			return m, nil
		case EventRepairFailed:
			m.Repairs++
			m.Err = ev.Err
			m.State = StateFailed
			return m, nil
		}
	}

	return m, fmt.Errorf("%w: event %d in state %s", ErrInvalidTransition, ev.Kind, m.State)
}

// choosePlan prefers targeted repair whenever short paragraphs exist.
func choosePlan(a Assessment) Plan {
	if len(a.Short) > 0 {
		return Plan{Strategy: StrategyTargeted, Focus: a.Short, Issues: a.Issues}
	}
	return Plan{Strategy: StrategyGeneral, Issues: a.Issues}
}
