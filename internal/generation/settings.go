package generation

import "github.com/jackzampolin/courseforge/internal/course"

// Defaults for the Quantum Computing deployment.
const (
	DefaultDomain         = "Quantum Computing"
	DefaultDomainExamples = "topics like qubits, superposition, entanglement, quantum gates, quantum algorithms (Shor, Grover), quantum error correction, quantum hardware, etc."
	DefaultClassifierKey  = "is_qc"

	DefaultMaxWords          = 1200
	DefaultMaxParagraphWords = 140
	DefaultTargetWords       = 1100
	DefaultMaxRetries        = 2
)

// CallSettings holds sampling parameters for one request shape.
type CallSettings struct {
	Temperature float64 `mapstructure:"temperature" yaml:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens" json:"max_tokens"`
}

// Settings parameterise prompts, validation thresholds and sampling.
type Settings struct {
	Domain         string
	DomainExamples string
	ClassifierKey  string

	// Model overrides the provider's default model when set.
	Model string

	Thresholds        course.Thresholds
	Structure         course.Structure
	MaxWords          int
	MaxParagraphWords int
	TargetWords       int
	MaxRetries        int
	StrictStructure   bool

	Classify CallSettings
	Generate CallSettings
	Expand   CallSettings
}

// DefaultSettings returns the settings of the reference deployment.
func DefaultSettings() Settings {
	return Settings{
		Domain:            DefaultDomain,
		DomainExamples:    DefaultDomainExamples,
		ClassifierKey:     DefaultClassifierKey,
		Thresholds:        course.DefaultThresholds(),
		Structure:         course.DefaultStructure(),
		MaxWords:          DefaultMaxWords,
		MaxParagraphWords: DefaultMaxParagraphWords,
		TargetWords:       DefaultTargetWords,
		MaxRetries:        DefaultMaxRetries,
		Classify:          CallSettings{Temperature: 0, MaxTokens: 100},
		Generate:          CallSettings{Temperature: 0.3, MaxTokens: 3400},
		Expand:            CallSettings{Temperature: 0.25, MaxTokens: 3600},
	}
}

// promptData is the template data shared by every prompt.
type promptData struct {
	Domain               string
	DomainExamples       string
	ClassifierKey        string
	MinWords             int
	MaxWords             int
	MinSections          int
	MaxSections          int
	ParagraphsPerSection int
	MinParagraphWords    int
	MaxParagraphWords    int
	TargetWords          int

	// Repair-only fields.
	DocumentJSON string
	Focus        string
	Issues       []string
}

func (s Settings) promptData() promptData {
	return promptData{
		Domain:               s.Domain,
		DomainExamples:       s.DomainExamples,
		ClassifierKey:        s.ClassifierKey,
		MinWords:             s.Thresholds.MinWords,
		MaxWords:             s.MaxWords,
		MinSections:          s.Structure.MinSections,
		MaxSections:          s.Structure.MaxSections,
		ParagraphsPerSection: s.Structure.ParagraphsPerSection,
		MinParagraphWords:    s.Thresholds.MinParagraphWords,
		MaxParagraphWords:    s.MaxParagraphWords,
		TargetWords:          s.TargetWords,
	}
}
