package course

const (
	// DefaultMinWords is the aggregate word floor for a complete course.
	DefaultMinWords = 900
	// DefaultMinParagraphWords is the per-paragraph word floor.
	DefaultMinParagraphWords = 100
)

// Thresholds are the length floors a document is validated against.
type Thresholds struct {
	MinWords          int `json:"min_words" yaml:"min_words"`
	MinParagraphWords int `json:"min_paragraph_words" yaml:"min_paragraph_words"`
}

// DefaultThresholds returns the standard 900/100 floors.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinWords:          DefaultMinWords,
		MinParagraphWords: DefaultMinParagraphWords,
	}
}

// IsLengthSufficient reports whether the aggregate word count meets MinWords.
func (t Thresholds) IsLengthSufficient(doc *Document) bool {
	return Aggregate(doc) >= t.MinWords
}

// ShortParagraphs returns the positions of prose paragraphs below
// MinParagraphWords, in document order.
func (t Thresholds) ShortParagraphs(doc *Document) []ParagraphPosition {
	var short []ParagraphPosition
	for _, pc := range PerParagraph(doc) {
		if pc.Words < t.MinParagraphWords {
			short = append(short, pc.Position)
		}
	}
	return short
}

// IsLengthSufficient applies the default thresholds.
func IsLengthSufficient(doc *Document) bool {
	return DefaultThresholds().IsLengthSufficient(doc)
}

// ShortParagraphs applies the default thresholds.
func ShortParagraphs(doc *Document) []ParagraphPosition {
	return DefaultThresholds().ShortParagraphs(doc)
}
