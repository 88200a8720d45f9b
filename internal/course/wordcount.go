package course

import (
	"fmt"
	"regexp"
	"strings"
)

// wordPattern matches maximal runs of word characters: Unicode letters and
// digits plus underscore.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// ParagraphPosition addresses one paragraph by zero-based section and
// paragraph index.
type ParagraphPosition struct {
	Section   int `json:"section"`
	Paragraph int `json:"paragraph"`
}

// String renders the position 1-indexed, as it appears in repair prompts.
func (p ParagraphPosition) String() string {
	return fmt.Sprintf("(section %d, paragraph %d)", p.Section+1, p.Paragraph+1)
}

// FormatPositions joins positions for a prompt, or returns "none".
func FormatPositions(positions []ParagraphPosition) string {
	if len(positions) == 0 {
		return "none"
	}
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// ParagraphCount is the word count of one prose paragraph.
type ParagraphCount struct {
	Position ParagraphPosition `json:"position"`
	Words    int               `json:"words"`
}

// Count returns the number of words in text.
func Count(text string) int {
	return len(wordPattern.FindAllStringIndex(text, -1))
}

// Aggregate sums Count over every prose paragraph of the document.
func Aggregate(doc *Document) int {
	total := 0
	for _, pc := range PerParagraph(doc) {
		total += pc.Words
	}
	return total
}

// PerParagraph returns one count per prose paragraph in (section, paragraph)
// order. Non-string paragraphs produce no entry.
func PerParagraph(doc *Document) []ParagraphCount {
	if doc == nil {
		return nil
	}
	var counts []ParagraphCount
	for si, section := range doc.Sections {
		for pi, p := range section.Paragraphs {
			text, ok := p.Prose()
			if !ok {
				continue
			}
			counts = append(counts, ParagraphCount{
				Position: ParagraphPosition{Section: si, Paragraph: pi},
				Words:    Count(text),
			})
		}
	}
	return counts
}
