// Package testutil holds fixtures and helpers shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jackzampolin/courseforge/internal/course"
)

// Words returns a prose string of exactly n words.
func Words(n int) string {
	if n <= 0 {
		return ""
	}
	vocab := []string{"qubit", "superposition", "entanglement", "gate", "circuit", "measurement", "decoherence", "amplitude"}
	words := make([]string, n)
	for i := range words {
		words[i] = vocab[i%len(vocab)]
	}
	return strings.Join(words, " ") + "."
}

// Document builds a document with the given word count for every paragraph,
// one inner slice per section.
func Document(counts ...[]int) *course.Document {
	doc := &course.Document{
		Title: "Introduction to Quantum Computing",
		Choices: []course.Choice{
			{Key: "1", Text: "Quantum error correction"},
			{Key: "2", Text: "Quantum cryptography"},
		},
	}
	for si, section := range counts {
		s := course.Section{Heading: fmt.Sprintf("Section %d", si+1)}
		for _, n := range section {
			s.Paragraphs = append(s.Paragraphs, course.Text(Words(n)))
		}
		doc.Sections = append(doc.Sections, s)
	}
	return doc
}

// UniformDocument builds sections x paragraphs paragraphs of words words each.
func UniformDocument(sections, paragraphs, words int) *course.Document {
	counts := make([][]int, sections)
	for i := range counts {
		counts[i] = make([]int, paragraphs)
		for j := range counts[i] {
			counts[i][j] = words
		}
	}
	return Document(counts...)
}

// MustJSON serializes doc or fails the test.
func MustJSON(t testing.TB, doc *course.Document) string {
	t.Helper()
	b, err := doc.JSON()
	if err != nil {
		t.Fatalf("failed to serialize document: %v", err)
	}
	return string(b)
}
