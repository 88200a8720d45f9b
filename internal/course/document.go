// Package course defines the generated course document, its word counting,
// and the predicates used to decide whether a candidate is long enough.
package course

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackzampolin/courseforge/internal/jsonutil"
)

// ErrUnparseable is returned when model output cannot be decoded into a Document.
var ErrUnparseable = errors.New("unparseable course document")

// Document is a generated course.
type Document struct {
	Title    string    `json:"course_title"`
	Sections []Section `json:"sections"`
	Choices  []Choice  `json:"choices"`
}

// Section is one ordered unit of the course.
type Section struct {
	Heading    string      `json:"heading"`
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Choice is one of the two follow-up directions offered after a course.
// Key "1" is closely related to the current topic, key "2" diverges from it.
type Choice struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Paragraph holds one paragraph value. Models occasionally emit a non-string
// value (an object, a list, null); those are kept verbatim so re-serialization
// loses nothing, and are skipped by word counting.
type Paragraph struct {
	text string
	raw  json.RawMessage
}

// Text returns a prose paragraph.
func Text(s string) Paragraph {
	return Paragraph{text: s}
}

// Prose returns the paragraph text and whether the paragraph is a string.
func (p Paragraph) Prose() (string, bool) {
	if p.raw != nil {
		return "", false
	}
	return p.text, true
}

// MarshalJSON implements json.Marshaler.
func (p Paragraph) MarshalJSON() ([]byte, error) {
	if p.raw != nil {
		return p.raw, nil
	}
	return marshal(p.text)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Paragraph) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Paragraph{text: s}
		return nil
	}

	var compacted bytes.Buffer
	if err := json.Compact(&compacted, data); err != nil {
		return err
	}
	*p = Paragraph{raw: compacted.Bytes()}
	return nil
}

// Parse decodes model output into a Document. Code fences and prose around
// the JSON object are tolerated; anything that is not a JSON object with
// correctly typed fields is ErrUnparseable.
func Parse(content string) (*Document, error) {
	raw, err := jsonutil.Extract(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrUnparseable)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return &doc, nil
}

// JSON serializes the document compactly without HTML escaping, so non-ASCII
// text and angle brackets appear verbatim.
func (d *Document) JSON() ([]byte, error) {
	return marshal(d)
}

// String returns the serialized document, or "" if it cannot be serialized.
func (d *Document) String() string {
	b, err := d.JSON()
	if err != nil {
		return ""
	}
	return string(b)
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{Title: d.Title}
	if d.Sections != nil {
		out.Sections = make([]Section, len(d.Sections))
		for i, s := range d.Sections {
			out.Sections[i] = Section{Heading: s.Heading}
			if s.Paragraphs != nil {
				out.Sections[i].Paragraphs = make([]Paragraph, len(s.Paragraphs))
				for j, p := range s.Paragraphs {
					cp := Paragraph{text: p.text}
					if p.raw != nil {
						cp.raw = append(json.RawMessage(nil), p.raw...)
					}
					out.Sections[i].Paragraphs[j] = cp
				}
			}
		}
	}
	if d.Choices != nil {
		out.Choices = append([]Choice(nil), d.Choices...)
	}
	return out
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
