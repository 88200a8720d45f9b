package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr error
	}{
		{name: "plain object", content: `{"a":1}`, want: `{"a":1}`},
		{name: "surrounding whitespace", content: "\n  {\"a\":1}  \n", want: `{"a":1}`},
		{name: "fenced with language", content: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "fenced without language", content: "```\n[1,2]\n```", want: `[1,2]`},
		{name: "prose wrapper", content: `Here you go: {"a":{"b":2}} hope it helps`, want: `{"a":{"b":2}}`},
		{name: "array before object", content: `list: [{"a":1}] done`, want: `[{"a":1}]`},
		{name: "number formatting kept", content: `{"n":1.50}`, want: `{"n":1.50}`},
		{name: "empty", content: "   ", wantErr: ErrEmpty},
		{name: "no json", content: "no braces at all", wantErr: ErrNoJSON},
		{name: "broken json", content: `{"a":`, wantErr: ErrNoJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.content)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	assert.Empty(t, StripCodeFences(`{"a":1}`), "unfenced content")
	assert.Equal(t, "{}", StripCodeFences("```json\n{}\n```"))
	assert.Equal(t, "{}", StripCodeFences("```json\n{}"), "missing trailing fence")
}
