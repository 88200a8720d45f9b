package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVariables(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"none", "plain text", nil},
		{"simple", "Hello {{.Name}}, you have {{.Count}} items", []string{"Count", "Name"}},
		{"spaced", "{{ .Name }} and {{- .Other -}}", []string{"Name", "Other"}},
		{"dedup", "{{.A}} {{.A}}", []string{"A"}},
		{"control", "{{if .Focus -}}x{{- range .Issues}}{{.}}{{end}}{{end}}", []string{"Focus", "Issues"}},
		{"nested", "{{.Doc.Title}}", []string{"Doc.Title"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractVariables(tt.text))
		})
	}
}

func TestHashText(t *testing.T) {
	a := HashText("hello")
	assert.Equal(t, a, HashText("hello"), "hash should be stable")
	assert.NotEqual(t, a, HashText("hello!"))
	assert.Len(t, a, 64, "hex sha256")
}

func newTestResolver() *Resolver {
	r := NewResolver(nil)
	r.Register(EmbeddedPrompt{Key: "test.greet", Text: "Hello {{.Name}}", Description: "greeting"})
	r.Register(EmbeddedPrompt{Key: "test.bye", Text: "Bye {{.Name}}"})
	return r
}

func TestResolver_ResolveEmbedded(t *testing.T) {
	r := newTestResolver()

	p, err := r.Resolve("test.greet")
	require.NoError(t, err)
	assert.False(t, p.IsOverride)
	assert.Equal(t, "Hello {{.Name}}", p.Text)
	assert.Equal(t, "greeting", p.Description)
	assert.Equal(t, []string{"Name"}, p.Variables)
	assert.Equal(t, HashText(p.Text), p.Hash)

	_, err = r.Resolve("missing")
	assert.Error(t, err)
}

func TestResolver_Render(t *testing.T) {
	r := newTestResolver()

	out, err := r.Render("test.greet", map[string]string{"Name": "qubit"})
	require.NoError(t, err)
	assert.Equal(t, "Hello qubit", out)

	_, err = r.Render("test.greet", map[string]string{})
	assert.Error(t, err, "missing key")
	_, err = r.Render("missing", nil)
	assert.Error(t, err, "unknown prompt")
}

func TestResolver_Overrides(t *testing.T) {
	r := newTestResolver()

	// Render once so the embedded template is cached.
	_, err := r.Render("test.greet", map[string]string{"Name": "x"})
	require.NoError(t, err)

	require.NoError(t, r.SetOverrides(map[string]string{"test.greet": "Hi {{.Name}}!"}))

	p, err := r.Resolve("test.greet")
	require.NoError(t, err)
	assert.True(t, p.IsOverride)
	assert.Equal(t, "Hi {{.Name}}!", p.Text)

	out, err := r.Render("test.greet", map[string]string{"Name": "x"})
	require.NoError(t, err)
	assert.Equal(t, "Hi x!", out)

	embedded, ok := r.GetEmbedded("test.greet")
	require.True(t, ok)
	assert.Equal(t, "Hello {{.Name}}", embedded.Text, "embedded default should be untouched")

	require.NoError(t, r.SetOverrides(nil))
	out, err = r.Render("test.greet", map[string]string{"Name": "x"})
	require.NoError(t, err)
	assert.Equal(t, "Hello x", out, "clearing overrides should restore default")
}

func TestResolver_SetOverridesRejects(t *testing.T) {
	r := newTestResolver()

	assert.Error(t, r.SetOverrides(map[string]string{"unknown": "x"}), "unknown key")
	assert.Error(t, r.SetOverrides(map[string]string{"test.greet": "{{.Name"}), "parse error")

	p, err := r.Resolve("test.greet")
	require.NoError(t, err)
	assert.False(t, p.IsOverride, "failed SetOverrides must not apply partial state")
}

func TestResolver_All(t *testing.T) {
	all := newTestResolver().All()
	require.Len(t, all, 2)
	assert.Equal(t, "test.bye", all[0].Key)
	assert.Equal(t, "test.greet", all[1].Key)
	assert.Contains(t, all[1].Text, "Hello")
}
