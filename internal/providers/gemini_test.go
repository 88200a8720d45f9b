package providers

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiClientRequiresAPIKey(t *testing.T) {
	client := NewGeminiClient(GeminiConfig{})

	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "qubits"}},
	})
	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.False(t, result.Success)
	assert.Equal(t, "client_init", result.ErrorType)
	assert.Equal(t, GeminiName, client.Name())
}

func TestFirstText(t *testing.T) {
	assert.Empty(t, firstText(nil))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{&genai.Blob{MIMEType: "image/png"}, genai.Text(`{"is_qc":true}`)}}},
		},
	}
	assert.Equal(t, `{"is_qc":true}`, firstText(resp))
}
