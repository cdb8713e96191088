package llm

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnconfiguredFailsExplicitly(t *testing.T) {
	_, err := Unconfigured{}.Generate(context.Background(), "sys", "user")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = Unconfigured{}.EmbedTexts(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestConstructorsRequireKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := NewGeminiLLM(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = NewGeminiEmbedder(context.Background(), " ", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestReplyText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: genai.NewUserContent(genai.Text("Plants "), genai.Text("make food.")),
	}}}
	text, err := replyText(resp)
	require.NoError(t, err)
	assert.Equal(t, "Plants make food.", text)

	_, err = replyText(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = replyText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: genai.NewUserContent(genai.Text("  ")),
	}}})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = replyText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		FinishReason: genai.FinishReasonSafety,
	}}})
	assert.ErrorIs(t, err, ErrBlocked)

	_, err = replyText(&genai.GenerateContentResponse{
		PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety},
	})
	assert.ErrorIs(t, err, ErrBlocked)
}
