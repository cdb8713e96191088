package llm

import (
	"context"
	"errors"

	"github.com/markdave123-py/EduAI/internal/core"
)

// ErrNotConfigured is returned by Unconfigured for every call.
var ErrNotConfigured = errors.New("AI provider not configured: set GEMINI_API_KEY")

// Unconfigured stands in for the Gemini clients when no API key is set so
// the server can start and report AI features as unavailable.
type Unconfigured struct{}

var (
	_ core.LLMProvider       = Unconfigured{}
	_ core.EmbeddingProvider = Unconfigured{}
)

func (Unconfigured) Generate(context.Context, string, string) (string, error) {
	return "", ErrNotConfigured
}

func (Unconfigured) EmbedTexts(context.Context, []string) ([][]float32, error) {
	return nil, ErrNotConfigured
}
