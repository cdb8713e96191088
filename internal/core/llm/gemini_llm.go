package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/markdave123-py/EduAI/internal/core"
)

var (
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("model returned no content")
	// ErrBlocked is returned when the prompt or the reply was withheld by
	// the provider's safety filters.
	ErrBlocked = errors.New("model response blocked")
)

const (
	temperature     = 0.7
	maxOutputTokens = 4096
)

// GeminiLLM generates lesson material and answers with one Gemini model.
type GeminiLLM struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

var _ core.LLMProvider = (*GeminiLLM)(nil)

func NewGeminiLLM(ctx context.Context, apiKey, modelName string) (*GeminiLLM, error) {
	cl, err := dial(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	model := cl.GenerativeModel(orDefault(modelName, defaultGenModel))
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(maxOutputTokens)
	return &GeminiLLM{client: cl, model: model}, nil
}

func (g *GeminiLLM) Close() error {
	return g.client.Close()
}

// Generate sends userPrompt under systemPrompt and returns the reply text.
func (g *GeminiLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	// shallow copy so concurrent calls can use different instructions
	m := *g.model
	m.SystemInstruction = nil
	if systemPrompt != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))
	}

	resp, err := m.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return replyText(resp)
}

// replyText joins the text parts of the first candidate.
func replyText(resp *genai.GenerateContentResponse) (string, error) {
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("%w: prompt %v", ErrBlocked, fb.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: reply %v", ErrBlocked, cand.FinishReason)
	}
	if cand.Content == nil {
		return "", ErrEmptyResponse
	}

	var parts []string
	for _, p := range cand.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			parts = append(parts, string(t))
		}
	}
	text := strings.Join(parts, "")
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
