package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultGenModel   = "gemini-1.5-flash"
	defaultEmbedModel = "text-embedding-004"
)

// dial opens a Gemini client for apiKey.
func dial(ctx context.Context, apiKey string) (*genai.Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNotConfigured
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return cl, nil
}

func orDefault(name, def string) string {
	if name == "" {
		return def
	}
	return name
}
