package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"

	"github.com/markdave123-py/EduAI/internal/core"
)

// maxBatch is the most texts the batch embedding endpoint accepts per call.
const maxBatch = 100

type GeminiEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

var _ core.EmbeddingProvider = (*GeminiEmbedder)(nil)

func NewGeminiEmbedder(ctx context.Context, apiKey, modelName string) (*GeminiEmbedder, error) {
	cl, err := dial(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return &GeminiEmbedder{client: cl, model: cl.EmbeddingModel(orDefault(modelName, defaultEmbedModel))}, nil
}

func (g *GeminiEmbedder) Close() error {
	return g.client.Close()
}

// EmbedTexts embeds texts in requests of at most maxBatch items. The result
// is index aligned with texts.
func (g *GeminiEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))
		vecs, err := g.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("gemini embed texts %d-%d: %w", start, end-1, err)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (g *GeminiEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	batch := g.model.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}
	resp, err := g.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}
	vecs := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("empty embedding at %d", i)
		}
		vecs[i] = e.Values
	}
	return vecs, nil
}
