package core

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DocumentExtractor defines the interface for extracting text from documents.
type DocumentExtractor interface {
	// ExtractText runs extraction inside g and returns a channel of text fragments.
	// The contentType hint helps the extractor choose the right parsing strategy.
	ExtractText(ctx context.Context, g *errgroup.Group, data []byte, contentType string) (<-chan string, error)
}
