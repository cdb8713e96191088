package ingestion_engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"code.sajari.com/docconv"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/EduAI/internal/core"
)

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)

// ErrNoText is returned when a document yields no extractable text.
var ErrNoText = errors.New("no text extracted")

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

// ExtractText converts data with docconv inside g and streams the non-empty
// lines of the result. Conversion failures fail the group.
func (e *DocconvExtractor) ExtractText(ctx context.Context, g *errgroup.Group, data []byte, contentType string) (<-chan string, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("docconv: empty document")
	}
	out := make(chan string, 32)

	g.Go(func() error {
		defer close(out)

		res, err := docconv.Convert(bytes.NewReader(data), contentType, e.useReadability)
		if err != nil {
			return fmt.Errorf("docconv: extraction failed for content type %q: %w", contentType, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.TrimSpace(res.Body) == "" {
			return ErrNoText
		}
		return emitLines(ctx, res.Body, out)
	})

	return out, nil
}

// emitLines sends each trimmed non-empty line of text to out.
func emitLines(ctx context.Context, text string, out chan<- string) error {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		select {
		case out <- line:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
