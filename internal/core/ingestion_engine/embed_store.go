package ingestion_engine

import (
	"context"
	"fmt"

	"github.com/markdave123-py/EduAI/internal/models"
)

// embedAndPersist consumes chunks, embeds them in batches, and writes them
// to the store. It returns the number of chunks written.
//
// textbookID: current textbook.
// in:         chunk stream from streamChunk.
// batchSize:  number of chunks to embed/write per batch (limits memory).
func (i *TextbookIngestor) embedAndPersist(
	ctx context.Context,
	textbookID int64,
	in <-chan chunk,
	batchSize int,
) (int, error) {
	if batchSize <= 0 {
		batchSize = 1
	}
	batch := make([]chunk, 0, batchSize)
	written := 0

	flush := func(items []chunk) error {
		if len(items) == 0 {
			return nil
		}

		texts := make([]string, len(items))
		for idx := range items {
			texts[idx] = items[idx].Text
		}

		if i.limiter != nil {
			if err := i.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("embed rate limit: %w", err)
			}
		}
		vecs, err := i.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed: %w", err)
		}
		if len(vecs) != len(items) {
			return fmt.Errorf("embed size mismatch: got %d want %d", len(vecs), len(items))
		}

		rows := make([]models.TextbookChunk, len(items))
		for k := range items {
			rows[k] = models.TextbookChunk{
				TextbookID: textbookID,
				Text:       items[k].Text,
				Embedding:  vecs[k],
				Position:   items[k].Pos,
				TokenCount: items[k].TokenCnt,
			}
		}
		if err := i.store.InsertTextbookChunks(ctx, rows); err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
		written += len(rows)
		return nil
	}

	for c := range in {
		batch = append(batch, c)
		if len(batch) == batchSize {
			if err := flush(batch); err != nil {
				return written, err
			}
			batch = batch[:0]
		}
	}
	if err := flush(batch); err != nil {
		return written, err
	}
	return written, nil
}
