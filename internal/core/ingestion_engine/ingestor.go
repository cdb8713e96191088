package ingestion_engine

import "context"

type Ingestor interface {
	Start(ctx context.Context, numWorkers int)
	Enqueue(ctx context.Context, textbookID int64) error
	ProcessOne(ctx context.Context, textbookID int64) error
}

var _ Ingestor = (*TextbookIngestor)(nil)
