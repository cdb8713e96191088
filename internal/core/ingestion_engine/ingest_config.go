package ingestion_engine

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/markdave123-py/EduAI/internal/core"
)

// IngestConfig tunes the streaming pipeline.
//
// TargetTokens:  approximate tokens per chunk (e.g., 500).
// OverlapTokens: token overlap between consecutive chunks for context bleed (e.g., 50).
// BatchSize:     how many chunks to embed/write in one batch (e.g., 32).
// QueueSize:     capacity of the job queue.
// EmbedRate:     embedding requests per second, 0 disables the limit.
// JobTimeout:    upper bound for one textbook.
type IngestConfig struct {
	TargetTokens  int
	OverlapTokens int
	BatchSize     int
	QueueSize     int
	EmbedRate     int
	JobTimeout    time.Duration
}

// DefaultIngestConfig returns the settings used by the server.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		TargetTokens:  400,
		OverlapTokens: 40,
		BatchSize:     16,
		QueueSize:     64,
		EmbedRate:     20,
		JobTimeout:    10 * time.Minute,
	}
}

// chunk is the internal representation passed through the pipeline.
//
// Pos:      stable, zero-based position of the chunk inside the textbook.
// Text:     chunk content (built from one or more fragments).
// TokenCnt: approximate token count (used for batching and overlap math).
type chunk struct {
	Pos      int
	Text     string
	TokenCnt int
}

// TextbookIngestor orchestrates the background extraction pipeline:
//
// store:     textbook records and chunk persistence.
// obj:       optional object storage for the downloaded PDFs.
// fetcher:   downloads the textbook PDF.
// embedder:  embedding provider.
// extractor: PDF to text fragments.
// limiter:   throttles outbound embedding calls.
// jobs:      in-memory queue of textbook ids to process.
// inflight:  ids that are queued or being processed.
type TextbookIngestor struct {
	store     core.DomainStore
	obj       core.ObjectClient
	fetcher   Fetcher
	embedder  core.EmbeddingProvider
	extractor core.DocumentExtractor
	cfg       IngestConfig
	limiter   *rate.Limiter
	logger    *zap.Logger
	jobs      chan int64

	mu       sync.Mutex
	inflight map[int64]struct{}
}

// DocconvExtractor implements core.DocumentExtractor using sajari/docconv.
type DocconvExtractor struct {
	useReadability bool
}
