package ingestion_engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/markdave123-py/EduAI/internal/core"
	"github.com/markdave123-py/EduAI/internal/models"
)

var (
	// ErrQueueFull is returned by Enqueue when the job queue has no room.
	ErrQueueFull = errors.New("ingestion queue is full")
	// ErrInProgress is returned by ProcessOne when the textbook is already
	// queued or being processed.
	ErrInProgress = errors.New("textbook extraction already in progress")
)

// NewTextbookIngestor constructs the ingestor with a bounded job queue.
// obj may be nil, in which case downloaded files are not archived.
func NewTextbookIngestor(
	store core.DomainStore,
	obj core.ObjectClient,
	fetcher Fetcher,
	emb core.EmbeddingProvider,
	extractor core.DocumentExtractor,
	cfg IngestConfig,
	logger *zap.Logger,
) *TextbookIngestor {
	def := DefaultIngestConfig()
	if cfg.TargetTokens <= 0 {
		cfg.TargetTokens = def.TargetTokens
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if cfg.EmbedRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.EmbedRate), 1)
	}

	return &TextbookIngestor{
		store:     store,
		obj:       obj,
		fetcher:   fetcher,
		embedder:  emb,
		extractor: extractor,
		cfg:       cfg,
		limiter:   limiter,
		logger:    logger.Named("ingestor"),
		jobs:      make(chan int64, cfg.QueueSize),
		inflight:  make(map[int64]struct{}),
	}
}

// Start runs numWorkers goroutines reading from the job queue until ctx is
// cancelled.
func (i *TextbookIngestor) Start(ctx context.Context, numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	for w := 1; w <= numWorkers; w++ {
		go func(w int) {
			log := i.logger.With(zap.Int("worker", w))
			for {
				select {
				case <-ctx.Done():
					log.Debug("worker shutting down")
					return
				case id := <-i.jobs:
					log.Info("processing textbook", zap.Int64("textbook_id", id))
					if err := i.process(ctx, id); err != nil {
						log.Error("textbook extraction failed", zap.Int64("textbook_id", id), zap.Error(err))
					}
					i.release(id)
				}
			}
		}(w)
	}
}

// Enqueue schedules a textbook for extraction without blocking. A textbook
// that is already queued or being processed is not queued again.
func (i *TextbookIngestor) Enqueue(ctx context.Context, textbookID int64) error {
	if _, err := i.store.GetNCERTTextbook(ctx, textbookID); err != nil {
		return err
	}
	if !i.claim(textbookID) {
		i.logger.Debug("textbook already scheduled", zap.Int64("textbook_id", textbookID))
		return nil
	}
	select {
	case i.jobs <- textbookID:
		return nil
	default:
		i.release(textbookID)
		return ErrQueueFull
	}
}

// ProcessOne downloads, extracts, chunks, embeds and persists one textbook,
// then marks it extracted. Already extracted textbooks are left alone.
func (i *TextbookIngestor) ProcessOne(ctx context.Context, textbookID int64) error {
	if !i.claim(textbookID) {
		return ErrInProgress
	}
	defer i.release(textbookID)
	return i.process(ctx, textbookID)
}

func (i *TextbookIngestor) claim(textbookID int64) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, busy := i.inflight[textbookID]; busy {
		return false
	}
	i.inflight[textbookID] = struct{}{}
	return true
}

func (i *TextbookIngestor) release(textbookID int64) {
	i.mu.Lock()
	delete(i.inflight, textbookID)
	i.mu.Unlock()
}

func (i *TextbookIngestor) process(ctx context.Context, textbookID int64) error {
	proctx, cancel := context.WithTimeout(ctx, i.cfg.JobTimeout)
	defer cancel()

	book, err := i.store.GetNCERTTextbook(proctx, textbookID)
	if err != nil {
		return err
	}
	if book.ContentExtracted {
		i.logger.Debug("textbook already extracted", zap.Int64("textbook_id", textbookID))
		return nil
	}

	started := time.Now()
	meta, err := i.run(proctx, book)
	if err != nil {
		i.discardChunks(ctx, textbookID)
		i.markFailed(ctx, textbookID, err)
		return err
	}

	done, now := true, time.Now().UTC()
	_, err = i.store.UpdateNCERTTextbook(ctx, textbookID, models.TextbookPatch{
		ContentExtracted: &done,
		DownloadedAt:     &now,
		Metadata:         meta,
	})
	if err != nil {
		return fmt.Errorf("mark textbook %d extracted: %w", textbookID, err)
	}

	i.logger.Info("textbook extracted",
		zap.Int64("textbook_id", textbookID),
		zap.Any("chunks", meta["chunkCount"]),
		zap.Duration("took", time.Since(started)))
	return nil
}

func (i *TextbookIngestor) run(ctx context.Context, book *models.NCERTTextbook) (map[string]any, error) {
	// chunks left by an earlier failed attempt
	if n, err := i.store.DeleteTextbookChunks(ctx, book.ID); err != nil {
		return nil, fmt.Errorf("reset chunks: %w", err)
	} else if n > 0 {
		i.logger.Info("removed stale chunks", zap.Int64("textbook_id", book.ID), zap.Int("chunks", n))
	}

	data, contentType, err := i.fetcher.Fetch(ctx, book.PDFURL)
	if err != nil {
		return nil, err
	}

	meta := map[string]any{"sizeBytes": len(data), "extractError": nil}
	if i.obj != nil {
		key := path.Join("ncert", fmt.Sprintf("class-%02d", book.Class), path.Base(book.PDFURL))
		url, err := i.obj.UploadFile(ctx, key, bytes.NewReader(data), contentType)
		if err != nil {
			return nil, fmt.Errorf("archive pdf: %w", err)
		}
		meta["objectKey"] = key
		meta["objectUrl"] = url
	}

	// Build an errgroup to tie the pipeline stages together.
	g, gctx := errgroup.WithContext(ctx)

	fragCh, err := i.extractor.ExtractText(gctx, g, data, contentType)
	if err != nil {
		return nil, err
	}
	chunkCh := i.streamChunk(gctx, g, fragCh, i.cfg.TargetTokens, i.cfg.OverlapTokens)

	var written int
	g.Go(func() error {
		n, err := i.embedAndPersist(gctx, book.ID, chunkCh, i.cfg.BatchSize)
		written = n
		return err
	})

	// Any error cancels the rest.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if written == 0 {
		return nil, ErrNoText
	}
	meta["chunkCount"] = written
	return meta, nil
}

func (i *TextbookIngestor) discardChunks(ctx context.Context, textbookID int64) {
	if _, err := i.store.DeleteTextbookChunks(ctx, textbookID); err != nil {
		i.logger.Warn("could not remove partial chunks", zap.Int64("textbook_id", textbookID), zap.Error(err))
	}
}

func (i *TextbookIngestor) markFailed(ctx context.Context, textbookID int64, cause error) {
	_, err := i.store.UpdateNCERTTextbook(ctx, textbookID, models.TextbookPatch{
		Metadata: map[string]any{"extractError": cause.Error()},
	})
	if err != nil {
		i.logger.Warn("could not record extraction failure", zap.Int64("textbook_id", textbookID), zap.Error(err))
	}
}
