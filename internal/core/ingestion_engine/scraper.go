package ingestion_engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/markdave123-py/EduAI/internal/core"
	"github.com/markdave123-py/EduAI/internal/models"
)

// Scraper rebuilds the textbook table from the catalog.
type Scraper struct {
	store   core.DomainStore
	catalog *Catalog
	logger  *zap.Logger
}

func NewScraper(store core.DomainStore, catalog *Catalog, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{store: store, catalog: catalog, logger: logger.Named("scraper")}
}

// Scrape clears every stored textbook and recreates the catalog. It returns
// the created records in catalog order.
func (s *Scraper) Scrape(ctx context.Context) ([]models.NCERTTextbook, error) {
	s.logger.Info("scrape started")

	if err := s.store.ClearNCERTTextbooks(ctx); err != nil {
		return nil, fmt.Errorf("clear textbooks: %w", err)
	}

	entries := s.catalog.Entries()
	created := make([]models.NCERTTextbook, 0, len(entries))
	for idx := range entries {
		book := entries[idx]
		if err := book.Validate(); err != nil {
			return created, fmt.Errorf("catalog entry class %d %s (%s): %w", book.Class, book.Subject, book.Language, err)
		}
		if err := s.store.CreateNCERTTextbook(ctx, &book); err != nil {
			return created, fmt.Errorf("store textbook: %w", err)
		}
		created = append(created, book)
	}

	s.logger.Info("scrape completed", zap.Int("textbooks", len(created)))
	return created, nil
}
