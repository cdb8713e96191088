package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/markdave123-py/EduAI/internal/core"
	"github.com/markdave123-py/EduAI/internal/core/ingestion_engine"
	"github.com/markdave123-py/EduAI/internal/models"
)

type NCERTHandler struct {
	store    core.DomainStore
	scraper  *ingestion_engine.Scraper
	ingestor ingestion_engine.Ingestor
	logger   *zap.Logger
}

func NewNCERTHandler(store core.DomainStore, scraper *ingestion_engine.Scraper, ingestor ingestion_engine.Ingestor, logger *zap.Logger) *NCERTHandler {
	return &NCERTHandler{store: store, scraper: scraper, ingestor: ingestor, logger: logger}
}

func (h *NCERTHandler) List(w http.ResponseWriter, r *http.Request) {
	class, err := queryInt(r, "class")
	if err != nil {
		writeError(w, h.logger, "list textbooks", err)
		return
	}
	q := r.URL.Query()
	books, err := h.store.ListNCERTTextbooks(r.Context(), models.TextbookFilter{
		Class:    class,
		Subject:  q.Get("subject"),
		Language: q.Get("language"),
	})
	if err != nil {
		writeError(w, h.logger, "list textbooks", err)
		return
	}
	writeList(w, books)
}

type scrapeRequest struct {
	Extract bool `json:"extract"`
}

// Scrape rebuilds the catalog. With extract set, every new textbook is queued
// for text extraction until the queue fills up.
func (h *NCERTHandler) Scrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, "scrape textbooks", err)
		return
	}
	books, err := h.scraper.Scrape(r.Context())
	if err != nil {
		writeError(w, h.logger, "scrape textbooks", err)
		return
	}

	queued := 0
	if req.Extract && h.ingestor != nil {
		for _, b := range books {
			if err := h.ingestor.Enqueue(r.Context(), b.ID); err != nil {
				if !errors.Is(err, ingestion_engine.ErrQueueFull) {
					h.logger.Warn("enqueue extraction", zap.Int64("textbook_id", b.ID), zap.Error(err))
				}
				break
			}
			queued++
		}
	}

	writeData(w, http.StatusOK, map[string]any{
		"created": len(books),
		"queued":  queued,
	})
}

func (h *NCERTHandler) Extract(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, "extract textbook", err)
		return
	}
	if h.ingestor == nil {
		writeError(w, h.logger, "extract textbook", errors.New("text extraction is not configured"))
		return
	}
	if err := h.ingestor.Enqueue(r.Context(), id); err != nil {
		writeError(w, h.logger, "extract textbook", err)
		return
	}
	writeData(w, http.StatusAccepted, map[string]any{"textbookId": id, "status": "queued"})
}
