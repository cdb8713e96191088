package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/markdave123-py/EduAI/internal/core"
	"github.com/markdave123-py/EduAI/internal/core/assets"
	"github.com/markdave123-py/EduAI/internal/models"
	"github.com/markdave123-py/EduAI/internal/services"
)

// ARHandler searches 3D models for augmented reality lessons.
type ARHandler struct {
	searcher core.AssetSearcher
	logger   *zap.Logger
}

func NewARHandler(searcher core.AssetSearcher, logger *zap.Logger) *ARHandler {
	return &ARHandler{searcher: searcher, logger: logger}
}

type arSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (h *ARHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req arSearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, "ar search", err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, h.logger, "ar search", models.Invalid("query", "required"))
		return
	}
	found, err := h.searcher.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		if !models.IsValidation(err) && !errors.Is(err, assets.ErrNotConfigured) {
			err = fmt.Errorf("%w: model search: %w", services.ErrUpstream, err)
		}
		writeError(w, h.logger, "ar search", err)
		return
	}
	writeList(w, found)
}

type arEmbedRequest struct {
	Source  string          `json:"source"`
	ID      string          `json:"id"`
	Options map[string]bool `json:"options"`
}

func (h *ARHandler) Embed(w http.ResponseWriter, r *http.Request) {
	var req arEmbedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, "ar embed", err)
		return
	}
	if req.Source == "" {
		req.Source = "sketchfab"
	}
	if req.Source != "sketchfab" {
		writeError(w, h.logger, "ar embed", models.Invalid("source", "unsupported source %q", req.Source))
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, h.logger, "ar embed", models.Invalid("id", "required"))
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"embedUrl": h.searcher.EmbedURL(req.ID, req.Options),
		"source":   req.Source,
		"modelId":  req.ID,
	})
}
