package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/markdave123-py/EduAI/internal/services"
)

// DocumentHandler generates teaching material and serves the rendered
// documents.
type DocumentHandler struct {
	content *services.ContentService
	logger  *zap.Logger
}

func NewDocumentHandler(content *services.ContentService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{content: content, logger: logger}
}

func (h *DocumentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, "generate content", err)
		return
	}
	var req services.ContentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, "generate content", err)
		return
	}
	content, err := h.content.Generate(r.Context(), userID, req)
	if err != nil {
		writeError(w, h.logger, "generate content", err)
		return
	}
	writeData(w, http.StatusCreated, content)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, "list content", err)
		return
	}
	contents, err := h.content.List(r.Context(), userID, r.URL.Query().Get("agentType"))
	if err != nil {
		writeError(w, h.logger, "list content", err)
		return
	}
	writeList(w, contents)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, "get content", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, "get content", err)
		return
	}
	content, err := h.content.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, h.logger, "get content", err)
		return
	}
	writeData(w, http.StatusOK, content)
}

// Document returns the rendered HTML of a generated record.
func (h *DocumentHandler) Document(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, "content document", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, "content document", err)
		return
	}
	doc, err := h.content.Document(r.Context(), userID, id)
	if err != nil {
		writeError(w, h.logger, "content document", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
