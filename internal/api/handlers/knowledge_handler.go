package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/markdave123-py/EduAI/internal/models"
	"github.com/markdave123-py/EduAI/internal/services"
)

type KnowledgeHandler struct {
	knowledge *services.KnowledgeService
	logger    *zap.Logger
}

func NewKnowledgeHandler(knowledge *services.KnowledgeService, logger *zap.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{knowledge: knowledge, logger: logger}
}

func (h *KnowledgeHandler) Ask(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, "knowledge ask", err)
		return
	}
	var q services.Question
	if err := decodeJSON(w, r, &q); err != nil {
		writeError(w, h.logger, "knowledge ask", err)
		return
	}
	entry, err := h.knowledge.Ask(r.Context(), userID, q)
	if err != nil {
		writeError(w, h.logger, "knowledge ask", err)
		return
	}
	writeData(w, http.StatusCreated, entry)
}

// History lists past questions newest first.
func (h *KnowledgeHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, "knowledge history", err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, h.logger, "knowledge history", err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, h.logger, "knowledge history", err)
		return
	}
	entries, err := h.knowledge.History(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, h.logger, "knowledge history", err)
		return
	}
	writeList(w, entries)
}

func (h *KnowledgeHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, "knowledge search", err)
		return
	}
	grade, err := queryInt(r, "grade")
	if err != nil {
		writeError(w, h.logger, "knowledge search", err)
		return
	}
	q := r.URL.Query()
	entries, err := h.knowledge.Search(r.Context(), userID, models.KnowledgeSearch{
		Query:   q.Get("query"),
		Subject: q.Get("subject"),
		Grade:   grade,
	})
	if err != nil {
		writeError(w, h.logger, "knowledge search", err)
		return
	}
	writeList(w, entries)
}
