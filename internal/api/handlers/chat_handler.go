package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/markdave123-py/EduAI/internal/services"
)

type ChatHandler struct {
	chat   *services.ChatService
	logger *zap.Logger
}

func NewChatHandler(chat *services.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, "list chat sessions", err)
		return
	}
	sessions, err := h.chat.ListSessions(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, "list chat sessions", err)
		return
	}
	writeList(w, sessions)
}

type createSessionRequest struct {
	SessionName string `json:"sessionName"`
}

func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, "create chat session", err)
		return
	}
	var req createSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, "create chat session", err)
		return
	}
	session, err := h.chat.CreateSession(r.Context(), userID, req.SessionName)
	if err != nil {
		writeError(w, h.logger, "create chat session", err)
		return
	}
	writeData(w, http.StatusCreated, session)
}

func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, "list chat messages", err)
		return
	}
	sessionID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, "list chat messages", err)
		return
	}
	msgs, err := h.chat.Messages(r.Context(), userID, sessionID)
	if err != nil {
		writeError(w, h.logger, "list chat messages", err)
		return
	}
	writeList(w, msgs)
}

type postMessageRequest struct {
	Content string `json:"content"`
}

// PostMessage stores the user's message and the model's reply. When the
// model fails the user message is kept and 502 is returned.
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, "post chat message", err)
		return
	}
	sessionID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, "post chat message", err)
		return
	}
	var req postMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, "post chat message", err)
		return
	}

	userMsg, reply, err := h.chat.PostMessage(r.Context(), userID, sessionID, req.Content)
	if err != nil {
		writeError(w, h.logger, "post chat message", err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{
		"userMessage":  userMsg,
		"modelMessage": reply,
	})
}
