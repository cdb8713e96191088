package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/markdave123-py/EduAI/internal/models"
	"github.com/markdave123-py/EduAI/internal/services"
)

type AgentConfigHandler struct {
	configs *services.AgentConfigService
	logger  *zap.Logger
}

func NewAgentConfigHandler(configs *services.AgentConfigService, logger *zap.Logger) *AgentConfigHandler {
	return &AgentConfigHandler{configs: configs, logger: logger}
}

func (h *AgentConfigHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, "list agent configs", err)
		return
	}
	cfgs, err := h.configs.List(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, "list agent configs", err)
		return
	}
	writeList(w, cfgs)
}

type agentConfigRequest struct {
	AgentType     string               `json:"agentType"`
	Grades        []int                `json:"grades"`
	ContentSource models.ContentSource `json:"contentSource"`
	Languages     []string             `json:"languages"`
}

func (h *AgentConfigHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, "create agent config", err)
		return
	}
	var req agentConfigRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, "create agent config", err)
		return
	}
	cfg, err := h.configs.Create(r.Context(), userID, models.AgentConfiguration{
		AgentType:     req.AgentType,
		Grades:        req.Grades,
		ContentSource: req.ContentSource,
		Languages:     req.Languages,
	})
	if err != nil {
		writeError(w, h.logger, "create agent config", err)
		return
	}
	writeData(w, http.StatusCreated, cfg)
}

func (h *AgentConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, "update agent config", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, "update agent config", err)
		return
	}
	var patch models.AgentConfigPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, "update agent config", err)
		return
	}
	cfg, err := h.configs.Update(r.Context(), userID, id, patch)
	if err != nil {
		writeError(w, h.logger, "update agent config", err)
		return
	}
	writeData(w, http.StatusOK, cfg)
}
