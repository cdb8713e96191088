package handlers

import (
	"net/http"

	"go.uber.org/zap"

	middleware "github.com/markdave123-py/EduAI/internal/api/middlewares"
	"github.com/markdave123-py/EduAI/internal/models"
	"github.com/markdave123-py/EduAI/internal/services"
)

// AuthHandler serves the signed-in user's account.
type AuthHandler struct {
	users  *services.UserService
	logger *zap.Logger
}

func NewAuthHandler(users *services.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, logger: logger}
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, "me", err)
		return
	}
	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, "me", err)
		return
	}
	writeData(w, http.StatusOK, user)
}

type registerRequest struct {
	ExternalID string `json:"externalId"`
}

// Register returns the account of the bearer token's subject. The JWT
// middleware has already created it from the token claims, so repeated calls
// return the same record. An externalId in the body must match the token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, "register", errUnauthenticated)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, "register", err)
		return
	}
	if req.ExternalID != "" && req.ExternalID != identity.Subject {
		writeError(w, h.logger, "register", models.Invalid("externalId", "does not match the authenticated subject"))
		return
	}

	user, err := h.users.FindOrCreate(r.Context(), identity)
	if err != nil {
		writeError(w, h.logger, "register", err)
		return
	}
	writeData(w, http.StatusOK, user)
}
