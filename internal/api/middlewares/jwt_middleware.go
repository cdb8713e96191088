package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/markdave123-py/EduAI/internal/auth"
	"github.com/markdave123-py/EduAI/internal/models"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	identityKey
)

// TokenVerifier checks a bearer token and returns the identity it carries.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// UserResolver maps a verified identity to a stored user.
type UserResolver interface {
	FindOrCreate(ctx context.Context, id auth.Identity) (*models.User, error)
}

// JWTMiddleware validates the Authorization header, resolves the caller to a
// user record and attaches the user id and identity to the request context.
func JWTMiddleware(verifier TokenVerifier, users UserResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				deny(w, http.StatusUnauthorized, "missing or invalid token")
				return
			}

			identity, err := verifier.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				deny(w, http.StatusUnauthorized, "invalid token")
				return
			}

			user, err := users.FindOrCreate(r.Context(), identity)
			if err != nil {
				if models.IsValidation(err) {
					deny(w, http.StatusUnauthorized, "invalid token claims")
					return
				}
				logger.Error("resolve user", zap.String("subject", identity.Subject), zap.Error(err))
				deny(w, http.StatusInternalServerError, "failed to process user identity")
				return
			}

			ctx := WithUserID(r.Context(), user.ID)
			ctx = context.WithValue(ctx, identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext returns the id stored by JWTMiddleware.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
