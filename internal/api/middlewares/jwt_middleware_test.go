package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markdave123-py/EduAI/internal/auth"
	"github.com/markdave123-py/EduAI/internal/models"
)

type stubUsers struct {
	user *models.User
	err  error
	seen auth.Identity
}

func (s *stubUsers) FindOrCreate(_ context.Context, id auth.Identity) (*models.User, error) {
	s.seen = id
	return s.user, s.err
}

func protected(t *testing.T, users UserResolver) (http.Handler, *auth.Signer) {
	t.Helper()
	signer, err := auth.NewSigner("test-secret", time.Hour)
	require.NoError(t, err)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		identity, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		w.Header().Set("X-User", identity.Subject)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(strconv.FormatInt(id, 10)))
	})
	return JWTMiddleware(signer, users, zap.NewNop())(next), signer
}

func TestJWTMiddlewareAttachesUser(t *testing.T) {
	users := &stubUsers{user: &models.User{ID: 7}}
	h, signer := protected(t, users)
	token, err := signer.Issue(auth.Identity{Subject: "ext-1", Email: "a@b.com", Name: "A"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7", rec.Body.String())
	assert.Equal(t, "ext-1", rec.Header().Get("X-User"))
	assert.Equal(t, "a@b.com", users.seen.Email)
}

func TestJWTMiddlewareRejects(t *testing.T) {
	users := &stubUsers{user: &models.User{ID: 1}}
	h, _ := protected(t, users)

	other, err := auth.NewSigner("other-secret", time.Hour)
	require.NoError(t, err)
	forged, err := other.Issue(auth.Identity{Subject: "ext-1", Email: "a@b.com"})
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		msg    string
	}{
		{"missing", "", "missing or invalid token"},
		{"scheme", "Token abc", "missing or invalid token"},
		{"garbage", "Bearer not-a-jwt", "invalid token"},
		{"forged", "Bearer " + forged, "invalid token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"success":false,"error":"`+tc.msg+`"}`, rec.Body.String())
		})
	}
}

func TestJWTMiddlewareUserResolutionFailures(t *testing.T) {
	signer, err := auth.NewSigner("test-secret", time.Hour)
	require.NoError(t, err)
	token, err := signer.Issue(auth.Identity{Subject: "ext-1", Email: "not-an-email"})
	require.NoError(t, err)

	cases := []struct {
		err    error
		status int
	}{
		{models.Invalid("email", "bad"), http.StatusUnauthorized},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := JWTMiddleware(signer, &stubUsers{err: tc.err}, nil)(http.NotFoundHandler())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code)
	}
}

func TestUserIDFromContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := UserIDFromContext(WithUserID(context.Background(), 42))
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}
