package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	middleware "github.com/markdave123-py/EduAI/internal/api/middlewares"
	"github.com/markdave123-py/EduAI/internal/core/assets"
	db "github.com/markdave123-py/EduAI/internal/core/database"
	"github.com/markdave123-py/EduAI/internal/core/ingestion_engine"
	"github.com/markdave123-py/EduAI/internal/core/render"
	"github.com/markdave123-py/EduAI/internal/models"
	"github.com/markdave123-py/EduAI/internal/services"
)

type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Generate(_ context.Context, _, _ string) (string, error) {
	return f.reply, f.err
}

type fakeSearcher struct {
	models []models.AssetModel
	err    error
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ int) ([]models.AssetModel, error) {
	return f.models, f.err
}

func (f *fakeSearcher) EmbedURL(id string, _ map[string]bool) string {
	return "https://viewer.test/" + id
}

type env struct {
	store    *db.MemoryStore
	llm      *fakeLLM
	searcher *fakeSearcher
	router   chi.Router
	alice    *models.User
	bob      *models.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	store := db.NewMemoryStore()
	e := &env{store: store, llm: &fakeLLM{}, searcher: &fakeSearcher{}}

	e.alice = &models.User{Email: "alice@school.in", Name: "Alice", ExternalID: "ext-alice"}
	e.bob = &models.User{Email: "bob@school.in", Name: "Bob", ExternalID: "ext-bob"}
	require.NoError(t, store.CreateUser(ctx, e.alice))
	require.NoError(t, store.CreateUser(ctx, e.bob))

	ingestor := ingestion_engine.NewTextbookIngestor(store, nil, nil, nil, nil, ingestion_engine.IngestConfig{QueueSize: 4}, logger)
	scraper := ingestion_engine.NewScraper(store, ingestion_engine.NewCatalog("https://ncert.nic.in"), logger)

	configs := NewAgentConfigHandler(services.NewAgentConfigService(store), logger)
	chat := NewChatHandler(services.NewChatService(store, e.llm, logger), logger)
	docs := NewDocumentHandler(services.NewContentService(store, e.llm, render.NewRenderer(), nil, logger), logger)
	knowledge := NewKnowledgeHandler(services.NewKnowledgeService(store, e.llm, nil, logger), logger)
	ncert := NewNCERTHandler(store, scraper, ingestor, logger)
	ar := NewARHandler(e.searcher, logger)
	users := NewAuthHandler(services.NewUserService(store), logger)

	r := chi.NewRouter()
	// X-User carries the caller id in place of a verified token.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id int64
			if _, err := fmt.Sscan(r.Header.Get("X-User"), &id); err == nil {
				r = r.WithContext(middleware.WithUserID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Get("/api/users/me", users.Me)
	r.Get("/api/agent-configs", configs.List)
	r.Post("/api/agent-configs", configs.Create)
	r.Patch("/api/agent-configs/{id}", configs.Update)
	r.Get("/api/chat-sessions", chat.ListSessions)
	r.Post("/api/chat-sessions", chat.CreateSession)
	r.Get("/api/chat-sessions/{id}/messages", chat.Messages)
	r.Post("/api/chat-sessions/{id}/messages", chat.PostMessage)
	r.Post("/api/content", docs.Generate)
	r.Get("/api/content", docs.List)
	r.Get("/api/content/{id}", docs.Get)
	r.Get("/api/content/{id}/document", docs.Document)
	r.Post("/api/knowledge-base/ask", knowledge.Ask)
	r.Get("/api/knowledge-base/history", knowledge.History)
	r.Get("/api/knowledge-base/search", knowledge.Search)
	r.Get("/api/ncert/textbooks", ncert.List)
	r.Post("/api/ncert/scrape", ncert.Scrape)
	r.Post("/api/ncert/textbooks/{id}/extract", ncert.Extract)
	r.Post("/api/ar/search", ar.Search)
	r.Post("/api/ar/embed", ar.Embed)
	e.router = r
	return e
}

type envelope struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (e *env) do(t *testing.T, user *models.User, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if user != nil {
		req.Header.Set("X-User", fmt.Sprint(user.ID))
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.Invalid("grades", "required"), http.StatusBadRequest},
		{fmt.Errorf("x: %w", models.ErrInvalidReference), http.StatusBadRequest},
		{errUnauthenticated, http.StatusUnauthorized},
		{fmt.Errorf("x: %w", models.ErrNotFound), http.StatusNotFound},
		{models.ErrConflict, http.StatusConflict},
		{fmt.Errorf("%w: llm: boom", services.ErrUpstream), http.StatusBadGateway},
		{assets.ErrNotConfigured, http.StatusBadGateway},
		{ingestion_engine.ErrQueueFull, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, zap.NewNop(), "op", errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal Server Error"}`, rec.Body.String())
}

func TestMissingUserIsUnauthorized(t *testing.T) {
	e := newEnv(t)
	rec, body := e.do(t, nil, http.MethodGet, "/api/agent-configs", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, body.Success)
}

func TestMe(t *testing.T) {
	e := newEnv(t)
	rec, body := e.do(t, e.alice, http.MethodGet, "/api/users/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var u models.User
	require.NoError(t, json.Unmarshal(body.Data, &u))
	assert.Equal(t, "alice@school.in", u.Email)
}

func TestAgentConfigEndpoints(t *testing.T) {
	e := newEnv(t)

	rec, body := e.do(t, e.alice, http.MethodPost, "/api/agent-configs",
		`{"agentType":"lesson-planner","grades":[3,4],"contentSource":"prebook"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cfg models.AgentConfiguration
	require.NoError(t, json.Unmarshal(body.Data, &cfg))
	assert.Equal(t, int64(1), cfg.ID)
	assert.True(t, cfg.IsActive)
	assert.Equal(t, e.alice.ID, cfg.UserID)

	rec, body = e.do(t, e.alice, http.MethodPost, "/api/agent-configs",
		`{"agentType":"lesson-planner","grades":[],"contentSource":"prebook"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body.Error, "grades")

	rec, _ = e.do(t, e.alice, http.MethodPost, "/api/agent-configs", `{"agentType":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = e.do(t, e.bob, http.MethodPatch, "/api/agent-configs/1", `{"isActive":false}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = e.do(t, e.alice, http.MethodPatch, "/api/agent-configs/999", `{"isActive":false}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = e.do(t, e.alice, http.MethodPatch, "/api/agent-configs/abc", `{"isActive":false}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = e.do(t, e.alice, http.MethodPatch, "/api/agent-configs/1", `{"isActive":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(body.Data, &cfg))
	assert.False(t, cfg.IsActive)
	assert.Equal(t, []int{3, 4}, cfg.Grades)

	_, body = e.do(t, e.alice, http.MethodGet, "/api/agent-configs", "")
	assert.Equal(t, 1, body.Count)
	_, body = e.do(t, e.bob, http.MethodGet, "/api/agent-configs", "")
	assert.Equal(t, 0, body.Count)
	assert.JSONEq(t, `[]`, string(body.Data))
}

func TestChatEndpoints(t *testing.T) {
	e := newEnv(t)

	rec, body := e.do(t, e.alice, http.MethodPost, "/api/chat-sessions", `{"sessionName":"Fractions"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var session models.ChatSession
	require.NoError(t, json.Unmarshal(body.Data, &session))
	assert.Equal(t, "Fractions", session.SessionName)

	path := fmt.Sprintf("/api/chat-sessions/%d/messages", session.ID)
	e.llm.reply = "Think of a pizza."
	rec, _ = e.do(t, e.alice, http.MethodPost, path, `{"content":"How do I explain fractions?"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	e.llm.reply, e.llm.err = "", errors.New("quota exceeded")
	rec, body = e.do(t, e.alice, http.MethodPost, path, `{"content":"And decimals?"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream service failed", body.Error)

	rec, body = e.do(t, e.alice, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs []models.ChatMessage
	require.NoError(t, json.Unmarshal(body.Data, &msgs))
	require.Len(t, msgs, 3)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "And decimals?", msgs[2].Content)

	rec, _ = e.do(t, e.bob, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = e.do(t, e.alice, http.MethodPost, path, `{"content":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContentEndpoints(t *testing.T) {
	e := newEnv(t)
	e.llm.reply = "# Photosynthesis\n\nPlants make food from **sunlight**."

	rec, body := e.do(t, e.alice, http.MethodPost, "/api/content",
		`{"agentType":"lesson-planner","prompt":"Photosynthesis for class 7","grades":[7],"languages":["English"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var content models.GeneratedContent
	require.NoError(t, json.Unmarshal(body.Data, &content))
	assert.Equal(t, "Photosynthesis", content.Title)

	rec, _ = e.do(t, e.alice, http.MethodPost, "/api/content", `{"agentType":"astrology","prompt":"x","grades":[1]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	docPath := fmt.Sprintf("/api/content/%d/document", content.ID)
	rec, _ = e.do(t, e.alice, http.MethodGet, docPath, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<strong>sunlight</strong>")

	rec, _ = e.do(t, e.bob, http.MethodGet, docPath, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = e.do(t, e.bob, http.MethodGet, fmt.Sprintf("/api/content/%d", content.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, body = e.do(t, e.alice, http.MethodGet, "/api/content?agentType=lesson-planner", "")
	assert.Equal(t, 1, body.Count)
	_, body = e.do(t, e.alice, http.MethodGet, "/api/content?agentType=visual-aids", "")
	assert.Equal(t, 0, body.Count)
}

func TestKnowledgeEndpoints(t *testing.T) {
	e := newEnv(t)
	e.llm.reply = `{"answer":"Evaporation","explanation":"Water turns to vapour","confidence":0.9,"analogies":["a kettle"],"followUpQuestions":[]}`

	rec, body := e.do(t, e.alice, http.MethodPost, "/api/knowledge-base/ask", `{"question":"What is evaporation?","grade":6,"subject":"Science"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var entry models.KnowledgeEntry
	require.NoError(t, json.Unmarshal(body.Data, &entry))
	assert.Equal(t, "Evaporation", entry.Answer)
	assert.Equal(t, "English", entry.Language)

	rec, _ = e.do(t, e.alice, http.MethodPost, "/api/knowledge-base/ask", `{"question":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, body = e.do(t, e.alice, http.MethodGet, "/api/knowledge-base/history?limit=10&offset=0", "")
	assert.Equal(t, 1, body.Count)
	rec, _ = e.do(t, e.alice, http.MethodGet, "/api/knowledge-base/history?limit=ten", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, body = e.do(t, e.alice, http.MethodGet, "/api/knowledge-base/search?query=EVAPOR", "")
	assert.Equal(t, 1, body.Count)
	_, body = e.do(t, e.bob, http.MethodGet, "/api/knowledge-base/search?query=evapor", "")
	assert.Equal(t, 0, body.Count)
	rec, _ = e.do(t, e.alice, http.MethodGet, "/api/knowledge-base/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNCERTEndpoints(t *testing.T) {
	e := newEnv(t)

	rec, body := e.do(t, e.alice, http.MethodPost, "/api/ncert/scrape", `{"extract":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Created int `json:"created"`
		Queued  int `json:"queued"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &result))
	assert.Equal(t, 228, result.Created)
	assert.Equal(t, 4, result.Queued)

	_, body = e.do(t, e.alice, http.MethodGet, "/api/ncert/textbooks", "")
	assert.Equal(t, 228, body.Count)

	rec, body = e.do(t, e.alice, http.MethodGet, "/api/ncert/textbooks?class=6&language=English", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var books []models.NCERTTextbook
	require.NoError(t, json.Unmarshal(body.Data, &books))
	require.NotEmpty(t, books)
	for _, b := range books {
		assert.Equal(t, 6, b.Class)
		assert.Equal(t, "English", b.Language)
	}

	rec, _ = e.do(t, e.alice, http.MethodPost, "/api/ncert/textbooks/5/extract", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec, _ = e.do(t, e.alice, http.MethodPost, "/api/ncert/textbooks/99999/extract", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNCERTExtractAccepted(t *testing.T) {
	e := newEnv(t)
	book := &models.NCERTTextbook{Class: 6, Subject: "Science", BookTitle: "Curiosity", Language: "English", PDFURL: "https://ncert.nic.in/textbook/pdf/06fesc.pdf"}
	require.NoError(t, e.store.CreateNCERTTextbook(context.Background(), book))

	rec, body := e.do(t, e.alice, http.MethodPost, fmt.Sprintf("/api/ncert/textbooks/%d/extract", book.ID), "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"textbookId":%d,"status":"queued"}`, book.ID), string(body.Data))
}

func TestAREndpoints(t *testing.T) {
	e := newEnv(t)
	e.searcher.models = []models.AssetModel{{ID: "abc", Name: "Heart", Source: "sketchfab"}}

	rec, body := e.do(t, e.alice, http.MethodPost, "/api/ar/search", `{"query":"human heart"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, body.Count)

	rec, _ = e.do(t, e.alice, http.MethodPost, "/api/ar/search", `{"query":" "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	e.searcher.err = assets.ErrNotConfigured
	rec, _ = e.do(t, e.alice, http.MethodPost, "/api/ar/search", `{"query":"heart"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	e.searcher.err = errors.New("connection reset")
	rec, _ = e.do(t, e.alice, http.MethodPost, "/api/ar/search", `{"query":"heart"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec, body = e.do(t, e.alice, http.MethodPost, "/api/ar/embed", `{"id":"abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"embedUrl":"https://viewer.test/abc","source":"sketchfab","modelId":"abc"}`, string(body.Data))

	rec, _ = e.do(t, e.alice, http.MethodPost, "/api/ar/embed", `{"id":"abc","source":"google-poly"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health("memory", time.Now())(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "memory", body["store"])
	assert.Equal(t, true, body["success"])
}
