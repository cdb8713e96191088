package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/EduAI/internal/core"
	objectclient "github.com/markdave123-py/EduAI/internal/core/object-client"
	"github.com/markdave123-py/EduAI/internal/core/render"
	"github.com/markdave123-py/EduAI/internal/models"
)

// ContentRequest asks an agent to generate material. Empty Grades, Languages
// and ContentSource are taken from the user's active configuration for the
// agent.
type ContentRequest struct {
	AgentType     string               `json:"agentType"`
	Prompt        string               `json:"prompt"`
	Grades        []int                `json:"grades"`
	Languages     []string             `json:"languages"`
	ContentSource models.ContentSource `json:"contentSource"`
}

type ContentService struct {
	db       core.DomainStore
	llm      core.LLMProvider
	configs  *AgentConfigService
	renderer *render.Renderer
	obj      core.ObjectClient
	logger   *zap.Logger
	now      func() time.Time
}

// NewContentService wires the generator. obj may be nil, in which case
// documents are rendered on demand.
func NewContentService(db core.DomainStore, llm core.LLMProvider, renderer *render.Renderer, obj core.ObjectClient, logger *zap.Logger) *ContentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentService{
		db:       db,
		llm:      llm,
		configs:  NewAgentConfigService(db),
		renderer: renderer,
		obj:      obj,
		logger:   logger.Named("content"),
		now:      time.Now,
	}
}

func (s *ContentService) Generate(ctx context.Context, userID int64, req ContentRequest) (*models.GeneratedContent, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if !KnownAgent(req.AgentType) {
		return nil, models.Invalid("agentType", "unknown agent %q", req.AgentType)
	}
	if req.Prompt == "" {
		return nil, models.Invalid("prompt", "required")
	}
	if err := s.applyDefaults(ctx, userID, &req); err != nil {
		return nil, err
	}
	if err := models.ValidateGrades(req.Grades); err != nil {
		return nil, err
	}
	if !req.ContentSource.Valid() {
		return nil, models.Invalid("contentSource", "must be %q or %q", models.ContentSourcePrebook, models.ContentSourceExternal)
	}

	system, user := contentPrompt(req)
	body, err := s.llm.Generate(ctx, system, user)
	if err != nil {
		return nil, upstream("generate content", err)
	}
	body = strings.TrimSpace(body)

	content := &models.GeneratedContent{
		UserID:    userID,
		AgentType: req.AgentType,
		Title:     titleFrom(body, req.AgentType, req.Prompt),
		Content:   body,
		Metadata: map[string]any{
			"prompt":        req.Prompt,
			"grades":        req.Grades,
			"languages":     req.Languages,
			"contentSource": string(req.ContentSource),
		},
	}

	if s.obj != nil {
		doc, err := s.renderer.Render(s.document(content, s.now()))
		if err != nil {
			return nil, err
		}
		key := objectclient.NewKey(fmt.Sprintf("users/%d/content", userID), "document.html")
		url, err := s.obj.UploadFile(ctx, key, bytes.NewReader(doc), "text/html; charset=utf-8")
		if err != nil {
			// the record is still useful without an archived copy
			s.logger.Warn("document upload failed", zap.Int64("user_id", userID), zap.Error(err))
		} else {
			content.Metadata["documentKey"] = key
			content.Metadata["documentUrl"] = url
		}
	}

	if err := s.db.CreateGeneratedContent(ctx, content); err != nil {
		return nil, err
	}
	return content, nil
}

func (s *ContentService) applyDefaults(ctx context.Context, userID int64, req *ContentRequest) error {
	if len(req.Grades) > 0 && req.ContentSource != "" {
		return nil
	}
	cfg, err := s.configs.Active(ctx, userID, req.AgentType)
	if err != nil {
		return err
	}
	if cfg != nil {
		if len(req.Grades) == 0 {
			req.Grades = cfg.Grades
		}
		if len(req.Languages) == 0 {
			req.Languages = cfg.Languages
		}
		if req.ContentSource == "" {
			req.ContentSource = cfg.ContentSource
		}
	}
	if req.ContentSource == "" {
		req.ContentSource = models.ContentSourcePrebook
	}
	return nil
}

// Get returns a record the user owns.
func (s *ContentService) Get(ctx context.Context, userID, id int64) (*models.GeneratedContent, error) {
	c, err := s.db.GetGeneratedContent(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, fmt.Errorf("generated content %d: %w", id, models.ErrNotFound)
	}
	return c, nil
}

func (s *ContentService) List(ctx context.Context, userID int64, agentType string) ([]models.GeneratedContent, error) {
	return s.db.ListGeneratedContent(ctx, userID, agentType)
}

// Document returns the HTML document of a record, from object storage when
// it was archived there.
func (s *ContentService) Document(ctx context.Context, userID, id int64) ([]byte, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if key, ok := c.Metadata["documentKey"].(string); ok && key != "" && s.obj != nil {
		doc, err := s.obj.GetFile(ctx, key)
		if err == nil {
			return doc, nil
		}
		s.logger.Warn("archived document unavailable, rendering", zap.String("key", key), zap.Error(err))
	}
	return s.renderer.Render(s.document(c, c.CreatedAt))
}

func (s *ContentService) document(c *models.GeneratedContent, at time.Time) render.Document {
	return render.Document{
		Title:       c.Title,
		AgentLabel:  AgentLabel(c.AgentType),
		Body:        c.Content,
		Grades:      intsFrom(c.Metadata["grades"]),
		Languages:   stringsFrom(c.Metadata["languages"]),
		GeneratedAt: at,
	}
}

// intsFrom reads an int list from metadata that may have been through JSON.
func intsFrom(v any) []int {
	switch t := v.(type) {
	case []int:
		return t
	case []any:
		out := make([]int, 0, len(t))
		for _, x := range t {
			if f, ok := x.(float64); ok {
				out = append(out, int(f))
			}
		}
		return out
	}
	return nil
}

func stringsFrom(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
