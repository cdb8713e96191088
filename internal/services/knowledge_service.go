package services

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/markdave123-py/EduAI/internal/core"
	"github.com/markdave123-py/EduAI/internal/models"
)

const (
	defaultLanguage = "English"
	passageLimit    = 5
	// passages scoring below this are not cited
	minPassageScore = 0.3
)

// Question is a knowledge-base query. Grade 0 and an empty Subject mean any.
type Question struct {
	Question string `json:"question"`
	Grade    int    `json:"grade"`
	Subject  string `json:"subject"`
	Language string `json:"language"`
}

type KnowledgeService struct {
	db       core.DomainStore
	llm      core.LLMProvider
	embedder core.EmbeddingProvider
	logger   *zap.Logger
}

// NewKnowledgeService wires the knowledge base. embedder may be nil, in which
// case answers are not grounded in textbook passages.
func NewKnowledgeService(db core.DomainStore, llm core.LLMProvider, embedder core.EmbeddingProvider, logger *zap.Logger) *KnowledgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KnowledgeService{db: db, llm: llm, embedder: embedder, logger: logger.Named("knowledge")}
}

type modelAnswer struct {
	Answer            string   `json:"answer"`
	Explanation       string   `json:"explanation"`
	Confidence        float64  `json:"confidence"`
	Analogies         []string `json:"analogies"`
	FollowUpQuestions []string `json:"followUpQuestions"`
}

// Ask answers q with the help of matching textbook passages and records the
// exchange in the user's history.
func (s *KnowledgeService) Ask(ctx context.Context, userID int64, q Question) (*models.KnowledgeEntry, error) {
	q.Question = strings.TrimSpace(q.Question)
	if q.Question == "" {
		return nil, models.Invalid("question", "required")
	}
	if q.Grade != 0 && (q.Grade < models.MinGrade || q.Grade > models.MaxGrade) {
		return nil, models.Invalid("grade", "grade %d outside %d-%d", q.Grade, models.MinGrade, models.MaxGrade)
	}
	if q.Language == "" {
		q.Language = defaultLanguage
	}

	passages, err := s.retrieve(ctx, q)
	if err != nil {
		return nil, err
	}

	raw, err := s.llm.Generate(ctx, knowledgeSystemPrompt, knowledgePrompt(q, passages))
	if err != nil {
		return nil, upstream("knowledge answer", err)
	}
	ans, structured := parseAnswer(raw)

	entry := &models.KnowledgeEntry{
		UserID:            userID,
		Question:          q.Question,
		Answer:            ans.Answer,
		Explanation:       ans.Explanation,
		Grade:             q.Grade,
		Subject:           q.Subject,
		Language:          q.Language,
		Confidence:        clamp01(ans.Confidence),
		Sources:           sourcesFrom(passages),
		Analogies:         nonNil(ans.Analogies),
		FollowUpQuestions: nonNil(ans.FollowUpQuestions),
		Metadata: map[string]any{
			"structured": structured,
			"passages":   len(passages),
		},
	}
	if err := s.db.CreateKnowledgeEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *KnowledgeService) retrieve(ctx context.Context, q Question) ([]models.ScoredChunk, error) {
	if s.embedder == nil {
		return nil, nil
	}
	vecs, err := s.embedder.EmbedTexts(ctx, []string{q.Question})
	if err != nil {
		return nil, upstream("embed question", err)
	}
	if len(vecs) == 0 {
		return nil, nil
	}
	hits, err := s.db.SearchTextbookChunks(ctx, vecs[0], models.ChunkFilter{Class: q.Grade, Subject: q.Subject}, passageLimit)
	if err != nil {
		return nil, err
	}
	out := hits[:0]
	for _, h := range hits {
		if h.Score >= minPassageScore {
			out = append(out, h)
		}
	}
	return out, nil
}

// History returns the user's entries newest first.
func (s *KnowledgeService) History(ctx context.Context, userID int64, limit, offset int) ([]models.KnowledgeEntry, error) {
	if offset < 0 {
		return nil, models.Invalid("offset", "must not be negative")
	}
	return s.db.ListKnowledgeHistory(ctx, userID, limit, offset)
}

func (s *KnowledgeService) Search(ctx context.Context, userID int64, search models.KnowledgeSearch) ([]models.KnowledgeEntry, error) {
	search.Query = strings.TrimSpace(search.Query)
	if search.Query == "" {
		return nil, models.Invalid("query", "required")
	}
	return s.db.SearchKnowledgeHistory(ctx, userID, search)
}

// parseAnswer decodes the model's JSON reply. Replies that are not JSON are
// kept verbatim as the answer with zero confidence.
func parseAnswer(raw string) (modelAnswer, bool) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		var a modelAnswer
		if err := json.Unmarshal([]byte(text[start:end+1]), &a); err == nil && a.Answer != "" {
			return a, true
		}
	}
	return modelAnswer{Answer: strings.TrimSpace(raw)}, false
}

func sourcesFrom(passages []models.ScoredChunk) []models.Source {
	out := []models.Source{}
	seen := map[int64]bool{}
	for _, p := range passages {
		if seen[p.Textbook.ID] {
			continue
		}
		seen[p.Textbook.ID] = true
		out = append(out, models.Source{
			Kind:    "ncert",
			Title:   p.Textbook.BookTitle,
			Class:   p.Textbook.Class,
			Subject: p.Textbook.Subject,
			URL:     p.Textbook.PDFURL,
		})
	}
	return out
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
