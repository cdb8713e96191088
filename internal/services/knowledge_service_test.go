package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	db "github.com/markdave123-py/EduAI/internal/core/database"
	"github.com/markdave123-py/EduAI/internal/models"
)

const jsonReply = "```json\n" + `{"answer": "Plants make food from sunlight.",
 "explanation": "Chlorophyll captures light.", "confidence": 1.4,
 "analogies": ["A leaf is a kitchen"], "followUpQuestions": ["Why are leaves green?"]}` + "\n```"

func seedScience(t *testing.T, store *db.MemoryStore) *models.NCERTTextbook {
	t.Helper()
	ctx := context.Background()
	book := &models.NCERTTextbook{Class: 7, Subject: "Science", BookTitle: "Science", Language: "English", PDFURL: "https://ncert.nic.in/textbook/pdf/07scienceen.pdf"}
	require.NoError(t, store.CreateNCERTTextbook(ctx, book))
	other := &models.NCERTTextbook{Class: 8, Subject: "Science", BookTitle: "Science", Language: "English", PDFURL: "https://ncert.nic.in/textbook/pdf/08scienceen.pdf"}
	require.NoError(t, store.CreateNCERTTextbook(ctx, other))

	require.NoError(t, store.InsertTextbookChunks(ctx, []models.TextbookChunk{
		{TextbookID: book.ID, Position: 0, Text: "Leaves contain chlorophyll.", Embedding: []float32{1, 0}},
		{TextbookID: book.ID, Position: 1, Text: "Roots absorb water.", Embedding: []float32{0.9, 0.1}},
		{TextbookID: book.ID, Position: 2, Text: "Unrelated.", Embedding: []float32{0, 1}},
		{TextbookID: other.ID, Position: 0, Text: "Class 8 passage.", Embedding: []float32{1, 0}},
	}))
	return book
}

func TestAskGroundsAnswerInTextbook(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	u := seedUser(t, store, "a")
	book := seedScience(t, store)
	llm := &fakeLLM{reply: jsonReply}
	svc := NewKnowledgeService(store, llm, &fakeEmbedder{vec: []float32{1, 0}}, zap.NewNop())

	entry, err := svc.Ask(ctx, u.ID, Question{Question: " How do plants make food? ", Grade: 7, Subject: "Science"})
	require.NoError(t, err)

	assert.Equal(t, "How do plants make food?", entry.Question)
	assert.Equal(t, "Plants make food from sunlight.", entry.Answer)
	assert.Equal(t, "Chlorophyll captures light.", entry.Explanation)
	assert.Equal(t, 1.0, entry.Confidence)
	assert.Equal(t, "English", entry.Language)
	assert.Equal(t, []string{"A leaf is a kitchen"}, entry.Analogies)
	assert.Equal(t, []string{"Why are leaves green?"}, entry.FollowUpQuestions)
	assert.Equal(t, true, entry.Metadata["structured"])
	assert.Equal(t, 2, entry.Metadata["passages"])

	require.Len(t, entry.Sources, 1)
	assert.Equal(t, models.Source{Kind: "ncert", Title: "Science", Class: 7, Subject: "Science", URL: book.PDFURL}, entry.Sources[0])

	assert.Contains(t, llm.lastPrompt(), "Leaves contain chlorophyll.")
	assert.NotContains(t, llm.lastPrompt(), "Class 8 passage.")
	assert.NotContains(t, llm.lastPrompt(), "Unrelated.")

	history, err := svc.History(ctx, u.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entry.ID, history[0].ID)
}

func TestAskKeepsUnstructuredReply(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	u := seedUser(t, store, "a")
	svc := NewKnowledgeService(store, &fakeLLM{reply: "Plain text answer."}, nil, nil)

	entry, err := svc.Ask(ctx, u.ID, Question{Question: "What is a noun?", Language: "Hindi"})
	require.NoError(t, err)
	assert.Equal(t, "Plain text answer.", entry.Answer)
	assert.Zero(t, entry.Confidence)
	assert.Equal(t, false, entry.Metadata["structured"])
	assert.Empty(t, entry.Sources)
	assert.NotNil(t, entry.Analogies)
	assert.Equal(t, "Hindi", entry.Language)
}

func TestAskFailures(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	u := seedUser(t, store, "a")

	svc := NewKnowledgeService(store, &fakeLLM{reply: jsonReply}, &fakeEmbedder{vec: []float32{1, 0}}, nil)
	_, err := svc.Ask(ctx, u.ID, Question{Question: "  "})
	assert.True(t, models.IsValidation(err))
	_, err = svc.Ask(ctx, u.ID, Question{Question: "q", Grade: 13})
	assert.True(t, models.IsValidation(err))

	svc = NewKnowledgeService(store, &fakeLLM{reply: jsonReply}, &fakeEmbedder{err: errors.New("quota")}, nil)
	_, err = svc.Ask(ctx, u.ID, Question{Question: "q"})
	assert.ErrorIs(t, err, ErrUpstream)

	svc = NewKnowledgeService(store, &fakeLLM{err: errors.New("timeout")}, nil, nil)
	_, err = svc.Ask(ctx, u.ID, Question{Question: "q"})
	assert.ErrorIs(t, err, ErrUpstream)

	history, err := svc.History(ctx, u.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHistoryAndSearch(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	u := seedUser(t, store, "a")
	llm := &fakeLLM{}
	svc := NewKnowledgeService(store, llm, nil, nil)

	for _, q := range []string{"What is Photosynthesis?", "Define gravity", "photosynthesis in algae"} {
		llm.reply = `{"answer": "answer to ` + q + `"}`
		_, err := svc.Ask(ctx, u.ID, Question{Question: q, Subject: "Science", Grade: 7})
		require.NoError(t, err)
	}

	page, err := svc.History(ctx, u.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "photosynthesis in algae", page[0].Question)
	assert.Equal(t, "Define gravity", page[1].Question)

	found, err := svc.Search(ctx, u.ID, models.KnowledgeSearch{Query: "PHOTOSYNTHESIS"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "photosynthesis in algae", found[0].Question)

	found, err = svc.Search(ctx, u.ID, models.KnowledgeSearch{Query: "photosynthesis", Grade: 8})
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = svc.Search(ctx, u.ID, models.KnowledgeSearch{Query: " "})
	assert.True(t, models.IsValidation(err))

	_, err = svc.History(ctx, u.ID, 10, -1)
	assert.True(t, models.IsValidation(err))
}

func TestParseAnswer(t *testing.T) {
	a, ok := parseAnswer(`Sure! {"answer": "x", "confidence": 0.4} Hope that helps`)
	assert.True(t, ok)
	assert.Equal(t, "x", a.Answer)
	assert.Equal(t, 0.4, a.Confidence)

	a, ok = parseAnswer(`{"explanation": "no answer field"}`)
	assert.False(t, ok)
	assert.Equal(t, `{"explanation": "no answer field"}`, a.Answer)
}
