package ingestion_engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	db "github.com/markdave123-py/EduAI/internal/core/database"
	"github.com/markdave123-py/EduAI/internal/models"
)

func TestCatalogEntries(t *testing.T) {
	c := NewCatalog("https://ncert.nic.in/")
	entries := c.Entries()

	// 76 class/subject pairs, three languages each
	require.Len(t, entries, 228)

	first := entries[0]
	assert.Equal(t, 1, first.Class)
	assert.Equal(t, "Mathematics", first.Subject)
	assert.Equal(t, "English", first.Language)
	assert.Equal(t, "Math-Magic", first.BookTitle)
	assert.Equal(t, "https://ncert.nic.in/textbook/pdf/01mathematicsen.pdf", first.PDFURL)
	assert.Equal(t, "ncert.nic.in", first.Metadata["source"])
	assert.Equal(t, false, first.Metadata["verified"])

	for _, e := range entries {
		require.NoError(t, e.Validate(), "%d %s %s", e.Class, e.Subject, e.Language)
	}
}

func TestCatalogNaming(t *testing.T) {
	c := NewCatalog("https://ncert.nic.in")

	assert.Equal(t, "https://ncert.nic.in/textbook/pdf/12politicalsciencehi.pdf", c.PDFURL(12, "Political Science", "Hindi"))
	assert.Equal(t, "https://ncert.nic.in/textbook/pdf/03environmentalstudiesur.pdf", c.PDFURL(3, "Environmental Studies", "Urdu"))
	assert.Equal(t, "Flamingo & Vistas", c.BookTitle(12, "English"))
	assert.Equal(t, "Physics - Class 11", c.BookTitle(11, "Physics"))
	assert.Nil(t, c.Subjects(13))
	assert.Contains(t, c.Subjects(9), "Information Technology")
}

func TestScrapeReplacesCatalog(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()

	stale := &models.NCERTTextbook{Class: 1, Subject: "Old", BookTitle: "Old", Language: "English", PDFURL: "https://ncert.nic.in/old.pdf"}
	require.NoError(t, store.CreateNCERTTextbook(ctx, stale))

	s := NewScraper(store, NewCatalog("https://ncert.nic.in"), zap.NewNop())
	created, err := s.Scrape(ctx)
	require.NoError(t, err)
	require.Len(t, created, 228)

	// ids keep counting after a clear
	assert.Equal(t, int64(2), created[0].ID)

	all, err := store.ListNCERTTextbooks(ctx, models.TextbookFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 228)

	_, err = store.GetNCERTTextbook(ctx, stale.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	class10Science, err := store.ListNCERTTextbooks(ctx, models.TextbookFilter{Class: 10, Subject: "Science"})
	require.NoError(t, err)
	assert.Len(t, class10Science, 3)
}
