package objectclient

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/EduAI/internal/models"
)

func TestMemoryClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()

	url, err := c.UploadFile(ctx, "docs/a.html", strings.NewReader("<p>hi</p>"), "text/html")
	require.NoError(t, err)
	assert.Equal(t, "memory://docs/a.html", url)
	assert.Equal(t, "text/html", c.ContentType("docs/a.html"))

	got, err := c.GetFile(ctx, "docs/a.html")
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(got))

	require.NoError(t, c.DeleteFile(ctx, "docs/a.html"))
	_, err = c.GetFile(ctx, "docs/a.html")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestNewKeyKeepsExtension(t *testing.T) {
	k1 := NewKey("ncert", "book.pdf")
	k2 := NewKey("ncert", "book.pdf")

	assert.True(t, strings.HasPrefix(k1, "ncert/"))
	assert.True(t, strings.HasSuffix(k1, ".pdf"))
	assert.NotEqual(t, k1, k2)
}
