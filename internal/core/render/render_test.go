package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdownDocument(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render(Document{
		Title:       "Photosynthesis <Lesson>",
		AgentLabel:  "Lesson Planner",
		Body:        "## Objectives\n\n- Explain **chlorophyll**\n\n| a | b |\n|---|---|\n| 1 | 2 |\n",
		Grades:      []int{6, 7},
		Languages:   []string{"English", "Hindi"},
		GeneratedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "<title>Photosynthesis &lt;Lesson&gt;</title>")
	assert.Contains(t, html, "<h2>Objectives</h2>")
	assert.Contains(t, html, "<strong>chlorophyll</strong>")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "Grades 6, 7")
	assert.Contains(t, html, "English, Hindi")
	assert.Contains(t, html, "01 Mar 2024 10:00 UTC")
}

func TestRenderDropsRawHTML(t *testing.T) {
	out, err := NewRenderer().Render(Document{Title: "x", Body: "hello <script>alert(1)</script>"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<script>")
}
