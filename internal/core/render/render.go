// Package render turns generated markdown into a printable HTML document.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Document is the input of Render. Body is markdown.
type Document struct {
	Title       string
	AgentLabel  string
	Body        string
	Grades      []int
	Languages   []string
	GeneratedAt time.Time
}

type Renderer struct {
	md   goldmark.Markdown
	page *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{
		md:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
		page: template.Must(template.New("page").Parse(pageTemplate)),
	}
}

// Render returns a self contained HTML page. Raw HTML inside Body is not
// passed through.
func (r *Renderer) Render(doc Document) ([]byte, error) {
	var body bytes.Buffer
	if err := r.md.Convert([]byte(doc.Body), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	data := struct {
		Title       string
		AgentLabel  string
		Grades      string
		Languages   string
		GeneratedAt string
		Body        template.HTML
	}{
		Title:       doc.Title,
		AgentLabel:  doc.AgentLabel,
		Grades:      joinGrades(doc.Grades),
		Languages:   strings.Join(doc.Languages, ", "),
		GeneratedAt: doc.GeneratedAt.UTC().Format("02 Jan 2006 15:04 MST"),
		Body:        template.HTML(body.String()),
	}

	var out bytes.Buffer
	if err := r.page.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return out.Bytes(), nil
}

func joinGrades(grades []int) string {
	parts := make([]string, len(grades))
	for i, g := range grades {
		parts[i] = strconv.Itoa(g)
	}
	return strings.Join(parts, ", ")
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Georgia, serif; max-width: 48rem; margin: 2rem auto; line-height: 1.5; }
header { border-bottom: 2px solid #333; margin-bottom: 1.5rem; }
.meta { color: #555; font-size: 0.9rem; }
table { border-collapse: collapse; }
td, th { border: 1px solid #999; padding: 0.25rem 0.5rem; }
@media print { body { margin: 0; } }
</style>
</head>
<body>
<header>
<h1>{{.Title}}</h1>
<p class="meta">{{if .AgentLabel}}{{.AgentLabel}} · {{end}}{{if .Grades}}Grades {{.Grades}} · {{end}}{{if .Languages}}{{.Languages}} · {{end}}{{.GeneratedAt}}</p>
</header>
<main>
{{.Body}}
</main>
</body>
</html>
`
