// Package export renders a completed story into shareable documents.
package export

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"

	"github.com/storyforge/storyforge/internal/story"
)

// renderFunc writes one output format for a finished story.
type renderFunc func(w io.Writer, st *story.State, final story.Artifact) error

// renderers maps a format name to its implementation.
var renderers = map[string]renderFunc{
	"markdown": renderMarkdown,
	"plain":    renderPlain,
	"html":     renderHTML,
}

// Formats returns the supported format names, sorted.
func Formats() []string {
	out := make([]string, 0, len(renderers))
	for name := range renderers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Export renders the story's final artifact in the named format.
func Export(w io.Writer, format string, st *story.State, final story.Artifact) error {
	render, ok := renderers[format]
	if !ok {
		return fmt.Errorf("unknown format %q (supported: %s)", format, strings.Join(Formats(), ", "))
	}
	return render(w, st, final)
}

// displayTitle falls back to a generated title when the run has none.
func displayTitle(st *story.State) string {
	if st.Title != "" {
		return st.Title
	}
	return fmt.Sprintf("Untitled %s Story", st.Genre)
}

func metaLine(st *story.State) string {
	parts := []string{fmt.Sprintf("Genre: %s", st.Genre)}
	if st.Chapter > 1 || st.SeedRunID != "" {
		parts = append(parts, fmt.Sprintf("Chapter %d", st.Chapter))
	}
	if st.WordCount > 0 {
		parts = append(parts, fmt.Sprintf("%d words", st.WordCount))
	}
	return strings.Join(parts, " | ")
}

func renderMarkdown(w io.Writer, st *story.State, final story.Artifact) error {
	_, err := fmt.Fprintf(w, "# %s\n\n*%s*\n\n%s\n", displayTitle(st), metaLine(st), final.Payload)
	return err
}

func renderPlain(w io.Writer, st *story.State, final story.Artifact) error {
	title := displayTitle(st)
	underline := strings.Repeat("=", len(title))
	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n\n%s\n", title, underline, metaLine(st), final.Payload)
	return err
}

var htmlPage = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<p><em>{{.Meta}}</em></p>
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}</body>
</html>
`))

func renderHTML(w io.Writer, st *story.State, final story.Artifact) error {
	var paragraphs []string
	for _, p := range strings.Split(final.Payload, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return htmlPage.Execute(w, struct {
		Title      string
		Meta       string
		Paragraphs []string
	}{
		Title:      displayTitle(st),
		Meta:       metaLine(st),
		Paragraphs: paragraphs,
	})
}
