package audit

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"

	"trp_review/review"
)

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Review {{.Session.ID}}</title>
<style>
body { font-family: sans-serif; max-width: 60em; margin: 2em auto; padding: 0 1em; }
section { border: 1px solid #ccc; border-radius: 6px; padding: 0 1em; margin: 1em 0; }
h2 { font-size: 1.1em; }
.verdict { color: #555; font-style: italic; }
</style>
</head>
<body>
<h1>Review {{.Session.ID}}</h1>
<p>{{len .Session.Loops}} loop(s) — {{.Session.StopReason}}</p>
{{range .Loops}}
<section>
<h2>Loop {{.Index}}</h2>
<h3>Critique</h3>
{{.CritiqueHTML}}
<h3>Revision</h3>
{{.RevisionHTML}}
<p class="verdict">{{.Rationale}}</p>
</section>
{{end}}
<h2>Final document</h2>
{{.FinalHTML}}
</body>
</html>
`))

type reportLoop struct {
	Index        int
	CritiqueHTML template.HTML
	RevisionHTML template.HTML
	Rationale    string
}

type reportData struct {
	Session   *review.Session
	Loops     []reportLoop
	FinalHTML template.HTML
}

// WriteHTML renders a finished session as a standalone HTML report. Critique
// and revision text is treated as markdown.
func WriteHTML(w io.Writer, sess *review.Session) error {
	if sess == nil {
		return fmt.Errorf("session is nil")
	}
	data := reportData{Session: sess}
	for _, lp := range sess.Loops {
		critique, err := RenderMarkdown(lp.Critique)
		if err != nil {
			return err
		}
		revision, err := RenderMarkdown(lp.Revision)
		if err != nil {
			return err
		}
		data.Loops = append(data.Loops, reportLoop{
			Index:        lp.Index,
			CritiqueHTML: critique,
			RevisionHTML: revision,
			Rationale:    lp.Verdict.Rationale,
		})
	}
	final, err := RenderMarkdown(sess.Final)
	if err != nil {
		return err
	}
	data.FinalHTML = final
	return reportTmpl.Execute(w, data)
}

// RenderMarkdown converts markdown text to HTML for display.
func RenderMarkdown(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}
