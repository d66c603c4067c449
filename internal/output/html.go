package output

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dshills/archcheck/internal/review"
)

// HTMLWriter renders the markdown report as a standalone HTML page. Raw HTML
// in the analysis is dropped by the renderer rather than passed through.
type HTMLWriter struct{}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; max-width: 60rem; margin: 2rem auto; line-height: 1.5; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.25rem 0.75rem; text-align: left; }
code { background: #f4f4f4; padding: 0 0.2rem; }
</style>
</head>
<body>
`

func (h *HTMLWriter) Write(w io.Writer, report *review.Report) error {
	var md bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&md, report); err != nil {
		return err
	}
	var body bytes.Buffer
	if err := markdown.Convert(md.Bytes(), &body); err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}

	ew := &errWriter{w: w}
	ew.printf(htmlHead, html.EscapeString("Architecture Review "+report.RunID))
	if ew.err == nil {
		_, ew.err = w.Write(body.Bytes())
	}
	ew.printf("</body>\n</html>\n")
	return ew.err
}
