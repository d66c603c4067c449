package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLWriter(t *testing.T) {
	out := render(t, &HTMLWriter{}, testReport())

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Architecture Review run-1</title>")
	assert.Contains(t, out, "<h2>Architecture Review</h2>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<code>Controller -&gt; Repository</code>")
	assert.True(t, strings.HasSuffix(out, "</html>\n"))
}

func TestHTMLWriter_DropsRawHTML(t *testing.T) {
	r := testReport()
	r.Analysis = "<script>alert(1)</script>\n\nScore=0.9"
	r.RunID = "<x>"

	out := render(t, &HTMLWriter{}, r)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "Score=0.9")
	assert.Contains(t, out, "<title>Architecture Review &lt;x&gt;</title>")
}
