package changes

import (
	"fmt"
	"strings"
)

// Terminal markers. Exactly one is emitted when a summary stops early and any
// marker fits the limits. MarkerTruncated stands in when the stop's own marker
// is too large.
const (
	MarkerHeaderLimit = "... (size limit reached before next file header) ..."
	MarkerDiffLimit   = "... (size limit reached inside diff) ..."
	MarkerTruncated   = "... (truncated) ..."
)

// FilesNotShownMarker reports the input files left out once the file limit
// was hit. Files past the limit are never diffed, so n includes unchanged
// files.
func FilesNotShownMarker(n int) string {
	return fmt.Sprintf("... (%d remaining files not shown) ...", n)
}

// LinesOmittedMarker reports diff lines dropped by the per-file line limit.
func LinesOmittedMarker(n int) string {
	return fmt.Sprintf("... (%d lines omitted) ...", n)
}

// FileHeader is the line that introduces a file's diff in a summary.
func FileHeader(path string) string {
	return "=== Changes in: " + path + " ==="
}

// StopReason records why a summary ended before the input was exhausted.
type StopReason string

const (
	StopNone        StopReason = ""
	StopMaxFiles    StopReason = "max_files"
	StopHeaderLimit StopReason = "header_limit"
	StopDiffLimit   StopReason = "diff_limit"
)

// Summary is the bounded diff text produced by Summarize.
type Summary struct {
	Text string `json:"-"`
	// FilesEmitted counts files that contributed at least one diff line.
	FilesEmitted int `json:"filesEmitted"`
	// FilesUnchanged counts files skipped because before equals after.
	FilesUnchanged int `json:"filesUnchanged"`
	// FilesClipped counts files cut by the per-file line limit.
	FilesClipped int        `json:"filesClipped"`
	Stop         StopReason `json:"stop,omitempty"`
	Chars        int        `json:"chars"`
	Tokens       int        `json:"tokens"`
}

// Truncated reports whether any content was left out of the summary.
func (s Summary) Truncated() bool {
	return s.Stop != StopNone || s.FilesClipped > 0
}

// Summarize builds a summary of changes that never exceeds the character and
// approximate-token limits of budget. Files are taken in input order; the
// earliest content wins. Every line is checked against the limits before it
// is appended. When a limit stops the summary, trailing lines are dropped
// until the terminal marker fits, so the reader always sees why content
// ends. Only a limit smaller than every marker leaves the summary unmarked.
func Summarize(changes []FileChange, budget Budget) Summary {
	b := budget.Resolve()
	w := &lineWriter{maxChars: b.MaxChars, maxTokens: b.MaxApproxTokens}

	var out Summary
	emitted := 0
	for i, c := range changes {
		if Limited(b.MaxFiles) && emitted >= b.MaxFiles {
			w.terminate(FilesNotShownMarker(len(changes) - i))
			out.Stop = StopMaxFiles
			break
		}

		rec := Diff(c.Before, c.After, c.Path)
		if rec.Empty() {
			out.FilesUnchanged++
			continue
		}

		if !w.append(FileHeader(c.Path), i, lineHeader) {
			w.terminate(MarkerHeaderLimit)
			out.Stop = StopHeaderLimit
			break
		}

		body := rec.Lines
		omitted := 0
		if Limited(b.MaxLinesPerFile) && len(body) > b.MaxLinesPerFile {
			omitted = len(body) - b.MaxLinesPerFile
			body = body[:b.MaxLinesPerFile]
		}

		written := 0
		for _, line := range body {
			if !w.append(line, i, lineBody) {
				out.Stop = StopDiffLimit
				break
			}
			written++
		}
		if out.Stop == StopNone && omitted > 0 && !w.append(LinesOmittedMarker(omitted), i, lineOmitted) {
			out.Stop = StopDiffLimit
		}
		if written > 0 {
			emitted++
		}
		if out.Stop == StopDiffLimit {
			w.terminate(MarkerDiffLimit)
			break
		}
	}

	out.FilesEmitted, out.FilesClipped = w.fileCounts()
	out.Text = strings.TrimSpace(w.text())
	out.Chars = CharCount(out.Text)
	out.Tokens = ApproxTokens(out.Text)
	return out
}

type lineKind int

const (
	lineHeader lineKind = iota
	lineBody
	lineOmitted
	lineMarker
)

type summaryLine struct {
	text string
	file int
	kind lineKind
}

type lineWriter struct {
	lines     []summaryLine
	used      size
	maxChars  int
	maxTokens int
}

func (w *lineWriter) fits(s size) bool {
	return s.within(w.maxChars, w.maxTokens)
}

// append adds line if the result stays within the limits.
func (w *lineWriter) append(text string, file int, kind lineKind) bool {
	next := w.used.add(w.used.cost(text))
	if !w.fits(next) {
		return false
	}
	w.lines = append(w.lines, summaryLine{text: text, file: file, kind: kind})
	w.used = next
	return true
}

// pop removes the last line.
func (w *lineWriter) pop() {
	last := w.lines[len(w.lines)-1]
	w.lines = w.lines[:len(w.lines)-1]
	c := size{lines: len(w.lines)}.cost(last.text)
	w.used = size{
		chars:  w.used.chars - c.chars,
		tokens: w.used.tokens - c.tokens,
		lines:  w.used.lines - 1,
	}
}

// terminate appends marker, or MarkerTruncated when marker alone exceeds the
// limits, dropping trailing lines until it fits. A file header left without
// any of its lines is dropped too. When no marker fits, nothing changes.
func (w *lineWriter) terminate(marker string) {
	for _, m := range []string{marker, MarkerTruncated} {
		if !w.fits(size{}.cost(m)) {
			continue
		}
		for !w.fits(w.used.add(w.used.cost(m))) {
			w.pop()
		}
		if n := len(w.lines); n > 0 && w.lines[n-1].kind == lineHeader {
			w.pop()
		}
		w.used = w.used.add(w.used.cost(m))
		w.lines = append(w.lines, summaryLine{text: m, file: -1, kind: lineMarker})
		return
	}
}

// fileCounts returns how many files kept at least one diff line and how many
// kept their lines-omitted marker.
func (w *lineWriter) fileCounts() (emitted, clipped int) {
	last := -1
	for _, l := range w.lines {
		switch l.kind {
		case lineBody:
			if l.file != last {
				emitted++
				last = l.file
			}
		case lineOmitted:
			clipped++
		}
	}
	return emitted, clipped
}

func (w *lineWriter) text() string {
	parts := make([]string, len(w.lines))
	for i, l := range w.lines {
		parts[i] = l.text
	}
	return strings.Join(parts, "\n")
}
