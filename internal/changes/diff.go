package changes

import (
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// ContextLines is the number of unchanged lines shown around each hunk.
const ContextLines = 3

// FileChange is one file's full content before and after a change.
type FileChange struct {
	Path   string `json:"path"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// DiffRecord is the unified diff body for one file. Lines is empty when the
// file did not change.
type DiffRecord struct {
	Path  string
	Lines []string
}

// Empty reports whether the record carries no diff lines.
func (r DiffRecord) Empty() bool {
	return len(r.Lines) == 0
}

// Diff computes the unified diff between before and after. Headers reference
// a/path and b/path. Identical inputs (line-wise) produce an empty record.
func Diff(before, after, path string) DiffRecord {
	rec := DiffRecord{Path: path}
	a := splitLines(before)
	b := splitLines(after)
	if slices.Equal(a, b) {
		return rec
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        terminate(a),
		B:        terminate(b),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  ContextLines,
	})
	if err != nil || text == "" {
		return rec
	}
	rec.Lines = strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	return rec
}

// DiffAll computes a record for every change, in order.
func DiffAll(changes []FileChange) []DiffRecord {
	out := make([]DiffRecord, 0, len(changes))
	for _, c := range changes {
		out = append(out, Diff(c.Before, c.After, c.Path))
	}
	return out
}

// JoinRecords concatenates the lines of every non-empty record.
func JoinRecords(records []DiffRecord) string {
	var b strings.Builder
	for _, r := range records {
		for _, l := range r.Lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// splitLines splits s into lines without line terminators. A trailing newline
// does not produce an extra empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func terminate(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}
