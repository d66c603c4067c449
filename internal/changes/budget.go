package changes

import (
	"strings"
	"unicode/utf8"
)

// Default limits applied when a Budget field is zero.
const (
	DefaultMaxChars        = 24000
	DefaultMaxApproxTokens = 6000
	DefaultMaxFiles        = 10
	DefaultMaxLinesPerFile = 50
	DefaultMaxPromptChars  = 32000
	DefaultMaxPromptTokens = 8000
)

// Budget bounds the size of the change summary and of the final prompt.
// A zero field means "use the default"; a negative field disables that limit.
type Budget struct {
	MaxChars        int `json:"maxChars" toml:"maxChars"`
	MaxApproxTokens int `json:"maxApproxTokens" toml:"maxApproxTokens"`
	MaxFiles        int `json:"maxFiles" toml:"maxFiles"`
	MaxLinesPerFile int `json:"maxLinesPerFile" toml:"maxLinesPerFile"`
	MaxPromptChars  int `json:"maxPromptChars" toml:"maxPromptChars"`
	MaxPromptTokens int `json:"maxPromptTokens" toml:"maxPromptTokens"`
}

// DefaultBudget returns a Budget with every limit set to its default.
func DefaultBudget() Budget {
	return Budget{}.Resolve()
}

// Resolve replaces zero fields with their defaults.
func (b Budget) Resolve() Budget {
	b.MaxChars = orDefault(b.MaxChars, DefaultMaxChars)
	b.MaxApproxTokens = orDefault(b.MaxApproxTokens, DefaultMaxApproxTokens)
	b.MaxFiles = orDefault(b.MaxFiles, DefaultMaxFiles)
	b.MaxLinesPerFile = orDefault(b.MaxLinesPerFile, DefaultMaxLinesPerFile)
	b.MaxPromptChars = orDefault(b.MaxPromptChars, DefaultMaxPromptChars)
	b.MaxPromptTokens = orDefault(b.MaxPromptTokens, DefaultMaxPromptTokens)
	return b
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// Limited reports whether n is an active limit (positive after Resolve).
func Limited(n int) bool {
	return n > 0
}

// CharCount returns the length of s in runes.
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}

// ApproxTokens returns the number of whitespace-delimited words in s.
func ApproxTokens(s string) int {
	return len(strings.Fields(s))
}

// size tracks the chars and approximate tokens of text built by joining
// lines with "\n".
type size struct {
	chars  int
	tokens int
	lines  int
}

// cost returns the size added by appending line.
func (s size) cost(line string) size {
	c := CharCount(line)
	if s.lines > 0 {
		c++
	}
	return size{chars: c, tokens: ApproxTokens(line), lines: 1}
}

func (s size) add(o size) size {
	return size{chars: s.chars + o.chars, tokens: s.tokens + o.tokens, lines: s.lines + o.lines}
}

// within reports whether s fits inside the active char and token limits.
func (s size) within(maxChars, maxTokens int) bool {
	if Limited(maxChars) && s.chars > maxChars {
		return false
	}
	if Limited(maxTokens) && s.tokens > maxTokens {
		return false
	}
	return true
}
