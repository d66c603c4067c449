package output

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/archcheck/internal/changes"
	"github.com/dshills/archcheck/internal/review"
)

func TestMarkdownWriter(t *testing.T) {
	out := render(t, &MarkdownWriter{}, testReport())

	for _, want := range []string{
		"## Architecture Review",
		"| Score | 0.55 |",
		"| Threshold | 0.70 |",
		"| Decision | :warning: WOULD_BLOCK |",
		"| Mode | enforce (advisory) |",
		"| Model | `openai/gpt-4o` |",
		"- `Controller -> Repository`",
		"<details open>",
		"Score=0.55",
		"*Evaluated in 1203ms (LLM: 1200ms)*",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "truncated")
}

func TestMarkdownWriter_NoneDecision(t *testing.T) {
	r := testReport()
	r.Decision.Action = review.ActionNone
	r.Relations = nil
	r.Cached = true
	r.Summary = changes.Summary{Stop: changes.StopDiffLimit}

	out := render(t, &MarkdownWriter{}, r)
	assert.Contains(t, out, "| Decision | :white_check_mark: NONE |")
	assert.NotContains(t, out, "Relations introduced")
	assert.Contains(t, out, "summary was truncated")
	assert.Contains(t, out, ", cached*")
}

func TestMarkdownWriter_CompareTable(t *testing.T) {
	r := testReport()
	r.Models = []review.ModelResult{
		{Label: "openai:gpt-4o", Score: review.ScoreResult{Value: 0.8, Found: true}, Decision: review.Decision{Action: review.ActionNone}},
		{Label: "ollama:llama3", Decision: review.Decision{Action: review.ActionNone}},
	}

	out := render(t, &MarkdownWriter{}, r)
	assert.Contains(t, out, "| `openai:gpt-4o` | 0.80 | NONE |")
	assert.Contains(t, out, "| `ollama:llama3` | not found (default 0.00) | NONE |")
}
