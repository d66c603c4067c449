package output

import (
	"io"
	"strings"

	"github.com/dshills/archcheck/internal/review"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}

	ew.printf("## Architecture Review\n\n")
	ew.printf("| | |\n")
	ew.printf("|---|---|\n")
	ew.printf("| Score | %s |\n", scoreText(report.Score))
	ew.printf("| Threshold | %.2f |\n", report.Decision.Threshold)
	ew.printf("| Decision | %s %s |\n", decisionIcon(report.Decision.Action), report.Decision.Action)
	ew.printf("| Mode | %s (advisory) |\n", report.Decision.Mode)
	ew.printf("| Model | `%s/%s` |\n", report.Provider, report.Model)
	ew.printf("| Files | %d summarized, %d unchanged |\n\n", report.Summary.FilesEmitted, report.Summary.FilesUnchanged)

	if len(report.Models) > 0 {
		ew.printf("| Model | Score | Decision |\n")
		ew.printf("|---|---|---|\n")
		for _, mr := range report.Models {
			ew.printf("| `%s` | %s | %s |\n", mr.Label, scoreText(mr.Score), mr.Decision.Action)
		}
		ew.println("")
	}

	if rels := relationText(*report); len(rels) > 0 {
		ew.printf("**Relations introduced by the change:**\n\n")
		for _, r := range rels {
			ew.printf("- `%s`\n", r)
		}
		ew.println("")
	}

	if report.Summary.Truncated() {
		ew.printf("> The change summary was truncated to fit the prompt budget.\n\n")
	}

	ew.printf("<details open>\n<summary>Analysis</summary>\n\n")
	ew.printf("%s\n\n", strings.TrimSpace(report.Analysis))
	ew.printf("</details>\n\n")

	ew.printf("*Evaluated in %dms (LLM: %dms)", report.Timing.TotalMs, report.Timing.LLMMs)
	if report.Cached {
		ew.printf(", cached")
	}
	ew.printf("*\n")
	return ew.err
}

func decisionIcon(a review.Action) string {
	if a == review.ActionWouldBlock {
		return ":warning:"
	}
	return ":white_check_mark:"
}
