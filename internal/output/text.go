package output

import (
	"io"
	"strings"

	"github.com/dshills/archcheck/internal/review"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}

	ew.printf("Architecture Review: %s\n", sourceLabel(report.Inputs))
	if report.Inputs.Range != "" {
		ew.printf("Range: %s\n", report.Inputs.Range)
	}
	if report.Inputs.DeveloperEmail != "" || report.Inputs.ReviewerEmail != "" {
		ew.printf("Developer: %s | Reviewer: %s\n", orDash(report.Inputs.DeveloperEmail), orDash(report.Inputs.ReviewerEmail))
	}
	ew.printf("Model: %s/%s\n", report.Provider, report.Model)
	ew.println(strings.Repeat("─", 60))
	ew.printf("Score: %s | Threshold: %.2f\n", scoreText(report.Score), report.Decision.Threshold)
	ew.printf("Decision: %s (%s, advisory)\n", report.Decision.Action, report.Decision.Mode)

	s := report.Summary
	ew.printf("Files: %d summarized, %d unchanged", s.FilesEmitted, s.FilesUnchanged)
	if s.FilesClipped > 0 {
		ew.printf(", %d clipped", s.FilesClipped)
	}
	if s.Stop != "" {
		ew.printf(" (summary stopped: %s)", s.Stop)
	}
	ew.println("")

	if rels := relationText(*report); len(rels) > 0 {
		ew.printf("Relations: %s\n", strings.Join(rels, ", "))
	}
	for _, m := range report.Models {
		ew.printf("  %-32s score %s  %s\n", m.Label, scoreText(m.Score), m.Decision.Action)
	}
	ew.println(strings.Repeat("─", 60))

	analysis := strings.TrimSpace(report.Analysis)
	if analysis == "" {
		analysis = "(empty response)"
	}
	ew.printf("\n%s\n", analysis)

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Completed in %dms (prepare: %dms, LLM: %dms)", report.Timing.TotalMs, report.Timing.PrepareMs, report.Timing.LLMMs)
	if report.Cached {
		ew.printf(" [cached]")
	}
	ew.println("")

	return ew.err
}

func sourceLabel(in review.InputInfo) string {
	if in.Source == "" {
		return "request"
	}
	return in.Source
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
