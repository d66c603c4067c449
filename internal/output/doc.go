// Package output formats evaluation reports for display or machine consumption.
//
// Four formats are supported:
//   - text: human-readable terminal output (default)
//   - json: full structured JSON report
//   - markdown: PR-comment-friendly summary with the analysis in a collapsible section
//   - html: the markdown report rendered to a standalone page with goldmark
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*review.Report]. [WriteReport]
// renders straight into a file, and [FormatForPath] guesses a format from a
// file extension.
package output
