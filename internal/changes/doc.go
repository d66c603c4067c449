// Package changes turns per-file before/after snapshots into a bounded
// textual diff summary.
//
// Diff computes a conventional unified diff for one file. Summarize walks the
// files in input order and appends headers and diff lines while a Budget
// holds, checking every limit before each line is committed. When a limit is
// reached a fixed marker line records why the summary ends early and nothing
// further is appended.
//
// Sizes are measured in characters (runes) and in approximate tokens, where a
// token is a whitespace-delimited word.
package changes
