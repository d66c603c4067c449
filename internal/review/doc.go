// Package review turns a change request into an advisory architecture
// evaluation.
//
// The [Engine] runs the pipeline for one [Request]: secrets are redacted from
// the file snapshots, the diagram is reduced to a [diagram.Model], relations
// are detected from the raw diff, the changes are summarized within the
// configured budget, and an [Assembler] builds the prompt. The prompt is sent
// to a [providers.Generator] (or served from the response cache), the score is
// parsed from the free-form answer with [ExtractScore], and [Decide] labels
// the result. The decision is advisory; nothing is ever blocked.
//
// Every step except generation is total: malformed or oversized input
// degrades to a smaller prompt, never to an error. Generation errors are
// returned to the caller unchanged.
//
// Compare mode (compare.go) sends the same prompt to several provider:model
// pairs concurrently and reports each model's score next to their mean.
package review
