// Package logger configures log/slog for archcheck and carries a logger
// through context.Context.
//
// Diagnostics such as budget truncation, cache hits and provider latency are
// logged here. Messages meant for the user (errors, warnings about disabled
// redaction) are still printed directly by the CLI.
package logger
