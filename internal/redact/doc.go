// Package redact removes secrets from source snapshots before they are diffed
// and sent to any LLM provider.
//
// Detection uses regex heuristics for common secret shapes: API keys, JWTs,
// private keys, AWS credentials, bearer tokens, connection strings with
// embedded passwords, and provider-specific tokens.
//
// Files whose paths match configured glob patterns have their whole content
// replaced instead of being scanned line by line.
package redact
