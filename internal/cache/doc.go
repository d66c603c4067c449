// Package cache stores LLM evaluation responses so an identical prompt is not
// sent twice.
//
// Entries are keyed by a SHA-256 hash of the provider name, model, output
// token limit and the assembled prompt. Because prompt assembly is
// deterministic, equal inputs always map to the same key.
//
// Two tiers are kept: a bounded in-memory LRU in front of JSON files on disk.
// Each file stores the raw response with its creation time and TTL (in
// seconds). Expired entries are skipped on read; Prune deletes them and Clear
// deletes everything.
//
// The default cache directory is $XDG_CACHE_HOME/archcheck (or the
// OS-appropriate equivalent). Prompts have already been through secret
// redaction before they reach the cache.
package cache
