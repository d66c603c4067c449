// Package gitctx collects before/after file snapshots from a git repository.
//
// It supports the four git evaluation sources (unstaged, staged, commit and
// range) by shelling out to git. For every changed path it reads the full
// content on both sides of the change and returns them as
// [changes.FileChange] values, together with git's own unified diff, which
// is kept as the raw text for relation detection.
//
// Paths are filtered by include/exclude glob patterns. Binary and oversized
// files are skipped.
package gitctx
