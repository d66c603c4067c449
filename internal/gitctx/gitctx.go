package gitctx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dshills/archcheck/internal/changes"
)

// DefaultMaxFileBytes is the per-file size limit applied when Options leaves it unset.
const DefaultMaxFileBytes = 1 << 20 // 1MB

// Options controls which files are collected.
type Options struct {
	Include      []string
	Exclude      []string
	MaxFileBytes int
}

// Snapshot holds the collected file changes and metadata.
type Snapshot struct {
	Changes []changes.FileChange
	RawDiff string
	Source  string
	Range   string
	Skipped []string
	Repo    RepoMeta
}

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// GetRepoMeta collects repository metadata from git.
func GetRepoMeta(ctx context.Context) (RepoMeta, error) {
	root, err := gitOutput(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := gitOutput(ctx, "rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := gitOutput(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// side names where one half of a snapshot is read from. The zero value is
// the empty tree.
type side struct {
	rev      string
	index    bool
	worktree bool
}

func (s side) read(ctx context.Context, root, path string) (string, error) {
	switch {
	case s.worktree:
		data, err := os.ReadFile(filepath.Join(root, path))
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		return string(data), nil
	case s.index:
		return showBlob(ctx, ":"+path)
	case s.rev != "":
		return showBlob(ctx, s.rev+":"+path)
	default:
		return "", nil
	}
}

// showBlob returns the content of spec. A path missing at that revision
// yields empty content.
func showBlob(ctx context.Context, spec string) (string, error) {
	if _, err := gitOutput(ctx, "cat-file", "-e", spec); err != nil {
		return "", nil
	}
	out, err := gitOutput(ctx, "show", spec)
	if err != nil {
		return "", fmt.Errorf("git show %s: %w", spec, err)
	}
	return out, nil
}

// diffCmd is a git diff invocation split so options can be appended before
// the revisions.
type diffCmd struct {
	args []string
	revs []string
}

func (d diffCmd) with(opts ...string) []string {
	out := append(append([]string{}, d.args...), opts...)
	return append(out, d.revs...)
}

func (d diffCmd) String() string {
	return strings.Join(d.with(), " ")
}

// Unstaged returns the changes of the working tree against the index.
func Unstaged(ctx context.Context, opts Options) (Snapshot, error) {
	cmd := diffCmd{args: []string{"diff"}}
	return collect(ctx, "unstaged", "", cmd, side{index: true}, side{worktree: true}, opts)
}

// Staged returns the changes of the index against HEAD, or against the
// empty tree before the first commit.
func Staged(ctx context.Context, opts Options) (Snapshot, error) {
	before := side{}
	if head, err := verifyRev(ctx, "HEAD"); err == nil {
		before.rev = head
	}
	cmd := diffCmd{args: []string{"diff", "--cached"}}
	return collect(ctx, "staged", "", cmd, before, side{index: true}, opts)
}

// Commit returns the changes introduced by a single commit. A root commit is
// compared against the empty tree.
func Commit(ctx context.Context, sha string, opts Options) (Snapshot, error) {
	commit, err := verifyRev(ctx, sha)
	if err != nil {
		return Snapshot{}, err
	}
	before := side{}
	cmd := diffCmd{args: []string{"diff-tree", "-r", "--root", "--no-commit-id"}, revs: []string{commit}}
	if parent, err := verifyRev(ctx, commit+"~1"); err == nil {
		before.rev = parent
		cmd = diffCmd{args: []string{"diff"}, revs: []string{parent, commit}}
	}
	return collect(ctx, "commit", sha, cmd, before, side{rev: commit}, opts)
}

// Range returns the combined changes of a revision range "a..b". With
// mergeBase set, or for "a...b", the left side is the merge base of a and b.
func Range(ctx context.Context, revRange string, mergeBase bool, opts Options) (Snapshot, error) {
	from, to, ok := strings.Cut(revRange, "...")
	if ok {
		mergeBase = true
	} else if from, to, ok = strings.Cut(revRange, ".."); !ok {
		return Snapshot{}, fmt.Errorf("invalid range %q: expected <from>..<to>", revRange)
	}
	if to == "" {
		to = "HEAD"
	}
	fromRev, err := verifyRev(ctx, from)
	if err != nil {
		return Snapshot{}, err
	}
	toRev, err := verifyRev(ctx, to)
	if err != nil {
		return Snapshot{}, err
	}
	if mergeBase {
		base, err := gitOutput(ctx, "merge-base", fromRev, toRev)
		if err != nil {
			return Snapshot{}, fmt.Errorf("git merge-base %s %s: %w", from, to, err)
		}
		fromRev = strings.TrimSpace(base)
	}
	cmd := diffCmd{args: []string{"diff"}, revs: []string{fromRev, toRev}}
	return collect(ctx, "range", revRange, cmd, side{rev: fromRev}, side{rev: toRev}, opts)
}

func verifyRev(ctx context.Context, rev string) (string, error) {
	out, err := gitOutput(ctx, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("unknown revision %q", rev)
	}
	return strings.TrimSpace(out), nil
}

func collect(ctx context.Context, source, rangeStr string, cmd diffCmd, before, after side, opts Options) (Snapshot, error) {
	meta, err := GetRepoMeta(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	out, err := gitOutput(ctx, cmd.with("--name-only", "--no-renames", "-z")...)
	if err != nil {
		return Snapshot{}, fmt.Errorf("git %s: %w", cmd, err)
	}

	maxBytes := opts.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}

	snap := Snapshot{Source: source, Range: rangeStr, Repo: meta}
	for _, path := range strings.Split(out, "\x00") {
		if path == "" || !selected(path, opts) {
			continue
		}
		b, err := before.read(ctx, meta.Root, path)
		if err != nil {
			return Snapshot{}, err
		}
		a, err := after.read(ctx, meta.Root, path)
		if err != nil {
			return Snapshot{}, err
		}
		if isBinary(b) || isBinary(a) || len(b) > maxBytes || len(a) > maxBytes {
			snap.Skipped = append(snap.Skipped, path)
			continue
		}
		snap.Changes = append(snap.Changes, changes.FileChange{Path: path, Before: b, After: a})
	}

	raw, err := gitOutput(ctx, cmd.with("-p", "--no-renames", "--no-color", "--no-ext-diff")...)
	if err != nil {
		return Snapshot{}, fmt.Errorf("git %s: %w", cmd, err)
	}
	snap.RawDiff = filterSections(raw, func(path string) bool { return selected(path, opts) })
	return snap, nil
}

func selected(path string, opts Options) bool {
	if len(opts.Include) > 0 && !MatchesAny(path, opts.Include) {
		return false
	}
	return !MatchesAny(path, opts.Exclude)
}

// isBinary applies git's heuristic: a NUL byte in the first 8000 bytes.
func isBinary(content string) bool {
	return strings.IndexByte(content[:min(len(content), 8000)], 0) >= 0
}

// filterSections keeps the per-file sections of a unified diff whose path
// passes keep. Sections without a recognizable path are kept.
func filterSections(diff string, keep func(string) bool) string {
	var kept []string
	for _, section := range splitDiffSections(diff) {
		path := extractPathFromSection(section)
		if path == "" || keep(path) {
			kept = append(kept, section)
		}
	}
	return strings.Join(kept, "")
}

func splitDiffSections(diff string) []string {
	if diff == "" {
		return nil
	}
	var sections []string
	var current strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		if strings.HasPrefix(line, "diff --git") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

// extractPathFromSection prefers the post-image path and falls back to the
// pre-image path for deletions.
func extractPathFromSection(section string) string {
	var old string
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(line, "+++ b/") {
			return strings.TrimPrefix(line, "+++ b/")
		}
		if strings.HasPrefix(line, "--- a/") {
			old = strings.TrimPrefix(line, "--- a/")
		}
	}
	return old
}

// MatchesAny returns true if the path matches any of the given glob patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
			trimmed := strings.TrimPrefix(dir, "**/")
			if strings.HasPrefix(path, trimmed+"/") || strings.Contains(path, "/"+trimmed+"/") {
				return true
			}
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

func gitOutput(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}
