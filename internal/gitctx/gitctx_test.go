package gitctx

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/archcheck/internal/changes"
)

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"vendor/lib.go", []string{"vendor/**"}, true},
		{"vendor/x/deep.go", []string{"vendor/**"}, true},
		{"main.go", []string{"vendor/**"}, false},
		{"foo.gen.go", []string{"**/*.gen.go"}, true},
		{"pkg/foo.gen.go", []string{"**/*.gen.go"}, true},
		{"dist/bundle.js", []string{"**/dist/**"}, true},
		{"web/dist/a/b.js", []string{"**/dist/**"}, true},
		{"main.go", []string{"*.go"}, true},
		{"config/.env", []string{"**/.env"}, true},
		{"main.go", nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchesAny(tt.path, tt.patterns), "%s %v", tt.path, tt.patterns)
	}
}

const twoFileDiff = `diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
+import "fmt"
diff --git a/vendor/lib.go b/vendor/lib.go
deleted file mode 100644
--- a/vendor/lib.go
+++ /dev/null
@@ -1 +0,0 @@
-package lib
`

func TestSplitDiffSections(t *testing.T) {
	sections := splitDiffSections(twoFileDiff)
	require.Len(t, sections, 2)
	assert.Equal(t, "main.go", extractPathFromSection(sections[0]))
	assert.Equal(t, "vendor/lib.go", extractPathFromSection(sections[1]))
	assert.Nil(t, splitDiffSections(""))
}

func TestFilterSections(t *testing.T) {
	got := filterSections(twoFileDiff, func(p string) bool { return !MatchesAny(p, []string{"vendor/**"}) })
	assert.Contains(t, got, "+++ b/main.go")
	assert.NotContains(t, got, "vendor/lib.go")

	assert.Equal(t, twoFileDiff, filterSections(twoFileDiff, func(string) bool { return true }))
}

func TestSelected(t *testing.T) {
	opts := Options{Include: []string{"**/*.go"}, Exclude: []string{"vendor/**"}}
	assert.True(t, selected("internal/a.go", opts))
	assert.False(t, selected("README.md", opts))
	assert.False(t, selected("vendor/lib.go", opts))
	assert.True(t, selected("README.md", Options{}))
}

func TestIsBinary(t *testing.T) {
	assert.False(t, isBinary("package main\n"))
	assert.False(t, isBinary(""))
	assert.True(t, isBinary("PNG\x00\x01"))
}

// setupTestRepo creates a temp git repo with one commit and makes it the
// working directory for the test.
func setupTestRepo(t *testing.T) func(args ...string) {
	t.Helper()
	dir := t.TempDir()

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=test",
			"GIT_COMMITTER_EMAIL=test@test.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v\n%s", args, out)
	}

	run("init")
	run("checkout", "-b", "main")
	write(t, dir, "main.go", "package main\n\nfunc main() {}\n")
	write(t, dir, "util.go", "package main\n\nfunc helper() {}\n")
	write(t, dir, "vendor/lib.go", "package vendor\n")
	run("add", "-A")
	run("commit", "-m", "init")

	t.Chdir(dir)
	return run
}

func write(t *testing.T, dir, path, content string) {
	t.Helper()
	full := filepath.Join(dir, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func byPath(fcs []changes.FileChange) map[string]changes.FileChange {
	m := make(map[string]changes.FileChange, len(fcs))
	for _, fc := range fcs {
		m[fc.Path] = fc
	}
	return m
}

func TestStaged(t *testing.T) {
	run := setupTestRepo(t)
	write(t, ".", "main.go", "package main\n\nfunc main() { helper() }\n")
	write(t, ".", "repo.go", "package main\n\ntype Repository struct{}\n")
	run("add", "-A")
	write(t, ".", "util.go", "package main\n\n// unstaged edit\n")

	snap, err := Staged(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "staged", snap.Source)
	assert.Equal(t, "main", snap.Repo.Branch)
	got := byPath(snap.Changes)
	require.Len(t, got, 2)
	assert.Equal(t, "package main\n\nfunc main() {}\n", got["main.go"].Before)
	assert.Equal(t, "package main\n\nfunc main() { helper() }\n", got["main.go"].After)
	assert.Empty(t, got["repo.go"].Before)
	assert.Contains(t, got["repo.go"].After, "Repository")
	assert.Contains(t, snap.RawDiff, "+++ b/repo.go")
	assert.NotContains(t, snap.RawDiff, "util.go")
}

func TestUnstaged(t *testing.T) {
	setupTestRepo(t)
	write(t, ".", "util.go", "package main\n\nfunc helper() { panic(0) }\n")
	require.NoError(t, os.Remove("main.go"))

	snap, err := Unstaged(context.Background(), Options{})
	require.NoError(t, err)

	got := byPath(snap.Changes)
	require.Len(t, got, 2)
	assert.Contains(t, got["util.go"].After, "panic")
	assert.Equal(t, "package main\n\nfunc main() {}\n", got["main.go"].Before)
	assert.Empty(t, got["main.go"].After)
	assert.Contains(t, snap.RawDiff, "deleted file mode")
}

func TestCommit(t *testing.T) {
	run := setupTestRepo(t)
	write(t, ".", "util.go", "package main\n\nfunc helper() int { return 1 }\n")
	run("commit", "-am", "second")

	snap, err := Commit(context.Background(), "HEAD", Options{})
	require.NoError(t, err)
	assert.Equal(t, "commit", snap.Source)
	assert.Equal(t, "HEAD", snap.Range)
	require.Len(t, snap.Changes, 1)
	assert.Equal(t, "util.go", snap.Changes[0].Path)
	assert.Contains(t, snap.Changes[0].Before, "func helper() {}")
	assert.Contains(t, snap.Changes[0].After, "return 1")
}

func TestCommit_Root(t *testing.T) {
	setupTestRepo(t)

	snap, err := Commit(context.Background(), "HEAD", Options{Exclude: []string{"vendor/**"}})
	require.NoError(t, err)
	got := byPath(snap.Changes)
	assert.Len(t, got, 2)
	assert.Empty(t, got["main.go"].Before)
	assert.Contains(t, snap.RawDiff, "+++ b/util.go")
	assert.NotContains(t, snap.RawDiff, "vendor")
}

func TestRange(t *testing.T) {
	run := setupTestRepo(t)
	run("checkout", "-b", "feature")
	write(t, ".", "svc.go", "package main\n\ntype Service struct{}\n")
	run("add", "-A")
	run("commit", "-m", "feature")
	run("checkout", "main")
	write(t, ".", "util.go", "package main\n\n// main moved on\n")
	run("commit", "-am", "main change")

	direct, err := Range(context.Background(), "main..feature", false, Options{})
	require.NoError(t, err)
	assert.Len(t, direct.Changes, 2, "two-dot compares tips directly")

	base, err := Range(context.Background(), "main...feature", false, Options{})
	require.NoError(t, err)
	require.Len(t, base.Changes, 1)
	assert.Equal(t, "svc.go", base.Changes[0].Path)

	flagged, err := Range(context.Background(), "main..feature", true, Options{})
	require.NoError(t, err)
	assert.Equal(t, base.Changes, flagged.Changes)
	assert.Equal(t, "main..feature", flagged.Range)
}

func TestRange_Errors(t *testing.T) {
	setupTestRepo(t)

	_, err := Range(context.Background(), "main", false, Options{})
	assert.ErrorContains(t, err, "expected <from>..<to>")

	_, err = Range(context.Background(), "main..nope", false, Options{})
	assert.ErrorContains(t, err, `unknown revision "nope"`)
}

func TestSkipsBinaryAndOversized(t *testing.T) {
	run := setupTestRepo(t)
	write(t, ".", "logo.png", "\x89PNG\x00\x00")
	write(t, ".", "big.txt", "0123456789abcdef")
	write(t, ".", "small.go", "package main\n")
	run("add", "-A")

	snap, err := Staged(context.Background(), Options{MaxFileBytes: 15})
	require.NoError(t, err)
	require.Len(t, snap.Changes, 1)
	assert.Equal(t, "small.go", snap.Changes[0].Path)
	assert.ElementsMatch(t, []string{"logo.png", "big.txt"}, snap.Skipped)
}

func TestNotARepo(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(mustGetwd(t)))

	_, err := Staged(context.Background(), Options{})
	assert.ErrorContains(t, err, "not a git repository")
}

func mustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	return wd
}
