package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateHookScript(t *testing.T) {
	script := generateHookScript("markdown", "docs/arch.puml", "enforce")

	assert.True(t, strings.HasPrefix(script, hookMarkerStart+"\n"))
	assert.True(t, strings.HasSuffix(script, hookMarkerEnd+"\n"))
	assert.Contains(t, script, "if git rev-parse '@{upstream}' >/dev/null 2>&1; then")
	assert.Contains(t, script, "archcheck eval range '@{upstream}..HEAD' --format markdown --diagram 'docs/arch.puml' --behavior enforce </dev/null")
	assert.Contains(t, script, `|| echo "archcheck: evaluation failed (exit $?), continuing push"`)
	assert.NotContains(t, script, "--fail-on-block")
}

func TestGenerateHookScript_Minimal(t *testing.T) {
	script := generateHookScript("text", "", "")
	assert.Contains(t, script, "--format text </dev/null")
	assert.NotContains(t, script, "--diagram")
	assert.NotContains(t, script, "--behavior")
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "'a b'", shellQuote("a b"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}

func TestReplaceHookSection(t *testing.T) {
	section := generateHookScript("text", "", "")

	t.Run("appends to foreign hook", func(t *testing.T) {
		got := replaceHookSection("#!/bin/sh\necho other", section)
		assert.Equal(t, "#!/bin/sh\necho other\n"+section, got)
	})

	t.Run("replaces existing section", func(t *testing.T) {
		old := "#!/bin/sh\necho before\n" + generateHookScript("json", "", "") + "echo after\n"
		got := replaceHookSection(old, section)
		assert.Equal(t, "#!/bin/sh\necho before\n"+section+"echo after\n", got)
		assert.Equal(t, 1, strings.Count(got, hookMarkerStart))
	})
}

func TestRemoveHookSection(t *testing.T) {
	section := generateHookScript("text", "", "")

	assert.Equal(t, "#!/bin/sh\necho keep\n", removeHookSection("#!/bin/sh\n"+section+"echo keep\n"))
	assert.Equal(t, "#!/bin/sh\necho only\n", removeHookSection("#!/bin/sh\necho only\n"))
}

func TestHookInstallUninstall(t *testing.T) {
	isolate(t)
	dir := gitRepo(t)
	hookPath := filepath.Join(dir, ".git", "hooks", "pre-push")

	res := execute(t, "", "hook", "install", "--format", "markdown")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Installed archcheck pre-push hook")

	data, err := os.ReadFile(hookPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "#!/bin/sh\n"+hookMarkerStart))
	assert.Contains(t, string(data), "--format markdown")

	info, err := os.Stat(hookPath)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100)

	// Reinstalling replaces the section rather than duplicating it.
	execute(t, "", "hook", "install")
	data, err = os.ReadFile(hookPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), hookMarkerStart))
	assert.Contains(t, string(data), "--format text")

	res = execute(t, "", "hook", "uninstall")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Removed archcheck pre-push hook")
	assert.NoFileExists(t, hookPath)

	res = execute(t, "", "hook", "uninstall")
	assert.Contains(t, res.stdout, "No pre-push hook found.")
}

func TestHookUninstall_KeepsForeignContent(t *testing.T) {
	isolate(t)
	dir := gitRepo(t)
	hookPath := filepath.Join(dir, ".git", "hooks", "pre-push")
	require.NoError(t, os.MkdirAll(filepath.Dir(hookPath), 0o755))
	require.NoError(t, os.WriteFile(hookPath, []byte("#!/bin/sh\nmake lint\n"), 0o755))

	execute(t, "", "hook", "install")
	res := execute(t, "", "hook", "uninstall")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Removed archcheck section")

	data, err := os.ReadFile(hookPath)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\nmake lint\n", string(data))
}

func TestHookInstall_NotARepo(t *testing.T) {
	isolate(t)
	t.Chdir(t.TempDir())
	res := execute(t, "", "hook", "install")
	assert.Equal(t, ExitRuntimeError, res.code)
	assert.Contains(t, res.stderr, "not a git repository")
}
