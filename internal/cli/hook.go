package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	hookMarkerStart = "# >>> archcheck pre-push hook >>>"
	hookMarkerEnd   = "# <<< archcheck pre-push hook <<<"
)

var (
	hookFormat   string
	hookDiagram  string
	hookBehavior string
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the advisory git pre-push hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install archcheck as an advisory git pre-push hook",
	Long:  "Install a pre-push hook section that evaluates the commits being pushed. The hook prints the report and never blocks the push.",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath(cmd)
		if err != nil {
			fail(cmd, ExitRuntimeError, "%v", err)
			return nil
		}

		section := generateHookScript(hookFormat, hookDiagram, hookBehavior)

		existing, err := os.ReadFile(hookPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			fail(cmd, ExitRuntimeError, "reading hook file: %v", err)
			return nil
		}

		var content string
		if len(existing) == 0 {
			content = "#!/bin/sh\n" + section
		} else {
			content = replaceHookSection(string(existing), section)
		}

		if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
			fail(cmd, ExitRuntimeError, "creating hooks directory: %v", err)
			return nil
		}
		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fail(cmd, ExitRuntimeError, "writing hook file: %v", err)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Installed archcheck pre-push hook at %s\n", hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the archcheck pre-push hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath(cmd)
		if err != nil {
			fail(cmd, ExitRuntimeError, "%v", err)
			return nil
		}

		existing, err := os.ReadFile(hookPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "No pre-push hook found.")
				return nil
			}
			fail(cmd, ExitRuntimeError, "reading hook file: %v", err)
			return nil
		}

		content := removeHookSection(string(existing))

		// Only a shebang left: the file was ours.
		trimmed := strings.TrimSpace(content)
		if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
			if err := os.Remove(hookPath); err != nil {
				fail(cmd, ExitRuntimeError, "removing hook file: %v", err)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed archcheck pre-push hook at %s\n", hookPath)
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fail(cmd, ExitRuntimeError, "writing hook file: %v", err)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed archcheck section from %s\n", hookPath)
		return nil
	},
}

func getHookPath(cmd *cobra.Command) (string, error) {
	out, err := exec.CommandContext(cmd.Context(), "git", "rev-parse", "--git-path", "hooks").Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository (git rev-parse --git-path hooks failed)")
	}
	return filepath.Join(strings.TrimSpace(string(out)), "pre-push"), nil
}

func generateHookScript(format, diagramPath, behavior string) string {
	args := []string{"archcheck", "eval", "range", "'@{upstream}..HEAD'", "--format", format}
	if diagramPath != "" {
		args = append(args, "--diagram", shellQuote(diagramPath))
	}
	if behavior != "" {
		args = append(args, "--behavior", behavior)
	}

	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	b.WriteString("if git rev-parse '@{upstream}' >/dev/null 2>&1; then\n")
	fmt.Fprintf(&b, "  %s </dev/null || echo \"archcheck: evaluation failed (exit $?), continuing push\"\n", strings.Join(args, " "))
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func replaceHookSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	before := existing[:startIdx]
	after := strings.TrimPrefix(existing[endIdx+len(hookMarkerEnd):], "\n")
	return before + section + after
}

func removeHookSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	before := existing[:startIdx]
	after := strings.TrimPrefix(existing[endIdx+len(hookMarkerEnd):], "\n")
	return before + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().StringVar(&hookFormat, "format", "text", "Output format for the hook report")
	hookInstallCmd.Flags().StringVar(&hookDiagram, "diagram", "", "PlantUML diagram file passed to each evaluation")
	hookInstallCmd.Flags().StringVar(&hookBehavior, "behavior", "", "Decision behavior (recommend_only, enforce)")
}
