package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/archcheck/internal/cache"
	"github.com/dshills/archcheck/internal/config"
	"github.com/dshills/archcheck/internal/gitctx"
	"github.com/dshills/archcheck/internal/logger"
	"github.com/dshills/archcheck/internal/output"
	"github.com/dshills/archcheck/internal/providers"
	"github.com/dshills/archcheck/internal/review"
	"github.com/dshills/archcheck/internal/server"
)

// Shared evaluation flags
var (
	flagPaths        string
	flagExclude      string
	flagProvider     string
	flagModel        string
	flagCompare      string
	flagFormat       string
	flagOut          string
	flagLanguage     string
	flagBehavior     string
	flagRules        string
	flagRequirements string
	flagDiagram      string
	flagFeature      string
	flagFeatureFile  string
	flagNoRedact     bool
	flagNoCache      bool
	flagDryRun       bool
	flagFailOnBlock  bool
	flagMergeBase    bool
)

func addEvalFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider ("+strings.Join(providers.Names, ", ")+")")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name (Azure: deployment name)")
	cmd.Flags().StringVar(&flagCompare, "compare", "", "Compare mode: comma-separated provider:model pairs")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format ("+strings.Join(config.Formats, ", ")+")")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagLanguage, "language", "", "Prompt language (en, es)")
	cmd.Flags().StringVar(&flagBehavior, "behavior", "", "Decision behavior (recommend_only, enforce)")
	cmd.Flags().StringVar(&flagRules, "rules", "", "General architecture rules file")
	cmd.Flags().StringVar(&flagRequirements, "requirements", "", "Requirements file")
	cmd.Flags().StringVar(&flagDiagram, "diagram", "", "PlantUML diagram file")
	cmd.Flags().StringVar(&flagFeature, "feature", "", "Feature description")
	cmd.Flags().StringVar(&flagFeatureFile, "feature-file", "", "File containing the feature description")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the response cache")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Print the assembled prompt without calling a provider")
	cmd.Flags().BoolVar(&flagFailOnBlock, "fail-on-block", false, "Exit 1 when the decision is WOULD_BLOCK")
}

func buildOverrides() map[string]string {
	return map[string]string{
		"provider":         flagProvider,
		"model":            flagModel,
		"compare":          flagCompare,
		"format":           flagFormat,
		"language":         flagLanguage,
		"behavior":         flagBehavior,
		"rulesFile":        flagRules,
		"requirementsFile": flagRequirements,
	}
}

func buildGitOpts() gitctx.Options {
	return gitctx.Options{
		Include: splitComma(flagPaths),
		Exclude: splitComma(flagExclude),
	}
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// newGenerator builds the backend for provider and model. Tests replace it.
var newGenerator = func(cfg config.Config, provider, model string) (providers.Generator, error) {
	return providers.New(provider, model, providers.Options{
		Azure: providers.AzureOptions{
			Endpoint:   cfg.Azure.Endpoint,
			Deployment: cfg.Azure.Deployment,
			APIVersion: cfg.Azure.APIVersion,
		},
	})
}

func openCache(ctx context.Context, cfg config.Config) *cache.Cache {
	if flagNoCache {
		return nil
	}
	c, err := cache.New(cache.Options{
		Enabled:       cfg.Cache.Enabled,
		Dir:           cfg.Cache.Dir,
		TTLSeconds:    cfg.Cache.TTLSeconds,
		MemoryEntries: cfg.Cache.MemoryEntries,
	})
	if err != nil {
		logger.Warn(ctx, "cache unavailable", "error", err)
		return nil
	}
	return c
}

// readInput reads path, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// applyInputs fills the diagram and feature of a git-sourced request from flags.
func applyInputs(cmd *cobra.Command, req *review.Request) error {
	if flagDiagram != "" {
		data, err := readInput(cmd, flagDiagram)
		if err != nil {
			return fmt.Errorf("reading diagram: %w", err)
		}
		req.Diagram = string(data)
	}
	req.Feature = flagFeature
	if flagFeatureFile != "" {
		data, err := os.ReadFile(flagFeatureFile)
		if err != nil {
			return fmt.Errorf("reading feature file: %w", err)
		}
		req.Feature = strings.TrimSpace(strings.Join([]string{req.Feature, string(data)}, "\n\n"))
	}
	return nil
}

// runEval evaluates req and writes the report. It returns the report so
// callers can post it elsewhere; nil means the run failed and exitCode is set.
func runEval(cmd *cobra.Command, cfg config.Config, req review.Request) *review.Report {
	ctx := cmd.Context()
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		fmt.Fprintln(cmd.ErrOrStderr(), "WARNING: secret redaction is disabled")
	}

	if flagDryRun {
		engine, err := review.NewEngine(cfg, nil, nil)
		if err != nil {
			fail(cmd, ExitUsageError, "%v", err)
			return nil
		}
		p := engine.Prepare(ctx, req)
		fmt.Fprintln(cmd.OutOrStdout(), p.Prompt)
		fmt.Fprintf(cmd.ErrOrStderr(), "Prompt: %d chars, ~%d tokens, %d relations, %d files summarized\n",
			p.Info.Chars, p.Info.Tokens, len(p.Relations), p.Summary.FilesEmitted)
		return nil
	}

	var report *review.Report
	var err error
	if len(cfg.Compare) >= 2 {
		report, err = runCompare(cmd, cfg, req)
	} else {
		report, err = runSingle(cmd, cfg, req)
	}
	if err != nil {
		if providers.IsAuthError(err) {
			fail(cmd, ExitAuthError, "%v", err)
			return nil
		}
		fail(cmd, ExitRuntimeError, "%v", err)
		return nil
	}

	if err := writeReport(cmd, report, cfg.Format); err != nil {
		fail(cmd, ExitRuntimeError, "writing output: %v", err)
		return nil
	}

	if flagFailOnBlock && report.Decision.Action == review.ActionWouldBlock {
		exitCode = ExitWouldBlock
	}
	return report
}

func runSingle(cmd *cobra.Command, cfg config.Config, req review.Request) (*review.Report, error) {
	gen, err := newGenerator(cfg, cfg.Provider, cfg.Model)
	if err != nil {
		return nil, err
	}
	engine, err := review.NewEngine(cfg, gen, openCache(cmd.Context(), cfg))
	if err != nil {
		return nil, err
	}
	return engine.Evaluate(cmd.Context(), req)
}

func runCompare(cmd *cobra.Command, cfg config.Config, req review.Request) (*review.Report, error) {
	targets := make([]review.Target, 0, len(cfg.Compare))
	for _, spec := range cfg.Compare {
		provider, model, err := review.ParseModelSpec(spec)
		if err != nil {
			return nil, err
		}
		gen, err := newGenerator(cfg, provider, model)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec, err)
		}
		targets = append(targets, review.Target{Model: model, Gen: gen})
	}
	engine, err := review.NewEngine(cfg, nil, openCache(cmd.Context(), cfg))
	if err != nil {
		return nil, err
	}
	report, err := engine.Compare(cmd.Context(), req, targets)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Compare mode: %d models, mean score %.2f\n", len(report.Models), report.Score.Value)
	return report, nil
}

// writeReport renders report to --out or stdout. Without --format, the
// extension of --out picks the format.
func writeReport(cmd *cobra.Command, report *review.Report, format string) error {
	if flagOut != "" {
		if f := output.FormatForPath(flagOut); f != "" && flagFormat == "" {
			format = f
		}
		return output.WriteReport(report, format, flagOut)
	}
	w, err := output.GetWriter(format)
	if err != nil {
		return err
	}
	return w.Write(cmd.OutOrStdout(), report)
}

// gitEval returns the RunE of a git-sourced eval subcommand.
func gitEval(collect func(ctx context.Context, args []string, opts gitctx.Options) (gitctx.Snapshot, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		snap, err := collect(cmd.Context(), args, buildGitOpts())
		if err != nil {
			fail(cmd, ExitRuntimeError, "%v", err)
			return nil
		}
		for _, p := range snap.Skipped {
			logger.Info(cmd.Context(), "skipped file", "path", p)
		}
		if len(snap.Changes) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No changes to evaluate.")
			return nil
		}

		req := review.Request{
			Changes: snap.Changes,
			RawDiff: snap.RawDiff,
			Source:  snap.Source,
			Range:   snap.Range,
		}
		if err := applyInputs(cmd, &req); err != nil {
			fail(cmd, ExitUsageError, "%v", err)
			return nil
		}
		runEval(cmd, cfg, req)
		return nil
	}
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate changes against the architecture",
	Long:  "Evaluate code changes against the architecture diagram, rules and requirements. Use subcommands to choose the source of the changes.",
}

var evalRequestCmd = &cobra.Command{
	Use:   "request <file|->",
	Short: "Evaluate a JSON request payload (same shape as the HTTP API)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		data, err := readInput(cmd, args[0])
		if err != nil {
			fail(cmd, ExitUsageError, "reading request: %v", err)
			return nil
		}
		payload, err := server.ParsePayload(data)
		if err != nil {
			fail(cmd, ExitUsageError, "%v", err)
			return nil
		}
		req := payload.Request()
		if flagDiagram != "" || flagFeature != "" || flagFeatureFile != "" {
			if err := applyInputs(cmd, &req); err != nil {
				fail(cmd, ExitUsageError, "%v", err)
				return nil
			}
		}
		runEval(cmd, cfg, req)
		return nil
	},
}

var evalUnstagedCmd = &cobra.Command{
	Use:   "unstaged",
	Short: "Evaluate unstaged changes (working tree vs index)",
	Args:  cobra.NoArgs,
	RunE: gitEval(func(ctx context.Context, _ []string, opts gitctx.Options) (gitctx.Snapshot, error) {
		return gitctx.Unstaged(ctx, opts)
	}),
}

var evalStagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Evaluate staged changes (index vs HEAD)",
	Args:  cobra.NoArgs,
	RunE: gitEval(func(ctx context.Context, _ []string, opts gitctx.Options) (gitctx.Snapshot, error) {
		return gitctx.Staged(ctx, opts)
	}),
}

var evalCommitCmd = &cobra.Command{
	Use:   "commit <sha>",
	Short: "Evaluate a specific commit",
	Args:  cobra.ExactArgs(1),
	RunE: gitEval(func(ctx context.Context, args []string, opts gitctx.Options) (gitctx.Snapshot, error) {
		return gitctx.Commit(ctx, args[0], opts)
	}),
}

var evalRangeCmd = &cobra.Command{
	Use:   "range <revRange>",
	Short: "Evaluate a revision range (e.g., origin/main..HEAD)",
	Args:  cobra.ExactArgs(1),
	RunE: gitEval(func(ctx context.Context, args []string, opts gitctx.Options) (gitctx.Snapshot, error) {
		return gitctx.Range(ctx, args[0], flagMergeBase, opts)
	}),
}

func init() {
	evalCmd.AddCommand(evalRequestCmd)
	evalCmd.AddCommand(evalUnstagedCmd)
	evalCmd.AddCommand(evalStagedCmd)
	evalCmd.AddCommand(evalCommitCmd)
	evalCmd.AddCommand(evalRangeCmd)

	for _, cmd := range []*cobra.Command{
		evalRequestCmd,
		evalUnstagedCmd,
		evalStagedCmd,
		evalCommitCmd,
		evalRangeCmd,
	} {
		addEvalFlags(cmd)
	}

	evalRangeCmd.Flags().BoolVar(&flagMergeBase, "merge-base", false, "Compare against the merge base of the range ends")
}
