package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/archcheck/internal/config"
	"github.com/dshills/archcheck/internal/github"
	"github.com/dshills/archcheck/internal/output"
	"github.com/dshills/archcheck/internal/review"
)

var (
	flagGHOwner   string
	flagGHRepo    string
	flagGHComment bool
)

var githubCmd = &cobra.Command{
	Use:   "github <pr>",
	Short: "Evaluate a GitHub pull request",
	Long:  "Fetch a pull request's changed files at its base and head commits, evaluate them, and optionally post the report as a PR comment. <pr> is a number, owner/repo#number or a pull request URL.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		owner, repo, number, err := github.ParsePRRef(args[0])
		if err != nil {
			fail(cmd, ExitUsageError, "%v", err)
			return nil
		}

		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		if flagGHOwner != "" {
			owner = flagGHOwner
		}
		if flagGHRepo != "" {
			repo = flagGHRepo
		}
		if owner == "" || repo == "" {
			detectedOwner, detectedRepo, err := github.DetectRepo(ctx)
			if err != nil {
				fail(cmd, ExitRuntimeError, "%v\nUse --owner and --repo flags to specify manually.", err)
				return nil
			}
			if owner == "" {
				owner = detectedOwner
			}
			if repo == "" {
				repo = detectedRepo
			}
		}

		ghClient, err := github.NewClient(ctx)
		if err != nil {
			fail(cmd, ExitAuthError, "%v", err)
			return nil
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Fetching PR #%d from %s/%s...\n", number, owner, repo)
		snap, err := ghClient.Snapshot(ctx, owner, repo, number, buildGitOpts())
		if err != nil {
			fail(cmd, ExitRuntimeError, "%v", err)
			return nil
		}
		if len(snap.Changes) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "PR has no changes to evaluate.")
			return nil
		}

		req := review.Request{
			Changes: snap.Changes,
			RawDiff: snap.RawDiff,
			Source:  "github",
			Range:   fmt.Sprintf("%s/%s#%d", owner, repo, number),
		}
		if err := applyInputs(cmd, &req); err != nil {
			fail(cmd, ExitUsageError, "%v", err)
			return nil
		}
		if req.Feature == "" {
			req.Feature = snap.PR.Title
		}

		report := runEval(cmd, cfg, req)
		if report == nil || !flagGHComment {
			return nil
		}

		var body bytes.Buffer
		if err := (&output.MarkdownWriter{}).Write(&body, report); err != nil {
			fail(cmd, ExitRuntimeError, "rendering comment: %v", err)
			return nil
		}
		if err := ghClient.PostComment(ctx, owner, repo, number, body.String()); err != nil {
			fail(cmd, ExitRuntimeError, "posting comment: %v", err)
			return nil
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Comment posted to PR #%d.\n", number)
		return nil
	},
}

func init() {
	addEvalFlags(githubCmd)
	githubCmd.Flags().StringVar(&flagGHOwner, "owner", "", "GitHub repository owner (auto-detected if omitted)")
	githubCmd.Flags().StringVar(&flagGHRepo, "repo", "", "GitHub repository name (auto-detected if omitted)")
	githubCmd.Flags().BoolVar(&flagGHComment, "comment", false, "Post the report as a PR comment")
}
