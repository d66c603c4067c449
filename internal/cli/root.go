package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/archcheck/internal/logger"
)

const version = "0.1.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitWouldBlock   = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

var (
	flagVerbose bool
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:           "archcheck",
	Short:         "Architecture compliance review with LLMs",
	Long:          "Archcheck evaluates code changes against a PlantUML architecture diagram, general rules and feature requirements, and reports an advisory compliance score.",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Initialize(logger.Options{
			Verbose: flagVerbose,
			Debug:   flagDebug,
			Writer:  cmd.ErrOrStderr(),
		})
	},
}

// Run executes the root command and returns an exit code.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exitCode = ExitSuccess
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}
	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// fail reports err on stderr and records code as the exit code.
func fail(cmd *cobra.Command, code int, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: "+format+"\n", args...)
	exitCode = code
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print archcheck version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "archcheck version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log progress information")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log debug information with source locations")

	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(githubCmd)
	rootCmd.AddCommand(diagramCmd)
	rootCmd.AddCommand(relationsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(versionCmd)
}
