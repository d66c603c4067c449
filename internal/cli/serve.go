package cli

import (
	"github.com/spf13/cobra"

	"github.com/dshills/archcheck/internal/config"
	"github.com/dshills/archcheck/internal/logger"
	"github.com/dshills/archcheck/internal/review"
	"github.com/dshills/archcheck/internal/server"
)

var (
	flagAddr    string
	flagLogJSON bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the evaluation HTTP API",
	Long:  "Serve POST " + server.EvalPath + " until interrupted. Each request runs one evaluation with the configured provider and model.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := buildOverrides()
		overrides["server.addr"] = flagAddr
		cfg, err := config.Load(overrides)
		if err != nil {
			return err
		}
		if flagLogJSON {
			logger.Initialize(logger.Options{Verbose: true, Debug: flagDebug, JSON: true, Writer: cmd.ErrOrStderr()})
		}

		gen, err := newGenerator(cfg, cfg.Provider, cfg.Model)
		if err != nil {
			fail(cmd, ExitAuthError, "%v", err)
			return nil
		}
		engine, err := review.NewEngine(cfg, gen, openCache(cmd.Context(), cfg))
		if err != nil {
			fail(cmd, ExitUsageError, "%v", err)
			return nil
		}

		srv := server.New(cfg.Server.Addr, engine, cfg.Server.AllowedOrigins...)
		if err := srv.Run(cmd.Context()); err != nil {
			fail(cmd, ExitRuntimeError, "%v", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default from config, :5013)")
	serveCmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider")
	serveCmd.Flags().StringVar(&flagModel, "model", "", "Model name (Azure: deployment name)")
	serveCmd.Flags().StringVar(&flagLanguage, "language", "", "Prompt language (en, es)")
	serveCmd.Flags().StringVar(&flagBehavior, "behavior", "", "Decision behavior (recommend_only, enforce)")
	serveCmd.Flags().StringVar(&flagRules, "rules", "", "General architecture rules file")
	serveCmd.Flags().StringVar(&flagRequirements, "requirements", "", "Requirements file")
	serveCmd.Flags().BoolVar(&flagLogJSON, "log-json", false, "Log requests as JSON")
}
