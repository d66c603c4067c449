package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/archcheck/internal/config"
	"github.com/dshills/archcheck/internal/providers"
	"github.com/dshills/archcheck/internal/review"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Provider and model management",
}

type modelInfo struct {
	Provider string
	Env      string
	Models   []string
}

var knownModels = []modelInfo{
	{
		Provider: "azureopenai",
		Env:      "AZURE_OPENAI_API_KEY, AZURE_OPENAI_ENDPOINT",
		Models:   []string{"gpt-4o", "gpt-4o-mini", "gpt-4.1"},
	},
	{
		Provider: "openai",
		Env:      "OPENAI_API_KEY",
		Models:   []string{"gpt-4o", "gpt-4.1", "gpt-4.1-mini", "o3-mini"},
	},
	{
		Provider: "anthropic",
		Env:      "ANTHROPIC_API_KEY",
		Models:   []string{"claude-sonnet-4-5", "claude-haiku-4-5"},
	},
	{
		Provider: "gemini",
		Env:      "GEMINI_API_KEY",
		Models:   []string{"gemini-2.5-flash", "gemini-2.5-pro", "gemini-2.0-flash"},
	},
	{
		Provider: "ollama",
		Env:      "OLLAMA_HOST",
		Models:   []string{"llama3.3", "qwen2.5-coder", "deepseek-coder-v2"},
	},
	{
		Provider: "huggingface",
		Env:      "HF_API_TOKEN",
		Models:   []string{"mistralai/Mistral-7B-Instruct-v0.3", "HuggingFaceH4/zephyr-7b-beta"},
	},
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known providers and models",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		for _, info := range knownModels {
			fmt.Fprintf(w, "%s (%s):\n", info.Provider, info.Env)
			for _, m := range info.Models {
				fmt.Fprintf(w, "  - %s\n", m)
			}
			fmt.Fprintln(w)
		}
	},
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the configured models answer",
	Long:  "Send a short prompt to the configured model, or to every model of --compare, and report which ones answer.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		if len(cfg.Compare) == 0 {
			exitCode = pingModel(cmd, cfg, cfg.Provider, cfg.Model)
			return nil
		}
		for _, spec := range cfg.Compare {
			provider, model, err := review.ParseModelSpec(spec)
			if err != nil {
				return err
			}
			if code := pingModel(cmd, cfg, provider, model); code > exitCode {
				exitCode = code
			}
		}
		return nil
	},
}

// pingModel sends a one-word prompt and returns the exit code its outcome maps to.
func pingModel(cmd *cobra.Command, cfg config.Config, provider, model string) int {
	fmt.Fprintf(cmd.OutOrStdout(), "Checking %s (%s)...\n", provider, model)

	gen, err := newGenerator(cfg, provider, model)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %v\n", err)
		return ExitAuthError
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	start := time.Now()
	_, err = gen.Generate(ctx, providers.GenerateRequest{
		SystemPrompt: "Respond with exactly: ok",
		Prompt:       "ping",
		MaxTokens:    10,
	})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %v\n", err)
		if providers.IsAuthError(err) {
			return ExitAuthError
		}
		return ExitRuntimeError
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OK: %s is configured and responding (%dms)\n", gen.Name(), time.Since(start).Milliseconds())
	return ExitSuccess
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
	modelsDoctorCmd.Flags().StringVar(&flagProvider, "provider", "", "Provider to check")
	modelsDoctorCmd.Flags().StringVar(&flagModel, "model", "", "Model to check")
	modelsDoctorCmd.Flags().StringVar(&flagCompare, "compare", "", "Check several provider:model pairs (comma-separated)")
}
