package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apereira/docstamp/internal/config"
	"github.com/apereira/docstamp/internal/history"
	"github.com/apereira/docstamp/internal/observability"
	"github.com/apereira/docstamp/internal/pipeline"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Process a single document end-to-end",
	Long: `Runs the full pipeline on one document: extract -> summarize -> encode -> convert -> overlay -> notify.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath string
	runInput      string
	runRecipient  string
	runSendEmail  bool
	runOutputDir  string
	runAPIKey     string
	runCCAPIKey   string
	runLocalQR    bool
	runDBURL      string
	runVerbose    bool
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runInput, "input", "i", "", "Path to the document to process (.docx, .html)")
	runCommand.Flags().StringVarP(&runRecipient, "recipient", "r", "", "Email address to notify when the run succeeds")
	runCommand.Flags().BoolVar(&runSendEmail, "send-email", false, "Send the annotated document by email (requires --recipient)")
	runCommand.Flags().StringVarP(&runOutputDir, "output-dir", "o", "", "Directory for run artifacts")
	runCommand.Flags().BoolVar(&runLocalQR, "local-qr", false, "Render the code image in-process instead of calling the remote service")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print a formatted run report")

	// API keys can be passed as flags, or read from env vars
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	runCommand.Flags().StringVar(&runCCAPIKey, "cc-api-key", "", "CloudConvert API key (optional; presence selects remote conversion)")

	// Database URL for run history persistence
	runCommand.Flags().StringVar(&runDBURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

// loadRunConfig merges the config file, explicit flags, environment
// variables, and defaults, in that priority order.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg config.Config
	if runConfigPath != "" {
		loadedCfg, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
		if runVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", runConfigPath)
		}
	}

	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir = runOutputDir
	}
	if cmd.Flags().Changed("api-key") {
		cfg.GeminiAPIKey = runAPIKey
	}
	if cmd.Flags().Changed("cc-api-key") {
		cfg.CloudConvertAPIKey = runCCAPIKey
	}
	if cmd.Flags().Changed("local-qr") {
		cfg.LocalQR = runLocalQR
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDBURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}

	cfg.ApplyEnv()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	if runInput == "" {
		return fmt.Errorf("--input is required")
	}
	if runSendEmail && runRecipient == "" {
		return fmt.Errorf("--send-email requires --recipient")
	}

	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	runner, err := pipeline.NewRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = runner.Close() }()

	result := runner.Run(ctx, pipeline.RunOptions{
		InputPath: runInput,
		Recipient: runRecipient,
		SendEmail: runSendEmail,
	})

	persistResult(ctx, cfg, result)
	printResult(cfg, result)

	if !result.Success {
		return fmt.Errorf("pipeline failed at stage %s", result.FailedStage)
	}
	return nil
}

// persistResult saves the run to the history database when one is
// configured. Persistence failures are reported but never fail the run.
func persistResult(ctx context.Context, cfg *config.Config, result *pipeline.RunResult) {
	if cfg.DatabaseURL == "" {
		return
	}

	store, err := history.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: run history unavailable: %v\n", err)
		return
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: run history unavailable: %v\n", err)
		return
	}
	if _, err := store.SaveResult(ctx, result); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save run history: %v\n", err)
	}
}

// printResult writes the structured result to stdout, plus a formatted
// report in verbose mode.
func printResult(cfg *config.Config, result *pipeline.RunResult) {
	if cfg.Verbose {
		observability.NewPrinter(os.Stdout).PrintResult(result)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to encode result: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
