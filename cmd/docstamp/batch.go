package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/apereira/docstamp/internal/config"
	"github.com/apereira/docstamp/internal/extract"
	"github.com/apereira/docstamp/internal/history"
	"github.com/apereira/docstamp/internal/pipeline"
)

var batchCommand = &cobra.Command{
	Use:   "batch",
	Short: "Process every supported document in a directory",
	Long: `Runs the pipeline over all supported documents found in --input-dir, a
bounded number at a time. Each document is an independent run with its own
artifacts; one document failing does not stop the others.`,
	RunE: runBatchCmd,
}

var (
	batchConfigPath string
	batchInputDir   string
	batchWorkers    int
	batchRecipient  string
	batchSendEmail  bool
	batchOutputDir  string
	batchDBURL      string
	batchVerbose    bool
)

func init() {
	batchCommand.Flags().StringVar(&batchConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	batchCommand.Flags().StringVar(&batchInputDir, "input-dir", "", "Directory containing documents to process")
	batchCommand.Flags().IntVar(&batchWorkers, "workers", 4, "Maximum documents processed concurrently")
	batchCommand.Flags().StringVarP(&batchRecipient, "recipient", "r", "", "Email address to notify for each successful run")
	batchCommand.Flags().BoolVar(&batchSendEmail, "send-email", false, "Send each annotated document by email (requires --recipient)")
	batchCommand.Flags().StringVarP(&batchOutputDir, "output-dir", "o", "", "Directory for run artifacts")
	batchCommand.Flags().StringVar(&batchDBURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	batchCommand.Flags().BoolVarP(&batchVerbose, "verbose", "v", false, "Print a formatted report per run")

	rootCmd.AddCommand(batchCommand)
}

func runBatchCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	if batchInputDir == "" {
		return fmt.Errorf("--input-dir is required")
	}
	if batchSendEmail && batchRecipient == "" {
		return fmt.Errorf("--send-email requires --recipient")
	}
	if batchWorkers < 1 {
		return fmt.Errorf("--workers must be at least 1")
	}

	cfg, err := loadBatchConfig(cmd)
	if err != nil {
		return err
	}

	inputs, err := collectDocuments(batchInputDir)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no supported documents found in %s", batchInputDir)
	}
	fmt.Printf("Processing %d documents with %d workers...\n", len(inputs), batchWorkers)

	runner, err := pipeline.NewRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = runner.Close() }()

	var (
		mu      sync.Mutex
		results []*pipeline.RunResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchWorkers)
	for _, input := range inputs {
		input := input
		g.Go(func() error {
			result := runner.Run(gctx, pipeline.RunOptions{
				InputPath: input,
				Recipient: batchRecipient,
				SendEmail: batchSendEmail,
				RunID:     pipeline.NewRunID(),
			})
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			// Per-document failures are collected, not propagated, so the
			// group keeps draining the remaining documents.
			return nil
		})
	}
	_ = g.Wait()

	persistBatch(ctx, cfg, results)

	failed := 0
	for _, result := range results {
		if !result.Success {
			failed++
			fmt.Fprintf(os.Stderr, "FAILED %s: %s\n", result.InputFile, result.Error)
		}
	}
	fmt.Printf("Batch complete: %d succeeded, %d failed\n", len(results)-failed, failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(results))
	}
	return nil
}

// loadBatchConfig mirrors loadRunConfig for the batch command's flag set.
func loadBatchConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg config.Config
	if batchConfigPath != "" {
		loadedCfg, err := config.LoadConfig(batchConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
	}

	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir = batchOutputDir
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = batchDBURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = batchVerbose
	}

	cfg.ApplyEnv()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// collectDocuments returns the supported documents directly inside dir,
// sorted for a stable processing order.
func collectDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read input directory: %w", err)
	}

	supported := make(map[string]bool)
	for _, ext := range extract.SupportedExtensions() {
		supported[ext] = true
	}

	var inputs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if supported[strings.ToLower(filepath.Ext(entry.Name()))] {
			inputs = append(inputs, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(inputs)
	return inputs, nil
}

func persistBatch(ctx context.Context, cfg *config.Config, results []*pipeline.RunResult) {
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
	for _, result := range results {
		if _, err := store.SaveResult(ctx, result); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save run history for %s: %v\n", result.InputFile, err)
		}
	}
}
