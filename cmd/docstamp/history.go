package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apereira/docstamp/internal/history"
)

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "List stored pipeline runs",
	Long:  "Lists runs persisted to the history database, newest first. Requires --db-url or the DATABASE_URL environment variable.",
	RunE:  runHistoryCmd,
}

var (
	historyDBURL  string
	historyLimit  int
	historyInput  string
	historyFailed bool
)

func init() {
	historyCommand.Flags().StringVar(&historyDBURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	historyCommand.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to list")
	historyCommand.Flags().StringVar(&historyInput, "input", "", "Only show runs whose input path contains this substring")
	historyCommand.Flags().BoolVar(&historyFailed, "failed", false, "Only show failed runs")

	rootCmd.AddCommand(historyCommand)
}

func runHistoryCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	dbURL := historyDBURL
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	store, err := history.Connect(ctx, dbURL)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	runs, err := store.ListRuns(ctx, history.RunFilters{
		InputFile:  historyInput,
		OnlyFailed: historyFailed,
		Limit:      historyLimit,
	})
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode runs: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
