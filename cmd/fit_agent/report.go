package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/job-fit-analyzer/internal/config"
	"github.com/jonathan/job-fit-analyzer/internal/db"
	"github.com/jonathan/job-fit-analyzer/internal/observability"
)

var reportConfigPath string

var reportCmd = &cobra.Command{
	Use:   "report <run-id>",
	Short: "Print an analysis run and its report sections",
	Long: `Fetch an analysis run by id and print its status and whatever report
sections it has produced so far.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, args []string) error {
	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", args[0], err)
	}

	var cfg *config.Config
	if cfg, err = loadMergedConfig(reportConfigPath); err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	run, err := database.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to fetch run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}

	results, err := database.ListResults(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to fetch results: %w", err)
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintRun(run)
	printer.PrintResults(results)
	return nil
}
