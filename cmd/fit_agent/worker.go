package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-fit-analyzer/internal/analysis"
	"github.com/jonathan/job-fit-analyzer/internal/config"
	"github.com/jonathan/job-fit-analyzer/internal/db"
	"github.com/jonathan/job-fit-analyzer/internal/llm"
	"github.com/jonathan/job-fit-analyzer/internal/worker"
)

var (
	workerConfigPath    string
	workerIterations    int
	workerInterval      int
	workerMaxRunningAge int
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the analysis worker loop",
	Long: `Poll the queue for analysis runs, compute each report section with the
LLM, and persist results. Runs forever unless --iterations bounds it.
Multiple worker processes can safely share one queue.`,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().StringVar(&workerConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	workerCmd.Flags().IntVar(&workerIterations, "iterations", 0, "Number of poll iterations before exiting (0 = run forever)")
	workerCmd.Flags().IntVar(&workerInterval, "interval", 0, "Idle sleep between iterations in seconds")
	workerCmd.Flags().IntVar(&workerMaxRunningAge, "max-running-age", 0, "Requeue runs stuck running longer than this many minutes (0 = disabled)")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, err := loadMergedConfig(workerConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("interval") {
		cfg.PollIntervalSeconds = workerInterval
	}
	if cmd.Flags().Changed("max-running-age") {
		cfg.MaxRunningAgeMins = workerMaxRunningAge
	}

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wk, cleanup, err := buildWorker(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if workerIterations > 0 {
		return wk.RunN(ctx, workerIterations)
	}

	if err := wk.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildWorker wires the database, LLM client, and section computer into a
// ready worker. The returned cleanup closes both connections.
func buildWorker(ctx context.Context, cfg *config.Config) (*worker.Worker, func(), error) {
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	client, err := llm.NewGeminiClient(ctx, llm.DefaultGeminiConfig(), cfg.APIKey)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	computer := analysis.NewComputer(database, client)

	wcfg := worker.Config{
		PollInterval:  time.Duration(cfg.PollIntervalSeconds) * time.Second,
		MaxRunningAge: time.Duration(cfg.MaxRunningAgeMins) * time.Minute,
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close LLM client: %v\n", err)
		}
		database.Close()
	}

	return worker.New(database, database, computer, wcfg), cleanup, nil
}
