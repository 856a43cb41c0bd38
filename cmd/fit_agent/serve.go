package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-fit-analyzer/internal/config"
	"github.com/jonathan/job-fit-analyzer/internal/server"
)

var (
	serveConfigPath string
	servePort       int
	serveWithWorker bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes REST endpoints for requesting job-fit
analyses and reading their reports. With --with-worker a background worker
runs in the same process, so a single binary serves small deployments.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().BoolVar(&serveWithWorker, "with-worker", false, "Run an analysis worker in the same process")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadMergedConfig(serveConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") || cfg.Port == 0 {
		cfg.Port = servePort
	}

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	srv, err := server.New(server.Config{
		Port:             cfg.Port,
		DatabaseURL:      cfg.DatabaseURL,
		UniqueActiveRuns: cfg.UniqueActiveRuns,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if !serveWithWorker {
		return srv.Start()
	}

	// The worker needs LLM access; the plain server does not
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required with --with-worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wk, cleanup, err := buildWorker(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.StartContext(ctx)
	})
	g.Go(func() error {
		return wk.Run(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// loadMergedConfig loads the optional config file and fills connection
// fields from the environment
func loadMergedConfig(path string) (*config.Config, error) {
	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.FromEnv()
	return cfg, nil
}
