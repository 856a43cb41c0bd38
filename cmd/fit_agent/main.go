// Package main provides the entry point for the Job Fit Analyzer service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fit_agent",
	Short: "Job Fit Analyzer service",
	Long:  "Job Fit Analyzer queues analysis requests over REST and runs a background worker that builds LLM-generated job-fit reports section by section.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
