// Package main provides the entry point for the Sourcing Agent CLI and API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sourcing_agent",
	Short: "B2B Sourcing Agent",
	Long:  "Sourcing Agent matches buyer demand to supplier catalogs: it parses free-text sourcing requests, analyzes trending products, ranks catalog candidates, and runs multi-step agent workflows via CLI or REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
