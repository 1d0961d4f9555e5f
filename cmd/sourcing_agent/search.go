package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/demandos/sourcing-agent/internal/config"
	"github.com/demandos/sourcing-agent/internal/types"
)

var (
	searchConfigPath  string
	searchDatabaseURL string
	searchJSON        bool
	searchVerbose     bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the supplier catalog for a sourcing request",
	Long: `Parse a free-text sourcing request and rank catalog candidates against it.

When no candidate qualifies, a sourcing request ticket is opened so a human
buyer can take over.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchConfigPath, "config", "", "Path to config.json file")
	searchCmd.Flags().StringVar(&searchDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print raw JSON instead of a table")
	searchCmd.Flags().BoolVarP(&searchVerbose, "verbose", "v", false, "Print detailed debug information")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(_ *cobra.Command, args []string) error {
	cfg, err := loadMergedConfig(searchConfigPath, config.Config{
		DatabaseURL: searchDatabaseURL,
		Verbose:     searchVerbose,
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	c, err := buildCollaborators(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	queryText := strings.Join(args, " ")
	query := c.Parser.Parse(ctx, queryText)

	matches, ticket, err := c.Searcher.SearchOrEscalate(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"parsed_query":     query,
			"matches":          matches,
			"sourcing_request": ticket,
		})
	}

	printMatches(os.Stdout, matches)
	if ticket != nil {
		fmt.Printf("\nNo qualified match found. Sourcing request %s opened (estimated response: %dh).\n",
			ticket.ID, ticket.EstimatedResponseTime)
	}
	return nil
}

func printMatches(w *os.File, matches []types.MatchResult) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No matches.")
		return
	}

	fmt.Fprintf(w, "%-5s %-36s %-10s %-8s %s\n", "SCORE", "NAME", "PRICE", "MOQ", "SUPPLIER")
	for _, m := range matches {
		fmt.Fprintf(w, "%-5d %-36s $%-9.2f %-8d %s\n", m.Score, truncate(m.Name, 36), m.Price, m.MOQ, m.Supplier.Name)
		for _, reason := range m.Reasons {
			fmt.Fprintf(w, "      - %s\n", reason)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
