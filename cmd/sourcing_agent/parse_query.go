package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/demandos/sourcing-agent/internal/config"
)

var parseQueryConfigPath string

var parseQueryCmd = &cobra.Command{
	Use:   "parse-query <text>",
	Short: "Parse a free-text sourcing request into a structured query",
	Long: `Normalize a buyer request into the structured query the matching engine
consumes: keywords, category, target price band, MOQ, certifications, and
special requirement flags. Uses the LLM when an API key is configured,
otherwise the rule-based extractor.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParseQuery,
}

func init() {
	parseQueryCmd.Flags().StringVar(&parseQueryConfigPath, "config", "", "Path to config.json file")
	rootCmd.AddCommand(parseQueryCmd)
}

func runParseQuery(_ *cobra.Command, args []string) error {
	cfg, err := loadMergedConfig(parseQueryConfigPath, config.Config{})
	if err != nil {
		return err
	}

	ctx := context.Background()
	c, err := buildCollaborators(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	query := c.Parser.Parse(ctx, strings.Join(args, " "))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(query)
}
