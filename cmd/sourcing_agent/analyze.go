package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/demandos/sourcing-agent/internal/config"
	"github.com/demandos/sourcing-agent/internal/trends"
	"github.com/demandos/sourcing-agent/internal/types"
)

var (
	analyzeConfigPath string
	analyzeURL        string
	analyzeBrowser    bool
	analyzeJSON       bool
	analyzeVerbose    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Analyze a product trend from a URL or raw text",
	Long: `Build a trend profile for a product: detected name, category, demand
score, lifecycle stage, and derived pricing tiers with an ROI prediction.

Pass a page URL with --url, or raw text as arguments.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeConfigPath, "config", "", "Path to config.json file")
	analyzeCmd.Flags().StringVarP(&analyzeURL, "url", "u", "", "Page URL to analyze")
	analyzeCmd.Flags().BoolVar(&analyzeBrowser, "use-browser", false, "Use headless browser for SPA sites (requires Chrome)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print raw JSON instead of a summary")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Print detailed debug information")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(_ *cobra.Command, args []string) error {
	if analyzeURL == "" && len(args) == 0 {
		return fmt.Errorf("provide --url or raw text to analyze")
	}

	cfg, err := loadMergedConfig(analyzeConfigPath, config.Config{
		UseBrowser: analyzeBrowser,
		Verbose:    analyzeVerbose,
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

	var profile *types.TrendProfile
	if analyzeURL != "" {
		profile, err = c.Analyzer.AnalyzeURL(ctx, analyzeURL)
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
	} else {
		profile = c.Analyzer.AnalyzeText(ctx, strings.Join(args, " "))
	}

	tiers, roi := trends.CalculatePricing(profile)

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"trend_profile": profile,
			"pricing":       tiers,
			"roi":           roi,
		})
	}

	fmt.Printf("Product:    %s\n", profile.ProductName)
	fmt.Printf("Category:   %s\n", profile.Category)
	fmt.Printf("Trend:      %d/100 (%s)\n", profile.TrendScore, profile.Lifecycle)
	if len(profile.KeyFeatures) > 0 {
		fmt.Printf("Features:   %s\n", strings.Join(profile.KeyFeatures, ", "))
	}
	fmt.Println()
	fmt.Printf("Dropshipping: $%.2f/unit (MOQ %d)\n", tiers.Dropshipping.Price, tiers.Dropshipping.MOQ)
	fmt.Printf("Wholesale:    $%.2f/unit (MOQ %d)\n", tiers.Wholesale.Price, tiers.Wholesale.MOQ)
	fmt.Printf("Exclusive:    $%.2f/unit (MOQ %d)\n", tiers.Exclusive.Price, tiers.Exclusive.MOQ)
	fmt.Println()
	fmt.Printf("Est. revenue: $%.0f  margin: %.1f%%  payback: %dd  risk: %s\n",
		roi.EstimatedRevenue, roi.ProfitMargin, roi.PaybackDays, roi.RiskLevel)
	return nil
}
