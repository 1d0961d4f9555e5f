package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/demandos/sourcing-agent/internal/catalog"
	"github.com/demandos/sourcing-agent/internal/config"
	"github.com/demandos/sourcing-agent/internal/db"
	"github.com/demandos/sourcing-agent/internal/fetch"
	"github.com/demandos/sourcing-agent/internal/intent"
	"github.com/demandos/sourcing-agent/internal/llm"
	"github.com/demandos/sourcing-agent/internal/trends"
	"github.com/demandos/sourcing-agent/internal/workflow"
)

// collaborators bundles the wired components a command needs.
type collaborators struct {
	LLM      llm.Client
	DB       *db.DB
	Parser   *intent.Parser
	Analyzer *trends.Analyzer
	Searcher *workflow.Searcher
	Deps     *workflow.Deps
}

// buildCollaborators wires the component graph from the merged config.
// Everything degrades gracefully: no API key means rule-based parsing and
// heuristic trend analysis, no database means the in-memory demo catalog.
func buildCollaborators(ctx context.Context, cfg config.Config) (*collaborators, error) {
	c := &collaborators{}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey != "" {
		client, err := llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		c.LLM = client
	} else if cfg.Verbose {
		log.Println("No GEMINI_API_KEY set, using rule-based parsing and heuristic analysis")
	}

	databaseURL := cfg.DatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL != "" {
		database, err := db.Connect(ctx, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.EnsureSchema(ctx); err != nil {
			database.Close()
			return nil, err
		}
		c.DB = database
	}

	c.Parser = intent.NewParser(c.LLM)

	fetcherConfig := &fetch.CachedFetcherConfig{}
	if cfg.CacheTTLHours > 0 {
		fetcherConfig.CacheTTL = time.Duration(cfg.CacheTTLHours) * time.Hour
	}
	analyzerOpts := []trends.AnalyzerOption{
		trends.WithFetcher(fetch.NewCachedFetcher(c.DB, fetcherConfig)),
	}
	if cfg.UseBrowser {
		analyzerOpts = append(analyzerOpts, trends.WithBrowserRendering())
	}
	if cfg.Verbose {
		analyzerOpts = append(analyzerOpts, trends.WithVerbose())
	}
	c.Analyzer = trends.NewAnalyzer(c.LLM, analyzerOpts...)

	c.Searcher = &workflow.Searcher{DB: c.DB}
	if c.DB != nil {
		// The products table holds factory listings too, so no separate
		// factory provider is wired for the database-backed catalog.
		c.Searcher.Products = catalog.NewPostgresProvider(c.DB.Pool())
	} else {
		c.Searcher.Products = catalog.NewDemoProvider()
		c.Searcher.Factories = catalog.NewDemoFactoryProvider()
	}

	c.Deps = &workflow.Deps{
		Searcher: c.Searcher,
		Analyzer: c.Analyzer,
		Parser:   c.Parser,
		LLM:      c.LLM,
	}

	return c, nil
}

// Close releases held connections.
func (c *collaborators) Close() {
	if c.LLM != nil {
		_ = c.LLM.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}

// loadMergedConfig loads an optional config file and merges flag values over it.
func loadMergedConfig(configPath string, flags config.Config) (config.Config, error) {
	if configPath == "" {
		return flags, nil
	}

	loaded, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		return config.Config{}, err
	}
	merged := flags.MergeWithDefaults(*loaded)
	return merged, nil
}
