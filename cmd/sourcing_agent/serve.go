package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/demandos/sourcing-agent/internal/config"
	"github.com/demandos/sourcing-agent/internal/server"
	"github.com/demandos/sourcing-agent/internal/workflow"
)

var (
	serveConfigPath  string
	servePort        int
	serveDatabaseURL string
	serveUseBrowser  bool
	serveVerbose     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for agent tasks, catalog search, and sourcing requests.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default 8080)")
	serveCmd.Flags().StringVar(&serveDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	serveCmd.Flags().BoolVar(&serveUseBrowser, "use-browser", false, "Use headless browser for SPA sites (requires Chrome)")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Print detailed debug information")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadMergedConfig(serveConfigPath, config.Config{
		Port:        servePort,
		DatabaseURL: serveDatabaseURL,
		UseBrowser:  serveUseBrowser,
		Verbose:     serveVerbose,
	})
	if err != nil {
		return err
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	ctx := context.Background()
	c, err := buildCollaborators(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to wire components: %w", err)
	}

	engineOpts := []workflow.EngineOption{}
	if c.DB != nil {
		engineOpts = append(engineOpts, workflow.WithRecorder(c.DB))
	}
	engine := workflow.NewEngine(workflow.BuiltinRegistry(), c.Deps, engineOpts...)

	// A nil *db.DB must stay a nil interface or the store checks misfire.
	var database server.Database
	if c.DB != nil {
		database = c.DB
	}

	srv := server.New(server.Config{Port: cfg.Port}, engine, c.Searcher, c.Parser, database)
	return srv.Start()
}
