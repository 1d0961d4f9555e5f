package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/demandos/sourcing-agent/internal/config"
	"github.com/demandos/sourcing-agent/internal/types"
	"github.com/demandos/sourcing-agent/internal/workflow"
)

var (
	runConfigPath  string
	runAgentID     string
	runUserID      string
	runDatabaseURL string
	runInputs      []string
	runUseBrowser  bool
	runVerbose     bool
	runJSON        bool
)

var runCmd = &cobra.Command{
	Use:   "run <prompt>",
	Short: "Run an agent workflow end-to-end",
	Long: `Route the prompt to an agent and execute its plan step by step,
printing progress as the task advances.

When a step needs user input, values from --input are consumed first; once
exhausted the command prompts interactively (key=value lines, empty line to
submit).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAgentTask,
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	runCmd.Flags().StringVarP(&runAgentID, "agent", "a", "", "Agent ID (optional, routed from the prompt when omitted)")
	runCmd.Flags().StringVar(&runUserID, "user-id", "", "User ID recorded on the task")
	runCmd.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	runCmd.Flags().StringArrayVar(&runInputs, "input", nil, "key=value pairs consumed by user-input steps (repeatable)")
	runCmd.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Use headless browser for SPA sites (requires Chrome)")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the final task snapshot as JSON")
	rootCmd.AddCommand(runCmd)
}

const runPollInterval = 200 * time.Millisecond

func runAgentTask(_ *cobra.Command, args []string) error {
	cfg, err := loadMergedConfig(runConfigPath, config.Config{
		AgentID:     runAgentID,
		UserID:      runUserID,
		DatabaseURL: runDatabaseURL,
		UseBrowser:  runUseBrowser,
		Verbose:     runVerbose,
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

	engineOpts := []workflow.EngineOption{}
	if c.DB != nil {
		engineOpts = append(engineOpts, workflow.WithRecorder(c.DB))
	}
	engine := workflow.NewEngine(workflow.BuiltinRegistry(), c.Deps, engineOpts...)

	status, err := engine.Start(ctx, &types.StartRequest{
		Prompt:  strings.Join(args, " "),
		AgentID: cfg.AgentID,
		UserID:  cfg.UserID,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Task %s started (agent: %s, %d steps)\n\n", status.TaskID, status.AgentID, len(status.Plan))

	pendingInput := parseKeyValues(runInputs)
	printer := newProgressPrinter(os.Stdout)
	printer.update(status)

	for !status.Status.Terminal() {
		if status.AwaitingStepID != "" {
			input := pendingInput
			pendingInput = nil
			if input == nil {
				input, err = promptForInput(status.AwaitingStepID)
				if err != nil {
					return err
				}
			}
			status, err = engine.Continue(ctx, status.TaskID, input)
			if err != nil {
				return err
			}
			printer.update(status)
			continue
		}

		time.Sleep(runPollInterval)
		status, err = engine.Status(status.TaskID)
		if err != nil {
			return err
		}
		printer.update(status)
	}

	fmt.Printf("\nTask %s: %s\n", status.TaskID, status.Status)
	if status.Error != "" {
		fmt.Printf("Error: %s\n", status.Error)
	}

	if runJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}
	return nil
}

// parseKeyValues turns ["a=1","b=x"] into a map. Values without '=' become
// empty-string keys' values under the raw string, which user-input steps can
// still inspect.
func parseKeyValues(pairs []string) map[string]any {
	if len(pairs) == 0 {
		return nil
	}
	m := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			m[pair] = ""
			continue
		}
		m[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return m
}

// promptForInput reads key=value lines from stdin until an empty line.
func promptForInput(stepID string) (map[string]any, error) {
	fmt.Printf("\nStep %q needs input. Enter key=value lines, empty line to submit:\n", stepID)

	input := make(map[string]any)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			fmt.Println("expected key=value")
			continue
		}
		input[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return input, nil
}

// progressPrinter prints step transitions and new log lines as they appear.
type progressPrinter struct {
	w        *os.File
	statuses map[string]types.StepStatus
	logged   map[string]int
}

func newProgressPrinter(w *os.File) *progressPrinter {
	return &progressPrinter{
		w:        w,
		statuses: make(map[string]types.StepStatus),
		logged:   make(map[string]int),
	}
}

func (p *progressPrinter) update(status *types.TaskStatus) {
	for _, step := range status.Plan {
		if prev := p.statuses[step.ID]; prev != step.Status {
			fmt.Fprintf(p.w, "[%s] %s %s\n", step.Status, step.Icon, step.Name)
			p.statuses[step.ID] = step.Status
		}
		for _, line := range step.Logs[p.logged[step.ID]:] {
			fmt.Fprintf(p.w, "    %s\n", line)
		}
		p.logged[step.ID] = len(step.Logs)
	}
}
