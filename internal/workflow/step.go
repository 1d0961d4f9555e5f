package workflow

import (
	"context"

	"github.com/demandos/sourcing-agent/internal/llm"
	"github.com/demandos/sourcing-agent/internal/trends"
	"github.com/demandos/sourcing-agent/internal/types"
)

// StepContext is what a step action sees while running: the task prompt, the
// merged user-input context, results of completed steps, and a logger that
// appends to the step's log.
type StepContext struct {
	Prompt  string
	Input   map[string]any
	Results map[string]any
	Deps    *Deps

	// Logf appends a timestamped line to the running step's log and publishes
	// the update to the observer.
	Logf func(format string, args ...any)
}

// StepAction executes one system step. The returned payload is stored in the
// task results under the step's ID.
type StepAction func(ctx context.Context, sc *StepContext) (any, error)

// StepDef is the template-level definition of one plan step.
type StepDef struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Kind        types.StepKind

	// Action runs the step. Nil for user_input steps, whose payload arrives
	// via Continue.
	Action StepAction

	// Fallback runs when Action fails and FallbackToRules is set. A failing
	// fallback still fails the step.
	FallbackToRules bool
	Fallback        StepAction
}

// Deps are the shared read-only collaborators step actions draw on.
// All fields are optional; actions degrade or fail per step when a
// collaborator is missing.
type Deps struct {
	Searcher *Searcher
	Analyzer *trends.Analyzer
	Parser   QueryParser
	LLM      llm.Client
}

// QueryParser normalizes free text into a structured query.
type QueryParser interface {
	Parse(ctx context.Context, text string) *types.StructuredQuery
}
