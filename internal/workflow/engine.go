package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/demandos/sourcing-agent/internal/db"
	"github.com/demandos/sourcing-agent/internal/intent"
	"github.com/demandos/sourcing-agent/internal/types"
)

// Observer receives the full cloned step list after every state mutation.
// Callbacks must not block; the engine calls them synchronously.
type Observer func(taskID string, steps []types.WorkflowStep)

// Engine owns task execution: it routes prompts to agents, builds plans,
// runs steps strictly in order, pauses on user-input steps, and serves
// side-effect-free status snapshots.
type Engine struct {
	store    *Store
	registry *Registry
	router   *intent.Router
	deps     *Deps
	observer Observer
	recorder *db.DB
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithObserver registers a status callback.
func WithObserver(fn Observer) EngineOption {
	return func(e *Engine) { e.observer = fn }
}

// WithRecorder enables best-effort task persistence. The in-memory store
// stays authoritative; recording failures never fail a step.
func WithRecorder(database *db.DB) EngineOption {
	return func(e *Engine) { e.recorder = database }
}

// WithRouter overrides the default trigger-keyword router, e.g. to add LLM
// tie-breaking.
func WithRouter(r *intent.Router) EngineOption {
	return func(e *Engine) { e.router = r }
}

// NewEngine creates an engine over the given agent registry and collaborators.
func NewEngine(registry *Registry, deps *Deps, opts ...EngineOption) *Engine {
	if deps == nil {
		deps = &Deps{}
	}
	e := &Engine{
		store:    NewStore(),
		registry: registry,
		deps:     deps,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.router == nil {
		e.router = intent.NewRouter(registry.Routes(), registry.DefaultID(), nil)
	}
	return e
}

// Start creates a task for the prompt, transitions its first step to running,
// kicks off asynchronous execution, and returns the initial snapshot.
func (e *Engine) Start(ctx context.Context, req *types.StartRequest) (*types.TaskStatus, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid start request: %w", err)
	}

	agentID := req.AgentID
	if agentID == "" {
		agentID = e.router.Match(ctx, req.Prompt)
	}
	agent := e.registry.Get(agentID)
	if agent == nil {
		return nil, fmt.Errorf("unknown agent %q", agentID)
	}

	defs := agent.Plan()
	if len(defs) == 0 {
		return nil, fmt.Errorf("agent %q produced an empty plan", agentID)
	}

	now := time.Now()
	t := &task{
		ID:        uuid.NewString(),
		AgentID:   agentID,
		UserID:    req.UserID,
		Prompt:    req.Prompt,
		State:     types.TaskRunning,
		Plan:      make([]types.WorkflowStep, len(defs)),
		Defs:      defs,
		Context:   make(map[string]any),
		Results:   make(map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, def := range defs {
		t.Plan[i] = types.WorkflowStep{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
			Kind:        def.Kind,
			Status:      types.StepPending,
		}
	}
	e.store.Put(t)
	e.recordTaskCreated(t)

	// First step starts before the initial snapshot is returned.
	pause := false
	_ = e.store.Update(t.ID, func(t *task) error {
		step := &t.Plan[0]
		step.Status = types.StepRunning
		if defs[0].Kind == types.StepUserInput {
			t.Awaiting = step.ID
			appendLog(step, "Waiting for user input: %s", defs[0].Name)
			pause = true
		} else {
			appendLog(step, "Starting: %s", defs[0].Name)
		}
		return nil
	})
	e.publish(t.ID)
	e.recordStep(t.ID, 0)

	if !pause {
		go e.run(t.ID, 0)
	}

	return e.store.Snapshot(t.ID)
}

// Agents returns routing metadata for the registered agents.
func (e *Engine) Agents() []intent.Route {
	return e.registry.Routes()
}

// Status returns a deep-copied snapshot of the task. It never mutates state.
func (e *Engine) Status(taskID string) (*types.TaskStatus, error) {
	return e.store.Snapshot(taskID)
}

// Continue resumes a task paused on a user-input step. The supplied input is
// merged into the task context, the paused step completes with the input as
// its result, and execution proceeds with the next step.
func (e *Engine) Continue(ctx context.Context, taskID string, input map[string]any) (*types.TaskStatus, error) {
	var next int
	err := e.store.Update(taskID, func(t *task) error {
		if t.State.Terminal() {
			return &StateError{TaskID: taskID, Message: "task already finished"}
		}
		if t.Awaiting == "" {
			return &StateError{TaskID: taskID, Message: "task is not awaiting input"}
		}
		idx := stepIndex(t.Plan, t.Awaiting)
		if idx < 0 {
			return &StateError{TaskID: taskID, Message: "awaiting step not found"}
		}
		step := &t.Plan[idx]
		for k, v := range input {
			t.Context[k] = v
		}
		step.Status = types.StepCompleted
		step.Result = cloneMap(input)
		t.Results[step.ID] = step.Result
		appendLog(step, "Received user input")
		t.Awaiting = ""
		next = idx + 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(taskID)
	e.recordStep(taskID, next-1)

	go e.run(taskID, next)

	return e.store.Snapshot(taskID)
}

// Cancel stops a task cleanly: the running step and the task itself become
// cancelled, completed-step results stay queryable, remaining steps stay
// pending.
func (e *Engine) Cancel(taskID string) (*types.TaskStatus, error) {
	cancelled := -1
	err := e.store.Update(taskID, func(t *task) error {
		if t.State.Terminal() {
			return &StateError{TaskID: taskID, Message: "task already finished"}
		}
		for i := range t.Plan {
			if t.Plan[i].Status == types.StepRunning {
				t.Plan[i].Status = types.StepCancelled
				appendLog(&t.Plan[i], "Cancelled")
				cancelled = i
			}
		}
		t.State = types.TaskCancelled
		t.Awaiting = ""
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(taskID)
	if cancelled >= 0 {
		e.recordStep(taskID, cancelled)
	}
	e.recordTaskState(taskID)

	return e.store.Snapshot(taskID)
}

// run executes steps from index from onward until the plan completes, fails,
// pauses on user input, or the task is cancelled.
func (e *Engine) run(taskID string, from int) {
	ctx := context.Background()

	for i := from; ; i++ {
		var def StepDef
		stop, pause, done := false, false, false

		_ = e.store.Update(taskID, func(t *task) error {
			if t.State.Terminal() {
				stop = true
				return nil
			}
			if i >= len(t.Plan) {
				t.State = types.TaskCompleted
				done = true
				return nil
			}
			def = t.Defs[i]
			step := &t.Plan[i]
			if step.Status == types.StepPending {
				step.Status = types.StepRunning
				if def.Kind == types.StepUserInput {
					t.Awaiting = step.ID
					appendLog(step, "Waiting for user input: %s", def.Name)
				} else {
					appendLog(step, "Starting: %s", def.Name)
				}
			}
			if def.Kind == types.StepUserInput {
				pause = true
			}
			return nil
		})

		if stop {
			return
		}
		if done {
			e.publish(taskID)
			e.recordTaskState(taskID)
			return
		}

		e.publish(taskID)
		e.recordStep(taskID, i)

		if pause {
			return
		}

		result, err := e.execute(ctx, taskID, i, def)

		finished := false
		_ = e.store.Update(taskID, func(t *task) error {
			if t.State.Terminal() {
				// Cancelled while the action was in flight; discard the outcome.
				stop = true
				return nil
			}
			step := &t.Plan[i]
			if err != nil {
				step.Status = types.StepFailed
				step.Error = err.Error()
				appendLog(step, "Error: %v", err)
				t.State = types.TaskFailed
				t.Error = err.Error()
				finished = true
				return nil
			}
			step.Status = types.StepCompleted
			step.Result = result
			t.Results[step.ID] = result
			appendLog(step, "Completed: %s", def.Name)
			return nil
		})

		if stop {
			return
		}

		e.publish(taskID)
		e.recordStep(taskID, i)

		if finished {
			e.recordTaskState(taskID)
			return
		}
	}
}

// execute runs one system step action, applying the rule-based fallback when
// the step declares one.
func (e *Engine) execute(ctx context.Context, taskID string, i int, def StepDef) (any, error) {
	sc := e.stepContext(taskID, i)
	if def.Action == nil {
		return nil, fmt.Errorf("step %s has no action", def.ID)
	}

	result, err := def.Action(ctx, sc)
	if err != nil && def.FallbackToRules && def.Fallback != nil {
		sc.Logf("Collaborator failed, falling back to rule-based path: %v", err)
		result, err = def.Fallback(ctx, sc)
	}
	return result, err
}

// stepContext builds the read view a step action receives. Input and results
// are copies; actions communicate only through their return value.
func (e *Engine) stepContext(taskID string, i int) *StepContext {
	sc := &StepContext{Deps: e.deps}
	_ = e.store.Update(taskID, func(t *task) error {
		sc.Prompt = t.Prompt
		sc.Input = cloneMap(t.Context)
		sc.Results = cloneMap(t.Results)
		return nil
	})
	sc.Logf = func(format string, args ...any) {
		_ = e.store.Update(taskID, func(t *task) error {
			appendLog(&t.Plan[i], format, args...)
			return nil
		})
		e.publish(taskID)
	}
	return sc
}

// publish sends the cloned step list to the observer, if any.
func (e *Engine) publish(taskID string) {
	if e.observer == nil {
		return
	}
	status, err := e.store.Snapshot(taskID)
	if err != nil {
		return
	}
	e.observer(taskID, status.Plan)
}

func appendLog(step *types.WorkflowStep, format string, args ...any) {
	line := fmt.Sprintf("%s %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	step.Logs = append(step.Logs, line)
}

func stepIndex(plan []types.WorkflowStep, stepID string) int {
	for i := range plan {
		if plan[i].ID == stepID {
			return i
		}
	}
	return -1
}
