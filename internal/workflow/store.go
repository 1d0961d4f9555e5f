package workflow

import (
	"sync"
	"time"

	"github.com/demandos/sourcing-agent/internal/types"
)

// task is the store-owned mutable state of one run. All access goes through
// the store's lock; step actions never touch it directly.
type task struct {
	ID        string
	AgentID   string
	UserID    string
	Prompt    string
	State     types.TaskState
	Plan      []types.WorkflowStep
	Defs      []StepDef
	Context   map[string]any // accumulated user input
	Results   map[string]any
	Error     string
	Awaiting  string // step ID awaiting user input, empty otherwise
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store holds all in-flight and finished tasks in memory. It enforces the
// single-writer invariant: every mutation happens under the store lock.
type Store struct {
	mu    sync.Mutex
	tasks map[string]*task
}

// NewStore creates an empty task store.
func NewStore() *Store {
	return &Store{tasks: make(map[string]*task)}
}

// Put registers a new task.
func (s *Store) Put(t *task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
}

// Update runs fn with the task held under the store lock. fn must not block
// on collaborators. Returns a StateError for unknown IDs.
func (s *Store) Update(taskID string, fn func(t *task) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return &StateError{TaskID: taskID, Message: "unknown task", NotFound: true}
	}
	if err := fn(t); err != nil {
		return err
	}
	t.UpdatedAt = time.Now()
	return nil
}

// Snapshot returns a deep copy of the task's pollable state. Mutating the
// returned value never affects the run, so repeated polls without an
// intervening event are deep-equal.
func (s *Store) Snapshot(taskID string) (*types.TaskStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return nil, &StateError{TaskID: taskID, Message: "unknown task", NotFound: true}
	}
	return snapshotLocked(t), nil
}

func snapshotLocked(t *task) *types.TaskStatus {
	return &types.TaskStatus{
		TaskID:         t.ID,
		AgentID:        t.AgentID,
		Prompt:         t.Prompt,
		Status:         t.State,
		Plan:           cloneSteps(t.Plan),
		Results:        cloneMap(t.Results),
		Error:          t.Error,
		AwaitingStepID: t.Awaiting,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// cloneSteps copies the step list, including per-step logs. Step results are
// treated as immutable once stored, so they are shared, not copied.
func cloneSteps(steps []types.WorkflowStep) []types.WorkflowStep {
	out := make([]types.WorkflowStep, len(steps))
	copy(out, steps)
	for i := range out {
		if steps[i].Logs != nil {
			out[i].Logs = append([]string(nil), steps[i].Logs...)
		}
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
