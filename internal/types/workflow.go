package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// StepStatus is the lifecycle state of a single workflow step.
// Transitions: pending -> running -> {completed | failed | cancelled}.
// Terminal states are never left.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepCancelled StepStatus = "cancelled"
)

// Terminal reports whether no further transition may leave this status.
func (s StepStatus) Terminal() bool {
	return s == StepCompleted || s == StepFailed || s == StepCancelled
}

// StepKind distinguishes steps the engine executes on its own from steps
// that pause the plan until the caller supplies input.
type StepKind string

const (
	StepUserInput    StepKind = "user_input"
	StepSystemAction StepKind = "system_action"
)

// WorkflowStep is one unit of work in an agent execution plan.
type WorkflowStep struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Icon        string     `json:"icon,omitempty"`
	Kind        StepKind   `json:"kind"`
	Status      StepStatus `json:"status"`
	Result      any        `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	Logs        []string   `json:"logs,omitempty"`
}

// TaskState is the aggregate state of one workflow run.
type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskRunning   TaskState = "running"
	TaskCompleted TaskState = "completed"
	TaskFailed    TaskState = "failed"
	TaskCancelled TaskState = "cancelled"
)

// Terminal reports whether the task can no longer change state.
func (s TaskState) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// TaskStatus is the pollable snapshot of one workflow run. Snapshots returned
// by the engine are deep copies; mutating one never affects the run.
type TaskStatus struct {
	TaskID         string         `json:"task_id"`
	AgentID        string         `json:"agent_id"`
	Prompt         string         `json:"prompt,omitempty"`
	Status         TaskState      `json:"status"`
	Plan           []WorkflowStep `json:"plan"`
	Results        map[string]any `json:"results,omitempty"`
	Error          string         `json:"error,omitempty"`
	AwaitingStepID string         `json:"awaiting_step_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// StartRequest creates a new workflow task. AgentID is optional; when empty
// the engine routes the prompt to an agent by intent.
type StartRequest struct {
	Prompt  string `json:"prompt" validate:"required,min=1"`
	AgentID string `json:"agent_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

// Validate validates the StartRequest using the validator.
func (r *StartRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ContinueRequest resumes a task paused on a user_input step.
type ContinueRequest struct {
	TaskID    string         `json:"task_id" validate:"required"`
	UserInput map[string]any `json:"user_input"`
}

// Validate validates the ContinueRequest using the validator.
func (r *ContinueRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
