package db

import (
	"time"

	"github.com/google/uuid"
)

// TaskStep represents one persisted workflow step execution.
type TaskStep struct {
	ID           uuid.UUID              `json:"id"`
	TaskID       uuid.UUID              `json:"task_id"`
	Step         string                 `json:"step"`
	Kind         string                 `json:"kind"`
	Status       string                 `json:"status"`
	StartedAt    *time.Time             `json:"started_at,omitempty"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
	DurationMs   *int                   `json:"duration_ms,omitempty"`
	ErrorMessage *string                `json:"error_message,omitempty"`
	Result       map[string]interface{} `json:"result,omitempty"`
	Logs         []string               `json:"logs,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// TaskStepInput represents input for creating a task step row.
type TaskStepInput struct {
	Step   string
	Kind   string
	Status string
}

// TaskRecord represents one persisted workflow task.
type TaskRecord struct {
	ID           uuid.UUID              `json:"id"`
	AgentID      string                 `json:"agent_id"`
	UserID       string                 `json:"user_id"`
	Prompt       string                 `json:"prompt"`
	Status       string                 `json:"status"`
	ErrorMessage *string                `json:"error_message,omitempty"`
	Results      map[string]interface{} `json:"results,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// SourcingRequestRecord represents one persisted sourcing request ticket.
type SourcingRequestRecord struct {
	ID            uuid.UUID              `json:"id"`
	Query         map[string]interface{} `json:"query"`
	OriginalQuery string                 `json:"original_query"`
	Status        string                 `json:"status"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// CachedPage represents a cached fetched page.
type CachedPage struct {
	URL       string    `json:"url"`
	HTML      string    `json:"html"`
	FetchedAt time.Time `json:"fetched_at"`
}
