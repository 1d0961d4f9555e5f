package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateTask creates a new task record.
func (db *DB) CreateTask(ctx context.Context, taskID uuid.UUID, agentID, userID, prompt, status string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO tasks (id, agent_id, user_id, prompt, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		taskID, agentID, userID, prompt, status,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// UpdateTaskStatus updates the status, error, and results of a task.
func (db *DB) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status string, errorMsg *string, results map[string]interface{}) error {
	var resultsJSON []byte
	if results != nil {
		var err error
		resultsJSON, err = json.Marshal(results)
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
	}

	_, err := db.pool.Exec(ctx,
		`UPDATE tasks
		 SET status = $1, error_message = $2, results = COALESCE($3, results), updated_at = NOW()
		 WHERE id = $4`,
		status, errorMsg, resultsJSON, taskID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID. Returns nil when the task does not exist.
func (db *DB) GetTask(ctx context.Context, taskID uuid.UUID) (*TaskRecord, error) {
	var task TaskRecord
	var resultsJSON []byte

	err := db.pool.QueryRow(ctx,
		`SELECT id, agent_id, user_id, prompt, status, error_message, results, created_at, updated_at
		 FROM tasks WHERE id = $1`,
		taskID,
	).Scan(&task.ID, &task.AgentID, &task.UserID, &task.Prompt, &task.Status,
		&task.ErrorMessage, &resultsJSON, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if resultsJSON != nil {
		_ = json.Unmarshal(resultsJSON, &task.Results)
	}

	return &task, nil
}

// CreateTaskStep creates a step row for a task.
func (db *DB) CreateTaskStep(ctx context.Context, taskID uuid.UUID, input *TaskStepInput) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO task_steps (task_id, step, kind, status)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (task_id, step) DO NOTHING`,
		taskID, input.Step, input.Kind, input.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create task step: %w", err)
	}
	return nil
}

// GetTaskStep retrieves a step by task ID and step name. Returns nil when absent.
func (db *DB) GetTaskStep(ctx context.Context, taskID uuid.UUID, stepName string) (*TaskStep, error) {
	var step TaskStep
	var resultJSON []byte

	err := db.pool.QueryRow(ctx,
		`SELECT id, task_id, step, kind, status, started_at, completed_at,
		        duration_ms, error_message, result, logs, created_at, updated_at
		 FROM task_steps
		 WHERE task_id = $1 AND step = $2`,
		taskID, stepName,
	).Scan(&step.ID, &step.TaskID, &step.Step, &step.Kind, &step.Status,
		&step.StartedAt, &step.CompletedAt, &step.DurationMs,
		&step.ErrorMessage, &resultJSON, &step.Logs, &step.CreatedAt, &step.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task step: %w", err)
	}

	if resultJSON != nil {
		_ = json.Unmarshal(resultJSON, &step.Result)
	}

	return &step, nil
}

// ListTaskSteps retrieves all steps for a task in creation order.
func (db *DB) ListTaskSteps(ctx context.Context, taskID uuid.UUID) ([]TaskStep, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, task_id, step, kind, status, started_at, completed_at,
		        duration_ms, error_message, result, logs, created_at, updated_at
		 FROM task_steps
		 WHERE task_id = $1
		 ORDER BY created_at`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list task steps: %w", err)
	}
	defer rows.Close()

	var steps []TaskStep
	for rows.Next() {
		var step TaskStep
		var resultJSON []byte

		if err := rows.Scan(&step.ID, &step.TaskID, &step.Step, &step.Kind, &step.Status,
			&step.StartedAt, &step.CompletedAt, &step.DurationMs,
			&step.ErrorMessage, &resultJSON, &step.Logs, &step.CreatedAt, &step.UpdatedAt); err != nil {
			return nil, err
		}

		if resultJSON != nil {
			_ = json.Unmarshal(resultJSON, &step.Result)
		}

		steps = append(steps, step)
	}

	return steps, rows.Err()
}

// UpdateTaskStepStatus updates a step's status and bookkeeping columns.
// Duration is computed when the step reaches a terminal status and a start
// time was recorded.
func (db *DB) UpdateTaskStepStatus(ctx context.Context, taskID uuid.UUID, stepName, status string, errorMsg *string, result map[string]interface{}, logs []string) error {
	now := time.Now()

	currentStep, err := db.GetTaskStep(ctx, taskID, stepName)
	if err != nil {
		return err
	}
	if currentStep == nil {
		return fmt.Errorf("step not found: %s", stepName)
	}

	var startedAt *time.Time
	if status == "running" && currentStep.StartedAt == nil {
		startedAt = &now
	}

	var completedAt *time.Time
	var durationMs *int
	if status == "completed" || status == "failed" || status == "cancelled" {
		completedAt = &now
		started := currentStep.StartedAt
		if started == nil && startedAt != nil {
			started = startedAt
		}
		if started != nil {
			dur := int(now.Sub(*started).Milliseconds())
			durationMs = &dur
		}
	}

	var resultJSON []byte
	if result != nil {
		resultJSON, err = json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal step result: %w", err)
		}
	}

	_, err = db.pool.Exec(ctx,
		`UPDATE task_steps
		 SET status = $1, started_at = COALESCE($2, started_at), completed_at = $3,
		     duration_ms = $4, error_message = $5, result = COALESCE($6, result),
		     logs = COALESCE($7, logs), updated_at = NOW()
		 WHERE task_id = $8 AND step = $9`,
		status, startedAt, completedAt, durationMs, errorMsg, resultJSON, logs, taskID, stepName,
	)
	if err != nil {
		return fmt.Errorf("failed to update task step status: %w", err)
	}

	return nil
}
