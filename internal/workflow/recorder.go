package workflow

import (
	"context"

	"github.com/google/uuid"

	"github.com/demandos/sourcing-agent/internal/db"
	"github.com/demandos/sourcing-agent/internal/types"
)

// Persistence is best effort: the in-memory store is authoritative and a
// database hiccup must never fail a step. Errors are deliberately dropped.

func (e *Engine) recordTaskCreated(t *task) {
	if e.recorder == nil {
		return
	}
	id, err := uuid.Parse(t.ID)
	if err != nil {
		return
	}
	ctx := context.Background()
	_ = e.recorder.CreateTask(ctx, id, t.AgentID, t.UserID, t.Prompt, string(t.State))
	for i, def := range t.Defs {
		_ = e.recorder.CreateTaskStep(ctx, id, &db.TaskStepInput{
			Step:   def.ID,
			Kind:   string(def.Kind),
			Status: string(t.Plan[i].Status),
		})
	}
}

func (e *Engine) recordStep(taskID string, i int) {
	if e.recorder == nil {
		return
	}
	id, err := uuid.Parse(taskID)
	if err != nil {
		return
	}

	var step types.WorkflowStep
	ok := false
	_ = e.store.Update(taskID, func(t *task) error {
		if i >= 0 && i < len(t.Plan) {
			step = cloneSteps(t.Plan[i : i+1])[0]
			ok = true
		}
		return nil
	})
	if !ok {
		return
	}

	var errMsg *string
	if step.Error != "" {
		errMsg = &step.Error
	}
	_ = e.recorder.UpdateTaskStepStatus(context.Background(), id, step.ID,
		string(step.Status), errMsg, resultAsMap(step.Result), step.Logs)
}

func (e *Engine) recordTaskState(taskID string) {
	if e.recorder == nil {
		return
	}
	id, err := uuid.Parse(taskID)
	if err != nil {
		return
	}

	var state types.TaskState
	var taskErr string
	var results map[string]any
	_ = e.store.Update(taskID, func(t *task) error {
		state = t.State
		taskErr = t.Error
		results = cloneMap(t.Results)
		return nil
	})

	var errMsg *string
	if taskErr != "" {
		errMsg = &taskErr
	}
	_ = e.recorder.UpdateTaskStatus(context.Background(), id, string(state), errMsg, results)
}

func resultAsMap(result any) map[string]interface{} {
	if result == nil {
		return nil
	}
	if m, ok := result.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{"value": result}
}
