package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/demandos/sourcing-agent/internal/types"
)

// taskStepsSummary aggregates the persisted step statuses of one task.
type taskStepsSummary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Running   int `json:"running"`
	Pending   int `json:"pending"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

// handleGetTaskRecord returns the persisted record of a task. Unlike the
// status endpoint this also covers tasks from earlier server processes that
// the in-memory engine no longer tracks.
func (s *Server) handleGetTaskRecord(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "task store not configured")
		return
	}

	taskID, err := uuid.Parse(r.PathValue("task_id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid task ID")
		return
	}
	task, err := s.db.GetTask(r.Context(), taskID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to load task")
		return
	}
	if task == nil {
		s.errorResponse(w, http.StatusNotFound, "task not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, task)
}

// handleListTaskSteps returns the persisted step history of a task in
// execution order, with a status summary.
func (s *Server) handleListTaskSteps(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "task store not configured")
		return
	}

	taskID, err := uuid.Parse(r.PathValue("task_id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid task ID")
		return
	}
	task, err := s.db.GetTask(r.Context(), taskID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to load task")
		return
	}
	if task == nil {
		s.errorResponse(w, http.StatusNotFound, "task not found")
		return
	}

	steps, err := s.db.ListTaskSteps(r.Context(), taskID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to list task steps")
		return
	}

	summary := taskStepsSummary{Total: len(steps)}
	for _, step := range steps {
		switch step.Status {
		case string(types.StepCompleted):
			summary.Completed++
		case string(types.StepRunning):
			summary.Running++
		case string(types.StepPending):
			summary.Pending++
		case string(types.StepFailed):
			summary.Failed++
		case string(types.StepCancelled):
			summary.Cancelled++
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"task_id": taskID,
		"status":  task.Status,
		"steps":   steps,
		"summary": summary,
	})
}
