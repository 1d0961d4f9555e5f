package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(message string) {
	s.WriteEvent("error", map[string]string{"error": message}) //nolint:errcheck
}

// WriteComplete sends a completion event
func (s *SSEWriter) WriteComplete(taskID, status string) {
	s.WriteEvent("complete", map[string]string{ //nolint:errcheck
		"task_id": taskID,
		"status":  status,
	})
}

// streamPollInterval is how often the stream handler checks for task updates.
const streamPollInterval = 250 * time.Millisecond

// handleStream streams task snapshots as SSE until the task finishes or the
// client disconnects. An event is emitted only when the task has changed.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("task_id")

	status, err := s.engine.Status(taskID)
	if err != nil {
		s.engineError(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := sse.WriteEvent("status", status); err != nil {
		return
	}
	lastUpdated := status.UpdatedAt

	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		status, err = s.engine.Status(taskID)
		if err != nil {
			sse.WriteError(err.Error())
			return
		}

		if status.UpdatedAt.After(lastUpdated) {
			if err := sse.WriteEvent("status", status); err != nil {
				return
			}
			lastUpdated = status.UpdatedAt
		}

		if status.Status.Terminal() {
			sse.WriteComplete(taskID, string(status.Status))
			return
		}
	}
}
