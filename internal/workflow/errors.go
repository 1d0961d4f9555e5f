// Package workflow runs agent task plans: ordered steps executed strictly in
// sequence, with pause/resume on user-input steps, observer publishing, and
// pollable snapshots.
package workflow

import (
	"errors"
	"fmt"
)

// StateError reports an operation against a task in the wrong state: an
// unknown task ID, a continue on a task that is not awaiting input, or a
// cancel on a finished task.
type StateError struct {
	TaskID   string
	Message  string
	NotFound bool
}

func (e *StateError) Error() string {
	return fmt.Sprintf("task %s: %s", e.TaskID, e.Message)
}

// IsStateError reports whether err is a StateError.
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}
