// Package entities holds the core data model shared by the planner,
// coordinator, provider orchestrator and DSL runtime: Task, Agent,
// AgentTeam, ExecutionResult, ExecutionContext and ExecutionPlan.
package entities

import (
	"fmt"
	"strings"
)

// Task is a unit of work submitted to the orchestration runtime. It is
// immutable once created; the Coordinator never mutates a Task, it
// produces an ExecutionResult alongside it.
type Task struct {
	TaskID       string   `json:"task_id,omitempty"`
	Description  string   `json:"description"`
	Priority     int      `json:"priority"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Key returns a stable identifier for the task within a batch: TaskID
// when set, otherwise its positional index. TaskID is optional (see the
// `omitempty` tag) and the data model permits any number of ID-less
// tasks in one batch, so callers that key maps by TaskID must use Key
// instead or risk two ID-less tasks colliding on "".
func (t Task) Key(index int) string {
	if t.TaskID != "" {
		return t.TaskID
	}
	return fmt.Sprintf("__task_%d", index)
}

const (
	minDescriptionLen = 3
	maxDescriptionLen = 10000
	minPriority       = 0
	maxPriority       = 100
)

// Validate checks Task against the invariants in the data model: a
// non-empty, non-whitespace description between 3 and 10000 characters,
// and a priority in [0,100]. It returns a *ValidationError rather than a
// generic error so callers can surface field/value/suggestion to users.
func (t Task) Validate() error {
	trimmed := strings.TrimSpace(t.Description)
	if trimmed == "" {
		return &ValidationError{
			Field:      "description",
			Value:      t.Description,
			Message:    "description must not be empty or whitespace",
			Suggestion: "provide a short natural-language description of the work to perform",
		}
	}
	if len(trimmed) < minDescriptionLen {
		return &ValidationError{
			Field:      "description",
			Value:      t.Description,
			Message:    fmt.Sprintf("description must be at least %d characters", minDescriptionLen),
			Suggestion: "expand the description with more detail",
		}
	}
	if len(t.Description) > maxDescriptionLen {
		return &ValidationError{
			Field:      "description",
			Value:      len(t.Description),
			Message:    fmt.Sprintf("description must be at most %d characters", maxDescriptionLen),
			Suggestion: "split this into multiple smaller tasks",
		}
	}
	if t.Priority < minPriority || t.Priority > maxPriority {
		return &ValidationError{
			Field:      "priority",
			Value:      t.Priority,
			Message:    fmt.Sprintf("priority must be in [%d,%d]", minPriority, maxPriority),
			Suggestion: "clamp priority to the documented range",
		}
	}
	return nil
}

// ValidationError carries a field/value/message triple plus a human
// suggestion, matching the errorDetails shape §3 requires for rejected
// tasks.
type ValidationError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}
