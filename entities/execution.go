package entities

import "time"

// Status is the outcome of executing a task.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
)

// ErrorDetail carries the structured failure information a FAILURE result
// must expose: the raw error type/root cause plus a user-facing message
// and (when possible) a suggestion for fixing it.
type ErrorDetail struct {
	ErrorType   string                 `json:"error_type"`
	Component   string                 `json:"component"`
	Input       interface{}            `json:"input,omitempty"`
	RootCause   string                 `json:"root_cause"`
	UserMessage string                 `json:"user_message"`
	Suggestion  string                 `json:"suggestion,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
}

// ExecutionResult is what the Coordinator/Executor produce for a single
// task.
type ExecutionResult struct {
	Status       Status                 `json:"status"`
	Output       interface{}            `json:"output,omitempty"`
	Errors       []string               `json:"errors,omitempty"`
	ErrorDetails *ErrorDetail           `json:"error_details,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// Failure builds a FAILURE result carrying a single error message and
// structured details.
func Failure(message string, details *ErrorDetail) ExecutionResult {
	return ExecutionResult{
		Status:       StatusFailure,
		Errors:       []string{message},
		ErrorDetails: details,
		Metadata:     map[string]interface{}{},
	}
}

// Success builds a SUCCESS result with the given output and metadata.
func Success(output interface{}, metadata map[string]interface{}) ExecutionResult {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return ExecutionResult{Status: StatusSuccess, Output: output, Metadata: metadata}
}

// HistoryEntry is one turn of conversation history carried in an
// ExecutionContext.
type HistoryEntry struct {
	Role    string
	Content string
}

// ExecutionContext is mutable scratch state owned by a single run (and,
// within a run, by one task at a time — the Coordinator serialises
// history appends per task).
type ExecutionContext struct {
	SessionID string
	History   []HistoryEntry
	LLMState  map[string]interface{}
	UserData  map[string]interface{}
}

// NewExecutionContext creates an empty context for sessionID.
func NewExecutionContext(sessionID string) *ExecutionContext {
	return &ExecutionContext{
		SessionID: sessionID,
		History:   make([]HistoryEntry, 0),
		LLMState:  make(map[string]interface{}),
		UserData:  make(map[string]interface{}),
	}
}

// AppendHistory adds a turn to the context's conversation history.
func (c *ExecutionContext) AppendHistory(role, content string) {
	c.History = append(c.History, HistoryEntry{Role: role, Content: content})
}

// LastHistory returns up to n most recent history entries, in order.
func (c *ExecutionContext) LastHistory(n int) []HistoryEntry {
	if n >= len(c.History) {
		return c.History
	}
	return c.History[len(c.History)-n:]
}

// ExecutionPlan is the Planner's output: a flat task order, a
// TaskID-to-role assignment map, and frontiers of tasks safe to run
// concurrently.
type ExecutionPlan struct {
	TaskOrder        []string
	TaskAssignments  map[string]string // taskID -> agent role
	ParallelGroups   [][]string        // frontiers
	CreatedAt        time.Time
}

// ModelCapabilities describes a candidate LLM model/provider for the
// Provider Orchestrator's scoring functions.
type ModelCapabilities struct {
	Name             string
	SuccessRate      float64
	AvgLatencyS      float64
	CostPerMonthUSD  float64
	RequiresInternet bool
	MaxTokens        int
	SupportsTools    bool
}
