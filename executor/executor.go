// Package executor implements the Agent Executor: builds the
// system/history/user message sequence for a single task, calls a
// provider, and classifies the outcome into entities.ExecutionResult.
// Grounded on core/multiagent/orchestrator.go's prompt-construction
// helpers (buildWorkerCapabilitiesPrompt, planTask's systemPrompt
// template), generalised from a fixed orchestrator prompt to a
// per-task, per-role prompt.
package executor

import (
	"context"
	goerrors "errors"
	"fmt"
	"time"

	"github.com/hollis-source/unified-intelligence-cli/entities"
	uierrors "github.com/hollis-source/unified-intelligence-cli/errors"
	"github.com/hollis-source/unified-intelligence-cli/providers"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1024
	historyWindow      = 5
)

// Generator is the minimal text-generation contract the executor
// needs from the provider layer.
type Generator interface {
	Generate(ctx context.Context, messages []providers.Message, cfg providers.GenerationConfig) (string, error)
}

// DataCollector receives a record of every execution attempt,
// successful or not, for offline analysis/training data collection.
type DataCollector interface {
	Collect(record InteractionRecord)
}

// InteractionRecord is appended to the data collector (if any) after
// every task execution.
type InteractionRecord struct {
	TaskID    string
	Role      string
	Success   bool
	DurationS float64
	Output    string
	Error     string
}

// Executor runs a single task against an agent's role/capabilities via
// a Generator, optionally threading conversation history and emitting
// interaction records.
type Executor struct {
	Generator Generator
	Collector DataCollector
}

// New creates an Executor bound to the given generator.
func New(generator Generator) *Executor {
	return &Executor{Generator: generator}
}

// Execute runs task for agent, optionally reading/appending to ctxState's
// history, and returns a result whose Status is Success or Failure —
// Execute itself never returns a Go error for a provider failure, only
// for a misconfigured executor (nil Generator).
func (e *Executor) Execute(ctx context.Context, agent entities.Agent, task entities.Task, ctxState *entities.ExecutionContext) entities.ExecutionResult {
	if e.Generator == nil {
		return entities.Failure(fmt.Sprintf("no generator configured for role %s", agent.Role), &entities.ErrorDetail{
			ErrorType: "ConfigurationError",
			Component: "agent-executor",
		})
	}

	messages := e.buildMessages(agent, task, ctxState)
	start := time.Now()
	out, err := e.Generator.Generate(ctx, messages, providers.GenerationConfig{
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	})
	duration := time.Since(start).Seconds()

	if err != nil {
		result := classifyFailure(task, agent, err)
		e.collect(task, agent, false, duration, "", err)
		return result
	}

	if ctxState != nil {
		ctxState.AppendHistory("assistant", out)
	}
	e.collect(task, agent, true, duration, out, nil)
	return entities.Success(out, map[string]interface{}{"role": agent.Role})
}

// buildMessages builds the 2-7 message sequence: a system prompt from
// role+capabilities+ULTRATHINK guidance, up to the last five history
// entries, and a user message wrapping the task description in a
// step-by-step analysis template.
func (e *Executor) buildMessages(agent entities.Agent, task entities.Task, ctxState *entities.ExecutionContext) []providers.Message {
	messages := []providers.Message{
		{Role: "system", Content: systemPrompt(agent)},
	}
	if ctxState != nil {
		for _, h := range ctxState.LastHistory(historyWindow) {
			messages = append(messages, providers.Message{Role: h.Role, Content: h.Content})
		}
	}
	messages = append(messages, providers.Message{Role: "user", Content: userPrompt(task)})
	return messages
}

func systemPrompt(agent entities.Agent) string {
	return fmt.Sprintf(`You are the %s agent. Your capabilities: %v.

ULTRATHINK: think step by step before answering, wrapping your reasoning
in <think>...</think> tags, then give your final answer.`, agent.Role, agent.Capabilities)
}

func userPrompt(task entities.Task) string {
	return fmt.Sprintf(`Task: %s

Analyze this task step by step:
1. What is being asked?
2. What information or actions are required?
3. Produce the result.`, task.Description)
}

// classifyFailure distinguishes a ToolExecutionError (structured
// ErrorDetail) from a generic execution error.
func classifyFailure(task entities.Task, agent entities.Agent, err error) entities.ExecutionResult {
	var toolErr *uierrors.ToolExecutionError
	if goerrors.As(err, &toolErr) {
		return entities.Failure(toolErr.Error(), &entities.ErrorDetail{
			ErrorType:   "ToolExecutionError",
			Component:   toolErr.Tool,
			Input:       task.Description,
			RootCause:   toolErr.RootCause,
			UserMessage: fmt.Sprintf("%s could not complete the task using %s", agent.Role, toolErr.Tool),
			Suggestion:  "retry the task or reassign it to an agent with different capabilities",
		})
	}
	return entities.Failure(err.Error(), &entities.ErrorDetail{
		ErrorType:   "ExecutionError",
		Component:   "agent-executor",
		Input:       task.Description,
		UserMessage: fmt.Sprintf("%s failed to complete the task", agent.Role),
	})
}

func (e *Executor) collect(task entities.Task, agent entities.Agent, success bool, duration float64, output string, err error) {
	if e.Collector == nil {
		return
	}
	record := InteractionRecord{
		TaskID:    task.TaskID,
		Role:      agent.Role,
		Success:   success,
		DurationS: duration,
		Output:    output,
	}
	if err != nil {
		record.Error = err.Error()
	}
	e.Collector.Collect(record)
}
