// Package coordinator implements the Task Coordinator (C7): validates
// tasks, obtains an ExecutionPlan, runs each frontier concurrently with
// per-task retry/backoff, and reorders results back to the caller's
// input order. Grounded on core/multiagent/coordinator.go's
// ExecuteTask/Initialize/worker-dispatch shape, with the retry loop
// delegated to the kept resilience.RetryWithResult generic so the
// 2^attempt exponential backoff matches the teacher's own retry
// policy semantics (InitialDelay=1s, Multiplier=2.0, no jitter).
package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/hollis-source/unified-intelligence-cli/entities"
	"github.com/hollis-source/unified-intelligence-cli/executor"
	"github.com/hollis-source/unified-intelligence-cli/planner"
	"github.com/hollis-source/unified-intelligence-cli/resilience"
	"github.com/hollis-source/unified-intelligence-cli/selector"
)

// DefaultMaxRetries matches the spec's default retry budget.
const DefaultMaxRetries = 3

// Config configures a Coordinator's retry behaviour.
type Config struct {
	MaxRetries int
}

// DefaultConfig returns the spec's default (3 attempts, 1s initial
// backoff doubling each retry).
func DefaultConfig() Config { return Config{MaxRetries: DefaultMaxRetries} }

// Coordinator executes an ExecutionPlan's frontiers concurrently,
// dispatching each task to its assigned agent via an Executor.
type Coordinator struct {
	Planner  *planner.Planner
	Executor *executor.Executor
	Config   Config
}

// New creates a Coordinator with the default retry config.
func New(p *planner.Planner, e *executor.Executor) *Coordinator {
	return &Coordinator{Planner: p, Executor: e, Config: DefaultConfig()}
}

// Coordinate executes tasks against agents, returning one
// ExecutionResult per task in the caller's input order. It never
// returns a Go error for a per-task failure — only per-task FAILURE
// results — reserving a thrown error for programmer mistakes (a nil
// Planner/Executor).
func (c *Coordinator) Coordinate(ctx context.Context, tasks []entities.Task, agents []entities.Agent, ctxState *entities.ExecutionContext) ([]entities.ExecutionResult, error) {
	if c.Planner == nil || c.Executor == nil {
		return nil, fmt.Errorf("coordinator misconfigured: planner and executor are required")
	}

	// Tasks are keyed by Key(index) rather than raw TaskID: TaskID is
	// optional and the data model allows any number of ID-less tasks in
	// one batch, so keying by TaskID alone would collapse every ID-less
	// task onto the same "" slot and silently drop all but the last.
	keys := make([]string, len(tasks))
	results := make(map[string]entities.ExecutionResult, len(tasks))
	byKey := make(map[string]entities.Task, len(tasks))
	for i, t := range tasks {
		key := t.Key(i)
		keys[i] = key
		byKey[key] = t
		if err := t.Validate(); err != nil {
			results[key] = entities.Failure(err.Error(), &entities.ErrorDetail{
				ErrorType:   "ValidationError",
				Component:   "coordinator",
				UserMessage: "task failed validation before execution",
			})
		}
	}

	agentByRole := make(map[string]entities.Agent, len(agents))
	for _, a := range agents {
		agentByRole[a.Role] = a
	}

	plan := c.Planner.CreatePlan(ctx, tasks, agents)

	for _, frontier := range plan.ParallelGroups {
		type runnableTask struct {
			key  string
			task entities.Task
		}
		type outcome struct {
			key    string
			result entities.ExecutionResult
		}
		var runnable []runnableTask
		for _, key := range frontier {
			if _, alreadyHandled := results[key]; alreadyHandled {
				continue
			}
			if task, ok := byKey[key]; ok {
				runnable = append(runnable, runnableTask{key: key, task: task})
			}
		}

		outcomes := make(chan outcome, len(runnable))
		for _, rt := range runnable {
			rt := rt
			go func() {
				outcomes <- outcome{key: rt.key, result: c.runTask(ctx, rt.key, rt.task, plan, agentByRole, ctxState)}
			}()
		}
		for range runnable {
			o := <-outcomes
			results[o.key] = o.result
		}
	}

	ordered := make([]entities.ExecutionResult, 0, len(tasks))
	for _, key := range keys {
		if r, ok := results[key]; ok {
			ordered = append(ordered, r)
		} else {
			ordered = append(ordered, entities.Failure("task produced no result", &entities.ErrorDetail{
				ErrorType: "InternalError",
				Component: "coordinator",
			}))
		}
	}
	return ordered, nil
}

// runTask resolves the task's assigned agent (falling back to the
// selector when the plan left it unassigned) and executes it with
// retry/backoff.
func (c *Coordinator) runTask(ctx context.Context, key string, task entities.Task, plan entities.ExecutionPlan, agentByRole map[string]entities.Agent, ctxState *entities.ExecutionContext) entities.ExecutionResult {
	role, ok := plan.TaskAssignments[key]
	agent, agentOK := agentByRole[role]
	if !ok || !agentOK {
		agents := make([]entities.Agent, 0, len(agentByRole))
		for _, a := range agentByRole {
			agents = append(agents, a)
		}
		selected, err := selector.SelectAgent(agents, task)
		if err != nil {
			return entities.Failure("no suitable agent for task", &entities.ErrorDetail{
				ErrorType:   "NoSuitableAgentError",
				Component:   "coordinator",
				Input:       task.Description,
				UserMessage: "no agent's capabilities matched this task",
			})
		}
		agent = selected
	}

	policy := &resilience.RetryPolicy{
		MaxAttempts:  c.Config.MaxRetries,
		InitialDelay: time.Second,
		MaxDelay:     time.Duration(1<<uint(c.Config.MaxRetries)) * time.Second,
		Multiplier:   2.0,
		Jitter:       false,
	}

	var lastResult entities.ExecutionResult
	result, err := resilience.RetryWithResult(ctx, policy, func() (entities.ExecutionResult, error) {
		r := c.Executor.Execute(ctx, agent, task, ctxState)
		lastResult = r
		if r.Status != entities.StatusSuccess {
			return r, fmt.Errorf("task %s did not succeed", key)
		}
		return r, nil
	})
	if err != nil {
		return lastResult
	}
	return result
}
