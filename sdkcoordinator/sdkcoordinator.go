// Package sdkcoordinator adapts core/multiagent's Coordinator (the
// protocol/worker-pool/orchestrator engine with Redis/Kafka/Postgres
// backends) to the orchestration.Coordinator contract, so it can serve
// as the Hybrid Orchestrator's SDK-style strategy for simple, single-
// step tasks. Grounded on core/multiagent/coordinator.go's
// NewCoordinator/Initialize/RegisterWorker/ExecuteTask lifecycle and
// workers.go's per-role WorkerAgent/TaskHandler shape, bridged to this
// module's entities.Agent/Task/ExecutionResult vocabulary via a thin
// TaskHandler that delegates to the Agent Executor.
package sdkcoordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/hollis-source/unified-intelligence-cli/core/multiagent"
	"github.com/hollis-source/unified-intelligence-cli/entities"
	"github.com/hollis-source/unified-intelligence-cli/executor"
	"github.com/hollis-source/unified-intelligence-cli/selector"
)

// executorHandler adapts the Agent Executor to multiagent.TaskHandler
// for a single fixed entities.Agent role.
type executorHandler struct {
	agent entities.Agent
	exec  *executor.Executor
}

func (h *executorHandler) HandleTask(ctx context.Context, task *multiagent.Task) (interface{}, error) {
	t := entities.Task{
		TaskID:      task.ID,
		Description: task.Description,
		Priority:    int(task.Priority),
	}
	result := h.exec.Execute(ctx, h.agent, t, nil)
	if result.Status != entities.StatusSuccess {
		msg := "task execution failed"
		if len(result.Errors) > 0 {
			msg = result.Errors[0]
		}
		return nil, fmt.Errorf("%s", msg)
	}
	return result.Output, nil
}

func (h *executorHandler) GetCapabilities() []string {
	return h.agent.Capabilities
}

// llmProviderAdapter satisfies multiagent.LLMProvider. It holds the Agent
// Executor's Generator but rejects every direct completion request, so
// the SDK coordinator's orchestrator cannot make plan-refinement calls
// through it; tasks run through a worker's TaskHandler instead.
type llmProviderAdapter struct {
	gen executor.Generator
}

func (a *llmProviderAdapter) GenerateCompletion(ctx context.Context, req *multiagent.CompletionRequest) (*multiagent.CompletionResponse, error) {
	return nil, fmt.Errorf("sdkcoordinator: direct completion requests are not supported, use ExecuteTask")
}

// SDK wraps a *multiagent.Coordinator, exposing the orchestration.Coordinator
// contract by mapping each entities.Task to one multiagent ExecuteTask call.
type SDK struct {
	mu          sync.Mutex
	coord       *multiagent.Coordinator
	initialized bool
	registered  map[string]bool
	exec        *executor.Executor
}

// New builds an SDK coordinator around a fresh multiagent.Coordinator.
// The executor supplies both the LLM completion path (unused directly,
// since every task is dispatched through a worker's TaskHandler) and
// the per-agent task execution path.
func New(exec *executor.Executor) *SDK {
	coord := multiagent.NewCoordinator(&llmProviderAdapter{gen: exec.Generator}, nil)
	return &SDK{coord: coord, registered: map[string]bool{}, exec: exec}
}

// ensureWorker lazily registers a worker for agent.Role, so the
// coordinator only pays for the agents actually exercised by a run.
func (s *SDK) ensureWorker(ctx context.Context, agent entities.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		if err := s.coord.Initialize(ctx); err != nil {
			return fmt.Errorf("sdkcoordinator: initialize: %w", err)
		}
		s.initialized = true
	}
	if s.registered[agent.Role] {
		return nil
	}

	worker := multiagent.NewWorkerAgent(
		&multiagent.AgentMetadata{Role: multiagent.AgentRole(agent.Role), Capabilities: agent.Capabilities},
		s.coord.GetProtocol(),
		&executorHandler{agent: agent, exec: s.exec},
	)
	if err := s.coord.RegisterWorker(ctx, worker); err != nil {
		return fmt.Errorf("sdkcoordinator: register worker %s: %w", agent.Role, err)
	}
	s.registered[agent.Role] = true
	return nil
}

// Coordinate dispatches every task through the wrapped multiagent
// Coordinator, one ExecuteTask call per task, preserving the caller's
// input order. Each task's agent is resolved by capability match
// (selector.SelectAgent), falling back to the first provided agent
// when nothing matches.
func (s *SDK) Coordinate(ctx context.Context, tasks []entities.Task, agents []entities.Agent, ctxState *entities.ExecutionContext) ([]entities.ExecutionResult, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("sdkcoordinator: at least one agent is required")
	}

	results := make([]entities.ExecutionResult, len(tasks))
	for i, t := range tasks {
		agent := agents[0]
		if selected, err := selector.SelectAgent(agents, t); err == nil {
			agent = selected
		}
		if err := s.ensureWorker(ctx, agent); err != nil {
			results[i] = entities.Failure(err.Error(), &entities.ErrorDetail{
				ErrorType: "SDKCoordinatorError",
				Component: "sdkcoordinator",
			})
			continue
		}

		req := &multiagent.TaskRequest{
			Name:        t.TaskID,
			Description: t.Description,
			Type:        "generic",
			Priority:    multiagent.TaskPriority(t.Priority),
			Input:       t.Description,
		}
		res, err := s.coord.ExecuteTask(ctx, req)
		if err != nil {
			results[i] = entities.Failure(err.Error(), &entities.ErrorDetail{
				ErrorType: "SDKCoordinatorError",
				Component: "sdkcoordinator",
				Input:     t.Description,
			})
			continue
		}
		if res.Status != "completed" {
			results[i] = entities.Failure(res.Error, &entities.ErrorDetail{
				ErrorType: "SDKTaskError",
				Component: "sdkcoordinator",
				Input:     t.Description,
			})
			continue
		}
		results[i] = entities.Success(res.Output, map[string]interface{}{"sdk": true})
	}
	return results, nil
}
