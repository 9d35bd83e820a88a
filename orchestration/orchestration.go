// Package orchestration implements the Orchestrator Factory (C8):
// builds "simple" or "hybrid" coordinators. The Hybrid Orchestrator
// wraps the Task Coordinator with an optional SDK-style coordinator,
// routing each task by a complexity classifier and reordering results
// back to the caller's order. Grounded on core/multiagent/coordinator.go's
// CoordinatorConfig/NewCoordinator factory shape, generalised from a
// single coordinator to a factory selecting between two strategies.
package orchestration

import (
	"context"
	"fmt"
	"strings"

	"github.com/hollis-source/unified-intelligence-cli/coordinator"
	"github.com/hollis-source/unified-intelligence-cli/entities"
)

// Coordinator is the contract both the simple and SDK coordinators
// satisfy.
type Coordinator interface {
	Coordinate(ctx context.Context, tasks []entities.Task, agents []entities.Agent, ctxState *entities.ExecutionContext) ([]entities.ExecutionResult, error)
}

// Kind selects which orchestrator the factory builds.
type Kind string

const (
	KindSimple Kind = "simple"
	KindHybrid Kind = "hybrid"
)

// multiStepKeywords are the signals the complexity classifier treats
// as multi-step/multi-agent rather than simple.
var multiStepKeywords = []string{"then", "after", "followed by", "and then", "multi-step", "pipeline", "workflow"}

// ClassifyComplexity reports whether task reads as simple (a single,
// self-contained ask) or multi-step/multi-agent.
func ClassifyComplexity(task entities.Task) string {
	lower := strings.ToLower(task.Description)
	for _, kw := range multiStepKeywords {
		if strings.Contains(lower, kw) {
			return "multi-step"
		}
	}
	if len(task.Dependencies) > 0 {
		return "multi-step"
	}
	return "simple"
}

// Hybrid wraps a simple coordinator and an optional SDK coordinator,
// batching tasks by complexity and reordering results to the caller's
// input order.
type Hybrid struct {
	Simple Coordinator
	SDK    Coordinator // nil means every task routes to Simple
}

// NewHybrid builds a Hybrid orchestrator. sdk may be nil.
func NewHybrid(simple, sdk Coordinator) *Hybrid {
	return &Hybrid{Simple: simple, SDK: sdk}
}

// Coordinate classifies every task, batches simple tasks to the SDK
// coordinator when available (else Simple), and the rest to Simple,
// then reassembles results in the caller's input order.
func (h *Hybrid) Coordinate(ctx context.Context, tasks []entities.Task, agents []entities.Agent, ctxState *entities.ExecutionContext) ([]entities.ExecutionResult, error) {
	if h.Simple == nil {
		return nil, fmt.Errorf("hybrid orchestrator misconfigured: simple coordinator is required")
	}

	var simpleBatch, multiBatch []entities.Task
	var simpleIdx, multiIdx []int
	useSDKForSimple := h.SDK != nil

	for i, t := range tasks {
		if ClassifyComplexity(t) == "simple" && useSDKForSimple {
			simpleBatch = append(simpleBatch, t)
			simpleIdx = append(simpleIdx, i)
		} else {
			multiBatch = append(multiBatch, t)
			multiIdx = append(multiIdx, i)
		}
	}

	results := make([]entities.ExecutionResult, len(tasks))

	if len(simpleBatch) > 0 {
		out, err := h.SDK.Coordinate(ctx, simpleBatch, agents, ctxState)
		if err != nil {
			return nil, fmt.Errorf("sdk coordinator: %w", err)
		}
		for j, idx := range simpleIdx {
			results[idx] = out[j]
		}
	}

	if len(multiBatch) > 0 {
		out, err := h.Simple.Coordinate(ctx, multiBatch, agents, ctxState)
		if err != nil {
			return nil, fmt.Errorf("simple coordinator: %w", err)
		}
		for j, idx := range multiIdx {
			results[idx] = out[j]
		}
	}

	return results, nil
}

// Factory builds coordinators by Kind. Grounded on
// core/multiagent/coordinator.go's NewCoordinator.
type Factory struct {
	Simple *coordinator.Coordinator
	SDK    Coordinator // opaque SDK-backed coordinator, if wired
}

// NewFactory builds a Factory around the given simple coordinator and
// an optional SDK coordinator.
func NewFactory(simple *coordinator.Coordinator, sdk Coordinator) *Factory {
	return &Factory{Simple: simple, SDK: sdk}
}

// Build returns the requested orchestrator kind. KindHybrid with no
// SDK coordinator configured degrades to routing every task to Simple,
// matching the spec's "if the SDK coordinator is unavailable, all
// tasks route to simple".
func (f *Factory) Build(kind Kind) Coordinator {
	switch kind {
	case KindHybrid:
		return NewHybrid(f.Simple, f.SDK)
	default:
		return f.Simple
	}
}
