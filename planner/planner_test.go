package planner

import (
	"context"
	"testing"

	"github.com/hollis-source/unified-intelligence-cli/entities"
	"github.com/hollis-source/unified-intelligence-cli/providers"
)

type fakeGenerator struct {
	out string
	err error
}

func (f *fakeGenerator) Generate(ctx context.Context, messages []providers.Message, cfg providers.GenerationConfig) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

func tasksAB() []entities.Task {
	return []entities.Task{
		{TaskID: "a", Description: "coding task one", Priority: 1},
		{TaskID: "b", Description: "coding task two", Priority: 1, Dependencies: []string{"a"}},
	}
}

func TestCreatePlanUsesWellFormedLLMResponse(t *testing.T) {
	gen := &fakeGenerator{out: `Here is the plan:
{"task_order": ["a", "b"], "task_assignments": {"a": "coder", "b": "tester"}, "parallel_groups": [["a"], ["b"]]}
Done.`}
	p := New(gen)
	plan := p.CreatePlan(context.Background(), tasksAB(), nil)

	if len(plan.TaskOrder) != 2 || plan.TaskOrder[0] != "a" || plan.TaskOrder[1] != "b" {
		t.Fatalf("expected task order [a b], got %v", plan.TaskOrder)
	}
	if plan.TaskAssignments["a"] != "coder" || plan.TaskAssignments["b"] != "tester" {
		t.Fatalf("expected LLM-provided assignments, got %v", plan.TaskAssignments)
	}
}

func TestCreatePlanFallsBackOnMalformedJSON(t *testing.T) {
	gen := &fakeGenerator{out: "I cannot help with that."}
	p := New(gen)
	coder := entities.NewAgent("coder", "coding")
	plan := p.CreatePlan(context.Background(), tasksAB(), []entities.Agent{coder})

	if plan.TaskAssignments["a"] != "coder" {
		t.Fatalf("expected fallback assignment to coder, got %v", plan.TaskAssignments)
	}
	if len(plan.ParallelGroups) == 0 {
		t.Fatal("expected at least one parallel group from the fallback planner")
	}
}

func TestCreatePlanFallsBackOnGeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: context.DeadlineExceeded}
	p := New(gen)
	plan := p.CreatePlan(context.Background(), tasksAB(), nil)
	if len(plan.TaskOrder) != 2 {
		t.Fatalf("expected the fallback planner to still order both tasks, got %v", plan.TaskOrder)
	}
}

func TestCreatePlanNilGeneratorUsesFallbackDirectly(t *testing.T) {
	p := New(nil)
	coder := entities.NewAgent("coder", "coding")
	plan := p.CreatePlan(context.Background(), tasksAB(), []entities.Agent{coder})
	if plan.TaskAssignments["a"] != "coder" || plan.TaskAssignments["b"] != "coder" {
		t.Fatalf("expected both tasks assigned to the only available agent, got %v", plan.TaskAssignments)
	}
}

func TestLayerByTierOrdersOrchestrationBeforeSpecialist(t *testing.T) {
	tasks := []entities.Task{
		{TaskID: "lead-task"},
		{TaskID: "worker-task"},
	}
	tierOf := map[string]entities.Tier{
		"lead-task":   entities.TierOrchestration,
		"worker-task": entities.TierSpecialist,
	}
	groups := layerByTier(tasks, tierOf)
	if len(groups) != 2 {
		t.Fatalf("expected two frontiers (one per tier), got %v", groups)
	}
	if len(groups[0]) != 1 || groups[0][0] != "lead-task" {
		t.Fatalf("expected orchestration tier to be emitted first, got %v", groups)
	}
}

func TestLayerByTierBreaksCyclesByForcingProgress(t *testing.T) {
	tasks := []entities.Task{
		{TaskID: "x", Dependencies: []string{"y"}},
		{TaskID: "y", Dependencies: []string{"x"}},
	}
	tierOf := map[string]entities.Tier{"x": entities.TierSpecialist, "y": entities.TierSpecialist}
	groups := layerByTier(tasks, tierOf)
	if len(groups) != 1 || len(groups[0]) != 2 {
		t.Fatalf("expected both cyclic tasks forced into one frontier, got %v", groups)
	}
}

func TestLayerByTierRespectsDependencyOrderWithinATier(t *testing.T) {
	groups := layerByTier(tasksAB(), map[string]entities.Tier{"a": entities.TierSpecialist, "b": entities.TierSpecialist})
	if len(groups) != 2 || groups[0][0] != "a" || groups[1][0] != "b" {
		t.Fatalf("expected [a] then [b] respecting the dependency, got %v", groups)
	}
}

func TestExtractJSONFindsObjectAmongProse(t *testing.T) {
	text := `Sure, here you go: {"a": [1, 2, {"b": 3}]} -- hope that helps!`
	got := extractJSON(text)
	if got != `{"a": [1, 2, {"b": 3}]}` {
		t.Fatalf("expected the balanced object, got %q", got)
	}
}

func TestExtractJSONReturnsEmptyWhenUnbalanced(t *testing.T) {
	if got := extractJSON(`here is a start {"a": [1, 2`); got != "" {
		t.Fatalf("expected an empty string, got %q", got)
	}
}
