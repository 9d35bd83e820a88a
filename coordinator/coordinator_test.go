package coordinator

import (
	"context"
	"fmt"
	"testing"

	"github.com/hollis-source/unified-intelligence-cli/entities"
	"github.com/hollis-source/unified-intelligence-cli/executor"
	"github.com/hollis-source/unified-intelligence-cli/planner"
	"github.com/hollis-source/unified-intelligence-cli/providers"
)

// fakeGenerator is a hand-rolled stub satisfying both planner.Generator
// and executor.Generator (they share the same shape).
type fakeGenerator struct {
	out        string
	failRoles  map[string]int // role -> number of remaining failures before success
	callsByRole map[string]int
}

func (f *fakeGenerator) Generate(ctx context.Context, messages []providers.Message, cfg providers.GenerationConfig) (string, error) {
	role := ""
	if len(messages) > 0 {
		role = messages[0].Content // system prompt embeds the role; good enough to key failures in tests
	}
	if f.callsByRole == nil {
		f.callsByRole = map[string]int{}
	}
	f.callsByRole[role]++
	if f.failRoles != nil && f.failRoles[role] > 0 {
		f.failRoles[role]--
		return "", fmt.Errorf("transient provider failure")
	}
	return f.out, nil
}

func newCoordinator(gen *fakeGenerator) *Coordinator {
	p := planner.New(nil) // force the deterministic fallback planner so assignments are selector-driven
	e := executor.New(gen)
	return New(p, e)
}

func TestCoordinateRejectsInvalidTaskUpfront(t *testing.T) {
	gen := &fakeGenerator{out: "ok"}
	c := newCoordinator(gen)
	tasks := []entities.Task{{TaskID: "bad", Description: "  ", Priority: 1}}
	results, err := c.Coordinate(context.Background(), tasks, []entities.Agent{entities.NewAgent("coder", "coding")}, nil)
	if err != nil {
		t.Fatalf("Coordinate returned an unexpected top-level error: %v", err)
	}
	if len(results) != 1 || results[0].Status != entities.StatusFailure {
		t.Fatalf("expected a validation failure result, got %+v", results)
	}
	if results[0].ErrorDetails == nil || results[0].ErrorDetails.ErrorType != "ValidationError" {
		t.Fatalf("expected a ValidationError detail, got %+v", results[0].ErrorDetails)
	}
}

func TestCoordinateMisconfiguredReturnsError(t *testing.T) {
	c := &Coordinator{}
	if _, err := c.Coordinate(context.Background(), nil, nil, nil); err == nil {
		t.Fatal("expected an error for a coordinator with no planner/executor")
	}
}

func TestCoordinateReturnsOneSuccessPerTask(t *testing.T) {
	gen := &fakeGenerator{out: "done"}
	c := newCoordinator(gen)
	coder := entities.NewAgent("coder", "coding")
	tasks := []entities.Task{
		{TaskID: "first", Description: "coding task first", Priority: 1},
		{TaskID: "second", Description: "coding task second", Priority: 1},
	}
	results, err := c.Coordinate(context.Background(), tasks, []entities.Agent{coder}, nil)
	if err != nil {
		t.Fatalf("Coordinate returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Status != entities.StatusSuccess {
			t.Fatalf("result %d: expected success, got %+v", i, r)
		}
	}
}

func TestCoordinateFallsBackToSelectorWhenUnassigned(t *testing.T) {
	// The planner's LLM response leaves "t1" out of task_assignments
	// entirely; runTask must fall back to the selector to find an agent.
	planGen := &fakeGenerator{out: `{"task_order": ["t1"], "task_assignments": {"unrelated": "nobody"}, "parallel_groups": [["t1"]]}`}
	execGen := &fakeGenerator{out: "handled"}
	c := New(planner.New(planGen), executor.New(execGen))

	tester := entities.NewAgent("tester", "testing")
	task := entities.Task{TaskID: "t1", Description: "testing task", Priority: 1}

	results, err := c.Coordinate(context.Background(), []entities.Task{task}, []entities.Agent{tester}, nil)
	if err != nil {
		t.Fatalf("Coordinate returned error: %v", err)
	}
	if results[0].Status != entities.StatusSuccess {
		t.Fatalf("expected the selector fallback to find the tester agent, got %+v", results[0])
	}
}

func TestCoordinateHandlesMultipleIDLessTasksWithoutCollision(t *testing.T) {
	// Two tasks share the same (empty) TaskID, which the data model
	// permits. Keying results by raw TaskID would collapse them onto
	// "" and drop one; Coordinate must keep both distinct via Key(index).
	gen := &fakeGenerator{out: "done"}
	c := newCoordinator(gen)
	coder := entities.NewAgent("coder", "coding")
	tasks := []entities.Task{
		{Description: "coding task alpha", Priority: 1},
		{Description: "coding task beta", Priority: 1},
	}
	results, err := c.Coordinate(context.Background(), tasks, []entities.Agent{coder}, nil)
	if err != nil {
		t.Fatalf("Coordinate returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 distinct results for 2 ID-less tasks, got %d", len(results))
	}
	for i, r := range results {
		if r.Status != entities.StatusSuccess {
			t.Fatalf("result %d: expected success, got %+v", i, r)
		}
	}
}

func TestCoordinateNoSuitableAgentFails(t *testing.T) {
	gen := &fakeGenerator{out: "n/a"}
	c := newCoordinator(gen)
	writer := entities.NewAgent("writer", "writing")
	task := entities.Task{TaskID: "t1", Description: "zzz completely unrelated nonsense task", Priority: 1}

	results, err := c.Coordinate(context.Background(), []entities.Task{task}, []entities.Agent{writer}, nil)
	if err != nil {
		t.Fatalf("Coordinate returned error: %v", err)
	}
	if results[0].Status != entities.StatusFailure || results[0].ErrorDetails.ErrorType != "NoSuitableAgentError" {
		t.Fatalf("expected a NoSuitableAgentError, got %+v", results[0])
	}
}

// alwaysFailGenerator always returns an error, simulating a provider
// that is down for the whole retry budget.
type alwaysFailGenerator struct {
	calls int
}

func (g *alwaysFailGenerator) Generate(ctx context.Context, messages []providers.Message, cfg providers.GenerationConfig) (string, error) {
	g.calls++
	return "", fmt.Errorf("provider unavailable")
}

func TestCoordinateExhaustsRetriesAndReturnsLastFailure(t *testing.T) {
	gen := &alwaysFailGenerator{}
	p := planner.New(nil)
	e := executor.New(gen)
	c := New(p, e)
	c.Config = Config{MaxRetries: 1} // avoid a real sleep: one attempt, no backoff wait

	coder := entities.NewAgent("coder", "coding")
	task := entities.Task{TaskID: "t1", Description: "coding task", Priority: 1}

	results, err := c.Coordinate(context.Background(), []entities.Task{task}, []entities.Agent{coder}, nil)
	if err != nil {
		t.Fatalf("Coordinate returned error: %v", err)
	}
	if results[0].Status != entities.StatusFailure {
		t.Fatalf("expected a failure result after retries are exhausted, got %+v", results[0])
	}
	if gen.calls != 1 {
		t.Fatalf("expected exactly one attempt with MaxRetries=1, got %d", gen.calls)
	}
}
