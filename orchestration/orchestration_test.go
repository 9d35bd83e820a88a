package orchestration

import (
	"context"
	"fmt"
	"testing"

	"github.com/hollis-source/unified-intelligence-cli/coordinator"
	"github.com/hollis-source/unified-intelligence-cli/entities"
)

// fakeCoordinator is a hand-rolled stub Coordinator recording the
// batch of tasks it was given and returning one canned result per task.
type fakeCoordinator struct {
	label   string
	err     error
	lastIn  []entities.Task
}

func (f *fakeCoordinator) Coordinate(ctx context.Context, tasks []entities.Task, agents []entities.Agent, ctxState *entities.ExecutionContext) ([]entities.ExecutionResult, error) {
	f.lastIn = tasks
	if f.err != nil {
		return nil, f.err
	}
	out := make([]entities.ExecutionResult, len(tasks))
	for i := range tasks {
		out[i] = entities.Success(fmt.Sprintf("%s:%s", f.label, tasks[i].TaskID), nil)
	}
	return out, nil
}

func TestClassifyComplexitySimpleVsMultiStep(t *testing.T) {
	cases := []struct {
		task entities.Task
		want string
	}{
		{entities.Task{Description: "write a single function"}, "simple"},
		{entities.Task{Description: "build the app then deploy it"}, "multi-step"},
		{entities.Task{Description: "run the pipeline"}, "multi-step"},
		{entities.Task{Description: "fix the bug", Dependencies: []string{"other"}}, "multi-step"},
	}
	for _, tc := range cases {
		if got := ClassifyComplexity(tc.task); got != tc.want {
			t.Errorf("ClassifyComplexity(%q) = %s, want %s", tc.task.Description, got, tc.want)
		}
	}
}

func TestHybridCoordinateRoutesByComplexityAndReorders(t *testing.T) {
	sdk := &fakeCoordinator{label: "sdk"}
	simple := &fakeCoordinator{label: "simple"}
	h := NewHybrid(simple, sdk)

	tasks := []entities.Task{
		{TaskID: "a", Description: "a single standalone task"},
		{TaskID: "b", Description: "step one then step two"},
		{TaskID: "c", Description: "another standalone task"},
	}
	results, err := h.Coordinate(context.Background(), tasks, nil, nil)
	if err != nil {
		t.Fatalf("Coordinate returned error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Output != "sdk:a" {
		t.Fatalf("expected task a routed to sdk, got %v", results[0].Output)
	}
	if results[1].Output != "simple:b" {
		t.Fatalf("expected task b routed to simple (multi-step), got %v", results[1].Output)
	}
	if results[2].Output != "sdk:c" {
		t.Fatalf("expected task c routed to sdk, got %v", results[2].Output)
	}
	if len(sdk.lastIn) != 2 || len(simple.lastIn) != 1 {
		t.Fatalf("expected sdk batch of 2 and simple batch of 1, got sdk=%d simple=%d", len(sdk.lastIn), len(simple.lastIn))
	}
}

func TestHybridCoordinateWithNoSDKRoutesEverythingToSimple(t *testing.T) {
	simple := &fakeCoordinator{label: "simple"}
	h := NewHybrid(simple, nil)

	tasks := []entities.Task{{TaskID: "a", Description: "a single standalone task"}}
	results, err := h.Coordinate(context.Background(), tasks, nil, nil)
	if err != nil {
		t.Fatalf("Coordinate returned error: %v", err)
	}
	if results[0].Output != "simple:a" {
		t.Fatalf("expected the only task routed to simple, got %v", results[0].Output)
	}
}

func TestHybridCoordinateMisconfiguredReturnsError(t *testing.T) {
	h := NewHybrid(nil, nil)
	if _, err := h.Coordinate(context.Background(), []entities.Task{{TaskID: "a"}}, nil, nil); err == nil {
		t.Fatal("expected an error when no simple coordinator is configured")
	}
}

func TestHybridCoordinatePropagatesSDKError(t *testing.T) {
	sdk := &fakeCoordinator{err: fmt.Errorf("sdk unavailable")}
	simple := &fakeCoordinator{label: "simple"}
	h := NewHybrid(simple, sdk)

	tasks := []entities.Task{{TaskID: "a", Description: "a single standalone task"}}
	if _, err := h.Coordinate(context.Background(), tasks, nil, nil); err == nil {
		t.Fatal("expected the sdk coordinator's error to propagate")
	}
}

func TestFactoryBuildHybridDegradesToSimpleWithNoSDK(t *testing.T) {
	f := &Factory{Simple: nil, SDK: nil}
	got := f.Build(KindHybrid)
	hybrid, ok := got.(*Hybrid)
	if !ok {
		t.Fatalf("expected *Hybrid, got %T", got)
	}
	if hybrid.SDK != nil {
		t.Fatal("expected a nil SDK coordinator to degrade to simple-only routing")
	}
}

func TestFactoryBuildSimpleReturnsSimpleDirectly(t *testing.T) {
	f := &Factory{}
	got := f.Build(KindSimple)
	concrete, ok := got.(*coordinator.Coordinator)
	if !ok {
		t.Fatalf("expected *coordinator.Coordinator, got %T", got)
	}
	if concrete != f.Simple {
		t.Fatalf("expected Build to return the factory's own Simple coordinator unchanged")
	}
}
