package interpreter

import (
	"context"
	"fmt"
	"testing"

	"github.com/hollis-source/unified-intelligence-cli/dsl/ast"
)

// recordingExecutor is a hand-rolled fake TaskExecutor: it appends its
// input to the atom's name and returns the concatenation, so tests can
// assert on the exact sequence of values each composition produced.
type recordingExecutor struct {
	calls []string
	fail  string // if set, ExecuteTask for this atom name returns an error
}

func (r *recordingExecutor) ExecuteTask(ctx context.Context, name string, input interface{}) (interface{}, error) {
	r.calls = append(r.calls, name)
	if name == r.fail {
		return nil, fmt.Errorf("atom %s failed", name)
	}
	return fmt.Sprintf("%s(%v)", name, input), nil
}

func TestInterpreterCompositionRunsRightThenLeft(t *testing.T) {
	exec := &recordingExecutor{}
	interp := New(exec, nil)
	node := ast.NewComposition(ast.NewLiteral("g"), ast.NewLiteral("f"))

	out, err := interp.Run(context.Background(), node, "x")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(exec.calls) != 2 || exec.calls[0] != "f" || exec.calls[1] != "g" {
		t.Fatalf("expected f to execute before g, got %v", exec.calls)
	}
	if out != "g(f(x))" {
		t.Fatalf("expected g(f(x)), got %v", out)
	}
}

func TestInterpreterCompositionPropagatesRightError(t *testing.T) {
	exec := &recordingExecutor{fail: "f"}
	interp := New(exec, nil)
	node := ast.NewComposition(ast.NewLiteral("g"), ast.NewLiteral("f"))

	if _, err := interp.Run(context.Background(), node, "x"); err == nil {
		t.Fatal("expected an error when the right side of a composition fails")
	}
}

func TestInterpreterDuplicateBroadcastsToProduct(t *testing.T) {
	exec := &recordingExecutor{}
	interp := New(exec, nil)
	// f ** g desugars to (f × g) ∘ duplicate.
	node := ast.NewComposition(ast.NewProduct(ast.NewLiteral("f"), ast.NewLiteral("g")), ast.NewDuplicate())

	out, err := interp.Run(context.Background(), node, "x")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	got, ok := out.(pair)
	if !ok {
		t.Fatalf("expected a pair result, got %T", out)
	}
	if got.First != "f(x)" || got.Second != "g(x)" {
		t.Fatalf("expected pair{f(x), g(x)}, got %+v", got)
	}
}

func TestInterpreterFunctorLookupFromEnv(t *testing.T) {
	exec := &recordingExecutor{}
	functors := []*ast.Functor{ast.NewFunctor("ci", ast.NewComposition(ast.NewLiteral("test"), ast.NewLiteral("build")))}
	interp := New(exec, functors)

	out, err := interp.Run(context.Background(), ast.NewLiteral("ci"), "src")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out != "test(build(src))" {
		t.Fatalf("expected test(build(src)), got %v", out)
	}
}

func TestInterpreterProductFailureOnOneBranch(t *testing.T) {
	exec := &recordingExecutor{fail: "g"}
	interp := New(exec, nil)
	node := ast.NewProduct(ast.NewLiteral("f"), ast.NewLiteral("g"))

	if _, err := interp.Run(context.Background(), node, "x"); err == nil {
		t.Fatal("expected an error when one product branch fails")
	}
}
