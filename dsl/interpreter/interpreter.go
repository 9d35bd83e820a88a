// Package interpreter executes a parsed DSL workflow as an
// ast.Visitor: Composition runs right-then-left, Product runs both
// branches concurrently, Duplicate broadcasts the current input, and
// Literal delegates to an injected TaskExecutor. Ported from
// src/dsl/use_cases/interpreter.py's async visitor, with goroutines and
// channels standing in for asyncio's gather.
package interpreter

import (
	"context"
	"fmt"
	"sync"

	"github.com/hollis-source/unified-intelligence-cli/dsl/ast"
	"github.com/hollis-source/unified-intelligence-cli/dsl/types"
)

// TypedData wraps a value flowing through the workflow with the type
// it was declared or inferred as, and which task produced it.
type TypedData struct {
	Value  interface{}
	Type   types.Type
	Source string
}

// TaskExecutor runs a single named atom task against the current
// input and returns its output. Implementations typically delegate to
// the agent executor / provider orchestrator.
type TaskExecutor interface {
	ExecuteTask(ctx context.Context, name string, input interface{}) (interface{}, error)
}

// Interpreter walks a workflow AST, threading an implicit "current
// input" the way the original carries it through its async visitor.
type Interpreter struct {
	Executor TaskExecutor
	Env      map[string]ast.Node // functor name -> definition, for lookups during VisitLiteral fallback
	ctx      context.Context
}

// New creates an interpreter bound to the given task executor and any
// functor declarations parsed alongside the workflow.
func New(executor TaskExecutor, functors []*ast.Functor) *Interpreter {
	env := make(map[string]ast.Node, len(functors))
	for _, f := range functors {
		env[f.Name] = f.Expression
	}
	return &Interpreter{Executor: executor, Env: env}
}

// Run executes node against input, returning its final output.
func (i *Interpreter) Run(ctx context.Context, node ast.Node, input interface{}) (interface{}, error) {
	i.ctx = ctx
	return i.eval(node, input)
}

func (i *Interpreter) eval(node ast.Node, input interface{}) (interface{}, error) {
	result, err := node.Accept(&visit{i: i, input: input})
	return result, err
}

// visit adapts the visitor pattern to carry the "current input" through
// each dispatch, since ast.Visitor methods take no extra arguments.
type visit struct {
	i     *Interpreter
	input interface{}
}

func (v *visit) VisitLiteral(n *ast.Literal) (interface{}, error) {
	if def, ok := v.i.Env[n.Value]; ok {
		return v.i.eval(def, v.input)
	}
	if v.i.Executor == nil {
		return nil, fmt.Errorf("no task executor configured for atom %q", n.Value)
	}
	return v.i.Executor.ExecuteTask(v.i.ctx, n.Value, v.input)
}

// VisitComposition executes right first (consuming the current input),
// then left (consuming right's output) — matching g∘f meaning "f then
// g" in the mathematical convention the original preserves.
func (v *visit) VisitComposition(n *ast.Composition) (interface{}, error) {
	rightOut, err := v.i.eval(n.Right, v.input)
	if err != nil {
		return nil, fmt.Errorf("right side of composition failed: %w", err)
	}
	leftOut, err := v.i.eval(n.Left, rightOut)
	if err != nil {
		return nil, fmt.Errorf("left side of composition failed: %w", err)
	}
	return leftOut, nil
}

// pair is the runtime 2-tuple produced by Duplicate and consumed by
// Product, equivalent to the original's tuple-of-two input convention.
type pair struct {
	First  interface{}
	Second interface{}
}

// VisitProduct runs both branches concurrently against their half of a
// pair input (or the whole input broadcast to both, if it isn't a
// pair), joining via a WaitGroup, matching "one wait group per product
// node".
func (v *visit) VisitProduct(n *ast.Product) (interface{}, error) {
	leftIn, rightIn := v.input, v.input
	if p, ok := v.input.(pair); ok {
		leftIn, rightIn = p.First, p.Second
	}

	var wg sync.WaitGroup
	var leftOut, rightOut interface{}
	var leftErr, rightErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		leftOut, leftErr = v.i.eval(n.Left, leftIn)
	}()
	go func() {
		defer wg.Done()
		rightOut, rightErr = v.i.eval(n.Right, rightIn)
	}()
	wg.Wait()

	if leftErr != nil {
		return nil, fmt.Errorf("left branch of product failed: %w", leftErr)
	}
	if rightErr != nil {
		return nil, fmt.Errorf("right branch of product failed: %w", rightErr)
	}
	return pair{First: leftOut, Second: rightOut}, nil
}

// VisitDuplicate is the diagonal functor: broadcast the current input
// to both sides of the following product.
func (v *visit) VisitDuplicate(n *ast.Duplicate) (interface{}, error) {
	return pair{First: v.input, Second: v.input}, nil
}

func (v *visit) VisitFunctor(n *ast.Functor) (interface{}, error) {
	out, err := v.i.eval(n.Expression, v.input)
	if err != nil {
		return nil, fmt.Errorf("functor %s failed: %w", n.Name, err)
	}
	return out, nil
}

// VisitTypeAnnotation executes nothing itself; it only declares a
// signature. Evaluating one directly (outside of an annotation lookup
// during checking) is a no-op that passes the input through unchanged.
func (v *visit) VisitTypeAnnotation(n *ast.TypeAnnotation) (interface{}, error) {
	return v.input, nil
}
