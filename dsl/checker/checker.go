package checker

import (
	"fmt"

	"github.com/hollis-source/unified-intelligence-cli/dsl/ast"
	"github.com/hollis-source/unified-intelligence-cli/dsl/types"
)

// Checker is a visitor over the AST that infers types and accumulates
// errors rather than aborting on the first one. The package-level Check returns the
// inferred type of the root node (nil if inference failed there) and
// the full list of accumulated errors.
type Checker struct {
	Env    *TypeEnvironment
	errs   ErrorAccumulator
	fresh  int
}

// NewChecker creates a checker sharing the given environment (pass
// NewTypeEnvironment() for a fresh one).
func NewChecker(env *TypeEnvironment) *Checker {
	if env == nil {
		env = NewTypeEnvironment()
	}
	return &Checker{Env: env}
}

// Check infers the type of an AST and returns it plus any accumulated
// errors (nil slice means the workflow type-checks cleanly).
func Check(root ast.Node) (types.Type, []error) {
	c := NewChecker(nil)
	t := c.Infer(root)
	return t, c.errs.Errors
}

// Infer walks node, accumulating errors, and returns the inferred type
// or nil if it could not be determined.
func (c *Checker) Infer(node ast.Node) types.Type {
	result, err := node.Accept(c)
	if err != nil {
		c.errs.Add(err)
	}
	if result == nil {
		return nil
	}
	t, _ := result.(types.Type)
	return t
}

// Errors returns all errors accumulated so far.
func (c *Checker) Errors() []error { return c.errs.Errors }

func (c *Checker) freshVar() types.TypeVariable {
	c.fresh++
	return types.NewTypeVariable(fmt.Sprintf("t%d", c.fresh))
}

func (c *Checker) VisitLiteral(n *ast.Literal) (interface{}, error) {
	if t, ok := c.Env.Lookup(n.Value); ok {
		return t, nil
	}
	// Unknown identifiers are accepted by the parser without a `::`
	// annotation or functor binding; here they get a fresh, unconstrained
	// function type (fresh-in → fresh-out) rather than a bare variable, so
	// composing two unannotated atoms still unifies instead of tripping
	// VisitComposition/VisitProduct's "requires function types" check.
	// Type errors, not parse errors, are how the system reports real
	// mismatches once annotations are present.
	return types.NewFunctionType(c.freshVar(), c.freshVar()), nil
}

func (c *Checker) VisitComposition(n *ast.Composition) (interface{}, error) {
	rightT := c.Infer(n.Right)
	leftT := c.Infer(n.Left)
	if rightT == nil || leftT == nil {
		return nil, nil
	}
	rightFn, ok1 := rightT.(types.FunctionType)
	leftFn, ok2 := leftT.(types.FunctionType)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("composition requires function types, got %s ∘ %s", leftT, rightT)
	}
	composed, err := CheckComposition(leftFn, rightFn)
	if err != nil {
		mismatch, ok := err.(*types.TypeMismatchError)
		if ok {
			return nil, NewCompositionMismatch(mismatch.Expected, mismatch.Got, n.String())
		}
		return nil, err
	}
	return composed, nil
}

func (c *Checker) VisitProduct(n *ast.Product) (interface{}, error) {
	leftT := c.Infer(n.Left)
	rightT := c.Infer(n.Right)
	if leftT == nil || rightT == nil {
		return nil, nil
	}
	leftFn, ok1 := leftT.(types.FunctionType)
	rightFn, ok2 := rightT.(types.FunctionType)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("product requires function types, got %s × %s", leftT, rightT)
	}
	return CheckProduct(leftFn, rightFn), nil
}

func (c *Checker) VisitDuplicate(n *ast.Duplicate) (interface{}, error) {
	return DuplicateSignature(fmt.Sprintf("dup%d", c.fresh+1)), nil
}

func (c *Checker) VisitFunctor(n *ast.Functor) (interface{}, error) {
	t := c.Infer(n.Expression)
	if t == nil {
		return nil, nil
	}
	if existing, ok := c.Env.Lookup(n.Name); ok {
		if _, unified := existing.Unify(t); !unified {
			return nil, fmt.Errorf("functor %s redeclared with incompatible type %s (was %s)", n.Name, t, existing)
		}
	} else {
		c.Env.Bind(n.Name, t)
	}
	return t, nil
}

func (c *Checker) VisitTypeAnnotation(n *ast.TypeAnnotation) (interface{}, error) {
	t, err := ParseSignature(n.Signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature for %s: %w", n.Name, err)
	}
	c.Env.Bind(n.Name, t)
	return t, nil
}
