// Package checker implements the DSL's visitor-based type checker:
// composition/product type rules over dsl/types, a type environment
// binding identifiers to signatures, and error-accumulating inference
// that never panics (ported from src/dsl/types/type_checker.py and
// src/dsl/use_cases/typed_interpreter.py's annotation handling).
package checker

import (
	"fmt"

	"github.com/hollis-source/unified-intelligence-cli/dsl/types"
)

// TypeEnvironment stores type-signature bindings for functor/annotation
// names, built while walking the AST.
type TypeEnvironment struct {
	bindings map[string]types.Type
}

// NewTypeEnvironment returns an empty environment.
func NewTypeEnvironment() *TypeEnvironment {
	return &TypeEnvironment{bindings: make(map[string]types.Type)}
}

// Bind associates name with a type signature.
func (e *TypeEnvironment) Bind(name string, t types.Type) {
	e.bindings[name] = t
}

// Lookup returns the type bound to name, if any.
func (e *TypeEnvironment) Lookup(name string) (types.Type, bool) {
	t, ok := e.bindings[name]
	return t, ok
}

func (e *TypeEnvironment) String() string {
	s := "TypeEnv("
	first := true
	for name, t := range e.bindings {
		if !first {
			s += ", "
		}
		first = false
		s += fmt.Sprintf("%s :: %s", name, t)
	}
	return s + ")"
}

// CheckComposition type-checks sequential composition g ∘ f: requires
// f.Output to unify with g.Input; the result is σ(f.Input → g.Output).
func CheckComposition(g, f types.FunctionType) (types.FunctionType, error) {
	subst, ok := f.Output.Unify(g.Input)
	if !ok {
		return types.FunctionType{}, &types.TypeMismatchError{
			Expected: g.Input,
			Got:      f.Output,
			Context:  fmt.Sprintf("composition %s ∘ %s", g, f),
		}
	}
	result := types.NewFunctionType(f.Input, g.Output)
	applied := result.ApplySubstitution(subst)
	return applied.(types.FunctionType), nil
}

// CheckProduct type-checks parallel composition f × g: always succeeds,
// producing (f.Input × g.Input) → (f.Output × g.Output).
func CheckProduct(f, g types.FunctionType) types.FunctionType {
	inputProduct := types.NewProductType(f.Input, g.Input)
	outputProduct := types.NewProductType(f.Output, g.Output)
	return types.NewFunctionType(inputProduct, outputProduct)
}

// DuplicateSignature returns duplicate's polymorphic signature a → (a×a)
// instantiated for the fresh type variable name given.
func DuplicateSignature(freshVar string) types.FunctionType {
	a := types.NewTypeVariable(freshVar)
	return types.NewFunctionType(a, types.NewProductType(a, a))
}
