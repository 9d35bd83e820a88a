// Package types implements the DSL's Hindley-Milner type system:
// type variables, monomorphic types, function types and product types,
// unified via Robinson's algorithm with an occurs check.
//
// Ported from the category-theoretic type system the interpreter's
// original Python implementation carried (TypeVariable/MonomorphicType/
// FunctionType/ProductType, each with free_variables/apply_substitution/
// unify), preserving the exact substitution-composition precedence the
// original's Substitution.compose implements.
package types

import "fmt"

// Type is implemented by every member of the DSL's type algebra.
type Type interface {
	FreeVariables() map[string]struct{}
	ApplySubstitution(s Substitution) Type
	Unify(other Type) (Substitution, bool)
	String() string
	Equal(other Type) bool
}

// Substitution maps type-variable names to types. It is immutable;
// Compose returns a new Substitution.
type Substitution struct {
	Mappings map[string]Type
}

// NewSubstitution builds a substitution from the given mappings.
func NewSubstitution(mappings map[string]Type) Substitution {
	if mappings == nil {
		mappings = map[string]Type{}
	}
	return Substitution{Mappings: mappings}
}

// Empty is the identity substitution.
func Empty() Substitution { return NewSubstitution(nil) }

// Apply substitutes s into t.
func (s Substitution) Apply(t Type) Type {
	return t.ApplySubstitution(s)
}

// Compose returns (s ∘ other): apply s to every type other maps to, then
// let s's own bindings win on key overlap. This mirrors the original's
// `new_mappings = {var: self.apply(typ) for var,typ in other.mappings};
// new_mappings.update(self.mappings)` — i.e. the RECEIVER's bindings take
// precedence over OTHER's on conflict.
func (s Substitution) Compose(other Substitution) Substitution {
	merged := make(map[string]Type, len(other.Mappings)+len(s.Mappings))
	for v, t := range other.Mappings {
		merged[v] = s.Apply(t)
	}
	for v, t := range s.Mappings {
		merged[v] = t
	}
	return NewSubstitution(merged)
}

// TypeVariable is a polymorphic type placeholder (e.g. 'a' in ∀a.a→a).
type TypeVariable struct {
	Name string
}

func NewTypeVariable(name string) TypeVariable { return TypeVariable{Name: name} }

func (v TypeVariable) FreeVariables() map[string]struct{} {
	return map[string]struct{}{v.Name: {}}
}

func (v TypeVariable) ApplySubstitution(s Substitution) Type {
	if t, ok := s.Mappings[v.Name]; ok {
		return t
	}
	return v
}

func (v TypeVariable) Unify(other Type) (Substitution, bool) {
	if ov, ok := other.(TypeVariable); ok && ov.Name == v.Name {
		return Empty(), true
	}
	if _, occurs := other.FreeVariables()[v.Name]; occurs {
		return Substitution{}, false // occurs check
	}
	return NewSubstitution(map[string]Type{v.Name: other}), true
}

func (v TypeVariable) String() string { return v.Name }

func (v TypeVariable) Equal(other Type) bool {
	ov, ok := other.(TypeVariable)
	return ok && ov.Name == v.Name
}

// MonomorphicType is a concrete type, optionally parameterised (e.g.
// List[Int]).
type MonomorphicType struct {
	Name       string
	TypeParams []Type
}

// NewMonomorphicType builds a parameterised concrete type.
func NewMonomorphicType(name string, params ...Type) MonomorphicType {
	return MonomorphicType{Name: name, TypeParams: params}
}

// Common type constants.
var (
	Unit     = NewMonomorphicType("()")
	Int      = NewMonomorphicType("Int")
	String   = NewMonomorphicType("String")
	Bool     = NewMonomorphicType("Bool")
	FilePath = NewMonomorphicType("FilePath")
)

// List constructs List[elem].
func List(elem Type) MonomorphicType { return NewMonomorphicType("List", elem) }

// DictOf constructs Dict[key,value].
func DictOf(key, value Type) MonomorphicType { return NewMonomorphicType("Dict", key, value) }

func (m MonomorphicType) FreeVariables() map[string]struct{} {
	fv := map[string]struct{}{}
	for _, p := range m.TypeParams {
		for name := range p.FreeVariables() {
			fv[name] = struct{}{}
		}
	}
	return fv
}

func (m MonomorphicType) ApplySubstitution(s Substitution) Type {
	if len(m.TypeParams) == 0 {
		return m
	}
	newParams := make([]Type, len(m.TypeParams))
	for i, p := range m.TypeParams {
		newParams[i] = p.ApplySubstitution(s)
	}
	return MonomorphicType{Name: m.Name, TypeParams: newParams}
}

func (m MonomorphicType) Unify(other Type) (Substitution, bool) {
	if v, ok := other.(TypeVariable); ok {
		return v.Unify(m)
	}
	om, ok := other.(MonomorphicType)
	if !ok || om.Name != m.Name || len(om.TypeParams) != len(m.TypeParams) {
		return Substitution{}, false
	}
	subst := Empty()
	for i := range m.TypeParams {
		p1 := m.TypeParams[i].ApplySubstitution(subst)
		p2 := om.TypeParams[i].ApplySubstitution(subst)
		next, ok := p1.Unify(p2)
		if !ok {
			return Substitution{}, false
		}
		subst = next.Compose(subst)
	}
	return subst, true
}

func (m MonomorphicType) String() string {
	if len(m.TypeParams) == 0 {
		return m.Name
	}
	s := m.Name + "["
	for i, p := range m.TypeParams {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s + "]"
}

func (m MonomorphicType) Equal(other Type) bool {
	om, ok := other.(MonomorphicType)
	if !ok || om.Name != m.Name || len(om.TypeParams) != len(m.TypeParams) {
		return false
	}
	for i := range m.TypeParams {
		if !m.TypeParams[i].Equal(om.TypeParams[i]) {
			return false
		}
	}
	return true
}

// FunctionType is a morphism A → B.
type FunctionType struct {
	Input  Type
	Output Type
}

func NewFunctionType(input, output Type) FunctionType {
	return FunctionType{Input: input, Output: output}
}

func (f FunctionType) FreeVariables() map[string]struct{} {
	fv := f.Input.FreeVariables()
	out := map[string]struct{}{}
	for k := range fv {
		out[k] = struct{}{}
	}
	for k := range f.Output.FreeVariables() {
		out[k] = struct{}{}
	}
	return out
}

func (f FunctionType) ApplySubstitution(s Substitution) Type {
	return FunctionType{Input: f.Input.ApplySubstitution(s), Output: f.Output.ApplySubstitution(s)}
}

func (f FunctionType) Unify(other Type) (Substitution, bool) {
	if v, ok := other.(TypeVariable); ok {
		return v.Unify(f)
	}
	of, ok := other.(FunctionType)
	if !ok {
		return Substitution{}, false
	}
	inputSubst, ok := f.Input.Unify(of.Input)
	if !ok {
		return Substitution{}, false
	}
	selfOut := f.Output.ApplySubstitution(inputSubst)
	otherOut := of.Output.ApplySubstitution(inputSubst)
	outputSubst, ok := selfOut.Unify(otherOut)
	if !ok {
		return Substitution{}, false
	}
	return outputSubst.Compose(inputSubst), true
}

func (f FunctionType) String() string {
	input := f.Input.String()
	if _, ok := f.Input.(FunctionType); ok {
		input = "(" + input + ")"
	}
	return fmt.Sprintf("%s → %s", input, f.Output.String())
}

func (f FunctionType) Equal(other Type) bool {
	of, ok := other.(FunctionType)
	return ok && f.Input.Equal(of.Input) && f.Output.Equal(of.Output)
}

// ProductType is the categorical product A × B, used for parallel
// composition.
type ProductType struct {
	Left  Type
	Right Type
}

func NewProductType(left, right Type) ProductType {
	return ProductType{Left: left, Right: right}
}

func (p ProductType) FreeVariables() map[string]struct{} {
	out := map[string]struct{}{}
	for k := range p.Left.FreeVariables() {
		out[k] = struct{}{}
	}
	for k := range p.Right.FreeVariables() {
		out[k] = struct{}{}
	}
	return out
}

func (p ProductType) ApplySubstitution(s Substitution) Type {
	return ProductType{Left: p.Left.ApplySubstitution(s), Right: p.Right.ApplySubstitution(s)}
}

func (p ProductType) Unify(other Type) (Substitution, bool) {
	if v, ok := other.(TypeVariable); ok {
		return v.Unify(p)
	}
	op, ok := other.(ProductType)
	if !ok {
		return Substitution{}, false
	}
	leftSubst, ok := p.Left.Unify(op.Left)
	if !ok {
		return Substitution{}, false
	}
	selfRight := p.Right.ApplySubstitution(leftSubst)
	otherRight := op.Right.ApplySubstitution(leftSubst)
	rightSubst, ok := selfRight.Unify(otherRight)
	if !ok {
		return Substitution{}, false
	}
	return rightSubst.Compose(leftSubst), true
}

func (p ProductType) String() string {
	left, right := p.Left.String(), p.Right.String()
	if isCompound(p.Left) {
		left = "(" + left + ")"
	}
	if isCompound(p.Right) {
		right = "(" + right + ")"
	}
	return fmt.Sprintf("%s × %s", left, right)
}

func isCompound(t Type) bool {
	switch t.(type) {
	case FunctionType, ProductType:
		return true
	default:
		return false
	}
}

func (p ProductType) Equal(other Type) bool {
	op, ok := other.(ProductType)
	return ok && p.Left.Equal(op.Left) && p.Right.Equal(op.Right)
}

// TypeMismatchError is raised when two types cannot be unified during
// composition checking.
type TypeMismatchError struct {
	Expected Type
	Got      Type
	Context  string
}

func (e *TypeMismatchError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("type mismatch in %s: expected %s, got %s", e.Context, e.Expected, e.Got)
	}
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Got)
}
