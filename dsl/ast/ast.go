// Package ast defines the DSL's abstract syntax tree as a tagged union:
// Literal, Composition, Product, Duplicate, Functor and TypeAnnotation.
// Nodes are immutable and support structural equality; dispatch is via
// the visitor pattern (Accept/Visitor), matching the original
// interpreter's entity layer (src/dsl/entities/*.py).
package ast

// Node is implemented by every AST node variant.
type Node interface {
	Accept(v Visitor) (interface{}, error)
	String() string
	Equal(other Node) bool
}

// Visitor dispatches over the AST's tagged union. Both the type checker
// and the interpreter implement this interface.
type Visitor interface {
	VisitLiteral(n *Literal) (interface{}, error)
	VisitComposition(n *Composition) (interface{}, error)
	VisitProduct(n *Product) (interface{}, error)
	VisitDuplicate(n *Duplicate) (interface{}, error)
	VisitFunctor(n *Functor) (interface{}, error)
	VisitTypeAnnotation(n *TypeAnnotation) (interface{}, error)
}

// Literal names an atomic task (e.g. "build", "test").
type Literal struct {
	Value string
}

func NewLiteral(value string) *Literal { return &Literal{Value: value} }

func (l *Literal) Accept(v Visitor) (interface{}, error) { return v.VisitLiteral(l) }
func (l *Literal) String() string                        { return l.Value }
func (l *Literal) Equal(other Node) bool {
	o, ok := other.(*Literal)
	return ok && o.Value == l.Value
}

// Composition is sequential combination (left ∘ right): right executes
// first, left executes second, consuming right's output.
type Composition struct {
	Left  Node
	Right Node
}

func NewComposition(left, right Node) *Composition {
	return &Composition{Left: left, Right: right}
}

func (c *Composition) Accept(v Visitor) (interface{}, error) { return v.VisitComposition(c) }
func (c *Composition) String() string                        { return "(" + c.Left.String() + " ∘ " + c.Right.String() + ")" }
func (c *Composition) Equal(other Node) bool {
	o, ok := other.(*Composition)
	return ok && c.Left.Equal(o.Left) && c.Right.Equal(o.Right)
}

// Product is parallel combination (left × right): both branches execute
// concurrently.
type Product struct {
	Left  Node
	Right Node
}

func NewProduct(left, right Node) *Product { return &Product{Left: left, Right: right} }

func (p *Product) Accept(v Visitor) (interface{}, error) { return v.VisitProduct(p) }
func (p *Product) String() string                        { return "(" + p.Left.String() + " × " + p.Right.String() + ")" }
func (p *Product) Equal(other Node) bool {
	o, ok := other.(*Product)
	return ok && p.Left.Equal(o.Left) && p.Right.Equal(o.Right)
}

// Duplicate is the diagonal functor Δ: a → (a × a), used to broadcast a
// single input across a Product.
type Duplicate struct{}

func NewDuplicate() *Duplicate { return &Duplicate{} }

func (d *Duplicate) Accept(v Visitor) (interface{}, error) { return v.VisitDuplicate(d) }
func (d *Duplicate) String() string                        { return "duplicate" }
func (d *Duplicate) Equal(other Node) bool {
	_, ok := other.(*Duplicate)
	return ok
}

// Functor is a named, reusable workflow mapping: `functor name = expr`.
type Functor struct {
	Name       string
	Expression Node
}

func NewFunctor(name string, expr Node) *Functor { return &Functor{Name: name, Expression: expr} }

func (f *Functor) Accept(v Visitor) (interface{}, error) { return v.VisitFunctor(f) }
func (f *Functor) String() string                        { return "functor " + f.Name + " = " + f.Expression.String() }
func (f *Functor) Equal(other Node) bool {
	o, ok := other.(*Functor)
	return ok && f.Name == o.Name && f.Expression.Equal(o.Expression)
}

// TypeAnnotation binds an identifier to a type signature: `name :: Sig`.
// Signature is kept as the raw type expression text so the ast package
// has no dependency on the types package; the checker resolves the
// signature text into a concrete Type.
type TypeAnnotation struct {
	Name      string
	Signature string
}

func NewTypeAnnotation(name, signature string) *TypeAnnotation {
	return &TypeAnnotation{Name: name, Signature: signature}
}

func (t *TypeAnnotation) Accept(v Visitor) (interface{}, error) { return v.VisitTypeAnnotation(t) }
func (t *TypeAnnotation) String() string                        { return t.Name + " :: " + t.Signature }
func (t *TypeAnnotation) Equal(other Node) bool {
	o, ok := other.(*TypeAnnotation)
	return ok && t.Name == o.Name && t.Signature == o.Signature
}
