package checker

import (
	"testing"

	"github.com/hollis-source/unified-intelligence-cli/dsl/ast"
	"github.com/hollis-source/unified-intelligence-cli/dsl/types"
)

func envWith(bindings map[string]string) *TypeEnvironment {
	env := NewTypeEnvironment()
	for name, sig := range bindings {
		t, err := ParseSignature(sig)
		if err != nil {
			panic(err)
		}
		env.Bind(name, t)
	}
	return env
}

func TestCheckComposesCompatibleFunctions(t *testing.T) {
	env := envWith(map[string]string{
		"build": "Source -> Binary",
		"test":  "Binary -> Report",
	})
	node := ast.NewComposition(ast.NewLiteral("test"), ast.NewLiteral("build"))
	c := NewChecker(env)
	typ := c.Infer(node)
	if errs := c.Errors(); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if typ == nil {
		t.Fatal("expected a non-nil inferred type")
	}
	if typ.String() != "Source → Report" {
		t.Fatalf("expected Source → Report, got %s", typ)
	}
}

func TestCheckRejectsIncompatibleComposition(t *testing.T) {
	env := envWith(map[string]string{
		"build":  "Source -> Binary",
		"deploy": "Config -> Binary",
	})
	// deploy ∘ build: build's output (Binary) must feed deploy's input
	// (Config) -- a mismatch.
	node := ast.NewComposition(ast.NewLiteral("deploy"), ast.NewLiteral("build"))
	c := NewChecker(env)
	c.Infer(node)
	if errs := c.Errors(); len(errs) == 0 {
		t.Fatal("expected a type error for an incompatible composition")
	}
}

func TestCheckAccumulatesMultipleErrors(t *testing.T) {
	env := envWith(map[string]string{
		"a": "X -> Y",
		"b": "Q -> R",
		"c": "M -> N",
		"d": "P -> S",
	})
	// Two independent incompatible compositions combined with ∘.
	left := ast.NewComposition(ast.NewLiteral("a"), ast.NewLiteral("b"))
	right := ast.NewComposition(ast.NewLiteral("c"), ast.NewLiteral("d"))
	node := ast.NewComposition(left, right)
	c := NewChecker(env)
	c.Infer(node)
	if len(c.Errors()) < 2 {
		t.Fatalf("expected at least two accumulated errors, got %d: %v", len(c.Errors()), c.Errors())
	}
}

func TestCheckUnknownIdentifierGetsFreshFunctionType(t *testing.T) {
	env := NewTypeEnvironment()
	node := ast.NewLiteral("mystery")
	c := NewChecker(env)
	typ := c.Infer(node)
	if len(c.Errors()) != 0 {
		t.Fatalf("expected no errors for an unknown identifier, got %v", c.Errors())
	}
	if _, ok := typ.(types.FunctionType); !ok {
		t.Fatalf("expected a fresh function type so composition still unifies, got %T", typ)
	}
}

func TestCheckTwoUnknownIdentifiersComposeWithoutError(t *testing.T) {
	node := ast.NewComposition(ast.NewLiteral("deploy"), ast.NewLiteral("notify"))
	c := NewChecker(nil)
	typ := c.Infer(node)
	if len(c.Errors()) != 0 {
		t.Fatalf("expected unannotated atoms to compose cleanly, got %v", c.Errors())
	}
	if _, ok := typ.(types.FunctionType); !ok {
		t.Fatalf("expected composition of two unknown atoms to yield a function type, got %T", typ)
	}
}

func TestCheckDuplicateYieldsProductSignature(t *testing.T) {
	c := NewChecker(nil)
	typ := c.Infer(ast.NewDuplicate())
	if len(c.Errors()) != 0 {
		t.Fatalf("expected no errors, got %v", c.Errors())
	}
	if typ == nil {
		t.Fatal("expected a non-nil type for duplicate")
	}
}

func TestCheckFunctorBindsEnvironment(t *testing.T) {
	env := envWith(map[string]string{"build": "Source -> Binary"})
	c := NewChecker(env)
	node := ast.NewFunctor("ci", ast.NewLiteral("build"))
	c.Infer(node)
	if len(c.Errors()) != 0 {
		t.Fatalf("expected no errors, got %v", c.Errors())
	}
	if _, ok := env.Lookup("ci"); !ok {
		t.Fatal("expected functor name to be bound in the environment")
	}
}
