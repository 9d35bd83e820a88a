package parser

import (
	"testing"

	"github.com/hollis-source/unified-intelligence-cli/dsl/ast"
)

func TestParseExpressionComposeRightAssociative(t *testing.T) {
	node, err := ParseExpression("a ∘ b ∘ c")
	if err != nil {
		t.Fatalf("ParseExpression returned error: %v", err)
	}
	want := ast.NewComposition(ast.NewLiteral("a"), ast.NewComposition(ast.NewLiteral("b"), ast.NewLiteral("c")))
	if !node.Equal(want) {
		t.Fatalf("got %s, want %s", node, want)
	}
}

func TestParseExpressionProductLeftAssociative(t *testing.T) {
	node, err := ParseExpression("a × b × c")
	if err != nil {
		t.Fatalf("ParseExpression returned error: %v", err)
	}
	want := ast.NewProduct(ast.NewProduct(ast.NewLiteral("a"), ast.NewLiteral("b")), ast.NewLiteral("c"))
	if !node.Equal(want) {
		t.Fatalf("got %s, want %s", node, want)
	}
}

func TestParseExpressionBroadcastSugar(t *testing.T) {
	node, err := ParseExpression("f ** g ** h")
	if err != nil {
		t.Fatalf("ParseExpression returned error: %v", err)
	}
	inner := ast.NewProduct(ast.NewProduct(ast.NewLiteral("f"), ast.NewLiteral("g")), ast.NewLiteral("h"))
	want := ast.NewComposition(inner, ast.NewDuplicate())
	if !node.Equal(want) {
		t.Fatalf("got %s, want %s", node, want)
	}
}

func TestParseExpressionParensOverridePrecedence(t *testing.T) {
	node, err := ParseExpression("(a ∘ b) × c")
	if err != nil {
		t.Fatalf("ParseExpression returned error: %v", err)
	}
	want := ast.NewProduct(ast.NewComposition(ast.NewLiteral("a"), ast.NewLiteral("b")), ast.NewLiteral("c"))
	if !node.Equal(want) {
		t.Fatalf("got %s, want %s", node, want)
	}
}

func TestParseExpressionTypeAnnotation(t *testing.T) {
	node, err := ParseExpression("build :: Source -> Binary")
	if err != nil {
		t.Fatalf("ParseExpression returned error: %v", err)
	}
	ann, ok := node.(*ast.TypeAnnotation)
	if !ok {
		t.Fatalf("expected *ast.TypeAnnotation, got %T", node)
	}
	if ann.Name != "build" {
		t.Fatalf("expected name 'build', got %q", ann.Name)
	}
}

func TestParseFunctorDeclarationPlusWorkflow(t *testing.T) {
	src := "functor deploy = build ∘ test\ndeploy ∘ notify"
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(prog.Functors) != 1 || prog.Functors[0].Name != "deploy" {
		t.Fatalf("expected one functor named 'deploy', got %+v", prog.Functors)
	}
	want := ast.NewComposition(ast.NewLiteral("deploy"), ast.NewLiteral("notify"))
	if !prog.Workflow.Equal(want) {
		t.Fatalf("got %s, want %s", prog.Workflow, want)
	}
}

func TestParseRejectsMultipleWorkflowExpressions(t *testing.T) {
	src := "a ∘ b\nc ∘ d"
	if _, err := Parse(src); err == nil {
		t.Fatal("expected an error for two workflow expressions in one file")
	}
}

func TestParseRequiresAWorkflowExpression(t *testing.T) {
	src := "functor only = a ∘ b"
	if _, err := Parse(src); err == nil {
		t.Fatal("expected an error when no workflow expression is present")
	}
}
