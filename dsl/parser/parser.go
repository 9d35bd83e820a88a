package parser

import (
	"fmt"
	"strings"

	"github.com/hollis-source/unified-intelligence-cli/dsl/ast"
)

// Program is the result of parsing a full DSL source file: any number
// of "functor name = expr" declarations (order preserved) plus exactly
// one trailing workflow expression.
type Program struct {
	Functors []*ast.Functor
	Workflow ast.Node
}

// Parse parses DSL source text into a Program. Comments ("# ...") and
// blank lines are ignored; each remaining line is either a functor
// declaration or a workflow expression.
func Parse(source string) (*Program, error) {
	prog := &Program{}
	for lineNo, raw := range strings.Split(source, "\n") {
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}
		toks := lex(line)
		p := &exprParser{tokens: toks}

		if toks[0].kind == tokFunctorKw {
			p.pos = 1
			name := p.expectIdent()
			if name == "" {
				return nil, fmt.Errorf("line %d: expected functor name after 'functor'", lineNo+1)
			}
			if p.next().kind != tokAssign {
				return nil, fmt.Errorf("line %d: expected '=' in functor declaration", lineNo+1)
			}
			expr, err := p.parseCompose()
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			if p.peek().kind != tokEOF {
				return nil, fmt.Errorf("line %d: unexpected trailing tokens", lineNo+1)
			}
			prog.Functors = append(prog.Functors, ast.NewFunctor(name, expr))
			continue
		}

		expr, err := p.parseCompose()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
		if p.peek().kind != tokEOF {
			return nil, fmt.Errorf("line %d: unexpected trailing tokens", lineNo+1)
		}
		if prog.Workflow != nil {
			return nil, fmt.Errorf("line %d: more than one workflow expression (prior one already parsed)", lineNo+1)
		}
		prog.Workflow = expr
	}
	if prog.Workflow == nil {
		return nil, fmt.Errorf("no workflow expression found")
	}
	return prog, nil
}

// ParseExpression parses a single-line workflow expression with no
// functor declarations, for contexts (such as the parser tests) that
// only need the expression tree.
func ParseExpression(source string) (ast.Node, error) {
	line := strings.TrimSpace(stripComment(source))
	p := &exprParser{tokens: lex(line)}
	expr, err := p.parseCompose()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("unexpected trailing tokens")
	}
	return expr, nil
}

type exprParser struct {
	tokens []token
	pos    int
}

func (p *exprParser) peek() token {
	if p.pos >= len(p.tokens) {
		return token{kind: tokEOF}
	}
	return p.tokens[p.pos]
}

func (p *exprParser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *exprParser) expectIdent() string {
	t := p.peek()
	if t.kind != tokIdent {
		return ""
	}
	p.pos++
	return t.text
}

// parseCompose handles "∘"/"o", right-associative: a ∘ b ∘ c == a ∘ (b ∘ c).
func (p *exprParser) parseCompose() (ast.Node, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	if p.peek().kind == tokCompose {
		p.next()
		right, err := p.parseCompose()
		if err != nil {
			return nil, err
		}
		return ast.NewComposition(left, right), nil
	}
	return left, nil
}

// parseProduct handles "×"/"*" and the "**" broadcast shorthand,
// left-associative. Any use of "**" in the chain marks the whole chain
// for desugaring into (chain) ∘ duplicate once the chain is complete;
// N-ary broadcast left-associates the products then appends a single
// trailing ∘duplicate, matching f ** g ** h == ((f×g)×h) ∘ duplicate.
func (p *exprParser) parseProduct() (ast.Node, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	broadcast := false
	for {
		t := p.peek()
		if t.kind == tokProduct {
			p.next()
			right, err := p.parseAtom()
			if err != nil {
				return nil, err
			}
			left = ast.NewProduct(left, right)
			continue
		}
		if t.kind == tokBroadcast {
			p.next()
			right, err := p.parseAtom()
			if err != nil {
				return nil, err
			}
			left = ast.NewProduct(left, right)
			broadcast = true
			continue
		}
		break
	}
	if broadcast {
		return ast.NewComposition(left, ast.NewDuplicate()), nil
	}
	return left, nil
}

func (p *exprParser) parseAtom() (ast.Node, error) {
	t := p.next()
	switch t.kind {
	case tokLParen:
		inner, err := p.parseCompose()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, fmt.Errorf("expected closing ')'")
		}
		return inner, nil
	case tokIdent:
		// "name :: Sig" is a type annotation; bare "name" is a Literal.
		if p.peek().kind == tokAnnotate {
			p.next()
			sig, err := p.parseSignatureTokens()
			if err != nil {
				return nil, err
			}
			return ast.NewTypeAnnotation(t.text, sig), nil
		}
		return ast.NewLiteral(t.text), nil
	default:
		return nil, fmt.Errorf("unexpected token %q", t.text)
	}
}

// parseSignatureTokens consumes the remainder of the atom's signature
// as raw text (re-tokenized later by dsl/checker.ParseSignature), up to
// the next top-level composition operator, an unmatched ')' or end of
// line. Product operators are kept as part of the signature text.
func (p *exprParser) parseSignatureTokens() (string, error) {
	depth := 0
	var parts []string
	for {
		t := p.peek()
		switch t.kind {
		case tokEOF:
			if depth != 0 {
				return "", fmt.Errorf("unbalanced parens in type signature")
			}
			return strings.Join(parts, " "), nil
		case tokLParen:
			depth++
			parts = append(parts, t.text)
			p.next()
		case tokRParen:
			if depth == 0 {
				return strings.Join(parts, " "), nil
			}
			depth--
			parts = append(parts, t.text)
			p.next()
		case tokCompose:
			if depth == 0 {
				return strings.Join(parts, " "), nil
			}
			parts = append(parts, "->")
			p.next()
		default:
			parts = append(parts, t.text)
			p.next()
		}
	}
}
