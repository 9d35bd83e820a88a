package checker

import (
	"fmt"
	"strings"

	"github.com/hollis-source/unified-intelligence-cli/dsl/types"
)

// ParseSignature parses a type-annotation signature such as
// "FileList -> Report", "() -> FileList" or "a -> (a × a)" into a
// dsl/types.Type. The grammar is intentionally small: identifiers,
// parens, "->" (or "→") for functions, "×" (or "*") for products.
func ParseSignature(sig string) (types.Type, error) {
	p := &sigParser{tokens: tokenizeSignature(sig)}
	t, err := p.parseArrow()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("unexpected trailing tokens in signature %q", sig)
	}
	return t, nil
}

type sigParser struct {
	tokens []string
	pos    int
}

func (p *sigParser) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *sigParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

// parseArrow handles right-associative "->" at the top precedence level
// below products: A -> B -> C parses as A -> (B -> C).
func (p *sigParser) parseArrow() (types.Type, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	if p.peek() == "->" {
		p.next()
		right, err := p.parseArrow()
		if err != nil {
			return nil, err
		}
		return types.NewFunctionType(left, right), nil
	}
	return left, nil
}

func (p *sigParser) parseProduct() (types.Type, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.peek() == "×" {
		p.next()
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		left = types.NewProductType(left, right)
	}
	return left, nil
}

func (p *sigParser) parseAtom() (types.Type, error) {
	tok := p.next()
	switch {
	case tok == "":
		return nil, fmt.Errorf("unexpected end of signature")
	case tok == "(":
		if p.peek() == ")" {
			p.next()
			return types.Unit, nil
		}
		inner, err := p.parseArrow()
		if err != nil {
			return nil, err
		}
		if p.next() != ")" {
			return nil, fmt.Errorf("expected closing paren in signature")
		}
		return inner, nil
	case len(tok) == 1 && tok[0] >= 'a' && tok[0] <= 'z':
		return types.NewTypeVariable(tok), nil
	default:
		return types.NewMonomorphicType(tok), nil
	}
}

func tokenizeSignature(sig string) []string {
	sig = strings.ReplaceAll(sig, "→", " -> ")
	sig = strings.ReplaceAll(sig, "*", " × ")
	sig = strings.ReplaceAll(sig, "×", " × ")
	sig = strings.ReplaceAll(sig, "->", " -> ")
	sig = strings.ReplaceAll(sig, "(", " ( ")
	sig = strings.ReplaceAll(sig, ")", " ) ")
	return strings.Fields(sig)
}
