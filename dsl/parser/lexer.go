// Package parser turns DSL source text into an ast.Node, matching the
// original grammar: sequential composition (∘ or the ASCII word "o"),
// parallel composition (× or "*"), the "**" broadcast shorthand, "::"
// type annotations, "functor name = expr" declarations, "#" line
// comments and parenthesised grouping. Unknown identifiers are accepted
// as Literal atoms — the parser never raises a type error, only a
// syntax error (ported from src/dsl/use_cases/parser.py's recursive
// descent, adapted to Go's token/rune idioms).
package parser

import "strings"

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokCompose
	tokBroadcast
	tokProduct
	tokLParen
	tokRParen
	tokAnnotate
	tokAssign
	tokFunctorKw
	tokEOF
)

type token struct {
	kind tokenKind
	text string
}

// lex tokenizes a single line of DSL source (comments already stripped).
func lex(line string) []token {
	var toks []token
	runes := []rune(line)
	i := 0
	n := len(runes)
	for i < n {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t' || r == '\r':
			i++
		case r == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case r == '∘':
			toks = append(toks, token{tokCompose, "∘"})
			i++
		case r == '*' && i+1 < n && runes[i+1] == '*':
			toks = append(toks, token{tokBroadcast, "**"})
			i += 2
		case r == '*':
			toks = append(toks, token{tokProduct, "*"})
			i++
		case r == '×':
			toks = append(toks, token{tokProduct, "×"})
			i++
		case r == ':' && i+1 < n && runes[i+1] == ':':
			toks = append(toks, token{tokAnnotate, "::"})
			i += 2
		case r == '=':
			toks = append(toks, token{tokAssign, "="})
			i++
		default:
			j := i
			for j < n && !strings.ContainsRune(" \t\r()∘×*:=", runes[j]) {
				j++
			}
			word := string(runes[i:j])
			if word == "" {
				// Defensive: avoid an infinite loop on an unclassified rune.
				i++
				continue
			}
			if word == "o" {
				toks = append(toks, token{tokCompose, word})
			} else if word == "functor" {
				toks = append(toks, token{tokFunctorKw, word})
			} else {
				toks = append(toks, token{tokIdent, word})
			}
			i = j
		}
	}
	toks = append(toks, token{tokEOF, ""})
	return toks
}

// stripComment removes a trailing "# ..." comment from a line.
func stripComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		return line[:idx]
	}
	return line
}
