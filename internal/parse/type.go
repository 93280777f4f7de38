// Package parse reads transformation rules from their s-expression form:
//
//	(rule "and of negated power of two"
//	  (pre (isPowerOf2 C1))
//	  (src (and %x (sub 0 C1)))
//	  (tgt (and %x (neg C1)))
//	  (assume (ne C1 0))
//	  (feature (eq C1 1)))
//
// Atoms starting with % are rule inputs, atoms starting with C are abstract
// constants, bare numbers are literals. Arithmetic inside src and tgt parses
// as instructions; arithmetic inside pre, assume and feature clauses parses
// as constant expressions over the abstract constants.
package parse

import "fmt"

// TokenType identifies the kind of a lexed token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLParen
	TokenRParen
	TokenAtom
	TokenString
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenAtom:
		return "atom"
	case TokenString:
		return "string"
	default:
		return "?"
	}
}

// Token is a single lexical unit of a rule file.
type Token struct {
	Type  TokenType
	Value string
	Line  int
}

func (t Token) String() string {
	if t.Type == TokenAtom || t.Type == TokenString {
		return fmt.Sprintf("%s %q", t.Type, t.Value)
	}
	return t.Type.String()
}
