package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tokens := NewLexer(`(rule "add zero" (src (add %x 0)))`).Tokenize()

	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	assert.Equal(t, []TokenType{
		TokenLParen, TokenAtom, TokenString,
		TokenLParen, TokenAtom,
		TokenLParen, TokenAtom, TokenAtom, TokenAtom, TokenRParen,
		TokenRParen, TokenRParen, TokenEOF,
	}, types)
	assert.Equal(t, "add zero", tokens[2].Value)
	assert.Equal(t, "%x", tokens[7].Value)
}

func TestTokenizeComments(t *testing.T) {
	tokens := NewLexer("; a comment\nfoo ; trailing\nbar").Tokenize()
	require.Len(t, tokens, 3)
	assert.Equal(t, "foo", tokens[0].Value)
	assert.Equal(t, 2, tokens[0].Line)
	assert.Equal(t, "bar", tokens[1].Value)
	assert.Equal(t, 3, tokens[1].Line)
	assert.Equal(t, TokenEOF, tokens[2].Type)
}

func TestTokenizeUnterminatedString(t *testing.T) {
	tokens := NewLexer(`"open`).Tokenize()
	require.Len(t, tokens, 2)
	assert.Equal(t, TokenString, tokens[0].Type)
	assert.Equal(t, "open", tokens[0].Value)
}

func TestTokenizeLineNumbers(t *testing.T) {
	tokens := NewLexer("a\nb\n\nc").Tokenize()
	assert.Equal(t, 1, tokens[0].Line)
	assert.Equal(t, 2, tokens[1].Line)
	assert.Equal(t, 4, tokens[2].Line)
}
