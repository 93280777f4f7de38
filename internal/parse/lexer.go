package parse

// Lexer scans a rule file and produces tokens.
type Lexer struct {
	input    string
	position int
	line     int
	tokens   []Token
}

// NewLexer returns a new Lexer over the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		line:   1,
		tokens: make([]Token, 0),
	}
}

// Tokenize processes the entire input and produces the list of tokens.
// The final token is always TokenEOF.
func (l *Lexer) Tokenize() []Token {
	for l.position < len(l.input) {
		switch c := l.input[l.position]; {
		case c == '(':
			l.addToken(TokenLParen, "(")
			l.position++

		case c == ')':
			l.addToken(TokenRParen, ")")
			l.position++

		case c == '"':
			l.lexString()

		case c == ';':
			// comment runs to end of line
			for l.position < len(l.input) && l.input[l.position] != '\n' {
				l.position++
			}

		case c == '\n':
			l.line++
			l.position++

		case isWhitespace(c):
			l.position++

		default:
			l.lexAtom()
		}
	}

	l.addToken(TokenEOF, "")
	return l.tokens
}

// lexString scans a double-quoted string, used for rule names. There are no
// escape sequences; the string ends at the next quote or end of input.
func (l *Lexer) lexString() {
	start := l.position + 1
	i := start
	for i < len(l.input) && l.input[i] != '"' && l.input[i] != '\n' {
		i++
	}
	l.addToken(TokenString, l.input[start:i])
	if i < len(l.input) && l.input[i] == '"' {
		i++
	}
	l.position = i
}

// lexAtom scans consecutive non-delimiter characters to produce one TokenAtom.
func (l *Lexer) lexAtom() {
	start := l.position
	for l.position < len(l.input) {
		c := l.input[l.position]
		if c == '(' || c == ')' || c == '"' || c == ';' || isWhitespace(c) || c == '\n' {
			break
		}
		l.position++
	}
	l.addToken(TokenAtom, l.input[start:l.position])
}

// addToken is a helper to append a new token to the lexer's token list.
func (l *Lexer) addToken(tokenType TokenType, value string) {
	l.tokens = append(l.tokens, Token{
		Type:  tokenType,
		Value: value,
		Line:  l.line,
	})
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}
