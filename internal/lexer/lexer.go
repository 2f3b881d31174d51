// Package lexer turns allium source text into a token stream.
//
// The lexer never fails. Unknown characters are silently skipped and the
// stream always terminates with exactly one EOF token.
package lexer

import (
	"strings"

	"github.com/oxhq/allium/internal/token"
)

// Lex scans src into a finite token sequence ending in one EOF token.
func Lex(src string) []token.Token {
	l := &lexer{src: src, line: 1, col: 1}
	var toks []token.Token
	for {
		t, ok := l.next()
		if !ok {
			continue
		}
		toks = append(toks, t)
		if t.Kind == token.EOF {
			break
		}
	}
	return toks
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

// next returns the next token and whether it should be appended. EOF is
// always returned with ok=true exactly once, as the final call.
func (l *lexer) next() (token.Token, bool) {
	l.skipWhitespaceAndComments()

	if l.atEnd() {
		return token.Token{Kind: token.EOF, Lexeme: "", Loc: token.Loc{Line: l.line, Col: l.col}}, true
	}

	startLoc := token.Loc{Line: l.line, Col: l.col}
	c := l.peek()

	switch {
	case isIdentStart(c):
		return l.lexIdent(startLoc), true
	case isDigit(c):
		return l.lexNumber(startLoc), true
	case c == '\'' || c == '"':
		return l.lexString(startLoc), true
	default:
		if t, ok := l.lexOperatorOrPunct(startLoc); ok {
			return t, true
		}
		// Unknown character: skip silently and keep scanning.
		l.advance()
		return token.Token{}, false
	}
}

func (l *lexer) skipWhitespaceAndComments() {
	for !l.atEnd() {
		c := l.peek()
		switch c {
		case ' ', '\t', '\r', '\n':
			l.advance()
			continue
		case '-':
			if l.peekAt(1) == '-' {
				for !l.atEnd() && l.peek() != '\n' {
					l.advance()
				}
				continue
			}
		}
		return
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (l *lexer) lexIdent(loc token.Loc) token.Token {
	var sb strings.Builder
	for !l.atEnd() && isIdentCont(l.peek()) {
		sb.WriteByte(l.advance())
	}
	lexeme := sb.String()
	if token.Keywords[lexeme] {
		return token.Token{Kind: token.Keyword, Lexeme: lexeme, Loc: loc}
	}
	return token.Token{Kind: token.Ident, Lexeme: lexeme, Loc: loc}
}

func (l *lexer) lexNumber(loc token.Loc) token.Token {
	var sb strings.Builder
	for !l.atEnd() && (isDigit(l.peek()) || l.peek() == '.') {
		sb.WriteByte(l.advance())
	}
	return token.Token{Kind: token.Number, Lexeme: sb.String(), Loc: loc}
}

func (l *lexer) lexString(loc token.Loc) token.Token {
	quote := l.advance()
	var sb strings.Builder
	for !l.atEnd() && l.peek() != quote {
		c := l.advance()
		if c == '\\' && !l.atEnd() {
			sb.WriteByte(l.advance())
			continue
		}
		sb.WriteByte(c)
	}
	if !l.atEnd() {
		l.advance() // closing quote
	}
	return token.Token{Kind: token.String, Lexeme: sb.String(), Loc: loc}
}

var multiCharOps = []string{"=>", "!=", "<=", ">="}

func (l *lexer) lexOperatorOrPunct(loc token.Loc) (token.Token, bool) {
	for _, op := range multiCharOps {
		if strings.HasPrefix(l.src[l.pos:], op) {
			l.advance()
			l.advance()
			return token.Token{Kind: token.Operator, Lexeme: op, Loc: loc}, true
		}
	}

	c := l.peek()
	switch c {
	case '{', '}', '(', ')', '[', ']', ':', ',', '|', '?', '.':
		l.advance()
		return token.Token{Kind: token.Punct, Lexeme: string(c), Loc: loc}, true
	case '+', '-', '*', '/':
		l.advance()
		return token.Token{Kind: token.Operator, Lexeme: string(c), Loc: loc}, true
	case '=', '!', '<', '>':
		l.advance()
		return token.Token{Kind: token.Operator, Lexeme: string(c), Loc: loc}, true
	}
	return token.Token{}, false
}
