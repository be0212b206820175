package path

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/delaneyj/toolbelt"
)

type token struct {
	typ      tokType
	value    string
	position int
	length   int
}

type tokType int

const eof = -1

const (
	tUnknown tokType = iota
	tDot
	tName
	tIndex
	tAll
	tEOF
)

var tokNames = [...]string{
	tUnknown: "unknown",
	tDot:     "'.'",
	tName:    "name",
	tIndex:   "index",
	tAll:     "'[]'",
	tEOF:     "end of path",
}

func (t tokType) String() string {
	if int(t) < len(tokNames) {
		return tokNames[t]
	}
	return "tokType(" + strconv.Itoa(int(t)) + ")"
}

func (t token) String() string {
	return fmt.Sprintf("Token{%s, %q, %d}", t.typ, t.value, t.position)
}

// SyntaxError reports a malformed path expression.
type SyntaxError struct {
	msg        string
	Expression string
	Offset     int
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("nbt/path: %s at offset %d", e.msg, e.Offset)
}

// HighlightLocation places a "^" under the offending character.
func (e SyntaxError) HighlightLocation() string {
	return e.Expression + "\n" + strings.Repeat(" ", e.Offset) + "^"
}

type lexer struct {
	expression string
	currentPos int
	lastWidth  int
	buf        strings.Builder
	tokens     []token
}

var lexerPool = toolbelt.New(func() *lexer {
	return &lexer{}
})

func acquireLexer() *lexer {
	return lexerPool.Get()
}

func releaseLexer(l *lexer) {
	l.reset()
	lexerPool.Put(l)
}

func (l *lexer) reset() {
	l.expression = ""
	l.currentPos = 0
	l.lastWidth = 0
	l.buf.Reset()
	if len(l.tokens) > 0 {
		clear(l.tokens)
		l.tokens = l.tokens[:0]
	}
}

func (l *lexer) next() rune {
	if l.currentPos >= len(l.expression) {
		l.lastWidth = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.expression[l.currentPos:])
	l.lastWidth = w
	l.currentPos += w
	return r
}

func (l *lexer) back() {
	l.currentPos -= l.lastWidth
}

func (l *lexer) peek() rune {
	r := l.next()
	l.back()
	return r
}

// isNameRune reports whether r may appear in an unquoted name.
func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '-', r == '+':
		return true
	}
	return false
}

// tokenize splits expression into tokens. The returned slice is owned by l.
func (l *lexer) tokenize(expression string) ([]token, error) {
	tokens := l.tokens[:0]
	l.expression = expression
	l.currentPos = 0
	l.lastWidth = 0
	l.buf.Reset()
	defer func() {
		l.tokens = tokens
	}()
loop:
	for {
		r := l.next()
		switch {
		case r == eof:
			break loop
		case r == '.':
			tokens = append(tokens, token{typ: tDot, value: ".", position: l.currentPos - 1, length: 1})
		case r == '[':
			t, err := l.consumeBracket()
			if err != nil {
				return tokens, err
			}
			tokens = append(tokens, t)
		case r == '"' || r == '\'':
			t, err := l.consumeQuoted(r)
			if err != nil {
				return tokens, err
			}
			tokens = append(tokens, t)
		case isNameRune(r):
			tokens = append(tokens, l.consumeName())
		default:
			return tokens, l.syntaxError(fmt.Sprintf("unexpected character %s", strconv.QuoteRuneToASCII(r)))
		}
	}
	tokens = append(tokens, token{typ: tEOF, position: len(l.expression)})
	return tokens, nil
}

func (l *lexer) consumeName() token {
	start := l.currentPos - l.lastWidth
	for {
		r := l.next()
		if r == eof {
			break
		}
		if !isNameRune(r) {
			l.back()
			break
		}
	}
	return token{
		typ:      tName,
		value:    l.expression[start:l.currentPos],
		position: start,
		length:   l.currentPos - start,
	}
}

// consumeQuoted reads a name delimited by quote. Backslash escapes the quote
// character and itself.
func (l *lexer) consumeQuoted(quote rune) (token, error) {
	start := l.currentPos - l.lastWidth
	l.buf.Reset()
	for {
		r := l.next()
		switch r {
		case eof:
			return token{}, SyntaxError{
				msg:        "unclosed quote " + string(quote),
				Expression: l.expression,
				Offset:     start,
			}
		case quote:
			value := l.buf.String()
			l.buf.Reset()
			return token{
				typ:      tName,
				value:    value,
				position: start,
				length:   l.currentPos - start,
			}, nil
		case '\\':
			esc := l.next()
			if esc != quote && esc != '\\' {
				return token{}, l.syntaxError("invalid escape in quoted name")
			}
			l.buf.WriteRune(esc)
		default:
			l.buf.WriteRune(r)
		}
	}
}

// consumeBracket reads "[]" or "[n]" where n is a possibly negative integer.
func (l *lexer) consumeBracket() (token, error) {
	start := l.currentPos - l.lastWidth
	if l.peek() == ']' {
		l.next()
		return token{typ: tAll, value: "[]", position: start, length: 2}, nil
	}
	numStart := l.currentPos
	if l.peek() == '-' {
		l.next()
	}
	digits := 0
	for {
		r := l.next()
		if r < '0' || r > '9' {
			if r != eof {
				l.back()
			}
			break
		}
		digits++
	}
	if digits == 0 {
		l.next()
		return token{}, l.syntaxError("expected index or ']'")
	}
	value := l.expression[numStart:l.currentPos]
	if l.next() != ']' {
		return token{}, l.syntaxError("expected ']'")
	}
	return token{
		typ:      tIndex,
		value:    value,
		position: start,
		length:   l.currentPos - start,
	}, nil
}

func (l *lexer) syntaxError(msg string) SyntaxError {
	off := l.currentPos - 1
	if off < 0 {
		off = 0
	}
	return SyntaxError{
		msg:        msg,
		Expression: l.expression,
		Offset:     off,
	}
}
