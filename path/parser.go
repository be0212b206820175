package path

import (
	"fmt"
	"strconv"

	"github.com/delaneyj/toolbelt"
)

type segKind uint8

const (
	segKey segKind = iota
	segIndex
	segAll
)

// segment is one step of a compiled path.
type segment struct {
	kind  segKind
	key   string
	index int
}

type parser struct {
	expression string
	tokens     []token
	index      int
}

var parserPool = toolbelt.New(func() *parser {
	return &parser{}
})

// parse turns expression into segments. A path starts with a name or a
// bracket; names after the first are introduced by '.'.
func (p *parser) parse(expression string) ([]segment, error) {
	lx := acquireLexer()
	defer releaseLexer(lx)
	defer func() {
		p.tokens = nil
		p.expression = ""
		p.index = 0
	}()

	tokens, err := lx.tokenize(expression)
	if err != nil {
		return nil, err
	}
	p.expression = expression
	p.tokens = tokens
	p.index = 0

	if p.current().typ == tEOF {
		return nil, p.syntaxError("empty path")
	}
	segs := make([]segment, 0, len(tokens)/2+1)
	first := true
	for p.current().typ != tEOF {
		tok := p.current()
		switch tok.typ {
		case tDot:
			if first {
				return nil, p.syntaxError("path cannot start with '.'")
			}
			p.advance()
			name := p.current()
			if name.typ != tName {
				return nil, p.syntaxError(fmt.Sprintf("expected name after '.', got %s", name.typ))
			}
			segs = append(segs, segment{kind: segKey, key: name.value})
		case tName:
			if !first {
				return nil, p.syntaxError("expected '.' before name")
			}
			segs = append(segs, segment{kind: segKey, key: tok.value})
		case tIndex:
			n, err := strconv.Atoi(tok.value)
			if err != nil {
				return nil, p.syntaxError(fmt.Sprintf("invalid index %q", tok.value))
			}
			segs = append(segs, segment{kind: segIndex, index: n})
		case tAll:
			segs = append(segs, segment{kind: segAll})
		default:
			return nil, p.syntaxError(fmt.Sprintf("unexpected %s", tok.typ))
		}
		first = false
		p.advance()
	}
	return segs, nil
}

func (p *parser) current() token {
	return p.tokens[p.index]
}

func (p *parser) advance() {
	if p.index < len(p.tokens)-1 {
		p.index++
	}
}

func (p *parser) syntaxError(msg string) SyntaxError {
	return SyntaxError{
		msg:        msg,
		Expression: p.expression,
		Offset:     p.current().position,
	}
}
