package path

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is a compiled path expression. It is immutable and safe for
// concurrent use.
type Expr struct {
	source string
	segs   []segment
}

// Compile parses a path expression such as `Level.Items[0]."custom name"`.
func Compile(expression string) (*Expr, error) {
	if expr, ok := compileCache.get(expression); ok {
		return expr, nil
	}
	p := parserPool.Get()
	defer parserPool.Put(p)
	segs, err := p.parse(expression)
	if err != nil {
		return nil, err
	}
	expr := &Expr{source: expression, segs: segs}
	compileCache.add(expression, expr)
	return expr, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expression string) *Expr {
	expr, err := Compile(expression)
	if err != nil {
		panic(fmt.Sprintf("nbt/path: Compile(%q): %v", expression, err))
	}
	return expr
}

// Source returns the expression the path was compiled from.
func (e *Expr) Source() string {
	return e.source
}

// String renders the path in canonical form, quoting names that need it.
func (e *Expr) String() string {
	var sb strings.Builder
	for i, s := range e.segs {
		switch s.kind {
		case segKey:
			if i > 0 {
				sb.WriteByte('.')
			}
			writeName(&sb, s.key)
		case segIndex:
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(s.index))
			sb.WriteByte(']')
		case segAll:
			sb.WriteString("[]")
		}
	}
	return sb.String()
}

func writeName(sb *strings.Builder, name string) {
	plain := name != ""
	for _, r := range name {
		if !isNameRune(r) {
			plain = false
			break
		}
	}
	if plain {
		sb.WriteString(name)
		return
	}
	sb.WriteByte('"')
	for _, r := range name {
		if r == '"' || r == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
}
