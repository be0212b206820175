package path

import (
	"errors"
	"fmt"
	"math"

	nbt "github.com/starfederation/nbt-go"
)

var (
	// ErrNoMatch is returned when a path selects nothing.
	ErrNoMatch = errors.New("nbt/path: no match")
	// ErrMultipleMatches is returned by GetOne when a path selects more than one tag.
	ErrMultipleMatches = errors.New("nbt/path: multiple matches")
	// ErrTypeMismatch is returned when a value cannot be stored at the selected position.
	ErrTypeMismatch = errors.New("nbt/path: type mismatch")
)

// Get compiles expression and returns every tag it selects under root.
func Get(expression string, root *nbt.Compound) ([]nbt.Tag, error) {
	expr, err := Compile(expression)
	if err != nil {
		return nil, err
	}
	return expr.Get(root), nil
}

// GetOne compiles expression and returns the single tag it selects.
func GetOne(expression string, root *nbt.Compound) (nbt.Tag, error) {
	expr, err := Compile(expression)
	if err != nil {
		return nil, err
	}
	return expr.GetOne(root)
}

// Set compiles expression and stores value at every position it selects.
func Set(expression string, root *nbt.Compound, value nbt.Tag) (int, error) {
	expr, err := Compile(expression)
	if err != nil {
		return 0, err
	}
	return expr.Set(root, value)
}

// Remove compiles expression and deletes every tag it selects.
func Remove(expression string, root *nbt.Compound) (int, error) {
	expr, err := Compile(expression)
	if err != nil {
		return 0, err
	}
	return expr.Remove(root)
}

// Get returns the tags selected under root in document order. Steps that do
// not apply to a tag (a name on a list, an index past the end) select nothing.
func (e *Expr) Get(root *nbt.Compound) []nbt.Tag {
	st := acquireEvalState()
	defer releaseEvalState(st)
	matches := st.walk(root, e.segs, false)
	if len(matches) == 0 {
		return nil
	}
	out := make([]nbt.Tag, len(matches))
	copy(out, matches)
	return out
}

// GetOne returns the only tag selected under root.
func (e *Expr) GetOne(root *nbt.Compound) (nbt.Tag, error) {
	st := acquireEvalState()
	defer releaseEvalState(st)
	matches := st.walk(root, e.segs, false)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, e.source)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s selects %d tags", ErrMultipleMatches, e.source, len(matches))
	}
}

// Count returns how many tags the path selects under root.
func (e *Expr) Count(root *nbt.Compound) int {
	st := acquireEvalState()
	defer releaseEvalState(st)
	return len(st.walk(root, e.segs, false))
}

// Set stores a copy of value at every selected position and reports how many
// were written. Missing compounds along a chain of names are created, and are
// attached to root only when at least one write succeeds.
func (e *Expr) Set(root *nbt.Compound, value nbt.Tag) (int, error) {
	if value == nil {
		return 0, fmt.Errorf("nbt/path: nil value")
	}
	if root == nil {
		return 0, fmt.Errorf("nbt/path: nil root")
	}
	st := acquireEvalState()
	defer releaseEvalState(st)
	last := e.segs[len(e.segs)-1]
	parents := st.walk(root, e.segs[:len(e.segs)-1], last.kind == segKey)
	n := 0
	for _, p := range parents {
		written, err := assign(p, last, value)
		if err != nil {
			return n, fmt.Errorf("%s: %w", e.source, err)
		}
		n += written
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoMatch, e.source)
	}
	st.commit()
	return n, nil
}

// Remove deletes every selected compound member or list element and reports
// how many were removed. Array elements cannot be removed.
func (e *Expr) Remove(root *nbt.Compound) (int, error) {
	st := acquireEvalState()
	defer releaseEvalState(st)
	last := e.segs[len(e.segs)-1]
	parents := st.walk(root, e.segs[:len(e.segs)-1], false)
	n := 0
	for _, p := range parents {
		switch v := p.(type) {
		case *nbt.Compound:
			if last.kind == segKey && v.Delete(last.key) {
				n++
			}
		case *nbt.List:
			switch last.kind {
			case segIndex:
				if i, ok := resolveIndex(last.index, v.Len()); ok {
					if err := v.Remove(i); err != nil {
						return n, err
					}
					n++
				}
			case segAll:
				for v.Len() > 0 {
					if err := v.Remove(v.Len() - 1); err != nil {
						return n, err
					}
					n++
				}
			}
		case nbt.ByteArray, nbt.IntArray, nbt.LongArray:
			if last.kind != segKey {
				return n, fmt.Errorf("%w: cannot remove elements of %s", ErrTypeMismatch, v.Type())
			}
		}
	}
	return n, nil
}

// walk applies segs starting at root. With create set, a missing member named
// by a key step is staged as an empty compound; commit attaches it.
func (st *evalState) walk(root *nbt.Compound, segs []segment, create bool) []nbt.Tag {
	st.cur = append(st.cur[:0], root)
	for _, s := range segs {
		st.next = st.next[:0]
		for _, t := range st.cur {
			st.next = st.step(st.next, t, s, create)
		}
		st.cur, st.next = st.next, st.cur
		if len(st.cur) == 0 {
			break
		}
	}
	return st.cur
}

func (st *evalState) step(out []nbt.Tag, t nbt.Tag, s segment, create bool) []nbt.Tag {
	switch s.kind {
	case segKey:
		c, ok := t.(*nbt.Compound)
		if !ok {
			return out
		}
		if v, ok := c.Get(s.key); ok {
			return append(out, v)
		}
		if create {
			child := nbt.NewCompound()
			st.staged = append(st.staged, stagedMember{parent: c, key: s.key, child: child})
			return append(out, child)
		}
	case segIndex:
		n := elementCount(t)
		if i, ok := resolveIndex(s.index, n); ok {
			return append(out, elementAt(t, i))
		}
	case segAll:
		n := elementCount(t)
		for i := 0; i < n; i++ {
			out = append(out, elementAt(t, i))
		}
	}
	return out
}

// commit attaches the compounds staged by walk.
func (st *evalState) commit() {
	for _, m := range st.staged {
		m.parent.Set(m.key, m.child)
	}
}

func resolveIndex(i, n int) (int, bool) {
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

func elementCount(t nbt.Tag) int {
	switch v := t.(type) {
	case *nbt.List:
		return v.Len()
	case nbt.ByteArray:
		return len(v)
	case nbt.IntArray:
		return len(v)
	case nbt.LongArray:
		return len(v)
	}
	return 0
}

func elementAt(t nbt.Tag, i int) nbt.Tag {
	switch v := t.(type) {
	case *nbt.List:
		return v.At(i)
	case nbt.ByteArray:
		return nbt.Byte(v[i])
	case nbt.IntArray:
		return nbt.Int(v[i])
	case nbt.LongArray:
		return nbt.Long(v[i])
	}
	return nil
}

func assign(parent nbt.Tag, s segment, value nbt.Tag) (int, error) {
	switch s.kind {
	case segKey:
		c, ok := parent.(*nbt.Compound)
		if !ok {
			return 0, nil
		}
		c.Set(s.key, nbt.Clone(value))
		return 1, nil
	case segIndex:
		i, ok := resolveIndex(s.index, elementCount(parent))
		if !ok {
			return 0, nil
		}
		if err := assignElement(parent, i, value); err != nil {
			return 0, err
		}
		return 1, nil
	case segAll:
		n := elementCount(parent)
		for i := 0; i < n; i++ {
			if err := assignElement(parent, i, value); err != nil {
				return i, err
			}
		}
		return n, nil
	}
	return 0, nil
}

func assignElement(parent nbt.Tag, i int, value nbt.Tag) error {
	switch v := parent.(type) {
	case *nbt.List:
		if value.Type() != v.ElemType() {
			return fmt.Errorf("%w: list of %s cannot hold %s", ErrTypeMismatch, v.ElemType(), value.Type())
		}
		return v.Set(i, nbt.Clone(value))
	case nbt.ByteArray:
		n, err := arrayElement(value, math.MinInt8, math.MaxInt8, nbt.TagByteArray)
		if err != nil {
			return err
		}
		v[i] = int8(n)
	case nbt.IntArray:
		n, err := arrayElement(value, math.MinInt32, math.MaxInt32, nbt.TagIntArray)
		if err != nil {
			return err
		}
		v[i] = int32(n)
	case nbt.LongArray:
		n, err := arrayElement(value, math.MinInt64, math.MaxInt64, nbt.TagLongArray)
		if err != nil {
			return err
		}
		v[i] = n
	}
	return nil
}

func arrayElement(value nbt.Tag, lo, hi int64, array nbt.TagType) (int64, error) {
	switch value.(type) {
	case nbt.Byte, nbt.Short, nbt.Int, nbt.Long:
	default:
		return 0, fmt.Errorf("%w: %s cannot hold %s", ErrTypeMismatch, array, value.Type())
	}
	n, _ := nbt.AsInt64(value)
	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %d out of range for %s", ErrTypeMismatch, n, array)
	}
	return n, nil
}
