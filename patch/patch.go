// Package patch applies RFC 6902 style patches to tag trees. Paths are JSON
// Pointers (RFC 6901) into the root compound; list and array elements are
// addressed by decimal index, and "-" names the slot after the last element.
package patch

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	nbt "github.com/starfederation/nbt-go"
)

type Op uint8

const (
	OpAdd Op = iota
	OpRemove
	OpReplace
	OpMove
	OpCopy
	OpTest
)

var opNames = [...]string{"add", "remove", "replace", "move", "copy", "test"}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// ParseOp maps an operation name to its Op.
func ParseOp(name string) (Op, error) {
	for i, n := range opNames {
		if n == name {
			return Op(i), nil
		}
	}
	return 0, fmt.Errorf("%w: invalid op %q", ErrInvalidPatch, name)
}

var (
	ErrInvalidPatch = errors.New("patch: invalid patch")
	ErrNotFound     = errors.New("patch: path not found")
	ErrTypeMismatch = errors.New("patch: type mismatch")
	ErrTestFailed   = errors.New("patch: test failed")
)

const appendToken = "-"

// Operation is one patch step. Value is required for add, replace and test;
// From for move and copy.
type Operation struct {
	Op    Op
	Path  string
	From  string
	Value nbt.Tag
}

type opRecord struct {
	op    Op
	path  []string
	from  []string
	value nbt.Tag
}

// Apply returns a copy of target with ops applied in order. target is not
// modified, including when an operation fails.
func Apply(target *nbt.Compound, ops []Operation) (*nbt.Compound, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: nil target", ErrInvalidPatch)
	}
	recs := make([]opRecord, 0, len(ops))
	for i, op := range ops {
		rec, err := compile(op)
		if err != nil {
			return nil, fmt.Errorf("patch op %d: %w", i, err)
		}
		recs = append(recs, rec)
	}
	state := &patchState{root: nbt.CloneCompound(target)}
	for i, rec := range recs {
		if err := state.applyOperation(rec); err != nil {
			return nil, fmt.Errorf("patch op %d (%s %q): %w", i, rec.op, ops[i].Path, err)
		}
	}
	return state.root, nil
}

// ApplyJSON parses a JSON patch document and applies it to target.
func ApplyJSON(target *nbt.Compound, patch []byte) (*nbt.Compound, error) {
	ops, err := ParseJSON(patch)
	if err != nil {
		return nil, err
	}
	return Apply(target, ops)
}

// ParseJSON reads a JSON array of {"op","path","from","value"} objects.
// Values go through nbt.FromJSON and are converted to the type of the tag
// they land on when applied.
func ParseJSON(data []byte) ([]Operation, error) {
	doc, err := nbt.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}
	list, ok := doc.(*nbt.List)
	if !ok {
		return nil, fmt.Errorf("%w: patch must be an array", ErrInvalidPatch)
	}
	if list.Len() > 0 && list.ElemType() != nbt.TagCompound {
		return nil, fmt.Errorf("%w: patch ops must be objects", ErrInvalidPatch)
	}
	ops := make([]Operation, 0, list.Len())
	for i, item := range list.All() {
		op, err := parseOperation(item.(*nbt.Compound))
		if err != nil {
			return nil, fmt.Errorf("patch op %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func parseOperation(c *nbt.Compound) (Operation, error) {
	name, ok := c.GetString("op")
	if !ok {
		return Operation{}, fmt.Errorf("%w: missing op", ErrInvalidPatch)
	}
	op, err := ParseOp(name)
	if err != nil {
		return Operation{}, err
	}
	path, ok := c.GetString("path")
	if !ok {
		return Operation{}, fmt.Errorf("%w: missing path", ErrInvalidPatch)
	}
	out := Operation{Op: op, Path: path}
	if v, ok := c.Get("value"); ok {
		out.Value = v
	}
	if v, ok := c.Get("from"); ok {
		from, ok := v.(nbt.String)
		if !ok {
			return Operation{}, fmt.Errorf("%w: from must be a string", ErrInvalidPatch)
		}
		out.From = string(from)
	}
	return out, nil
}

func compile(op Operation) (opRecord, error) {
	path, err := parsePointer(op.Path)
	if err != nil {
		return opRecord{}, err
	}
	rec := opRecord{op: op.Op, path: path, value: op.Value}
	switch op.Op {
	case OpAdd, OpReplace, OpTest:
		if op.Value == nil {
			return opRecord{}, fmt.Errorf("%w: %s requires a value", ErrInvalidPatch, op.Op)
		}
	case OpMove, OpCopy:
		from, err := parsePointer(op.From)
		if err != nil {
			return opRecord{}, err
		}
		if op.Op == OpMove && len(from) < len(path) && slices.Equal(from, path[:len(from)]) {
			return opRecord{}, fmt.Errorf("%w: cannot move %q into itself", ErrInvalidPatch, op.From)
		}
		rec.from = from
	case OpRemove:
	default:
		return opRecord{}, fmt.Errorf("%w: invalid op %d", ErrInvalidPatch, uint8(op.Op))
	}
	return rec, nil
}

// parsePointer splits an RFC 6901 pointer into unescaped reference tokens.
// The empty pointer names the root.
func parsePointer(p string) ([]string, error) {
	if p == "" {
		return nil, nil
	}
	if p[0] != '/' {
		return nil, fmt.Errorf("%w: pointer %q must start with /", ErrInvalidPatch, p)
	}
	toks := strings.Split(p[1:], "/")
	for i, tok := range toks {
		if !strings.Contains(tok, "~") {
			continue
		}
		var sb strings.Builder
		for j := 0; j < len(tok); j++ {
			c := tok[j]
			if c != '~' {
				sb.WriteByte(c)
				continue
			}
			if j+1 == len(tok) || (tok[j+1] != '0' && tok[j+1] != '1') {
				return nil, fmt.Errorf("%w: bad escape in pointer %q", ErrInvalidPatch, p)
			}
			if tok[j+1] == '0' {
				sb.WriteByte('~')
			} else {
				sb.WriteByte('/')
			}
			j++
		}
		toks[i] = sb.String()
	}
	return toks, nil
}

type patchState struct {
	root *nbt.Compound
}

func (s *patchState) applyOperation(rec opRecord) error {
	switch rec.op {
	case OpAdd:
		return s.add(rec.path, nbt.Clone(rec.value))
	case OpRemove:
		_, err := s.remove(rec.path)
		return err
	case OpReplace:
		return s.replace(rec.path, nbt.Clone(rec.value))
	case OpMove:
		if slices.Equal(rec.from, rec.path) {
			_, err := s.get(rec.from)
			return err
		}
		v, err := s.remove(rec.from)
		if err != nil {
			return err
		}
		return s.add(rec.path, v)
	case OpCopy:
		v, err := s.get(rec.from)
		if err != nil {
			return err
		}
		return s.add(rec.path, nbt.Clone(v))
	case OpTest:
		v, err := s.get(rec.path)
		if err != nil {
			return err
		}
		if !nbt.Equal(v, coerceLoose(v.Type(), rec.value)) {
			return ErrTestFailed
		}
		return nil
	}
	return fmt.Errorf("%w: invalid op %d", ErrInvalidPatch, uint8(rec.op))
}

func (s *patchState) get(toks []string) (nbt.Tag, error) {
	var cur nbt.Tag = s.root
	for _, tok := range toks {
		next, err := child(cur, tok)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func (s *patchState) setRoot(v nbt.Tag) error {
	c, ok := v.(*nbt.Compound)
	if !ok {
		return fmt.Errorf("%w: root must be %s, got %s", ErrTypeMismatch, nbt.TagCompound, v.Type())
	}
	s.root = c
	return nil
}

func (s *patchState) add(toks []string, v nbt.Tag) error {
	if len(toks) == 0 {
		return s.setRoot(v)
	}
	return s.update(toks, func(parent nbt.Tag, last string) (nbt.Tag, error) {
		switch p := parent.(type) {
		case *nbt.Compound:
			if old, ok := p.Get(last); ok {
				c, err := coerceMember(old.Type(), v)
				if err != nil {
					return nil, err
				}
				v = c
			}
			p.Set(last, v)
			return p, nil
		case *nbt.List:
			i, err := parseIndex(last, p.Len(), true)
			if err != nil {
				return nil, err
			}
			elem, err := coerceElem(p, v)
			if err != nil {
				return nil, err
			}
			return p, p.Insert(i, elem)
		case nbt.ByteArray:
			i, err := parseIndex(last, len(p), true)
			if err != nil {
				return nil, err
			}
			n, err := integer(v, math.MinInt8, math.MaxInt8, nbt.TagByte)
			if err != nil {
				return nil, err
			}
			return slices.Insert(p, i, int8(n)), nil
		case nbt.IntArray:
			i, err := parseIndex(last, len(p), true)
			if err != nil {
				return nil, err
			}
			n, err := integer(v, math.MinInt32, math.MaxInt32, nbt.TagInt)
			if err != nil {
				return nil, err
			}
			return slices.Insert(p, i, int32(n)), nil
		case nbt.LongArray:
			i, err := parseIndex(last, len(p), true)
			if err != nil {
				return nil, err
			}
			n, err := integer(v, math.MinInt64, math.MaxInt64, nbt.TagLong)
			if err != nil {
				return nil, err
			}
			return slices.Insert(p, i, n), nil
		}
		return nil, fmt.Errorf("%w: %s has no members", ErrNotFound, parent.Type())
	})
}

func (s *patchState) remove(toks []string) (nbt.Tag, error) {
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: cannot remove the root", ErrInvalidPatch)
	}
	var removed nbt.Tag
	err := s.update(toks, func(parent nbt.Tag, last string) (nbt.Tag, error) {
		switch p := parent.(type) {
		case *nbt.Compound:
			v, ok := p.Get(last)
			if !ok {
				return nil, fmt.Errorf("%w: no member %q", ErrNotFound, last)
			}
			p.Delete(last)
			removed = v
			return p, nil
		case *nbt.List:
			i, err := parseIndex(last, p.Len(), false)
			if err != nil {
				return nil, err
			}
			removed = p.At(i)
			return p, p.Remove(i)
		case nbt.ByteArray:
			i, err := parseIndex(last, len(p), false)
			if err != nil {
				return nil, err
			}
			removed = nbt.Byte(p[i])
			return slices.Delete(p, i, i+1), nil
		case nbt.IntArray:
			i, err := parseIndex(last, len(p), false)
			if err != nil {
				return nil, err
			}
			removed = nbt.Int(p[i])
			return slices.Delete(p, i, i+1), nil
		case nbt.LongArray:
			i, err := parseIndex(last, len(p), false)
			if err != nil {
				return nil, err
			}
			removed = nbt.Long(p[i])
			return slices.Delete(p, i, i+1), nil
		}
		return nil, fmt.Errorf("%w: %s has no members", ErrNotFound, parent.Type())
	})
	return removed, err
}

func (s *patchState) replace(toks []string, v nbt.Tag) error {
	if len(toks) == 0 {
		return s.setRoot(v)
	}
	return s.update(toks, func(parent nbt.Tag, last string) (nbt.Tag, error) {
		old, err := child(parent, last)
		if err != nil {
			return nil, err
		}
		if _, ok := parent.(*nbt.Compound); ok {
			if v, err = coerceMember(old.Type(), v); err != nil {
				return nil, err
			}
		}
		return parent, setChild(parent, last, v)
	})
}

// update walks to the parent of toks and hands it to fn. The parent fn
// returns is stored back into its own parent, so array edits that
// reallocate the slice stay attached to the tree.
func (s *patchState) update(toks []string, fn func(parent nbt.Tag, last string) (nbt.Tag, error)) error {
	_, err := updateAt(s.root, toks, fn)
	return err
}

func updateAt(node nbt.Tag, toks []string, fn func(nbt.Tag, string) (nbt.Tag, error)) (nbt.Tag, error) {
	if len(toks) == 1 {
		return fn(node, toks[0])
	}
	next, err := child(node, toks[0])
	if err != nil {
		return nil, err
	}
	updated, err := updateAt(next, toks[1:], fn)
	if err != nil {
		return nil, err
	}
	if err := setChild(node, toks[0], updated); err != nil {
		return nil, err
	}
	return node, nil
}

func child(node nbt.Tag, tok string) (nbt.Tag, error) {
	switch n := node.(type) {
	case *nbt.Compound:
		v, ok := n.Get(tok)
		if !ok {
			return nil, fmt.Errorf("%w: no member %q", ErrNotFound, tok)
		}
		return v, nil
	case *nbt.List:
		i, err := parseIndex(tok, n.Len(), false)
		if err != nil {
			return nil, err
		}
		return n.At(i), nil
	case nbt.ByteArray:
		i, err := parseIndex(tok, len(n), false)
		if err != nil {
			return nil, err
		}
		return nbt.Byte(n[i]), nil
	case nbt.IntArray:
		i, err := parseIndex(tok, len(n), false)
		if err != nil {
			return nil, err
		}
		return nbt.Int(n[i]), nil
	case nbt.LongArray:
		i, err := parseIndex(tok, len(n), false)
		if err != nil {
			return nil, err
		}
		return nbt.Long(n[i]), nil
	}
	return nil, fmt.Errorf("%w: %s has no members", ErrNotFound, node.Type())
}

// setChild overwrites an existing member or element of node.
func setChild(node nbt.Tag, tok string, v nbt.Tag) error {
	switch n := node.(type) {
	case *nbt.Compound:
		n.Set(tok, v)
		return nil
	case *nbt.List:
		i, err := parseIndex(tok, n.Len(), false)
		if err != nil {
			return err
		}
		elem, err := coerceElem(n, v)
		if err != nil {
			return err
		}
		return n.Set(i, elem)
	case nbt.ByteArray:
		i, err := parseIndex(tok, len(n), false)
		if err != nil {
			return err
		}
		x, err := integer(v, math.MinInt8, math.MaxInt8, nbt.TagByte)
		if err != nil {
			return err
		}
		n[i] = int8(x)
		return nil
	case nbt.IntArray:
		i, err := parseIndex(tok, len(n), false)
		if err != nil {
			return err
		}
		x, err := integer(v, math.MinInt32, math.MaxInt32, nbt.TagInt)
		if err != nil {
			return err
		}
		n[i] = int32(x)
		return nil
	case nbt.LongArray:
		i, err := parseIndex(tok, len(n), false)
		if err != nil {
			return err
		}
		x, err := integer(v, math.MinInt64, math.MaxInt64, nbt.TagLong)
		if err != nil {
			return err
		}
		n[i] = x
		return nil
	}
	return fmt.Errorf("%w: %s has no members", ErrNotFound, node.Type())
}

// parseIndex accepts "0" or a decimal without leading zeros below n. With
// allowEnd, n itself and "-" are accepted too.
func parseIndex(tok string, n int, allowEnd bool) (int, error) {
	if tok == appendToken && allowEnd {
		return n, nil
	}
	if tok == "" || (len(tok) > 1 && tok[0] == '0') {
		return 0, fmt.Errorf("%w: bad index %q", ErrNotFound, tok)
	}
	for i := 0; i < len(tok); i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return 0, fmt.Errorf("%w: bad index %q", ErrNotFound, tok)
		}
	}
	i, err := strconv.Atoi(tok)
	if err != nil || i > n || (i == n && !allowEnd) {
		return 0, fmt.Errorf("%w: index %s out of range [0,%d)", ErrNotFound, tok, n)
	}
	return i, nil
}

func coerceElem(l *nbt.List, v nbt.Tag) (nbt.Tag, error) {
	if l.Len() == 0 && l.ElemType() == nbt.TagEnd {
		return v, nil
	}
	return coerce(l.ElemType(), v)
}

// coerceMember converts v to the type of the compound member it overwrites
// when both are numbers, or when an array is overwritten by a list. Other
// values replace the member as they are.
func coerceMember(old nbt.TagType, v nbt.Tag) (nbt.Tag, error) {
	switch old {
	case nbt.TagByte, nbt.TagShort, nbt.TagInt, nbt.TagLong, nbt.TagFloat, nbt.TagDouble:
		if _, ok := numeric(v); ok {
			return coerce(old, v)
		}
	case nbt.TagByteArray, nbt.TagIntArray, nbt.TagLongArray:
		if v.Type() == nbt.TagList {
			return coerce(old, v)
		}
	}
	return v, nil
}

func coerceLoose(typ nbt.TagType, v nbt.Tag) nbt.Tag {
	if c, err := coerce(typ, v); err == nil {
		return c
	}
	return v
}

// coerce converts numeric v to typ, and lists of integers to arrays. JSON
// patches can only spell Int, Long and Double, so this is what lets them
// address Short members or Long arrays.
func coerce(typ nbt.TagType, v nbt.Tag) (nbt.Tag, error) {
	if v.Type() == typ {
		return v, nil
	}
	switch typ {
	case nbt.TagByte:
		n, err := integer(v, math.MinInt8, math.MaxInt8, typ)
		return nbt.Byte(n), err
	case nbt.TagShort:
		n, err := integer(v, math.MinInt16, math.MaxInt16, typ)
		return nbt.Short(n), err
	case nbt.TagInt:
		n, err := integer(v, math.MinInt32, math.MaxInt32, typ)
		return nbt.Int(n), err
	case nbt.TagLong:
		n, err := integer(v, math.MinInt64, math.MaxInt64, typ)
		return nbt.Long(n), err
	case nbt.TagFloat:
		f, ok := numeric(v)
		if !ok {
			break
		}
		return nbt.Float(f), nil
	case nbt.TagDouble:
		f, ok := numeric(v)
		if !ok {
			break
		}
		return nbt.Double(f), nil
	case nbt.TagByteArray, nbt.TagIntArray, nbt.TagLongArray:
		if l, ok := v.(*nbt.List); ok {
			return listToArray(typ, l)
		}
	}
	return nil, fmt.Errorf("%w: %s cannot hold %s", ErrTypeMismatch, typ, v.Type())
}

func listToArray(typ nbt.TagType, l *nbt.List) (nbt.Tag, error) {
	switch typ {
	case nbt.TagByteArray:
		out := make(nbt.ByteArray, l.Len())
		for i, item := range l.All() {
			n, err := integer(item, math.MinInt8, math.MaxInt8, nbt.TagByte)
			if err != nil {
				return nil, err
			}
			out[i] = int8(n)
		}
		return out, nil
	case nbt.TagIntArray:
		out := make(nbt.IntArray, l.Len())
		for i, item := range l.All() {
			n, err := integer(item, math.MinInt32, math.MaxInt32, nbt.TagInt)
			if err != nil {
				return nil, err
			}
			out[i] = int32(n)
		}
		return out, nil
	default:
		out := make(nbt.LongArray, l.Len())
		for i, item := range l.All() {
			n, err := integer(item, math.MinInt64, math.MaxInt64, nbt.TagLong)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}
}

func integer(v nbt.Tag, lo, hi int64, typ nbt.TagType) (int64, error) {
	switch v.(type) {
	case nbt.Byte, nbt.Short, nbt.Int, nbt.Long:
	default:
		return 0, fmt.Errorf("%w: %s cannot hold %s", ErrTypeMismatch, typ, v.Type())
	}
	n, _ := nbt.AsInt64(v)
	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %d out of range for %s", ErrTypeMismatch, n, typ)
	}
	return n, nil
}

func numeric(v nbt.Tag) (float64, bool) {
	switch v.(type) {
	case nbt.Byte, nbt.Short, nbt.Int, nbt.Long, nbt.Float, nbt.Double:
		return nbt.AsFloat64(v)
	}
	return 0, false
}
