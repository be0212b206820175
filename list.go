package nbt

import (
	"fmt"
	"iter"
)

// List is a homogeneous sequence of unnamed tags. Its element type is
// declared once; an empty list conventionally declares TagEnd.
type List struct {
	elem  TagType
	items []Tag
}

// NewList builds a list of elem values. Every item must carry elem's variant.
func NewList(elem TagType, items ...Tag) (*List, error) {
	if !elem.Valid() {
		return nil, newError(KindMalformed, -1, "unknown list element type %d", uint8(elem))
	}
	l := &List{elem: elem, items: make([]Tag, 0, len(items))}
	for _, it := range items {
		if err := l.Append(it); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// MustList is like NewList but panics on error.
func MustList(elem TagType, items ...Tag) *List {
	l, err := NewList(elem, items...)
	if err != nil {
		panic(fmt.Sprintf("nbt: NewList(%s): %v", elem, err))
	}
	return l
}

// ElemType returns the declared element type.
func (l *List) ElemType() TagType {
	if l == nil {
		return TagEnd
	}
	return l.elem
}

// Len returns the number of elements.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// At returns element i.
func (l *List) At(i int) Tag {
	return l.items[i]
}

// Items returns the backing slice. Callers must not modify it.
func (l *List) Items() []Tag {
	if l == nil {
		return nil
	}
	return l.items
}

// All iterates elements in order.
func (l *List) All() iter.Seq2[int, Tag] {
	return func(yield func(int, Tag) bool) {
		if l == nil {
			return
		}
		for i, v := range l.items {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Append adds v. An empty list declared as TagEnd adopts v's type.
func (l *List) Append(v Tag) error {
	if v == nil {
		return newError(KindMalformed, -1, "nil list element")
	}
	if l.elem == TagEnd && len(l.items) == 0 {
		l.elem = v.Type()
	}
	if v.Type() != l.elem {
		return newError(KindMalformed, -1, "list of %s cannot hold %s", l.elem, v.Type())
	}
	l.items = append(l.items, v)
	return nil
}

// Set replaces element i with v.
func (l *List) Set(i int, v Tag) error {
	if i < 0 || i >= len(l.items) {
		return newError(KindMalformed, -1, "list index %d out of range [0,%d)", i, len(l.items))
	}
	if v == nil || v.Type() != l.elem {
		return newError(KindMalformed, -1, "list of %s cannot hold %v", l.elem, typeOf(v))
	}
	l.items[i] = v
	return nil
}

// Insert places v before element i; i == Len() appends.
func (l *List) Insert(i int, v Tag) error {
	if i < 0 || i > len(l.items) {
		return newError(KindMalformed, -1, "list index %d out of range [0,%d]", i, len(l.items))
	}
	if i == len(l.items) {
		return l.Append(v)
	}
	if v == nil || v.Type() != l.elem {
		return newError(KindMalformed, -1, "list of %s cannot hold %v", l.elem, typeOf(v))
	}
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = v
	return nil
}

// Remove deletes element i.
func (l *List) Remove(i int) error {
	if i < 0 || i >= len(l.items) {
		return newError(KindMalformed, -1, "list index %d out of range [0,%d)", i, len(l.items))
	}
	copy(l.items[i:], l.items[i+1:])
	l.items[len(l.items)-1] = nil
	l.items = l.items[:len(l.items)-1]
	return nil
}

// Validate re-checks homogeneity for lists whose contents were changed
// outside Append and Set.
func (l *List) Validate() error {
	if l == nil {
		return nil
	}
	if l.elem == TagEnd && len(l.items) > 0 {
		return newError(KindMalformed, -1, "list of %s holds %d elements", TagEnd, len(l.items))
	}
	for i, v := range l.items {
		if v == nil {
			return newError(KindMalformed, -1, "nil list element at index %d", i)
		}
		if v.Type() != l.elem {
			return newError(KindMalformed, -1, "list of %s holds %s at index %d", l.elem, v.Type(), i)
		}
	}
	return nil
}

func typeOf(v Tag) any {
	if v == nil {
		return "nil"
	}
	return v.Type()
}
