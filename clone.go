package nbt

import "slices"

// Clone returns a deep copy of t. The copy shares no storage with t.
func Clone(t Tag) Tag {
	switch v := t.(type) {
	case nil:
		return nil
	case ByteArray:
		return ByteArray(slices.Clone(v))
	case IntArray:
		return IntArray(slices.Clone(v))
	case LongArray:
		return LongArray(slices.Clone(v))
	case *List:
		return CloneList(v)
	case *Compound:
		return CloneCompound(v)
	default:
		return t
	}
}

// CloneCompound deep-copies a compound, keeping member order.
func CloneCompound(c *Compound) *Compound {
	if c == nil {
		return nil
	}
	out := NewCompoundWithCapacity(c.Len())
	for i, name := range c.names {
		out.Set(name, Clone(c.values[i]))
	}
	return out
}

// CloneList deep-copies a list.
func CloneList(l *List) *List {
	if l == nil {
		return nil
	}
	out := &List{elem: l.elem, items: make([]Tag, len(l.items))}
	for i, v := range l.items {
		out.items[i] = Clone(v)
	}
	return out
}
