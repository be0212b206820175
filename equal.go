package nbt

import (
	"math"
	"slices"
)

// Equal reports whether a and b are structurally equal. Compound member order
// is ignored: it is a serialization artifact, not identity. Floats compare by
// bit pattern so NaN payloads survive a round trip. Empty lists are equal
// whatever element type they declare, since the writer emits every empty list
// as a list of TagEnd.
func Equal(a, b Tag) bool {
	return equal(a, b, false)
}

// EqualOrdered is like Equal but also requires compound members to appear
// in the same order, which is what byte-identical encoding needs.
func EqualOrdered(a, b Tag) bool {
	return equal(a, b, true)
}

func equal(a, b Tag, ordered bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Type() != b.Type() {
		return false
	}
	switch av := a.(type) {
	case Byte, Short, Int, Long, String:
		return a == b
	case Float:
		return math.Float32bits(float32(av)) == math.Float32bits(float32(b.(Float)))
	case Double:
		return math.Float64bits(float64(av)) == math.Float64bits(float64(b.(Double)))
	case ByteArray:
		return slices.Equal(av, b.(ByteArray))
	case IntArray:
		return slices.Equal(av, b.(IntArray))
	case LongArray:
		return slices.Equal(av, b.(LongArray))
	case *List:
		return listEqual(av, b.(*List), ordered)
	case *Compound:
		return compoundEqual(av, b.(*Compound), ordered)
	default:
		return false
	}
}

func listEqual(a, b *List, ordered bool) bool {
	if a.Len() != b.Len() {
		return false
	}
	if a.Len() == 0 {
		return true
	}
	if a.ElemType() != b.ElemType() {
		return false
	}
	for i := range a.items {
		if !equal(a.items[i], b.items[i], ordered) {
			return false
		}
	}
	return true
}

func compoundEqual(a, b *Compound, ordered bool) bool {
	if a.Len() != b.Len() {
		return false
	}
	if a.Len() == 0 {
		return true
	}
	if ordered {
		for i, name := range a.names {
			if b.names[i] != name || !equal(a.values[i], b.values[i], ordered) {
				return false
			}
		}
		return true
	}
	for i, name := range a.names {
		bv, ok := b.Get(name)
		if !ok || !equal(a.values[i], bv, ordered) {
			return false
		}
	}
	return true
}
