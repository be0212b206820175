package nbt

import "fmt"

// TagType is the one-byte type identifier that precedes every named tag.
type TagType uint8

const (
	TagEnd TagType = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

// variableWidth marks types whose payload is length-prefixed.
const variableWidth = -1

type typeInfo struct {
	name  string
	width int
	elem  TagType
}

var typeTable = [...]typeInfo{
	TagEnd:       {name: "TAG_End", width: 0},
	TagByte:      {name: "TAG_Byte", width: 1},
	TagShort:     {name: "TAG_Short", width: 2},
	TagInt:       {name: "TAG_Int", width: 4},
	TagLong:      {name: "TAG_Long", width: 8},
	TagFloat:     {name: "TAG_Float", width: 4},
	TagDouble:    {name: "TAG_Double", width: 8},
	TagByteArray: {name: "TAG_Byte_Array", width: variableWidth, elem: TagByte},
	TagString:    {name: "TAG_String", width: variableWidth},
	TagList:      {name: "TAG_List", width: variableWidth},
	TagCompound:  {name: "TAG_Compound", width: variableWidth},
	TagIntArray:  {name: "TAG_Int_Array", width: variableWidth, elem: TagInt},
	TagLongArray: {name: "TAG_Long_Array", width: variableWidth, elem: TagLong},
}

// Valid reports whether t is one of the 13 known type ids.
func (t TagType) Valid() bool {
	return int(t) < len(typeTable)
}

func (t TagType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("TAG_Unknown(%d)", uint8(t))
	}
	return typeTable[t].name
}

// NameOf returns the display name of a type id.
func NameOf(t TagType) string {
	return t.String()
}

// WidthOf returns the fixed payload width of t in bytes.
// It reports false for length-prefixed and unknown types.
func WidthOf(t TagType) (int, bool) {
	if !t.Valid() || typeTable[t].width == variableWidth {
		return 0, false
	}
	return typeTable[t].width, true
}

// ElemOf returns the element type of an array type.
func ElemOf(t TagType) (TagType, bool) {
	switch t {
	case TagByteArray, TagIntArray, TagLongArray:
		return typeTable[t].elem, true
	default:
		return TagEnd, false
	}
}

// IsContainer reports whether values of t hold nested tags.
func IsContainer(t TagType) bool {
	return t == TagList || t == TagCompound
}
