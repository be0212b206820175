package nbt

// Tag is one typed value of the tree. The variant set is closed: Byte, Short,
// Int, Long, Float, Double, ByteArray, String, *List, *Compound, IntArray and
// LongArray. End exists only as a type id on the wire.
type Tag interface {
	Type() TagType
	isTag()
}

type (
	Byte      int8
	Short     int16
	Int       int32
	Long      int64
	Float     float32
	Double    float64
	ByteArray []int8
	String    string
	IntArray  []int32
	LongArray []int64
)

func (Byte) Type() TagType      { return TagByte }
func (Short) Type() TagType     { return TagShort }
func (Int) Type() TagType       { return TagInt }
func (Long) Type() TagType      { return TagLong }
func (Float) Type() TagType     { return TagFloat }
func (Double) Type() TagType    { return TagDouble }
func (ByteArray) Type() TagType { return TagByteArray }
func (String) Type() TagType    { return TagString }
func (*List) Type() TagType     { return TagList }
func (*Compound) Type() TagType { return TagCompound }
func (IntArray) Type() TagType  { return TagIntArray }
func (LongArray) Type() TagType { return TagLongArray }

func (Byte) isTag()      {}
func (Short) isTag()     {}
func (Int) isTag()       {}
func (Long) isTag()      {}
func (Float) isTag()     {}
func (Double) isTag()    {}
func (ByteArray) isTag() {}
func (String) isTag()    {}
func (*List) isTag()     {}
func (*Compound) isTag() {}
func (IntArray) isTag()  {}
func (LongArray) isTag() {}

// Bool encodes a boolean the way the format does, as a Byte of 0 or 1.
func Bool(v bool) Byte {
	if v {
		return 1
	}
	return 0
}

// ByteArrayFromBytes reinterprets raw bytes as a ByteArray payload.
func ByteArrayFromBytes(b []byte) ByteArray {
	out := make(ByteArray, len(b))
	for i, v := range b {
		out[i] = int8(v)
	}
	return out
}

// Bytes returns the array payload as unsigned bytes.
func (a ByteArray) Bytes() []byte {
	out := make([]byte, len(a))
	for i, v := range a {
		out[i] = byte(v)
	}
	return out
}
