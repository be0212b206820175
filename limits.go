package nbt

const (
	DefaultMaxDepth      = 512
	DefaultMaxElements   = 16 << 20
	DefaultMaxTotalBytes = 256 << 20
)

// Limits bounds the work a single decode may do. A zero field means the
// matching default.
type Limits struct {
	// MaxDepth is the deepest container nesting allowed. The root compound
	// sits at depth 1.
	MaxDepth uint64
	// MaxElements caps the count of any one array, list or compound.
	MaxElements uint64
	// MaxTotalBytes caps the raw (decompressed) bytes consumed.
	MaxTotalBytes uint64
}

// DefaultLimits returns limits large enough for real world data and small
// enough to stop depth and length bombs.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:      DefaultMaxDepth,
		MaxElements:   DefaultMaxElements,
		MaxTotalBytes: DefaultMaxTotalBytes,
	}
}

func (l Limits) withDefaults() Limits {
	if l.MaxDepth == 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	if l.MaxElements == 0 {
		l.MaxElements = DefaultMaxElements
	}
	if l.MaxTotalBytes == 0 {
		l.MaxTotalBytes = DefaultMaxTotalBytes
	}
	return l
}

// minPayloadSize is the smallest encoding of a t payload, used to reject
// counts that cannot fit in the remaining byte budget before allocating.
func minPayloadSize(t TagType) uint64 {
	if w, ok := WidthOf(t); ok {
		return uint64(w)
	}
	switch t {
	case TagByteArray, TagIntArray, TagLongArray:
		return 4
	case TagString:
		return 2
	case TagList:
		return 5
	case TagCompound:
		return 1
	default:
		return 0
	}
}
