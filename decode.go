package nbt

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"unicode/utf8"

	"github.com/delaneyj/toolbelt"
)

// arrayChunk bounds a single array read and the initial capacity of any
// decoded collection.
const arrayChunk = 4096

// DecodeOptions configures a Decoder.
type DecodeOptions struct {
	Limits Limits
	Mode   Mode
}

// Decoder reads tag trees from a byte stream. A Decoder is not safe for
// concurrent use; separate Decoders share no state.
type Decoder struct {
	r    io.Reader
	opts DecodeOptions
}

// NewDecoder returns a decoder reading from r. Readers that do not implement
// io.ByteReader are buffered, so the decoder may read past the end of a root.
func NewDecoder(r io.Reader, opts DecodeOptions) *Decoder {
	if _, ok := r.(io.ByteReader); !ok {
		r = bufio.NewReader(r)
	}
	opts.Limits = opts.Limits.withDefaults()
	return &Decoder{r: r, opts: opts}
}

// Decode reads one root envelope. On failure no partial tree is returned.
func (d *Decoder) Decode() (Root, error) {
	s := acquireDecodeState(d.r, d.opts.Limits)
	defer releaseDecodeState(s)
	return s.readRoot(d.opts.Mode)
}

// DecodeTag reads one unnamed tag of any type: a type id followed directly
// by its payload.
func (d *Decoder) DecodeTag() (Tag, error) {
	s := acquireDecodeState(d.r, d.opts.Limits)
	defer releaseDecodeState(s)
	off := s.off
	b, err := s.readByte()
	if err != nil {
		return nil, err
	}
	t := TagType(b)
	if t == TagEnd {
		return nil, newError(KindMalformed, off, "unnamed tag cannot be %s", TagEnd)
	}
	if !t.Valid() {
		return nil, newError(KindMalformed, off, "unknown tag type %d", b)
	}
	return s.readPayload(t)
}

// Unmarshal decodes a complete uncompressed file-mode root from data.
func Unmarshal(data []byte) (Root, error) {
	return UnmarshalWith(data, DecodeOptions{})
}

// UnmarshalWith decodes a complete uncompressed root from data. Bytes left
// over after the root are reported as malformed.
func UnmarshalWith(data []byte, opts DecodeOptions) (Root, error) {
	r := bytes.NewReader(data)
	root, err := NewDecoder(r, opts).Decode()
	if err != nil {
		return Root{}, err
	}
	if r.Len() > 0 {
		return Root{}, newError(KindMalformed, int64(len(data)-r.Len()), "%d trailing bytes after root", r.Len())
	}
	return root, nil
}

type decodeState struct {
	r       io.Reader
	br      io.ByteReader
	limits  Limits
	off     int64
	depth   uint64
	scratch [8]byte
	buf     []byte
}

var decodeStatePool = toolbelt.New(func() *decodeState {
	return &decodeState{buf: make([]byte, 0, 256)}
})

func acquireDecodeState(r io.Reader, limits Limits) *decodeState {
	s := decodeStatePool.Get()
	s.r = r
	s.br, _ = r.(io.ByteReader)
	s.limits = limits
	s.off = 0
	s.depth = 0
	return s
}

func releaseDecodeState(s *decodeState) {
	if s == nil {
		return
	}
	s.r = nil
	s.br = nil
	if cap(s.buf) > 64*1024 {
		s.buf = make([]byte, 0, 256)
	}
	s.buf = s.buf[:0]
	decodeStatePool.Put(s)
}

func (s *decodeState) readRoot(mode Mode) (Root, error) {
	off := s.off
	b, err := s.readByte()
	if err != nil {
		return Root{}, err
	}
	if TagType(b) != TagCompound {
		return Root{}, newError(KindMalformed, off, "root tag must be %s, got %s", TagCompound, TagType(b))
	}
	var name string
	if mode == ModeFile {
		name, err = s.readString()
		if err != nil {
			return Root{}, err
		}
	}
	c, err := s.readCompound()
	if err != nil {
		return Root{}, err
	}
	return Root{Name: name, Compound: c}, nil
}

func (s *decodeState) readPayload(t TagType) (Tag, error) {
	switch t {
	case TagByte:
		b, err := s.readByte()
		if err != nil {
			return nil, err
		}
		return Byte(int8(b)), nil
	case TagShort:
		if err := s.readFull(s.scratch[:2]); err != nil {
			return nil, err
		}
		return Short(int16(binary.BigEndian.Uint16(s.scratch[:2]))), nil
	case TagInt:
		v, err := s.readInt32()
		if err != nil {
			return nil, err
		}
		return Int(v), nil
	case TagLong:
		if err := s.readFull(s.scratch[:8]); err != nil {
			return nil, err
		}
		return Long(int64(binary.BigEndian.Uint64(s.scratch[:8]))), nil
	case TagFloat:
		if err := s.readFull(s.scratch[:4]); err != nil {
			return nil, err
		}
		return Float(math.Float32frombits(binary.BigEndian.Uint32(s.scratch[:4]))), nil
	case TagDouble:
		if err := s.readFull(s.scratch[:8]); err != nil {
			return nil, err
		}
		return Double(math.Float64frombits(binary.BigEndian.Uint64(s.scratch[:8]))), nil
	case TagString:
		str, err := s.readString()
		if err != nil {
			return nil, err
		}
		return String(str), nil
	case TagByteArray:
		return s.readByteArray()
	case TagIntArray:
		return s.readIntArray()
	case TagLongArray:
		return s.readLongArray()
	case TagList:
		return s.readList()
	case TagCompound:
		return s.readCompound()
	case TagEnd:
		return nil, newError(KindMalformed, s.off, "%s cannot carry a payload", TagEnd)
	default:
		return nil, newError(KindMalformed, s.off, "unknown tag type %d", uint8(t))
	}
}

func (s *decodeState) readCompound() (*Compound, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.leave()

	c := NewCompound()
	for {
		off := s.off
		b, err := s.readByte()
		if err != nil {
			return nil, err
		}
		t := TagType(b)
		if t == TagEnd {
			return c, nil
		}
		if !t.Valid() {
			return nil, newError(KindMalformed, off, "unknown tag type %d", b)
		}
		name, err := s.readString()
		if err != nil {
			return nil, err
		}
		v, err := s.readPayload(t)
		if err != nil {
			return nil, err
		}
		if uint64(c.Len()) >= s.limits.MaxElements && !c.Has(name) {
			return nil, newError(KindLimitExceeded, off, "compound member count exceeds limit %d", s.limits.MaxElements)
		}
		// Duplicate names: the last occurrence wins.
		c.Set(name, v)
	}
}

func (s *decodeState) readList() (*List, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.leave()

	off := s.off
	b, err := s.readByte()
	if err != nil {
		return nil, err
	}
	elem := TagType(b)
	if !elem.Valid() {
		return nil, newError(KindMalformed, off, "unknown list element type %d", b)
	}
	n, err := s.readCount(elem, minPayloadSize(elem))
	if err != nil {
		return nil, err
	}
	if elem == TagEnd && n > 0 {
		return nil, newError(KindMalformed, off, "list of %s declares %d elements", TagEnd, n)
	}
	l := &List{elem: elem, items: make([]Tag, 0, min(n, arrayChunk))}
	for i := 0; i < n; i++ {
		v, err := s.readPayload(elem)
		if err != nil {
			return nil, err
		}
		l.items = append(l.items, v)
	}
	return l, nil
}

func (s *decodeState) readByteArray() (ByteArray, error) {
	n, err := s.readCount(TagByteArray, 1)
	if err != nil {
		return nil, err
	}
	out := make(ByteArray, 0, min(n, arrayChunk))
	for done := 0; done < n; {
		chunk := min(n-done, arrayChunk)
		buf := s.grow(chunk)
		if err := s.readFull(buf); err != nil {
			return nil, err
		}
		for _, b := range buf {
			out = append(out, int8(b))
		}
		done += chunk
	}
	return out, nil
}

func (s *decodeState) readIntArray() (IntArray, error) {
	n, err := s.readCount(TagIntArray, 4)
	if err != nil {
		return nil, err
	}
	out := make(IntArray, 0, min(n, arrayChunk))
	for done := 0; done < n; {
		chunk := min(n-done, arrayChunk/4)
		buf := s.grow(chunk * 4)
		if err := s.readFull(buf); err != nil {
			return nil, err
		}
		for i := 0; i < chunk; i++ {
			out = append(out, int32(binary.BigEndian.Uint32(buf[i*4:])))
		}
		done += chunk
	}
	return out, nil
}

func (s *decodeState) readLongArray() (LongArray, error) {
	n, err := s.readCount(TagLongArray, 8)
	if err != nil {
		return nil, err
	}
	out := make(LongArray, 0, min(n, arrayChunk))
	for done := 0; done < n; {
		chunk := min(n-done, arrayChunk/8)
		buf := s.grow(chunk * 8)
		if err := s.readFull(buf); err != nil {
			return nil, err
		}
		for i := 0; i < chunk; i++ {
			out = append(out, int64(binary.BigEndian.Uint64(buf[i*8:])))
		}
		done += chunk
	}
	return out, nil
}

// readCount reads a signed 32-bit element count and checks it against the
// element and byte budgets before anything is allocated.
func (s *decodeState) readCount(t TagType, elemSize uint64) (int, error) {
	off := s.off
	n, err := s.readInt32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, newError(KindMalformed, off, "negative %s length %d", t, n)
	}
	if uint64(n) > s.limits.MaxElements {
		return 0, newError(KindLimitExceeded, off, "%s length %d exceeds limit %d", t, n, s.limits.MaxElements)
	}
	if uint64(s.off)+uint64(n)*elemSize > s.limits.MaxTotalBytes {
		return 0, newError(KindLimitExceeded, off, "%s of %d elements exceeds byte budget %d", t, n, s.limits.MaxTotalBytes)
	}
	return int(n), nil
}

func (s *decodeState) readString() (string, error) {
	off := s.off
	if err := s.readFull(s.scratch[:2]); err != nil {
		return "", err
	}
	n := int(binary.BigEndian.Uint16(s.scratch[:2]))
	if n == 0 {
		return "", nil
	}
	buf := s.grow(n)
	if err := s.readFull(buf); err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", newError(KindMalformed, off, "string is not valid UTF-8")
	}
	return string(buf), nil
}

func (s *decodeState) readInt32() (int32, error) {
	if err := s.readFull(s.scratch[:4]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(s.scratch[:4])), nil
}

func (s *decodeState) readByte() (byte, error) {
	if err := s.budget(1); err != nil {
		return 0, err
	}
	if s.br != nil {
		b, err := s.br.ReadByte()
		if err != nil {
			return 0, s.readError(err)
		}
		s.off++
		return b, nil
	}
	if err := s.readFull(s.scratch[:1]); err != nil {
		return 0, err
	}
	return s.scratch[0], nil
}

func (s *decodeState) readFull(p []byte) error {
	if err := s.budget(uint64(len(p))); err != nil {
		return err
	}
	n, err := io.ReadFull(s.r, p)
	s.off += int64(n)
	if err != nil {
		return s.readError(err)
	}
	return nil
}

func (s *decodeState) budget(n uint64) error {
	if uint64(s.off)+n > s.limits.MaxTotalBytes {
		return newError(KindLimitExceeded, s.off, "decode exceeds byte budget %d", s.limits.MaxTotalBytes)
	}
	return nil
}

func (s *decodeState) readError(err error) error {
	var e *Error
	if errors.As(err, &e) {
		if e.Offset < 0 {
			e.Offset = s.off
		}
		return e
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return newError(KindTruncated, s.off, "unexpected end of stream")
	}
	return wrapError(KindIO, s.off, err, "read failed")
}

func (s *decodeState) grow(n int) []byte {
	if cap(s.buf) < n {
		s.buf = make([]byte, n)
	}
	return s.buf[:n]
}

func (s *decodeState) enter() error {
	s.depth++
	if s.depth > s.limits.MaxDepth {
		return newError(KindLimitExceeded, s.off, "nesting depth %d exceeds limit %d", s.depth, s.limits.MaxDepth)
	}
	return nil
}

func (s *decodeState) leave() {
	s.depth--
}
