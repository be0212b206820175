package nbt

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	"github.com/delaneyj/toolbelt/bytebufferpool"
)

// flushThreshold is the staged byte count that triggers a write to the sink.
const flushThreshold = 32 * 1024

// EncodeOptions configures an Encoder.
type EncodeOptions struct {
	Mode Mode
}

// Encoder writes tag trees in canonical form. Encoding never mutates the
// tree. On error the sink may hold a partial encoding that must be discarded.
type Encoder struct {
	w    io.Writer
	opts EncodeOptions
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer, opts EncodeOptions) *Encoder {
	return &Encoder{w: w, opts: opts}
}

// Encode writes one root envelope.
func (e *Encoder) Encode(root Root) error {
	s := acquireEncodeState(e.w)
	defer releaseEncodeState(s)
	s.writeByte(byte(TagCompound))
	if e.opts.Mode == ModeFile {
		if err := s.writeString(root.Name); err != nil {
			return err
		}
	}
	if err := s.writeCompound(root.Compound); err != nil {
		return err
	}
	return s.flush()
}

// EncodeTag writes t unnamed: its type id followed by its payload.
func (e *Encoder) EncodeTag(t Tag) error {
	if t == nil {
		return newError(KindMalformed, 0, "cannot encode nil tag")
	}
	s := acquireEncodeState(e.w)
	defer releaseEncodeState(s)
	s.writeByte(byte(t.Type()))
	if err := s.writePayload(t); err != nil {
		return err
	}
	return s.flush()
}

// Marshal encodes root in file mode without compression.
func Marshal(root Root) ([]byte, error) {
	return MarshalWith(root, EncodeOptions{})
}

// MarshalWith encodes root without compression.
func MarshalWith(root Root, opts EncodeOptions) ([]byte, error) {
	var out bytes.Buffer
	if err := NewEncoder(&out, opts).Encode(root); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

type encodeState struct {
	w       io.Writer
	buf     *bytebufferpool.ByteBuffer
	flushed int64
	scratch [8]byte
}

func acquireEncodeState(w io.Writer) *encodeState {
	return &encodeState{w: w, buf: bytebufferpool.Get()}
}

func releaseEncodeState(s *encodeState) {
	bytebufferpool.Put(s.buf)
	s.buf = nil
	s.w = nil
}

func (s *encodeState) offset() int64 {
	return s.flushed + int64(s.buf.Len())
}

func (s *encodeState) flush() error {
	if s.buf.Len() == 0 {
		return nil
	}
	n, err := s.w.Write(s.buf.Bytes())
	s.flushed += int64(n)
	s.buf.Reset()
	if err != nil {
		return wrapError(KindIO, s.flushed, err, "write failed")
	}
	return nil
}

func (s *encodeState) maybeFlush() error {
	if s.buf.Len() < flushThreshold {
		return nil
	}
	return s.flush()
}

func (s *encodeState) writeByte(b byte) {
	s.buf.WriteByte(b)
}

func (s *encodeState) writeUint16(v uint16) {
	binary.BigEndian.PutUint16(s.scratch[:2], v)
	s.buf.Write(s.scratch[:2])
}

func (s *encodeState) writeUint32(v uint32) {
	binary.BigEndian.PutUint32(s.scratch[:4], v)
	s.buf.Write(s.scratch[:4])
}

func (s *encodeState) writeUint64(v uint64) {
	binary.BigEndian.PutUint64(s.scratch[:8], v)
	s.buf.Write(s.scratch[:8])
}

func (s *encodeState) writeString(str string) error {
	if len(str) > math.MaxUint16 {
		return newError(KindRangeExceeded, s.offset(), "string of %d bytes exceeds %d", len(str), math.MaxUint16)
	}
	if !utf8.ValidString(str) {
		return newError(KindMalformed, s.offset(), "string is not valid UTF-8")
	}
	s.writeUint16(uint16(len(str)))
	s.buf.WriteString(str)
	return nil
}

func (s *encodeState) writeCount(t TagType, n int) error {
	if n > math.MaxInt32 {
		return newError(KindRangeExceeded, s.offset(), "%s of %d elements exceeds %d", t, n, math.MaxInt32)
	}
	s.writeUint32(uint32(n))
	return nil
}

func (s *encodeState) writePayload(t Tag) error {
	switch v := t.(type) {
	case Byte:
		s.writeByte(byte(v))
	case Short:
		s.writeUint16(uint16(v))
	case Int:
		s.writeUint32(uint32(v))
	case Long:
		s.writeUint64(uint64(v))
	case Float:
		s.writeUint32(math.Float32bits(float32(v)))
	case Double:
		s.writeUint64(math.Float64bits(float64(v)))
	case String:
		return s.writeString(string(v))
	case ByteArray:
		if err := s.writeCount(TagByteArray, len(v)); err != nil {
			return err
		}
		for _, b := range v {
			s.buf.WriteByte(byte(b))
		}
		return s.maybeFlush()
	case IntArray:
		if err := s.writeCount(TagIntArray, len(v)); err != nil {
			return err
		}
		for i, n := range v {
			s.writeUint32(uint32(n))
			if i%arrayChunk == arrayChunk-1 {
				if err := s.maybeFlush(); err != nil {
					return err
				}
			}
		}
		return s.maybeFlush()
	case LongArray:
		if err := s.writeCount(TagLongArray, len(v)); err != nil {
			return err
		}
		for i, n := range v {
			s.writeUint64(uint64(n))
			if i%arrayChunk == arrayChunk-1 {
				if err := s.maybeFlush(); err != nil {
					return err
				}
			}
		}
		return s.maybeFlush()
	case *List:
		return s.writeList(v)
	case *Compound:
		return s.writeCompound(v)
	case nil:
		return newError(KindMalformed, s.offset(), "cannot encode nil tag")
	default:
		return newError(KindMalformed, s.offset(), "unsupported tag %T", t)
	}
	return nil
}

func (s *encodeState) writeCompound(c *Compound) error {
	for name, v := range c.All() {
		if v == nil {
			return newError(KindMalformed, s.offset(), "compound member %q is nil", name)
		}
		s.writeByte(byte(v.Type()))
		if err := s.writeString(name); err != nil {
			return err
		}
		if err := s.writePayload(v); err != nil {
			return err
		}
		if err := s.maybeFlush(); err != nil {
			return err
		}
	}
	s.writeByte(byte(TagEnd))
	return nil
}

func (s *encodeState) writeList(l *List) error {
	if l.Len() == 0 {
		s.writeByte(byte(TagEnd))
		s.writeUint32(0)
		return nil
	}
	elem := l.ElemType()
	if elem == TagEnd || !elem.Valid() {
		return newError(KindMalformed, s.offset(), "list of %s holds %d elements", elem, l.Len())
	}
	s.writeByte(byte(elem))
	if err := s.writeCount(TagList, l.Len()); err != nil {
		return err
	}
	for i, v := range l.Items() {
		if v == nil || v.Type() != elem {
			return newError(KindMalformed, s.offset(), "list of %s holds %v at index %d", elem, typeOf(v), i)
		}
		if err := s.writePayload(v); err != nil {
			return err
		}
		if err := s.maybeFlush(); err != nil {
			return err
		}
	}
	return nil
}
