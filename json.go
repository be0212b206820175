package nbt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/minio/simdjson-go"
)

// ErrJSONNull is returned by FromJSON for null values, which have no tag form.
var ErrJSONNull = errors.New("json null has no nbt representation")

// FromJSON builds a tag tree from JSON. Objects become compounds in document
// order, arrays become homogeneous lists, integers become Int (or Long when
// they do not fit in 32 bits), other numbers become Double, booleans become
// Byte and strings become String.
func FromJSON(data []byte) (Tag, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("json input is empty")
	}
	if !simdjson.SupportedCPU() || (trimmed[0] != '{' && trimmed[0] != '[') {
		return fromJSONStream(trimmed)
	}
	parsed, err := simdjson.Parse(trimmed, nil)
	if err != nil {
		return nil, err
	}
	it := parsed.Iter()
	if it.Advance() != simdjson.TypeRoot {
		return nil, fmt.Errorf("json root not found")
	}
	typ, root, err := it.Root(nil)
	if err != nil {
		return nil, err
	}
	return tagFromJSONIter(typ, root)
}

// CompoundFromJSON is FromJSON for inputs whose top level must be an object.
func CompoundFromJSON(data []byte) (*Compound, error) {
	t, err := FromJSON(data)
	if err != nil {
		return nil, err
	}
	c, ok := t.(*Compound)
	if !ok {
		return nil, fmt.Errorf("json root is %s, want object", t.Type())
	}
	return c, nil
}

func tagFromJSONIter(typ simdjson.Type, it *simdjson.Iter) (Tag, error) {
	switch typ {
	case simdjson.TypeNull:
		return nil, ErrJSONNull
	case simdjson.TypeBool:
		v, err := it.Bool()
		if err != nil {
			return nil, err
		}
		return Bool(v), nil
	case simdjson.TypeInt:
		v, err := it.Int()
		if err != nil {
			return nil, err
		}
		return intTag(v), nil
	case simdjson.TypeUint:
		v, err := it.Uint()
		if err != nil {
			return nil, err
		}
		if v > math.MaxInt64 {
			return Double(float64(v)), nil
		}
		return intTag(int64(v)), nil
	case simdjson.TypeFloat:
		v, err := it.Float()
		if err != nil {
			return nil, err
		}
		return Double(v), nil
	case simdjson.TypeString:
		s, err := it.String()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case simdjson.TypeObject:
		obj, err := it.Object(nil)
		if err != nil {
			return nil, err
		}
		c := NewCompound()
		var parseErr error
		err = obj.ForEach(func(key []byte, elem simdjson.Iter) {
			if parseErr != nil {
				return
			}
			v, err := tagFromJSONIter(elem.Type(), &elem)
			if err != nil {
				parseErr = fmt.Errorf("key %q: %w", key, err)
				return
			}
			c.Set(string(key), v)
		}, nil)
		if err != nil {
			return nil, err
		}
		if parseErr != nil {
			return nil, parseErr
		}
		return c, nil
	case simdjson.TypeArray:
		arr, err := it.Array(nil)
		if err != nil {
			return nil, err
		}
		var items []Tag
		iter := arr.Iter()
		for {
			t := iter.Advance()
			if t == simdjson.TypeNone {
				break
			}
			elem := iter
			v, err := tagFromJSONIter(t, &elem)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", len(items), err)
			}
			items = append(items, v)
		}
		return listFromJSON(items)
	default:
		return nil, fmt.Errorf("unsupported json type: %v", typ)
	}
}

func fromJSONStream(data []byte) (Tag, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	t, err := tagFromJSONToken(dec, tok)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("invalid character after top-level value")
	}
	return t, nil
}

func tagFromJSONToken(dec *json.Decoder, tok json.Token) (Tag, error) {
	switch v := tok.(type) {
	case nil:
		return nil, ErrJSONNull
	case bool:
		return Bool(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return intTag(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid json number: %s", v)
		}
		return Double(f), nil
	case string:
		return String(v), nil
	case json.Delim:
		switch v {
		case '{':
			c := NewCompound()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				valTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				val, err := tagFromJSONToken(dec, valTok)
				if err != nil {
					return nil, fmt.Errorf("key %q: %w", key, err)
				}
				c.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return c, nil
		case '[':
			var items []Tag
			for dec.More() {
				elemTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				val, err := tagFromJSONToken(dec, elemTok)
				if err != nil {
					return nil, fmt.Errorf("index %d: %w", len(items), err)
				}
				items = append(items, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return listFromJSON(items)
		}
	}
	return nil, fmt.Errorf("unexpected json token %v", tok)
}

func intTag(v int64) Tag {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		return Int(v)
	}
	return Long(v)
}

// listFromJSON widens numeric elements to a common type: Int < Long < Double.
func listFromJSON(items []Tag) (*List, error) {
	if len(items) == 0 {
		return NewList(TagEnd)
	}
	elem := items[0].Type()
	for _, it := range items[1:] {
		t := it.Type()
		if t == elem {
			continue
		}
		w, ok := widenNumeric(elem, t)
		if !ok {
			return nil, fmt.Errorf("json array mixes %s and %s", elem, t)
		}
		elem = w
	}
	for i, it := range items {
		if it.Type() == elem {
			continue
		}
		switch elem {
		case TagLong:
			v, _ := AsInt64(it)
			items[i] = Long(v)
		case TagDouble:
			v, _ := AsFloat64(it)
			items[i] = Double(v)
		}
	}
	return NewList(elem, items...)
}

func numericRank(t TagType) int {
	switch t {
	case TagInt:
		return 1
	case TagLong:
		return 2
	case TagDouble:
		return 3
	}
	return 0
}

func widenNumeric(a, b TagType) (TagType, bool) {
	ra, rb := numericRank(a), numericRank(b)
	if ra == 0 || rb == 0 {
		return TagEnd, false
	}
	if ra >= rb {
		return a, true
	}
	return b, true
}

// ToJSON renders t as compact JSON. Compound members keep insertion order.
func ToJSON(t Tag) (string, error) {
	var sb strings.Builder
	if err := WriteJSON(&sb, t); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteJSON appends JSON for t to sb.
func WriteJSON(sb *strings.Builder, t Tag) error {
	switch v := t.(type) {
	case Byte:
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	case Short:
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	case Int:
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	case Long:
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	case Float:
		return writeJSONFloat(sb, float64(v), 32)
	case Double:
		return writeJSONFloat(sb, float64(v), 64)
	case String:
		writeJSONString(sb, string(v))
	case ByteArray:
		sb.WriteByte('[')
		for i, b := range v {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatInt(int64(b), 10))
		}
		sb.WriteByte(']')
	case IntArray:
		sb.WriteByte('[')
		for i, n := range v {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatInt(int64(n), 10))
		}
		sb.WriteByte(']')
	case LongArray:
		sb.WriteByte('[')
		for i, n := range v {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatInt(n, 10))
		}
		sb.WriteByte(']')
	case *List:
		sb.WriteByte('[')
		for i, item := range v.All() {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := WriteJSON(sb, item); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case *Compound:
		sb.WriteByte('{')
		first := true
		for name, item := range v.All() {
			if !first {
				sb.WriteByte(',')
			}
			first = false
			writeJSONString(sb, name)
			sb.WriteByte(':')
			if err := WriteJSON(sb, item); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		sb.WriteByte('}')
	default:
		return fmt.Errorf("unsupported tag %T", t)
	}
	return nil
}

func writeJSONFloat(sb *strings.Builder, f float64, bits int) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("json cannot represent %v", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	sb.WriteString(s)
	if !strings.ContainsAny(s, ".eE") {
		sb.WriteString(".0")
	}
	return nil
}

func writeJSONString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if c < 0x20 {
				sb.WriteString(`\u00`)
				sb.WriteByte(hexDigit(c >> 4))
				sb.WriteByte(hexDigit(c & 0xF))
			} else {
				sb.WriteByte(c)
			}
		}
	}
	sb.WriteByte('"')
}

func hexDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'A' + (n - 10)
}
