package nbt

import "iter"

// Compound is a name-keyed collection of tags that remembers insertion order.
// Names are unique: setting an existing name replaces its value in place.
// A Compound is not safe for concurrent mutation.
type Compound struct {
	names  []string
	values []Tag
	index  map[string]int
}

// NewCompound returns an empty compound.
func NewCompound() *Compound {
	return &Compound{}
}

// NewCompoundWithCapacity returns an empty compound sized for n members.
func NewCompoundWithCapacity(n int) *Compound {
	if n <= 0 {
		return NewCompound()
	}
	return &Compound{
		names:  make([]string, 0, n),
		values: make([]Tag, 0, n),
		index:  make(map[string]int, n),
	}
}

// Len returns the number of members.
func (c *Compound) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Set stores v under name and returns c for chaining.
func (c *Compound) Set(name string, v Tag) *Compound {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if i, ok := c.index[name]; ok {
		c.values[i] = v
		return c
	}
	c.index[name] = len(c.names)
	c.names = append(c.names, name)
	c.values = append(c.values, v)
	return c
}

// Get returns the member stored under name.
func (c *Compound) Get(name string) (Tag, bool) {
	if c == nil {
		return nil, false
	}
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.values[i], true
}

// Has reports whether name is present.
func (c *Compound) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Delete removes name and reports whether it was present.
func (c *Compound) Delete(name string) bool {
	if c == nil {
		return false
	}
	i, ok := c.index[name]
	if !ok {
		return false
	}
	delete(c.index, name)
	copy(c.names[i:], c.names[i+1:])
	copy(c.values[i:], c.values[i+1:])
	last := len(c.names) - 1
	c.names[last] = ""
	c.values[last] = nil
	c.names = c.names[:last]
	c.values = c.values[:last]
	for j := i; j < len(c.names); j++ {
		c.index[c.names[j]] = j
	}
	return true
}

// Keys returns member names in insertion order.
func (c *Compound) Keys() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// All iterates members in insertion order.
func (c *Compound) All() iter.Seq2[string, Tag] {
	return func(yield func(string, Tag) bool) {
		if c == nil {
			return
		}
		for i, name := range c.names {
			if !yield(name, c.values[i]) {
				return
			}
		}
	}
}

// GetByte returns a Byte member.
func (c *Compound) GetByte(name string) (int8, bool) {
	v, ok := c.Get(name)
	if !ok {
		return 0, false
	}
	b, ok := v.(Byte)
	return int8(b), ok
}

// GetBool returns a Byte member interpreted as a boolean.
func (c *Compound) GetBool(name string) (bool, bool) {
	b, ok := c.GetByte(name)
	return b != 0, ok
}

func (c *Compound) GetShort(name string) (int16, bool) {
	v, ok := c.Get(name)
	if !ok {
		return 0, false
	}
	s, ok := v.(Short)
	return int16(s), ok
}

func (c *Compound) GetInt(name string) (int32, bool) {
	v, ok := c.Get(name)
	if !ok {
		return 0, false
	}
	i, ok := v.(Int)
	return int32(i), ok
}

func (c *Compound) GetLong(name string) (int64, bool) {
	v, ok := c.Get(name)
	if !ok {
		return 0, false
	}
	l, ok := v.(Long)
	return int64(l), ok
}

func (c *Compound) GetFloat(name string) (float32, bool) {
	v, ok := c.Get(name)
	if !ok {
		return 0, false
	}
	f, ok := v.(Float)
	return float32(f), ok
}

func (c *Compound) GetDouble(name string) (float64, bool) {
	v, ok := c.Get(name)
	if !ok {
		return 0, false
	}
	d, ok := v.(Double)
	return float64(d), ok
}

func (c *Compound) GetString(name string) (string, bool) {
	v, ok := c.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(String)
	return string(s), ok
}

func (c *Compound) GetList(name string) (*List, bool) {
	v, ok := c.Get(name)
	if !ok {
		return nil, false
	}
	l, ok := v.(*List)
	return l, ok
}

func (c *Compound) GetCompound(name string) (*Compound, bool) {
	v, ok := c.Get(name)
	if !ok {
		return nil, false
	}
	sub, ok := v.(*Compound)
	return sub, ok
}

func (c *Compound) GetByteArray(name string) (ByteArray, bool) {
	v, ok := c.Get(name)
	if !ok {
		return nil, false
	}
	a, ok := v.(ByteArray)
	return a, ok
}

func (c *Compound) GetIntArray(name string) (IntArray, bool) {
	v, ok := c.Get(name)
	if !ok {
		return nil, false
	}
	a, ok := v.(IntArray)
	return a, ok
}

func (c *Compound) GetLongArray(name string) (LongArray, bool) {
	v, ok := c.Get(name)
	if !ok {
		return nil, false
	}
	a, ok := v.(LongArray)
	return a, ok
}
