package nbt

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestTagRegistry(t *testing.T) {
	cases := []struct {
		typ   TagType
		id    uint8
		name  string
		width int
		fixed bool
	}{
		{TagEnd, 0, "TAG_End", 0, true},
		{TagByte, 1, "TAG_Byte", 1, true},
		{TagShort, 2, "TAG_Short", 2, true},
		{TagInt, 3, "TAG_Int", 4, true},
		{TagLong, 4, "TAG_Long", 8, true},
		{TagFloat, 5, "TAG_Float", 4, true},
		{TagDouble, 6, "TAG_Double", 8, true},
		{TagByteArray, 7, "TAG_Byte_Array", 0, false},
		{TagString, 8, "TAG_String", 0, false},
		{TagList, 9, "TAG_List", 0, false},
		{TagCompound, 10, "TAG_Compound", 0, false},
		{TagIntArray, 11, "TAG_Int_Array", 0, false},
		{TagLongArray, 12, "TAG_Long_Array", 0, false},
	}
	for _, tc := range cases {
		if uint8(tc.typ) != tc.id {
			t.Fatalf("%s id = %d, want %d", tc.name, uint8(tc.typ), tc.id)
		}
		if !tc.typ.Valid() || tc.typ.String() != tc.name || NameOf(tc.typ) != tc.name {
			t.Fatalf("name of %d = %q", tc.id, tc.typ.String())
		}
		w, fixed := WidthOf(tc.typ)
		if fixed != tc.fixed || (fixed && w != tc.width) {
			t.Fatalf("%s width = %d, %v", tc.name, w, fixed)
		}
	}
	if TagType(13).Valid() {
		t.Fatalf("13 should be invalid")
	}
	if got := TagType(200).String(); got != "TAG_Unknown(200)" {
		t.Fatalf("unknown name = %q", got)
	}
	if e, ok := ElemOf(TagIntArray); !ok || e != TagInt {
		t.Fatalf("ElemOf(IntArray) = %s, %v", e, ok)
	}
	if _, ok := ElemOf(TagList); ok {
		t.Fatalf("ElemOf(List) should be unknown")
	}
	if !IsContainer(TagList) || !IsContainer(TagCompound) || IsContainer(TagIntArray) {
		t.Fatalf("IsContainer classification wrong")
	}
}

func TestCompoundOrderAndOverwrite(t *testing.T) {
	c := NewCompound().Set("b", Int(1)).Set("a", Int(2)).Set("c", Int(3))
	c.Set("a", Int(20))
	if got := c.Keys(); !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Fatalf("Keys = %v", got)
	}
	if v, _ := c.GetInt("a"); v != 20 {
		t.Fatalf("a = %d", v)
	}
	if !c.Delete("b") || c.Delete("b") {
		t.Fatalf("Delete semantics wrong")
	}
	if got := c.Keys(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("Keys after delete = %v", got)
	}
	if v, ok := c.GetInt("c"); !ok || v != 3 {
		t.Fatalf("c after delete = %d, %v", v, ok)
	}
	if _, ok := c.GetString("a"); ok {
		t.Fatalf("typed getter ignored type")
	}
	var names []string
	for name := range c.All() {
		names = append(names, name)
	}
	if !reflect.DeepEqual(names, []string{"a", "c"}) {
		t.Fatalf("All = %v", names)
	}
	var nilC *Compound
	if nilC.Len() != 0 || nilC.Has("x") {
		t.Fatalf("nil compound should read as empty")
	}
}

func TestCompoundTypedGetters(t *testing.T) {
	c := NewCompound().
		Set("b", Bool(true)).
		Set("s", Short(-2)).
		Set("l", Long(1<<40)).
		Set("f", Float(1.5)).
		Set("d", Double(2.5)).
		Set("ba", ByteArrayFromBytes([]byte{0xff, 1})).
		Set("ia", IntArray{1}).
		Set("la", LongArray{2}).
		Set("list", MustList(TagByte)).
		Set("c", NewCompound())
	if v, ok := c.GetBool("b"); !ok || !v {
		t.Fatalf("GetBool")
	}
	if v, ok := c.GetByte("b"); !ok || v != 1 {
		t.Fatalf("GetByte")
	}
	if v, ok := c.GetShort("s"); !ok || v != -2 {
		t.Fatalf("GetShort")
	}
	if v, ok := c.GetLong("l"); !ok || v != 1<<40 {
		t.Fatalf("GetLong")
	}
	if v, ok := c.GetFloat("f"); !ok || v != 1.5 {
		t.Fatalf("GetFloat")
	}
	if v, ok := c.GetDouble("d"); !ok || v != 2.5 {
		t.Fatalf("GetDouble")
	}
	if v, ok := c.GetByteArray("ba"); !ok || v[0] != -1 || string(v.Bytes()) != "\xff\x01" {
		t.Fatalf("GetByteArray = %v", v)
	}
	if v, ok := c.GetIntArray("ia"); !ok || v[0] != 1 {
		t.Fatalf("GetIntArray")
	}
	if v, ok := c.GetLongArray("la"); !ok || v[0] != 2 {
		t.Fatalf("GetLongArray")
	}
	if _, ok := c.GetList("list"); !ok {
		t.Fatalf("GetList")
	}
	if _, ok := c.GetCompound("c"); !ok {
		t.Fatalf("GetCompound")
	}
}

func TestListHomogeneity(t *testing.T) {
	l, err := NewList(TagEnd)
	if err != nil {
		t.Fatalf("NewList: %v", err)
	}
	if err := l.Append(Int(1)); err != nil {
		t.Fatalf("Append to empty End list: %v", err)
	}
	if l.ElemType() != TagInt {
		t.Fatalf("empty list did not adopt element type: %s", l.ElemType())
	}
	if err := l.Append(String("x")); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if err := l.Set(0, Long(1)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Set wrong type: %v", err)
	}
	if err := l.Set(5, Int(1)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Set out of range: %v", err)
	}
	if _, err := NewList(TagShort, Short(1), Int(2)); err == nil {
		t.Fatalf("NewList accepted mixed items")
	}
	if _, err := NewList(TagType(99)); err == nil {
		t.Fatalf("NewList accepted unknown type")
	}
	if err := l.Remove(0); err != nil || l.Len() != 0 {
		t.Fatalf("Remove: %v, len %d", err, l.Len())
	}
	if err := l.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	l.items = append(l.items, Byte(1))
	if err := l.Validate(); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Validate should catch mixed items, got %v", err)
	}
}

func TestEqualityPolicy(t *testing.T) {
	ab := NewCompound().Set("a", Int(1)).Set("b", Int(2))
	ba := NewCompound().Set("b", Int(2)).Set("a", Int(1))
	if !Equal(ab, ba) {
		t.Fatalf("Equal should ignore member order")
	}
	if EqualOrdered(ab, ba) {
		t.Fatalf("EqualOrdered should respect member order")
	}
	if Equal(Int(1), Long(1)) {
		t.Fatalf("different variants must not be equal")
	}
	if !Equal(Double(math.NaN()), Double(math.NaN())) {
		t.Fatalf("NaN with identical bits should be equal")
	}
	if Equal(Double(0), Double(math.Copysign(0, -1))) {
		t.Fatalf("+0 and -0 differ bitwise")
	}
	if !Equal(MustList(TagInt), MustList(TagEnd)) {
		t.Fatalf("empty lists should be equal whatever their declared type")
	}
	if Equal(MustList(TagInt, Int(1)), MustList(TagInt, Int(2))) {
		t.Fatalf("lists with different items compared equal")
	}
	if Equal(IntArray{1, 2}, IntArray{2, 1}) {
		t.Fatalf("array order matters")
	}
	if !Equal(nil, nil) || Equal(Int(0), nil) {
		t.Fatalf("nil handling wrong")
	}
}

func TestCloneIsDeep(t *testing.T) {
	src := sampleRoot().Compound
	dup := CloneCompound(src)
	if !EqualOrdered(src, dup) {
		t.Fatalf("clone differs")
	}
	child, _ := dup.GetCompound("child")
	child.Set("extra", Int(1))
	ints, _ := dup.GetIntArray("ints")
	ints[0] = 42
	list, _ := dup.GetList("list")
	if err := list.Append(Short(9)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	origChild, _ := src.GetCompound("child")
	if origChild.Has("extra") {
		t.Fatalf("clone shares compound storage")
	}
	if origInts, _ := src.GetIntArray("ints"); origInts[0] == 42 {
		t.Fatalf("clone shares array storage")
	}
	if origList, _ := src.GetList("list"); origList.Len() != 3 {
		t.Fatalf("clone shares list storage")
	}
	if Clone(nil) != nil {
		t.Fatalf("Clone(nil) != nil")
	}
}

func TestValueHelpers(t *testing.T) {
	if v, ok := AsInt64(Short(-5)); !ok || v != -5 {
		t.Fatalf("AsInt64(Short)")
	}
	if v, ok := AsInt64(String(" 12 ")); !ok || v != 12 {
		t.Fatalf("AsInt64(String) = %d, %v", v, ok)
	}
	if _, ok := AsInt64(Double(math.Inf(1))); ok {
		t.Fatalf("AsInt64(Inf) should fail")
	}
	if v, ok := AsFloat64(Int(3)); !ok || v != 3 {
		t.Fatalf("AsFloat64(Int)")
	}
	if v, ok := AsString(Float(0.5)); !ok || v != "0.5" {
		t.Fatalf("AsString(Float) = %q", v)
	}
	if _, ok := AsString(IntArray{}); ok {
		t.Fatalf("AsString(IntArray) should fail")
	}
	got := ToAny(NewCompound().
		Set("n", Byte(1)).
		Set("l", MustList(TagString, String("a"))).
		Set("a", ByteArray{-1}))
	want := map[string]any{
		"n": int64(1),
		"l": []any{"a"},
		"a": []int64{-1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ToAny = %#v", got)
	}
}

func TestErrorFormatting(t *testing.T) {
	_, err := Unmarshal([]byte{0x08})
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if e.Kind != KindMalformed || e.Offset != 0 {
		t.Fatalf("kind %s offset %d", e.Kind, e.Offset)
	}
	if KindOf(err) != KindMalformed || KindOf(errors.New("x")) != KindUnknown {
		t.Fatalf("KindOf wrong")
	}
	want := "nbt: malformed at offset 0: root tag must be TAG_Compound, got TAG_String"
	if err.Error() != want {
		t.Fatalf("Error() = %q", err.Error())
	}
	if errors.Is(err, ErrTruncated) {
		t.Fatalf("malformed error matched ErrTruncated")
	}
}

func TestModeParsing(t *testing.T) {
	for _, m := range []Mode{ModeFile, ModeNetwork} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Fatalf("ParseMode(%q) = %s, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("bedrock"); err == nil {
		t.Fatalf("expected error")
	}
}
