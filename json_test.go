package nbt

import (
	"errors"
	"math"
	"testing"
)

func TestToJSON(t *testing.T) {
	c := NewCompound().
		Set("z", Byte(1)).
		Set("a", Short(-2)).
		Set("i", Int(3)).
		Set("l", Long(1<<40)).
		Set("f", Float(0.5)).
		Set("d", Double(2)).
		Set("s", String("q\"\\\n\x01é")).
		Set("ba", ByteArray{-1, 2}).
		Set("ia", IntArray{}).
		Set("la", LongArray{7}).
		Set("list", MustList(TagCompound, NewCompound().Set("k", String("v")))).
		Set("empty", MustList(TagEnd))
	got, err := ToJSON(c)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	want := `{"z":1,"a":-2,"i":3,"l":1099511627776,"f":0.5,"d":2.0,"s":"q\"\\\n\u0001é","ba":[-1,2],"ia":[],"la":[7],"list":[{"k":"v"}],"empty":[]}`
	if got != want {
		t.Fatalf("ToJSON\n got %s\nwant %s", got, want)
	}
}

func TestToJSONRejectsNonFinite(t *testing.T) {
	for _, v := range []Tag{Double(math.NaN()), Float(float32(math.Inf(1)))} {
		if _, err := ToJSON(NewCompound().Set("x", v)); err == nil {
			t.Fatalf("expected error for %v", v)
		}
	}
}

func TestFromJSONInference(t *testing.T) {
	input := `{
		"int": 42,
		"big": 4294967296,
		"neg": -2147483649,
		"frac": 1.25,
		"whole": 3.0,
		"flag": true,
		"off": false,
		"name": "Steve",
		"ints": [1, 2, 3],
		"widened": [1, 5000000000],
		"mixed": [1, 2.5],
		"nested": {"x": [[1], ["a"]]},
		"none": []
	}`
	got, err := CompoundFromJSON([]byte(input))
	if err != nil {
		t.Fatalf("CompoundFromJSON: %v", err)
	}
	want := NewCompound().
		Set("int", Int(42)).
		Set("big", Long(4294967296)).
		Set("neg", Long(-2147483649)).
		Set("frac", Double(1.25)).
		Set("whole", Double(3)).
		Set("flag", Byte(1)).
		Set("off", Byte(0)).
		Set("name", String("Steve")).
		Set("ints", MustList(TagInt, Int(1), Int(2), Int(3))).
		Set("widened", MustList(TagLong, Long(1), Long(5000000000))).
		Set("mixed", MustList(TagDouble, Double(1), Double(2.5))).
		Set("nested", NewCompound().Set("x", MustList(TagList,
			MustList(TagInt, Int(1)),
			MustList(TagString, String("a")),
		))).
		Set("none", MustList(TagEnd))
	if !EqualOrdered(got, want) {
		s, _ := ToJSON(got)
		t.Fatalf("CompoundFromJSON mismatch: %s", s)
	}
}

func TestFromJSONStreamFallback(t *testing.T) {
	got, err := fromJSONStream([]byte(`{"b":1,"a":[1.5,2],"c":{"d":"e"}}`))
	if err != nil {
		t.Fatalf("fromJSONStream: %v", err)
	}
	want := NewCompound().
		Set("b", Int(1)).
		Set("a", MustList(TagDouble, Double(1.5), Double(2))).
		Set("c", NewCompound().Set("d", String("e")))
	if !EqualOrdered(got, want) {
		t.Fatalf("fallback parse mismatch")
	}
	if _, err := fromJSONStream([]byte(`{"a":1} {}`)); err == nil {
		t.Fatalf("expected error for trailing value")
	}
}

func TestFromJSONErrors(t *testing.T) {
	cases := []string{
		``,
		`{"a":null}`,
		`{"a":[1,"x"]}`,
		`{"a":[{}, 1]}`,
		`{"a":`,
	}
	for _, in := range cases {
		if _, err := FromJSON([]byte(in)); err == nil {
			t.Fatalf("FromJSON(%q) expected error", in)
		}
	}
	if _, err := FromJSON([]byte(`{"a":null}`)); !errors.Is(err, ErrJSONNull) {
		t.Fatalf("expected ErrJSONNull, got %v", err)
	}
	if _, err := CompoundFromJSON([]byte(`[1,2]`)); err == nil {
		t.Fatalf("CompoundFromJSON accepted an array")
	}
	v, err := FromJSON([]byte(`17`))
	if err != nil || v != Int(17) {
		t.Fatalf("scalar FromJSON = %#v, %v", v, err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	src := NewCompound().
		Set("name", String("world")).
		Set("spawn", MustList(TagInt, Int(0), Int(64), Int(0))).
		Set("time", Long(1<<35)).
		Set("ratio", Double(0.75)).
		Set("rules", NewCompound().Set("doDaylightCycle", Byte(1)))
	s, err := ToJSON(src)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	back, err := CompoundFromJSON([]byte(s))
	if err != nil {
		t.Fatalf("CompoundFromJSON: %v", err)
	}
	// Byte widens to Int through JSON.
	src.Set("rules", NewCompound().Set("doDaylightCycle", Int(1)))
	if !EqualOrdered(back, src) {
		t.Fatalf("JSON round trip mismatch: %s", s)
	}
}
