package merge

import (
	"testing"

	nbt "github.com/starfederation/nbt-go"
)

func TestMergeRightBiased(t *testing.T) {
	target := nbt.NewCompound().
		Set("Health", nbt.Float(20)).
		Set("Name", nbt.String("zombie")).
		Set("Attributes", nbt.NewCompound().
			Set("speed", nbt.Double(0.23)).
			Set("armor", nbt.Int(2)))
	patch := nbt.NewCompound().
		Set("Health", nbt.Float(5)).
		Set("Attributes", nbt.NewCompound().
			Set("armor", nbt.Int(10)).
			Set("luck", nbt.Int(1))).
		Set("NoAI", nbt.Bool(true))

	out, err := Merge(target, patch)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	want := nbt.NewCompound().
		Set("Health", nbt.Float(5)).
		Set("Name", nbt.String("zombie")).
		Set("Attributes", nbt.NewCompound().
			Set("speed", nbt.Double(0.23)).
			Set("armor", nbt.Int(10)).
			Set("luck", nbt.Int(1))).
		Set("NoAI", nbt.Byte(1))
	if !nbt.EqualOrdered(out, want) {
		t.Fatalf("merged compound mismatch")
	}
	if v, _ := target.GetFloat("Health"); v != 20 {
		t.Fatalf("target modified: Health = %v", v)
	}
	attrs, _ := target.GetCompound("Attributes")
	if attrs.Has("luck") {
		t.Fatalf("target nested compound modified")
	}
}

func TestMergeReplacesMismatchedTypes(t *testing.T) {
	target := nbt.NewCompound().Set("x", nbt.NewCompound().Set("a", nbt.Int(1)))
	patch := nbt.NewCompound().Set("x", nbt.Int(5))
	out, err := Merge(target, patch)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if v, ok := out.GetInt("x"); !ok || v != 5 {
		t.Fatalf("x = %v, %v", v, ok)
	}

	target = nbt.NewCompound().Set("x", nbt.Int(5))
	patch = nbt.NewCompound().Set("x", nbt.NewCompound().Set("a", nbt.Int(1)))
	out, err = Merge(target, patch)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if _, ok := out.GetCompound("x"); !ok {
		t.Fatalf("x should be a compound")
	}
}

func TestMergeLists(t *testing.T) {
	target := nbt.NewCompound().Set("Tags", nbt.MustList(nbt.TagString, nbt.String("a")))
	patch := nbt.NewCompound().Set("Tags", nbt.MustList(nbt.TagString, nbt.String("b")))

	out, err := Merge(target, patch)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	tags, _ := out.GetList("Tags")
	if tags.Len() != 1 || tags.At(0) != nbt.String("b") {
		t.Fatalf("replace mode produced %d items", tags.Len())
	}

	out, err = MergeWith(target, patch, Options{Lists: ListAppend})
	if err != nil {
		t.Fatalf("MergeWith: %v", err)
	}
	tags, _ = out.GetList("Tags")
	if tags.Len() != 2 || tags.At(1) != nbt.String("b") {
		t.Fatalf("append mode produced %d items", tags.Len())
	}

	mixed := nbt.NewCompound().Set("Tags", nbt.MustList(nbt.TagInt, nbt.Int(1)))
	out, err = MergeWith(target, mixed, Options{Lists: ListAppend})
	if err != nil {
		t.Fatalf("MergeWith: %v", err)
	}
	tags, _ = out.GetList("Tags")
	if tags.ElemType() != nbt.TagInt || tags.Len() != 1 {
		t.Fatalf("mismatched append should replace, got %s x%d", tags.ElemType(), tags.Len())
	}
}

func TestMergeDoesNotAliasPatch(t *testing.T) {
	inner := nbt.NewCompound().Set("v", nbt.Int(1))
	patch := nbt.NewCompound().Set("inner", inner)
	target := nbt.NewCompound()
	if err := Into(target, patch); err != nil {
		t.Fatalf("Into: %v", err)
	}
	inner.Set("v", nbt.Int(2))
	got, _ := target.GetCompound("inner")
	if v, _ := got.GetInt("v"); v != 1 {
		t.Fatalf("target aliases patch: v = %d", v)
	}
}

func TestMergeDepthLimit(t *testing.T) {
	target := nbt.NewCompound()
	patch := nbt.NewCompound()
	tc, pc := target, patch
	for i := 0; i < 4; i++ {
		tn, pn := nbt.NewCompound(), nbt.NewCompound()
		tc.Set("n", tn)
		pc.Set("n", pn)
		tc, pc = tn, pn
	}
	if err := IntoWith(target, patch, Options{MaxDepth: 3}); err == nil {
		t.Fatalf("expected depth error")
	}
	if err := IntoWith(target, patch, Options{MaxDepth: 5}); err != nil {
		t.Fatalf("IntoWith: %v", err)
	}
}

func TestIntoNilTarget(t *testing.T) {
	if err := Into(nil, nbt.NewCompound()); err == nil {
		t.Fatalf("expected error for nil target")
	}
}
