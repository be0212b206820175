package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	nbt "github.com/starfederation/nbt-go"
)

func newTestContext(out io.Writer) *runContext {
	return &runContext{
		cfg:    defaultConfig(),
		logger: zerolog.Nop(),
		out:    out,
	}
}

func writeSample(t *testing.T, dir string) string {
	t.Helper()
	root := nbt.NewRoot("hello world", nbt.NewCompound().
		Set("name", nbt.String("Bananrama")).
		Set("scores", nbt.MustList(nbt.TagInt, nbt.Int(3), nbt.Int(5))))
	p := filepath.Join(dir, "sample.dat")
	if err := nbt.WriteFile(p, root, nbt.WriteOptions{Compression: nbt.CompressionGzip}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func TestDumpCmd(t *testing.T) {
	dir := t.TempDir()
	in := writeSample(t, dir)
	var out bytes.Buffer
	cmd := dumpCmd{File: in, WithName: true}
	if err := cmd.Run(newTestContext(&out)); err != nil {
		t.Fatalf("dump: %v", err)
	}
	want := `{"name":"hello world","value":{"name":"Bananrama","scores":[3,5]}}` + "\n"
	if out.String() != want {
		t.Fatalf("dump = %q, want %q", out.String(), want)
	}
}

func TestGetCmd(t *testing.T) {
	dir := t.TempDir()
	in := writeSample(t, dir)
	var out bytes.Buffer
	cmd := getCmd{File: in, Path: "scores[]"}
	if err := cmd.Run(newTestContext(&out)); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.String() != "3\n5\n" {
		t.Fatalf("get = %q", out.String())
	}
	cmd = getCmd{File: in, Path: "missing"}
	if err := cmd.Run(newTestContext(io.Discard)); err == nil {
		t.Fatalf("expected error for missing path")
	}
}

func TestConvertAndCheck(t *testing.T) {
	dir := t.TempDir()
	in := writeSample(t, dir)
	out := filepath.Join(dir, "converted.dat")
	conv := convertCmd{In: in, Out: out, Compression: "lz4"}
	if err := conv.Run(newTestContext(io.Discard)); err != nil {
		t.Fatalf("convert: %v", err)
	}
	got, comp, err := nbt.ReadFile(out, nbt.DecodeOptions{})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if comp != nbt.CompressionLZ4 {
		t.Fatalf("compression = %s", comp)
	}
	want, _, _ := nbt.ReadFile(in, nbt.DecodeOptions{})
	if !got.Equal(want) {
		t.Fatalf("converted root differs")
	}

	bad := filepath.Join(dir, "bad.dat")
	if err := os.WriteFile(bad, []byte{0x0A, 0x00}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	check := checkCmd{Files: []string{in, out}}
	if err := check.Run(newTestContext(io.Discard)); err != nil {
		t.Fatalf("check: %v", err)
	}
	check = checkCmd{Files: []string{in, bad}}
	if err := check.Run(newTestContext(io.Discard)); err == nil {
		t.Fatalf("expected check to fail")
	}
}

func TestBuildAndMerge(t *testing.T) {
	dir := t.TempDir()
	jsonIn := filepath.Join(dir, "in.json")
	if err := os.WriteFile(jsonIn, []byte(`{"level":{"spawn":[0,64,0],"name":"world"}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	built := filepath.Join(dir, "level.dat")
	build := buildCmd{In: jsonIn, Out: built, Name: "Data", Compression: "none"}
	if err := build.Run(newTestContext(io.Discard)); err != nil {
		t.Fatalf("build: %v", err)
	}
	root, comp, err := nbt.ReadFile(built, nbt.DecodeOptions{})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if comp != nbt.CompressionNone || root.Name != "Data" {
		t.Fatalf("root %q compression %s", root.Name, comp)
	}

	patch := filepath.Join(dir, "patch.json")
	if err := os.WriteFile(patch, []byte(`{"level":{"name":"renamed","hardcore":true}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	merged := filepath.Join(dir, "merged.dat")
	m := mergeCmd{Target: built, Patch: patch, Out: merged}
	if err := m.Run(newTestContext(io.Discard)); err != nil {
		t.Fatalf("merge: %v", err)
	}
	var out bytes.Buffer
	dump := dumpCmd{File: merged}
	if err := dump.Run(newTestContext(&out)); err != nil {
		t.Fatalf("dump: %v", err)
	}
	want := `{"level":{"spawn":[0,64,0],"name":"renamed","hardcore":1}}`
	if strings.TrimSpace(out.String()) != want {
		t.Fatalf("merged = %s, want %s", out.String(), want)
	}
}

func TestPatchCmd(t *testing.T) {
	dir := t.TempDir()
	in := writeSample(t, dir)
	ops := filepath.Join(dir, "ops.json")
	doc := `[
		{"op":"replace","path":"/name","value":"Steve"},
		{"op":"add","path":"/scores/-","value":8},
		{"op":"remove","path":"/scores/0"}
	]`
	if err := os.WriteFile(ops, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	patched := filepath.Join(dir, "patched.dat")
	cmd := patchCmd{File: in, Patch: ops, Out: patched}
	if err := cmd.Run(newTestContext(io.Discard)); err != nil {
		t.Fatalf("patch: %v", err)
	}
	var out bytes.Buffer
	dump := dumpCmd{File: patched, WithName: true}
	if err := dump.Run(newTestContext(&out)); err != nil {
		t.Fatalf("dump: %v", err)
	}
	want := `{"name":"hello world","value":{"name":"Steve","scores":[5,8]}}`
	if strings.TrimSpace(out.String()) != want {
		t.Fatalf("patched = %s, want %s", out.String(), want)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`[{"op":"remove","path":"/nope"}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cmd = patchCmd{File: in, Patch: bad, Out: filepath.Join(dir, "never.dat")}
	if err := cmd.Run(newTestContext(io.Discard)); err == nil {
		t.Fatalf("expected patch failure")
	}
}
