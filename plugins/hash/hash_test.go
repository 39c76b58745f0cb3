package hash_test

import (
	"testing"

	"github.com/nanolisp/nanolisp/internal/eval"
	"github.com/nanolisp/nanolisp/internal/plugin"
	"github.com/nanolisp/nanolisp/internal/reader"
	"github.com/nanolisp/nanolisp/plugins/hash"
)

func TestSHA256AndBlake2(t *testing.T) {
	root := eval.NewRoot(nil)
	reg := plugin.NewRegistry()
	if err := reg.Register(root, hash.New()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	form, _ := reader.ReadString(`(sha256 "abc")`)
	v, err := eval.Apply(form, root)
	if err != nil {
		t.Fatalf("(sha256 \"abc\"): %v", err)
	}
	s, _ := v.AsString()
	const wantSHA256 = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if s != wantSHA256 {
		t.Fatalf("sha256(\"abc\") = %q, want %q", s, wantSHA256)
	}

	form, _ = reader.ReadString(`(blake2 "abc")`)
	v, err = eval.Apply(form, root)
	if err != nil {
		t.Fatalf("(blake2 \"abc\"): %v", err)
	}
	s, _ = v.AsString()
	if len(s) != 64 {
		t.Fatalf("blake2 digest has unexpected length %d, want 64 hex chars", len(s))
	}
}

func TestHashWrongArityFails(t *testing.T) {
	root := eval.NewRoot(nil)
	reg := plugin.NewRegistry()
	reg.Register(root, hash.New())

	form, _ := reader.ReadString(`(sha256)`)
	if _, err := eval.Apply(form, root); err == nil {
		t.Fatalf("expected (sha256) with no args to fail")
	}
}
