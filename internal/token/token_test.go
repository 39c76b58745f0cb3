package token_test

import (
	"testing"

	"github.com/nanolisp/nanolisp/internal/token"
)

func types(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func texts(toks []token.Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Text
	}
	return out
}

func TestTokenizeBasicList(t *testing.T) {
	toks := token.Tokenize("(+ 1 2)")
	wantTypes := []token.Type{token.LParen, token.Atom, token.Atom, token.Atom, token.RParen}
	gotTypes := types(toks)
	if len(gotTypes) != len(wantTypes) {
		t.Fatalf("got %d tokens, want %d: %v", len(gotTypes), len(wantTypes), gotTypes)
	}
	for i := range wantTypes {
		if gotTypes[i] != wantTypes[i] {
			t.Errorf("token %d: got %s, want %s", i, gotTypes[i], wantTypes[i])
		}
	}
	wantTexts := []string{"(", "+", "1", "2", ")"}
	for i, want := range wantTexts {
		if toks[i].Text != want {
			t.Errorf("token %d text: got %q, want %q", i, toks[i].Text, want)
		}
	}
}

func TestTokenizeSkipsWhitespaceAndCommas(t *testing.T) {
	toks := token.Tokenize("(a,  b\t\nc)")
	got := texts(toks)
	want := []string{"(", "a", "b", "c", ")"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTokenizeString(t *testing.T) {
	toks := token.Tokenize(`"hello \"world\""`)
	if len(toks) != 1 {
		t.Fatalf("got %d tokens, want 1: %v", len(toks), toks)
	}
	if toks[0].Type != token.String {
		t.Errorf("got type %s, want String", toks[0].Type)
	}
	if toks[0].Text != `"hello \"world\""` {
		t.Errorf("got text %q", toks[0].Text)
	}
}

func TestTokenizeUnclosedStringStillEmitsOneToken(t *testing.T) {
	toks := token.Tokenize(`"abc`)
	if len(toks) != 1 || toks[0].Type != token.String {
		t.Fatalf("expected a single String token for unclosed literal, got %v", toks)
	}
}

func TestTokenizeComment(t *testing.T) {
	toks := token.Tokenize("1 ; this is a comment\n2")
	got := texts(toks)
	want := []string{"1", "2"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTokenizeTildeAt(t *testing.T) {
	toks := token.Tokenize("~@x")
	if len(toks) != 2 || toks[0].Type != token.TildeAt || toks[1].Type != token.Atom {
		t.Fatalf("got %v", toks)
	}
}

func TestTokenizeLoneTilde(t *testing.T) {
	toks := token.Tokenize("~x")
	if len(toks) != 2 || toks[0].Type != token.Tilde {
		t.Fatalf("got %v", toks)
	}
}

func TestTokenizeNegativeNumberIsOneAtom(t *testing.T) {
	toks := token.Tokenize("-5")
	if len(toks) != 1 || toks[0].Text != "-5" {
		t.Fatalf("got %v", toks)
	}
}

func TestTokenizeEmptyInput(t *testing.T) {
	if toks := token.Tokenize(""); len(toks) != 0 {
		t.Fatalf("expected no tokens, got %v", toks)
	}
	if toks := token.Tokenize("   ,,,  "); len(toks) != 0 {
		t.Fatalf("expected no tokens from whitespace/commas only, got %v", toks)
	}
}

func TestTokenizeLineColumnTracking(t *testing.T) {
	toks := token.Tokenize("a\nb")
	if toks[0].Line != 1 || toks[0].Column != 1 {
		t.Errorf("first token position = %d:%d, want 1:1", toks[0].Line, toks[0].Column)
	}
	if toks[1].Line != 2 || toks[1].Column != 1 {
		t.Errorf("second token position = %d:%d, want 2:1", toks[1].Line, toks[1].Column)
	}
}
