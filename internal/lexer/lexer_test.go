package lexer_test

import (
	"testing"

	"keel/internal/diag"
	"keel/internal/lexer"
	"keel/internal/source"
	"keel/internal/token"
)

func lex(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.kl", []byte(src))
	bag := diag.NewBag(16)
	toks := lexer.Tokenize(fs.Get(id), lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	return toks, bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, tok := range toks {
		out = append(out, tok.Kind)
	}
	return out
}

func TestLexFunctionHeader(t *testing.T) {
	toks, bag := lex(t, "func id[t](x: t): t = x // comment\n")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	want := []token.Kind{
		token.KwFunc, token.Ident, token.LBracket, token.Ident, token.RBracket,
		token.LParen, token.Ident, token.Colon, token.Ident, token.RParen,
		token.Colon, token.Ident, token.Assign, token.Ident, token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexOperators(t *testing.T) {
	toks, _ := lex(t, "=> -> = - + * < | ;")
	want := []token.Kind{
		token.FatArrow, token.Arrow, token.Assign, token.Minus, token.Plus,
		token.Star, token.Lt, token.Pipe, token.Semicolon, token.EOF,
	}
	for i, k := range kinds(toks) {
		if k != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, k, want[i])
		}
	}
}

func TestLexNumbers(t *testing.T) {
	toks, bag := lex(t, "3 4.25 7x")
	if toks[0].Kind != token.Number || toks[0].Text != "3" {
		t.Fatalf("first = %+v", toks[0])
	}
	if toks[1].Kind != token.Number || toks[1].Text != "4.25" {
		t.Fatalf("second = %+v", toks[1])
	}
	if toks[2].Kind != token.Invalid {
		t.Fatalf("third = %+v", toks[2])
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LexBadNumber {
		t.Fatalf("diagnostics = %v", bag.Items())
	}
}

func TestLexUnicodeIdentNormalized(t *testing.T) {
	// "é" составной и предсоставленный
	toks, bag := lex(t, "cafe\u0301 caf\u00e9")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if toks[0].Kind != token.Ident || toks[1].Kind != token.Ident {
		t.Fatalf("kinds = %v", kinds(toks))
	}
	if toks[0].Text != toks[1].Text {
		t.Fatalf("normalization mismatch: %q vs %q", toks[0].Text, toks[1].Text)
	}
}

func TestLexUnknownChar(t *testing.T) {
	toks, bag := lex(t, "a $ b")
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LexUnknownChar {
		t.Fatalf("diagnostics = %v", bag.Items())
	}
	if len(toks) != 3 {
		t.Fatalf("tokens = %v", kinds(toks))
	}
}
