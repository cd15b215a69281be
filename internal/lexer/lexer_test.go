package lexer

import (
	"testing"

	"veld/internal/diag"
	"veld/internal/source"
	"veld/internal/token"
)

func lexAll(t *testing.T, src string) []token.Token {
	t.Helper()
	toks, _ := lexWithBag(t, src)
	return toks
}

func lexWithBag(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fset := source.NewFileSet()
	id := fset.AddVirtual("test.vd", []byte(src))
	bag := diag.NewBag(100)
	lx := New(fset.Get(id), Options{Reporter: diag.BagReporter{Bag: bag}})
	var out []token.Token
	for {
		tok := lx.Next()
		if tok.Kind == token.EOF {
			break
		}
		out = append(out, tok)
		if len(out) > 10000 {
			t.Fatal("lexer did not terminate")
		}
	}
	return out, bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func expectKinds(t *testing.T, src string, want ...token.Kind) {
	t.Helper()
	got := kinds(lexAll(t, src))
	if len(got) != len(want) {
		t.Fatalf("lex %q: got %v, want %v", src, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("lex %q: token %d = %v, want %v", src, i, got[i], want[i])
		}
	}
}

func TestKeywordsAndIdents(t *testing.T) {
	expectKinds(t, "fn main", token.KwFn, token.Ident)
	expectKinds(t, "pub fn", token.KwPub, token.KwFn)
	expectKinds(t, "mutable", token.Ident) // prefix of a keyword is still an ident
	expectKinds(t, "Match", token.Ident)   // keywords are lowercase only
	expectKinds(t, "volatile", token.Ident)
}

func TestNumbers(t *testing.T) {
	expectKinds(t, "0 123 1_000", token.IntLit, token.IntLit, token.IntLit)
	expectKinds(t, "0xFF 0b1010 0o755", token.IntLit, token.IntLit, token.IntLit)
	expectKinds(t, "1.5 1e-3 .5", token.FloatLit, token.FloatLit, token.FloatLit)
	// range after an int is two tokens, not a float
	expectKinds(t, "1..2", token.IntLit, token.DotDot, token.IntLit)
	// method call on an int literal
	expectKinds(t, "1.str", token.IntLit, token.Dot, token.Ident)
}

func TestStrings(t *testing.T) {
	toks := lexAll(t, `'hello' "world" r'raw\n'`)
	if len(toks) != 3 {
		t.Fatalf("got %d tokens", len(toks))
	}
	for i, tok := range toks {
		if tok.Kind != token.StringLit {
			t.Errorf("token %d: %v", i, tok.Kind)
		}
	}
	if toks[0].Text != `'hello'` {
		t.Errorf("Text = %q, keeps quotes", toks[0].Text)
	}
	if toks[2].Text != `r'raw\n'` {
		t.Errorf("raw Text = %q", toks[2].Text)
	}
}

func TestEscapedQuoteInsideString(t *testing.T) {
	toks := lexAll(t, `'it\'s'`)
	if len(toks) != 1 || toks[0].Kind != token.StringLit {
		t.Fatalf("got %v", toks)
	}
}

func TestCharLit(t *testing.T) {
	expectKinds(t, "`a` `\\n`", token.CharLit, token.CharLit)
}

func TestUnterminatedString(t *testing.T) {
	toks, bag := lexWithBag(t, "'oops")
	if len(toks) != 1 || toks[0].Kind != token.Invalid {
		t.Fatalf("got %v", toks)
	}
	if !bag.HasErrors() {
		t.Fatal("no diagnostic reported")
	}
	if bag.Items()[0].Code != diag.LexUnterminatedString {
		t.Fatalf("code = %v", bag.Items()[0].Code)
	}
}

func TestOperatorsGreedy(t *testing.T) {
	expectKinds(t, "a := 1", token.Ident, token.ColonAssign, token.IntLit)
	expectKinds(t, "x <<= 2", token.Ident, token.ShlAssign, token.IntLit)
	expectKinds(t, "x << 2", token.Ident, token.Shl, token.IntLit)
	expectKinds(t, "a <= b", token.Ident, token.LtEq, token.Ident)
	expectKinds(t, "a < b", token.Ident, token.Lt, token.Ident)
	expectKinds(t, "...", token.Ellipsis)
	expectKinds(t, "a...b", token.Ident, token.Ellipsis, token.Ident)
}

func TestCommentsSkipped(t *testing.T) {
	expectKinds(t, "a // comment\nb", token.Ident, token.Ident)
	expectKinds(t, "a /* x /* nested */ y */ b", token.Ident, token.Ident)
}

func TestPeekDoesNotConsume(t *testing.T) {
	fset := source.NewFileSet()
	id := fset.AddVirtual("test.vd", []byte("fn main"))
	lx := New(fset.Get(id), Options{})
	if lx.Peek().Kind != token.KwFn {
		t.Fatal("Peek")
	}
	if lx.Next().Kind != token.KwFn {
		t.Fatal("Next after Peek")
	}
	if lx.Next().Kind != token.Ident {
		t.Fatal("second Next")
	}
	if lx.Next().Kind != token.EOF {
		t.Fatal("EOF")
	}
	// EOF is sticky
	if lx.Next().Kind != token.EOF {
		t.Fatal("EOF repeat")
	}
}

func TestSpans(t *testing.T) {
	toks := lexAll(t, "fn main")
	if toks[0].Span.Start != 0 || toks[0].Span.End != 2 {
		t.Errorf("fn span = %v", toks[0].Span)
	}
	if toks[1].Span.Start != 3 || toks[1].Span.End != 7 {
		t.Errorf("main span = %v", toks[1].Span)
	}
}

func TestUnknownChar(t *testing.T) {
	toks, bag := lexWithBag(t, "\x01")
	if len(toks) != 1 || toks[0].Kind != token.Invalid {
		t.Fatalf("got %v", toks)
	}
	if !bag.HasErrors() {
		t.Fatal("no diagnostic")
	}
}
