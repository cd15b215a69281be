package diagfmt

import (
	"strings"
	"testing"

	"veld/internal/diag"
	"veld/internal/lexer"
	"veld/internal/parser"
	"veld/internal/pref"
	"veld/internal/source"
	"veld/internal/token"
)

func virtualFile(t *testing.T, src string) (*source.FileSet, source.FileID) {
	t.Helper()
	fset := source.NewFileSet()
	id := fset.AddVirtual("test.vd", []byte(src))
	return fset, id
}

func TestPrettyHeaderAndUnderline(t *testing.T) {
	fset, id := virtualFile(t, "fn main() {\n\toops\n}\n")

	bag := diag.NewBag(10)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.SynUnexpectedToken,
		Message:  "unexpected token",
		Primary:  source.Span{File: id, Start: 13, End: 17},
	})

	var out strings.Builder
	Pretty(&out, bag, fset, PrettyOpts{})
	got := out.String()

	if !strings.Contains(got, "test.vd:2:2: ERROR SYN2001: unexpected token") {
		t.Fatalf("missing header line:\n%s", got)
	}
	if !strings.Contains(got, "^~~~") {
		t.Fatalf("missing span underline:\n%s", got)
	}
}

func TestPrettyNotesToggle(t *testing.T) {
	fset, id := virtualFile(t, "x := 1\n")

	d := diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.StyleConstUpper,
		Message:  "style",
		Primary:  source.Span{File: id, Start: 0, End: 1},
	}
	d = d.WithNote(source.Span{File: id, Start: 5, End: 6}, "declared here")

	bag := diag.NewBag(10)
	bag.Add(d)

	var withNotes, without strings.Builder
	Pretty(&withNotes, bag, fset, PrettyOpts{ShowNotes: true})
	Pretty(&without, bag, fset, PrettyOpts{ShowNotes: false})

	if !strings.Contains(withNotes.String(), "declared here") {
		t.Fatal("notes requested but not printed")
	}
	if strings.Contains(without.String(), "declared here") {
		t.Fatal("notes printed despite ShowNotes=false")
	}
}

func TestTokensPrettyEndsAtEOF(t *testing.T) {
	fset, id := virtualFile(t, "x := 1\n")
	lx := lexer.New(fset.Get(id), lexer.Options{Reporter: diag.NopReporter{}})

	var tokens []token.Token
	for {
		tok := lx.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}

	var out strings.Builder
	if err := FormatTokensPretty(&out, tokens, fset); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if !strings.Contains(got, "\"x\"") {
		t.Fatalf("identifier text missing:\n%s", got)
	}
	if !strings.Contains(got, token.EOF.String()) {
		t.Fatalf("EOF marker missing:\n%s", got)
	}
}

func TestTokensJSONIsArray(t *testing.T) {
	fset, id := virtualFile(t, "1\n")
	lx := lexer.New(fset.Get(id), lexer.Options{Reporter: diag.NopReporter{}})

	var tokens []token.Token
	for {
		tok := lx.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}

	var out strings.Builder
	if err := FormatTokensJSON(&out, tokens); err != nil {
		t.Fatal(err)
	}
	got := strings.TrimSpace(out.String())
	if !strings.HasPrefix(got, "[") || !strings.HasSuffix(got, "]") {
		t.Fatalf("want JSON array, got:\n%s", got)
	}
}

func TestJSONDiagnostics(t *testing.T) {
	fset, id := virtualFile(t, "fn main() {}\n")
	bag := diag.NewBag(10)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.SynExpectExpression,
		Message:  "expected expression",
		Primary:  source.Span{File: id, Start: 0, End: 2},
	})

	var out strings.Builder
	if err := JSON(&out, bag, fset, JSONOpts{}); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{`"severity": "ERROR"`, `"code": "SYN2004"`, `"line": 1`} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %s in:\n%s", want, got)
		}
	}
}

func TestFileSummary(t *testing.T) {
	fset, id := virtualFile(t, "fn add(a int, b int) int {\n\treturn a + b\n}\nstruct Point {\n\tx int\n\ty int\n}\n")
	bag := diag.NewBag(10)
	file, err := parser.ParseFile(fset, id, parser.Options{
		Prefs:    pref.Default(),
		Reporter: diag.BagReporter{Bag: bag},
	})
	if err != nil {
		t.Fatal(err)
	}
	if bag.HasErrors() {
		t.Fatalf("parse errors: %v", bag.Items())
	}

	var out strings.Builder
	FormatFileSummary(&out, file)
	got := out.String()
	for _, want := range []string{"module main", "fn add(a, b) -> ...", "struct Point { 2 field(s) }"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
}
