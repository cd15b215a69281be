package parser

import (
	"testing"

	"veld/internal/ast"
	"veld/internal/diag"
)

func interLit(t *testing.T, src string) *ast.StringInterLit {
	t.Helper()
	e := firstExpr(t, src)
	lit, ok := e.(*ast.StringInterLit)
	if !ok {
		t.Fatalf("parse %q = %T, want *ast.StringInterLit", src, e)
	}
	return lit
}

func TestInterBareName(t *testing.T) {
	lit := interLit(t, "'hello $name!'\n")
	if len(lit.Parts) != 2 || lit.Parts[0] != "hello " || lit.Parts[1] != "!" {
		t.Fatalf("parts = %q", lit.Parts)
	}
	id, ok := lit.Exprs[0].(*ast.Ident)
	if !ok || id.Name != "name" {
		t.Fatalf("expr = %+v", lit.Exprs[0])
	}
	if lit.Specs[0].Precision != ast.PrecisionUnset {
		t.Fatalf("default spec = %+v", lit.Specs[0])
	}
}

func TestInterBracedExpr(t *testing.T) {
	lit := interLit(t, "'sum: ${a + b}'\n")
	inf, ok := lit.Exprs[0].(*ast.InfixExpr)
	if !ok {
		t.Fatalf("slot expr = %T", lit.Exprs[0])
	}
	if _, ok := inf.Left.(*ast.Ident); !ok {
		t.Fatalf("slot left = %T", inf.Left)
	}
}

func TestInterFormatSpec(t *testing.T) {
	lit := interLit(t, "'${v:8.3f}'\n")
	fs := lit.Specs[0]
	if fs.Width != 8 || fs.Precision != 3 || fs.Verb != 'f' {
		t.Fatalf("spec = %+v", fs)
	}

	lit = interLit(t, "'${v:+05d}'\n")
	fs = lit.Specs[0]
	if !fs.PlusSign || fs.Fill != '0' || fs.Width != 5 || fs.Verb != 'd' {
		t.Fatalf("spec = %+v", fs)
	}
}

func TestInterIndexSlot(t *testing.T) {
	lit := interLit(t, "'${m[key]}'\n")
	if _, ok := lit.Exprs[0].(*ast.IndexExpr); !ok {
		t.Fatalf("slot expr = %T", lit.Exprs[0])
	}
	if lit.Specs[0].Verb != 0 {
		t.Fatalf("spec = %+v", lit.Specs[0])
	}
}

func TestInterPlainStringSurvives(t *testing.T) {
	e := firstExpr(t, "'just text'\n")
	if _, ok := e.(*ast.StringLit); !ok {
		t.Fatalf("plain string = %T", e)
	}
	// a '$' that opens no slot stays literal
	e = firstExpr(t, "'price: 5$'\n")
	s, ok := e.(*ast.StringLit)
	if !ok || s.Value != "price: 5$" {
		t.Fatalf("trailing dollar = %+v", e)
	}
}

func TestInterRawStringNeverInterpolates(t *testing.T) {
	e := firstExpr(t, "r'no $subst here'\n")
	s, ok := e.(*ast.StringLit)
	if !ok || !s.IsRaw {
		t.Fatalf("raw string = %+v", e)
	}
}

func TestInterUnclosedSlot(t *testing.T) {
	r := parseSrc(t, "s := '${broken'\n")
	if !hasCode(r.bag, diag.SynBadStringInter) {
		t.Fatal("expected SynBadStringInter for an unclosed slot")
	}
}

func TestInterBadVerb(t *testing.T) {
	r := parseSrc(t, "s := '${v:8z}'\n")
	if !hasCode(r.bag, diag.SynBadStringInter) {
		t.Fatal("expected SynBadStringInter for an unknown format letter")
	}
}

func TestInterFragmentMustConsumeAll(t *testing.T) {
	r := parseSrc(t, "s := '${a b}'\n")
	if !hasCode(r.bag, diag.SynBadStringInter) {
		t.Fatal("expected SynBadStringInter for trailing tokens in a slot")
	}
}
