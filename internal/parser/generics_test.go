package parser

import (
	"testing"

	"veld/internal/ast"
	"veld/internal/source"
	"veld/internal/token"
)

// The `name<` disambiguation is the trickiest part of the grammar; every
// heuristic case gets a pinned regression test.

func TestGenericCallSimpleArg(t *testing.T) {
	e := firstExpr(t, "f<int>(x)\n")
	call, ok := e.(*ast.CallExpr)
	if !ok {
		t.Fatalf("f<int>(x) = %T, want *ast.CallExpr", e)
	}
	if len(call.Generics) != 1 {
		t.Fatalf("generics = %d, want 1", len(call.Generics))
	}
	nt, ok := call.Generics[0].(*ast.NamedType)
	if !ok || nt.Name != "int" {
		t.Fatalf("generic arg = %+v", call.Generics[0])
	}
	if len(call.Args) != 1 {
		t.Fatalf("args = %d, want 1", len(call.Args))
	}
}

func TestComparisonStaysComparison(t *testing.T) {
	e := firstExpr(t, "a < b\n")
	cmp, ok := e.(*ast.InfixExpr)
	if !ok || cmp.Op != token.Lt {
		t.Fatalf("a < b = %+v, want Lt comparison", e)
	}
}

func TestGenericCallArrayArg(t *testing.T) {
	e := firstExpr(t, "f<[]int>(x)\n")
	call, ok := e.(*ast.CallExpr)
	if !ok {
		t.Fatalf("f<[]int>(x) = %T, want *ast.CallExpr", e)
	}
	if _, ok := call.Generics[0].(*ast.ArrayType); !ok {
		t.Fatalf("generic arg = %T, want *ast.ArrayType", call.Generics[0])
	}
}

func TestGenericCallMapArg(t *testing.T) {
	e := firstExpr(t, "f<map[string]int>(x)\n")
	call, ok := e.(*ast.CallExpr)
	if !ok {
		t.Fatalf("f<map[string]int>(x) = %T, want *ast.CallExpr", e)
	}
	mt, ok := call.Generics[0].(*ast.MapType)
	if !ok {
		t.Fatalf("generic arg = %T, want *ast.MapType", call.Generics[0])
	}
	if k, ok := mt.Key.(*ast.NamedType); !ok || k.Name != "string" {
		t.Fatalf("map key = %+v", mt.Key)
	}
}

func TestGenericCallRefArg(t *testing.T) {
	e := firstExpr(t, "f<&Foo>(x)\n")
	call, ok := e.(*ast.CallExpr)
	if !ok {
		t.Fatalf("f<&Foo>(x) = %T, want *ast.CallExpr", e)
	}
	if _, ok := call.Generics[0].(*ast.RefType); !ok {
		t.Fatalf("generic arg = %T, want *ast.RefType", call.Generics[0])
	}
}

func TestGenericCallNestedGeneric(t *testing.T) {
	e := firstExpr(t, "f<Foo<int>>(x)\n")
	call, ok := e.(*ast.CallExpr)
	if !ok {
		t.Fatalf("f<Foo<int>>(x) = %T, want *ast.CallExpr", e)
	}
	nt, ok := call.Generics[0].(*ast.NamedType)
	if !ok || nt.Name != "Foo" || len(nt.Generics) != 1 {
		t.Fatalf("generic arg = %+v", call.Generics[0])
	}
}

func TestComparisonInsideGenericFn(t *testing.T) {
	r := parseOK(t, "fn cmp<T>(a int, b int) bool {\n\treturn a < b\n}\n")
	fn := r.file.Decls[0].(*ast.FnDecl)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	cmp, ok := ret.Results[0].(*ast.InfixExpr)
	if !ok || cmp.Op != token.Lt {
		t.Fatalf("return expr = %+v", ret.Results[0])
	}
}

// heuristicAccepts runs the call heuristic on a parser positioned at the
// start of src, which must begin with `name<`.
func heuristicAccepts(t *testing.T, src string) bool {
	t.Helper()
	fset := source.NewFileSet()
	file := fset.Get(fset.AddVirtual("h.vd", []byte(src)))
	p := newParser(fset, file, Options{})
	return p.isGenericCallHeuristic()
}

func TestCallHeuristicCases(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"f<[]int>(x)", true},           // '[' right after '<'
		{"f<map[string]int>(x)", true},  // map type argument
		{"f<int>(x)", true},             // single simple argument
		{"f<Foo<int>>(x)", true},        // nested generic argument
		{"a<b<T>>", false},              // nested type-parameter letter
		{"f<int, string>(x)", true},     // comma after a known type
		{"a<foo, b", false},             // comma after an unknown name
		{"f<&Foo>(x)", true},            // leading '&' is stripped
		{"a<b", false},                  // plain comparison
		{"a<b(c)", false},               // '(' after the second ident
		{"a < 3", false},                // literal operand
	}
	for _, tt := range tests {
		if got := heuristicAccepts(t, tt.src); got != tt.want {
			t.Errorf("heuristic(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestGenericCommaNeedsKnownType(t *testing.T) {
	// `g(a < foo, b)`: foo is not a type, so the '<' is a comparison and
	// the call has two arguments
	e := firstExpr(t, "g(a < foo, b)\n")
	call := e.(*ast.CallExpr)
	if len(call.Args) != 2 {
		t.Fatalf("args = %d, want 2", len(call.Args))
	}
	cmp, ok := call.Args[0].(*ast.InfixExpr)
	if !ok || cmp.Op != token.Lt {
		t.Fatalf("arg 0 = %+v", call.Args[0])
	}

	// `f<int, string>(x)`: int is a known type, so the comma continues a
	// generic argument list
	e = firstExpr(t, "f<int, string>(x)\n")
	gcall, ok := e.(*ast.CallExpr)
	if !ok {
		t.Fatalf("f<int, string>(x) = %T, want *ast.CallExpr", e)
	}
	if len(gcall.Generics) != 2 {
		t.Fatalf("generics = %d, want 2", len(gcall.Generics))
	}
}

func TestGenericCastKnownType(t *testing.T) {
	// a known generic type before '<...>(' is a cast, not a call
	r := parseOK(t, "struct Box { x int }\ny := Box<int>(x)\n")
	as := r.file.Stmts[0].(*ast.AssignStmt)
	c, ok := as.RHS[0].(*ast.CastExpr)
	if !ok {
		t.Fatalf("Box<int>(x) = %T, want *ast.CastExpr", as.RHS[0])
	}
	nt := c.Type.(*ast.NamedType)
	if nt.Name != "Box" || len(nt.Generics) != 1 {
		t.Fatalf("cast type = %+v", nt)
	}
}

func TestGenericCastDeepNesting(t *testing.T) {
	// the forward scan tracks angle depth through nested arguments,
	// including the '>>' token closing two levels at once
	r := parseOK(t, "struct Box { x int }\nstruct Pair { y int }\ny := Box<Pair<int>>(x)\n")
	as := r.file.Stmts[0].(*ast.AssignStmt)
	if _, ok := as.RHS[0].(*ast.CastExpr); !ok {
		t.Fatalf("nested cast = %T, want *ast.CastExpr", as.RHS[0])
	}
}

func TestGenericCastWindowBound(t *testing.T) {
	// a `name<` followed by more type-ish tokens than the scan window
	// never commits to a cast; the expression falls back to comparisons
	src := "x := a < b0.b1.b2.b3.b4.b5.b6.b7.b8.b9.c0.c1.c2.c3.c4\n"
	r := parseSrc(t, src)
	as, ok := r.file.Stmts[0].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("stmt = %T", r.file.Stmts[0])
	}
	cmp, ok := as.RHS[0].(*ast.InfixExpr)
	if !ok || cmp.Op != token.Lt {
		t.Fatalf("rhs = %+v, want Lt comparison", as.RHS[0])
	}
}

func TestLessThanCallArg(t *testing.T) {
	// `a < b(c)` keeps the comparison: '(' after the second ident fails
	// every heuristic case
	e := firstExpr(t, "a < b(c)\n")
	cmp, ok := e.(*ast.InfixExpr)
	if !ok || cmp.Op != token.Lt {
		t.Fatalf("a < b(c) = %+v", e)
	}
	if _, ok := cmp.Right.(*ast.CallExpr); !ok {
		t.Fatalf("right = %T, want call", cmp.Right)
	}
}
