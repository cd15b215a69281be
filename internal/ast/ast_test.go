package ast

import (
	"testing"

	"veld/internal/token"
)

func TestFileLangOf(t *testing.T) {
	tests := []struct {
		path string
		want FileLang
	}{
		{"main.vd", LangVeld},
		{"os.c.vd", LangC},
		{"dom.js.vd", LangJS},
		{"startup.amd64.vd", LangAmd64},
		{"startup.arm64.vd", LangArm64},
		{"weird.c.vd.bak", LangVeld},
	}
	for _, tt := range tests {
		if got := FileLangOf(tt.path); got != tt.want {
			t.Errorf("FileLangOf(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestFnDeclFullName(t *testing.T) {
	fn := &FnDecl{Name: "push", Mod: "builtin"}
	if fn.FullName() != "builtin.push" {
		t.Errorf("FullName = %q", fn.FullName())
	}

	method := &FnDecl{
		Name:     "str",
		IsMethod: true,
		Receiver: &Param{Name: "p", Type: &NamedType{Name: "Point"}},
	}
	if method.FullName() != "Point.str" {
		t.Errorf("method FullName = %q", method.FullName())
	}
}

func TestInspectVisitsCallsInOrder(t *testing.T) {
	// fn body: foo(bar(1)) — Inspect must see both calls, outer first.
	inner := &CallExpr{Fun: &Ident{Name: "bar"}, Args: []Expr{&IntLit{Value: "1"}}}
	outer := &CallExpr{Fun: &Ident{Name: "foo"}, Args: []Expr{inner}}
	body := &Block{Stmts: []Stmt{&ExprStmt{X: outer}}}
	fn := &FnDecl{Name: "main", Mod: "main", Body: body}

	var calls []string
	Inspect(fn, func(n Node) bool {
		if c, ok := n.(*CallExpr); ok {
			calls = append(calls, c.Fun.(*Ident).Name)
		}
		return true
	})
	if len(calls) != 2 || calls[0] != "foo" || calls[1] != "bar" {
		t.Errorf("calls = %v", calls)
	}
}

func TestInspectSkipsChildrenOnFalse(t *testing.T) {
	block := &Block{Stmts: []Stmt{
		&ExprStmt{X: &CallExpr{Fun: &Ident{Name: "hidden"}}},
	}}
	seen := 0
	Inspect(block, func(n Node) bool {
		seen++
		return false // stop at the block itself
	})
	if seen != 1 {
		t.Errorf("seen = %d, want 1", seen)
	}
}

func TestPrecisionSentinelDistinctFromZero(t *testing.T) {
	spec := FmtSpec{Precision: PrecisionUnset}
	if spec.Precision == 0 {
		t.Fatal("sentinel must not collide with a legal zero precision")
	}
}

func TestAssignStmtOpKinds(t *testing.T) {
	s := &AssignStmt{Op: token.PlusAssign}
	if !s.Op.IsAssign() {
		t.Error("+= should be an assignment op")
	}
}
