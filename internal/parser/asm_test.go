package parser

import (
	"testing"

	"veld/internal/ast"
	"veld/internal/diag"
	"veld/internal/symbols"
)

// parseAsmBody wraps body in a function with one local and returns the
// asm statement.
func parseAsmBody(t *testing.T, body string) (*ast.AsmStmt, parseResult) {
	t.Helper()
	src := "fn main() {\n\tx := 1\n\tasm amd64 {\n" + body + "\t}\n}\n"
	r := parseSrc(t, src)
	stmts := r.file.Decls[0].(*ast.FnDecl).Body.Stmts
	if len(stmts) < 2 {
		t.Fatalf("body stmts = %d", len(stmts))
	}
	s, ok := stmts[1].(*ast.AsmStmt)
	if !ok {
		t.Fatalf("stmt 1 = %T, want *ast.AsmStmt", stmts[1])
	}
	return s, r
}

func TestAsmTemplates(t *testing.T) {
	s, r := parseAsmBody(t, "\t\tmov rax, 60\n\t\txor rdi, rdi\n\t\tsyscall\n")
	if r.bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", r.bag.Items())
	}
	if s.Arch != "amd64" || s.IsTop {
		t.Fatalf("asm = arch %q top %v", s.Arch, s.IsTop)
	}
	if len(s.Templates) != 3 {
		t.Fatalf("templates = %d, want 3", len(s.Templates))
	}
	mov := s.Templates[0]
	if mov.Name != "mov" || len(mov.Args) != 2 {
		t.Fatalf("mov = %+v", mov)
	}
	if reg, ok := mov.Args[0].(ast.AsmRegister); !ok || reg.Name != "rax" {
		t.Fatalf("mov arg 0 = %+v", mov.Args[0])
	}
	if imm, ok := mov.Args[1].(ast.AsmIntImm); !ok || imm.Value != 60 {
		t.Fatalf("mov arg 1 = %+v", mov.Args[1])
	}
	if sc := s.Templates[2]; sc.Name != "syscall" || len(sc.Args) != 0 {
		t.Fatalf("syscall = %+v", sc)
	}
}

func TestAsmLabelAndDirective(t *testing.T) {
	s, r := parseAsmBody(t, "\t\t.globl\n\t\tstart:\n\t\tjmp start\n")
	if r.bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", r.bag.Items())
	}
	if !s.Templates[0].IsDirective || s.Templates[0].Name != "globl" {
		t.Fatalf("directive = %+v", s.Templates[0])
	}
	if !s.Templates[1].IsLabel || s.Templates[1].Name != "start" {
		t.Fatalf("label = %+v", s.Templates[1])
	}
	jmp := s.Templates[2]
	if a, ok := jmp.Args[0].(ast.AsmAlias); !ok || a.Name != "start" {
		t.Fatalf("jmp target = %+v", jmp.Args[0])
	}
}

func TestAsmAddressingModes(t *testing.T) {
	body := "\t\tmov rax, [100]\n" +
		"\t\tmov rax, [rbp]\n" +
		"\t\tmov rax, [rbp + 8]\n" +
		"\t\tmov rax, [rcx * 4 + 16]\n" +
		"\t\tmov rax, [rbp + rcx * 4 + 8]\n" +
		"\t\tmov rax, [rbp + rcx + 8]\n" +
		"\t\tlea rax, [rip + anchor]\n"
	s, r := parseAsmBody(t, body)
	if r.bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", r.bag.Items())
	}
	want := []ast.AddressingMode{
		ast.AddrDisplacement,
		ast.AddrBase,
		ast.AddrBaseDisp,
		ast.AddrIndexScaleDisp,
		ast.AddrBaseIndexScaleDisp,
		ast.AddrBaseIndexDisp,
		ast.AddrRIPDisp,
	}
	if len(s.Templates) != len(want) {
		t.Fatalf("templates = %d, want %d", len(s.Templates), len(want))
	}
	for i, mode := range want {
		addr, ok := s.Templates[i].Args[1].(*ast.AsmAddressing)
		if !ok {
			t.Fatalf("template %d arg 1 = %T", i, s.Templates[i].Args[1])
		}
		if addr.Mode != mode {
			t.Errorf("template %d mode = %v, want %v", i, addr.Mode, mode)
		}
	}
}

func TestAsmAddressingRejected(t *testing.T) {
	_, r := parseAsmBody(t, "\t\tmov rax, [rbp + rcx]\n")
	if !hasCode(r.bag, diag.SynBadAsmAddressing) {
		t.Fatal("expected SynBadAsmAddressing for [base + index] without displacement")
	}

	_, r = parseAsmBody(t, "\t\tmov rax, [rcx * 3 + 8]\n")
	if !hasCode(r.bag, diag.SynBadAsmAddressing) {
		t.Fatal("expected SynBadAsmAddressing for scale 3")
	}
}

func TestAsmSections(t *testing.T) {
	body := "\t\tadd eax, ebx\n" +
		"\t\t; =r (x) as o\n" +
		"\t\t; r (a) as ia\n" +
		"\t\t  r (b) as ib\n" +
		"\t\t; ecx\n"
	s, r := parseAsmBody(t, body)
	if r.bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", r.bag.Items())
	}
	if len(s.Output) != 1 || s.Output[0].Constraint != "=r" || s.Output[0].Alias != "o" {
		t.Fatalf("outputs = %+v", s.Output)
	}
	if len(s.Input) != 2 || s.Input[1].Alias != "ib" {
		t.Fatalf("inputs = %+v", s.Input)
	}
	if len(s.Clobbered) != 1 || s.Clobbered[0].Reg != "ecx" {
		t.Fatalf("clobbered = %+v", s.Clobbered)
	}
}

func TestAsmOutputConstraintNeedsModifier(t *testing.T) {
	_, r := parseAsmBody(t, "\t\tnop\n\t\t; r (x) as o\n")
	if !hasCode(r.bag, diag.SynBadAsmOperand) {
		t.Fatal("an output constraint without '=' or '+' must error")
	}
}

func TestAsmDetachedScope(t *testing.T) {
	s, r := parseAsmBody(t, "\t\tmov rax, 1\n")
	scope := symbols.ScopeID(s.Scope)

	// the register is an object of the asm scope
	obj, ok := r.tab.Scopes.Lookup(scope, "rax")
	if !ok || obj.Kind != symbols.ObjAsmRegister {
		t.Fatalf("rax lookup = %+v, %v", obj, ok)
	}

	// the enclosing function's local is invisible: no outer capture
	if _, ok := r.tab.Scopes.Lookup(scope, "x"); ok {
		t.Fatal("outer local x must not be visible inside the asm block")
	}
}

func TestAsmVolatileModifier(t *testing.T) {
	s, r := parseAsmBody(t, "\t\tnop\n")
	if s.IsVolatile {
		t.Fatal("plain block marked volatile")
	}
	_ = r

	src := "fn main() {\n\tasm volatile amd64 {\n\t\tnop\n\t}\n}\n"
	pr := parseOK(t, src)
	vs := pr.file.Decls[0].(*ast.FnDecl).Body.Stmts[0].(*ast.AsmStmt)
	if !vs.IsVolatile {
		t.Fatal("volatile modifier not recorded")
	}
}

func TestAsmTopLevel(t *testing.T) {
	r := parseSrc(t, "asm amd64 {\n\tnop\n}\n")
	s, ok := r.file.Stmts[0].(*ast.AsmStmt)
	if !ok {
		t.Fatalf("stmt = %T", r.file.Stmts[0])
	}
	if !s.IsTop {
		t.Fatal("file-level block not marked top")
	}
	if !hasCode(r.bag, diag.StyleImpureInPure) {
		t.Fatal("expected the impure-block style warning in a plain file")
	}

	r = parseSrc(t, "asm amd64 {\n\tnop\n\t; =r (x) as o\n}\n")
	if !hasCode(r.bag, diag.SynBadAsmTemplate) {
		t.Fatal("top-level blocks must reject extended sections")
	}
}
