package parser

import (
	"testing"

	"veld/internal/ast"
	"veld/internal/diag"
	"veld/internal/pref"
	"veld/internal/source"
	"veld/internal/symbols"
	"veld/internal/token"
)

type parseResult struct {
	file *ast.File
	bag  *diag.Bag
	tab  *symbols.Table
}

func parseSrc(t *testing.T, src string) parseResult {
	t.Helper()
	return parseWith(t, src, pref.CheckOnly())
}

func parseWith(t *testing.T, src string, prefs *pref.Preferences) parseResult {
	t.Helper()
	fset := source.NewFileSet()
	bag := diag.NewBag(200)
	tab := symbols.NewTable()
	f, err := ParseText(fset, "test.vd", []byte(src), Options{
		Prefs:    prefs,
		Table:    tab,
		Reporter: diag.BagReporter{Bag: bag},
	})
	if err != nil && !prefs.FatalErrors {
		t.Fatalf("parse %q: %v", src, err)
	}
	if f == nil {
		t.Fatalf("parse %q: nil file", src)
	}
	return parseResult{file: f, bag: bag, tab: tab}
}

func parseOK(t *testing.T, src string) parseResult {
	t.Helper()
	r := parseSrc(t, src)
	if r.bag.HasErrors() {
		t.Fatalf("parse %q: unexpected errors: %+v", src, r.bag.Items())
	}
	return r
}

// firstExpr parses a script-style top-level expression statement.
func firstExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	r := parseOK(t, src)
	if len(r.file.Stmts) == 0 {
		t.Fatalf("parse %q: no statements", src)
	}
	es, ok := r.file.Stmts[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("parse %q: first stmt is %T, want *ast.ExprStmt", src, r.file.Stmts[0])
	}
	return es.X
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestModuleClauseAndImports(t *testing.T) {
	r := parseOK(t, "module mymod\nimport os\nimport net.http as web\n")
	if r.file.Module != "mymod" {
		t.Fatalf("module = %q, want mymod", r.file.Module)
	}
	if len(r.file.Imports) != 2 {
		t.Fatalf("imports = %d, want 2", len(r.file.Imports))
	}
	if r.file.Imports[1].Path != "net.http" || r.file.Imports[1].Alias != "web" {
		t.Fatalf("second import = %+v", r.file.Imports[1])
	}
}

func TestConstDeclBlock(t *testing.T) {
	r := parseOK(t, "const (\n\tmax_users = 100\n\tgreeting = 'hi'\n)\n")
	d, ok := r.file.Decls[0].(*ast.ConstDecl)
	if !ok {
		t.Fatalf("decl is %T", r.file.Decls[0])
	}
	if len(d.Fields) != 2 || d.Fields[0].Name != "max_users" {
		t.Fatalf("fields = %+v", d.Fields)
	}
}

func TestConstUpperCaseWarning(t *testing.T) {
	r := parseSrc(t, "const MAX = 10\n")
	if !hasCode(r.bag, diag.StyleConstUpper) {
		t.Fatal("expected a StyleConstUpper warning for an ALL_CAPS const")
	}
	if r.bag.HasErrors() {
		t.Fatal("the naming style warning must not be an error")
	}
}

func TestConstCollision(t *testing.T) {
	r := parseSrc(t, "const x = 1\nconst x = 2\n")
	if !hasCode(r.bag, diag.RegConstCollision) {
		t.Fatal("expected RegConstCollision for a duplicate const")
	}
}

func TestFnDecl(t *testing.T) {
	r := parseOK(t, "fn add(a int, b int) int {\n\treturn a + b\n}\n")
	fn, ok := r.file.Decls[0].(*ast.FnDecl)
	if !ok {
		t.Fatalf("decl is %T", r.file.Decls[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 || fn.RetType == nil || fn.Body == nil {
		t.Fatalf("fn = %+v", fn)
	}
	if fn.Params[0].Name != "a" {
		t.Fatalf("param 0 = %+v", fn.Params[0])
	}
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("body stmts = %d", len(fn.Body.Stmts))
	}
	if _, ok := r.tab.FindFn("main.add"); !ok {
		t.Fatal("fn add not registered")
	}
}

func TestMethodDecl(t *testing.T) {
	r := parseOK(t, "struct Point { x int }\nfn (p Point) norm() int {\n\treturn p.x\n}\n")
	fn := r.file.Decls[1].(*ast.FnDecl)
	if !fn.IsMethod || fn.Receiver == nil || fn.Receiver.Name != "p" {
		t.Fatalf("method = %+v", fn)
	}
	if fn.FullName() != "Point.norm" {
		t.Fatalf("FullName = %q", fn.FullName())
	}
}

func TestFnWithoutBody(t *testing.T) {
	r := parseSrc(t, "fn missing()\n")
	if !hasCode(r.bag, diag.SynBadFnSignature) {
		t.Fatal("expected an error for a bodyless function")
	}
}

func TestGenericFnDecl(t *testing.T) {
	r := parseOK(t, "fn pick<T, U>(a T, b U) T {\n\treturn a\n}\n")
	fn := r.file.Decls[0].(*ast.FnDecl)
	if len(fn.Generics) != 2 || fn.Generics[0] != "T" || fn.Generics[1] != "U" {
		t.Fatalf("generics = %v", fn.Generics)
	}
}

func TestStructDeclSections(t *testing.T) {
	r := parseOK(t, "struct Conn {\n\tfd int\nmut:\n\tbusy bool\npub:\n\taddr string\n}\n")
	d := r.file.Decls[0].(*ast.StructDecl)
	if len(d.Fields) != 3 {
		t.Fatalf("fields = %d", len(d.Fields))
	}
	if d.Fields[0].IsMut || d.Fields[0].IsPub {
		t.Fatalf("field fd = %+v", d.Fields[0])
	}
	if !d.Fields[1].IsMut {
		t.Fatalf("field busy should be in the mut section: %+v", d.Fields[1])
	}
	if !d.Fields[2].IsPub {
		t.Fatalf("field addr should be in the pub section: %+v", d.Fields[2])
	}
	if _, ok := r.tab.Find("Conn"); !ok {
		t.Fatal("struct Conn not registered")
	}
}

func TestStructFieldDefault(t *testing.T) {
	r := parseOK(t, "struct Opts {\n\tretries int = 3\n}\n")
	d := r.file.Decls[0].(*ast.StructDecl)
	if d.Fields[0].Default == nil {
		t.Fatal("expected a default value expression")
	}
}

func TestStructCollision(t *testing.T) {
	r := parseSrc(t, "struct A { x int }\nstruct A { y int }\n")
	if !hasCode(r.bag, diag.RegTypeCollision) {
		t.Fatal("expected RegTypeCollision for a duplicate struct")
	}
}

func TestEnumDecl(t *testing.T) {
	r := parseOK(t, "enum Color {\n\tred\n\tgreen = 10\n\tblue\n}\n")
	d := r.file.Decls[0].(*ast.EnumDecl)
	if len(d.Variants) != 3 || d.Variants[1].Name != "green" || d.Variants[1].Value == nil {
		t.Fatalf("variants = %+v", d.Variants)
	}
}

func TestTypeAliasAndSum(t *testing.T) {
	r := parseOK(t, "type Byte = u8\ntype Num = int | f64\n")
	alias := r.file.Decls[0].(*ast.TypeDecl)
	if alias.Kind != ast.TypeAlias {
		t.Fatalf("first decl kind = %v", alias.Kind)
	}
	sum := r.file.Decls[1].(*ast.TypeDecl)
	if sum.Kind != ast.TypeSum || len(sum.Variants) != 2 {
		t.Fatalf("sum = %+v", sum)
	}
}

func TestSelfAliasRejected(t *testing.T) {
	r := parseSrc(t, "type Loop = Loop\n")
	if !hasCode(r.bag, diag.RegSelfAlias) {
		t.Fatal("expected RegSelfAlias")
	}
}

func TestGlobalRequiresFlag(t *testing.T) {
	r := parseSrc(t, "global ( counter int )\n")
	if !hasCode(r.bag, diag.RegGlobalNotAllowed) {
		t.Fatal("expected RegGlobalNotAllowed without the enable flag")
	}

	prefs := pref.CheckOnly()
	prefs.EnableGlobals = true
	r = parseWith(t, "global ( counter int )\n", prefs)
	if r.bag.HasErrors() {
		t.Fatalf("globals enabled, still got errors: %+v", r.bag.Items())
	}
}

func TestInterfaceDecl(t *testing.T) {
	r := parseOK(t, "interface Speaker {\n\tspeak() string\n}\n")
	d := r.file.Decls[0].(*ast.InterfaceDecl)
	if d.Name != "Speaker" || len(d.Methods) != 1 || d.Methods[0].Name != "speak" {
		t.Fatalf("interface = %+v", d)
	}
}

func TestForLoops(t *testing.T) {
	r := parseOK(t, `fn main() {
	for {
		break
	}
	for i < 10 {
		continue
	}
	for x in items {
	}
	for k, v in table {
	}
	for i := 0; i < 5; i += 1 {
	}
}
`)
	body := r.file.Decls[0].(*ast.FnDecl).Body.Stmts
	if len(body) != 5 {
		t.Fatalf("body stmts = %d, want 5", len(body))
	}
	if s := body[0].(*ast.ForStmt); s.Cond != nil {
		t.Fatal("bare loop must have nil cond")
	}
	if s := body[1].(*ast.ForStmt); s.Cond == nil {
		t.Fatal("conditional loop must keep its cond")
	}
	if s := body[2].(*ast.ForInStmt); s.Val != "x" || s.Key != "" {
		t.Fatalf("for-in = %+v", s)
	}
	if s := body[3].(*ast.ForInStmt); s.Key != "k" || s.Val != "v" {
		t.Fatalf("keyed for-in = %+v", s)
	}
	fc := body[4].(*ast.ForCStmt)
	if fc.Init == nil || fc.Cond == nil || fc.Post == nil {
		t.Fatalf("c-style for = %+v", fc)
	}
}

func TestLabeledLoopAndBranch(t *testing.T) {
	r := parseOK(t, `fn main() {
	outer: for {
		for {
			break outer
		}
	}
}
`)
	body := r.file.Decls[0].(*ast.FnDecl).Body.Stmts
	loop := body[0].(*ast.ForStmt)
	if loop.Label != "outer" {
		t.Fatalf("label = %q", loop.Label)
	}
	inner := loop.Body.Stmts[0].(*ast.ForStmt)
	br := inner.Body.Stmts[0].(*ast.BranchStmt)
	if br.Tok != token.KwBreak || br.Label != "outer" {
		t.Fatalf("branch = %+v", br)
	}
}

func TestDuplicateLabel(t *testing.T) {
	r := parseSrc(t, "fn main() {\n\tl: for {\n\t}\n\tl: for {\n\t}\n}\n")
	if !hasCode(r.bag, diag.SynDuplicateLabel) {
		t.Fatal("expected SynDuplicateLabel")
	}
}

func TestGotoAndLabel(t *testing.T) {
	r := parseOK(t, "fn main() {\n\ttop:\n\tgoto top\n}\n")
	body := r.file.Decls[0].(*ast.FnDecl).Body.Stmts
	if l := body[0].(*ast.GotoLabel); l.Name != "top" {
		t.Fatalf("label = %+v", l)
	}
	if g := body[1].(*ast.GotoStmt); g.Label != "top" {
		t.Fatalf("goto = %+v", g)
	}
}

func TestDeferGoAssert(t *testing.T) {
	r := parseOK(t, `fn main() {
	defer {
		cleanup()
	}
	go worker()
	assert x == 1, 'x drifted'
}
`)
	body := r.file.Decls[0].(*ast.FnDecl).Body.Stmts
	if _, ok := body[0].(*ast.DeferStmt); !ok {
		t.Fatalf("stmt 0 = %T", body[0])
	}
	g := body[1].(*ast.GoStmt)
	if _, ok := g.Call.(*ast.CallExpr); !ok {
		t.Fatalf("go call = %T", g.Call)
	}
	a := body[2].(*ast.AssertStmt)
	if a.Cond == nil || a.Extra == nil {
		t.Fatalf("assert = %+v", a)
	}
}

func TestGoRequiresCall(t *testing.T) {
	r := parseSrc(t, "fn main() {\n\tgo 42\n}\n")
	if !r.bag.HasErrors() {
		t.Fatal("go with a non-call operand must error")
	}
}

func TestAssignStatements(t *testing.T) {
	r := parseOK(t, "fn main() {\n\tx := 1\n\tx += 2\n\ta, b := f()\n}\n")
	body := r.file.Decls[0].(*ast.FnDecl).Body.Stmts
	decl := body[0].(*ast.AssignStmt)
	if decl.Op != token.ColonAssign || len(decl.LHS) != 1 {
		t.Fatalf("decl = %+v", decl)
	}
	add := body[1].(*ast.AssignStmt)
	if add.Op != token.PlusAssign {
		t.Fatalf("compound op = %v", add.Op)
	}
	multi := body[2].(*ast.AssignStmt)
	if len(multi.LHS) != 2 {
		t.Fatalf("multi lhs = %d", len(multi.LHS))
	}
}

func TestDeclaredVarVisibleInScope(t *testing.T) {
	r := parseOK(t, "fn main() {\n\tx := 1\n\t{\n\t\ty := x\n\t}\n}\n")
	outer := symbols.ScopeID(r.file.Decls[0].(*ast.FnDecl).Body.Scope)
	if _, ok := r.tab.Scopes.Lookup(outer, "x"); !ok {
		t.Fatal("x not declared in the function scope")
	}
	inner := symbols.ScopeID(r.file.Decls[0].(*ast.FnDecl).Body.Stmts[1].(*ast.Block).Scope)
	if _, ok := r.tab.Scopes.Lookup(inner, "x"); !ok {
		t.Fatal("x not visible from the nested scope")
	}
	if _, ok := r.tab.Scopes.Lookup(outer, "y"); ok {
		t.Fatal("y must not leak out of the nested scope")
	}
}

func TestOperatorPrecedence(t *testing.T) {
	e := firstExpr(t, "1 + 2 * 3\n")
	add, ok := e.(*ast.InfixExpr)
	if !ok || add.Op != token.Plus {
		t.Fatalf("root = %+v", e)
	}
	mul, ok := add.Right.(*ast.InfixExpr)
	if !ok || mul.Op != token.Star {
		t.Fatalf("right = %+v", add.Right)
	}
}

func TestComparisonBindsLooserThanArith(t *testing.T) {
	e := firstExpr(t, "a + 1 < b * 2\n")
	cmp := e.(*ast.InfixExpr)
	if cmp.Op != token.Lt {
		t.Fatalf("root op = %v", cmp.Op)
	}
	if l := cmp.Left.(*ast.InfixExpr); l.Op != token.Plus {
		t.Fatalf("left op = %v", l.Op)
	}
}

func TestRangeExpr(t *testing.T) {
	e := firstExpr(t, "lo .. hi + 1\n")
	rng := e.(*ast.InfixExpr)
	if rng.Op != token.DotDot {
		t.Fatalf("root op = %v", rng.Op)
	}
	if r := rng.Right.(*ast.InfixExpr); r.Op != token.Plus {
		t.Fatalf("range bound should bind its arithmetic, got %v", r.Op)
	}
}

func TestIndexAndSlice(t *testing.T) {
	e := firstExpr(t, "arr[1]\n")
	idx := e.(*ast.IndexExpr)
	if idx.IsSlice || idx.Index == nil {
		t.Fatalf("index = %+v", idx)
	}
	e = firstExpr(t, "arr[1..n]\n")
	sl := e.(*ast.IndexExpr)
	if !sl.IsSlice || sl.Low == nil || sl.High == nil {
		t.Fatalf("slice = %+v", sl)
	}
}

func TestCastVsCall(t *testing.T) {
	// builtin type name: a cast
	e := firstExpr(t, "u32(x)\n")
	if _, ok := e.(*ast.CastExpr); !ok {
		t.Fatalf("u32(x) = %T, want *ast.CastExpr", e)
	}
	// unknown name: a call
	e = firstExpr(t, "frob(x)\n")
	if _, ok := e.(*ast.CallExpr); !ok {
		t.Fatalf("frob(x) = %T, want *ast.CallExpr", e)
	}
}

func TestStructLiteralSuppressedInHeader(t *testing.T) {
	// `Foo{}` after `if` must read as ident-then-block, not a literal
	r := parseOK(t, "struct Foo { x int }\nfn main() {\n\tif cond {\n\t\tdone()\n\t}\n}\n")
	body := r.file.Decls[1].(*ast.FnDecl).Body.Stmts
	es := body[0].(*ast.ExprStmt)
	ie := es.X.(*ast.IfExpr)
	if _, ok := ie.Cond.(*ast.Ident); !ok {
		t.Fatalf("if cond = %T, want bare ident", ie.Cond)
	}
}

func TestStructLiteral(t *testing.T) {
	r := parseOK(t, "struct Foo { x int }\ny := Foo{x: 1}\n")
	as := r.file.Stmts[0].(*ast.AssignStmt)
	lit := as.RHS[0].(*ast.StructInit)
	if len(lit.Fields) != 1 || lit.Fields[0].Name != "x" {
		t.Fatalf("literal = %+v", lit)
	}
}

func TestEnumShorthandSelector(t *testing.T) {
	e := firstExpr(t, "x == .red\n")
	cmp := e.(*ast.InfixExpr)
	sel, ok := cmp.Right.(*ast.SelectorExpr)
	if !ok || sel.X != nil || sel.Sel != "red" {
		t.Fatalf("shorthand = %+v", cmp.Right)
	}
}

func TestMatchExpr(t *testing.T) {
	e := firstExpr(t, `match x {
	1, 2 { small() }
	else { big() }
}
`)
	m := e.(*ast.MatchExpr)
	if len(m.Arms) != 2 {
		t.Fatalf("arms = %d", len(m.Arms))
	}
	if len(m.Arms[0].Conds) != 2 || m.Arms[0].IsElse {
		t.Fatalf("arm 0 = %+v", m.Arms[0])
	}
	if !m.Arms[1].IsElse {
		t.Fatal("last arm should be else")
	}
}

func TestArrayLiterals(t *testing.T) {
	r := parseOK(t, "a := [1, 2, 3]\n")
	arr := r.file.Stmts[0].(*ast.AssignStmt).RHS[0].(*ast.ArrayInit)
	if len(arr.Elems) != 3 || arr.IsFixed {
		t.Fatalf("plain literal = %+v", arr)
	}
	r = parseOK(t, "a := [1, 2, 3]!\n")
	arr = r.file.Stmts[0].(*ast.AssignStmt).RHS[0].(*ast.ArrayInit)
	if !arr.IsFixed {
		t.Fatal("trailing ! should mark a fixed array")
	}
}

func TestMapLiteral(t *testing.T) {
	r := parseOK(t, "m := {'a': 1, 'b': 2}\n")
	m := r.file.Stmts[0].(*ast.AssignStmt).RHS[0].(*ast.MapInit)
	if len(m.Keys) != 2 || len(m.Vals) != 2 {
		t.Fatalf("map = %+v", m)
	}
}

func TestErrorPolicyFatal(t *testing.T) {
	fset := source.NewFileSet()
	bag := diag.NewBag(100)
	_, err := ParseText(fset, "bad.vd", []byte("fn (((\nfn (((\n"), Options{
		Prefs:    pref.Default(),
		Reporter: diag.BagReporter{Bag: bag},
	})
	if err == nil {
		t.Fatal("strict mode must surface a fatal error")
	}
	if bag.ErrorCount() != 1 {
		t.Fatalf("strict mode stops at the first error, recorded %d", bag.ErrorCount())
	}
}

func TestErrorPolicyLenientAccumulates(t *testing.T) {
	src := "]\n]\n]\n]\n]\n"
	r := parseSrc(t, src)
	if r.bag.ErrorCount() < 2 {
		t.Fatalf("lenient mode should keep going, recorded %d errors", r.bag.ErrorCount())
	}
}

func TestErrorPolicyMessageLimit(t *testing.T) {
	prefs := pref.CheckOnly()
	prefs.MessageLimit = 3
	var src string
	for i := 0; i < 10; i++ {
		src += "]\n"
	}
	r := parseWith(t, src, prefs)
	if r.bag.ErrorCount() > 3 {
		t.Fatalf("message limit 3 exceeded: %d", r.bag.ErrorCount())
	}
}

func TestWarningsAsErrors(t *testing.T) {
	prefs := pref.CheckOnly()
	prefs.WarnsAreErrors = true
	r := parseWith(t, "const MAX = 1\n", prefs)
	if !r.bag.HasErrors() {
		t.Fatal("-W should promote the style warning to an error")
	}

	prefs = pref.CheckOnly()
	prefs.SkipWarnings = true
	r = parseWith(t, "const MAX = 1\n", prefs)
	if r.bag.Len() != 0 {
		t.Fatalf("-w should drop the warning, got %d diagnostics", r.bag.Len())
	}
}
