package cgen

import (
	"fmt"
	"strconv"
	"strings"

	"veld/internal/ast"
	"veld/internal/symbols"
	"veld/internal/token"
)

func (g *Generator) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Block:
		g.line("{")
		g.indent++
		for _, inner := range s.Stmts {
			g.stmt(inner)
		}
		g.indent--
		g.line("}")
	case *ast.ExprStmt:
		// value-less lowerings (if/match in statement position) emit
		// themselves and yield no rvalue
		if v := g.expr(s.X); v != "" {
			g.line("%s;", v)
		}
	case *ast.AssignStmt:
		g.assignStmt(s)
	case *ast.ForStmt:
		g.forStmt(s)
	case *ast.ForInStmt:
		g.forInStmt(s)
	case *ast.ForCStmt:
		g.forCStmt(s)
	case *ast.ReturnStmt:
		g.returnStmt(s)
	case *ast.BranchStmt:
		g.branchStmt(s)
	case *ast.GotoStmt:
		g.line("goto %s;", s.Label)
	case *ast.GotoLabel:
		g.line("%s: {}", s.Name)
	case *ast.DeferStmt:
		g.defers = append(g.defers, s.Body)
	case *ast.GoStmt:
		g.goStmt(s)
	case *ast.AssertStmt:
		g.assertStmt(s)
	case *ast.AsmStmt:
		g.asmStmt(s)
	case *ast.DeclStmt:
		if err := g.decl("", s.Decl); err != nil {
			return
		}
	case *ast.BadStmt:
		// parser already reported; nothing sensible to emit
	default:
		g.fatalf("unhandled statement %T", s)
	}
}

func (g *Generator) assignStmt(s *ast.AssignStmt) {
	if len(s.LHS) != len(s.RHS) {
		g.fatalf("assignment arity mismatch: %d targets, %d values", len(s.LHS), len(s.RHS))
		return
	}
	for i := range s.LHS {
		g.assignOne(s.Op, s.LHS[i], s.RHS[i])
	}
}

func (g *Generator) assignOne(op token.Kind, lhs, rhs ast.Expr) {
	// map element writes lower to map_set, not C assignment
	if idx, ok := lhs.(*ast.IndexExpr); ok && !idx.IsSlice {
		if sym := g.tab.Get(g.typeOf(idx.X)); sym != nil && sym.Kind == symbols.KindMap {
			info := sym.Info.(*symbols.MapInfo)
			val := g.expr(rhs)
			g.line("map_set(&%s, %s, &(%s[]){%s});",
				g.expr(idx.X), g.expr(idx.Index), g.ctype(info.Value), val)
			return
		}
	}
	val := g.expr(rhs)
	switch op {
	case token.ColonAssign:
		name, _ := lhs.(*ast.Ident)
		if name == nil {
			g.fatalf("declaration target is not an identifier")
			return
		}
		typ := g.typeOf(rhs)
		g.vars[name.Name] = varInfo{typ: typ, isRef: isRefExpr(rhs)}
		g.line("%s %s = %s;", g.declType(typ, rhs), name.Name, val)
	case token.Assign:
		g.line("%s = %s;", g.expr(lhs), val)
	default:
		// compound assignment, C spells it the same way
		g.line("%s %s %s;", g.expr(lhs), op.String(), val)
	}
}

// declType picks the C type for a := declaration. Reference-producing
// initializers declare pointers.
func (g *Generator) declType(typ symbols.Type, rhs ast.Expr) string {
	base := g.ctype(typ)
	if isRefExpr(rhs) {
		return base + "*"
	}
	return base
}

func isRefExpr(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.StructInit:
		return e.IsRef
	case *ast.ArrayInit:
		return e.IsRef
	case *ast.PrefixExpr:
		return e.Op == token.Amp
	}
	return false
}

func (g *Generator) forStmt(s *ast.ForStmt) {
	if s.Cond == nil {
		g.line("for (;;) {")
	} else {
		g.line("while (%s) {", g.expr(s.Cond))
	}
	g.loopBody(s.Label, s.Body)
}

func (g *Generator) forInStmt(s *ast.ForInStmt) {
	// integer range iteration
	if rng, ok := s.Iter.(*ast.InfixExpr); ok && rng.Op == token.DotDot {
		g.vars[s.Val] = varInfo{typ: g.builtin("int")}
		g.line("for (int %s = %s; %s < %s; %s++) {",
			s.Val, g.expr(rng.Left), s.Val, g.expr(rng.Right), s.Val)
		g.loopBody(s.Label, s.Body)
		return
	}

	iterType := g.typeOf(s.Iter)
	sym := g.tab.Get(iterType)
	idx := s.Key
	if idx == "" {
		idx = g.nextTmp("i")
	}
	iter := g.expr(s.Iter)
	switch {
	case sym != nil && sym.Kind == symbols.KindArray:
		elem := sym.Info.(*symbols.ArrayInfo).Elem
		g.vars[s.Val] = varInfo{typ: elem}
		g.vars[idx] = varInfo{typ: g.builtin("int")}
		g.line("for (int %s = 0; %s < %s.len; %s++) {", idx, idx, iter, idx)
		g.indent++
		g.line("%s %s = ((%s*)%s.data)[%s];", g.ctype(elem), s.Val, g.ctype(elem), iter, idx)
		g.indent--
		g.loopBody(s.Label, s.Body)
	case sym != nil && sym.Kind == symbols.KindArrayFixed:
		info := sym.Info.(*symbols.ArrayFixedInfo)
		g.vars[s.Val] = varInfo{typ: info.Elem}
		g.line("for (int %s = 0; %s < %d; %s++) {", idx, idx, info.Size, idx)
		g.indent++
		g.line("%s %s = %s[%s];", g.ctype(info.Elem), s.Val, iter, idx)
		g.indent--
		g.loopBody(s.Label, s.Body)
	case sym != nil && sym.Kind == symbols.KindMap:
		info := sym.Info.(*symbols.MapInfo)
		keys := g.nextTmp("keys")
		g.vars[s.Val] = varInfo{typ: info.Value}
		g.line("array %s = map_keys(&%s);", keys, iter)
		g.line("for (int %s = 0; %s < %s.len; %s++) {", idx, idx, keys, idx)
		g.indent++
		key := s.Key
		if key == "" {
			key = g.nextTmp("k")
		}
		g.vars[key] = varInfo{typ: info.Key}
		g.line("%s %s = ((%s*)%s.data)[%s];", g.ctype(info.Key), key, g.ctype(info.Key), keys, idx)
		g.line("%s %s = *(%s*)map_get(&%s, %s);",
			g.ctype(info.Value), s.Val, g.ctype(info.Value), iter, key)
		g.indent--
		g.loopBody(s.Label, s.Body)
	case sym != nil && sym.Kind == symbols.KindString:
		g.vars[s.Val] = varInfo{typ: g.builtin("u8")}
		g.line("for (int %s = 0; %s < %s.len; %s++) {", idx, idx, iter, idx)
		g.indent++
		g.line("uint8_t %s = %s.str[%s];", s.Val, iter, idx)
		g.indent--
		g.loopBody(s.Label, s.Body)
	default:
		g.fatalf("cannot iterate over %s", g.tab.TypeToString(iterType))
	}
}

func (g *Generator) forCStmt(s *ast.ForCStmt) {
	// init/post are full statements; hoist init above the loop and fold the
	// post statement into the body tail via the continue label.
	g.line("{")
	g.indent++
	if s.Init != nil {
		g.stmt(s.Init)
	}
	if s.Cond != nil {
		g.line("while (%s) {", g.expr(s.Cond))
	} else {
		g.line("for (;;) {")
	}
	g.indent++
	for _, inner := range s.Body.Stmts {
		g.stmt(inner)
	}
	if s.Label != "" {
		g.line("%s__continue: {}", s.Label)
	}
	if s.Post != nil {
		g.stmt(s.Post)
	}
	g.indent--
	g.line("}")
	if s.Label != "" {
		g.line("%s__break: {}", s.Label)
	}
	g.indent--
	g.line("}")
}

func (g *Generator) loopBody(label string, body *ast.Block) {
	g.indent++
	for _, inner := range body.Stmts {
		g.stmt(inner)
	}
	if label != "" {
		g.line("%s__continue: {}", label)
	}
	g.indent--
	g.line("}")
	if label != "" {
		g.line("%s__break: {}", label)
	}
}

func (g *Generator) branchStmt(s *ast.BranchStmt) {
	switch {
	case s.Label == "" && s.Tok == token.KwBreak:
		g.line("break;")
	case s.Label == "" && s.Tok == token.KwContinue:
		g.line("continue;")
	case s.Tok == token.KwBreak:
		g.line("goto %s__break;", s.Label)
	default:
		g.line("goto %s__continue;", s.Label)
	}
}

func (g *Generator) returnStmt(s *ast.ReturnStmt) {
	if len(s.Results) > 1 {
		g.fatalf("multiple return values are not lowered yet")
		return
	}
	g.emitDefers()
	if len(s.Results) == 0 {
		g.line("return;")
		return
	}
	g.line("return %s;", g.expr(s.Results[0]))
}

func (g *Generator) goStmt(s *ast.GoStmt) {
	call, ok := s.Call.(*ast.CallExpr)
	if !ok {
		g.fatalf("go statement requires a call")
		return
	}
	fn, ok := call.Fun.(*ast.Ident)
	if !ok {
		g.fatalf("go statement requires a named function")
		return
	}
	if len(call.Args) == 0 {
		g.line("thread_spawn((thread_fn)%s, 0);", mangle(fn.Mod, fn.Name))
		return
	}
	// single-argument form boxes the argument for the spawned thread
	arg := g.expr(call.Args[0])
	typ := g.typeOf(call.Args[0])
	box := g.nextTmp("arg")
	g.line("%s* %s = memdup(&(%s){%s}, sizeof(%s));",
		g.ctype(typ), box, g.ctype(typ), arg, g.ctype(typ))
	g.line("thread_spawn((thread_fn)%s, %s);", mangle(fn.Mod, fn.Name), box)
}

func (g *Generator) assertStmt(s *ast.AssertStmt) {
	cond := g.expr(s.Cond)
	g.line("if (!(%s)) {", cond)
	g.indent++
	if s.Extra != nil {
		g.line("assert_fail(_SLIT(%q), %s);", cond, g.expr(s.Extra))
	} else {
		g.line("assert_fail(_SLIT(%q), _SLIT(\"\"));", cond)
	}
	g.indent--
	g.line("}")
}

// asmStmt re-emits the parsed instruction templates through the C
// compiler's inline assembler.
func (g *Generator) asmStmt(s *ast.AsmStmt) {
	var lines []string
	for _, t := range s.Templates {
		var sb strings.Builder
		switch {
		case t.IsDirective:
			sb.WriteString("." + t.Name)
		case t.IsLabel:
			sb.WriteString(t.Name + ":")
		default:
			sb.WriteString(t.Name)
			for i, arg := range t.Args {
				if i == 0 {
					sb.WriteString(" ")
				} else {
					sb.WriteString(", ")
				}
				sb.WriteString(asmArgText(arg))
			}
		}
		lines = append(lines, sb.String())
	}
	g.line("__asm__ volatile (")
	g.indent++
	for _, l := range lines {
		g.line("%q", l+"\n")
	}
	// Extended asm: operand sections bind the %[alias] references in the
	// templates. A clobber list alone still needs the empty output and
	// input colons before it.
	if len(s.Output) > 0 || len(s.Input) > 0 || len(s.Clobbered) > 0 {
		g.line("%s", asmIOSection(s.Output, g))
		g.line("%s", asmIOSection(s.Input, g))
		if len(s.Clobbered) > 0 {
			regs := make([]string, len(s.Clobbered))
			for i, c := range s.Clobbered {
				regs[i] = fmt.Sprintf("%q", c.Reg)
			}
			g.line(": %s", strings.Join(regs, ", "))
		}
	}
	g.indent--
	g.line(");")
}

func asmIOSection(ios []ast.AsmIO, g *Generator) string {
	if len(ios) == 0 {
		return ":"
	}
	parts := make([]string, len(ios))
	for i, io := range ios {
		expr := g.expr(io.Expr)
		if io.Alias != "" {
			parts[i] = fmt.Sprintf("[%s] %q (%s)", io.Alias, io.Constraint, expr)
		} else {
			parts[i] = fmt.Sprintf("%q (%s)", io.Constraint, expr)
		}
	}
	return ": " + strings.Join(parts, ", ")
}

func asmArgText(a ast.AsmArg) string {
	switch a := a.(type) {
	case ast.AsmRegister:
		return a.Name
	case ast.AsmIntImm:
		return strconv.FormatInt(a.Value, 10)
	case ast.AsmFloatImm:
		return a.Value
	case ast.AsmCharImm:
		return "'" + a.Value + "'"
	case ast.AsmAlias:
		return "%[" + a.Name + "]"
	case ast.AsmDisp:
		return a.Value
	case *ast.AsmAddressing:
		return addressingText(a)
	}
	return ""
}

func addressingText(a *ast.AsmAddressing) string {
	var sb strings.Builder
	sb.WriteByte('[')
	switch a.Mode {
	case ast.AddrDisplacement:
		sb.WriteString(asmArgText(a.Displacement))
	case ast.AddrBase:
		sb.WriteString(asmArgText(a.Base))
	case ast.AddrBaseDisp:
		sb.WriteString(asmArgText(a.Base) + " + " + asmArgText(a.Displacement))
	case ast.AddrIndexScaleDisp:
		sb.WriteString(asmArgText(a.Index) + " * " + strconv.Itoa(a.Scale) +
			" + " + asmArgText(a.Displacement))
	case ast.AddrBaseIndexScaleDisp:
		sb.WriteString(asmArgText(a.Base) + " + " + asmArgText(a.Index) +
			" * " + strconv.Itoa(a.Scale) + " + " + asmArgText(a.Displacement))
	case ast.AddrBaseIndexDisp:
		sb.WriteString(asmArgText(a.Base) + " + " + asmArgText(a.Index) +
			" + " + asmArgText(a.Displacement))
	case ast.AddrRIPDisp:
		sb.WriteString("rip + " + asmArgText(a.Displacement))
	}
	sb.WriteByte(']')
	return sb.String()
}

func (g *Generator) builtin(name string) symbols.Type {
	typ, _ := g.tab.Find(name)
	return typ
}
