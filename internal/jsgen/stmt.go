package jsgen

import (
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
		if v := g.expr(s.X); v != "" {
			g.line("%s;", v)
		}
	case *ast.AssignStmt:
		g.assignStmt(s)
	case *ast.ForStmt:
		if s.Cond == nil {
			g.line("%sfor (;;) {", labelPrefix(s.Label))
		} else {
			g.line("%swhile (%s) {", labelPrefix(s.Label), g.expr(s.Cond))
		}
		g.blockBody(s.Body)
	case *ast.ForInStmt:
		g.forInStmt(s)
	case *ast.ForCStmt:
		g.forCStmt(s)
	case *ast.ReturnStmt:
		if len(s.Results) == 0 {
			g.line("return;")
		} else if len(s.Results) == 1 {
			g.line("return %s;", g.expr(s.Results[0]))
		} else {
			// multiple results travel as an array
			g.line("return [%s];", g.argList(s.Results))
		}
	case *ast.BranchStmt:
		kw := "break"
		if s.Tok == token.KwContinue {
			kw = "continue"
		}
		if s.Label != "" {
			g.line("%s %s;", kw, s.Label)
		} else {
			g.line("%s;", kw)
		}
	case *ast.GotoStmt:
		g.fatalf("goto has no JS lowering")
	case *ast.GotoLabel:
		// bare labels only matter for goto, which is rejected above
	case *ast.DeferStmt:
		g.fatalf("defer has no JS lowering")
	case *ast.GoStmt:
		if call, ok := s.Call.(*ast.CallExpr); ok {
			g.line("setTimeout(() => %s, 0);", g.expr(call))
		} else {
			g.fatalf("go statement requires a call")
		}
	case *ast.AssertStmt:
		cond := g.expr(s.Cond)
		if s.Extra != nil {
			g.line("if (!(%s)) panic(`assert failed: %s: ${%s}`);", cond, cond, g.expr(s.Extra))
		} else {
			g.line("if (!(%s)) panic(`assert failed: %s`);", cond, cond)
		}
	case *ast.AsmStmt:
		g.fatalf("inline assembly has no JS lowering")
	case *ast.DeclStmt:
		g.decl("", s.Decl)
	case *ast.BadStmt:
	default:
		g.fatalf("unhandled statement %T", s)
	}
}

func labelPrefix(label string) string {
	if label == "" {
		return ""
	}
	return label + ": "
}

func (g *Generator) blockBody(b *ast.Block) {
	g.indent++
	for _, s := range b.Stmts {
		g.stmt(s)
	}
	g.indent--
	g.line("}")
}

func (g *Generator) assignStmt(s *ast.AssignStmt) {
	if s.Op == token.ColonAssign && len(s.LHS) > 1 && len(s.RHS) == 1 {
		// destructuring a multi-result call
		names := make([]string, len(s.LHS))
		for i, l := range s.LHS {
			id, ok := l.(*ast.Ident)
			if !ok {
				g.fatalf("declaration target is not an identifier")
				return
			}
			names[i] = id.Name
			g.vars[id.Name] = symbols.NoType
		}
		g.line("let [%s] = %s;", joinNames(names), g.expr(s.RHS[0]))
		return
	}
	if len(s.LHS) != len(s.RHS) {
		g.fatalf("assignment arity mismatch: %d targets, %d values", len(s.LHS), len(s.RHS))
		return
	}
	for i := range s.LHS {
		g.assignOne(s.Op, s.LHS[i], s.RHS[i])
	}
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

func (g *Generator) assignOne(op token.Kind, lhs, rhs ast.Expr) {
	// map element writes go through Map.set
	if idx, ok := lhs.(*ast.IndexExpr); ok && !idx.IsSlice {
		if sym := g.tab.Get(g.typeOf(idx.X)); sym != nil && sym.Kind == symbols.KindMap {
			g.line("%s.set(%s, %s);", g.expr(idx.X), g.expr(idx.Index), g.expr(rhs))
			return
		}
	}
	val := g.expr(rhs)
	switch op {
	case token.ColonAssign:
		id, ok := lhs.(*ast.Ident)
		if !ok {
			g.fatalf("declaration target is not an identifier")
			return
		}
		g.vars[id.Name] = g.typeOf(rhs)
		g.line("let %s = %s;", id.Name, val)
	case token.ShlAssign:
		// array append
		if sym := g.tab.Get(g.typeOf(lhs)); sym != nil && sym.Kind == symbols.KindArray {
			g.line("%s.push(%s);", g.expr(lhs), val)
			return
		}
		g.line("%s <<= %s;", g.expr(lhs), val)
	default:
		g.line("%s %s %s;", g.expr(lhs), op.String(), val)
	}
}

func (g *Generator) forInStmt(s *ast.ForInStmt) {
	if rng, ok := s.Iter.(*ast.InfixExpr); ok && rng.Op == token.DotDot {
		g.vars[s.Val] = g.builtin("int")
		g.line("%sfor (let %s = %s; %s < %s; %s++) {",
			labelPrefix(s.Label), s.Val, g.expr(rng.Left), s.Val, g.expr(rng.Right), s.Val)
		g.blockBody(s.Body)
		return
	}
	iter := g.expr(s.Iter)
	sym := g.tab.Get(g.typeOf(s.Iter))
	switch {
	case sym != nil && sym.Kind == symbols.KindMap:
		info := sym.Info.(*symbols.MapInfo)
		key := s.Key
		if key == "" {
			key = g.nextTmp("k")
		}
		g.vars[key] = info.Key
		g.vars[s.Val] = info.Value
		g.line("%sfor (const [%s, %s] of %s) {", labelPrefix(s.Label), key, s.Val, iter)
		g.blockBody(s.Body)
	case s.Key != "":
		if sym != nil {
			if info, ok := sym.Info.(*symbols.ArrayInfo); ok {
				g.vars[s.Val] = info.Elem
			}
		}
		g.vars[s.Key] = g.builtin("int")
		g.line("%sfor (const [%s, %s] of %s.entries()) {", labelPrefix(s.Label), s.Key, s.Val, iter)
		g.blockBody(s.Body)
	default:
		if sym != nil {
			if info, ok := sym.Info.(*symbols.ArrayInfo); ok {
				g.vars[s.Val] = info.Elem
			}
		}
		g.line("%sfor (const %s of %s) {", labelPrefix(s.Label), s.Val, iter)
		g.blockBody(s.Body)
	}
}

func (g *Generator) forCStmt(s *ast.ForCStmt) {
	init := ""
	if s.Init != nil {
		if as, ok := s.Init.(*ast.AssignStmt); ok && as.Op == token.ColonAssign && len(as.LHS) == 1 {
			id := as.LHS[0].(*ast.Ident)
			g.vars[id.Name] = g.typeOf(as.RHS[0])
			init = "let " + id.Name + " = " + g.expr(as.RHS[0])
		}
	}
	cond := ""
	if s.Cond != nil {
		cond = g.expr(s.Cond)
	}
	post := ""
	if s.Post != nil {
		if as, ok := s.Post.(*ast.AssignStmt); ok && len(as.LHS) == 1 {
			post = g.expr(as.LHS[0]) + " " + as.Op.String() + " " + g.expr(as.RHS[0])
		}
	}
	g.line("%sfor (%s; %s; %s) {", labelPrefix(s.Label), init, cond, post)
	g.blockBody(s.Body)
}

func (g *Generator) argList(args []ast.Expr) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += g.expr(a)
	}
	return out
}

func (g *Generator) builtin(name string) symbols.Type {
	typ, _ := g.tab.Find(name)
	return typ
}
