package jsgen

import (
	"fmt"
	"strings"

	"veld/internal/ast"
	"veld/internal/symbols"
	"veld/internal/token"
)

func (g *Generator) expr(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.Ident:
		return g.identExpr(e)
	case *ast.IntLit:
		return e.Value
	case *ast.FloatLit:
		return e.Value
	case *ast.CharLit:
		return fmt.Sprintf("%q.charCodeAt(0)", e.Value)
	case *ast.BoolLit:
		if e.Value {
			return "true"
		}
		return "false"
	case *ast.StringLit:
		return fmt.Sprintf("%q", e.Value)
	case *ast.StringInterLit:
		return g.interpExpr(e)
	case *ast.InfixExpr:
		return g.infixExpr(e)
	case *ast.PrefixExpr:
		if e.Op == token.Amp || e.Op == token.Star {
			// objects are references already, so & and * both vanish
			return g.expr(e.Right)
		}
		return fmt.Sprintf("%s(%s)", e.Op.String(), g.expr(e.Right))
	case *ast.IndexExpr:
		return g.indexExpr(e)
	case *ast.SelectorExpr:
		return g.selectorExpr(e)
	case *ast.CallExpr:
		return g.callExpr(e)
	case *ast.CastExpr:
		return g.castExpr(e)
	case *ast.StructInit:
		return g.structInit(e)
	case *ast.ArrayInit:
		return g.arrayInit(e)
	case *ast.MapInit:
		return g.mapInit(e)
	case *ast.IfExpr:
		return g.ifValue(e)
	case *ast.MatchExpr:
		return g.matchValue(e)
	case *ast.AnonFn:
		return g.anonFn(e)
	case *ast.UnsafeExpr:
		if len(e.Stmts) == 1 {
			if es, ok := e.Stmts[0].(*ast.ExprStmt); ok {
				return g.expr(es.X)
			}
		}
		g.fatalf("unsafe block has no JS lowering beyond a single expression")
		return "undefined"
	case *ast.BadExpr:
		return "undefined"
	}
	g.fatalf("unhandled expression %T", e)
	return "undefined"
}

func (g *Generator) identExpr(e *ast.Ident) string {
	if e.Name == "none" {
		return "null"
	}
	if _, ok := g.vars[e.Name]; ok {
		return e.Name
	}
	if e.Mod != "" {
		return mangle(e.Mod, e.Name)
	}
	return e.Name
}

func (g *Generator) interpExpr(e *ast.StringInterLit) string {
	var sb strings.Builder
	sb.WriteByte('`')
	for i, part := range e.Parts {
		sb.WriteString(escapeTemplate(part))
		if i < len(e.Exprs) {
			sb.WriteString("${")
			sb.WriteString(g.formatValue(e.Exprs[i], e.Specs[i]))
			sb.WriteByte('}')
		}
	}
	sb.WriteByte('`')
	return sb.String()
}

func escapeTemplate(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "`", "\\`")
	s = strings.ReplaceAll(s, "${", "\\${")
	return s
}

func (g *Generator) formatValue(e ast.Expr, spec ast.FmtSpec) string {
	val := g.expr(e)
	if spec.Verb == 0 && spec.Width == 0 && spec.Precision == ast.PrecisionUnset && !spec.PlusSign {
		return val
	}
	prec := spec.Precision
	if prec == ast.PrecisionUnset {
		prec = -1
	}
	fill := spec.Fill
	if fill == 0 {
		fill = ' '
	}
	verb := spec.Verb
	if verb == 0 {
		verb = 'v'
	}
	return fmt.Sprintf("vFmt(%s, %q, %d, %d, %t, %q)", val, string(verb), spec.Width, prec, spec.PlusSign, string(fill))
}

// infixExpr lowers a binary operation. The order of concerns mirrors the
// operator semantics: user overload methods win, 64-bit operands force
// BigInt arithmetic, composite equality routes through vEq, `<<` against
// an array appends, and struct operands without an overload fall back to
// .valueOf() so native operators still apply.
func (g *Generator) infixExpr(e *ast.InfixExpr) string {
	if e.Op == token.DotDot {
		g.fatalf("range expression outside index or for-in position")
		return "undefined"
	}

	leftType := g.typeOf(e.Left)
	leftSym := g.tab.Get(leftType)

	// user-defined operator overload
	if leftSym != nil && leftSym.Kind == symbols.KindStruct {
		if m, ok := overloadMethod(e.Op); ok && g.hasFn(leftSym.Name+"."+m) {
			return fmt.Sprintf("%s(%s, %s)", methodName(leftSym.Name, m), g.expr(e.Left), g.expr(e.Right))
		}
	}

	switch e.Op {
	case token.EqEq, token.BangEq:
		return g.equalityExpr(e, leftSym)
	case token.Shl:
		if leftSym != nil && leftSym.Kind == symbols.KindArray {
			return fmt.Sprintf("%s.push(%s)", g.expr(e.Left), g.expr(e.Right))
		}
	}

	left := g.expr(e.Left)
	right := g.expr(e.Right)

	// 64-bit integers exceed the double mantissa: force BigInt arithmetic
	if g.is64Bit(e.Left) || g.is64Bit(e.Right) {
		return fmt.Sprintf("(BigInt(%s) %s BigInt(%s))", left, e.Op.String(), right)
	}

	// structs without an overload still work under native operators
	// through their valueOf
	if leftSym != nil && leftSym.Kind == symbols.KindStruct && isArithOp(e.Op) {
		return fmt.Sprintf("(%s.valueOf() %s %s.valueOf())", left, e.Op.String(), right)
	}

	if e.Op == token.Slash && g.isIntOperand(e.Left) && g.isIntOperand(e.Right) {
		// integer division truncates
		return fmt.Sprintf("Math.trunc(%s / %s)", left, right)
	}
	return fmt.Sprintf("(%s %s %s)", left, e.Op.String(), right)
}

func overloadMethod(op token.Kind) (string, bool) {
	switch op {
	case token.Plus:
		return "plus", true
	case token.Minus:
		return "minus", true
	case token.Star:
		return "mul", true
	case token.Slash:
		return "div", true
	case token.Percent:
		return "mod", true
	case token.Lt:
		return "lt", true
	case token.Gt:
		return "gt", true
	}
	return "", false
}

func isArithOp(op token.Kind) bool {
	switch op {
	case token.Plus, token.Minus, token.Star, token.Slash, token.Percent,
		token.Lt, token.Gt, token.LtEq, token.GtEq:
		return true
	}
	return false
}

func (g *Generator) equalityExpr(e *ast.InfixExpr, leftSym *symbols.TypeSymbol) string {
	neg := ""
	op := "==="
	if e.Op == token.BangEq {
		neg = "!"
		op = "!=="
	}
	left := g.expr(e.Left)
	right := g.expr(e.Right)

	rightSym := g.tab.Get(g.typeOf(e.Right))
	if leftSym == nil {
		leftSym = rightSym
	}

	// a reference compared against an integer compares the address value
	if isPtrVsInt(leftSym, rightSym) {
		return fmt.Sprintf("(Number(%s) %s Number(%s))", left, op, right)
	}
	if leftSym != nil {
		switch leftSym.Kind {
		case symbols.KindStruct, symbols.KindArray, symbols.KindArrayFixed,
			symbols.KindMap, symbols.KindSumType:
			return fmt.Sprintf("%svEq(%s, %s)", neg, left, right)
		}
	}
	return fmt.Sprintf("(%s %s %s)", left, op, right)
}

func isPtrVsInt(a, b *symbols.TypeSymbol) bool {
	if a == nil || b == nil {
		return false
	}
	return (a.Kind == symbols.KindVoidptr && b.Kind.IsInteger()) ||
		(b.Kind == symbols.KindVoidptr && a.Kind.IsInteger())
}

func (g *Generator) is64Bit(e ast.Expr) bool {
	sym := g.tab.Get(g.typeOf(e))
	return sym != nil && sym.Kind.Is64Bit()
}

func (g *Generator) isIntOperand(e ast.Expr) bool {
	sym := g.tab.Get(g.typeOf(e))
	return sym != nil && sym.Kind.IsInteger()
}

func (g *Generator) indexExpr(e *ast.IndexExpr) string {
	base := g.expr(e.X)
	sym := g.tab.Get(g.typeOf(e.X))
	if e.IsSlice {
		lo := "0"
		if e.Low != nil {
			lo = g.expr(e.Low)
		}
		if e.High != nil {
			return fmt.Sprintf("%s.slice(%s, %s)", base, lo, g.expr(e.High))
		}
		return fmt.Sprintf("%s.slice(%s)", base, lo)
	}
	if sym != nil && sym.Kind == symbols.KindMap {
		return fmt.Sprintf("%s.get(%s)", base, g.expr(e.Index))
	}
	if sym != nil && sym.Kind == symbols.KindString {
		return fmt.Sprintf("%s.charCodeAt(%s)", base, g.expr(e.Index))
	}
	return fmt.Sprintf("%s[%s]", base, g.expr(e.Index))
}

func (g *Generator) selectorExpr(e *ast.SelectorExpr) string {
	if e.X == nil {
		return e.Sel
	}
	if id, ok := e.X.(*ast.Ident); ok && id.Mod == "" {
		if typ, found := g.tab.Find(id.Name); found {
			if sym := g.tab.Get(typ); sym != nil && sym.Kind == symbols.KindEnum {
				return sym.CName + "." + e.Sel
			}
		}
	}
	sym := g.tab.Get(g.typeOf(e.X))
	if sym != nil && e.Sel == "len" {
		switch sym.Kind {
		case symbols.KindArray, symbols.KindString:
			return g.expr(e.X) + ".length"
		case symbols.KindMap:
			return g.expr(e.X) + ".size"
		}
	}
	return g.expr(e.X) + "." + e.Sel
}

func (g *Generator) callExpr(e *ast.CallExpr) string {
	switch fun := e.Fun.(type) {
	case *ast.Ident:
		name := fun.Name
		if fun.Mod != "" {
			name = mangle(fun.Mod, fun.Name)
		}
		return fmt.Sprintf("%s(%s)", name, g.argList(e.Args))
	case *ast.SelectorExpr:
		return g.methodCall(fun, e.Args)
	case *ast.AnonFn:
		return fmt.Sprintf("(%s)(%s)", g.anonFn(fun), g.argList(e.Args))
	}
	g.fatalf("uncallable expression %T", e.Fun)
	return "undefined"
}

func (g *Generator) methodCall(fun *ast.SelectorExpr, args []ast.Expr) string {
	recvType := g.typeOf(fun.X)
	sym := g.tab.Get(recvType)
	recv := g.expr(fun.X)

	if sym != nil {
		switch sym.Kind {
		case symbols.KindArray:
			switch fun.Sel {
			case "push":
				return fmt.Sprintf("%s.push(%s)", recv, g.argList(args))
			case "len":
				return recv + ".length"
			case "clone":
				return fmt.Sprintf("[...%s]", recv)
			case "map", "filter":
				return fmt.Sprintf("%s.%s(%s)", recv, fun.Sel, g.jsCallback(args))
			case "any":
				return fmt.Sprintf("%s.some(%s)", recv, g.jsCallback(args))
			case "all":
				return fmt.Sprintf("%s.every(%s)", recv, g.jsCallback(args))
			case "sort":
				return fmt.Sprintf("[...%s].sort(%s)", recv, g.sortComparator(args))
			case "contains":
				if g.compositeElem(sym) {
					return fmt.Sprintf("%s.some((x) => vEq(x, %s))", recv, g.argList(args))
				}
				return fmt.Sprintf("%s.includes(%s)", recv, g.argList(args))
			case "index":
				if g.compositeElem(sym) {
					return fmt.Sprintf("%s.findIndex((x) => vEq(x, %s))", recv, g.argList(args))
				}
				return fmt.Sprintf("%s.indexOf(%s)", recv, g.argList(args))
			}
		case symbols.KindMap:
			switch fun.Sel {
			case "len":
				return recv + ".size"
			case "keys":
				return fmt.Sprintf("[...%s.keys()]", recv)
			case "values":
				return fmt.Sprintf("[...%s.values()]", recv)
			case "delete":
				return fmt.Sprintf("%s.delete(%s)", recv, g.argList(args))
			case "exists":
				return fmt.Sprintf("%s.has(%s)", recv, g.argList(args))
			}
		case symbols.KindString:
			switch fun.Sel {
			case "len":
				return recv + ".length"
			}
		}
		// Composite type names ("[]int") are not JS identifiers; without a
		// registered user method the call cannot lower.
		switch sym.Kind {
		case symbols.KindArray, symbols.KindArrayFixed, symbols.KindMap, symbols.KindString:
			if !g.hasFn(sym.Name + "." + fun.Sel) {
				g.fatalf("unknown %s method %s", sym.Kind, fun.Sel)
				return "undefined"
			}
		}
		callee := methodName(sym.Name, fun.Sel)
		if len(args) == 0 {
			return fmt.Sprintf("%s(%s)", callee, recv)
		}
		return fmt.Sprintf("%s(%s, %s)", callee, recv, g.argList(args))
	}
	if id, ok := fun.X.(*ast.Ident); ok {
		return fmt.Sprintf("%s(%s)", mangle(id.Name, fun.Sel), g.argList(args))
	}
	g.fatalf("cannot resolve method %s", fun.Sel)
	return "undefined"
}

// jsCallback renders a higher-order argument as a JS arrow function.
func (g *Generator) jsCallback(args []ast.Expr) string {
	if len(args) != 1 {
		g.fatalf("callback builtins expect exactly one argument")
		return "undefined"
	}
	switch cb := args[0].(type) {
	case *ast.Ident:
		if g.hasFn(cb.FullName()) || g.hasFn("main."+cb.Name) {
			return mangle(cb.Mod, cb.Name)
		}
	case *ast.AnonFn:
		return g.anonFn(cb)
	}
	// inline expression over `it`
	saved, had := g.vars["it"]
	g.vars["it"] = symbols.NoType
	body := g.expr(args[0])
	if had {
		g.vars["it"] = saved
	} else {
		delete(g.vars, "it")
	}
	return fmt.Sprintf("(it) => %s", body)
}

// compositeElem reports whether sym's array elements need deep equality
// for membership tests (includes/indexOf compare with ===).
func (g *Generator) compositeElem(sym *symbols.TypeSymbol) bool {
	info, ok := sym.Info.(*symbols.ArrayInfo)
	if !ok {
		return false
	}
	elem := g.tab.Get(info.Elem)
	if elem == nil {
		return false
	}
	switch elem.Kind {
	case symbols.KindStruct, symbols.KindArray, symbols.KindArrayFixed,
		symbols.KindMap, symbols.KindSumType:
		return true
	}
	return false
}

func (g *Generator) sortComparator(args []ast.Expr) string {
	if len(args) == 0 {
		return "(a, b) => a < b ? -1 : a > b ? 1 : 0"
	}
	infix, ok := args[0].(*ast.InfixExpr)
	if !ok {
		g.fatalf("sort expects a comparison over a and b")
		return "undefined"
	}
	saved := g.vars
	g.vars = map[string]symbols.Type{"a": symbols.NoType, "b": symbols.NoType}
	left := g.expr(infix.Left)
	right := g.expr(infix.Right)
	g.vars = saved
	if infix.Op == token.Gt {
		left, right = right, left
	}
	return fmt.Sprintf("(a, b) => %s < %s ? -1 : %s < %s ? 1 : 0", left, right, right, left)
}

func (g *Generator) hasFn(key string) bool {
	_, ok := g.tab.FindFn(key)
	return ok
}

func (g *Generator) castExpr(e *ast.CastExpr) string {
	typ := g.resolveType(e.Type)
	sym := g.tab.Get(typ)
	val := g.expr(e.Value)
	if sym == nil {
		return val
	}
	switch {
	case sym.Kind.Is64Bit():
		return fmt.Sprintf("BigInt(%s)", val)
	case sym.Kind.IsInteger() || sym.Kind == symbols.KindChar:
		return fmt.Sprintf("Math.trunc(%s)", val)
	case sym.Kind == symbols.KindF32 || sym.Kind == symbols.KindF64:
		return fmt.Sprintf("Number(%s)", val)
	case sym.Kind == symbols.KindString:
		return fmt.Sprintf("String(%s)", val)
	case sym.Kind == symbols.KindBool:
		return fmt.Sprintf("Boolean(%s)", val)
	}
	return val
}

func (g *Generator) structInit(e *ast.StructInit) string {
	typ := g.resolveType(e.Type)
	sym := g.tab.Get(typ)
	var fields []string
	given := make(map[string]bool, len(e.Fields))
	for _, f := range e.Fields {
		given[f.Name] = true
		fields = append(fields, fmt.Sprintf("%s: %s", f.Name, g.expr(f.Value)))
	}
	if sym != nil {
		if info, ok := sym.Info.(*symbols.StructInfo); ok {
			for _, f := range info.Fields {
				if !given[f.Name] {
					fields = append(fields, fmt.Sprintf("%s: %s", f.Name, g.zeroValue(f.Type)))
				}
			}
		}
	}
	return "{ " + strings.Join(fields, ", ") + " }"
}

func (g *Generator) zeroValue(typ symbols.Type) string {
	sym := g.tab.Get(typ)
	if sym == nil {
		return "null"
	}
	switch sym.Kind {
	case symbols.KindString:
		return `""`
	case symbols.KindBool:
		return "false"
	case symbols.KindArray:
		return "[]"
	case symbols.KindMap:
		return "new Map()"
	case symbols.KindI64, symbols.KindU64:
		return "0n"
	case symbols.KindStruct, symbols.KindSumType, symbols.KindVoidptr:
		return "null"
	default:
		return "0"
	}
}

func (g *Generator) arrayInit(e *ast.ArrayInit) string {
	if len(e.Elems) > 0 {
		return "[" + g.argList(e.Elems) + "]"
	}
	if e.Len != nil {
		fill := "0"
		if e.Default != nil {
			fill = g.expr(e.Default)
		} else if e.ElemType != nil {
			fill = g.zeroValue(g.resolveType(e.ElemType))
		}
		return fmt.Sprintf("Array.from({ length: %s }, () => %s)", g.expr(e.Len), fill)
	}
	return "[]"
}

func (g *Generator) mapInit(e *ast.MapInit) string {
	if len(e.Keys) == 0 {
		return "new Map()"
	}
	var pairs []string
	for i := range e.Keys {
		pairs = append(pairs, fmt.Sprintf("[%s, %s]", g.expr(e.Keys[i]), g.expr(e.Vals[i])))
	}
	return "new Map([" + strings.Join(pairs, ", ") + "])"
}

func (g *Generator) ifValue(e *ast.IfExpr) string {
	thenVal, ok := tailExpr(e.Then)
	if e.Else == nil || !ok {
		g.ifStmt(e)
		return ""
	}
	switch els := e.Else.(type) {
	case *ast.Block:
		if elseVal, ok := tailExpr(els); ok {
			return fmt.Sprintf("(%s ? %s : %s)", g.expr(e.Cond), g.expr(thenVal), g.expr(elseVal))
		}
	case *ast.IfExpr:
		return fmt.Sprintf("(%s ? %s : %s)", g.expr(e.Cond), g.expr(thenVal), g.ifValue(els))
	}
	g.ifStmt(e)
	return ""
}

func (g *Generator) ifStmt(e *ast.IfExpr) {
	g.line("if (%s) {", g.expr(e.Cond))
	g.indent++
	for _, s := range e.Then.Stmts {
		g.stmt(s)
	}
	g.indent--
	switch els := e.Else.(type) {
	case nil:
		g.line("}")
	case *ast.Block:
		g.line("} else {")
		g.blockBody(els)
	case *ast.IfExpr:
		g.raw(strings.Repeat("\t", g.indent) + "} else ")
		g.ifChain(els)
	}
}

func (g *Generator) ifChain(e *ast.IfExpr) {
	g.raw("if (%s) {\n", g.expr(e.Cond))
	g.indent++
	for _, s := range e.Then.Stmts {
		g.stmt(s)
	}
	g.indent--
	switch els := e.Else.(type) {
	case nil:
		g.line("}")
	case *ast.Block:
		g.line("} else {")
		g.blockBody(els)
	case *ast.IfExpr:
		g.raw(strings.Repeat("\t", g.indent) + "} else ")
		g.ifChain(els)
	}
}

func tailExpr(b *ast.Block) (ast.Expr, bool) {
	if b == nil || len(b.Stmts) != 1 {
		return nil, false
	}
	es, ok := b.Stmts[0].(*ast.ExprStmt)
	if !ok {
		return nil, false
	}
	return es.X, true
}

func (g *Generator) matchValue(e *ast.MatchExpr) string {
	cond := g.nextTmp("mc")
	g.line("const %s = %s;", cond, g.expr(e.Cond))
	hasValue := false
	for _, arm := range e.Arms {
		if _, ok := tailExpr(arm.Body); ok {
			hasValue = true
			break
		}
	}
	res := ""
	if hasValue {
		res = g.nextTmp("mr")
		g.line("let %s;", res)
	}
	first := true
	for _, arm := range e.Arms {
		switch {
		case arm.IsElse:
			g.line("else {")
		case first:
			g.line("if (%s) {", g.armCond(cond, arm.Conds))
			first = false
		default:
			g.line("else if (%s) {", g.armCond(cond, arm.Conds))
		}
		g.indent++
		if tail, ok := tailExpr(arm.Body); ok && hasValue {
			g.line("%s = %s;", res, g.expr(tail))
		} else {
			for _, s := range arm.Body.Stmts {
				g.stmt(s)
			}
		}
		g.indent--
		g.line("}")
	}
	return res
}

func (g *Generator) armCond(cond string, conds []ast.Expr) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = fmt.Sprintf("%s === %s", cond, g.expr(c))
	}
	return strings.Join(parts, " || ")
}

func (g *Generator) anonFn(e *ast.AnonFn) string {
	fn := e.Decl
	var params []string
	saved := g.vars
	g.vars = make(map[string]symbols.Type)
	for k, v := range saved {
		g.vars[k] = v
	}
	for _, p := range fn.Params {
		g.vars[p.Name] = g.resolveType(p.Type)
		params = append(params, p.Name)
	}
	// single-return bodies collapse to an expression arrow
	if len(fn.Body.Stmts) == 1 {
		if ret, ok := fn.Body.Stmts[0].(*ast.ReturnStmt); ok && len(ret.Results) == 1 {
			out := fmt.Sprintf("(%s) => %s", strings.Join(params, ", "), g.expr(ret.Results[0]))
			g.vars = saved
			return out
		}
	}
	prev := g.out
	prevIndent := g.indent
	g.out = &strings.Builder{}
	g.indent = 1
	for _, s := range fn.Body.Stmts {
		g.stmt(s)
	}
	body := g.out.String()
	g.out = prev
	g.indent = prevIndent
	g.vars = saved
	return fmt.Sprintf("(%s) => {\n%s%s}", strings.Join(params, ", "), body, strings.Repeat("\t", g.indent))
}
