package cgen

import (
	"fmt"
	"strings"

	"veld/internal/ast"
	"veld/internal/symbols"
	"veld/internal/token"
)

// expr lowers an expression to a C rvalue string. Lowerings that need
// setup statements (map literals, match values, higher-order calls) emit
// them through g.line before returning the result temporary.
func (g *Generator) expr(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.Ident:
		return g.identExpr(e)
	case *ast.IntLit:
		return e.Value
	case *ast.FloatLit:
		return e.Value
	case *ast.CharLit:
		return "'" + e.Value + "'"
	case *ast.BoolLit:
		if e.Value {
			return "true"
		}
		return "false"
	case *ast.StringLit:
		return fmt.Sprintf("_SLIT(%q)", e.Value)
	case *ast.StringInterLit:
		return g.interpExpr(e)
	case *ast.InfixExpr:
		return g.infixExpr(e)
	case *ast.PrefixExpr:
		return g.prefixExpr(e)
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
		return g.liftAnonFn(e)
	case *ast.UnsafeExpr:
		return g.unsafeValue(e)
	case *ast.BadExpr:
		return "0"
	}
	g.fatalf("unhandled expression %T", e)
	return "0"
}

func (g *Generator) identExpr(e *ast.Ident) string {
	if e.Name == "none" {
		return "0"
	}
	if _, ok := g.vars[e.Name]; ok {
		return e.Name
	}
	if c, mod, ok := g.findConst(e); ok {
		return constCName(mod, c.Name)
	}
	if e.Mod != "" {
		return mangle(e.Mod, e.Name)
	}
	return e.Name
}

func (g *Generator) findConst(e *ast.Ident) (*ast.ConstField, string, bool) {
	if e.Mod != "" {
		if c, ok := g.tab.Consts[e.Mod+"."+e.Name]; ok {
			return c, e.Mod, true
		}
	}
	if c, ok := g.tab.Consts["main."+e.Name]; ok {
		return c, "main", true
	}
	if c, ok := g.tab.Consts[e.Name]; ok {
		return c, c.Mod, true
	}
	return nil, "", false
}

// interpExpr lowers an interpolated string to a str_intp varargs call:
// fragment strings interleaved with formatted values.
func (g *Generator) interpExpr(e *ast.StringInterLit) string {
	var args []string
	for i, part := range e.Parts {
		args = append(args, fmt.Sprintf("_SLIT(%q)", part))
		if i < len(e.Exprs) {
			args = append(args, g.formatValue(e.Exprs[i], e.Specs[i]))
		}
	}
	return fmt.Sprintf("str_intp(%d, %s)", len(args), strings.Join(args, ", "))
}

// formatValue renders one interpolation slot as a string expression.
func (g *Generator) formatValue(e ast.Expr, spec ast.FmtSpec) string {
	val := g.expr(e)
	typ := g.typeOf(e)
	sym := g.tab.Get(typ)
	if spec.Verb != 0 || spec.Width != 0 || spec.Precision != ast.PrecisionUnset || spec.PlusSign {
		prec := spec.Precision
		if prec == ast.PrecisionUnset {
			prec = -1
		}
		fill := spec.Fill
		if fill == 0 {
			fill = ' '
		}
		plus := 0
		if spec.PlusSign {
			plus = 1
		}
		return fmt.Sprintf("format_value((double)(%s), '%c', %d, %d, %d, '%c')",
			val, verbOrDefault(spec.Verb), spec.Width, prec, plus, fill)
	}
	if sym == nil {
		return fmt.Sprintf("int_str((int64_t)(%s))", val)
	}
	switch {
	case sym.Kind == symbols.KindString:
		return val
	case sym.Kind == symbols.KindBool:
		return fmt.Sprintf("bool_str(%s)", val)
	case sym.Kind == symbols.KindF32 || sym.Kind == symbols.KindF64:
		return fmt.Sprintf("float_str(%s)", val)
	case sym.Kind.IsInteger() || sym.Kind == symbols.KindChar:
		return fmt.Sprintf("int_str((int64_t)(%s))", val)
	default:
		// user types stringify through their generated str method
		return fmt.Sprintf("%s(%s)", methodName(sym.Name, "str"), val)
	}
}

func verbOrDefault(v byte) byte {
	if v == 0 {
		return 'v'
	}
	return v
}

func (g *Generator) infixExpr(e *ast.InfixExpr) string {
	if e.Op == token.EqEq || e.Op == token.BangEq {
		return g.equalityExpr(e)
	}
	if e.Op == token.DotDot {
		g.fatalf("range expression outside index or for-in position")
		return "0"
	}
	if e.Op == token.Plus {
		if sym := g.tab.Get(g.typeOf(e.Left)); sym != nil && sym.Kind == symbols.KindString {
			return fmt.Sprintf("string_concat(%s, %s)", g.expr(e.Left), g.expr(e.Right))
		}
	}
	if e.Op == token.KwIs {
		return g.isExpr(e)
	}
	return fmt.Sprintf("(%s %s %s)", g.expr(e.Left), e.Op.String(), g.expr(e.Right))
}

// isExpr lowers sum-type narrowing `x is Variant` to a tag comparison.
func (g *Generator) isExpr(e *ast.InfixExpr) string {
	variant, ok := e.Right.(*ast.Ident)
	if !ok {
		g.fatalf("right side of is must be a type name")
		return "0"
	}
	sumType := g.typeOf(e.Left)
	sym := g.tab.Get(sumType)
	if sym == nil {
		g.fatalf("cannot resolve sum type of is expression")
		return "0"
	}
	info, ok := sym.Info.(*symbols.SumTypeInfo)
	if !ok {
		g.fatalf("is applied to non-sum type %s", sym.Name)
		return "0"
	}
	for i, v := range info.Variants {
		if vsym := g.tab.Get(v); vsym != nil && vsym.Name == variant.FullName() {
			return fmt.Sprintf("(%s._tag == %d)", g.expr(e.Left), i)
		}
	}
	g.fatalf("%s is not a variant of %s", variant.Name, sym.Name)
	return "0"
}

func (g *Generator) equalityExpr(e *ast.InfixExpr) string {
	typ := g.typeOf(e.Left)
	if typ <= symbols.NoType {
		typ = g.typeOf(e.Right)
	}
	sym := g.tab.Get(typ)
	neg := ""
	if e.Op == token.BangEq {
		neg = "!"
	}
	if sym != nil {
		switch sym.Kind {
		case symbols.KindString:
			return fmt.Sprintf("%sstring_eq(%s, %s)", neg, g.expr(e.Left), g.expr(e.Right))
		case symbols.KindStruct, symbols.KindArray, symbols.KindArrayFixed,
			symbols.KindMap, symbols.KindSumType, symbols.KindAlias:
			if eq := g.eqFor(typ); eq != "" {
				return fmt.Sprintf("%s%s(%s, %s)", neg, eq, g.expr(e.Left), g.expr(e.Right))
			}
		}
	}
	return fmt.Sprintf("(%s %s %s)", g.expr(e.Left), e.Op.String(), g.expr(e.Right))
}

func (g *Generator) prefixExpr(e *ast.PrefixExpr) string {
	if e.Op == token.Amp {
		if init, ok := e.Right.(*ast.StructInit); ok {
			heaped := *init
			heaped.IsRef = true
			return g.structInit(&heaped)
		}
		val := g.expr(e.Right)
		typ := g.typeOf(e.Right)
		return fmt.Sprintf("(%s*)memdup(&(%s), sizeof(%s))", g.ctype(typ), val, g.ctype(typ))
	}
	return fmt.Sprintf("%s(%s)", e.Op.String(), g.expr(e.Right))
}

func (g *Generator) indexExpr(e *ast.IndexExpr) string {
	base := g.expr(e.X)
	typ := g.typeOf(e.X)
	sym := g.tab.Get(typ)
	if sym == nil {
		return fmt.Sprintf("%s[%s]", base, g.expr(e.Index))
	}
	switch sym.Kind {
	case symbols.KindArray:
		elem := sym.Info.(*symbols.ArrayInfo).Elem
		if e.IsSlice {
			return g.sliceExpr(base, e)
		}
		return fmt.Sprintf("(*(%s*)array_get(%s, %s))", g.ctype(elem), base, g.expr(e.Index))
	case symbols.KindArrayFixed:
		return fmt.Sprintf("%s[%s]", base, g.expr(e.Index))
	case symbols.KindMap:
		info := sym.Info.(*symbols.MapInfo)
		return fmt.Sprintf("(*(%s*)map_get(&%s, %s))", g.ctype(info.Value), base, g.expr(e.Index))
	case symbols.KindString:
		if e.IsSlice {
			return g.sliceExpr(base, e)
		}
		return fmt.Sprintf("%s.str[%s]", base, g.expr(e.Index))
	}
	return fmt.Sprintf("%s[%s]", base, g.expr(e.Index))
}

func (g *Generator) sliceExpr(base string, e *ast.IndexExpr) string {
	lo := "0"
	if e.Low != nil {
		lo = g.expr(e.Low)
	}
	hi := base + ".len"
	if e.High != nil {
		hi = g.expr(e.High)
	}
	sym := g.tab.Get(g.typeOf(e.X))
	if sym != nil && sym.Kind == symbols.KindString {
		return fmt.Sprintf("string_substr(%s, %s, %s)", base, lo, hi)
	}
	return fmt.Sprintf("array_slice(%s, %s, %s)", base, lo, hi)
}

func (g *Generator) selectorExpr(e *ast.SelectorExpr) string {
	// leading-dot enum shorthand and Type.variant selectors
	if e.X == nil {
		return e.Sel // resolved against the expected enum by the C compiler
	}
	if id, ok := e.X.(*ast.Ident); ok && id.Mod == "" {
		if typ, found := g.tab.Find(id.Name); found {
			if sym := g.tab.Get(typ); sym != nil && sym.Kind == symbols.KindEnum {
				return sym.CName + "__" + e.Sel
			}
		}
		if info, ok := g.vars[id.Name]; ok && info.isRef {
			return id.Name + "->" + e.Sel
		}
	}
	return g.expr(e.X) + "." + e.Sel
}

func (g *Generator) callExpr(e *ast.CallExpr) string {
	switch fun := e.Fun.(type) {
	case *ast.Ident:
		return g.namedCall(fun, e.Args)
	case *ast.SelectorExpr:
		return g.methodCall(fun, e.Args)
	case *ast.AnonFn:
		name := g.liftAnonFn(fun)
		return fmt.Sprintf("%s(%s)", name, g.argList(e.Args))
	}
	g.fatalf("uncallable expression %T", e.Fun)
	return "0"
}

func (g *Generator) namedCall(fun *ast.Ident, args []ast.Expr) string {
	name := fun.Name
	switch {
	case fun.Mod != "":
		name = mangle(fun.Mod, fun.Name)
	case isRuntimeCall(fun.Name):
		// println and friends keep their runtime names
	case g.hasFn("main." + fun.Name):
		name = fun.Name
	case g.hasFn("builtin." + fun.Name):
		name = fun.Name
	}
	return fmt.Sprintf("%s(%s)", name, g.argList(args))
}

func isRuntimeCall(name string) bool {
	switch name {
	case "println", "eprintln", "print", "panic", "exit", "malloc", "free":
		return true
	}
	return false
}

func (g *Generator) hasFn(key string) bool {
	_, ok := g.tab.FindFn(key)
	return ok
}

func (g *Generator) methodCall(fun *ast.SelectorExpr, args []ast.Expr) string {
	if hof := g.hofCall(fun, args); hof != "" {
		return hof
	}
	recvType := g.typeOf(fun.X)
	sym := g.tab.Get(recvType)
	recv := g.expr(fun.X)

	if sym != nil {
		switch sym.Kind {
		case symbols.KindArray:
			if builtin := g.arrayBuiltinCall(fun.Sel, recv, sym, args); builtin != "" {
				return builtin
			}
		case symbols.KindMap:
			if builtin := g.mapBuiltinCall(fun.Sel, recv, args); builtin != "" {
				return builtin
			}
		case symbols.KindString:
			if builtin := g.stringBuiltinCall(fun.Sel, recv, args); builtin != "" {
				return builtin
			}
		}
		// Composite type names ("[]int") are not C identifiers; without a
		// registered user method the call cannot lower.
		switch sym.Kind {
		case symbols.KindArray, symbols.KindArrayFixed, symbols.KindMap, symbols.KindString:
			if !g.hasFn(sym.Name + "." + fun.Sel) {
				g.fatalf("unknown %s method %s", sym.Kind, fun.Sel)
				return "0"
			}
		}
		callee := methodName(sym.Name, fun.Sel)
		if len(args) == 0 {
			return fmt.Sprintf("%s(%s)", callee, recv)
		}
		return fmt.Sprintf("%s(%s, %s)", callee, recv, g.argList(args))
	}

	// receiver type unknown: assume a module-qualified function call
	if id, ok := fun.X.(*ast.Ident); ok {
		return fmt.Sprintf("%s(%s)", mangle(id.Name, fun.Sel), g.argList(args))
	}
	g.fatalf("cannot resolve method %s", fun.Sel)
	return "0"
}

func (g *Generator) arrayBuiltinCall(sel, recv string, sym *symbols.TypeSymbol, args []ast.Expr) string {
	elem := sym.Info.(*symbols.ArrayInfo).Elem
	switch sel {
	case "push":
		return fmt.Sprintf("array_push(&%s, &(%s[]){%s})", recv, g.ctype(elem), g.argList(args))
	case "len":
		return recv + ".len"
	case "clone":
		return fmt.Sprintf("array_clone(%s)", recv)
	case "first":
		return fmt.Sprintf("(*(%s*)array_get(%s, 0))", g.ctype(elem), recv)
	case "last":
		return fmt.Sprintf("(*(%s*)array_get(%s, %s.len - 1))", g.ctype(elem), recv, recv)
	case "contains":
		return fmt.Sprintf("%s(%s, %s)", g.containsFor(sym, elem), recv, g.argList(args))
	case "index":
		return fmt.Sprintf("%s(%s, %s)", g.indexFor(sym, elem), recv, g.argList(args))
	}
	return ""
}

func (g *Generator) mapBuiltinCall(sel, recv string, args []ast.Expr) string {
	switch sel {
	case "len":
		return recv + ".len"
	case "keys":
		return fmt.Sprintf("map_keys(&%s)", recv)
	case "values":
		return fmt.Sprintf("map_values(&%s)", recv)
	case "delete":
		return fmt.Sprintf("map_delete(&%s, %s)", recv, g.argList(args))
	case "exists":
		return fmt.Sprintf("map_exists(&%s, %s)", recv, g.argList(args))
	case "clone":
		return fmt.Sprintf("map_clone(&%s)", recv)
	}
	return ""
}

func (g *Generator) stringBuiltinCall(sel, recv string, args []ast.Expr) string {
	switch sel {
	case "len":
		return recv + ".len"
	case "clone":
		return fmt.Sprintf("string_clone(%s)", recv)
	case "str":
		return recv
	}
	return ""
}

func (g *Generator) argList(args []ast.Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = g.expr(a)
	}
	return strings.Join(parts, ", ")
}

func (g *Generator) castExpr(e *ast.CastExpr) string {
	typ := g.resolveType(e.Type)
	sym := g.tab.Get(typ)
	val := g.expr(e.Value)
	if sym != nil && sym.Kind == symbols.KindString {
		from := g.tab.Get(g.typeOf(e.Value))
		if from != nil && from.Kind.IsInteger() {
			return fmt.Sprintf("int_str((int64_t)(%s))", val)
		}
	}
	return fmt.Sprintf("((%s)(%s))", g.ctype(typ), val)
}

func (g *Generator) structInit(e *ast.StructInit) string {
	typ := g.resolveType(e.Type)
	sym := g.tab.Get(typ)
	if sym == nil {
		g.fatalf("struct literal of unknown type")
		return "0"
	}
	var fields []string
	given := make(map[string]bool, len(e.Fields))
	for _, f := range e.Fields {
		given[f.Name] = true
		fields = append(fields, fmt.Sprintf(".%s = %s", f.Name, g.expr(f.Value)))
	}
	// zero-fill remaining fields so partial literals stay deterministic
	if info, ok := sym.Info.(*symbols.StructInfo); ok {
		for _, f := range info.Fields {
			if !given[f.Name] {
				fields = append(fields, fmt.Sprintf(".%s = %s", f.Name, g.zeroValue(f.Type)))
			}
		}
	}
	lit := fmt.Sprintf("((%s){%s})", sym.CName, strings.Join(fields, ", "))
	if e.IsRef {
		return fmt.Sprintf("(%s*)memdup(&%s, sizeof(%s))", sym.CName, lit, sym.CName)
	}
	return lit
}

func (g *Generator) zeroValue(typ symbols.Type) string {
	sym := g.tab.Get(typ)
	if sym == nil {
		return "0"
	}
	switch sym.Kind {
	case symbols.KindString:
		return "_SLIT(\"\")"
	case symbols.KindStruct, symbols.KindArray, symbols.KindMap, symbols.KindSumType:
		return fmt.Sprintf("(%s){0}", g.ctype(typ))
	default:
		return "0"
	}
}

func (g *Generator) mapInit(e *ast.MapInit) string {
	keyType := g.mapKeyType(e)
	valType := g.mapValType(e)
	tmp := g.nextTmp("m")
	g.line("map %s = new_map(sizeof(%s), sizeof(%s));", tmp, g.ctype(keyType), g.ctype(valType))
	for i := range e.Keys {
		g.line("map_set(&%s, %s, &(%s[]){%s});",
			tmp, g.expr(e.Keys[i]), g.ctype(valType), g.expr(e.Vals[i]))
	}
	g.tab.FindOrRegisterMap(keyType, valType)
	return tmp
}

func (g *Generator) mapKeyType(e *ast.MapInit) symbols.Type {
	if e.KeyType != nil {
		return g.resolveType(e.KeyType)
	}
	if len(e.Keys) > 0 {
		return g.typeOf(e.Keys[0])
	}
	return g.builtin("string")
}

func (g *Generator) mapValType(e *ast.MapInit) symbols.Type {
	if e.ValType != nil {
		return g.resolveType(e.ValType)
	}
	if len(e.Vals) > 0 {
		return g.typeOf(e.Vals[0])
	}
	return g.builtin("int")
}

// ifValue lowers an if in value position. Both branches must end in an
// expression; they collapse to a C conditional.
func (g *Generator) ifValue(e *ast.IfExpr) string {
	thenVal, ok1 := tailExpr(e.Then)
	if e.Else == nil || !ok1 {
		// statement position: emit and yield nothing
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
		g.indent++
		for _, s := range els.Stmts {
			g.stmt(s)
		}
		g.indent--
		g.line("}")
	case *ast.IfExpr:
		g.raw(strings.Repeat("\t", g.indent) + "} else ")
		// chain continues on the same line
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
		g.indent++
		for _, s := range els.Stmts {
			g.stmt(s)
		}
		g.indent--
		g.line("}")
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

// matchValue lowers a match in value position: a result temporary is
// assigned in an if/else chain over the arm conditions.
func (g *Generator) matchValue(e *ast.MatchExpr) string {
	condType := g.typeOf(e.Cond)
	cond := g.nextTmp("mc")
	g.line("%s %s = %s;", g.ctype(condType), cond, g.expr(e.Cond))

	var resType symbols.Type = symbols.NoType
	for _, arm := range e.Arms {
		if tail, ok := tailExpr(arm.Body); ok {
			if t := g.typeOf(tail); t > symbols.NoType {
				resType = t
				break
			}
		}
	}
	isValue := resType > symbols.NoType
	res := ""
	if isValue {
		res = g.nextTmp("mr")
		g.line("%s %s = %s;", g.ctype(resType), res, g.zeroValue(resType))
	}

	first := true
	for _, arm := range e.Arms {
		switch {
		case arm.IsElse:
			g.line("else {")
		case first:
			g.line("if (%s) {", g.armCond(cond, condType, arm.Conds))
			first = false
		default:
			g.line("else if (%s) {", g.armCond(cond, condType, arm.Conds))
		}
		g.indent++
		if tail, ok := tailExpr(arm.Body); ok && isValue {
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

func (g *Generator) armCond(cond string, condType symbols.Type, conds []ast.Expr) string {
	sym := g.tab.Get(condType)
	parts := make([]string, len(conds))
	for i, c := range conds {
		val := g.expr(c)
		if sym != nil && sym.Kind == symbols.KindString {
			parts[i] = fmt.Sprintf("string_eq(%s, %s)", cond, val)
		} else if sel, ok := c.(*ast.SelectorExpr); ok && sel.X == nil && sym != nil && sym.Kind == symbols.KindEnum {
			parts[i] = fmt.Sprintf("%s == %s__%s", cond, sym.CName, sel.Sel)
		} else {
			parts[i] = fmt.Sprintf("%s == %s", cond, val)
		}
	}
	return strings.Join(parts, " || ")
}

// liftAnonFn hoists an anonymous function into a file-scope static and
// returns its name.
func (g *Generator) liftAnonFn(e *ast.AnonFn) string {
	name := g.nextTmp("anon")
	fn := e.Decl

	savedVars := g.vars
	savedOut := g.out
	g.vars = make(map[string]varInfo)
	g.out = &g.helpers

	ret := "void"
	if fn.RetType != nil {
		ret = g.ctype(g.resolveType(fn.RetType))
	}
	sig := ""
	for _, p := range fn.Params {
		pt := g.resolveType(p.Type)
		g.vars[p.Name] = varInfo{typ: pt}
		if sig != "" {
			sig += ", "
		}
		sig += g.ctype(pt) + " " + p.Name
	}
	if sig == "" {
		sig = "void"
	}
	g.line("static %s %s(%s) {", ret, name, sig)
	g.indent++
	for _, s := range fn.Body.Stmts {
		g.stmt(s)
	}
	g.indent--
	g.line("}")

	g.vars = savedVars
	g.out = savedOut
	return name
}

func (g *Generator) unsafeValue(e *ast.UnsafeExpr) string {
	last := len(e.Stmts) - 1
	for i, s := range e.Stmts {
		if i == last {
			if es, ok := s.(*ast.ExprStmt); ok {
				return g.expr(es.X)
			}
		}
		g.stmt(s)
	}
	return ""
}
