package cgen

import (
	"fmt"
	"strings"

	"veld/internal/ast"
	"veld/internal/symbols"
	"veld/internal/token"
)

// hofCall lowers the array higher-order builtins (map, filter, any, all,
// sort) to explicit loops. Returns "" when the call is not one of them.
func (g *Generator) hofCall(fun *ast.SelectorExpr, args []ast.Expr) string {
	switch fun.Sel {
	case "map", "filter", "any", "all", "sort":
	default:
		return ""
	}
	recvType := g.typeOf(fun.X)
	sym := g.tab.Get(recvType)
	if sym == nil || sym.Kind != symbols.KindArray {
		return ""
	}
	elem := sym.Info.(*symbols.ArrayInfo).Elem

	if fun.Sel == "sort" {
		return g.sortCall(fun.X, elem, args)
	}
	if len(args) != 1 {
		g.fatalf("%s expects exactly one callback", fun.Sel)
		return "0"
	}

	src := g.nextTmp("src")
	g.line("array %s = %s;", src, g.expr(fun.X))
	idx := g.nextTmp("i")

	switch fun.Sel {
	case "map":
		return g.mapLoop(src, idx, elem, args[0])
	case "filter":
		return g.filterLoop(src, idx, elem, args[0])
	case "any":
		return g.anyAllLoop(src, idx, elem, args[0], true)
	case "all":
		return g.anyAllLoop(src, idx, elem, args[0], false)
	}
	return ""
}

// callbackCall renders the per-element invocation for a callback argument.
// Four forms are accepted: a named function, a method value (Type.method),
// an anonymous function, and any other expression used inline with the
// element bound to `it`.
func (g *Generator) callbackCall(cb ast.Expr, elem symbols.Type) string {
	switch cb := cb.(type) {
	case *ast.Ident:
		if g.hasFn(cb.FullName()) || g.hasFn("main."+cb.Name) {
			return fmt.Sprintf("%s(it)", mangle(cb.Mod, cb.Name))
		}
	case *ast.SelectorExpr:
		if id, ok := cb.X.(*ast.Ident); ok && id.Mod == "" {
			if _, found := g.tab.Find(id.Name); found {
				return fmt.Sprintf("%s(it)", methodName(id.Name, cb.Sel))
			}
		}
	case *ast.AnonFn:
		return fmt.Sprintf("%s(it)", g.liftAnonFn(cb))
	}
	// inline expression over `it`
	saved, had := g.vars["it"]
	g.vars["it"] = varInfo{typ: elem}
	out := g.expr(cb)
	if had {
		g.vars["it"] = saved
	} else {
		delete(g.vars, "it")
	}
	return out
}

func (g *Generator) mapLoop(src, idx string, elem symbols.Type, cb ast.Expr) string {
	ret := g.callbackRetType(cb)
	if ret <= symbols.NoType {
		ret = elem
	}
	noscan := ""
	if g.noscan(ret) {
		noscan = "_noscan"
	}
	dst := g.nextTmp("res")
	g.line("array %s = new_array%s(0, %s.len, sizeof(%s));", dst, noscan, src, g.ctype(ret))
	g.line("for (int %s = 0; %s < %s.len; %s++) {", idx, idx, src, idx)
	g.indent++
	g.line("%s it = ((%s*)%s.data)[%s];", g.ctype(elem), g.ctype(elem), src, idx)
	g.line("%s %s_v = %s;", g.ctype(ret), dst, g.callbackCall(cb, elem))
	g.line("array_push(&%s, &%s_v);", dst, dst)
	g.indent--
	g.line("}")
	return dst
}

func (g *Generator) filterLoop(src, idx string, elem symbols.Type, cb ast.Expr) string {
	noscan := ""
	if g.noscan(elem) {
		noscan = "_noscan"
	}
	dst := g.nextTmp("res")
	g.line("array %s = new_array%s(0, %s.len, sizeof(%s));", dst, noscan, src, g.ctype(elem))
	g.line("for (int %s = 0; %s < %s.len; %s++) {", idx, idx, src, idx)
	g.indent++
	g.line("%s it = ((%s*)%s.data)[%s];", g.ctype(elem), g.ctype(elem), src, idx)
	g.line("if (%s) {", g.callbackCall(cb, elem))
	g.indent++
	g.line("array_push(&%s, &it);", dst)
	g.indent--
	g.line("}")
	g.indent--
	g.line("}")
	return dst
}

func (g *Generator) anyAllLoop(src, idx string, elem symbols.Type, cb ast.Expr, isAny bool) string {
	dst := g.nextTmp("res")
	if isAny {
		g.line("bool %s = false;", dst)
	} else {
		g.line("bool %s = true;", dst)
	}
	g.line("for (int %s = 0; %s < %s.len; %s++) {", idx, idx, src, idx)
	g.indent++
	g.line("%s it = ((%s*)%s.data)[%s];", g.ctype(elem), g.ctype(elem), src, idx)
	cond := g.callbackCall(cb, elem)
	if isAny {
		g.line("if (%s) { %s = true; break; }", cond, dst)
	} else {
		g.line("if (!(%s)) { %s = false; break; }", cond, dst)
	}
	g.indent--
	g.line("}")
	return dst
}

// sortCall lowers arr.sort() and arr.sort(a.field < b.field). The
// comparator is synthesized once per field path and direction; which
// lambda parameter appears on the left of the comparison decides the
// direction (b on the left means descending).
func (g *Generator) sortCall(recv ast.Expr, elem symbols.Type, args []ast.Expr) string {
	var cmp string
	switch len(args) {
	case 0:
		cmp = g.comparator(elem, nil, true)
	case 1:
		infix, ok := args[0].(*ast.InfixExpr)
		if !ok || (infix.Op != token.Lt && infix.Op != token.Gt) {
			g.fatalf("sort expects a < or > comparison over a and b")
			return "0"
		}
		path, leftParam := fieldPathOf(infix.Left)
		if leftParam != "a" && leftParam != "b" {
			g.fatalf("sort comparison must use the a and b parameters")
			return "0"
		}
		asc := leftParam == "a"
		if infix.Op == token.Gt {
			asc = !asc
		}
		cmp = g.comparator(elem, path, asc)
	default:
		g.fatalf("sort takes at most one comparison")
		return "0"
	}
	tmp := g.nextTmp("sorted")
	g.line("array %s = array_clone(%s);", tmp, g.expr(recv))
	g.line("array_sort(&%s, %s);", tmp, cmp)
	return tmp
}

// fieldPathOf extracts the selector chain of a comparison operand:
// a.pos.x yields (["pos","x"], "a").
func fieldPathOf(e ast.Expr) ([]string, string) {
	var path []string
	for {
		switch x := e.(type) {
		case *ast.Ident:
			return path, x.Name
		case *ast.SelectorExpr:
			path = append([]string{x.Sel}, path...)
			e = x.X
		default:
			return nil, ""
		}
	}
}

// comparator returns the name of a qsort-compatible compare function for
// elem over the given field path, synthesizing it on first use.
func (g *Generator) comparator(elem symbols.Type, path []string, asc bool) string {
	key := fmt.Sprintf("%d.%s", elem, strings.Join(path, "."))
	if asc {
		key += "<"
	} else {
		key += ">"
	}
	if name, ok := g.cmpDone[key]; ok {
		return name
	}

	name := "_sort_cmp_" + g.tab.Get(elem).CName
	if len(path) > 0 {
		name += "_" + strings.Join(path, "_")
	}
	if asc {
		name += "_asc"
	} else {
		name += "_desc"
	}
	g.cmpDone[key] = name

	field := ""
	if len(path) > 0 {
		field = "." + strings.Join(path, ".")
	}
	fieldType := g.fieldPathType(elem, path)

	lhs, rhs := "a", "b"
	if !asc {
		lhs, rhs = "b", "a"
	}

	prev := g.out
	g.out = &g.helpers
	et := g.ctype(elem)
	g.line("static int %s(const void* pa, const void* pb) {", name)
	g.indent++
	g.line("%s a = *(const %s*)pa;", et, et)
	g.line("%s b = *(const %s*)pb;", et, et)
	if fsym := g.tab.Get(fieldType); fsym != nil && fsym.Kind == symbols.KindString {
		g.line("return string_cmp(%s%s, %s%s);", lhs, field, rhs, field)
	} else {
		g.line("if (%s%s < %s%s) return -1;", lhs, field, rhs, field)
		g.line("if (%s%s < %s%s) return 1;", rhs, field, lhs, field)
		g.line("return 0;")
	}
	g.indent--
	g.line("}")
	g.out = prev
	return name
}

func (g *Generator) fieldPathType(elem symbols.Type, path []string) symbols.Type {
	typ := elem
	for _, seg := range path {
		sym := g.tab.Get(typ)
		if sym == nil {
			return symbols.NoType
		}
		info, ok := sym.Info.(*symbols.StructInfo)
		if !ok {
			return symbols.NoType
		}
		found := symbols.NoType
		for _, f := range info.Fields {
			if f.Name == seg {
				found = f.Type
				break
			}
		}
		typ = found
	}
	return typ
}
