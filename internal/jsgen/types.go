package jsgen

import (
	"strconv"

	"veld/internal/ast"
	"veld/internal/symbols"
	"veld/internal/token"
)

// resolveType maps a syntactic type expression to its symbol-table entry.
// Composite types are interned on first sight, same as the C backend.
func (g *Generator) resolveType(e ast.Expr) symbols.Type {
	switch e := e.(type) {
	case *ast.NamedType:
		if e.Mod != "" {
			if typ, ok := g.tab.Find(e.Mod + "." + e.Name); ok {
				return typ
			}
		}
		if typ, ok := g.tab.Find(e.Name); ok {
			return typ
		}
		if typ, ok := g.tab.Find("main." + e.Name); ok {
			return typ
		}
		return symbols.NoType
	case *ast.ArrayType:
		elem := g.resolveType(e.Elem)
		if e.IsFixed {
			size := 0
			if lit, ok := e.Len.(*ast.IntLit); ok {
				size, _ = strconv.Atoi(lit.Value)
			}
			return g.tab.FindOrRegisterFixedArray(elem, size)
		}
		return g.tab.FindOrRegisterArray(elem)
	case *ast.MapType:
		return g.tab.FindOrRegisterMap(g.resolveType(e.Key), g.resolveType(e.Value))
	case *ast.RefType:
		return g.resolveType(e.Base)
	case *ast.FnType:
		return g.builtin("voidptr")
	}
	return symbols.NoType
}

// typeOf infers the type of an expression. NoType means unknown and the
// lowering degrades to plain JS semantics.
func (g *Generator) typeOf(e ast.Expr) symbols.Type {
	switch e := e.(type) {
	case *ast.IntLit:
		return g.builtin("int")
	case *ast.FloatLit:
		return g.builtin("f64")
	case *ast.CharLit:
		return g.builtin("char")
	case *ast.BoolLit:
		return g.builtin("bool")
	case *ast.StringLit, *ast.StringInterLit:
		return g.builtin("string")
	case *ast.Ident:
		return g.identType(e)
	case *ast.CastExpr:
		return g.resolveType(e.Type)
	case *ast.StructInit:
		return g.resolveType(e.Type)
	case *ast.ArrayInit:
		return g.arrayInitType(e)
	case *ast.MapInit:
		return g.tab.FindOrRegisterMap(g.signalType(e.Keys), g.signalType(e.Vals))
	case *ast.InfixExpr:
		if e.Op.IsComparison() || e.Op == token.AndAnd || e.Op == token.OrOr || e.Op == token.KwIs {
			return g.builtin("bool")
		}
		if t := g.typeOf(e.Left); t > symbols.NoType {
			return t
		}
		return g.typeOf(e.Right)
	case *ast.PrefixExpr:
		if e.Op == token.Bang {
			return g.builtin("bool")
		}
		return g.typeOf(e.Right)
	case *ast.IndexExpr:
		return g.indexType(e)
	case *ast.SelectorExpr:
		return g.selectorType(e)
	case *ast.CallExpr:
		return g.callType(e)
	case *ast.IfExpr:
		if tail, ok := tailExpr(e.Then); ok {
			return g.typeOf(tail)
		}
	case *ast.MatchExpr:
		for _, arm := range e.Arms {
			if tail, ok := tailExpr(arm.Body); ok {
				if t := g.typeOf(tail); t > symbols.NoType {
					return t
				}
			}
		}
	case *ast.UnsafeExpr:
		if len(e.Stmts) > 0 {
			if es, ok := e.Stmts[len(e.Stmts)-1].(*ast.ExprStmt); ok {
				return g.typeOf(es.X)
			}
		}
	}
	return symbols.NoType
}

func (g *Generator) signalType(exprs []ast.Expr) symbols.Type {
	if len(exprs) == 0 {
		return g.builtin("int")
	}
	return g.typeOf(exprs[0])
}

func (g *Generator) identType(e *ast.Ident) symbols.Type {
	if typ, ok := g.vars[e.Name]; ok {
		return typ
	}
	for _, key := range []string{e.FullName(), "main." + e.Name, e.Name} {
		if c, ok := g.tab.Consts[key]; ok {
			return g.typeOf(c.Value)
		}
		if global, ok := g.tab.Globals[key]; ok {
			return g.resolveType(global.Type)
		}
	}
	return symbols.NoType
}

func (g *Generator) arrayInitType(e *ast.ArrayInit) symbols.Type {
	var elem symbols.Type = symbols.NoType
	if e.ElemType != nil {
		elem = g.resolveType(e.ElemType)
	} else if len(e.Elems) > 0 {
		elem = g.typeOf(e.Elems[0])
	}
	if elem <= symbols.NoType {
		elem = g.builtin("int")
	}
	if e.IsFixed {
		size := len(e.Elems)
		if lit, ok := e.Len.(*ast.IntLit); ok {
			size, _ = strconv.Atoi(lit.Value)
		}
		return g.tab.FindOrRegisterFixedArray(elem, size)
	}
	return g.tab.FindOrRegisterArray(elem)
}

func (g *Generator) indexType(e *ast.IndexExpr) symbols.Type {
	base := g.typeOf(e.X)
	sym := g.tab.Get(base)
	if sym == nil {
		return symbols.NoType
	}
	if e.IsSlice {
		return base
	}
	switch info := sym.Info.(type) {
	case *symbols.ArrayInfo:
		return info.Elem
	case *symbols.ArrayFixedInfo:
		return info.Elem
	case *symbols.MapInfo:
		return info.Value
	}
	if sym.Kind == symbols.KindString {
		return g.builtin("u8")
	}
	return symbols.NoType
}

func (g *Generator) selectorType(e *ast.SelectorExpr) symbols.Type {
	if e.X == nil {
		return symbols.NoType
	}
	if id, ok := e.X.(*ast.Ident); ok && id.Mod == "" {
		if typ, found := g.tab.Find(id.Name); found {
			if sym := g.tab.Get(typ); sym != nil && sym.Kind == symbols.KindEnum {
				return typ
			}
		}
	}
	sym := g.tab.Get(g.typeOf(e.X))
	if sym == nil {
		return symbols.NoType
	}
	if info, ok := sym.Info.(*symbols.StructInfo); ok {
		for _, f := range info.Fields {
			if f.Name == e.Sel {
				return f.Type
			}
		}
	}
	return symbols.NoType
}

func (g *Generator) callType(e *ast.CallExpr) symbols.Type {
	switch fun := e.Fun.(type) {
	case *ast.Ident:
		for _, key := range []string{fun.FullName(), "main." + fun.Name, "builtin." + fun.Name} {
			if fn, ok := g.tab.FindFn(key); ok && fn.RetType != nil {
				return g.resolveType(fn.RetType)
			}
		}
	case *ast.SelectorExpr:
		recvType := g.typeOf(fun.X)
		if sym := g.tab.Get(recvType); sym != nil {
			switch fun.Sel {
			case "filter", "sort", "clone", "keys", "values":
				return recvType
			case "len", "index":
				return g.builtin("int")
			case "any", "all", "exists", "contains":
				return g.builtin("bool")
			case "str":
				return g.builtin("string")
			}
			if fn, ok := g.tab.FindFn(sym.Name + "." + fun.Sel); ok && fn.RetType != nil {
				return g.resolveType(fn.RetType)
			}
		}
	}
	return symbols.NoType
}
