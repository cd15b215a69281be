package cgen

import (
	"fmt"

	"veld/internal/symbols"
)

// eqFor returns the name of the structural equality function for typ,
// synthesizing it on first use. Returns "" for types C compares natively
// with ==. Generated functions are memoized per instantiated type, so
// mutually recursive types terminate: the name is recorded before the
// body is emitted.
func (g *Generator) eqFor(typ symbols.Type) string {
	sym := g.tab.Get(typ)
	if sym == nil {
		return ""
	}
	switch sym.Kind {
	case symbols.KindStruct, symbols.KindArray, symbols.KindArrayFixed,
		symbols.KindMap, symbols.KindSumType:
	case symbols.KindAlias:
		return g.eqFor(sym.Info.(*symbols.AliasInfo).Parent)
	case symbols.KindString:
		return "string_eq"
	default:
		return ""
	}
	if name, ok := g.eqDone[typ]; ok {
		return name
	}
	name := sym.CName + "__eq"
	g.eqDone[typ] = name

	prev := g.out
	g.out = &g.helpers
	switch info := sym.Info.(type) {
	case *symbols.StructInfo:
		g.structEq(name, sym, info)
	case *symbols.ArrayInfo:
		g.arrayEq(name, info.Elem)
	case *symbols.ArrayFixedInfo:
		g.fixedArrayEq(name, sym, info)
	case *symbols.MapInfo:
		g.mapEq(name, sym, info)
	case *symbols.SumTypeInfo:
		g.sumTypeEq(name, sym, info)
	}
	g.out = prev
	return name
}

// fieldEq renders the comparison of one pair of values of the given type.
func (g *Generator) fieldEq(typ symbols.Type, l, r string) string {
	sym := g.tab.Get(typ)
	if sym == nil {
		return fmt.Sprintf("%s == %s", l, r)
	}
	switch sym.Kind {
	case symbols.KindString:
		return fmt.Sprintf("string_eq(%s, %s)", l, r)
	case symbols.KindStruct, symbols.KindArray, symbols.KindArrayFixed,
		symbols.KindMap, symbols.KindSumType, symbols.KindAlias:
		if eq := g.eqFor(typ); eq != "" {
			return fmt.Sprintf("%s(%s, %s)", eq, l, r)
		}
	}
	return fmt.Sprintf("%s == %s", l, r)
}

func (g *Generator) structEq(name string, sym *symbols.TypeSymbol, info *symbols.StructInfo) {
	t := sym.CName
	// field comparisons resolve first: a nested composite field may
	// synthesize its own helper, which must land before this body
	cmps := make([]string, len(info.Fields))
	for i, f := range info.Fields {
		cmps[i] = g.fieldEq(f.Type, "a."+f.Name, "b."+f.Name)
	}
	g.line("static bool %s(%s a, %s b) {", name, t, t)
	g.indent++
	if info.HasEqOverride {
		// a user-defined == operator method takes over whole-struct equality
		g.line("return %s(a, b);", methodName(sym.Name, "eq"))
	} else if len(info.Fields) == 0 {
		g.line("return true;")
	} else {
		for _, cmp := range cmps {
			g.line("if (!(%s)) return false;", cmp)
		}
		g.line("return true;")
	}
	g.indent--
	g.line("}")
}

func (g *Generator) arrayEq(name string, elem symbols.Type) {
	et := g.ctype(elem)
	cmp := g.fieldEq(elem, "av", "bv")
	g.line("static bool %s(array a, array b) {", name)
	g.indent++
	g.line("if (a.len != b.len) return false;")
	g.line("for (int i = 0; i < a.len; i++) {")
	g.indent++
	g.line("%s av = ((%s*)a.data)[i];", et, et)
	g.line("%s bv = ((%s*)b.data)[i];", et, et)
	g.line("if (!(%s)) return false;", cmp)
	g.indent--
	g.line("}")
	g.line("return true;")
	g.indent--
	g.line("}")
}

func (g *Generator) fixedArrayEq(name string, sym *symbols.TypeSymbol, info *symbols.ArrayFixedInfo) {
	et := g.ctype(info.Elem)
	cmp := g.fieldEq(info.Elem, "a[i]", "b[i]")
	g.line("static bool %s(%s* a, %s* b) {", name, et, et)
	g.indent++
	g.line("for (int i = 0; i < %d; i++) {", info.Size)
	g.indent++
	g.line("if (!(%s)) return false;", cmp)
	g.indent--
	g.line("}")
	g.line("return true;")
	g.indent--
	g.line("}")
}

func (g *Generator) mapEq(name string, sym *symbols.TypeSymbol, info *symbols.MapInfo) {
	kt := g.ctype(info.Key)
	vt := g.ctype(info.Value)
	cmp := g.fieldEq(info.Value, "av", "bv")
	g.line("static bool %s(map a, map b) {", name)
	g.indent++
	g.line("if (a.len != b.len) return false;")
	g.line("array keys = map_keys(&a);")
	g.line("for (int i = 0; i < keys.len; i++) {")
	g.indent++
	g.line("%s k = ((%s*)keys.data)[i];", kt, kt)
	g.line("if (!map_exists(&b, k)) return false;")
	g.line("%s av = *(%s*)map_get(&a, k);", vt, vt)
	g.line("%s bv = *(%s*)map_get(&b, k);", vt, vt)
	g.line("if (!(%s)) return false;", cmp)
	g.indent--
	g.line("}")
	g.line("return true;")
	g.indent--
	g.line("}")
}

func (g *Generator) sumTypeEq(name string, sym *symbols.TypeSymbol, info *symbols.SumTypeInfo) {
	t := sym.CName
	cmps := make([]string, len(info.Variants))
	for i, v := range info.Variants {
		cmps[i] = g.fieldEq(v, "av", "bv")
	}
	g.line("static bool %s(%s a, %s b) {", name, t, t)
	g.indent++
	g.line("if (a._tag != b._tag) return false;")
	g.line("switch (a._tag) {")
	for i, v := range info.Variants {
		vt := g.ctype(v)
		g.line("case %d: {", i)
		g.indent++
		g.line("%s av = *(%s*)a._data;", vt, vt)
		g.line("%s bv = *(%s*)b._data;", vt, vt)
		g.line("return %s;", cmps[i])
		g.indent--
		g.line("}")
	}
	g.line("}")
	g.line("return true;")
	g.indent--
	g.line("}")
}
