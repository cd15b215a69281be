package cgen

import (
	"veld/internal/symbols"
)

// containsFor returns the linear-search membership helper for the array
// type sym, synthesizing it on first use. Memoized alongside the
// equality helpers so every call site of one element type shares a body.
func (g *Generator) containsFor(sym *symbols.TypeSymbol, elem symbols.Type) string {
	name := sym.CName + "__contains"
	if done, ok := g.searchDone[name]; ok {
		return done
	}
	g.searchDone[name] = name

	et := g.ctype(elem)
	// resolved before emission starts so a synthesized equality helper
	// lands before this body, not inside it
	cmp := g.fieldEq(elem, "(("+et+"*)xs.data)[i]", "v")
	prev := g.out
	g.out = &g.helpers
	g.line("static bool %s(array xs, %s v) {", name, et)
	g.indent++
	g.line("for (int i = 0; i < xs.len; i++) {")
	g.indent++
	g.line("if (%s) return true;", cmp)
	g.indent--
	g.line("}")
	g.line("return false;")
	g.indent--
	g.line("}")
	g.out = prev
	return name
}

// indexFor returns the first-position helper for the array type sym:
// the index of the first element equal to the needle, -1 when absent.
func (g *Generator) indexFor(sym *symbols.TypeSymbol, elem symbols.Type) string {
	name := sym.CName + "__index"
	if done, ok := g.searchDone[name]; ok {
		return done
	}
	g.searchDone[name] = name

	et := g.ctype(elem)
	cmp := g.fieldEq(elem, "(("+et+"*)xs.data)[i]", "v")
	prev := g.out
	g.out = &g.helpers
	g.line("static int %s(array xs, %s v) {", name, et)
	g.indent++
	g.line("for (int i = 0; i < xs.len; i++) {")
	g.indent++
	g.line("if (%s) return i;", cmp)
	g.indent--
	g.line("}")
	g.line("return -1;")
	g.indent--
	g.line("}")
	g.out = prev
	return name
}
