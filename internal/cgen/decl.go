package cgen

import (
	"veld/internal/ast"
)

func (g *Generator) decl(mod string, d ast.Decl) error {
	switch d := d.(type) {
	case *ast.FnDecl:
		return g.fnDecl(d)
	case *ast.ConstDecl:
		g.constDecl(mod, d)
	case *ast.GlobalDecl:
		g.globalDecl(mod, d)
	case *ast.StructDecl, *ast.EnumDecl, *ast.TypeDecl, *ast.InterfaceDecl:
		// typedefs are emitted up front from the symbol table
	case *ast.Import:
		// module resolution happened before lowering
	}
	return g.err
}

func (g *Generator) constDecl(mod string, d *ast.ConstDecl) {
	for _, f := range d.Fields {
		field := f
		if field.Mod == "" {
			field.Mod = mod
		}
		key := field.Name
		if field.Mod != "" {
			key = field.Mod + "." + field.Name
		}
		if len(g.tab.UsedConsts) > 0 && !g.tab.UsedConsts[key] && !g.tab.UsedConsts[field.Name] {
			continue
		}
		typ := g.typeOf(field.Value)
		prev := g.out
		g.out = &g.helpers
		val := g.expr(field.Value)
		g.line("static const %s %s = %s;", g.ctype(typ), constCName(field.Mod, field.Name), val)
		g.out = prev
	}
}

func constCName(mod, name string) string {
	return "_const_" + mangle(mod, name)
}

func (g *Generator) globalDecl(mod string, d *ast.GlobalDecl) {
	for _, f := range d.Fields {
		key := f.Name
		if mod != "" {
			key = mod + "." + f.Name
		}
		if len(g.tab.UsedGlobals) > 0 && !g.tab.UsedGlobals[key] && !g.tab.UsedGlobals[f.Name] {
			continue
		}
		typ := g.resolveType(f.Type)
		prev := g.out
		g.out = &g.helpers
		if f.Value != nil {
			g.line("%s %s = %s;", g.ctype(typ), mangle(mod, f.Name), g.expr(f.Value))
		} else {
			g.line("%s %s;", g.ctype(typ), mangle(mod, f.Name))
		}
		g.out = prev
	}
}

func (g *Generator) fnDecl(fn *ast.FnDecl) error {
	if fn.Body == nil {
		return nil // extern declaration, runtime provides it
	}
	if len(g.tab.UsedFns) > 0 && !g.tab.UsedFns[fn.FullName()] {
		return nil
	}

	g.vars = make(map[string]varInfo)
	g.defers = nil

	name := g.linkName(fn)
	ret := "void"
	if fn.RetType != nil {
		ret = g.ctype(g.resolveType(fn.RetType))
	}
	isMain := fn.FullName() == "main.main" || (fn.Mod == "main" && fn.Name == "main")
	if isMain {
		g.line("int main(int argc, char** argv) {")
	} else {
		sig := ""
		if fn.IsMethod && fn.Receiver != nil {
			rt := g.resolveType(fn.Receiver.Type)
			g.vars[fn.Receiver.Name] = varInfo{typ: rt}
			sig = g.ctype(rt) + " " + fn.Receiver.Name
		}
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
		g.line("%s %s(%s) {", ret, name, sig)
	}
	g.indent++
	for _, s := range fn.Body.Stmts {
		g.stmt(s)
	}
	g.emitDefers()
	if isMain {
		g.line("return 0;")
	}
	g.indent--
	g.line("}")
	g.raw("\n")
	return g.err
}

// linkName renders the C linkage name of a function or method.
func (g *Generator) linkName(fn *ast.FnDecl) string {
	if fn.IsMethod && fn.Receiver != nil {
		if nt, ok := fn.Receiver.Type.(*ast.NamedType); ok {
			return methodName(nt.Name, fn.Name)
		}
	}
	return mangle(fn.Mod, fn.Name)
}

func (g *Generator) emitDefers() {
	for i := len(g.defers) - 1; i >= 0; i-- {
		for _, s := range g.defers[i].Stmts {
			g.stmt(s)
		}
	}
}
