// Package jsgen lowers the parsed AST to JavaScript source. Like the C
// backend it assumes validated input; structs become object literals,
// maps become Map instances, and equality over composites routes through
// the vEq runtime helper.
package jsgen

import (
	"fmt"
	"strings"

	"veld/internal/ast"
	"veld/internal/pref"
	"veld/internal/symbols"
)

type Generator struct {
	tab   *symbols.Table
	prefs *pref.Preferences

	out    *strings.Builder
	indent int

	vars map[string]symbols.Type
	tmp  int

	err error
}

func New(tab *symbols.Table, prefs *pref.Preferences) *Generator {
	if prefs == nil {
		prefs = pref.Default()
	}
	return &Generator{
		tab:   tab,
		prefs: prefs,
		out:   &strings.Builder{},
		vars:  make(map[string]symbols.Type),
	}
}

// Generate lowers the file forest into one JS source string.
func (g *Generator) Generate(files []*ast.File) (string, error) {
	g.line(`"use strict";`)
	g.line(`const { vEq, vFmt, println, eprintln, panic } = require("./veld_runtime.js");`)
	g.raw("\n")
	g.writeEnums()

	var script []ast.Stmt
	for _, f := range files {
		for _, d := range f.Decls {
			g.decl(f.Module, d)
		}
		script = append(script, f.Stmts...)
	}
	for _, s := range script {
		g.stmt(s)
	}
	if _, hasMain := g.tab.FindFn("main.main"); hasMain {
		g.line("main();")
	}
	if g.err != nil {
		return "", g.err
	}
	return g.out.String(), nil
}

// writeEnums emits enum types as frozen name->ordinal objects.
func (g *Generator) writeEnums() {
	for i := 0; i < g.tab.Len(); i++ {
		sym := g.tab.Get(symbols.Type(i))
		info, ok := sym.Info.(*symbols.EnumInfo)
		if !ok {
			continue
		}
		var pairs []string
		for ord, v := range info.Variants {
			pairs = append(pairs, fmt.Sprintf("%s: %d", v, ord))
		}
		g.line("const %s = Object.freeze({ %s });", sym.CName, strings.Join(pairs, ", "))
	}
}

func (g *Generator) line(format string, args ...any) {
	for i := 0; i < g.indent; i++ {
		g.out.WriteByte('\t')
	}
	fmt.Fprintf(g.out, format, args...)
	g.out.WriteByte('\n')
}

func (g *Generator) raw(format string, args ...any) {
	fmt.Fprintf(g.out, format, args...)
}

func (g *Generator) nextTmp(prefix string) string {
	g.tmp++
	return fmt.Sprintf("_%s%d", prefix, g.tmp)
}

func mangle(mod, name string) string {
	if mod == "" || mod == "main" {
		return name
	}
	return mod + "__" + name
}

func methodName(recv, name string) string {
	return recv + "_" + name
}

func (g *Generator) fatalf(format string, args ...any) {
	if g.err == nil {
		g.err = fmt.Errorf("jsgen: "+format, args...)
	}
}

func (g *Generator) decl(mod string, d ast.Decl) {
	switch d := d.(type) {
	case *ast.FnDecl:
		g.fnDecl(d)
	case *ast.ConstDecl:
		for _, f := range d.Fields {
			fmod := f.Mod
			if fmod == "" {
				fmod = mod
			}
			key := f.Name
			if fmod != "" {
				key = fmod + "." + f.Name
			}
			if len(g.tab.UsedConsts) > 0 && !g.tab.UsedConsts[key] && !g.tab.UsedConsts[f.Name] {
				continue
			}
			g.line("const %s = %s;", mangle(fmod, f.Name), g.expr(f.Value))
		}
	case *ast.GlobalDecl:
		for _, f := range d.Fields {
			if f.Value != nil {
				g.line("let %s = %s;", mangle(mod, f.Name), g.expr(f.Value))
			} else {
				g.line("let %s;", mangle(mod, f.Name))
			}
		}
	case *ast.StructDecl, *ast.EnumDecl, *ast.TypeDecl, *ast.InterfaceDecl, *ast.Import:
		// structs are plain objects, enums were emitted up front
	}
}

func (g *Generator) fnDecl(fn *ast.FnDecl) {
	if fn.Body == nil {
		return
	}
	if len(g.tab.UsedFns) > 0 && !g.tab.UsedFns[fn.FullName()] {
		return
	}
	g.vars = make(map[string]symbols.Type)

	var params []string
	name := mangle(fn.Mod, fn.Name)
	if fn.IsMethod && fn.Receiver != nil {
		if nt, ok := fn.Receiver.Type.(*ast.NamedType); ok {
			name = methodName(nt.Name, fn.Name)
		}
		g.vars[fn.Receiver.Name] = g.resolveType(fn.Receiver.Type)
		params = append(params, fn.Receiver.Name)
	}
	for _, p := range fn.Params {
		g.vars[p.Name] = g.resolveType(p.Type)
		params = append(params, p.Name)
	}
	g.line("function %s(%s) {", name, strings.Join(params, ", "))
	g.indent++
	for _, s := range fn.Body.Stmts {
		g.stmt(s)
	}
	g.indent--
	g.line("}")
	g.raw("\n")
}
