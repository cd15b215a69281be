// Package cgen lowers the parsed AST to C source. It assumes a parsed,
// reachability-pruned program: inconsistencies are compiler bugs here,
// not user errors, and fail loudly.
package cgen

import (
	"fmt"
	"strings"

	"veld/internal/ast"
	"veld/internal/pref"
	"veld/internal/symbols"
)

// Generator emits one C translation unit. Output is split across three
// builders so helpers synthesized mid-function (equality, comparators,
// array constructors) land before the bodies that call them.
type Generator struct {
	tab   *symbols.Table
	prefs *pref.Preferences

	typedefs strings.Builder // struct/enum/array typedefs
	helpers  strings.Builder // synthesized support functions
	body     strings.Builder // function bodies

	out    *strings.Builder // current emission target, usually &body
	indent int

	eqDone     map[symbols.Type]string // type -> equality fn name
	cmpDone    map[string]string       // field path + direction -> comparator
	searchDone map[string]string       // contains/index helper names
	tmp        int

	// per-function lowering state
	vars   map[string]varInfo
	defers []*ast.Block

	err error // first internal failure, latched
}

// varInfo tracks what lowering knows about a local: its resolved type and
// whether it is heap-referenced (selector emission uses -> then).
type varInfo struct {
	typ   symbols.Type
	isRef bool
}

func New(tab *symbols.Table, prefs *pref.Preferences) *Generator {
	if prefs == nil {
		prefs = pref.Default()
	}
	g := &Generator{
		tab:        tab,
		prefs:      prefs,
		eqDone:     make(map[symbols.Type]string),
		cmpDone:    make(map[string]string),
		searchDone: make(map[string]string),
	}
	g.out = &g.body
	return g
}

// Generate lowers the file forest into one C source string.
func (g *Generator) Generate(files []*ast.File) (string, error) {
	g.writeTypedefs()
	var script []ast.Stmt
	for _, f := range files {
		for _, d := range f.Decls {
			if err := g.decl(f.Module, d); err != nil {
				return "", err
			}
		}
		script = append(script, f.Stmts...)
	}
	// script-mode files without a main get their top-level statements
	// wrapped into one
	if _, hasMain := g.tab.FindFn("main.main"); !hasMain && len(script) > 0 {
		g.vars = make(map[string]varInfo)
		g.defers = nil
		g.line("int main(int argc, char** argv) {")
		g.indent++
		for _, s := range script {
			g.stmt(s)
		}
		g.emitDefers()
		g.line("return 0;")
		g.indent--
		g.line("}")
	}
	if g.err != nil {
		return "", g.err
	}
	var sb strings.Builder
	sb.WriteString("// generated by veld, do not edit\n")
	sb.WriteString("#include <veld_runtime.h>\n\n")
	sb.WriteString(g.typedefs.String())
	sb.WriteString("\n")
	sb.WriteString(g.helpers.String())
	sb.WriteString("\n")
	sb.WriteString(g.body.String())
	return sb.String(), nil
}

func (g *Generator) writeTypedefs() {
	for i := 0; i < g.tab.Len(); i++ {
		sym := g.tab.Get(symbols.Type(i))
		switch info := sym.Info.(type) {
		case *symbols.StructInfo:
			fmt.Fprintf(&g.typedefs, "typedef struct %s %s;\n", sym.CName, sym.CName)
			fmt.Fprintf(&g.typedefs, "struct %s {\n", sym.CName)
			for _, f := range info.Fields {
				fmt.Fprintf(&g.typedefs, "\t%s %s;\n", g.ctype(f.Type), f.Name)
			}
			fmt.Fprintf(&g.typedefs, "};\n")
		case *symbols.EnumInfo:
			fmt.Fprintf(&g.typedefs, "typedef enum {\n")
			for _, v := range info.Variants {
				fmt.Fprintf(&g.typedefs, "\t%s__%s,\n", sym.CName, v)
			}
			fmt.Fprintf(&g.typedefs, "} %s;\n", sym.CName)
		case *symbols.SumTypeInfo:
			fmt.Fprintf(&g.typedefs, "typedef struct %s %s;\n", sym.CName, sym.CName)
			fmt.Fprintf(&g.typedefs, "struct %s {\n\tint _tag;\n\tvoid* _data;\n};\n", sym.CName)
		}
	}
}

// ctype renders the C spelling of a resolved type.
func (g *Generator) ctype(typ symbols.Type) string {
	sym := g.tab.Get(typ)
	if sym == nil {
		return "void*"
	}
	switch sym.Kind {
	case symbols.KindVoid:
		return "void"
	case symbols.KindBool:
		return "bool"
	case symbols.KindInt:
		return "int"
	case symbols.KindI8:
		return "int8_t"
	case symbols.KindI16:
		return "int16_t"
	case symbols.KindI32:
		return "int32_t"
	case symbols.KindI64:
		return "int64_t"
	case symbols.KindU8:
		return "uint8_t"
	case symbols.KindU16:
		return "uint16_t"
	case symbols.KindU32:
		return "uint32_t"
	case symbols.KindU64:
		return "uint64_t"
	case symbols.KindF32:
		return "float"
	case symbols.KindF64:
		return "double"
	case symbols.KindChar:
		return "uint8_t"
	case symbols.KindString:
		return "string"
	case symbols.KindVoidptr:
		return "void*"
	case symbols.KindArray:
		return "array"
	case symbols.KindArrayFixed:
		// fixed arrays are plain C arrays; in value position they decay
		return g.ctype(sym.Info.(*symbols.ArrayFixedInfo).Elem) + "*"
	case symbols.KindMap:
		return "map"
	}
	return sym.CName
}

// noscan reports whether values of typ are pointer-free, letting the
// allocation paths skip collector scanning.
func (g *Generator) noscan(typ symbols.Type) bool {
	sym := g.tab.Get(typ)
	if sym == nil {
		return false
	}
	switch sym.Kind {
	case symbols.KindBool, symbols.KindInt,
		symbols.KindI8, symbols.KindI16, symbols.KindI32, symbols.KindI64,
		symbols.KindU8, symbols.KindU16, symbols.KindU32, symbols.KindU64,
		symbols.KindF32, symbols.KindF64, symbols.KindChar,
		symbols.KindEnum:
		return true
	case symbols.KindStruct:
		info := sym.Info.(*symbols.StructInfo)
		for _, f := range info.Fields {
			if !g.noscan(f.Type) {
				return false
			}
		}
		return true
	case symbols.KindAlias:
		return g.noscan(sym.Info.(*symbols.AliasInfo).Parent)
	case symbols.KindArrayFixed:
		return g.noscan(sym.Info.(*symbols.ArrayFixedInfo).Elem)
	}
	// strings, dynamic arrays, maps, sum types, interfaces carry pointers
	return false
}

// ---- emission plumbing ----

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

// mangle renders a function's C linkage name.
func mangle(mod, name string) string {
	if mod == "" || mod == "main" {
		return name
	}
	return mod + "__" + name
}

func methodName(recv, name string) string {
	return recv + "_" + name
}

// fatalf latches the first internal lowering failure. Backends run on
// validated input; hitting this is a compiler bug or a deliberately
// unsupported construct.
func (g *Generator) fatalf(format string, args ...any) {
	if g.err == nil {
		g.err = fmt.Errorf("cgen: "+format, args...)
	}
}
