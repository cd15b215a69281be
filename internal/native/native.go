// Package native emits raw x86-64 machine code for a restricted subset
// of the language. There is no intermediate assembly text and no
// register allocator: every variable lives in a fixed stack slot below
// the frame pointer and each operation round-trips through eax/ecx.
// Anything outside the supported subset fails generation immediately,
// naming the construct.
package native

import (
	"fmt"
	"sort"
	"strconv"

	"veld/internal/ast"
	"veld/internal/pref"
	"veld/internal/symbols"
	"veld/internal/token"
)

type Generator struct {
	tab   *symbols.Table
	prefs *pref.Preferences

	buf       []byte
	varOffset map[string]int32
	fnAddr    map[string]int

	next  int32 // running slot watermark for the current frame
	mod   string
	calls []patchSite
	lits  []literal

	err error
}

// patchSite is one direct-call displacement awaiting its target.
type patchSite struct {
	pos  int
	name string
}

// literal is one string constant referenced rip-relative; the bytes are
// appended after all code and the lea displacement patched to reach them.
type literal struct {
	pos  int
	data []byte
}

func New(tab *symbols.Table, prefs *pref.Preferences) *Generator {
	if prefs == nil {
		prefs = pref.Default()
	}
	return &Generator{
		tab:       tab,
		prefs:     prefs,
		varOffset: make(map[string]int32),
		fnAddr:    make(map[string]int),
	}
}

// Generate lowers the file forest to raw instruction bytes. main.main is
// placed at offset zero so execution can start at the buffer head.
func (g *Generator) Generate(files []*ast.File) ([]byte, error) {
	var fns []*ast.FnDecl
	for _, f := range files {
		for _, d := range f.Decls {
			fn, ok := d.(*ast.FnDecl)
			if !ok {
				switch d.(type) {
				case *ast.StructDecl, *ast.EnumDecl, *ast.ConstDecl, *ast.Import, *ast.TypeDecl:
					continue
				default:
					g.fatalf("unsupported declaration %T", d)
				}
				continue
			}
			if fn.Body == nil {
				continue
			}
			if len(g.tab.UsedFns) > 0 && !g.tab.UsedFns[fn.FullName()] {
				continue
			}
			fns = append(fns, fn)
		}
	}
	sort.SliceStable(fns, func(i, j int) bool {
		return fns[i].FullName() == "main.main" && fns[j].FullName() != "main.main"
	})

	for _, fn := range fns {
		g.fnGen(fn)
		if g.err != nil {
			return nil, g.err
		}
	}

	for _, site := range g.calls {
		addr, ok := g.fnAddr[site.name]
		if !ok {
			return nil, fmt.Errorf("native: call to undefined function %s", site.name)
		}
		g.patch32At(site.pos, int32(addr-(site.pos+4)))
	}
	for _, lit := range g.lits {
		g.patch32At(lit.pos, int32(len(g.buf)-(lit.pos+4)))
		g.buf = append(g.buf, lit.data...)
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.buf, nil
}

func (g *Generator) fnGen(fn *ast.FnDecl) {
	g.fnAddr[fn.FullName()] = len(g.buf)
	g.varOffset = make(map[string]int32)
	g.next = 0
	g.mod = fn.Mod

	if len(fn.Params) > len(argRegs) {
		g.fatalf("function %s takes more than %d integer arguments", fn.Name, len(argRegs))
		return
	}

	g.prologue(g.frameSize(fn))
	for i, p := range fn.Params {
		off := g.alloc(p.Name, 8)
		g.storeSlot_32(argRegs[i], off)
	}
	for _, s := range fn.Body.Stmts {
		g.stmt(s)
		if g.err != nil {
			return
		}
	}
	g.epilogue()
}

// alloc assigns a fresh slot of the given byte size. Slots are never
// recycled; the offset is fixed for the function's lifetime.
func (g *Generator) alloc(name string, size int32) int32 {
	g.next += size
	off := -g.next
	g.varOffset[name] = off
	return off
}

// frameSize pre-walks the body so the prologue can reserve the whole
// frame up front, 16-byte aligned.
func (g *Generator) frameSize(fn *ast.FnDecl) int32 {
	size := int32(len(fn.Params)) * 8
	var walk func(stmts []ast.Stmt)
	walk = func(stmts []ast.Stmt) {
		for _, s := range stmts {
			switch s := s.(type) {
			case *ast.AssignStmt:
				if s.Op == token.ColonAssign && len(s.LHS) == 1 {
					if _, ok := s.LHS[0].(*ast.Ident); ok {
						size += g.declSize(s.RHS[0])
					}
				}
			case *ast.ExprStmt:
				if ife, ok := s.X.(*ast.IfExpr); ok && ife.Then != nil {
					walk(ife.Then.Stmts)
				}
			case *ast.ForStmt:
				walk(s.Body.Stmts)
			case *ast.Block:
				walk(s.Stmts)
			}
		}
	}
	walk(fn.Body.Stmts)
	if rem := size % 16; rem != 0 {
		size += 16 - rem
	}
	return size
}

// declSize is the slot footprint of one declaration's initializer.
func (g *Generator) declSize(rhs ast.Expr) int32 {
	switch rhs := rhs.(type) {
	case *ast.ArrayInit:
		if rhs.IsFixed {
			return int32(g.fixedLen(rhs)) * 8
		}
		return 8
	case *ast.StructInit:
		return g.structSize(rhs)
	default:
		return 8
	}
}

func (g *Generator) fixedLen(e *ast.ArrayInit) int {
	if lit, ok := e.Len.(*ast.IntLit); ok {
		if n, err := strconv.Atoi(lit.Value); err == nil {
			return n
		}
	}
	return len(e.Elems)
}

// structSize lays out one 8-byte slot per field.
func (g *Generator) structSize(e *ast.StructInit) int32 {
	if nt, ok := e.Type.(*ast.NamedType); ok {
		if typ, found := g.tab.Find(nt.Name); found {
			if info, ok := g.tab.Get(typ).Info.(*symbols.StructInfo); ok {
				n := int32(len(info.Fields))
				if n == 0 {
					n = 1
				}
				return n * 8
			}
		}
	}
	return 8
}

func (g *Generator) fatalf(format string, args ...any) {
	if g.err == nil {
		g.err = fmt.Errorf("native: "+format, args...)
	}
}
