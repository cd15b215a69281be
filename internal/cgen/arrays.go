package cgen

import (
	"fmt"
	"strconv"
	"strings"

	"veld/internal/ast"
	"veld/internal/symbols"
)

// arrayInit lowers the three array literal forms:
//
//	[1, 2, 3]                inline element list -> new_array_from_c_array
//	[]int{len: n, init: 0}   sized with default  -> new_array_with_default
//	[3]int{1, 2, 3}          fixed size          -> C aggregate
//
// Pointer-free element types select the _noscan allocator variants so the
// collector never scans the payload. & and shared literals wrap the plain
// lowering in a heap copy or a mutex-guarded handle.
func (g *Generator) arrayInit(e *ast.ArrayInit) string {
	if e.IsFixed {
		return g.fixedArrayInit(e)
	}
	elem := g.arrayElemType(e)
	noscan := ""
	if g.noscan(elem) {
		noscan = "_noscan"
	}

	var init string
	if len(e.Elems) > 0 {
		parts := make([]string, len(e.Elems))
		for i, el := range e.Elems {
			parts[i] = g.expr(el)
		}
		init = fmt.Sprintf("new_array_from_c_array%s(%d, %d, sizeof(%s), _MOV((%s[%d]){%s}))",
			noscan, len(e.Elems), len(e.Elems), g.ctype(elem),
			g.ctype(elem), len(e.Elems), strings.Join(parts, ", "))
	} else {
		length := "0"
		if e.Len != nil {
			length = g.expr(e.Len)
		}
		capacity := length
		if e.Cap != nil {
			capacity = g.expr(e.Cap)
		}
		if e.Default != nil {
			init = fmt.Sprintf("new_array_with_default%s(%s, %s, sizeof(%s), &(%s[]){%s})",
				noscan, length, capacity, g.ctype(elem), g.ctype(elem), g.expr(e.Default))
		} else {
			init = fmt.Sprintf("new_array%s(%s, %s, sizeof(%s))",
				noscan, length, capacity, g.ctype(elem))
		}
	}

	switch {
	case e.IsShared:
		return fmt.Sprintf("new_shared_array(%s)", init)
	case e.IsRef:
		return fmt.Sprintf("(array*)memdup(&(array[]){%s}[0], sizeof(array))", init)
	default:
		return init
	}
}

func (g *Generator) fixedArrayInit(e *ast.ArrayInit) string {
	elem := g.arrayElemType(e)
	size := g.fixedArraySize(e)
	if len(e.Elems) == 0 {
		return fmt.Sprintf("((%s[%d]){0})", g.ctype(elem), size)
	}
	parts := make([]string, len(e.Elems))
	for i, el := range e.Elems {
		parts[i] = g.expr(el)
	}
	return fmt.Sprintf("((%s[%d]){%s})", g.ctype(elem), size, strings.Join(parts, ", "))
}

// fixedArraySize resolves the element count: the spelled [N] when present,
// otherwise the inline initializer length ([1, 2, 3]! form).
func (g *Generator) fixedArraySize(e *ast.ArrayInit) int {
	if lit, ok := e.Len.(*ast.IntLit); ok {
		if n, err := strconv.Atoi(lit.Value); err == nil {
			return n
		}
	}
	return len(e.Elems)
}

// arrayElemType resolves the element type: the declared one when spelled,
// otherwise inferred from the first element.
func (g *Generator) arrayElemType(e *ast.ArrayInit) symbols.Type {
	if e.ElemType != nil {
		return g.resolveType(e.ElemType)
	}
	if len(e.Elems) > 0 {
		if t := g.typeOf(e.Elems[0]); t > symbols.NoType {
			return t
		}
	}
	return g.builtin("int")
}
