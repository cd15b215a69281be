// Package markused computes the reachability closure over the parsed
// program: starting from a fixed root set it walks function bodies,
// collecting every function, const and global that can still be needed,
// so the backends emit only live code. It is a pure set computation —
// running it twice on the same table yields the same sets, and it never
// reports user-facing errors.
package markused

import (
	"strings"

	"veld/internal/ast"
	"veld/internal/pref"
	"veld/internal/symbols"
)

// Mark mutates tab's Used* sets in place. files is the parsed forest;
// prefs selects the conditional root groups.
func Mark(tab *symbols.Table, prefs *pref.Preferences, files []*ast.File) {
	if prefs == nil {
		prefs = pref.Default()
	}
	w := &walker{tab: tab, prefs: prefs}

	// Dynamic-dispatch targets must be rooted, so implementations are
	// matched against interface method sets before seeding.
	tab.BindInterfaceImpls()

	roots := seedKeys(tab, prefs)
	roots = append(roots, interfaceRoots(tab)...)
	roots = append(roots, ormRoots(tab)...)
	for _, key := range roots {
		w.markFn(key)
	}

	// script-style top-level statements run unconditionally
	for _, f := range files {
		for _, s := range f.Stmts {
			w.walkNode(f.Module, s)
		}
	}

	// map support is keyed on type presence, not call edges
	if tab.HasMapTypes() {
		for _, key := range mapRuntimeFns {
			w.markFn(key)
		}
	} else {
		w.pruneMapRuntime()
	}
}

type walker struct {
	tab   *symbols.Table
	prefs *pref.Preferences
}

// markFn adds key to the used set and walks the body once. Unknown keys
// are skipped: the root lists cover configurations this compilation may
// not include.
func (w *walker) markFn(key string) {
	if w.tab.UsedFns[key] {
		return
	}
	fn, ok := w.tab.FindFn(key)
	if !ok {
		return
	}
	w.tab.UsedFns[key] = true
	if fn.Body == nil {
		return
	}
	w.walkNode(fn.Mod, fn.Body)
}

// walkNode scans one body for edges: calls, casts, interpolation, shared
// construction, and const/global reads. mod is the enclosing module, used
// to qualify bare names.
func (w *walker) walkNode(mod string, n ast.Node) {
	ast.Inspect(n, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.CallExpr:
			w.markCall(mod, n)
		case *ast.CastExpr:
			w.markCast(n)
		case *ast.StringInterLit:
			// every slot renders through a str method
			w.markMethodsNamed("str")
			w.markMethodsNamed("auto_str")
			w.markFn("builtin.str_intp")
		case *ast.ArrayInit:
			if n.IsShared {
				w.markLocking()
			}
		case *ast.Ident:
			w.markValueRef(mod, n)
		}
		return true
	})
}

// markCall resolves a call expression to candidate keys. Without full
// type checking a method receiver's type is unknown, so method calls
// mark every same-named method: conservative, never drops live code.
func (w *walker) markCall(mod string, call *ast.CallExpr) {
	switch fun := call.Fun.(type) {
	case *ast.Ident:
		if fun.Mod != "" {
			w.markFn(fun.Mod + "." + fun.Name)
			return
		}
		w.markFn(mod + "." + fun.Name)
		w.markFn("builtin." + fun.Name)
		w.markFn(fun.Name)
	case *ast.SelectorExpr:
		w.markMethodsNamed(fun.Sel)
	}
}

// markCast roots the cast target's generated helpers: converting into a
// named type may invoke its init and string machinery at runtime.
func (w *walker) markCast(c *ast.CastExpr) {
	nt, ok := c.Type.(*ast.NamedType)
	if !ok {
		return
	}
	for _, auto := range autoMethods {
		w.markFn(nt.Name + "." + auto)
	}
}

// markMethodsNamed marks every registered method with the given name,
// regardless of receiver type.
func (w *walker) markMethodsNamed(name string) {
	suffix := "." + name
	for key, fn := range w.tab.Fns {
		if fn.IsMethod && strings.HasSuffix(key, suffix) {
			w.markFn(key)
		}
	}
}

func (w *walker) markLocking() {
	w.markFn("builtin.lock")
	w.markFn("builtin.unlock")
	w.markFn("builtin.rwlock_init")
}

// markValueRef records const and global reads.
func (w *walker) markValueRef(mod string, id *ast.Ident) {
	keys := [2]string{}
	if id.Mod != "" {
		keys[0] = id.Mod + "." + id.Name
	} else {
		keys[0] = mod + "." + id.Name
		keys[1] = id.Name
	}
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := w.tab.Consts[key]; ok {
			w.tab.UsedConsts[key] = true
		}
		if _, ok := w.tab.Globals[key]; ok {
			w.tab.UsedGlobals[key] = true
		}
	}
}

// pruneMapRuntime removes the map-support functions pulled in by type
// presence when no map type exists in the program.
func (w *walker) pruneMapRuntime() {
	for _, key := range mapRuntimeFns {
		delete(w.tab.UsedFns, key)
	}
}
