package symbols

import (
	"fmt"
	"strings"
	"sync"

	"veld/internal/ast"
)

// Table is the global symbol table. The parser registers types, functions,
// consts and globals while parsing; the reachability walker and the
// backends read it afterwards. Registration is serialized internally so
// parallel parser instances can share one table (single-writer per entry).
type Table struct {
	mu sync.Mutex

	symbols []TypeSymbol
	byName  map[string]Type

	Fns     map[string]*ast.FnDecl
	Consts  map[string]*ast.ConstField
	Globals map[string]*ast.GlobalField

	// Reachability result sets, keyed by fully-qualified name
	// (module.function or TypeName.method). Built once per compilation by
	// the markused pass; grow monotonically except for map-support pruning.
	UsedFns     map[string]bool
	UsedConsts  map[string]bool
	UsedGlobals map[string]bool

	// methods maps a receiver type to its declared methods.
	methods map[Type][]*ast.FnDecl

	Scopes *Scopes
}

// NewTable builds a table with builtin types pre-registered.
func NewTable() *Table {
	t := &Table{
		symbols:     make([]TypeSymbol, 0, 64),
		byName:      make(map[string]Type),
		Fns:         make(map[string]*ast.FnDecl),
		Consts:      make(map[string]*ast.ConstField),
		Globals:     make(map[string]*ast.GlobalField),
		UsedFns:     make(map[string]bool),
		UsedConsts:  make(map[string]bool),
		UsedGlobals: make(map[string]bool),
		methods:     make(map[Type][]*ast.FnDecl),
		Scopes:      NewScopes(),
	}
	t.registerBuiltins()
	return t
}

// Register adds a new type symbol and returns its index. A name collision
// is rejected with NoType and an error; the existing symbol is never
// overwritten.
func (t *Table) Register(sym TypeSymbol) (Type, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.registerLocked(sym)
}

func (t *Table) registerLocked(sym TypeSymbol) (Type, error) {
	if existing, ok := t.byName[sym.Name]; ok {
		return NoType, fmt.Errorf("cannot register type %q: name already taken by %s",
			sym.Name, t.symbols[existing].Kind)
	}
	idx := Type(len(t.symbols))
	t.symbols = append(t.symbols, sym)
	t.byName[sym.Name] = idx
	return idx, nil
}

// MustRegister is Register for the builtin prelude, where a collision is a
// programming error.
func (t *Table) MustRegister(sym TypeSymbol) Type {
	typ, err := t.Register(sym)
	if err != nil {
		panic(err)
	}
	return typ
}

// Get returns the symbol for a valid index.
func (t *Table) Get(typ Type) *TypeSymbol {
	t.mu.Lock()
	defer t.mu.Unlock()
	if typ <= NoType || int(typ) >= len(t.symbols) {
		return nil
	}
	return &t.symbols[typ]
}

// Find looks a type up by its fully-qualified name.
func (t *Table) Find(name string) (Type, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	typ, ok := t.byName[name]
	return typ, ok
}

// Len returns the number of registered type symbols.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.symbols)
}

// TypeToString renders a type for diagnostics.
func (t *Table) TypeToString(typ Type) string {
	sym := t.Get(typ)
	if sym == nil {
		return "<invalid>"
	}
	switch info := sym.Info.(type) {
	case *ArrayInfo:
		return "[]" + t.TypeToString(info.Elem)
	case *ArrayFixedInfo:
		return fmt.Sprintf("[%d]%s", info.Size, t.TypeToString(info.Elem))
	case *MapInfo:
		return "map[" + t.TypeToString(info.Key) + "]" + t.TypeToString(info.Value)
	case *SumTypeInfo:
		parts := make([]string, len(info.Variants))
		for i, v := range info.Variants {
			parts[i] = t.TypeToString(v)
		}
		return strings.Join(parts, " | ")
	default:
		return sym.Name
	}
}

// RegisterFn records a parsed function under its fully-qualified name.
// Methods are additionally attached to their receiver type when known.
func (t *Table) RegisterFn(fn *ast.FnDecl) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := fn.FullName()
	t.Fns[key] = fn
	if fn.IsMethod && fn.Receiver != nil {
		if nt, ok := fn.Receiver.Type.(*ast.NamedType); ok {
			if typ, found := t.byName[nt.Name]; found {
				t.methods[typ] = append(t.methods[typ], fn)
			}
		}
	}
}

// FindFn returns the function registered under key.
func (t *Table) FindFn(key string) (*ast.FnDecl, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn, ok := t.Fns[key]
	return fn, ok
}

// Methods returns the methods declared on typ.
func (t *Table) Methods(typ Type) []*ast.FnDecl {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.methods[typ]
}

// RegisterConst records a const field under its fully-qualified name.
// A collision is an error: consts are never silently redefined.
func (t *Table) RegisterConst(c *ast.ConstField) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := c.Name
	if c.Mod != "" {
		key = c.Mod + "." + c.Name
	}
	if _, ok := t.Consts[key]; ok {
		return fmt.Errorf("duplicate const %q", key)
	}
	t.Consts[key] = c
	return nil
}

// RegisterGlobal records a global field.
func (t *Table) RegisterGlobal(mod string, g *ast.GlobalField) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := g.Name
	if mod != "" {
		key = mod + "." + g.Name
	}
	if _, ok := t.Globals[key]; ok {
		return fmt.Errorf("duplicate global %q", key)
	}
	t.Globals[key] = g
	return nil
}

// AddInterfaceImpl records that concrete implements iface. Tolerates
// unknown indices: the capability table is an over-approximation.
func (t *Table) AddInterfaceImpl(iface, concrete Type) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if iface <= NoType || int(iface) >= len(t.symbols) {
		return
	}
	info, ok := t.symbols[iface].Info.(*InterfaceInfo)
	if !ok {
		return
	}
	for _, existing := range info.Impls {
		if existing == concrete {
			return
		}
	}
	info.Impls = append(info.Impls, concrete)
}

// BindInterfaceImpls matches every concrete type's method set against
// every registered interface and records the satisfying types. Dynamic
// dispatch hides the call edges, so satisfaction is decided purely by
// name coverage: a type implements an interface when a method is
// registered for each name in the interface's method set. Runs before
// the reachability walk; calling it again is a no-op.
func (t *Table) BindInterfaceImpls() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.symbols {
		info, ok := t.symbols[i].Info.(*InterfaceInfo)
		if !ok || len(info.Methods) == 0 {
			continue
		}
		for j := range t.symbols {
			sym := &t.symbols[j]
			if j == i || sym.Kind == KindInterface || sym.Name == "" {
				continue
			}
			covered := true
			for _, m := range info.Methods {
				if _, found := t.Fns[sym.Name+"."+m]; !found {
					covered = false
					break
				}
			}
			if !covered {
				continue
			}
			concrete := Type(j)
			known := false
			for _, existing := range info.Impls {
				if existing == concrete {
					known = true
					break
				}
			}
			if !known {
				info.Impls = append(info.Impls, concrete)
			}
		}
	}
}

// Interfaces returns the index of every interface symbol.
func (t *Table) Interfaces() []Type {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Type
	for i := range t.symbols {
		if t.symbols[i].Kind == KindInterface {
			out = append(out, Type(i))
		}
	}
	return out
}

// HasMapTypes reports whether any map type was instantiated in the program.
// The markused pass keys its map-runtime pruning on this.
func (t *Table) HasMapTypes() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.symbols {
		if t.symbols[i].Kind == KindMap {
			return true
		}
	}
	return false
}

// FindOrRegisterArray interns the dynamic array type of elem.
func (t *Table) FindOrRegisterArray(elem Type) Type {
	t.mu.Lock()
	defer t.mu.Unlock()
	name := "[]" + t.nameOfLocked(elem)
	if typ, ok := t.byName[name]; ok {
		return typ
	}
	typ, err := t.registerLocked(TypeSymbol{
		Name:  name,
		CName: "Array_" + t.cnameOfLocked(elem),
		Kind:  KindArray,
		Info:  &ArrayInfo{Elem: elem},
	})
	if err != nil {
		return NoType
	}
	return typ
}

// FindOrRegisterMap interns the map type with the given key and value.
func (t *Table) FindOrRegisterMap(key, value Type) Type {
	t.mu.Lock()
	defer t.mu.Unlock()
	name := "map[" + t.nameOfLocked(key) + "]" + t.nameOfLocked(value)
	if typ, ok := t.byName[name]; ok {
		return typ
	}
	typ, err := t.registerLocked(TypeSymbol{
		Name:  name,
		CName: "Map_" + t.cnameOfLocked(key) + "_" + t.cnameOfLocked(value),
		Kind:  KindMap,
		Info:  &MapInfo{Key: key, Value: value},
	})
	if err != nil {
		return NoType
	}
	return typ
}

// FindOrRegisterFixedArray interns the fixed array type [size]elem.
func (t *Table) FindOrRegisterFixedArray(elem Type, size int) Type {
	t.mu.Lock()
	defer t.mu.Unlock()
	name := fmt.Sprintf("[%d]%s", size, t.nameOfLocked(elem))
	if typ, ok := t.byName[name]; ok {
		return typ
	}
	typ, err := t.registerLocked(TypeSymbol{
		Name:  name,
		CName: fmt.Sprintf("Array_fixed_%s_%d", t.cnameOfLocked(elem), size),
		Kind:  KindArrayFixed,
		Info:  &ArrayFixedInfo{Elem: elem, Size: size},
	})
	if err != nil {
		return NoType
	}
	return typ
}

func (t *Table) nameOfLocked(typ Type) string {
	if typ <= NoType || int(typ) >= len(t.symbols) {
		return "void"
	}
	return t.symbols[typ].Name
}

func (t *Table) cnameOfLocked(typ Type) string {
	if typ <= NoType || int(typ) >= len(t.symbols) {
		return "void"
	}
	return t.symbols[typ].CName
}
