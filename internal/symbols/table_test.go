package symbols

import (
	"testing"

	"veld/internal/ast"
)

func TestRegisterCollision(t *testing.T) {
	tbl := NewTable()
	first, err := tbl.Register(TypeSymbol{Name: "Point", CName: "Point", Kind: KindStruct, Info: &StructInfo{}})
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	if first == NoType {
		t.Fatal("first register returned NoType")
	}
	dup, err := tbl.Register(TypeSymbol{Name: "Point", CName: "Point2", Kind: KindStruct, Info: &StructInfo{}})
	if err == nil {
		t.Fatal("expected collision error")
	}
	if dup != NoType {
		t.Fatalf("collision returned %d, want NoType", dup)
	}
	got, ok := tbl.Find("Point")
	if !ok || got != first {
		t.Fatalf("Find after collision = %d, want original %d", got, first)
	}
}

func TestBuiltinsRegistered(t *testing.T) {
	tbl := NewTable()
	for _, name := range []string{"void", "bool", "int", "i8", "u64", "f64", "string", "char", "voidptr"} {
		if _, ok := tbl.Find(name); !ok {
			t.Errorf("builtin %q missing", name)
		}
	}
	if typ, _ := tbl.Find("int"); typ != TypeInt {
		t.Errorf("int registered at %d, want %d", typ, TypeInt)
	}
}

func TestFindOrRegisterArrayInterns(t *testing.T) {
	tbl := NewTable()
	a := tbl.FindOrRegisterArray(TypeInt)
	b := tbl.FindOrRegisterArray(TypeInt)
	if a != b {
		t.Fatalf("same element type interned twice: %d vs %d", a, b)
	}
	c := tbl.FindOrRegisterArray(TypeString)
	if c == a {
		t.Fatal("distinct element types share an index")
	}
	if got := tbl.TypeToString(a); got != "[]int" {
		t.Errorf("TypeToString = %q, want []int", got)
	}
	nested := tbl.FindOrRegisterArray(a)
	if got := tbl.TypeToString(nested); got != "[][]int" {
		t.Errorf("nested TypeToString = %q, want [][]int", got)
	}
}

func TestFindOrRegisterMap(t *testing.T) {
	tbl := NewTable()
	if tbl.HasMapTypes() {
		t.Fatal("fresh table reports map types")
	}
	m := tbl.FindOrRegisterMap(TypeString, TypeInt)
	if m == NoType {
		t.Fatal("map registration failed")
	}
	if m2 := tbl.FindOrRegisterMap(TypeString, TypeInt); m2 != m {
		t.Fatalf("map not interned: %d vs %d", m2, m)
	}
	if !tbl.HasMapTypes() {
		t.Fatal("HasMapTypes false after registration")
	}
	if got := tbl.TypeToString(m); got != "map[string]int" {
		t.Errorf("TypeToString = %q", got)
	}
}

func TestMethodsAttachToReceiver(t *testing.T) {
	tbl := NewTable()
	typ := tbl.MustRegister(TypeSymbol{Name: "User", CName: "User", Kind: KindStruct, Info: &StructInfo{}})
	fn := &ast.FnDecl{
		Name:     "str",
		IsMethod: true,
		Receiver: &ast.Param{Name: "u", Type: &ast.NamedType{Name: "User"}},
	}
	tbl.RegisterFn(fn)
	methods := tbl.Methods(typ)
	if len(methods) != 1 || methods[0].Name != "str" {
		t.Fatalf("Methods = %v", methods)
	}
	if _, ok := tbl.FindFn("User.str"); !ok {
		t.Fatal("FindFn by qualified name failed")
	}
}

func TestInterfaceImpls(t *testing.T) {
	tbl := NewTable()
	iface := tbl.MustRegister(TypeSymbol{Name: "Writer", Kind: KindInterface, Info: &InterfaceInfo{Methods: []string{"write"}}})
	impl := tbl.MustRegister(TypeSymbol{Name: "FileWriter", Kind: KindStruct, Info: &StructInfo{}})
	tbl.AddInterfaceImpl(iface, impl)
	tbl.AddInterfaceImpl(iface, impl) // no duplicates
	info := tbl.Get(iface).Info.(*InterfaceInfo)
	if len(info.Impls) != 1 || info.Impls[0] != impl {
		t.Fatalf("Impls = %v", info.Impls)
	}
	ifaces := tbl.Interfaces()
	if len(ifaces) != 1 || ifaces[0] != iface {
		t.Fatalf("Interfaces = %v", ifaces)
	}
	// Bogus indices are ignored, never panic.
	tbl.AddInterfaceImpl(NoType, impl)
	tbl.AddInterfaceImpl(Type(9999), impl)
}

func TestRegisterConstDuplicate(t *testing.T) {
	tbl := NewTable()
	c := &ast.ConstField{Name: "pi", Mod: "math"}
	if err := tbl.RegisterConst(c); err != nil {
		t.Fatalf("first const: %v", err)
	}
	if err := tbl.RegisterConst(c); err == nil {
		t.Fatal("duplicate const accepted")
	}
}

func TestScopeLookupWalksParents(t *testing.T) {
	sc := NewScopes()
	root := sc.New(NoScopeID, 0)
	inner := sc.New(root, 10)
	if !sc.Register(root, Object{Kind: ObjVar, Name: "x", Type: TypeInt}) {
		t.Fatal("register x")
	}
	if !sc.Register(inner, Object{Kind: ObjVar, Name: "y", Type: TypeBool}) {
		t.Fatal("register y")
	}
	if obj, ok := sc.Lookup(inner, "x"); !ok || obj.Type != TypeInt {
		t.Fatal("x not visible from inner scope")
	}
	if _, ok := sc.Lookup(root, "y"); ok {
		t.Fatal("y leaked into parent scope")
	}
	if sc.Register(root, Object{Kind: ObjVar, Name: "x"}) {
		t.Fatal("shadow registration in same scope accepted")
	}
}

func TestDetachedScopeIsolated(t *testing.T) {
	sc := NewScopes()
	root := sc.New(NoScopeID, 0)
	sc.Register(root, Object{Kind: ObjVar, Name: "outer", Type: TypeInt})

	asm := sc.NewDetached(20)
	sc.Register(asm, Object{Kind: ObjAsmRegister, Name: "rax"})

	if _, ok := sc.Lookup(asm, "outer"); ok {
		t.Fatal("detached scope sees outer variables")
	}
	if obj, ok := sc.Lookup(asm, "rax"); !ok || obj.Kind != ObjAsmRegister {
		t.Fatal("register entry not found in detached scope")
	}
	sc.Seal(asm, 40)
	if got := sc.Get(asm); got.End != 40 {
		t.Fatalf("End = %d after seal", got.End)
	}
	if root := sc.Get(root); len(root.Children) != 0 {
		t.Fatal("detached scope attached to a parent on seal")
	}
}

func TestScopeSealAttachesChild(t *testing.T) {
	sc := NewScopes()
	root := sc.New(NoScopeID, 0)
	child := sc.New(root, 5)
	sc.Seal(child, 15)
	r := sc.Get(root)
	if len(r.Children) != 1 || r.Children[0] != child {
		t.Fatalf("Children = %v", r.Children)
	}
}
