package ast

// Import brings a module into scope.
type Import struct {
	decl
	Path  string // dotted module path
	Alias string // "" when none
}

// Param is a function parameter or receiver.
type Param struct {
	Name  string
	Type  Expr
	IsMut bool
}

// Attr is a declaration attribute: [export], [unsafe], [live], ...
type Attr struct {
	Name string
	Arg  string
}

// FnDecl declares a function or method. Methods have a non-nil Receiver;
// their symbol-table key is TypeName.method, plain functions use
// module.name.
type FnDecl struct {
	decl
	Name     string
	Mod      string
	IsPub    bool
	IsMethod bool
	Receiver *Param
	Params   []Param
	RetType  Expr // nil for void
	Generics []string // single-uppercase-letter type parameters
	Attrs    []Attr
	Lang     FileLang
	Body     *Block // nil for declarations without bodies
}

// FullName returns the reachability key: module.name or Receiver.Type.name.
func (f *FnDecl) FullName() string {
	if f.IsMethod && f.Receiver != nil {
		if nt, ok := f.Receiver.Type.(*NamedType); ok {
			return nt.Name + "." + f.Name
		}
	}
	if f.Mod == "" {
		return f.Name
	}
	return f.Mod + "." + f.Name
}

// ConstField is one name = value entry of a const block.
type ConstField struct {
	Name  string
	Mod   string
	Value Expr
	IsPub bool
}

// ConstDecl declares a block of constants.
type ConstDecl struct {
	decl
	Fields []*ConstField
	IsPub  bool
}

// GlobalField is one entry of a global declaration block.
type GlobalField struct {
	Name  string
	Type  Expr
	Value Expr // nil when only typed
}

// GlobalDecl declares program globals (requires enable_globals).
type GlobalDecl struct {
	decl
	Fields []*GlobalField
}

// StructField is one field of a struct declaration.
type StructField struct {
	Name    string
	Type    Expr
	Default Expr // nil when absent
	IsMut   bool
	IsPub   bool
}

// StructDecl declares a struct type.
type StructDecl struct {
	decl
	Name     string
	Mod      string
	IsPub    bool
	Fields   []StructField
	Generics []string
	Attrs    []Attr
}

// EnumVariant is one variant of an enum declaration.
type EnumVariant struct {
	Name  string
	Value Expr // explicit value, nil when auto-assigned
}

// EnumDecl declares an enum type.
type EnumDecl struct {
	decl
	Name     string
	Mod      string
	IsPub    bool
	Variants []EnumVariant
	Attrs    []Attr
}

// TypeDeclKind distinguishes the three forms of a type declaration.
type TypeDeclKind uint8

const (
	TypeAlias TypeDeclKind = iota // type A = B
	TypeSum                       // type S = A | B | C
	TypeFn                        // type F = fn (int) int
)

// TypeDecl declares an alias, sum type, or function type.
type TypeDecl struct {
	decl
	Name     string
	Mod      string
	IsPub    bool
	Kind     TypeDeclKind
	Variants []Expr // sum-type variants; one element for alias/fn
}

// InterfaceMethod is one required method of an interface declaration.
type InterfaceMethod struct {
	Name   string
	Params []Param
	Ret    Expr
}

// InterfaceDecl declares an interface; the reachability walker roots every
// implementing method since dynamic dispatch hides the call edges.
type InterfaceDecl struct {
	decl
	Name    string
	Mod     string
	IsPub   bool
	Methods []InterfaceMethod
}

// DeclStmt adapts a declaration into statement position (const inside fn).
type DeclStmt struct {
	stmt
	Decl Decl
}
