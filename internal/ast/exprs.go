package ast

import (
	"veld/internal/token"
)

// Ident represents an identifier referring to a variable, constant, function
// or type, resolved later by name lookup in the symbol table.
type Ident struct {
	expr
	Name string
	Mod  string // qualifying module, "" when unqualified
}

// FullName returns the fully-qualified name used as a symbol-table key.
func (id *Ident) FullName() string {
	if id.Mod == "" {
		return id.Name
	}
	return id.Mod + "." + id.Name
}

// IntLit represents an integer literal.
type IntLit struct {
	expr
	Value string
}

// FloatLit represents a floating-point literal.
type FloatLit struct {
	expr
	Value string
}

// CharLit represents a character literal.
type CharLit struct {
	expr
	Value string
}

// BoolLit represents true or false.
type BoolLit struct {
	expr
	Value bool
}

// StringLit represents a plain string literal with no interpolation.
type StringLit struct {
	expr
	Value string
	IsRaw bool
}

// PrecisionUnset marks an interpolation slot whose precision was not given.
// Zero is a legal precision, so absence needs a dedicated sentinel value.
const PrecisionUnset = 987698

// FmtSpec describes the optional format specifier of one interpolation slot.
type FmtSpec struct {
	Fill      rune // pad character, 0 when unset
	Width     int  // minimum width, 0 when unset
	Precision int  // PrecisionUnset when not given
	PlusSign  bool // always show the sign
	Verb      byte // format letter (d, x, f, s, ...), 0 when unset
}

// StringInterLit represents an interpolated string: N+1 literal fragments
// around N interpolated expressions with per-slot format specifiers.
type StringInterLit struct {
	expr
	Parts []string  // len(Parts) == len(Exprs)+1
	Exprs []Expr
	Specs []FmtSpec // one per expression
}

// InfixExpr represents a binary operation.
type InfixExpr struct {
	expr
	Op    token.Kind
	Left  Expr
	Right Expr
}

// PrefixExpr represents a unary operation: !x, -x, &x, *x, ~x.
type PrefixExpr struct {
	expr
	Op    token.Kind
	Right Expr
}

// IndexExpr represents x[i] or a slice x[lo..hi].
type IndexExpr struct {
	expr
	X       Expr
	Index   Expr
	Low     Expr // slice low bound, nil for plain indexing
	High    Expr // slice high bound
	IsSlice bool
}

// SelectorExpr represents x.field or x.method.
type SelectorExpr struct {
	expr
	X   Expr
	Sel string
}

// CallExpr represents a call: Fun(Args...). Method calls have a
// SelectorExpr as Fun. Generic instantiations carry the concrete type
// argument names.
type CallExpr struct {
	expr
	Fun      Expr
	Args     []Expr
	Generics []Expr // type expressions, nil for plain calls
}

// CastExpr represents a conversion Type(value), including generic casts
// detected by the lookahead scan.
type CastExpr struct {
	expr
	Type  Expr
	Value Expr
}

// StructInitField is one field: value pair in a struct literal.
type StructInitField struct {
	Name  string
	Value Expr
}

// StructInit represents Type{field: value, ...}.
type StructInit struct {
	expr
	Type   Expr
	Fields []StructInitField
	IsRef  bool // &Type{...}
}

// ArrayInit represents the three array literal forms: inline element list,
// empty/sized with element default fill, and fixed-size inline initializer.
type ArrayInit struct {
	expr
	Elems    []Expr
	ElemType Expr // element type for empty literals, nil when inferred
	Len      Expr // requested length, nil when absent
	Cap      Expr
	Default  Expr // per-element default fill, nil when absent
	IsFixed  bool // [N]T form
	IsRef    bool // &[]T{} heap-allocating form
	IsShared bool // shared []T mutex-guarded form
}

// MapInit represents {key: value, ...} or an empty typed map literal.
type MapInit struct {
	expr
	KeyType  Expr // nil when inferred from entries
	ValType  Expr
	Keys     []Expr
	Vals     []Expr
}

// IfExpr represents an if/else chain usable in both statement and
// expression position.
type IfExpr struct {
	expr
	Cond Expr
	Then *Block
	Else Node // nil, *IfExpr, or *Block
}

// MatchArm is one arm of a match expression.
type MatchArm struct {
	Conds []Expr // empty for the else arm
	Body  *Block
	IsElse bool
}

// MatchExpr represents match cond { ... }.
type MatchExpr struct {
	expr
	Cond Expr
	Arms []MatchArm
}

// AnonFn represents an inline anonymous function literal.
type AnonFn struct {
	expr
	Decl *FnDecl
}

// UnsafeExpr represents unsafe { ... }; the trailing expression is the value.
type UnsafeExpr struct {
	expr
	Stmts []Stmt
}

// BadExpr is the error placeholder returned when expression parsing fails;
// callers continue structurally and rely on recorded diagnostics.
type BadExpr struct {
	expr
}

// Type expressions. Like all other consumers, backends resolve these
// against the symbol table by name.

// NamedType is a reference to a named type, possibly module-qualified and
// possibly carrying generic arguments.
type NamedType struct {
	expr
	Name     string
	Mod      string
	Generics []Expr
}

// ArrayType is []T or [N]T.
type ArrayType struct {
	expr
	Elem    Expr
	Len     Expr // nil for dynamic arrays
	IsFixed bool
}

// MapType is map[K]V.
type MapType struct {
	expr
	Key   Expr
	Value Expr
}

// FnType is fn (params) ret.
type FnType struct {
	expr
	Params []Expr
	Ret    Expr // nil for void
}

// RefType is &T.
type RefType struct {
	expr
	Base Expr
}
