// Package symbols implements the global type-symbol table shared by the
// parser (write-mostly while parsing) and by the reachability walker and
// backends (read-only after parsing).
package symbols

// Type is the stable integer identity of a type symbol within one
// compilation unit. The zero value is the invalid type.
type Type int32

// NoType is the sentinel failure value returned on registration conflicts.
const NoType Type = -1

// Kind classifies a type symbol.
type Kind uint8

const (
	KindPlaceholder Kind = iota
	KindVoid
	KindBool
	KindInt // platform int
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF32
	KindF64
	KindChar
	KindString
	KindVoidptr
	KindStruct
	KindArray
	KindArrayFixed
	KindMap
	KindSumType
	KindAlias
	KindEnum
	KindFunction
	KindInterface
)

func (k Kind) String() string {
	switch k {
	case KindPlaceholder:
		return "placeholder"
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindI8:
		return "i8"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindVoidptr:
		return "voidptr"
	case KindStruct:
		return "struct"
	case KindArray:
		return "array"
	case KindArrayFixed:
		return "array_fixed"
	case KindMap:
		return "map"
	case KindSumType:
		return "sum_type"
	case KindAlias:
		return "alias"
	case KindEnum:
		return "enum"
	case KindFunction:
		return "function"
	case KindInterface:
		return "interface"
	}
	return "unknown"
}

// IsInteger reports whether the kind is any integer type.
func (k Kind) IsInteger() bool {
	return k >= KindInt && k <= KindU64
}

// Is64Bit reports whether the kind needs 64-bit handling in the JS backend.
func (k Kind) Is64Bit() bool {
	return k == KindI64 || k == KindU64
}

// TypeSymbol is one entry of the symbol table. Identity is by Type index;
// Name collisions are rejected at registration instead of overwriting.
type TypeSymbol struct {
	Name  string // veld-visible name, module-qualified for user types
	CName string // mangled name used by the C backend
	Kind  Kind
	Mod   string
	Info  Info // variant payload per Kind, nil for builtins
}

// Info is the per-kind payload of a TypeSymbol.
type Info interface {
	aInfo()
}

// Field is one struct field: name and resolved element type.
type Field struct {
	Name    string
	Type    Type
	NoScan  bool // known pointer-free, allocation may skip GC scanning
}

type StructInfo struct {
	Fields []Field
	// HasEqOverride marks a user-defined == operator method; equality
	// generation emits a delegating wrapper instead of field comparison.
	HasEqOverride bool
}

type ArrayInfo struct {
	Elem Type
}

type ArrayFixedInfo struct {
	Elem Type
	Size int
}

type MapInfo struct {
	Key   Type
	Value Type
}

type SumTypeInfo struct {
	Variants []Type
}

type AliasInfo struct {
	Parent Type
}

type EnumInfo struct {
	Variants []string
}

type FnSig struct {
	Params []Type
	Ret    Type
}

type FnInfo struct {
	Sig FnSig
}

// InterfaceInfo records both the method set and every concrete type
// registered as implementing it; the reachability walker roots those
// method implementations since dynamic dispatch hides the call edges.
type InterfaceInfo struct {
	Methods []string
	Impls   []Type
}

func (*StructInfo) aInfo()     {}
func (*ArrayInfo) aInfo()      {}
func (*ArrayFixedInfo) aInfo() {}
func (*MapInfo) aInfo()        {}
func (*SumTypeInfo) aInfo()    {}
func (*AliasInfo) aInfo()      {}
func (*EnumInfo) aInfo()       {}
func (*FnInfo) aInfo()         {}
func (*InterfaceInfo) aInfo()  {}
