package symbols

// Builtin type indices. Assigned in registration order by registerBuiltins;
// stable because the prelude runs before any user registration.
var (
	TypeVoid    Type
	TypeBool    Type
	TypeInt     Type
	TypeI8      Type
	TypeI16     Type
	TypeI32     Type
	TypeI64     Type
	TypeU8      Type
	TypeU16     Type
	TypeU32     Type
	TypeU64     Type
	TypeF32     Type
	TypeF64     Type
	TypeChar    Type
	TypeString  Type
	TypeVoidptr Type
)

func (t *Table) registerBuiltins() {
	reg := func(name, cname string, kind Kind) Type {
		return t.MustRegister(TypeSymbol{Name: name, CName: cname, Kind: kind})
	}
	TypeVoid = reg("void", "void", KindVoid)
	TypeBool = reg("bool", "bool", KindBool)
	TypeInt = reg("int", "int", KindInt)
	TypeI8 = reg("i8", "i8", KindI8)
	TypeI16 = reg("i16", "i16", KindI16)
	TypeI32 = reg("i32", "i32", KindI32)
	TypeI64 = reg("i64", "i64", KindI64)
	TypeU8 = reg("u8", "u8", KindU8)
	TypeU16 = reg("u16", "u16", KindU16)
	TypeU32 = reg("u32", "u32", KindU32)
	TypeU64 = reg("u64", "u64", KindU64)
	TypeF32 = reg("f32", "f32", KindF32)
	TypeF64 = reg("f64", "f64", KindF64)
	TypeChar = reg("char", "char", KindChar)
	TypeString = reg("string", "string", KindString)
	TypeVoidptr = reg("voidptr", "voidptr", KindVoidptr)
}

// IsBuiltinTypeName reports whether name is one of the predeclared types.
// The parser's generic-call heuristic uses this to decide whether a token
// after '<' can open a type argument list.
func IsBuiltinTypeName(name string) bool {
	switch name {
	case "void", "bool", "int", "i8", "i16", "i32", "i64",
		"u8", "u16", "u32", "u64", "f32", "f64",
		"char", "string", "voidptr", "map":
		return true
	default:
		return false
	}
}
