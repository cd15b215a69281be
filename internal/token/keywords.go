package token

var keywords = map[string]Kind{
	"module":    KwModule,
	"import":    KwImport,
	"pub":       KwPub,
	"fn":        KwFn,
	"mut":       KwMut,
	"const":     KwConst,
	"struct":    KwStruct,
	"enum":      KwEnum,
	"type":      KwType,
	"interface": KwInterface,
	"if":        KwIf,
	"else":      KwElse,
	"match":     KwMatch,
	"for":       KwFor,
	"in":        KwIn,
	"break":     KwBreak,
	"continue":  KwContinue,
	"return":    KwReturn,
	"defer":     KwDefer,
	"go":        KwGo,
	"goto":      KwGoto,
	"unsafe":    KwUnsafe,
	"asm":       KwAsm,
	"assert":    KwAssert,
	"shared":    KwShared,
	"as":        KwAs,
	"is":        KwIs,
	"true":      KwTrue,
	"false":     KwFalse,
	"none":      KwNone,
}

// LookupKeyword reports whether ident is a keyword and which one.
// Keywords are case-sensitive; only lowercase spellings are recognized.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
