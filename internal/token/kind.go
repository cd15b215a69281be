package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident represents an identifier token.
	Ident
	// IntLit represents an integer literal.
	IntLit
	// FloatLit represents a floating-point literal.
	FloatLit
	// StringLit represents a string literal (interpolation is resolved by the parser).
	StringLit
	// CharLit represents a character literal.
	CharLit

	// Keywords.
	KwModule   // module
	KwImport   // import
	KwPub      // pub
	KwFn       // fn
	KwMut      // mut
	KwConst    // const
	KwStruct   // struct
	KwEnum     // enum
	KwType     // type
	KwInterface // interface
	KwIf       // if
	KwElse     // else
	KwMatch    // match
	KwFor      // for
	KwIn       // in
	KwBreak    // break
	KwContinue // continue
	KwReturn   // return
	KwDefer    // defer
	KwGo       // go
	KwGoto     // goto
	KwUnsafe   // unsafe
	KwAsm      // asm
	KwAssert   // assert
	KwShared   // shared
	KwAs       // as
	KwIs       // is
	KwTrue     // true
	KwFalse    // false
	KwNone     // none

	// Operators and punctuation.
	Plus          // +
	Minus         // -
	Star          // *
	Slash         // /
	Percent       // %
	Assign        // =
	ColonAssign   // :=
	PlusAssign    // +=
	MinusAssign   // -=
	StarAssign    // *=
	SlashAssign   // /=
	PercentAssign // %=
	AmpAssign     // &=
	PipeAssign    // |=
	CaretAssign   // ^=
	ShlAssign     // <<=
	ShrAssign     // >>=
	EqEq          // ==
	BangEq        // !=
	Lt            // <
	Gt            // >
	LtEq          // <=
	GtEq          // >=
	AndAnd        // &&
	OrOr          // ||
	Bang          // !
	Amp           // &
	Pipe          // |
	Caret         // ^
	Tilde         // ~
	Shl           // <<
	Shr           // >>
	Dot           // .
	DotDot        // ..
	Ellipsis      // ...
	Comma         // ,
	Semicolon     // ;
	Colon         // :
	Question      // ?
	Hash          // #
	Dollar        // $
	At            // @
	LParen        // (
	RParen        // )
	LBracket      // [
	RBracket      // ]
	LBrace        // {
	RBrace        // }

	kindCount
)

var kindNames = [...]string{
	Invalid:       "invalid",
	EOF:           "eof",
	Ident:         "ident",
	IntLit:        "int",
	FloatLit:      "float",
	StringLit:     "string",
	CharLit:       "char",
	KwModule:      "module",
	KwImport:      "import",
	KwPub:         "pub",
	KwFn:          "fn",
	KwMut:         "mut",
	KwConst:       "const",
	KwStruct:      "struct",
	KwEnum:        "enum",
	KwType:        "type",
	KwInterface:   "interface",
	KwIf:          "if",
	KwElse:        "else",
	KwMatch:       "match",
	KwFor:         "for",
	KwIn:          "in",
	KwBreak:       "break",
	KwContinue:    "continue",
	KwReturn:      "return",
	KwDefer:       "defer",
	KwGo:          "go",
	KwGoto:        "goto",
	KwUnsafe:      "unsafe",
	KwAsm:         "asm",
	KwAssert:      "assert",
	KwShared:      "shared",
	KwAs:          "as",
	KwIs:          "is",
	KwTrue:        "true",
	KwFalse:       "false",
	KwNone:        "none",
	Plus:          "+",
	Minus:         "-",
	Star:          "*",
	Slash:         "/",
	Percent:       "%",
	Assign:        "=",
	ColonAssign:   ":=",
	PlusAssign:    "+=",
	MinusAssign:   "-=",
	StarAssign:    "*=",
	SlashAssign:   "/=",
	PercentAssign: "%=",
	AmpAssign:     "&=",
	PipeAssign:    "|=",
	CaretAssign:   "^=",
	ShlAssign:     "<<=",
	ShrAssign:     ">>=",
	EqEq:          "==",
	BangEq:        "!=",
	Lt:            "<",
	Gt:            ">",
	LtEq:          "<=",
	GtEq:          ">=",
	AndAnd:        "&&",
	OrOr:          "||",
	Bang:          "!",
	Amp:           "&",
	Pipe:          "|",
	Caret:         "^",
	Tilde:         "~",
	Shl:           "<<",
	Shr:           ">>",
	Dot:           ".",
	DotDot:        "..",
	Ellipsis:      "...",
	Comma:         ",",
	Semicolon:     ";",
	Colon:         ":",
	Question:      "?",
	Hash:          "#",
	Dollar:        "$",
	At:            "@",
	LParen:        "(",
	RParen:        ")",
	LBracket:      "[",
	RBracket:      "]",
	LBrace:        "{",
	RBrace:        "}",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// IsAssign reports whether the token is any assignment operator.
func (k Kind) IsAssign() bool {
	switch k {
	case Assign, ColonAssign, PlusAssign, MinusAssign, StarAssign, SlashAssign,
		PercentAssign, AmpAssign, PipeAssign, CaretAssign, ShlAssign, ShrAssign:
		return true
	default:
		return false
	}
}

// IsComparison reports whether the token is a comparison operator.
func (k Kind) IsComparison() bool {
	switch k {
	case EqEq, BangEq, Lt, Gt, LtEq, GtEq:
		return true
	default:
		return false
	}
}
