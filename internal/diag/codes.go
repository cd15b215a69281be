package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical.
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexBadNumber          Code = 1003
	LexBadEscape          Code = 1004

	// Syntactic.
	SynUnexpectedToken    Code = 2001
	SynUnexpectedTopLevel Code = 2002
	SynExpectIdentifier   Code = 2003
	SynExpectExpression   Code = 2004
	SynExpectType         Code = 2005
	SynUnclosedDelimiter  Code = 2006
	SynExpectSemicolon    Code = 2007
	SynBadForHeader       Code = 2008
	SynBadMatchArm        Code = 2009
	SynBadFnSignature     Code = 2010
	SynBadStringInter     Code = 2011
	SynBadAsmTemplate     Code = 2012
	SynBadAsmAddressing   Code = 2013
	SynBadAsmOperand      Code = 2014
	SynDuplicateLabel     Code = 2015
	SynDuplicateAttribute Code = 2016
	SynBadVisibility      Code = 2017
	SynBadImport          Code = 2018

	// Registration-time (semantic-adjacent) parse errors.
	RegConstCollision Code = 3001
	RegTypeCollision  Code = 3002
	RegSelfAlias      Code = 3003
	RegGlobalNotAllowed Code = 3004

	// Style warnings and notices.
	StyleConstUpper   Code = 3501
	StyleImpureInPure Code = 3502

	// I/O.
	IOLoadFileError Code = 4001

	// Backend (always fatal; a validated AST is assumed).
	GenUnsupported    Code = 5001
	GenTypeUnresolved Code = 5002

	// Internal invariant violations (compiler bugs, never user mistakes).
	IntRunawayLoop Code = 6001
	IntUnreachable Code = 6002
)

var codeDescription = map[Code]string{
	UnknownCode:           "Unknown error",
	LexUnknownChar:        "Unknown character",
	LexUnterminatedString: "Unterminated string",
	LexBadNumber:          "Bad number literal",
	LexBadEscape:          "Bad escape sequence",
	SynUnexpectedToken:    "Unexpected token",
	SynUnexpectedTopLevel: "Unexpected top-level construct",
	SynExpectIdentifier:   "Expect identifier",
	SynExpectExpression:   "Expect expression",
	SynExpectType:         "Expect type",
	SynUnclosedDelimiter:  "Unclosed delimiter",
	SynExpectSemicolon:    "Expect semicolon",
	SynBadForHeader:       "Malformed for-loop header",
	SynBadMatchArm:        "Malformed match arm",
	SynBadFnSignature:     "Malformed function signature",
	SynBadStringInter:     "Malformed string interpolation",
	SynBadAsmTemplate:     "Malformed asm instruction template",
	SynBadAsmAddressing:   "Unsupported asm addressing mode",
	SynBadAsmOperand:      "Bad asm operand",
	SynDuplicateLabel:     "Duplicate label",
	SynDuplicateAttribute: "Duplicate attribute",
	SynBadVisibility:      "Misplaced visibility modifier",
	SynBadImport:          "Malformed import",
	RegConstCollision:     "Constant name collision",
	RegTypeCollision:      "Type name collision",
	RegSelfAlias:          "Type alias refers to itself",
	RegGlobalNotAllowed:   "Global variables are not enabled",
	StyleConstUpper:       "Constant names should be snake_case",
	StyleImpureInPure:     "Foreign-language construct in pure veld file",
	IOLoadFileError:       "I/O load file error",
	GenUnsupported:        "Construct not supported by this backend",
	GenTypeUnresolved:     "Type not resolved at code generation",
	IntRunawayLoop:        "Statement loop bound exceeded (compiler bug)",
	IntUnreachable:        "Unreachable variant reached (compiler bug)",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 3500:
		return fmt.Sprintf("REG%04d", ic)
	case ic >= 3500 && ic < 4000:
		return fmt.Sprintf("STY%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("INT%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// IsInternal reports whether the code signals a compiler bug rather than a
// user mistake. Internal diagnostics are always fatal.
func (c Code) IsInternal() bool {
	return c >= 6000 && c < 7000
}
