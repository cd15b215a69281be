package ast

// Inline assembly nodes. The asm sub-grammar produces a statement holding a
// list of instruction templates plus GCC-style output/input/clobber
// sections. Asm blocks run in a detached scope: only the declared register
// set is visible, variable capture from outer scopes is forbidden.

// AsmStmt is one `asm arch { ... }` block.
type AsmStmt struct {
	stmt
	Arch       string // amd64, arm64, ...
	IsVolatile bool
	IsGoto     bool
	IsTop      bool // top-level block (no extended-asm sections)
	Templates  []AsmTemplate
	Output     []AsmIO
	Input      []AsmIO
	Clobbered  []AsmClobbered
	Scope      ScopeRef // detached scope holding the register objects
}

// AsmTemplate is a single instruction: mnemonic plus operands, or a label
// definition, or an assembler directive.
type AsmTemplate struct {
	Name        string
	Args        []AsmArg
	IsLabel     bool // "name:" form
	IsDirective bool // ".name" form
}

// AsmArg is the closed set of instruction operands.
type AsmArg interface {
	aAsmArg()
}

// AsmRegister names a machine register operand.
type AsmRegister struct {
	Name string
}

// AsmIntImm is an integer immediate operand.
type AsmIntImm struct {
	Value int64
}

// AsmFloatImm is a floating-point immediate operand.
type AsmFloatImm struct {
	Value string
}

// AsmCharImm is a character immediate operand.
type AsmCharImm struct {
	Value string
}

// AsmAlias refers to a template alias ({name}) or a jump label.
type AsmAlias struct {
	Name string
}

// AsmDisp is a displacement: a named symbol or a numeric offset.
type AsmDisp struct {
	Value string
}

func (AsmRegister) aAsmArg()    {}
func (AsmIntImm) aAsmArg()      {}
func (AsmFloatImm) aAsmArg()    {}
func (AsmCharImm) aAsmArg()     {}
func (AsmAlias) aAsmArg()       {}
func (AsmDisp) aAsmArg()        {}
func (*AsmAddressing) aAsmArg() {}

// AddressingMode enumerates the exactly seven accepted bracketed forms.
type AddressingMode uint8

const (
	AddrInvalid            AddressingMode = iota
	AddrDisplacement                      // [disp]
	AddrBase                              // [base]
	AddrBaseDisp                          // [base + disp]
	AddrIndexScaleDisp                    // [index * scale + disp]
	AddrBaseIndexScaleDisp                // [base + index * scale + disp]
	AddrBaseIndexDisp                     // [base + index + disp]
	AddrRIPDisp                           // [rip + disp]
)

func (m AddressingMode) String() string {
	switch m {
	case AddrDisplacement:
		return "[disp]"
	case AddrBase:
		return "[base]"
	case AddrBaseDisp:
		return "[base+disp]"
	case AddrIndexScaleDisp:
		return "[index*scale+disp]"
	case AddrBaseIndexScaleDisp:
		return "[base+index*scale+disp]"
	case AddrBaseIndexDisp:
		return "[base+index+disp]"
	case AddrRIPDisp:
		return "[rip+disp]"
	}
	return "invalid"
}

// AsmAddressing is a bracketed memory operand.
type AsmAddressing struct {
	Mode         AddressingMode
	Displacement AsmArg // nil when the mode has none
	Base         AsmArg
	Index        AsmArg
	Scale        int // -1 when the mode has none
}

// AsmIO is one entry of an output or input section: constraint, bound
// expression, and the alias usable inside templates.
type AsmIO struct {
	Constraint string // =r, r, m, ...
	Expr       Expr
	Alias      string
}

// AsmClobbered names a register the block may overwrite.
type AsmClobbered struct {
	Reg     string
	Comment string
}
