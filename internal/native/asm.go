package native

import "veld/internal/ast"

// asmOpcodes is the pass-through mnemonic table: zero-operand
// instructions whose encoding is a fixed byte string.
var asmOpcodes = map[string][]byte{
	"nop":     {0x90},
	"syscall": {0x0F, 0x05},
	"ret":     {0xC3},
	"leave":   {0xC9},
	"cdq":     {0x99},
	"cqo":     {0x48, 0x99},
	"int3":    {0xCC},
	"hlt":     {0xF4},
	"pause":   {0xF3, 0x90},
	"cpuid":   {0x0F, 0xA2},
	"rdtsc":   {0x0F, 0x31},
	"mfence":  {0x0F, 0xAE, 0xF0},
	"lfence":  {0x0F, 0xAE, 0xE8},
	"sfence":  {0x0F, 0xAE, 0xF8},
	"cli":     {0xFA},
	"sti":     {0xFB},
	"cld":     {0xFC},
	"std":     {0xFD},
}

// asmStmt emits an inline-assembly block byte for byte. Only the fixed
// mnemonic table is supported; operands, labels, and directives are
// assembler territory this backend does not enter.
func (g *Generator) asmStmt(s *ast.AsmStmt) {
	if s.Arch != "amd64" {
		g.fatalf("inline assembly for architecture %s", s.Arch)
		return
	}
	for _, tmpl := range s.Templates {
		if tmpl.IsLabel || tmpl.IsDirective {
			g.fatalf("assembly label or directive %s", tmpl.Name)
			return
		}
		if len(tmpl.Args) > 0 {
			g.fatalf("assembly operands for %s", tmpl.Name)
			return
		}
		code, ok := asmOpcodes[tmpl.Name]
		if !ok {
			g.fatalf("unknown assembly mnemonic %s", tmpl.Name)
			return
		}
		g.emit(code...)
	}
}
