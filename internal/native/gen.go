package native

import (
	"strconv"

	"fortio.org/safecast"
	"veld/internal/ast"
	"veld/internal/token"
)

func (g *Generator) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Block:
		for _, inner := range s.Stmts {
			g.stmt(inner)
		}
	case *ast.AssignStmt:
		g.assignStmt(s)
	case *ast.ExprStmt:
		switch x := s.X.(type) {
		case *ast.CallExpr:
			g.emitCall(x)
		case *ast.IfExpr:
			g.ifStmt(x)
		default:
			g.fatalf("unsupported expression statement %T", s.X)
		}
	case *ast.ForStmt:
		g.forStmt(s)
	case *ast.ReturnStmt:
		if len(s.Results) > 1 {
			g.fatalf("multiple return values")
			return
		}
		if len(s.Results) == 1 {
			g.evalArith(s.Results[0])
		}
		g.epilogue()
	case *ast.AsmStmt:
		g.asmStmt(s)
	case *ast.DeclStmt:
		if _, ok := s.Decl.(*ast.ConstDecl); !ok {
			g.fatalf("unsupported declaration statement %T", s.Decl)
		}
	case *ast.BadStmt:
	default:
		g.fatalf("unsupported statement %T", s)
	}
}

func (g *Generator) assignStmt(s *ast.AssignStmt) {
	if len(s.LHS) != 1 || len(s.RHS) != 1 {
		g.fatalf("multi-target assignment")
		return
	}
	lhs, rhs := s.LHS[0], s.RHS[0]

	if idx, ok := lhs.(*ast.IndexExpr); ok {
		if s.Op != token.Assign {
			g.fatalf("compound assignment to array element")
			return
		}
		g.indexAssign(idx, rhs)
		return
	}

	id, ok := lhs.(*ast.Ident)
	if !ok {
		g.fatalf("unsupported assignment target %T", lhs)
		return
	}

	switch s.Op {
	case token.ColonAssign:
		switch rhs := rhs.(type) {
		case *ast.StructInit:
			// layout only: reserve the slots, field codegen is out of scope
			g.next += g.structSize(rhs)
			g.varOffset[id.Name] = -g.next
		case *ast.ArrayInit:
			if !rhs.IsFixed {
				g.fatalf("dynamic array literal")
				return
			}
			n := g.fixedLen(rhs)
			g.next += int32(n) * 8
			base := -g.next
			g.varOffset[id.Name] = base
			for i, el := range rhs.Elems {
				g.evalArith(el)
				g.storeSlot_32(RAX, base+int32(i)*8)
			}
		default:
			off := g.alloc(id.Name, 8)
			g.evalArith(rhs)
			g.storeSlot_32(RAX, off)
		}
	case token.Assign:
		off, ok := g.varOffset[id.Name]
		if !ok {
			g.fatalf("assignment to undeclared variable %s", id.Name)
			return
		}
		g.evalArith(rhs)
		g.storeSlot_32(RAX, off)
	case token.PlusAssign, token.MinusAssign, token.StarAssign, token.SlashAssign:
		off, ok := g.varOffset[id.Name]
		if !ok {
			g.fatalf("assignment to undeclared variable %s", id.Name)
			return
		}
		g.loadSlot_32(RAX, off)
		g.evalInto(RCX, rhs)
		switch s.Op {
		case token.PlusAssign:
			g.addReg_32(RAX, RCX)
		case token.MinusAssign:
			g.subReg_32(RAX, RCX)
		case token.StarAssign:
			g.imulReg_32(RAX, RCX)
		case token.SlashAssign:
			g.idiv_32(RCX)
		}
		g.storeSlot_32(RAX, off)
	default:
		g.fatalf("unsupported assignment operator %s", s.Op)
	}
}

func (g *Generator) indexAssign(idx *ast.IndexExpr, rhs ast.Expr) {
	base, ok := idx.X.(*ast.Ident)
	if !ok || idx.IsSlice {
		g.fatalf("unsupported index target")
		return
	}
	baseOff, ok := g.varOffset[base.Name]
	if !ok {
		g.fatalf("index into undeclared variable %s", base.Name)
		return
	}
	switch index := idx.Index.(type) {
	case *ast.IntLit:
		i, err := strconv.Atoi(index.Value)
		if err != nil {
			g.fatalf("bad index literal %q", index.Value)
			return
		}
		g.evalArith(rhs)
		g.storeSlot_32(RAX, baseOff+int32(i)*8)
	case *ast.Ident:
		idxOff, ok := g.varOffset[index.Name]
		if !ok {
			g.fatalf("undeclared index variable %s", index.Name)
			return
		}
		g.leaSlot_64(RAX, baseOff)
		g.loadSlot_32(RCX, idxOff)
		g.evalInto(RDX, rhs)
		g.storeIndexed_32(RDX, RAX, RCX)
	default:
		g.fatalf("unsupported index expression %T", idx.Index)
	}
}

// evalArith evaluates an expression into eax. Exactly one binary
// operation over simple terms is supported; deeper trees are rejected.
func (g *Generator) evalArith(e ast.Expr) {
	switch e := e.(type) {
	case *ast.InfixExpr:
		g.evalInto(RAX, e.Left)
		g.evalInto(RCX, e.Right)
		switch e.Op {
		case token.Plus:
			g.addReg_32(RAX, RCX)
		case token.Minus:
			g.subReg_32(RAX, RCX)
		case token.Star:
			g.imulReg_32(RAX, RCX)
		case token.Slash:
			g.idiv_32(RCX)
		default:
			g.fatalf("unsupported operator %s", e.Op)
		}
	case *ast.CallExpr:
		g.emitCall(e) // result convention: eax
	default:
		g.evalInto(RAX, e)
	}
}

// evalInto loads a simple term (integer literal, declared variable, or
// named integer constant) into the given register.
func (g *Generator) evalInto(r Register, e ast.Expr) {
	switch e := e.(type) {
	case *ast.IntLit:
		g.movImm_32(r, g.imm32(e.Value))
	case *ast.PrefixExpr:
		if e.Op == token.Minus {
			if lit, ok := e.Right.(*ast.IntLit); ok {
				g.movImm_32(r, -g.imm32(lit.Value))
				return
			}
		}
		g.fatalf("unsupported operand %T", e)
	case *ast.Ident:
		if off, ok := g.varOffset[e.Name]; ok {
			g.loadSlot_32(r, off)
			return
		}
		if v, ok := g.constValue(e); ok {
			g.movImm_32(r, v)
			return
		}
		g.fatalf("unknown identifier %s", e.Name)
	default:
		g.fatalf("unsupported operand %T", e)
	}
}

func (g *Generator) imm32(text string) int32 {
	n, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		g.fatalf("bad integer literal %q", text)
		return 0
	}
	v, err := safecast.Conv[int32](n)
	if err != nil {
		g.fatalf("immediate %s does not fit in 32 bits", text)
		return 0
	}
	return v
}

func (g *Generator) constValue(e *ast.Ident) (int32, bool) {
	for _, key := range []string{e.FullName(), g.mod + "." + e.Name, e.Name} {
		if c, ok := g.tab.Consts[key]; ok {
			if lit, ok := c.Value.(*ast.IntLit); ok {
				return g.imm32(lit.Value), true
			}
		}
	}
	return 0, false
}

// condJumpFalse lowers a two-term comparison and emits the negated
// conditional jump, returning its displacement offset for backpatching.
func (g *Generator) condJumpFalse(cond ast.Expr) int {
	infix, ok := cond.(*ast.InfixExpr)
	if !ok || !infix.Op.IsComparison() {
		g.fatalf("unsupported condition %T", cond)
		return g.jcc32(ccNE)
	}
	g.evalInto(RAX, infix.Left)
	g.evalInto(RCX, infix.Right)
	g.cmpReg_32(RAX, RCX)
	var cc byte
	switch infix.Op {
	case token.EqEq:
		cc = ccNE
	case token.BangEq:
		cc = ccE
	case token.Lt:
		cc = ccGE
	case token.LtEq:
		cc = ccG
	case token.Gt:
		cc = ccLE
	case token.GtEq:
		cc = ccL
	default:
		g.fatalf("unsupported comparison %s", infix.Op)
	}
	return g.jcc32(cc)
}

func (g *Generator) ifStmt(e *ast.IfExpr) {
	if e.Else != nil {
		g.fatalf("else branch")
		return
	}
	pos := g.condJumpFalse(e.Cond)
	for _, s := range e.Then.Stmts {
		g.stmt(s)
	}
	g.patch32(pos)
}

func (g *Generator) forStmt(s *ast.ForStmt) {
	top := len(g.buf)
	pos := -1
	if s.Cond != nil {
		pos = g.condJumpFalse(s.Cond)
	}
	for _, inner := range s.Body.Stmts {
		g.stmt(inner)
	}
	g.jmpTo(top)
	if pos >= 0 {
		g.patch32(pos)
	}
}

func (g *Generator) emitCall(e *ast.CallExpr) {
	fun, ok := e.Fun.(*ast.Ident)
	if !ok {
		g.fatalf("unsupported call target %T", e.Fun)
		return
	}
	switch fun.Name {
	case "exit":
		if len(e.Args) == 1 {
			g.evalInto(RDI, e.Args[0])
		} else {
			g.movImm_32(RDI, 0)
		}
		g.movImm_32(RAX, 60) // SYS_exit
		g.syscall()
		return
	case "print", "println":
		g.printCall(fun.Name, e.Args)
		return
	}

	if len(e.Args) > len(argRegs) {
		g.fatalf("call to %s exceeds %d integer arguments", fun.Name, len(argRegs))
		return
	}
	for i, arg := range e.Args {
		g.evalInto(argRegs[i], arg)
	}
	if off, ok := g.varOffset[fun.Name]; ok {
		// variable holding a code address: indirect call
		g.loadSlot_64(RAX, off)
		g.callReg(RAX)
		return
	}
	name := fun.FullName()
	if fun.Mod == "" && g.mod != "" {
		name = g.mod + "." + fun.Name
	}
	g.callRel32(name)
}

// printCall lowers print of a string literal to a write(1, buf, n)
// syscall against the trailing literal pool.
func (g *Generator) printCall(name string, args []ast.Expr) {
	if len(args) != 1 {
		g.fatalf("%s takes one argument", name)
		return
	}
	lit, ok := args[0].(*ast.StringLit)
	if !ok {
		g.fatalf("%s of a non-literal value", name)
		return
	}
	data := []byte(lit.Value)
	if name == "println" {
		data = append(data, '\n')
	}
	g.movImm_32(RAX, 1) // SYS_write
	g.movImm_32(RDI, 1) // stdout
	pos := g.leaRIP_64(RSI)
	g.lits = append(g.lits, literal{pos: pos, data: data})
	g.movImm_32(RDX, int32(len(data)))
	g.syscall()
}
