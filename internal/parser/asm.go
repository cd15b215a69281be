package parser

import (
	"veld/internal/ast"
	"veld/internal/diag"
	"veld/internal/source"
	"veld/internal/symbols"
	"veld/internal/token"
)

// Register names recognized as asm operands. Anything else in operand
// position is an alias or a label reference.
var asmRegisters = map[string]bool{}

func init() {
	amd64 := []string{
		"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rbp", "rsp",
		"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
		"eax", "ebx", "ecx", "edx", "esi", "edi", "ebp", "esp",
		"ax", "bx", "cx", "dx", "al", "bl", "cl", "dl", "ah", "bh", "ch", "dh",
		"rip",
	}
	arm64 := []string{
		"sp", "lr", "xzr", "wzr",
	}
	for _, r := range amd64 {
		asmRegisters[r] = true
	}
	for _, r := range arm64 {
		asmRegisters[r] = true
	}
	for i := 0; i <= 30; i++ {
		asmRegisters["x"+itoa(i)] = true
		asmRegisters["w"+itoa(i)] = true
	}
	for i := 0; i <= 15; i++ {
		asmRegisters["xmm"+itoa(i)] = true
	}
}

func itoa(i int) string {
	if i < 10 {
		return string(rune('0' + i))
	}
	return string(rune('0'+i/10)) + string(rune('0'+i%10))
}

func isAsmRegister(name string) bool { return asmRegisters[name] }

// parseAsmStmt parses `asm [volatile|goto] arch { templates ; outputs ;
// inputs ; clobbers }`. The block body runs in a detached scope: only the
// register set and the declared aliases are visible, outer variables are
// not captured.
func (p *Parser) parseAsmStmt() ast.Stmt {
	start := p.tok.Span
	p.next() // asm
	s := &ast.AsmStmt{IsTop: p.scope == symbols.NoScopeID}

	// modifiers: volatile is matched by text, goto is a keyword
	for {
		if p.at(token.Ident) && p.tok.Text == "volatile" {
			s.IsVolatile = true
			p.next()
			continue
		}
		if p.at(token.KwGoto) {
			s.IsGoto = true
			p.next()
			continue
		}
		break
	}

	arch, ok := p.expect(token.Ident, diag.SynBadAsmTemplate)
	if !ok {
		p.recoverNext()
		bad := &ast.BadStmt{}
		bad.SetSpan(start)
		return bad
	}
	s.Arch = arch.Text

	if p.lang == ast.LangVeld && s.IsTop {
		p.warnAt(diag.StyleImpureInPure, start, "top-level asm block outside an architecture-tagged file")
	}

	parent := p.scope
	scopeID := p.openDetachedScope()
	s.Scope = ast.ScopeRef(scopeID)
	wasAsm := p.insideAsm
	p.insideAsm = true

	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken); !ok {
		p.insideAsm = wasAsm
		p.closeScope(scopeID, parent, p.tok.Span.End)
		bad := &ast.BadStmt{}
		bad.SetSpan(start)
		return bad
	}

	section := 0 // 0 templates, 1 outputs, 2 inputs, 3 clobbers
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if p.shouldAbort {
			break
		}
		if p.accept(token.Semicolon) {
			section++
			if s.IsTop && section > 0 {
				p.errorf(diag.SynBadAsmTemplate, "top-level asm blocks take no output/input/clobber sections")
			}
			if section > 3 {
				p.errorf(diag.SynBadAsmTemplate, "too many ';' sections in asm block")
				section = 3
			}
			continue
		}
		switch section {
		case 0:
			if tpl, ok := p.parseAsmTemplate(scopeID); ok {
				s.Templates = append(s.Templates, tpl)
			}
		case 1:
			if io, ok := p.parseAsmIO(true); ok {
				s.Output = append(s.Output, io)
			}
		case 2:
			if io, ok := p.parseAsmIO(false); ok {
				s.Input = append(s.Input, io)
			}
		case 3:
			if p.at(token.Ident) {
				s.Clobbered = append(s.Clobbered, ast.AsmClobbered{Reg: p.tok.Text})
				p.next()
				p.accept(token.Comma)
			} else {
				p.errorf(diag.SynBadAsmOperand, "expected clobbered register, got %q", p.describe(p.tok))
				p.recoverNext()
			}
		}
	}
	end := p.tok.Span.End
	p.expect(token.RBrace, diag.SynUnclosedDelimiter)
	p.insideAsm = wasAsm
	p.closeScope(scopeID, parent, end)
	s.SetSpan(start.Cover(p.prevSpan()))
	return s
}

// parseAsmTemplate parses one instruction, label definition, or
// assembler directive. Operands continue only on the mnemonic's source
// line; the next line starts the next template.
func (p *Parser) parseAsmTemplate(scope symbols.ScopeID) (ast.AsmTemplate, bool) {
	tpl := ast.AsmTemplate{}

	// .directive
	if p.at(token.Dot) {
		p.next()
		name, ok := p.expect(token.Ident, diag.SynBadAsmTemplate)
		if !ok {
			p.recoverNext()
			return tpl, false
		}
		tpl.Name = name.Text
		tpl.IsDirective = true
		return tpl, true
	}

	name, ok := p.expect(token.Ident, diag.SynBadAsmTemplate)
	if !ok {
		p.recoverNext()
		return tpl, false
	}
	tpl.Name = name.Text

	// label definition
	if p.accept(token.Colon) {
		tpl.IsLabel = true
		return tpl, true
	}

	line := p.lineOf(name.Span)
	for p.lineOf(p.tok.Span) == line && p.canStartAsmOperand() {
		arg, ok := p.parseAsmOperand(scope)
		if !ok {
			return tpl, false
		}
		tpl.Args = append(tpl.Args, arg)
		if !p.accept(token.Comma) {
			break
		}
	}
	return tpl, true
}

func (p *Parser) lineOf(sp source.Span) uint32 {
	start, _ := p.fset.Resolve(sp)
	return start.Line
}

func (p *Parser) canStartAsmOperand() bool {
	switch p.tok.Kind {
	case token.Ident, token.IntLit, token.FloatLit, token.CharLit,
		token.LBracket, token.LBrace, token.Minus:
		return true
	}
	return false
}

// parseAsmOperand parses one operand: register, immediate, alias, or a
// bracketed addressing expression.
func (p *Parser) parseAsmOperand(scope symbols.ScopeID) (ast.AsmArg, bool) {
	switch p.tok.Kind {
	case token.IntLit:
		v := parseIntValue(p.tok.Text)
		p.next()
		return ast.AsmIntImm{Value: v}, true
	case token.Minus:
		p.next()
		if !p.at(token.IntLit) {
			p.errorf(diag.SynBadAsmOperand, "expected integer after '-'")
			return nil, false
		}
		v := -parseIntValue(p.tok.Text)
		p.next()
		return ast.AsmIntImm{Value: v}, true
	case token.FloatLit:
		v := p.tok.Text
		p.next()
		return ast.AsmFloatImm{Value: v}, true
	case token.CharLit:
		v := charBody(p.tok.Text)
		p.next()
		return ast.AsmCharImm{Value: v}, true
	case token.LBrace:
		// {alias} template placeholder
		p.next()
		name, ok := p.expect(token.Ident, diag.SynBadAsmOperand)
		if !ok {
			return nil, false
		}
		p.expect(token.RBrace, diag.SynUnclosedDelimiter)
		return ast.AsmAlias{Name: name.Text}, true
	case token.LBracket:
		return p.parseAsmAddressing(scope)
	case token.Ident:
		name := p.tok.Text
		p.next()
		if isAsmRegister(name) {
			p.tab.Scopes.Register(scope, symbols.Object{Kind: symbols.ObjAsmRegister, Name: name})
			return ast.AsmRegister{Name: name}, true
		}
		return ast.AsmAlias{Name: name}, true
	}
	p.errorf(diag.SynBadAsmOperand, "unexpected asm operand %q", p.describe(p.tok))
	p.recoverNext()
	return nil, false
}

// parseAsmAddressing parses a bracketed memory operand. Exactly seven
// forms are recognized; anything else is an error naming the shape:
//
//	[disp] [base] [base+disp] [index*scale+disp]
//	[base+index*scale+disp] [base+index+disp] [rip+disp]
func (p *Parser) parseAsmAddressing(scope symbols.ScopeID) (ast.AsmArg, bool) {
	open := p.tok.Span
	p.next() // [
	addr := &ast.AsmAddressing{Mode: ast.AddrInvalid, Scale: -1}

	fail := func(msg string) (ast.AsmArg, bool) {
		p.errorAt(diag.SynBadAsmAddressing, open.Cover(p.tok.Span), "%s", msg)
		for !p.at(token.RBracket) && !p.at(token.EOF) {
			p.next()
		}
		p.accept(token.RBracket)
		return addr, false
	}

	// [rip + disp]
	if p.at(token.Ident) && p.tok.Text == "rip" {
		p.next()
		if !p.accept(token.Plus) {
			return fail("rip-relative addressing requires '+ displacement'")
		}
		disp, ok := p.parseAsmDisp(scope)
		if !ok {
			return fail("bad rip displacement")
		}
		addr.Mode = ast.AddrRIPDisp
		addr.Displacement = disp
		p.expect(token.RBracket, diag.SynUnclosedDelimiter)
		return addr, true
	}

	// [disp] with a numeric or symbol displacement
	if p.at(token.IntLit) || (p.at(token.Ident) && !isAsmRegister(p.tok.Text)) {
		disp, _ := p.parseAsmDisp(scope)
		addr.Mode = ast.AddrDisplacement
		addr.Displacement = disp
		if !p.accept(token.RBracket) {
			return fail("displacement-only addressing takes a single operand")
		}
		return addr, true
	}

	if !p.at(token.Ident) {
		return fail("expected register or displacement after '['")
	}
	first := p.tok.Text
	p.next()
	p.tab.Scopes.Register(scope, symbols.Object{Kind: symbols.ObjAsmRegister, Name: first})

	// [index * scale + disp]
	if p.accept(token.Star) {
		scale, ok := p.parseAsmScale()
		if !ok {
			return fail("bad scale")
		}
		if !p.accept(token.Plus) {
			return fail("index*scale addressing requires '+ displacement'")
		}
		disp, ok := p.parseAsmDisp(scope)
		if !ok {
			return fail("bad displacement")
		}
		addr.Mode = ast.AddrIndexScaleDisp
		addr.Index = ast.AsmRegister{Name: first}
		addr.Scale = scale
		addr.Displacement = disp
		p.expect(token.RBracket, diag.SynUnclosedDelimiter)
		return addr, true
	}

	// [base]
	if p.accept(token.RBracket) {
		addr.Mode = ast.AddrBase
		addr.Base = ast.AsmRegister{Name: first}
		return addr, true
	}

	if !p.accept(token.Plus) {
		return fail("expected '+', '*', or ']' after base register")
	}

	// [base + disp]
	if !p.at(token.Ident) || !isAsmRegister(p.tok.Text) {
		disp, ok := p.parseAsmDisp(scope)
		if !ok {
			return fail("bad displacement")
		}
		addr.Mode = ast.AddrBaseDisp
		addr.Base = ast.AsmRegister{Name: first}
		addr.Displacement = disp
		p.expect(token.RBracket, diag.SynUnclosedDelimiter)
		return addr, true
	}

	second := p.tok.Text
	p.next()
	p.tab.Scopes.Register(scope, symbols.Object{Kind: symbols.ObjAsmRegister, Name: second})

	// [base + index * scale + disp]
	if p.accept(token.Star) {
		scale, ok := p.parseAsmScale()
		if !ok {
			return fail("bad scale")
		}
		if !p.accept(token.Plus) {
			return fail("base+index*scale addressing requires '+ displacement'")
		}
		disp, ok := p.parseAsmDisp(scope)
		if !ok {
			return fail("bad displacement")
		}
		addr.Mode = ast.AddrBaseIndexScaleDisp
		addr.Base = ast.AsmRegister{Name: first}
		addr.Index = ast.AsmRegister{Name: second}
		addr.Scale = scale
		addr.Displacement = disp
		p.expect(token.RBracket, diag.SynUnclosedDelimiter)
		return addr, true
	}

	// [base + index + disp]
	if p.accept(token.Plus) {
		disp, ok := p.parseAsmDisp(scope)
		if !ok {
			return fail("bad displacement")
		}
		addr.Mode = ast.AddrBaseIndexDisp
		addr.Base = ast.AsmRegister{Name: first}
		addr.Index = ast.AsmRegister{Name: second}
		addr.Displacement = disp
		p.expect(token.RBracket, diag.SynUnclosedDelimiter)
		return addr, true
	}

	return fail("unsupported addressing shape")
}

func (p *Parser) parseAsmDisp(scope symbols.ScopeID) (ast.AsmArg, bool) {
	switch p.tok.Kind {
	case token.IntLit:
		v := p.tok.Text
		p.next()
		return ast.AsmDisp{Value: v}, true
	case token.Minus:
		p.next()
		if !p.at(token.IntLit) {
			return nil, false
		}
		v := "-" + p.tok.Text
		p.next()
		return ast.AsmDisp{Value: v}, true
	case token.Ident:
		// symbol displacement; registers are not displacements
		if isAsmRegister(p.tok.Text) {
			return nil, false
		}
		v := p.tok.Text
		p.next()
		return ast.AsmDisp{Value: v}, true
	}
	return nil, false
}

func (p *Parser) parseAsmScale() (int, bool) {
	if !p.at(token.IntLit) {
		p.errorf(diag.SynBadAsmAddressing, "expected scale factor, got %q", p.describe(p.tok))
		return 0, false
	}
	scale := int(parseIntValue(p.tok.Text))
	p.next()
	switch scale {
	case 1, 2, 4, 8:
		return scale, true
	}
	p.errorf(diag.SynBadAsmAddressing, "scale must be 1, 2, 4, or 8, got %d", scale)
	return 0, false
}

// parseAsmIO parses one output/input entry: [=|+]constraint (expr) as alias.
func (p *Parser) parseAsmIO(isOutput bool) (ast.AsmIO, bool) {
	io := ast.AsmIO{}
	constraint := ""
	if p.accept(token.Assign) {
		constraint = "="
	} else if p.accept(token.Plus) {
		constraint = "+"
	}
	if isOutput && constraint == "" {
		p.errorf(diag.SynBadAsmOperand, "output constraint must begin with '=' or '+'")
	}
	name, ok := p.expect(token.Ident, diag.SynBadAsmOperand)
	if !ok {
		p.recoverNext()
		return io, false
	}
	io.Constraint = constraint + name.Text

	if _, ok := p.expect(token.LParen, diag.SynBadAsmOperand); !ok {
		return io, false
	}
	io.Expr = p.parseExpr()
	p.expect(token.RParen, diag.SynUnclosedDelimiter)

	if p.accept(token.KwAs) {
		alias, ok := p.expect(token.Ident, diag.SynBadAsmOperand)
		if !ok {
			return io, false
		}
		io.Alias = alias.Text
	} else if id, ok := io.Expr.(*ast.Ident); ok {
		io.Alias = id.Name
	}
	return io, true
}
