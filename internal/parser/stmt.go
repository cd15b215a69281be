package parser

import (
	"veld/internal/ast"
	"veld/internal/diag"
	"veld/internal/source"
	"veld/internal/symbols"
	"veld/internal/token"
)

// parseBlock parses { stmts } inside a fresh lexical scope.
func (p *Parser) parseBlock() *ast.Block {
	start := p.tok.Span
	parent := p.scope
	id := p.openScope()
	b := &ast.Block{Scope: ast.ScopeRef(id)}

	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken); !ok {
		p.closeScope(id, parent, p.tok.Span.End)
		return b
	}
	for i := 0; !p.at(token.RBrace) && !p.at(token.EOF); i++ {
		if p.shouldAbort {
			break
		}
		if i >= maxStatements {
			p.report(diag.IntRunawayLoop, diag.SevError, p.tok.Span,
				"statement loop exceeded its bound")
			p.shouldAbort = true
			break
		}
		b.Stmts = append(b.Stmts, p.parseStmt())
	}
	end := p.tok.Span.End
	p.expect(token.RBrace, diag.SynUnclosedDelimiter)
	p.closeScope(id, parent, end)
	b.SetSpan(start.Cover(p.prevSpan()))
	return b
}

// parseStmt is the single-token statement dispatch. Everything that is not
// a statement keyword falls through to expression-statement parsing.
func (p *Parser) parseStmt() ast.Stmt {
	switch p.tok.Kind {
	case token.KwFor:
		return p.parseFor("")
	case token.KwReturn:
		return p.parseReturn()
	case token.KwDefer:
		return p.parseDefer()
	case token.KwGo:
		return p.parseGo()
	case token.KwGoto:
		return p.parseGoto()
	case token.KwBreak, token.KwContinue:
		return p.parseBranch()
	case token.KwAssert:
		return p.parseAssert()
	case token.KwAsm:
		return p.parseAsmStmt()
	case token.KwConst:
		start := p.tok.Span
		d := p.parseConstDecl(false)
		s := &ast.DeclStmt{Decl: d}
		s.SetSpan(start.Cover(p.prevSpan()))
		return s
	case token.KwUnsafe:
		if p.peekTok.Kind == token.LBrace {
			return p.parseUnsafeStmt()
		}
	case token.LBrace:
		return p.parseBlock()
	case token.Ident:
		// labeled statement: name followed by ':'
		if p.peekTok.Kind == token.Colon {
			return p.parseLabeled()
		}
	case token.EOF:
		p.errorf(diag.SynUnexpectedToken, "unexpected end of file")
		return &ast.BadStmt{}
	}
	return p.parseSimpleStmt()
}

// parseLabeled handles `name:`. The label attaches retroactively to a
// following for-family statement; otherwise it declares a bare goto label.
func (p *Parser) parseLabeled() ast.Stmt {
	name := p.tok
	p.next() // name
	p.next() // ':'
	if p.labels[name.Text] {
		p.errorAt(diag.SynDuplicateLabel, name.Span, "duplicate label %q", name.Text)
	}
	p.labels[name.Text] = true
	if p.at(token.KwFor) {
		return p.parseFor(name.Text)
	}
	lbl := &ast.GotoLabel{Name: name.Text}
	lbl.SetSpan(name.Span)
	return lbl
}

// parseFor parses the three loop forms: bare/conditional `for ... {}`,
// `for x in it {}`, and the C-style `for init; cond; post {}`.
func (p *Parser) parseFor(label string) ast.Stmt {
	start := p.tok.Span
	p.next() // for

	// infinite loop
	if p.at(token.LBrace) {
		s := &ast.ForStmt{Label: label, Body: p.parseBlock()}
		s.SetSpan(start.Cover(p.prevSpan()))
		return s
	}

	// for-in: `for v in it`, `for k, v in it`, `for mut v in it`
	if p.isForInHeader() {
		return p.parseForIn(label, start)
	}

	// C-style: the header contains semicolons
	if p.isForCHeader() {
		return p.parseForC(label, start)
	}

	wasNoStruct := p.noStructLit
	p.noStructLit = true
	wasFor := p.insideFor
	p.insideFor = true
	cond := p.parseExpr()
	p.noStructLit = wasNoStruct

	s := &ast.ForStmt{Label: label, Cond: cond, Body: p.parseBlock()}
	p.insideFor = wasFor
	s.SetSpan(start.Cover(p.prevSpan()))
	return s
}

// isForInHeader peeks past the optional mut and key ident for `in`.
func (p *Parser) isForInHeader() bool {
	i := 0
	if p.peekTokenN(i).Kind == token.KwMut {
		i++
	}
	if p.peekTokenN(i).Kind != token.Ident {
		return false
	}
	i++
	if p.peekTokenN(i).Kind == token.KwIn {
		return true
	}
	if p.peekTokenN(i).Kind == token.Comma {
		return p.peekTokenN(i+1).Kind == token.Ident && p.peekTokenN(i+2).Kind == token.KwIn
	}
	return false
}

// isForCHeader scans the header for a ';' before the opening '{'.
func (p *Parser) isForCHeader() bool {
	for i := 0; i < 40; i++ {
		switch p.peekTokenN(i).Kind {
		case token.Semicolon:
			return true
		case token.LBrace, token.EOF:
			return false
		}
	}
	return false
}

func (p *Parser) parseForIn(label string, start source.Span) ast.Stmt {
	s := &ast.ForInStmt{Label: label}
	if p.accept(token.KwMut) {
		s.ValMut = true
	}
	first, _ := p.expect(token.Ident, diag.SynBadForHeader)
	s.Val = first.Text
	if p.accept(token.Comma) {
		second, _ := p.expect(token.Ident, diag.SynBadForHeader)
		s.Key = first.Text
		s.Val = second.Text
	}
	if _, ok := p.expect(token.KwIn, diag.SynBadForHeader); !ok {
		p.recoverNext()
		bad := &ast.BadStmt{}
		bad.SetSpan(start.Cover(p.prevSpan()))
		return bad
	}
	wasNoStruct := p.noStructLit
	p.noStructLit = true
	s.Iter = p.parseExpr()
	p.noStructLit = wasNoStruct
	wasFor := p.insideFor
	p.insideFor = true
	s.Body = p.parseBlock()
	p.insideFor = wasFor
	s.SetSpan(start.Cover(p.prevSpan()))
	return s
}

func (p *Parser) parseForC(label string, start source.Span) ast.Stmt {
	s := &ast.ForCStmt{Label: label}
	wasNoStruct := p.noStructLit
	p.noStructLit = true
	if !p.at(token.Semicolon) {
		s.Init = p.parseSimpleStmt()
	}
	p.expect(token.Semicolon, diag.SynBadForHeader)
	if !p.at(token.Semicolon) {
		s.Cond = p.parseExpr()
	}
	p.expect(token.Semicolon, diag.SynBadForHeader)
	if !p.at(token.LBrace) {
		s.Post = p.parseSimpleStmt()
	}
	p.noStructLit = wasNoStruct
	wasFor := p.insideFor
	p.insideFor = true
	s.Body = p.parseBlock()
	p.insideFor = wasFor
	s.SetSpan(start.Cover(p.prevSpan()))
	return s
}

func (p *Parser) parseReturn() ast.Stmt {
	start := p.tok.Span
	p.next() // return
	s := &ast.ReturnStmt{}
	if !p.at(token.RBrace) && !p.at(token.EOF) && p.canStartExpr() {
		s.Results = append(s.Results, p.parseExpr())
		for p.accept(token.Comma) {
			s.Results = append(s.Results, p.parseExpr())
		}
	}
	s.SetSpan(start.Cover(p.prevSpan()))
	return s
}

func (p *Parser) parseDefer() ast.Stmt {
	start := p.tok.Span
	p.next() // defer
	wasDefer := p.insideDefer
	p.insideDefer = true
	s := &ast.DeferStmt{Body: p.parseBlock()}
	p.insideDefer = wasDefer
	s.SetSpan(start.Cover(p.prevSpan()))
	return s
}

func (p *Parser) parseGo() ast.Stmt {
	start := p.tok.Span
	p.next() // go
	s := &ast.GoStmt{Call: p.parseExpr()}
	if _, ok := s.Call.(*ast.CallExpr); !ok {
		p.errorAt(diag.SynUnexpectedToken, s.Call.Span(), "go requires a call expression")
	}
	s.SetSpan(start.Cover(p.prevSpan()))
	return s
}

func (p *Parser) parseGoto() ast.Stmt {
	start := p.tok.Span
	p.next() // goto
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		p.recoverNext()
		bad := &ast.BadStmt{}
		bad.SetSpan(start)
		return bad
	}
	s := &ast.GotoStmt{Label: name.Text}
	s.SetSpan(start.Cover(name.Span))
	return s
}

func (p *Parser) parseBranch() ast.Stmt {
	start := p.tok.Span
	s := &ast.BranchStmt{Tok: p.tok.Kind}
	p.next()
	if p.at(token.Ident) && p.labels[p.tok.Text] {
		s.Label = p.tok.Text
		p.next()
	}
	s.SetSpan(start.Cover(p.prevSpan()))
	return s
}

func (p *Parser) parseAssert() ast.Stmt {
	start := p.tok.Span
	p.next() // assert
	s := &ast.AssertStmt{Cond: p.parseExpr()}
	if p.accept(token.Comma) {
		s.Extra = p.parseExpr()
	}
	s.SetSpan(start.Cover(p.prevSpan()))
	return s
}

func (p *Parser) parseUnsafeStmt() ast.Stmt {
	start := p.tok.Span
	p.next() // unsafe
	wasUnsafe := p.insideUnsafe
	p.insideUnsafe = true
	u := &ast.UnsafeExpr{}
	b := p.parseBlock()
	u.Stmts = b.Stmts
	p.insideUnsafe = wasUnsafe
	u.SetSpan(start.Cover(p.prevSpan()))
	s := &ast.ExprStmt{X: u}
	s.SetSpan(u.Span())
	return s
}

// parseSimpleStmt parses an expression statement or, when an assignment
// operator follows the expression list, an assignment.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	start := p.tok.Span
	first := p.parseExpr()
	if _, bad := first.(*ast.BadExpr); bad {
		// expression parsing already reported; advance one token so the
		// lenient modes make progress
		p.recoverNext()
		s := &ast.BadStmt{}
		s.SetSpan(start)
		return s
	}

	lhs := []ast.Expr{first}
	for p.accept(token.Comma) {
		lhs = append(lhs, p.parseExpr())
	}

	if p.tok.Kind.IsAssign() {
		op := p.tok.Kind
		p.next()
		s := &ast.AssignStmt{Op: op, LHS: lhs}
		s.RHS = append(s.RHS, p.parseExpr())
		for p.accept(token.Comma) {
			s.RHS = append(s.RHS, p.parseExpr())
		}
		if op == token.ColonAssign {
			p.declareLHS(lhs)
		}
		s.SetSpan(start.Cover(p.prevSpan()))
		return s
	}

	if len(lhs) > 1 {
		p.errorAt(diag.SynUnexpectedToken, start, "expression list is only valid before an assignment")
	}
	s := &ast.ExprStmt{X: first}
	s.SetSpan(first.Span())
	return s
}

// declareLHS registers := targets in the current scope.
func (p *Parser) declareLHS(lhs []ast.Expr) {
	if p.scope == symbols.NoScopeID {
		return
	}
	for _, e := range lhs {
		if id, ok := e.(*ast.Ident); ok && id.Mod == "" {
			p.tab.Scopes.Register(p.scope, symbols.Object{
				Kind: symbols.ObjVar,
				Name: id.Name,
			})
		}
	}
}
