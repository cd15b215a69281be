package parser

import (
	"veld/internal/ast"
	"veld/internal/diag"
	"veld/internal/token"
)

// parseType parses a type expression: named types with optional module
// qualification and generic arguments, array types, map types, function
// types, and references.
func (p *Parser) parseType() ast.Expr {
	switch p.tok.Kind {
	case token.Amp:
		start := p.tok.Span
		p.next()
		t := &ast.RefType{Base: p.parseType()}
		t.SetSpan(start.Cover(t.Base.Span()))
		return t

	case token.LBracket:
		return p.parseArrayType()

	case token.KwFn:
		return p.parseFnType()

	case token.Ident:
		if p.tok.Text == "map" && p.peekTok.Kind == token.LBracket {
			return p.parseMapType()
		}
		return p.parseNamedTypeExpr()
	}

	p.errorf(diag.SynExpectType, "expected type, got %q", p.describe(p.tok))
	return p.badExpr()
}

// parseArrayType parses []T and [N]T.
func (p *Parser) parseArrayType() ast.Expr {
	start := p.tok.Span
	p.next() // [
	t := &ast.ArrayType{}
	if !p.at(token.RBracket) {
		t.IsFixed = true
		t.Len = p.parseExpr()
	}
	p.expect(token.RBracket, diag.SynUnclosedDelimiter)
	t.Elem = p.parseType()
	t.SetSpan(start.Cover(t.Elem.Span()))
	return t
}

func (p *Parser) parseMapType() ast.Expr {
	start := p.tok.Span
	p.next() // map
	p.expect(token.LBracket, diag.SynExpectType)
	t := &ast.MapType{Key: p.parseType()}
	p.expect(token.RBracket, diag.SynUnclosedDelimiter)
	t.Value = p.parseType()
	t.SetSpan(start.Cover(t.Value.Span()))
	return t
}

func (p *Parser) parseFnType() ast.Expr {
	start := p.tok.Span
	p.next() // fn
	t := &ast.FnType{}
	p.expect(token.LParen, diag.SynExpectType)
	for !p.at(token.RParen) && !p.at(token.EOF) {
		t.Params = append(t.Params, p.parseType())
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, diag.SynUnclosedDelimiter)
	if p.canStartType() {
		t.Ret = p.parseType()
	}
	t.SetSpan(start.Cover(p.prevSpan()))
	return t
}

// parseNamedTypeExpr parses name, mod.Name, and name<T, U>.
func (p *Parser) parseNamedTypeExpr() ast.Expr {
	name := p.tok
	p.next()
	t := &ast.NamedType{Name: name.Text}
	t.SetSpan(name.Span)

	if p.at(token.Dot) && p.peekTok.Kind == token.Ident {
		p.next()
		sub := p.tok
		p.next()
		t.Mod = name.Text
		t.Name = sub.Text
		t.SetSpan(name.Span.Cover(sub.Span))
	}

	if p.at(token.Lt) {
		p.next()
		for !p.atGt() && !p.at(token.EOF) {
			t.Generics = append(t.Generics, p.parseType())
			if !p.accept(token.Comma) {
				break
			}
		}
		if !p.acceptGt() {
			p.errorf(diag.SynUnclosedDelimiter, "expected '>' to close the type argument list, got %q", p.describe(p.tok))
		}
		t.SetSpan(name.Span.Cover(p.prevSpan()))
	}
	return t
}
