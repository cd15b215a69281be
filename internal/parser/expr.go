package parser

import (
	"strconv"
	"strings"

	"veld/internal/ast"
	"veld/internal/diag"
	"veld/internal/symbols"
	"veld/internal/token"
)

// Infix binding powers, lowest first. DotDot sits with the comparisons so
// that range bounds bind their arithmetic before the range forms.
func bindingPower(k token.Kind) int {
	switch k {
	case token.OrOr:
		return 1
	case token.AndAnd:
		return 2
	case token.EqEq, token.BangEq, token.Lt, token.Gt, token.LtEq, token.GtEq,
		token.KwIn, token.KwIs, token.DotDot:
		return 3
	case token.Plus, token.Minus, token.Pipe, token.Caret:
		return 4
	case token.Star, token.Slash, token.Percent, token.Shl, token.Shr, token.Amp:
		return 5
	}
	return 0
}

func (p *Parser) parseExpr() ast.Expr {
	return p.parseBinaryExpr(0)
}

// parseBinaryExpr is the precedence climbing loop. The Lt case defers to
// the generic-call heuristic before committing to a comparison.
func (p *Parser) parseBinaryExpr(minBP int) ast.Expr {
	left := p.parseUnaryExpr()
	for {
		op := p.tok.Kind
		bp := bindingPower(op)
		if bp == 0 || bp <= minBP {
			return left
		}
		p.next()
		right := p.parseBinaryExpr(bp)
		infix := &ast.InfixExpr{Op: op, Left: left, Right: right}
		infix.SetSpan(left.Span().Cover(right.Span()))
		left = infix
	}
}

func (p *Parser) parseUnaryExpr() ast.Expr {
	switch p.tok.Kind {
	case token.Minus, token.Bang, token.Tilde, token.Star:
		start := p.tok.Span
		op := p.tok.Kind
		p.next()
		e := &ast.PrefixExpr{Op: op, Right: p.parseUnaryExpr()}
		e.SetSpan(start.Cover(e.Right.Span()))
		return e
	case token.Amp:
		return p.parseAmpExpr()
	case token.KwShared:
		return p.parseSharedExpr()
	}
	return p.parsePostfixExpr(p.parsePrimaryExpr())
}

// parseAmpExpr distinguishes &Type{...} (IsRef literal) and &[]T{} from a
// plain address-of prefix.
func (p *Parser) parseAmpExpr() ast.Expr {
	start := p.tok.Span
	p.next() // &
	if p.at(token.LBracket) {
		arr := p.parseArrayLit()
		if a, ok := arr.(*ast.ArrayInit); ok {
			a.IsRef = true
			a.SetSpan(start.Cover(a.Span()))
		}
		return arr
	}
	if p.at(token.Ident) && isCapitalized(p.tok.Text) && p.peekTok.Kind == token.LBrace && !p.noStructLit {
		lit := p.parseStructLit(p.parseTypeName())
		if s, ok := lit.(*ast.StructInit); ok {
			s.IsRef = true
		}
		return lit
	}
	e := &ast.PrefixExpr{Op: token.Amp, Right: p.parseUnaryExpr()}
	e.SetSpan(start.Cover(e.Right.Span()))
	return e
}

// parseSharedExpr parses `shared []T{...}` and `shared Type{...}`.
func (p *Parser) parseSharedExpr() ast.Expr {
	start := p.tok.Span
	p.next() // shared
	if p.at(token.LBracket) {
		arr := p.parseArrayLit()
		if a, ok := arr.(*ast.ArrayInit); ok {
			a.IsShared = true
			a.SetSpan(start.Cover(a.Span()))
		}
		return arr
	}
	if p.at(token.Ident) {
		lit := p.parseStructLit(p.parseTypeName())
		if s, ok := lit.(*ast.StructInit); ok {
			s.SetSpan(start.Cover(s.Span()))
		}
		return lit
	}
	p.errorf(diag.SynExpectExpression, "expected array or struct literal after 'shared'")
	return p.badExpr()
}

// parsePostfixExpr applies call, index, and selector suffixes.
func (p *Parser) parsePostfixExpr(x ast.Expr) ast.Expr {
	for {
		switch p.tok.Kind {
		case token.LParen:
			x = p.parseCallArgs(x, nil)
		case token.LBracket:
			x = p.parseIndex(x)
		case token.Dot:
			p.next()
			name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
			if !ok {
				return x
			}
			sel := &ast.SelectorExpr{X: x, Sel: name.Text}
			sel.SetSpan(x.Span().Cover(name.Span))
			x = sel
		default:
			return x
		}
	}
}

func (p *Parser) parseCallArgs(fun ast.Expr, generics []ast.Expr) ast.Expr {
	call := &ast.CallExpr{Fun: fun, Generics: generics}
	p.next() // (
	for !p.at(token.RParen) && !p.at(token.EOF) {
		call.Args = append(call.Args, p.parseCallArg())
		if !p.accept(token.Comma) {
			break
		}
	}
	end := p.tok.Span
	p.expect(token.RParen, diag.SynUnclosedDelimiter)
	call.SetSpan(fun.Span().Cover(end))
	return call
}

// parseCallArg allows struct literals in argument position regardless of
// the surrounding header context.
func (p *Parser) parseCallArg() ast.Expr {
	wasNoStruct := p.noStructLit
	p.noStructLit = false
	e := p.parseExpr()
	p.noStructLit = wasNoStruct
	return e
}

func (p *Parser) parseIndex(x ast.Expr) ast.Expr {
	idx := &ast.IndexExpr{X: x}
	p.next() // [
	if p.at(token.DotDot) {
		// x[..hi]
		idx.IsSlice = true
		p.next()
		if !p.at(token.RBracket) {
			idx.High = p.parseExpr()
		}
	} else {
		// parse above the range operator's power so `lo..hi` stays a slice
		// header instead of collapsing into one range expression
		first := p.parseBinaryExpr(bindingPower(token.DotDot))
		if p.accept(token.DotDot) {
			idx.IsSlice = true
			idx.Low = first
			if !p.at(token.RBracket) {
				idx.High = p.parseExpr()
			}
		} else {
			idx.Index = first
		}
	}
	end := p.tok.Span
	p.expect(token.RBracket, diag.SynUnclosedDelimiter)
	idx.SetSpan(x.Span().Cover(end))
	return idx
}

func (p *Parser) parsePrimaryExpr() ast.Expr {
	switch p.tok.Kind {
	case token.IntLit:
		e := &ast.IntLit{Value: p.tok.Text}
		e.SetSpan(p.tok.Span)
		p.next()
		return e
	case token.FloatLit:
		e := &ast.FloatLit{Value: p.tok.Text}
		e.SetSpan(p.tok.Span)
		p.next()
		return e
	case token.CharLit:
		e := &ast.CharLit{Value: charBody(p.tok.Text)}
		e.SetSpan(p.tok.Span)
		p.next()
		return e
	case token.StringLit:
		return p.parseStringLit()
	case token.KwTrue, token.KwFalse:
		e := &ast.BoolLit{Value: p.tok.Kind == token.KwTrue}
		e.SetSpan(p.tok.Span)
		p.next()
		return e
	case token.KwNone:
		e := &ast.Ident{Name: "none"}
		e.SetSpan(p.tok.Span)
		p.next()
		return e
	case token.Ident:
		return p.parseIdentExpr()
	case token.LParen:
		p.next()
		wasNoStruct := p.noStructLit
		p.noStructLit = false
		e := p.parseExpr()
		p.noStructLit = wasNoStruct
		p.expect(token.RParen, diag.SynUnclosedDelimiter)
		return e
	case token.LBracket:
		return p.parseArrayLit()
	case token.LBrace:
		return p.parseMapLit()
	case token.KwIf:
		return p.parseIfExpr()
	case token.KwMatch:
		return p.parseMatchExpr()
	case token.KwUnsafe:
		return p.parseUnsafeExpr()
	case token.KwFn:
		return p.parseAnonFn()
	case token.Dot:
		// shorthand enum selector: .variant
		start := p.tok.Span
		p.next()
		name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
		if !ok {
			return p.badExpr()
		}
		e := &ast.SelectorExpr{X: nil, Sel: name.Text}
		e.SetSpan(start.Cover(name.Span))
		return e
	}
	p.errorf(diag.SynExpectExpression, "expected expression, got %q", p.describe(p.tok))
	return p.badExpr()
}

// parseIdentExpr resolves the bare-identifier ambiguity. The predicates
// run in a fixed priority order and the first hit wins:
//  1. followed by '(' -> cast when the name is a known type, else call
//  2. followed by '<' passing the generic heuristics -> generic call/cast
//  3. capitalized and followed by '{' outside a header -> struct literal
//  4. module-qualified selector when the name matches an import
//  5. plain identifier
func (p *Parser) parseIdentExpr() ast.Expr {
	name := p.tok

	// 1. call or cast
	if p.peekTok.Kind == token.LParen {
		p.next()
		if p.isKnownTypeName(name.Text) {
			return p.parseCastRest(p.namedType(name, nil))
		}
		fun := &ast.Ident{Name: name.Text}
		fun.SetSpan(name.Span)
		return p.parseCallArgs(fun, nil)
	}

	// 2. generic call or generic cast
	if p.peekTok.Kind == token.Lt {
		if generics, ok := p.tryGenericArgs(); ok {
			if p.isKnownTypeName(name.Text) {
				return p.parseCastRest(p.namedType(name, generics))
			}
			fun := &ast.Ident{Name: name.Text}
			fun.SetSpan(name.Span)
			return p.parseCallArgs(fun, generics)
		}
	}

	// 3. struct literal
	if p.peekTok.Kind == token.LBrace && isCapitalized(name.Text) && !p.noStructLit {
		p.next()
		return p.parseStructLit(p.namedType(name, nil))
	}

	// 4. module qualification
	if p.peekTok.Kind == token.Dot && p.isImportedModule(name.Text) {
		p.next() // module name
		p.next() // '.'
		sub, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
		if !ok {
			return p.badExpr()
		}
		qualified := token.Token{Kind: token.Ident, Span: name.Span.Cover(sub.Span), Text: sub.Text}
		return p.parseQualifiedExpr(name.Text, qualified)
	}

	// 5. plain identifier
	p.next()
	e := &ast.Ident{Name: name.Text}
	e.SetSpan(name.Span)
	return e
}

// parseQualifiedExpr continues after `mod.name`, applying the same
// call/cast/struct-literal predicates with the module prefix attached.
func (p *Parser) parseQualifiedExpr(mod string, name token.Token) ast.Expr {
	if p.at(token.LParen) {
		fun := &ast.Ident{Name: name.Text, Mod: mod}
		fun.SetSpan(name.Span)
		return p.parseCallArgs(fun, nil)
	}
	if p.at(token.LBrace) && isCapitalized(name.Text) && !p.noStructLit {
		nt := &ast.NamedType{Name: name.Text, Mod: mod}
		nt.SetSpan(name.Span)
		return p.parseStructLit(nt)
	}
	e := &ast.Ident{Name: name.Text, Mod: mod}
	e.SetSpan(name.Span)
	return e
}

// parseCastRest finishes Type(expr) with the type already consumed.
func (p *Parser) parseCastRest(typ ast.Expr) ast.Expr {
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken); !ok {
		return p.badExpr()
	}
	c := &ast.CastExpr{Type: typ, Value: p.parseCallArg()}
	end := p.tok.Span
	p.expect(token.RParen, diag.SynUnclosedDelimiter)
	c.SetSpan(typ.Span().Cover(end))
	return c
}

func (p *Parser) namedType(name token.Token, generics []ast.Expr) *ast.NamedType {
	nt := &ast.NamedType{Name: name.Text, Generics: generics}
	nt.SetSpan(name.Span)
	return nt
}

// parseTypeName consumes an identifier (with optional module prefix) as a
// named type.
func (p *Parser) parseTypeName() *ast.NamedType {
	name := p.tok
	p.next()
	if p.at(token.Dot) && isCapitalized(p.peekTok.Text) {
		p.next()
		sub := p.tok
		p.next()
		nt := &ast.NamedType{Name: sub.Text, Mod: name.Text}
		nt.SetSpan(name.Span.Cover(sub.Span))
		return nt
	}
	nt := &ast.NamedType{Name: name.Text}
	nt.SetSpan(name.Span)
	return nt
}

// parseStructLit parses Type{field: value, ...}. Positional values are
// allowed for tuple-style initialization and stored with empty names.
func (p *Parser) parseStructLit(typ ast.Expr) ast.Expr {
	lit := &ast.StructInit{Type: typ}
	p.next() // {
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		var field ast.StructInitField
		if p.at(token.Ident) && p.peekTok.Kind == token.Colon {
			field.Name = p.tok.Text
			p.next()
			p.next()
		}
		field.Value = p.parseCallArg()
		lit.Fields = append(lit.Fields, field)
		if !p.accept(token.Comma) {
			break
		}
	}
	end := p.tok.Span
	p.expect(token.RBrace, diag.SynUnclosedDelimiter)
	lit.SetSpan(typ.Span().Cover(end))
	return lit
}

// parseArrayLit parses the three array literal forms:
//
//	[1, 2, 3]               inline element list
//	[]int{len: 3, init: 0}  empty or sized with default fill
//	[4]int{}                fixed-size
func (p *Parser) parseArrayLit() ast.Expr {
	start := p.tok.Span
	lit := &ast.ArrayInit{}
	p.next() // [

	if p.accept(token.RBracket) {
		// []T{...}
		lit.ElemType = p.parseType()
		p.parseArrayCtorArgs(lit)
		lit.SetSpan(start.Cover(p.prevSpan()))
		return lit
	}

	// [N]T{} fixed form needs a literal or const size followed by ']' and
	// a type token
	if (p.at(token.IntLit) || p.at(token.Ident)) && p.peekTok.Kind == token.RBracket &&
		p.peekTokenN(2).Kind == token.Ident {
		sizeTok := p.tok
		var size ast.Expr
		if p.at(token.IntLit) {
			e := &ast.IntLit{Value: sizeTok.Text}
			e.SetSpan(sizeTok.Span)
			size = e
		} else {
			e := &ast.Ident{Name: sizeTok.Text}
			e.SetSpan(sizeTok.Span)
			size = e
		}
		p.next() // size
		p.next() // ]
		lit.IsFixed = true
		lit.Len = size
		lit.ElemType = p.parseType()
		p.parseArrayCtorArgs(lit)
		lit.SetSpan(start.Cover(p.prevSpan()))
		return lit
	}

	// inline element list
	for !p.at(token.RBracket) && !p.at(token.EOF) {
		lit.Elems = append(lit.Elems, p.parseCallArg())
		if !p.accept(token.Comma) {
			break
		}
	}
	end := p.tok.Span
	p.expect(token.RBracket, diag.SynUnclosedDelimiter)
	// trailing ! marks a fixed-size inline initializer
	if p.accept(token.Bang) {
		lit.IsFixed = true
	}
	lit.SetSpan(start.Cover(end))
	return lit
}

// parseArrayCtorArgs parses the {len: n, cap: c, init: d} tail of a typed
// array literal.
func (p *Parser) parseArrayCtorArgs(lit *ast.ArrayInit) {
	if !p.at(token.LBrace) {
		return
	}
	p.next()
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		key, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
		if !ok {
			p.recoverNext()
			continue
		}
		if _, ok := p.expect(token.Colon, diag.SynUnexpectedToken); !ok {
			continue
		}
		val := p.parseCallArg()
		switch key.Text {
		case "len":
			lit.Len = val
		case "cap":
			lit.Cap = val
		case "init":
			lit.Default = val
		default:
			p.errorAt(diag.SynUnexpectedToken, key.Span, "unknown array field %q", key.Text)
		}
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter)
}

// parseMapLit parses {key: value, ...}.
func (p *Parser) parseMapLit() ast.Expr {
	start := p.tok.Span
	lit := &ast.MapInit{}
	p.next() // {
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		lit.Keys = append(lit.Keys, p.parseCallArg())
		if _, ok := p.expect(token.Colon, diag.SynUnexpectedToken); !ok {
			break
		}
		lit.Vals = append(lit.Vals, p.parseCallArg())
		if !p.accept(token.Comma) {
			break
		}
	}
	end := p.tok.Span
	p.expect(token.RBrace, diag.SynUnclosedDelimiter)
	lit.SetSpan(start.Cover(end))
	return lit
}

func (p *Parser) parseIfExpr() ast.Expr {
	start := p.tok.Span
	p.next() // if
	wasIf := p.insideIf
	p.insideIf = true
	wasNoStruct := p.noStructLit
	p.noStructLit = true
	cond := p.parseExpr()
	p.noStructLit = wasNoStruct

	e := &ast.IfExpr{Cond: cond, Then: p.parseBlock()}
	if p.accept(token.KwElse) {
		if p.at(token.KwIf) {
			e.Else = p.parseIfExpr()
		} else {
			e.Else = p.parseBlock()
		}
	}
	p.insideIf = wasIf
	e.SetSpan(start.Cover(p.prevSpan()))
	return e
}

func (p *Parser) parseMatchExpr() ast.Expr {
	start := p.tok.Span
	p.next() // match
	wasMatch := p.insideMatch
	p.insideMatch = true
	wasNoStruct := p.noStructLit
	p.noStructLit = true
	cond := p.parseExpr()
	p.noStructLit = wasNoStruct

	e := &ast.MatchExpr{Cond: cond}
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken); !ok {
		p.insideMatch = wasMatch
		return p.badExpr()
	}
	for i := 0; !p.at(token.RBrace) && !p.at(token.EOF); i++ {
		if i >= maxStatements {
			p.report(diag.IntRunawayLoop, diag.SevError, p.tok.Span, "match arm loop exceeded its bound")
			break
		}
		arm := ast.MatchArm{}
		if p.at(token.KwElse) {
			arm.IsElse = true
			p.next()
		} else {
			wasNS := p.noStructLit
			p.noStructLit = true
			arm.Conds = append(arm.Conds, p.parseExpr())
			for p.accept(token.Comma) {
				arm.Conds = append(arm.Conds, p.parseExpr())
			}
			p.noStructLit = wasNS
		}
		if !p.at(token.LBrace) {
			p.errorf(diag.SynBadMatchArm, "expected '{' to open match arm body, got %q", p.describe(p.tok))
			p.recoverNext()
			continue
		}
		arm.Body = p.parseBlock()
		e.Arms = append(e.Arms, arm)
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter)
	p.insideMatch = wasMatch
	e.SetSpan(start.Cover(p.prevSpan()))
	return e
}

func (p *Parser) parseUnsafeExpr() ast.Expr {
	start := p.tok.Span
	p.next() // unsafe
	wasUnsafe := p.insideUnsafe
	p.insideUnsafe = true
	u := &ast.UnsafeExpr{}
	b := p.parseBlock()
	u.Stmts = b.Stmts
	p.insideUnsafe = wasUnsafe
	u.SetSpan(start.Cover(p.prevSpan()))
	return u
}

// parseAnonFn parses an inline fn literal: fn (params) ret { body }.
func (p *Parser) parseAnonFn() ast.Expr {
	start := p.tok.Span
	p.next() // fn
	fn := &ast.FnDecl{Mod: p.mod, Lang: p.lang}
	if _, ok := p.expect(token.LParen, diag.SynBadFnSignature); !ok {
		return p.badExpr()
	}
	for !p.at(token.RParen) && !p.at(token.EOF) {
		fn.Params = append(fn.Params, p.parseParam())
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, diag.SynUnclosedDelimiter)
	if p.canStartType() && !p.at(token.LBrace) {
		fn.RetType = p.parseType()
	}
	fn.Body = p.parseBlock()
	fn.SetSpan(start.Cover(p.prevSpan()))
	e := &ast.AnonFn{Decl: fn}
	e.SetSpan(fn.Span())
	return e
}

func (p *Parser) parseStringLit() ast.Expr {
	tok := p.tok
	p.next()
	raw := strings.HasPrefix(tok.Text, "r")
	body := stringBody(tok.Text)
	if !raw && strings.Contains(body, "$") {
		return p.parseStringInter(tok, body)
	}
	e := &ast.StringLit{Value: body, IsRaw: raw}
	e.SetSpan(tok.Span)
	return e
}

func (p *Parser) badExpr() ast.Expr {
	e := &ast.BadExpr{}
	e.SetSpan(p.tok.Span)
	return e
}

// ---- predicates ----

func isCapitalized(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

// isKnownTypeName reports whether name resolves to a type: a builtin or a
// registered symbol.
func (p *Parser) isKnownTypeName(name string) bool {
	if symbols.IsBuiltinTypeName(name) {
		return true
	}
	_, ok := p.tab.Find(name)
	return ok
}

func (p *Parser) isImportedModule(name string) bool {
	return p.imports[name]
}

func (p *Parser) canStartExpr() bool {
	switch p.tok.Kind {
	case token.Ident, token.IntLit, token.FloatLit, token.StringLit, token.CharLit,
		token.KwTrue, token.KwFalse, token.KwNone, token.KwIf, token.KwMatch,
		token.KwUnsafe, token.KwFn, token.LParen, token.LBracket, token.LBrace,
		token.Minus, token.Bang, token.Tilde, token.Amp, token.Star, token.Dot,
		token.KwShared:
		return true
	}
	return false
}

func (p *Parser) canStartType() bool {
	switch p.tok.Kind {
	case token.Ident, token.LBracket, token.Amp, token.KwFn, token.Question:
		return true
	}
	return false
}

// stringBody strips the quotes (and raw prefix) from a string token's text.
func stringBody(text string) string {
	if strings.HasPrefix(text, "r") {
		text = text[1:]
	}
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}

func charBody(text string) string {
	if len(text) >= 2 && text[0] == '`' && text[len(text)-1] == '`' {
		return text[1 : len(text)-1]
	}
	return text
}

// parseIntValue evaluates an integer literal's text, tolerating the base
// prefixes and digit separators the lexer accepts.
func parseIntValue(text string) int64 {
	clean := strings.ReplaceAll(text, "_", "")
	v, err := strconv.ParseInt(clean, 0, 64)
	if err != nil {
		return 0
	}
	return v
}
