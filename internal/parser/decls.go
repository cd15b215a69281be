package parser

import (
	"strings"

	"veld/internal/ast"
	"veld/internal/diag"
	"veld/internal/source"
	"veld/internal/symbols"
	"veld/internal/token"
)

// parseTopLevel dispatches one top-level construct into f. Unknown
// constructs that parse as statements land in f.Stmts so that script-style
// files and tests keep working.
func (p *Parser) parseTopLevel(f *ast.File) {
	switch p.tok.Kind {
	case token.KwModule:
		p.parseModuleClause(f)
	case token.KwImport:
		if imp := p.parseImport(); imp != nil {
			f.Imports = append(f.Imports, imp)
		}
	case token.KwPub:
		p.parsePubDecl(f)
	case token.KwConst:
		if d := p.parseConstDecl(false); d != nil {
			f.Decls = append(f.Decls, d)
		}
	case token.KwFn:
		if d := p.parseFnDecl(false, nil); d != nil {
			f.Decls = append(f.Decls, d)
		}
	case token.KwStruct:
		if d := p.parseStructDecl(false, nil); d != nil {
			f.Decls = append(f.Decls, d)
		}
	case token.KwEnum:
		if d := p.parseEnumDecl(false, nil); d != nil {
			f.Decls = append(f.Decls, d)
		}
	case token.KwType:
		if d := p.parseTypeDecl(false); d != nil {
			f.Decls = append(f.Decls, d)
		}
	case token.KwInterface:
		if d := p.parseInterfaceDecl(false); d != nil {
			f.Decls = append(f.Decls, d)
		}
	case token.At, token.LBracket:
		attrs := p.parseAttrs()
		p.parseAttributedDecl(f, attrs)
	case token.Ident:
		if p.tok.Text == "global" && (p.peekTok.Kind == token.LParen || p.peekTok.Kind == token.Ident) {
			if d := p.parseGlobalDecl(); d != nil {
				f.Decls = append(f.Decls, d)
			}
			return
		}
		f.Stmts = append(f.Stmts, p.parseStmt())
	default:
		// script-style top-level statement
		f.Stmts = append(f.Stmts, p.parseStmt())
	}
}

func (p *Parser) parseModuleClause(f *ast.File) {
	p.next() // module
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		p.recoverNext()
		return
	}
	p.mod = name.Text
	f.Module = name.Text
}

// parsePubDecl handles the `pub` visibility lookahead: the decision is
// made on peekTok without consuming anything the sub-parsers expect.
func (p *Parser) parsePubDecl(f *ast.File) {
	switch p.peekTok.Kind {
	case token.KwFn, token.KwConst, token.KwStruct, token.KwEnum, token.KwType, token.KwInterface:
	default:
		p.errorf(diag.SynBadVisibility, "'pub' must precede a declaration, got %q", p.describe(p.peekTok))
		p.recoverNext()
		return
	}
	p.next() // pub
	switch p.tok.Kind {
	case token.KwFn:
		if d := p.parseFnDecl(true, nil); d != nil {
			f.Decls = append(f.Decls, d)
		}
	case token.KwConst:
		if d := p.parseConstDecl(true); d != nil {
			f.Decls = append(f.Decls, d)
		}
	case token.KwStruct:
		if d := p.parseStructDecl(true, nil); d != nil {
			f.Decls = append(f.Decls, d)
		}
	case token.KwEnum:
		if d := p.parseEnumDecl(true, nil); d != nil {
			f.Decls = append(f.Decls, d)
		}
	case token.KwType:
		if d := p.parseTypeDecl(true); d != nil {
			f.Decls = append(f.Decls, d)
		}
	case token.KwInterface:
		if d := p.parseInterfaceDecl(true); d != nil {
			f.Decls = append(f.Decls, d)
		}
	}
}

func (p *Parser) parseAttributedDecl(f *ast.File, attrs []ast.Attr) {
	isPub := false
	if p.at(token.KwPub) {
		isPub = true
		p.next()
	}
	switch p.tok.Kind {
	case token.KwFn:
		if d := p.parseFnDecl(isPub, attrs); d != nil {
			f.Decls = append(f.Decls, d)
		}
	case token.KwStruct:
		if d := p.parseStructDecl(isPub, attrs); d != nil {
			f.Decls = append(f.Decls, d)
		}
	case token.KwEnum:
		if d := p.parseEnumDecl(isPub, attrs); d != nil {
			f.Decls = append(f.Decls, d)
		}
	default:
		p.errorf(diag.SynUnexpectedToken, "attributes must precede fn, struct, or enum, got %q", p.describe(p.tok))
		p.recoverNext()
	}
}

// parseAttrs parses @[name] / @[name: arg] attribute groups. Duplicate
// names within one declaration are an error.
func (p *Parser) parseAttrs() []ast.Attr {
	var attrs []ast.Attr
	seen := make(map[string]bool)
	for p.at(token.At) || p.at(token.LBracket) {
		if p.at(token.At) {
			p.next()
		}
		if _, ok := p.expect(token.LBracket, diag.SynUnexpectedToken); !ok {
			break
		}
		for !p.at(token.RBracket) && !p.at(token.EOF) {
			name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
			if !ok {
				p.recoverNext()
				continue
			}
			attr := ast.Attr{Name: name.Text}
			if p.accept(token.Colon) {
				attr.Arg = p.tok.Text
				p.next()
			}
			if seen[attr.Name] {
				p.errorAt(diag.SynDuplicateAttribute, name.Span, "duplicate attribute %q", attr.Name)
			} else {
				seen[attr.Name] = true
				attrs = append(attrs, attr)
			}
			if !p.accept(token.Semicolon) {
				break
			}
		}
		p.expect(token.RBracket, diag.SynUnclosedDelimiter)
	}
	return attrs
}

func (p *Parser) parseImport() *ast.Import {
	start := p.tok.Span
	p.next() // import
	name, ok := p.expect(token.Ident, diag.SynBadImport)
	if !ok {
		p.recoverNext()
		return nil
	}
	path := name.Text
	for p.accept(token.Dot) {
		part, ok := p.expect(token.Ident, diag.SynBadImport)
		if !ok {
			return nil
		}
		path += "." + part.Text
	}
	imp := &ast.Import{Path: path}
	if p.at(token.KwAs) {
		p.next()
		alias, ok := p.expect(token.Ident, diag.SynBadImport)
		if !ok {
			return nil
		}
		imp.Alias = alias.Text
	}
	if imp.Alias != "" {
		p.imports[imp.Alias] = true
	} else {
		segs := strings.Split(imp.Path, ".")
		p.imports[segs[len(segs)-1]] = true
	}
	imp.SetSpan(start.Cover(p.prevSpan()))
	return imp
}

// parseConstDecl parses `const name = expr` or a parenthesized const
// block. Every field registers into the symbol table; collisions are
// reported at the point of registration.
func (p *Parser) parseConstDecl(isPub bool) ast.Decl {
	start := p.tok.Span
	p.next() // const
	d := &ast.ConstDecl{IsPub: isPub}

	parseField := func() {
		name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
		if !ok {
			p.recoverNext()
			return
		}
		if name.Text == strings.ToUpper(name.Text) && strings.ContainsAny(name.Text, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
			p.warnAt(diag.StyleConstUpper, name.Span, "const name '"+name.Text+"' should be snake_case")
		}
		if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken); !ok {
			p.recoverNext()
			return
		}
		field := &ast.ConstField{Name: name.Text, Mod: p.mod, Value: p.parseExpr(), IsPub: isPub}
		if err := p.tab.RegisterConst(field); err != nil {
			p.errorAt(diag.RegConstCollision, name.Span, "%v", err)
		}
		d.Fields = append(d.Fields, field)
	}

	if p.accept(token.LParen) {
		for !p.at(token.RParen) && !p.at(token.EOF) {
			parseField()
		}
		p.expect(token.RParen, diag.SynUnclosedDelimiter)
	} else {
		parseField()
	}
	d.SetSpan(start.Cover(p.prevSpan()))
	return d
}

// parseGlobalDecl parses `global ( name type = value ... )`. Globals are
// rejected unless explicitly enabled in the preferences.
func (p *Parser) parseGlobalDecl() ast.Decl {
	start := p.tok.Span
	p.next() // global
	if !p.prefs.EnableGlobals {
		p.errorAt(diag.RegGlobalNotAllowed, start, "global variables require -enable-globals")
	}
	d := &ast.GlobalDecl{}

	parseField := func() {
		name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
		if !ok {
			p.recoverNext()
			return
		}
		field := &ast.GlobalField{Name: name.Text}
		if p.accept(token.Assign) {
			field.Value = p.parseExpr()
		} else {
			field.Type = p.parseType()
			if p.accept(token.Assign) {
				field.Value = p.parseExpr()
			}
		}
		if p.prefs.EnableGlobals {
			if err := p.tab.RegisterGlobal(p.mod, field); err != nil {
				p.errorAt(diag.RegConstCollision, name.Span, "%v", err)
			}
		}
		d.Fields = append(d.Fields, field)
	}

	if p.accept(token.LParen) {
		for !p.at(token.RParen) && !p.at(token.EOF) {
			parseField()
		}
		p.expect(token.RParen, diag.SynUnclosedDelimiter)
	} else {
		parseField()
	}
	d.SetSpan(start.Cover(p.prevSpan()))
	return d
}

// parseFnDecl parses a function or method declaration. In foreign-language
// files (x.c.vd, x.js.vd) bodies are optional: the declaration only pins a
// signature for the matching backend.
func (p *Parser) parseFnDecl(isPub bool, attrs []ast.Attr) ast.Decl {
	start := p.tok.Span
	p.next() // fn
	fn := &ast.FnDecl{Mod: p.mod, IsPub: isPub, Attrs: attrs, Lang: p.lang}

	// receiver
	if p.at(token.LParen) {
		p.next()
		recv := p.parseParam()
		fn.Receiver = &recv
		fn.IsMethod = true
		p.expect(token.RParen, diag.SynUnclosedDelimiter)
	}

	name, ok := p.expect(token.Ident, diag.SynBadFnSignature)
	if !ok {
		p.recoverNext()
		return nil
	}
	fn.Name = name.Text

	// generic type parameters: single uppercase letters by convention
	if p.at(token.Lt) {
		p.next()
		for !p.at(token.Gt) && !p.at(token.EOF) {
			tp, ok := p.expect(token.Ident, diag.SynBadFnSignature)
			if !ok {
				break
			}
			fn.Generics = append(fn.Generics, tp.Text)
			if !p.accept(token.Comma) {
				break
			}
		}
		p.expect(token.Gt, diag.SynUnclosedDelimiter)
	}

	if _, ok := p.expect(token.LParen, diag.SynBadFnSignature); !ok {
		p.recoverNext()
		return nil
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

	// intern composite types appearing in the signature: map presence
	// drives the markused map-runtime decision
	for _, param := range fn.Params {
		p.resolveTypeExpr(param.Type)
	}
	if fn.RetType != nil {
		p.resolveTypeExpr(fn.RetType)
	}

	if p.at(token.LBrace) {
		p.labels = make(map[string]bool)
		fn.Body = p.parseBlock()
	} else if p.lang == ast.LangVeld {
		p.errorAt(diag.SynBadFnSignature, name.Span, "function %q has no body", fn.Name)
	}

	fn.SetSpan(start.Cover(p.prevSpan()))
	p.tab.RegisterFn(fn)
	return fn
}

func (p *Parser) parseParam() ast.Param {
	param := ast.Param{}
	if p.at(token.KwMut) {
		param.IsMut = true
		p.next()
	}
	if p.at(token.Ident) && (p.peekTok.Kind == token.Ident || p.peekTok.Kind == token.LBracket ||
		p.peekTok.Kind == token.Amp || p.peekTok.Kind == token.KwFn || p.peekTok.Kind == token.Ellipsis) {
		param.Name = p.tok.Text
		p.next()
	}
	if p.accept(token.Ellipsis) {
		// variadic; the element type follows
		param.Type = &ast.ArrayType{Elem: p.parseType()}
		return param
	}
	param.Type = p.parseType()
	return param
}

func (p *Parser) parseStructDecl(isPub bool, attrs []ast.Attr) ast.Decl {
	start := p.tok.Span
	p.next() // struct
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		p.recoverNext()
		return nil
	}
	d := &ast.StructDecl{Name: name.Text, Mod: p.mod, IsPub: isPub, Attrs: attrs}

	if p.at(token.Lt) {
		p.next()
		for !p.at(token.Gt) && !p.at(token.EOF) {
			tp, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
			if !ok {
				break
			}
			d.Generics = append(d.Generics, tp.Text)
			if !p.accept(token.Comma) {
				break
			}
		}
		p.expect(token.Gt, diag.SynUnclosedDelimiter)
	}

	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken); !ok {
		p.recoverNext()
		return nil
	}

	sectionMut, sectionPub := false, isPub
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		// section markers: mut: / pub: / pub mut:
		if p.at(token.KwMut) && p.peekTok.Kind == token.Colon {
			sectionMut = true
			p.next()
			p.next()
			continue
		}
		if p.at(token.KwPub) {
			sectionPub = true
			p.next()
			if p.at(token.KwMut) {
				sectionMut = true
				p.next()
			}
			p.expect(token.Colon, diag.SynUnexpectedToken)
			continue
		}
		fname, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
		if !ok {
			p.recoverNext()
			continue
		}
		field := ast.StructField{Name: fname.Text, IsMut: sectionMut, IsPub: sectionPub}
		field.Type = p.parseType()
		if p.accept(token.Assign) {
			field.Default = p.parseExpr()
		}
		d.Fields = append(d.Fields, field)
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter)
	d.SetSpan(start.Cover(p.prevSpan()))

	p.registerStruct(d, name.Span)
	return d
}

func (p *Parser) registerStruct(d *ast.StructDecl, sp source.Span) {
	info := &symbols.StructInfo{}
	for _, f := range d.Fields {
		typ := p.resolveTypeExpr(f.Type)
		info.Fields = append(info.Fields, symbols.Field{Name: f.Name, Type: typ})
	}
	if _, err := p.tab.Register(symbols.TypeSymbol{
		Name:  d.Name,
		CName: cname(p.mod, d.Name),
		Kind:  symbols.KindStruct,
		Mod:   p.mod,
		Info:  info,
	}); err != nil {
		p.errorAt(diag.RegTypeCollision, sp, "%v", err)
	}
}

func (p *Parser) parseEnumDecl(isPub bool, attrs []ast.Attr) ast.Decl {
	start := p.tok.Span
	p.next() // enum
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		p.recoverNext()
		return nil
	}
	d := &ast.EnumDecl{Name: name.Text, Mod: p.mod, IsPub: isPub, Attrs: attrs}
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken); !ok {
		p.recoverNext()
		return nil
	}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		vname, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
		if !ok {
			p.recoverNext()
			continue
		}
		variant := ast.EnumVariant{Name: vname.Text}
		if p.accept(token.Assign) {
			variant.Value = p.parseExpr()
		}
		d.Variants = append(d.Variants, variant)
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter)
	d.SetSpan(start.Cover(p.prevSpan()))

	info := &symbols.EnumInfo{}
	for _, v := range d.Variants {
		info.Variants = append(info.Variants, v.Name)
	}
	if _, err := p.tab.Register(symbols.TypeSymbol{
		Name:  d.Name,
		CName: cname(p.mod, d.Name),
		Kind:  symbols.KindEnum,
		Mod:   p.mod,
		Info:  info,
	}); err != nil {
		p.errorAt(diag.RegTypeCollision, name.Span, "%v", err)
	}
	return d
}

// parseTypeDecl parses the three type declaration forms: alias, sum type,
// and function type.
func (p *Parser) parseTypeDecl(isPub bool) ast.Decl {
	start := p.tok.Span
	p.next() // type
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		p.recoverNext()
		return nil
	}
	if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken); !ok {
		p.recoverNext()
		return nil
	}
	d := &ast.TypeDecl{Name: name.Text, Mod: p.mod, IsPub: isPub}

	if p.at(token.KwFn) {
		d.Kind = ast.TypeFn
		d.Variants = []ast.Expr{p.parseType()}
	} else {
		first := p.parseType()
		d.Variants = []ast.Expr{first}
		for p.accept(token.Pipe) {
			d.Variants = append(d.Variants, p.parseType())
		}
		if len(d.Variants) > 1 {
			d.Kind = ast.TypeSum
		} else {
			d.Kind = ast.TypeAlias
			if nt, ok := first.(*ast.NamedType); ok && nt.Name == d.Name && nt.Mod == "" {
				p.errorAt(diag.RegSelfAlias, name.Span, "type %q aliases itself", d.Name)
			}
		}
	}
	d.SetSpan(start.Cover(p.prevSpan()))
	p.registerTypeDecl(d, name.Span)
	return d
}

func (p *Parser) registerTypeDecl(d *ast.TypeDecl, sp source.Span) {
	sym := symbols.TypeSymbol{
		Name:  d.Name,
		CName: cname(p.mod, d.Name),
		Mod:   p.mod,
	}
	switch d.Kind {
	case ast.TypeAlias:
		sym.Kind = symbols.KindAlias
		sym.Info = &symbols.AliasInfo{Parent: p.resolveTypeExpr(d.Variants[0])}
	case ast.TypeSum:
		info := &symbols.SumTypeInfo{}
		for _, v := range d.Variants {
			info.Variants = append(info.Variants, p.resolveTypeExpr(v))
		}
		sym.Kind = symbols.KindSumType
		sym.Info = info
	case ast.TypeFn:
		sym.Kind = symbols.KindFunction
		sym.Info = &symbols.FnInfo{}
	}
	if _, err := p.tab.Register(sym); err != nil {
		p.errorAt(diag.RegTypeCollision, sp, "%v", err)
	}
}

func (p *Parser) parseInterfaceDecl(isPub bool) ast.Decl {
	start := p.tok.Span
	p.next() // interface
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		p.recoverNext()
		return nil
	}
	d := &ast.InterfaceDecl{Name: name.Text, Mod: p.mod, IsPub: isPub}
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken); !ok {
		p.recoverNext()
		return nil
	}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		mname, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
		if !ok {
			p.recoverNext()
			continue
		}
		m := ast.InterfaceMethod{Name: mname.Text}
		if p.accept(token.LParen) {
			for !p.at(token.RParen) && !p.at(token.EOF) {
				m.Params = append(m.Params, p.parseParam())
				if !p.accept(token.Comma) {
					break
				}
			}
			p.expect(token.RParen, diag.SynUnclosedDelimiter)
		}
		if p.canStartType() && !p.at(token.RBrace) && !p.at(token.Ident) {
			m.Ret = p.parseType()
		} else if p.at(token.Ident) && p.isKnownTypeName(p.tok.Text) {
			m.Ret = p.parseType()
		}
		d.Methods = append(d.Methods, m)
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter)
	d.SetSpan(start.Cover(p.prevSpan()))

	info := &symbols.InterfaceInfo{}
	for _, m := range d.Methods {
		info.Methods = append(info.Methods, m.Name)
	}
	if _, err := p.tab.Register(symbols.TypeSymbol{
		Name:  d.Name,
		CName: cname(p.mod, d.Name),
		Kind:  symbols.KindInterface,
		Mod:   p.mod,
		Info:  info,
	}); err != nil {
		p.errorAt(diag.RegTypeCollision, name.Span, "%v", err)
	}
	return d
}

// resolveTypeExpr maps a type expression to a symbol table index where
// possible, interning composites. Unresolvable names (forward references,
// generic parameters) stay NoType; backends re-resolve by name.
func (p *Parser) resolveTypeExpr(t ast.Expr) symbols.Type {
	switch t := t.(type) {
	case *ast.NamedType:
		if typ, ok := p.tab.Find(t.Name); ok {
			return typ
		}
	case *ast.ArrayType:
		elem := p.resolveTypeExpr(t.Elem)
		if elem == symbols.NoType {
			return symbols.NoType
		}
		if t.IsFixed {
			size := 0
			if lit, ok := t.Len.(*ast.IntLit); ok {
				size = int(parseIntValue(lit.Value))
			}
			return p.tab.FindOrRegisterFixedArray(elem, size)
		}
		return p.tab.FindOrRegisterArray(elem)
	case *ast.MapType:
		key := p.resolveTypeExpr(t.Key)
		val := p.resolveTypeExpr(t.Value)
		if key == symbols.NoType || val == symbols.NoType {
			return symbols.NoType
		}
		return p.tab.FindOrRegisterMap(key, val)
	case *ast.RefType:
		return p.resolveTypeExpr(t.Base)
	}
	return symbols.NoType
}

func cname(mod, name string) string {
	if mod == "" || mod == "main" {
		return name
	}
	return mod + "__" + name
}
