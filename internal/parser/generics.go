package parser

import (
	"veld/internal/ast"
	"veld/internal/diag"
	"veld/internal/token"
)

// genericCastWindow caps the forward scan of the generic-cast detector.
// The grammar is not LL(1) around `name<`; the bounded window keeps the
// worst case constant. The cap is normative: changing it changes which
// programs are accepted.
const genericCastWindow = 20

// isGenericCallHeuristic decides `name<` between a comparison and a
// generic instantiation. tok is the name, peekTok the '<'. The numbered
// cases are load-bearing and order-sensitive; regression tests pin each
// one.
func (p *Parser) isGenericCallHeuristic() bool {
	i := 2 // first token after '<'

	// case 6: a leading '&' is stripped before applying the other rules
	if p.peekTokenN(i).Kind == token.Amp {
		i++
	}

	first := p.peekTokenN(i)

	// case 1: '[' immediately after '<' means a slice/array type argument
	if first.Kind == token.LBracket {
		return true
	}

	// case 2: 'map[' means a map type argument
	if first.Kind == token.Ident && first.Text == "map" && p.peekTokenN(i+1).Kind == token.LBracket {
		return true
	}

	if first.Kind != token.Ident {
		return false
	}
	second := p.peekTokenN(i + 1)

	// case 3: a bare '>' two tokens later means a single simple type
	// argument (f<int>)
	if second.Kind == token.Gt {
		return true
	}

	// case 4: a nested '<' means generic only if the nested argument is
	// not itself a bare uppercase type-parameter letter (f<Foo<int>> yes,
	// a < b<T> no: T is a type parameter of the enclosing function)
	if second.Kind == token.Lt {
		nested := p.peekTokenN(i + 2)
		if nested.Kind == token.Ident && isTypeParamLetter(nested.Text) {
			return false
		}
		return true
	}

	// case 5: a ',' means generic only if the first argument token is a
	// recognized type name (f<int, string> yes, a < foo, b no)
	if second.Kind == token.Comma {
		return p.isKnownTypeName(first.Text)
	}

	return false
}

// isTypeParamLetter reports the single-uppercase-letter convention for
// generic type parameters.
func isTypeParamLetter(s string) bool {
	return len(s) == 1 && s[0] >= 'A' && s[0] <= 'Z'
}

// isGenericCastAhead scans forward from the '<' through type-grammar-only
// tokens, tracking angle-bracket depth, within a bounded window. It
// succeeds only when depth returns to zero and the very next token is '(':
// that shape is a generic cast like Foo<Bar<int>>(x).
func (p *Parser) isGenericCastAhead() bool {
	depth := 0
	for i := 1; i <= genericCastWindow; i++ {
		t := p.peekTokenN(i)
		switch t.Kind {
		case token.Lt:
			depth++
		case token.Gt:
			depth--
			if depth == 0 {
				return p.peekTokenN(i+1).Kind == token.LParen
			}
		case token.Shr:
			depth -= 2
			if depth == 0 {
				return p.peekTokenN(i+1).Kind == token.LParen
			}
		case token.Ident, token.Dot, token.Comma, token.LBracket, token.RBracket,
			token.KwFn, token.Amp, token.IntLit:
			// type grammar tokens, keep scanning
		default:
			return false
		}
		if depth <= 0 && i > 1 {
			return false
		}
	}
	return false
}

// tryGenericArgs commits to a generic instantiation when either heuristic
// accepts, consuming the name, '<', the type arguments, and '>'. On
// rejection nothing is consumed and the caller parses a comparison.
func (p *Parser) tryGenericArgs() ([]ast.Expr, bool) {
	if !p.isGenericCallHeuristic() && !p.isGenericCastAhead() {
		return nil, false
	}
	p.next() // name
	p.next() // '<'
	var generics []ast.Expr
	for !p.atGt() && !p.at(token.EOF) {
		generics = append(generics, p.parseType())
		if !p.accept(token.Comma) {
			break
		}
	}
	if !p.acceptGt() {
		p.errorf(diag.SynUnclosedDelimiter, "expected '>' to close the generic argument list, got %q", p.describe(p.tok))
	}
	return generics, true
}
