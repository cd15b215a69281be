package lexer

import (
	"veld/internal/diag"
	"veld/internal/token"
)

// scanString scans a single- or double-quoted string literal. Token.Text
// keeps the quotes (and the r prefix for raw strings); escape decoding and
// interpolation splitting happen in the parser. Raw strings take no
// escapes: a backslash is an ordinary byte there.
func (lx *Lexer) scanString(raw bool) token.Token {
	start := lx.cursor.Mark()
	if raw {
		lx.cursor.Bump() // 'r'
	}
	quote := lx.cursor.Bump()
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == quote {
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp)}
		}
		if b == '\\' && !raw {
			lx.cursor.Bump()
			if lx.cursor.EOF() {
				break
			}
			lx.cursor.Bump()
			continue
		}
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnterminatedString, sp, "unterminated string literal")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}

// scanChar scans a backtick-quoted char literal like `a` or `\n`.
func (lx *Lexer) scanChar() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // '`'
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == '`' {
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.CharLit, Span: sp, Text: lx.text(sp)}
		}
		if b == '\n' {
			break
		}
		if b == '\\' {
			lx.cursor.Bump()
			if lx.cursor.EOF() {
				break
			}
		}
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnterminatedString, sp, "unterminated char literal")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}
