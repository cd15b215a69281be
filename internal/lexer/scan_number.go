package lexer

import (
	"veld/internal/diag"
	"veld/internal/token"
)

// scanNumber handles 0, 123, 0b..., 0o..., 0x..., 1.0, 1e-3, 1.0e+10 and
// the leading-dot form .5 (caller checks isNumberAfterDot first).
// Underscores are allowed between digits; malformed literals are reported
// and the token is finished on a best-effort basis.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntLit

	// ".digits"
	if lx.cursor.Peek() == '.' {
		lx.cursor.Bump()
		if !isDec(lx.cursor.Peek()) {
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexBadNumber, sp, "expected digit after '.'")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
		}
		kind = token.FloatLit
		lx.eatDecDigits()
		return lx.finishExponent(start, kind)
	}

	// base prefix
	if lx.cursor.Peek() == '0' {
		lx.cursor.Bump()
		switch lx.cursor.Peek() {
		case 'b', 'B':
			lx.cursor.Bump()
			for {
				b := lx.cursor.Peek()
				if b != '0' && b != '1' && b != '_' {
					break
				}
				lx.cursor.Bump()
			}
			return lx.emitNumber(start, kind)
		case 'o', 'O':
			lx.cursor.Bump()
			for {
				b := lx.cursor.Peek()
				if !(b >= '0' && b <= '7') && b != '_' {
					break
				}
				lx.cursor.Bump()
			}
			return lx.emitNumber(start, kind)
		case 'x', 'X':
			lx.cursor.Bump()
			for isHex(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
				lx.cursor.Bump()
			}
			return lx.emitNumber(start, kind)
		}
	}

	lx.eatDecDigits()

	// fractional part; '..' is a range token, not part of the number
	if lx.cursor.Peek() == '.' {
		if b1 := lx.cursor.PeekAt(1); b1 != '.' && !isIdentStartByte(b1) {
			lx.cursor.Bump()
			kind = token.FloatLit
			lx.eatDecDigits()
		}
	}

	return lx.finishExponent(start, kind)
}

func (lx *Lexer) eatDecDigits() {
	for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
		lx.cursor.Bump()
	}
}

func (lx *Lexer) finishExponent(start Mark, kind token.Kind) token.Token {
	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		kind = token.FloatLit
		lx.cursor.Bump()
		if b := lx.cursor.Peek(); b == '+' || b == '-' {
			lx.cursor.Bump()
		}
		if !isDec(lx.cursor.Peek()) {
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexBadNumber, sp, "expected digit after exponent")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
		}
		lx.eatDecDigits()
	}
	return lx.emitNumber(start, kind)
}

func (lx *Lexer) emitNumber(start Mark, kind token.Kind) token.Token {
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
}
