package lexer

import (
	"veld/internal/diag"
	"veld/internal/source"
	"veld/internal/token"
)

// Options configures a single lexer instance.
type Options struct {
	// Reporter receives lexical diagnostics; nil means errors are dropped
	// but lexing continues.
	Reporter diag.Reporter
}

// Lexer produces significant tokens from one file. Comments and
// whitespace are skipped, not preserved.
type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
	}
}

// Next returns the next significant token. After EOF it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.skipTrivia()

	if lx.cursor.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.emptySpan()}
	}

	ch := lx.cursor.Peek()
	switch {
	case ch == 'r' && lx.quoteFollows(1):
		return lx.scanString(true)

	case isIdentStartByte(ch) || ch >= utf8RuneSelf:
		return lx.scanIdentOrKeyword()

	case isDec(ch):
		return lx.scanNumber()

	case ch == '.' && lx.isNumberAfterDot():
		return lx.scanNumber()

	case ch == '\'' || ch == '"':
		return lx.scanString(false)

	case ch == '`':
		return lx.scanChar()

	default:
		return lx.scanOperatorOrPunct()
	}
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// skipTrivia consumes whitespace and comments. Block comments nest; an
// unterminated one is reported and truncated at EOF.
func (lx *Lexer) skipTrivia() {
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			lx.cursor.Bump()
			continue
		}
		if b == '/' {
			b0, b1, ok := lx.cursor.Peek2()
			if !ok || b0 != '/' {
				return
			}
			switch b1 {
			case '/':
				for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
					lx.cursor.Bump()
				}
				continue
			case '*':
				lx.skipBlockComment()
				continue
			}
		}
		return
	}
}

func (lx *Lexer) skipBlockComment() {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // '/'
	lx.cursor.Bump() // '*'
	depth := 1
	for !lx.cursor.EOF() {
		b0, b1, ok := lx.cursor.Peek2()
		if !ok {
			lx.cursor.Bump()
			break
		}
		if b0 == '/' && b1 == '*' {
			depth++
			lx.cursor.Bump()
			lx.cursor.Bump()
			continue
		}
		if b0 == '*' && b1 == '/' {
			depth--
			lx.cursor.Bump()
			lx.cursor.Bump()
			if depth == 0 {
				return
			}
			continue
		}
		lx.cursor.Bump()
	}
	lx.errLex(diag.LexUnknownChar, lx.cursor.SpanFrom(start), "unterminated block comment")
}

// quoteFollows reports whether the byte n ahead opens a string literal.
func (lx *Lexer) quoteFollows(n uint32) bool {
	b := lx.cursor.PeekAt(n)
	return b == '\'' || b == '"'
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(code, diag.SevError, sp, msg, nil)
	}
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}
