package parser

import (
	"fmt"
	"strconv"
	"strings"

	"veld/internal/ast"
	"veld/internal/diag"
	"veld/internal/source"
	"veld/internal/token"
)

// parseStringInter splits a string literal containing interpolation
// markers into N+1 literal fragments around N expressions, each with an
// optional format specifier. Both `$name` and `${expr}`/`${expr:fmt}`
// forms are accepted.
func (p *Parser) parseStringInter(tok token.Token, body string) ast.Expr {
	lit := &ast.StringInterLit{}
	lit.SetSpan(tok.Span)

	var part strings.Builder
	i := 0
	for i < len(body) {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			part.WriteByte(c)
			part.WriteByte(body[i+1])
			i += 2
			continue
		}
		if c != '$' {
			part.WriteByte(c)
			i++
			continue
		}
		// `$` starts a slot
		if i+1 < len(body) && body[i+1] == '{' {
			end := matchBrace(body, i+2)
			if end < 0 {
				p.errorAt(diag.SynBadStringInter, tok.Span, "unclosed '${' in string interpolation")
				part.WriteString(body[i:])
				break
			}
			slot := body[i+2 : end]
			exprText, spec := splitFmtSpec(slot)
			if exprText == "" {
				p.errorAt(diag.SynBadStringInter, tok.Span, "empty interpolation slot")
				i = end + 1
				continue
			}
			fs, err := parseFmtSpec(spec)
			if err != nil {
				p.errorAt(diag.SynBadStringInter, tok.Span, "bad format specifier %q: %v", spec, err)
			}
			lit.Parts = append(lit.Parts, part.String())
			part.Reset()
			lit.Exprs = append(lit.Exprs, p.parseFragment(exprText, tok.Span))
			lit.Specs = append(lit.Specs, fs)
			i = end + 1
			continue
		}
		// bare $name shorthand
		j := i + 1
		for j < len(body) && isIdentContinue(body[j]) {
			j++
		}
		if j == i+1 {
			part.WriteByte(c)
			i++
			continue
		}
		lit.Parts = append(lit.Parts, part.String())
		part.Reset()
		lit.Exprs = append(lit.Exprs, p.parseFragment(body[i+1:j], tok.Span))
		lit.Specs = append(lit.Specs, defaultFmtSpec())
		i = j
	}
	lit.Parts = append(lit.Parts, part.String())

	if len(lit.Exprs) == 0 {
		// `$` appeared but opened no slot: plain literal after all
		e := &ast.StringLit{Value: body}
		e.SetSpan(tok.Span)
		return e
	}
	return lit
}

// matchBrace returns the index of the '}' closing the slot opened just
// before from, or -1. Nested braces (map literals, struct literals inside
// the slot) are tracked by depth.
func matchBrace(s string, from int) int {
	depth := 0
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

// splitFmtSpec separates `expr:fmt` at the last top-level ':'. A ':'
// inside brackets or braces belongs to the expression.
func splitFmtSpec(slot string) (exprText, spec string) {
	depth := 0
	cut := -1
	for i := 0; i < len(slot); i++ {
		switch slot[i] {
		case '[', '{', '(':
			depth++
		case ']', '}', ')':
			depth--
		case ':':
			if depth == 0 {
				cut = i
			}
		}
	}
	if cut < 0 {
		return strings.TrimSpace(slot), ""
	}
	return strings.TrimSpace(slot[:cut]), strings.TrimSpace(slot[cut+1:])
}

func defaultFmtSpec() ast.FmtSpec {
	return ast.FmtSpec{Precision: ast.PrecisionUnset}
}

// parseFmtSpec parses [+][fill][width][.precision][verb]. Zero is a legal
// precision; absence keeps the sentinel.
func parseFmtSpec(s string) (ast.FmtSpec, error) {
	fs := defaultFmtSpec()
	if s == "" {
		return fs, nil
	}
	i := 0
	if s[i] == '+' {
		fs.PlusSign = true
		i++
	}
	// an explicit fill is any non-digit byte directly followed by a digit
	if i+1 < len(s) && !isDigit(s[i]) && s[i] != '.' && isDigit(s[i+1]) {
		fs.Fill = rune(s[i])
		i++
	}
	if i < len(s) && s[i] == '0' && i+1 < len(s) && isDigit(s[i+1]) {
		fs.Fill = '0'
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i > start {
		w, err := strconv.Atoi(s[start:i])
		if err != nil {
			return fs, err
		}
		fs.Width = w
	}
	if i < len(s) && s[i] == '.' {
		i++
		start = i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return fs, fmt.Errorf("expected digits after '.'")
		}
		prec, err := strconv.Atoi(s[start:i])
		if err != nil {
			return fs, err
		}
		fs.Precision = prec
	}
	if i < len(s) {
		verb := s[i]
		if !isFmtVerb(verb) {
			return fs, fmt.Errorf("unknown format letter %q", string(verb))
		}
		fs.Verb = verb
		i++
	}
	if i != len(s) {
		return fs, fmt.Errorf("trailing characters %q", s[i:])
	}
	return fs, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentContinue(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || isDigit(b)
}

func isFmtVerb(b byte) bool {
	switch b {
	case 'd', 'x', 'X', 'o', 'b', 'f', 'F', 'e', 'E', 'g', 'G', 's', 'c', 'r':
		return true
	}
	return false
}

// parseFragment parses one interpolated expression by running a fresh
// parser over a virtual file. Diagnostics flow into the same reporter;
// the fragment shares the module context and symbol table.
func (p *Parser) parseFragment(text string, sp source.Span) ast.Expr {
	id := p.fset.AddVirtual(p.file.Path+"#inter", []byte(text))
	sub := newParser(p.fset, p.fset.Get(id), Options{
		Prefs:    p.prefs,
		Table:    p.tab,
		Reporter: p.rep,
	})
	sub.mod = p.mod
	sub.imports = p.imports
	e := sub.parseExpr()
	if sub.tok.Kind != token.EOF {
		p.errorAt(diag.SynBadStringInter, sp, "could not parse interpolated expression %q", text)
	}
	if sn, ok := e.(interface{ SetSpan(source.Span) }); ok {
		sn.SetSpan(sp)
	}
	return e
}
