// Package parser turns a token stream into an AST. It is a recursive
// descent parser with two tokens of lookahead plus an explicit peekTokenN
// escape hatch used by the generic disambiguation heuristics.
//
// One Parser instance parses exactly one file. Parallel parsing creates
// independent instances sharing one symbol table, whose registration is
// serialized internally.
package parser

import (
	"errors"
	"fmt"

	"veld/internal/ast"
	"veld/internal/diag"
	"veld/internal/lexer"
	"veld/internal/pref"
	"veld/internal/source"
	"veld/internal/symbols"
	"veld/internal/token"
)

// maxStatements bounds every statement loop. Hitting it means the parser
// stopped making progress, which is a compiler bug, not a user error.
const maxStatements = 1_000_000

// ErrFatal is wrapped by the error returned when a strict-mode parse stops
// on its first diagnostic.
var ErrFatal = errors.New("parse failed")

// Options configures one parser instance.
type Options struct {
	Prefs    *pref.Preferences
	Table    *symbols.Table
	Reporter diag.Reporter
}

// Parser holds the full parsing state for one file.
type Parser struct {
	fset  *source.FileSet
	file  *source.File
	lx    *lexer.Lexer
	tab   *symbols.Table
	prefs *pref.Preferences
	rep   diag.Reporter

	tok       token.Token
	peekTok   token.Token
	lookahead []token.Token // overflow buffer behind peekTok

	mod     string
	lang    ast.FileLang
	imports map[string]bool // import aliases and last path segments

	// Context-sensitive grammar flags.
	insideIf     bool
	insideFor    bool
	insideMatch  bool
	insideDefer  bool
	insideUnsafe bool
	insideAsm    bool
	noStructLit  bool // inside an if/for/match header: `{` opens the body

	// Labels seen in the current function body.
	labels map[string]bool

	scope symbols.ScopeID

	errCount    int
	shouldAbort bool
	fatalErr    error
}

// ParseFile parses one file already loaded into the file set.
func ParseFile(fset *source.FileSet, id source.FileID, opts Options) (*ast.File, error) {
	file := fset.Get(id)
	if file == nil {
		return nil, fmt.Errorf("parse: unknown file id %d", id)
	}
	p := newParser(fset, file, opts)
	return p.parse()
}

// ParseText parses raw in-memory source, used by tests and by string
// interpolation, which re-parses embedded expression fragments.
func ParseText(fset *source.FileSet, name string, src []byte, opts Options) (*ast.File, error) {
	id := fset.AddVirtual(name, src)
	return ParseFile(fset, id, opts)
}

func newParser(fset *source.FileSet, file *source.File, opts Options) *Parser {
	prefs := opts.Prefs
	if prefs == nil {
		prefs = pref.Default()
	}
	tab := opts.Table
	if tab == nil {
		tab = symbols.NewTable()
	}
	rep := opts.Reporter
	if rep == nil {
		rep = diag.NopReporter{}
	}
	p := &Parser{
		fset:    fset,
		file:    file,
		lx:      lexer.New(file, lexer.Options{Reporter: rep}),
		tab:     tab,
		prefs:   prefs,
		rep:     rep,
		mod:     "main",
		lang:    ast.FileLangOf(file.Path),
		imports: make(map[string]bool),
		labels:  make(map[string]bool),
		scope:   symbols.NoScopeID,
	}
	// prime tok and peekTok
	p.tok = p.lx.Next()
	p.peekTok = p.lx.Next()
	return p
}

func (p *Parser) parse() (*ast.File, error) {
	f := &ast.File{
		Path:   p.file.Path,
		Module: p.mod,
		Lang:   p.lang,
	}
	start := p.tok.Span

	for i := 0; p.tok.Kind != token.EOF; i++ {
		if p.shouldAbort {
			break
		}
		if i >= maxStatements {
			p.report(diag.IntRunawayLoop, diag.SevError, p.tok.Span,
				"top-level statement loop exceeded its bound")
			break
		}
		p.parseTopLevel(f)
	}

	f.Module = p.mod
	f.SetSpan(start.Cover(p.prevSpan()))
	return f, p.fatalErr
}

// ---- token plumbing ----

// next advances: tok <- peekTok <- lookahead/lexer.
func (p *Parser) next() {
	p.tok = p.peekTok
	if len(p.lookahead) > 0 {
		p.peekTok = p.lookahead[0]
		p.lookahead = p.lookahead[1:]
	} else {
		p.peekTok = p.lx.Next()
	}
}

// peekTokenN looks n tokens ahead: n=0 is tok, n=1 is peekTok. Deeper
// lookahead is buffered; only the disambiguation heuristics use it.
func (p *Parser) peekTokenN(n int) token.Token {
	switch n {
	case 0:
		return p.tok
	case 1:
		return p.peekTok
	}
	for len(p.lookahead) < n-1 {
		p.lookahead = append(p.lookahead, p.lx.Next())
	}
	return p.lookahead[n-2]
}

func (p *Parser) at(k token.Kind) bool { return p.tok.Kind == k }

// atGt reports a '>' in closing position, counting the greedy '>>' token
// the lexer produces for nested generic argument lists.
func (p *Parser) atGt() bool {
	return p.tok.Kind == token.Gt || p.tok.Kind == token.Shr
}

// acceptGt consumes one '>'. A '>>' token is split: its second half stays
// as the current token so the enclosing list can close too.
func (p *Parser) acceptGt() bool {
	switch p.tok.Kind {
	case token.Gt:
		p.next()
		return true
	case token.Shr:
		half := p.tok.Span
		half.Start++
		p.tok = token.Token{Kind: token.Gt, Span: half}
		return true
	}
	return false
}

func (p *Parser) accept(k token.Kind) bool {
	if p.tok.Kind == k {
		p.next()
		return true
	}
	return false
}

// expect consumes a token of kind k or reports and returns false without
// consuming anything.
func (p *Parser) expect(k token.Kind, code diag.Code) (token.Token, bool) {
	if p.tok.Kind == k {
		tok := p.tok
		p.next()
		return tok, true
	}
	p.errorf(code, "expected %q, got %q", k.String(), p.describe(p.tok))
	return token.Token{Kind: token.Invalid, Span: p.tok.Span}, false
}

func (p *Parser) describe(t token.Token) string {
	if t.Kind == token.EOF {
		return "end of file"
	}
	if t.Text != "" {
		return t.Text
	}
	return t.Kind.String()
}

func (p *Parser) prevSpan() source.Span {
	// tok.Span works as an approximation of the previous extent: the error
	// paths that need precision pass explicit spans.
	return p.tok.Span
}

// ---- diagnostics ----

func (p *Parser) errorf(code diag.Code, format string, args ...any) {
	p.report(code, diag.SevError, p.tok.Span, fmt.Sprintf(format, args...))
}

func (p *Parser) errorAt(code diag.Code, sp source.Span, format string, args ...any) {
	p.report(code, diag.SevError, sp, fmt.Sprintf(format, args...))
}

func (p *Parser) warnAt(code diag.Code, sp source.Span, msg string) {
	if p.prefs.SkipWarnings {
		return
	}
	sev := diag.SevWarning
	if p.prefs.WarnsAreErrors {
		sev = diag.SevError
	}
	p.report(code, sev, sp, msg)
}

// report records one diagnostic and applies the error policy: strict mode
// stops at the first error, lenient modes keep going until the message
// limit flips the abort flag.
func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) {
	if p.shouldAbort {
		return
	}
	if sev == diag.SevError {
		p.errCount++
	}
	p.rep.Report(code, sev, sp, msg, nil)
	if sev != diag.SevError {
		return
	}
	if p.prefs.FatalErrors && p.prefs.Output == pref.OutputStdout {
		if p.fatalErr == nil {
			p.fatalErr = fmt.Errorf("%s: %s: %w", code.ID(), msg, ErrFatal)
		}
		p.shouldAbort = true
		return
	}
	if p.prefs.MessageLimit > 0 && p.errCount >= p.prefs.MessageLimit {
		p.shouldAbort = true
	}
}

// recover advances exactly one token after a lenient-mode error so the
// next dispatch starts from fresh input. Multi-error reporting depends on
// this single-step policy: anything fancier can skip the next error or
// loop forever.
func (p *Parser) recoverNext() {
	if p.tok.Kind != token.EOF {
		p.next()
	}
}

// ---- scope helpers ----

// openScope enters a lexical scope; closeScope seals it at the current
// position.
func (p *Parser) openScope() symbols.ScopeID {
	id := p.tab.Scopes.New(p.scope, p.tok.Span.Start)
	p.scope = id
	return id
}

func (p *Parser) openDetachedScope() symbols.ScopeID {
	id := p.tab.Scopes.NewDetached(p.tok.Span.Start)
	p.scope = id
	return id
}

func (p *Parser) closeScope(id symbols.ScopeID, parent symbols.ScopeID, end uint32) {
	p.tab.Scopes.Seal(id, end)
	p.scope = parent
}
