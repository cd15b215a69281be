// Package ast defines the syntax tree produced by the parser and consumed by
// the reachability walker and every backend.
//
// There are three classes of nodes: expressions, statements, and
// declarations. All nodes implement Node; marker methods seal the
// implementations into this package so that consumers can type-switch
// exhaustively over a closed variant set.
package ast

import (
	"veld/internal/source"
)

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() source.Span
	aNode()
}

// Expr is the interface for all expression nodes.
type Expr interface {
	Node
	aExpr()
}

// Stmt is the interface for all statement nodes.
type Stmt interface {
	Node
	aStmt()
}

// Decl is the interface for all declaration nodes.
type Decl interface {
	Node
	aDecl()
}

// node is the base struct embedded in all AST nodes.
type node struct {
	span source.Span
}

func (n *node) Span() source.Span { return n.span }
func (n *node) aNode()            {}

// SetSpan records the node's source extent. Called once by the parser.
func (n *node) SetSpan(sp source.Span) { n.span = sp }

type expr struct{ node }

func (*expr) aExpr() {}

type stmt struct{ node }

func (*stmt) aStmt() {}

type decl struct{ node }

func (*decl) aDecl() {}

// File is the root of one parsed source file. It exclusively owns its
// statement and declaration sequence; child expressions are exclusively
// owned by their containing node. Identifiers reference scope entries by
// name, never by pointer, so the tree stays acyclic.
type File struct {
	node
	Path    string
	Module  string       // module name from the module clause, or "main"
	Lang    FileLang     // language mode derived from the filename
	Imports []*Import
	Decls   []Decl
	Stmts   []Stmt // top-level statements (scripts and tests)
}

// FileLang selects the per-file language mode derived from filename infix
// conventions: x.c.vd is foreign-C, x.js.vd is foreign-JS, x.amd64.vd and
// x.arm64.vd are inline-assembly-only.
type FileLang uint8

const (
	LangVeld FileLang = iota
	LangC
	LangJS
	LangAmd64
	LangArm64
)

func (l FileLang) String() string {
	switch l {
	case LangVeld:
		return "veld"
	case LangC:
		return "c"
	case LangJS:
		return "js"
	case LangAmd64:
		return "amd64"
	case LangArm64:
		return "arm64"
	}
	return "unknown"
}

// FileLangOf derives the language mode from a file path.
func FileLangOf(path string) FileLang {
	switch {
	case hasInfix(path, ".c.vd"):
		return LangC
	case hasInfix(path, ".js.vd"):
		return LangJS
	case hasInfix(path, ".amd64.vd"):
		return LangAmd64
	case hasInfix(path, ".arm64.vd"):
		return LangArm64
	default:
		return LangVeld
	}
}

func hasInfix(path, suffix string) bool {
	return len(path) >= len(suffix) && path[len(path)-len(suffix):] == suffix
}
