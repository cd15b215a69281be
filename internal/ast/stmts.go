package ast

import (
	"veld/internal/token"
)

// Block represents { stmts... } with its scope recorded by index.
type Block struct {
	stmt
	Stmts []Stmt
	Scope ScopeRef
}

// ScopeRef is an index into the symbol table's scope arena. The sentinel
// NoScope means the block was never assigned a scope (error recovery).
type ScopeRef int32

const NoScope ScopeRef = -1

// ExprStmt wraps an expression in statement position.
type ExprStmt struct {
	stmt
	X Expr
}

// AssignStmt represents lhs op rhs, including := declarations and
// compound assignment operators.
type AssignStmt struct {
	stmt
	Op  token.Kind
	LHS []Expr
	RHS []Expr
}

// ForStmt is the bare `for cond {}` (or infinite `for {}`) loop.
type ForStmt struct {
	stmt
	Label string
	Cond  Expr // nil for infinite loops
	Body  *Block
}

// ForInStmt is `for key, val in iterable {}`.
type ForInStmt struct {
	stmt
	Label  string
	Key    string // "" when absent
	Val    string
	ValMut bool
	Iter   Expr
	Body   *Block
}

// ForCStmt is the C-style `for init; cond; post {}` loop.
type ForCStmt struct {
	stmt
	Label string
	Init  Stmt // nil when omitted
	Cond  Expr
	Post  Stmt
	Body  *Block
}

// ReturnStmt returns zero or more values.
type ReturnStmt struct {
	stmt
	Results []Expr
}

// BranchStmt is break or continue, optionally labeled.
type BranchStmt struct {
	stmt
	Tok   token.Kind // token.KwBreak or token.KwContinue
	Label string
}

// GotoStmt jumps to a label.
type GotoStmt struct {
	stmt
	Label string
}

// GotoLabel declares a label. When it prefixes a for-family statement the
// parser attaches the name to that statement instead.
type GotoLabel struct {
	stmt
	Name string
}

// DeferStmt defers a block until function exit.
type DeferStmt struct {
	stmt
	Body *Block
}

// GoStmt spawns a call on a new thread.
type GoStmt struct {
	stmt
	Call Expr
}

// AssertStmt checks a condition at runtime, with an optional extra message.
type AssertStmt struct {
	stmt
	Cond  Expr
	Extra Expr // nil when absent
}

// BadStmt is the error placeholder emitted when statement parsing fails.
type BadStmt struct {
	stmt
}
