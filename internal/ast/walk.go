package ast

// Inspect traverses the tree rooted at n in depth-first order, calling f for
// each node. If f returns false the children of the node are skipped.
// Only tree-owned children are visited; name references are not followed.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	case *File:
		for _, im := range n.Imports {
			Inspect(im, f)
		}
		for _, d := range n.Decls {
			Inspect(d, f)
		}
		for _, s := range n.Stmts {
			Inspect(s, f)
		}

	// Declarations.
	case *Import:
	case *FnDecl:
		if n.Body != nil {
			Inspect(n.Body, f)
		}
	case *ConstDecl:
		for _, fld := range n.Fields {
			Inspect(fld.Value, f)
		}
	case *GlobalDecl:
		for _, fld := range n.Fields {
			if fld.Value != nil {
				Inspect(fld.Value, f)
			}
		}
	case *StructDecl:
		for _, fld := range n.Fields {
			if fld.Default != nil {
				Inspect(fld.Default, f)
			}
		}
	case *EnumDecl:
		for _, v := range n.Variants {
			if v.Value != nil {
				Inspect(v.Value, f)
			}
		}
	case *TypeDecl, *InterfaceDecl:

	// Statements.
	case *Block:
		for _, s := range n.Stmts {
			Inspect(s, f)
		}
	case *ExprStmt:
		Inspect(n.X, f)
	case *AssignStmt:
		for _, e := range n.LHS {
			Inspect(e, f)
		}
		for _, e := range n.RHS {
			Inspect(e, f)
		}
	case *ForStmt:
		if n.Cond != nil {
			Inspect(n.Cond, f)
		}
		Inspect(n.Body, f)
	case *ForInStmt:
		Inspect(n.Iter, f)
		Inspect(n.Body, f)
	case *ForCStmt:
		if n.Init != nil {
			Inspect(n.Init, f)
		}
		if n.Cond != nil {
			Inspect(n.Cond, f)
		}
		if n.Post != nil {
			Inspect(n.Post, f)
		}
		Inspect(n.Body, f)
	case *ReturnStmt:
		for _, e := range n.Results {
			Inspect(e, f)
		}
	case *DeferStmt:
		Inspect(n.Body, f)
	case *GoStmt:
		Inspect(n.Call, f)
	case *AssertStmt:
		Inspect(n.Cond, f)
		if n.Extra != nil {
			Inspect(n.Extra, f)
		}
	case *DeclStmt:
		Inspect(n.Decl, f)
	case *AsmStmt:
		for i := range n.Output {
			Inspect(n.Output[i].Expr, f)
		}
		for i := range n.Input {
			Inspect(n.Input[i].Expr, f)
		}
	case *BranchStmt, *GotoStmt, *GotoLabel, *BadStmt:

	// Expressions.
	case *InfixExpr:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *PrefixExpr:
		Inspect(n.Right, f)
	case *IndexExpr:
		Inspect(n.X, f)
		if n.Index != nil {
			Inspect(n.Index, f)
		}
		if n.Low != nil {
			Inspect(n.Low, f)
		}
		if n.High != nil {
			Inspect(n.High, f)
		}
	case *SelectorExpr:
		Inspect(n.X, f)
	case *CallExpr:
		Inspect(n.Fun, f)
		for _, a := range n.Args {
			Inspect(a, f)
		}
	case *CastExpr:
		Inspect(n.Type, f)
		Inspect(n.Value, f)
	case *StructInit:
		if n.Type != nil {
			Inspect(n.Type, f)
		}
		for _, fld := range n.Fields {
			Inspect(fld.Value, f)
		}
	case *ArrayInit:
		for _, e := range n.Elems {
			Inspect(e, f)
		}
		if n.Len != nil {
			Inspect(n.Len, f)
		}
		if n.Cap != nil {
			Inspect(n.Cap, f)
		}
		if n.Default != nil {
			Inspect(n.Default, f)
		}
	case *MapInit:
		for _, k := range n.Keys {
			Inspect(k, f)
		}
		for _, v := range n.Vals {
			Inspect(v, f)
		}
	case *StringInterLit:
		for _, e := range n.Exprs {
			Inspect(e, f)
		}
	case *IfExpr:
		Inspect(n.Cond, f)
		Inspect(n.Then, f)
		if n.Else != nil {
			Inspect(n.Else, f)
		}
	case *MatchExpr:
		Inspect(n.Cond, f)
		for _, arm := range n.Arms {
			for _, c := range arm.Conds {
				Inspect(c, f)
			}
			Inspect(arm.Body, f)
		}
	case *AnonFn:
		Inspect(n.Decl, f)
	case *UnsafeExpr:
		for _, s := range n.Stmts {
			Inspect(s, f)
		}
	case *ArrayType:
		Inspect(n.Elem, f)
	case *MapType:
		Inspect(n.Key, f)
		Inspect(n.Value, f)
	case *RefType:
		Inspect(n.Base, f)
	case *FnType:
		for _, p := range n.Params {
			Inspect(p, f)
		}
		if n.Ret != nil {
			Inspect(n.Ret, f)
		}
	case *Ident, *IntLit, *FloatLit, *CharLit, *BoolLit, *StringLit,
		*NamedType, *BadExpr:
	}
}
