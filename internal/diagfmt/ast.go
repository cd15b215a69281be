package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"veld/internal/ast"
)

// FormatFileSummary prints a one-line-per-declaration outline of a
// parsed file: the module clause, imports, then each top-level
// declaration with its signature or member count.
func FormatFileSummary(w io.Writer, file *ast.File) {
	fmt.Fprintf(w, "module %s (%s)\n", file.Module, file.Path)
	for _, imp := range file.Imports {
		if imp.Alias != "" {
			fmt.Fprintf(w, "  import %s as %s\n", imp.Path, imp.Alias)
		} else {
			fmt.Fprintf(w, "  import %s\n", imp.Path)
		}
	}
	for _, d := range file.Decls {
		summarizeDecl(w, d)
	}
	if n := len(file.Stmts); n > 0 {
		fmt.Fprintf(w, "  script: %d top-level statement(s)\n", n)
	}
}

func summarizeDecl(w io.Writer, d ast.Decl) {
	switch d := d.(type) {
	case *ast.FnDecl:
		fmt.Fprintf(w, "  fn %s(%s)%s%s\n", fnLabel(d), paramList(d.Params), retLabel(d.RetType), bodyLabel(d.Body))
	case *ast.StructDecl:
		fmt.Fprintf(w, "  struct %s { %d field(s) }\n", d.Name, len(d.Fields))
	case *ast.EnumDecl:
		fmt.Fprintf(w, "  enum %s { %d variant(s) }\n", d.Name, len(d.Variants))
	case *ast.InterfaceDecl:
		fmt.Fprintf(w, "  interface %s { %d method(s) }\n", d.Name, len(d.Methods))
	case *ast.TypeDecl:
		fmt.Fprintf(w, "  type %s (%s)\n", d.Name, typeDeclKind(d.Kind))
	case *ast.ConstDecl:
		names := make([]string, 0, len(d.Fields))
		for _, f := range d.Fields {
			names = append(names, f.Name)
		}
		fmt.Fprintf(w, "  const %s\n", strings.Join(names, ", "))
	case *ast.GlobalDecl:
		names := make([]string, 0, len(d.Fields))
		for _, f := range d.Fields {
			names = append(names, f.Name)
		}
		fmt.Fprintf(w, "  global %s\n", strings.Join(names, ", "))
	default:
		fmt.Fprintf(w, "  %T\n", d)
	}
}

func fnLabel(d *ast.FnDecl) string {
	if d.IsMethod && d.Receiver != nil {
		if nt, ok := d.Receiver.Type.(*ast.NamedType); ok {
			return nt.Name + "." + d.Name
		}
	}
	return d.Name
}

func paramList(params []ast.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.Name)
	}
	return strings.Join(parts, ", ")
}

func retLabel(ret ast.Expr) string {
	if ret == nil {
		return ""
	}
	return " -> ..."
}

func bodyLabel(b *ast.Block) string {
	if b == nil {
		return " [no body]"
	}
	return ""
}

func typeDeclKind(k ast.TypeDeclKind) string {
	switch k {
	case ast.TypeAlias:
		return "alias"
	case ast.TypeSum:
		return "sum"
	case ast.TypeFn:
		return "fn type"
	}
	return "type"
}
