// Package driver wires the pipeline together: file discovery, lexing,
// parsing (sequential or parallel), the reachability walk, and backend
// dispatch. Parsing many files shares one FileSet and one symbol table;
// table registration is already serialized inside symbols.Table, so
// parser instances can run concurrently.
package driver

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"veld/internal/ast"
	"veld/internal/diag"
	"veld/internal/lexer"
	"veld/internal/parser"
	"veld/internal/pref"
	"veld/internal/source"
	"veld/internal/symbols"
	"veld/internal/token"
)

// TokenizeResult is the output of lexing one file.
type TokenizeResult struct {
	FileSet *source.FileSet
	File    *source.File
	Tokens  []token.Token
	Bag     *diag.Bag
}

// Tokenize lexes a single file to EOF.
func Tokenize(path string, maxDiagnostics int) (*TokenizeResult, error) {
	fset := source.NewFileSet()
	id, err := fset.Load(path)
	if err != nil {
		return nil, err
	}
	file := fset.Get(id)

	bag := diag.NewBag(maxDiagnostics)
	lx := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})

	var tokens []token.Token
	for {
		tok := lx.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return &TokenizeResult{FileSet: fset, File: file, Tokens: tokens, Bag: bag}, nil
}

// ParseResult is the output of parsing one or more files against a
// shared table.
type ParseResult struct {
	FileSet *source.FileSet
	Files   []*ast.File
	Table   *symbols.Table
	Bag     *diag.Bag
}

// ListFiles returns every .vd file under dir, sorted so downstream
// passes see a reproducible order regardless of filesystem iteration.
func ListFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".vd") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ParseFiles parses the given files strictly sequentially.
func ParseFiles(paths []string, prefs *pref.Preferences) (*ParseResult, error) {
	if prefs == nil {
		prefs = pref.Default()
	}
	fset := source.NewFileSet()
	tab := symbols.NewTable()
	bag := diag.NewBag(prefs.MessageLimit)

	files := make([]*ast.File, 0, len(paths))
	for _, path := range paths {
		id, err := fset.Load(path)
		if err != nil {
			return nil, fmt.Errorf("driver: %w", err)
		}
		f, err := parser.ParseFile(fset, id, parser.Options{
			Prefs:    prefs,
			Table:    tab,
			Reporter: diag.BagReporter{Bag: bag},
		})
		if err != nil {
			// Strict mode stops at the first diagnostic; it is already
			// in the bag, so the caller decides from there.
			if errors.Is(err, parser.ErrFatal) {
				break
			}
			return nil, err
		}
		files = append(files, f)
	}
	return &ParseResult{FileSet: fset, Files: files, Table: tab, Bag: bag}, nil
}
