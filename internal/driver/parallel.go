package driver

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"veld/internal/ast"
	"veld/internal/diag"
	"veld/internal/parser"
	"veld/internal/pref"
	"veld/internal/source"
	"veld/internal/symbols"
)

// ParseFilesParallel parses one file per worker against a shared symbol
// table. The result slice is indexed by the input path order, never by
// completion order, so downstream passes see a deterministic file list.
// Each worker records into its own bag; the bags are merged in input
// order afterwards.
func ParseFilesParallel(ctx context.Context, paths []string, prefs *pref.Preferences) (*ParseResult, error) {
	if prefs == nil {
		prefs = pref.Default()
	}
	fset := source.NewFileSet()
	tab := symbols.NewTable()

	// FileSet mutation is not concurrency-safe: load everything up front.
	ids := make([]source.FileID, len(paths))
	for i, path := range paths {
		id, err := fset.Load(path)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}

	jobs := prefs.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	files := make([]*ast.File, len(paths))
	bags := make([]*diag.Bag, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i := range paths {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			bag := diag.NewBag(prefs.MessageLimit)
			f, err := parser.ParseFile(fset, ids[i], parser.Options{
				Prefs:    prefs,
				Table:    tab,
				Reporter: diag.BagReporter{Bag: bag},
			})
			bags[i] = bag
			if err != nil {
				// Strict-mode stop: the diagnostic is in this worker's
				// bag; other files keep parsing.
				if errors.Is(err, parser.ErrFatal) {
					return nil
				}
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bag := diag.NewBag(prefs.MessageLimit)
	for _, b := range bags {
		bag.Merge(b)
	}
	parsed := make([]*ast.File, 0, len(files))
	for _, f := range files {
		if f != nil {
			parsed = append(parsed, f)
		}
	}
	return &ParseResult{FileSet: fset, Files: parsed, Table: tab, Bag: bag}, nil
}
