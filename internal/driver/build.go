package driver

import (
	"context"
	"errors"
	"fmt"

	"veld/internal/cgen"
	"veld/internal/jsgen"
	"veld/internal/markused"
	"veld/internal/native"
	"veld/internal/pref"
)

// ErrDiagnostics signals that the pipeline stopped because the source
// produced errors; the details are in BuildResult.Parse.Bag.
var ErrDiagnostics = errors.New("compilation failed with diagnostics")

// BuildResult carries the backend output together with the diagnostics
// accumulated across every phase.
type BuildResult struct {
	Parse  *ParseResult
	Output []byte
	Cached bool
}

// Build runs the full pipeline: parse, reachability, backend codegen.
// Parsing is parallel when more than one file is given and prefs.Jobs
// permits. A non-nil cache is consulted before codegen and updated
// after.
func Build(ctx context.Context, paths []string, prefs *pref.Preferences, cache *DiskCache) (*BuildResult, error) {
	var (
		pr  *ParseResult
		err error
	)
	if len(paths) > 1 && prefs.Jobs != 1 {
		pr, err = ParseFilesParallel(ctx, paths, prefs)
	} else {
		pr, err = ParseFiles(paths, prefs)
	}
	if err != nil {
		return nil, err
	}
	res := &BuildResult{Parse: pr}
	if pr.Bag.HasErrors() {
		return res, ErrDiagnostics
	}

	key := buildDigest(prefs, pr.FileSet, pr.Files)
	if cache != nil {
		var payload Payload
		hit, cerr := cache.Get(key, &payload)
		if cerr == nil && hit && payload.Backend == uint8(prefs.Backend) {
			res.Output = payload.Output
			res.Cached = true
			return res, nil
		}
	}

	markused.Mark(pr.Table, prefs, pr.Files)

	switch prefs.Backend {
	case pref.BackendC:
		out, gerr := cgen.New(pr.Table, prefs).Generate(pr.Files)
		if gerr != nil {
			return res, gerr
		}
		res.Output = []byte(out)
	case pref.BackendJS:
		out, gerr := jsgen.New(pr.Table, prefs).Generate(pr.Files)
		if gerr != nil {
			return res, gerr
		}
		res.Output = []byte(out)
	case pref.BackendNative:
		out, gerr := native.New(pr.Table, prefs).Generate(pr.Files)
		if gerr != nil {
			return res, gerr
		}
		res.Output = out
	default:
		return res, fmt.Errorf("unknown backend %v", prefs.Backend)
	}

	if cache != nil {
		_ = cache.Put(key, &Payload{
			Schema:    cacheSchemaVersion,
			Backend:   uint8(prefs.Backend),
			FilePaths: paths,
			Output:    res.Output,
		})
	}
	return res, nil
}
