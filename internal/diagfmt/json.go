package diagfmt

import (
	"encoding/json"
	"io"

	"veld/internal/diag"
	"veld/internal/source"
)

type jsonNote struct {
	Message string `json:"message"`
	Line    uint32 `json:"line"`
	Col     uint32 `json:"col"`
}

type jsonDiagnostic struct {
	Severity string     `json:"severity"`
	Code     string     `json:"code"`
	Message  string     `json:"message"`
	Path     string     `json:"path"`
	Line     uint32     `json:"line"`
	Col      uint32     `json:"col"`
	Notes    []jsonNote `json:"notes,omitempty"`
}

// JSON writes the bag's diagnostics as an indented JSON array.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	items := bag.Items()
	if opts.Max > 0 && len(items) > opts.Max {
		items = items[:opts.Max]
	}

	out := make([]jsonDiagnostic, 0, len(items))
	for _, d := range items {
		file := fs.Get(d.Primary.File)
		start, _ := fs.Resolve(d.Primary)
		jd := jsonDiagnostic{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Path:     displayPath(file, opts.PathMode),
			Line:     start.Line,
			Col:      start.Col,
		}
		if opts.IncludeNotes {
			for _, n := range d.Notes {
				nstart, _ := fs.Resolve(n.Span)
				jd.Notes = append(jd.Notes, jsonNote{Message: n.Msg, Line: nstart.Line, Col: nstart.Col})
			}
		}
		out = append(out, jd)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
