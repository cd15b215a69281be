package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"veld/internal/diag"
	"veld/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	noticeColor  = color.New(color.FgCyan)
	caretColor   = color.New(color.FgGreen, color.Bold)
)

// Pretty formats the bag's diagnostics for humans. The caller is
// expected to have sorted the bag. Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with a ^~~~ underline covering the
// primary span, then notes in the same shape.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		writeOne(w, fs, opts, d.Severity.String(), d.Code.ID(), d.Message, d.Primary, severityPainter(d.Severity))
		if opts.ShowNotes {
			for _, n := range d.Notes {
				writeOne(w, fs, opts, "note", "", n.Msg, n.Span, noticeColor)
			}
		}
	}
}

func severityPainter(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return noticeColor
	}
}

func writeOne(w io.Writer, fs *source.FileSet, opts PrettyOpts, label, code, msg string, span source.Span, paint *color.Color) {
	file := fs.Get(span.File)
	start, end := fs.Resolve(span)

	if opts.Color {
		label = paint.Sprint(label)
	}
	if code != "" {
		fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n", displayPath(file, opts.PathMode), start.Line, start.Col, label, code, msg)
	} else {
		fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", displayPath(file, opts.PathMode), start.Line, start.Col, label, msg)
	}

	line := file.GetLine(start.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)

	underline := underlineFor(line, start, end)
	if opts.Color {
		underline = caretColor.Sprint(underline)
	}
	fmt.Fprintf(w, "  %s\n", underline)
}

// underlineFor builds the ^~~~ marker. Column arithmetic uses the
// display width of the prefix, not its byte length, so the caret stays
// aligned under tabs and wide runes.
func underlineFor(line string, start, end source.LineCol) string {
	col := int(start.Col)
	if col < 1 {
		col = 1
	}
	prefix := line
	if col-1 < len(prefix) {
		prefix = prefix[:col-1]
	}
	pad := 0
	for _, r := range prefix {
		if r == '\t' {
			pad += 8 - pad%8
			continue
		}
		pad += runewidth.RuneWidth(r)
	}

	span := 1
	if end.Line == start.Line && end.Col > start.Col {
		span = int(end.Col - start.Col)
	}
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", pad))
	b.WriteByte('^')
	if span > 1 {
		b.WriteString(strings.Repeat("~", span-1))
	}
	return b.String()
}

func displayPath(f *source.File, mode PathMode) string {
	switch mode {
	case PathModeFull:
		return f.Path
	case PathModeBasename:
		return filepath.Base(f.Path)
	default:
		return f.ShortPath()
	}
}
