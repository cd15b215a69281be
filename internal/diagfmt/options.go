package diagfmt

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto keeps short or relative paths and collapses long
	// absolute ones to the base name.
	PathModeAuto PathMode = iota
	// PathModeFull always prints the path as stored in the FileSet.
	PathModeFull
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode     PathMode
	IncludeNotes bool
	Max          int // truncate output after Max items, 0 means all
}
