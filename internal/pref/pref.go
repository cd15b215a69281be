// Package pref holds the read-only compiler preferences consumed by the
// parser, the reachability walker, and every backend.
package pref

// OutputMode selects where diagnostics go.
type OutputMode uint8

const (
	OutputStdout OutputMode = iota // print diagnostics, fatal on first error
	OutputSilent                   // record diagnostics, never print
	OutputCheckOnly                // record diagnostics, keep parsing (tooling)
)

// GCMode selects the garbage-collector flavor the generated code links with.
type GCMode uint8

const (
	GCBoehm GCMode = iota
	GCBoehmLeak
	GCNone
)

// Arch is the native backend's target architecture.
type Arch uint8

const (
	ArchAmd64 Arch = iota
	ArchArm64
)

func (a Arch) String() string {
	switch a {
	case ArchAmd64:
		return "amd64"
	case ArchArm64:
		return "arm64"
	}
	return "unknown"
}

// Backend selects which lowering pass runs after parsing.
type Backend uint8

const (
	BackendC Backend = iota
	BackendJS
	BackendNative
)

func (b Backend) String() string {
	switch b {
	case BackendC:
		return "c"
	case BackendJS:
		return "js"
	case BackendNative:
		return "native"
	}
	return "unknown"
}

// Preferences is the full set of compiler flags. It is created once per
// compilation and treated as read-only afterwards.
type Preferences struct {
	Output OutputMode

	// Strictness.
	FatalErrors    bool // exit on the first parse error
	WarnsAreErrors bool
	SkipWarnings   bool

	// Target profile.
	IsBare        bool // freestanding, no libc assumptions at runtime
	IsTest        bool
	IsShared      bool // building a shared library: exported ABI is pinned
	IsLivemain    bool // live-reload host binary
	IsFmt         bool // invoked by the formatter: lenient parsing
	Translated    bool // input produced by a translator frontend
	EnableGlobals bool

	GC      GCMode
	Arch    Arch
	Backend Backend

	// MessageLimit caps recorded diagnostics per compilation.
	MessageLimit int

	// Jobs limits parallel file parsing; <=0 means GOMAXPROCS.
	Jobs int
}

// Default returns preferences matching a plain `veld build`.
func Default() *Preferences {
	return &Preferences{
		Output:       OutputStdout,
		FatalErrors:  true,
		GC:           GCBoehm,
		Arch:         ArchAmd64,
		Backend:      BackendC,
		MessageLimit: 100,
	}
}

// CheckOnly returns preferences for tooling that must not abort on the
// first error (linter, formatter, language server).
func CheckOnly() *Preferences {
	p := Default()
	p.Output = OutputCheckOnly
	p.FatalErrors = false
	return p
}
