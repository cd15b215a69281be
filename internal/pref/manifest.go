package pref

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is a parsed veld.toml project file.
type Manifest struct {
	Path   string
	Root   string
	Config ManifestConfig
}

type ManifestConfig struct {
	Package PackageConfig `toml:"package"`
	Build   BuildConfig   `toml:"build"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

type BuildConfig struct {
	Main    string `toml:"main"`
	Backend string `toml:"backend"`
	Arch    string `toml:"arch"`
	Bare    bool   `toml:"bare"`
	Globals bool   `toml:"globals"`
	GC      string `toml:"gc"`
}

// FindManifest walks up from startDir looking for veld.toml.
func FindManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "veld.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest reads veld.toml found at or above startDir.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	var cfg ManifestConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, true, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return nil, true, fmt.Errorf("%s: missing [package].name", path)
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}

// Apply copies manifest build settings onto p. Unset fields keep defaults.
func (m *Manifest) Apply(p *Preferences) error {
	b := m.Config.Build
	if b.Backend != "" {
		switch b.Backend {
		case "c":
			p.Backend = BackendC
		case "js":
			p.Backend = BackendJS
		case "native":
			p.Backend = BackendNative
		default:
			return fmt.Errorf("%s: unknown backend %q", m.Path, b.Backend)
		}
	}
	if b.Arch != "" {
		switch b.Arch {
		case "amd64":
			p.Arch = ArchAmd64
		case "arm64":
			p.Arch = ArchArm64
		default:
			return fmt.Errorf("%s: unknown arch %q", m.Path, b.Arch)
		}
	}
	if b.GC != "" {
		switch b.GC {
		case "boehm":
			p.GC = GCBoehm
		case "boehm-leak":
			p.GC = GCBoehmLeak
		case "none":
			p.GC = GCNone
		default:
			return fmt.Errorf("%s: unknown gc mode %q", m.Path, b.GC)
		}
	}
	p.IsBare = p.IsBare || b.Bare
	p.EnableGlobals = p.EnableGlobals || b.Globals
	return nil
}
