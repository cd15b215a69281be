package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"veld/internal/driver"
	"veld/internal/pref"
	runtimeembed "veld/runtime"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [path]",
	Short: "Build a veld file or project",
	Long:  "Build compiles veld sources with the selected backend. With no path, the entrypoint comes from veld.toml.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().String("backend", "", "code generation backend (c|js|native)")
	buildCmd.Flags().StringP("output", "o", "", "output file (default derived from the input name)")
	buildCmd.Flags().Bool("no-cache", false, "bypass the build cache")
}

func runBuild(cmd *cobra.Command, args []string) error {
	prefs, err := prefsFromFlags(cmd)
	if err != nil {
		return err
	}

	// Manifest settings apply first; explicit flags win.
	manifest, manifestFound, err := pref.LoadManifest(".")
	if err != nil {
		return err
	}
	if manifestFound {
		if err := manifest.Apply(prefs); err != nil {
			return err
		}
	}

	backendValue, err := cmd.Flags().GetString("backend")
	if err != nil {
		return err
	}
	if backendValue != "" {
		backend, perr := parseBackend(backendValue)
		if perr != nil {
			return perr
		}
		prefs.Backend = backend
	}

	paths, err := buildTargets(args, manifest, manifestFound)
	if err != nil {
		return err
	}

	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	var cache *driver.DiskCache
	if !noCache {
		// A broken cache directory must not fail the build.
		cache, _ = driver.OpenDiskCache("veld")
	}

	result, err := driver.Build(context.Background(), paths, prefs, cache)
	if result != nil && result.Parse != nil {
		printDiagnostics(cmd, result.Parse)
	}
	if err != nil {
		if errors.Is(err, driver.ErrDiagnostics) {
			return fmt.Errorf("build failed")
		}
		return err
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if outputPath == "" {
		outputPath = defaultOutputName(paths[0], prefs.Backend)
	}
	mode := os.FileMode(0o644)
	if prefs.Backend == pref.BackendNative {
		mode = 0o755
	}
	if err := os.WriteFile(outputPath, result.Output, mode); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if prefs.Backend == pref.BackendJS {
		// The generated script loads require("veld_runtime").
		runtimePath := filepath.Join(filepath.Dir(outputPath), "veld_runtime.js")
		if err := os.WriteFile(runtimePath, runtimeembed.JSRuntime(), 0o644); err != nil {
			return fmt.Errorf("failed to write JS runtime: %w", err)
		}
	}
	fmt.Fprintf(os.Stdout, "wrote %s (%d bytes)\n", outputPath, len(result.Output))
	return nil
}

func parseBackend(value string) (pref.Backend, error) {
	switch strings.ToLower(value) {
	case "c":
		return pref.BackendC, nil
	case "js":
		return pref.BackendJS, nil
	case "native":
		return pref.BackendNative, nil
	}
	return 0, fmt.Errorf("unknown backend %q (must be c, js, or native)", value)
}

// buildTargets resolves what to compile: an explicit file, an explicit
// directory, or the manifest entrypoint.
func buildTargets(args []string, manifest *pref.Manifest, manifestFound bool) ([]string, error) {
	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			paths, err := driver.ListFiles(args[0])
			if err != nil {
				return nil, err
			}
			if len(paths) == 0 {
				return nil, fmt.Errorf("no .vd files under %s", args[0])
			}
			return paths, nil
		}
		return []string{args[0]}, nil
	}
	if !manifestFound {
		return nil, fmt.Errorf("no input file and no veld.toml found")
	}
	main := manifest.Config.Build.Main
	if main == "" {
		main = "main.vd"
	}
	return []string{filepath.Join(manifest.Root, main)}, nil
}

func defaultOutputName(input string, backend pref.Backend) string {
	base := strings.TrimSuffix(filepath.Base(input), ".vd")
	switch backend {
	case pref.BackendJS:
		return base + ".js"
	case pref.BackendNative:
		return base + ".bin"
	default:
		return base + ".c"
	}
}
