package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"veld/internal/diagfmt"
	"veld/internal/driver"
	"veld/internal/pref"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file.vd",
	Short: "Parse a veld source file and print its outline",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	prefs, err := prefsFromFlags(cmd)
	if err != nil {
		return err
	}

	result, err := driver.ParseFiles(args[0:1], prefs)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	printDiagnostics(cmd, result)
	if result.Bag.HasErrors() {
		return fmt.Errorf("parse produced errors")
	}

	for _, f := range result.Files {
		diagfmt.FormatFileSummary(os.Stdout, f)
	}
	return nil
}

// prefsFromFlags builds Preferences from the persistent flags, starting
// from the defaults.
func prefsFromFlags(cmd *cobra.Command) (*pref.Preferences, error) {
	prefs := pref.Default()
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, err
	}
	prefs.MessageLimit = maxDiagnostics

	jobs, err := cmd.Root().PersistentFlags().GetInt("jobs")
	if err != nil {
		return nil, err
	}
	prefs.Jobs = jobs
	return prefs, nil
}

func printDiagnostics(cmd *cobra.Command, result *driver.ParseResult) {
	if !result.Bag.HasWarnings() {
		return
	}
	result.Bag.Sort()
	diagfmt.Pretty(os.Stderr, result.Bag, result.FileSet, diagfmt.PrettyOpts{
		Color:     useColor(cmd),
		ShowNotes: true,
	})
}
