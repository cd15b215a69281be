package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"veld/internal/driver"
	"veld/internal/pref"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [path]",
	Short: "Parse every veld file under a directory and report diagnostics",
	Long:  "Check parses all .vd files in lenient mode: errors accumulate instead of aborting at the first one.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	prefs, err := prefsFromFlags(cmd)
	if err != nil {
		return err
	}
	// Lenient mode: keep going past the first error.
	lenient := pref.CheckOnly()
	lenient.MessageLimit = prefs.MessageLimit
	lenient.Jobs = prefs.Jobs

	paths, err := driver.ListFiles(dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no .vd files under %s", dir)
	}

	var result *driver.ParseResult
	if len(paths) > 1 && lenient.Jobs != 1 {
		result, err = driver.ParseFilesParallel(context.Background(), paths, lenient)
	} else {
		result, err = driver.ParseFiles(paths, lenient)
	}
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	printDiagnostics(cmd, result)
	if result.Bag.HasErrors() {
		return fmt.Errorf("check found errors in %d file(s)", len(paths))
	}
	fmt.Fprintf(os.Stdout, "checked %d file(s): ok\n", len(paths))
	return nil
}
