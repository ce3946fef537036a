package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/framehaus/siteforge/internal/sampledata"
)

// runInit writes the starter config and site plan into the target directory.
func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	force := fs.Bool("force", false, "overwrite starter files that already exist")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dir := fs.Arg(0)
	if dir == "" {
		dir = "."
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving target dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("creating target dir: %w", err)
	}

	for _, name := range sampledata.Starters {
		dest := filepath.Join(abs, name)

		if !*force {
			if _, err := os.Stat(dest); err == nil {
				fmt.Printf("  skipped %s (exists, use --force to overwrite)\n", name)
				continue
			}
		}

		data, err := sampledata.Starter(name)
		if err != nil {
			return fmt.Errorf("reading embedded %s: %w", name, err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", dest, err)
		}
		fmt.Printf("  created %s\n", name)
	}

	fmt.Println("\nSetup complete. Edit site.yml, then run 'siteforge plan' and 'siteforge run'.")
	return nil
}
