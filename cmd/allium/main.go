// Command allium is the CLI collaborator described in spec §6: it reads
// a path, invokes the core checker, formats diagnostics to a stream, and
// sets the process exit status.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/oxhq/allium"
	"github.com/oxhq/allium/internal/config"
	"github.com/oxhq/allium/internal/diag"
	"github.com/oxhq/allium/internal/report"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.BuildConfigFromFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	files, err := resolveFiles(cfg.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", diag.Wrap(diag.ErrInvalidConfig, "resolving path", err))
		return 1
	}

	var all []diag.Diagnostic
	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", diag.Wrap(diag.ErrIO, "reading file", err))
			return 1
		}
		all = append(all, allium.Check(f, string(src))...)
	}

	report.Write(os.Stdout, all, cfg.JSON, cfg.Color, cfg.Quiet)
	if len(all) > 0 {
		return 1
	}
	return 0
}

// resolveFiles implements the spec's single-path contract (§6: "Accepts
// one positional argument (the path)") plus the supplemented batch-lint
// mode: when the path contains a glob metacharacter, it is expanded with
// doublestar.FilepathGlob and every match is checked, each diagnostic
// carrying its own file's name (§3's Diagnostic.file was designed for
// exactly this). A bare path with no glob metacharacter takes the
// single-file path unchanged.
func resolveFiles(path string) ([]string, error) {
	if !doublestar.ValidatePattern(path) || !hasGlobMeta(path) {
		return []string{path}, nil
	}
	matches, err := doublestar.FilepathGlob(path)
	if err != nil {
		return nil, fmt.Errorf("expanding pattern %q: %w", path, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match pattern %q", path)
	}
	return matches, nil
}

func hasGlobMeta(path string) bool {
	for _, c := range path {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
