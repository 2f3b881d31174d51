// Package report writes a diagnostic list to an io.Writer in either the
// wire-exact human text format or as a JSON array, with optional plain
// ANSI-escape coloring. No logging library is introduced here — the
// teacher's own CLI writes formatted lines directly via fmt.Fprintf
// (internal/config/output.go's PrintResultCLI), and this package follows
// that convention rather than adding a structured-logging dependency.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/oxhq/allium/internal/diag"
)

const (
	ansiRed   = "\x1b[31m"
	ansiCyan  = "\x1b[36m"
	ansiReset = "\x1b[0m"
)

// Write renders diags to w. In JSON mode it emits a single JSON array
// (an empty array, not null, when there are no diagnostics). In text
// mode it writes one wire-format line per diagnostic, optionally colored,
// and — unless quiet is set — a success line when diags is empty.
func Write(w io.Writer, diags []diag.Diagnostic, jsonOut, color, quiet bool) {
	if jsonOut {
		writeJSON(w, diags)
		return
	}
	if len(diags) == 0 {
		if !quiet {
			fmt.Fprintln(w, "no diagnostics")
		}
		return
	}
	for _, d := range diags {
		fmt.Fprintln(w, formatLine(d, color))
	}
}

func writeJSON(w io.Writer, diags []diag.Diagnostic) {
	out := diags
	if out == nil {
		out = []diag.Diagnostic{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func formatLine(d diag.Diagnostic, color bool) string {
	if !color {
		return d.String()
	}
	loc := fmt.Sprintf("%s:%d:%d:", d.File, d.Line, d.Col)
	line := fmt.Sprintf("%s%s%s %s", ansiRed, loc, ansiReset, d.Message)
	if d.Suggestion != "" {
		line += fmt.Sprintf(" %s(did you mean '%s'?)%s", ansiCyan, d.Suggestion, ansiReset)
	}
	return line
}
