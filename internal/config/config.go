// Package config builds the CLI collaborator's configuration from
// command-line flags, following the teacher's BuildConfigFromFlags
// pattern (internal/config/cli.go).
package config

// Config is the small set of knobs the CLI collaborator (cmd/allium)
// needs: which path (or glob pattern) to check and how to present the
// results. The core Check pipeline itself takes none of this — it is
// pure (filename, source) -> diagnostics.
type Config struct {
	Path  string
	JSON  bool
	Color bool
	Quiet bool
}
