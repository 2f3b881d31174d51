package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/oxhq/allium/internal/diag"
)

// BuildConfigFromFlags parses command-line flags and builds a Config,
// mirroring the teacher's BuildConfigFromFlags(args []string) (*Config,
// []string, error) shape, simplified to this CLI's single positional
// path argument.
func BuildConfigFromFlags(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("allium", pflag.ContinueOnError)
	fs.Usage = func() {
		PrintUsage(fs)
	}

	help := fs.BoolP("help", "h", false, "Show this help message and exit.")
	quiet := fs.BoolP("quiet", "q", false, "Suppress the \"no diagnostics\" success line.")
	jsonOut := fs.BoolP("json", "j", false, "Emit diagnostics as a JSON array instead of the wire text format.")
	color := fs.BoolP("color", "c", false, "Force-enable colored diagnostic output.")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *help || fs.NArg() == 0 {
		fs.Usage()
		return nil, flag.ErrHelp
	}
	if fs.NArg() > 1 {
		return nil, diag.Wrap(diag.ErrInvalidConfig, "too many arguments", fmt.Errorf("expected exactly one path, got %d", fs.NArg()))
	}

	return &Config{
		Path:  fs.Arg(0),
		JSON:  *jsonOut,
		Color: *color,
		Quiet: *quiet,
	}, nil
}

// PrintUsage writes usage text for fs to stderr, in the teacher's
// PrintUsage style (internal/config/output.go).
func PrintUsage(fs *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "\nUsage: allium [flags] <file.allium | glob-pattern>\n")
	fmt.Fprintf(os.Stderr, "Quick check usage: allium ./spec/order.allium\n")
	fmt.Fprintf(os.Stderr, "\nFlags:\n")
	fs.PrintDefaults()
}
