// Command argtable checks, inspects and exercises argument tables written as
// YAML or TOML descriptors.
//
//	argtable check tool.yaml other.toml
//	argtable show tool.yaml serve
//	argtable parse tool.yaml -- --port 9000 serve
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dzonerzy/go-argparse/argparse"
	"github.com/dzonerzy/go-argparse/render"
	"github.com/dzonerzy/go-argparse/tablefile"
)

// Version is set via -ldflags.
var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	root, err := newRootCommand(a)
	if err != nil {
		a.logger.Error("setup failed", "err", err)
		return 1
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		var exitErr *argparse.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		fmt.Fprintf(stderr, "argtable: %v\n", err)
		return 1
	}
	return 0
}

// app carries the shared state of every subcommand.
type app struct {
	out    io.Writer
	err    io.Writer
	logger *log.Logger
	config *viper.Viper
}

func newApp(stdout, stderr io.Writer) *app {
	v := viper.New()
	v.SetEnvPrefix("argtable")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("format", "json")

	return &app{
		out:    stdout,
		err:    stderr,
		logger: log.NewWithOptions(stderr, log.Options{Prefix: "argtable"}),
		config: v,
	}
}

func newRootCommand(a *app) (*cobra.Command, error) {
	root := &cobra.Command{
		Use:           "argtable",
		Short:         "Check and exercise declarative argument tables",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if a.config.GetBool("verbose") {
				a.logger.SetLevel(log.DebugLevel)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.BoolP("verbose", "v", false, "log table warnings and parse events")
	flags.Bool("no-color", false, "disable colored output")
	flags.Int("width", 0, "wrap help screens at this width (default: terminal width)")
	if err := a.config.BindPFlags(flags); err != nil {
		return nil, err
	}

	parseCmd := newParseCommand(a)
	if err := a.config.BindPFlag("format", parseCmd.Flags().Lookup("format")); err != nil {
		return nil, err
	}

	root.AddCommand(newCheckCommand(a), newShowCommand(a), parseCmd)
	return root, nil
}

// load reads a descriptor into a root node wired to the app's logger, so
// build warnings show up with --verbose.
func (a *app) load(path string) (*argparse.Settings, error) {
	tbl, err := tablefile.Load(path)
	if err != nil {
		return nil, err
	}
	opts := argparse.DefaultOptions()
	opts.Logger = a.logger
	s := argparse.New(opts)
	if err := tbl.Apply(s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.logger.Debug("table loaded", "path", path, "entries", len(s.Entries()))
	return s, nil
}

// printer returns a render.Printer honoring --no-color and --width. Exits are
// reported through exit instead of terminating the process.
func (a *app) printer(exit func(int)) *render.Printer {
	p := render.NewPrinter().Output(a.out, a.err).Logger(a.logger).ExitFunc(exit)
	if a.config.GetBool("no-color") {
		p.Colors(false)
	}
	if w := a.config.GetInt("width"); w > 0 {
		p.Width(w)
	}
	return p
}
