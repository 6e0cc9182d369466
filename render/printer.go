package render

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"

	"github.com/dzonerzy/go-argparse/argparse"
)

// Printer prints screens and errors and decides how the process ends. Its
// Handler and StopHandler methods plug into argparse.Options.
type Printer struct {
	out    io.Writer
	err    io.Writer
	colors bool
	width  int
	codes  *argparse.ExitCodeManager
	exit   func(int)
	logger *log.Logger

	showUsageOnError bool
}

// NewPrinter creates a printer on stdout/stderr. Colors and the line width
// follow the terminal and the NO_COLOR, FORCE_COLOR and COLUMNS variables.
func NewPrinter() *Printer {
	fd := int(os.Stdout.Fd())
	return &Printer{
		out:              os.Stdout,
		err:              os.Stderr,
		colors:           colorsWanted(fd),
		width:            terminalWidth(fd),
		codes:            argparse.NewExitCodeManager(),
		exit:             os.Exit,
		showUsageOnError: true,
	}
}

// Output redirects the printer.
func (p *Printer) Output(out, errOut io.Writer) *Printer {
	p.out = out
	p.err = errOut
	return p
}

// Colors forces colored headings on or off.
func (p *Printer) Colors(enabled bool) *Printer {
	p.colors = enabled
	return p
}

// Width sets the line width used for wrapping.
func (p *Printer) Width(cols int) *Printer {
	p.width = cols
	return p
}

// Codes replaces the exit-code mapping.
func (p *Printer) Codes(m *argparse.ExitCodeManager) *Printer {
	p.codes = m
	return p
}

// ExitFunc replaces os.Exit.
func (p *Printer) ExitFunc(fn func(int)) *Printer {
	p.exit = fn
	return p
}

// Logger records every handled error at debug level.
func (p *Printer) Logger(l *log.Logger) *Printer {
	p.logger = l
	return p
}

// ShowUsageOnError controls whether the usage line follows error messages.
func (p *Printer) ShowUsageOnError(enabled bool) *Printer {
	p.showUsageOnError = enabled
	return p
}

// Layout returns the layout configured for this printer.
func (p *Printer) Layout() Layout {
	l := Layout{Width: p.width}
	if p.colors {
		c := color.New(color.Bold, color.FgCyan)
		c.EnableColor()
		l.Heading = func(s string) string { return c.Sprint(s) }
	}
	return l
}

// Handler returns an argparse.Handler that prints the error with the active
// node's usage and exits with the mapped code.
func (p *Printer) Handler() argparse.Handler {
	return func(s *argparse.Settings, perr *argparse.ParseError) error {
		p.PrintError(s, perr)
		code := p.codes.Resolve(perr)
		if p.logger != nil {
			p.logger.Debug("parse failed", "kind", perr.Kind, "prog", perr.Prog, "code", code)
		}
		p.exit(code)
		return perr
	}
}

// StopHandler returns an argparse.StopHandler that prints the help or
// version screen. The process exits unless the node disables ExitAfterHelp,
// in which case the handler returns nil.
func (p *Printer) StopHandler() argparse.StopHandler {
	return func(s *argparse.Settings, stop *argparse.Stop) error {
		l := p.Layout()
		switch stop.Signal {
		case argparse.SignalHelp:
			fmt.Fprint(p.out, l.Help(s, stop.Prog))
		case argparse.SignalVersion:
			fmt.Fprint(p.out, l.Version(stop.Version))
		}
		if s.ExitAfterHelp {
			p.exit(p.codes.Resolve(stop))
		}
		return nil
	}
}

// PrintError writes "prog: error: message", an optional suggestion and the
// usage line of the node active at the failure.
func (p *Printer) PrintError(s *argparse.Settings, perr *argparse.ParseError) {
	red := color.New(color.FgRed, color.Bold)
	if p.colors {
		red.EnableColor()
	} else {
		red.DisableColor()
	}
	fmt.Fprintf(p.err, "%s %s\n", red.Sprint(perr.Prog+": error:"), perr.Message)
	if perr.Suggestion != "" {
		fmt.Fprintf(p.err, "Did you mean %s?\n", perr.Suggestion)
	}
	if p.showUsageOnError && s != nil {
		fmt.Fprintf(p.err, "%s %s\n", p.Layout().heading("usage:"), p.Layout().Usage(s, perr.Prog))
	}
}

// Exit maps err to an exit code and terminates; a nil error exits with the
// success code. Errors other than stops are printed first.
func (p *Printer) Exit(err error) {
	var perr *argparse.ParseError
	var stop *argparse.Stop
	switch {
	case err == nil, errors.As(err, &stop):
	case errors.As(err, &perr):
		p.PrintError(perr.Settings, perr)
	default:
		fmt.Fprintf(p.err, "error: %v\n", err)
	}
	p.exit(p.codes.Resolve(err))
}

var defaultPrinter = NewPrinter()

// ExitOnError is an argparse.Handler printing to stderr and exiting with the
// default exit-code mapping.
func ExitOnError(s *argparse.Settings, err *argparse.ParseError) error {
	return defaultPrinter.Handler()(s, err)
}

// PrintAndExit is an argparse.StopHandler printing help or version screens to
// stdout.
func PrintAndExit(s *argparse.Settings, stop *argparse.Stop) error {
	return defaultPrinter.StopHandler()(s, stop)
}

// Install sets ExitOnError and PrintAndExit on s. Nodes of commands added
// afterwards inherit them.
func Install(s *argparse.Settings) {
	s.Handler = ExitOnError
	s.StopHandler = PrintAndExit
}
