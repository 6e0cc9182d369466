package main

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dzonerzy/go-argparse/argparse"
)

// tableReport is the outcome of checking one descriptor.
type tableReport struct {
	path     string
	entries  int
	commands int
	warnings []string
	err      error
}

func newCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <table>...",
		Short: "Validate argument tables",
		Long: `Load every table, build its settings tree and report problems.

Tables are checked concurrently. The command fails when any table does not
build; lint findings such as a non-semantic version are reported as warnings.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reports := a.checkAll(args)

			failed := 0
			for _, r := range reports {
				if r.err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", r.path, r.err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%d %s, %d %s)\n", r.path,
					r.entries, plural(r.entries, "entry", "entries"),
					r.commands, plural(r.commands, "command", "commands"))
				for _, w := range r.warnings {
					fmt.Fprintf(cmd.OutOrStdout(), "     warning: %s\n", w)
				}
			}
			if failed > 0 {
				return &argparse.ExitError{Code: 1}
			}
			return nil
		},
	}
}

// checkAll checks the tables concurrently; reports keep the argument order.
func (a *app) checkAll(paths []string) []tableReport {
	reports := make([]tableReport, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			reports[i] = a.check(path)
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

func (a *app) check(path string) tableReport {
	r := tableReport{path: path}
	s, err := a.load(path)
	if err != nil {
		r.err = err
		return r
	}
	r.entries, r.commands = count(s)
	r.warnings = lint(s, s.ProgName())
	for _, w := range r.warnings {
		a.logger.Warn(w, "table", path)
	}
	return r
}

// count walks the settings tree.
func count(s *argparse.Settings) (entries, commands int) {
	for _, e := range s.Entries() {
		entries++
		if e.Kind() != argparse.KindCommand {
			continue
		}
		commands++
		if child := s.Command(e.DestName); child != nil {
			n, c := count(child)
			entries += n
			commands += c
		}
	}
	return entries, commands
}

// lint reports table smells that are legal but probably unintended.
func lint(s *argparse.Settings, prog string) []string {
	var warnings []string
	if s.AddVersion && s.Version != "" {
		if _, err := semver.NewVersion(s.Version); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: version %q is not a semantic version", prog, s.Version))
		}
	}
	for _, e := range s.Entries() {
		if e.Help == "" && e.Kind() != argparse.KindCommand {
			warnings = append(warnings, fmt.Sprintf("%s: %s has no help text", prog, strings.Join(e.Names, "/")))
		}
		if e.Kind() == argparse.KindCommand {
			if child := s.Command(e.DestName); child != nil {
				warnings = append(warnings, lint(child, prog+" "+e.DestName)...)
			}
		}
	}
	return warnings
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
