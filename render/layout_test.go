//nolint:testpackage // using package name 'render' to access unexported fields for testing
package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dzonerzy/go-argparse/argparse"
)

func helpTable(t *testing.T) *argparse.Settings {
	t.Helper()
	s := argparse.NewSettings("prog")
	s.Description = "Process files."
	s.Epilog = "See the manual for more."
	_, err := s.AddGroup("network options", "net", false)
	require.NoError(t, err)
	require.NoError(t, s.AddEntries(
		argparse.Entry{Names: []string{"--level", "-l"}, ArgType: argparse.TypeInt, Default: 3, Help: "log level"},
		argparse.Entry{Names: []string{"--quiet"}, Action: argparse.ActionStoreTrue, Help: "less output"},
		argparse.Entry{Names: []string{"--host"}, Group: "net", Help: "server address"},
		argparse.Entry{Names: []string{"src"}, Required: true, Help: "source file"},
		argparse.Entry{Names: []string{"rest"}, Nargs: argparse.ZeroOrMore},
		argparse.Entry{Names: []string{"run"}, Action: argparse.ActionCommand, Help: "run the job"},
	))
	return s
}

func TestUsage(t *testing.T) {
	s := helpTable(t)
	l := Layout{Width: 200}

	require.Equal(t, "prog [--level LEVEL] [--quiet] [--host HOST] [-h] src [rest...] {run}", l.Usage(s, "prog"))

	s.Usage = "prog [options] FILE"
	require.Equal(t, "prog [options] FILE", l.Usage(s, "prog"))
}

func TestUsageWraps(t *testing.T) {
	s := helpTable(t)
	usage := Layout{Width: 40}.Usage(s, "prog")

	lines := strings.Split(usage, "\n")
	require.Greater(t, len(lines), 1)
	for _, line := range lines[1:] {
		require.True(t, strings.HasPrefix(line, strings.Repeat(" ", len("usage: prog "))), "continuation %q is not indented", line)
	}
}

func TestHelp(t *testing.T) {
	s := helpTable(t)
	help := Layout{Width: 80}.Help(s, "prog")

	require.True(t, strings.HasPrefix(help, "usage: prog "))
	require.Contains(t, help, "\nProcess files.\n")
	require.Contains(t, help, "\ncommands:\n  run")
	require.Contains(t, help, "\npositional arguments:\n  src")
	require.Contains(t, help, "\noptional arguments:\n  --level LEVEL, -l LEVEL")
	require.Contains(t, help, "log level (default: 3)")
	require.Contains(t, help, "\nnetwork options:\n  --host HOST")
	require.Contains(t, help, "-h, --help")
	require.True(t, strings.HasSuffix(help, "See the manual for more.\n"))

	// Idle values of flags are not worth showing.
	require.NotContains(t, help, "(default: false)")
	require.NotContains(t, help, "(default: [])")

	// Sections follow group order.
	require.Less(t, strings.Index(help, "commands:"), strings.Index(help, "positional arguments:"))
	require.Less(t, strings.Index(help, "optional arguments:"), strings.Index(help, "network options:"))
}

func TestHelpSkipsEmptyGroups(t *testing.T) {
	s := argparse.NewSettings("prog")
	s.AddHelp = false
	require.NoError(t, s.AddEntry(argparse.Entry{Names: []string{"--x"}}))

	help := Layout{}.Help(s, "prog")
	require.NotContains(t, help, "commands:")
	require.NotContains(t, help, "positional arguments:")
	require.Contains(t, help, "optional arguments:")
}

func TestArgumentSyntax(t *testing.T) {
	tests := []struct {
		nargs argparse.Nargs
		want  string
	}{
		{argparse.Auto, "X"},
		{argparse.Exactly(2), "X X"},
		{argparse.Optional, "[X]"},
		{argparse.ZeroOrMore, "[X...]"},
		{argparse.OneOrMore, "X [X...]"},
		{argparse.Remainder, "[X...]"},
	}
	for _, tt := range tests {
		got := argumentSyntax(Entry{Names: []string{"--x"}, Nargs: tt.nargs, Metavar: "X"})
		require.Equal(t, tt.want, got, "nargs %s", tt.nargs)
	}
	require.Empty(t, argumentSyntax(Entry{Names: []string{"--x"}}))
}

func TestHeadingDecorator(t *testing.T) {
	s := argparse.NewSettings("prog")
	l := Layout{Heading: func(h string) string { return "<" + h + ">" }}

	help := l.Help(s, "prog")
	require.True(t, strings.HasPrefix(help, "<usage:> prog"))
	require.Contains(t, help, "<optional arguments:>")
	require.Equal(t, "1.0\n", l.Version("1.0"))
}
