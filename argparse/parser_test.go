//nolint:testpackage // using package name 'argparse' to access unexported fields for testing
package argparse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func mustAdd(t *testing.T, s *Settings, entries ...Entry) {
	t.Helper()
	if err := s.AddEntries(entries...); err != nil {
		t.Fatalf("AddEntries failed: %v", err)
	}
}

func mustParse(t *testing.T, s *Settings, args ...string) *Result {
	t.Helper()
	res, err := s.Parse(args)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", args, err)
	}
	return res
}

func parseError(t *testing.T, s *Settings, args ...string) *ParseError {
	t.Helper()
	_, err := s.Parse(args)
	if err == nil {
		t.Fatalf("Parse(%q) succeeded, expected an error", args)
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Parse(%q) returned %T (%v), expected *ParseError", args, err, err)
	}
	return perr
}

func expectKind(t *testing.T, perr *ParseError, kind ErrorKind) {
	t.Helper()
	if perr.Kind != kind {
		t.Fatalf("expected %s, got %s (%s)", kind, perr.Kind, perr.Message)
	}
}

// mixedTable mixes options, flags, a typed option and a required positional.
func mixedTable(t *testing.T) *Settings {
	t.Helper()
	s := NewSettings("prog")
	mustAdd(t, s,
		Entry{Names: []string{"--opt1"}, Help: "an option with an argument"},
		Entry{Names: []string{"--opt2", "-o"}, ArgType: TypeInt, Default: 0, Help: "another option"},
		Entry{Names: []string{"--flag1"}, Action: ActionStoreTrue, Help: "a flag"},
		Entry{Names: []string{"arg1"}, Required: true, Help: "a positional argument"},
	)
	return s
}

func TestMixedTable(t *testing.T) {
	s := mixedTable(t)
	res := mustParse(t, s, "--opt1", "2+2", "--opt2", "4", "somearg", "--flag")

	want := map[string]any{"arg1": "somearg", "opt2": 4, "opt1": "2+2", "flag1": true}
	if diff := cmp.Diff(want, res.Map()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"opt1", "opt2", "flag1", "arg1"}, res.Keys()); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingRequiredPositional(t *testing.T) {
	perr := parseError(t, mixedTable(t))
	expectKind(t, perr, ErrorKindMissingRequired)
	if perr.Entry != "arg1" || !strings.Contains(perr.Message, "arg1") {
		t.Errorf("expected error naming arg1, got entry=%q message=%q", perr.Entry, perr.Message)
	}
}

func TestTooManyArguments(t *testing.T) {
	perr := parseError(t, mixedTable(t), "somearg", "anotherarg")
	expectKind(t, perr, ErrorKindTooManyArguments)
	if perr.Token() != "anotherarg" {
		t.Errorf("expected offending token anotherarg, got %q", perr.Token())
	}
}

func TestTypeConversionFailure(t *testing.T) {
	perr := parseError(t, mixedTable(t), "--opt2", "1.5", "somearg")
	expectKind(t, perr, ErrorKindTypeConversion)
	if perr.Token() != "1.5" {
		t.Errorf("expected offending token 1.5, got %q", perr.Token())
	}
	if !strings.Contains(perr.Message, "int") {
		t.Errorf("expected message to name the target type, got %q", perr.Message)
	}
	var numErr *strconv.NumError
	if !errors.As(perr, &numErr) {
		t.Errorf("expected the conversion cause to be reachable, got %v", perr.Cause)
	}
}

func TestShortGroups(t *testing.T) {
	inputs := [][]string{
		{"-a", "-f", "file.txt"},
		{"-af", "file.txt"},
		{"-affile.txt"},
	}
	for _, args := range inputs {
		t.Run(strings.Join(args, "_"), func(t *testing.T) {
			s := NewSettings("prog")
			mustAdd(t, s,
				Entry{Names: []string{"-a"}, Action: ActionStoreTrue},
				Entry{Names: []string{"-f"}},
			)
			res := mustParse(t, s, args...)
			want := map[string]any{"a": true, "f": "file.txt"}
			if diff := cmp.Diff(want, res.Map()); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCommands(t *testing.T) {
	s := NewSettings("prog")
	mustAdd(t, s,
		Entry{Names: []string{"cmd1"}, Action: ActionCommand},
		Entry{Names: []string{"cmd2"}, Action: ActionCommand},
	)
	res := mustParse(t, s, "cmd1")

	if res.Command() != "cmd1" {
		t.Fatalf("expected command cmd1, got %q", res.Command())
	}
	sub := res.Sub("cmd1")
	if sub == nil || sub.Len() != 0 {
		t.Fatalf("expected empty nested result, got %v", sub)
	}
	want := map[string]any{CommandKey: "cmd1", "cmd1": map[string]any{}}
	if diff := cmp.Diff(want, res.Map()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyInputYieldsDefaults(t *testing.T) {
	s := NewSettings("prog")
	mustAdd(t, s,
		Entry{Names: []string{"--opt1"}},
		Entry{Names: []string{"--opt2"}, ArgType: TypeInt, Default: 7},
		Entry{Names: []string{"--flag"}, Action: ActionStoreTrue},
		Entry{Names: []string{"--no-color"}, Action: ActionStoreFalse, DestName: "color"},
		Entry{Names: []string{"-v"}, Action: ActionCountInvocations},
		Entry{Names: []string{"--tag"}, Action: ActionAppendArg},
		Entry{Names: []string{"file"}, Nargs: Optional, Default: "-"},
	)
	res := mustParse(t, s)

	want := map[string]any{
		"opt1":  nil,
		"opt2":  7,
		"flag":  false,
		"color": true,
		"v":     0,
		"tag":   []any{},
		"file":  "-",
	}
	if diff := cmp.Diff(want, res.Map()); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestNargsAndActions(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		args    []string
		want    map[string]any
	}{
		{
			name:    "fixed nargs yields a list",
			entries: []Entry{{Names: []string{"--pair"}, Nargs: Exactly(2)}},
			args:    []string{"--pair", "a", "-b"},
			want:    map[string]any{"pair": []any{"a", "-b"}},
		},
		{
			name:    "explicit fixed one is still a list",
			entries: []Entry{{Names: []string{"--one"}, Nargs: Exactly(1)}},
			args:    []string{"--one", "x"},
			want:    map[string]any{"one": []any{"x"}},
		},
		{
			name:    "optional absent uses default",
			entries: []Entry{{Names: []string{"--opt"}, Nargs: Optional, Constant: "c", Default: "d"}},
			args:    nil,
			want:    map[string]any{"opt": "d"},
		},
		{
			name:    "optional without argument uses constant",
			entries: []Entry{{Names: []string{"--opt"}, Nargs: Optional, Constant: "c", Default: "d"}},
			args:    []string{"--opt"},
			want:    map[string]any{"opt": "c"},
		},
		{
			name: "optional does not take an option",
			entries: []Entry{
				{Names: []string{"--opt"}, Nargs: Optional, Constant: "c"},
				{Names: []string{"-x"}, Action: ActionStoreTrue},
			},
			args: []string{"--opt", "-x"},
			want: map[string]any{"opt": "c", "x": true},
		},
		{
			name:    "optional takes a plain token",
			entries: []Entry{{Names: []string{"--opt"}, Nargs: Optional, Constant: "c"}},
			args:    []string{"--opt", "value"},
			want:    map[string]any{"opt": "value"},
		},
		{
			name: "zero or more stops at the next option",
			entries: []Entry{
				{Names: []string{"--list"}, Nargs: ZeroOrMore},
				{Names: []string{"-x"}, Action: ActionStoreTrue},
			},
			args: []string{"--list", "a", "b", "-x"},
			want: map[string]any{"list": []any{"a", "b"}, "x": true},
		},
		{
			name:    "zero or more may be empty",
			entries: []Entry{{Names: []string{"--list"}, Nargs: ZeroOrMore}},
			args:    []string{"--list"},
			want:    map[string]any{"list": []any{}},
		},
		{
			name:    "attached text counts toward one or more",
			entries: []Entry{{Names: []string{"--more"}, Nargs: OneOrMore}},
			args:    []string{"--more=-x", "y"},
			want:    map[string]any{"more": []any{"-x", "y"}},
		},
		{
			name: "remainder takes everything",
			entries: []Entry{
				{Names: []string{"--flag"}, Action: ActionStoreTrue},
				{Names: []string{"rest"}, Nargs: Remainder},
			},
			args: []string{"--flag", "a", "--b", "-c"},
			want: map[string]any{"flag": true, "rest": []any{"a", "--b", "-c"}},
		},
		{
			name:    "store_arg overwrites",
			entries: []Entry{{Names: []string{"--name"}}},
			args:    []string{"--name", "a", "--name", "b"},
			want:    map[string]any{"name": "b"},
		},
		{
			name:    "append_arg accumulates onto the default",
			entries: []Entry{{Names: []string{"--inc"}, Action: ActionAppendArg, Default: []any{"z"}}},
			args:    []string{"--inc", "a", "--inc=b"},
			want:    map[string]any{"inc": []any{"z", "a", "b"}},
		},
		{
			name:    "append_arg with fixed nargs nests lists",
			entries: []Entry{{Names: []string{"--pt"}, Action: ActionAppendArg, Nargs: Exactly(2), ArgType: TypeInt}},
			args:    []string{"--pt", "1", "2", "--pt", "3", "4"},
			want:    map[string]any{"pt": []any{[]any{1, 2}, []any{3, 4}}},
		},
		{
			name: "append_const shares a destination",
			entries: []Entry{
				{Names: []string{"--x"}, Action: ActionAppendConst, Constant: 1, DestName: "vals"},
				{Names: []string{"--y"}, Action: ActionAppendConst, Constant: 2, DestName: "vals"},
			},
			args: []string{"--x", "--y", "--x"},
			want: map[string]any{"vals": []any{1, 2, 1}},
		},
		{
			name: "store_const shares a destination",
			entries: []Entry{
				{Names: []string{"--fast"}, Action: ActionStoreConst, Constant: "fast", DestName: "mode"},
				{Names: []string{"--slow"}, Action: ActionStoreConst, Constant: "slow", DestName: "mode"},
			},
			args: []string{"--fast", "--slow"},
			want: map[string]any{"mode": "slow"},
		},
		{
			name:    "count_invocations counts grouped and repeated flags",
			entries: []Entry{{Names: []string{"-v", "--verbose"}, Action: ActionCountInvocations}},
			args:    []string{"-vv", "--verbose", "-v"},
			want:    map[string]any{"verbose": 4},
		},
		{
			name:    "store_false",
			entries: []Entry{{Names: []string{"--no-cache"}, Action: ActionStoreFalse, DestName: "cache"}},
			args:    []string{"--no-cache"},
			want:    map[string]any{"cache": false},
		},
		{
			name: "positionals fill in order",
			entries: []Entry{
				{Names: []string{"src"}},
				{Names: []string{"pair"}, Nargs: Exactly(2)},
				{Names: []string{"rest"}, Nargs: ZeroOrMore},
			},
			args: []string{"a", "b", "c", "d", "e"},
			want: map[string]any{"src": "a", "pair": []any{"b", "c"}, "rest": []any{"d", "e"}},
		},
		{
			name: "double dash ends options",
			entries: []Entry{
				{Names: []string{"-x"}, Action: ActionStoreTrue},
				{Names: []string{"files"}, Nargs: ZeroOrMore},
			},
			args: []string{"--", "-x", "--y"},
			want: map[string]any{"x": false, "files": []any{"-x", "--y"}},
		},
		{
			name:    "lone dash is positional",
			entries: []Entry{{Names: []string{"input"}}},
			args:    []string{"-"},
			want:    map[string]any{"input": "-"},
		},
		{
			name: "equals forces an argument",
			entries: []Entry{
				{Names: []string{"--opt"}},
				{Names: []string{"-f"}},
			},
			args: []string{"--opt=--weird", "-f=-g"},
			want: map[string]any{"opt": "--weird", "f": "-g"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSettings("prog")
			mustAdd(t, s, tt.entries...)
			res := mustParse(t, s, tt.args...)
			if diff := cmp.Diff(tt.want, res.Map()); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAppendDoesNotMutateDefault(t *testing.T) {
	def := []any{"z"}
	s := NewSettings("prog")
	mustAdd(t, s, Entry{Names: []string{"--inc"}, Action: ActionAppendArg, Default: def})

	mustParse(t, s, "--inc", "a")
	res := mustParse(t, s, "--inc", "b")

	if diff := cmp.Diff([]any{"z", "b"}, res.Map()["inc"]); diff != "" {
		t.Errorf("second parse mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"z"}, def); diff != "" {
		t.Errorf("declared default was mutated (-want +got):\n%s", diff)
	}
}

func TestWrongArgumentCount(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		args    []string
	}{
		{"missing argument", []Entry{{Names: []string{"--opt"}}}, []string{"--opt"}},
		{"fixed shortfall", []Entry{{Names: []string{"--pair"}, Nargs: Exactly(2)}}, []string{"--pair", "a"}},
		{"one or more empty", []Entry{{Names: []string{"--more"}, Nargs: OneOrMore}}, []string{"--more"}},
		{"flag given a value", []Entry{{Names: []string{"--flag"}, Action: ActionStoreTrue}}, []string{"--flag=yes"}},
		{"short flag given a value", []Entry{{Names: []string{"-q"}, Action: ActionStoreTrue}}, []string{"-q=1"}},
		{"positional fixed shortfall", []Entry{{Names: []string{"pair"}, Nargs: Exactly(2)}}, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSettings("prog")
			mustAdd(t, s, tt.entries...)
			expectKind(t, parseError(t, s, tt.args...), ErrorKindWrongArgumentCount)
		})
	}
}

func TestLongOptionAbbreviation(t *testing.T) {
	s := NewSettings("prog")
	mustAdd(t, s,
		Entry{Names: []string{"--verbose"}, Action: ActionStoreTrue},
		Entry{Names: []string{"--version-file"}},
		Entry{Names: []string{"--foo"}, Action: ActionStoreTrue},
		Entry{Names: []string{"--foobar"}, Action: ActionStoreTrue},
	)

	res := mustParse(t, s, "--verb")
	if v, _ := res.GetBool("verbose"); !v {
		t.Errorf("expected --verb to resolve to --verbose")
	}

	res = mustParse(t, s, "--version", "v.txt")
	if v, _ := res.GetString("version-file"); v != "v.txt" {
		t.Errorf("expected --version to resolve to --version-file, got %q", v)
	}

	// An exact name wins over being a prefix of another.
	res = mustParse(t, s, "--foo")
	if foo, _ := res.GetBool("foo"); !foo {
		t.Errorf("expected --foo to match exactly")
	}
	if foobar, _ := res.GetBool("foobar"); foobar {
		t.Errorf("--foo must not set --foobar")
	}

	perr := parseError(t, s, "--ver")
	expectKind(t, perr, ErrorKindAmbiguousAbbreviation)
	if perr.Token() != "--ver" {
		t.Errorf("expected offending token --ver, got %q", perr.Token())
	}

	perr = parseError(t, s, "--fo")
	expectKind(t, perr, ErrorKindAmbiguousAbbreviation)
}

func TestUnrecognizedOption(t *testing.T) {
	s := NewSettings("prog")
	mustAdd(t, s,
		Entry{Names: []string{"--verbose"}, Action: ActionStoreTrue},
		Entry{Names: []string{"--output"}},
	)

	perr := parseError(t, s, "--hepl")
	expectKind(t, perr, ErrorKindUnrecognizedOption)
	if perr.Suggestion != "--help" {
		t.Errorf("expected suggestion --help, got %q", perr.Suggestion)
	}

	perr = parseError(t, s, "--outptu=x")
	expectKind(t, perr, ErrorKindUnrecognizedOption)
	if perr.Suggestion != "--output" {
		t.Errorf("expected suggestion --output, got %q", perr.Suggestion)
	}

	perr = parseError(t, s, "-z")
	expectKind(t, perr, ErrorKindUnrecognizedOption)
	if perr.Settings != s || perr.Prog != "prog" {
		t.Errorf("expected the root node to be reported, got prog %q", perr.Prog)
	}
}

func TestNegativeNumbers(t *testing.T) {
	s := NewSettings("prog")
	mustAdd(t, s,
		Entry{Names: []string{"--num"}, ArgType: TypeInt},
		Entry{Names: []string{"--nums"}, Nargs: ZeroOrMore, ArgType: TypeFloat64},
		Entry{Names: []string{"x"}, ArgType: TypeInt, Default: 0},
	)

	res := mustParse(t, s, "--num", "-5", "-3")
	want := map[string]any{"num": -5, "nums": nil, "x": -3}
	if diff := cmp.Diff(want, res.Map()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	res = mustParse(t, s, "--nums", "-1", "-2.5", "3", "--", "7")
	want = map[string]any{"num": nil, "nums": []any{-1.0, -2.5, 3.0}, "x": 7}
	if diff := cmp.Diff(want, res.Map()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestAmbiguousShortOptions(t *testing.T) {
	s := NewSettings("prog")
	if err := s.AddEntry(Entry{Names: []string{"-1"}, Action: ActionStoreTrue}); err == nil {
		t.Fatalf("expected digit short option to be rejected")
	}

	s = NewSettings("prog")
	s.AllowAmbiguousOpts = true
	mustAdd(t, s,
		Entry{Names: []string{"-1"}, Action: ActionStoreTrue, DestName: "one"},
		Entry{Names: []string{"n"}, ArgType: TypeInt, Default: 0},
	)

	res := mustParse(t, s, "-1")
	if one, _ := res.GetBool("one"); !one {
		t.Errorf("expected -1 to be read as an option")
	}
	res = mustParse(t, s, "-2")
	if n, _ := res.GetInt("n"); n != -2 {
		t.Errorf("expected -2 to be read as a number, got %d", n)
	}
}

func TestShortGroupArgumentWinsOverNumber(t *testing.T) {
	s := NewSettings("prog")
	mustAdd(t, s,
		Entry{Names: []string{"-a"}, Action: ActionStoreTrue},
		Entry{Names: []string{"-f"}, ArgType: TypeInt},
	)
	res := mustParse(t, s, "-af-3")
	want := map[string]any{"a": true, "f": -3}
	if diff := cmp.Diff(want, res.Map()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestRangeTestAndConversion(t *testing.T) {
	s := NewSettings("prog")
	s.RegisterType("upper", func(v string) (any, error) {
		if v == "" {
			return nil, errors.New("empty")
		}
		return strings.ToUpper(v), nil
	})
	mustAdd(t, s,
		Entry{Names: []string{"--port"}, ArgType: TypeInt, Default: 8080, RangeTester: func(v any) bool {
			n := v.(int)
			return n > 0 && n < 65536
		}},
		Entry{Names: []string{"--timeout"}, ArgType: TypeDuration},
		Entry{Names: []string{"--name"}, ArgType: "upper"},
	)

	res := mustParse(t, s, "--port", "0x1F90", "--timeout", "1h30m", "--name", "svc")
	if port := res.MustGetInt("port", 0); port != 8080 {
		t.Errorf("expected port 8080, got %d", port)
	}
	if d := res.MustGetDuration("timeout", 0); d != 90*time.Minute {
		t.Errorf("expected timeout 1h30m, got %v", d)
	}
	if name := res.MustGetString("name", ""); name != "SVC" {
		t.Errorf("expected custom conversion, got %q", name)
	}

	perr := parseError(t, s, "--port", "0")
	expectKind(t, perr, ErrorKindRangeTest)
	if perr.Token() != "0" {
		t.Errorf("expected offending token 0, got %q", perr.Token())
	}

	perr = parseError(t, s, "--name=")
	expectKind(t, perr, ErrorKindTypeConversion)

	// List-valued entries test each element; the empty append default passes.
	positive := func(v any) bool { return v.(int) > 0 }
	lists := NewSettings("prog")
	mustAdd(t, lists,
		Entry{Names: []string{"--n"}, Action: ActionAppendArg, ArgType: TypeInt, RangeTester: positive},
		Entry{Names: []string{"--seed"}, Action: ActionAppendArg, ArgType: TypeInt, Default: []int{1}, RangeTester: positive},
		Entry{Names: []string{"--pair"}, ArgType: TypeInt, Nargs: Exactly(2), Default: []any{"1", "0x2"}, RangeTester: positive},
	)
	res = mustParse(t, lists)
	want := map[string]any{"n": []any{}, "seed": []any{1}, "pair": []any{1, 2}}
	if diff := cmp.Diff(want, res.Map()); diff != "" {
		t.Errorf("list defaults mismatch (-want +got):\n%s", diff)
	}
	res = mustParse(t, lists, "--n", "1", "--n", "2", "--seed", "5")
	if diff := cmp.Diff([]int{1, 2}, res.MustGetIntSlice("n", nil)); diff != "" {
		t.Errorf("append mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 5}, res.MustGetIntSlice("seed", nil)); diff != "" {
		t.Errorf("append onto default mismatch (-want +got):\n%s", diff)
	}
	expectKind(t, parseError(t, lists, "--n", "0"), ErrorKindRangeTest)

	bad := NewSettings("prog")
	err := bad.AddEntry(Entry{Names: []string{"--pair"}, ArgType: TypeInt, Nargs: Exactly(2), Default: []any{"1", "x"}})
	if kind := tableErrorKind(t, err); kind != ErrorKindInvalidEntry {
		t.Errorf("expected %s for an unconvertible list element, got %s", ErrorKindInvalidEntry, kind)
	}
	err = bad.AddEntry(Entry{Names: []string{"--more"}, Action: ActionAppendArg, ArgType: TypeInt, Default: []any{3, 0}, RangeTester: positive})
	if kind := tableErrorKind(t, err); kind != ErrorKindInvalidEntry {
		t.Errorf("expected %s for an out of range list element, got %s", ErrorKindInvalidEntry, kind)
	}
}

func TestHelpAndVersionStop(t *testing.T) {
	opts := DefaultOptions()
	opts.Prog = "prog"
	opts.Version = "1.2.3"
	opts.AddVersion = true
	s := New(opts)
	mustAdd(t, s,
		Entry{Names: []string{"--opt"}},
		Entry{Names: []string{"run"}, Action: ActionCommand},
	)

	_, err := s.Parse([]string{"--opt", "x", "--help", "--unknown"})
	var stop *Stop
	if !errors.As(err, &stop) {
		t.Fatalf("expected *Stop, got %v", err)
	}
	if stop.Signal != SignalHelp || stop.Prog != "prog" || stop.Settings != s {
		t.Errorf("unexpected stop: %+v", stop)
	}
	var sawHelp bool
	for _, e := range stop.Entries {
		if e.Action == ActionShowHelp {
			sawHelp = true
		}
	}
	if !sawHelp {
		t.Errorf("expected implicit help entry in stop entries")
	}

	_, err = s.Parse([]string{"--version"})
	if !errors.As(err, &stop) || stop.Signal != SignalVersion || stop.Version != "1.2.3" {
		t.Fatalf("expected version stop, got %v", err)
	}

	// Command nodes inherit the version and report their own program chain.
	_, err = s.Parse([]string{"run", "-h"})
	if !errors.As(err, &stop) {
		t.Fatalf("expected *Stop, got %v", err)
	}
	if stop.Prog != "prog run" || stop.Settings != s.Command("run") {
		t.Errorf("expected stop at the run node, got prog %q", stop.Prog)
	}
	_, err = s.Parse([]string{"run", "--version"})
	if !errors.As(err, &stop) || stop.Version != "1.2.3" {
		t.Errorf("expected inherited version, got %v", err)
	}

	// Parsing never adds the implicit entries to the table.
	for _, e := range s.Entries() {
		if e.Action == ActionShowHelp || e.Action == ActionShowVersion {
			t.Errorf("implicit entry %v leaked into the table", e.Names)
		}
	}
}

func TestStopHandler(t *testing.T) {
	sentinel := errors.New("help shown")
	s := NewSettings("prog")
	var got Signal
	s.StopHandler = func(_ *Settings, stop *Stop) error {
		got = stop.Signal
		return sentinel
	}
	_, err := s.Parse([]string{"-h"})
	if !errors.Is(err, sentinel) || got != SignalHelp {
		t.Errorf("expected stop handler result, got %v (signal %v)", err, got)
	}

	s.StopHandler = func(*Settings, *Stop) error { return nil }
	res, err := s.Parse([]string{"--help"})
	if res != nil || err != nil {
		t.Errorf("expected nil, nil when the stop handler returns nil, got %v, %v", res, err)
	}
}

func TestHelpNamesYieldToDeclaredOptions(t *testing.T) {
	s := NewSettings("prog")
	mustAdd(t, s, Entry{Names: []string{"-h", "--host"}})

	res := mustParse(t, s, "-h", "example.org")
	if host, _ := res.GetString("host"); host != "example.org" {
		t.Errorf("expected -h to set host, got %q", host)
	}
	_, err := s.Parse([]string{"--help"})
	var stop *Stop
	if !errors.As(err, &stop) {
		t.Errorf("expected --help to remain available, got %v", err)
	}
}

func TestHandlerReceivesActiveNode(t *testing.T) {
	s := NewSettings("prog")
	mustAdd(t, s, Entry{Names: []string{"run"}, Action: ActionCommand})
	run := s.Command("run")
	mustAdd(t, run, Entry{Names: []string{"--jobs"}, ArgType: TypeInt})

	var seen *Settings
	s.Handler = func(node *Settings, err *ParseError) error {
		seen = node
		return fmt.Errorf("wrapped: %w", err)
	}

	_, err := s.Parse([]string{"run", "--jobs", "many"})
	var perr *ParseError
	if !errors.As(err, &perr) || !strings.HasPrefix(err.Error(), "wrapped: ") {
		t.Fatalf("expected wrapped parse error, got %v", err)
	}
	if seen != run || perr.Prog != "prog run" {
		t.Errorf("expected the run node to be active, got prog %q", perr.Prog)
	}

	// A node-level handler takes precedence.
	run.Handler = func(_ *Settings, err *ParseError) error {
		return &ExitError{Code: 42, Err: err}
	}
	_, err = s.Parse([]string{"run", "--jobs", "many"})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 42 {
		t.Errorf("expected node handler result, got %v", err)
	}
}

func TestNestedCommands(t *testing.T) {
	s := NewSettings("git")
	mustAdd(t, s,
		Entry{Names: []string{"--verbose"}, Action: ActionStoreTrue},
		Entry{Names: []string{"remote"}, Action: ActionCommand},
	)
	remote := s.Command("remote")
	mustAdd(t, remote, Entry{Names: []string{"add"}, Action: ActionCommand})
	add := remote.Command("add")
	mustAdd(t, add,
		Entry{Names: []string{"--fetch", "-f"}, Action: ActionStoreTrue},
		Entry{Names: []string{"name"}, Required: true},
	)

	res := mustParse(t, s, "--verbose", "remote", "add", "-f", "origin")
	want := map[string]any{
		"verbose":  true,
		CommandKey: "remote",
		"remote": map[string]any{
			CommandKey: "add",
			"add":      map[string]any{"fetch": true, "name": "origin"},
		},
	}
	if diff := cmp.Diff(want, res.Map()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	if res.Sub("remote").Sub("add").MustGetString("name", "") != "origin" {
		t.Errorf("expected nested accessors to reach the add result")
	}

	// Options after a command belong to the command's node.
	perr := parseError(t, s, "remote", "--verbose", "add", "x")
	expectKind(t, perr, ErrorKindUnrecognizedOption)
	if perr.Settings != remote || perr.Prog != "git remote" {
		t.Errorf("expected error at the remote node, got prog %q", perr.Prog)
	}

	perr = parseError(t, s, "remote", "add")
	expectKind(t, perr, ErrorKindMissingRequired)
	if perr.Prog != "git remote add" {
		t.Errorf("expected error at the add node, got prog %q", perr.Prog)
	}
}

func TestMissingCommand(t *testing.T) {
	s := NewSettings("prog")
	mustAdd(t, s,
		Entry{Names: []string{"--opt"}},
		Entry{Names: []string{"start"}, Action: ActionCommand},
		Entry{Names: []string{"stop"}, Action: ActionCommand},
	)
	expectKind(t, parseError(t, s, "--opt", "x"), ErrorKindMissingCommand)

	s.CommandsAreRequired = false
	res := mustParse(t, s, "--opt", "x")
	if res.Command() != "" {
		t.Errorf("expected no command, got %q", res.Command())
	}
	want := map[string]any{"opt": "x", CommandKey: nil}
	if diff := cmp.Diff(want, res.Map()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	perr := parseError(t, s, "strat")
	expectKind(t, perr, ErrorKindTooManyArguments)
	if !strings.Contains(perr.Message, "unknown command") || perr.Suggestion != "start" {
		t.Errorf("expected unknown command with suggestion, got %q / %q", perr.Message, perr.Suggestion)
	}
}

func TestRequiredCheckedBeforeCommand(t *testing.T) {
	s := NewSettings("prog")
	mustAdd(t, s,
		Entry{Names: []string{"--config"}, Required: true},
		Entry{Names: []string{"run"}, Action: ActionCommand},
	)
	perr := parseError(t, s, "run")
	expectKind(t, perr, ErrorKindMissingRequired)
	if perr.Entry != "--config" || perr.Settings != s {
		t.Errorf("expected --config at the root node, got %q", perr.Entry)
	}
}

func TestFlagStyleCommands(t *testing.T) {
	s := NewSettings("prog")
	mustAdd(t, s,
		Entry{Names: []string{"-q"}, Action: ActionStoreTrue},
		Entry{Names: []string{"--run", "-r"}, Action: ActionCommand},
	)
	run := s.Command("run")
	mustAdd(t, run,
		Entry{Names: []string{"-x"}, Action: ActionStoreTrue},
		Entry{Names: []string{"-n"}, ArgType: TypeInt, Default: 1},
	)

	want := map[string]any{
		"q":        true,
		CommandKey: "run",
		"run":      map[string]any{"x": true, "n": 3},
	}
	for _, args := range [][]string{
		{"-q", "--run", "-x", "-n", "3"},
		{"-qrxn3"},
		{"-qr", "-xn", "3"},
	} {
		res := mustParse(t, s, args...)
		if diff := cmp.Diff(want, res.Map()); diff != "" {
			t.Errorf("Parse(%q) mismatch (-want +got):\n%s", args, diff)
		}
	}

	// Group characters after the command are read by the command's node.
	perr := parseError(t, s, "-rq")
	expectKind(t, perr, ErrorKindUnrecognizedOption)
	if perr.Settings != run {
		t.Errorf("expected the run node to reject -q")
	}

	expectKind(t, parseError(t, s, "--run=1"), ErrorKindWrongArgumentCount)
}

func TestCommandNamesBeforePositionals(t *testing.T) {
	s := NewSettings("prog")
	s.CommandsAreRequired = false
	mustAdd(t, s,
		Entry{Names: []string{"file"}, Nargs: Optional},
		Entry{Names: []string{"show"}, Action: ActionCommand},
	)

	res := mustParse(t, s, "show")
	if res.Command() != "show" {
		t.Errorf("expected show to be read as a command")
	}

	// After "--" the name is an ordinary positional.
	res = mustParse(t, s, "--", "show")
	if res.Command() != "" || res.MustGetString("file", "") != "show" {
		t.Errorf("expected show to fill the positional, got %v", res.Map())
	}
}

func TestResultAccessors(t *testing.T) {
	s := NewSettings("prog")
	mustAdd(t, s,
		Entry{Names: []string{"--tags"}, Nargs: OneOrMore},
		Entry{Names: []string{"--ids"}, Nargs: OneOrMore, ArgType: TypeInt},
		Entry{Names: []string{"--ratio"}, ArgType: TypeFloat64},
	)
	res := mustParse(t, s, "--tags", "a", "b", "--ids", "1", "2", "--ratio", "0.5")

	if tags := res.MustGetStringSlice("tags", nil); len(tags) != 2 || tags[1] != "b" {
		t.Errorf("unexpected tags %v", tags)
	}
	if ids := res.MustGetIntSlice("ids", nil); len(ids) != 2 || ids[0] != 1 {
		t.Errorf("unexpected ids %v", ids)
	}
	if _, ok := res.GetIntSlice("tags"); ok {
		t.Errorf("string list must not read as ints")
	}
	if r := res.MustGetFloat("ratio", 0); r != 0.5 {
		t.Errorf("unexpected ratio %v", r)
	}
	if res.MustGetBool("missing", true) != true {
		t.Errorf("expected default for missing key")
	}
	if !res.Has("ratio") || res.Has("nope") {
		t.Errorf("Has reports wrong keys")
	}
}

func TestLooksLikeOption(t *testing.T) {
	p := &parser{s: NewSettings("prog")}
	p.table = p.s.effectiveTable()

	tests := map[string]bool{
		"-":        false,
		"--":       true,
		"--x":      true,
		"-x":       true,
		"-5":       false,
		"-5.5e3":   false,
		"-.5":      false,
		"-0x1F":    false,
		"-0b1_01":  false,
		"-0o17":    false,
		"-5x":      true,
		"plain":    false,
		"-1_000.5": false,
	}
	for tok, want := range tests {
		if got := p.looksLikeOption(tok); got != want {
			t.Errorf("looksLikeOption(%q) = %v, want %v", tok, got, want)
		}
	}
}
