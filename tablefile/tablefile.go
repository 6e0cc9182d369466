// Package tablefile loads argument tables from YAML or TOML descriptors and
// builds argparse settings trees from them.
package tablefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dzonerzy/go-argparse/argparse"
)

// Format selects the descriptor syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Table describes one settings node: its options, groups, entries and the
// tables of its commands keyed by command destination.
type Table struct {
	Settings Settings          `yaml:"settings,omitempty" toml:"settings,omitempty"`
	Groups   []Group           `yaml:"groups,omitempty" toml:"groups,omitempty"`
	Entries  []Entry           `yaml:"entries,omitempty" toml:"entries,omitempty"`
	Commands map[string]*Table `yaml:"commands,omitempty" toml:"commands,omitempty"`
}

// Settings mirrors argparse.Options. Unset switches keep the node's current
// value (the defaults for a root, the inherited values for a command).
type Settings struct {
	Prog        string `yaml:"prog,omitempty" toml:"prog,omitempty"`
	Description string `yaml:"description,omitempty" toml:"description,omitempty"`
	Epilog      string `yaml:"epilog,omitempty" toml:"epilog,omitempty"`
	Usage       string `yaml:"usage,omitempty" toml:"usage,omitempty"`
	Version     string `yaml:"version,omitempty" toml:"version,omitempty"`

	AddHelp             *bool `yaml:"add_help,omitempty" toml:"add_help,omitempty"`
	AddVersion          *bool `yaml:"add_version,omitempty" toml:"add_version,omitempty"`
	AutofixNames        *bool `yaml:"autofix_names,omitempty" toml:"autofix_names,omitempty"`
	ErrorOnConflict     *bool `yaml:"error_on_conflict,omitempty" toml:"error_on_conflict,omitempty"`
	SuppressWarnings    *bool `yaml:"suppress_warnings,omitempty" toml:"suppress_warnings,omitempty"`
	AllowAmbiguousOpts  *bool `yaml:"allow_ambiguous_opts,omitempty" toml:"allow_ambiguous_opts,omitempty"`
	CommandsAreRequired *bool `yaml:"commands_are_required,omitempty" toml:"commands_are_required,omitempty"`
	ExitAfterHelp       *bool `yaml:"exit_after_help,omitempty" toml:"exit_after_help,omitempty"`
}

// Group declares a display group.
type Group struct {
	Name        string `yaml:"name,omitempty" toml:"name,omitempty"`
	Description string `yaml:"description" toml:"description"`
	Default     bool   `yaml:"default,omitempty" toml:"default,omitempty"`
}

// Entry mirrors argparse.Entry with textual nargs and action.
type Entry struct {
	Names         []string `yaml:"names" toml:"names"`
	Nargs         string   `yaml:"nargs,omitempty" toml:"nargs,omitempty"`
	Action        string   `yaml:"action,omitempty" toml:"action,omitempty"`
	Type          string   `yaml:"type,omitempty" toml:"type,omitempty"`
	Default       any      `yaml:"default,omitempty" toml:"default,omitempty"`
	Constant      any      `yaml:"constant,omitempty" toml:"constant,omitempty"`
	Required      bool     `yaml:"required,omitempty" toml:"required,omitempty"`
	Dest          string   `yaml:"dest,omitempty" toml:"dest,omitempty"`
	Metavar       string   `yaml:"metavar,omitempty" toml:"metavar,omitempty"`
	Group         string   `yaml:"group,omitempty" toml:"group,omitempty"`
	ForceOverride bool     `yaml:"force_override,omitempty" toml:"force_override,omitempty"`
	Help          string   `yaml:"help,omitempty" toml:"help,omitempty"`
	Range         *Range   `yaml:"range,omitempty" toml:"range,omitempty"`
}

// Range builds a range tester: a value passes when it lies within Min/Max
// (numbers only) and, if Choices is set, equals one of them.
type Range struct {
	Min     *float64 `yaml:"min,omitempty" toml:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty" toml:"max,omitempty"`
	Choices []any    `yaml:"choices,omitempty" toml:"choices,omitempty"`
}

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported table format: %s (expected .yaml, .yml or .toml)", ext)
	}
}

// Load reads and decodes a descriptor file.
func Load(path string) (*Table, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return t, nil
}

// Decode parses a descriptor. Unknown keys are rejected.
func Decode(data []byte, format Format) (*Table, error) {
	var t Table
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &t)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown key %s", undecoded[0])
		}
	default:
		return nil, fmt.Errorf("unsupported table format %q", format)
	}
	return &t, nil
}

// LoadSettings loads a descriptor file and builds its settings tree.
func LoadSettings(path string) (*argparse.Settings, error) {
	t, err := Load(path)
	if err != nil {
		return nil, err
	}
	return t.Build()
}

// Build creates a root node with the default options and applies t to it.
func (t *Table) Build() (*argparse.Settings, error) {
	s := argparse.New(argparse.DefaultOptions())
	if err := t.Apply(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Apply adds t's options, groups, entries and command tables to s.
func (t *Table) Apply(s *argparse.Settings) error {
	t.Settings.apply(&s.Options)

	for _, g := range t.Groups {
		if _, err := s.AddGroup(g.Description, g.Name, g.Default); err != nil {
			return err
		}
	}

	for i, te := range t.Entries {
		e, err := te.entry(s)
		if err != nil {
			return fmt.Errorf("entry %d (%s): %w", i, strings.Join(te.Names, "/"), err)
		}
		if err := s.AddEntry(e); err != nil {
			return fmt.Errorf("entry %d (%s): %w", i, strings.Join(te.Names, "/"), err)
		}
	}

	for dest, sub := range t.Commands {
		child := s.Command(dest)
		if child == nil {
			return fmt.Errorf("commands.%s: no command entry with that destination", dest)
		}
		if err := sub.Apply(child); err != nil {
			return fmt.Errorf("commands.%s: %w", dest, err)
		}
	}
	return nil
}

func (c Settings) apply(o *argparse.Options) {
	setString(&o.Prog, c.Prog)
	setString(&o.Description, c.Description)
	setString(&o.Epilog, c.Epilog)
	setString(&o.Usage, c.Usage)
	setString(&o.Version, c.Version)

	setBool(&o.AddHelp, c.AddHelp)
	setBool(&o.AddVersion, c.AddVersion)
	setBool(&o.AutofixNames, c.AutofixNames)
	setBool(&o.ErrorOnConflict, c.ErrorOnConflict)
	setBool(&o.SuppressWarnings, c.SuppressWarnings)
	setBool(&o.AllowAmbiguousOpts, c.AllowAmbiguousOpts)
	setBool(&o.CommandsAreRequired, c.CommandsAreRequired)
	setBool(&o.ExitAfterHelp, c.ExitAfterHelp)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func (te Entry) entry(s *argparse.Settings) (argparse.Entry, error) {
	nargs, ok := argparse.ParseNargs(te.Nargs)
	if !ok {
		return argparse.Entry{}, fmt.Errorf("invalid nargs %q", te.Nargs)
	}
	e := argparse.Entry{
		Names:         te.Names,
		Nargs:         nargs,
		Action:        argparse.Action(te.Action),
		ArgType:       te.Type,
		Required:      te.Required,
		DestName:      te.Dest,
		Metavar:       te.Metavar,
		Group:         te.Group,
		ForceOverride: te.ForceOverride,
		Help:          te.Help,
	}

	flag := nargs.Kind == argparse.NargsZero || isFlagAction(e.Action)
	var err error
	if e.Default, err = value(s, te.Type, flag, te.Default); err != nil {
		return argparse.Entry{}, fmt.Errorf("default: %w", err)
	}
	if e.Constant, err = value(s, te.Type, flag, te.Constant); err != nil {
		return argparse.Entry{}, fmt.Errorf("constant: %w", err)
	}
	if te.Range != nil {
		r, err := te.Range.tester(s, te.Type)
		if err != nil {
			return argparse.Entry{}, fmt.Errorf("range: %w", err)
		}
		e.RangeTester = r
	}
	return e, nil
}

func isFlagAction(a argparse.Action) bool {
	switch a {
	case argparse.ActionStoreTrue, argparse.ActionStoreFalse, argparse.ActionStoreConst,
		argparse.ActionAppendConst, argparse.ActionCountInvocations,
		argparse.ActionShowHelp, argparse.ActionShowVersion:
		return true
	default:
		return false
	}
}

// value turns a decoded scalar or list into what the entry would have
// produced from the command line: typed entries go through the node's
// conversion hook, untyped ones become strings. Flag constants are kept as
// decoded, with integers narrowed to int.
func value(s *argparse.Settings, typ string, flag bool, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]any, len(x))
		for i := range x {
			item, err := value(s, typ, flag, x[i])
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	}
	if flag {
		return plain(v), nil
	}
	return s.Convert(typ, fmt.Sprint(v))
}

func plain(v any) any {
	switch x := v.(type) {
	case int64:
		return int(x)
	case uint64:
		return int(x)
	default:
		return v
	}
}

func (r *Range) tester(s *argparse.Settings, typ string) (func(any) bool, error) {
	choices := make([]string, 0, len(r.Choices))
	for _, c := range r.Choices {
		v, err := value(s, typ, false, c)
		if err != nil {
			return nil, err
		}
		choices = append(choices, fmt.Sprint(v))
	}
	lo, hi := r.Min, r.Max
	return func(v any) bool {
		if lo != nil || hi != nil {
			f, ok := toFloat(v)
			if !ok {
				return false
			}
			if lo != nil && f < *lo {
				return false
			}
			if hi != nil && f > *hi {
				return false
			}
		}
		if len(choices) == 0 {
			return true
		}
		text := fmt.Sprint(v)
		for _, c := range choices {
			if c == text {
				return true
			}
		}
		return false
	}, nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}
