package argparse

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
)

// CommandKey is the reserved result key holding the command invoked at a
// level, or nil when none was given.
const CommandKey = "%COMMAND%"

// Options holds the general settings of a node. Child nodes receive a copy
// of their parent's options when the command is added, with the identity
// fields (Prog, Description, Epilog, Usage, Version) left blank.
type Options struct {
	Prog        string
	Description string
	Epilog      string
	Usage       string
	Version     string

	AddHelp             bool
	AddVersion          bool
	AutofixNames        bool
	ErrorOnConflict     bool
	SuppressWarnings    bool
	AllowAmbiguousOpts  bool
	CommandsAreRequired bool
	ExitAfterHelp       bool

	// Handler receives parse errors; nil propagates them unchanged.
	Handler Handler
	// StopHandler receives help/version stops; nil returns the *Stop.
	StopHandler StopHandler
	// Logger receives build warnings and parse debug events; nil is silent.
	Logger *log.Logger
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Version:             "Unknown version",
		AddHelp:             true,
		ErrorOnConflict:     true,
		CommandsAreRequired: true,
		ExitAfterHelp:       true,
	}
}

// Group is a display bucket for entries.
type Group struct {
	Name        string
	Description string
}

// Standard group names.
const (
	GroupCommand    = "command"
	GroupPositional = "positional"
	GroupOptional   = "optional"
)

func standardGroups() []*Group {
	return []*Group{
		{Name: GroupCommand, Description: "commands"},
		{Name: GroupPositional, Description: "positional arguments"},
		{Name: GroupOptional, Description: "optional arguments"},
	}
}

// Settings is one node of the settings tree: general options, an ordered
// argument table, ordered groups, and the child nodes of its commands.
// A node is mutated only by table-building operations and is read-only
// during Parse; it is not safe for concurrent mutation.
type Settings struct {
	Options

	entries      []*entry
	groups       []*Group
	defaultGroup string
	commands     map[string]*Settings
	types        map[string]Converter
}

// New creates an empty node with the given options.
func New(opts Options) *Settings {
	return &Settings{
		Options:  opts,
		groups:   standardGroups(),
		commands: make(map[string]*Settings),
	}
}

// NewSettings creates an empty node with DefaultOptions and the given
// program name.
func NewSettings(prog string) *Settings {
	opts := DefaultOptions()
	opts.Prog = prog
	return New(opts)
}

// newChild creates the node owned by a command entry.
func (s *Settings) newChild() *Settings {
	opts := s.Options
	opts.Prog = ""
	opts.Description = ""
	opts.Epilog = ""
	opts.Usage = ""
	opts.Version = ""
	c := New(opts)
	c.types = cloneTypes(s.types)
	return c
}

// Command returns the child node of the command with the given destination,
// or nil.
func (s *Settings) Command(dest string) *Settings {
	return s.commands[dest]
}

// Entries returns copies of the declared entries in declaration order.
func (s *Settings) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.public()
	}
	return out
}

// Groups returns the node's groups in display order.
func (s *Settings) Groups() []Group {
	out := make([]Group, len(s.groups))
	for i, g := range s.groups {
		out[i] = *g
	}
	return out
}

// HasCommands reports whether the node declares any command.
func (s *Settings) HasCommands() bool {
	return len(s.commands) > 0
}

// ProgName returns Prog, or the executable's base name when Prog is blank.
func (s *Settings) ProgName() string {
	if s.Prog != "" {
		return s.Prog
	}
	if len(os.Args) > 0 {
		return filepath.Base(os.Args[0])
	}
	return "<program>"
}

// AddGroup appends a group. Anonymous groups get a generated "#N" name, which
// is returned either way. When setAsDefault is true subsequent entries
// without an explicit Group land in it.
func (s *Settings) AddGroup(description, name string, setAsDefault bool) (string, error) {
	if name == "" {
		name = s.anonymousGroupName()
	} else {
		if isReservedGroup(name) {
			return "", invalidEntry(name, "reserved group name")
		}
		if s.group(name) != nil {
			return "", &TableError{
				Kind:    ErrorKindConflict,
				Message: "group " + name + " already in table",
				Entry:   name,
			}
		}
	}
	s.groups = append(s.groups, &Group{Name: name, Description: description})
	if setAsDefault {
		s.defaultGroup = name
	}
	return name, nil
}

func (s *Settings) anonymousGroupName() string {
	for n := len(s.groups) + 1; ; n++ {
		name := "#" + strconv.Itoa(n)
		if s.group(name) == nil {
			return name
		}
	}
}

// SetDefaultGroup selects the group used for subsequent entries; "" restores
// automatic assignment.
func (s *Settings) SetDefaultGroup(name string) error {
	if name != "" && s.group(name) == nil {
		return invalidEntry(name, "group not found")
	}
	s.defaultGroup = name
	return nil
}

func (s *Settings) group(name string) *Group {
	for _, g := range s.groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

func isReservedGroup(name string) bool {
	return name == GroupCommand || name == GroupPositional || name == GroupOptional ||
		(len(name) > 0 && name[0] == '#')
}

func (s *Settings) warn(msg string, keyvals ...any) {
	if s.SuppressWarnings || s.Logger == nil {
		return
	}
	s.Logger.Warn(msg, keyvals...)
}

func (s *Settings) debug(msg string, keyvals ...any) {
	if s.Logger == nil {
		return
	}
	s.Logger.Debug(msg, keyvals...)
}
