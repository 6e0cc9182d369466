package argparse

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dzonerzy/go-argparse/internal/intern"
)

var reservedName = regexp.MustCompile(`^%[A-Z_]+%$`)

// AddEntries adds entries in order, stopping at the first error.
func (s *Settings) AddEntries(entries ...Entry) error {
	for _, e := range entries {
		if err := s.AddEntry(e); err != nil {
			return err
		}
	}
	return nil
}

// AddEntry validates e and inserts it into the table. Collisions with
// existing entries either fail with a conflict error (ErrorOnConflict set and
// ForceOverride unset) or are resolved in favor of the new entry.
func (s *Settings) AddEntry(e Entry) error {
	ne, err := s.normalize(e)
	if err != nil {
		return err
	}
	return s.insert(ne, nil, s.ErrorOnConflict)
}

// insert runs the conflict resolver under the given conflict policy and
// appends ne. child, when non-nil, is the node to attach to a command entry
// instead of a fresh one.
func (s *Settings) insert(ne *entry, child *Settings, errorOnConflict bool) error {
	plan, err := s.resolveConflicts(ne, errorOnConflict)
	if err != nil {
		return err
	}
	plan.apply(s)
	s.entries = append(s.entries, ne)
	if ne.kind == KindCommand {
		if child == nil {
			child = s.newChild()
		}
		s.commands[ne.DestName] = child
	}
	return nil
}

// conflictPlan records the mutations needed to admit a new entry. It is
// computed before anything changes so a failing AddEntry leaves the table
// untouched.
type conflictPlan struct {
	strip  map[*entry][]string // option forms to remove from older entries
	delete map[*entry]bool
}

func (c *conflictPlan) apply(s *Settings) {
	for old, forms := range c.strip {
		if c.delete[old] {
			continue
		}
		for _, f := range forms {
			if strings.HasPrefix(f, "--") {
				old.longNames = slices.DeleteFunc(old.longNames, func(n string) bool { return n == f[2:] })
			} else {
				old.shortNames = slices.DeleteFunc(old.shortNames, func(n string) bool { return n == f[1:] })
			}
		}
		old.resetNames()
		if len(old.Names) == 0 {
			c.delete[old] = true
		}
	}
	if len(c.delete) == 0 {
		return
	}
	kept := s.entries[:0]
	for _, e := range s.entries {
		if c.delete[e] {
			if e.kind == KindCommand {
				delete(s.commands, e.DestName)
			}
			s.warn("entry removed by conflict resolution", "entry", e.id())
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
}

func (s *Settings) resolveConflicts(ne *entry, errorOnConflict bool) (*conflictPlan, error) {
	strict := errorOnConflict && !ne.ForceOverride
	plan := &conflictPlan{strip: make(map[*entry][]string), delete: make(map[*entry]bool)}

	for _, old := range s.entries {
		if ne.isOption() && old.isOption() {
			var shared []string
			for _, n := range ne.longNames {
				if slices.Contains(old.longNames, n) {
					shared = append(shared, "--"+n)
				}
			}
			for _, n := range ne.shortNames {
				if slices.Contains(old.shortNames, n) {
					shared = append(shared, "-"+n)
				}
			}
			if len(shared) > 0 {
				if strict {
					return nil, conflictError(ne.id(), old.id(), "duplicate option name "+strings.Join(shared, ", "))
				}
				plan.strip[old] = shared
			}
		}

		if ne.isPositional() && old.isPositional() && ne.Metavar == old.Metavar {
			if strict {
				return nil, conflictError(ne.id(), old.id(), "duplicate metavar "+ne.Metavar)
			}
			plan.delete[old] = true
		}

		if ne.DestName != old.DestName {
			continue
		}
		switch {
		case old.kind == KindCommand && ne.kind == KindCommand:
			return nil, conflictError(ne.id(), old.id(), "two commands share destination "+ne.DestName)
		case old.kind == KindCommand:
			return nil, conflictError(ne.id(), old.id(), "an argument cannot override the command destination "+ne.DestName)
		case ne.kind == KindCommand:
			if strict {
				return nil, conflictError(ne.id(), old.id(), "command shares destination "+ne.DestName)
			}
			plan.delete[old] = true
		case !compatible(ne, old):
			if strict {
				return nil, conflictError(ne.id(), old.id(), "incompatible type or action for destination "+ne.DestName)
			}
			plan.delete[old] = true
		}
	}
	return plan, nil
}

// compatible reports whether two entries may share a destination key.
func compatible(a, b *entry) bool {
	return typeName(a.ArgType) == typeName(b.ArgType) && a.Action.class() == b.Action.class()
}

func typeName(t string) string {
	if t == "" {
		return TypeString
	}
	return t
}

// normalize validates a descriptor and fills every derived field.
//
//nolint:gocognit,gocyclo,cyclop,funlen // Exhaustive validation is clearer in one place.
func (s *Settings) normalize(in Entry) (*entry, error) {
	e := &entry{Entry: in}
	e.Names = append([]string(nil), in.Names...)
	if len(e.Names) == 0 {
		return nil, invalidEntry("<unnamed>", "at least one name is required")
	}
	id := strings.Join(e.Names, "/")

	if e.Action == "" {
		if e.Nargs.Kind == NargsZero {
			e.Action = ActionStoreTrue
		} else {
			e.Action = ActionStoreArg
		}
	}
	if !e.Action.known() {
		return nil, invalidEntry(id, "unknown action %q", string(e.Action))
	}

	options := 0
	for _, n := range e.Names {
		if n == "" {
			return nil, invalidEntry(id, "empty name")
		}
		if strings.HasPrefix(n, "-") {
			options++
		}
	}
	if options != 0 && options != len(e.Names) {
		return nil, invalidEntry(id, "cannot mix positional and option names")
	}

	switch {
	case e.Action == ActionCommand:
		e.kind = KindCommand
		e.flagStyle = options > 0
	case options > 0:
		e.kind = KindOption
	default:
		e.kind = KindPositional
	}

	if options == 0 {
		if len(e.Names) != 1 {
			return nil, invalidEntry(id, "positional arguments take exactly one name")
		}
		if reservedName.MatchString(e.Names[0]) {
			return nil, invalidEntry(id, "reserved name")
		}
	} else {
		for i, n := range e.Names {
			long, short, err := s.splitOptionName(n)
			if err != nil {
				return nil, invalidEntry(id, "%s", err.Error())
			}
			if long != "" {
				long = intern.Intern(long)
				e.longNames = append(e.longNames, long)
				e.Names[i] = "--" + long
			} else {
				r, _ := utf8.DecodeRuneInString(short)
				e.shortNames = append(e.shortNames, intern.InternRune(r))
			}
		}
	}

	// nargs / action compatibility
	switch {
	case e.kind == KindCommand:
		if e.Nargs.Kind != NargsAuto {
			return nil, invalidEntry(id, "commands do not take nargs")
		}
	case e.Action.isFlag():
		if e.kind == KindPositional {
			return nil, invalidEntry(id, "action %s is only valid for options", e.Action)
		}
		if e.Nargs.Kind != NargsAuto && e.Nargs.Kind != NargsZero {
			return nil, invalidEntry(id, "action %s is incompatible with nargs %s", e.Action, e.Nargs)
		}
		e.Nargs = Zero
	default:
		if e.Nargs.Kind == NargsZero {
			return nil, invalidEntry(id, "action %s is incompatible with nargs 0", e.Action)
		}
		if e.Nargs.Kind == NargsFixed && e.Nargs.N < 1 {
			return nil, invalidEntry(id, "invalid nargs %d", e.Nargs.N)
		}
	}

	if (e.Action == ActionStoreConst || e.Action == ActionAppendConst) && e.Constant == nil {
		return nil, invalidEntry(id, "action %s requires a constant", e.Action)
	}

	if e.Required {
		switch {
		case e.kind == KindCommand || e.Action.isFlag():
			s.warn("required is ignored for flags and commands", "entry", id)
			e.Required = false
		case e.kind == KindPositional && (e.Nargs.Kind == NargsOptional || e.Nargs.Kind == NargsZeroOrMore):
			return nil, invalidEntry(id, "nargs %s cannot be required", e.Nargs)
		}
	}

	if e.Action.isFlag() || e.kind == KindCommand {
		if e.ArgType != "" {
			s.warn("arg type is ignored for flags and commands", "entry", id)
			e.ArgType = ""
		}
		e.RangeTester = nil
	} else if _, ok := s.converter(e.ArgType); !ok {
		return nil, invalidEntry(id, "unknown arg type %q", e.ArgType)
	}

	// destination
	if e.DestName == "" || e.isPositionalCommand() {
		if e.isPositionalCommand() && e.DestName != "" && e.DestName != e.Names[0] {
			s.warn("dest name is ignored for positional commands", "entry", id)
		}
		e.DestName = s.autoDest(e)
	}
	if e.DestName == CommandKey {
		return nil, invalidEntry(id, "destination %s is reserved", CommandKey)
	}

	// metavar
	switch e.kind {
	case KindPositional:
		if e.Metavar == "" {
			e.Metavar = e.Names[0]
		}
		if strings.IndexFunc(e.Metavar, unicode.IsSpace) >= 0 {
			return nil, invalidEntry(id, "metavar %q contains whitespace", e.Metavar)
		}
	case KindOption:
		if e.Action.isFlag() {
			if e.Metavar != "" {
				s.warn("metavar is ignored for flags", "entry", id)
				e.Metavar = ""
			}
		} else if e.Metavar == "" {
			e.Metavar = strings.ToUpper(s.autoDest(e))
		}
	case KindCommand:
		e.Metavar = ""
	}

	// defaults and constants
	switch e.Action {
	case ActionStoreTrue, ActionStoreFalse, ActionCountInvocations:
		if e.Default != nil {
			s.warn("default is ignored for action "+string(e.Action), "entry", id)
		}
		e.Default = idleValue(e.Action)
	case ActionAppendArg, ActionAppendConst:
		if e.Default == nil {
			e.Default = []any{}
		}
	case ActionShowHelp, ActionShowVersion, ActionCommand:
		e.Default = nil
	case ActionStoreArg, ActionStoreConst:
	}
	if !e.Action.isFlag() && e.kind != KindCommand {
		v, err := s.normalizeValue(e, e.Default)
		if err != nil {
			return nil, invalidEntry(id, "%s", err.Error())
		}
		e.Default = v
		if e.Nargs.Kind == NargsOptional {
			c, err := s.normalizeValue(e, e.Constant)
			if err != nil {
				return nil, invalidEntry(id, "%s", err.Error())
			}
			e.Constant = c
		}
	}

	// group
	if e.Group == "" {
		e.Group = s.defaultGroup
	}
	if e.Group == "" {
		e.Group = standardGroupFor(e.kind)
	} else if s.group(e.Group) == nil {
		return nil, invalidEntry(id, "group %q not found", e.Group)
	}

	return e, nil
}

// splitOptionName validates one option form and returns either the long
// name (without "--") or the short character (without "-").
func (s *Settings) splitOptionName(n string) (long, short string, err error) {
	if n == "-" || n == "--" {
		return "", "", fmt.Errorf("%q is not a valid option name", n)
	}
	if strings.ContainsRune(n, '=') || strings.IndexFunc(n, unicode.IsSpace) >= 0 {
		return "", "", fmt.Errorf("option name %q contains an illegal character", n)
	}
	if strings.HasPrefix(n, "--") {
		long = n[2:]
		if strings.HasPrefix(long, "-") {
			return "", "", fmt.Errorf("option name %q has too many dashes", n)
		}
		if s.AutofixNames {
			long = strings.ReplaceAll(long, "_", "-")
		}
		return long, "", nil
	}
	short = n[1:]
	if utf8.RuneCountInString(short) != 1 {
		return "", "", fmt.Errorf("short option %q must be a single character", n)
	}
	if !s.AllowAmbiguousOpts && strings.ContainsAny(short, "0123456789._(") {
		return "", "", fmt.Errorf("short option %q is ambiguous; set AllowAmbiguousOpts to permit it", n)
	}
	return "", short, nil
}

// autoDest derives the destination key from the entry's names.
func (s *Settings) autoDest(e *entry) string {
	var dest string
	switch {
	case e.kind == KindPositional || e.isPositionalCommand():
		dest = e.Names[0]
	case len(e.longNames) > 0:
		dest = e.longNames[0]
	default:
		dest = e.shortNames[0]
	}
	if s.AutofixNames && !e.isPositionalCommand() {
		dest = strings.ReplaceAll(dest, "-", "_")
	}
	return dest
}

func standardGroupFor(k EntryKind) string {
	switch k {
	case KindCommand:
		return GroupCommand
	case KindPositional:
		return GroupPositional
	default:
		return GroupOptional
	}
}

// idleValue is the value a flag-style entry takes when it is not given.
func idleValue(a Action) any {
	switch a {
	case ActionStoreTrue:
		return false
	case ActionStoreFalse:
		return true
	case ActionCountInvocations:
		return 0
	default:
		return nil
	}
}

// effectiveTable returns the entries used while parsing: the declared table
// plus implicit help/version options for names that are still free. The
// node itself is not modified.
func (s *Settings) effectiveTable() []*entry {
	table := append([]*entry(nil), s.entries...)
	taken := func(long, short string) bool {
		for _, e := range s.entries {
			if !e.isOption() {
				continue
			}
			if (long != "" && slices.Contains(e.longNames, long)) || (short != "" && slices.Contains(e.shortNames, short)) {
				return true
			}
		}
		return false
	}
	if s.AddHelp {
		h := &entry{Entry: Entry{Action: ActionShowHelp, Help: "show this help message and exit", Group: GroupOptional}, kind: KindOption, implicit: true}
		if !taken("", "h") {
			h.Names = append(h.Names, "-h")
			h.shortNames = append(h.shortNames, "h")
		}
		if !taken("help", "") {
			h.Names = append(h.Names, "--help")
			h.longNames = append(h.longNames, "help")
		}
		if len(h.Names) > 0 {
			h.Nargs = Zero
			table = append(table, h)
		}
	}
	if s.AddVersion && !taken("version", "") {
		table = append(table, &entry{
			Entry:     Entry{Names: []string{"--version"}, Action: ActionShowVersion, Nargs: Zero, Help: "show version information and exit", Group: GroupOptional},
			kind:      KindOption,
			longNames: []string{"version"},
			implicit:  true,
		})
	}
	return table
}
