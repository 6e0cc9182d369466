package argparse

import (
	"slices"
	"strconv"
	"strings"
)

// NargsKind selects how many tokens an entry consumes.
type NargsKind uint8

const (
	NargsAuto NargsKind = iota
	NargsZero
	NargsFixed
	NargsOptional
	NargsZeroOrMore
	NargsOneOrMore
	NargsRemainder
)

// Nargs describes token consumption. The zero value is NargsAuto.
type Nargs struct {
	Kind NargsKind
	N    int
}

// Predefined nargs values.
var (
	Auto       = Nargs{Kind: NargsAuto}
	Zero       = Nargs{Kind: NargsZero}
	Optional   = Nargs{Kind: NargsOptional}
	ZeroOrMore = Nargs{Kind: NargsZeroOrMore}
	OneOrMore  = Nargs{Kind: NargsOneOrMore}
	Remainder  = Nargs{Kind: NargsRemainder}
)

// Exactly returns a Fixed(n) nargs; Exactly(0) is Zero.
func Exactly(n int) Nargs {
	if n == 0 {
		return Zero
	}
	return Nargs{Kind: NargsFixed, N: n}
}

// String renders nargs the way the original table syntax spells it.
func (n Nargs) String() string {
	switch n.Kind {
	case NargsAuto:
		return "A"
	case NargsZero:
		return "0"
	case NargsFixed:
		return strconv.Itoa(n.N)
	case NargsOptional:
		return "?"
	case NargsZeroOrMore:
		return "*"
	case NargsOneOrMore:
		return "+"
	case NargsRemainder:
		return "R"
	default:
		return "invalid"
	}
}

// ParseNargs converts the textual forms "A", "0", "N", "?", "*", "+", "R".
func ParseNargs(s string) (Nargs, bool) {
	switch s {
	case "", "A":
		return Auto, true
	case "?":
		return Optional, true
	case "*":
		return ZeroOrMore, true
	case "+":
		return OneOrMore, true
	case "R":
		return Remainder, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return Nargs{}, false
	}
	return Exactly(n), true
}

// multi reports whether the entry's value is a list.
func (n Nargs) multi() bool {
	switch n.Kind {
	case NargsFixed, NargsZeroOrMore, NargsOneOrMore, NargsRemainder:
		return true
	default:
		return false
	}
}

// Action is what happens when an entry is matched.
type Action string

const (
	ActionStoreArg         Action = "store_arg"
	ActionStoreTrue        Action = "store_true"
	ActionStoreFalse       Action = "store_false"
	ActionStoreConst       Action = "store_const"
	ActionAppendArg        Action = "append_arg"
	ActionAppendConst      Action = "append_const"
	ActionCountInvocations Action = "count_invocations"
	ActionShowHelp         Action = "show_help"
	ActionShowVersion      Action = "show_version"
	ActionCommand          Action = "command"
)

func (a Action) known() bool {
	switch a {
	case ActionStoreArg, ActionStoreTrue, ActionStoreFalse, ActionStoreConst,
		ActionAppendArg, ActionAppendConst, ActionCountInvocations,
		ActionShowHelp, ActionShowVersion, ActionCommand:
		return true
	default:
		return false
	}
}

// isFlag reports whether the action consumes no tokens.
func (a Action) isFlag() bool {
	switch a {
	case ActionStoreTrue, ActionStoreFalse, ActionStoreConst, ActionAppendConst,
		ActionCountInvocations, ActionShowHelp, ActionShowVersion:
		return true
	default:
		return false
	}
}

// class groups actions that may share a destination key.
func (a Action) class() string {
	switch a {
	case ActionStoreArg, ActionStoreTrue, ActionStoreFalse, ActionStoreConst:
		return "store"
	case ActionAppendArg, ActionAppendConst:
		return "append"
	case ActionCountInvocations:
		return "count"
	case ActionShowHelp, ActionShowVersion:
		return "signal"
	case ActionCommand:
		return "command"
	default:
		return string(a)
	}
}

// EntryKind is derived from an entry's names and action.
type EntryKind int

const (
	KindPositional EntryKind = iota
	KindOption
	KindCommand
)

func (k EntryKind) String() string {
	switch k {
	case KindPositional:
		return "positional"
	case KindOption:
		return "option"
	case KindCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Entry describes one declared positional argument, option, or command.
// Only Names is mandatory; every other field has a documented default.
type Entry struct {
	// Names holds one name for a positional or positional-style command,
	// and one or more "-x"/"--long" names for options and flag-style commands.
	Names  []string
	Nargs  Nargs
	Action Action
	// ArgType names a registered conversion hook; "" means string.
	ArgType  string
	Default  any
	Constant any
	Required bool
	// RangeTester validates each converted value.
	RangeTester   func(any) bool
	DestName      string
	Metavar       string
	Group         string
	ForceOverride bool
	Help          string
}

// Kind classifies the entry.
func (e *Entry) Kind() EntryKind {
	if e.Action == ActionCommand {
		return KindCommand
	}
	if len(e.Names) > 0 && strings.HasPrefix(e.Names[0], "-") {
		return KindOption
	}
	return KindPositional
}

// entry is the normalised, validated form kept in a table.
type entry struct {
	Entry

	kind       EntryKind
	longNames  []string // without the leading "--"
	shortNames []string // single characters, without the leading "-"
	flagStyle  bool     // option-style command
	implicit   bool     // synthesized help/version option
}

func (e *entry) isOption() bool {
	return e.kind == KindOption || (e.kind == KindCommand && e.flagStyle)
}

func (e *entry) isPositional() bool {
	return e.kind == KindPositional
}

func (e *entry) isPositionalCommand() bool {
	return e.kind == KindCommand && !e.flagStyle
}

// id returns the name used to refer to the entry in messages.
func (e *entry) id() string {
	if e.kind == KindPositional {
		return e.Metavar
	}
	if e.isPositionalCommand() {
		return e.Names[0]
	}
	return strings.Join(e.optionForms(), "/")
}

// optionForms lists "--long" and "-s" forms in declaration order.
func (e *entry) optionForms() []string {
	forms := make([]string, 0, len(e.longNames)+len(e.shortNames))
	for _, n := range e.Names {
		if strings.HasPrefix(n, "-") {
			forms = append(forms, n)
		}
	}
	return forms
}

// resetNames rebuilds Names after a conflict removed some option forms.
func (e *entry) resetNames() {
	names := make([]string, 0, len(e.longNames)+len(e.shortNames))
	for _, n := range e.Names {
		switch {
		case strings.HasPrefix(n, "--"):
			if slices.Contains(e.longNames, n[2:]) {
				names = append(names, n)
			}
		case strings.HasPrefix(n, "-"):
			if slices.Contains(e.shortNames, n[1:]) {
				names = append(names, n)
			}
		}
	}
	e.Names = names
}

// clone deep-copies the entry so imported tables do not alias their source.
func (e *entry) clone() *entry {
	c := *e
	c.Names = append([]string(nil), e.Names...)
	c.longNames = append([]string(nil), e.longNames...)
	c.shortNames = append([]string(nil), e.shortNames...)
	c.Default = cloneValue(e.Default)
	c.Constant = cloneValue(e.Constant)
	return &c
}

// public returns a copy of the descriptor for collaborators.
func (e *entry) public() Entry {
	c := e.clone()
	return c.Entry
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = cloneValue(x[i])
		}
		return out
	case []string:
		return append([]string(nil), x...)
	default:
		return v
	}
}
