package argparse

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dzonerzy/go-argparse/internal/fuzzy"
	"github.com/dzonerzy/go-argparse/internal/intern"
	"github.com/dzonerzy/go-argparse/internal/pool"
)

// numberRE matches tokens shaped like numeric literals: optional sign, then
// hex, octal, binary, or a decimal mantissa with optional exponent.
var numberRE = regexp.MustCompile(`^[+-]?(0x[0-9a-fA-F](_?[0-9a-fA-F])*|0o[0-7](_?[0-7])*|0b[01](_?[01])*|([0-9](_?[0-9])*(\.([0-9](_?[0-9])*)?)?|\.[0-9](_?[0-9])*)([eEf][-+]?[0-9]+)?)$`)

// suggestDistance bounds the edit distance of "did you mean" suggestions.
const suggestDistance = 2

// ParseState tracks where a level's scan stands.
type ParseState int

const (
	// StateOptions accepts options, positionals and commands.
	StateOptions ParseState = iota
	// StatePositionalOnly is entered after a literal "--".
	StatePositionalOnly
	// StateCommand means a command matched and the rest belongs to its node.
	StateCommand
	// StateStopped means a help/version action fired.
	StateStopped
)

// parser scans one level of the settings tree. Nested commands get their own
// parser over the remaining tokens.
type parser struct {
	s       *Settings
	prog    string
	version string
	table   []*entry

	args  []string
	pos   int
	state ParseState

	values      map[string]any
	found       map[*entry]bool
	positionals []*entry
	posIdx      int

	command *entry
	pending string // short-group remainder handed to the command node
	stop    *Stop
}

// Parse scans args against the settings tree rooted at s.
//
// On success it returns the result. When a help or version action fires it
// returns a *Stop, or whatever Options.StopHandler returns for it (a nil
// return yields nil, nil). Parse failures are passed to the Handler of the
// node active at the failure, falling back to s.Handler, then to
// PropagateHandler; the handler's return value is what Parse returns.
func (s *Settings) Parse(args []string) (*Result, error) {
	res, err := parseLevel(s, s.ProgName(), s.Version, args, "")
	if err == nil {
		return res, nil
	}

	var stop *Stop
	if errors.As(err, &stop) {
		h := stop.Settings.StopHandler
		if h == nil {
			h = s.StopHandler
		}
		if h == nil {
			return nil, stop
		}
		return nil, h(stop.Settings, stop)
	}

	var perr *ParseError
	if errors.As(err, &perr) {
		h := perr.Settings.Handler
		if h == nil {
			h = s.Handler
		}
		if h == nil {
			h = PropagateHandler
		}
		return nil, h(perr.Settings, perr)
	}
	return nil, err
}

// ParseArgs parses the process arguments without the program name.
func (s *Settings) ParseArgs() (*Result, error) {
	return s.Parse(os.Args[1:])
}

// EffectiveEntries returns the entries used while parsing this node: the
// declared table followed by the implicit help/version options.
func (s *Settings) EffectiveEntries() []Entry {
	table := s.effectiveTable()
	out := make([]Entry, len(table))
	for i, e := range table {
		out[i] = e.public()
	}
	return out
}

// scratch is the per-level bookkeeping recycled between parses. Values are
// copied into the Result before it goes back to the pool.
type scratch struct {
	values      map[string]any
	found       map[*entry]bool
	positionals []*entry
}

var scratchPool = pool.NewPoolWithReset(
	func() *scratch {
		return &scratch{
			values: make(map[string]any),
			found:  make(map[*entry]bool),
		}
	},
	func(sc *scratch) {
		pool.ClearMap(sc.values)
		pool.ClearMap(sc.found)
		clear(sc.positionals)
		sc.positionals = sc.positionals[:0]
	},
)

func parseLevel(s *Settings, prog, version string, args []string, pending string) (*Result, error) {
	if s.Version != "" {
		version = s.Version
	}
	sc := scratchPool.Get()
	defer scratchPool.Put(sc)

	p := &parser{
		s:           s,
		prog:        prog,
		version:     version,
		table:       s.effectiveTable(),
		args:        args,
		values:      sc.values,
		found:       sc.found,
		positionals: sc.positionals,
	}
	defer func() { sc.positionals = p.positionals }()
	for _, e := range p.table {
		if e.isPositional() {
			p.positionals = append(p.positionals, e)
		}
		if e.kind == KindCommand || e.Action == ActionShowHelp || e.Action == ActionShowVersion {
			continue
		}
		p.values[e.DestName] = cloneValue(e.Default)
	}
	s.debug("parsing", "prog", prog, "args", len(args))

	if err := p.scan(pending); err != nil {
		return nil, err
	}
	if p.stop != nil {
		return nil, p.stop
	}
	return p.finish()
}

// scan is the main loop: one token at a time until the input runs out, a
// command takes over, or a stop action fires.
func (p *parser) scan(pending string) error {
	if pending != "" {
		if err := p.shortGroup("-"+pending, pending); err != nil {
			return err
		}
	}
	for p.state == StateOptions || p.state == StatePositionalOnly {
		if p.pos >= len(p.args) {
			return nil
		}
		tok := p.args[p.pos]
		p.pos++

		var err error
		switch {
		case p.state == StatePositionalOnly:
			err = p.positional(tok)
		case tok == "--":
			p.state = StatePositionalOnly
		case strings.HasPrefix(tok, "--"):
			err = p.longOption(tok)
		case p.looksLikeOption(tok):
			err = p.shortGroup(tok, tok[1:])
		default:
			err = p.positional(tok)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// looksLikeOption reports whether tok should be read as an option at this
// level. Number-shaped tokens are positionals unless ambiguous short names
// are allowed and one of them matches the character after the dash.
func (p *parser) looksLikeOption(tok string) bool {
	if tok == "-" || !strings.HasPrefix(tok, "-") {
		return false
	}
	if strings.HasPrefix(tok, "--") {
		return true
	}
	if !numberRE.MatchString(tok) {
		return true
	}
	if !p.s.AllowAmbiguousOpts {
		return false
	}
	r, _ := utf8.DecodeRuneInString(tok[1:])
	return p.findShort(intern.InternRune(r)) != nil
}

// peekIsOption is the lookahead used by Optional, ZeroOrMore and OneOrMore.
func (p *parser) peekIsOption() bool {
	return p.state == StateOptions && p.looksLikeOption(p.args[p.pos])
}

func (p *parser) longOption(tok string) error {
	name, value, hasValue := strings.Cut(tok[2:], "=")
	e, form, err := p.matchLong(name, tok)
	if err != nil {
		return err
	}
	p.s.debug("matched option", "prog", p.prog, "option", form)

	switch {
	case e.kind == KindCommand:
		if hasValue {
			return p.errorf(ErrorKindWrongArgumentCount, []string{tok}, form, "command %s takes no arguments", form)
		}
		p.descend(e, "")
		return nil
	case e.Action.isFlag():
		if hasValue {
			return p.errorf(ErrorKindWrongArgumentCount, []string{tok}, form, "option %s takes no arguments", form)
		}
		p.runFlag(e)
		return nil
	}

	var forced []string
	if hasValue {
		forced = []string{value}
	}
	return p.consumeOption(e, form, forced)
}

// matchLong resolves a long option name. An exact match always wins;
// otherwise the name must be a prefix of exactly one declared long name.
func (p *parser) matchLong(name, tok string) (*entry, string, error) {
	var (
		match  *entry
		forms  []string
		nfound int
	)
	for _, e := range p.table {
		if !e.isOption() {
			continue
		}
		for _, l := range e.longNames {
			if l == name {
				return e, "--" + l, nil
			}
			if name != "" && strings.HasPrefix(l, name) {
				match = e
				forms = append(forms, "--"+l)
				nfound++
			}
		}
	}

	switch nfound {
	case 0:
		perr := p.newError(ErrorKindUnrecognizedOption, []string{tok}, "", "unrecognized option --%s", name)
		perr.Suggestion = fuzzy.Suggest("--"+name, p.optionForms(), suggestDistance)
		return nil, "", perr
	case 1:
		return match, forms[0], nil
	default:
		return nil, "", p.errorf(ErrorKindAmbiguousAbbreviation, []string{tok}, "",
			"ambiguous option --%s (matches %s)", name, strings.Join(forms, ", "))
	}
}

// shortGroup consumes a "-abc" token one character at a time. Only the last
// option consumed may take an argument; it gets the rest of the token (after
// an optional "=") and then, per its nargs, the following tokens.
func (p *parser) shortGroup(tok, group string) error {
	for i := 0; i < len(group); {
		r, size := utf8.DecodeRuneInString(group[i:])
		ch := intern.InternRune(r)
		rest := group[i+size:]
		form := "-" + ch

		e := p.findShort(ch)
		if e == nil {
			return p.errorf(ErrorKindUnrecognizedOption, []string{tok}, "", "unrecognized option %s", form)
		}
		p.s.debug("matched option", "prog", p.prog, "option", form)

		switch {
		case e.kind == KindCommand:
			p.descend(e, rest)
			return nil
		case e.Action.isFlag():
			if strings.HasPrefix(rest, "=") {
				return p.errorf(ErrorKindWrongArgumentCount, []string{tok}, form, "option %s takes no arguments", form)
			}
			p.runFlag(e)
			if p.stop != nil {
				return nil
			}
			i += size
		default:
			var forced []string
			if strings.HasPrefix(rest, "=") {
				forced = []string{rest[1:]}
			} else if rest != "" {
				forced = []string{rest}
			}
			return p.consumeOption(e, form, forced)
		}
	}
	return nil
}

// consumeOption gathers the argument tokens of an option that takes them.
// forced holds text attached to the option itself, which is always an
// argument regardless of its shape.
func (p *parser) consumeOption(e *entry, form string, forced []string) error {
	raw := forced
	switch e.Nargs.Kind {
	case NargsAuto:
		if len(raw) == 0 {
			if p.pos >= len(p.args) {
				return p.errorf(ErrorKindWrongArgumentCount, []string{form}, form, "option %s requires an argument", form)
			}
			raw = []string{p.args[p.pos]}
			p.pos++
		}
	case NargsFixed:
		need := e.Nargs.N - len(raw)
		if p.pos+need > len(p.args) {
			return p.errorf(ErrorKindWrongArgumentCount, []string{form}, form,
				"option %s requires %d %s", form, e.Nargs.N, plural(e.Nargs.N, "argument"))
		}
		raw = append(raw, p.args[p.pos:p.pos+need]...)
		p.pos += need
	case NargsOptional:
		if len(raw) == 0 && p.pos < len(p.args) && !p.peekIsOption() {
			raw = []string{p.args[p.pos]}
			p.pos++
		}
	case NargsZeroOrMore, NargsOneOrMore:
		for p.pos < len(p.args) && !p.peekIsOption() {
			raw = append(raw, p.args[p.pos])
			p.pos++
		}
		if e.Nargs.Kind == NargsOneOrMore && len(raw) == 0 {
			return p.errorf(ErrorKindWrongArgumentCount, []string{form}, form, "option %s requires at least one argument", form)
		}
	case NargsRemainder:
		raw = append(raw, p.args[p.pos:]...)
		p.pos = len(p.args)
	case NargsZero:
		// flags never get here
	}
	return p.store(e, form, raw)
}

// positional assigns tok (and, per nargs, the tokens after it) to the next
// positional entry, unless it names a positional-style command.
func (p *parser) positional(tok string) error {
	if p.state == StateOptions {
		if cmd := p.findCommand(tok); cmd != nil {
			p.s.debug("matched command", "prog", p.prog, "command", tok)
			p.descend(cmd, "")
			return nil
		}
	}
	if p.posIdx >= len(p.positionals) {
		return p.surplus(tok)
	}
	e := p.positionals[p.posIdx]
	p.posIdx++

	raw := []string{tok}
	switch e.Nargs.Kind {
	case NargsFixed:
		need := e.Nargs.N - 1
		if p.pos+need > len(p.args) {
			return p.errorf(ErrorKindWrongArgumentCount, []string{tok}, e.Metavar,
				"%s requires %d %s", e.Metavar, e.Nargs.N, plural(e.Nargs.N, "argument"))
		}
		raw = append(raw, p.args[p.pos:p.pos+need]...)
		p.pos += need
	case NargsZeroOrMore, NargsOneOrMore:
		for p.pos < len(p.args) && !p.peekIsOption() {
			raw = append(raw, p.args[p.pos])
			p.pos++
		}
	case NargsRemainder:
		raw = append(raw, p.args[p.pos:]...)
		p.pos = len(p.args)
	case NargsAuto, NargsOptional, NargsZero:
	}
	return p.store(e, e.Metavar, raw)
}

func (p *parser) surplus(tok string) error {
	var names []string
	for _, e := range p.table {
		if e.isPositionalCommand() {
			names = append(names, e.Names[0])
		}
	}
	if len(names) > 0 {
		perr := p.newError(ErrorKindTooManyArguments, []string{tok}, "", "unknown command %s", tok)
		perr.Suggestion = fuzzy.Suggest(tok, names, suggestDistance)
		return perr
	}
	return p.errorf(ErrorKindTooManyArguments, []string{tok}, "", "too many arguments")
}

// store converts raw tokens and applies the entry's action.
func (p *parser) store(e *entry, id string, raw []string) error {
	p.found[e] = true

	var value any
	switch {
	case e.Nargs.Kind == NargsOptional && len(raw) == 0:
		value = cloneValue(e.Constant)
	case e.Nargs.multi():
		list := make([]any, 0, len(raw))
		for _, tok := range raw {
			v, err := p.convert(e, id, tok)
			if err != nil {
				return err
			}
			list = append(list, v)
		}
		value = list
	default:
		v, err := p.convert(e, id, raw[0])
		if err != nil {
			return err
		}
		value = v
	}

	if e.Action == ActionAppendArg {
		p.values[e.DestName] = appendValue(p.values[e.DestName], value)
	} else {
		p.values[e.DestName] = value
	}
	return nil
}

func (p *parser) convert(e *entry, id, tok string) (any, error) {
	fn, _ := p.s.converter(e.ArgType)
	v, err := fn(tok)
	if err != nil {
		perr := p.newError(ErrorKindTypeConversion, []string{tok}, id,
			"invalid argument: %s (conversion to type %s failed: %v)", tok, typeName(e.ArgType), conversionCause(err))
		perr.Cause = err
		return nil, perr
	}
	if e.RangeTester != nil && !e.RangeTester(v) {
		return nil, p.errorf(ErrorKindRangeTest, []string{tok}, id, "out of range input for %s: %s", id, tok)
	}
	return v, nil
}

// runFlag executes a zero-nargs action.
func (p *parser) runFlag(e *entry) {
	p.found[e] = true
	dest := e.DestName
	switch e.Action {
	case ActionStoreTrue:
		p.values[dest] = true
	case ActionStoreFalse:
		p.values[dest] = false
	case ActionStoreConst:
		p.values[dest] = cloneValue(e.Constant)
	case ActionAppendConst:
		p.values[dest] = appendValue(p.values[dest], cloneValue(e.Constant))
	case ActionCountInvocations:
		n, _ := p.values[dest].(int)
		p.values[dest] = n + 1
	case ActionShowHelp:
		p.halt(SignalHelp)
	case ActionShowVersion:
		p.halt(SignalVersion)
	case ActionStoreArg, ActionAppendArg, ActionCommand:
	}
}

func (p *parser) halt(sig Signal) {
	p.state = StateStopped
	p.stop = &Stop{
		Signal:   sig,
		Prog:     p.prog,
		Settings: p.s,
		Entries:  p.s.EffectiveEntries(),
		Version:  p.version,
	}
}

// descend hands every token left at this level to the command's node.
func (p *parser) descend(e *entry, pending string) {
	p.state = StateCommand
	p.command = e
	p.pending = pending
	p.found[e] = true
}

// finish runs the end-of-input checks and recurses into the invoked command.
func (p *parser) finish() (*Result, error) {
	for _, e := range p.table {
		if !e.Required || p.found[e] {
			continue
		}
		if e.isPositional() {
			return nil, p.errorf(ErrorKindMissingRequired, nil, e.Metavar, "required argument %s was not provided", e.Metavar)
		}
		return nil, p.errorf(ErrorKindMissingRequired, nil, e.id(), "required option %s was not provided", e.id())
	}
	if p.command == nil && p.s.CommandsAreRequired && p.s.HasCommands() {
		return nil, p.errorf(ErrorKindMissingCommand, nil, "", "no command given")
	}

	res := newResult()
	for _, e := range p.s.entries {
		if e.kind == KindCommand || e.Action == ActionShowHelp || e.Action == ActionShowVersion {
			continue
		}
		res.set(e.DestName, p.values[e.DestName])
	}
	if !p.s.HasCommands() {
		return res, nil
	}
	if p.command == nil {
		res.set(CommandKey, nil)
		return res, nil
	}

	dest := p.command.DestName
	res.set(CommandKey, dest)
	child := p.s.commands[dest]
	sub, err := parseLevel(child, p.prog+" "+commandName(p.command), p.version, p.args[p.pos:], p.pending)
	if err != nil {
		return nil, err
	}
	res.set(dest, sub)
	return res, nil
}

func (p *parser) findShort(ch string) *entry {
	for _, e := range p.table {
		if !e.isOption() {
			continue
		}
		for _, sn := range e.shortNames {
			if sn == ch {
				return e
			}
		}
	}
	return nil
}

func (p *parser) findCommand(name string) *entry {
	for _, e := range p.table {
		if e.isPositionalCommand() && e.Names[0] == name {
			return e
		}
	}
	return nil
}

func (p *parser) optionForms() []string {
	var forms []string
	for _, e := range p.table {
		if e.isOption() {
			forms = append(forms, e.optionForms()...)
		}
	}
	return forms
}

func (p *parser) newError(kind ErrorKind, tokens []string, id, format string, args ...any) *ParseError {
	return &ParseError{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Tokens:   tokens,
		Entry:    id,
		Settings: p.s,
		Prog:     p.prog,
	}
}

func (p *parser) errorf(kind ErrorKind, tokens []string, id, format string, args ...any) error {
	return p.newError(kind, tokens, id, format, args...)
}

func commandName(e *entry) string {
	if e.isPositionalCommand() {
		return e.Names[0]
	}
	return e.DestName
}

// appendValue appends v onto the current value of an append-class
// destination.
func appendValue(cur, v any) any {
	switch list := cur.(type) {
	case []any:
		return append(list, v)
	case nil:
		return []any{v}
	}
	rv := reflect.ValueOf(cur)
	if rv.Kind() == reflect.Slice {
		out := make([]any, 0, rv.Len()+1)
		for i := 0; i < rv.Len(); i++ {
			out = append(out, rv.Index(i).Interface())
		}
		return append(out, v)
	}
	return []any{cur, v}
}

// conversionCause strips strconv's wrapper so messages show the reason once.
func conversionCause(err error) error {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return numErr.Err
	}
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
