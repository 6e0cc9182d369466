package argparse

import "fmt"

// ErrorKind represents error categories produced while building a table or
// parsing. Kinds drive exit-code mapping (via ExitCodeManager) and let
// collaborators render node-specific messages.
type ErrorKind string

const (
	// Build-time kinds
	ErrorKindConflict     ErrorKind = "conflict"
	ErrorKindInvalidEntry ErrorKind = "invalid_entry"

	// Parse-time kinds
	ErrorKindAmbiguousAbbreviation ErrorKind = "ambiguous_abbreviation"
	ErrorKindUnrecognizedOption    ErrorKind = "unrecognized_option"
	ErrorKindWrongArgumentCount    ErrorKind = "wrong_argument_count"
	ErrorKindTypeConversion        ErrorKind = "type_conversion"
	ErrorKindRangeTest             ErrorKind = "range_test"
	ErrorKindMissingRequired       ErrorKind = "missing_required"
	ErrorKindTooManyArguments      ErrorKind = "too_many_arguments"
	ErrorKindMissingCommand        ErrorKind = "missing_command"
)

// TableError is returned by table-building operations (AddEntry, AddGroup,
// ImportSettings). It is raised immediately and never deferred to parse time.
type TableError struct {
	Kind    ErrorKind
	Message string
	// Entry identifies the offending entry (e.g. "--opt" or "arg1").
	Entry string
	// Existing identifies the older entry involved in a conflict, if any.
	Existing string
}

func (e *TableError) Error() string {
	return e.Message
}

func conflictError(newID, oldID, what string) *TableError {
	return &TableError{
		Kind:     ErrorKindConflict,
		Message:  fmt.Sprintf("%s conflicts with %s: %s", newID, oldID, what),
		Entry:    newID,
		Existing: oldID,
	}
}

func invalidEntry(id, format string, args ...any) *TableError {
	return &TableError{
		Kind:    ErrorKindInvalidEntry,
		Message: id + ": " + fmt.Sprintf(format, args...),
		Entry:   id,
	}
}

// ParseError represents a parse-time failure. Every failure path in the
// parser produces exactly one ParseError carrying the offending token(s) and
// the settings node that was active when the error was detected.
type ParseError struct {
	Kind    ErrorKind
	Message string
	Tokens  []string
	// Entry names the declared entry involved (metavar or option form), if any.
	Entry string
	// Suggestion holds a close match for unrecognized options, if any.
	Suggestion string
	// Settings is the node active at the point of failure.
	Settings *Settings
	// Prog is the program-name chain of the active node ("prog cmd sub").
	Prog  string
	Cause error
}

func (e *ParseError) Error() string {
	return e.Message
}

// Unwrap exposes the conversion error behind a type-conversion failure.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Token returns the first offending token, or "" when none was recorded.
func (e *ParseError) Token() string {
	if len(e.Tokens) == 0 {
		return ""
	}
	return e.Tokens[0]
}

// Handler receives every parse-time error. It may print and terminate the
// process, decorate the error, or return it unchanged. Whatever it returns is
// what Parse returns.
type Handler func(s *Settings, err *ParseError) error

// PropagateHandler returns the error unchanged. It is used when Options.Handler
// is nil.
func PropagateHandler(_ *Settings, err *ParseError) error {
	return err
}

// Signal identifies which stop action fired during a parse.
type Signal int

const (
	SignalHelp Signal = iota + 1
	SignalVersion
)

func (s Signal) String() string {
	switch s {
	case SignalHelp:
		return "show_help"
	case SignalVersion:
		return "show_version"
	default:
		return "unknown"
	}
}

// Stop is returned by Parse when a show_help or show_version action fired.
// It carries enough structure for a collaborator to render a help screen:
// the program-name chain, the node, and its effective entry table including
// the implicit help/version options.
type Stop struct {
	Signal   Signal
	Prog     string
	Settings *Settings
	Entries  []Entry
	Version  string
}

func (s *Stop) Error() string {
	return s.Signal.String() + " requested"
}

// StopHandler receives help/version stops when configured on Options.
type StopHandler func(s *Settings, stop *Stop) error
