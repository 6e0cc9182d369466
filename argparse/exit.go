package argparse

import (
	"errors"
	"reflect"
)

// ExitError requests a specific exit code from a Handler or StopHandler.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "exit"
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCodeDefaults holds common default codes.
type ExitCodeDefaults struct {
	Success         int // default: 0
	GeneralError    int // default: 1
	MisusageError   int // default: 2
	ValidationError int // default: 3
}

func defaultExitDefaults() ExitCodeDefaults {
	return ExitCodeDefaults{Success: 0, GeneralError: 1, MisusageError: 2, ValidationError: 3}
}

// ExitCodeManager maps parse outcomes to process exit codes. The core never
// exits; collaborators such as render.ExitOnError consult a manager.
type ExitCodeManager struct {
	codesByName map[string]int
	codesByType map[reflect.Type]int
	codesByKind map[ErrorKind]int
	defaults    ExitCodeDefaults
}

// NewExitCodeManager returns a manager prewired with the usual mapping:
// conversion and range failures are validation errors, every other parse
// error is misusage, and table errors are general errors.
func NewExitCodeManager() *ExitCodeManager {
	m := &ExitCodeManager{
		codesByName: make(map[string]int),
		codesByType: make(map[reflect.Type]int),
		codesByKind: make(map[ErrorKind]int),
		defaults:    defaultExitDefaults(),
	}
	for _, k := range []ErrorKind{
		ErrorKindAmbiguousAbbreviation,
		ErrorKindUnrecognizedOption,
		ErrorKindWrongArgumentCount,
		ErrorKindMissingRequired,
		ErrorKindTooManyArguments,
		ErrorKindMissingCommand,
	} {
		m.codesByKind[k] = m.defaults.MisusageError
	}
	m.codesByKind[ErrorKindTypeConversion] = m.defaults.ValidationError
	m.codesByKind[ErrorKindRangeTest] = m.defaults.ValidationError
	m.codesByKind[ErrorKindConflict] = m.defaults.GeneralError
	m.codesByKind[ErrorKindInvalidEntry] = m.defaults.GeneralError
	return m
}

// Define registers a named exit-code mapping. The name is user-defined and
// intended for documentation or convenience; it does not affect resolution.
func (e *ExitCodeManager) Define(name string, code int) *ExitCodeManager {
	e.codesByName[name] = code
	return e
}

// Lookup returns a code registered with Define.
func (e *ExitCodeManager) Lookup(name string) (int, bool) {
	code, ok := e.codesByName[name]
	return code, ok
}

// DefineError maps a concrete error value (by its dynamic type) to an exit
// code. A matching type takes precedence over the defaults but is secondary
// to an explicit ExitError and to kind mappings.
func (e *ExitCodeManager) DefineError(err error, code int) *ExitCodeManager {
	if err == nil {
		return e
	}
	e.codesByType[reflect.TypeOf(err)] = code
	return e
}

// DefineKind overrides the exit code used for an error kind.
func (e *ExitCodeManager) DefineKind(kind ErrorKind, code int) *ExitCodeManager {
	e.codesByKind[kind] = code
	return e
}

// Default replaces the manager's default codes.
func (e *ExitCodeManager) Default(d ExitCodeDefaults) *ExitCodeManager {
	e.defaults = d
	return e
}

// Resolve converts a Parse outcome to an exit code.
// Precedence:
//  1. nil and *Stop are success
//  2. ExitError (requested code)
//  3. ParseError / TableError kind mapping (DefineKind)
//  4. Concrete error type mapping (DefineError)
//  5. Default codes
func (e *ExitCodeManager) Resolve(err error) int {
	if err == nil {
		return e.defaults.Success
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var stop *Stop
	if errors.As(err, &stop) {
		return e.defaults.Success
	}

	var kind ErrorKind
	var perr *ParseError
	var terr *TableError
	switch {
	case errors.As(err, &perr):
		kind = perr.Kind
	case errors.As(err, &terr):
		kind = terr.Kind
	}
	if kind != "" {
		if code, ok := e.codesByKind[kind]; ok {
			return code
		}
		return e.defaults.MisusageError
	}

	for t, code := range e.codesByType {
		if errors.As(err, reflect.New(t).Interface()) {
			return code
		}
	}

	return e.defaults.GeneralError
}
