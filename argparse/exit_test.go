//nolint:testpackage // using package name 'argparse' to access unexported fields for testing
package argparse

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestExitCodeManagerDefaults(t *testing.T) {
	m := NewExitCodeManager()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"stop", &Stop{Signal: SignalHelp}, 0},
		{"unrecognized option", &ParseError{Kind: ErrorKindUnrecognizedOption}, 2},
		{"missing command", &ParseError{Kind: ErrorKindMissingCommand}, 2},
		{"type conversion", &ParseError{Kind: ErrorKindTypeConversion}, 3},
		{"range test", &ParseError{Kind: ErrorKindRangeTest}, 3},
		{"wrapped parse error", fmt.Errorf("ctx: %w", &ParseError{Kind: ErrorKindTooManyArguments}), 2},
		{"table conflict", &TableError{Kind: ErrorKindConflict}, 1},
		{"exit error", &ExitError{Code: 9, Err: &ParseError{Kind: ErrorKindRangeTest}}, 9},
		{"plain error", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Resolve(tt.err); got != tt.want {
				t.Errorf("Resolve(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodeManagerOverrides(t *testing.T) {
	m := NewExitCodeManager().
		DefineKind(ErrorKindMissingRequired, 64).
		DefineError(&os.PathError{}, 74).
		Define("usage", 64)

	if got := m.Resolve(&ParseError{Kind: ErrorKindMissingRequired}); got != 64 {
		t.Errorf("Expected 64, got %d", got)
	}
	pathErr := &os.PathError{Op: "open", Path: "x", Err: os.ErrNotExist}
	if got := m.Resolve(fmt.Errorf("load: %w", pathErr)); got != 74 {
		t.Errorf("Expected 74, got %d", got)
	}
	if code, ok := m.Lookup("usage"); !ok || code != 64 {
		t.Errorf("Expected named code 64, got %d (%v)", code, ok)
	}

	m.Default(ExitCodeDefaults{Success: 0, GeneralError: 10, MisusageError: 20, ValidationError: 30})
	if got := m.Resolve(errors.New("boom")); got != 10 {
		t.Errorf("Expected 10, got %d", got)
	}
	// Kinds without an explicit mapping fall back to the misusage default.
	delete(m.codesByKind, ErrorKindAmbiguousAbbreviation)
	if got := m.Resolve(&ParseError{Kind: ErrorKindAmbiguousAbbreviation}); got != 20 {
		t.Errorf("Expected 20, got %d", got)
	}
}

func TestExitCodeFromParse(t *testing.T) {
	s := mixedTable(t)
	m := NewExitCodeManager()

	_, err := s.Parse([]string{"--opt2", "x", "a"})
	if got := m.Resolve(err); got != 3 {
		t.Errorf("Expected validation code 3, got %d", got)
	}
	_, err = s.Parse([]string{"--nope"})
	if got := m.Resolve(err); got != 2 {
		t.Errorf("Expected misusage code 2, got %d", got)
	}
	_, err = s.Parse([]string{"-h"})
	if got := m.Resolve(err); got != 0 {
		t.Errorf("Expected success code 0, got %d", got)
	}
}
