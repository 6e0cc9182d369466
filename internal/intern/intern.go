// Package intern provides string interning for option names.
// The parser uses it to turn short-option characters into strings without
// allocating, and the table builder to share long option names.
package intern

import (
	"sync"
)

// StringInterner provides thread-safe string interning
type StringInterner struct {
	strings map[string]string
	mutex   sync.RWMutex
}

// NewStringInterner creates a new string interner with optional pre-allocated capacity
func NewStringInterner(capacity int) *StringInterner {
	if capacity <= 0 {
		capacity = 64
	}
	return &StringInterner{
		strings: make(map[string]string, capacity),
	}
}

// Intern returns the canonical copy of s.
func (si *StringInterner) Intern(s string) string {
	si.mutex.RLock()
	if interned, exists := si.strings[s]; exists {
		si.mutex.RUnlock()
		return interned
	}
	si.mutex.RUnlock()

	si.mutex.Lock()
	defer si.mutex.Unlock()

	// Double-check after acquiring write lock
	if interned, exists := si.strings[s]; exists {
		return interned
	}
	si.strings[s] = s
	return s
}

// InternRune returns a one-character string for r. ASCII letters and digits
// come from a static table.
func (si *StringInterner) InternRune(r rune) string {
	switch {
	case r >= 'a' && r <= 'z':
		return singleCharStrings[r-'a']
	case r >= 'A' && r <= 'Z':
		return singleCharStrings[26+r-'A']
	case r >= '0' && r <= '9':
		return singleCharStrings[52+r-'0']
	}
	return si.Intern(string(r))
}

// PreIntern adds common strings ahead of parsing.
func (si *StringInterner) PreIntern(strings []string) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	for _, s := range strings {
		si.strings[s] = s
	}
}

// Stats returns the number of interned strings for monitoring.
func (si *StringInterner) Stats() int {
	si.mutex.RLock()
	defer si.mutex.RUnlock()
	return len(si.strings)
}

// a-z (0-25), A-Z (26-51), 0-9 (52-61)
var singleCharStrings = [62]string{
	"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m",
	"n", "o", "p", "q", "r", "s", "t", "u", "v", "w", "x", "y", "z",
	"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
	"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",
	"0", "1", "2", "3", "4", "5", "6", "7", "8", "9",
}

// CommonOptionNames are pre-interned long names.
var CommonOptionNames = []string{
	"help", "version", "verbose", "quiet", "config", "output",
	"input", "force", "debug", "port", "host", "timeout",
}

// GlobalInterner is the process-wide interner used by argument tables.
var GlobalInterner *StringInterner

//nolint:gochecknoinits // Global interner requires init for pre-interning
func init() {
	GlobalInterner = NewStringInterner(128)
	GlobalInterner.PreIntern(CommonOptionNames)
}

// Intern interns a string using the global interner
func Intern(s string) string {
	return GlobalInterner.Intern(s)
}

// InternRune interns a single character using the global interner
func InternRune(r rune) string {
	return GlobalInterner.InternRune(r)
}
