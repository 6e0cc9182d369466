package intern

import (
	"sync"
	"testing"
)

func TestStringInterner_Intern(t *testing.T) {
	interner := NewStringInterner(0)

	s1 := interner.Intern("test")
	s2 := interner.Intern("test")
	if s1 != s2 {
		t.Errorf("Expected same string instances, got different")
	}

	s3 := interner.Intern("other")
	if s1 == s3 {
		t.Errorf("Expected different string instances for different values")
	}
	if interner.Stats() != 2 {
		t.Errorf("Expected 2 interned strings, got %d", interner.Stats())
	}
}

func TestStringInterner_InternRune(t *testing.T) {
	interner := NewStringInterner(0)

	tests := []struct {
		input    rune
		expected string
	}{
		{'a', "a"},
		{'Z', "Z"},
		{'5', "5"},
		{'@', "@"},
		{'é', "é"},
	}

	for _, test := range tests {
		result := interner.InternRune(test.input)
		if result != test.expected {
			t.Errorf("InternRune(%c) = %q, want %q", test.input, result, test.expected)
		}
	}

	// Only the runes outside the static table are stored.
	if interner.Stats() != 2 {
		t.Errorf("Expected 2 interned strings, got %d", interner.Stats())
	}
}

func TestStringInterner_PreIntern(t *testing.T) {
	interner := NewStringInterner(0)
	interner.PreIntern([]string{"help", "version"})

	if interner.Stats() != 2 {
		t.Errorf("Expected 2 pre-interned strings, got %d", interner.Stats())
	}
	if got := interner.Intern("help"); got != "help" {
		t.Errorf("Expected help, got %q", got)
	}
	if interner.Stats() != 2 {
		t.Errorf("Expected no new entry for a pre-interned string, got %d", interner.Stats())
	}
}

func TestStringInterner_Concurrent(t *testing.T) {
	interner := NewStringInterner(0)
	words := []string{"alpha", "beta", "gamma", "delta"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				interner.Intern(words[j%len(words)])
			}
		}()
	}
	wg.Wait()

	if interner.Stats() != len(words) {
		t.Errorf("Expected %d interned strings, got %d", len(words), interner.Stats())
	}
}

func TestGlobalInterner(t *testing.T) {
	for _, name := range CommonOptionNames {
		if Intern(name) != name {
			t.Errorf("Expected %q to be pre-interned", name)
		}
	}
	if InternRune('h') != "h" {
		t.Errorf("Expected InternRune('h') to be \"h\"")
	}
}

func BenchmarkInternRune(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = InternRune(rune('a' + i%26))
	}
}
