// Package fuzzy suggests the option form or command name a mistyped token
// most likely meant.
package fuzzy

import (
	"sort"
	"strings"
)

// Form is the shape of a command-line token.
type Form int

const (
	FormCommand Form = iota // bare word: a command or positional name
	FormShort               // -x
	FormLong                // --name
)

// FormOf classifies s by its leading dashes.
func FormOf(s string) Form {
	switch {
	case strings.HasPrefix(s, "--"):
		return FormLong
	case strings.HasPrefix(s, "-") && len(s) > 1:
		return FormShort
	default:
		return FormCommand
	}
}

// name strips the dashes of an option form.
func name(s string) string {
	switch FormOf(s) {
	case FormLong:
		return s[2:]
	case FormShort:
		return s[1:]
	default:
		return s
	}
}

// minNameLen is the shortest name worth suggesting for. Short options are
// always below it.
const minNameLen = 2

// Match is one candidate within reach of the input.
type Match struct {
	Value    string
	Distance int // edits between the names, a swap of neighbours counts once
	Prefix   int // leading bytes the names share
	order    int
}

// Matcher ranks candidates of the same form as the input.
type Matcher struct {
	maxDistance int
}

// NewMatcher returns a matcher accepting up to maxDistance edits.
func NewMatcher(maxDistance int) *Matcher {
	return &Matcher{maxDistance: maxDistance}
}

// Matches returns the candidates of input's form within reach, closest
// first. Ties go to the longer shared prefix, then to declaration order.
// Names compare case-insensitively; a candidate identical to input is never
// returned.
func (m *Matcher) Matches(input string, candidates []string) []Match {
	form := FormOf(input)
	in := strings.ToLower(name(input))
	if len(in) < minNameLen {
		return nil
	}
	var out []Match
	for i, c := range candidates {
		if c == input || FormOf(c) != form {
			continue
		}
		cn := strings.ToLower(name(c))
		d := m.distance(in, cn)
		if d > m.maxDistance || d >= max(len(in), len(cn)) {
			continue
		}
		out = append(out, Match{Value: c, Distance: d, Prefix: sharedPrefix(in, cn), order: i})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.Prefix != b.Prefix {
			return a.Prefix > b.Prefix
		}
		return a.order < b.order
	})
	return out
}

// Best returns the closest candidate, or "" when none is within reach.
func (m *Matcher) Best(input string, candidates []string) string {
	if matches := m.Matches(input, candidates); len(matches) > 0 {
		return matches[0].Value
	}
	return ""
}

// distance is the optimal string alignment distance between a and b. It
// gives up with maxDistance+1 once every cell of a row is out of reach.
func (m *Matcher) distance(a, b string) int {
	if d := len(a) - len(b); d > m.maxDistance || -d > m.maxDistance {
		return m.maxDistance + 1
	}
	// three rows: two back for transpositions, previous and current
	prev2 := make([]int, len(b)+1)
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		best := i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			v := min(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				v = min(v, prev2[j-2]+1)
			}
			cur[j] = v
			best = min(best, v)
		}
		if best > m.maxDistance {
			return m.maxDistance + 1
		}
		prev2, prev, cur = prev, cur, prev2
	}
	return prev[len(b)]
}

func sharedPrefix(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// Suggest returns the closest candidate to input within maxDistance edits,
// or "" when nothing is close enough.
func Suggest(input string, candidates []string, maxDistance int) string {
	return NewMatcher(maxDistance).Best(input, candidates)
}

// SuggestAll returns up to limit candidates, closest first.
func SuggestAll(input string, candidates []string, maxDistance, limit int) []string {
	matches := NewMatcher(maxDistance).Matches(input, candidates)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Value
	}
	return out
}
