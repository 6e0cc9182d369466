// Package render turns settings nodes, stops and parse errors into the
// usage, help and version screens users see. The argparse core never prints;
// handlers from this package are plugged into argparse.Options.
package render

import (
	"fmt"
	"strings"

	"github.com/mitchellh/go-wordwrap"

	"github.com/dzonerzy/go-argparse/argparse"
)

const (
	// helpIndent is where entry descriptions start in the help screen.
	helpIndent = 24
	// defaultWidth is used when the output is not a terminal.
	defaultWidth = 80
)

// Layout renders screens for a fixed line width.
type Layout struct {
	Width int
	// Heading decorates section headings; identity when nil.
	Heading func(string) string
}

func (l Layout) width() int {
	if l.Width <= helpIndent+10 {
		return defaultWidth
	}
	return l.Width
}

func (l Layout) heading(s string) string {
	if l.Heading == nil {
		return s
	}
	return l.Heading(s)
}

// Usage returns the usage line for a node. A non-empty Options.Usage is used
// verbatim.
func (l Layout) Usage(s *argparse.Settings, prog string) string {
	if s.Usage != "" {
		return s.Usage
	}
	parts := []string{prog}
	var positional []string
	var commands []string
	for _, e := range s.EffectiveEntries() {
		switch e.Kind() {
		case argparse.KindOption:
			item := e.Names[0]
			if mv := argumentSyntax(e); mv != "" {
				item += " " + mv
			}
			if !e.Required {
				item = "[" + item + "]"
			}
			parts = append(parts, item)
		case argparse.KindPositional:
			item := argumentSyntax(e)
			if !e.Required && (e.Nargs.Kind == argparse.NargsAuto || e.Nargs.Kind == argparse.NargsFixed) {
				item = "[" + item + "]"
			}
			positional = append(positional, item)
		case argparse.KindCommand:
			commands = append(commands, e.Names[0])
		}
	}
	parts = append(parts, positional...)
	if len(commands) > 0 {
		parts = append(parts, "{"+strings.Join(commands, "|")+"}")
	}

	line := wordwrap.WrapString(strings.Join(parts, " "), uint(l.width()-len("usage: ")))
	return strings.ReplaceAll(line, "\n", "\n"+strings.Repeat(" ", len("usage: ")+len(prog)+1))
}

// Help returns the full help screen: usage, description, one section per
// non-empty group, and the epilog.
func (l Layout) Help(s *argparse.Settings, prog string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", l.heading("usage:"), l.Usage(s, prog))
	if s.Description != "" {
		b.WriteString("\n")
		b.WriteString(wordwrap.WrapString(s.Description, uint(l.width())))
		b.WriteString("\n")
	}

	entries := s.EffectiveEntries()
	for _, g := range s.Groups() {
		var rows []Entry
		for _, e := range entries {
			if e.Group == g.Name {
				rows = append(rows, e)
			}
		}
		if len(rows) == 0 {
			continue
		}
		title := g.Description
		if title == "" {
			title = g.Name
		}
		fmt.Fprintf(&b, "\n%s\n", l.heading(title+":"))
		for _, e := range rows {
			l.writeEntry(&b, e)
		}
	}

	if s.Epilog != "" {
		b.WriteString("\n")
		b.WriteString(wordwrap.WrapString(s.Epilog, uint(l.width())))
		b.WriteString("\n")
	}
	return b.String()
}

// Version returns the version screen.
func (l Layout) Version(version string) string {
	return version + "\n"
}

// Entry aliases the core descriptor for the layout helpers.
type Entry = argparse.Entry

func (l Layout) writeEntry(b *strings.Builder, e Entry) {
	item := "  " + entryLabel(e)
	help := e.Help
	if e.Default != nil && e.Kind() != argparse.KindCommand && !isIdleFlag(e) {
		help = strings.TrimSpace(help + fmt.Sprintf(" (default: %v)", e.Default))
	}
	if help == "" {
		b.WriteString(item + "\n")
		return
	}

	lines := strings.Split(wordwrap.WrapString(help, uint(l.width()-helpIndent)), "\n")
	pad := strings.Repeat(" ", helpIndent)
	if len(item) < helpIndent-1 {
		b.WriteString(item + strings.Repeat(" ", helpIndent-len(item)) + lines[0] + "\n")
		lines = lines[1:]
	} else {
		b.WriteString(item + "\n")
	}
	for _, line := range lines {
		b.WriteString(pad + line + "\n")
	}
}

// entryLabel is the left column of the help screen.
func entryLabel(e Entry) string {
	switch e.Kind() {
	case argparse.KindPositional:
		return e.Metavar
	case argparse.KindCommand:
		return strings.Join(e.Names, ", ")
	}
	forms := make([]string, len(e.Names))
	mv := argumentSyntax(e)
	for i, n := range e.Names {
		forms[i] = n
		if mv != "" {
			forms[i] += " " + mv
		}
	}
	return strings.Join(forms, ", ")
}

// argumentSyntax renders an entry's arguments per nargs.
func argumentSyntax(e Entry) string {
	mv := e.Metavar
	if mv == "" {
		return ""
	}
	switch e.Nargs.Kind {
	case argparse.NargsAuto:
		return mv
	case argparse.NargsFixed:
		return strings.TrimSpace(strings.Repeat(mv+" ", e.Nargs.N))
	case argparse.NargsOptional:
		return "[" + mv + "]"
	case argparse.NargsZeroOrMore, argparse.NargsRemainder:
		return "[" + mv + "...]"
	case argparse.NargsOneOrMore:
		return mv + " [" + mv + "...]"
	default:
		return ""
	}
}

func isIdleFlag(e Entry) bool {
	switch e.Action {
	case argparse.ActionStoreTrue, argparse.ActionStoreFalse, argparse.ActionCountInvocations:
		return true
	}
	if list, ok := e.Default.([]any); ok && len(list) == 0 {
		return true
	}
	return false
}
