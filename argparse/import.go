package argparse

import (
	"slices"
	"strings"
)

// ImportSettings copies every group and entry of src into dst through the same
// conflict resolution as AddEntry, so dst.ErrorOnConflict governs the
// outcome at every level, including the child nodes of commands. Groups
// merge by name, anonymous groups by description. Commands present in both
// nodes have their child nodes merged recursively; other commands bring a
// deep copy of their child, which takes dst's conflict policy. Unless
// argsOnly is set, dst also takes src's general options (except Prog,
// Description, Epilog, Usage, Version and ErrorOnConflict) and its default
// group.
//
// The copy is one-time: later changes to src do not affect dst. An error
// stops the import with the entries processed so far already in dst.
func ImportSettings(dst, src *Settings, argsOnly bool) error {
	return importInto(dst, src, argsOnly, dst.ErrorOnConflict)
}

func importInto(dst, src *Settings, argsOnly, errorOnConflict bool) error {
	for name, fn := range src.types {
		if _, ok := dst.types[name]; !ok {
			dst.RegisterType(name, fn)
		}
	}

	groups := dst.mergeGroups(src)

	if !argsOnly {
		dst.copyOptions(src.Options)
	}

	for _, se := range src.entries {
		ne := se.clone()
		if g, ok := groups[ne.Group]; ok {
			ne.Group = g
		}
		if ne.kind == KindCommand {
			if old := dst.commandEntry(ne.DestName); old != nil {
				dst.debug("merging command", "command", ne.DestName)
				if err := importInto(dst.commands[ne.DestName], src.commands[se.DestName], argsOnly, errorOnConflict); err != nil {
					return err
				}
				dst.moveToEnd(old)
				continue
			}
			child := copySettings(src.commands[se.DestName])
			child.setConflictPolicy(errorOnConflict)
			if err := dst.insert(ne, child, errorOnConflict); err != nil {
				return err
			}
			continue
		}
		if err := dst.insert(ne, nil, errorOnConflict); err != nil {
			return err
		}
	}

	if !argsOnly && src.defaultGroup != "" {
		dst.defaultGroup = groups[src.defaultGroup]
	}
	return nil
}

// mergeGroups adds src's groups to s and returns the mapping from src group
// names to the names used in s.
func (s *Settings) mergeGroups(src *Settings) map[string]string {
	mapping := make(map[string]string, len(src.groups))
	for _, g := range src.groups {
		if !strings.HasPrefix(g.Name, "#") {
			if s.group(g.Name) == nil {
				s.groups = append(s.groups, &Group{Name: g.Name, Description: g.Description})
			}
			mapping[g.Name] = g.Name
			continue
		}
		if existing := s.groupByDescription(g.Description); existing != nil {
			mapping[g.Name] = existing.Name
			continue
		}
		name := s.anonymousGroupName()
		s.groups = append(s.groups, &Group{Name: name, Description: g.Description})
		mapping[g.Name] = name
	}
	return mapping
}

func (s *Settings) groupByDescription(desc string) *Group {
	for _, g := range s.groups {
		if strings.HasPrefix(g.Name, "#") && g.Description == desc {
			return g
		}
	}
	return nil
}

func (s *Settings) commandEntry(dest string) *entry {
	for _, e := range s.entries {
		if e.kind == KindCommand && e.DestName == dest {
			return e
		}
	}
	return nil
}

// moveToEnd keeps a merged command in the position a replacing entry would
// take.
func (s *Settings) moveToEnd(e *entry) {
	s.entries = slices.DeleteFunc(s.entries, func(x *entry) bool { return x == e })
	s.entries = append(s.entries, e)
}

// copyOptions overwrites the general options, keeping the identity fields.
func (s *Settings) copyOptions(o Options) {
	keep := s.Options
	s.Options = o
	s.Prog = keep.Prog
	s.Description = keep.Description
	s.Epilog = keep.Epilog
	s.Usage = keep.Usage
	s.Version = keep.Version
	s.ErrorOnConflict = keep.ErrorOnConflict
}

// setConflictPolicy applies errorOnConflict to s and its whole subtree.
func (s *Settings) setConflictPolicy(errorOnConflict bool) {
	if s == nil {
		return
	}
	s.ErrorOnConflict = errorOnConflict
	for _, child := range s.commands {
		child.setConflictPolicy(errorOnConflict)
	}
}

// copySettings deep-copies a node and its whole subtree.
func copySettings(src *Settings) *Settings {
	if src == nil {
		return nil
	}
	dst := New(src.Options)
	dst.groups = dst.groups[:0]
	for _, g := range src.groups {
		dst.groups = append(dst.groups, &Group{Name: g.Name, Description: g.Description})
	}
	dst.defaultGroup = src.defaultGroup
	dst.types = cloneTypes(src.types)
	for _, e := range src.entries {
		dst.entries = append(dst.entries, e.clone())
	}
	for dest, child := range src.commands {
		dst.commands[dest] = copySettings(child)
	}
	return dst
}
