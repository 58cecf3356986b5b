package typediff

import (
	"sort"

	"ntdiff/internal/errors"
	"ntdiff/internal/nodetype"
)

// SetDiff compares two sets of node type definitions, such as two versions
// of a definition file.
type SetDiff struct {
	Severity  Severity          `json:"severity"`
	Added     []string          `json:"added,omitempty"`
	Removed   []string          `json:"removed,omitempty"`
	Unchanged []string          `json:"unchanged,omitempty"`
	Modified  []*DefinitionDiff `json:"-"`
}

// CompareAll pairs node types by name and compares each pair. A node type
// only in newDefs counts as TRIVIAL: nothing stored can conform to it yet.
// A node type only in oldDefs counts as MAJOR. Node type names must be
// unique within each set.
func CompareAll(oldDefs, newDefs []nodetype.NodeTypeDefinition) (*SetDiff, error) {
	oldByName, err := uniqueByName(oldDefs, "old")
	if err != nil {
		return nil, err
	}
	newByName, err := uniqueByName(newDefs, "new")
	if err != nil {
		return nil, err
	}

	s := &SetDiff{}
	for _, name := range sortedNames(oldByName) {
		newDef, ok := newByName[name]
		if !ok {
			s.Removed = append(s.Removed, name)
			s.Severity = s.Severity.AtLeast(SeverityMajor)
			continue
		}
		d, err := Compare(oldByName[name], newDef)
		if err != nil {
			return nil, err
		}
		if !d.IsModified() {
			s.Unchanged = append(s.Unchanged, name)
			continue
		}
		s.Modified = append(s.Modified, d)
		s.Severity = s.Severity.AtLeast(d.Severity())
	}
	for name := range newByName {
		if _, ok := oldByName[name]; !ok {
			s.Added = append(s.Added, name)
			s.Severity = s.Severity.AtLeast(SeverityTrivial)
		}
	}
	sort.Strings(s.Added)
	return s, nil
}

func uniqueByName(defs []nodetype.NodeTypeDefinition, side string) (map[string]*nodetype.NodeTypeDefinition, error) {
	m := make(map[string]*nodetype.NodeTypeDefinition, len(defs))
	for i := range defs {
		if _, dup := m[defs[i].Name]; dup {
			return nil, errors.Newf(errors.InvalidInput, "%s set declares node type %q more than once", side, defs[i].Name)
		}
		m[defs[i].Name] = &defs[i]
	}
	return m, nil
}
