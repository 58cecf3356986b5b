package typediff

import (
	"slices"
	"sort"

	"ntdiff/internal/nodetype"
)

// CollectionDiff holds one item diff per distinct item name across both
// versions of a collection, and the highest severity among them.
type CollectionDiff[D ItemDiff] struct {
	diffs    []D
	severity Severity
}

// Diffs returns the item diffs: names present in the old collection first,
// then names only present in the new one, each group sorted by name.
func (c CollectionDiff[D]) Diffs() []D { return slices.Clone(c.diffs) }

// Len returns the number of item diffs.
func (c CollectionDiff[D]) Len() int { return len(c.diffs) }

// Severity returns the maximum item severity, SeverityNone if empty.
func (c CollectionDiff[D]) Severity() Severity { return c.severity }

// Changed returns the diffs whose operation is not OperationUnchanged.
func (c CollectionDiff[D]) Changed() []D {
	var out []D
	for _, d := range c.diffs {
		if d.Operation() != OperationUnchanged {
			out = append(out, d)
		}
	}
	return out
}

// DiffProperties matches two property collections by name.
func DiffProperties(oldDefs, newDefs []nodetype.PropertyDefinition) CollectionDiff[PropertyDiff] {
	return matchByName(oldDefs, newDefs,
		func(p *nodetype.PropertyDefinition) string { return p.Name },
		DiffProperty)
}

// DiffChildNodes matches two child node collections by name.
func DiffChildNodes(oldDefs, newDefs []nodetype.ChildNodeDefinition) CollectionDiff[ChildNodeDiff] {
	return matchByName(oldDefs, newDefs,
		func(c *nodetype.ChildNodeDefinition) string { return c.Name },
		DiffChildNode)
}

// matchByName pairs items by name alone. When one side lists a name twice,
// the later definition wins; the other is not compared at all.
//
// TODO: match on the full definition id (declaring type, name, required
// type, multiple) so duplicate names no longer shadow each other.
func matchByName[T any, D ItemDiff](oldDefs, newDefs []T, name func(*T) string, diff func(oldDef, newDef *T) D) CollectionDiff[D] {
	oldByName := indexByName(oldDefs, name)
	newByName := indexByName(newDefs, name)

	var c CollectionDiff[D]
	add := func(d D) {
		c.diffs = append(c.diffs, d)
		c.severity = c.severity.AtLeast(d.Severity())
	}

	// shared and removed
	for _, n := range sortedNames(oldByName) {
		add(diff(oldByName[n], newByName[n]))
	}
	// added
	for _, n := range sortedNames(newByName) {
		if _, shared := oldByName[n]; !shared {
			add(diff(nil, newByName[n]))
		}
	}
	return c
}

func indexByName[T any](defs []T, name func(*T) string) map[string]*T {
	m := make(map[string]*T, len(defs))
	for i := range defs {
		m[name(&defs[i])] = &defs[i]
	}
	return m
}

func sortedNames[T any](m map[string]*T) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
