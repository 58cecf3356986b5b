package typediff

import (
	"slices"

	"ntdiff/internal/nodetype"
)

// ChildNodeDiff compares two versions of a child node definition.
type ChildNodeDiff struct {
	itemOutcome
	oldDef *nodetype.ChildNodeDefinition
	newDef *nodetype.ChildNodeDefinition
}

// Old returns the old definition, nil if the child node was added.
func (d ChildNodeDiff) Old() *nodetype.ChildNodeDefinition { return d.oldDef }

// New returns the new definition, nil if the child node was removed.
func (d ChildNodeDiff) New() *nodetype.ChildNodeDefinition { return d.newDef }

// DiffChildNode classifies the change from oldDef to newDef. Either side may
// be nil to express an added or removed child node.
func DiffChildNode(oldDef, newDef *nodetype.ChildNodeDefinition) ChildNodeDiff {
	var oldItem, newItem *nodetype.ItemDefinition
	if oldDef != nil {
		oldItem = &oldDef.ItemDefinition
	}
	if newDef != nil {
		newItem = &newDef.ItemDefinition
	}
	equal := oldDef != nil && newDef != nil && oldDef.Equal(*newDef)

	out := classifyItem(oldItem, newItem, equal)
	if out.refinable() {
		out.severity = refineChildNode(out.severity, oldDef, newDef)
	}
	return ChildNodeDiff{itemOutcome: out, oldDef: oldDef, newDef: newDef}
}

func refineChildNode(sev Severity, oldDef, newDef *nodetype.ChildNodeDefinition) Severity {
	if oldDef.AllowsSameNameSiblings && !newDef.AllowsSameNameSiblings {
		sev = SeverityMajor
	}
	// default primary type never matters

	if sev != SeverityTrivial {
		return sev
	}
	oldTypes, newTypes := oldDef.RequiredPrimaryTypes, newDef.RequiredPrimaryTypes
	if slices.Equal(oldTypes, newTypes) {
		return sev
	}
	for _, t := range newTypes {
		if !slices.Contains(oldTypes, t) {
			// a required type was added: existing children may not satisfy it
			return SeverityMajor
		}
	}
	return SeverityMinor
}
