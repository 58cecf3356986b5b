package typediff

import "ntdiff/internal/nodetype"

// PropertyDiff compares two versions of a property definition.
type PropertyDiff struct {
	itemOutcome
	oldDef *nodetype.PropertyDefinition
	newDef *nodetype.PropertyDefinition
}

// Old returns the old definition, nil if the property was added.
func (d PropertyDiff) Old() *nodetype.PropertyDefinition { return d.oldDef }

// New returns the new definition, nil if the property was removed.
func (d PropertyDiff) New() *nodetype.PropertyDefinition { return d.newDef }

// DiffProperty classifies the change from oldDef to newDef. Either side may
// be nil to express an added or removed property.
func DiffProperty(oldDef, newDef *nodetype.PropertyDefinition) PropertyDiff {
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
		out.severity = refineProperty(out.severity, oldDef, newDef)
	}
	return PropertyDiff{itemOutcome: out, oldDef: oldDef, newDef: newDef}
}

// refineProperty runs the property-specific steps in order. Later steps
// assign the severity outright; they do not take a maximum.
func refineProperty(sev Severity, oldDef, newDef *nodetype.PropertyDefinition) Severity {
	sev = constraintsSeverity(sev, oldDef.ValueConstraints, newDef.ValueConstraints)
	// default values never matter

	if sev != SeverityTrivial {
		return sev
	}
	if oldDef.RequiredType != newDef.RequiredType {
		if newDef.RequiredType == nodetype.PropertyTypeUndefined {
			sev = SeverityMinor
		} else {
			sev = SeverityMajor
		}
	}
	// Overwrites the requiredType outcome when both changed.
	if oldDef.Multiple != newDef.Multiple {
		if newDef.Multiple {
			sev = SeverityMinor
		} else {
			sev = SeverityMajor
		}
	}
	return sev
}

// constraintsSeverity escalates to MAJOR when constraints appear where there
// were none, or when some existing constraint is missing while others remain.
// Constraints are ORed, so dropping all of them only weakens the property.
func constraintsSeverity(sev Severity, oldConstraints, newConstraints []string) Severity {
	oldSet := toSet(oldConstraints)
	newSet := toSet(newConstraints)

	if len(oldSet) == 0 && len(newSet) > 0 {
		return SeverityMajor
	}
	if len(newSet) > 0 && !containsAll(newSet, oldSet) {
		return SeverityMajor
	}
	return sev
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func containsAll(set, subset map[string]struct{}) bool {
	for v := range subset {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}
