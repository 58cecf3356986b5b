package typediff

import "ntdiff/internal/nodetype"

// ItemDiff is the outcome of comparing one property or child node definition
// across two versions of a node type.
type ItemDiff interface {
	// Name is the item name, taken from the old definition when present.
	Name() string
	Operation() Operation
	Severity() Severity
}

// itemOutcome is the part of an item diff shared by properties and child nodes.
type itemOutcome struct {
	name      string
	operation Operation
	severity  Severity
}

func (o itemOutcome) Name() string         { return o.name }
func (o itemOutcome) Operation() Operation { return o.operation }
func (o itemOutcome) Severity() Severity   { return o.severity }

// refinable reports whether a specialization may refine the base outcome:
// only modified items whose base severity is TRIVIAL or MINOR. MAJOR is final.
func (o itemOutcome) refinable() bool {
	return o.operation == OperationModified &&
		(o.severity == SeverityTrivial || o.severity == SeverityMinor)
}

// classifyItem applies the rules shared by every child item. A nil
// definition means the item is absent on that side; equal reports whether
// both sides are present and structurally identical.
func classifyItem(oldDef, newDef *nodetype.ItemDefinition, equal bool) itemOutcome {
	switch {
	case oldDef == nil && newDef == nil:
		return itemOutcome{operation: OperationUnchanged, severity: SeverityNone}

	case oldDef == nil:
		out := itemOutcome{name: newDef.Name, operation: OperationAdded, severity: SeverityTrivial}
		if newDef.Mandatory {
			out.severity = SeverityMajor
		}
		return out

	case newDef == nil:
		return itemOutcome{name: oldDef.Name, operation: OperationRemoved, severity: SeverityMajor}

	case equal:
		return itemOutcome{name: oldDef.Name, operation: OperationUnchanged, severity: SeverityNone}
	}

	out := itemOutcome{name: oldDef.Name, operation: OperationModified}
	switch {
	case oldDef.Mandatory != newDef.Mandatory && newDef.Mandatory:
		out.severity = SeverityMajor
	case !oldDef.DefinesResidual() && newDef.DefinesResidual():
		// only the name changed to the residual marker
		out.severity = SeverityMinor
	case oldDef.Name != newDef.Name:
		out.severity = SeverityMajor
	default:
		// protected, autoCreated, onParentVersion and everything else
		out.severity = SeverityTrivial
	}
	return out
}
