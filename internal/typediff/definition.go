// Package typediff classifies the change between two versions of the same
// node type definition.
//
// The verdict is one of four severities. TRIVIAL changes are safe for content
// already stored under the old definition and keep assigned item definition
// ids. MINOR changes keep stored content consistent but change ids. MAJOR
// changes may invalidate stored content. Registration policy is built on top
// of this verdict; see package policy.
//
// Comparison is a pure function of its inputs. Diffs are computed once, when
// created, and never change afterwards, so they are safe to share between
// goroutines.
package typediff

import (
	"slices"

	"ntdiff/internal/errors"
	"ntdiff/internal/nodetype"
)

// DefinitionDiff is the classified change between two versions of a node type.
type DefinitionDiff struct {
	oldDef *nodetype.NodeTypeDefinition
	newDef *nodetype.NodeTypeDefinition

	severity   Severity
	mixin      Severity
	supertypes Severity
	properties CollectionDiff[PropertyDiff]
	childNodes CollectionDiff[ChildNodeDiff]
}

// Compare classifies the change from oldDef to newDef. Both must be non-nil
// and carry the same name; otherwise an INVALID_INPUT error is returned and
// no diff is produced.
func Compare(oldDef, newDef *nodetype.NodeTypeDefinition) (*DefinitionDiff, error) {
	if oldDef == nil || newDef == nil {
		return nil, errors.Newf(errors.InvalidInput, "node type definitions must not be nil")
	}
	if oldDef.Name != newDef.Name {
		return nil, errors.Newf(errors.InvalidInput,
			"node type names must match: %q vs %q", oldDef.Name, newDef.Name)
	}

	d := &DefinitionDiff{oldDef: oldDef, newDef: newDef}
	if oldDef.Equal(newDef) {
		d.severity = SeverityNone
		return d, nil
	}

	d.supertypes = supertypesSeverity(oldDef, newDef)
	d.mixin = mixinSeverity(oldDef, newDef)
	// orderableChildNodes and primaryItemName are trivial and not inspected
	d.properties = DiffProperties(oldDef.Properties, newDef.Properties)
	d.childNodes = DiffChildNodes(oldDef.ChildNodes, newDef.ChildNodes)

	d.severity = SeverityTrivial.
		AtLeast(d.supertypes).
		AtLeast(d.mixin).
		AtLeast(d.properties.Severity()).
		AtLeast(d.childNodes.Severity())
	return d, nil
}

func supertypesSeverity(oldDef, newDef *nodetype.NodeTypeDefinition) Severity {
	if !slices.Equal(oldDef.Supertypes, newDef.Supertypes) {
		return SeverityMajor
	}
	return SeverityNone
}

func mixinSeverity(oldDef, newDef *nodetype.NodeTypeDefinition) Severity {
	if oldDef.Mixin != newDef.Mixin {
		return SeverityMajor
	}
	return SeverityNone
}

// Name returns the node type name.
func (d *DefinitionDiff) Name() string { return d.oldDef.Name }

// Old returns the old definition.
func (d *DefinitionDiff) Old() *nodetype.NodeTypeDefinition { return d.oldDef }

// New returns the new definition.
func (d *DefinitionDiff) New() *nodetype.NodeTypeDefinition { return d.newDef }

// Severity returns the overall severity.
func (d *DefinitionDiff) Severity() Severity { return d.severity }

// IsModified reports whether the definitions differ at all.
func (d *DefinitionDiff) IsModified() bool { return d.severity != SeverityNone }

// IsTrivial reports whether the overall severity is TRIVIAL.
func (d *DefinitionDiff) IsTrivial() bool { return d.severity == SeverityTrivial }

// IsMinor reports whether the overall severity is MINOR.
func (d *DefinitionDiff) IsMinor() bool { return d.severity == SeverityMinor }

// IsMajor reports whether the overall severity is MAJOR.
func (d *DefinitionDiff) IsMajor() bool { return d.severity == SeverityMajor }

// MixinSeverity is MAJOR if the mixin flag flipped.
func (d *DefinitionDiff) MixinSeverity() Severity { return d.mixin }

// SupertypesSeverity is MAJOR if the supertype sequence changed.
func (d *DefinitionDiff) SupertypesSeverity() Severity { return d.supertypes }

// Properties returns the property collection diff.
func (d *DefinitionDiff) Properties() CollectionDiff[PropertyDiff] { return d.properties }

// ChildNodes returns the child node collection diff.
func (d *DefinitionDiff) ChildNodes() CollectionDiff[ChildNodeDiff] { return d.childNodes }
