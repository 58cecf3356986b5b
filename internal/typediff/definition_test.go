package typediff

import (
	"testing"

	"ntdiff/internal/errors"
	"ntdiff/internal/nodetype"
)

func prop(name string, mutate ...func(*nodetype.PropertyDefinition)) nodetype.PropertyDefinition {
	p := nodetype.PropertyDefinition{
		ItemDefinition: nodetype.ItemDefinition{Name: name, DeclaringNodeType: "app:document"},
		RequiredType:   nodetype.PropertyTypeString,
	}
	for _, m := range mutate {
		m(&p)
	}
	return p
}

func child(name string, mutate ...func(*nodetype.ChildNodeDefinition)) nodetype.ChildNodeDefinition {
	c := nodetype.ChildNodeDefinition{
		ItemDefinition:       nodetype.ItemDefinition{Name: name, DeclaringNodeType: "app:document"},
		RequiredPrimaryTypes: []string{"nt:base"},
	}
	for _, m := range mutate {
		m(&c)
	}
	return c
}

func document() *nodetype.NodeTypeDefinition {
	return &nodetype.NodeTypeDefinition{
		Name:       "app:document",
		Supertypes: []string{"nt:hierarchyNode"},
		Properties: []nodetype.PropertyDefinition{
			prop("title"),
			prop("tags", func(p *nodetype.PropertyDefinition) { p.Multiple = true }),
		},
		ChildNodes: []nodetype.ChildNodeDefinition{
			child("jcr:content", func(c *nodetype.ChildNodeDefinition) { c.Mandatory = true }),
		},
	}
}

// modified returns a deep enough copy of document() for tests to edit.
func modified(edit func(*nodetype.NodeTypeDefinition)) *nodetype.NodeTypeDefinition {
	d := document()
	edit(d)
	return d
}

func mustCompare(t *testing.T, oldDef, newDef *nodetype.NodeTypeDefinition) *DefinitionDiff {
	t.Helper()
	d, err := Compare(oldDef, newDef)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	return d
}

func TestCompare_Reflexive(t *testing.T) {
	def := document()
	d := mustCompare(t, def, def)

	if d.Severity() != SeverityNone {
		t.Errorf("Severity() = %v, want NONE", d.Severity())
	}
	if d.IsModified() {
		t.Error("IsModified() should be false for identical definitions")
	}
	if d.Properties().Len() != 0 || d.ChildNodes().Len() != 0 {
		t.Error("collection diffs should be empty for identical definitions")
	}

	// structurally equal but distinct values, items in another order
	other := document()
	other.Properties[0], other.Properties[1] = other.Properties[1], other.Properties[0]
	if got := mustCompare(t, def, other).Severity(); got != SeverityNone {
		t.Errorf("reordered items: Severity() = %v, want NONE", got)
	}
}

func TestCompare_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		oldDef *nodetype.NodeTypeDefinition
		newDef *nodetype.NodeTypeDefinition
	}{
		{"nil old", nil, document()},
		{"nil new", document(), nil},
		{"both nil", nil, nil},
		{"names differ", document(), modified(func(d *nodetype.NodeTypeDefinition) { d.Name = "app:other" })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Compare(tt.oldDef, tt.newDef)
			if err == nil {
				t.Fatal("Compare() should fail")
			}
			if d != nil {
				t.Error("no diff should be returned on failure")
			}
			if !errors.HasCode(err, errors.InvalidInput) {
				t.Errorf("error code = %q, want %q", errors.CodeOf(err), errors.InvalidInput)
			}
		})
	}
}

func TestCompare_Severity(t *testing.T) {
	tests := []struct {
		name string
		edit func(*nodetype.NodeTypeDefinition)
		want Severity
	}{
		{
			name: "mixin flag flipped",
			edit: func(d *nodetype.NodeTypeDefinition) { d.Mixin = true },
			want: SeverityMajor,
		},
		{
			name: "supertype appended",
			edit: func(d *nodetype.NodeTypeDefinition) { d.Supertypes = []string{"nt:hierarchyNode", "mix:title"} },
			want: SeverityMajor,
		},
		{
			name: "supertype prepended",
			edit: func(d *nodetype.NodeTypeDefinition) {
				d.Supertypes = []string{"mix:title", "nt:hierarchyNode"}
			},
			want: SeverityMajor,
		},
		{
			name: "orderable child nodes flipped",
			edit: func(d *nodetype.NodeTypeDefinition) { d.OrderableChildNodes = true },
			want: SeverityTrivial,
		},
		{
			name: "primary item name changed",
			edit: func(d *nodetype.NodeTypeDefinition) { d.PrimaryItemName = "jcr:content" },
			want: SeverityTrivial,
		},
		{
			name: "optional property added",
			edit: func(d *nodetype.NodeTypeDefinition) { d.Properties = append(d.Properties, prop("foo")) },
			want: SeverityTrivial,
		},
		{
			name: "mandatory property added",
			edit: func(d *nodetype.NodeTypeDefinition) {
				d.Properties = append(d.Properties, prop("foo", func(p *nodetype.PropertyDefinition) { p.Mandatory = true }))
			},
			want: SeverityMajor,
		},
		{
			name: "mandatory child node added",
			edit: func(d *nodetype.NodeTypeDefinition) {
				d.ChildNodes = append(d.ChildNodes, child("bar", func(c *nodetype.ChildNodeDefinition) { c.Mandatory = true }))
			},
			want: SeverityMajor,
		},
		{
			name: "optional property removed",
			edit: func(d *nodetype.NodeTypeDefinition) { d.Properties = d.Properties[:1] },
			want: SeverityMajor,
		},
		{
			name: "mandatory child node removed",
			edit: func(d *nodetype.NodeTypeDefinition) { d.ChildNodes = nil },
			want: SeverityMajor,
		},
		{
			name: "required type to UNDEFINED",
			edit: func(d *nodetype.NodeTypeDefinition) { d.Properties[0].RequiredType = nodetype.PropertyTypeUndefined },
			want: SeverityMinor,
		},
		{
			name: "required type to LONG",
			edit: func(d *nodetype.NodeTypeDefinition) { d.Properties[0].RequiredType = nodetype.PropertyTypeLong },
			want: SeverityMajor,
		},
		{
			name: "abstract flag is trivial",
			edit: func(d *nodetype.NodeTypeDefinition) { d.Abstract = true },
			want: SeverityTrivial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustCompare(t, document(), modified(tt.edit))
			if d.Severity() != tt.want {
				t.Errorf("Severity() = %v, want %v\n%s", d.Severity(), tt.want, d)
			}
		})
	}
}

func TestCompare_Predicates(t *testing.T) {
	tests := []struct {
		name                            string
		edit                            func(*nodetype.NodeTypeDefinition)
		modified, trivial, minor, major bool
	}{
		{"none", func(*nodetype.NodeTypeDefinition) {}, false, false, false, false},
		{"trivial", func(d *nodetype.NodeTypeDefinition) { d.Properties[0].Protected = true }, true, true, false, false},
		{"minor", func(d *nodetype.NodeTypeDefinition) { d.Properties[0].Multiple = true }, true, false, true, false},
		{"major", func(d *nodetype.NodeTypeDefinition) { d.Mixin = true }, true, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustCompare(t, document(), modified(tt.edit))
			if d.IsModified() != tt.modified {
				t.Errorf("IsModified() = %v, want %v", d.IsModified(), tt.modified)
			}
			if d.IsTrivial() != tt.trivial {
				t.Errorf("IsTrivial() = %v, want %v", d.IsTrivial(), tt.trivial)
			}
			if d.IsMinor() != tt.minor {
				t.Errorf("IsMinor() = %v, want %v", d.IsMinor(), tt.minor)
			}
			if d.IsMajor() != tt.major {
				t.Errorf("IsMajor() = %v, want %v", d.IsMajor(), tt.major)
			}
		})
	}
}

func TestCompare_NeverBelowContributions(t *testing.T) {
	edits := []func(*nodetype.NodeTypeDefinition){
		func(d *nodetype.NodeTypeDefinition) { d.Mixin = true },
		func(d *nodetype.NodeTypeDefinition) { d.Supertypes = nil },
		func(d *nodetype.NodeTypeDefinition) { d.Properties[1].Multiple = false },
		func(d *nodetype.NodeTypeDefinition) { d.ChildNodes[0].RequiredPrimaryTypes = nil },
		func(d *nodetype.NodeTypeDefinition) { d.Properties = append(d.Properties, prop("extra")) },
	}

	for i, edit := range edits {
		d := mustCompare(t, document(), modified(edit))
		contributions := []Severity{
			d.MixinSeverity(),
			d.SupertypesSeverity(),
			d.Properties().Severity(),
			d.ChildNodes().Severity(),
			SeverityTrivial,
		}
		for _, c := range contributions {
			if d.Severity() < c {
				t.Errorf("edit %d: Severity() = %v is below contribution %v", i, d.Severity(), c)
			}
		}
	}
}

func TestCompare_Contributions(t *testing.T) {
	d := mustCompare(t, document(), modified(func(d *nodetype.NodeTypeDefinition) {
		d.Mixin = true
		d.Properties = append(d.Properties, prop("foo"))
	}))

	if d.MixinSeverity() != SeverityMajor {
		t.Errorf("MixinSeverity() = %v, want MAJOR", d.MixinSeverity())
	}
	if d.SupertypesSeverity() != SeverityNone {
		t.Errorf("SupertypesSeverity() = %v, want NONE", d.SupertypesSeverity())
	}
	if d.Properties().Severity() != SeverityTrivial {
		t.Errorf("Properties().Severity() = %v, want TRIVIAL", d.Properties().Severity())
	}
	if d.ChildNodes().Severity() != SeverityNone {
		t.Errorf("ChildNodes().Severity() = %v, want NONE", d.ChildNodes().Severity())
	}
	if d.Name() != "app:document" {
		t.Errorf("Name() = %q, want app:document", d.Name())
	}
}
