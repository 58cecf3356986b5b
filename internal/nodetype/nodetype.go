// Package nodetype models node type (schema) definitions of a content
// repository: the node type itself and the property and child node
// definitions it declares.
//
// Definitions are plain values. Once decoded or constructed they are treated
// as read-only by every consumer in this module; nothing here mutates a
// definition it was handed.
package nodetype

// ResidualName is the wildcard item name. An item definition with this name
// applies to every child item not matched by a named definition.
const ResidualName = "*"

// ItemDefinition holds the attributes shared by property and child node
// definitions.
type ItemDefinition struct {
	Name              string          `json:"name" toml:"name" yaml:"name"`
	DeclaringNodeType string          `json:"declaringNodeType,omitempty" toml:"declaringNodeType,omitempty" yaml:"declaringNodeType,omitempty"`
	AutoCreated       bool            `json:"autoCreated,omitempty" toml:"autoCreated,omitempty" yaml:"autoCreated,omitempty"`
	Mandatory         bool            `json:"mandatory,omitempty" toml:"mandatory,omitempty" yaml:"mandatory,omitempty"`
	Protected         bool            `json:"protected,omitempty" toml:"protected,omitempty" yaml:"protected,omitempty"`
	OnParentVersion   OnParentVersion `json:"onParentVersion" toml:"onParentVersion" yaml:"onParentVersion"`
}

// DefinesResidual reports whether the item is a residual (wildcard) definition.
func (d ItemDefinition) DefinesResidual() bool {
	return d.Name == ResidualName
}

// PropertyDefinition describes a property a node of the declaring type may carry.
type PropertyDefinition struct {
	ItemDefinition `yaml:",inline"`

	RequiredType PropertyType `json:"requiredType" toml:"requiredType" yaml:"requiredType"`
	Multiple     bool         `json:"multiple,omitempty" toml:"multiple,omitempty" yaml:"multiple,omitempty"`
	// ValueConstraints are ORed: a value is valid if it satisfies any of them.
	ValueConstraints        []string `json:"valueConstraints,omitempty" toml:"valueConstraints,omitempty" yaml:"valueConstraints,omitempty"`
	DefaultValues           []string `json:"defaultValues,omitempty" toml:"defaultValues,omitempty" yaml:"defaultValues,omitempty"`
	AvailableQueryOperators []string `json:"availableQueryOperators,omitempty" toml:"availableQueryOperators,omitempty" yaml:"availableQueryOperators,omitempty"`
	FullTextSearchable      bool     `json:"fullTextSearchable,omitempty" toml:"fullTextSearchable,omitempty" yaml:"fullTextSearchable,omitempty"`
	QueryOrderable          bool     `json:"queryOrderable,omitempty" toml:"queryOrderable,omitempty" yaml:"queryOrderable,omitempty"`
}

// ChildNodeDefinition describes a child node a node of the declaring type may have.
type ChildNodeDefinition struct {
	ItemDefinition `yaml:",inline"`

	RequiredPrimaryTypes   []string `json:"requiredPrimaryTypes,omitempty" toml:"requiredPrimaryTypes,omitempty" yaml:"requiredPrimaryTypes,omitempty"`
	DefaultPrimaryType     string   `json:"defaultPrimaryType,omitempty" toml:"defaultPrimaryType,omitempty" yaml:"defaultPrimaryType,omitempty"`
	AllowsSameNameSiblings bool     `json:"sameNameSiblings,omitempty" toml:"sameNameSiblings,omitempty" yaml:"sameNameSiblings,omitempty"`
}

// NodeTypeDefinition is a named node type.
type NodeTypeDefinition struct {
	Name string `json:"name" toml:"name" yaml:"name"`
	// Supertypes is ordered; reordering counts as a change.
	Supertypes          []string              `json:"supertypes,omitempty" toml:"supertypes,omitempty" yaml:"supertypes,omitempty"`
	Mixin               bool                  `json:"mixin,omitempty" toml:"mixin,omitempty" yaml:"mixin,omitempty"`
	Abstract            bool                  `json:"abstract,omitempty" toml:"abstract,omitempty" yaml:"abstract,omitempty"`
	Queryable           bool                  `json:"queryable,omitempty" toml:"queryable,omitempty" yaml:"queryable,omitempty"`
	OrderableChildNodes bool                  `json:"orderableChildNodes,omitempty" toml:"orderableChildNodes,omitempty" yaml:"orderableChildNodes,omitempty"`
	PrimaryItemName     string                `json:"primaryItemName,omitempty" toml:"primaryItemName,omitempty" yaml:"primaryItemName,omitempty"`
	Properties          []PropertyDefinition  `json:"properties,omitempty" toml:"properties,omitempty" yaml:"properties,omitempty"`
	ChildNodes          []ChildNodeDefinition `json:"childNodes,omitempty" toml:"childNodes,omitempty" yaml:"childNodes,omitempty"`
}

// Document is the on-disk shape of a definition file.
type Document struct {
	NodeTypes []NodeTypeDefinition `json:"nodetype" toml:"nodetype" yaml:"nodetype"`
}

// withDeclaringType returns a copy of def whose items without a declaring
// node type are attributed to def itself.
func withDeclaringType(def NodeTypeDefinition) NodeTypeDefinition {
	out := def
	if len(def.Properties) > 0 {
		out.Properties = make([]PropertyDefinition, len(def.Properties))
		copy(out.Properties, def.Properties)
		for i := range out.Properties {
			if out.Properties[i].DeclaringNodeType == "" {
				out.Properties[i].DeclaringNodeType = def.Name
			}
		}
	}
	if len(def.ChildNodes) > 0 {
		out.ChildNodes = make([]ChildNodeDefinition, len(def.ChildNodes))
		copy(out.ChildNodes, def.ChildNodes)
		for i := range out.ChildNodes {
			if out.ChildNodes[i].DeclaringNodeType == "" {
				out.ChildNodes[i].DeclaringNodeType = def.Name
			}
		}
	}
	return out
}
