package nodetype

import (
	"fmt"
	"sort"
	"strings"

	"ntdiff/internal/errors"
)

// Violation locates a single validation failure.
type Violation struct {
	NodeType string `json:"nodeType,omitempty"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

func (v Violation) String() string {
	if v.NodeType == "" {
		return fmt.Sprintf("%s: %s", v.Field, v.Message)
	}
	return fmt.Sprintf("%s: %s: %s", v.NodeType, v.Field, v.Message)
}

// Validate checks the invariants a definition file must hold: every node
// type and item is named, and node type names are unique. Duplicate item
// names inside one node type are allowed.
func Validate(defs []NodeTypeDefinition) error {
	var violations []Violation
	seen := make(map[string]int, len(defs))

	for i, def := range defs {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			violations = append(violations, Violation{
				Field:   fmt.Sprintf("nodetype[%d].name", i),
				Message: "is required",
			})
			continue
		}
		if prev, ok := seen[name]; ok {
			violations = append(violations, Violation{
				NodeType: name,
				Field:    fmt.Sprintf("nodetype[%d].name", i),
				Message:  fmt.Sprintf("duplicates nodetype[%d]", prev),
			})
		} else {
			seen[name] = i
		}

		for j, st := range def.Supertypes {
			if strings.TrimSpace(st) == "" {
				violations = append(violations, Violation{NodeType: name, Field: fmt.Sprintf("supertypes[%d]", j), Message: "is empty"})
			} else if st == name {
				violations = append(violations, Violation{NodeType: name, Field: fmt.Sprintf("supertypes[%d]", j), Message: "node type cannot extend itself"})
			}
		}
		for j, p := range def.Properties {
			if strings.TrimSpace(p.Name) == "" {
				violations = append(violations, Violation{NodeType: name, Field: fmt.Sprintf("properties[%d].name", j), Message: "is required"})
			}
		}
		for j, c := range def.ChildNodes {
			if strings.TrimSpace(c.Name) == "" {
				violations = append(violations, Violation{NodeType: name, Field: fmt.Sprintf("childNodes[%d].name", j), Message: "is required"})
			}
			for k, rpt := range c.RequiredPrimaryTypes {
				if strings.TrimSpace(rpt) == "" {
					violations = append(violations, Violation{NodeType: name, Field: fmt.Sprintf("childNodes[%d].requiredPrimaryTypes[%d]", j, k), Message: "is empty"})
				}
			}
		}
	}

	if len(violations) == 0 {
		return nil
	}
	msg := violations[0].String()
	if len(violations) > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, len(violations)-1)
	}
	return errors.New(errors.InvalidDefinition, msg, nil).WithDetails(violations)
}

// sortItems sorts items by name, keeping the relative order of duplicates.
func sortItems[T any](items []T, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return name(items[i]) < name(items[j])
	})
}
