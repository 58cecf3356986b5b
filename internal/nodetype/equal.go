package nodetype

import "slices"

// Equal reports whether two item definitions have identical shared attributes.
func (d ItemDefinition) Equal(o ItemDefinition) bool {
	return d == o
}

// Equal reports structural equality. Value constraints, default values and
// query operators compare as sets.
func (d PropertyDefinition) Equal(o PropertyDefinition) bool {
	return d.ItemDefinition.Equal(o.ItemDefinition) &&
		d.RequiredType == o.RequiredType &&
		d.Multiple == o.Multiple &&
		d.FullTextSearchable == o.FullTextSearchable &&
		d.QueryOrderable == o.QueryOrderable &&
		sameSet(d.ValueConstraints, o.ValueConstraints) &&
		sameSet(d.DefaultValues, o.DefaultValues) &&
		sameSet(d.AvailableQueryOperators, o.AvailableQueryOperators)
}

// Equal reports structural equality. Required primary types compare as a set.
func (d ChildNodeDefinition) Equal(o ChildNodeDefinition) bool {
	return d.ItemDefinition.Equal(o.ItemDefinition) &&
		d.DefaultPrimaryType == o.DefaultPrimaryType &&
		d.AllowsSameNameSiblings == o.AllowsSameNameSiblings &&
		sameSet(d.RequiredPrimaryTypes, o.RequiredPrimaryTypes)
}

// Equal reports full structural equality of two node type definitions.
// Supertypes compare as ordered sequences; property and child node
// definitions compare as multisets.
func (d *NodeTypeDefinition) Equal(o *NodeTypeDefinition) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.Name == o.Name &&
		d.Mixin == o.Mixin &&
		d.Abstract == o.Abstract &&
		d.Queryable == o.Queryable &&
		d.OrderableChildNodes == o.OrderableChildNodes &&
		d.PrimaryItemName == o.PrimaryItemName &&
		slices.Equal(d.Supertypes, o.Supertypes) &&
		sameItems(d.Properties, o.Properties, func(p PropertyDefinition) string { return p.Name }) &&
		sameItems(d.ChildNodes, o.ChildNodes, func(c ChildNodeDefinition) string { return c.Name })
}

// sameSet compares two string slices as sets: order and duplicates are ignored.
func sameSet(a, b []string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	sa := make(map[string]struct{}, len(a))
	for _, s := range a {
		sa[s] = struct{}{}
	}
	sb := make(map[string]struct{}, len(b))
	for _, s := range b {
		if _, ok := sa[s]; !ok {
			return false
		}
		sb[s] = struct{}{}
	}
	return len(sa) == len(sb)
}

// sameItems compares two item collections as multisets. Items are bucketed
// by name first so only same-named items are compared pairwise.
func sameItems[T interface{ Equal(T) bool }](a, b []T, name func(T) string) bool {
	if len(a) != len(b) {
		return false
	}
	buckets := make(map[string][]T, len(b))
	for _, item := range b {
		buckets[name(item)] = append(buckets[name(item)], item)
	}
	for _, item := range a {
		candidates := buckets[name(item)]
		idx := slices.IndexFunc(candidates, func(c T) bool { return item.Equal(c) })
		if idx < 0 {
			return false
		}
		buckets[name(item)] = slices.Delete(candidates, idx, idx+1)
	}
	return true
}
