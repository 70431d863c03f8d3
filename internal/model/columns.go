package model

import "strings"

// ColumnInfo is one persisted column of an entity table.
//
// Object-valued properties do not have a column of their own; they flatten
// into the primary-key columns of the referenced type. VisitedProperties
// records the object properties walked to reach DefinitionProperty, so a
// Person.Address reference whose key is Address.Id becomes the column
// "AddressId" with VisitedProperties [Person.Address].
type ColumnInfo struct {
	VisitedProperties  []*PropertyDescriptor
	DefinitionProperty *PropertyDescriptor
}

// ColumnName concatenates the persisted names of the visited properties and
// the definition property.
func (c ColumnInfo) ColumnName() string {
	var b strings.Builder
	for _, p := range c.VisitedProperties {
		b.WriteString(p.PersistedName)
	}
	b.WriteString(c.DefinitionProperty.PersistedName)
	return b.String()
}

// PropertyPath is the dotted member path, e.g. "Address.Id".
func (c ColumnInfo) PropertyPath() string {
	parts := make([]string, 0, len(c.VisitedProperties)+1)
	for _, p := range c.VisitedProperties {
		parts = append(parts, p.Name)
	}
	parts = append(parts, c.DefinitionProperty.Name)
	return strings.Join(parts, ".")
}

// RootProperty is the property declared on the table's own type.
func (c ColumnInfo) RootProperty() *PropertyDescriptor {
	if len(c.VisitedProperties) > 0 {
		return c.VisitedProperties[0]
	}
	return c.DefinitionProperty
}

// IsPrimaryKey reports whether the column belongs to the table's key.
func (c ColumnInfo) IsPrimaryKey() bool {
	return c.RootProperty().PrimaryKey
}

// Nullable reports whether the column admits NULL. A flattened reference
// column is nullable when the object property is.
func (c ColumnInfo) Nullable() bool {
	return c.RootProperty().Nullable
}

// ColumnInfos flattens td into its persisted columns, in AllProperties order.
// Primary-key columns of referenced types appear in PrimaryKey order.
func ColumnInfos(td *TypeDescriptor) []ColumnInfo {
	var out []ColumnInfo
	for _, p := range td.AllProperties() {
		out = expandColumns(out, p, nil, map[*TypeDescriptor]bool{td: true})
	}
	return out
}

func expandColumns(out []ColumnInfo, p *PropertyDescriptor, visited []*PropertyDescriptor, seen map[*TypeDescriptor]bool) []ColumnInfo {
	foreign := p.ForeignType()
	if foreign == nil {
		v := make([]*PropertyDescriptor, len(visited))
		copy(v, visited)
		return append(out, ColumnInfo{VisitedProperties: v, DefinitionProperty: p})
	}
	// A key that references back into the chain has no finite column set.
	if seen[foreign] && p.PrimaryKey {
		return out
	}
	next := append(visited[:len(visited):len(visited)], p)
	seen[foreign] = true
	for _, k := range foreign.PrimaryKey() {
		out = expandColumns(out, k, next, seen)
	}
	delete(seen, foreign)
	return out
}

// PrimaryKeyColumns returns the key columns of td in key order.
func PrimaryKeyColumns(td *TypeDescriptor) []ColumnInfo {
	var out []ColumnInfo
	for _, c := range ColumnInfos(td) {
		if c.IsPrimaryKey() {
			out = append(out, c)
		}
	}
	return out
}

// ForeignKey groups the flattened columns of one object-valued property.
type ForeignKey struct {
	ObjectProperty *PropertyDescriptor
	ForeignType    *TypeDescriptor
	Columns        []ColumnInfo
}

// ForeignKeys returns one entry per object-valued property of td, in
// declaration order.
func ForeignKeys(td *TypeDescriptor) []ForeignKey {
	var out []ForeignKey
	index := map[*PropertyDescriptor]int{}
	for _, c := range ColumnInfos(td) {
		if len(c.VisitedProperties) == 0 {
			continue
		}
		root := c.VisitedProperties[0]
		i, ok := index[root]
		if !ok {
			i = len(out)
			index[root] = i
			out = append(out, ForeignKey{ObjectProperty: root, ForeignType: root.ForeignType()})
		}
		out[i].Columns = append(out[i].Columns, c)
	}
	return out
}
