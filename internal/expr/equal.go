package expr

import (
	"reflect"
	"slices"
)

// Equivalent reports whether a and b are structurally identical: same kinds,
// types, attributes and equivalent children. Parameters compare by identity.
func Equivalent(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	if a.Kind() != b.Kind() || a.Type() != b.Type() || !sameAttrs(a, b) {
		return false
	}
	ac, bc := a.Children(), b.Children()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !Equivalent(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

func sameBindings(a, b []MemberBinding) bool {
	return slices.EqualFunc(a, b, func(x, y MemberBinding) bool {
		return x.Name == y.Name && x.Property == y.Property
	})
}

func sameAttrs(a, b Node) bool {
	switch x := a.(type) {
	case *Constant:
		return reflect.DeepEqual(x.Value, b.(*Constant).Value)
	case *Parameter:
		return false // identity already checked
	case *MemberAccess:
		y := b.(*MemberAccess)
		return x.Name == y.Name && x.Property == y.Property
	case *MemberInit:
		return sameBindings(x.Bindings, b.(*MemberInit).Bindings)
	case *Binary:
		return x.Op == b.(*Binary).Op
	case *Unary:
		return x.Op == b.(*Unary).Op
	case *Call:
		return x.Method == b.(*Call).Method
	case *Lambda:
		return slices.Equal(x.Params, b.(*Lambda).Params)
	case *Table:
		y := b.(*Table)
		return x.Name == y.Name && x.Alias == y.Alias
	case *Column:
		y := b.(*Column)
		return x.Name == y.Name && x.Alias == y.Alias
	case *Select:
		y := b.(*Select)
		return x.Alias == y.Alias && x.Distinct == y.Distinct &&
			slices.EqualFunc(x.Columns, y.Columns, func(p, q ColumnDeclaration) bool { return p.Name == q.Name })
	case *Projection:
		return (x.Aggregator == nil) == (b.(*Projection).Aggregator == nil)
	case *Join:
		return x.JoinType == b.(*Join).JoinType
	case *OrderBy:
		return x.Descending == b.(*OrderBy).Descending
	case *Aggregate:
		y := b.(*Aggregate)
		return x.AggregateType == y.AggregateType && x.Distinct == y.Distinct
	case *AggregateSubquery:
		return x.GroupByAlias == b.(*AggregateSubquery).GroupByAlias
	case *FunctionCall:
		return x.Function == b.(*FunctionCall).Function
	case *Keyword:
		return x.Text == b.(*Keyword).Text
	case *Union:
		return x.All == b.(*Union).All
	case *ObjectReference:
		return sameBindings(x.Bindings, b.(*ObjectReference).Bindings)
	case *CreateTable:
		return x.IfNotExist == b.(*CreateTable).IfNotExist
	case *ColumnDefinition:
		y := b.(*ColumnDefinition)
		return x.Name == y.Name && x.Length == y.Length
	case *Constraint:
		y := b.(*Constraint)
		return x.ConstraintType == y.ConstraintType && x.Name == y.Name &&
			slices.Equal(x.ColumnNames, y.ColumnNames) && reflect.DeepEqual(x.References, y.References)
	case *CreateIndex:
		y := b.(*CreateIndex)
		return x.Name == y.Name && x.Unique == y.Unique && x.IfNotExist == y.IfNotExist &&
			reflect.DeepEqual(x.Clustered, y.Clustered)
	case *IndexedColumn:
		return x.Descending == b.(*IndexedColumn).Descending
	case *InsertInto:
		y := b.(*InsertInto)
		return slices.Equal(x.ColumnNames, y.ColumnNames) && slices.Equal(x.Returning, y.Returning)
	case *SetCommand:
		return x.Parameter == b.(*SetCommand).Parameter
	}
	return true
}
