package expr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
	"github.com/roach88/objsql/internal/testutil"
)

func TestRewriteChildren_NoChangeReturnsSameNode(t *testing.T) {
	f := testutil.NewFixture()
	p := &expr.Parameter{Name: "p", T: model.EntityType(f.Person)}
	tree := expr.Equal(expr.Member(p, testutil.Prop(f.Person, "Age")), expr.NewConstant(model.Int32Type, int32(30)))

	out, err := expr.RewriteChildren(tree, func(n expr.Node) (expr.Node, error) { return n, nil })
	require.NoError(t, err)
	assert.Same(t, tree, out)
}

func TestRewriteChildren_ReplacesChangedSlotOnly(t *testing.T) {
	left := expr.NewConstant(model.Int32Type, int32(1))
	right := expr.NewConstant(model.Int32Type, int32(2))
	tree := expr.NewBinary(expr.OpAdd, left, right)
	repl := expr.NewConstant(model.Int32Type, int32(5))

	out, err := expr.RewriteChildren(tree, func(n expr.Node) (expr.Node, error) {
		if n == right {
			return repl, nil
		}
		return n, nil
	})
	require.NoError(t, err)

	b := out.(*expr.Binary)
	assert.NotSame(t, tree, b)
	assert.Same(t, left, b.Left)
	assert.Same(t, repl, b.Right)
	assert.Same(t, right, tree.Right, "input is not mutated")
}

func TestRewriteChildren_PropagatesError(t *testing.T) {
	tree := expr.Not(expr.True())
	boom := errors.New("boom")

	_, err := expr.RewriteChildren(tree, func(expr.Node) (expr.Node, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestSelect_ChildrenRoundTrip(t *testing.T) {
	f := testutil.NewFixture()
	tbl := expr.NewTable(f.Person, "t0")
	age := expr.NewColumn("t0", "Age", model.Int32Type)
	sel := &expr.Select{
		Alias:   "s0",
		Columns: []expr.ColumnDeclaration{{Name: "Age", Expr: age}},
		From:    tbl,
		Where:   expr.NewBinary(expr.OpGreaterThan, age, expr.NewConstant(model.Int32Type, int32(18))),
		OrderBy: []*expr.OrderBy{{Expr: age, Descending: true}},
		Take:    expr.NewConstant(model.Int32Type, int32(10)),
	}

	rebuilt := sel.WithChildren(sel.Children()).(*expr.Select)
	assert.NotSame(t, sel, rebuilt)
	assert.True(t, expr.Equivalent(sel, rebuilt))
	assert.Same(t, sel.OrderBy[0], rebuilt.OrderBy[0])
	assert.Nil(t, rebuilt.Skip)
}

func TestWithChildren_WrongSlotTypePanics(t *testing.T) {
	sub := &expr.Subquery{Select: &expr.Select{}, T: model.Int32Type}
	assert.Panics(t, func() { sub.WithChildren([]expr.Node{expr.True()}) })
}

func TestTransform_BottomUp(t *testing.T) {
	one := expr.NewConstant(model.Int32Type, int32(1))
	tree := expr.NewBinary(expr.OpAdd, one, expr.NewBinary(expr.OpAdd, one, one))

	var order []string
	_, err := expr.Transform(tree, func(n expr.Node) (expr.Node, error) {
		order = append(order, n.Kind().String())
		return n, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Constant", "Constant", "Constant", "Binary", "Binary"}, order)
}

func TestReplace(t *testing.T) {
	x := &expr.Parameter{Name: "x", T: model.Int32Type}
	tree := expr.NewBinary(expr.OpMultiply, x, x)
	two := expr.NewConstant(model.Int32Type, int32(2))

	out := expr.Replace(tree, x, two)
	assert.Equal(t, "(Binary Multiply (Constant 2) (Constant 2))", expr.Sprint(out))
	assert.Equal(t, "(Binary Multiply (Parameter x) (Parameter x))", expr.Sprint(tree))
}

func TestEquivalent(t *testing.T) {
	f := testutil.NewFixture()
	p := &expr.Parameter{Name: "p", T: model.EntityType(f.Person)}
	q := &expr.Parameter{Name: "p", T: model.EntityType(f.Person)}
	age := testutil.Prop(f.Person, "Age")

	a := expr.Member(p, age)
	assert.True(t, expr.Equivalent(a, expr.Member(p, age)))
	assert.False(t, expr.Equivalent(a, expr.Member(q, age)), "parameters compare by identity")
	assert.False(t, expr.Equivalent(
		expr.NewConstant(model.Int32Type, int32(1)),
		expr.NewConstant(model.Int64Type, int64(1))))
	assert.True(t, expr.Equivalent(nil, nil))
}

func TestNewBinary_InfersType(t *testing.T) {
	i16 := expr.NewConstant(model.Int16Type, int16(1))
	u32 := expr.NewConstant(model.Uint32Type, uint32(1))
	b := expr.NewConstant(model.BoolType, true)

	assert.Equal(t, model.Int64Type, expr.NewBinary(expr.OpAdd, i16, u32).Type())
	assert.Equal(t, model.BoolType, expr.NewBinary(expr.OpLessThan, i16, u32).Type())
	assert.Equal(t, model.BoolType, expr.NewBinary(expr.OpAnd, b, b).Type())
}

func TestContainsAndWalk(t *testing.T) {
	tree := expr.AndAlso(expr.True(), expr.Not(expr.False()))

	assert.True(t, expr.Contains(tree, func(n expr.Node) bool { return n.Kind() == expr.KindUnary }))
	assert.False(t, expr.Contains(tree, func(n expr.Node) bool { return n.Kind() == expr.KindSelect }))

	count := 0
	expr.Walk(tree, func(expr.Node) bool { count++; return true })
	assert.Equal(t, 4, count)
}

func TestPropertyPath(t *testing.T) {
	f := testutil.NewFixture()
	addr := testutil.Prop(f.Person, "Address")
	city := testutil.Prop(f.Address, "City")

	p := expr.NewPropertyPath(addr, city)
	assert.Equal(t, "Address.City", p.String())
	assert.Equal(t, 2, p.Len())
	assert.Same(t, city, p.Last())
	assert.True(t, p.Prefix(1).Equal(expr.NewPropertyPath(addr)))
	assert.True(t, p.Skip(1).Equal(expr.NewPropertyPath(city)))
	assert.Equal(t, 0, p.Prefix(-3).Len())
	assert.Equal(t, 0, p.Skip(9).Len())
	assert.True(t, expr.NewPropertyPath(addr).Concat(expr.NewPropertyPath(city)).Equal(p))
	assert.Nil(t, expr.EmptyPath.Last())
}

func TestPathMap_InsertionOrder(t *testing.T) {
	f := testutil.NewFixture()
	addr := expr.NewPropertyPath(testutil.Prop(f.Person, "Address"))
	friend := expr.NewPropertyPath(testutil.Prop(f.Person, "Friend"))
	shopAddr := expr.NewPropertyPath(testutil.Prop(f.Shop, "Address"))

	m := expr.NewPathMap[int]()
	m.Set(friend, 1)
	m.Set(addr, 2)
	m.Set(shopAddr, 3)
	m.Set(friend, 4)

	require.Equal(t, 3, m.Len(), "same-named property on another type is a distinct key")
	keys := m.Keys()
	assert.True(t, keys[0].Equal(friend))
	assert.True(t, keys[1].Equal(addr))

	v, ok := m.Get(friend)
	assert.True(t, ok)
	assert.Equal(t, 4, v)
	assert.False(t, m.Has(expr.EmptyPath))
}

func TestConstraintType_String(t *testing.T) {
	c := expr.ConstraintPrimaryKey | expr.ConstraintAutoIncrement
	assert.Equal(t, "PrimaryKey|AutoIncrement", c.String())
	assert.True(t, c.Has(expr.ConstraintPrimaryKey))
	assert.False(t, c.Has(expr.ConstraintUnique))
}

func TestObjectReference_BindingsFlattened(t *testing.T) {
	f := testutil.NewFixture()
	orderID, lineNo := testutil.Prop(f.OrderLine, "OrderId"), testutil.Prop(f.OrderLine, "LineNo")

	shipment := model.NewTypeDescriptor("Shipment", nil)
	line := shipment.AddProperty(model.PropertyDescriptor{Name: "Line", Type: model.EntityType(f.OrderLine), PrimaryKey: true})
	seq := shipment.AddProperty(model.PropertyDescriptor{Name: "Seq", Type: model.Int32Type, PrimaryKey: true})
	note := shipment.AddProperty(model.PropertyDescriptor{Name: "Note", Type: model.StringType})

	o := expr.NewConstant(model.Int64Type, int64(7))
	l := expr.NewConstant(model.Int32Type, int32(2))
	s := expr.NewConstant(model.Int32Type, int32(1))
	n := expr.NewConstant(model.StringType, "fragile")

	ref := &expr.ObjectReference{
		T: model.EntityType(shipment),
		Bindings: []expr.MemberBinding{
			expr.Bind(note, n),
			expr.Bind(seq, s),
			expr.Bind(line, &expr.ObjectReference{
				T: model.EntityType(f.OrderLine),
				Bindings: []expr.MemberBinding{
					expr.Bind(lineNo, l),
					{Name: "OrderId", Expr: o},
				},
			}),
		},
	}

	flat := ref.BindingsFlattened()
	require.Len(t, flat, 4)
	var paths []string
	var values []expr.Node
	for _, b := range flat {
		paths = append(paths, b.Path.String())
		values = append(values, b.Expr)
	}
	assert.Equal(t, []string{"Line.OrderId", "Line.LineNo", "Seq", "Note"}, paths)
	assert.Equal(t, []expr.Node{o, l, s, n}, values)
	assert.Same(t, orderID, flat[0].Path.At(1))

	assert.Empty(t, (&expr.ObjectReference{T: model.EntityType(f.Person)}).BindingsFlattened())
}
