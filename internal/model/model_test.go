package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objsql/internal/model"
	"github.com/roach88/objsql/internal/testutil"
)

func names(props []*model.PropertyDescriptor) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.Name
	}
	return out
}

func columnNames(cols []model.ColumnInfo) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.ColumnName()
	}
	return out
}

func TestTypeDescriptor_PrimaryKeyDeclarationOrder(t *testing.T) {
	f := testutil.NewFixture()

	assert.Equal(t, []string{"OrderId", "LineNo"}, names(f.OrderLine.PrimaryKey()))
	assert.Equal(t, []string{"Id"}, names(f.Person.PrimaryKey()))
	assert.Equal(t, []string{"Id"}, names(f.Apple.PrimaryKey()), "key is inherited from base")
}

func TestTypeDescriptor_AllPropertiesBaseFirst(t *testing.T) {
	f := testutil.NewFixture()

	assert.Equal(t, []string{"Id", "Name", "Color"}, names(f.Apple.AllProperties()))

	p, ok := f.Apple.Property("Name")
	require.True(t, ok)
	assert.Same(t, f.Fruit, p.Declaring)
}

func TestTypeDescriptor_IsAssignableFrom(t *testing.T) {
	f := testutil.NewFixture()

	assert.True(t, f.Fruit.IsAssignableFrom(f.Apple))
	assert.False(t, f.Apple.IsAssignableFrom(f.Fruit))
	assert.True(t, model.EntityType(f.Fruit).IsAssignableFrom(model.EntityType(f.Apple)))
	assert.True(t, model.ObjectType.IsAssignableFrom(model.Int32Type))
	assert.False(t, model.Int64Type.IsAssignableFrom(model.Int32Type))
}

func TestColumnInfos_FlattensReferences(t *testing.T) {
	f := testutil.NewFixture()

	cols := model.ColumnInfos(f.Person)
	assert.Equal(t,
		[]string{"Id", "FirstName", "LastName", "Age", "Email", "AddressId", "FriendId"},
		columnNames(cols))

	addr := cols[5]
	assert.Equal(t, "Address.Id", addr.PropertyPath())
	assert.True(t, addr.Nullable())
	assert.False(t, addr.IsPrimaryKey())
}

func TestColumnInfos_CompositeKeyOrder(t *testing.T) {
	f := testutil.NewFixture()

	assert.Equal(t, []string{"OrderId", "LineNo"}, columnNames(model.PrimaryKeyColumns(f.OrderLine)))
}

func TestColumnInfos_KeyThroughReference(t *testing.T) {
	region := model.NewTypeDescriptor("Region", nil)
	region.AddProperty(model.PropertyDescriptor{Name: "Code", Type: model.StringType, PrimaryKey: true})
	office := model.NewTypeDescriptor("Office", nil)
	office.AddProperty(model.PropertyDescriptor{Name: "Region", Type: model.EntityType(region), PrimaryKey: true})
	office.AddProperty(model.PropertyDescriptor{Name: "Number", Type: model.Int32Type, PrimaryKey: true})

	pk := model.PrimaryKeyColumns(office)
	assert.Equal(t, []string{"RegionCode", "Number"}, columnNames(pk))
}

func TestForeignKeys_GroupedByObjectProperty(t *testing.T) {
	f := testutil.NewFixture()

	fks := model.ForeignKeys(f.Person)
	require.Len(t, fks, 2)
	assert.Equal(t, "Address", fks[0].ObjectProperty.Name)
	assert.Same(t, f.Address, fks[0].ForeignType)
	assert.Equal(t, []string{"AddressId"}, columnNames(fks[0].Columns))
	assert.Same(t, f.Person, fks[1].ForeignType)
}

func TestRegistry(t *testing.T) {
	f := testutil.NewFixture()

	td, ok := f.Registry.TypeDescriptor("Person")
	require.True(t, ok)
	assert.Same(t, f.Person, td)

	_, ok = f.Registry.DescriptorFor(model.Int32Type)
	assert.False(t, ok)

	stranger := model.NewTypeDescriptor("Person", nil)
	_, ok = f.Registry.DescriptorFor(model.EntityType(stranger))
	assert.False(t, ok, "same name but a different descriptor is not registered")

	assert.Error(t, f.Registry.Register(stranger))
	assert.Len(t, f.Registry.Types(), 7)
}

func TestPromote(t *testing.T) {
	tests := []struct {
		left, right model.Kind
		want        model.Kind
		ok          bool
	}{
		{model.String, model.Int32, model.String, true},
		{model.Decimal, model.Float64, model.Decimal, true},
		{model.Float32, model.Int64, model.Float32, true},
		{model.Uint32, model.Uint32, model.Uint32, true},
		{model.Uint32, model.Int16, model.Int64, true},
		{model.Int32, model.Int16, model.Int32, true},
		{model.Uint16, model.Uint16, model.Uint16, true},
		{model.Uint16, model.Int8, model.Int32, true},
		{model.Int16, model.Uint8, model.Int16, true},
		{model.Uint8, model.Uint8, model.Uint8, true},
		{model.Uint8, model.Int8, model.Int32, true},
		{model.Int8, model.Int8, model.Int32, true},
		{model.Bool, model.Bool, model.Invalid, false},
		{model.Uint64, model.Uint64, model.Invalid, false},
	}
	for _, tt := range tests {
		t.Run(tt.left.String()+"_"+tt.right.String(), func(t *testing.T) {
			got, ok := model.Promote(tt.left, tt.right)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKind(t *testing.T) {
	k, ok := model.ParseKind("int64")
	require.True(t, ok)
	assert.Equal(t, model.Int64, k)

	k, ok = model.ParseKind("guid")
	require.True(t, ok)
	assert.Equal(t, model.UUID, k)

	_, ok = model.ParseKind("entity")
	assert.False(t, ok)
}
