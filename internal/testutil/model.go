package testutil

import "github.com/roach88/objsql/internal/model"

// Fixture is the shared entity model used across package tests.
//
//	Region(Id*, Name)
//	Address(Id*+, Street, City, Region?)
//	Person(Id*+, FirstName, LastName, Age, Email?!, Address?, Friend?)
//	Shop(Id* uuid, Name, Address)
//	OrderLine(OrderId*, LineNo*, Quantity, Product?)
//	Fruit(Id*, Name) <- Apple(Color)
//
// * primary key, + auto-increment, ? nullable, ! unique.
type Fixture struct {
	Registry  *model.Registry
	Region    *model.TypeDescriptor
	Address   *model.TypeDescriptor
	Person    *model.TypeDescriptor
	Shop      *model.TypeDescriptor
	OrderLine *model.TypeDescriptor
	Fruit     *model.TypeDescriptor
	Apple     *model.TypeDescriptor
}

// NewFixture builds a fresh fixture. Descriptors are not shared between
// calls, so tests may mutate them.
func NewFixture() *Fixture {
	f := &Fixture{}

	f.Region = model.NewTypeDescriptor("Region", nil)
	f.Region.AddProperty(model.PropertyDescriptor{Name: "Id", Type: model.Int64Type, PrimaryKey: true})
	f.Region.AddProperty(model.PropertyDescriptor{Name: "Name", Type: model.StringType, Length: 64})

	f.Address = model.NewTypeDescriptor("Address", nil)
	f.Address.AddProperty(model.PropertyDescriptor{Name: "Id", Type: model.Int64Type, PrimaryKey: true, AutoIncrement: true})
	f.Address.AddProperty(model.PropertyDescriptor{Name: "Street", Type: model.StringType, Length: 128})
	f.Address.AddProperty(model.PropertyDescriptor{Name: "City", Type: model.StringType, Length: 64})
	f.Address.AddProperty(model.PropertyDescriptor{Name: "Region", Type: model.EntityType(f.Region), Nullable: true})

	f.Person = model.NewTypeDescriptor("Person", nil)
	f.Person.TableName = "People"
	f.Person.AddProperty(model.PropertyDescriptor{Name: "Id", Type: model.Int64Type, PrimaryKey: true, AutoIncrement: true})
	f.Person.AddProperty(model.PropertyDescriptor{Name: "FirstName", Type: model.StringType, Length: 64})
	f.Person.AddProperty(model.PropertyDescriptor{Name: "LastName", Type: model.StringType, Length: 64})
	f.Person.AddProperty(model.PropertyDescriptor{Name: "Age", Type: model.Int32Type})
	f.Person.AddProperty(model.PropertyDescriptor{Name: "Email", Type: model.StringType, Length: 256, Nullable: true, Unique: true})
	f.Person.AddProperty(model.PropertyDescriptor{Name: "Address", Type: model.EntityType(f.Address), Nullable: true})
	f.Person.AddProperty(model.PropertyDescriptor{Name: "Friend", Type: model.EntityType(f.Person), Nullable: true})

	f.Shop = model.NewTypeDescriptor("Shop", nil)
	f.Shop.AddProperty(model.PropertyDescriptor{Name: "Id", Type: model.UUIDType, PrimaryKey: true})
	f.Shop.AddProperty(model.PropertyDescriptor{Name: "Name", Type: model.StringType, Length: 64})
	f.Shop.AddProperty(model.PropertyDescriptor{Name: "Address", Type: model.EntityType(f.Address)})
	f.Shop.Indexes = []model.IndexDescriptor{{Name: "IX_Shop_Name", Properties: []string{"Name"}, Unique: true}}

	f.OrderLine = model.NewTypeDescriptor("OrderLine", nil)
	f.OrderLine.AddProperty(model.PropertyDescriptor{Name: "OrderId", Type: model.Int64Type, PrimaryKey: true})
	f.OrderLine.AddProperty(model.PropertyDescriptor{Name: "LineNo", Type: model.Int32Type, PrimaryKey: true})
	f.OrderLine.AddProperty(model.PropertyDescriptor{Name: "Quantity", Type: model.Int32Type})
	f.OrderLine.AddProperty(model.PropertyDescriptor{Name: "Product", Type: model.StringType, Nullable: true})

	f.Fruit = model.NewTypeDescriptor("Fruit", nil)
	f.Fruit.AddProperty(model.PropertyDescriptor{Name: "Id", Type: model.Int64Type, PrimaryKey: true})
	f.Fruit.AddProperty(model.PropertyDescriptor{Name: "Name", Type: model.StringType, Length: 32})

	f.Apple = model.NewTypeDescriptor("Apple", f.Fruit)
	f.Apple.AddProperty(model.PropertyDescriptor{Name: "Color", Type: model.StringType, Length: 16})

	f.Registry = model.NewRegistry().MustRegister(f.Region, f.Address, f.Person, f.Shop, f.OrderLine, f.Fruit, f.Apple)
	return f
}

// Prop returns the named property of td, panicking when absent.
func Prop(td *model.TypeDescriptor, name string) *model.PropertyDescriptor {
	p, ok := td.Property(name)
	if !ok {
		panic("testutil: no property " + td.Name + "." + name)
	}
	return p
}
