package model

// TypeDescriptor describes a mapped entity type.
type TypeDescriptor struct {
	Name       string
	TableName  string
	Base       *TypeDescriptor
	Properties []*PropertyDescriptor // declared on this type only
	Indexes    []IndexDescriptor
}

// PropertyDescriptor describes one persisted member of an entity.
type PropertyDescriptor struct {
	Name          string
	PersistedName string
	Type          Type
	PrimaryKey    bool
	AutoIncrement bool
	Nullable      bool
	Unique        bool
	Length        int // 0 = unbounded
	Declaring     *TypeDescriptor
}

// IndexDescriptor names an index over persisted properties of one type.
type IndexDescriptor struct {
	Name       string
	Properties []string
	Unique     bool
}

// NewTypeDescriptor creates a descriptor whose table name defaults to the
// type name.
func NewTypeDescriptor(name string, base *TypeDescriptor) *TypeDescriptor {
	return &TypeDescriptor{Name: name, TableName: name, Base: base}
}

// AddProperty declares p on td and returns the stored descriptor.
// PersistedName defaults to Name.
func (td *TypeDescriptor) AddProperty(p PropertyDescriptor) *PropertyDescriptor {
	if p.PersistedName == "" {
		p.PersistedName = p.Name
	}
	p.Declaring = td
	stored := &p
	td.Properties = append(td.Properties, stored)
	return stored
}

// AllProperties returns inherited properties first, then td's own, each in
// declaration order.
func (td *TypeDescriptor) AllProperties() []*PropertyDescriptor {
	var chain []*TypeDescriptor
	for t := td; t != nil; t = t.Base {
		chain = append(chain, t)
	}
	var out []*PropertyDescriptor
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].Properties...)
	}
	return out
}

// Property finds a property by name on td or its bases.
func (td *TypeDescriptor) Property(name string) (*PropertyDescriptor, bool) {
	for t := td; t != nil; t = t.Base {
		for _, p := range t.Properties {
			if p.Name == name {
				return p, true
			}
		}
	}
	return nil, false
}

// PrimaryKey returns the key properties in declaration order.
func (td *TypeDescriptor) PrimaryKey() []*PropertyDescriptor {
	var out []*PropertyDescriptor
	for _, p := range td.AllProperties() {
		if p.PrimaryKey {
			out = append(out, p)
		}
	}
	return out
}

// IsAssignableFrom reports whether other is td or derives from td.
func (td *TypeDescriptor) IsAssignableFrom(other *TypeDescriptor) bool {
	for t := other; t != nil; t = t.Base {
		if t == td {
			return true
		}
	}
	return false
}

// ForeignType returns the referenced entity descriptor for object-valued
// properties, nil otherwise.
func (p *PropertyDescriptor) ForeignType() *TypeDescriptor {
	if p.Type.IsEntity() {
		return p.Type.Entity
	}
	return nil
}

func (p *PropertyDescriptor) String() string {
	if p.Declaring == nil {
		return p.Name
	}
	return p.Declaring.Name + "." + p.Name
}
