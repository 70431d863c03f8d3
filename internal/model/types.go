package model

import "fmt"

// Kind classifies the static type of an expression node.
type Kind int

const (
	Invalid Kind = iota
	Void
	Bool
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
	Decimal
	String
	UUID
	Time
	Object   // untyped value (closures, records, anything not mapped)
	Entity   // mapped object; Type.Entity is set
	Sequence // query result; Type.Entity is set for sequences of entities
)

var kindNames = [...]string{
	Invalid:  "invalid",
	Void:     "void",
	Bool:     "bool",
	Int8:     "int8",
	Uint8:    "uint8",
	Int16:    "int16",
	Uint16:   "uint16",
	Int32:    "int32",
	Uint32:   "uint32",
	Int64:    "int64",
	Uint64:   "uint64",
	Float32:  "float32",
	Float64:  "float64",
	Decimal:  "decimal",
	String:   "string",
	UUID:     "uuid",
	Time:     "time",
	Object:   "object",
	Entity:   "entity",
	Sequence: "sequence",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a scalar kind name as written in schema files.
// Entity, Sequence and Invalid are never returned.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "byte":
		return Uint8, true
	case "int":
		return Int32, true
	case "long":
		return Int64, true
	case "double":
		return Float64, true
	case "float":
		return Float32, true
	case "guid":
		return UUID, true
	}
	for k := Bool; k <= Object; k++ {
		if kindNames[k] == name {
			return k, true
		}
	}
	return Invalid, false
}

// IsInteger reports whether k is a signed or unsigned integer kind.
func (k Kind) IsInteger() bool {
	return k >= Int8 && k <= Uint64
}

// IsNumeric reports whether k participates in arithmetic promotion.
func (k Kind) IsNumeric() bool {
	return k.IsInteger() || k == Float32 || k == Float64 || k == Decimal
}

// Type is the static type of an expression node.
//
// Type is comparable; two types are identical when their kinds and entity
// descriptors are identical.
type Type struct {
	Kind   Kind
	Entity *TypeDescriptor
}

var (
	VoidType    = Type{Kind: Void}
	BoolType    = Type{Kind: Bool}
	Int8Type    = Type{Kind: Int8}
	Uint8Type   = Type{Kind: Uint8}
	Int16Type   = Type{Kind: Int16}
	Uint16Type  = Type{Kind: Uint16}
	Int32Type   = Type{Kind: Int32}
	Uint32Type  = Type{Kind: Uint32}
	Int64Type   = Type{Kind: Int64}
	Uint64Type  = Type{Kind: Uint64}
	Float32Type = Type{Kind: Float32}
	Float64Type = Type{Kind: Float64}
	DecimalType = Type{Kind: Decimal}
	StringType  = Type{Kind: String}
	UUIDType    = Type{Kind: UUID}
	TimeType    = Type{Kind: Time}
	ObjectType  = Type{Kind: Object}
)

// Scalar returns the type for a scalar kind.
func Scalar(k Kind) Type {
	return Type{Kind: k}
}

// EntityType returns the static type of a mapped object.
func EntityType(td *TypeDescriptor) Type {
	return Type{Kind: Entity, Entity: td}
}

// SequenceOf returns the type of a query producing elements of t.
// Only entity element types are tracked.
func SequenceOf(t Type) Type {
	if t.IsEntity() {
		return Type{Kind: Sequence, Entity: t.Entity}
	}
	return Type{Kind: Sequence}
}

// IsEntity reports whether t is a mapped object type.
func (t Type) IsEntity() bool {
	return t.Kind == Entity && t.Entity != nil
}

// IsAssignableFrom reports whether a value of type o can be used where t is
// expected. Entity types follow the Base chain; Object accepts anything.
func (t Type) IsAssignableFrom(o Type) bool {
	if t == o || t.Kind == Object {
		return true
	}
	if t.IsEntity() && o.IsEntity() {
		return t.Entity.IsAssignableFrom(o.Entity)
	}
	return false
}

func (t Type) String() string {
	switch t.Kind {
	case Entity:
		if t.Entity != nil {
			return t.Entity.Name
		}
	case Sequence:
		if t.Entity != nil {
			return "[]" + t.Entity.Name
		}
		return "[]"
	}
	return t.Kind.String()
}
