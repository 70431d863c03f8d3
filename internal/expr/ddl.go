package expr

import "github.com/roach88/objsql/internal/model"

// ConstraintType is a bitmask; a single Constraint may carry several bits.
type ConstraintType uint

const (
	ConstraintNotNull ConstraintType = 1 << iota
	ConstraintNull
	ConstraintPrimaryKey
	ConstraintAutoIncrement
	ConstraintUnique
	ConstraintDefault
	ConstraintForeignKey
)

// Has reports whether all bits of o are set in c.
func (c ConstraintType) Has(o ConstraintType) bool { return c&o == o }

func (c ConstraintType) String() string {
	names := []struct {
		bit  ConstraintType
		name string
	}{
		{ConstraintNotNull, "NotNull"},
		{ConstraintNull, "Null"},
		{ConstraintPrimaryKey, "PrimaryKey"},
		{ConstraintAutoIncrement, "AutoIncrement"},
		{ConstraintUnique, "Unique"},
		{ConstraintDefault, "Default"},
		{ConstraintForeignKey, "ForeignKey"},
	}
	s := ""
	for _, n := range names {
		if c.Has(n.bit) {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	if s == "" {
		return "None"
	}
	return s
}

// ReferenceAction is the ON DELETE / ON UPDATE behavior of a foreign key.
type ReferenceAction int

const (
	ActionNone ReferenceAction = iota
	ActionNoAction
	ActionRestrict
	ActionCascade
	ActionSetNull
	ActionSetDefault
)

// References is the target of a foreign key constraint.
type References struct {
	Table       string
	ColumnNames []string
	OnDelete    ReferenceAction
	OnUpdate    ReferenceAction
}

// Constraint is a column or table constraint. ColumnNames is empty for
// column-level constraints.
type Constraint struct {
	ConstraintType ConstraintType
	Name           string
	ColumnNames    []string
	References     *References
	Default        Node
}

func (*Constraint) node()              {}
func (*Constraint) Kind() Kind         { return KindConstraint }
func (*Constraint) Type() model.Type   { return model.VoidType }
func (c *Constraint) Children() []Node { return []Node{c.Default} }
func (c *Constraint) WithChildren(ch []Node) Node {
	cp := *c
	cp.Default = ch[0]
	return &cp
}

// ColumnDefinition declares one column of a CreateTable.
type ColumnDefinition struct {
	Name        string
	DataType    model.Type
	Length      int
	Constraints []*Constraint
}

func (*ColumnDefinition) node()              {}
func (*ColumnDefinition) Kind() Kind         { return KindColumnDefinition }
func (c *ColumnDefinition) Type() model.Type { return c.DataType }
func (c *ColumnDefinition) Children() []Node { return upcast(c.Constraints) }
func (c *ColumnDefinition) WithChildren(ch []Node) Node {
	cp := *c
	cp.Constraints = nodes[*Constraint](ch, KindColumnDefinition, "Constraints")
	return &cp
}

// Has reports whether any column-level constraint carries t.
func (c *ColumnDefinition) Has(t ConstraintType) bool {
	for _, k := range c.Constraints {
		if k.ConstraintType.Has(t) {
			return true
		}
	}
	return false
}

// ChangeConstraints returns a copy of c with different constraints.
func (c *ColumnDefinition) ChangeConstraints(cs []*Constraint) *ColumnDefinition {
	cp := *c
	cp.Constraints = cs
	return &cp
}

// CreateTable is a CREATE TABLE statement.
type CreateTable struct {
	Table       *Table
	IfNotExist  bool
	Columns     []*ColumnDefinition
	Constraints []*Constraint
}

func (*CreateTable) node()            {}
func (*CreateTable) Kind() Kind       { return KindCreateTable }
func (*CreateTable) Type() model.Type { return model.VoidType }
func (c *CreateTable) Children() []Node {
	out := []Node{c.Table}
	out = append(out, upcast(c.Columns)...)
	return append(out, upcast(c.Constraints)...)
}
func (c *CreateTable) WithChildren(ch []Node) Node {
	n := len(c.Columns)
	return &CreateTable{
		Table:       slot[*Table](ch[0], KindCreateTable, "Table"),
		IfNotExist:  c.IfNotExist,
		Columns:     nodes[*ColumnDefinition](ch[1:1+n], KindCreateTable, "Columns"),
		Constraints: nodes[*Constraint](ch[1+n:], KindCreateTable, "Constraints"),
	}
}

// ChangeColumns returns a copy of c with different columns.
func (c *CreateTable) ChangeColumns(cols []*ColumnDefinition) *CreateTable {
	cp := *c
	cp.Columns = cols
	return &cp
}

// ChangeConstraints returns a copy of c with different table constraints.
func (c *CreateTable) ChangeConstraints(cs []*Constraint) *CreateTable {
	cp := *c
	cp.Constraints = cs
	return &cp
}

// IndexedColumn is one key or included column of an index.
type IndexedColumn struct {
	Column     *Column
	Descending bool
}

func (*IndexedColumn) node()              {}
func (*IndexedColumn) Kind() Kind         { return KindIndexedColumn }
func (*IndexedColumn) Type() model.Type   { return model.VoidType }
func (i *IndexedColumn) Children() []Node { return []Node{i.Column} }
func (i *IndexedColumn) WithChildren(c []Node) Node {
	return &IndexedColumn{Column: slot[*Column](c[0], KindIndexedColumn, "Column"), Descending: i.Descending}
}

// CreateIndex is a CREATE INDEX statement. Where makes it a partial index.
// Clustered is nil when the clustering is left to the database.
type CreateIndex struct {
	Name            string
	Table           *Table
	Unique          bool
	IfNotExist      bool
	Clustered       *bool
	Columns         []*IndexedColumn
	IncludedColumns []*IndexedColumn
	Where           Node
}

func (*CreateIndex) node()            {}
func (*CreateIndex) Kind() Kind       { return KindCreateIndex }
func (*CreateIndex) Type() model.Type { return model.VoidType }
func (c *CreateIndex) Children() []Node {
	out := []Node{c.Table}
	out = append(out, upcast(c.Columns)...)
	out = append(out, upcast(c.IncludedColumns)...)
	return append(out, c.Where)
}
func (c *CreateIndex) WithChildren(ch []Node) Node {
	cp := *c
	n, m := len(c.Columns), len(c.IncludedColumns)
	cp.Table = slot[*Table](ch[0], KindCreateIndex, "Table")
	cp.Columns = nodes[*IndexedColumn](ch[1:1+n], KindCreateIndex, "Columns")
	cp.IncludedColumns = nodes[*IndexedColumn](ch[1+n:1+n+m], KindCreateIndex, "IncludedColumns")
	cp.Where = ch[1+n+m]
	return &cp
}

// ChangeWhere returns a copy of c with a different partial-index filter.
func (c *CreateIndex) ChangeWhere(where Node) *CreateIndex {
	cp := *c
	cp.Where = where
	return &cp
}

// InsertInto is an INSERT statement. Values pairs with ColumnNames; both
// empty means a row of defaults. Returning lists auto-increment columns
// whose generated values the caller wants back.
type InsertInto struct {
	Table       *Table
	ColumnNames []string
	Values      []Node
	Returning   []string
}

func (*InsertInto) node()              {}
func (*InsertInto) Kind() Kind         { return KindInsertInto }
func (*InsertInto) Type() model.Type   { return model.VoidType }
func (i *InsertInto) Children() []Node { return append([]Node{i.Table}, i.Values...) }
func (i *InsertInto) WithChildren(c []Node) Node {
	cp := *i
	cp.Table = slot[*Table](c[0], KindInsertInto, "Table")
	cp.Values = append([]Node(nil), c[1:]...)
	return &cp
}

// Assign is one SET term of an UPDATE.
type Assign struct {
	Target *Column
	Value  Node
}

func (*Assign) node()              {}
func (*Assign) Kind() Kind         { return KindAssign }
func (*Assign) Type() model.Type   { return model.VoidType }
func (a *Assign) Children() []Node { return []Node{a.Target, a.Value} }
func (a *Assign) WithChildren(c []Node) Node {
	return &Assign{Target: slot[*Column](c[0], KindAssign, "Target"), Value: c[1]}
}

// Update is an UPDATE statement.
type Update struct {
	Table       *Table
	Assignments []*Assign
	Where       Node
}

func (*Update) node()            {}
func (*Update) Kind() Kind       { return KindUpdate }
func (*Update) Type() model.Type { return model.VoidType }
func (u *Update) Children() []Node {
	out := append([]Node{u.Table}, upcast(u.Assignments)...)
	return append(out, u.Where)
}
func (u *Update) WithChildren(c []Node) Node {
	n := len(u.Assignments)
	return &Update{
		Table:       slot[*Table](c[0], KindUpdate, "Table"),
		Assignments: nodes[*Assign](c[1:1+n], KindUpdate, "Assignments"),
		Where:       c[1+n],
	}
}

// Delete is a DELETE statement.
type Delete struct {
	Table *Table
	Where Node
}

func (*Delete) node()              {}
func (*Delete) Kind() Kind         { return KindDelete }
func (*Delete) Type() model.Type   { return model.VoidType }
func (d *Delete) Children() []Node { return []Node{d.Table, d.Where} }
func (d *Delete) WithChildren(c []Node) Node {
	return &Delete{Table: slot[*Table](c[0], KindDelete, "Table"), Where: c[1]}
}

// SetCommand is a session SET statement, e.g. SET IDENTITY_INSERT t ON.
type SetCommand struct {
	Parameter string
	Target    Node
	Arguments []Node
}

func (*SetCommand) node()              {}
func (*SetCommand) Kind() Kind         { return KindSetCommand }
func (*SetCommand) Type() model.Type   { return model.VoidType }
func (s *SetCommand) Children() []Node { return append([]Node{s.Target}, s.Arguments...) }
func (s *SetCommand) WithChildren(c []Node) Node {
	return &SetCommand{Parameter: s.Parameter, Target: c[0], Arguments: append([]Node(nil), c[1:]...)}
}
