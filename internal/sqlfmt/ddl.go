package sqlfmt

import (
	"fmt"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/qerr"
)

// CREATE TABLE layout, one column or table constraint per line:
//
//	CREATE TABLE "People"
//	(
//		"Id" INTEGER NOT NULL,
//		...
//		PRIMARY KEY("Id")
//	)
func (f *formatter) createTable(c *expr.CreateTable) error {
	f.ddl++
	defer func() { f.ddl-- }()

	f.write("CREATE TABLE ")
	if c.IfNotExist {
		f.write("IF NOT EXISTS ")
	}
	f.ident(c.Table.Name)
	f.write("\n(")
	first := true
	next := func() {
		if !first {
			f.write(",")
		}
		first = false
		f.write("\n\t")
	}
	for _, col := range c.Columns {
		next()
		if err := f.columnDefinition(col); err != nil {
			return err
		}
	}
	for _, k := range c.Constraints {
		next()
		if err := f.tableConstraint(k); err != nil {
			return err
		}
	}
	f.write("\n)")
	return nil
}

func (f *formatter) columnDefinition(c *expr.ColumnDefinition) error {
	f.ident(c.Name)
	dt, err := f.d.DataType(c.DataType, TypeOptions{
		Length:        c.Length,
		AutoIncrement: c.Has(expr.ConstraintAutoIncrement),
		PrimaryKey:    c.Has(expr.ConstraintPrimaryKey),
	})
	if err != nil {
		return f.unsupported(c.Name, err)
	}
	f.write(" " + dt)
	for _, k := range c.Constraints {
		if err := f.columnConstraint(k); err != nil {
			return err
		}
	}
	return nil
}

// columnConstraint writes every bit of k in a fixed order.
func (f *formatter) columnConstraint(k *expr.Constraint) error {
	if k.Name != "" {
		f.write(" CONSTRAINT ")
		f.ident(k.Name)
	}
	t := k.ConstraintType
	if t.Has(expr.ConstraintNotNull) {
		f.write(" NOT NULL")
	}
	if t.Has(expr.ConstraintNull) {
		f.write(" NULL")
	}
	if t.Has(expr.ConstraintPrimaryKey) {
		f.write(" PRIMARY KEY")
	}
	if t.Has(expr.ConstraintAutoIncrement) {
		if s := f.d.AutoIncrementClause(); s != "" {
			f.write(" " + s)
		}
	}
	if t.Has(expr.ConstraintUnique) {
		f.write(" UNIQUE")
	}
	if t.Has(expr.ConstraintDefault) {
		f.write(" DEFAULT ")
		if k.Default == nil {
			f.write("NULL")
		} else if err := f.operand(k.Default); err != nil {
			return err
		}
	}
	if t.Has(expr.ConstraintForeignKey) && k.References != nil {
		f.write(" ")
		f.references(k.References)
	}
	return nil
}

func (f *formatter) tableConstraint(k *expr.Constraint) error {
	if k.Name != "" {
		f.write("CONSTRAINT ")
		f.ident(k.Name)
		f.write(" ")
	}
	t := k.ConstraintType
	switch {
	case t.Has(expr.ConstraintPrimaryKey):
		f.write("PRIMARY KEY(")
	case t.Has(expr.ConstraintUnique):
		f.write("UNIQUE(")
	case t.Has(expr.ConstraintForeignKey) && k.References != nil:
		f.write("FOREIGN KEY(")
		f.idents(k.ColumnNames)
		f.write(") ")
		f.references(k.References)
		return nil
	default:
		return f.unsupported("Constraint", fmt.Errorf("table constraint %s", t))
	}
	f.idents(k.ColumnNames)
	f.write(")")
	return nil
}

func (f *formatter) references(r *expr.References) {
	f.write("REFERENCES ")
	f.ident(r.Table)
	f.write("(")
	f.idents(r.ColumnNames)
	f.write(")")
	if s := f.d.ReferenceAction(r.OnDelete); s != "" {
		f.write(" ON DELETE " + s)
	}
	if s := f.d.ReferenceAction(r.OnUpdate); s != "" {
		f.write(" ON UPDATE " + s)
	}
}

func (f *formatter) createIndex(c *expr.CreateIndex) error {
	f.ddl++
	defer func() { f.ddl-- }()

	f.write("CREATE ")
	if c.Unique {
		f.write("UNIQUE ")
	}
	if c.Clustered != nil && f.d.ClusteredIndexes() {
		if *c.Clustered {
			f.write("CLUSTERED ")
		} else {
			f.write("NONCLUSTERED ")
		}
	}
	f.write("INDEX ")
	if c.IfNotExist && f.d.SupportsIndexIfNotExists() {
		f.write("IF NOT EXISTS ")
	}
	f.ident(c.Name)
	f.write(" ON ")
	f.ident(c.Table.Name)
	f.write("(")
	f.indexedColumns(c.Columns)
	f.write(")")
	if len(c.IncludedColumns) > 0 {
		if !f.d.SupportsIncludedColumns() {
			return f.unsupported("CreateIndex", ErrIncludedColumns)
		}
		f.write(" INCLUDE(")
		f.indexedColumns(c.IncludedColumns)
		f.write(")")
	}
	return f.where(c.Where)
}

func (f *formatter) indexedColumns(cols []*expr.IndexedColumn) {
	for i, c := range cols {
		if i > 0 {
			f.write(", ")
		}
		f.ident(c.Column.Name)
		if c.Descending {
			f.write(" DESC")
		}
	}
}

func (f *formatter) output(names []string) {
	if f.d.Returning() != ReturningOutput || len(names) == 0 {
		return
	}
	f.write(" OUTPUT ")
	for i, n := range names {
		if i > 0 {
			f.write(", ")
		}
		f.ident("INSERTED")
		f.write(".")
		f.ident(n)
	}
}

func (f *formatter) insert(i *expr.InsertInto) error {
	if len(i.ColumnNames) != len(i.Values) {
		return qerr.ContractViolation("InsertInto", "%d columns but %d values", len(i.ColumnNames), len(i.Values))
	}
	f.write("INSERT INTO ")
	f.ident(i.Table.Name)
	if len(i.ColumnNames) == 0 {
		f.output(i.Returning)
		f.write(f.d.DefaultValuesClause())
	} else {
		f.write("(")
		f.idents(i.ColumnNames)
		f.write(")")
		f.output(i.Returning)
		f.write(" VALUES(")
		if err := f.list(i.Values, f.arg); err != nil {
			return err
		}
		f.write(")")
	}
	if f.d.Returning() == ReturningClause && len(i.Returning) > 0 {
		f.write(" RETURNING ")
		f.idents(i.Returning)
	}
	return nil
}

func (f *formatter) update(u *expr.Update) error {
	f.write("UPDATE ")
	f.ident(u.Table.Name)
	f.write(" SET ")
	for i, a := range u.Assignments {
		if i > 0 {
			f.write(", ")
		}
		f.ident(a.Target.Name)
		f.write(" = ")
		if err := f.arg(a.Value); err != nil {
			return err
		}
	}
	return f.where(u.Where)
}

func (f *formatter) setCommand(s *expr.SetCommand) error {
	f.ddl++
	defer func() { f.ddl-- }()

	f.write("SET " + f.d.SetCommandKeyword(s.Parameter))
	if t, ok := s.Target.(*expr.Table); ok {
		f.write(" ")
		f.ident(t.Name)
	} else if s.Target != nil {
		f.write(" ")
		if err := f.visit(s.Target); err != nil {
			return err
		}
	}
	for i, a := range s.Arguments {
		if c, ok := a.(*expr.Constant); ok && i == 0 {
			if text, ok := f.d.SetCommandValue(s.Parameter, c.Value); ok {
				f.write(" " + text)
				continue
			}
		}
		if i == 0 {
			f.write(" = ")
		} else {
			f.write(", ")
		}
		if err := f.visit(a); err != nil {
			return err
		}
	}
	return nil
}
