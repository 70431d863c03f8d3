package schema

import (
	"strings"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
	"github.com/roach88/objsql/internal/qerr"
)

type ddlConfig struct {
	ifNotExists bool
	onDelete    expr.ReferenceAction
	onUpdate    expr.ReferenceAction
}

// DDLOption configures BuildDDL.
type DDLOption func(*ddlConfig)

// WithIfNotExists emits IF NOT EXISTS on tables and indexes.
func WithIfNotExists() DDLOption {
	return func(c *ddlConfig) { c.ifNotExists = true }
}

// WithReferenceActions sets ON DELETE / ON UPDATE for every foreign key.
// Default: none written.
func WithReferenceActions(onDelete, onUpdate expr.ReferenceAction) DDLOption {
	return func(c *ddlConfig) {
		c.onDelete = onDelete
		c.onUpdate = onUpdate
	}
}

// BuildDDL returns the statements creating m: every table in CreationOrder,
// then the declared indexes of each table.
func BuildDDL(m model.Model, opts ...DDLOption) (*expr.StatementList, error) {
	order, _ := CreationOrder(m)
	list := &expr.StatementList{}
	var indexes []expr.Node
	for _, td := range order {
		ct, err := CreateTable(td, opts...)
		if err != nil {
			return nil, err
		}
		list.Statements = append(list.Statements, ct)

		ixs, err := CreateIndexes(td, opts...)
		if err != nil {
			return nil, err
		}
		for _, ix := range ixs {
			indexes = append(indexes, ix)
		}
	}
	list.Statements = append(list.Statements, indexes...)
	return list, nil
}

// CreateTable builds the CREATE TABLE tree for td. Inherited properties are
// stored in td's own table, ahead of td's declared ones.
//
// Every key column is NOT NULL; other columns follow the nullability of the
// property they flatten from. Object-valued properties become FOREIGN KEY
// constraints over their flattened columns.
func CreateTable(td *model.TypeDescriptor, opts ...DDLOption) (*expr.CreateTable, error) {
	cfg := &ddlConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	ct := &expr.CreateTable{
		Table:      expr.NewTable(td, ""),
		IfNotExist: cfg.ifNotExists,
	}

	cols := model.ColumnInfos(td)
	if len(cols) == 0 {
		return nil, qerr.ContractViolation("CreateTable", "type %s has no columns", td.Name)
	}

	var key []string
	uniqueByRoot := make(map[*model.PropertyDescriptor][]string)
	var uniqueRoots []*model.PropertyDescriptor
	for _, c := range cols {
		name := c.ColumnName()
		def := &expr.ColumnDefinition{
			Name:     name,
			DataType: c.DefinitionProperty.Type,
			Length:   c.DefinitionProperty.Length,
		}
		if c.IsPrimaryKey() || !c.Nullable() {
			def.Constraints = append(def.Constraints, &expr.Constraint{ConstraintType: expr.ConstraintNotNull})
		}
		if len(c.VisitedProperties) == 0 && c.DefinitionProperty.AutoIncrement {
			def.Constraints = append(def.Constraints, &expr.Constraint{ConstraintType: expr.ConstraintAutoIncrement})
		}
		ct.Columns = append(ct.Columns, def)

		if c.IsPrimaryKey() {
			key = append(key, name)
		}
		if root := c.RootProperty(); root.Unique && !root.PrimaryKey {
			if _, seen := uniqueByRoot[root]; !seen {
				uniqueRoots = append(uniqueRoots, root)
			}
			uniqueByRoot[root] = append(uniqueByRoot[root], name)
		}
	}

	if len(key) > 0 {
		ct.Constraints = append(ct.Constraints, &expr.Constraint{
			ConstraintType: expr.ConstraintPrimaryKey,
			ColumnNames:    key,
		})
	}
	for _, root := range uniqueRoots {
		ct.Constraints = append(ct.Constraints, &expr.Constraint{
			ConstraintType: expr.ConstraintUnique,
			ColumnNames:    uniqueByRoot[root],
		})
	}

	for _, fk := range model.ForeignKeys(td) {
		c, err := foreignKey(fk, cfg)
		if err != nil {
			return nil, err
		}
		ct.Constraints = append(ct.Constraints, c)
	}
	return ct, nil
}

func foreignKey(fk model.ForeignKey, cfg *ddlConfig) (*expr.Constraint, error) {
	target := model.PrimaryKeyColumns(fk.ForeignType)
	if len(target) != len(fk.Columns) {
		return nil, qerr.ContractViolation("ForeignKey",
			"%s flattens to %d columns but %s has %d key columns",
			fk.ObjectProperty, len(fk.Columns), fk.ForeignType.Name, len(target))
	}
	local := make([]string, len(fk.Columns))
	remote := make([]string, len(target))
	for i := range fk.Columns {
		local[i] = fk.Columns[i].ColumnName()
		remote[i] = target[i].ColumnName()
	}
	return &expr.Constraint{
		ConstraintType: expr.ConstraintForeignKey,
		ColumnNames:    local,
		References: &expr.References{
			Table:       fk.ForeignType.TableName,
			ColumnNames: remote,
			OnDelete:    cfg.onDelete,
			OnUpdate:    cfg.onUpdate,
		},
	}, nil
}

// CreateIndexes builds one CREATE INDEX per declared index of td. An index
// over an object-valued property covers all of its flattened columns.
// Unnamed indexes are called IX_<table>_<properties>.
func CreateIndexes(td *model.TypeDescriptor, opts ...DDLOption) ([]*expr.CreateIndex, error) {
	cfg := &ddlConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	cols := model.ColumnInfos(td)
	var out []*expr.CreateIndex
	for _, ix := range td.Indexes {
		ci := &expr.CreateIndex{
			Name:       ix.Name,
			Table:      expr.NewTable(td, ""),
			Unique:     ix.Unique,
			IfNotExist: cfg.ifNotExists,
		}
		if ci.Name == "" {
			ci.Name = "IX_" + td.TableName + "_" + strings.Join(ix.Properties, "_")
		}
		for _, prop := range ix.Properties {
			matched := false
			for _, c := range cols {
				if c.RootProperty().Name != prop {
					continue
				}
				matched = true
				ci.Columns = append(ci.Columns, &expr.IndexedColumn{
					Column: expr.NewColumn("", c.ColumnName(), c.DefinitionProperty.Type),
				})
			}
			if !matched {
				return nil, qerr.ContractViolation("CreateIndex", "index %s names unknown property %s.%s", ci.Name, td.Name, prop)
			}
		}
		out = append(out, ci)
	}
	return out, nil
}
