package dialect

import (
	"slices"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/qerr"
)

// AmendAutoIncrement makes every auto-increment column part of its table's
// primary key, for engines that refuse an auto-increment column outside
// the key.
//
//   - no primary key: PRIMARY KEY(auto) is added
//   - a primary key without the column: the key moves to PRIMARY KEY(auto)
//     and the old key survives as UNIQUE(old..., auto)
//   - more than one auto-increment column is unsupported
func AmendAutoIncrement(n expr.Node) (expr.Node, error) {
	return expr.Transform(n, func(n expr.Node) (expr.Node, error) {
		ct, ok := n.(*expr.CreateTable)
		if !ok {
			return n, nil
		}
		return amendAutoIncrement(ct)
	})
}

func amendAutoIncrement(ct *expr.CreateTable) (expr.Node, error) {
	var auto *expr.ColumnDefinition
	for _, c := range ct.Columns {
		if !c.Has(expr.ConstraintAutoIncrement) {
			continue
		}
		if auto != nil {
			return nil, qerr.Unsupported("AutoIncrement",
				"table %s has more than one auto-increment column (%s, %s)", ct.Table.Name, auto.Name, c.Name)
		}
		auto = c
	}
	if auto == nil {
		return ct, nil
	}

	keyCols, keyIndex := primaryKey(ct)
	if slices.Contains(keyCols, auto.Name) {
		return ct, nil
	}

	constraints := make([]*expr.Constraint, 0, len(ct.Constraints)+2)
	for i, k := range ct.Constraints {
		if i != keyIndex {
			constraints = append(constraints, k)
		}
	}
	constraints = append(constraints, &expr.Constraint{
		ConstraintType: expr.ConstraintPrimaryKey,
		ColumnNames:    []string{auto.Name},
	})
	if len(keyCols) > 0 {
		constraints = append(constraints, &expr.Constraint{
			ConstraintType: expr.ConstraintUnique,
			ColumnNames:    append(slices.Clone(keyCols), auto.Name),
		})
	}
	return ct.ChangeColumns(clearColumnKeys(ct.Columns)).ChangeConstraints(constraints), nil
}

// primaryKey returns the key columns of ct and the index of the table
// constraint declaring them, or -1 when the key is declared on columns.
func primaryKey(ct *expr.CreateTable) ([]string, int) {
	for i, k := range ct.Constraints {
		if k.ConstraintType.Has(expr.ConstraintPrimaryKey) {
			return k.ColumnNames, i
		}
	}
	var cols []string
	for _, c := range ct.Columns {
		if c.Has(expr.ConstraintPrimaryKey) {
			cols = append(cols, c.Name)
		}
	}
	return cols, -1
}

// clearColumnKeys strips the primary key bit from column constraints,
// dropping constraints left without any bit.
func clearColumnKeys(cols []*expr.ColumnDefinition) []*expr.ColumnDefinition {
	var out []*expr.ColumnDefinition
	for i, c := range cols {
		if !c.Has(expr.ConstraintPrimaryKey) {
			if out != nil {
				out = append(out, c)
			}
			continue
		}
		if out == nil {
			out = append(make([]*expr.ColumnDefinition, 0, len(cols)), cols[:i]...)
		}
		var kept []*expr.Constraint
		for _, k := range c.Constraints {
			if !k.ConstraintType.Has(expr.ConstraintPrimaryKey) {
				kept = append(kept, k)
				continue
			}
			if rest := k.ConstraintType &^ expr.ConstraintPrimaryKey; rest != 0 {
				cp := *k
				cp.ConstraintType = rest
				kept = append(kept, &cp)
			}
		}
		out = append(out, c.ChangeConstraints(kept))
	}
	if out == nil {
		return cols
	}
	return out
}

// InlineAutoIncrementKey moves a single-column table primary key over an
// auto-increment column onto the column itself. SQLite only honors
// AUTOINCREMENT on an INTEGER PRIMARY KEY column.
func InlineAutoIncrementKey(n expr.Node) (expr.Node, error) {
	return expr.Transform(n, func(n expr.Node) (expr.Node, error) {
		ct, ok := n.(*expr.CreateTable)
		if !ok {
			return n, nil
		}
		keyCols, keyIndex := primaryKey(ct)
		if keyIndex < 0 || len(keyCols) != 1 {
			return ct, nil
		}
		col := slices.IndexFunc(ct.Columns, func(c *expr.ColumnDefinition) bool {
			return c.Name == keyCols[0] && c.Has(expr.ConstraintAutoIncrement)
		})
		if col < 0 {
			return ct, nil
		}

		def := ct.Columns[col]
		constraints := slices.Clone(def.Constraints)
		for i, k := range constraints {
			if k.ConstraintType.Has(expr.ConstraintAutoIncrement) {
				cp := *k
				cp.ConstraintType |= expr.ConstraintPrimaryKey
				constraints[i] = &cp
			}
		}
		columns := slices.Clone(ct.Columns)
		columns[col] = def.ChangeConstraints(constraints)
		return ct.ChangeColumns(columns).ChangeConstraints(slices.Delete(slices.Clone(ct.Constraints), keyIndex, keyIndex+1)), nil
	})
}
