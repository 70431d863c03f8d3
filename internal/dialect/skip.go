package dialect

import (
	"slices"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
	"github.com/roach88/objsql/internal/qerr"
)

// RowNumberColumn names the ROW_NUMBER() column added by EmulateSkip.
const RowNumberColumn = "__rownum"

// EmulateSkip rewrites every select with a skip but no take into an outer
// select filtering a numbered inner select:
//
//	SELECT a.x FROM (SELECT x, ROW_NUMBER() OVER (ORDER BY ...) AS __rownum ...) AS a_inner
//	WHERE a_inner.__rownum > skip ORDER BY a_inner.__rownum
//
// The inner ordering is the select's own, or (SELECT 1) when it has none.
func EmulateSkip(n expr.Node) (expr.Node, error) {
	return expr.Transform(n, func(n expr.Node) (expr.Node, error) {
		s, ok := n.(*expr.Select)
		if !ok || s.Skip == nil || s.Take != nil {
			return n, nil
		}
		return numberedSelect(s)
	})
}

func numberedSelect(s *expr.Select) (*expr.Select, error) {
	if len(s.Columns) == 0 {
		return nil, qerr.ContractViolation("Skip", "row-number paging needs an explicit column list")
	}

	alias := "t_inner"
	if s.Alias != "" {
		alias = s.Alias + "_inner"
	}
	order := s.OrderBy
	if len(order) == 0 {
		order = []*expr.OrderBy{{Expr: &expr.Keyword{Text: "(SELECT 1)"}}}
	}

	inner := *s
	inner.Alias = alias
	inner.Columns = append(slices.Clone(s.Columns), expr.ColumnDeclaration{
		Name: RowNumberColumn,
		Expr: &expr.Over{Source: expr.Func(expr.FuncRowNumber, model.Int64Type), OrderBy: order},
	})
	inner.OrderBy = nil
	inner.Skip = nil

	rowNumber := expr.NewColumn(alias, RowNumberColumn, model.Int64Type)
	columns := make([]expr.ColumnDeclaration, len(s.Columns))
	for i, c := range s.Columns {
		columns[i] = expr.ColumnDeclaration{Name: c.Name, Expr: expr.NewColumn(alias, c.Name, c.Expr.Type())}
	}
	return &expr.Select{
		Alias:   s.Alias,
		Columns: columns,
		From:    &inner,
		Where:   expr.NewBinary(expr.OpGreaterThan, rowNumber, s.Skip),
		OrderBy: []*expr.OrderBy{{Expr: rowNumber}},
		T:       s.T,
	}, nil
}
