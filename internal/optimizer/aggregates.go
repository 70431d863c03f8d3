package optimizer

import (
	"strconv"

	"github.com/roach88/objsql/internal/expr"
)

// FindAggregateSubqueries returns every AggregateSubquery in n in document
// order.
func FindAggregateSubqueries(n expr.Node) []*expr.AggregateSubquery {
	var out []*expr.AggregateSubquery
	expr.Walk(n, func(c expr.Node) bool {
		if a, ok := c.(*expr.AggregateSubquery); ok {
			out = append(out, a)
		}
		return true
	})
	return out
}

// RewriteAggregateSubqueries lifts aggregates computed over a grouped select
// into that select. An AggregateSubquery whose GroupByAlias names a select
// with a GROUP BY in the same tree becomes a new output column "aggN" of
// that select and is replaced by a Column reference to it. Any other
// AggregateSubquery is replaced by its standalone scalar subquery.
func RewriteAggregateSubqueries(n expr.Node) (expr.Node, error) {
	found := FindAggregateSubqueries(n)
	if len(found) == 0 {
		return n, nil
	}

	grouped := map[string]*expr.Select{}
	expr.Walk(n, func(c expr.Node) bool {
		if s, ok := c.(*expr.Select); ok && s.Alias != "" && len(s.GroupBy) > 0 {
			grouped[s.Alias] = s
		}
		return true
	})

	r := &aggregateRewriter{
		columns: map[*expr.AggregateSubquery]*expr.Column{},
		extra:   map[string][]expr.ColumnDeclaration{},
	}
	for _, a := range found {
		sel, ok := grouped[a.GroupByAlias]
		if !ok {
			continue
		}
		if _, dup := r.columns[a]; dup {
			continue
		}
		name := "agg" + strconv.Itoa(len(sel.Columns)+len(r.extra[sel.Alias]))
		r.extra[sel.Alias] = append(r.extra[sel.Alias], expr.ColumnDeclaration{Name: name, Expr: a.AggregateInGroupSelect})
		r.columns[a] = expr.NewColumn(a.GroupByAlias, name, a.Type())
	}
	return r.visit(n)
}

type aggregateRewriter struct {
	columns map[*expr.AggregateSubquery]*expr.Column
	extra   map[string][]expr.ColumnDeclaration
}

func (r *aggregateRewriter) visit(n expr.Node) (expr.Node, error) {
	if a, ok := n.(*expr.AggregateSubquery); ok {
		if col, ok := r.columns[a]; ok {
			return col, nil
		}
		return r.visit(a.AggregateAsSubquery)
	}
	out, err := expr.RewriteChildren(n, r.visit)
	if err != nil {
		return nil, err
	}
	if s, ok := out.(*expr.Select); ok && len(s.GroupBy) > 0 {
		if extra := r.extra[s.Alias]; len(extra) > 0 {
			cols := append(append([]expr.ColumnDeclaration(nil), s.Columns...), extra...)
			return s.ChangeColumns(cols), nil
		}
	}
	return out, nil
}
