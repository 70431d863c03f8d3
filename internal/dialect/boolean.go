package dialect

import (
	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
)

// NormalizeBooleans reconciles boolean expressions with engines that have
// no boolean value type. Every bool-typed node sits either in a predicate
// position (WHERE, ON, CASE WHEN, operands of AND/OR/NOT) or a value
// position (everything else):
//
//   - a predicate in value position becomes CASE WHEN p THEN 1 ELSE 0 END
//   - a bool constant in value position becomes 1 or 0
//   - a bool value in predicate position becomes (v = 1)
//
// Value-position rewrites change the node type from bool to uint8. The
// root is a predicate position. SET command arguments are left alone.
func NormalizeBooleans(n expr.Node) (expr.Node, error) {
	if n == nil {
		return nil, nil
	}
	return normalize(n, true), nil
}

func normalize(n expr.Node, predicate bool) expr.Node {
	var inPredicate func(i int) bool
	switch x := n.(type) {
	case *expr.Binary:
		logical := x.Op == expr.OpAndAlso || x.Op == expr.OpOrElse ||
			(x.Op == expr.OpAnd || x.Op == expr.OpOr) && x.T.Kind == model.Bool
		inPredicate = func(int) bool { return logical }
	case *expr.Unary:
		logical := x.Op == expr.OpNot && x.T.Kind == model.Bool
		inPredicate = func(int) bool { return logical }
	case *expr.Conditional:
		inPredicate = func(i int) bool { return i == 0 }
	case *expr.Select:
		where := len(x.Columns) + 1
		inPredicate = func(i int) bool { return i == where }
	case *expr.Join:
		inPredicate = func(i int) bool { return i == 2 }
	case *expr.Update:
		last := len(x.Children()) - 1
		inPredicate = func(i int) bool { return i == last }
	case *expr.Delete:
		inPredicate = func(i int) bool { return i == 1 }
	case *expr.CreateIndex:
		last := len(x.Children()) - 1
		inPredicate = func(i int) bool { return i == last }
	case *expr.SetCommand:
		return n
	default:
		inPredicate = func(int) bool { return false }
	}

	children := n.Children()
	var changed []expr.Node
	for i, c := range children {
		if c == nil {
			continue
		}
		if nc := normalize(c, inPredicate(i)); nc != c {
			if changed == nil {
				changed = append([]expr.Node(nil), children...)
			}
			changed[i] = nc
		}
	}
	if changed != nil {
		n = n.WithChildren(changed)
	}
	return coerce(n, predicate)
}

func coerce(n expr.Node, predicate bool) expr.Node {
	switch n.(type) {
	case *expr.Select, *expr.Projection, *expr.Union:
		return n
	}
	if n.Type().Kind != model.Bool {
		return n
	}
	c, isConst := n.(*expr.Constant)
	switch {
	case predicate && !isPredicate(n):
		if isConst && c.Value != nil {
			return n
		}
		return expr.Equal(n, bit(true))
	case !predicate && isPredicate(n):
		return &expr.Conditional{Test: n, IfTrue: bit(true), IfFalse: bit(false)}
	case !predicate && isConst:
		if v, ok := c.Value.(bool); ok {
			return bit(v)
		}
	}
	return n
}

// isPredicate reports whether n renders as a SQL search condition.
func isPredicate(n expr.Node) bool {
	switch x := n.(type) {
	case *expr.Binary:
		return x.T.Kind == model.Bool
	case *expr.Unary:
		return x.Op == expr.OpNot && x.T.Kind == model.Bool
	case *expr.FunctionCall:
		return x.Function.IsPredicate()
	}
	return false
}

func bit(v bool) *expr.Constant {
	if v {
		return expr.NewConstant(model.Uint8Type, uint8(1))
	}
	return expr.NewConstant(model.Uint8Type, uint8(0))
}
