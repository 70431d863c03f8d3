package optimizer

import (
	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/qerr"
)

// ExpandObjectComparisons rewrites whole-object comparisons and null tests
// into primary-key element comparisons. The rewritten nodes are bool-typed.
//
//	objA == objB   → a.k1 == b.k1 AND a.k2 == b.k2 ...
//	objA != objB   → a.k1 != b.k1 AND a.k2 != b.k2 ...
//	IsNull(obj)    → IsNull(k1) AND IsNull(k2) ...
//	IsNull(query)  → NOT EXISTS(query)
func ExpandObjectComparisons(n expr.Node) (expr.Node, error) {
	return expr.Transform(n, expandNode)
}

func isObjectOperand(n expr.Node) bool {
	switch n.(type) {
	case *expr.MemberInit, *expr.ObjectReference:
		return n.Type().IsEntity()
	}
	return false
}

func expandNode(n expr.Node) (expr.Node, error) {
	switch x := n.(type) {
	case *expr.Binary:
		if !isObjectOperand(x.Left) || !isObjectOperand(x.Right) {
			return x, nil
		}
		lt, rt := x.Left.Type(), x.Right.Type()
		if !lt.IsAssignableFrom(rt) && !rt.IsAssignableFrom(lt) {
			return x, nil
		}
		if x.Op != expr.OpEqual && x.Op != expr.OpNotEqual {
			return nil, qerr.Unsupported(x.Op.String(), "operator is not defined between %s and %s", lt, rt)
		}
		left, err := PrimaryKeyElements(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := PrimaryKeyElements(x.Right)
		if err != nil {
			return nil, err
		}
		if len(left) != len(right) || len(left) == 0 {
			return nil, qerr.ContractViolation(x.Op.String(),
				"key decomposition yields %d elements on the left and %d on the right", len(left), len(right))
		}
		terms := make([]expr.Node, len(left))
		for i := range left {
			terms[i] = expr.NewBinary(x.Op, left[i], right[i])
		}
		return conjoin(terms), nil

	case *expr.FunctionCall:
		if (x.Function != expr.FuncIsNull && x.Function != expr.FuncIsNotNull) || len(x.Args) != 1 {
			return x, nil
		}
		arg := x.Args[0]
		if p, ok := arg.(*expr.Projection); ok {
			exists := expr.Exists(p)
			if x.Function == expr.FuncIsNull {
				return expr.Not(exists), nil
			}
			return exists, nil
		}
		if !isObjectOperand(arg) {
			return x, nil
		}
		elems, err := PrimaryKeyElements(arg)
		if err != nil {
			return nil, err
		}
		if len(elems) == 0 {
			return nil, qerr.ContractViolation(x.Function.String(), "%s has no key elements", arg.Type())
		}
		terms := make([]expr.Node, len(elems))
		for i, e := range elems {
			terms[i] = expr.Func(x.Function, x.T, e)
		}
		return conjoin(terms), nil
	}
	return n, nil
}

func conjoin(terms []expr.Node) expr.Node {
	acc := terms[0]
	for _, t := range terms[1:] {
		acc = expr.AndAlso(acc, t)
	}
	return acc
}

// PrimaryKeyElements decomposes an object construction or reference into
// its scalar key expressions, in TypeDescriptor.PrimaryKey order. Nested
// objects bound to key properties are decomposed recursively.
func PrimaryKeyElements(n expr.Node) ([]expr.Node, error) {
	var bindings []expr.MemberBinding
	switch x := n.(type) {
	case *expr.MemberInit:
		bindings = x.Bindings
	case *expr.ObjectReference:
		bindings = x.Bindings
	default:
		return []expr.Node{n}, nil
	}
	t := n.Type()
	if !t.IsEntity() {
		return nil, qerr.ContractViolation(n.Kind().String(), "key decomposition of non-entity type %s", t)
	}

	var out []expr.Node
	for _, key := range t.Entity.PrimaryKey() {
		var bound expr.Node
		for _, b := range bindings {
			if b.Name == key.Name {
				bound = b.Expr
				break
			}
		}
		if bound == nil {
			return nil, qerr.ContractViolation(n.Kind().String(), "no binding for key property %s", key)
		}
		if isObjectOperand(bound) {
			nested, err := PrimaryKeyElements(bound)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}
		out = append(out, bound)
	}
	return out, nil
}
