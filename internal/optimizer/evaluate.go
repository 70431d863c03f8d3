package optimizer

import (
	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/interp"
	"github.com/roach88/objsql/internal/model"
)

// PartialEvaluate replaces every maximal closed subtree of n with a
// Constant holding its client-side value.
//
// A subtree is closed when it consists only of computational nodes
// (Constant, New, MemberInit, MemberAccess, Call, Binary, Unary,
// Conditional) and contains no Parameter. Include directives, lambdas, SQL
// nodes and entity-typed subtrees stay symbolic; the latter so that the
// comparison expander can still decompose object constructions.
func PartialEvaluate(n expr.Node, ev *interp.Evaluator) (expr.Node, error) {
	p := &partialEvaluator{ev: ev, closed: map[expr.Node]bool{}}
	return p.visit(n)
}

type partialEvaluator struct {
	ev     *interp.Evaluator
	closed map[expr.Node]bool
}

func (p *partialEvaluator) isClosed(n expr.Node) bool {
	if v, ok := p.closed[n]; ok {
		return v
	}
	ok := p.nominate(n)
	p.closed[n] = ok
	return ok
}

func (p *partialEvaluator) nominate(n expr.Node) bool {
	switch t := n.Type(); {
	case t.IsEntity(), t.Kind == model.Sequence:
		return false
	}
	switch x := n.(type) {
	case *expr.Constant:
		return true
	case *expr.Call:
		if x.IsInclude() {
			return false
		}
	case *expr.MemberAccess:
		if x.Target == nil {
			return false
		}
	case *expr.New, *expr.MemberInit, *expr.Binary, *expr.Unary, *expr.Conditional:
	default:
		return false
	}
	for _, c := range n.Children() {
		if c != nil && !p.isClosed(c) {
			return false
		}
	}
	return true
}

func (p *partialEvaluator) visit(n expr.Node) (expr.Node, error) {
	if _, ok := n.(*expr.Constant); ok {
		return n, nil
	}
	if p.isClosed(n) {
		v, err := p.ev.Evaluate(n)
		if err != nil {
			return nil, err
		}
		return expr.NewConstant(n.Type(), v), nil
	}
	return expr.RewriteChildren(n, p.visit)
}
