package optimizer

import (
	"slices"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
	"github.com/roach88/objsql/internal/qerr"
)

// ReferencedRelatedObject is one related object reachable from the query
// root. Exactly one record exists per distinct FullAccessPath within a
// gather run; every consumer found later shares it.
type ReferencedRelatedObject struct {
	// FullAccessPath walks from the root to the related object.
	FullAccessPath expr.PropertyPath

	// IncludedPath is the part of FullAccessPath below the current include
	// boundary.
	IncludedPath expr.PropertyPath

	// ObjectExpression is the node the related object hangs off.
	ObjectExpression expr.Node

	// TargetExpressions are the output locations that consume the object,
	// distinct by identity, in discovery order.
	TargetExpressions []expr.Node
}

func (r *ReferencedRelatedObject) addTarget(n expr.Node) {
	if !slices.Contains(r.TargetExpressions, n) {
		r.TargetExpressions = append(r.TargetExpressions, n)
	}
}

// IncludedProperty records that the object at FullAccessPath must be
// materialized under Root at IncludedPath.
type IncludedProperty struct {
	Root           expr.Node
	FullAccessPath expr.PropertyPath
	IncludedPath   expr.PropertyPath
}

// ProjectedProperty is a scalar read through related objects, e.g.
// p.Address.City, recorded as a projection target of Root.
type ProjectedProperty struct {
	Root    expr.Node
	Path    expr.PropertyPath
	Targets []expr.Node
}

// GatherResult is the output of Gather.
type GatherResult struct {
	// Reduced holds the input expressions with include directives replaced
	// by their source argument.
	Reduced []expr.Node

	ByPath                *expr.PathMap[*ReferencedRelatedObject]
	RootExpressionsByPath *expr.PathMap[expr.Node]
	Projected             *expr.PathMap[*ProjectedProperty]

	// Included is deduplicated on (root, full path, included path) and kept
	// in discovery order.
	Included []IncludedProperty
}

// IncludedFor returns the included properties rooted at root.
func (r *GatherResult) IncludedFor(root expr.Node) []IncludedProperty {
	var out []IncludedProperty
	for _, ip := range r.Included {
		if ip.Root == root {
			out = append(out, ip)
		}
	}
	return out
}

// Gather walks exprs, registers every related-object navigation reachable
// from source and returns the reduced expressions with the path indexes.
//
// Include directives are only valid when forProjection is set; outside a
// projection they are a contract violation.
func Gather(m model.Model, exprs []expr.Node, source *expr.Parameter, forProjection bool) (*GatherResult, error) {
	g := &gatherer{
		model:         m,
		source:        source,
		forProjection: forProjection,
		byPath:        expr.NewPathMap[*ReferencedRelatedObject](),
		roots:         expr.NewPathMap[expr.Node](),
		projected:     expr.NewPathMap[*ProjectedProperty](),
		seenIncluded:  make(map[includedKey]bool),
	}

	res := &GatherResult{Reduced: make([]expr.Node, len(exprs))}
	for i, e := range exprs {
		var found []*ReferencedRelatedObject
		out, err := g.visit(e, gatherScope{found: &found})
		if err != nil {
			return nil, err
		}
		res.Reduced[i] = out
	}
	res.ByPath = g.byPath
	res.RootExpressionsByPath = g.roots
	res.Projected = g.projected
	res.Included = g.included
	return res, nil
}

// gatherScope is threaded by value through the visit.
type gatherScope struct {
	// testing suppresses target attribution inside comparisons, logical
	// operators and conditional tests. Paths are still registered.
	testing bool

	// parent is the source argument of the innermost include directive.
	parent expr.Node

	// found collects the records discovered in the current include level.
	found *[]*ReferencedRelatedObject

	nesting int
}

type includedKey struct {
	root     expr.Node
	full     string
	included string
}

type gatherer struct {
	model         model.Model
	source        *expr.Parameter
	forProjection bool

	byPath    *expr.PathMap[*ReferencedRelatedObject]
	roots     *expr.PathMap[expr.Node]
	projected *expr.PathMap[*ProjectedProperty]

	included     []IncludedProperty
	seenIncluded map[includedKey]bool
}

func (g *gatherer) visitIn(s gatherScope) expr.RewriteFunc {
	return func(n expr.Node) (expr.Node, error) { return g.visit(n, s) }
}

func (g *gatherer) visit(n expr.Node, s gatherScope) (expr.Node, error) {
	switch x := n.(type) {
	case *expr.Binary:
		// Operands of arithmetic remain projection targets.
		if !x.Op.IsArithmetic() {
			s.testing = true
		}
		return expr.RewriteChildren(x, g.visitIn(s))

	case *expr.Conditional:
		ts := s
		ts.testing = true
		test, err := g.visit(x.Test, ts)
		if err != nil {
			return nil, err
		}
		ifTrue, err := g.visit(x.IfTrue, s)
		if err != nil {
			return nil, err
		}
		ifFalse, err := g.visit(x.IfFalse, s)
		if err != nil {
			return nil, err
		}
		if test == x.Test && ifTrue == x.IfTrue && ifFalse == x.IfFalse {
			return x, nil
		}
		return &expr.Conditional{Test: test, IfTrue: ifTrue, IfFalse: ifFalse}, nil

	case *expr.Call:
		if x.IsInclude() {
			return g.include(x, s)
		}

	case *expr.MemberAccess:
		return g.member(x, s), nil
	}
	return expr.RewriteChildren(n, g.visitIn(s))
}

func (g *gatherer) include(call *expr.Call, s gatherScope) (expr.Node, error) {
	if !g.forProjection {
		return nil, qerr.ContractViolation("Include", "include directives are only valid inside a projection")
	}
	selector, ok := call.Args[1].(*expr.Lambda)
	if !ok || len(selector.Params) != 1 {
		return nil, qerr.ContractViolation("Include", "selector must be a lambda of one parameter")
	}
	source := call.Args[0]
	body := expr.Replace(selector.Body, selector.Params[0], source)

	var found []*ReferencedRelatedObject
	inner := gatherScope{testing: s.testing, parent: source, found: &found, nesting: s.nesting + 1}
	if _, err := g.visit(body, inner); err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return g.visit(source, s)
	}
	rro := found[0]

	outer := s
	outer.nesting = s.nesting + 1
	retval, err := g.visit(source, outer)
	if err != nil {
		return nil, err
	}

	if me, ok := retval.(*expr.MemberAccess); ok && outer.nesting > 1 && retval != expr.Node(g.source) {
		// Nested include: the included path is relative to the outer
		// include's object, so prefix it with the navigation from the root.
		var prefix []*model.PropertyDescriptor
		for cur := me; cur != nil; {
			if !g.declaredOnEntity(cur.Property) || expr.Node(cur) == s.parent {
				break
			}
			prefix = append(prefix, cur.Property)
			if cur.Target == expr.Node(g.source) {
				break
			}
			cur, _ = cur.Target.(*expr.MemberAccess)
		}
		slices.Reverse(prefix)
		g.addIncluded(g.source, rro, expr.NewPropertyPath(prefix...))
	} else {
		g.addIncluded(retval, rro, expr.EmptyPath)
	}
	return retval, nil
}

func (g *gatherer) addIncluded(root expr.Node, rro *ReferencedRelatedObject, prefix expr.PropertyPath) {
	full, inc := rro.FullAccessPath, rro.IncludedPath
	for i := 0; i < inc.Len()+prefix.Len(); i++ {
		ip := IncludedProperty{
			Root:           root,
			FullAccessPath: full.Prefix(full.Len() - i),
			IncludedPath:   prefix.Concat(inc.Prefix(inc.Len() - i)),
		}
		key := includedKey{root: root, full: ip.FullAccessPath.Key(), included: ip.IncludedPath.Key()}
		if g.seenIncluded[key] {
			continue
		}
		g.seenIncluded[key] = true
		g.included = append(g.included, ip)
	}
}

// declaredOnEntity reports whether p is a persisted property of a type the
// model knows.
func (g *gatherer) declaredOnEntity(p *model.PropertyDescriptor) bool {
	if p == nil || p.Declaring == nil {
		return false
	}
	_, ok := g.model.DescriptorFor(model.EntityType(p.Declaring))
	return ok
}

func (g *gatherer) member(me *expr.MemberAccess, s gatherScope) expr.Node {
	var expression *expr.MemberAccess
	gathering := false

	if me.Type().IsEntity() {
		if !g.forProjection {
			return me
		}
		gathering = true
		expression = me
	} else {
		if me.Target == nil {
			return me
		}
		td, ok := g.model.DescriptorFor(me.Target.Type())
		if !ok {
			return me
		}
		prop, ok := td.Property(me.Name)
		if !ok || prop.PrimaryKey {
			return me
		}
		expression, _ = me.Target.(*expr.MemberAccess)
	}

	// Chain from expression down to its root, innermost access last.
	var visited []*expr.MemberAccess
	var root expr.Node = me.Target
	for cur := expression; cur != nil && cur.Property != nil; {
		visited = append(visited, cur)
		root = cur.Target
		cur, _ = root.(*expr.MemberAccess)
	}
	chainRoot := root

	skip := 0
	for i, cur := range visited {
		if !g.declaredOnEntity(cur.Property) || expr.Node(cur) == s.parent {
			root = cur
			skip = len(visited) - i
			break
		}
	}
	slices.Reverse(visited)

	complete := true
	cur := expression
	for i := 0; cur != nil && cur.Property != nil; i++ {
		n := len(visited) - i
		if n <= 0 {
			break
		}
		props := make([]*model.PropertyDescriptor, n)
		for j := range n {
			props[j] = visited[j].Property
		}
		path := expr.NewPropertyPath(props...)

		if !g.declaredOnEntity(path.Last()) {
			g.roots.Set(path, cur)
			complete = false
			break
		}

		rro, ok := g.byPath.Get(path)
		if !ok {
			var obj expr.Node = root
			if x := i + skip - 1; x >= 0 {
				obj = visited[min(x, len(visited)-1)]
			}
			rro = &ReferencedRelatedObject{
				FullAccessPath:   path,
				IncludedPath:     path.Skip(skip),
				ObjectExpression: obj,
			}
			g.byPath.Set(path, rro)
		}
		*s.found = append(*s.found, rro)

		if !s.testing {
			if gathering {
				rro.addTarget(cur)
			} else if cur == expression {
				rro.addTarget(expression)
			}
		}
		cur, _ = cur.Target.(*expr.MemberAccess)
	}

	if !gathering && g.forProjection && !s.testing && complete && len(visited) > 0 && me.Property != nil {
		props := make([]*model.PropertyDescriptor, 0, len(visited)+1)
		for _, v := range visited {
			props = append(props, v.Property)
		}
		path := expr.NewPropertyPath(append(props, me.Property)...)
		pp, ok := g.projected.Get(path)
		if !ok {
			pp = &ProjectedProperty{Root: chainRoot, Path: path}
			g.projected.Set(path, pp)
		}
		if !slices.Contains(pp.Targets, expr.Node(me)) {
			pp.Targets = append(pp.Targets, me)
		}
	}
	return me
}
