package expr

import "github.com/roach88/objsql/internal/model"

// Table is a source table. T is the mapped entity type when known.
type Table struct {
	Name  string
	Alias string
	T     model.Type
}

func (*Table) node()                      {}
func (*Table) Kind() Kind                 { return KindTable }
func (t *Table) Type() model.Type         { return t.T }
func (*Table) Children() []Node           { return nil }
func (t *Table) WithChildren([]Node) Node { return t }

// NewTable builds a table node for an entity.
func NewTable(td *model.TypeDescriptor, alias string) *Table {
	return &Table{Name: td.TableName, Alias: alias, T: model.EntityType(td)}
}

// Column references a column of the source aliased Alias (empty for the
// single unaliased source of a DML statement).
type Column struct {
	Alias string
	Name  string
	T     model.Type
}

func (*Column) node()                      {}
func (*Column) Kind() Kind                 { return KindColumn }
func (c *Column) Type() model.Type         { return c.T }
func (*Column) Children() []Node           { return nil }
func (c *Column) WithChildren([]Node) Node { return c }

// NewColumn builds a column reference.
func NewColumn(alias, name string, t model.Type) *Column {
	return &Column{Alias: alias, Name: name, T: t}
}

// ColumnDeclaration names one output column of a Select.
type ColumnDeclaration struct {
	Name string
	Expr Node
}

// OrderBy is one ordering term.
type OrderBy struct {
	Expr       Node
	Descending bool
}

func (*OrderBy) node()              {}
func (*OrderBy) Kind() Kind         { return KindOrderBy }
func (o *OrderBy) Type() model.Type { return o.Expr.Type() }
func (o *OrderBy) Children() []Node { return []Node{o.Expr} }
func (o *OrderBy) WithChildren(c []Node) Node {
	return &OrderBy{Expr: c[0], Descending: o.Descending}
}

// Select is a SELECT statement. From is a Table, Select, Join or Projection.
type Select struct {
	Alias    string
	Columns  []ColumnDeclaration
	From     Node
	Where    Node
	GroupBy  []Node
	OrderBy  []*OrderBy
	Skip     Node
	Take     Node
	Distinct bool
	T        model.Type
}

func (*Select) node()              {}
func (*Select) Kind() Kind         { return KindSelect }
func (s *Select) Type() model.Type { return s.T }

// Children layout: columns..., From, Where, groupBy..., orderBy..., Skip, Take.
func (s *Select) Children() []Node {
	out := make([]Node, 0, len(s.Columns)+len(s.GroupBy)+len(s.OrderBy)+4)
	for _, c := range s.Columns {
		out = append(out, c.Expr)
	}
	out = append(out, s.From, s.Where)
	out = append(out, s.GroupBy...)
	out = append(out, upcast(s.OrderBy)...)
	return append(out, s.Skip, s.Take)
}

func (s *Select) WithChildren(c []Node) Node {
	cp := *s
	i := 0
	cp.Columns = make([]ColumnDeclaration, len(s.Columns))
	for j, col := range s.Columns {
		cp.Columns[j] = ColumnDeclaration{Name: col.Name, Expr: c[i]}
		i++
	}
	cp.From, cp.Where = c[i], c[i+1]
	i += 2
	cp.GroupBy = append([]Node(nil), c[i:i+len(s.GroupBy)]...)
	i += len(s.GroupBy)
	cp.OrderBy = nodes[*OrderBy](c[i:i+len(s.OrderBy)], KindSelect, "OrderBy")
	i += len(s.OrderBy)
	cp.Skip, cp.Take = c[i], c[i+1]
	return &cp
}

// ChangeWhere returns a copy of s with a different filter.
func (s *Select) ChangeWhere(where Node) *Select {
	cp := *s
	cp.Where = where
	return &cp
}

// ChangeColumns returns a copy of s with different output columns.
func (s *Select) ChangeColumns(cols []ColumnDeclaration) *Select {
	cp := *s
	cp.Columns = cols
	return &cp
}

// Column returns the declaration named name.
func (s *Select) Column(name string) (ColumnDeclaration, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDeclaration{}, false
}

// Projection pairs a Select with the expression that shapes each row.
// When Aggregator is set the projection yields a single value.
type Projection struct {
	Select     *Select
	Projector  Node
	Aggregator *Lambda
}

func (*Projection) node()      {}
func (*Projection) Kind() Kind { return KindProjection }
func (p *Projection) Type() model.Type {
	if p.Aggregator != nil {
		return p.Aggregator.Type()
	}
	return model.SequenceOf(p.Projector.Type())
}
func (p *Projection) Children() []Node {
	out := []Node{p.Select, p.Projector}
	if p.Aggregator != nil {
		out = append(out, p.Aggregator)
	}
	return out
}
func (p *Projection) WithChildren(c []Node) Node {
	cp := &Projection{
		Select:    slot[*Select](c[0], KindProjection, "Select"),
		Projector: c[1],
	}
	if len(c) > 2 {
		cp.Aggregator = slot[*Lambda](c[2], KindProjection, "Aggregator")
	}
	return cp
}

// Join combines two sources.
type Join struct {
	JoinType JoinType
	Left     Node
	Right    Node
	On       Node
}

func (*Join) node()              {}
func (*Join) Kind() Kind         { return KindJoin }
func (*Join) Type() model.Type   { return model.VoidType }
func (j *Join) Children() []Node { return []Node{j.Left, j.Right, j.On} }
func (j *Join) WithChildren(c []Node) Node {
	return &Join{JoinType: j.JoinType, Left: c[0], Right: c[1], On: c[2]}
}

// Aggregate is an aggregate function call. Arg is nil for COUNT(*).
type Aggregate struct {
	AggregateType AggregateType
	Arg           Node
	Distinct      bool
	T             model.Type
}

func (*Aggregate) node()              {}
func (*Aggregate) Kind() Kind         { return KindAggregate }
func (a *Aggregate) Type() model.Type { return a.T }
func (a *Aggregate) Children() []Node { return []Node{a.Arg} }
func (a *Aggregate) WithChildren(c []Node) Node {
	return &Aggregate{AggregateType: a.AggregateType, Arg: c[0], Distinct: a.Distinct, T: a.T}
}

// Subquery is a scalar subquery; Select has exactly one output column.
type Subquery struct {
	Select *Select
	T      model.Type
}

func (*Subquery) node()              {}
func (*Subquery) Kind() Kind         { return KindSubquery }
func (s *Subquery) Type() model.Type { return s.T }
func (s *Subquery) Children() []Node { return []Node{s.Select} }
func (s *Subquery) WithChildren(c []Node) Node {
	return &Subquery{Select: slot[*Select](c[0], KindSubquery, "Select"), T: s.T}
}

// AggregateSubquery is an aggregate over a grouped source, kept in two
// forms: AggregateInGroupSelect is valid inside the select aliased
// GroupByAlias, and AggregateAsSubquery is the standalone scalar subquery.
type AggregateSubquery struct {
	GroupByAlias           string
	AggregateInGroupSelect Node
	AggregateAsSubquery    *Subquery
}

func (*AggregateSubquery) node()      {}
func (*AggregateSubquery) Kind() Kind { return KindAggregateSubquery }
func (a *AggregateSubquery) Type() model.Type {
	return a.AggregateAsSubquery.Type()
}
func (a *AggregateSubquery) Children() []Node {
	return []Node{a.AggregateInGroupSelect, a.AggregateAsSubquery}
}
func (a *AggregateSubquery) WithChildren(c []Node) Node {
	return &AggregateSubquery{
		GroupByAlias:           a.GroupByAlias,
		AggregateInGroupSelect: c[0],
		AggregateAsSubquery:    slot[*Subquery](c[1], KindAggregateSubquery, "AggregateAsSubquery"),
	}
}

// FunctionCall is a portable SQL function application.
type FunctionCall struct {
	Function Function
	Args     []Node
	T        model.Type
}

func (*FunctionCall) node()              {}
func (*FunctionCall) Kind() Kind         { return KindFunctionCall }
func (f *FunctionCall) Type() model.Type { return f.T }
func (f *FunctionCall) Children() []Node { return append([]Node(nil), f.Args...) }
func (f *FunctionCall) WithChildren(c []Node) Node {
	return &FunctionCall{Function: f.Function, Args: append([]Node(nil), c...), T: f.T}
}

// Func builds a function call; predicate functions are bool-typed.
func Func(fn Function, t model.Type, args ...Node) *FunctionCall {
	return &FunctionCall{Function: fn, Args: args, T: t}
}

// IsNull and IsNotNull build null tests.
func IsNull(n Node) *FunctionCall    { return Func(FuncIsNull, model.BoolType, n) }
func IsNotNull(n Node) *FunctionCall { return Func(FuncIsNotNull, model.BoolType, n) }

// Exists builds an EXISTS test over a query.
func Exists(n Node) *FunctionCall { return Func(FuncExists, model.BoolType, n) }

// Keyword is raw SQL text emitted verbatim.
type Keyword struct {
	Text string
}

func (*Keyword) node()                      {}
func (*Keyword) Kind() Kind                 { return KindKeyword }
func (*Keyword) Type() model.Type           { return model.VoidType }
func (*Keyword) Children() []Node           { return nil }
func (k *Keyword) WithChildren([]Node) Node { return k }

// Over is a window application: Source OVER (ORDER BY ...).
type Over struct {
	Source  Node
	OrderBy []*OrderBy
}

func (*Over) node()              {}
func (*Over) Kind() Kind         { return KindOver }
func (o *Over) Type() model.Type { return o.Source.Type() }
func (o *Over) Children() []Node { return append([]Node{o.Source}, upcast(o.OrderBy)...) }
func (o *Over) WithChildren(c []Node) Node {
	return &Over{Source: c[0], OrderBy: nodes[*OrderBy](c[1:], KindOver, "OrderBy")}
}

// Union combines two queries.
type Union struct {
	Left  Node
	Right Node
	All   bool
}

func (*Union) node()              {}
func (*Union) Kind() Kind         { return KindUnion }
func (u *Union) Type() model.Type { return u.Left.Type() }
func (u *Union) Children() []Node { return []Node{u.Left, u.Right} }
func (u *Union) WithChildren(c []Node) Node {
	return &Union{Left: c[0], Right: c[1], All: u.All}
}

// ObjectReference stands for a related entity known only by its key
// columns. Bindings holds the flattened key bindings; a binding may itself
// be an ObjectReference when the key passes through another reference.
type ObjectReference struct {
	T        model.Type
	Bindings []MemberBinding
}

func (*ObjectReference) node()              {}
func (*ObjectReference) Kind() Kind         { return KindObjectReference }
func (o *ObjectReference) Type() model.Type { return o.T }
func (o *ObjectReference) Children() []Node { return bindingExprs(o.Bindings) }
func (o *ObjectReference) WithChildren(c []Node) Node {
	return &ObjectReference{T: o.T, Bindings: rebind(o.Bindings, c)}
}

// FlatBinding is a scalar leaf of an ObjectReference: the property path from
// the reference down to the bound value.
type FlatBinding struct {
	Path PropertyPath
	Expr Node
}

// BindingsFlattened returns the scalar leaves of o depth first. At each
// level bindings follow the primary-key order of the referenced entity;
// bindings that name no key property come last, as declared.
func (o *ObjectReference) BindingsFlattened() []FlatBinding {
	return o.flatten(nil, nil)
}

func (o *ObjectReference) flatten(prefix []*model.PropertyDescriptor, out []FlatBinding) []FlatBinding {
	for _, b := range keyOrdered(o.T, o.Bindings) {
		path := make([]*model.PropertyDescriptor, len(prefix), len(prefix)+1)
		copy(path, prefix)
		path = append(path, bindingProperty(o.T, b))
		if nested, ok := b.Expr.(*ObjectReference); ok {
			out = nested.flatten(path, out)
			continue
		}
		out = append(out, FlatBinding{Path: NewPropertyPath(path...), Expr: b.Expr})
	}
	return out
}

func bindingProperty(t model.Type, b MemberBinding) *model.PropertyDescriptor {
	if b.Property != nil || !t.IsEntity() {
		return b.Property
	}
	p, _ := t.Entity.Property(b.Name)
	return p
}

func keyOrdered(t model.Type, bs []MemberBinding) []MemberBinding {
	if !t.IsEntity() {
		return bs
	}
	out := make([]MemberBinding, 0, len(bs))
	used := make([]bool, len(bs))
	for _, key := range t.Entity.PrimaryKey() {
		for i, b := range bs {
			if !used[i] && b.Name == key.Name {
				used[i] = true
				out = append(out, b)
				break
			}
		}
	}
	for i, b := range bs {
		if !used[i] {
			out = append(out, b)
		}
	}
	return out
}

// StatementList is a batch of statements executed in order.
type StatementList struct {
	Statements []Node
}

func (*StatementList) node()              {}
func (*StatementList) Kind() Kind         { return KindStatementList }
func (*StatementList) Type() model.Type   { return model.VoidType }
func (s *StatementList) Children() []Node { return append([]Node(nil), s.Statements...) }
func (s *StatementList) WithChildren(c []Node) Node {
	return &StatementList{Statements: append([]Node(nil), c...)}
}
