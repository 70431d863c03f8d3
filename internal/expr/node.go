package expr

import (
	"fmt"

	"github.com/roach88/objsql/internal/model"
)

// Node is an immutable expression tree node.
//
// This is a sealed interface; only types in this package implement it.
type Node interface {
	Kind() Kind
	Type() model.Type

	// Children returns the direct child slots in a fixed order. Empty
	// optional slots are nil entries.
	Children() []Node

	// WithChildren returns a node of the same kind whose child slots are
	// replaced by children, which must have the layout Children returned.
	// Slots that require a specific node type panic on a mismatch.
	WithChildren(children []Node) Node

	node()
}

func slot[T Node](n Node, owner Kind, what string) T {
	var zero T
	if n == nil {
		return zero
	}
	t, ok := n.(T)
	if !ok {
		panic(fmt.Sprintf("expr: %s.%s requires %T, got %s", owner, what, zero, n.Kind()))
	}
	return t
}

func nodes[T Node](in []Node, owner Kind, what string) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, n := range in {
		out[i] = slot[T](n, owner, what)
	}
	return out
}

func upcast[T Node](in []T) []Node {
	out := make([]Node, len(in))
	for i, n := range in {
		out[i] = n
	}
	return out
}

// Constant is a literal value. Value is nil for SQL NULL.
type Constant struct {
	T     model.Type
	Value any
}

func (*Constant) node()                      {}
func (*Constant) Kind() Kind                 { return KindConstant }
func (c *Constant) Type() model.Type         { return c.T }
func (*Constant) Children() []Node           { return nil }
func (c *Constant) WithChildren([]Node) Node { return c }

// IsNull reports whether c is the NULL literal.
func (c *Constant) IsNull() bool { return c.Value == nil }

// NewConstant builds a constant of the given type.
func NewConstant(t model.Type, v any) *Constant {
	return &Constant{T: t, Value: v}
}

// Null returns a typed NULL literal.
func Null(t model.Type) *Constant {
	return &Constant{T: t}
}

// True and False return boolean literals.
func True() *Constant  { return &Constant{T: model.BoolType, Value: true} }
func False() *Constant { return &Constant{T: model.BoolType, Value: false} }

// Parameter is a lambda parameter or a free variable bound at evaluation
// time. Parameters compare by identity.
type Parameter struct {
	Name string
	T    model.Type
}

func (*Parameter) node()                      {}
func (*Parameter) Kind() Kind                 { return KindParameter }
func (p *Parameter) Type() model.Type         { return p.T }
func (*Parameter) Children() []Node           { return nil }
func (p *Parameter) WithChildren([]Node) Node { return p }

// MemberAccess reads a member of Target. Property is set when the member is
// a persisted property of an entity.
type MemberAccess struct {
	Target   Node
	Name     string
	Property *model.PropertyDescriptor
	T        model.Type
}

func (*MemberAccess) node()              {}
func (*MemberAccess) Kind() Kind         { return KindMemberAccess }
func (m *MemberAccess) Type() model.Type { return m.T }
func (m *MemberAccess) Children() []Node { return []Node{m.Target} }
func (m *MemberAccess) WithChildren(c []Node) Node {
	cp := *m
	cp.Target = c[0]
	return &cp
}

// Member builds an access to a persisted property.
func Member(target Node, p *model.PropertyDescriptor) *MemberAccess {
	return &MemberAccess{Target: target, Name: p.Name, Property: p, T: p.Type}
}

// Field builds an access to a non-persisted member.
func Field(target Node, name string, t model.Type) *MemberAccess {
	return &MemberAccess{Target: target, Name: name, T: t}
}

// New constructs a value of type T from positional arguments.
type New struct {
	T    model.Type
	Args []Node
}

func (*New) node()              {}
func (*New) Kind() Kind         { return KindNew }
func (n *New) Type() model.Type { return n.T }
func (n *New) Children() []Node { return append([]Node(nil), n.Args...) }
func (n *New) WithChildren(c []Node) Node {
	return &New{T: n.T, Args: append([]Node(nil), c...)}
}

// MemberBinding assigns Expr to one member of a constructed object.
type MemberBinding struct {
	Name     string
	Property *model.PropertyDescriptor
	Expr     Node
}

// Bind builds a binding for a persisted property.
func Bind(p *model.PropertyDescriptor, e Node) MemberBinding {
	return MemberBinding{Name: p.Name, Property: p, Expr: e}
}

func bindingExprs(bs []MemberBinding) []Node {
	out := make([]Node, len(bs))
	for i, b := range bs {
		out[i] = b.Expr
	}
	return out
}

func rebind(bs []MemberBinding, exprs []Node) []MemberBinding {
	out := make([]MemberBinding, len(bs))
	for i, b := range bs {
		b.Expr = exprs[i]
		out[i] = b
	}
	return out
}

// MemberInit constructs an object and assigns members.
type MemberInit struct {
	New      *New
	Bindings []MemberBinding
}

func (*MemberInit) node()              {}
func (*MemberInit) Kind() Kind         { return KindMemberInit }
func (m *MemberInit) Type() model.Type { return m.New.T }
func (m *MemberInit) Children() []Node {
	return append([]Node{m.New}, bindingExprs(m.Bindings)...)
}
func (m *MemberInit) WithChildren(c []Node) Node {
	return &MemberInit{
		New:      slot[*New](c[0], KindMemberInit, "New"),
		Bindings: rebind(m.Bindings, c[1:]),
	}
}

// Binding returns the binding for the named member.
func (m *MemberInit) Binding(name string) (MemberBinding, bool) {
	for _, b := range m.Bindings {
		if b.Name == name {
			return b, true
		}
	}
	return MemberBinding{}, false
}

// Binary applies Op to Left and Right.
type Binary struct {
	Op    BinaryOp
	Left  Node
	Right Node
	T     model.Type
}

func (*Binary) node()              {}
func (*Binary) Kind() Kind         { return KindBinary }
func (b *Binary) Type() model.Type { return b.T }
func (b *Binary) Children() []Node { return []Node{b.Left, b.Right} }
func (b *Binary) WithChildren(c []Node) Node {
	return &Binary{Op: b.Op, Left: c[0], Right: c[1], T: b.T}
}

// NewBinary builds a Binary and infers its type: comparisons and logical
// operators yield bool, bitwise operators on two bools yield bool, and
// arithmetic yields the promoted operand kind.
func NewBinary(op BinaryOp, left, right Node) *Binary {
	return &Binary{Op: op, Left: left, Right: right, T: binaryType(op, left.Type(), right.Type())}
}

func binaryType(op BinaryOp, l, r model.Type) model.Type {
	switch {
	case op.IsComparison(), op == OpAndAlso, op == OpOrElse:
		return model.BoolType
	case (op == OpAnd || op == OpOr || op == OpExclusiveOr) && l.Kind == model.Bool && r.Kind == model.Bool:
		return model.BoolType
	}
	if k, ok := model.Promote(l.Kind, r.Kind); ok {
		return model.Scalar(k)
	}
	return l
}

// Equal, AndAlso and OrElse are shorthands for NewBinary.
func Equal(l, r Node) *Binary    { return NewBinary(OpEqual, l, r) }
func NotEqual(l, r Node) *Binary { return NewBinary(OpNotEqual, l, r) }
func AndAlso(l, r Node) *Binary  { return NewBinary(OpAndAlso, l, r) }
func OrElse(l, r Node) *Binary   { return NewBinary(OpOrElse, l, r) }

// Unary applies Op to Operand. For OpConvert, T is the target type.
type Unary struct {
	Op      UnaryOp
	Operand Node
	T       model.Type
}

func (*Unary) node()              {}
func (*Unary) Kind() Kind         { return KindUnary }
func (u *Unary) Type() model.Type { return u.T }
func (u *Unary) Children() []Node { return []Node{u.Operand} }
func (u *Unary) WithChildren(c []Node) Node {
	return &Unary{Op: u.Op, Operand: c[0], T: u.T}
}

// Not negates a boolean operand.
func Not(n Node) *Unary {
	return &Unary{Op: OpNot, Operand: n, T: model.BoolType}
}

// Convert casts n to t.
func Convert(n Node, t model.Type) *Unary {
	return &Unary{Op: OpConvert, Operand: n, T: t}
}

// Conditional is a ternary expression; its type is the IfTrue branch's.
type Conditional struct {
	Test    Node
	IfTrue  Node
	IfFalse Node
}

func (*Conditional) node()              {}
func (*Conditional) Kind() Kind         { return KindConditional }
func (c *Conditional) Type() model.Type { return c.IfTrue.Type() }
func (c *Conditional) Children() []Node { return []Node{c.Test, c.IfTrue, c.IfFalse} }
func (c *Conditional) WithChildren(ch []Node) Node {
	return &Conditional{Test: ch[0], IfTrue: ch[1], IfFalse: ch[2]}
}

// IncludeMethod is the method name of eager-load directives.
const IncludeMethod = "Include"

// Call invokes Method on Object (nil for static calls).
type Call struct {
	Object Node
	Method string
	Args   []Node
	T      model.Type
}

func (*Call) node()              {}
func (*Call) Kind() Kind         { return KindCall }
func (c *Call) Type() model.Type { return c.T }
func (c *Call) Children() []Node { return append([]Node{c.Object}, c.Args...) }
func (c *Call) WithChildren(ch []Node) Node {
	return &Call{Object: ch[0], Method: c.Method, Args: append([]Node(nil), ch[1:]...), T: c.T}
}

// IsInclude reports whether c is an eager-load directive.
func (c *Call) IsInclude() bool {
	return c.Object == nil && c.Method == IncludeMethod && len(c.Args) == 2
}

// Include builds an eager-load directive: source.Include(selector). Its
// value is source itself.
func Include(source Node, selector *Lambda) *Call {
	return &Call{Method: IncludeMethod, Args: []Node{source, selector}, T: source.Type()}
}

// Lambda is an anonymous function. Params are not child slots.
type Lambda struct {
	Params []*Parameter
	Body   Node
}

func (*Lambda) node()              {}
func (*Lambda) Kind() Kind         { return KindLambda }
func (l *Lambda) Type() model.Type { return l.Body.Type() }
func (l *Lambda) Children() []Node { return []Node{l.Body} }
func (l *Lambda) WithChildren(c []Node) Node {
	return &Lambda{Params: l.Params, Body: c[0]}
}

// NewLambda builds a lambda over params.
func NewLambda(body Node, params ...*Parameter) *Lambda {
	return &Lambda{Params: params, Body: body}
}
