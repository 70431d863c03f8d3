package interp

import (
	"errors"
	"fmt"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/qerr"
)

// Env binds free parameters for a compiled Program.
type Env struct {
	values map[*expr.Parameter]any
}

// NewEnv returns an empty environment.
func NewEnv() *Env {
	return &Env{values: make(map[*expr.Parameter]any)}
}

// Bind sets the value of p and returns e.
func (e *Env) Bind(p *expr.Parameter, v any) *Env {
	e.values[p] = v
	return e
}

func (e *Env) lookup(p *expr.Parameter) (any, bool) {
	if e == nil {
		return nil, false
	}
	v, ok := e.values[p]
	return v, ok
}

// Program is a compiled expression. It accepts a superset of what Interpret
// handles: parameters, Not, Negate, Modulo and the ordering comparisons.
type Program func(env *Env) (any, error)

// Compile turns n into a Program using closure composition. Node kinds that
// have no client-side meaning (SQL nodes, lambdas) are rejected here as
// unsupported constructs.
func Compile(n expr.Node, rt Runtime) (Program, error) {
	c := &compiler{rt: rt}
	return c.compile(n)
}

type compiler struct {
	rt Runtime
}

// fault converts a runtime failure into the error a Program returns:
// invocation faults unwrap to the method's own error, everything else
// becomes an evaluation failure.
func fault(n expr.Node, err error) error {
	var ie *InvocationError
	if errors.As(err, &ie) {
		return ie.Err
	}
	return qerr.EvaluationFailure(err, "evaluate %s", n.Kind())
}

func (c *compiler) compileAll(ns []expr.Node) ([]Program, error) {
	out := make([]Program, len(ns))
	for i, n := range ns {
		p, err := c.compile(n)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func runAll(env *Env, ps []Program) ([]any, error) {
	out := make([]any, len(ps))
	for i, p := range ps {
		v, err := p(env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *compiler) compile(n expr.Node) (Program, error) {
	switch x := n.(type) {
	case *expr.Constant:
		v := x.Value
		return func(*Env) (any, error) { return v, nil }, nil

	case *expr.Parameter:
		return func(env *Env) (any, error) {
			v, ok := env.lookup(x)
			if !ok {
				return nil, qerr.EvaluationFailure(nil, "parameter %s is not bound", x.Name)
			}
			return v, nil
		}, nil

	case *expr.New:
		args, err := c.compileAll(x.Args)
		if err != nil {
			return nil, err
		}
		return func(env *Env) (any, error) {
			vs, err := runAll(env, args)
			if err != nil {
				return nil, err
			}
			v, err := c.rt.New(x.T, vs)
			if err != nil {
				return nil, fault(x, err)
			}
			return v, nil
		}, nil

	case *expr.MemberInit:
		newP, err := c.compile(x.New)
		if err != nil {
			return nil, err
		}
		values := make([]Program, len(x.Bindings))
		for i, b := range x.Bindings {
			if values[i], err = c.compile(b.Expr); err != nil {
				return nil, err
			}
		}
		return func(env *Env) (any, error) {
			obj, err := newP(env)
			if err != nil {
				return nil, err
			}
			for i, b := range x.Bindings {
				v, err := values[i](env)
				if err != nil {
					return nil, err
				}
				if err := c.rt.SetMember(obj, b.Name, v); err != nil {
					return nil, fault(x, err)
				}
			}
			return obj, nil
		}, nil

	case *expr.MemberAccess:
		if x.Target == nil {
			return nil, qerr.Unsupported("MemberAccess", "member %s has no target", x.Name)
		}
		target, err := c.compile(x.Target)
		if err != nil {
			return nil, err
		}
		return func(env *Env) (any, error) {
			obj, err := target(env)
			if err != nil {
				return nil, err
			}
			if obj == nil {
				return nil, qerr.EvaluationFailure(nil, "member %s of nil value", x.Name)
			}
			v, err := c.rt.Member(obj, x.Name)
			if err != nil {
				return nil, fault(x, err)
			}
			return v, nil
		}, nil

	case *expr.Call:
		var object Program
		if x.Object != nil {
			var err error
			if object, err = c.compile(x.Object); err != nil {
				return nil, err
			}
		}
		args, err := c.compileAll(x.Args)
		if err != nil {
			return nil, err
		}
		return func(env *Env) (any, error) {
			var obj any
			if object != nil {
				var err error
				if obj, err = object(env); err != nil {
					return nil, err
				}
			}
			vs, err := runAll(env, args)
			if err != nil {
				return nil, err
			}
			v, err := c.rt.Invoke(obj, x.Method, vs)
			if err != nil {
				return nil, fault(x, err)
			}
			return v, nil
		}, nil

	case *expr.Conditional:
		ps, err := c.compileAll([]expr.Node{x.Test, x.IfTrue, x.IfFalse})
		if err != nil {
			return nil, err
		}
		return func(env *Env) (any, error) {
			t, err := ps[0](env)
			if err != nil {
				return nil, err
			}
			b, ok := t.(bool)
			if !ok {
				return nil, fault(x, errNotBool)
			}
			if b {
				return ps[1](env)
			}
			return ps[2](env)
		}, nil

	case *expr.Unary:
		return c.unary(x)

	case *expr.Binary:
		return c.binary(x)
	}
	return nil, qerr.Unsupported(n.Kind().String(), "cannot be evaluated client-side")
}

func (c *compiler) unary(u *expr.Unary) (Program, error) {
	operand, err := c.compile(u.Operand)
	if err != nil {
		return nil, err
	}
	return func(env *Env) (any, error) {
		v, err := operand(env)
		if err != nil {
			return nil, err
		}
		var out any
		switch u.Op {
		case expr.OpConvert:
			out, err = convertValue(v, u.T.Kind)
		case expr.OpNot:
			b, ok := v.(bool)
			if !ok {
				err = errNotBool
			}
			out = !b
		case expr.OpNegate:
			out, err = negate(v)
		default:
			err = fmt.Errorf("unknown unary operator %s", u.Op)
		}
		if err != nil {
			return nil, fault(u, err)
		}
		return out, nil
	}, nil
}

func (c *compiler) binary(b *expr.Binary) (Program, error) {
	left, err := c.compile(b.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.compile(b.Right)
	if err != nil {
		return nil, err
	}
	lk, rk := b.Left.Type().Kind, b.Right.Type().Kind

	if b.Op == expr.OpAndAlso || b.Op == expr.OpOrElse {
		return func(env *Env) (any, error) {
			l, err := left(env)
			if err != nil {
				return nil, err
			}
			lb, ok := l.(bool)
			if !ok {
				return nil, fault(b, errNotBool)
			}
			if (b.Op == expr.OpAndAlso && !lb) || (b.Op == expr.OpOrElse && lb) {
				return lb, nil
			}
			r, err := right(env)
			if err != nil {
				return nil, err
			}
			rb, ok := r.(bool)
			if !ok {
				return nil, fault(b, errNotBool)
			}
			return rb, nil
		}, nil
	}

	return func(env *Env) (any, error) {
		l, err := left(env)
		if err != nil {
			return nil, err
		}
		r, err := right(env)
		if err != nil {
			return nil, err
		}
		var v any
		switch {
		case b.Op == expr.OpAnd || b.Op == expr.OpOr || b.Op == expr.OpExclusiveOr:
			v, err = bitwise(b.Op, b.T.Kind, l, r)
		case b.Op == expr.OpEqual || b.Op == expr.OpNotEqual:
			var eq bool
			eq, err = equalValues(lk, rk, l, r)
			v = eq == (b.Op == expr.OpEqual)
		case b.Op.IsComparison():
			v, err = compareValues(b.Op, lk, rk, l, r)
		case b.Op.IsArithmetic():
			v, err = arithmetic(b.Op, lk, rk, l, r)
		default:
			err = fmt.Errorf("unknown binary operator %s", b.Op)
		}
		if err != nil {
			return nil, fault(b, err)
		}
		return v, nil
	}, nil
}
