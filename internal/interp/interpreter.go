package interp

import (
	"errors"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
)

// ErrInterpretFailed signals that the interpreter does not handle the
// expression. It is not a user-facing error; callers fall back to Compile.
var ErrInterpretFailed = errors.New("expression not interpretable")

// Interpret evaluates a closed expression by walking the tree.
//
// Supported: Constant, New, MemberInit, MemberAccess, Call, Conditional,
// Convert, and the Binary operators AndAlso, OrElse, And, Or, ExclusiveOr,
// Equal, NotEqual, Add, Subtract, Multiply and Divide. Anything else, and any
// failure along the way, returns ErrInterpretFailed; the one exception is a
// failure raised inside an invoked method, which is returned as the
// method's own error.
func Interpret(n expr.Node, rt Runtime) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, ErrInterpretFailed
		}
	}()
	in := &interpreter{rt: rt}
	v, err = in.visit(n)
	if err != nil {
		var ie *InvocationError
		if errors.As(err, &ie) {
			return nil, ie.Err
		}
		return nil, ErrInterpretFailed
	}
	return v, nil
}

type interpreter struct {
	rt Runtime
}

// failed keeps invocation faults and collapses everything else.
func failed(err error) error {
	var ie *InvocationError
	if errors.As(err, &ie) {
		return err
	}
	return ErrInterpretFailed
}

func (in *interpreter) visitAll(ns []expr.Node) ([]any, error) {
	out := make([]any, len(ns))
	for i, n := range ns {
		v, err := in.visit(n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (in *interpreter) visit(n expr.Node) (any, error) {
	switch x := n.(type) {
	case *expr.Constant:
		return x.Value, nil

	case *expr.New:
		args, err := in.visitAll(x.Args)
		if err != nil {
			return nil, err
		}
		v, err := in.rt.New(x.T, args)
		if err != nil {
			return nil, failed(err)
		}
		return v, nil

	case *expr.MemberInit:
		obj, err := in.visit(x.New)
		if err != nil {
			return nil, err
		}
		for _, b := range x.Bindings {
			v, err := in.visit(b.Expr)
			if err != nil {
				return nil, err
			}
			if err := in.rt.SetMember(obj, b.Name, v); err != nil {
				return nil, failed(err)
			}
		}
		return obj, nil

	case *expr.MemberAccess:
		if x.Target == nil {
			return nil, ErrInterpretFailed
		}
		parent, err := in.visit(x.Target)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, ErrInterpretFailed
		}
		v, err := in.rt.Member(parent, x.Name)
		if err != nil {
			return nil, failed(err)
		}
		return v, nil

	case *expr.Call:
		var obj any
		if x.Object != nil {
			var err error
			if obj, err = in.visit(x.Object); err != nil {
				return nil, err
			}
		}
		args, err := in.visitAll(x.Args)
		if err != nil {
			return nil, err
		}
		v, err := in.rt.Invoke(obj, x.Method, args)
		if err != nil {
			return nil, failed(err)
		}
		return v, nil

	case *expr.Conditional:
		test, err := in.visit(x.Test)
		if err != nil {
			return nil, err
		}
		b, ok := test.(bool)
		if !ok {
			return nil, ErrInterpretFailed
		}
		if b {
			return in.visit(x.IfTrue)
		}
		return in.visit(x.IfFalse)

	case *expr.Unary:
		if x.Op != expr.OpConvert {
			return nil, ErrInterpretFailed
		}
		v, err := in.visit(x.Operand)
		if err != nil {
			return nil, err
		}
		out, err := convertValue(v, x.T.Kind)
		if err != nil {
			return nil, ErrInterpretFailed
		}
		return out, nil

	case *expr.Binary:
		return in.binary(x)
	}
	return nil, ErrInterpretFailed
}

func (in *interpreter) binary(b *expr.Binary) (any, error) {
	switch b.Op {
	case expr.OpAndAlso, expr.OpOrElse:
		l, err := in.visit(b.Left)
		if err != nil {
			return nil, err
		}
		lb, ok := l.(bool)
		if !ok {
			return nil, ErrInterpretFailed
		}
		if (b.Op == expr.OpAndAlso && !lb) || (b.Op == expr.OpOrElse && lb) {
			return lb, nil
		}
		r, err := in.visit(b.Right)
		if err != nil {
			return nil, err
		}
		rb, ok := r.(bool)
		if !ok {
			return nil, ErrInterpretFailed
		}
		return rb, nil
	}

	switch b.Op {
	case expr.OpAnd, expr.OpOr, expr.OpExclusiveOr,
		expr.OpEqual, expr.OpNotEqual,
		expr.OpAdd, expr.OpSubtract, expr.OpMultiply, expr.OpDivide:
	default:
		return nil, ErrInterpretFailed
	}

	l, err := in.visit(b.Left)
	if err != nil {
		return nil, err
	}
	r, err := in.visit(b.Right)
	if err != nil {
		return nil, err
	}
	lk, rk := b.Left.Type().Kind, b.Right.Type().Kind

	var v any
	switch b.Op {
	case expr.OpAnd, expr.OpOr, expr.OpExclusiveOr:
		v, err = bitwise(b.Op, b.T.Kind, l, r)
	case expr.OpEqual, expr.OpNotEqual:
		if b.T.Kind != model.Bool {
			return nil, ErrInterpretFailed
		}
		var eq bool
		eq, err = equalValues(lk, rk, l, r)
		v = eq == (b.Op == expr.OpEqual)
	default:
		v, err = arithmetic(b.Op, lk, rk, l, r)
	}
	if err != nil {
		return nil, ErrInterpretFailed
	}
	return v, nil
}
