package interp

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
	"github.com/roach88/objsql/internal/qerr"
)

func c(t model.Type, v any) *expr.Constant { return expr.NewConstant(t, v) }

func i32(v int32) *expr.Constant { return c(model.Int32Type, v) }

func str(s string) *expr.Constant { return c(model.StringType, s) }

func bin(op expr.BinaryOp, l, r expr.Node) *expr.Binary { return expr.NewBinary(op, l, r) }

func TestInterpret_ArithmeticPromotion(t *testing.T) {
	rt := NewRecordRuntime()
	tests := []struct {
		name string
		node expr.Node
		want any
	}{
		{"int16 plus uint32 widens to int64", bin(expr.OpAdd, c(model.Int16Type, int16(1)), c(model.Uint32Type, uint32(2))), int64(3)},
		{"uint32 pair stays uint32", bin(expr.OpMultiply, c(model.Uint32Type, uint32(3)), c(model.Uint32Type, uint32(4))), uint32(12)},
		{"uint16 pair stays uint16", bin(expr.OpSubtract, c(model.Uint16Type, uint16(9)), c(model.Uint16Type, uint16(4))), uint16(5)},
		{"uint16 with int8 widens to int32", bin(expr.OpAdd, c(model.Uint16Type, uint16(9)), c(model.Int8Type, int8(-4))), int32(5)},
		{"uint8 pair stays uint8", bin(expr.OpAdd, c(model.Uint8Type, uint8(200)), c(model.Uint8Type, uint8(50))), uint8(250)},
		{"uint8 with int8 widens to int32", bin(expr.OpAdd, c(model.Uint8Type, uint8(200)), c(model.Int8Type, int8(100))), int32(300)},
		{"int8 pair widens to int32", bin(expr.OpAdd, c(model.Int8Type, int8(100)), c(model.Int8Type, int8(100))), int32(200)},
		{"float64 wins over int32", bin(expr.OpDivide, c(model.Float64Type, 1.0), i32(4)), 0.25},
		{"string concatenation", bin(expr.OpAdd, str("a"), i32(1)), "a1"},
		{"integer division truncates", bin(expr.OpDivide, i32(7), i32(2)), int32(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Interpret(tt.node, rt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestInterpret_DecimalArithmetic(t *testing.T) {
	n := bin(expr.OpAdd, c(model.DecimalType, decimal.RequireFromString("1.25")), i32(2))

	v, err := Interpret(n, NewRecordRuntime())
	require.NoError(t, err)
	require.IsType(t, decimal.Decimal{}, v)
	assert.Equal(t, "3.25", v.(decimal.Decimal).String())
}

func TestInterpret_EqualityAndInequality(t *testing.T) {
	rt := NewRecordRuntime()
	tests := []struct {
		name string
		node expr.Node
		want bool
	}{
		{"equal ints", expr.Equal(i32(1), i32(1)), true},
		{"not equal ints", expr.NotEqual(i32(1), i32(2)), true},
		{"not equal same ints", expr.NotEqual(i32(1), i32(1)), false},
		{"equal strings", expr.Equal(str("a"), str("a")), true},
		{"not equal same strings", expr.NotEqual(str("a"), str("a")), false},
		{"mixed numerics promote", expr.Equal(c(model.Int16Type, int16(5)), c(model.Int64Type, int64(5))), true},
		{"null equals null", expr.Equal(expr.Null(model.StringType), expr.Null(model.StringType)), true},
		{"null not equal value", expr.NotEqual(expr.Null(model.StringType), str("x")), true},
		{"objects compare structurally", expr.Equal(c(model.ObjectType, []string{"a"}), c(model.ObjectType, []string{"a"})), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Interpret(tt.node, rt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestInterpret_LogicalShortCircuit(t *testing.T) {
	rt := NewRecordRuntime()
	broken := expr.Field(expr.Null(model.ObjectType), "Missing", model.BoolType)

	v, err := Interpret(expr.AndAlso(expr.False(), broken), rt)
	require.NoError(t, err)
	assert.Equal(t, false, v)

	v, err = Interpret(expr.OrElse(expr.True(), broken), rt)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	_, err = Interpret(expr.AndAlso(expr.True(), broken), rt)
	assert.ErrorIs(t, err, ErrInterpretFailed)
}

func TestInterpret_Bitwise(t *testing.T) {
	rt := NewRecordRuntime()

	v, err := Interpret(bin(expr.OpOr, i32(4), i32(1)), rt)
	require.NoError(t, err)
	assert.Equal(t, int32(5), v)

	v, err = Interpret(bin(expr.OpExclusiveOr, expr.True(), expr.True()), rt)
	require.NoError(t, err)
	assert.Equal(t, false, v)
}

func TestInterpret_MemberAccessFailureIsReported(t *testing.T) {
	rt := NewRecordRuntime()
	rec := c(model.ObjectType, map[string]any{"Name": "ann"})

	v, err := Interpret(expr.Field(rec, "Name", model.StringType), rt)
	require.NoError(t, err)
	assert.Equal(t, "ann", v)

	missing := expr.Field(expr.Field(rec, "Nope", model.ObjectType), "Deeper", model.StringType)
	_, err = Interpret(missing, rt)
	assert.ErrorIs(t, err, ErrInterpretFailed)

	_, err = NewEvaluator(rt).Evaluate(missing)
	assert.True(t, qerr.IsEvaluationFailure(err))
	assert.ErrorIs(t, err, ErrNoMember)
}

func TestInterpret_UnsupportedOperatorFallsBack(t *testing.T) {
	rt := NewRecordRuntime()
	mod := bin(expr.OpModulo, i32(7), i32(3))

	_, err := Interpret(mod, rt)
	assert.ErrorIs(t, err, ErrInterpretFailed)

	v, err := NewEvaluator(rt).Evaluate(mod)
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)

	v, err = NewEvaluator(rt).Evaluate(bin(expr.OpLessThan, i32(1), c(model.Int64Type, int64(2))))
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = NewEvaluator(rt).Evaluate(expr.Not(expr.False()))
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestEvaluate_InvocationErrorIsUnwrapped(t *testing.T) {
	boom := errors.New("boom")
	rt := NewRecordRuntime()
	rt.Register("Explode", func(any, []any) (any, error) { return nil, boom })
	call := &expr.Call{Method: "Explode", T: model.Int32Type}

	_, err := Interpret(call, rt)
	assert.Same(t, boom, err)

	for _, skip := range []bool{false, true} {
		ev := &Evaluator{Runtime: rt, SkipInterpreter: skip}
		_, err := ev.Evaluate(call)
		assert.Same(t, boom, err, "skip interpreter = %v", skip)
	}
}

func TestEvaluate_MemberInitBuildsRecord(t *testing.T) {
	rt := NewRecordRuntime()
	td := model.NewTypeDescriptor("Point", nil)
	x := td.AddProperty(model.PropertyDescriptor{Name: "X", Type: model.Int32Type})
	y := td.AddProperty(model.PropertyDescriptor{Name: "Y", Type: model.Int32Type})
	init := &expr.MemberInit{
		New:      &expr.New{T: model.EntityType(td)},
		Bindings: []expr.MemberBinding{expr.Bind(x, i32(1)), expr.Bind(y, bin(expr.OpAdd, i32(1), i32(1)))},
	}

	for _, skip := range []bool{false, true} {
		v, err := (&Evaluator{Runtime: rt, SkipInterpreter: skip}).Evaluate(init)
		require.NoError(t, err)
		rec := v.(*Record)
		assert.Equal(t, map[string]any{"X": int32(1), "Y": int32(2)}, rec.Fields)
	}

	v, err := Interpret(expr.Field(init, "Y", model.Int32Type), rt)
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)
}

func TestCompile_RejectsSQLNodes(t *testing.T) {
	_, err := Compile(&expr.Table{Name: "People"}, NewRecordRuntime())
	assert.True(t, qerr.IsUnsupported(err))
}

func TestCompile_Parameters(t *testing.T) {
	p := &expr.Parameter{Name: "x", T: model.Int32Type}
	prog, err := Compile(bin(expr.OpMultiply, p, i32(3)), NewRecordRuntime())
	require.NoError(t, err)

	v, err := prog(NewEnv().Bind(p, int32(5)))
	require.NoError(t, err)
	assert.Equal(t, int32(15), v)

	_, err = prog(nil)
	assert.True(t, qerr.IsEvaluationFailure(err))
}

func TestCompile_DivideByZero(t *testing.T) {
	_, err := NewEvaluator(NewRecordRuntime()).Evaluate(bin(expr.OpDivide, i32(1), i32(0)))
	assert.True(t, qerr.IsEvaluationFailure(err))
	assert.ErrorIs(t, err, errDivideByZero)
}

// Both tiers must agree on everything the interpreter accepts.
func TestInterpretAndCompileAgree(t *testing.T) {
	rt := NewRecordRuntime()
	cases := []expr.Node{
		bin(expr.OpAdd, c(model.Uint8Type, uint8(1)), c(model.Int16Type, int16(2))),
		bin(expr.OpSubtract, c(model.Float32Type, float32(1.5)), i32(1)),
		expr.NotEqual(str("x"), str("y")),
		expr.Equal(c(model.Int64Type, int64(3)), i32(3)),
		&expr.Conditional{Test: expr.True(), IfTrue: str("yes"), IfFalse: str("no")},
		expr.Convert(i32(42), model.StringType),
		expr.Convert(c(model.Float64Type, 2.9), model.Int32Type),
		&expr.Call{Object: str("abc"), Method: "ToUpper", T: model.StringType},
		bin(expr.OpAnd, c(model.Int64Type, int64(6)), c(model.Int64Type, int64(3))),
	}
	for _, n := range cases {
		t.Run(expr.Sprint(n), func(t *testing.T) {
			iv, err := Interpret(n, rt)
			require.NoError(t, err)
			prog, err := Compile(n, rt)
			require.NoError(t, err)
			cv, err := prog(nil)
			require.NoError(t, err)
			assert.Equal(t, iv, cv)
		})
	}
}

func TestEvaluate_PanickingMethodRunsOnce(t *testing.T) {
	calls := 0
	rt := NewRecordRuntime()
	rt.Register("Explode", func(any, []any) (any, error) {
		calls++
		panic("kaboom")
	})
	call := &expr.Call{Method: "Explode", T: model.Int32Type}

	for _, skip := range []bool{false, true} {
		calls = 0
		_, err := (&Evaluator{Runtime: rt, SkipInterpreter: skip}).Evaluate(call)
		require.Error(t, err, "skip interpreter = %v", skip)
		assert.Contains(t, err.Error(), "panic: kaboom")
		assert.Equal(t, 1, calls, "skip interpreter = %v", skip)
	}
}

// panickingRuntime panics from Invoke itself instead of reporting an
// InvocationError.
type panickingRuntime struct{ *RecordRuntime }

func (panickingRuntime) Invoke(any, string, []any) (any, error) { panic("runtime bug") }

func TestEvaluate_RecoversRuntimePanicInCompiledTier(t *testing.T) {
	rt := panickingRuntime{NewRecordRuntime()}
	call := &expr.Call{Method: "Anything", T: model.Int32Type}

	var err error
	require.NotPanics(t, func() { _, err = NewEvaluator(rt).Evaluate(call) })
	assert.True(t, qerr.IsEvaluationFailure(err))
	assert.Contains(t, err.Error(), "panic: runtime bug")
}
