package interp

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
)

// Value helpers shared by the interpreter and the compiled evaluator, so
// both produce identical results for every construct they both accept.

var (
	errOperands     = errors.New("operand types not supported by operator")
	errDivideByZero = errors.New("integer divide by zero")
	errNotBool      = errors.New("operand is not a bool")
	errConversion   = errors.New("value cannot be converted")
)

// number is a widened numeric value.
type number struct {
	kind byte // 'i', 'u', 'f', 'd'
	i    int64
	u    uint64
	f    float64
	d    decimal.Decimal
}

func asNumber(v any) (number, bool) {
	switch x := v.(type) {
	case int8:
		return number{kind: 'i', i: int64(x)}, true
	case int16:
		return number{kind: 'i', i: int64(x)}, true
	case int32:
		return number{kind: 'i', i: int64(x)}, true
	case int64:
		return number{kind: 'i', i: x}, true
	case int:
		return number{kind: 'i', i: int64(x)}, true
	case uint8:
		return number{kind: 'u', u: uint64(x)}, true
	case uint16:
		return number{kind: 'u', u: uint64(x)}, true
	case uint32:
		return number{kind: 'u', u: uint64(x)}, true
	case uint64:
		return number{kind: 'u', u: x}, true
	case float32:
		return number{kind: 'f', f: float64(x)}, true
	case float64:
		return number{kind: 'f', f: x}, true
	case decimal.Decimal:
		return number{kind: 'd', d: x}, true
	}
	return number{}, false
}

func (n number) int64() int64 {
	switch n.kind {
	case 'u':
		return int64(n.u)
	case 'f':
		return int64(n.f)
	case 'd':
		return n.d.IntPart()
	}
	return n.i
}

func (n number) uint64() uint64 {
	switch n.kind {
	case 'i':
		return uint64(n.i)
	case 'f':
		return uint64(n.f)
	case 'd':
		return uint64(n.d.IntPart())
	}
	return n.u
}

func (n number) float64() float64 {
	switch n.kind {
	case 'i':
		return float64(n.i)
	case 'u':
		return float64(n.u)
	case 'd':
		return n.d.InexactFloat64()
	}
	return n.f
}

func (n number) decimal() decimal.Decimal {
	switch n.kind {
	case 'i':
		return decimal.NewFromInt(n.i)
	case 'u':
		return decimal.NewFromBigInt(new(big.Int).SetUint64(n.u), 0)
	case 'f':
		return decimal.NewFromFloat(n.f)
	}
	return n.d
}

// convertValue converts v to the Go representation of kind k. nil converts
// to nil.
func convertValue(v any, k model.Kind) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch k {
	case model.Object:
		return v, nil
	case model.String:
		switch x := v.(type) {
		case string:
			return x, nil
		case fmt.Stringer:
			return x.String(), nil
		case bool:
			return strconv.FormatBool(x), nil
		}
		if n, ok := asNumber(v); ok {
			switch n.kind {
			case 'i':
				return strconv.FormatInt(n.i, 10), nil
			case 'u':
				return strconv.FormatUint(n.u, 10), nil
			case 'f':
				return strconv.FormatFloat(n.f, 'g', -1, 64), nil
			}
		}
		return nil, fmt.Errorf("%w: %T to %s", errConversion, v, k)
	case model.Bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("%w: %T to %s", errConversion, v, k)
	case model.UUID:
		switch x := v.(type) {
		case uuid.UUID:
			return x, nil
		case string:
			id, err := uuid.Parse(x)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", errConversion, err)
			}
			return id, nil
		}
		return nil, fmt.Errorf("%w: %T to %s", errConversion, v, k)
	case model.Time:
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
		return nil, fmt.Errorf("%w: %T to %s", errConversion, v, k)
	}

	n, ok := asNumber(v)
	if !ok {
		return nil, fmt.Errorf("%w: %T to %s", errConversion, v, k)
	}
	switch k {
	case model.Int8:
		return int8(n.int64()), nil
	case model.Uint8:
		return uint8(n.uint64()), nil
	case model.Int16:
		return int16(n.int64()), nil
	case model.Uint16:
		return uint16(n.uint64()), nil
	case model.Int32:
		return int32(n.int64()), nil
	case model.Uint32:
		return uint32(n.uint64()), nil
	case model.Int64:
		return n.int64(), nil
	case model.Uint64:
		return n.uint64(), nil
	case model.Float32:
		return float32(n.float64()), nil
	case model.Float64:
		return n.float64(), nil
	case model.Decimal:
		return n.decimal(), nil
	}
	return nil, fmt.Errorf("%w: %T to %s", errConversion, v, k)
}

type integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func intArith[T integer](op expr.BinaryOp, a, b T) (any, error) {
	switch op {
	case expr.OpAdd:
		return a + b, nil
	case expr.OpSubtract:
		return a - b, nil
	case expr.OpMultiply:
		return a * b, nil
	case expr.OpDivide:
		if b == 0 {
			return nil, errDivideByZero
		}
		return a / b, nil
	case expr.OpModulo:
		if b == 0 {
			return nil, errDivideByZero
		}
		return a % b, nil
	}
	return nil, errOperands
}

func floatArith[T float32 | float64](op expr.BinaryOp, a, b T) (any, error) {
	switch op {
	case expr.OpAdd:
		return a + b, nil
	case expr.OpSubtract:
		return a - b, nil
	case expr.OpMultiply:
		return a * b, nil
	case expr.OpDivide:
		return a / b, nil
	case expr.OpModulo:
		return T(math.Mod(float64(a), float64(b))), nil
	}
	return nil, errOperands
}

// arithmetic applies an arithmetic operator after promoting both operands
// along the model.Promote ladder. A nil operand yields nil.
func arithmetic(op expr.BinaryOp, lk, rk model.Kind, l, r any) (any, error) {
	k, ok := model.Promote(lk, rk)
	if !ok {
		return nil, errOperands
	}
	if l == nil || r == nil {
		return nil, nil
	}
	lv, err := convertValue(l, k)
	if err != nil {
		return nil, err
	}
	rv, err := convertValue(r, k)
	if err != nil {
		return nil, err
	}
	switch a := lv.(type) {
	case string:
		if op != expr.OpAdd {
			return nil, errOperands
		}
		return a + rv.(string), nil
	case decimal.Decimal:
		b := rv.(decimal.Decimal)
		switch op {
		case expr.OpAdd:
			return a.Add(b), nil
		case expr.OpSubtract:
			return a.Sub(b), nil
		case expr.OpMultiply:
			return a.Mul(b), nil
		case expr.OpDivide:
			if b.IsZero() {
				return nil, errDivideByZero
			}
			return a.Div(b), nil
		case expr.OpModulo:
			if b.IsZero() {
				return nil, errDivideByZero
			}
			return a.Mod(b), nil
		}
		return nil, errOperands
	case float64:
		return floatArith(op, a, rv.(float64))
	case float32:
		return floatArith(op, a, rv.(float32))
	case int64:
		return intArith(op, a, rv.(int64))
	case uint32:
		return intArith(op, a, rv.(uint32))
	case int32:
		return intArith(op, a, rv.(int32))
	case uint16:
		return intArith(op, a, rv.(uint16))
	case int16:
		return intArith(op, a, rv.(int16))
	case uint8:
		return intArith(op, a, rv.(uint8))
	}
	return nil, errOperands
}

// bitwise applies And, Or or ExclusiveOr. Two bools combine logically
// without short-circuit; integers are widened to int64 and the result is
// converted to the node's type.
func bitwise(op expr.BinaryOp, result model.Kind, l, r any) (any, error) {
	if lb, ok := l.(bool); ok {
		rb, ok := r.(bool)
		if !ok {
			return nil, errOperands
		}
		switch op {
		case expr.OpAnd:
			return lb && rb, nil
		case expr.OpOr:
			return lb || rb, nil
		default:
			return lb != rb, nil
		}
	}
	ln, lok := asNumber(l)
	rn, rok := asNumber(r)
	if !lok || !rok || ln.kind == 'f' || ln.kind == 'd' || rn.kind == 'f' || rn.kind == 'd' {
		return nil, errOperands
	}
	a, b := ln.int64(), rn.int64()
	var v int64
	switch op {
	case expr.OpAnd:
		v = a & b
	case expr.OpOr:
		v = a | b
	default:
		v = a ^ b
	}
	return convertValue(v, result)
}

// equalValues implements Equal: direct comparison for identical primitive
// representations, promoted comparison for mixed numerics, and generic
// structural equality otherwise.
func equalValues(lk, rk model.Kind, l, r any) (bool, error) {
	if l == nil || r == nil {
		return l == nil && r == nil, nil
	}
	switch a := l.(type) {
	case bool:
		if b, ok := r.(bool); ok {
			return a == b, nil
		}
	case string:
		if b, ok := r.(string); ok {
			return a == b, nil
		}
	case int16:
		if b, ok := r.(int16); ok {
			return a == b, nil
		}
	case int32:
		if b, ok := r.(int32); ok {
			return a == b, nil
		}
	case int64:
		if b, ok := r.(int64); ok {
			return a == b, nil
		}
	case uuid.UUID:
		if b, ok := r.(uuid.UUID); ok {
			return a == b, nil
		}
	case time.Time:
		if b, ok := r.(time.Time); ok {
			return a.Equal(b), nil
		}
	case decimal.Decimal:
		if b, ok := r.(decimal.Decimal); ok {
			return a.Equal(b), nil
		}
	}
	if lk.IsNumeric() && rk.IsNumeric() {
		c, err := compareNumbers(lk, rk, l, r)
		if err != nil {
			return false, err
		}
		return c == 0, nil
	}
	if lk == rk || lk == model.Object || rk == model.Object {
		return reflect.DeepEqual(l, r), nil
	}
	return false, errOperands
}

func compareNumbers(lk, rk model.Kind, l, r any) (int, error) {
	k, ok := model.Promote(lk, rk)
	if !ok {
		if lk == model.Uint64 && rk == model.Uint64 {
			k = model.Uint64
		} else {
			return 0, errOperands
		}
	}
	lv, err := convertValue(l, k)
	if err != nil {
		return 0, err
	}
	rv, err := convertValue(r, k)
	if err != nil {
		return 0, err
	}
	ln, _ := asNumber(lv)
	rn, _ := asNumber(rv)
	switch ln.kind {
	case 'd':
		return ln.d.Cmp(rn.d), nil
	case 'f':
		return cmp3(ln.f, rn.f), nil
	case 'u':
		return cmp3(ln.u, rn.u), nil
	}
	return cmp3(ln.i, rn.i), nil
}

func cmp3[T int64 | uint64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// compareValues implements the ordering operators. NULL operands compare
// false, matching SQL.
func compareValues(op expr.BinaryOp, lk, rk model.Kind, l, r any) (bool, error) {
	if l == nil || r == nil {
		return false, nil
	}
	var c int
	switch a := l.(type) {
	case string:
		b, ok := r.(string)
		if !ok {
			return false, errOperands
		}
		c = cmp3(a, b)
	case time.Time:
		b, ok := r.(time.Time)
		if !ok {
			return false, errOperands
		}
		c = a.Compare(b)
	default:
		var err error
		if c, err = compareNumbers(lk, rk, l, r); err != nil {
			return false, err
		}
	}
	switch op {
	case expr.OpLessThan:
		return c < 0, nil
	case expr.OpLessThanOrEqual:
		return c <= 0, nil
	case expr.OpGreaterThan:
		return c > 0, nil
	case expr.OpGreaterThanOrEqual:
		return c >= 0, nil
	}
	return false, errOperands
}

func negate(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case int8:
		return -x, nil
	case int16:
		return -x, nil
	case int32:
		return -x, nil
	case int64:
		return -x, nil
	case float32:
		return -x, nil
	case float64:
		return -x, nil
	case decimal.Decimal:
		return x.Neg(), nil
	}
	return nil, errOperands
}
