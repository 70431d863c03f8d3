package harness

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
)

// constantFor converts a YAML scalar into a constant of type t.
//
// YAML yields int, float64, string, bool or nil. Integers are range
// checked against the target kind; UUIDs, decimals and times are parsed
// from strings (times as RFC 3339).
func constantFor(t model.Type, v any) (*expr.Constant, error) {
	if v == nil {
		return expr.NewConstant(t, nil), nil
	}
	val, err := convert(t.Kind, v)
	if err != nil {
		return nil, err
	}
	return expr.NewConstant(t, val), nil
}

func convert(k model.Kind, v any) (any, error) {
	switch k {
	case model.Bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case model.String:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case model.Float32, model.Float64:
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case int:
			f = float64(n)
		default:
			return nil, mismatch(k, v)
		}
		if k == model.Float32 {
			return float32(f), nil
		}
		return f, nil
	case model.Decimal:
		switch n := v.(type) {
		case string:
			return decimal.NewFromString(n)
		case int:
			return decimal.NewFromInt(int64(n)), nil
		case float64:
			return decimal.NewFromFloat(n), nil
		}
	case model.UUID:
		if s, ok := v.(string); ok {
			return uuid.Parse(s)
		}
	case model.Time:
		switch n := v.(type) {
		case string:
			return time.Parse(time.RFC3339, n)
		case time.Time:
			return n, nil
		}
	default:
		if k.IsInteger() {
			n, ok := v.(int)
			if !ok {
				return nil, mismatch(k, v)
			}
			return integer(k, int64(n))
		}
	}
	return nil, mismatch(k, v)
}

func integer(k model.Kind, n int64) (any, error) {
	inRange := func(lo, hi int64) bool { return n >= lo && n <= hi }
	switch k {
	case model.Int8:
		if inRange(math.MinInt8, math.MaxInt8) {
			return int8(n), nil
		}
	case model.Uint8:
		if inRange(0, math.MaxUint8) {
			return uint8(n), nil
		}
	case model.Int16:
		if inRange(math.MinInt16, math.MaxInt16) {
			return int16(n), nil
		}
	case model.Uint16:
		if inRange(0, math.MaxUint16) {
			return uint16(n), nil
		}
	case model.Int32:
		if inRange(math.MinInt32, math.MaxInt32) {
			return int32(n), nil
		}
	case model.Uint32:
		if inRange(0, math.MaxUint32) {
			return uint32(n), nil
		}
	case model.Int64:
		return n, nil
	case model.Uint64:
		if n >= 0 {
			return uint64(n), nil
		}
	}
	return nil, fmt.Errorf("%d out of range for %s", n, k)
}

func mismatch(k model.Kind, v any) error {
	return fmt.Errorf("cannot use %v (%T) as %s", v, v, k)
}
