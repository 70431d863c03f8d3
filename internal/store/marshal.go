package store

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// bindArgs converts compiled parameter values into values the SQLite
// driver accepts. UUIDs and decimals are stored as TEXT in their
// canonical string forms, matching the TEXT and NUMERIC column types the
// SQLite dialect declares for them.
func bindArgs(params []any) ([]any, error) {
	if len(params) == 0 {
		return nil, nil
	}
	out := make([]any, len(params))
	for i, p := range params {
		v, err := bindArg(p)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func bindArg(p any) (any, error) {
	switch v := p.(type) {
	case uuid.UUID:
		return v.String(), nil
	case *uuid.UUID:
		if v == nil {
			return nil, nil
		}
		return v.String(), nil
	case decimal.Decimal:
		return v.String(), nil
	case *decimal.Decimal:
		if v == nil {
			return nil, nil
		}
		return v.String(), nil
	case uint64:
		// SQLite integers are signed 64-bit.
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("uint64 %d overflows a SQLite integer", v)
		}
		return int64(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return nil, fmt.Errorf("uint %d overflows a SQLite integer", v)
		}
		return int64(v), nil
	}
	return p, nil
}
