package store

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindArgs(t *testing.T) {
	id := uuid.MustParse("0191e6a4-7b1c-7c3e-9f00-1234567890ab")
	price := decimal.RequireFromString("12.50")

	got, err := bindArgs([]any{id, &id, price, uint64(42), uint(7), "x", int32(3), nil, (*uuid.UUID)(nil)})
	require.NoError(t, err)

	assert.Equal(t, []any{
		"0191e6a4-7b1c-7c3e-9f00-1234567890ab",
		"0191e6a4-7b1c-7c3e-9f00-1234567890ab",
		"12.5",
		int64(42),
		int64(7),
		"x",
		int32(3),
		nil,
		nil,
	}, got)
}

func TestBindArgs_Empty(t *testing.T) {
	got, err := bindArgs(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBindArgs_Uint64Overflow(t *testing.T) {
	_, err := bindArgs([]any{"ok", uint64(math.MaxUint64)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parameter 1")
}
