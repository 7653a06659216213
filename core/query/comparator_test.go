package query

import (
	"errors"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareValues(t *testing.T) {
	r := DefaultComparators()
	now := time.Now()

	tests := []struct {
		name     string
		a, b     any
		expected int
	}{
		{"strings", "a", "b", -1},
		{"equal strings", "a", "a", 0},
		{"bools", true, false, 1},
		{"int widths", int8(5), int64(5), 0},
		{"ints", 3, 2, 1},
		{"uints", uint8(1), uint(2), -1},
		{"floats", 1.5, 1.25, 1},
		{"NaN last", math.NaN(), math.Inf(1), 1},
		{"NaN after negatives", -1.0, math.NaN(), -1},
		{"NaN equal to itself", math.NaN(), math.NaN(), 0},
		{"negative zero first", math.Copysign(0, -1), 0.0, -1},
		{"float32 NaN", float32(math.NaN()), float32(1), 1},
		{"decimals", decimal.RequireFromString("1.10"), decimal.RequireFromString("1.1"), 0},
		{"big int pointer and value", big.NewInt(2), *big.NewInt(3), -1},
		{"big floats", big.NewFloat(2), big.NewFloat(1), 1},
		{"times", now, now.Add(time.Second), -1},
		{"durations", time.Minute, time.Second, 1},
		{"uuids", uuid.MustParse("00000000-0000-0000-0000-000000000001"), uuid.MustParse("00000000-0000-0000-0000-000000000002"), -1},
		{"pointers", ptr(3), 3, 0},
		{"nulls", nil, (*int)(nil), 0},
		{"null first", nil, 0, -1},
		{"bool before int", true, 0, -1},
		{"int before string", 1, "1", -1},
		{"leaf before composite", "z", []int{1}, -1},
		{"composite after leaf", map[string]int{}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := r.CompareValues(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sign(c))
		})
	}
}

func TestCompareValues_UnknownType(t *testing.T) {
	_, err := DefaultComparators().CompareValues(complex(1, 0), complex(2, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownType))

	_, err = NewComparatorRegistry().CompareValues("a", "b")
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestComparatorRegistry_Register(t *testing.T) {
	r := NewComparatorRegistry()
	_, ok := r.Lookup("string")
	assert.False(t, ok)

	r.Register("string", compareString)
	c, ok := r.Lookup("string")
	require.True(t, ok)
	assert.NotNil(t, c)
}

func sign(c int) int {
	switch {
	case c < 0:
		return -1
	case c > 0:
		return 1
	}
	return 0
}
