package schema

import (
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type celsius float64

type level string

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected FieldType
	}{
		{"string", "text", FieldTypeString},
		{"named string", level("debug"), FieldTypeString},
		{"bool", true, FieldTypeBoolean},
		{"int", 1, FieldTypeInteger},
		{"int8", int8(1), FieldTypeInteger},
		{"int64", int64(1), FieldTypeInteger},
		{"uint16", uint16(1), FieldTypeUnsigned},
		{"byte", byte(1), FieldTypeUnsigned},
		{"float32", float32(1), FieldTypeFloat},
		{"named float", celsius(21.5), FieldTypeFloat},
		{"complex128", complex(1, 2), FieldTypeComplex},
		{"decimal", decimal.NewFromInt(1), FieldTypeDecimal},
		{"big.Int", *big.NewInt(1), FieldTypeBigInt},
		{"*big.Int", big.NewInt(1), FieldTypeBigInt},
		{"*big.Float", big.NewFloat(1), FieldTypeBigFloat},
		{"time", time.Now(), FieldTypeTime},
		{"duration", time.Second, FieldTypeDuration},
		{"uuid", uuid.New(), FieldTypeUUID},
		{"struct", struct{ A int }{}, FieldTypeObject},
		{"map", map[string]any{}, FieldTypeObject},
		{"slice", []int{1}, FieldTypeArray},
		{"pointer to int", new(int), FieldTypeInteger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(reflect.TypeOf(tt.input)))
		})
	}

	assert.Equal(t, FieldTypeNull, Classify(nil))
}

func TestFieldType_IsPrimitive(t *testing.T) {
	for _, ft := range []FieldType{
		FieldTypeString, FieldTypeBoolean, FieldTypeInteger, FieldTypeUnsigned,
		FieldTypeFloat, FieldTypeComplex, FieldTypeDecimal, FieldTypeBigInt,
		FieldTypeBigFloat, FieldTypeTime, FieldTypeDuration, FieldTypeUUID,
	} {
		assert.True(t, ft.IsPrimitive(), ft)
	}
	for _, ft := range []FieldType{FieldTypeObject, FieldTypeArray, FieldTypeNull, "unknown"} {
		assert.False(t, ft.IsPrimitive(), ft)
	}
}

func TestFieldType_Rank(t *testing.T) {
	assert.Less(t, FieldTypeBoolean.Rank(), FieldTypeInteger.Rank())
	assert.Less(t, FieldTypeInteger.Rank(), FieldTypeString.Rank())
	assert.Equal(t, -1, FieldTypeObject.Rank())
}

func TestClassifyValue(t *testing.T) {
	t.Run("dereferences pointers", func(t *testing.T) {
		n := 42
		value, ft := ClassifyValue(&n)
		assert.Equal(t, 42, value)
		assert.Equal(t, FieldTypeInteger, ft)
	})

	t.Run("keeps registered pointer types", func(t *testing.T) {
		b := big.NewInt(7)
		value, ft := ClassifyValue(b)
		assert.Same(t, b, value)
		assert.Equal(t, FieldTypeBigInt, ft)
	})

	t.Run("nil values", func(t *testing.T) {
		var p *int
		value, ft := ClassifyValue(p)
		assert.Nil(t, value)
		assert.Equal(t, FieldTypeNull, ft)

		var b *big.Int
		_, ft = ClassifyValue(b)
		assert.Equal(t, FieldTypeNull, ft)

		_, ft = ClassifyValue(nil)
		assert.Equal(t, FieldTypeNull, ft)
	})
}

type semver struct {
	Major, Minor, Patch int
}

func TestRegisterLeafType(t *testing.T) {
	require.Error(t, RegisterLeafType(nil, "semver"))
	require.Error(t, RegisterLeafType(reflect.TypeOf(semver{}), FieldTypeObject))

	require.NoError(t, RegisterLeafType(reflect.TypeOf(semver{}), "semver"))
	ft := Classify(reflect.TypeOf(semver{}))
	assert.Equal(t, FieldType("semver"), ft)
	assert.True(t, ft.IsPrimitive())
	assert.Greater(t, ft.Rank(), FieldTypeComplex.Rank())
}
