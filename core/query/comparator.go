package query

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/asaidimu/go-sieve/core/schema"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Comparator orders two values of the same runtime type. It returns a negative
// number when a < b, zero when they are equal and a positive number otherwise.
type Comparator func(a, b reflect.Value) int

// ComparatorRegistry maps field types to their comparators. It is safe for
// concurrent use; registration is expected to happen at startup.
type ComparatorRegistry struct {
	mu          sync.RWMutex
	comparators map[schema.FieldType]Comparator
}

// NewComparatorRegistry creates an empty registry.
func NewComparatorRegistry() *ComparatorRegistry {
	return &ComparatorRegistry{comparators: make(map[schema.FieldType]Comparator)}
}

// DefaultComparators returns a registry populated with the natural ordering of
// every built-in ordered leaf type. Complex numbers have no natural order and
// are deliberately absent.
func DefaultComparators() *ComparatorRegistry {
	r := NewComparatorRegistry()
	r.Register(schema.FieldTypeString, compareString)
	r.Register(schema.FieldTypeBoolean, compareBool)
	r.Register(schema.FieldTypeInteger, compareInt)
	r.Register(schema.FieldTypeDuration, compareInt)
	r.Register(schema.FieldTypeUnsigned, compareUint)
	r.Register(schema.FieldTypeFloat, compareFloat)
	r.Register(schema.FieldTypeDecimal, compareDecimal)
	r.Register(schema.FieldTypeBigInt, compareBigInt)
	r.Register(schema.FieldTypeBigFloat, compareBigFloat)
	r.Register(schema.FieldTypeTime, compareTime)
	r.Register(schema.FieldTypeUUID, compareUUID)
	return r
}

// Register sets the comparator for a field type, replacing any previous one.
func (r *ComparatorRegistry) Register(ft schema.FieldType, c Comparator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comparators[ft] = c
}

// Lookup returns the comparator registered for ft.
func (r *ComparatorRegistry) Lookup(ft schema.FieldType) (Comparator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.comparators[ft]
	return c, ok
}

// CompareValues orders two arbitrary leaf values. Values of the same field
// type use its comparator; values of different field types are ordered by
// field type rank so the result is total. ErrUnknownType is returned when
// both values share a field type without a comparator.
func (r *ComparatorRegistry) CompareValues(a, b any) (int, error) {
	av, aft := schema.ClassifyValue(a)
	bv, bft := schema.ClassifyValue(b)

	if aft != bft {
		return cmp.Compare(rankOf(aft), rankOf(bft)), nil
	}
	if aft == schema.FieldTypeNull {
		return 0, nil
	}

	c, ok := r.Lookup(aft)
	if !ok {
		return 0, fmt.Errorf("%w: %s (%T)", ErrUnknownType, aft, av)
	}
	// Kind based comparators read through the kind accessors, so int8 and
	// int64 (or a named type and its underlying type) compare directly.
	return c(reflect.ValueOf(av), reflect.ValueOf(bv)), nil
}

// rankOf places null values first and composites after every leaf type.
func rankOf(ft schema.FieldType) int {
	switch ft {
	case schema.FieldTypeNull:
		return -2
	case schema.FieldTypeObject, schema.FieldTypeArray:
		return 1 << 20
	}
	if r := ft.Rank(); r >= 0 {
		return r
	}
	return 1<<20 - 1
}

func compareString(a, b reflect.Value) int {
	return strings.Compare(a.String(), b.String())
}

func compareBool(a, b reflect.Value) int {
	switch {
	case a.Bool() == b.Bool():
		return 0
	case !a.Bool():
		return -1
	default:
		return 1
	}
}

func compareInt(a, b reflect.Value) int {
	return cmp.Compare(a.Int(), b.Int())
}

func compareUint(a, b reflect.Value) int {
	return cmp.Compare(a.Uint(), b.Uint())
}

// compareFloat orders NaN after every other value and equal to itself, and
// -0 before +0.
func compareFloat(a, b reflect.Value) int {
	x, y := a.Float(), b.Float()
	xn, yn := math.IsNaN(x), math.IsNaN(y)
	switch {
	case xn || yn:
		return cmp.Compare(boolRank(xn), boolRank(yn))
	case x == 0 && y == 0:
		return cmp.Compare(boolRank(!math.Signbit(x)), boolRank(!math.Signbit(y)))
	}
	return cmp.Compare(x, y)
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func compareDecimal(a, b reflect.Value) int {
	return a.Interface().(decimal.Decimal).Cmp(b.Interface().(decimal.Decimal))
}

func bigIntOf(v reflect.Value) *big.Int {
	if v.Kind() == reflect.Pointer {
		return v.Interface().(*big.Int)
	}
	n := v.Interface().(big.Int)
	return &n
}

func compareBigInt(a, b reflect.Value) int {
	return bigIntOf(a).Cmp(bigIntOf(b))
}

func bigFloatOf(v reflect.Value) *big.Float {
	if v.Kind() == reflect.Pointer {
		return v.Interface().(*big.Float)
	}
	f := v.Interface().(big.Float)
	return &f
}

func compareBigFloat(a, b reflect.Value) int {
	return bigFloatOf(a).Cmp(bigFloatOf(b))
}

func compareTime(a, b reflect.Value) int {
	return a.Interface().(time.Time).Compare(b.Interface().(time.Time))
}

func compareUUID(a, b reflect.Value) int {
	x, y := a.Interface().(uuid.UUID), b.Interface().(uuid.UUID)
	return bytes.Compare(x[:], y[:])
}
