// Package schema classifies Go runtime types into the field types understood by
// the expression engine and enumerates the readable properties of a value.
package schema

import (
	"fmt"
	"math/big"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FieldType represents the basic field types supported by the schema system.
type FieldType string

const (
	FieldTypeString   FieldType = "string"   // Text data
	FieldTypeBoolean  FieldType = "boolean"  // True/false values
	FieldTypeInteger  FieldType = "integer"  // Signed integers of any width
	FieldTypeUnsigned FieldType = "unsigned" // Unsigned integers of any width
	FieldTypeFloat    FieldType = "float"    // Floating point numbers
	FieldTypeComplex  FieldType = "complex"  // Complex numbers, scalar but unordered
	FieldTypeDecimal  FieldType = "decimal"  // Fixed-point decimals
	FieldTypeBigInt   FieldType = "bigint"   // Arbitrary-precision integers
	FieldTypeBigFloat FieldType = "bigfloat" // Arbitrary-precision floats
	FieldTypeTime     FieldType = "time"     // Points in time
	FieldTypeDuration FieldType = "duration" // Elapsed time
	FieldTypeUUID     FieldType = "uuid"     // RFC 4122 identifiers
	FieldTypeObject   FieldType = "object"   // Structured data with nested fields
	FieldTypeArray    FieldType = "array"    // Ordered list of items
	FieldTypeNull     FieldType = "null"     // Absent value (nil pointer, nil interface)
)

// leafTypes lists every field type that represents a scalar leaf, in rank order.
// The rank is used when values of different field types must be ordered
// against each other.
var leafTypes = []FieldType{
	FieldTypeBoolean,
	FieldTypeInteger,
	FieldTypeUnsigned,
	FieldTypeFloat,
	FieldTypeDecimal,
	FieldTypeBigInt,
	FieldTypeBigFloat,
	FieldTypeDuration,
	FieldTypeTime,
	FieldTypeUUID,
	FieldTypeString,
	FieldTypeComplex,
}

// IsPrimitive reports whether values of this field type are scalar leaves.
func (f FieldType) IsPrimitive() bool {
	return f.Rank() >= 0
}

// Rank returns the position of a leaf field type in the cross-type ordering,
// or -1 for composite and unknown field types.
func (f FieldType) Rank() int {
	leafMu.RLock()
	defer leafMu.RUnlock()
	return f.rank()
}

func (f FieldType) rank() int {
	for i, lt := range leafTypes {
		if lt == f {
			return i
		}
	}
	return -1
}

var (
	leafMu       sync.RWMutex
	leafRegistry = map[reflect.Type]FieldType{
		reflect.TypeOf(decimal.Decimal{}): FieldTypeDecimal,
		reflect.TypeOf(big.Int{}):         FieldTypeBigInt,
		reflect.TypeOf(&big.Int{}):        FieldTypeBigInt,
		reflect.TypeOf(big.Float{}):       FieldTypeBigFloat,
		reflect.TypeOf(&big.Float{}):      FieldTypeBigFloat,
		reflect.TypeOf(time.Time{}):       FieldTypeTime,
		reflect.TypeOf(time.Duration(0)):  FieldTypeDuration,
		reflect.TypeOf(uuid.UUID{}):       FieldTypeUUID,
	}
)

// RegisterLeafType declares t as a scalar leaf of field type ft. It is meant to
// be called during program initialization, before any values are classified.
//
// Registering a new field type also extends the cross-type ordering: the new
// type ranks after every built-in leaf type.
func RegisterLeafType(t reflect.Type, ft FieldType) error {
	if t == nil {
		return fmt.Errorf("cannot register a nil type as %q", ft)
	}
	switch ft {
	case FieldTypeObject, FieldTypeArray, FieldTypeNull, "":
		return fmt.Errorf("field type %q is not a leaf type", ft)
	}

	leafMu.Lock()
	defer leafMu.Unlock()
	leafRegistry[t] = ft
	if ft.rank() < 0 {
		leafTypes = append(leafTypes, ft)
	}
	return nil
}

// lookupLeaf returns the registered field type for t, if any.
func lookupLeaf(t reflect.Type) (FieldType, bool) {
	leafMu.RLock()
	defer leafMu.RUnlock()
	ft, ok := leafRegistry[t]
	return ft, ok
}

// Classify maps a Go type to its field type. Registered leaf types take
// precedence over the reflect kind, so time.Duration is a duration rather than
// an integer. A nil type classifies as FieldTypeNull.
func Classify(t reflect.Type) FieldType {
	if t == nil {
		return FieldTypeNull
	}
	if ft, ok := lookupLeaf(t); ok {
		return ft
	}

	switch t.Kind() {
	case reflect.String:
		return FieldTypeString
	case reflect.Bool:
		return FieldTypeBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return FieldTypeInteger
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return FieldTypeUnsigned
	case reflect.Float32, reflect.Float64:
		return FieldTypeFloat
	case reflect.Complex64, reflect.Complex128:
		return FieldTypeComplex
	case reflect.Slice, reflect.Array:
		return FieldTypeArray
	case reflect.Pointer:
		return Classify(t.Elem())
	default:
		return FieldTypeObject
	}
}

// Indirect follows pointers and interfaces until it reaches a registered leaf
// type or a non-pointer value. The returned value is invalid when a nil pointer
// or nil interface is met on the way.
func Indirect(v reflect.Value) reflect.Value {
	for v.IsValid() {
		if _, ok := lookupLeaf(v.Type()); ok {
			if v.Kind() == reflect.Pointer && v.IsNil() {
				return reflect.Value{}
			}
			return v
		}
		switch v.Kind() {
		case reflect.Pointer, reflect.Interface:
			if v.IsNil() {
				return reflect.Value{}
			}
			v = v.Elem()
		default:
			return v
		}
	}
	return v
}

// ClassifyValue dereferences value and classifies its dynamic type. It returns
// the dereferenced value alongside its field type; nil values yield
// (nil, FieldTypeNull).
func ClassifyValue(value any) (any, FieldType) {
	v := Indirect(reflect.ValueOf(value))
	if !v.IsValid() {
		return nil, FieldTypeNull
	}
	if !v.CanInterface() {
		return nil, FieldTypeNull
	}
	return v.Interface(), Classify(v.Type())
}
