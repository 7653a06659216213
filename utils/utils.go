// Package utils provides the coercion service used by the expression engine:
// converting operand text into a concrete runtime type, and formatting typed
// values back into operand text.
package utils

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// ErrCoercion is wrapped by every failure to convert text into a target type.
var ErrCoercion = errors.New("coercion failed")

// CoerceFunc converts text into a value of one specific type.
type CoerceFunc func(text string) (any, error)

var (
	coercersMu sync.RWMutex
	coercers   = map[reflect.Type]CoerceFunc{
		reflect.TypeOf(decimal.Decimal{}): func(text string) (any, error) {
			return decimal.NewFromString(text)
		},
		reflect.TypeOf(big.Int{}): func(text string) (any, error) {
			n, err := parseBigInt(text)
			if err != nil {
				return nil, err
			}
			return *n, nil
		},
		reflect.TypeOf(&big.Int{}): func(text string) (any, error) {
			return parseBigInt(text)
		},
		reflect.TypeOf(big.Float{}): func(text string) (any, error) {
			f, err := parseBigFloat(text)
			if err != nil {
				return nil, err
			}
			return *f, nil
		},
		reflect.TypeOf(&big.Float{}): func(text string) (any, error) {
			return parseBigFloat(text)
		},
		reflect.TypeOf(time.Time{}): func(text string) (any, error) {
			return cast.ToTimeE(text)
		},
		reflect.TypeOf(time.Duration(0)): func(text string) (any, error) {
			return cast.ToDurationE(text)
		},
		reflect.TypeOf(uuid.UUID{}): func(text string) (any, error) {
			return uuid.Parse(text)
		},
	}
)

func parseBigInt(text string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", text)
	}
	return n, nil
}

func parseBigFloat(text string) (*big.Float, error) {
	f, ok := new(big.Float).SetString(text)
	if !ok {
		return nil, fmt.Errorf("invalid float %q", text)
	}
	return f, nil
}

// RegisterCoercer installs fn as the conversion for values of type t, taking
// precedence over the kind-based conversions. Intended for startup use,
// alongside schema.RegisterLeafType.
func RegisterCoercer(t reflect.Type, fn CoerceFunc) {
	coercersMu.Lock()
	defer coercersMu.Unlock()
	coercers[t] = fn
}

func lookupCoercer(t reflect.Type) (CoerceFunc, bool) {
	coercersMu.RLock()
	defer coercersMu.RUnlock()
	fn, ok := coercers[t]
	return fn, ok
}

// Coerce converts text into a value whose dynamic type is exactly target.
// Integer conversions honour the bit width of target, so "300" does not
// coerce into an int8. Named types receive the converted value of their
// underlying kind.
func Coerce(text string, target reflect.Type) (any, error) {
	v, err := CoerceValue(text, target)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// CoerceValue is Coerce returning a reflect.Value.
func CoerceValue(text string, target reflect.Type) (reflect.Value, error) {
	if target == nil {
		return reflect.Value{}, fmt.Errorf("cannot coerce %q into a nil type: %w", text, ErrCoercion)
	}

	if fn, ok := lookupCoercer(target); ok {
		value, err := fn(text)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("cannot coerce %q to %s: %w: %w", text, target, ErrCoercion, err)
		}
		rv := reflect.ValueOf(value)
		if !rv.IsValid() || !rv.Type().ConvertibleTo(target) {
			return reflect.Value{}, fmt.Errorf("coercer for %s returned %T: %w", target, value, ErrCoercion)
		}
		return rv.Convert(target), nil
	}

	out := reflect.New(target).Elem()
	var err error
	switch target.Kind() {
	case reflect.String:
		out.SetString(text)
	case reflect.Bool:
		var b bool
		if b, err = cast.ToBoolE(text); err == nil {
			out.SetBool(b)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var n int64
		if n, err = strconv.ParseInt(text, 10, target.Bits()); err == nil {
			out.SetInt(n)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		var n uint64
		if n, err = strconv.ParseUint(text, 10, target.Bits()); err == nil {
			out.SetUint(n)
		}
	case reflect.Float32, reflect.Float64:
		var f float64
		if f, err = strconv.ParseFloat(text, target.Bits()); err == nil {
			out.SetFloat(f)
		}
	case reflect.Complex64, reflect.Complex128:
		var c complex128
		if c, err = strconv.ParseComplex(text, target.Bits()); err == nil {
			out.SetComplex(c)
		}
	default:
		return reflect.Value{}, fmt.Errorf("no conversion from text to %s: %w", target, ErrCoercion)
	}
	if err != nil {
		return reflect.Value{}, fmt.Errorf("cannot coerce %q to %s: %w: %w", text, target, ErrCoercion, err)
	}
	return out, nil
}

// Format renders a typed value as operand text that Coerce can read back.
func Format(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", fmt.Errorf("cannot format nil as operand text: %w", ErrCoercion)
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case *time.Time:
		if v == nil {
			return "", fmt.Errorf("cannot format a nil time: %w", ErrCoercion)
		}
		return v.Format(time.RFC3339Nano), nil
	}

	if s, err := cast.ToStringE(value); err == nil {
		return s, nil
	}

	// Named scalar types are not known to cast; fall back to their kind.
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, rv.Type().Bits()), nil
	}
	return "", fmt.Errorf("cannot format %T as operand text: %w", value, ErrCoercion)
}
