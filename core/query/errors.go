package query

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrTypeCoercion reports an operand that cannot be converted into the
	// runtime type of the value it is compared against.
	ErrTypeCoercion = errors.New("type coercion error")
	// ErrUnsupportedOperator reports an operator outside the supported set.
	ErrUnsupportedOperator = errors.New("unsupported operator")
	// ErrUnknownType reports a leaf value with no registered comparator.
	ErrUnknownType = errors.New("unknown leaf type")
)

// CoercionError describes a failed operand coercion for one expression.
type CoercionError struct {
	Expression Expression
	Target     reflect.Type
	Err        error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%v: cannot coerce operand %q of expression [%s] to %s: %v",
		ErrTypeCoercion, e.Expression.Operand(), e.Expression, e.Target, e.Err)
}

func (e *CoercionError) Unwrap() []error {
	return []error{ErrTypeCoercion, e.Err}
}

// UnsupportedOperatorError is returned when an expression carries an operator
// the evaluator does not implement.
type UnsupportedOperatorError struct {
	Operator Operator
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("%v [%s]", ErrUnsupportedOperator, e.Operator)
}

func (e *UnsupportedOperatorError) Unwrap() error {
	return ErrUnsupportedOperator
}
