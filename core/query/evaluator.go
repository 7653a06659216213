package query

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/asaidimu/go-sieve/core/schema"
	"github.com/asaidimu/go-sieve/utils"
	"go.uber.org/zap"
)

// Property is the view of one extracted field that expressions evaluate
// against. Type must be computed once per value and stay stable.
type Property interface {
	Name() string
	Value() any
	Type() schema.FieldType
	IsPrimitive() bool
}

// UnknownTypePolicy decides how leaf values without a comparator evaluate.
type UnknownTypePolicy string

const (
	// UnknownTypeReject fails the evaluation with ErrUnknownType.
	UnknownTypeReject UnknownTypePolicy = "reject"
	// UnknownTypeMatch reports every comparison against an unknown leaf type
	// as satisfied. Kept for compatibility with callers that relied on the
	// permissive fallback.
	UnknownTypeMatch UnknownTypePolicy = "match"
)

// EvaluatorOptions configures an Evaluator.
type EvaluatorOptions struct {
	// UnknownTypes selects the behaviour for leaf types without a comparator.
	UnknownTypes UnknownTypePolicy

	// Comparators orders values per field type. A nil registry selects
	// DefaultComparators.
	Comparators *ComparatorRegistry
}

// DefaultEvaluatorOptions returns the options used when none are supplied.
func DefaultEvaluatorOptions() *EvaluatorOptions {
	return &EvaluatorOptions{
		UnknownTypes: UnknownTypeReject,
		Comparators:  DefaultComparators(),
	}
}

// Evaluator evaluates expressions against properties. Dispatch is driven by
// the field type of the property value: the operand is coerced into the exact
// runtime type of the value and compared with the comparator registered for
// that field type. An Evaluator holds no per-call state and is safe for
// concurrent use.
type Evaluator struct {
	comparators  *ComparatorRegistry
	unknownTypes UnknownTypePolicy
	logger       *zap.Logger
}

// NewEvaluator creates a new Evaluator instance.
func NewEvaluator(logger *zap.Logger, options *EvaluatorOptions) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultEvaluatorOptions()
	}
	comparators := options.Comparators
	if comparators == nil {
		comparators = DefaultComparators()
	}
	unknownTypes := options.UnknownTypes
	if unknownTypes == "" {
		unknownTypes = UnknownTypeReject
	}
	return &Evaluator{
		comparators:  comparators,
		unknownTypes: unknownTypes,
		logger:       logger,
	}
}

var defaultEvaluator = NewEvaluator(nil, nil)

// Comparators returns the registry used by the evaluator.
func (ev *Evaluator) Comparators() *ComparatorRegistry {
	return ev.comparators
}

// UnknownTypes returns the configured unknown type policy.
func (ev *Evaluator) UnknownTypes() UnknownTypePolicy {
	return ev.unknownTypes
}

// RegisterComparator registers the ordering for a field type.
func (ev *Evaluator) RegisterComparator(ft schema.FieldType, c Comparator) {
	ev.comparators.Register(ft, c)
	ev.logger.Info("Registered comparator", zap.String("fieldType", string(ft)))
}

// Evaluate evaluates e against p with the package default evaluator.
func (e Expression) Evaluate(p Property) (bool, error) {
	return defaultEvaluator.Evaluate(e, p)
}

// Evaluate reports whether p satisfies e. Composite properties never satisfy
// any expression. Less-or-equal and greater-or-equal are evaluated as the
// disjunction of their strict comparison and equality.
func (ev *Evaluator) Evaluate(e Expression, p Property) (bool, error) {
	if !p.IsPrimitive() {
		return false, nil
	}

	switch e.operator {
	case OperatorEqual:
		return ev.test(e, p, isEqual)
	case OperatorNotEqual:
		return ev.test(e, p, isNotEqual)
	case OperatorLessThan:
		return ev.test(e, p, isLess)
	case OperatorGreaterThan:
		return ev.test(e, p, isGreater)
	case OperatorLessThanOrEqual:
		return ev.either(e, p, isLess, isEqual)
	case OperatorGreaterThanOrEqual:
		return ev.either(e, p, isGreater, isEqual)
	default:
		return false, &UnsupportedOperatorError{Operator: e.operator}
	}
}

func isEqual(c int) bool    { return c == 0 }
func isNotEqual(c int) bool { return c != 0 }
func isLess(c int) bool     { return c < 0 }
func isGreater(c int) bool  { return c > 0 }

func (ev *Evaluator) either(e Expression, p Property, first, second func(int) bool) (bool, error) {
	ok, err := ev.test(e, p, first)
	if err != nil || ok {
		return ok, err
	}
	return ev.test(e, p, second)
}

func (ev *Evaluator) test(e Expression, p Property, accept func(int) bool) (bool, error) {
	c, err := ev.compare(e, p)
	if err != nil {
		if errors.Is(err, ErrUnknownType) && ev.unknownTypes == UnknownTypeMatch {
			ev.logger.Warn("Comparison against unknown leaf type treated as a match",
				zap.String("property", p.Name()),
				zap.String("fieldType", string(p.Type())),
				zap.Stringer("expression", e))
			return true, nil
		}
		return false, err
	}
	return accept(c), nil
}

// compare orders the property value against the operand coerced into the
// value's runtime type.
func (ev *Evaluator) compare(e Expression, p Property) (int, error) {
	comparator, ok := ev.comparators.Lookup(p.Type())
	if !ok {
		return 0, fmt.Errorf("%w: %s on property %q", ErrUnknownType, p.Type(), p.Name())
	}

	value := reflect.ValueOf(p.Value())
	operand, err := utils.CoerceValue(e.operand, value.Type())
	if err != nil {
		ev.logger.Debug("Operand coercion failed",
			zap.String("property", p.Name()),
			zap.Stringer("expression", e),
			zap.Error(err))
		return 0, &CoercionError{Expression: e, Target: value.Type(), Err: err}
	}
	return comparator(value, operand), nil
}
