package query

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func validateOperator(value interface{}) error {
	op, _ := value.(Operator)
	if !op.IsValid() {
		return &UnsupportedOperatorError{Operator: op}
	}
	return nil
}

// Validate checks that the expression names a field and uses a supported
// operator. The operand is not inspected: any text is a valid operand until
// it is coerced against a concrete value.
func (e Expression) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.field, validation.Required),
		validation.Field(&e.operator, validation.By(validateOperator)),
	)
}

// Validate checks the sort field and direction.
func (s SortSpec) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Field, validation.Required),
		validation.Field(&s.Direction, validation.Required,
			validation.In(SortDirectionAsc, SortDirectionDesc)),
	)
}

// Validate checks every expression and the sort specification. A nil query
// is valid. The first unsupported operator is reported on its own as an
// *UnsupportedOperatorError; other problems are collected into
// validation.Errors.
func (q *Query) Validate() error {
	if q == nil {
		return nil
	}
	for i, e := range q.expressions {
		if !e.operator.IsValid() {
			return fmt.Errorf("invalid query: expressions[%d]: %w", i,
				&UnsupportedOperatorError{Operator: e.operator})
		}
	}
	errs := validation.Errors{}
	for i, e := range q.expressions {
		if err := e.Validate(); err != nil {
			errs[fmt.Sprintf("expressions[%d]", i)] = err
		}
	}
	if q.sort != nil {
		if err := q.sort.Validate(); err != nil {
			errs["sort"] = err
		}
	}
	if err := errs.Filter(); err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	return nil
}

// IsValidationError reports whether err came from query validation.
func IsValidationError(err error) bool {
	var verrs validation.Errors
	return errors.As(err, &verrs)
}
