package query

import (
	"fmt"
	"slices"

	"github.com/asaidimu/go-sieve/utils"
)

// QueryBuilder provides a fluent API for building queries. Operands may be
// given as typed Go values; they are formatted into operand text when added.
type QueryBuilder struct {
	expressions []Expression
	sort        *SortSpec
	err         error
}

// NewQueryBuilder creates a new, empty query builder instance.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// Build returns the constructed query. It fails if an operand could not be
// formatted or if the resulting query does not validate.
func (qb *QueryBuilder) Build() (*Query, error) {
	if qb.err != nil {
		return nil, qb.err
	}
	q := NewQuery(qb.expressions, qb.sort)
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// Clone creates a copy of the builder, allowing new queries to be derived
// from an existing one without modifying the original.
func (qb *QueryBuilder) Clone() *QueryBuilder {
	clone := &QueryBuilder{
		expressions: slices.Clone(qb.expressions),
		err:         qb.err,
	}
	if qb.sort != nil {
		s := *qb.sort
		clone.sort = &s
	}
	return clone
}

// Reset clears all configuration, returning the builder to its initial state.
func (qb *QueryBuilder) Reset() *QueryBuilder {
	qb.expressions = nil
	qb.sort = nil
	qb.err = nil
	return qb
}

// ExpressionBuilder builds a single expression on a field. It is part of the
// fluent API and not intended to be used directly.
type ExpressionBuilder struct {
	parent *QueryBuilder
	field  string
}

// Where begins an expression on a specific field.
func (qb *QueryBuilder) Where(field string) *ExpressionBuilder {
	return &ExpressionBuilder{parent: qb, field: field}
}

// WhereAny begins an expression that applies to every property.
func (qb *QueryBuilder) WhereAny() *ExpressionBuilder {
	return qb.Where(WildcardField)
}

// Eq adds an equality expression.
func (eb *ExpressionBuilder) Eq(value any) *QueryBuilder {
	return eb.add(OperatorEqual, value)
}

// Neq adds a not-equal expression.
func (eb *ExpressionBuilder) Neq(value any) *QueryBuilder {
	return eb.add(OperatorNotEqual, value)
}

// Lt adds a less-than expression.
func (eb *ExpressionBuilder) Lt(value any) *QueryBuilder {
	return eb.add(OperatorLessThan, value)
}

// Lte adds a less-than-or-equal expression.
func (eb *ExpressionBuilder) Lte(value any) *QueryBuilder {
	return eb.add(OperatorLessThanOrEqual, value)
}

// Gt adds a greater-than expression.
func (eb *ExpressionBuilder) Gt(value any) *QueryBuilder {
	return eb.add(OperatorGreaterThan, value)
}

// Gte adds a greater-than-or-equal expression.
func (eb *ExpressionBuilder) Gte(value any) *QueryBuilder {
	return eb.add(OperatorGreaterThanOrEqual, value)
}

// Op adds an expression with an explicit operator.
func (eb *ExpressionBuilder) Op(operator Operator, value any) *QueryBuilder {
	return eb.add(operator, value)
}

func (eb *ExpressionBuilder) add(operator Operator, value any) *QueryBuilder {
	qb := eb.parent
	if qb.err != nil {
		return qb
	}
	operand, err := utils.Format(value)
	if err != nil {
		qb.err = fmt.Errorf("operand for %s %s: %w", eb.field, operator, err)
		return qb
	}
	qb.expressions = append(qb.expressions, NewExpression(eb.field, operator, operand))
	return qb
}

// OrderBy sets the sort configuration of the query, replacing any previous one.
func (qb *QueryBuilder) OrderBy(field string, direction SortDirection) *QueryBuilder {
	qb.sort = &SortSpec{Field: field, Direction: direction}
	return qb
}

// OrderByAsc sorts ascending by field.
func (qb *QueryBuilder) OrderByAsc(field string) *QueryBuilder {
	return qb.OrderBy(field, SortDirectionAsc)
}

// OrderByDesc sorts descending by field.
func (qb *QueryBuilder) OrderByDesc(field string) *QueryBuilder {
	return qb.OrderBy(field, SortDirectionDesc)
}
