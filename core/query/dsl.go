// Package query defines the expression model consumed by the selection engine:
// operators, expressions binding a field to a textual operand, and queries
// combining expressions with an optional sort specification.
package query

import (
	"fmt"
	"slices"
)

// Operator is one of the closed set of comparison operators.
type Operator int

// Supported comparison operators. The zero value is not an operator.
const (
	OperatorEqual Operator = iota + 1
	OperatorNotEqual
	OperatorLessThan
	OperatorGreaterThan
	OperatorLessThanOrEqual
	OperatorGreaterThanOrEqual
)

var notations = map[Operator]string{
	OperatorEqual:              "=",
	OperatorNotEqual:           "!=",
	OperatorLessThan:           "<",
	OperatorGreaterThan:        ">",
	OperatorLessThanOrEqual:    "<=",
	OperatorGreaterThanOrEqual: ">=",
}

// Operators returns every supported operator in declaration order.
func Operators() []Operator {
	return []Operator{
		OperatorEqual,
		OperatorNotEqual,
		OperatorLessThan,
		OperatorGreaterThan,
		OperatorLessThanOrEqual,
		OperatorGreaterThanOrEqual,
	}
}

// Notation returns the display notation of the operator, or an empty string
// for values outside the enumeration.
func (o Operator) Notation() string {
	return notations[o]
}

// IsValid reports whether o is one of the supported operators.
func (o Operator) IsValid() bool {
	_, ok := notations[o]
	return ok
}

func (o Operator) String() string {
	if n, ok := notations[o]; ok {
		return n
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// LookupOperator returns the operator whose notation is n.
func LookupOperator(n string) (Operator, bool) {
	for op, notation := range notations {
		if notation == n {
			return op, true
		}
	}
	return 0, false
}

// WildcardField is an expression field that applies to every property.
const WildcardField = "*"

// Expression binds a field name, an operator and an operand. The operand is
// kept as text and only coerced when the expression is evaluated.
type Expression struct {
	field    string
	operator Operator
	operand  string
}

// NewExpression creates an expression.
func NewExpression(field string, operator Operator, operand string) Expression {
	return Expression{field: field, operator: operator, operand: operand}
}

func (e Expression) Field() string      { return e.field }
func (e Expression) Operator() Operator { return e.operator }
func (e Expression) Operand() string    { return e.operand }

// AppliesTo reports whether the expression constrains the property called name.
func (e Expression) AppliesTo(name string) bool {
	return e.field == WildcardField || e.field == name
}

func (e Expression) String() string {
	return fmt.Sprintf("%s %s %q", e.field, e.operator, e.operand)
}

// SortDirection specifies the direction for sorting.
type SortDirection string

// Supported sort directions.
const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// Reserved sort keys. Any other sort field names a sub-property of composite
// property values.
const (
	SortKeyName  = "@name"  // Order by property name.
	SortKeyValue = "@value" // Order by the property's own value.
)

// SortSpec defines the sorting order of a selected property set.
type SortSpec struct {
	Field     string        `json:"field"`     // The key to sort by.
	Direction SortDirection `json:"direction"` // The direction of the sort.
}

// Shape classifies a query by structure alone, independent of the contents
// of its expressions. Processors declare the shapes they handle.
type Shape int

const (
	// ShapeAbsent is the absence of a query: select everything.
	ShapeAbsent Shape = iota
	// ShapeEmpty is a query without expressions, possibly carrying a sort.
	ShapeEmpty
	// ShapeFiltered is a query with at least one expression.
	ShapeFiltered
)

// Shapes returns every query shape. A processor registry must cover each of
// them exactly once.
func Shapes() []Shape {
	return []Shape{ShapeAbsent, ShapeEmpty, ShapeFiltered}
}

func (s Shape) String() string {
	switch s {
	case ShapeAbsent:
		return "absent"
	case ShapeEmpty:
		return "empty"
	case ShapeFiltered:
		return "filtered"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// Query is an ordered collection of expressions plus an optional sort. A nil
// *Query is the distinct "no query" state. Queries are immutable once built.
type Query struct {
	expressions []Expression
	sort        *SortSpec
}

// NewQuery creates a query from expressions and an optional sort. Both are
// copied, so later changes by the caller do not affect the query.
func NewQuery(expressions []Expression, sort *SortSpec) *Query {
	q := &Query{expressions: slices.Clone(expressions)}
	if sort != nil {
		s := *sort
		q.sort = &s
	}
	return q
}

// Expressions returns a copy of the query's expressions in order.
func (q *Query) Expressions() []Expression {
	if q == nil {
		return nil
	}
	return slices.Clone(q.expressions)
}

// Sort returns a copy of the sort specification, or nil when none is set.
func (q *Query) Sort() *SortSpec {
	if q == nil || q.sort == nil {
		return nil
	}
	s := *q.sort
	return &s
}

// Shape returns the structural shape of q. It is safe to call on nil.
func (q *Query) Shape() Shape {
	return ShapeOf(q)
}

// ShapeOf returns the structural shape of q.
func ShapeOf(q *Query) Shape {
	switch {
	case q == nil:
		return ShapeAbsent
	case len(q.expressions) == 0:
		return ShapeEmpty
	default:
		return ShapeFiltered
	}
}

func (q *Query) String() string {
	if q == nil {
		return "<nil>"
	}
	s := fmt.Sprintf("%v", q.expressions)
	if q.sort != nil {
		s += fmt.Sprintf(" sort %s %s", q.sort.Field, q.sort.Direction)
	}
	return s
}
