package query

import (
	"errors"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpression_Validate(t *testing.T) {
	tests := []struct {
		name    string
		expr    Expression
		wantErr bool
	}{
		{"valid", NewExpression("age", OperatorEqual, "1"), false},
		{"empty operand is valid", NewExpression("name", OperatorEqual, ""), false},
		{"wildcard", NewExpression(WildcardField, OperatorLessThan, "1"), false},
		{"missing field", NewExpression("", OperatorEqual, "1"), true},
		{"zero operator", NewExpression("age", 0, "1"), true},
		{"unknown operator", NewExpression("age", Operator(7), "1"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.expr.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSortSpec_Validate(t *testing.T) {
	assert.NoError(t, SortSpec{Field: "a", Direction: SortDirectionAsc}.Validate())
	assert.NoError(t, SortSpec{Field: SortKeyName, Direction: SortDirectionDesc}.Validate())
	assert.Error(t, SortSpec{Direction: SortDirectionAsc}.Validate())
	assert.Error(t, SortSpec{Field: "a"}.Validate())
	assert.Error(t, SortSpec{Field: "a", Direction: "up"}.Validate())
}

func TestQuery_Validate(t *testing.T) {
	var absent *Query
	assert.NoError(t, absent.Validate())
	assert.NoError(t, NewQuery(nil, nil).Validate())

	q := NewQuery([]Expression{
		NewExpression("a", OperatorEqual, "1"),
		NewExpression("", OperatorEqual, "1"),
	}, &SortSpec{Field: "a", Direction: "up"})

	err := q.Validate()
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "expressions[1]")
	assert.Contains(t, verrs, "sort")
	assert.NotContains(t, verrs, "expressions[0]")
}

func TestQuery_Validate_UnsupportedOperator(t *testing.T) {
	q := NewQuery([]Expression{
		NewExpression("", OperatorEqual, "1"),
		NewExpression("age", Operator(99), "1"),
		NewExpression("size", Operator(42), "1"),
	}, nil)

	err := q.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedOperator))
	assert.False(t, IsValidationError(err))

	var uoe *UnsupportedOperatorError
	require.True(t, errors.As(err, &uoe))
	assert.Equal(t, Operator(99), uoe.Operator)
	assert.Contains(t, err.Error(), "expressions[1]")
}

func TestExpression_Validate_UnsupportedOperator(t *testing.T) {
	err := NewExpression("age", Operator(7), "1").Validate()
	require.Error(t, err)

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	var uoe *UnsupportedOperatorError
	require.True(t, errors.As(verrs["operator"], &uoe))
	assert.Equal(t, Operator(7), uoe.Operator)
}

func TestIsValidationError(t *testing.T) {
	assert.False(t, IsValidationError(nil))
	assert.False(t, IsValidationError(errors.New("boom")))
}
