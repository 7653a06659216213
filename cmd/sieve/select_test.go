package sieve

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/asaidimu/go-sieve/core/processor"
	"github.com/asaidimu/go-sieve/core/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected query.Expression
	}{
		{"age>25", query.NewExpression("age", query.OperatorGreaterThan, "25")},
		{"age >= 25", query.NewExpression("age", query.OperatorGreaterThanOrEqual, "25")},
		{"age<=30", query.NewExpression("age", query.OperatorLessThanOrEqual, "30")},
		{"age<30", query.NewExpression("age", query.OperatorLessThan, "30")},
		{"name!=Bob", query.NewExpression("name", query.OperatorNotEqual, "Bob")},
		{`name = "Alice Smith"`, query.NewExpression("name", query.OperatorEqual, "Alice Smith")},
		{"name='x'", query.NewExpression("name", query.OperatorEqual, "x")},
		{"*!=", query.NewExpression("*", query.OperatorNotEqual, "")},
		{"expr=a<b", query.NewExpression("expr", query.OperatorEqual, "a<b")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := parseExpression(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, e)
		})
	}
}

func TestParseExpression_Errors(t *testing.T) {
	for _, input := range []string{"age", "", "=1", "  !=x"} {
		t.Run(input, func(t *testing.T) {
			_, err := parseExpression(input)
			assert.Error(t, err)
		})
	}
}

func TestParseSort(t *testing.T) {
	s, err := parseSort("@value")
	require.NoError(t, err)
	assert.Equal(t, query.SortSpec{Field: "@value", Direction: query.SortDirectionAsc}, s)

	s, err = parseSort("size:DESC")
	require.NoError(t, err)
	assert.Equal(t, query.SortSpec{Field: "size", Direction: query.SortDirectionDesc}, s)

	_, err = parseSort("size:sideways")
	assert.Error(t, err)
	_, err = parseSort(":asc")
	assert.Error(t, err)
}

func TestBuildQuery(t *testing.T) {
	q, err := buildQuery(nil, "")
	require.NoError(t, err)
	assert.Nil(t, q)

	q, err = buildQuery(nil, "@name")
	require.NoError(t, err)
	assert.Equal(t, query.ShapeEmpty, q.Shape())

	q, err = buildQuery([]string{"a=1", "b<2"}, "")
	require.NoError(t, err)
	assert.Equal(t, query.ShapeFiltered, q.Shape())
	assert.Len(t, q.Expressions(), 2)

	_, err = buildQuery([]string{"nope"}, "")
	assert.Error(t, err)
}

const document = `{"name": "Alice", "age": 30, "active": false, "address": {"city": "Paris"}}`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSelectCommand_JSON(t *testing.T) {
	out, err := execute(t, document, "select", "-w", "age>25", "-w", "active=false", "-s", "@name", "-f", "json")
	require.NoError(t, err)

	var fields []processor.Field
	require.NoError(t, json.Unmarshal([]byte(out), &fields))
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"active", "address", "age", "name"}, names)
}

func TestSelectCommand_Filter(t *testing.T) {
	out, err := execute(t, document, "select", "-w", "name=Bob", "-f", "json")
	require.NoError(t, err)

	var fields []processor.Field
	require.NoError(t, json.Unmarshal([]byte(out), &fields))
	for _, f := range fields {
		assert.NotEqual(t, "name", f.Name)
	}
	assert.Len(t, fields, 3)
}

func TestSelectCommand_Table(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))

	out, err := execute(t, "", "select", "--input", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "Paris")
	assert.Contains(t, out, "boolean")
}

func TestSelectCommand_Errors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"coercion failure", document, []string{"select", "-w", "age=abc"}},
		{"bad expression", document, []string{"select", "-w", "age"}},
		{"not an object", `[1, 2]`, []string{"select"}},
		{"null document", `null`, []string{"select"}},
		{"missing input", "", []string{"select", "-i", "/does/not/exist.json"}},
		{"missing sort field", document, []string{"select", "-s", "city"}},
		{"bad format", document, []string{"select", "-f", "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.stdin, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sieve version: "+Version)
}
