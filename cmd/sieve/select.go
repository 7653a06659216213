package sieve

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/asaidimu/go-sieve/core/processor"
	"github.com/asaidimu/go-sieve/core/query"
	"github.com/asaidimu/go-sieve/utils"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSelectCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Select the fields of a JSON object that satisfy a query",
		Long: `Select reads a JSON object and prints the fields that satisfy every
expression given with --where. Without --where and --sort every field is
printed in order.

Expressions have the form FIELD OP OPERAND where OP is one of
=, !=, <, >, <= or >=. The field * applies to every field.
Sort keys are @name, @value, a field of nested objects, or another
field of the document.`,
		Example: `  sieve select -i user.json -w 'age>25' -w 'name!=Bob' -s @value:desc
  cat user.json | sieve select -w '*!=' -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSelect(cmd)
		},
	}

	// Flags for this command
	cmd.Flags().StringP("input", "i", "-", "JSON file to read, - for stdin")
	cmd.Flags().StringArrayP("where", "w", nil, "Expression FIELD OP OPERAND, repeatable")
	cmd.Flags().StringP("sort", "s", "", "Sort key with optional direction, e.g. @value:desc")
	cmd.Flags().StringP("format", "f", "", "Output format: table or json")

	// Bind flags to viper
	a.v.BindPFlag("output.format", cmd.Flags().Lookup("format"))
	return cmd
}

func (a *app) runSelect(cmd *cobra.Command) error {
	input, _ := cmd.Flags().GetString("input")
	wheres, _ := cmd.Flags().GetStringArray("where")
	sortFlag, _ := cmd.Flags().GetString("sort")

	instance, err := readDocument(cmd.InOrStdin(), input)
	if err != nil {
		return err
	}

	q, err := buildQuery(wheres, sortFlag)
	if err != nil {
		return err
	}

	selector, err := processor.NewSelector(&processor.Options{
		Logger:     a.logger,
		Evaluation: a.config.EvaluatorOptions(),
	})
	if err != nil {
		return err
	}

	props, err := selector.Select(cmd.Context(), q, instance)
	if err != nil {
		return err
	}
	a.logger.Debug("Selected fields", zap.Int("count", len(props)), zap.Stringer("query", q))

	return render(cmd.OutOrStdout(), a.config.Output.Format, props)
}

// readDocument decodes a JSON object from path, or from stdin when path is -.
func readDocument(stdin io.Reader, path string) (map[string]any, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("could not open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var doc map[string]any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("input must be a JSON object: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("input must be a JSON object, got null")
	}
	return doc, nil
}

// buildQuery returns nil, the absent query, when neither expressions nor a
// sort are given.
func buildQuery(wheres []string, sortFlag string) (*query.Query, error) {
	if len(wheres) == 0 && sortFlag == "" {
		return nil, nil
	}

	expressions := make([]query.Expression, 0, len(wheres))
	for _, w := range wheres {
		e, err := parseExpression(w)
		if err != nil {
			return nil, err
		}
		expressions = append(expressions, e)
	}

	var sort *query.SortSpec
	if sortFlag != "" {
		s, err := parseSort(sortFlag)
		if err != nil {
			return nil, err
		}
		sort = &s
	}

	q := query.NewQuery(expressions, sort)
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// parseExpression splits FIELD OP OPERAND at the first operator notation,
// preferring the longest notation at that position so "a<=1" reads as <=.
// Surrounding whitespace is trimmed and one pair of matching quotes around
// the operand is removed.
func parseExpression(s string) (query.Expression, error) {
	for i := 0; i < len(s); i++ {
		var (
			op    query.Operator
			width int
		)
		for _, candidate := range query.Operators() {
			n := candidate.Notation()
			if len(n) > width && strings.HasPrefix(s[i:], n) {
				op, width = candidate, len(n)
			}
		}
		if width == 0 {
			continue
		}

		field := strings.TrimSpace(s[:i])
		if field == "" {
			return query.Expression{}, fmt.Errorf("expression %q: missing field", s)
		}
		return query.NewExpression(field, op, unquote(strings.TrimSpace(s[i+width:]))), nil
	}
	return query.Expression{}, fmt.Errorf("expression %q: missing operator", s)
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// parseSort reads KEY or KEY:asc or KEY:desc.
func parseSort(s string) (query.SortSpec, error) {
	spec := query.SortSpec{Field: s, Direction: query.SortDirectionAsc}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		spec.Field = s[:i]
		spec.Direction = query.SortDirection(strings.ToLower(s[i+1:]))
	}
	if err := spec.Validate(); err != nil {
		return query.SortSpec{}, fmt.Errorf("sort %q: %w", s, err)
	}
	return spec, nil
}

func render(w io.Writer, format string, props []processor.Property) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(processor.Fields(props))
	case FormatTable, "":
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Field", "Type", "Value"})
		table.SetAutoWrapText(false)
		for _, p := range props {
			table.Append([]string{p.Name(), string(p.Type()), displayValue(p)})
		}
		table.Render()
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// displayValue renders leaves as operand text and composites as JSON.
func displayValue(p processor.Property) string {
	if p.IsPrimitive() {
		if s, err := utils.Format(p.Value()); err == nil {
			return s
		}
	}
	if p.Value() == nil {
		return "null"
	}
	b, err := json.Marshal(p.Value())
	if err != nil {
		return fmt.Sprintf("%v", p.Value())
	}
	return string(b)
}
