package processor

import (
	"fmt"

	"github.com/asaidimu/go-sieve/core/query"
	"go.uber.org/zap"
)

// FilterQueryProcessor selects the properties that satisfy every expression
// applying to them, then sorts the selection.
type FilterQueryProcessor struct {
	Sortable
}

// Ensure FilterQueryProcessor implements the Processor interface.
var _ Processor = (*FilterQueryProcessor)(nil)

// NewFilterQueryProcessor creates the processor for present queries.
func NewFilterQueryProcessor(base Sortable) *FilterQueryProcessor {
	return &FilterQueryProcessor{Sortable: base}
}

func (p *FilterQueryProcessor) Name() string { return "filter" }

// Supports reports true for every present query, with or without expressions.
func (p *FilterQueryProcessor) Supports(shape query.Shape) bool {
	return shape == query.ShapeEmpty || shape == query.ShapeFiltered
}

// Process evaluates the query against each property. A property is kept when
// all expressions that apply to it hold; one with no applicable expression is
// kept. The first evaluation error fails the call.
func (p *FilterQueryProcessor) Process(q *query.Query, instance any) ([]Property, error) {
	props, err := p.ReadProperties(instance)
	if err != nil {
		return nil, err
	}

	expressions := q.Expressions()
	selected := make([]Property, 0, len(props))
	for _, prop := range props {
		ok, err := p.matches(expressions, prop)
		if err != nil {
			return nil, fmt.Errorf("evaluate property %q: %w", prop.Name(), err)
		}
		if ok {
			selected = append(selected, prop)
		}
	}

	p.logger.Debug("Filtered properties",
		zap.Int("read", len(props)),
		zap.Int("selected", len(selected)))
	return p.Sort(selected, q.Sort())
}

func (p *FilterQueryProcessor) matches(expressions []query.Expression, prop Property) (bool, error) {
	for _, e := range expressions {
		if !e.AppliesTo(prop.Name()) {
			continue
		}
		ok, err := p.evaluator.Evaluate(e, prop)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
