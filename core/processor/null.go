package processor

import (
	"github.com/asaidimu/go-sieve/core/query"
	"go.uber.org/zap"
)

// NullQueryProcessor handles the absence of a query by selecting every
// non-ignored readable property of the instance.
type NullQueryProcessor struct {
	Sortable
}

// Ensure NullQueryProcessor implements the Processor interface.
var _ Processor = (*NullQueryProcessor)(nil)

// NewNullQueryProcessor creates the processor for absent queries.
func NewNullQueryProcessor(base Sortable) *NullQueryProcessor {
	return &NullQueryProcessor{Sortable: base}
}

func (p *NullQueryProcessor) Name() string { return "null" }

// Supports reports true only for ShapeAbsent.
func (p *NullQueryProcessor) Supports(shape query.Shape) bool {
	return shape == query.ShapeAbsent
}

// Process returns all non-ignored readable properties in introspection order.
func (p *NullQueryProcessor) Process(q *query.Query, instance any) ([]Property, error) {
	props, err := p.ReadProperties(instance)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Selected all properties", zap.Int("count", len(props)))
	return p.Sort(props, q.Sort())
}
