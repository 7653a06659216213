package processor

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/asaidimu/go-sieve/core/query"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	// ErrAmbiguousProcessorSelection reports more than one processor
	// supporting the same query shape.
	ErrAmbiguousProcessorSelection = errors.New("ambiguous processor selection")
	// ErrNoProcessorSelected reports a query shape no processor supports.
	ErrNoProcessorSelected = errors.New("no processor selected")
)

// Processor is a selection strategy for the query shapes it supports.
// Implementations hold no per-call state and are safe for concurrent use.
type Processor interface {
	// Name identifies the processor in logs and events.
	Name() string
	// Supports reports whether the processor handles queries of this shape.
	// It must depend on the shape alone.
	Supports(shape query.Shape) bool
	// Process returns the selected properties of instance.
	Process(q *query.Query, instance any) ([]Property, error)
}

// Registry is an ordered list of processors in which every query shape is
// supported by exactly one processor.
type Registry struct {
	processors []Processor
	logger     *zap.Logger
}

// NewRegistry creates a registry and checks that processors partition the
// query shapes. All violations are reported together.
func NewRegistry(logger *zap.Logger, processors ...Processor) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var err error
	for _, shape := range query.Shapes() {
		_, serr := selectFor(processors, shape)
		err = multierr.Append(err, serr)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid processor registry: %w", err)
	}

	for _, p := range processors {
		logger.Info("Registered processor", zap.String("processor", p.Name()))
	}
	return &Registry{processors: slices.Clone(processors), logger: logger}, nil
}

// Dispatch returns the processor that supports the shape of q.
func (r *Registry) Dispatch(q *query.Query) (Processor, error) {
	p, err := selectFor(r.processors, query.ShapeOf(q))
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Dispatched query",
		zap.Stringer("shape", query.ShapeOf(q)),
		zap.String("processor", p.Name()))
	return p, nil
}

// Processors returns the registered processors in order.
func (r *Registry) Processors() []Processor {
	return slices.Clone(r.processors)
}

func selectFor(processors []Processor, shape query.Shape) (Processor, error) {
	var matched []Processor
	for _, p := range processors {
		if p.Supports(shape) {
			matched = append(matched, p)
		}
	}

	switch len(matched) {
	case 0:
		return nil, fmt.Errorf("%w for %s query", ErrNoProcessorSelected, shape)
	case 1:
		return matched[0], nil
	default:
		names := make([]string, len(matched))
		for i, p := range matched {
			names[i] = p.Name()
		}
		return nil, fmt.Errorf("%w: %s query supported by %s",
			ErrAmbiguousProcessorSelection, shape, strings.Join(names, ", "))
	}
}
