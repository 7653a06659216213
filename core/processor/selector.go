package processor

import (
	"context"
	"fmt"
	"sync"

	"github.com/asaidimu/go-events"
	"github.com/asaidimu/go-sieve/core/query"
	"github.com/asaidimu/go-sieve/core/schema"
	"go.uber.org/zap"
)

// Options configures a Selector.
type Options struct {
	// Logger receives registration and per-call diagnostics. Nil disables
	// logging.
	Logger *zap.Logger

	// Introspector reads instances. Nil selects schema.DefaultIntrospector.
	Introspector schema.Introspector

	// Evaluation configures the evaluator shared by the default processors.
	Evaluation *query.EvaluatorOptions

	// Processors replaces the default processors. They must cover every
	// query shape exactly once.
	Processors []Processor
}

// DefaultOptions returns the options used when none are supplied.
func DefaultOptions() *Options {
	return &Options{
		Introspector: schema.DefaultIntrospector(),
		Evaluation:   query.DefaultEvaluatorOptions(),
	}
}

// DefaultProcessors returns the null and filter processors sharing base.
func DefaultProcessors(base Sortable) []Processor {
	return []Processor{
		NewNullQueryProcessor(base),
		NewFilterQueryProcessor(base),
	}
}

// Selector selects the properties of instances that satisfy a query. It is
// safe for concurrent use.
type Selector struct {
	registry  *Registry
	evaluator *query.Evaluator
	logger    *zap.Logger
	bus       *events.TypedEventBus[SelectionEvent]

	subMu         sync.RWMutex
	subscriptions map[string]*SubscriptionInfo
}

// NewSelector wires a Selector from options. It fails when the processors do
// not partition the query shapes.
func NewSelector(opts *Options) (*Selector, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	evaluator := query.NewEvaluator(logger, opts.Evaluation)
	processors := opts.Processors
	if len(processors) == 0 {
		processors = DefaultProcessors(NewSortable(opts.Introspector, evaluator, logger))
	}

	registry, err := NewRegistry(logger, processors...)
	if err != nil {
		return nil, err
	}

	bus, err := newEventBus()
	if err != nil {
		return nil, err
	}

	return &Selector{
		registry:      registry,
		evaluator:     evaluator,
		logger:        logger,
		bus:           bus,
		subscriptions: make(map[string]*SubscriptionInfo),
	}, nil
}

// Evaluator returns the evaluator used by the default processors.
func (s *Selector) Evaluator() *query.Evaluator { return s.evaluator }

// Registry returns the processor registry.
func (s *Selector) Registry() *Registry { return s.registry }

// Select returns the properties of instance selected by q. A nil q selects
// every non-ignored readable property. The query is validated before it is
// dispatched.
func (s *Selector) Select(ctx context.Context, q *query.Query, instance any) ([]Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.withEventEmission(instance, q.String(), func() (string, []Property, error) {
		if err := q.Validate(); err != nil {
			return "", nil, err
		}
		p, err := s.registry.Dispatch(q)
		if err != nil {
			return "", nil, err
		}
		props, err := p.Process(q, instance)
		if err != nil {
			s.logger.Debug("Selection failed",
				zap.String("processor", p.Name()),
				zap.Stringer("query", q),
				zap.Error(err))
			return p.Name(), nil, fmt.Errorf("%s processor: %w", p.Name(), err)
		}
		return p.Name(), props, nil
	})
}

// Field is a name and value pair of a selected property.
type Field struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Fields returns the selected properties as ordered name and value pairs.
func Fields(props []Property) []Field {
	fields := make([]Field, len(props))
	for i, p := range props {
		fields[i] = Field{Name: p.Name(), Value: p.Value()}
	}
	return fields
}

// ToMap returns the selected properties keyed by name.
func ToMap(props []Property) map[string]any {
	m := make(map[string]any, len(props))
	for _, p := range props {
		m[p.Name()] = p.Value()
	}
	return m
}
