package processor

import (
	"errors"
	"slices"
	"testing"

	"github.com/asaidimu/go-sieve/core/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeProcessor struct {
	name   string
	shapes []query.Shape
}

func (f fakeProcessor) Name() string                    { return f.name }
func (f fakeProcessor) Supports(shape query.Shape) bool { return slices.Contains(f.shapes, shape) }
func (f fakeProcessor) Process(*query.Query, any) ([]Property, error) {
	return []Property{NewProperty("processor", f.name)}, nil
}

func TestNewRegistry(t *testing.T) {
	absent := fakeProcessor{"absent", []query.Shape{query.ShapeAbsent}}
	present := fakeProcessor{"present", []query.Shape{query.ShapeEmpty, query.ShapeFiltered}}
	all := fakeProcessor{"all", query.Shapes()}
	empty := fakeProcessor{"empty", []query.Shape{query.ShapeEmpty}}

	tests := []struct {
		name       string
		processors []Processor
		wantErrs   []error
	}{
		{"partition", []Processor{absent, present}, nil},
		{"single processor for everything", []Processor{all}, nil},
		{"no processors", nil, []error{ErrNoProcessorSelected}},
		{"gap", []Processor{absent, empty}, []error{ErrNoProcessorSelected}},
		{"overlap", []Processor{all, present}, []error{ErrAmbiguousProcessorSelection}},
		{"overlap on one shape", []Processor{empty, all, empty}, []error{ErrAmbiguousProcessorSelection}},
		{"both violations", []Processor{present, empty}, []error{ErrNoProcessorSelected, ErrAmbiguousProcessorSelection}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(nil, tt.processors...)
			if len(tt.wantErrs) == 0 {
				require.NoError(t, err)
				assert.Len(t, r.Processors(), len(tt.processors))
				return
			}
			require.Error(t, err)
			assert.Nil(t, r)
			for _, want := range tt.wantErrs {
				assert.True(t, errors.Is(err, want), "expected %v in %v", want, err)
			}
		})
	}
}

func TestRegistry_Dispatch(t *testing.T) {
	absent := fakeProcessor{"absent", []query.Shape{query.ShapeAbsent}}
	present := fakeProcessor{"present", []query.Shape{query.ShapeEmpty, query.ShapeFiltered}}
	r, err := NewRegistry(nil, absent, present)
	require.NoError(t, err)

	p, err := r.Dispatch(nil)
	require.NoError(t, err)
	assert.Equal(t, "absent", p.Name())

	p, err = r.Dispatch(query.NewQuery(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "present", p.Name())

	p, err = r.Dispatch(query.NewQuery([]query.Expression{query.NewExpression("a", query.OperatorEqual, "1")}, nil))
	require.NoError(t, err)
	assert.Equal(t, "present", p.Name())
}

func TestRegistry_LogsRegistrations(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	_, err := NewRegistry(zap.New(core), fakeProcessor{"all", query.Shapes()})
	require.NoError(t, err)

	entries := logs.FilterMessage("Registered processor").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "all", entries[0].ContextMap()["processor"])
}

func TestDefaultProcessors_Partition(t *testing.T) {
	processors := DefaultProcessors(NewSortable(nil, nil, nil))
	for _, shape := range query.Shapes() {
		var supporting []string
		for _, p := range processors {
			if p.Supports(shape) {
				supporting = append(supporting, p.Name())
			}
		}
		assert.Len(t, supporting, 1, "shape %s", shape)
	}
}

func TestNewProperty(t *testing.T) {
	n := 7
	p := NewProperty("n", &n)
	assert.Equal(t, "n", p.Name())
	assert.Equal(t, 7, p.Value())
	assert.True(t, p.IsPrimitive())
	assert.Equal(t, "n=7", p.String())

	composite := NewProperty("tags", []string{"a"})
	assert.False(t, composite.IsPrimitive())

	null := NewProperty("nothing", (*int)(nil))
	assert.Nil(t, null.Value())
	assert.False(t, null.IsPrimitive())
}
