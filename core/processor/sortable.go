package processor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/asaidimu/go-sieve/core/query"
	"github.com/asaidimu/go-sieve/core/schema"
	"go.uber.org/zap"
)

// ErrMissingSortField reports a property on which the sort key cannot be
// resolved.
var ErrMissingSortField = errors.New("missing sort field")

// MissingSortFieldError names the sort field and the property lacking it.
type MissingSortFieldError struct {
	Field    string
	Property string
	Err      error
}

func (e *MissingSortFieldError) Error() string {
	msg := fmt.Sprintf("%v: %q on property %q", ErrMissingSortField, e.Field, e.Property)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingSortFieldError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMissingSortField}
	}
	return []error{ErrMissingSortField, e.Err}
}

// Sortable is the behaviour shared by processors: reading properties from an
// instance and ordering a selection by a SortSpec. Custom processors embed it.
type Sortable struct {
	introspector schema.Introspector
	evaluator    *query.Evaluator
	logger       *zap.Logger
}

// NewSortable creates the shared processor base. Nil arguments select the
// default introspector, a default evaluator and a no-op logger.
func NewSortable(in schema.Introspector, ev *query.Evaluator, logger *zap.Logger) Sortable {
	if logger == nil {
		logger = zap.NewNop()
	}
	if in == nil {
		in = schema.DefaultIntrospector()
	}
	if ev == nil {
		ev = query.NewEvaluator(logger, nil)
	}
	return Sortable{introspector: in, evaluator: ev, logger: logger}
}

// Introspector returns the introspector used to read instances.
func (s Sortable) Introspector() schema.Introspector { return s.introspector }

// Evaluator returns the evaluator used for expressions and sort keys.
func (s Sortable) Evaluator() *query.Evaluator { return s.evaluator }

// ReadProperties returns the non-ignored readable properties of instance in
// introspection order.
func (s Sortable) ReadProperties(instance any) ([]Property, error) {
	return readProperties(s.introspector, instance)
}

type keyed struct {
	prop Property
	key  any
}

// Sort orders props by spec with a stable sort. Without a spec, or with no
// properties, props is returned unchanged. Every property must resolve the
// sort key, either as its own sub-property or as a property of the selection.
func (s Sortable) Sort(props []Property, spec *query.SortSpec) ([]Property, error) {
	if spec == nil || len(props) == 0 {
		return props, nil
	}

	siblings := make(map[string]Property, len(props))
	for _, p := range props {
		if _, ok := siblings[p.Name()]; !ok {
			siblings[p.Name()] = p
		}
	}

	items := make([]keyed, len(props))
	for i, p := range props {
		key, err := s.resolveKey(p, spec.Field, siblings)
		if err != nil {
			return nil, err
		}
		items[i] = keyed{prop: p, key: key}
	}

	var sortErr error
	warned := false
	sort.SliceStable(items, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		c, err := s.compareKeys(items[i].key, items[j].key)
		if err != nil {
			if !errors.Is(err, query.ErrUnknownType) || s.evaluator.UnknownTypes() != query.UnknownTypeMatch {
				sortErr = fmt.Errorf("sort by %q: %w", spec.Field, err)
				return false
			}
			if !warned {
				s.logger.Warn("Sort keys of unknown type treated as equal",
					zap.String("field", spec.Field), zap.Error(err))
				warned = true
			}
			return false
		}
		if spec.Direction == query.SortDirectionDesc {
			return c > 0
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}

	sorted := make([]Property, len(items))
	for i, it := range items {
		sorted[i] = it.prop
	}
	return sorted, nil
}

// resolveKey returns the value p is ordered by. A composite property is keyed
// by its own sub-property when it has one. Otherwise a field naming a property
// of the selection keys p by that property's value. The field is missing only
// when neither applies.
func (s Sortable) resolveKey(p Property, field string, siblings map[string]Property) (any, error) {
	switch field {
	case query.SortKeyName:
		return p.Name(), nil
	case query.SortKeyValue:
		return p.Value(), nil
	}

	var lookupErr error
	if !p.IsPrimitive() && p.Type() != schema.FieldTypeNull {
		value, found, err := schema.Lookup(s.introspector, p.Value(), field)
		if err == nil && found {
			return value, nil
		}
		lookupErr = err
	}
	if sibling, ok := siblings[field]; ok {
		return sibling.Value(), nil
	}
	return nil, &MissingSortFieldError{Field: field, Property: p.Name(), Err: lookupErr}
}

// compareKeys orders two sort keys. Composite keys of the same kind have no
// order among themselves and compare equal.
func (s Sortable) compareKeys(a, b any) (int, error) {
	_, aft := schema.ClassifyValue(a)
	_, bft := schema.ClassifyValue(b)
	if aft == bft && (aft == schema.FieldTypeObject || aft == schema.FieldTypeArray) {
		return 0, nil
	}
	return s.evaluator.Comparators().CompareValues(a, b)
}
