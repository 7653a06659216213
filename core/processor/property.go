// Package processor selects the properties of an instance that satisfy a
// query. Processors are strategies keyed by query shape and are dispatched
// through a validated Registry; Selector is the public entry point.
package processor

import (
	"fmt"

	"github.com/asaidimu/go-sieve/core/query"
	"github.com/asaidimu/go-sieve/core/schema"
)

// Property is one extracted field of an instance. Its field type, and with it
// whether the property is primitive, is computed once at construction.
type Property struct {
	name      string
	value     any
	fieldType schema.FieldType
}

// Ensure Property implements the query.Property interface.
var _ query.Property = Property{}

// NewProperty wraps a named value. Pointers are dereferenced, so the stored
// value is the one expressions are evaluated against.
func NewProperty(name string, value any) Property {
	v, ft := schema.ClassifyValue(value)
	return Property{name: name, value: v, fieldType: ft}
}

func (p Property) Name() string           { return p.name }
func (p Property) Value() any             { return p.value }
func (p Property) Type() schema.FieldType { return p.fieldType }

// IsPrimitive reports whether the value is a leaf that expressions can be
// evaluated against.
func (p Property) IsPrimitive() bool { return p.fieldType.IsPrimitive() }

func (p Property) String() string {
	return fmt.Sprintf("%s=%v", p.name, p.value)
}

// readProperties extracts every non-ignored readable property of instance in
// introspection order.
func readProperties(in schema.Introspector, instance any) ([]Property, error) {
	descriptors, err := in.ReadableProperties(instance)
	if err != nil {
		return nil, err
	}
	props := make([]Property, 0, len(descriptors))
	for _, d := range descriptors {
		if d.Ignored {
			continue
		}
		value, err := d.Extract(instance)
		if err != nil {
			return nil, fmt.Errorf("read property %q: %w", d.Name, err)
		}
		props = append(props, NewProperty(d.Name, value))
	}
	return props, nil
}
