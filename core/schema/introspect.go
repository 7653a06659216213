package schema

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// ErrNotIntrospectable is returned for values whose properties cannot be
// enumerated, such as nil values, scalars, or maps with non-string keys.
var ErrNotIntrospectable = errors.New("value cannot be introspected")

// DefaultTagName is the struct tag consulted before the json tag when naming
// or ignoring a field.
const DefaultTagName = "sieve"

// PropertyDescriptor describes one readable property of a type or instance.
type PropertyDescriptor struct {
	Name    string       // Name the property is exposed under.
	Type    reflect.Type // Declared (static) type of the property.
	Ignored bool         // Administratively excluded from selection.

	index []int         // Field path for struct properties.
	key   reflect.Value // Map key for map properties.
}

// Extract reads the property from instance. A property reached through a nil
// embedded pointer is reported as a nil value.
func (d PropertyDescriptor) Extract(instance any) (any, error) {
	v := Indirect(reflect.ValueOf(instance))
	if !v.IsValid() {
		return nil, fmt.Errorf("extract %q: %w", d.Name, ErrNotIntrospectable)
	}

	switch {
	case d.index != nil:
		if v.Kind() != reflect.Struct {
			return nil, fmt.Errorf("extract %q from %s: %w", d.Name, v.Type(), ErrNotIntrospectable)
		}
		f, err := v.FieldByIndexErr(d.index)
		if err != nil {
			return nil, nil
		}
		if !f.CanInterface() {
			return nil, fmt.Errorf("extract %q: field is not exported", d.Name)
		}
		return f.Interface(), nil
	case d.key.IsValid():
		if v.Kind() != reflect.Map {
			return nil, fmt.Errorf("extract %q from %s: %w", d.Name, v.Type(), ErrNotIntrospectable)
		}
		mv := v.MapIndex(d.key.Convert(v.Type().Key()))
		if !mv.IsValid() {
			return nil, nil
		}
		return mv.Interface(), nil
	default:
		return nil, fmt.Errorf("extract %q: descriptor is not bound to a field", d.Name)
	}
}

// Introspector enumerates the readable properties of an instance. Descriptors
// are returned in a stable order and include ignored properties; callers
// decide what to do with them.
type Introspector interface {
	ReadableProperties(instance any) ([]PropertyDescriptor, error)
}

type typeInfo struct {
	once        sync.Once
	descriptors []PropertyDescriptor
	err         error
}

// ReflectIntrospector is a reflection based Introspector. Struct metadata is
// built lazily at most once per type and kept for the lifetime of the
// introspector; map keys are enumerated per instance in sorted order.
type ReflectIntrospector struct {
	tagName string
	types   sync.Map // reflect.Type -> *typeInfo
}

// Ensure ReflectIntrospector implements the Introspector interface.
var _ Introspector = (*ReflectIntrospector)(nil)

// NewIntrospector creates a ReflectIntrospector that names and ignores struct
// fields using tagName, falling back to the json tag. An empty tagName selects
// DefaultTagName.
func NewIntrospector(tagName string) *ReflectIntrospector {
	if tagName == "" {
		tagName = DefaultTagName
	}
	return &ReflectIntrospector{tagName: tagName}
}

var (
	defaultIntrospector     *ReflectIntrospector
	defaultIntrospectorOnce sync.Once
)

// DefaultIntrospector returns the process-wide introspector shared by callers
// that do not configure their own, so struct metadata is only built once.
func DefaultIntrospector() *ReflectIntrospector {
	defaultIntrospectorOnce.Do(func() {
		defaultIntrospector = NewIntrospector(DefaultTagName)
	})
	return defaultIntrospector
}

// ReadableProperties returns the properties of instance, which must be a
// struct, a map with string keys, or a non-nil pointer to one of those.
func (r *ReflectIntrospector) ReadableProperties(instance any) ([]PropertyDescriptor, error) {
	v := Indirect(reflect.ValueOf(instance))
	if !v.IsValid() {
		return nil, fmt.Errorf("nil instance: %w", ErrNotIntrospectable)
	}

	switch v.Kind() {
	case reflect.Struct:
		return r.Describe(v.Type())
	case reflect.Map:
		return describeMap(v)
	default:
		return nil, fmt.Errorf("%s: %w", v.Type(), ErrNotIntrospectable)
	}
}

// Describe returns the readable properties of struct type t (or a pointer to
// one). The result is computed once per type.
func (r *ReflectIntrospector) Describe(t reflect.Type) ([]PropertyDescriptor, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%v: %w", t, ErrNotIntrospectable)
	}

	entry, _ := r.types.LoadOrStore(t, &typeInfo{})
	info := entry.(*typeInfo)
	info.once.Do(func() {
		info.descriptors, info.err = r.describeStruct(t)
	})
	if info.err != nil {
		return nil, info.err
	}

	out := make([]PropertyDescriptor, len(info.descriptors))
	copy(out, info.descriptors)
	return out, nil
}

// describeStruct walks the exported fields of t in declaration order,
// flattening embedded structs the way encoding/json does. Fields of
// the outer struct shadow promoted fields with the same name.
func (r *ReflectIntrospector) describeStruct(t reflect.Type) ([]PropertyDescriptor, error) {
	var descriptors []PropertyDescriptor
	seen := make(map[string]struct{})

	var walk func(t reflect.Type, prefix []int, depth int)
	walk = func(t reflect.Type, prefix []int, depth int) {
		var embedded []reflect.StructField
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			name, ignored, tagged := r.fieldName(field)
			if field.Anonymous && !tagged {
				ft := field.Type
				if ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					if _, leaf := lookupLeaf(field.Type); !leaf {
						// Exported fields of an unexported embedded struct are
						// still promoted, unless it is embedded by pointer.
						if field.IsExported() || field.Type.Kind() != reflect.Pointer {
							embedded = append(embedded, field)
						}
						continue
					}
				}
			}
			if !field.IsExported() {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}

			index := make([]int, 0, len(prefix)+1)
			index = append(index, prefix...)
			index = append(index, i)
			descriptors = append(descriptors, PropertyDescriptor{
				Name:    name,
				Type:    field.Type,
				Ignored: ignored,
				index:   index,
			})
		}

		// Promoted fields are visited after the fields declared directly on t,
		// so the shallower declaration wins.
		for _, field := range embedded {
			ft := field.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if depth > 16 {
				continue
			}
			index := make([]int, 0, len(prefix)+1)
			index = append(index, prefix...)
			index = append(index, field.Index[0])
			walk(ft, index, depth+1)
		}
	}
	walk(t, nil, 0)

	return descriptors, nil
}

// fieldName resolves the exposed name of a struct field. The configured tag
// wins over the json tag; "-" in either marks the field as ignored.
func (r *ReflectIntrospector) fieldName(field reflect.StructField) (name string, ignored bool, tagged bool) {
	for _, key := range []string{r.tagName, "json"} {
		tag, ok := field.Tag.Lookup(key)
		if !ok {
			continue
		}
		if tag == "-" {
			return field.Name, true, true
		}
		if n, _, _ := strings.Cut(tag, ","); n != "" {
			return n, false, true
		}
	}
	return field.Name, false, false
}

func describeMap(v reflect.Value) ([]PropertyDescriptor, error) {
	if v.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("%s: map keys must be strings: %w", v.Type(), ErrNotIntrospectable)
	}

	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	elem := v.Type().Elem()
	descriptors := make([]PropertyDescriptor, 0, len(keys))
	for _, k := range keys {
		descriptors = append(descriptors, PropertyDescriptor{
			Name: k.String(),
			Type: elem,
			key:  reflect.ValueOf(k.String()),
		})
	}
	return descriptors, nil
}

// Lookup finds the non-ignored property called name on instance and returns
// its value. The boolean result is false when no such property exists.
func Lookup(in Introspector, instance any, name string) (any, bool, error) {
	descriptors, err := in.ReadableProperties(instance)
	if err != nil {
		return nil, false, err
	}
	for _, d := range descriptors {
		if d.Ignored || d.Name != name {
			continue
		}
		value, err := d.Extract(instance)
		if err != nil {
			return nil, false, err
		}
		return value, true, nil
	}
	return nil, false, nil
}
