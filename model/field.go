package model

import (
	"encoding/json"
	"strconv"
)

// Kind declares the runtime type a field accepts. Setters coerce compatible
// inputs (integer widths, json.Number, []string) to the canonical type and
// reject everything else.
type Kind int

const (
	// Any accepts every value unchanged.
	Any Kind = iota
	// String is a Go string.
	String
	// Int is canonicalized to int64.
	Int
	// Float is canonicalized to float64.
	Float
	// Bool is a Go bool.
	Bool
	// Map is a string-keyed map with arbitrary values.
	Map
	// List is a slice of arbitrary values.
	List
)

func (k Kind) String() string {
	switch k {
	case Any:
		return "any"
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Map:
		return "map"
	case List:
		return "list"
	}
	return "unknown"
}

// Field is the declarative specification of one record attribute. Key is the
// externally persisted name, Name the in-memory accessor name; they may
// differ. A Field is immutable once added to a Schema.
type Field struct {
	Name string
	Key  string
	Kind Kind

	// Default is a literal default value; DefaultFunc is a zero-argument
	// factory invoked once per record materialization. At most one of the
	// two should be set.
	Default     any
	DefaultFunc func() any

	Required bool
	ReadOnly bool
}

func (f Field) hasDefault() bool {
	return f.Default != nil || f.DefaultFunc != nil
}

// Schema is the per-type registry of fields plus the resolved-defaults
// caches. Build one per record type at program start; it is not safe for
// concurrent mutation afterwards.
type Schema struct {
	name   string
	fields map[string]Field
	order  []string

	defaults  map[string]any
	factories map[string]func() any
}

// NewSchema creates a schema for the named record type. The name doubles as
// the persisted type name, so it must be stable across releases.
func NewSchema(name string, fields ...Field) *Schema {
	s := &Schema{
		name:      name,
		fields:    make(map[string]Field),
		defaults:  make(map[string]any),
		factories: make(map[string]func() any),
	}
	for _, f := range fields {
		s.AddField(f)
	}
	return s
}

// Name returns the record type name.
func (s *Schema) Name() string {
	return s.name
}

// AddField registers a field, replacing any existing field of the same name
// and refreshing the default caches.
func (s *Schema) AddField(f Field) {
	s.RemoveField(f.Name)
	s.fields[f.Name] = f
	s.order = append(s.order, f.Name)

	switch {
	case f.DefaultFunc != nil:
		s.factories[f.Key] = f.DefaultFunc
	case f.Default != nil:
		s.defaults[f.Key] = f.Default
	}
}

// RemoveField undoes a registration and evicts the cached defaults.
func (s *Schema) RemoveField(name string) {
	f, ok := s.fields[name]
	if !ok {
		return
	}
	delete(s.fields, name)
	delete(s.defaults, f.Key)
	delete(s.factories, f.Key)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Field looks up a field specification by name.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Fields returns the field specifications in registration order.
func (s *Schema) Fields() []Field {
	fields := make([]Field, 0, len(s.order))
	for _, name := range s.order {
		fields = append(fields, s.fields[name])
	}
	return fields
}

// ResolveDefaults returns a fresh defaults map keyed by field key. Literal
// defaults are deep-copied and factories invoked now, so no value is ever
// shared between record instances.
func (s *Schema) ResolveDefaults() map[string]any {
	defaults := make(map[string]any, len(s.defaults)+len(s.factories))
	for key, value := range s.defaults {
		defaults[key] = deepCopy(value)
	}
	for key, factory := range s.factories {
		defaults[key] = factory()
	}
	return defaults
}

// Extend composes a derived schema: every field of s not overridden by one
// of the supplied fields is copied into the new schema, then the overrides
// are applied. The parent schema is left untouched.
func (s *Schema) Extend(name string, overrides ...Field) *Schema {
	derived := NewSchema(name)
	masked := make(map[string]bool, len(overrides))
	for _, f := range overrides {
		masked[f.Name] = true
	}
	for _, parent := range s.Fields() {
		if masked[parent.Name] {
			continue
		}
		inherited := parent
		inherited.Default = deepCopy(parent.Default)
		derived.AddField(inherited)
	}
	for _, f := range overrides {
		derived.AddField(f)
	}
	return derived
}

// deepCopy clones maps and lists so mutable defaults are never shared.
// Scalars are returned as-is.
func deepCopy(value any) any {
	switch v := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(v))
		for key, item := range v {
			clone[key] = deepCopy(item)
		}
		return clone
	case []any:
		clone := make([]any, len(v))
		for i, item := range v {
			clone[i] = deepCopy(item)
		}
		return clone
	default:
		return value
	}
}

// coerce validates value against the declared kind and converts it to the
// canonical runtime type. nil always passes and means "absent".
func coerce(kind Kind, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch kind {
	case Any:
		return normalizeNested(value), nil
	case String:
		if v, ok := value.(string); ok {
			return v, nil
		}
	case Int:
		if v, ok := toInt64(value); ok {
			return v, nil
		}
	case Float:
		if v, ok := toFloat64(value); ok {
			return v, nil
		}
	case Bool:
		if v, ok := value.(bool); ok {
			return v, nil
		}
	case Map:
		if v, ok := value.(map[string]any); ok {
			return normalizeNested(v), nil
		}
	case List:
		switch v := value.(type) {
		case []any:
			return normalizeNested(v), nil
		case []string:
			list := make([]any, len(v))
			for i, item := range v {
				list[i] = item
			}
			return list, nil
		case map[string]any:
			if list, ok := listFromIndexMap(v); ok {
				return normalizeNested(list), nil
			}
		}
	}
	return nil, ErrTypeMismatch
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	case float32:
		if float64(v) == float64(int64(v)) {
			return int64(v), true
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
	}
	return 0, false
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case json.Number:
		if n, err := v.Float64(); err == nil {
			return n, true
		}
	default:
		if n, ok := toInt64(value); ok {
			return float64(n), true
		}
	}
	return 0, false
}

// normalizeNested canonicalizes values nested inside maps and lists:
// json.Number becomes int64 when integral and float64 otherwise, and
// contiguous numeric-key maps of maps become lists again, so values decoded
// from the store compare equal to the ones that were written.
func normalizeNested(value any) any {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]any:
		for key, item := range v {
			v[key] = normalizeNested(item)
		}
		if list, ok := indexedMaps(v); ok {
			return list
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = normalizeNested(item)
		}
		return v
	default:
		return value
	}
}

// listFromIndexMap converts a map with contiguous numeric keys ("0".."n-1")
// back into a list. The flattener indexes list-of-map elements by position,
// so this is the inverse applied during reconstruction.
// indexedMaps recognizes the one shape the flattener produces from a list:
// a contiguous numeric-key map whose values are all maps. Anything else,
// including index maps of scalars, is left alone.
func indexedMaps(m map[string]any) ([]any, bool) {
	list, ok := listFromIndexMap(m)
	if !ok {
		return nil, false
	}
	for _, elem := range list {
		if _, ok := elem.(map[string]any); !ok {
			return nil, false
		}
	}
	return list, true
}

func listFromIndexMap(m map[string]any) ([]any, bool) {
	if len(m) == 0 {
		return nil, false
	}
	list := make([]any, len(m))
	for key, value := range m {
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(m) || list[i] != nil {
			return nil, false
		}
		list[i] = value
	}
	return list, true
}
