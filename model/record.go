package model

import (
	"context"

	"github.com/rs/zerolog"
)

var logger = zerolog.Nop()

// SetLogger installs the logger used for schema-evolution diagnostics
// (unrecognized fields dropped on construction or raw-data ingestion).
// The default logger discards everything. Call it once during program
// initialization, before any record is constructed; it is not synchronized
// against concurrent record operations.
func SetLogger(l zerolog.Logger) {
	logger = l
}

// RawFields is the field-key to value map handed back by a store, already
// unflattened but not yet mapped to schema field names.
type RawFields map[string]any

// Store is the persistence contract consumed by records. Implementations
// give no ordering guarantee across calls; callers that need cross-field
// atomicity serialize commits to the same resource id externally.
type Store interface {
	// Get returns the stored fields of one resource, or ErrNotFound.
	Get(ctx context.Context, recordType, resourceID string) (RawFields, error)

	// GetAll returns the stored fields of every resource of the type.
	GetAll(ctx context.Context, recordType string) ([]RawFields, error)

	// Set persists a record dump as an idempotent full-field overwrite.
	Set(ctx context.Context, recordType string, dump map[string]any) error

	// Remove deletes one resource, or returns ErrNotFound.
	Remove(ctx context.Context, recordType, resourceID string) error
}

// Record is a schema-validated, change-tracked document instance. data holds
// the externally visible current values; changes buffers writes that have not
// been committed yet. Both maps are keyed by field key.
type Record struct {
	schema *Schema
	store  Store

	data        map[string]any
	changes     map[string]any
	provisioned bool
}

// New constructs a detached record: supplied fields are merged over the
// schema defaults through the validated setter. Unrecognized field names are
// dropped with a diagnostic, not an error.
func New(schema *Schema, fields map[string]any) (*Record, error) {
	return newRecord(schema, nil, fields)
}

// NewWithStore constructs a record bound to a store, so Commit persists it.
func NewWithStore(schema *Schema, store Store, fields map[string]any) (*Record, error) {
	return newRecord(schema, store, fields)
}

func newRecord(schema *Schema, store Store, fields map[string]any) (*Record, error) {
	r := &Record{
		schema:  schema,
		store:   store,
		data:    schema.ResolveDefaults(),
		changes: make(map[string]any),
	}

	known := make(map[string]bool, len(schema.order))
	for _, f := range schema.Fields() {
		known[f.Name] = true
		value := fields[f.Name]
		if _, defaulted := r.data[f.Key]; !defaulted || truthy(value) {
			if err := r.Set(f.Name, value); err != nil {
				return nil, err
			}
		}
	}
	for name := range fields {
		if !known[name] {
			logger.Debug().
				Str("record_type", schema.name).
				Str("field", name).
				Msg("dropping unrecognized field")
		}
	}

	r.provisioned = true
	return r, nil
}

// Schema returns the record's schema.
func (r *Record) Schema() *Schema {
	return r.schema
}

// Type returns the record type name.
func (r *Record) Type() string {
	return r.schema.name
}

// Provisioned reports whether initial construction has completed; it gates
// read-only enforcement.
func (r *Record) Provisioned() bool {
	return r.provisioned
}

// ResourceID returns the record's resource id, or "" when unset.
func (r *Record) ResourceID() string {
	id, _ := r.data["resource_id"].(string)
	return id
}

// Get returns the current value of the named field. Pending writes are
// visible immediately; nil means absent or unknown.
func (r *Record) Get(name string) any {
	f, ok := r.schema.Field(name)
	if !ok {
		return nil
	}
	return r.data[f.Key]
}

// Has reports whether the named field currently holds a value.
func (r *Record) Has(name string) bool {
	return r.Get(name) != nil
}

// Set writes a field value through kind and read-only validation. The write
// is buffered until Commit but immediately visible through Get. nil clears
// the field.
func (r *Record) Set(name string, value any) error {
	f, ok := r.schema.Field(name)
	if !ok {
		return fieldErr(name, ErrUnknownField)
	}

	coerced, err := coerce(f.Kind, value)
	if err != nil {
		return fieldErr(name, err)
	}
	if r.provisioned && f.ReadOnly {
		return fieldErr(name, ErrReadOnly)
	}

	r.changes[f.Key] = coerced
	r.data[f.Key] = coerced
	return nil
}

// Update stages the known names of fields into the pending changes. Unknown
// names are silently ignored; the committed state is only touched by Commit.
func (r *Record) Update(fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	for _, f := range r.schema.Fields() {
		if value, ok := fields[f.Name]; ok {
			if err := r.Set(f.Name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate checks that every required field has a current value. It is a
// pure check and mutates nothing.
func (r *Record) Validate() error {
	for _, f := range r.schema.Fields() {
		if f.Required && r.data[f.Key] == nil {
			return fieldErr(f.Name, ErrMissingRequired)
		}
	}
	return nil
}

// Commit persists the record through the bound store, then merges the
// pending changes into the committed state. The store write happens first,
// so a failure leaves the pending changes intact and the commit retryable.
func (r *Record) Commit(ctx context.Context) error {
	if r.store != nil {
		if err := r.store.Set(ctx, r.schema.name, r.Dump(true)); err != nil {
			return err
		}
	}
	for key, value := range r.changes {
		r.data[key] = value
	}
	r.changes = make(map[string]any)
	return nil
}

// Pending reports whether the record has uncommitted changes.
func (r *Record) Pending() bool {
	return len(r.changes) > 0
}

// Dump produces the nested map representation of the record, keyed by field
// key. Optional fields without a current value are omitted; nested records,
// lists and maps are recursively unpacked to plain values.
func (r *Record) Dump(includeReadOnly bool) map[string]any {
	content := make(map[string]any)
	for _, f := range r.schema.Fields() {
		if f.ReadOnly && !includeReadOnly {
			continue
		}
		value := unpack(r.data[f.Key])
		if !f.Required && value == nil {
			continue
		}
		content[f.Key] = value
	}
	return content
}

// unpack reduces records to their dumps and descends into lists and maps.
func unpack(value any) any {
	switch v := value.(type) {
	case *Record:
		return v.Dump(true)
	case []any:
		list := make([]any, len(v))
		for i, item := range v {
			list[i] = unpack(item)
		}
		return list
	case map[string]any:
		content := make(map[string]any, len(v))
		for key, item := range v {
			content[key] = unpack(item)
		}
		return content
	default:
		return value
	}
}

// ProcessRawData maps stored field keys to schema field names so the result
// can feed record construction. Keys the schema does not know are dropped
// with a diagnostic.
func (s *Schema) ProcessRawData(raw RawFields) map[string]any {
	content := make(map[string]any, len(s.order))
	rest := make(map[string]any, len(raw))
	for key, value := range raw {
		rest[key] = value
	}
	for _, f := range s.Fields() {
		content[f.Name] = rest[f.Key]
		delete(rest, f.Key)
	}
	for key := range rest {
		logger.Debug().
			Str("record_type", s.name).
			Str("field", key).
			Msg("dropping unrecognized field")
	}
	return content
}

// FromRawData builds a detached record from a raw payload, for example a
// request body handed over by the API layer.
func (s *Schema) FromRawData(raw RawFields) (*Record, error) {
	return New(s, s.ProcessRawData(raw))
}

// Get reconstructs a single record of this type from the store.
func (s *Schema) Get(ctx context.Context, store Store, resourceID string) (*Record, error) {
	raw, err := store.Get(ctx, s.name, resourceID)
	if err != nil {
		return nil, err
	}
	return NewWithStore(s, store, s.ProcessRawData(raw))
}

// GetAll reconstructs every record of this type, each through the same path
// as a single Get.
func (s *Schema) GetAll(ctx context.Context, store Store) ([]*Record, error) {
	raws, err := store.GetAll(ctx, s.name)
	if err != nil {
		return nil, err
	}
	records := make([]*Record, 0, len(raws))
	for _, raw := range raws {
		r, err := NewWithStore(s, store, s.ProcessRawData(raw))
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// Remove deletes a resource at the store level; the record does not need to
// be loaded first.
func (s *Schema) Remove(ctx context.Context, store Store, resourceID string) error {
	return store.Remove(ctx, s.name, resourceID)
}

// truthy mirrors the override semantics of construction: zero and empty
// values do not replace an already resolved default.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case map[string]any:
		return len(v) > 0
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	default:
		return true
	}
}
