// Package model implements the schema-driven record layer of the metadata
// mock: declarative field specifications, per-type schemas with resolved
// defaults, and change-tracked record instances that persist through any
// backend implementing the [Store] interface.
//
// # Schemas
//
// A record type is described once, at program start, by building a [Schema]
// from [Field] specifications:
//
//	schema := model.NewSchema("Instance",
//	    model.Field{Name: "name", Key: "name", Kind: model.String, Required: true},
//	    model.Field{Name: "launch_index", Key: "launch_index", Kind: model.Int, Default: int64(0)},
//	)
//
// Derived types are composed with [Schema.Extend]: every parent field not
// locally overridden is copied into the derived schema, so mutable default
// state is never shared between type hierarchies.
//
// # Records
//
// [New] merges supplied fields over the schema defaults and returns a
// provisioned [Record]. Field writes go through [Record.Set], which enforces
// the declared kind and read-only flags and buffers the write until
// [Record.Commit]. [Record.Dump] produces the nested map representation
// handed to the store.
//
// # Errors
//
// The package defines field-level sentinels:
//
//   - [ErrMissingRequired] - a required field has no current value
//   - [ErrTypeMismatch] - a write disagrees with the declared kind
//   - [ErrReadOnly] - a post-provision write to a read-only field
//   - [ErrUnknownField] - the schema has no field of that name
//
// They are wrapped in a [*FieldError] carrying the field name, so both
// errors.Is and the offending field are available to callers.
package model
