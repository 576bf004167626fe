package store

import "errors"

var (
	// ErrNotFound is returned when a resource id does not exist for the record type.
	ErrNotFound = errors.New("arestor: resource not found")

	// ErrConnectivity is returned after the bounded reconnect budget is
	// exhausted. It is fatal for the current operation and not retried again.
	ErrConnectivity = errors.New("arestor: backend unreachable")

	// ErrIntegrity is returned when an indexed resource is missing its schema
	// entry. The resource was expected to exist, so this must never surface
	// as a plain ErrNotFound.
	ErrIntegrity = errors.New("arestor: resource index entry has no schema entry")

	// ErrMissingResourceID is returned by Set when the dump carries no
	// non-empty resource_id.
	ErrMissingResourceID = errors.New("arestor: dump has no resource_id")

	// ErrKeyNotFound is returned by KeyValue implementations for an absent
	// hash field. Store operations translate it into ErrNotFound or
	// ErrIntegrity depending on context.
	ErrKeyNotFound = errors.New("arestor: key not found")
)
