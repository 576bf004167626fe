package store

import "context"

// KeyValue is the primitive surface the record store needs from a backing
// engine: hash field writes, reads and deletes, plus set membership. Any
// engine offering these shapes, Redis-like or otherwise, can host a
// KeyValueStore.
//
// HGet returns ErrKeyNotFound for an absent hash or field.
type KeyValue interface {
	// Dial establishes or re-establishes the connection.
	Dial(ctx context.Context) error

	// Ping is a lightweight liveness probe.
	Ping(ctx context.Context) error

	HSet(ctx context.Context, hash, field, value string) error
	HGet(ctx context.Context, hash, field string) (string, error)
	HDel(ctx context.Context, hash, field string) error

	SAdd(ctx context.Context, key, member string) error
	SRem(ctx context.Context, key, member string) error
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SMembers(ctx context.Context, key string) ([]string, error)
}

// schemaHash is the reserved hash holding the per-resource field listings.
const schemaHash = "schema"

// indexKey names the set holding every resource id of a record type.
func indexKey(recordType string) string {
	return "models." + recordType
}

// schemaField names the schema-hash field holding a resource's field listing.
func schemaField(resourceID string) string {
	return resourceID + ".fields"
}

// fieldEntry names the record-type hash field holding one flattened leaf.
func fieldEntry(resourceID, fieldKey string) string {
	return resourceID + "." + fieldKey
}
