// Package store persists records on a key-value backend that natively
// supports only flat hash maps and sets.
//
// [KeyValueStore] implements the model.Store contract by projecting a
// record's nested dump onto flat entries and reconstructing it on read. For
// record type T and resource id R the persisted layout is:
//
//   - index set "models.T" holds R for every existing resource of type T
//   - field "R.fields" of the reserved "schema" hash holds the comma-joined
//     list of persisted field keys for R
//   - field "R.<key>" of the "T" hash holds the JSON-encoded leaf value of
//     the flattened dump, one entry per leaf
//
// This naming is preserved bit-for-bit for interop with existing data.
//
// The backing engine is abstracted by the [KeyValue] interface: hash field
// set/get/delete plus set add/remove/enumerate. [DynamoKeyValue] hosts these
// primitives on a single DynamoDB table; [MemoryKeyValue] is an in-process
// engine for tests and local runs.
//
// Every public operation first refreshes the connection: a bounded loop of
// liveness probe or reconnect, raising [ErrConnectivity] once the retry
// budget is exhausted. There is no backoff and no internally spawned
// goroutine; the only suspension points are the calls into the backend.
//
// # Errors
//
// The package defines store-level errors:
//
//   - [ErrNotFound] - the resource id does not exist for the type
//   - [ErrConnectivity] - the reconnect budget is exhausted
//   - [ErrIntegrity] - an indexed resource is missing its schema entry
//
// ErrIntegrity is deliberately distinct from ErrNotFound: the resource was
// expected to exist and must not be silently treated as absent.
package store
