package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alexcoman/arestor/internal/flatpath"
	"github.com/alexcoman/arestor/model"
)

// KeyValueStore implements model.Store over a hash+set oriented key-value
// backend, with connection-liveness management and bounded reconnect retry.
type KeyValueStore struct {
	kv     KeyValue
	config Config
	log    zerolog.Logger
}

var _ model.Store = (*KeyValueStore)(nil)

// New creates a KeyValueStore over the given backend.
func New(kv KeyValue, config Config) *KeyValueStore {
	config.validate()
	log := zerolog.Nop()
	if config.Logger != nil {
		log = *config.Logger
	}
	return &KeyValueStore{
		kv:     kv,
		config: config,
		log:    log,
	}
}

// refresh re-establishes the connection only if it is dropped. It probes
// liveness first, reconnects on failure, and gives up with ErrConnectivity
// once the retry budget is exhausted. A cheap no-op when already alive.
func (s *KeyValueStore) refresh(ctx context.Context) error {
	for attempt := 1; attempt <= s.config.RetryCount; attempt++ {
		if err := s.kv.Ping(ctx); err == nil {
			return nil
		}
		err := s.kv.Dial(ctx)
		if err == nil {
			return nil
		}
		s.log.Debug().
			Err(err).
			Int("attempt", attempt).
			Msg("reconnect failed")
	}
	return ErrConnectivity
}

// Set persists a record dump as an idempotent full-field overwrite: the
// schema listing is written first, then one entry per flattened leaf, then
// the resource id is indexed under its type. The writes are not atomic as a
// whole; a crash mid-sequence can leave a partial state behind.
func (s *KeyValueStore) Set(ctx context.Context, recordType string, dump map[string]any) error {
	if err := s.refresh(ctx); err != nil {
		return err
	}

	resourceID, _ := dump["resource_id"].(string)
	if resourceID == "" {
		return ErrMissingResourceID
	}

	flat := flatpath.Flatten(dump)
	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// The listing is not versioned; only the latest shape survives.
	if err := s.kv.HSet(ctx, schemaHash, schemaField(resourceID), strings.Join(keys, ",")); err != nil {
		return fmt.Errorf("write schema listing: %w", err)
	}

	for _, key := range keys {
		encoded, err := json.Marshal(flat[key])
		if err != nil {
			return fmt.Errorf("encode field %q: %w", key, err)
		}
		if err := s.kv.HSet(ctx, recordType, fieldEntry(resourceID, key), string(encoded)); err != nil {
			return fmt.Errorf("write field %q: %w", key, err)
		}
	}

	if err := s.kv.SAdd(ctx, indexKey(recordType), resourceID); err != nil {
		return fmt.Errorf("index resource: %w", err)
	}
	return nil
}

// Get reads back one resource: the schema listing names the persisted field
// keys, each is read and JSON-decoded, and the flat map is unflattened.
func (s *KeyValueStore) Get(ctx context.Context, recordType, resourceID string) (model.RawFields, error) {
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	return s.getResource(ctx, recordType, resourceID)
}

// GetAll enumerates the type's index and reads every member through the same
// path as a single Get. An indexed member without a schema entry is a
// data-integrity fault, not an absent resource.
func (s *KeyValueStore) GetAll(ctx context.Context, recordType string) ([]model.RawFields, error) {
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	members, err := s.kv.SMembers(ctx, indexKey(recordType))
	if err != nil {
		return nil, fmt.Errorf("enumerate %q index: %w", recordType, err)
	}
	sort.Strings(members)

	resources := make([]model.RawFields, 0, len(members))
	for _, resourceID := range members {
		raw, err := s.getResource(ctx, recordType, resourceID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// getResource reports integrity faults itself; ErrNotFound
				// here means the member was unindexed by a concurrent Remove
				// after SMembers. Report it, never skip it.
				return nil, fmt.Errorf("%w: %s/%s", ErrIntegrity, recordType, resourceID)
			}
			return nil, err
		}
		resources = append(resources, raw)
	}
	return resources, nil
}

// Remove unindexes the resource and deletes its schema entry. The field
// entries are cleaned up eagerly as well; leaving them orphaned would be
// within contract, but they are unreachable either way once the schema entry
// is gone.
func (s *KeyValueStore) Remove(ctx context.Context, recordType, resourceID string) error {
	if err := s.refresh(ctx); err != nil {
		return err
	}

	listing, err := s.kv.HGet(ctx, schemaHash, schemaField(resourceID))
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			return fmt.Errorf("read schema listing: %w", err)
		}
		member, merr := s.kv.SIsMember(ctx, indexKey(recordType), resourceID)
		if merr != nil {
			return fmt.Errorf("check %q index: %w", recordType, merr)
		}
		if !member {
			return ErrNotFound
		}
		// Dangling index entry; unindex it and report the repair.
		s.log.Warn().
			Str("record_type", recordType).
			Str("resource_id", resourceID).
			Msg("removing index entry without schema entry")
		listing = ""
	}

	for _, key := range splitListing(listing) {
		if err := s.kv.HDel(ctx, recordType, fieldEntry(resourceID, key)); err != nil {
			return fmt.Errorf("delete field %q: %w", key, err)
		}
	}
	if err := s.kv.HDel(ctx, schemaHash, schemaField(resourceID)); err != nil {
		return fmt.Errorf("delete schema listing: %w", err)
	}
	if err := s.kv.SRem(ctx, indexKey(recordType), resourceID); err != nil {
		return fmt.Errorf("unindex resource: %w", err)
	}
	return nil
}

func (s *KeyValueStore) getResource(ctx context.Context, recordType, resourceID string) (model.RawFields, error) {
	listing, err := s.kv.HGet(ctx, schemaHash, schemaField(resourceID))
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			return nil, fmt.Errorf("read schema listing: %w", err)
		}
		member, merr := s.kv.SIsMember(ctx, indexKey(recordType), resourceID)
		if merr != nil {
			return nil, fmt.Errorf("check %q index: %w", recordType, merr)
		}
		if member {
			return nil, fmt.Errorf("%w: %s/%s", ErrIntegrity, recordType, resourceID)
		}
		return nil, ErrNotFound
	}

	flat := make(map[string]any)
	for _, key := range splitListing(listing) {
		encoded, err := s.kv.HGet(ctx, recordType, fieldEntry(resourceID, key))
		if err != nil {
			if errors.Is(err, ErrKeyNotFound) {
				return nil, fmt.Errorf("%w: %s/%s missing field %q", ErrIntegrity, recordType, resourceID, key)
			}
			return nil, fmt.Errorf("read field %q: %w", key, err)
		}
		value, err := decodeLeaf(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode field %q: %w", key, err)
		}
		flat[key] = value
	}
	return flatpath.Unflatten(flat), nil
}

func splitListing(listing string) []string {
	if listing == "" {
		return nil
	}
	return strings.Split(listing, ",")
}

// decodeLeaf parses a stored JSON leaf, keeping numbers as json.Number so
// the record layer can canonicalize them per field kind.
func decodeLeaf(encoded string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(encoded))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}
