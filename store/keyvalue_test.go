package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexcoman/arestor/store"
)

func newTestStore(t *testing.T) (*store.KeyValueStore, *store.MemoryKeyValue) {
	t.Helper()
	kv := store.NewMemoryKeyValue()
	return store.New(kv, store.DefaultConfig()), kv
}

func instanceDump(id string) map[string]any {
	return map[string]any{
		"resource_id":  id,
		"name":         "vm-" + id,
		"hostname":     "host-" + id,
		"launch_index": int64(0),
		"metadata": map[string]any{
			"zone": "nova",
			"tags": []any{"web", "prod"},
		},
	}
}

// --- Set / Get ---

func TestSetGet_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "Instance", instanceDump("r-1")))

	raw, err := s.Get(ctx, "Instance", "r-1")
	require.NoError(t, err)

	assert.Equal(t, "vm-r-1", raw["name"])
	assert.Equal(t, "host-r-1", raw["hostname"])

	// Nested maps come back nested; scalar lists stay lists.
	metadata, ok := raw["metadata"].(map[string]any)
	require.True(t, ok, "metadata must be reconstructed as a map, got %#v", raw["metadata"])
	assert.Equal(t, "nova", metadata["zone"])
	assert.Equal(t, []any{"web", "prod"}, metadata["tags"])
}

func TestSet_RequiresResourceID(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.Set(context.Background(), "Instance", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, store.ErrMissingResourceID)
}

func TestSet_OverwriteReplacesSchemaListing(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "Instance", map[string]any{
		"resource_id": "r-1",
		"name":        "first",
		"hostname":    "h-1",
	}))
	require.NoError(t, s.Set(ctx, "Instance", map[string]any{
		"resource_id": "r-1",
		"name":        "second",
	}))

	// Only the latest shape survives.
	listing, err := kv.HGet(ctx, "schema", "r-1.fields")
	require.NoError(t, err)
	assert.Equal(t, "name,resource_id", listing)

	raw, err := s.Get(ctx, "Instance", "r-1")
	require.NoError(t, err)
	assert.Equal(t, "second", raw["name"])
	_, ok := raw["hostname"]
	assert.False(t, ok, "field dropped by the new shape must not resurface")
}

// The persisted layout is interop surface: verify it through the raw
// primitives, not through the store's own read path.
func TestSet_PersistedLayout(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "Instance", map[string]any{
		"resource_id": "r-1",
		"name":        "x",
		"metadata":    map[string]any{"zone": "nova"},
	}))

	member, err := kv.SIsMember(ctx, "models.Instance", "r-1")
	require.NoError(t, err)
	assert.True(t, member)

	listing, err := kv.HGet(ctx, "schema", "r-1.fields")
	require.NoError(t, err)
	assert.Equal(t, "metadata.zone,name,resource_id", listing)

	name, err := kv.HGet(ctx, "Instance", "r-1.name")
	require.NoError(t, err)
	assert.Equal(t, `"x"`, name, "leaf values are JSON-encoded")

	zone, err := kv.HGet(ctx, "Instance", "r-1.metadata.zone")
	require.NoError(t, err)
	assert.Equal(t, `"nova"`, zone)
}

func TestGet_NotFound(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Get(context.Background(), "Instance", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGet_IndexedWithoutSchemaIsIntegrityFault(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, kv.SAdd(ctx, "models.Instance", "ghost"))

	_, err := s.Get(ctx, "Instance", "ghost")
	assert.ErrorIs(t, err, store.ErrIntegrity)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestGet_MissingFieldEntryIsIntegrityFault(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "Instance", map[string]any{
		"resource_id": "r-1",
		"name":        "x",
	}))
	require.NoError(t, kv.HDel(ctx, "Instance", "r-1.name"))

	_, err := s.Get(ctx, "Instance", "r-1")
	assert.ErrorIs(t, err, store.ErrIntegrity)
}

// --- GetAll ---

func TestGetAll_ReturnsEveryResource(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "Instance", instanceDump("r-1")))
	require.NoError(t, s.Set(ctx, "Instance", instanceDump("r-2")))

	raws, err := s.GetAll(ctx, "Instance")
	require.NoError(t, err)
	require.Len(t, raws, 2)

	ids := []string{raws[0]["resource_id"].(string), raws[1]["resource_id"].(string)}
	assert.ElementsMatch(t, []string{"r-1", "r-2"}, ids)
}

func TestGetAll_EmptyType(t *testing.T) {
	s, _ := newTestStore(t)
	raws, err := s.GetAll(context.Background(), "Instance")
	require.NoError(t, err)
	assert.Empty(t, raws)
}

func TestGetAll_BrokenMemberIsIntegrityFault(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "Instance", instanceDump("r-1")))
	require.NoError(t, kv.SAdd(ctx, "models.Instance", "ghost"))

	_, err := s.GetAll(ctx, "Instance")
	assert.ErrorIs(t, err, store.ErrIntegrity)
}

// --- Remove ---

func TestRemove_ThenGetNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "Instance", instanceDump("r-1")))
	require.NoError(t, s.Remove(ctx, "Instance", "r-1"))

	_, err := s.Get(ctx, "Instance", "r-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRemove_Missing(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.Remove(context.Background(), "Instance", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRemove_CleansUpFieldEntries(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "Instance", map[string]any{
		"resource_id": "r-1",
		"name":        "x",
	}))
	require.NoError(t, s.Remove(ctx, "Instance", "r-1"))

	_, err := kv.HGet(ctx, "Instance", "r-1.name")
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
	_, err = kv.HGet(ctx, "schema", "r-1.fields")
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}

func TestRemove_DoesNotTouchSiblings(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "Instance", instanceDump("r-1")))
	require.NoError(t, s.Set(ctx, "Instance", instanceDump("r-2")))
	require.NoError(t, s.Remove(ctx, "Instance", "r-1"))

	raws, err := s.GetAll(ctx, "Instance")
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "r-2", raws[0]["resource_id"])
}

// --- Connection Management ---

func TestRefresh_RecoversWithinBudget(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "Instance", instanceDump("r-1")))

	// First attempt fails probe and dial, second probe fails, dial succeeds.
	kv.Fail(3)
	_, err := s.Get(ctx, "Instance", "r-1")
	assert.NoError(t, err)
}

func TestRefresh_ExhaustedBudgetIsFatal(t *testing.T) {
	kv := store.NewMemoryKeyValue()
	s := store.New(kv, store.Config{RetryCount: 2})

	kv.Fail(4)
	_, err := s.Get(context.Background(), "Instance", "r-1")
	assert.ErrorIs(t, err, store.ErrConnectivity)
}
