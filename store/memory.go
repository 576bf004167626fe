package store

import (
	"context"
	"errors"
	"sync"
)

var errBackendDown = errors.New("arestor: memory backend down")

// MemoryKeyValue is an in-process hash+set engine implementing KeyValue. It
// backs unit tests and local runs where no DynamoDB table is available. The
// zero liveness behavior is always-alive; Fail arranges upcoming probe and
// dial failures for connectivity testing.
type MemoryKeyValue struct {
	mu       sync.Mutex
	hashes   map[string]map[string]string
	sets     map[string]map[string]struct{}
	failures int
}

// NewMemoryKeyValue creates an empty in-memory engine.
func NewMemoryKeyValue() *MemoryKeyValue {
	return &MemoryKeyValue{
		hashes: make(map[string]map[string]string),
		sets:   make(map[string]map[string]struct{}),
	}
}

// Fail makes the next n Ping and Dial calls fail, counted per call.
func (m *MemoryKeyValue) Fail(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
}

func (m *MemoryKeyValue) failNext() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return true
	}
	return false
}

// Dial implements KeyValue.
func (m *MemoryKeyValue) Dial(ctx context.Context) error {
	if m.failNext() {
		return errBackendDown
	}
	return nil
}

// Ping implements KeyValue.
func (m *MemoryKeyValue) Ping(ctx context.Context) error {
	if m.failNext() {
		return errBackendDown
	}
	return nil
}

// HSet implements KeyValue.
func (m *MemoryKeyValue) HSet(ctx context.Context, hash, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fields, ok := m.hashes[hash]
	if !ok {
		fields = make(map[string]string)
		m.hashes[hash] = fields
	}
	fields[field] = value
	return nil
}

// HGet implements KeyValue.
func (m *MemoryKeyValue) HGet(ctx context.Context, hash, field string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.hashes[hash][field]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// HDel implements KeyValue.
func (m *MemoryKeyValue) HDel(ctx context.Context, hash, field string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hashes[hash], field)
	return nil
}

// SAdd implements KeyValue.
func (m *MemoryKeyValue) SAdd(ctx context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	members, ok := m.sets[key]
	if !ok {
		members = make(map[string]struct{})
		m.sets[key] = members
	}
	members[member] = struct{}{}
	return nil
}

// SRem implements KeyValue.
func (m *MemoryKeyValue) SRem(ctx context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sets[key], member)
	return nil
}

// SIsMember implements KeyValue.
func (m *MemoryKeyValue) SIsMember(ctx context.Context, key, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sets[key][member]
	return ok, nil
}

// SMembers implements KeyValue.
func (m *MemoryKeyValue) SMembers(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	members := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		members = append(members, member)
	}
	return members, nil
}
