package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memEntry struct {
	value     string
	expiresAt time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemKV implements KV in memory.
//
// It is used when no Redis address is configured and in tests.
type MemKV struct {
	// mu provides thread-safe access to entries
	mu sync.RWMutex

	entries map[string]memEntry

	// now is the clock used for expiry
	now func() time.Time
}

// MemKVOption configures a MemKV.
type MemKVOption func(*MemKV)

// WithClock replaces the clock used to evaluate expiry.
func WithClock(now func() time.Time) MemKVOption {
	return func(m *MemKV) { m.now = now }
}

// NewMemKV creates an empty in-memory key/value store.
func NewMemKV(opts ...MemKVOption) *MemKV {
	m := &MemKV{
		entries: make(map[string]memEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the value of key unless it is absent or expired.
func (m *MemKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	if !ok || entry.expired(m.now()) {
		return "", false, nil
	}
	return entry.value, true, nil
}

// Put stores value under key, replacing any previous value and expiry.
func (m *MemKV) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	entry := memEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
	return nil
}

// List returns the live keys with the given prefix in lexical order.
//
// Expired entries met on the way are dropped.
func (m *MemKV) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	keys := make([]string, 0)
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Ping always succeeds since there are no external dependencies.
func (m *MemKV) Ping(ctx context.Context) error {
	return nil
}

// Close releases any resources held by the memory store.
func (m *MemKV) Close() error {
	return nil
}
