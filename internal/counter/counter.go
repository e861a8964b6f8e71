// Package counter implements the rolling 24h counters kept in the volatile key/value cache.
//
// Every write refreshes the key's expiry, so a counter lives for 24h after its last
// increment rather than covering an exact trailing window. Increments are plain
// read-modify-write cycles without compare-and-swap: two concurrent increments of the
// same key may lose one update. The counters feed an approximate dashboard, so the
// race is tolerated; swap in an atomic increment on the backing store if that changes.
package counter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Schera-ole/telemetry/internal/config"
	internalerrors "github.com/Schera-ole/telemetry/internal/errors"
	"github.com/Schera-ole/telemetry/internal/repository"
)

// Cache accumulates rolling counters in a key/value store.
type Cache struct {
	kv  repository.KV
	ttl time.Duration
}

// NewCache creates a counter cache over kv using the standard 24h expiry.
func NewCache(kv repository.KV) *Cache {
	return &Cache{kv: kv, ttl: config.CounterTTL}
}

// Increment adds delta to key and re-arms its expiry.
//
// A missing, expired or unparsable value counts as zero.
func (c *Cache) Increment(ctx context.Context, key string, delta int64) error {
	current, err := c.Value(ctx, key)
	if err != nil {
		return err
	}
	next := current + delta
	if next < 0 {
		next = 0
	}
	if err := c.kv.Put(ctx, key, strconv.FormatInt(next, 10), c.ttl); err != nil {
		return fmt.Errorf("%w: increment %s: %w", internalerrors.ErrCache, key, err)
	}
	return nil
}

// TrackUniqueVisitor counts ip once per marker lifetime.
//
// The marker check and the counter update are separate steps, so two concurrent
// first sightings of the same ip may both be counted.
func (c *Cache) TrackUniqueVisitor(ctx context.Context, ip string) error {
	marker := config.VisitorPrefix + ip
	_, seen, err := c.kv.Get(ctx, marker)
	if err != nil {
		return fmt.Errorf("%w: visitor lookup %s: %w", internalerrors.ErrCache, ip, err)
	}
	if seen {
		return nil
	}
	if err := c.kv.Put(ctx, marker, "1", c.ttl); err != nil {
		return fmt.Errorf("%w: visitor mark %s: %w", internalerrors.ErrCache, ip, err)
	}
	return c.Increment(ctx, config.KeyUniques, 1)
}

// Value returns the current value of key, zero when absent.
func (c *Cache) Value(ctx context.Context, key string) (int64, error) {
	raw, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("%w: read %s: %w", internalerrors.ErrCache, key, err)
	}
	if !ok {
		return 0, nil
	}
	return parseCount(raw), nil
}

// Keys lists the live counter keys under prefix.
func (c *Cache) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := c.kv.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", internalerrors.ErrCache, prefix, err)
	}
	return keys, nil
}

func parseCount(raw string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
