// Package repository provides the storage backends of the telemetry system: the volatile
// key/value cache holding rolling counters and snapshots, and the durable audit event log.
package repository

import (
	"context"
	"time"

	models "github.com/Schera-ole/telemetry/internal/model"
)

// KV is a key/value cache with per-key expiry.
//
// An expired key behaves exactly like an absent one.
type KV interface {
	// Get returns the value of key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put stores value under key. A zero ttl means no expiry.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// List returns the live keys starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// Ping checks the health of the backing store.
	Ping(ctx context.Context) error
	// Close releases any resources held by the store.
	Close() error
}

// EventLog is the durable append-only store of audit records.
type EventLog interface {
	// Insert appends one record and returns its identifier.
	Insert(ctx context.Context, record models.EventLogRecord) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
