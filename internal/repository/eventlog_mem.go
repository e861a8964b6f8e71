package repository

import (
	"context"
	"sync"

	models "github.com/Schera-ole/telemetry/internal/model"
)

// MemEventLog keeps audit records in memory. It never drops or rewrites a record.
type MemEventLog struct {
	mu      sync.RWMutex
	records []models.EventLogRecord
}

func NewMemEventLog() *MemEventLog {
	return &MemEventLog{}
}

// Insert appends the record and assigns it the next sequential id.
func (l *MemEventLog) Insert(ctx context.Context, record models.EventLogRecord) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	record.ID = int64(len(l.records) + 1)
	l.records = append(l.records, record)
	return record.ID, nil
}

// Records returns a copy of everything appended so far, oldest first.
func (l *MemEventLog) Records() []models.EventLogRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.EventLogRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of stored records.
func (l *MemEventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

func (l *MemEventLog) Ping(ctx context.Context) error {
	return nil
}

func (l *MemEventLog) Close() error {
	return nil
}
