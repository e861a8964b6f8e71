package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	internalerrors "github.com/Schera-ole/telemetry/internal/errors"
	models "github.com/Schera-ole/telemetry/internal/model"
	"github.com/Schera-ole/telemetry/internal/repository"
)

// Writer appends audit events to the durable event log.
type Writer struct {
	store repository.EventLog
	now   func() time.Time
}

// NewWriter creates a Writer over store.
func NewWriter(store repository.EventLog) *Writer {
	return &Writer{store: store, now: time.Now}
}

// Append stores one record for event with a single insert.
//
// Failures are wrapped in ErrPersistence; the caller decides whether to log them.
func (w *Writer) Append(ctx context.Context, event models.AuditEvent) (int64, error) {
	record := NewRecord(event.Normalize(), w.now())
	id, err := w.store.Insert(ctx, record)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", internalerrors.ErrPersistence, err)
	}
	return id, nil
}

// NewRecord converts an event into its durable form.
//
// Metadata that cannot be serialized is replaced by an error marker rather than
// dropping the whole record.
func NewRecord(event models.AuditEvent, at time.Time) models.EventLogRecord {
	record := models.EventLogRecord{
		Action:    event.Action,
		ActorID:   event.ActorID,
		Resource:  event.Resource,
		Status:    event.Status,
		IPAddress: event.IP,
		UserAgent: event.UserAgent,
		Country:   event.Country,
		CreatedAt: at.UTC(),
	}
	if len(event.Metadata) > 0 {
		data, err := json.Marshal(event.Metadata)
		if err != nil {
			data, _ = json.Marshal(map[string]string{"error": "unserializable metadata"})
		}
		record.Metadata = string(data)
	}
	return record
}
