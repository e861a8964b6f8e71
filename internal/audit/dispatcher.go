// Package audit records every observed action in the durable event log and feeds the
// rolling counters behind the dashboard.
//
// Both destinations are best effort. The durable write is always attempted; the
// counters only see successful events, so the dashboards reflect useful traffic.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/Schera-ole/telemetry/internal/config"
	"github.com/Schera-ole/telemetry/internal/counter"
	models "github.com/Schera-ole/telemetry/internal/model"
	"github.com/Schera-ole/telemetry/internal/tasks"
)

// Logger is an interface for logging audit events.
type Logger interface {
	// Log records event in the background. It never fails and never blocks.
	Log(event models.AuditEvent)
}

// Dispatcher is the concrete Logger fanning events out to the event log and the counters.
type Dispatcher struct {
	writer   *Writer
	counters *counter.Cache
	registry *tasks.Registry
	logger   *zap.SugaredLogger
}

// NewDispatcher creates a Dispatcher. Background work is submitted to registry.
func NewDispatcher(writer *Writer, counters *counter.Cache, registry *tasks.Registry, logger *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		writer:   writer,
		counters: counters,
		registry: registry,
		logger:   logger.With("component", "audit"),
	}
}

// Log schedules Handle for event on the task registry and returns immediately.
func (d *Dispatcher) Log(event models.AuditEvent) {
	err := d.registry.Go("audit:"+string(event.Action), func(ctx context.Context) error {
		d.Handle(ctx, event)
		return nil
	})
	if err != nil {
		d.logger.Warnw("audit event dropped", "action", event.Action, "error", err)
	}
}

// Handle writes event to the event log and, for successful events, updates the
// counters. Both phases run concurrently and Handle returns once both settled.
func (d *Dispatcher) Handle(ctx context.Context, event models.AuditEvent) {
	event = event.Normalize()
	if !event.Action.Valid() {
		d.logger.Warnw("unknown audit action", "action", event.Action)
	}

	phases := []tasks.Task{{
		Name: "event_log",
		Run: func(ctx context.Context) error {
			_, err := d.writer.Append(ctx, event)
			return err
		},
	}}
	if event.Status == models.StatusSuccess {
		phases = append(phases, tasks.Task{
			Name: "counters",
			Run: func(ctx context.Context) error {
				d.updateCounters(ctx, event)
				return nil
			},
		})
	}

	for _, failed := range tasks.Failed(tasks.SettleAll(ctx, phases...)) {
		d.logger.Errorw("audit write failed", "action", event.Action, "phase", failed.Name, "error", failed.Err)
	}
}

// updateCounters issues every applicable increment as an independent task and
// returns the number of increments that failed.
func (d *Dispatcher) updateCounters(ctx context.Context, event models.AuditEvent) int {
	failed := tasks.Failed(tasks.SettleAll(ctx, d.counterTasks(event)...))
	for _, f := range failed {
		d.logger.Warnw("counter update failed", "counter", f.Name, "error", f.Err)
	}
	return len(failed)
}

func (d *Dispatcher) counterTasks(event models.AuditEvent) []tasks.Task {
	incr := func(key string, delta int64) tasks.Task {
		return tasks.Task{
			Name: key,
			Run: func(ctx context.Context) error {
				return d.counters.Increment(ctx, key, delta)
			},
		}
	}

	list := []tasks.Task{
		incr(config.KeyRequests, 1),
		incr(config.KeyCacheTotal, 1),
	}
	if event.IsCacheHit {
		list = append(list, incr(config.KeyCacheHits, 1))
	}
	if m := event.Metrics; m != nil {
		if m.BytesOut > 0 {
			list = append(list, incr(config.KeyBandwidth, m.BytesOut))
		}
		if m.DBWrites > 0 {
			list = append(list, incr(config.KeyDBWrites, m.DBWrites))
		}
		if m.DBReads > 0 {
			list = append(list, incr(config.KeyDBReads, m.DBReads))
		}
	}
	// "XX" and malformed codes would pollute the top-country ranking
	if event.HasCountry() {
		list = append(list, incr(config.CountryPrefix+event.Country, 1))
	}
	if event.HasIP() {
		list = append(list, tasks.Task{
			Name: config.KeyUniques,
			Run: func(ctx context.Context) error {
				return d.counters.TrackUniqueVisitor(ctx, event.IP)
			},
		})
	}
	return list
}
