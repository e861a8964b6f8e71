// Package service provides the business logic layer behind the HTTP handlers.
package service

import (
	"context"
	"time"

	"github.com/Schera-ole/telemetry/internal/audit"
	models "github.com/Schera-ole/telemetry/internal/model"
	"github.com/Schera-ole/telemetry/internal/repository"
	"github.com/Schera-ole/telemetry/internal/stats"
)

const (
	HealthOK           = "ok"
	HealthPartialError = "partial_error"

	componentHealthy   = "healthy"
	componentUnhealthy = "unhealthy"
)

// ComponentHealth is the result of probing one backing store.
type ComponentHealth struct {
	Status string `json:"status"`
	Type   string `json:"type"`
	Error  string `json:"error,omitempty"`
}

// HealthReport summarizes the state of the backing stores.
type HealthReport struct {
	Status       string                     `json:"status"`
	System       string                     `json:"system"`
	Timestamp    time.Time                  `json:"timestamp"`
	PendingTasks int64                      `json:"pendingTasks"`
	Details      map[string]ComponentHealth `json:"details"`
}

// PendingCounter reports the number of unsettled background tasks.
type PendingCounter interface {
	Pending() int64
}

// TelemetryService provides the read and record operations used by the handlers.
//
// It delegates to the metrics reader, the audit logger and the storage backends.
type TelemetryService struct {
	// reader serves the consolidated dashboard metrics
	reader *stats.Reader
	// audit receives events recorded by handlers
	audit audit.Logger

	kv      repository.KV
	events  repository.EventLog
	pending PendingCounter
}

// NewTelemetryService creates a new TelemetryService.
func NewTelemetryService(
	reader *stats.Reader,
	logger audit.Logger,
	kv repository.KV,
	events repository.EventLog,
	pending PendingCounter,
) *TelemetryService {

	return &TelemetryService{reader: reader, audit: logger, kv: kv, events: events, pending: pending}
}

// DashboardMetrics returns the current dashboard metrics.
func (ts *TelemetryService) DashboardMetrics(ctx context.Context) models.DashboardMetrics {

	return ts.reader.GetDashboardMetrics(ctx)
}

// Record hands event to the audit logger without waiting for it to be stored.
func (ts *TelemetryService) Record(event models.AuditEvent) {

	ts.audit.Log(event)
}

// Health pings the cache and the event log.
func (ts *TelemetryService) Health(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:    HealthOK,
		System:    "telemetry",
		Timestamp: time.Now().UTC(),
		Details:   make(map[string]ComponentHealth, 2),
	}
	if ts.pending != nil {
		report.PendingTasks = ts.pending.Pending()
	}

	check := func(name, typ string, ping func(context.Context) error) {
		if err := ping(ctx); err != nil {
			report.Details[name] = ComponentHealth{Status: componentUnhealthy, Type: typ, Error: err.Error()}
			report.Status = HealthPartialError
			return
		}
		report.Details[name] = ComponentHealth{Status: componentHealthy, Type: typ}
	}
	check("database", ts.eventLogType(), ts.events.Ping)
	check("cache", ts.cacheType(), ts.kv.Ping)
	return report
}

// IsMemStorage reports whether both stores are the in-memory implementations.
func (ts *TelemetryService) IsMemStorage() bool {
	_, memKV := ts.kv.(*repository.MemKV)
	_, memLog := ts.events.(*repository.MemEventLog)
	return memKV && memLog
}

func (ts *TelemetryService) cacheType() string {
	if _, ok := ts.kv.(*repository.MemKV); ok {
		return "memory"
	}
	return "redis"
}

func (ts *TelemetryService) eventLogType() string {
	if _, ok := ts.events.(*repository.MemEventLog); ok {
		return "memory"
	}
	return "postgres"
}
