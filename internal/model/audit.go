// Package models defines the data structures used throughout the telemetry system.
package models

import (
	"strings"
	"time"
)

// Action is the closed set of audited actions.
type Action string

const (
	ActionLoginAttempt   Action = "LOGIN_ATTEMPT"
	ActionLoginSuccess   Action = "LOGIN_SUCCESS"
	ActionVoteCast       Action = "VOTE_CAST"
	ActionProposalCreate Action = "PROPOSAL_CREATE"
	ActionDashboardView  Action = "DASHBOARD_VIEW"
	ActionAPIRequest     Action = "API_REQUEST"
	ActionKYCUpload      Action = "KYC_UPLOAD"
	ActionAdminAction    Action = "ADMIN_ACTION"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionLoginAttempt, ActionLoginSuccess, ActionVoteCast, ActionProposalCreate,
		ActionDashboardView, ActionAPIRequest, ActionKYCUpload, ActionAdminAction:
		return true
	}
	return false
}

// Status is the outcome of an audited action.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

const (
	// AnonymousActor is recorded when an event carries no actor.
	AnonymousActor = "anon"

	// UnknownCountry is the sentinel for a missing or unresolvable country code.
	UnknownCountry = "XX"

	// UnknownIP is what the edge reports when the client address is not available.
	UnknownIP = "unknown"
)

// PerfMetrics carries the optional per-request performance figures.
type PerfMetrics struct {
	DBReads  int64 `json:"dbReads,omitempty"`
	DBWrites int64 `json:"dbWrites,omitempty"`
	BytesOut int64 `json:"bytesOut,omitempty"`
}

// AuditEvent is one observed action. It is the input of the dispatcher and is never stored as-is.
type AuditEvent struct {
	// Action is the audited action tag
	Action Action `json:"action"`

	// ActorID identifies who performed the action ("anon" if absent)
	ActorID string `json:"actorId,omitempty"`

	// Resource optionally identifies what the action touched
	Resource string `json:"resource,omitempty"`

	// IP is the originating client address
	IP string `json:"ip"`

	// Country is the 2-letter country code ("XX" if unknown)
	Country string `json:"country,omitempty"`

	// UserAgent is the client user-agent string
	UserAgent string `json:"userAgent,omitempty"`

	// Status is the outcome of the action
	Status Status `json:"status"`

	// IsCacheHit marks requests served from cache
	IsCacheHit bool `json:"isCacheHit,omitempty"`

	// Metadata is opaque free-form context
	Metadata map[string]any `json:"metadata,omitempty"`

	// Metrics holds optional performance figures
	Metrics *PerfMetrics `json:"metrics,omitempty"`
}

// Normalize fills in the documented defaults for absent fields.
func (e AuditEvent) Normalize() AuditEvent {
	if strings.TrimSpace(e.ActorID) == "" {
		e.ActorID = AnonymousActor
	}
	e.Country = strings.ToUpper(strings.TrimSpace(e.Country))
	if e.Country == "" {
		e.Country = UnknownCountry
	}
	e.IP = strings.TrimSpace(e.IP)
	return e
}

// HasCountry reports whether the event carries a usable 2-letter country code.
func (e AuditEvent) HasCountry() bool {
	return len(e.Country) == 2 && e.Country != UnknownCountry
}

// HasIP reports whether the event carries a known client address.
func (e AuditEvent) HasIP() bool {
	return e.IP != "" && e.IP != UnknownIP
}

// EventLogRecord is one row of the durable, append-only audit log.
type EventLogRecord struct {
	ID        int64     `json:"id"`
	Action    Action    `json:"action"`
	ActorID   string    `json:"actorId"`
	Resource  string    `json:"resource,omitempty"`
	Status    Status    `json:"status"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent,omitempty"`
	Country   string    `json:"country"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
