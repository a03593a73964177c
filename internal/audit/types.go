// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package audit

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// EventType categorizes audit events.
type EventType string

const (
	// Authentication failures: missing, malformed, invalid or expired tokens.
	EventTypeAuthFailure EventType = "auth.failure"

	// Principal resolution failures.
	EventTypePrincipalInactive   EventType = "auth.principal_inactive"
	EventTypeIdentityUnavailable EventType = "identity.unavailable"

	// Authorization decisions.
	EventTypeAuthzGranted      EventType = "authz.granted"
	EventTypeAuthzDenied       EventType = "authz.denied"
	EventTypeTenantMismatch    EventType = "authz.tenant_mismatch"
	EventTypeCrossTenantAccess EventType = "authz.cross_tenant_access"

	// Pipeline faults.
	EventTypeInternalError EventType = "authz.internal_error"
)

// Severity indicates the severity level of an audit event.
type Severity string

const (
	SeverityDebug    Severity = "debug"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Outcome is the final verdict recorded for a decision.
type Outcome string

const (
	OutcomeAllowed Outcome = "allowed"
	OutcomeDenied  Outcome = "denied"
)

// Event is a security audit record. Events are append-only.
type Event struct {
	// ID is a unique identifier for this event.
	ID string `json:"id"`

	// Timestamp when the decision was made.
	Timestamp time.Time `json:"timestamp"`

	Type     EventType `json:"type"`
	Severity Severity  `json:"severity"`
	Outcome  Outcome   `json:"outcome"`

	// PrincipalID is empty when the principal was never resolved.
	PrincipalID string `json:"principal_id,omitempty"`

	// TenantID is the principal's own tenant.
	TenantID string `json:"tenant_id,omitempty"`

	// TargetTenantID is the tenant the operation addressed.
	TargetTenantID string `json:"target_tenant_id,omitempty"`

	Role             string   `json:"role,omitempty"`
	RequiredScopes   []string `json:"required_scopes,omitempty"`
	Reason           string   `json:"reason"`
	Operation        string   `json:"operation,omitempty"`
	ImplicitlyScoped bool     `json:"implicitly_scoped,omitempty"`

	// Source of the request.
	Source Source `json:"source"`

	// Description provides human-readable details.
	Description string `json:"description"`

	// Metadata contains event-specific details.
	Metadata json.RawMessage `json:"metadata,omitempty"`

	// CorrelationID links related events.
	CorrelationID string `json:"correlation_id,omitempty"`

	// RequestID from the originating request.
	RequestID string `json:"request_id,omitempty"`
}

// Source represents where a request originated.
type Source struct {
	// IPAddress of the client.
	IPAddress string `json:"ip_address,omitempty"`

	// UserAgent of the client.
	UserAgent string `json:"user_agent,omitempty"`

	// Hostname the request was addressed to.
	Hostname string `json:"hostname,omitempty"`

	// Component that asked for the decision (http, cli, ...).
	Component string `json:"component,omitempty"`
}

// Store is the audit storage collaborator.
type Store interface {
	// Append persists an event. Events are never updated or deleted.
	Append(ctx context.Context, event *Event) error
}

// Querier is implemented by stores that can read events back.
type Querier interface {
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)
}

// ErrEventNotFound is returned by Get for unknown event IDs.
var ErrEventNotFound = errors.New("audit event not found")

// QueryFilter defines filtering options for audit queries.
type QueryFilter struct {
	// Types filters by event types.
	Types []EventType `json:"types,omitempty"`

	// Severities filters by severity levels.
	Severities []Severity `json:"severities,omitempty"`

	// Outcomes filters by outcome.
	Outcomes []Outcome `json:"outcomes,omitempty"`

	// PrincipalID filters by principal.
	PrincipalID string `json:"principal_id,omitempty"`

	// TenantID matches either the principal tenant or the target tenant.
	TenantID string `json:"tenant_id,omitempty"`

	// Reason filters by decision reason.
	Reason string `json:"reason,omitempty"`

	// Operation filters by operation name.
	Operation string `json:"operation,omitempty"`

	// SourceIP filters by source IP.
	SourceIP string `json:"source_ip,omitempty"`

	// StartTime is the beginning of the time range.
	StartTime *time.Time `json:"start_time,omitempty"`

	// EndTime is the end of the time range.
	EndTime *time.Time `json:"end_time,omitempty"`

	// CorrelationID filters by correlation ID.
	CorrelationID string `json:"correlation_id,omitempty"`

	// RequestID filters by request ID.
	RequestID string `json:"request_id,omitempty"`

	// Limit is the maximum number of results.
	Limit int `json:"limit,omitempty"`
}

// DefaultQueryFilter returns a sensible default filter.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{Limit: 100}
}

// NewEventID returns a fresh event identifier.
func NewEventID() string {
	return uuid.NewString()
}

// MustJSON converts a value to JSON, returning an empty object on error.
func MustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}

type sourceKey struct{}

// ContextWithSource attaches the request source used for audit events.
func ContextWithSource(ctx context.Context, src Source) context.Context {
	return context.WithValue(ctx, sourceKey{}, src)
}

// SourceFromContext returns the source attached by ContextWithSource.
func SourceFromContext(ctx context.Context) Source {
	if ctx == nil {
		return Source{}
	}
	if src, ok := ctx.Value(sourceKey{}).(Source); ok {
		return src
	}
	return Source{}
}
