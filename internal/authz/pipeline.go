// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package authz

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/tomtom215/clinicguard/internal/audit"
	"github.com/tomtom215/clinicguard/internal/auth"
	"github.com/tomtom215/clinicguard/internal/logging"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.ClaimSet, error)
}

// PrincipalResolver builds principals from verified claims.
type PrincipalResolver interface {
	Resolve(ctx context.Context, claims *auth.ClaimSet) (*Principal, error)
}

// Authorizer evaluates permission requirements.
type Authorizer interface {
	Authorize(p *Principal, req PermissionRequirement) bool
}

// TenantIsolationEnforcer checks the targeted tenant.
type TenantIsolationEnforcer interface {
	Enforce(p *Principal, tc TenantContext) (TenantResult, error)
}

// AuditRecorder receives exactly one event per decision. It must not block.
type AuditRecorder interface {
	Record(ctx context.Context, event *audit.Event)
}

// PipelineConfig wires the pipeline components.
type PipelineConfig struct {
	Verifier TokenVerifier
	Resolver PrincipalResolver
	Scopes   Authorizer
	Tenants  TenantIsolationEnforcer
	Audit    AuditRecorder

	// Catalog resolves operation names for AuthorizeOperation. Optional.
	Catalog *Catalog
}

// Pipeline runs token verification, principal resolution, scope and tenant
// checks in order and returns a single Decision.
type Pipeline struct {
	verifier TokenVerifier
	resolver PrincipalResolver
	scopes   Authorizer
	tenants  TenantIsolationEnforcer
	audit    AuditRecorder
	catalog  *Catalog
}

// NewPipeline validates cfg and creates a pipeline.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	switch {
	case cfg.Verifier == nil:
		return nil, errors.New("token verifier is required")
	case cfg.Resolver == nil:
		return nil, errors.New("principal resolver is required")
	case cfg.Scopes == nil:
		return nil, errors.New("scope authorizer is required")
	case cfg.Tenants == nil:
		return nil, errors.New("tenant enforcer is required")
	case cfg.Audit == nil:
		return nil, errors.New("audit recorder is required")
	}
	return &Pipeline{
		verifier: cfg.Verifier,
		resolver: cfg.Resolver,
		scopes:   cfg.Scopes,
		tenants:  cfg.Tenants,
		audit:    cfg.Audit,
		catalog:  cfg.Catalog,
	}, nil
}

// Authorize decides whether token may perform an operation requiring req
// against tenant. Every completed decision is audited once; decisions for
// canceled requests are not audited.
func (p *Pipeline) Authorize(ctx context.Context, token string, req PermissionRequirement, tenant TenantContext) Decision {
	return p.run(ctx, token, "", req, tenant)
}

// AuthorizeOperation looks the operation up in the catalog. Unknown
// operations are denied with InsufficientScope once the token and principal
// have been checked.
func (p *Pipeline) AuthorizeOperation(ctx context.Context, token, operation string, tenant TenantContext) Decision {
	req, err := p.catalog.Require(operation)
	if err != nil {
		logging.Ctx(ctx).Warn().Str("operation", operation).Msg("Authorization requested for undeclared operation")
	}
	return p.run(ctx, token, operation, req, tenant)
}

func (p *Pipeline) run(ctx context.Context, token, operation string, req PermissionRequirement, tenant TenantContext) Decision {
	start := time.Now()

	d := p.decide(ctx, token, req, tenant)
	d.Operation = operation

	if d.Reason == ReasonRequestCanceled {
		DecisionsTotal.WithLabelValues(string(d.Reason), d.State.String()).Inc()
		logging.Ctx(ctx).Debug().Str("state", d.State.String()).Msg("Authorization abandoned by caller")
		return d
	}

	p.record(ctx, &d, req, tenant)
	RecordDecision(&d, time.Since(start))
	return d
}

// decide walks the state machine. The earliest failing stage wins.
func (p *Pipeline) decide(ctx context.Context, token string, req PermissionRequirement, tenant TenantContext) (d Decision) {
	state := StateReceived
	var principal *Principal

	defer func() {
		if r := recover(); r != nil {
			PanicsRecoveredTotal.Inc()
			logging.Ctx(ctx).Error().
				Str("state", state.String()).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("Authorization stage panicked")
			d = deny(ReasonInternalError, state)
			d.Principal = principal
		}
	}()

	if ctx.Err() != nil {
		return deny(ReasonRequestCanceled, state)
	}

	claims, err := p.verifier.Verify(ctx, token)
	if err != nil {
		if ctx.Err() != nil {
			return deny(ReasonRequestCanceled, state)
		}
		return deny(ReasonOf(err), state)
	}
	state = StateTokenVerified

	principal, err = p.resolver.Resolve(ctx, claims)
	if err != nil {
		if ctx.Err() != nil {
			return deny(ReasonRequestCanceled, state)
		}
		return deny(ReasonOf(err), state)
	}
	if principal == nil || !principal.IsActive {
		return deny(ReasonPrincipalInactive, state)
	}
	state = StatePrincipalResolved

	if !p.scopes.Authorize(principal, req) {
		d = deny(ReasonInsufficientScope, state)
		d.Principal = principal
		return d
	}
	state = StateScopeChecked

	res, err := p.tenants.Enforce(principal, tenant)
	if err != nil {
		d = deny(ReasonOf(err), state)
		d.Principal = principal
		d.TenantID = res.TenantID
		if d.Reason == ReasonTenantMismatch {
			d.ViolatedTenant = res.TenantID
		}
		return d
	}
	state = StateTenantChecked

	return Decision{
		Allowed:          true,
		Reason:           ReasonAllowed,
		Principal:        principal,
		TenantID:         res.TenantID,
		ImplicitlyScoped: res.ImplicitlyScoped,
		CrossTenant:      res.CrossTenant,
		State:            state,
	}
}

// record emits the decision's audit event. Recorder panics are contained.
func (p *Pipeline) record(ctx context.Context, d *Decision, req PermissionRequirement, tenant TenantContext) {
	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().Str("panic", fmt.Sprint(r)).Msg("Audit recorder panicked")
		}
	}()
	p.audit.Record(ctx, eventFor(ctx, d, req, tenant))
}

// eventFor builds the audit event describing d.
func eventFor(ctx context.Context, d *Decision, req PermissionRequirement, tenant TenantContext) *audit.Event {
	src := audit.SourceFromContext(ctx)
	e := &audit.Event{
		Type:             eventType(d),
		Severity:         severity(d),
		Outcome:          audit.OutcomeDenied,
		RequiredScopes:   req.Scopes(),
		Reason:           string(d.Reason),
		Operation:        d.Operation,
		ImplicitlyScoped: d.ImplicitlyScoped,
		Source:           src,
		Description:      description(d),
		Metadata: audit.MustJSON(map[string]string{
			"state":         d.State.String(),
			"requirement":   req.String(),
			"tenant_source": tenant.Source.String(),
		}),
	}
	if d.Allowed {
		e.Outcome = audit.OutcomeAllowed
	}
	if d.Principal != nil {
		e.PrincipalID = d.Principal.ID
		e.TenantID = d.Principal.TenantID
		e.Role = d.Principal.Role
	}
	if tenant.IsExplicit() {
		e.TargetTenantID = strings.TrimSpace(tenant.TenantID)
	}
	return e
}

func eventType(d *Decision) audit.EventType {
	switch {
	case d.Allowed && d.CrossTenant:
		return audit.EventTypeCrossTenantAccess
	case d.Allowed:
		return audit.EventTypeAuthzGranted
	}
	switch d.Reason {
	case ReasonTenantMismatch:
		return audit.EventTypeTenantMismatch
	case ReasonPrincipalInactive:
		return audit.EventTypePrincipalInactive
	case ReasonIdentityLookupTimeout, ReasonIdentityUnavailable:
		return audit.EventTypeIdentityUnavailable
	case ReasonInternalError:
		return audit.EventTypeInternalError
	case ReasonInsufficientScope:
		return audit.EventTypeAuthzDenied
	default:
		return audit.EventTypeAuthFailure
	}
}

func severity(d *Decision) audit.Severity {
	switch {
	case d.Allowed && d.CrossTenant:
		return audit.SeverityWarning
	case d.Allowed:
		return audit.SeverityInfo
	}
	switch d.Reason {
	case ReasonTenantMismatch, ReasonInternalError:
		return audit.SeverityError
	default:
		return audit.SeverityWarning
	}
}

func description(d *Decision) string {
	switch {
	case d.Allowed && d.CrossTenant:
		return fmt.Sprintf("Cross-tenant access granted to tenant %s", d.TenantID)
	case d.Allowed:
		return "Access granted"
	case d.Reason == ReasonTenantMismatch:
		return fmt.Sprintf("Access to tenant %s denied", d.ViolatedTenant)
	default:
		return "Access denied: " + string(d.Reason)
	}
}
