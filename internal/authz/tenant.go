// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package authz

import "strings"

// TenantSource records where a target tenant id was found. The zero value
// means the caller did not say; it does not make a named tenant implicit.
type TenantSource int

const (
	TenantSourceUnspecified TenantSource = iota
	TenantSourceQuery
	TenantSourceBody
	TenantSourcePath
)

func (s TenantSource) String() string {
	switch s {
	case TenantSourcePath:
		return "path"
	case TenantSourceBody:
		return "body"
	case TenantSourceQuery:
		return "query"
	default:
		return "unspecified"
	}
}

// TenantContext is the tenant an operation targets.
type TenantContext struct {
	TenantID string
	Source   TenantSource
}

// ExplicitTenant targets id found in src.
func ExplicitTenant(id string, src TenantSource) TenantContext {
	return TenantContext{TenantID: strings.TrimSpace(id), Source: src}
}

// ImplicitTenant targets the principal's own tenant.
func ImplicitTenant() TenantContext {
	return TenantContext{}
}

// IsExplicit reports whether the request named a tenant, wherever it was
// found. Only a context without any tenant id falls back to the principal's
// own tenant.
func (t TenantContext) IsExplicit() bool {
	return strings.TrimSpace(t.TenantID) != ""
}

// ResolveTenantContext picks the first tenant id present in priority order:
// path parameter, body field, query parameter. None yields an implicit context.
func ResolveTenantContext(path, body, query string) TenantContext {
	candidates := []struct {
		id  string
		src TenantSource
	}{
		{path, TenantSourcePath},
		{body, TenantSourceBody},
		{query, TenantSourceQuery},
	}
	for _, c := range candidates {
		if id := strings.TrimSpace(c.id); id != "" {
			return TenantContext{TenantID: id, Source: c.src}
		}
	}
	return ImplicitTenant()
}

// TenantResult is the outcome of a tenant check.
type TenantResult struct {
	// TenantID is the tenant the operation is scoped to.
	TenantID string

	// ImplicitlyScoped is set when no tenant was named and the principal's
	// own tenant was assumed.
	ImplicitlyScoped bool

	// CrossTenant is set when the override scope admitted a foreign tenant.
	CrossTenant bool
}

// TenantEnforcer keeps principals inside their own tenant unless they hold
// the cross-tenant override scope.
type TenantEnforcer struct {
	roles    RoleScopes
	override string
	full     string
}

// NewTenantEnforcer creates an enforcer. Empty scopes select the defaults.
// The full-access scope implies the override.
func NewTenantEnforcer(roles RoleScopes, overrideScope, fullAccess string) *TenantEnforcer {
	if overrideScope == "" {
		overrideScope = DefaultCrossTenantScope
	}
	if fullAccess == "" {
		fullAccess = DefaultFullAccessScope
	}
	return &TenantEnforcer{roles: roles, override: overrideScope, full: fullAccess}
}

// Enforce checks p against tc. A mismatch returns the target tenant in the
// result and an *Error with reason TenantMismatch.
func (e *TenantEnforcer) Enforce(p *Principal, tc TenantContext) (TenantResult, error) {
	if p == nil || !p.IsActive {
		return TenantResult{}, newError(ReasonPrincipalInactive, "principal is not active")
	}

	if !tc.IsExplicit() {
		return TenantResult{TenantID: p.TenantID, ImplicitlyScoped: true}, nil
	}
	target := strings.TrimSpace(tc.TenantID)
	if p.TenantID != "" && target == p.TenantID {
		return TenantResult{TenantID: target}, nil
	}

	scopes := EffectiveScopes(p, e.roles)
	if scopes.Has(e.override) || scopes.Has(e.full) {
		return TenantResult{TenantID: target, CrossTenant: true}, nil
	}

	return TenantResult{TenantID: target}, newError(ReasonTenantMismatch,
		"principal tenant %q, target tenant %q (%s)", p.TenantID, target, tc.Source)
}
