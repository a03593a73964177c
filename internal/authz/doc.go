// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

// Package authz decides whether a bearer token may perform an operation.
//
// # Architecture
//
// The Pipeline runs four stages in a fixed order and stops at the first
// failure:
//
//	Received -> TokenVerified -> PrincipalResolved -> ScopeChecked -> TenantChecked -> Decided
//	   |              |                  |                  |
//	 auth.Verifier  Resolver       ScopeAuthorizer     TenantEnforcer
//
// Every decision that reaches Decided produces exactly one audit event.
// Requests canceled by the caller are not audited.
//
// # Role Hierarchy
//
// Roles imply scopes through a Casbin RBAC model:
//
//	[request_definition]
//	r = sub, obj
//
//	[policy_definition]
//	p = sub, obj
//
//	[role_definition]
//	g = _, _
//
//	[policy_effect]
//	e = some(where (p.eft == allow))
//
//	[matchers]
//	m = g(r.sub, p.sub) && r.obj == p.obj
//
// Policies name scopes per role and inheritance between roles:
//
//	p, manager, patient:read
//	p, clinic_admin, patient:write
//	g, clinic_admin, manager
//
// The flattened table is an immutable RoleHierarchy. A HierarchyHolder
// publishes it through an atomic pointer and HierarchyReloader swaps in new
// snapshots; cyclic or unreadable policies never replace a valid one.
//
// # Scopes
//
// A principal's scopes are its token scopes that its current role still
// supports, plus any per-user overrides from the identity store. Role
// scopes are added again at check time, so downgrading a role takes effect
// without reissuing tokens. The full-access scope "*" satisfies every
// requirement; "tenant:cross_access" admits other tenants and is always
// audited.
//
// # Usage Example
//
//	pipeline, err := authz.NewPipeline(authz.PipelineConfig{
//	    Verifier: verifier,
//	    Resolver: authz.NewResolver(store, holder, authz.ResolverConfig{}),
//	    Scopes:   authz.NewScopeAuthorizer(holder, ""),
//	    Tenants:  authz.NewTenantEnforcer(holder, "", ""),
//	    Audit:    sink,
//	})
//
//	d := pipeline.Authorize(ctx, token,
//	    authz.RequireAll("patient:read"),
//	    authz.ExplicitTenant("clinic-1", authz.TenantSourcePath))
//	if !d.Allowed {
//	    http.Error(w, d.PublicMessage(), status)
//	}
package authz
