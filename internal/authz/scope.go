// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package authz

// ScopeAuthorizer checks principals against permission requirements,
// expanding their scopes with the role hierarchy at check time.
type ScopeAuthorizer struct {
	roles RoleScopes
	full  string
}

// NewScopeAuthorizer creates an authorizer. An empty fullAccess selects "*".
func NewScopeAuthorizer(roles RoleScopes, fullAccess string) *ScopeAuthorizer {
	if fullAccess == "" {
		fullAccess = DefaultFullAccessScope
	}
	return &ScopeAuthorizer{roles: roles, full: fullAccess}
}

// EffectiveScopes returns the principal's scopes plus every scope its role
// implies. Applying it twice yields the same set.
func EffectiveScopes(p *Principal, roles RoleScopes) ScopeSet {
	if p == nil {
		return ScopeSet{}
	}
	if roles == nil {
		return p.Scopes
	}
	return p.Scopes.Union(roles.ImpliedScopes(p.Role))
}

// Authorize reports whether p satisfies req.
func (a *ScopeAuthorizer) Authorize(p *Principal, req PermissionRequirement) bool {
	if p == nil || !p.IsActive || req.unsatisfiable {
		return false
	}

	scopes := EffectiveScopes(p, a.roles)
	if scopes.Has(a.full) {
		return true
	}
	if req.IsEmpty() {
		return true
	}
	if scopes.Len() == 0 {
		return false
	}

	if !scopes.ContainsAll(req.AllOf) {
		return false
	}
	if len(req.AnyOf) == 0 {
		return true
	}
	for _, group := range req.AnyOf {
		if len(group) > 0 && scopes.ContainsAll(group) {
			return true
		}
	}
	return false
}
