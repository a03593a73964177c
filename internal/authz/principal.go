// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package authz

// Principal is the resolved actor of one request. It is built per request
// and never cached.
type Principal struct {
	ID          string
	Email       string
	DisplayName string
	Role        string
	Scopes      ScopeSet
	TenantID    string

	// IsActive false fails every check regardless of scopes.
	IsActive bool
}

// HasScope reports whether the principal directly holds scope.
func (p *Principal) HasScope(scope string) bool {
	return p != nil && p.Scopes.Has(scope)
}
