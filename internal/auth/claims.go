// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package auth

import (
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims is the wire shape of an access token payload.
type tokenClaims struct {
	jwt.RegisteredClaims
	Scope    string           `json:"scope,omitempty"`
	Scp      jwt.ClaimStrings `json:"scp,omitempty"`
	TenantID string           `json:"tenant_id,omitempty"`
	Role     string           `json:"role,omitempty"`
}

// ClaimSet is the verified payload of a bearer token. It can only be
// obtained from Verifier.Verify and is immutable.
type ClaimSet struct {
	subject   string
	tenantID  string
	role      string
	tokenID   string
	issuer    string
	scopes    []string
	issuedAt  time.Time
	expiresAt time.Time
	notBefore time.Time
}

// Subject returns the sub claim.
func (c *ClaimSet) Subject() string { return c.subject }

// TenantID returns the tenant_id hint, possibly empty.
func (c *ClaimSet) TenantID() string { return c.tenantID }

// Role returns the role hint, possibly empty.
func (c *ClaimSet) Role() string { return c.role }

// TokenID returns the jti claim, possibly empty.
func (c *ClaimSet) TokenID() string { return c.tokenID }

// Issuer returns the iss claim, possibly empty.
func (c *ClaimSet) Issuer() string { return c.issuer }

// IssuedAt returns the iat claim.
func (c *ClaimSet) IssuedAt() time.Time { return c.issuedAt }

// ExpiresAt returns the exp claim.
func (c *ClaimSet) ExpiresAt() time.Time { return c.expiresAt }

// NotBefore returns the nbf claim, or iat when nbf was absent.
func (c *ClaimSet) NotBefore() time.Time { return c.notBefore }

// Scopes returns the sorted, de-duplicated scopes.
func (c *ClaimSet) Scopes() []string {
	return append([]string(nil), c.scopes...)
}

// HasScope reports whether the token declares scope.
func (c *ClaimSet) HasScope(scope string) bool {
	i := sort.SearchStrings(c.scopes, scope)
	return i < len(c.scopes) && c.scopes[i] == scope
}

// mergeScopes combines the space-delimited scope claim with the scp array.
func mergeScopes(scope string, scp []string) []string {
	seen := make(map[string]struct{})
	for _, s := range strings.Fields(scope) {
		seen[s] = struct{}{}
	}
	for _, s := range scp {
		if s = strings.TrimSpace(s); s != "" {
			seen[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
