// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package authz

import (
	"slices"
	"strings"
)

// DefaultFullAccessScope satisfies every requirement.
const DefaultFullAccessScope = "*"

// DefaultCrossTenantScope lets a principal address other tenants.
const DefaultCrossTenantScope = "tenant:cross_access"

// ScopeSet is an immutable set of scope strings. The zero value is empty.
type ScopeSet struct {
	m map[string]struct{}
}

// NewScopeSet builds a set, ignoring blank entries.
func NewScopeSet(scopes ...string) ScopeSet {
	m := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s != "" {
			m[s] = struct{}{}
		}
	}
	return ScopeSet{m: m}
}

// Has reports whether scope is in the set.
func (s ScopeSet) Has(scope string) bool {
	_, ok := s.m[scope]
	return ok
}

// Len returns the number of scopes.
func (s ScopeSet) Len() int { return len(s.m) }

// ContainsAll reports whether every scope is in the set.
func (s ScopeSet) ContainsAll(scopes []string) bool {
	for _, sc := range scopes {
		if !s.Has(sc) {
			return false
		}
	}
	return true
}

// Union returns a new set holding the scopes of both.
func (s ScopeSet) Union(o ScopeSet) ScopeSet {
	m := make(map[string]struct{}, len(s.m)+len(o.m))
	for k := range s.m {
		m[k] = struct{}{}
	}
	for k := range o.m {
		m[k] = struct{}{}
	}
	return ScopeSet{m: m}
}

// Intersect returns a new set holding the scopes present in both.
func (s ScopeSet) Intersect(o ScopeSet) ScopeSet {
	m := make(map[string]struct{})
	for k := range s.m {
		if o.Has(k) {
			m[k] = struct{}{}
		}
	}
	return ScopeSet{m: m}
}

// Equal reports whether both sets hold the same scopes.
func (s ScopeSet) Equal(o ScopeSet) bool {
	if s.Len() != o.Len() {
		return false
	}
	for k := range s.m {
		if !o.Has(k) {
			return false
		}
	}
	return true
}

// Slice returns the scopes sorted.
func (s ScopeSet) Slice() []string {
	out := make([]string, 0, len(s.m))
	for k := range s.m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (s ScopeSet) String() string {
	return strings.Join(s.Slice(), " ")
}
