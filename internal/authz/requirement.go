// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package authz

import (
	"slices"
	"strings"
)

// PermissionRequirement declares the scopes an operation needs.
//
// AllOf must all be held. AnyOf holds alternative groups: at least one group
// must be held in full. When both are set both must hold. The zero value
// requires authentication only.
type PermissionRequirement struct {
	AllOf []string
	AnyOf [][]string

	// unsatisfiable requirements deny every principal.
	unsatisfiable bool
}

// RequireAll requires every scope.
func RequireAll(scopes ...string) PermissionRequirement {
	return PermissionRequirement{AllOf: scopes}
}

// RequireAny requires at least one complete group.
func RequireAny(groups ...[]string) PermissionRequirement {
	return PermissionRequirement{AnyOf: groups}
}

// Authenticated requires nothing beyond a valid, active principal.
func Authenticated() PermissionRequirement {
	return PermissionRequirement{}
}

// denyAll is the requirement of an undeclared operation.
func denyAll() PermissionRequirement {
	return PermissionRequirement{unsatisfiable: true}
}

// IsEmpty reports whether no scope is required.
func (r PermissionRequirement) IsEmpty() bool {
	return !r.unsatisfiable && len(r.AllOf) == 0 && len(r.AnyOf) == 0
}

// Scopes returns every scope mentioned by r, sorted and deduplicated.
func (r PermissionRequirement) Scopes() []string {
	var out []string
	out = append(out, r.AllOf...)
	for _, g := range r.AnyOf {
		out = append(out, g...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (r PermissionRequirement) String() string {
	if r.unsatisfiable {
		return "deny"
	}
	if r.IsEmpty() {
		return "authenticated"
	}
	var parts []string
	if len(r.AllOf) > 0 {
		parts = append(parts, "all("+strings.Join(r.AllOf, ",")+")")
	}
	if len(r.AnyOf) > 0 {
		groups := make([]string, len(r.AnyOf))
		for i, g := range r.AnyOf {
			groups[i] = "[" + strings.Join(g, ",") + "]"
		}
		parts = append(parts, "any("+strings.Join(groups, " ")+")")
	}
	return strings.Join(parts, " and ")
}

// Operation is the static metadata of a protected operation.
type Operation struct {
	Name        string
	Requirement PermissionRequirement
}
