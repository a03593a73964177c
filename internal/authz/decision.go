// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package authz

// State is a pipeline state.
type State int

const (
	StateReceived State = iota
	StateTokenVerified
	StatePrincipalResolved
	StateScopeChecked
	StateTenantChecked
	StateDecided
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateTokenVerified:
		return "token_verified"
	case StatePrincipalResolved:
		return "principal_resolved"
	case StateScopeChecked:
		return "scope_checked"
	case StateTenantChecked:
		return "tenant_checked"
	case StateDecided:
		return "decided"
	default:
		return "unknown"
	}
}

// Decision is the result of one authorization. It is created fresh per
// call and never mutated afterwards.
type Decision struct {
	Allowed bool
	Reason  Reason

	// Principal is nil when resolution did not succeed.
	Principal *Principal

	// ViolatedTenant is the foreign tenant of a TenantMismatch denial.
	ViolatedTenant string

	// TenantID is the tenant the operation was scoped to.
	TenantID string

	// ImplicitlyScoped is set when no tenant was named by the request.
	ImplicitlyScoped bool

	// CrossTenant is set when the override scope admitted a foreign tenant.
	CrossTenant bool

	// State is the last state reached before the decision.
	State State

	// Operation is the catalog name, when the call named one.
	Operation string
}

// Class returns the response class of the decision's reason.
func (d *Decision) Class() Class {
	return d.Reason.Class()
}

// PublicMessage returns generic text safe to show the caller.
func (d *Decision) PublicMessage() string {
	return d.Reason.PublicMessage()
}

func deny(reason Reason, state State) Decision {
	return Decision{Reason: reason, State: state}
}
