// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package audit

import "slices"

// Matches returns true if the event satisfies every filter criterion.
//
//nolint:gocyclo // complexity inherent to multi-criteria filter matching
func (f *QueryFilter) Matches(event *Event) bool {
	if len(f.Types) > 0 && !slices.Contains(f.Types, event.Type) {
		return false
	}
	if len(f.Severities) > 0 && !slices.Contains(f.Severities, event.Severity) {
		return false
	}
	if len(f.Outcomes) > 0 && !slices.Contains(f.Outcomes, event.Outcome) {
		return false
	}

	if f.PrincipalID != "" && event.PrincipalID != f.PrincipalID {
		return false
	}
	if f.TenantID != "" && event.TenantID != f.TenantID && event.TargetTenantID != f.TenantID {
		return false
	}
	if f.Reason != "" && event.Reason != f.Reason {
		return false
	}
	if f.Operation != "" && event.Operation != f.Operation {
		return false
	}
	if f.SourceIP != "" && event.Source.IPAddress != f.SourceIP {
		return false
	}

	// Time range filter
	if f.StartTime != nil && event.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && event.Timestamp.After(*f.EndTime) {
		return false
	}

	if f.CorrelationID != "" && event.CorrelationID != f.CorrelationID {
		return false
	}
	if f.RequestID != "" && event.RequestID != f.RequestID {
		return false
	}
	return true
}
