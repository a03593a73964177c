// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Decision Metrics

	// DecisionsTotal counts pipeline decisions by reason and the state reached.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"reason", "state"},
	)

	// DecisionDuration tracks the latency of pipeline decisions.
	DecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "authz_decision_duration_seconds",
			Help: "Duration of authorization decisions in seconds",
			// Buckets optimized for authz checks (microseconds to the lookup timeout)
			Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5},
		},
		[]string{"allowed"},
	)

	// TenantViolationsTotal tracks tenant mismatches for alerting.
	TenantViolationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_tenant_violations_total",
			Help: "Total number of requests denied for addressing a foreign tenant",
		},
	)

	// CrossTenantAccessTotal counts override-scope passes.
	CrossTenantAccessTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_cross_tenant_access_total",
			Help: "Total number of cross-tenant accesses through the override scope",
		},
	)

	// PanicsRecoveredTotal counts stage panics turned into denials.
	PanicsRecoveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_panics_recovered_total",
			Help: "Total number of pipeline panics recovered as internal errors",
		},
	)

	// Hierarchy Metrics

	// HierarchyReloadsTotal counts reload attempts.
	HierarchyReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_hierarchy_reloads_total",
			Help: "Total number of role hierarchy reloads",
		},
		[]string{"status"}, // "changed", "unchanged", "failure"
	)

	// HierarchyRoles tracks the number of roles in the active snapshot.
	HierarchyRoles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "authz_hierarchy_roles",
			Help: "Number of roles in the active role hierarchy",
		},
	)
)

// RecordDecision records metrics for a completed decision.
func RecordDecision(d *Decision, duration time.Duration) {
	DecisionsTotal.WithLabelValues(string(d.Reason), d.State.String()).Inc()

	allowed := "false"
	if d.Allowed {
		allowed = "true"
	}
	DecisionDuration.WithLabelValues(allowed).Observe(duration.Seconds())

	if d.Reason == ReasonTenantMismatch {
		TenantViolationsTotal.Inc()
	}
	if d.Allowed && d.CrossTenant {
		CrossTenantAccessTotal.Inc()
	}
}
