// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package identity

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LookupDuration measures backend lookup latency.
	LookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clinicguard_identity_lookup_duration_seconds",
			Help:    "Duration of identity store lookups",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.2, 0.5},
		},
		[]string{"backend"},
	)

	// BreakerState reports circuit breaker state (0=closed, 1=half-open, 2=open).
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clinicguard_identity_breaker_state",
			Help: "Identity store circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// BreakerTransitions counts circuit breaker state transitions.
	BreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicguard_identity_breaker_transitions_total",
			Help: "Total number of identity store circuit breaker transitions",
		},
		[]string{"name", "from", "to"},
	)

	// BreakerRejections counts lookups rejected by an open circuit.
	BreakerRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicguard_identity_breaker_rejections_total",
			Help: "Total number of identity lookups rejected by the circuit breaker",
		},
		[]string{"name"},
	)
)
