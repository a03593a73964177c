// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package auth

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Token verification and key material metrics.

var (
	// TokenVerificationsTotal counts verification outcomes.
	// Labels:
	//   - result: "valid", "missing", "malformed", "invalid_signature", "expired", "not_yet_valid"
	TokenVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicguard_token_verifications_total",
			Help: "Total number of bearer token verifications by result",
		},
		[]string{"result"},
	)

	// KeyRefreshesTotal counts key refresh attempts.
	// Labels:
	//   - trigger: "startup", "timer", "unknown_kid"
	//   - outcome: "success", "error"
	KeyRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicguard_key_refreshes_total",
			Help: "Total number of verification key refreshes",
		},
		[]string{"trigger", "outcome"},
	)

	// KeyRefreshDuration measures provider fetch latency.
	KeyRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clinicguard_key_refresh_duration_seconds",
			Help:    "Duration of verification key refreshes",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.2, 0.5, 1},
		},
	)

	// KeyRefreshesThrottledTotal counts unknown-kid refreshes suppressed by the rate limit.
	KeyRefreshesThrottledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clinicguard_key_refreshes_throttled_total",
			Help: "Total number of unknown key id refreshes suppressed by rate limiting",
		},
	)

	// KeyRotationsTotal counts refreshes that changed the key set.
	KeyRotationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clinicguard_key_rotations_total",
			Help: "Total number of detected verification key rotations",
		},
	)

	// VerificationKeys reports the number of cached keys.
	VerificationKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clinicguard_verification_keys",
			Help: "Number of verification keys currently cached",
		},
	)
)

// verificationResult maps a Verify error to its metric label.
func verificationResult(err error) string {
	switch {
	case err == nil:
		return "valid"
	case errors.Is(err, ErrMissingToken):
		return "missing"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrNotYetValid):
		return "not_yet_valid"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}
