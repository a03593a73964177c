// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package httpguard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicguard_http_requests_total",
			Help: "HTTP requests handled by the decision service",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clinicguard_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// HTTPActiveRequests is the number of in-flight requests.
	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clinicguard_http_active_requests",
			Help: "In-flight HTTP requests",
		},
	)

	// GuardRejectionsTotal counts requests rejected by a Guard, by status.
	GuardRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicguard_http_guard_rejections_total",
			Help: "Requests rejected by the authorization guard",
		},
		[]string{"status"},
	)
)
