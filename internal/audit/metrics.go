// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fallback reasons.
const (
	fallbackBufferFull = "buffer_full"
	fallbackStoreError = "store_error"
	fallbackClosed     = "closed"
)

var (
	// EventsRecordedTotal counts events accepted by the sink.
	EventsRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_recorded_total",
			Help: "Total number of audit events recorded by type",
		},
		[]string{"type"},
	)

	// EventsStoredTotal counts events persisted by the configured store.
	EventsStoredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_events_stored_total",
			Help: "Total number of audit events persisted to the store",
		},
	)

	// FallbackWritesTotal counts events written to the fallback log.
	FallbackWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_fallback_writes_total",
			Help: "Total number of audit events written to the fallback log",
		},
		[]string{"reason"},
	)

	// QueueDepth tracks events waiting for the async writer.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_queue_depth",
			Help: "Current number of audit events waiting to be stored",
		},
	)
)
